package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims representa as informações presentes nos JWTs emitidos.
type Claims struct {
	Role    string `json:"role,omitempty"`
	OrgaoID int64  `json:"orgao_id,omitempty"`
	Type    string `json:"typ"`
	jwt.RegisteredClaims
}

// JWTManager encapsula geração e validação de tokens.
type JWTManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTManager cria o gerenciador com segredo e TTLs configurados.
func NewJWTManager(secret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// RefreshTTL informa a validade dos refresh tokens.
func (m *JWTManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// GenerateAccessToken cria um JWT HS256 de curta duração com papel e órgão.
func (m *JWTManager) GenerateAccessToken(subject, role string, orgaoID int64) (string, string, error) {
	return m.sign(Claims{Role: role, OrgaoID: orgaoID, Type: tokenTypeAccess}, subject, m.accessTTL)
}

// GenerateRefreshToken cria um JWT de longa duração usado apenas na rotação de sessão.
func (m *JWTManager) GenerateRefreshToken(subject string) (string, time.Time, error) {
	expires := time.Now().UTC().Add(m.refreshTTL)
	token, _, err := m.sign(Claims{Type: tokenTypeRefresh}, subject, m.refreshTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

func (m *JWTManager) sign(claims Claims, subject string, ttl time.Duration) (string, string, error) {
	now := time.Now().UTC()
	jti := uuid.NewString()

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        jti,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// ParseAndValidate verifica assinatura, expiração e tipo de um token de acesso.
func (m *JWTManager) ParseAndValidate(tokenString string) (*Claims, error) {
	return m.parse(tokenString, tokenTypeAccess)
}

// ParseRefresh verifica assinatura, expiração e tipo de um refresh token.
func (m *JWTManager) ParseRefresh(tokenString string) (*Claims, error) {
	return m.parse(tokenString, tokenTypeRefresh)
}

func (m *JWTManager) parse(tokenString, expectedType string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("token inválido")
	}
	if claims.Type != expectedType {
		return nil, errors.New("tipo de token inválido")
	}
	return claims, nil
}
