package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/arquivamais/processos/internal/auth"
	"github.com/arquivamais/processos/internal/repo"
	"github.com/arquivamais/processos/internal/util"
)

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
)

type authRepository interface {
	GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error)
	GetUsuarioByID(ctx context.Context, id int64) (repo.Usuario, error)
	UpdateSenha(ctx context.Context, id int64, senhaHash string) error
	SetRefreshToken(ctx context.Context, id int64, tokenHash string, expira time.Time) error
	ClearRefreshToken(ctx context.Context, id int64) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra regras de autenticação e sessões.
type AuthService struct {
	repo  authRepository
	redis redisCommander
	jwt   *auth.JWTManager
	now   func() time.Time
}

// NewAuthService cria novo serviço.
func NewAuthService(r *repo.Queries, redisClient *redis.Client, jwtMgr *auth.JWTManager) *AuthService {
	return &AuthService{repo: r, redis: redisClient, jwt: jwtMgr, now: util.Now}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	AccessToken   string
	RefreshToken  string
	RefreshExpiry time.Time
	Usuario       *Principal
}

// Login autentica por e-mail e senha.
// Usuário inexistente, inativo ou senha errada produzem o mesmo erro.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUsuarioByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Ativo {
		log.Warn().Int64("usuario_id", user.ID).Msg("login: usuário inativo")
		return nil, ErrInvalidCredentials
	}

	ok, err := auth.Verify(password, user.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Int64("usuario_id", user.ID).Msg("login: verify password failed")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Int64("usuario_id", user.ID).Msg("login: senha inválida")
		return nil, ErrInvalidCredentials
	}

	if !Role(user.Role).Valid() {
		log.Warn().Int64("usuario_id", user.ID).Str("role", user.Role).Msg("login: papel inválido")
		return nil, ErrInvalidRole
	}

	if auth.NeedsRehash(user.SenhaHash) {
		if hash, err := auth.Hash(password); err == nil {
			if err := s.repo.UpdateSenha(ctx, user.ID, hash); err != nil {
				log.Warn().Err(err).Int64("usuario_id", user.ID).Msg("login: não foi possível atualizar hash legado")
			}
		}
	}

	return s.issueSession(ctx, user)
}

// Refresh troca o refresh token por um novo par, sobrescrevendo o digest anterior.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	claims, err := s.jwt.ParseRefresh(rawToken)
	if err != nil {
		return nil, ErrRefreshInvalid
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrRefreshInvalid
	}

	user, err := s.repo.GetUsuarioByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	hash := auth.HashRefreshToken(rawToken)
	if !user.Ativo || user.RefreshTokenHash == nil || *user.RefreshTokenHash != hash {
		return nil, ErrRefreshInvalid
	}
	if user.RefreshTokenExpira == nil || s.now().After(*user.RefreshTokenExpira) {
		return nil, ErrRefreshInvalid
	}

	redisKey := auth.SessionKey(hash)
	status, err := s.redis.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}
	if status != "active" {
		return nil, ErrRefreshInvalid
	}

	if !Role(user.Role).Valid() {
		return nil, ErrInvalidRole
	}

	result, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return nil, err
	}

	return result, nil
}

// Logout encerra a sessão do usuário. A revogação vale quando o digest sai do
// banco; a chave Redis é só limpeza, já que Refresh exige os dois.
func (s *AuthService) Logout(ctx context.Context, userID int64, rawToken string) error {
	if err := s.repo.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("logout: limpar refresh: %w", err)
	}
	if rawToken == "" {
		return nil
	}
	redisKey := auth.SessionKey(auth.HashRefreshToken(rawToken))
	if err := s.redis.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		log.Warn().Err(err).Int64("usuario_id", userID).Msg("logout: chave de sessão não removida")
	}
	return nil
}

// LoadPrincipal recarrega o usuário do token; papel e órgão sempre vêm do banco.
func (s *AuthService) LoadPrincipal(ctx context.Context, userID int64) (*Principal, error) {
	user, err := s.repo.GetUsuarioByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	if !user.Ativo {
		return nil, ErrNotAuthenticated
	}
	if !Role(user.Role).Valid() {
		return nil, ErrInvalidRole
	}
	return toPrincipal(user), nil
}

func (s *AuthService) issueSession(ctx context.Context, user repo.Usuario) (*LoginResult, error) {
	subject := strconv.FormatInt(user.ID, 10)

	access, _, err := s.jwt.GenerateAccessToken(subject, user.Role, user.OrgaoID)
	if err != nil {
		return nil, err
	}

	refresh, expires, err := s.jwt.GenerateRefreshToken(subject)
	if err != nil {
		return nil, err
	}

	hash := auth.HashRefreshToken(refresh)
	if err := s.repo.SetRefreshToken(ctx, user.ID, hash, expires); err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, auth.SessionKey(hash), "active", time.Until(expires)).Err(); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:   access,
		RefreshToken:  refresh,
		RefreshExpiry: expires,
		Usuario:       toPrincipal(user),
	}, nil
}

func toPrincipal(user repo.Usuario) *Principal {
	return &Principal{
		ID:      user.ID,
		Nome:    user.Nome,
		Email:   user.Email,
		Role:    Role(user.Role),
		OrgaoID: user.OrgaoID,
	}
}
