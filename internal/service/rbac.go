package service

import (
	"errors"
	"strings"
)

var (
	// ErrNotAuthenticated indica ausência de principal autenticado.
	ErrNotAuthenticated = errors.New("usuário não autenticado")
	// ErrInsufficientRole indica principal autenticado sem o nível exigido.
	ErrInsufficientRole = errors.New("permissão insuficiente")
	// ErrForbidden indica ausência de permissão.
	ErrForbidden = errors.New("acesso negado")
	// ErrInvalidRole indica papel fora da hierarquia.
	ErrInvalidRole = errors.New("papel inválido")
)

// Role é um nível da hierarquia de acesso.
type Role string

const (
	RoleTramitador Role = "tramitador"
	RoleEditor     Role = "editor"
	RoleModerador  Role = "moderador"
	RoleGestor     Role = "gestor"
	RoleAdmin      Role = "admin"
)

var roleWeights = map[Role]int{
	RoleTramitador: 1,
	RoleEditor:     2,
	RoleModerador:  3,
	RoleGestor:     4,
	RoleAdmin:      99,
}

// Roles devolve os papéis válidos em ordem crescente de peso.
func Roles() []Role {
	return []Role{RoleTramitador, RoleEditor, RoleModerador, RoleGestor, RoleAdmin}
}

// Weight devolve o peso do papel; papéis desconhecidos pesam 0.
func (r Role) Weight() int {
	return roleWeights[r]
}

// Valid informa se o papel pertence à hierarquia.
func (r Role) Valid() bool {
	_, ok := roleWeights[r]
	return ok
}

// ParseRole normaliza e valida um papel vindo de entrada externa.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

// HasMinRole compara pesos: actual atende required quando pesa pelo menos o mesmo.
func HasMinRole(actual, required Role) bool {
	if !actual.Valid() || !required.Valid() {
		return false
	}
	return actual.Weight() >= required.Weight()
}

// Authorize distingue falta de autenticação de falta de nível.
func Authorize(p *Principal, required Role) error {
	if p == nil {
		return ErrNotAuthenticated
	}
	if !HasMinRole(p.Role, required) {
		return ErrInsufficientRole
	}
	return nil
}

// MigrateLegacyRole converte papéis do esquema antigo para a hierarquia atual.
func MigrateLegacyRole(old string) Role {
	switch strings.ToLower(strings.TrimSpace(old)) {
	case "user", "tecnico":
		return RoleEditor
	case "operador":
		return RoleTramitador
	case "gestor":
		return RoleModerador
	case "diretor":
		return RoleGestor
	case "admin":
		return RoleAdmin
	default:
		return RoleTramitador
	}
}

// Principal é o usuário autenticado resolvido a partir do token.
type Principal struct {
	ID      int64  `json:"id"`
	Nome    string `json:"nome"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
	OrgaoID int64  `json:"orgao_id"`
}
