package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/arquivamais/processos/internal/auth"
	"github.com/arquivamais/processos/internal/service"
)

type contextKey string

// ContextKeyPrincipal guarda o usuário autenticado da requisição.
const ContextKeyPrincipal contextKey = "principal"

// TokenParser valida tokens de acesso.
type TokenParser interface {
	ParseAndValidate(token string) (*auth.Claims, error)
}

// PrincipalLoader recarrega o usuário do token a partir do banco.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID int64) (*service.Principal, error)
}

// Auth valida o JWT de acesso e injeta o usuário, com papel e órgão atuais, no contexto.
func Auth(tokens TokenParser, loader PrincipalLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := tokens.ParseAndValidate(strings.TrimSpace(parts[1]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			userID, err := strconv.ParseInt(claims.Subject, 10, 64)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "subject inválido")
				return
			}

			principal, err := loader.LoadPrincipal(r.Context(), userID)
			if err != nil {
				if errors.Is(err, service.ErrNotAuthenticated) || errors.Is(err, service.ErrInvalidRole) {
					writeError(w, http.StatusUnauthorized, "AUTH", "usuário não encontrado ou inativo")
					return
				}
				log.Error().Err(err).Int64("usuario_id", userID).Msg("falha ao carregar usuário autenticado")
				writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// WithPrincipal injeta o usuário autenticado no contexto.
func WithPrincipal(ctx context.Context, p *service.Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// GetPrincipal recupera o usuário autenticado; nil quando ausente.
func GetPrincipal(ctx context.Context) *service.Principal {
	val, _ := ctx.Value(ContextKeyPrincipal).(*service.Principal)
	return val
}

// RequireRole exige papel mínimo. Sem usuário responde 401, papel abaixo do exigido 403.
func RequireRole(min service.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			switch err := service.Authorize(p, min); {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, service.ErrNotAuthenticated):
				writeError(w, http.StatusUnauthorized, "AUTH", err.Error())
			default:
				log.Warn().Int64("usuario_id", p.ID).Str("role", string(p.Role)).
					Str("required", string(min)).Str("path", r.URL.Path).Msg("acesso negado por papel")
				writeError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
			}
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
