package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	httpmiddleware "github.com/arquivamais/processos/internal/http/middleware"
	"github.com/arquivamais/processos/internal/service"
)

const refreshCookieName = "refreshToken"

// Login autentica por e-mail e senha.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
		Senha string `json:"senha"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	if strings.TrimSpace(payload.Email) == "" || payload.Senha == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "email e senha são obrigatórios", nil)
		return
	}

	result, err := h.auth.Login(r.Context(), payload.Email, payload.Senha)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) && h.logins != nil {
			h.logins.LoginFalhou()
		}
		writeServiceError(w, r, err, "erro ao autenticar")
		return
	}

	h.writeLoginSuccess(w, result)
}

// Refresh rotaciona a sessão a partir do cookie (ou do corpo, para clientes sem cookie).
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := refreshFromRequest(r)
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "AUTH", "refresh ausente", nil)
		return
	}

	result, err := h.auth.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrRefreshInvalid) {
			h.clearRefreshCookie(w)
		}
		writeServiceError(w, r, err, "erro ao renovar sessão")
		return
	}

	h.writeLoginSuccess(w, result)
}

// Logout revoga a sessão do usuário autenticado.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	p := httpmiddleware.GetPrincipal(r.Context())
	token := ""
	if c, err := r.Cookie(refreshCookieName); err == nil {
		token = c.Value
	}
	if err := h.auth.Logout(r.Context(), p.ID, token); err != nil {
		writeServiceError(w, r, err, "não foi possível encerrar a sessão")
		return
	}

	h.clearRefreshCookie(w)
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Logout realizado com sucesso"})
}

// Perfil devolve o usuário autenticado.
func (h *Handler) Perfil(w http.ResponseWriter, r *http.Request) {
	p := httpmiddleware.GetPrincipal(r.Context())
	usuario, err := h.usuarios.Get(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível carregar perfil")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"usuario": usuario})
}

// Verify confirma que o token ainda é válido.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"valid":   true,
		"usuario": httpmiddleware.GetPrincipal(r.Context()),
	})
}

// ChangeOwnPassword troca a senha do próprio usuário.
func (h *Handler) ChangeOwnPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SenhaAtual string `json:"senha_atual"`
		NovaSenha  string `json:"nova_senha"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	p := httpmiddleware.GetPrincipal(r.Context())
	if err := h.usuarios.ChangeOwnPassword(r.Context(), p.ID, payload.SenhaAtual, payload.NovaSenha); err != nil {
		writeServiceError(w, r, err, "não foi possível alterar a senha")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Senha alterada com sucesso"})
}

// ListUsuarios lista usuários do órgão; admin pode escolher outro órgão via orgao_id.
func (h *Handler) ListUsuarios(w http.ResponseWriter, r *http.Request) {
	p := httpmiddleware.GetPrincipal(r.Context())
	orgaoID := p.OrgaoID
	if raw := strings.TrimSpace(r.URL.Query().Get("orgao_id")); raw != "" && p.Role == service.RoleAdmin {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "orgao_id inválido", map[string]string{"field": "orgao_id"})
			return
		}
		orgaoID = v
	}
	apenasAtivos := r.URL.Query().Get("ativos") == "true"

	usuarios, err := h.usuarios.List(r.Context(), &orgaoID, apenasAtivos)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível listar usuários")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"usuarios": usuarios})
}

// RegisterUsuario cadastra usuário.
func (h *Handler) RegisterUsuario(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if !decodeJSON(w, r, &input) {
		return
	}

	usuario, err := h.usuarios.Register(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível cadastrar usuário")
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"usuario": usuario})
}

// UpdateUsuario altera dados cadastrais e papel.
func (h *Handler) UpdateUsuario(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var input service.UpdateUsuarioInput
	if !decodeJSON(w, r, &input) {
		return
	}

	p := httpmiddleware.GetPrincipal(r.Context())
	if id == p.ID && input.Ativo != nil && !*input.Ativo {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "não é possível desativar o próprio usuário", map[string]string{"field": "ativo"})
		return
	}

	usuario, err := h.usuarios.Update(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível atualizar usuário")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"usuario": usuario})
}

// ResetPassword define nova senha para outro usuário.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var payload struct {
		NovaSenha string `json:"nova_senha"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	if err := h.usuarios.ResetPassword(r.Context(), id, payload.NovaSenha); err != nil {
		writeServiceError(w, r, err, "não foi possível redefinir a senha")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Senha redefinida com sucesso"})
}

// DeactivateUsuario desativa usuário e encerra sua sessão.
func (h *Handler) DeactivateUsuario(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	p := httpmiddleware.GetPrincipal(r.Context())
	if err := h.usuarios.Deactivate(r.Context(), p.ID, id); err != nil {
		writeServiceError(w, r, err, "não foi possível desativar usuário")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Usuário desativado com sucesso"})
}

func (h *Handler) writeLoginSuccess(w http.ResponseWriter, result *service.LoginResult) {
	h.setRefreshCookie(w, result.RefreshToken, result.RefreshExpiry)

	WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": result.AccessToken,
		"usuario":      result.Usuario,
	})
}

func refreshFromRequest(r *http.Request) string {
	if c, err := r.Cookie(refreshCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	var payload struct {
		RefreshToken string `json:"refreshToken"`
	}
	if r.Body == nil || r.ContentLength == 0 {
		return ""
	}
	if err := jsonDecoder(r).Decode(&payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.RefreshToken)
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge <= 0 {
		maxAge = int(h.refreshTTL.Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}
