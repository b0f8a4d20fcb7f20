package http

import (
	"net/http"
	"strconv"
	"strings"

	httpmiddleware "github.com/arquivamais/processos/internal/http/middleware"
	"github.com/arquivamais/processos/internal/orgao"
	"github.com/arquivamais/processos/internal/service"
)

// ListOrgaos lista órgãos; fora do papel admin só o próprio órgão é visível.
func (h *Handler) ListOrgaos(w http.ResponseWriter, r *http.Request) {
	p := httpmiddleware.GetPrincipal(r.Context())
	if p.Role != service.RoleAdmin {
		o, err := h.orgaos.Get(r.Context(), p.OrgaoID)
		if err != nil {
			writeServiceError(w, r, err, "não foi possível listar órgãos")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"orgaos": []orgao.Orgao{*o}})
		return
	}

	q := r.URL.Query()
	filter := orgao.ListFilter{
		Busca: strings.TrimSpace(q.Get("busca")),
		Tipo:  orgao.Tipo(strings.ToUpper(strings.TrimSpace(q.Get("tipo")))),
	}
	if raw := strings.TrimSpace(q.Get("ativo")); raw != "" {
		ativo, err := strconv.ParseBool(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", "ativo inválido", map[string]string{"field": "ativo"})
			return
		}
		filter.Ativo = &ativo
	}

	orgaos, err := h.orgaos.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível listar órgãos")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"orgaos": orgaos})
}

// GetOrgao devolve um órgão; fora do papel admin só o próprio.
func (h *Handler) GetOrgao(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p := httpmiddleware.GetPrincipal(r.Context())
	if p.Role != service.RoleAdmin && id != p.OrgaoID {
		WriteError(w, http.StatusForbidden, "FORBIDDEN", "acesso negado a este órgão", nil)
		return
	}

	o, err := h.orgaos.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível carregar órgão")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"orgao": o})
}

// CreateOrgao cadastra órgão.
func (h *Handler) CreateOrgao(w http.ResponseWriter, r *http.Request) {
	var input orgao.CreateInput
	if !decodeJSON(w, r, &input) {
		return
	}
	o, err := h.orgaos.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível cadastrar órgão")
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"orgao": o})
}

// UpdateOrgao altera órgão.
func (h *Handler) UpdateOrgao(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var input orgao.UpdateInput
	if !decodeJSON(w, r, &input) {
		return
	}
	o, err := h.orgaos.Update(r.Context(), id, input)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível atualizar órgão")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"orgao": o})
}

// DeactivateOrgao desativa órgão; órgãos nunca são apagados.
func (h *Handler) DeactivateOrgao(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	o, err := h.orgaos.Deactivate(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível desativar órgão")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"orgao": o, "message": "Órgão desativado com sucesso"})
}
