package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	httpmiddleware "github.com/arquivamais/processos/internal/http/middleware"
	"github.com/arquivamais/processos/internal/processo"
)

func actorFrom(r *http.Request) processo.Actor {
	p := httpmiddleware.GetPrincipal(r.Context())
	return processo.Actor{ID: p.ID, Nome: p.Nome, OrgaoID: p.OrgaoID}
}

func (h *Handler) view(p *processo.Processo) processo.View {
	return p.ToView(h.processos.Now(), h.processos.Location())
}

func (h *Handler) views(items []processo.Processo) []processo.View {
	out := make([]processo.View, 0, len(items))
	for i := range items {
		out = append(out, h.view(&items[i]))
	}
	return out
}

// ListProcessos lista processos do órgão com filtros e paginação.
func (h *Handler) ListProcessos(w http.ResponseWriter, r *http.Request) {
	params, ok := listParamsFromQuery(w, r)
	if !ok {
		return
	}

	page, err := h.processos.List(r.Context(), actorFrom(r), params)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível listar processos")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"processos":  h.views(page.Processos),
		"pagination": page.Pagination,
	})
}

// ListAllProcessos devolve todos os processos ativos do órgão, sem paginação.
func (h *Handler) ListAllProcessos(w http.ResponseWriter, r *http.Request) {
	items, err := h.processos.ListAll(r.Context(), actorFrom(r))
	if err != nil {
		writeServiceError(w, r, err, "não foi possível listar processos")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"processos": h.views(items)})
}

// GetProcesso devolve um processo do órgão.
func (h *Handler) GetProcesso(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	p, err := h.processos.Get(r.Context(), actorFrom(r), id)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível carregar processo")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"processo": h.view(p)})
}

// CreateProcesso cadastra processo.
func (h *Handler) CreateProcesso(w http.ResponseWriter, r *http.Request) {
	var input processo.CreateInput
	if !decodeJSON(w, r, &input) {
		return
	}

	p, err := h.processos.Create(r.Context(), actorFrom(r), input)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível criar processo")
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"id": p.ID, "message": "Criado com sucesso"})
}

// UpdateProcesso aplica atualização parcial.
func (h *Handler) UpdateProcesso(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var input processo.UpdateInput
	if !decodeJSON(w, r, &input) {
		return
	}

	p, err := h.processos.Update(r.Context(), actorFrom(r), id, input)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível atualizar processo")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"processo": h.view(p), "message": "Atualizado com sucesso"})
}

// TransferSector tramita o processo para outro setor.
func (h *Handler) TransferSector(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var input processo.TransferInput
	if !decodeJSON(w, r, &input) {
		return
	}

	p, err := h.processos.TransferSector(r.Context(), actorFrom(r), id, input)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível alterar o setor")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"processo": h.view(p), "message": "Setor atualizado com sucesso"})
}

// DeleteProcesso marca o processo como excluído.
func (h *Handler) DeleteProcesso(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.processos.SoftDelete(r.Context(), actorFrom(r), id); err != nil {
		writeServiceError(w, r, err, "não foi possível excluir processo")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Processo deletado com sucesso"})
}

// SetPriority liga ou desliga a prioridade.
func (h *Handler) SetPriority(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var payload struct {
		Prioridade *bool `json:"prioridade"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if payload.Prioridade == nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "prioridade obrigatória", map[string]string{"field": "prioridade"})
		return
	}

	p, err := h.processos.SetPriority(r.Context(), actorFrom(r), id, *payload.Prioridade)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível alterar a prioridade")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"processo": h.view(p)})
}

// AssignProcesso atribui o processo a um usuário do órgão.
func (h *Handler) AssignProcesso(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var payload struct {
		UsuarioID int64 `json:"usuario_id"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if payload.UsuarioID <= 0 {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "usuario_id obrigatório", map[string]string{"field": "usuario_id"})
		return
	}

	p, err := h.processos.Assign(r.Context(), actorFrom(r), id, payload.UsuarioID)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível atribuir processo")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"processo": h.view(p), "message": "Processo atribuído com sucesso"})
}

// AssignableUsers lista usuários que podem receber processos.
func (h *Handler) AssignableUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.processos.AssignableUsers(r.Context(), actorFrom(r))
	if err != nil {
		writeServiceError(w, r, err, "não foi possível listar usuários")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"usuarios": users})
}

func listParamsFromQuery(w http.ResponseWriter, r *http.Request) (processo.ListParams, bool) {
	q := r.URL.Query()
	params := processo.ListParams{
		Busca:            strings.TrimSpace(q.Get("busca")),
		Setor:            strings.TrimSpace(q.Get("setor")),
		Objeto:           strings.TrimSpace(q.Get("objeto")),
		DateField:        strings.TrimSpace(q.Get("dateField")),
		ApenasPrioridade: q.Get("filterPriority") == "true",
		Page:             atoiOrZero(q.Get("page")),
		Limit:            atoiOrZero(q.Get("limit")),
		SortBy:           strings.TrimSpace(q.Get("sortBy")),
		SortOrder:        strings.TrimSpace(q.Get("sortOrder")),
	}

	for _, part := range strings.Split(q.Get("status"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			params.Statuses = append(params.Statuses, processo.Status(part))
		}
	}

	for field, dst := range map[string]**time.Time{"data_inicio": &params.DataInicio, "data_fim": &params.DataFim} {
		raw := strings.TrimSpace(q.Get(field))
		if raw == "" {
			continue
		}
		d, err := processo.ParseDate(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "VALIDATION", field+" inválida", map[string]string{"field": field})
			return params, false
		}
		t := d.Time
		*dst = &t
	}

	return params, true
}

func atoiOrZero(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return v
}
