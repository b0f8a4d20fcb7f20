package http

import (
	"net/http"
	"strings"

	"github.com/arquivamais/processos/internal/lookup"
)

// ListLookups lista registros do tipo, com busca opcional por nome.
func (h *Handler) ListLookups(kind lookup.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := h.lookups.List(r.Context(), kind, strings.TrimSpace(r.URL.Query().Get("busca")))
		if err != nil {
			writeServiceError(w, r, err, "não foi possível listar "+kind.Path())
			return
		}
		WriteJSON(w, http.StatusOK, items)
	}
}

// GetLookup devolve um registro.
func (h *Handler) GetLookup(kind lookup.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		entry, err := h.lookups.Get(r.Context(), kind, id)
		if err != nil {
			writeServiceError(w, r, err, "não foi possível carregar "+kind.Label())
			return
		}
		WriteJSON(w, http.StatusOK, entry)
	}
}

// CreateLookup cadastra o nome; responde 200 quando ele já existia.
func (h *Handler) CreateLookup(kind lookup.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Nome string `json:"nome"`
		}
		if !decodeJSON(w, r, &payload) {
			return
		}

		entry, created, err := h.lookups.Create(r.Context(), kind, payload.Nome)
		if err != nil {
			writeServiceError(w, r, err, "não foi possível cadastrar "+kind.Label())
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		WriteJSON(w, status, entry)
	}
}

// UpdateLookup renomeia o registro.
func (h *Handler) UpdateLookup(kind lookup.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		var payload struct {
			Nome string `json:"nome"`
		}
		if !decodeJSON(w, r, &payload) {
			return
		}

		entry, err := h.lookups.Update(r.Context(), kind, id, payload.Nome)
		if err != nil {
			writeServiceError(w, r, err, "não foi possível atualizar "+kind.Label())
			return
		}
		WriteJSON(w, http.StatusOK, entry)
	}
}

// LookupUsage informa quantos processos usam o registro.
func (h *Handler) LookupUsage(kind lookup.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		count, err := h.lookups.Usage(r.Context(), kind, id)
		if err != nil {
			writeServiceError(w, r, err, "não foi possível verificar uso")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
	}
}

// DeleteLookup remove o registro se nenhum processo o usa.
func (h *Handler) DeleteLookup(kind lookup.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r)
		if !ok {
			return
		}
		if err := h.lookups.Delete(r.Context(), kind, id); err != nil {
			writeServiceError(w, r, err, "não foi possível excluir "+kind.Label())
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"message": "Excluído com sucesso"})
	}
}
