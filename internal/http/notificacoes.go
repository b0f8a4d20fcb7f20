package http

import (
	"net/http"

	httpmiddleware "github.com/arquivamais/processos/internal/http/middleware"
)

// ListNotificacoes devolve as notificações recentes e o total de não lidas.
func (h *Handler) ListNotificacoes(w http.ResponseWriter, r *http.Request) {
	p := httpmiddleware.GetPrincipal(r.Context())

	items, err := h.notificacoes.List(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível listar notificações")
		return
	}
	unread, err := h.notificacoes.CountUnread(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível contar notificações")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"notificacoes": items, "naoLidas": unread})
}

// MarkNotificacaoRead marca uma notificação do próprio usuário como lida.
func (h *Handler) MarkNotificacaoRead(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p := httpmiddleware.GetPrincipal(r.Context())

	n, err := h.notificacoes.MarkRead(r.Context(), id, p.ID)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível marcar notificação")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"notificacao": n})
}

// MarkAllNotificacoesRead marca todas as notificações do usuário como lidas.
func (h *Handler) MarkAllNotificacoesRead(w http.ResponseWriter, r *http.Request) {
	p := httpmiddleware.GetPrincipal(r.Context())

	count, err := h.notificacoes.MarkAllRead(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err, "não foi possível marcar notificações")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int64{"atualizadas": count})
}
