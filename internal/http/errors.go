package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/arquivamais/processos/internal/lookup"
	"github.com/arquivamais/processos/internal/notificacao"
	"github.com/arquivamais/processos/internal/orgao"
	"github.com/arquivamais/processos/internal/processo"
	"github.com/arquivamais/processos/internal/repo"
	"github.com/arquivamais/processos/internal/service"
	"github.com/arquivamais/processos/internal/util"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "AUTH"},
	{service.ErrRefreshInvalid, http.StatusUnauthorized, "AUTH"},
	{service.ErrNotAuthenticated, http.StatusUnauthorized, "AUTH"},
	{service.ErrInsufficientRole, http.StatusForbidden, "FORBIDDEN"},
	{service.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{processo.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{processo.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{lookup.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{notificacao.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{orgao.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{repo.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{processo.ErrDuplicateNumero, http.StatusConflict, "CONFLICT"},
	{lookup.ErrDuplicateName, http.StatusConflict, "CONFLICT"},
	{repo.ErrEmailInUse, http.StatusConflict, "CONFLICT"},
	{orgao.ErrDuplicateNome, http.StatusConflict, "CONFLICT"},
	{orgao.ErrDuplicateCNPJ, http.StatusConflict, "CONFLICT"},
	{lookup.ErrInUse, http.StatusBadRequest, "IN_USE"},
	{processo.ErrInvalidDateOrder, http.StatusBadRequest, "INVALID_DATE_ORDER"},
	{service.ErrSenhaAtualIncorreta, http.StatusBadRequest, "VALIDATION"},
	{service.ErrInvalidRole, http.StatusBadRequest, "VALIDATION"},
}

// writeServiceError traduz erros de domínio para status e código estáveis.
// Erros desconhecidos viram INTERNAL com a mensagem genérica informada.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *util.ValidationError
	if errors.As(err, &verr) {
		var details any
		if verr.Field != "" {
			details = map[string]string{"field": verr.Field}
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION", verr.Message, details)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			WriteError(w, m.status, m.code, err.Error(), nil)
			return
		}
	}

	if fallback == "" {
		fallback = "erro interno"
	}
	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).
		Str("request_id", middleware.GetReqID(r.Context())).Msg(fallback)
	WriteError(w, http.StatusInternalServerError, "INTERNAL", fallback, nil)
}
