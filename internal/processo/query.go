package processo

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/arquivamais/processos/internal/db"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// ListParams são os filtros, ordenação e paginação de GET /processos.
type ListParams struct {
	Busca            string
	Setor            string
	Objeto           string
	Statuses         []Status
	DataInicio       *time.Time
	DataFim          *time.Time
	DateField        string
	ApenasPrioridade bool
	IncludeDeleted   bool
	Page             int
	Limit            int
	SortBy           string
	SortOrder        string
}

// Pagination acompanha a página devolvida.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// Page é o resultado de uma listagem paginada.
type Page struct {
	Processos  []Processo
	Pagination Pagination
}

// Query é a consulta já normalizada, pronta para o repositório.
type Query struct {
	OrgaoID          int64
	Busca            string
	Setor            string
	Objeto           string
	Statuses         []Status
	DateColumn       string
	DataInicio       *time.Time
	DataFim          *time.Time
	ApenasPrioridade bool
	IncludeDeleted   bool
	OrderBy          string
	Limit            int
	Offset           int
}

// sortColumns é a lista de campos aceitos em sortBy.
var sortColumns = map[string]string{
	"numero_processo":       "p.numero_processo",
	"objeto":                "objeto_nome",
	"credor":                "credor_nome",
	"orgao_gerador":         "orgao_gerador_nome",
	"responsavel":           "p.responsavel",
	"setor_atual":           "setor_nome",
	"status":                "p.status",
	"data_entrada":          "p.data_entrada",
	"competencia":           "p.competencia",
	"outros_valores":        "p.outros_valores",
	"valor_recurso_proprio": "p.valor_recurso_proprio",
	"valor_royalties":       "p.valor_royalties",
	"total":                 "p.total",
}

// dateColumns são os campos aceitos em dateField.
var dateColumns = map[string]string{
	"data_entrada":             "p.data_entrada",
	"data_criacao_docgo":       "p.data_criacao_docgo",
	"data_ultima_movimentacao": "p.data_ultima_movimentacao",
	"data_atualizacao":         "p.data_atualizacao",
	"created_at":               "p.created_at",
}

// SortKeyDiasNoSetor ordena por data_entrada com a direção invertida:
// mais dias no setor significa data de entrada mais antiga.
const SortKeyDiasNoSetor = "dias_no_setor"

// listAllOrder ordena a listagem sem paginação: prioritários, depois entrada mais recente.
const listAllOrder = "p.is_priority DESC, p.data_entrada DESC, p.id DESC"

// resolveSort monta o ORDER BY. Prioritários vêm sempre primeiro;
// campo desconhecido cai em data_entrada e direção desconhecida em DESC.
func resolveSort(sortBy, sortOrder string) string {
	desc := !strings.EqualFold(strings.TrimSpace(sortOrder), "asc")

	column, ok := sortColumns[sortBy]
	if sortBy == SortKeyDiasNoSetor {
		column, ok = "p.data_entrada", true
		desc = !desc
	}
	if !ok {
		column = "p.data_entrada"
	}

	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf("p.is_priority DESC, %s %s NULLS LAST, p.id DESC", column, dir)
}

// normalize valida parâmetros e aplica defaults.
func (lp ListParams) normalize(orgaoID int64) Query {
	page := lp.Page
	if page < 1 {
		page = defaultPage
	}
	limit := lp.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	statuses := lp.Statuses
	if len(statuses) == 0 {
		statuses = DefaultStatuses()
	}

	dateColumn, ok := dateColumns[lp.DateField]
	if !ok {
		dateColumn = "p.data_entrada"
	}

	return Query{
		OrgaoID:          orgaoID,
		Busca:            strings.TrimSpace(lp.Busca),
		Setor:            strings.TrimSpace(lp.Setor),
		Objeto:           strings.TrimSpace(lp.Objeto),
		Statuses:         statuses,
		DateColumn:       dateColumn,
		DataInicio:       lp.DataInicio,
		DataFim:          lp.DataFim,
		ApenasPrioridade: lp.ApenasPrioridade,
		IncludeDeleted:   lp.IncludeDeleted,
		OrderBy:          resolveSort(lp.SortBy, lp.SortOrder),
		Limit:            limit,
		Offset:           (page - 1) * limit,
	}
}

// buildWhere gera as condições e argumentos da listagem.
func (q Query) buildWhere() (string, []any) {
	where := []string{"p.orgao_id = $1"}
	args := []any{q.OrgaoID}

	if !q.IncludeDeleted {
		where = append(where, "p.is_deleted = FALSE")
	}
	if q.Busca != "" {
		args = append(args, db.ContainsPattern(q.Busca))
		idx := len(args)
		where = append(where, fmt.Sprintf(
			"(p.numero_processo ILIKE $%d OR COALESCE(cr.nome, p.credor) ILIKE $%d OR COALESCE(ob.nome, p.objeto) ILIKE $%d OR COALESCE(st.nome, p.setor_atual) ILIKE $%d)",
			idx, idx, idx, idx))
	}
	if q.Setor != "" {
		args = append(args, q.Setor)
		where = append(where, fmt.Sprintf("COALESCE(st.nome, p.setor_atual) = $%d", len(args)))
	}
	if q.Objeto != "" {
		args = append(args, q.Objeto)
		where = append(where, fmt.Sprintf("COALESCE(ob.nome, p.objeto) = $%d", len(args)))
	}
	if len(q.Statuses) > 0 {
		values := make([]string, 0, len(q.Statuses))
		for _, s := range q.Statuses {
			values = append(values, string(s))
		}
		args = append(args, values)
		where = append(where, fmt.Sprintf("p.status = ANY($%d)", len(args)))
	}
	if q.DataInicio != nil {
		args = append(args, *q.DataInicio)
		where = append(where, fmt.Sprintf("(%s)::date >= $%d", q.DateColumn, len(args)))
	}
	if q.DataFim != nil {
		args = append(args, *q.DataFim)
		where = append(where, fmt.Sprintf("(%s)::date <= $%d", q.DateColumn, len(args)))
	}
	if q.ApenasPrioridade {
		where = append(where, "p.is_priority = TRUE")
	}
	return strings.Join(where, " AND "), args
}

// totalPages calcula ceil(total/limit).
func totalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
