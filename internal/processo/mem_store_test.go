package processo

import (
	"cmp"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/arquivamais/processos/internal/lookup"
)

// memStore guarda processos em memória e desfaz a transação quando fn falha.
type memStore struct {
	rows       map[int64]Processo
	lookups    map[lookup.Kind]map[string]int64
	nextID     int64
	nextLookup int64
	lastQuery  Query
}

func newMemStore() *memStore {
	return &memStore{rows: map[int64]Processo{}, lookups: map[lookup.Kind]map[string]int64{}}
}

func (m *memStore) lookupCount(kind lookup.Kind) int {
	return len(m.lookups[kind])
}

func (m *memStore) Get(ctx context.Context, id int64, includeDeleted bool) (*Processo, error) {
	p, ok := m.rows[id]
	if !ok || (p.IsDeleted && !includeDeleted) {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *memStore) List(ctx context.Context, q Query) ([]Processo, int, error) {
	m.lastQuery = q
	allowed := map[Status]bool{}
	for _, s := range q.Statuses {
		allowed[s] = true
	}
	var matched []Processo
	for _, p := range m.rows {
		if p.OrgaoID != q.OrgaoID || (p.IsDeleted && !q.IncludeDeleted) || !allowed[p.Status] {
			continue
		}
		if q.ApenasPrioridade && !p.IsPriority {
			continue
		}
		if q.Busca != "" && !strings.Contains(strings.ToLower(p.NumeroProcesso), strings.ToLower(q.Busca)) {
			continue
		}
		matched = append(matched, p)
	}
	terms := parseOrderBy(q.OrderBy)
	sort.SliceStable(matched, func(i, j int) bool {
		return orderLess(matched[i], matched[j], terms)
	})
	total := len(matched)
	start := q.Offset
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *memStore) ListAll(ctx context.Context, orgaoID int64) ([]Processo, error) {
	items, _, err := m.List(ctx, Query{OrgaoID: orgaoID, Statuses: []Status{StatusEmAndamento, StatusConcluido, StatusCancelado}, OrderBy: listAllOrder, Limit: len(m.rows) + 1})
	return items, err
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	rows := make(map[int64]Processo, len(m.rows))
	for k, v := range m.rows {
		rows[k] = v
	}
	lookups := make(map[lookup.Kind]map[string]int64, len(m.lookups))
	for k, v := range m.lookups {
		inner := make(map[string]int64, len(v))
		for name, id := range v {
			inner[name] = id
		}
		lookups[k] = inner
	}
	nextID, nextLookup := m.nextID, m.nextLookup

	if err := fn(ctx, &memTx{m}); err != nil {
		m.rows, m.lookups, m.nextID, m.nextLookup = rows, lookups, nextID, nextLookup
		return err
	}
	return nil
}

type memTx struct {
	m *memStore
}

func (t *memTx) Lock(ctx context.Context, id int64) (*Processo, error) {
	return t.m.Get(ctx, id, false)
}

func (t *memTx) ExistsNumero(ctx context.Context, orgaoID int64, numero string, excludeID int64) (bool, error) {
	for _, p := range t.m.rows {
		if p.OrgaoID == orgaoID && p.NumeroProcesso == numero && !p.IsDeleted && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) Insert(ctx context.Context, p *Processo) error {
	t.m.nextID++
	p.ID = t.m.nextID
	p.CreatedAt = p.DataAtualizacao
	p.UpdatedAt = p.DataAtualizacao
	t.m.rows[p.ID] = *p
	return nil
}

func (t *memTx) Save(ctx context.Context, p *Processo) error {
	if _, ok := t.m.rows[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = p.DataAtualizacao
	t.m.rows[p.ID] = *p
	return nil
}

func (t *memTx) ConnectOrCreate(ctx context.Context, kind lookup.Kind, rawName string) (*int64, error) {
	nome := strings.TrimSpace(rawName)
	if nome == "" {
		return nil, nil
	}
	if t.m.lookups[kind] == nil {
		t.m.lookups[kind] = map[string]int64{}
	}
	if id, ok := t.m.lookups[kind][nome]; ok {
		return &id, nil
	}
	t.m.nextLookup++
	id := t.m.nextLookup
	t.m.lookups[kind][nome] = id
	return &id, nil
}

type orderTerm struct {
	column string
	desc   bool
}

// parseOrderBy lê o ORDER BY gerado por resolveSort ("col DIR NULLS LAST, ...").
func parseOrderBy(orderBy string) []orderTerm {
	var terms []orderTerm
	for _, part := range strings.Split(orderBy, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		terms = append(terms, orderTerm{column: fields[0], desc: len(fields) > 1 && fields[1] == "DESC"})
	}
	return terms
}

// orderLess aplica os termos em sequência; nulos ficam no fim nas duas direções.
func orderLess(a, b Processo, terms []orderTerm) bool {
	for _, term := range terms {
		av, bv := columnValue(a, term.column), columnValue(b, term.column)
		if av == nil || bv == nil {
			if (av == nil) != (bv == nil) {
				return bv == nil
			}
			continue
		}
		c := compareValues(av, bv)
		if c == 0 {
			continue
		}
		if term.desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func columnValue(p Processo, column string) any {
	switch column {
	case "p.id":
		return p.ID
	case "p.is_priority":
		return p.IsPriority
	case "p.numero_processo":
		return p.NumeroProcesso
	case "objeto_nome":
		return p.Objeto.Nome
	case "credor_nome":
		return p.Credor.Nome
	case "orgao_gerador_nome":
		return p.OrgaoGerador.Nome
	case "setor_nome":
		return p.SetorAtual.Nome
	case "p.responsavel":
		return optional(p.Responsavel)
	case "p.competencia":
		return optional(p.Competencia)
	case "p.status":
		return string(p.Status)
	case "p.data_entrada":
		return p.DataEntrada
	case "p.outros_valores":
		return p.OutrosValores
	case "p.valor_recurso_proprio":
		return p.ValorRecursoProprio
	case "p.valor_royalties":
		return p.ValorRoyalties
	case "p.total":
		return p.Total
	}
	panic(fmt.Sprintf("coluna de ordenação desconhecida: %q", column))
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case int64:
		return cmp.Compare(av, b.(int64))
	case float64:
		return cmp.Compare(av, b.(float64))
	case string:
		return strings.Compare(av, b.(string))
	case bool:
		bb := b.(bool)
		switch {
		case av == bb:
			return 0
		case av:
			return 1
		default:
			return -1
		}
	case time.Time:
		return av.Compare(b.(time.Time))
	}
	panic(fmt.Sprintf("tipo sem comparação: %T", a))
}
