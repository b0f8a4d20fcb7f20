package processo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arquivamais/processos/internal/lookup"
	"github.com/arquivamais/processos/internal/repo"
	"github.com/arquivamais/processos/internal/util"
)

var testLoc = time.FixedZone("BRT", -3*60*60)

// 11:00 em Brasília, 15/03/2024.
var testNow = time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)

type stubUsers map[int64]repo.Usuario

func (s stubUsers) GetUsuarioByID(ctx context.Context, id int64) (repo.Usuario, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (s stubUsers) ListUsuarios(ctx context.Context, arg repo.ListUsuariosParams) ([]repo.Usuario, error) {
	var out []repo.Usuario
	for _, u := range s {
		if arg.OrgaoID != nil && u.OrgaoID != *arg.OrgaoID {
			continue
		}
		if arg.ApenasAtivos && !u.Ativo {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

type notification struct {
	usuarioID int64
	mensagem  string
}

type stubNotifier struct {
	sent []notification
	err  error
}

func (n *stubNotifier) Notify(ctx context.Context, usuarioID int64, mensagem string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification{usuarioID, mensagem})
	return nil
}

type countingRecorder struct {
	criados, tramitados int
}

func (r *countingRecorder) ProcessoCriado() { r.criados++ }
func (r *countingRecorder) SetorAlterado()  { r.tramitados++ }

var (
	editor = Actor{ID: 10, Nome: "Eduarda Editora", OrgaoID: 1}
	gestor = Actor{ID: 11, Nome: "Gustavo Gestor", OrgaoID: 1}
	outro  = Actor{ID: 20, Nome: "Otávio", OrgaoID: 2}
)

func newTestService(t *testing.T) (*Service, *memStore, *stubNotifier, *countingRecorder) {
	t.Helper()
	store := newMemStore()
	notifier := &stubNotifier{}
	recorder := &countingRecorder{}
	users := stubUsers{
		10: {ID: 10, Nome: "Eduarda Editora", OrgaoID: 1, Ativo: true, Role: "editor"},
		12: {ID: 12, Nome: "Tânia Tramitadora", OrgaoID: 1, Ativo: true, Role: "tramitador"},
		13: {ID: 13, Nome: "Inês Inativa", OrgaoID: 1, Ativo: false, Role: "editor"},
		21: {ID: 21, Nome: "Fora do Órgão", OrgaoID: 2, Ativo: true, Role: "editor"},
	}
	svc := NewService(store, users, notifier, testLoc).WithRecorder(recorder)
	svc.now = func() time.Time { return testNow }
	return svc, store, notifier, recorder
}

func decodeCreate(t *testing.T, raw string) CreateInput {
	t.Helper()
	var in CreateInput
	require.NoError(t, json.Unmarshal([]byte(raw), &in))
	return in
}

func decodeUpdate(t *testing.T, raw string) UpdateInput {
	t.Helper()
	var in UpdateInput
	require.NoError(t, json.Unmarshal([]byte(raw), &in))
	return in
}

const scenarioBody = `{
	"numero_processo": "2024.0101",
	"objeto": "Obra X",
	"credor": "ACME",
	"orgao_gerador": "Secretaria Y",
	"setor_atual": "Protocolo",
	"valor_recurso_proprio": "1000.50"
}`

func TestCreateScenario(t *testing.T) {
	svc, store, _, recorder := newTestService(t)

	p, err := svc.Create(context.Background(), editor, decodeCreate(t, scenarioBody))
	require.NoError(t, err)

	assert.Equal(t, 1000.50, p.Total)
	assert.Equal(t, StatusEmAndamento, p.Status)
	assert.False(t, p.IsDeleted)
	assert.False(t, p.IsPriority)
	assert.Equal(t, int64(1), p.OrgaoID)
	require.NotNil(t, p.Responsavel)
	assert.Equal(t, "Eduarda Editora", *p.Responsavel)
	assert.Equal(t, "2024-03-15", p.DataEntrada.Format(DateLayout))
	require.NotNil(t, p.DataCriacaoDocgo)
	assert.Equal(t, "2024-01-01", p.DataCriacaoDocgo.Format(DateLayout))

	for _, kind := range lookup.Kinds() {
		assert.Equal(t, 1, store.lookupCount(kind), kind)
	}
	assert.Equal(t, store.lookups[lookup.KindObjeto]["Obra X"], *p.Objeto.ID)
	assert.Equal(t, store.lookups[lookup.KindCredor]["ACME"], *p.Credor.ID)
	assert.Equal(t, store.lookups[lookup.KindOrgaoGerador]["Secretaria Y"], *p.OrgaoGerador.ID)
	assert.Equal(t, store.lookups[lookup.KindSetor]["Protocolo"], *p.SetorAtual.ID)
	assert.Equal(t, 1, recorder.criados)
}

func TestCreateCoercesInvalidAmounts(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	p, err := svc.Create(context.Background(), editor, decodeCreate(t, `{
		"numero_processo": "P-1", "objeto": "o", "credor": "c", "orgao_gerador": "g", "setor_atual": "s",
		"outros_valores": "abc", "valor_recurso_proprio": 10.25, "valor_royalties": null
	}`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.OutrosValores)
	assert.Equal(t, 10.25, p.Total)
	assert.Nil(t, p.DataCriacaoDocgo)
}

func TestCreateRequiresFields(t *testing.T) {
	svc, store, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), editor, decodeCreate(t, `{"numero_processo": "1", "objeto": "  ", "credor": "c", "orgao_gerador": "g", "setor_atual": "s"}`))
	var verr *util.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "objeto", verr.Field)
	assert.Empty(t, store.rows)
}

func TestCreateDuplicateNumberScopedToOrganization(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, editor, decodeCreate(t, scenarioBody))
	require.NoError(t, err)

	_, err = svc.Create(ctx, editor, decodeCreate(t, scenarioBody))
	assert.ErrorIs(t, err, ErrDuplicateNumero)
	assert.Len(t, store.rows, 1)

	p, err := svc.Create(ctx, outro, decodeCreate(t, scenarioBody))
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.OrgaoID)
}

func TestCreateAllowsNumberOfDeletedRecord(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, editor, decodeCreate(t, scenarioBody))
	require.NoError(t, err)
	require.NoError(t, svc.SoftDelete(ctx, editor, p.ID))

	_, err = svc.Create(ctx, editor, decodeCreate(t, scenarioBody))
	assert.NoError(t, err)
}

func TestTransferSectorResetsEntryDateOnlyOnChange(t *testing.T) {
	svc, _, _, recorder := newTestService(t)
	ctx := context.Background()

	in := decodeCreate(t, scenarioBody)
	entrada, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	in.DataEntrada = &entrada
	p, err := svc.Create(ctx, editor, in)
	require.NoError(t, err)

	same, err := svc.TransferSector(ctx, editor, p.ID, TransferInput{SetorAtual: " Protocolo "})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", same.DataEntrada.Format(DateLayout))
	assert.Nil(t, same.DataUltimaMovimentacao)
	assert.Equal(t, 14, *DiasNoSetor(same, testNow, testLoc))
	assert.Equal(t, 0, recorder.tramitados)

	moved, err := svc.TransferSector(ctx, editor, p.ID, TransferInput{SetorAtual: "Financeiro"})
	require.NoError(t, err)
	assert.Equal(t, "Financeiro", moved.SetorAtual.Nome)
	assert.Equal(t, "2024-03-15", moved.DataEntrada.Format(DateLayout))
	require.NotNil(t, moved.DataUltimaMovimentacao)
	assert.Equal(t, 0, *DiasNoSetor(moved, testNow, testLoc))
	require.NotNil(t, moved.UpdateFor)
	assert.Equal(t, editor.Nome, *moved.UpdateFor)
	assert.Equal(t, 1, recorder.tramitados)
}

func TestTransferSectorWithExplicitDate(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, editor, decodeCreate(t, scenarioBody))
	require.NoError(t, err)

	data, err := ParseDate("2024-03-10")
	require.NoError(t, err)
	moved, err := svc.TransferSector(ctx, editor, p.ID, TransferInput{SetorAtual: "Gabinete", DataTramitacao: &data})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", moved.DataEntrada.Format(DateLayout))
	assert.Equal(t, 5, *DiasNoSetor(moved, testNow, testLoc))

	_, err = svc.TransferSector(ctx, editor, p.ID, TransferInput{SetorAtual: ""})
	var verr *util.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Setor atual é obrigatório", verr.Message)
}

func TestCreateTreatsBlankDatesAsAbsent(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	p, err := svc.Create(context.Background(), editor, decodeCreate(t, `{
		"numero_processo": "2024.0101", "objeto": "o", "credor": "c", "orgao_gerador": "g", "setor_atual": "s",
		"data_entrada": "", "data_criacao_docgo": "  "
	}`))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", p.DataEntrada.Format(DateLayout))
	require.NotNil(t, p.DataCriacaoDocgo)
	assert.Equal(t, "2024-01-01", p.DataCriacaoDocgo.Format(DateLayout))
}

func TestTransferSectorTreatsBlankDateAsToday(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	in := decodeCreate(t, scenarioBody)
	entrada, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	in.DataEntrada = &entrada
	p, err := svc.Create(ctx, editor, in)
	require.NoError(t, err)

	var transfer TransferInput
	require.NoError(t, json.Unmarshal([]byte(`{"setor_atual": "Financeiro", "data_tramitacao": ""}`), &transfer))

	moved, err := svc.TransferSector(ctx, editor, p.ID, transfer)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", moved.DataEntrada.Format(DateLayout))
	assert.Equal(t, 0, *DiasNoSetor(moved, testNow, testLoc))
}

func TestUpdateRecomputesTotalFromUnion(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, editor, decodeCreate(t, `{
		"numero_processo": "P-2", "objeto": "o", "credor": "c", "orgao_gerador": "g", "setor_atual": "s",
		"outros_valores": 100, "valor_recurso_proprio": 200
	}`))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, editor, p.ID, decodeUpdate(t, `{"valor_royalties": "50"}`))
	require.NoError(t, err)
	assert.Equal(t, 350.0, updated.Total)

	updated, err = svc.Update(ctx, editor, p.ID, decodeUpdate(t, `{"outros_valores": "não é número"}`))
	require.NoError(t, err)
	assert.Equal(t, 250.0, updated.Total)
	assert.Equal(t, updated.OutrosValores+updated.ValorRecursoProprio+updated.ValorRoyalties, updated.Total)
}

func TestUpdateDistinguishesUnsetFromEmpty(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	in := decodeCreate(t, scenarioBody)
	descricao := "descrição original"
	in.Descricao = &descricao
	p, err := svc.Create(ctx, editor, in)
	require.NoError(t, err)

	untouched, err := svc.Update(ctx, gestor, p.ID, decodeUpdate(t, `{"competencia": "03/2024"}`))
	require.NoError(t, err)
	require.NotNil(t, untouched.Descricao)
	assert.Equal(t, "descrição original", *untouched.Descricao)
	assert.Equal(t, "Gustavo Gestor", *untouched.UpdateFor)

	cleared, err := svc.Update(ctx, gestor, p.ID, decodeUpdate(t, `{"descricao": ""}`))
	require.NoError(t, err)
	require.NotNil(t, cleared.Descricao)
	assert.Equal(t, "", *cleared.Descricao)

	_, err = svc.Update(ctx, gestor, p.ID, decodeUpdate(t, `{"credor": ""}`))
	var verr *util.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "credor", verr.Field)
}

func TestUpdateResolvesChangedLookups(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, editor, decodeCreate(t, scenarioBody))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, editor, p.ID, decodeUpdate(t, `{"credor": "Construtora Z", "objeto": "Obra X"}`))
	require.NoError(t, err)
	assert.Equal(t, 2, store.lookupCount(lookup.KindCredor))
	assert.Equal(t, 1, store.lookupCount(lookup.KindObjeto))
	assert.Equal(t, store.lookups[lookup.KindCredor]["Construtora Z"], *updated.Credor.ID)
	assert.Equal(t, *p.Objeto.ID, *updated.Objeto.ID)
}

func TestUpdateInvalidDateOrderAbortsEverything(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, editor, decodeCreate(t, scenarioBody))
	require.NoError(t, err)

	_, err = svc.Update(ctx, editor, p.ID, decodeUpdate(t, `{
		"objeto": "Obra Nova",
		"valor_royalties": 99,
		"data_criacao_docgo": "2024-03-10",
		"data_ultima_movimentacao": "2024-03-01"
	}`))
	assert.ErrorIs(t, err, ErrInvalidDateOrder)

	stored, err := svc.Get(ctx, editor, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Obra X", stored.Objeto.Nome)
	assert.Equal(t, 1000.50, stored.Total)
	assert.Equal(t, "2024-01-01", stored.DataCriacaoDocgo.Format(DateLayout))
	assert.Equal(t, 1, store.lookupCount(lookup.KindObjeto))

	ok, err := svc.Update(ctx, editor, p.ID, decodeUpdate(t, `{"data_ultima_movimentacao": "2024-01-01"}`))
	require.NoError(t, err)
	assert.NotNil(t, ok.DataUltimaMovimentacao)
}

func TestUpdateRejectsLegacyStatus(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, editor, decodeCreate(t, scenarioBody))
	require.NoError(t, err)

	_, err = svc.Update(ctx, editor, p.ID, decodeUpdate(t, `{"status": "cancelado"}`))
	var verr *util.ValidationError
	require.True(t, errors.As(err, &verr))

	done, err := svc.Update(ctx, editor, p.ID, decodeUpdate(t, `{"status": "concluido"}`))
	require.NoError(t, err)
	assert.Nil(t, DiasNoSetor(done, testNow, testLoc))
}

func TestSoftDelete(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, editor, decodeCreate(t, scenarioBody))
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, gestor, p.ID))
	assert.ErrorIs(t, svc.SoftDelete(ctx, gestor, p.ID), ErrNotFound)

	_, err = svc.Get(ctx, editor, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	page, err := svc.List(ctx, editor, ListParams{})
	require.NoError(t, err)
	assert.Empty(t, page.Processos)
	assert.Equal(t, 0, page.Pagination.TotalItems)
}

func TestCrossOrganizationAccessIsForbidden(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, editor, decodeCreate(t, scenarioBody))
	require.NoError(t, err)

	_, err = svc.Get(ctx, outro, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Update(ctx, outro, p.ID, decodeUpdate(t, `{"credor": "Invasor"}`))
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.TransferSector(ctx, outro, p.ID, TransferInput{SetorAtual: "Outro"})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.SoftDelete(ctx, outro, p.ID), ErrForbidden)
	_, err = svc.SetPriority(ctx, outro, p.ID, true)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Equal(t, "ACME", store.rows[p.ID].Credor.Nome)
	assert.False(t, store.rows[p.ID].IsDeleted)

	_, err = svc.Get(ctx, editor, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	page, err := svc.List(ctx, outro, ListParams{})
	require.NoError(t, err)
	assert.Empty(t, page.Processos)
}

func TestSetPriorityKeepsStatusAndDates(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, editor, decodeCreate(t, scenarioBody))
	require.NoError(t, err)

	prio, err := svc.SetPriority(ctx, gestor, p.ID, true)
	require.NoError(t, err)
	assert.True(t, prio.IsPriority)
	assert.Equal(t, p.Status, prio.Status)
	assert.Equal(t, p.DataEntrada, prio.DataEntrada)
	assert.Equal(t, "Gustavo Gestor", *prio.UpdateFor)
}

func TestListPinsPriorityAndPaginates(t *testing.T) {
	svc, store, _, _ := newTestService(t)
	ctx := context.Background()

	var last *Processo
	for i := 0; i < 21; i++ {
		in := decodeCreate(t, scenarioBody)
		in.NumeroProcesso = fmt.Sprintf("P-%02d", i)
		p, err := svc.Create(ctx, editor, in)
		require.NoError(t, err)
		if i == 0 {
			last = p
		}
	}
	_, err := svc.SetPriority(ctx, gestor, last.ID, true)
	require.NoError(t, err)

	page, err := svc.List(ctx, editor, ListParams{SortBy: "credor", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 21, page.Pagination.TotalItems)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, 10, page.Pagination.ItemsPerPage)
	require.Len(t, page.Processos, 10)
	assert.Equal(t, last.ID, page.Processos[0].ID)
	assert.Equal(t, "p.is_priority DESC, credor_nome ASC NULLS LAST, p.id DESC", store.lastQuery.OrderBy)

	third, err := svc.List(ctx, editor, ListParams{Page: 3})
	require.NoError(t, err)
	assert.Len(t, third.Processos, 1)
	assert.Equal(t, 3, third.Pagination.CurrentPage)

	_, err = svc.List(ctx, editor, ListParams{Statuses: []Status{"arquivado"}})
	var verr *util.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestListSortsByDiasNoSetorWithPriorityPinned(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	ids := map[string]int64{}
	for i, entrada := range []string{"2024-03-01", "2024-03-10", "2024-03-14"} {
		in := decodeCreate(t, scenarioBody)
		in.NumeroProcesso = fmt.Sprintf("D-%d", i)
		d, err := ParseDate(entrada)
		require.NoError(t, err)
		in.DataEntrada = &d
		p, err := svc.Create(ctx, editor, in)
		require.NoError(t, err)
		ids[entrada] = p.ID
	}
	_, err := svc.SetPriority(ctx, gestor, ids["2024-03-10"], true)
	require.NoError(t, err)

	order := func(sortOrder string) []int64 {
		page, err := svc.List(ctx, editor, ListParams{SortBy: SortKeyDiasNoSetor, SortOrder: sortOrder})
		require.NoError(t, err)
		out := make([]int64, 0, len(page.Processos))
		for _, p := range page.Processos {
			out = append(out, p.ID)
		}
		return out
	}

	assert.Equal(t, []int64{ids["2024-03-10"], ids["2024-03-01"], ids["2024-03-14"]}, order("desc"))
	assert.Equal(t, []int64{ids["2024-03-10"], ids["2024-03-14"], ids["2024-03-01"]}, order("asc"))
}

func TestAssignNotifiesAssignee(t *testing.T) {
	svc, _, notifier, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, editor, decodeCreate(t, scenarioBody))
	require.NoError(t, err)

	assigned, err := svc.Assign(ctx, gestor, p.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, "Tânia Tramitadora", *assigned.Responsavel)
	assert.Equal(t, gestor.ID, *assigned.AtribuidoPorUsuarioID)
	require.NotNil(t, assigned.DataAtribuicao)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, int64(12), notifier.sent[0].usuarioID)
	assert.Equal(t, "Processo 2024.0101 foi atribuído a você por Gustavo Gestor", notifier.sent[0].mensagem)

	for _, id := range []int64{13, 21, 404} {
		_, err := svc.Assign(ctx, gestor, p.ID, id)
		var verr *util.ValidationError
		assert.True(t, errors.As(err, &verr), "usuario %d", id)
	}
}

func TestAssignSurvivesNotificationFailure(t *testing.T) {
	svc, _, notifier, _ := newTestService(t)
	ctx := context.Background()
	notifier.err = errors.New("banco indisponível")

	p, err := svc.Create(ctx, editor, decodeCreate(t, scenarioBody))
	require.NoError(t, err)

	assigned, err := svc.Assign(ctx, gestor, p.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, "Tânia Tramitadora", *assigned.Responsavel)
}

func TestAssignableUsers(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	users, err := svc.AssignableUsers(context.Background(), gestor)
	require.NoError(t, err)
	ids := map[int64]bool{}
	for _, u := range users {
		ids[u.ID] = true
	}
	assert.Equal(t, map[int64]bool{10: true, 12: true}, ids)
}
