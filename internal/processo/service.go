package processo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/arquivamais/processos/internal/lookup"
	"github.com/arquivamais/processos/internal/repo"
	"github.com/arquivamais/processos/internal/util"
)

// Actor é o usuário autenticado que executa a operação.
type Actor struct {
	ID      int64
	Nome    string
	OrgaoID int64
}

// UserDirectory consulta usuários para atribuição.
type UserDirectory interface {
	GetUsuarioByID(ctx context.Context, id int64) (repo.Usuario, error)
	ListUsuarios(ctx context.Context, arg repo.ListUsuariosParams) ([]repo.Usuario, error)
}

// Notifier entrega avisos a usuários.
type Notifier interface {
	Notify(ctx context.Context, usuarioID int64, mensagem string) error
}

// Recorder recebe eventos de domínio para métricas.
type Recorder interface {
	ProcessoCriado()
	SetorAlterado()
}

type noopRecorder struct{}

func (noopRecorder) ProcessoCriado() {}
func (noopRecorder) SetorAlterado()  {}

// Assignee é um usuário elegível para atribuição.
type Assignee struct {
	ID    int64  `json:"id"`
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Service orquestra o ciclo de vida dos processos.
type Service struct {
	store    Store
	users    UserDirectory
	notifier Notifier
	recorder Recorder
	loc      *time.Location
	now      func() time.Time
}

// NewService cria o serviço de processos.
func NewService(store Store, users UserDirectory, notifier Notifier, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:    store,
		users:    users,
		notifier: notifier,
		recorder: noopRecorder{},
		loc:      loc,
		now:      util.Now,
	}
}

// WithRecorder liga as métricas de domínio.
func (s *Service) WithRecorder(r Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Location é o fuso usado nos cálculos de data.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Now expõe o relógio do serviço.
func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) today() time.Time {
	return calendarDate(s.now(), s.loc)
}

// Create cadastra um processo em andamento no órgão do ator.
func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (*Processo, error) {
	numero := strings.TrimSpace(in.NumeroProcesso)
	required := []struct{ field, value string }{
		{"numero_processo", numero},
		{"objeto", in.Objeto},
		{"credor", in.Credor},
		{"orgao_gerador", in.OrgaoGerador},
		{"setor_atual", in.SetorAtual},
	}
	for _, r := range required {
		if err := util.RequireString(r.value, r.field); err != nil {
			return nil, err
		}
	}

	now := s.now()
	p := &Processo{
		OrgaoID:             actor.OrgaoID,
		NumeroProcesso:      numero,
		DataEntrada:         s.today(),
		Competencia:         trimmedPtr(in.Competencia),
		Objeto:              Ref{Nome: strings.TrimSpace(in.Objeto)},
		Credor:              Ref{Nome: strings.TrimSpace(in.Credor)},
		OrgaoGerador:        Ref{Nome: strings.TrimSpace(in.OrgaoGerador)},
		SetorAtual:          Ref{Nome: strings.TrimSpace(in.SetorAtual)},
		Responsavel:         strPtr(actor.Nome),
		Descricao:           in.Descricao,
		Observacao:          in.Observacao,
		OutrosValores:       float64(in.OutrosValores),
		ValorRecursoProprio: float64(in.ValorRecursoProprio),
		ValorRoyalties:      float64(in.ValorRoyalties),
		Status:              StatusEmAndamento,
		DataAtualizacao:     now,
	}
	if in.DataEntrada.IsSet() {
		p.DataEntrada = in.DataEntrada.Time
	}
	if in.DataCriacaoDocgo.IsSet() {
		d := in.DataCriacaoDocgo.Time
		p.DataCriacaoDocgo = &d
	} else {
		p.DataCriacaoDocgo = ParseDocgoDate(numero)
	}
	p.recomputeTotal()

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		exists, err := tx.ExistsNumero(ctx, actor.OrgaoID, numero, 0)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateNumero
		}
		if err := resolveRefs(ctx, tx, p, allKinds); err != nil {
			return err
		}
		return tx.Insert(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.recorder.ProcessoCriado()
	log.Info().Int64("processo_id", p.ID).Int64("orgao_id", p.OrgaoID).Str("numero", p.NumeroProcesso).Msg("processo criado")
	return p, nil
}

// Update aplica uma atualização parcial. Qualquer erro descarta a alteração inteira.
func (s *Service) Update(ctx context.Context, actor Actor, id int64, in UpdateInput) (*Processo, error) {
	var (
		result        *Processo
		setorAlterado bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		p, err := s.lockOwned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		changed, err := s.apply(p, in)
		if err != nil {
			return err
		}
		if in.NumeroProcesso.Set {
			exists, err := tx.ExistsNumero(ctx, p.OrgaoID, p.NumeroProcesso, p.ID)
			if err != nil {
				return err
			}
			if exists {
				return ErrDuplicateNumero
			}
		}
		if err := resolveRefs(ctx, tx, p, changed); err != nil {
			return err
		}
		p.UpdateFor = strPtr(actor.Nome)
		p.DataAtualizacao = s.now()
		if err := tx.Save(ctx, p); err != nil {
			return err
		}
		result = p
		setorAlterado = changed[lookup.KindSetor]
		return nil
	})
	if err != nil {
		return nil, err
	}
	if setorAlterado {
		s.recorder.SetorAlterado()
		log.Info().Int64("processo_id", result.ID).Str("setor", result.SetorAtual.Nome).Str("por", actor.Nome).Msg("processo tramitado")
	}
	return result, nil
}

// TransferSector muda apenas o setor atual, reiniciando a contagem de dias se o setor mudar.
func (s *Service) TransferSector(ctx context.Context, actor Actor, id int64, in TransferInput) (*Processo, error) {
	if strings.TrimSpace(in.SetorAtual) == "" {
		return nil, util.Invalid("setor_atual", "Setor atual é obrigatório")
	}
	return s.Update(ctx, actor, id, UpdateInput{
		SetorAtual:     Value(in.SetorAtual),
		DataTramitacao: Field[*Date]{Set: in.DataTramitacao.IsSet(), Value: in.DataTramitacao},
	})
}

// SoftDelete marca o processo como excluído; um processo já excluído não é encontrado.
func (s *Service) SoftDelete(ctx context.Context, actor Actor, id int64) error {
	return s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		p, err := s.lockOwned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		p.IsDeleted = true
		p.UpdateFor = strPtr(actor.Nome)
		p.DataAtualizacao = s.now()
		return tx.Save(ctx, p)
	})
}

// SetPriority fixa ou libera o processo no topo das listagens.
func (s *Service) SetPriority(ctx context.Context, actor Actor, id int64, flag bool) (*Processo, error) {
	var result *Processo
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		p, err := s.lockOwned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		p.IsPriority = flag
		p.UpdateFor = strPtr(actor.Nome)
		p.DataAtualizacao = s.now()
		if err := tx.Save(ctx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	return result, err
}

// Assign define o responsável pelo processo e avisa o usuário atribuído.
func (s *Service) Assign(ctx context.Context, actor Actor, id, usuarioID int64) (*Processo, error) {
	if usuarioID <= 0 {
		return nil, util.Invalid("usuario_id", "usuario_id obrigatório")
	}
	assignee, err := s.users.GetUsuarioByID(ctx, usuarioID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, util.Invalid("usuario_id", "usuário não encontrado")
		}
		return nil, err
	}
	if !assignee.Ativo || assignee.OrgaoID != actor.OrgaoID {
		return nil, util.Invalid("usuario_id", "usuário não pode receber processos deste órgão")
	}

	var result *Processo
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		p, err := s.lockOwned(ctx, tx, actor, id)
		if err != nil {
			return err
		}
		now := s.now()
		actorID := actor.ID
		p.Responsavel = strPtr(assignee.Nome)
		p.AtribuidoPorUsuarioID = &actorID
		p.DataAtribuicao = &now
		p.UpdateFor = strPtr(actor.Nome)
		p.DataAtualizacao = now
		if err := tx.Save(ctx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if assignee.ID != actor.ID && s.notifier != nil {
		msg := fmt.Sprintf("Processo %s foi atribuído a você por %s", result.NumeroProcesso, actor.Nome)
		if err := s.notifier.Notify(ctx, assignee.ID, msg); err != nil {
			log.Warn().Err(err).Int64("processo_id", result.ID).Int64("usuario_id", assignee.ID).Msg("falha ao notificar atribuição")
		}
	}
	return result, nil
}

// AssignableUsers lista usuários ativos do órgão do ator.
func (s *Service) AssignableUsers(ctx context.Context, actor Actor) ([]Assignee, error) {
	orgaoID := actor.OrgaoID
	users, err := s.users.ListUsuarios(ctx, repo.ListUsuariosParams{OrgaoID: &orgaoID, ApenasAtivos: true})
	if err != nil {
		return nil, err
	}
	out := make([]Assignee, 0, len(users))
	for _, u := range users {
		out = append(out, Assignee{ID: u.ID, Nome: u.Nome, Email: u.Email, Role: u.Role})
	}
	return out, nil
}

// Get devolve um processo ativo do órgão do ator.
func (s *Service) Get(ctx context.Context, actor Actor, id int64) (*Processo, error) {
	p, err := s.store.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if p.OrgaoID != actor.OrgaoID {
		return nil, ErrForbidden
	}
	return p, nil
}

// List devolve a página pedida, sempre restrita ao órgão do ator.
func (s *Service) List(ctx context.Context, actor Actor, params ListParams) (*Page, error) {
	for _, st := range params.Statuses {
		if !st.Valid() {
			return nil, util.Invalid("status", "status inválido: "+string(st))
		}
	}
	q := params.normalize(actor.OrgaoID)
	items, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &Page{
		Processos: items,
		Pagination: Pagination{
			CurrentPage:  q.Offset/q.Limit + 1,
			TotalPages:   totalPages(total, q.Limit),
			TotalItems:   total,
			ItemsPerPage: q.Limit,
		},
	}, nil
}

// ListAll devolve todos os processos ativos do órgão do ator, sem paginação.
func (s *Service) ListAll(ctx context.Context, actor Actor) ([]Processo, error) {
	return s.store.ListAll(ctx, actor.OrgaoID)
}

// lockOwned carrega o processo para escrita aplicando o isolamento por órgão.
func (s *Service) lockOwned(ctx context.Context, tx Tx, actor Actor, id int64) (*Processo, error) {
	p, err := tx.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OrgaoID != actor.OrgaoID {
		log.Warn().Int64("processo_id", id).Int64("orgao_id", actor.OrgaoID).Int64("usuario_id", actor.ID).Msg("acesso a processo de outro órgão")
		return nil, ErrForbidden
	}
	return p, nil
}

var allKinds = map[lookup.Kind]bool{
	lookup.KindObjeto:       true,
	lookup.KindCredor:       true,
	lookup.KindOrgaoGerador: true,
	lookup.KindSetor:        true,
}

func (p *Processo) ref(kind lookup.Kind) *Ref {
	switch kind {
	case lookup.KindObjeto:
		return &p.Objeto
	case lookup.KindCredor:
		return &p.Credor
	case lookup.KindOrgaoGerador:
		return &p.OrgaoGerador
	case lookup.KindSetor:
		return &p.SetorAtual
	}
	return nil
}

// resolveRefs sincroniza as chaves das referências indicadas com o texto atual.
func resolveRefs(ctx context.Context, tx Tx, p *Processo, kinds map[lookup.Kind]bool) error {
	for _, kind := range lookup.Kinds() {
		if !kinds[kind] {
			continue
		}
		ref := p.ref(kind)
		id, err := tx.ConnectOrCreate(ctx, kind, ref.Nome)
		if err != nil {
			return fmt.Errorf("resolver %s: %w", kind.Label(), err)
		}
		ref.ID = id
	}
	return nil
}

// apply copia os campos enviados para p e devolve quais referências precisam ser resolvidas.
func (s *Service) apply(p *Processo, in UpdateInput) (map[lookup.Kind]bool, error) {
	changed := map[lookup.Kind]bool{}

	if in.NumeroProcesso.Set {
		numero := strings.TrimSpace(in.NumeroProcesso.Value)
		if err := util.RequireString(numero, "numero_processo"); err != nil {
			return nil, err
		}
		p.NumeroProcesso = numero
	}

	refs := []struct {
		kind  lookup.Kind
		field string
		in    Field[string]
	}{
		{lookup.KindObjeto, "objeto", in.Objeto},
		{lookup.KindCredor, "credor", in.Credor},
		{lookup.KindOrgaoGerador, "orgao_gerador", in.OrgaoGerador},
	}
	for _, r := range refs {
		if !r.in.Set {
			continue
		}
		nome := strings.TrimSpace(r.in.Value)
		if err := util.RequireString(nome, r.field); err != nil {
			return nil, err
		}
		ref := p.ref(r.kind)
		if nome != ref.Nome || ref.ID == nil {
			ref.Nome = nome
			changed[r.kind] = true
		}
	}

	if in.DataEntrada.Set && in.DataEntrada.Value.IsSet() {
		p.DataEntrada = in.DataEntrada.Value.Time
	}

	if in.SetorAtual.Set {
		nome := strings.TrimSpace(in.SetorAtual.Value)
		if err := util.RequireString(nome, "setor_atual"); err != nil {
			return nil, err
		}
		if nome != p.SetorAtual.Nome {
			p.SetorAtual.Nome = nome
			changed[lookup.KindSetor] = true

			moved := s.now()
			entrada := s.today()
			switch {
			case in.DataTramitacao.Set && in.DataTramitacao.Value.IsSet():
				entrada = in.DataTramitacao.Value.Time
				moved = inLocation(entrada, s.loc)
			case in.DataEntrada.Set && in.DataEntrada.Value.IsSet():
				entrada = in.DataEntrada.Value.Time
				moved = inLocation(entrada, s.loc)
			}
			p.DataEntrada = entrada
			p.DataUltimaMovimentacao = &moved
		} else if p.SetorAtual.ID == nil {
			changed[lookup.KindSetor] = true
		}
	}

	if in.Competencia.Set {
		p.Competencia = trimmedPtr(in.Competencia.Value)
	}
	if in.Descricao.Set {
		p.Descricao = in.Descricao.Value
	}
	if in.Observacao.Set {
		p.Observacao = in.Observacao.Value
	}

	if in.OutrosValores.Set || in.ValorRecursoProprio.Set || in.ValorRoyalties.Set {
		if in.OutrosValores.Set {
			p.OutrosValores = float64(in.OutrosValores.Value)
		}
		if in.ValorRecursoProprio.Set {
			p.ValorRecursoProprio = float64(in.ValorRecursoProprio.Value)
		}
		if in.ValorRoyalties.Set {
			p.ValorRoyalties = float64(in.ValorRoyalties.Value)
		}
		p.recomputeTotal()
	}

	if in.Status.Set {
		if !in.Status.Value.Writable() {
			return nil, util.Invalid("status", "status inválido: "+string(in.Status.Value))
		}
		p.Status = in.Status.Value
	}

	if in.DataCriacaoDocgo.Set {
		p.DataCriacaoDocgo = datePtr(in.DataCriacaoDocgo.Value)
	}
	if in.DataUltimaMovimentacao.Set {
		if !in.DataUltimaMovimentacao.Value.IsSet() {
			p.DataUltimaMovimentacao = nil
		} else {
			moved := inLocation(in.DataUltimaMovimentacao.Value.Time, s.loc)
			p.DataUltimaMovimentacao = &moved
		}
	}

	if p.DataCriacaoDocgo != nil && p.DataUltimaMovimentacao != nil {
		if calendarDate(*p.DataUltimaMovimentacao, s.loc).Before(*p.DataCriacaoDocgo) {
			return nil, ErrInvalidDateOrder
		}
	}
	return changed, nil
}

func strPtr(s string) *string {
	return &s
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func datePtr(d *Date) *time.Time {
	if !d.IsSet() {
		return nil
	}
	t := d.Time
	return &t
}
