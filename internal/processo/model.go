package processo

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indica processo inexistente ou já excluído.
	ErrNotFound = errors.New("processo não encontrado")
	// ErrForbidden indica processo de outro órgão.
	ErrForbidden = errors.New("acesso negado a este processo")
	// ErrDuplicateNumero indica número já usado no mesmo órgão.
	ErrDuplicateNumero = errors.New("já existe um processo com esse número")
	// ErrInvalidDateOrder indica movimentação anterior à criação no DocGo.
	ErrInvalidDateOrder = errors.New("a data da última movimentação não pode ser anterior à data de criação no DocGo")
)

// Status é a situação do processo.
type Status string

const (
	StatusEmAndamento Status = "em_andamento"
	StatusConcluido   Status = "concluido"
	// StatusCancelado existe apenas em registros legados.
	StatusCancelado Status = "cancelado"
)

// Valid indica status conhecido, inclusive o legado.
func (s Status) Valid() bool {
	switch s {
	case StatusEmAndamento, StatusConcluido, StatusCancelado:
		return true
	}
	return false
}

// Writable indica status aceito em gravações.
func (s Status) Writable() bool {
	return s == StatusEmAndamento || s == StatusConcluido
}

// DefaultStatuses é o conjunto listado quando o filtro não é informado.
func DefaultStatuses() []Status {
	return []Status{StatusEmAndamento, StatusConcluido}
}

// Ref é o par texto exibido + chave da tabela de referência.
// Na gravação ID aponta para um registro com o mesmo Nome; renomeações
// posteriores da referência podem divergir do texto gravado.
type Ref struct {
	Nome string
	ID   *int64
}

// Processo é o registro central acompanhado pelos setores.
type Processo struct {
	ID                     int64
	OrgaoID                int64
	NumeroProcesso         string
	DataEntrada            time.Time
	Competencia            *string
	Objeto                 Ref
	Credor                 Ref
	OrgaoGerador           Ref
	SetorAtual             Ref
	Responsavel            *string
	UpdateFor              *string
	Descricao              *string
	Observacao             *string
	OutrosValores          float64
	ValorRecursoProprio    float64
	ValorRoyalties         float64
	Total                  float64
	Status                 Status
	IsPriority             bool
	IsDeleted              bool
	DataCriacaoDocgo       *time.Time
	DataUltimaMovimentacao *time.Time
	DataAtualizacao        time.Time
	AtribuidoPorUsuarioID  *int64
	DataAtribuicao         *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// recomputeTotal mantém total como soma simples dos três valores.
func (p *Processo) recomputeTotal() {
	p.Total = p.OutrosValores + p.ValorRecursoProprio + p.ValorRoyalties
}

// View é a representação JSON devolvida pela API.
type View struct {
	ID                     int64      `json:"id"`
	OrgaoID                int64      `json:"orgao_id"`
	NumeroProcesso         string     `json:"numero_processo"`
	DataEntrada            string     `json:"data_entrada"`
	Competencia            *string    `json:"competencia"`
	Objeto                 string     `json:"objeto"`
	ObjetoID               *int64     `json:"objeto_id"`
	Credor                 string     `json:"credor"`
	CredorID               *int64     `json:"credor_id"`
	OrgaoGerador           string     `json:"orgao_gerador"`
	OrgaoGeradorID         *int64     `json:"orgao_gerador_id"`
	SetorAtual             string     `json:"setor_atual"`
	SetorID                *int64     `json:"setor_id"`
	Responsavel            *string    `json:"responsavel"`
	UpdateFor              *string    `json:"update_for"`
	Descricao              *string    `json:"descricao"`
	Observacao             *string    `json:"observacao"`
	OutrosValores          float64    `json:"outros_valores"`
	ValorRecursoProprio    float64    `json:"valor_recurso_proprio"`
	ValorRoyalties         float64    `json:"valor_royalties"`
	Total                  float64    `json:"total"`
	Status                 Status     `json:"status"`
	IsPriority             bool       `json:"is_priority"`
	IsDeleted              bool       `json:"is_deleted"`
	DataCriacaoDocgo       *string    `json:"data_criacao_docgo"`
	DataUltimaMovimentacao *time.Time `json:"data_ultima_movimentacao"`
	DataAtualizacao        time.Time  `json:"data_atualizacao"`
	AtribuidoPorUsuarioID  *int64     `json:"atribuido_por_usuario_id"`
	DataAtribuicao         *time.Time `json:"data_atribuicao"`
	DiasNoSetor            *int       `json:"dias_no_setor"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// ToView achata o processo e calcula dias_no_setor em relação a now.
func (p *Processo) ToView(now time.Time, loc *time.Location) View {
	v := View{
		ID:                     p.ID,
		OrgaoID:                p.OrgaoID,
		NumeroProcesso:         p.NumeroProcesso,
		DataEntrada:            p.DataEntrada.Format(DateLayout),
		Competencia:            p.Competencia,
		Objeto:                 p.Objeto.Nome,
		ObjetoID:               p.Objeto.ID,
		Credor:                 p.Credor.Nome,
		CredorID:               p.Credor.ID,
		OrgaoGerador:           p.OrgaoGerador.Nome,
		OrgaoGeradorID:         p.OrgaoGerador.ID,
		SetorAtual:             p.SetorAtual.Nome,
		SetorID:                p.SetorAtual.ID,
		Responsavel:            p.Responsavel,
		UpdateFor:              p.UpdateFor,
		Descricao:              p.Descricao,
		Observacao:             p.Observacao,
		OutrosValores:          p.OutrosValores,
		ValorRecursoProprio:    p.ValorRecursoProprio,
		ValorRoyalties:         p.ValorRoyalties,
		Total:                  p.Total,
		Status:                 p.Status,
		IsPriority:             p.IsPriority,
		IsDeleted:              p.IsDeleted,
		DataUltimaMovimentacao: p.DataUltimaMovimentacao,
		DataAtualizacao:        p.DataAtualizacao,
		AtribuidoPorUsuarioID:  p.AtribuidoPorUsuarioID,
		DataAtribuicao:         p.DataAtribuicao,
		DiasNoSetor:            DiasNoSetor(p, now, loc),
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
	if p.DataCriacaoDocgo != nil {
		s := p.DataCriacaoDocgo.Format(DateLayout)
		v.DataCriacaoDocgo = &s
	}
	return v
}
