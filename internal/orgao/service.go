package orgao

import (
	"context"
	"strings"

	"github.com/arquivamais/processos/internal/util"
)

type orgaoRepository interface {
	GetByID(ctx context.Context, id int64) (*Orgao, error)
	List(ctx context.Context, filter ListFilter) ([]Orgao, error)
	ExistsNome(ctx context.Context, nome string, excludeID int64) (bool, error)
	ExistsCNPJ(ctx context.Context, cnpj string, excludeID int64) (bool, error)
	Create(ctx context.Context, input CreateInput) (*Orgao, error)
	Save(ctx context.Context, o *Orgao) (*Orgao, error)
}

// Service contém as regras de cadastro de órgãos.
type Service struct {
	repo orgaoRepository
}

// NewService cria uma nova instância de Service.
func NewService(repo orgaoRepository) *Service {
	return &Service{repo: repo}
}

// Get devolve o órgão pelo id.
func (s *Service) Get(ctx context.Context, id int64) (*Orgao, error) {
	return s.repo.GetByID(ctx, id)
}

// List devolve órgãos conforme filtro.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Orgao, error) {
	filter.Tipo = Tipo(strings.ToUpper(strings.TrimSpace(string(filter.Tipo))))
	if filter.Tipo != "" && !filter.Tipo.Valid() {
		return nil, util.Invalid("tipo", "tipo de órgão inválido")
	}
	return s.repo.List(ctx, filter)
}

// Create registra um novo órgão.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Orgao, error) {
	input.Nome = strings.TrimSpace(input.Nome)
	input.CNPJ = strings.TrimSpace(input.CNPJ)
	if input.Tipo == "" {
		input.Tipo = TipoSecretaria
	}
	input.Tipo = Tipo(strings.ToUpper(string(input.Tipo)))

	if err := validate(input.Nome, input.CNPJ, input.Tipo); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, input.Nome, input.CNPJ, 0); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, input)
}

// Update altera os campos informados de um órgão.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*Orgao, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Nome != nil {
		current.Nome = strings.TrimSpace(*input.Nome)
	}
	if input.CNPJ != nil {
		current.CNPJ = strings.TrimSpace(*input.CNPJ)
	}
	if input.Tipo != nil {
		current.Tipo = Tipo(strings.ToUpper(strings.TrimSpace(string(*input.Tipo))))
	}
	if input.Endereco != nil {
		current.Endereco = input.Endereco
	}
	if input.Telefone != nil {
		current.Telefone = input.Telefone
	}
	if input.Email != nil {
		current.Email = input.Email
	}
	if input.Responsavel != nil {
		current.Responsavel = input.Responsavel
	}
	if input.Ativo != nil {
		current.Ativo = *input.Ativo
	}
	if input.Observacoes != nil {
		current.Observacoes = input.Observacoes
	}

	if err := validate(current.Nome, current.CNPJ, current.Tipo); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, current.Nome, current.CNPJ, current.ID); err != nil {
		return nil, err
	}
	return s.repo.Save(ctx, current)
}

// Deactivate desativa o órgão; órgãos nunca são removidos.
func (s *Service) Deactivate(ctx context.Context, id int64) (*Orgao, error) {
	ativo := false
	return s.Update(ctx, id, UpdateInput{Ativo: &ativo})
}

func (s *Service) ensureUnique(ctx context.Context, nome, cnpj string, excludeID int64) error {
	exists, err := s.repo.ExistsNome(ctx, nome, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateNome
	}
	exists, err = s.repo.ExistsCNPJ(ctx, cnpj, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateCNPJ
	}
	return nil
}

func validate(nome, cnpj string, tipo Tipo) error {
	if err := util.RequireString(nome, "nome"); err != nil {
		return err
	}
	if len(cnpj) < 14 || len(cnpj) > 18 {
		return util.Invalid("cnpj", "CNPJ deve ter entre 14 e 18 caracteres")
	}
	if !tipo.Valid() {
		return util.Invalid("tipo", "tipo de órgão inválido")
	}
	return nil
}
