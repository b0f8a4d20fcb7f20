package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/arquivamais/processos/internal/auth"
	"github.com/arquivamais/processos/internal/orgao"
	"github.com/arquivamais/processos/internal/repo"
	"github.com/arquivamais/processos/internal/util"
)

// ErrSenhaAtualIncorreta indica falha na troca de senha pelo próprio usuário.
var ErrSenhaAtualIncorreta = errors.New("senha atual incorreta")

type usuarioRepository interface {
	GetUsuarioByID(ctx context.Context, id int64) (repo.Usuario, error)
	ListUsuarios(ctx context.Context, arg repo.ListUsuariosParams) ([]repo.Usuario, error)
	InsertUsuario(ctx context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error)
	UpdateUsuario(ctx context.Context, arg repo.UpdateUsuarioParams) (repo.Usuario, error)
	UpdateSenha(ctx context.Context, id int64, senhaHash string) error
	SetAtivo(ctx context.Context, id int64, ativo bool) error
	ClearRefreshToken(ctx context.Context, id int64) error
}

type orgaoLookup interface {
	Get(ctx context.Context, id int64) (*orgao.Orgao, error)
}

// UsuarioView é a representação pública de um usuário.
type UsuarioView struct {
	ID        int64     `json:"id"`
	Nome      string    `json:"nome"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	OrgaoID   int64     `json:"orgao_id"`
	Ativo     bool      `json:"ativo"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterInput reúne os dados de cadastro feito pelo administrador.
type RegisterInput struct {
	Nome    string `json:"nome"`
	Email   string `json:"email"`
	Senha   string `json:"senha"`
	Role    string `json:"role"`
	OrgaoID int64  `json:"orgao_id"`
}

// UpdateUsuarioInput altera apenas os campos informados.
type UpdateUsuarioInput struct {
	Nome    *string `json:"nome"`
	Email   *string `json:"email"`
	Role    *string `json:"role"`
	OrgaoID *int64  `json:"orgao_id"`
	Ativo   *bool   `json:"ativo"`
}

// UsuarioService centraliza a gestão de usuários.
type UsuarioService struct {
	repo   usuarioRepository
	orgaos orgaoLookup
}

// NewUsuarioService cria nova instância do serviço.
func NewUsuarioService(r usuarioRepository, orgaos orgaoLookup) *UsuarioService {
	return &UsuarioService{repo: r, orgaos: orgaos}
}

// List devolve usuários; orgaoID nil lista todos os órgãos.
func (s *UsuarioService) List(ctx context.Context, orgaoID *int64, apenasAtivos bool) ([]UsuarioView, error) {
	users, err := s.repo.ListUsuarios(ctx, repo.ListUsuariosParams{OrgaoID: orgaoID, ApenasAtivos: apenasAtivos})
	if err != nil {
		return nil, err
	}
	out := make([]UsuarioView, 0, len(users))
	for _, u := range users {
		out = append(out, toView(u))
	}
	return out, nil
}

// Get devolve um usuário pelo id.
func (s *UsuarioService) Get(ctx context.Context, id int64) (UsuarioView, error) {
	u, err := s.repo.GetUsuarioByID(ctx, id)
	if err != nil {
		return UsuarioView{}, err
	}
	return toView(u), nil
}

// Register cria usuário; a senha é transformada em hash antes de chegar ao repositório.
func (s *UsuarioService) Register(ctx context.Context, input RegisterInput) (UsuarioView, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return UsuarioView{}, err
	}
	if err := util.ValidateEmail(input.Email); err != nil {
		return UsuarioView{}, err
	}
	if err := util.ValidatePassword(input.Senha); err != nil {
		return UsuarioView{}, err
	}
	roleRaw := input.Role
	if strings.TrimSpace(roleRaw) == "" {
		roleRaw = string(RoleTramitador)
	}
	role, err := ParseRole(roleRaw)
	if err != nil {
		return UsuarioView{}, util.Invalid("role", err.Error())
	}
	if err := s.ensureOrgaoAtivo(ctx, input.OrgaoID); err != nil {
		return UsuarioView{}, err
	}

	hash, err := auth.Hash(input.Senha)
	if err != nil {
		return UsuarioView{}, err
	}

	u, err := s.repo.InsertUsuario(ctx, repo.InsertUsuarioParams{
		Nome:      input.Nome,
		Email:     input.Email,
		SenhaHash: hash,
		Role:      string(role),
		OrgaoID:   input.OrgaoID,
		Ativo:     true,
	})
	if err != nil {
		return UsuarioView{}, err
	}
	return toView(u), nil
}

// Update aplica a edição administrativa; desativar também encerra a sessão.
func (s *UsuarioService) Update(ctx context.Context, id int64, input UpdateUsuarioInput) (UsuarioView, error) {
	current, err := s.repo.GetUsuarioByID(ctx, id)
	if err != nil {
		return UsuarioView{}, err
	}

	arg := repo.UpdateUsuarioParams{
		ID:      current.ID,
		Nome:    current.Nome,
		Email:   current.Email,
		Role:    current.Role,
		OrgaoID: current.OrgaoID,
		Ativo:   current.Ativo,
	}
	if input.Nome != nil {
		if err := util.RequireString(*input.Nome, "nome"); err != nil {
			return UsuarioView{}, err
		}
		arg.Nome = *input.Nome
	}
	if input.Email != nil {
		if err := util.ValidateEmail(*input.Email); err != nil {
			return UsuarioView{}, err
		}
		arg.Email = *input.Email
	}
	if input.Role != nil {
		role, err := ParseRole(*input.Role)
		if err != nil {
			return UsuarioView{}, util.Invalid("role", err.Error())
		}
		arg.Role = string(role)
	}
	if input.OrgaoID != nil && *input.OrgaoID != current.OrgaoID {
		if err := s.ensureOrgaoAtivo(ctx, *input.OrgaoID); err != nil {
			return UsuarioView{}, err
		}
		arg.OrgaoID = *input.OrgaoID
	}
	if input.Ativo != nil {
		arg.Ativo = *input.Ativo
	}

	updated, err := s.repo.UpdateUsuario(ctx, arg)
	if err != nil {
		return UsuarioView{}, err
	}
	if !updated.Ativo {
		if err := s.repo.ClearRefreshToken(ctx, updated.ID); err != nil {
			return UsuarioView{}, err
		}
	}
	return toView(updated), nil
}

// ResetPassword define nova senha e derruba a sessão vigente.
func (s *UsuarioService) ResetPassword(ctx context.Context, id int64, novaSenha string) error {
	if err := util.ValidatePassword(novaSenha); err != nil {
		return err
	}
	hash, err := auth.Hash(novaSenha)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateSenha(ctx, id, hash); err != nil {
		return err
	}
	return s.repo.ClearRefreshToken(ctx, id)
}

// ChangeOwnPassword troca a senha do próprio usuário após conferir a atual.
func (s *UsuarioService) ChangeOwnPassword(ctx context.Context, id int64, atual, nova string) error {
	u, err := s.repo.GetUsuarioByID(ctx, id)
	if err != nil {
		return err
	}
	ok, err := auth.Verify(atual, u.SenhaHash)
	if err != nil || !ok {
		return ErrSenhaAtualIncorreta
	}
	if err := util.ValidatePassword(nova); err != nil {
		return err
	}
	hash, err := auth.Hash(nova)
	if err != nil {
		return err
	}
	return s.repo.UpdateSenha(ctx, id, hash)
}

// Deactivate desativa usuário; o próprio administrador não pode se desativar.
func (s *UsuarioService) Deactivate(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return util.Invalid("id", "não é possível desativar o próprio usuário")
	}
	return s.repo.SetAtivo(ctx, id, false)
}

func (s *UsuarioService) ensureOrgaoAtivo(ctx context.Context, orgaoID int64) error {
	if orgaoID <= 0 {
		return util.Invalid("orgao_id", "orgao_id obrigatório")
	}
	o, err := s.orgaos.Get(ctx, orgaoID)
	if err != nil {
		if errors.Is(err, orgao.ErrNotFound) {
			return util.Invalid("orgao_id", "órgão inexistente")
		}
		return err
	}
	if !o.Ativo {
		return util.Invalid("orgao_id", "órgão inativo")
	}
	return nil
}

func toView(u repo.Usuario) UsuarioView {
	return UsuarioView{
		ID:        u.ID,
		Nome:      u.Nome,
		Email:     u.Email,
		Role:      Role(u.Role),
		OrgaoID:   u.OrgaoID,
		Ativo:     u.Ativo,
		CreatedAt: u.CriadoEm,
	}
}
