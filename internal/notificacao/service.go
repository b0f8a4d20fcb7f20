package notificacao

import (
	"context"
	"strings"
	"time"

	"github.com/arquivamais/processos/internal/util"
)

type repository interface {
	Insert(ctx context.Context, usuarioID int64, mensagem string) (*Notificacao, error)
	ListByUsuario(ctx context.Context, usuarioID int64, limit int) ([]Notificacao, error)
	CountUnread(ctx context.Context, usuarioID int64) (int64, error)
	MarkRead(ctx context.Context, id, usuarioID int64) (*Notificacao, error)
	MarkAllRead(ctx context.Context, usuarioID int64) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service gerencia a caixa de notificações de cada usuário.
type Service struct {
	repo repository
	now  func() time.Time
}

// NewService cria o serviço.
func NewService(r repository) *Service {
	return &Service{repo: r, now: util.Now}
}

// Create registra uma notificação para o usuário.
func (s *Service) Create(ctx context.Context, usuarioID int64, mensagem string) (*Notificacao, error) {
	mensagem = strings.TrimSpace(mensagem)
	if mensagem == "" {
		return nil, util.Invalid("mensagem", "mensagem obrigatória")
	}
	return s.repo.Insert(ctx, usuarioID, mensagem)
}

// Notify satisfaz o contrato de aviso usado pelos processos.
func (s *Service) Notify(ctx context.Context, usuarioID int64, mensagem string) error {
	_, err := s.Create(ctx, usuarioID, mensagem)
	return err
}

// List devolve as 50 notificações mais recentes.
func (s *Service) List(ctx context.Context, usuarioID int64) ([]Notificacao, error) {
	return s.repo.ListByUsuario(ctx, usuarioID, ListLimit)
}

// CountUnread conta as não lidas.
func (s *Service) CountUnread(ctx context.Context, usuarioID int64) (int64, error) {
	return s.repo.CountUnread(ctx, usuarioID)
}

// MarkRead marca uma notificação do próprio usuário.
func (s *Service) MarkRead(ctx context.Context, id, usuarioID int64) (*Notificacao, error) {
	return s.repo.MarkRead(ctx, id, usuarioID)
}

// MarkAllRead devolve quantas notificações foram marcadas.
func (s *Service) MarkAllRead(ctx context.Context, usuarioID int64) (int64, error) {
	return s.repo.MarkAllRead(ctx, usuarioID)
}

// PurgeOlderThan remove notificações com idade acima de retention.
func (s *Service) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, s.now().Add(-retention))
}
