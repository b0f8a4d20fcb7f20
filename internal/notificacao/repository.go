package notificacao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arquivamais/processos/internal/db"
)

// Repository acessa a tabela notificacoes.
type Repository struct {
	db db.DBTX
}

// NewRepository cria o repositório.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

func scanNotificacao(row pgx.Row) (*Notificacao, error) {
	var n Notificacao
	if err := row.Scan(&n.ID, &n.UsuarioID, &n.Mensagem, &n.Lida, &n.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// Insert grava uma notificação não lida.
func (r *Repository) Insert(ctx context.Context, usuarioID int64, mensagem string) (*Notificacao, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO notificacoes (usuario_id, mensagem)
		VALUES ($1, $2)
		RETURNING id, usuario_id, mensagem, lida, created_at`, usuarioID, mensagem)
	return scanNotificacao(row)
}

// ListByUsuario devolve as mais recentes primeiro.
func (r *Repository) ListByUsuario(ctx context.Context, usuarioID int64, limit int) ([]Notificacao, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, usuario_id, mensagem, lida, created_at
		FROM notificacoes
		WHERE usuario_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, usuarioID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Notificacao, 0)
	for rows.Next() {
		n, err := scanNotificacao(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// CountUnread conta notificações não lidas do usuário.
func (r *Repository) CountUnread(ctx context.Context, usuarioID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notificacoes WHERE usuario_id = $1 AND lida = FALSE`, usuarioID).Scan(&count)
	return count, err
}

// MarkRead marca como lida apenas se pertencer ao usuário.
func (r *Repository) MarkRead(ctx context.Context, id, usuarioID int64) (*Notificacao, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE notificacoes SET lida = TRUE
		WHERE id = $1 AND usuario_id = $2
		RETURNING id, usuario_id, mensagem, lida, created_at`, id, usuarioID)
	return scanNotificacao(row)
}

// MarkAllRead marca todas as não lidas e devolve quantas mudaram.
func (r *Repository) MarkAllRead(ctx context.Context, usuarioID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE notificacoes SET lida = TRUE WHERE usuario_id = $1 AND lida = FALSE`, usuarioID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteOlderThan remove notificações criadas antes do corte, lidas ou não.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM notificacoes WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
