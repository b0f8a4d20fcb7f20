package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/arquivamais/processos/internal/db"
)

// Repository acessa as quatro tabelas de referência.
// O nome da tabela vem sempre de Kind, nunca de entrada externa.
type Repository struct {
	db db.DBTX
}

// NewRepository cria o repositório sobre o pool ou uma transação.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	if err := row.Scan(&e.ID, &e.Nome, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// GetByID busca pelo identificador.
func (r *Repository) GetByID(ctx context.Context, kind Kind, id int64) (*Entry, error) {
	query := fmt.Sprintf(`SELECT id, nome, created_at, updated_at FROM %s WHERE id = $1`, kind.Table())
	return scanEntry(r.db.QueryRow(ctx, query, id))
}

// FindByName busca pelo nome exato.
func (r *Repository) FindByName(ctx context.Context, kind Kind, nome string) (*Entry, error) {
	query := fmt.Sprintf(`SELECT id, nome, created_at, updated_at FROM %s WHERE nome = $1`, kind.Table())
	return scanEntry(r.db.QueryRow(ctx, query, nome))
}

// InsertIfAbsent insere o nome; devolve ErrDuplicateName quando outro registro venceu a corrida.
func (r *Repository) InsertIfAbsent(ctx context.Context, kind Kind, nome string) (*Entry, error) {
	query := fmt.Sprintf(`INSERT INTO %s (nome) VALUES ($1)
		ON CONFLICT (nome) DO NOTHING
		RETURNING id, nome, created_at, updated_at`, kind.Table())
	e, err := scanEntry(r.db.QueryRow(ctx, query, nome))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrDuplicateName
	}
	return e, err
}

// List devolve registros ordenados por nome, filtrando por trecho sem diferenciar maiúsculas.
func (r *Repository) List(ctx context.Context, kind Kind, search string) ([]Entry, error) {
	var args []any
	query := fmt.Sprintf(`SELECT id, nome, created_at, updated_at FROM %s`, kind.Table())
	if search = strings.TrimSpace(search); search != "" {
		args = append(args, db.ContainsPattern(search))
		query += " WHERE nome ILIKE $1"
	}
	query += " ORDER BY nome ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// ExistsOther verifica se outro registro já usa o nome.
func (r *Repository) ExistsOther(ctx context.Context, kind Kind, nome string, excludeID int64) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE nome = $1 AND id <> $2)`, kind.Table())
	err := r.db.QueryRow(ctx, query, nome, excludeID).Scan(&exists)
	return exists, err
}

// Rename altera o nome do registro.
func (r *Repository) Rename(ctx context.Context, kind Kind, id int64, nome string) (*Entry, error) {
	query := fmt.Sprintf(`UPDATE %s SET nome = $2, updated_at = now() WHERE id = $1
		RETURNING id, nome, created_at, updated_at`, kind.Table())
	e, err := scanEntry(r.db.QueryRow(ctx, query, id, nome))
	if err != nil && db.IsUniqueViolation(err) {
		return nil, ErrDuplicateName
	}
	return e, err
}

// CountUsage conta processos que referenciam o registro, inclusive os excluídos logicamente.
func (r *Repository) CountUsage(ctx context.Context, kind Kind, id int64) (int64, error) {
	var count int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM processos WHERE %s = $1`, kind.Column())
	err := r.db.QueryRow(ctx, query, id).Scan(&count)
	return count, err
}

// Delete remove o registro.
func (r *Repository) Delete(ctx context.Context, kind Kind, id int64) error {
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, kind.Table()), id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
