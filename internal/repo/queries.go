package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arquivamais/processos/internal/db"
)

// Queries concentra o acesso à tabela de usuários.
type Queries struct {
	db db.DBTX
}

// New cria Queries sobre o pool ou uma transação.
func New(conn db.DBTX) *Queries {
	return &Queries{db: conn}
}

// WithTx devolve uma cópia ligada à transação informada.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const usuarioColumns = `id, nome, email, senha_hash, role, orgao_id, ativo, refresh_token_hash, refresh_token_expira, created_at, updated_at`

func scanUsuario(row pgx.Row) (Usuario, error) {
	var u Usuario
	err := row.Scan(&u.ID, &u.Nome, &u.Email, &u.SenhaHash, &u.Role, &u.OrgaoID, &u.Ativo,
		&u.RefreshTokenHash, &u.RefreshTokenExpira, &u.CriadoEm, &u.AtualizadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Usuario{}, ErrNotFound
		}
		return Usuario{}, err
	}
	return u, nil
}

// GetUsuarioByEmail busca usuário pelo e-mail normalizado.
func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	row := q.db.QueryRow(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
	return scanUsuario(row)
}

// GetUsuarioByID busca usuário pelo identificador.
func (q *Queries) GetUsuarioByID(ctx context.Context, id int64) (Usuario, error) {
	row := q.db.QueryRow(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE id = $1`, id)
	return scanUsuario(row)
}

// ListUsuarios lista usuários ordenados por nome.
func (q *Queries) ListUsuarios(ctx context.Context, arg ListUsuariosParams) ([]Usuario, error) {
	var (
		where []string
		args  []any
	)
	if arg.OrgaoID != nil {
		args = append(args, *arg.OrgaoID)
		where = append(where, fmt.Sprintf("orgao_id = $%d", len(args)))
	}
	if arg.ApenasAtivos {
		where = append(where, "ativo = TRUE")
	}

	query := `SELECT ` + usuarioColumns + ` FROM usuarios`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY nome ASC"

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Usuario
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// InsertUsuario cria usuário e devolve o registro persistido.
func (q *Queries) InsertUsuario(ctx context.Context, arg InsertUsuarioParams) (Usuario, error) {
	row := q.db.QueryRow(ctx, `
        INSERT INTO usuarios (nome, email, senha_hash, role, orgao_id, ativo)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+usuarioColumns,
		strings.TrimSpace(arg.Nome), strings.ToLower(strings.TrimSpace(arg.Email)), arg.SenhaHash, arg.Role, arg.OrgaoID, arg.Ativo)
	u, err := scanUsuario(row)
	if db.IsUniqueViolation(err) {
		return Usuario{}, ErrEmailInUse
	}
	return u, err
}

// UpdateUsuario aplica a edição administrativa.
func (q *Queries) UpdateUsuario(ctx context.Context, arg UpdateUsuarioParams) (Usuario, error) {
	row := q.db.QueryRow(ctx, `
        UPDATE usuarios
        SET nome = $2, email = $3, role = $4, orgao_id = $5, ativo = $6, updated_at = now()
        WHERE id = $1
        RETURNING `+usuarioColumns,
		arg.ID, strings.TrimSpace(arg.Nome), strings.ToLower(strings.TrimSpace(arg.Email)), arg.Role, arg.OrgaoID, arg.Ativo)
	u, err := scanUsuario(row)
	if db.IsUniqueViolation(err) {
		return Usuario{}, ErrEmailInUse
	}
	return u, err
}

// UpdateSenha grava novo digest de senha.
func (q *Queries) UpdateSenha(ctx context.Context, id int64, senhaHash string) error {
	tag, err := q.db.Exec(ctx, `UPDATE usuarios SET senha_hash = $2, updated_at = now() WHERE id = $1`, id, senhaHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAtivo ativa ou desativa usuário; a desativação também encerra a sessão.
func (q *Queries) SetAtivo(ctx context.Context, id int64, ativo bool) error {
	tag, err := q.db.Exec(ctx, `
        UPDATE usuarios
        SET ativo = $2,
            refresh_token_hash = CASE WHEN $2 THEN refresh_token_hash ELSE NULL END,
            refresh_token_expira = CASE WHEN $2 THEN refresh_token_expira ELSE NULL END,
            updated_at = now()
        WHERE id = $1
    `, id, ativo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRefreshToken sobrescreve o digest do refresh token vigente.
func (q *Queries) SetRefreshToken(ctx context.Context, id int64, tokenHash string, expira time.Time) error {
	tag, err := q.db.Exec(ctx, `
        UPDATE usuarios SET refresh_token_hash = $2, refresh_token_expira = $3 WHERE id = $1
    `, id, tokenHash, expira)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearRefreshToken remove o refresh token do usuário.
func (q *Queries) ClearRefreshToken(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, `
        UPDATE usuarios SET refresh_token_hash = NULL, refresh_token_expira = NULL WHERE id = $1
    `, id)
	return err
}

// MigrateRoles converte em lote papéis legados; devolve quantos usuários mudaram.
// A conversão é registrada em schema_migrations e só roda uma vez, pois "gestor"
// existe nos dois esquemas com pesos diferentes.
func (q *Queries) MigrateRoles(ctx context.Context, convert func(string) string) (int, error) {
	tag, err := q.db.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ('legacy_roles') ON CONFLICT DO NOTHING`)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, nil
	}

	rows, err := q.db.Query(ctx, `SELECT id, role FROM usuarios`)
	if err != nil {
		return 0, err
	}
	type pending struct {
		id   int64
		role string
	}
	var updates []pending
	for rows.Next() {
		var (
			id   int64
			role string
		)
		if err := rows.Scan(&id, &role); err != nil {
			rows.Close()
			return 0, err
		}
		if next := convert(role); next != role {
			updates = append(updates, pending{id: id, role: next})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, u := range updates {
		if _, err := q.db.Exec(ctx, `UPDATE usuarios SET role = $2, updated_at = now() WHERE id = $1`, u.id, u.role); err != nil {
			return 0, err
		}
	}
	return len(updates), nil
}
