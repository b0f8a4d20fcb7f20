package orgao

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/arquivamais/processos/internal/db"
)

// Repository provê acesso ao armazenamento de órgãos.
type Repository struct {
	db db.DBTX
}

// NewRepository cria um novo repositório de órgãos.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

const orgaoColumns = `id, nome, cnpj, tipo, endereco, telefone, email, responsavel, ativo, observacoes, created_at, updated_at`

// GetByID busca órgão pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Orgao, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orgaoColumns+` FROM orgaos WHERE id = $1`, id)
	return scanOrgao(row)
}

// List devolve órgãos filtrados e ordenados por nome.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Orgao, error) {
	var (
		where []string
		args  []any
	)
	if busca := strings.TrimSpace(filter.Busca); busca != "" {
		args = append(args, db.ContainsPattern(busca))
		idx := len(args)
		where = append(where, fmt.Sprintf("(nome ILIKE $%d OR cnpj ILIKE $%d OR responsavel ILIKE $%d)", idx, idx, idx))
	}
	if filter.Tipo != "" {
		args = append(args, string(filter.Tipo))
		where = append(where, fmt.Sprintf("tipo = $%d", len(args)))
	}
	if filter.Ativo != nil {
		args = append(args, *filter.Ativo)
		where = append(where, fmt.Sprintf("ativo = $%d", len(args)))
	}

	query := `SELECT ` + orgaoColumns + ` FROM orgaos`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY nome ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgaos []Orgao
	for rows.Next() {
		o, err := scanOrgao(rows)
		if err != nil {
			return nil, err
		}
		orgaos = append(orgaos, *o)
	}
	return orgaos, rows.Err()
}

// ExistsNome verifica nome em uso por outro órgão.
func (r *Repository) ExistsNome(ctx context.Context, nome string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orgaos WHERE nome = $1 AND id <> $2)`, nome, excludeID).Scan(&exists)
	return exists, err
}

// ExistsCNPJ verifica CNPJ em uso por outro órgão.
func (r *Repository) ExistsCNPJ(ctx context.Context, cnpj string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orgaos WHERE cnpj = $1 AND id <> $2)`, cnpj, excludeID).Scan(&exists)
	return exists, err
}

// Create insere um novo órgão e devolve os dados persistidos.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*Orgao, error) {
	row := r.db.QueryRow(ctx, `
        INSERT INTO orgaos (nome, cnpj, tipo, endereco, telefone, email, responsavel, observacoes)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+orgaoColumns,
		input.Nome, input.CNPJ, string(input.Tipo), input.Endereco, input.Telefone, input.Email, input.Responsavel, input.Observacoes)
	o, err := scanOrgao(row)
	if db.IsUniqueViolation(err) {
		return nil, ErrDuplicateNome
	}
	return o, err
}

// Save grava todos os campos editáveis do órgão.
func (r *Repository) Save(ctx context.Context, o *Orgao) (*Orgao, error) {
	row := r.db.QueryRow(ctx, `
        UPDATE orgaos
        SET nome = $2, cnpj = $3, tipo = $4, endereco = $5, telefone = $6, email = $7,
            responsavel = $8, ativo = $9, observacoes = $10, updated_at = now()
        WHERE id = $1
        RETURNING `+orgaoColumns,
		o.ID, o.Nome, o.CNPJ, string(o.Tipo), o.Endereco, o.Telefone, o.Email, o.Responsavel, o.Ativo, o.Observacoes)
	saved, err := scanOrgao(row)
	if db.IsUniqueViolation(err) {
		return nil, ErrDuplicateNome
	}
	return saved, err
}

func scanOrgao(row pgx.Row) (*Orgao, error) {
	var (
		o    Orgao
		tipo string
	)
	if err := row.Scan(&o.ID, &o.Nome, &o.CNPJ, &tipo, &o.Endereco, &o.Telefone, &o.Email, &o.Responsavel, &o.Ativo, &o.Observacoes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	o.Tipo = Tipo(tipo)
	return &o, nil
}
