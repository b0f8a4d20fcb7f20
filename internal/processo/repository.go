package processo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/arquivamais/processos/internal/db"
)

// Repository persiste processos no Postgres.
type Repository struct {
	db db.DBTX
}

// NewRepository cria o repositório sobre o pool ou uma transação.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{db: conn}
}

const processoJoins = `
	LEFT JOIN objetos ob ON ob.id = p.objeto_id
	LEFT JOIN credores cr ON cr.id = p.credor_id
	LEFT JOIN orgaos_geradores og ON og.id = p.orgao_gerador_id
	LEFT JOIN setores st ON st.id = p.setor_id`

// selectColumns devolve a lista de colunas; resolved troca o texto gravado
// pelo nome atual da tabela de referência.
func selectColumns(resolved bool) string {
	objeto, credor, gerador, setor := "p.objeto", "p.credor", "p.orgao_gerador", "p.setor_atual"
	if resolved {
		objeto = "COALESCE(ob.nome, p.objeto)"
		credor = "COALESCE(cr.nome, p.credor)"
		gerador = "COALESCE(og.nome, p.orgao_gerador)"
		setor = "COALESCE(st.nome, p.setor_atual)"
	}
	return strings.Join([]string{
		"p.id", "p.orgao_id", "p.numero_processo", "p.data_entrada", "p.competencia",
		objeto + " AS objeto_nome", "p.objeto_id",
		credor + " AS credor_nome", "p.credor_id",
		gerador + " AS orgao_gerador_nome", "p.orgao_gerador_id",
		setor + " AS setor_nome", "p.setor_id",
		"p.responsavel", "p.update_for", "p.descricao", "p.observacao",
		"p.outros_valores", "p.valor_recurso_proprio", "p.valor_royalties", "p.total",
		"p.status", "p.is_priority", "p.is_deleted",
		"p.data_criacao_docgo", "p.data_ultima_movimentacao", "p.data_atualizacao",
		"p.atribuido_por_usuario_id", "p.data_atribuicao", "p.created_at", "p.updated_at",
	}, ", ")
}

func scanProcesso(row pgx.Row) (*Processo, error) {
	var (
		p      Processo
		status string
	)
	err := row.Scan(
		&p.ID, &p.OrgaoID, &p.NumeroProcesso, &p.DataEntrada, &p.Competencia,
		&p.Objeto.Nome, &p.Objeto.ID,
		&p.Credor.Nome, &p.Credor.ID,
		&p.OrgaoGerador.Nome, &p.OrgaoGerador.ID,
		&p.SetorAtual.Nome, &p.SetorAtual.ID,
		&p.Responsavel, &p.UpdateFor, &p.Descricao, &p.Observacao,
		&p.OutrosValores, &p.ValorRecursoProprio, &p.ValorRoyalties, &p.Total,
		&status, &p.IsPriority, &p.IsDeleted,
		&p.DataCriacaoDocgo, &p.DataUltimaMovimentacao, &p.DataAtualizacao,
		&p.AtribuidoPorUsuarioID, &p.DataAtribuicao, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Status = Status(status)
	return &p, nil
}

func collectProcessos(rows pgx.Rows) ([]Processo, error) {
	defer rows.Close()
	out := make([]Processo, 0)
	for rows.Next() {
		p, err := scanProcesso(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Get busca o processo com nomes de referência atualizados.
func (r *Repository) Get(ctx context.Context, id int64, includeDeleted bool) (*Processo, error) {
	query := `SELECT ` + selectColumns(true) + ` FROM processos p` + processoJoins + ` WHERE p.id = $1`
	if !includeDeleted {
		query += ` AND p.is_deleted = FALSE`
	}
	return scanProcesso(r.db.QueryRow(ctx, query, id))
}

// Lock lê o processo ativo com os textos gravados e bloqueia a linha até o fim da transação.
func (r *Repository) Lock(ctx context.Context, id int64) (*Processo, error) {
	query := `SELECT ` + selectColumns(false) + ` FROM processos p WHERE p.id = $1 AND p.is_deleted = FALSE FOR UPDATE`
	return scanProcesso(r.db.QueryRow(ctx, query, id))
}

// ExistsNumero verifica o número entre processos ativos do órgão.
func (r *Repository) ExistsNumero(ctx context.Context, orgaoID int64, numero string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(
		SELECT 1 FROM processos
		WHERE orgao_id = $1 AND numero_processo = $2 AND is_deleted = FALSE AND id <> $3)`,
		orgaoID, numero, excludeID).Scan(&exists)
	return exists, err
}

// Insert grava um novo processo e preenche id e timestamps.
func (r *Repository) Insert(ctx context.Context, p *Processo) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO processos (
			orgao_id, numero_processo, data_entrada, competencia,
			objeto, objeto_id, credor, credor_id, orgao_gerador, orgao_gerador_id, setor_atual, setor_id,
			responsavel, update_for, descricao, observacao,
			outros_valores, valor_recurso_proprio, valor_royalties, total,
			status, is_priority, is_deleted,
			data_criacao_docgo, data_ultima_movimentacao, data_atualizacao,
			atribuido_por_usuario_id, data_atribuicao
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28
		)
		RETURNING id, created_at, updated_at`,
		p.OrgaoID, p.NumeroProcesso, p.DataEntrada, p.Competencia,
		p.Objeto.Nome, p.Objeto.ID, p.Credor.Nome, p.Credor.ID,
		p.OrgaoGerador.Nome, p.OrgaoGerador.ID, p.SetorAtual.Nome, p.SetorAtual.ID,
		p.Responsavel, p.UpdateFor, p.Descricao, p.Observacao,
		p.OutrosValores, p.ValorRecursoProprio, p.ValorRoyalties, p.Total,
		string(p.Status), p.IsPriority, p.IsDeleted,
		p.DataCriacaoDocgo, p.DataUltimaMovimentacao, p.DataAtualizacao,
		p.AtribuidoPorUsuarioID, p.DataAtribuicao,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil && db.IsUniqueViolation(err) {
		return ErrDuplicateNumero
	}
	return err
}

// Save regrava todas as colunas mutáveis.
func (r *Repository) Save(ctx context.Context, p *Processo) error {
	err := r.db.QueryRow(ctx, `
		UPDATE processos SET
			numero_processo = $2, data_entrada = $3, competencia = $4,
			objeto = $5, objeto_id = $6, credor = $7, credor_id = $8,
			orgao_gerador = $9, orgao_gerador_id = $10, setor_atual = $11, setor_id = $12,
			responsavel = $13, update_for = $14, descricao = $15, observacao = $16,
			outros_valores = $17, valor_recurso_proprio = $18, valor_royalties = $19, total = $20,
			status = $21, is_priority = $22, is_deleted = $23,
			data_criacao_docgo = $24, data_ultima_movimentacao = $25, data_atualizacao = $26,
			atribuido_por_usuario_id = $27, data_atribuicao = $28,
			updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.NumeroProcesso, p.DataEntrada, p.Competencia,
		p.Objeto.Nome, p.Objeto.ID, p.Credor.Nome, p.Credor.ID,
		p.OrgaoGerador.Nome, p.OrgaoGerador.ID, p.SetorAtual.Nome, p.SetorAtual.ID,
		p.Responsavel, p.UpdateFor, p.Descricao, p.Observacao,
		p.OutrosValores, p.ValorRecursoProprio, p.ValorRoyalties, p.Total,
		string(p.Status), p.IsPriority, p.IsDeleted,
		p.DataCriacaoDocgo, p.DataUltimaMovimentacao, p.DataAtualizacao,
		p.AtribuidoPorUsuarioID, p.DataAtribuicao,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return ErrDuplicateNumero
		}
		return err
	}
	return nil
}

// List executa a consulta paginada e devolve também o total de itens.
func (r *Repository) List(ctx context.Context, q Query) ([]Processo, int, error) {
	where, args := q.buildWhere()

	var total int
	countSQL := `SELECT COUNT(*) FROM processos p` + processoJoins + ` WHERE ` + where
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, q.Limit, q.Offset)
	listSQL := fmt.Sprintf(`SELECT %s FROM processos p%s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		selectColumns(true), processoJoins, where, q.OrderBy, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectProcessos(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAll devolve todos os processos ativos do órgão, entrada mais recente primeiro.
func (r *Repository) ListAll(ctx context.Context, orgaoID int64) ([]Processo, error) {
	query := `SELECT ` + selectColumns(true) + ` FROM processos p` + processoJoins + `
		WHERE p.orgao_id = $1 AND p.is_deleted = FALSE
		ORDER BY ` + listAllOrder
	rows, err := r.db.Query(ctx, query, orgaoID)
	if err != nil {
		return nil, err
	}
	return collectProcessos(rows)
}
