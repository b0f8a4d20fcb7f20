package processo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arquivamais/processos/internal/db"
	"github.com/arquivamais/processos/internal/lookup"
)

// Reader são as leituras feitas fora de transação.
type Reader interface {
	Get(ctx context.Context, id int64, includeDeleted bool) (*Processo, error)
	List(ctx context.Context, q Query) ([]Processo, int, error)
	ListAll(ctx context.Context, orgaoID int64) ([]Processo, error)
}

// Tx é a unidade de trabalho de uma escrita: processo e referências
// gravados juntos ou descartados juntos.
type Tx interface {
	Lock(ctx context.Context, id int64) (*Processo, error)
	ExistsNumero(ctx context.Context, orgaoID int64, numero string, excludeID int64) (bool, error)
	Insert(ctx context.Context, p *Processo) error
	Save(ctx context.Context, p *Processo) error
	ConnectOrCreate(ctx context.Context, kind lookup.Kind, rawName string) (*int64, error)
}

// Store combina leituras e escrita transacional.
type Store interface {
	Reader
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// PgStore implementa Store sobre pgxpool.
type PgStore struct {
	*Repository
	pool *pgxpool.Pool
}

// NewPgStore cria o store ligado ao pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{Repository: NewRepository(pool), pool: pool}
}

// WithinTx executa fn numa transação; qualquer erro desfaz tudo, inclusive referências criadas.
func (s *PgStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &pgTx{
			Repository: NewRepository(tx),
			lookups:    lookup.NewRegistry(lookup.NewRepository(tx)),
		})
	})
}

type pgTx struct {
	*Repository
	lookups *lookup.Registry
}

func (t *pgTx) ConnectOrCreate(ctx context.Context, kind lookup.Kind, rawName string) (*int64, error) {
	return t.lookups.ConnectOrCreate(ctx, kind, rawName)
}
