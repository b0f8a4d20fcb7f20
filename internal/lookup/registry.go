package lookup

import (
	"context"
	"errors"
	"strings"

	"github.com/arquivamais/processos/internal/util"
)

// connectAttempts limita as tentativas quando inserções concorrentes disputam o mesmo nome.
const connectAttempts = 3

type store interface {
	GetByID(ctx context.Context, kind Kind, id int64) (*Entry, error)
	FindByName(ctx context.Context, kind Kind, nome string) (*Entry, error)
	InsertIfAbsent(ctx context.Context, kind Kind, nome string) (*Entry, error)
	List(ctx context.Context, kind Kind, search string) ([]Entry, error)
	ExistsOther(ctx context.Context, kind Kind, nome string, excludeID int64) (bool, error)
	Rename(ctx context.Context, kind Kind, id int64, nome string) (*Entry, error)
	CountUsage(ctx context.Context, kind Kind, id int64) (int64, error)
	Delete(ctx context.Context, kind Kind, id int64) error
}

// Registry resolve e mantém as tabelas de referência.
type Registry struct {
	store store
}

// NewRegistry cria o registro sobre um store.
func NewRegistry(s store) *Registry {
	return &Registry{store: s}
}

// ConnectOrCreate devolve o id do registro com o nome exato, criando-o se preciso.
// Nome vazio devolve nil. A comparação diferencia maiúsculas.
func (r *Registry) ConnectOrCreate(ctx context.Context, kind Kind, rawName string) (*int64, error) {
	nome := strings.TrimSpace(rawName)
	if nome == "" {
		return nil, nil
	}
	e, _, err := r.findOrCreate(ctx, kind, nome)
	if err != nil {
		return nil, err
	}
	return &e.ID, nil
}

func (r *Registry) findOrCreate(ctx context.Context, kind Kind, nome string) (*Entry, bool, error) {
	for attempt := 0; attempt < connectAttempts; attempt++ {
		existing, err := r.store.FindByName(ctx, kind, nome)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}

		created, err := r.store.InsertIfAbsent(ctx, kind, nome)
		if err == nil {
			return created, true, nil
		}
		if !errors.Is(err, ErrDuplicateName) {
			return nil, false, err
		}
	}
	return nil, false, duplicateName(kind)
}

// List devolve os registros do tipo.
func (r *Registry) List(ctx context.Context, kind Kind, search string) ([]Entry, error) {
	return r.store.List(ctx, kind, search)
}

// Get devolve um registro.
func (r *Registry) Get(ctx context.Context, kind Kind, id int64) (*Entry, error) {
	e, err := r.store.GetByID(ctx, kind, id)
	if errors.Is(err, ErrNotFound) {
		return nil, notFound(kind)
	}
	return e, err
}

// Create cadastra o nome; created é falso quando o registro já existia.
func (r *Registry) Create(ctx context.Context, kind Kind, rawName string) (*Entry, bool, error) {
	nome := strings.TrimSpace(rawName)
	if nome == "" {
		return nil, false, util.Invalid("nome", "nome é obrigatório")
	}
	return r.findOrCreate(ctx, kind, nome)
}

// Update renomeia o registro. Processos mantêm o texto gravado anteriormente.
func (r *Registry) Update(ctx context.Context, kind Kind, id int64, rawName string) (*Entry, error) {
	nome := strings.TrimSpace(rawName)
	if nome == "" {
		return nil, util.Invalid("nome", "nome é obrigatório")
	}
	if _, err := r.Get(ctx, kind, id); err != nil {
		return nil, err
	}
	exists, err := r.store.ExistsOther(ctx, kind, nome, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicateName(kind)
	}
	e, err := r.store.Rename(ctx, kind, id, nome)
	switch {
	case errors.Is(err, ErrDuplicateName):
		return nil, duplicateName(kind)
	case errors.Is(err, ErrNotFound):
		return nil, notFound(kind)
	}
	return e, err
}

// Usage conta processos que referenciam o registro.
func (r *Registry) Usage(ctx context.Context, kind Kind, id int64) (int64, error) {
	if _, err := r.Get(ctx, kind, id); err != nil {
		return 0, err
	}
	return r.store.CountUsage(ctx, kind, id)
}

// Delete remove o registro se nenhum processo o referencia.
func (r *Registry) Delete(ctx context.Context, kind Kind, id int64) error {
	count, err := r.Usage(ctx, kind, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return inUse(kind, count)
	}
	err = r.store.Delete(ctx, kind, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return notFound(kind)
	case errors.Is(err, ErrInUse):
		return inUse(kind, 1)
	}
	return err
}
