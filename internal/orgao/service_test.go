package orgao

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arquivamais/processos/internal/util"
)

type memRepo struct {
	items  map[int64]*Orgao
	nextID int64
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[int64]*Orgao{}}
}

func (m *memRepo) GetByID(ctx context.Context, id int64) (*Orgao, error) {
	o, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memRepo) List(ctx context.Context, filter ListFilter) ([]Orgao, error) {
	var out []Orgao
	for _, o := range m.items {
		if filter.Tipo != "" && o.Tipo != filter.Tipo {
			continue
		}
		if filter.Ativo != nil && o.Ativo != *filter.Ativo {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (m *memRepo) ExistsNome(ctx context.Context, nome string, excludeID int64) (bool, error) {
	for _, o := range m.items {
		if o.Nome == nome && o.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) ExistsCNPJ(ctx context.Context, cnpj string, excludeID int64) (bool, error) {
	for _, o := range m.items {
		if o.CNPJ == cnpj && o.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) Create(ctx context.Context, input CreateInput) (*Orgao, error) {
	m.nextID++
	o := &Orgao{ID: m.nextID, Nome: input.Nome, CNPJ: input.CNPJ, Tipo: input.Tipo, Ativo: true}
	m.items[o.ID] = o
	cp := *o
	return &cp, nil
}

func (m *memRepo) Save(ctx context.Context, o *Orgao) (*Orgao, error) {
	cp := *o
	m.items[o.ID] = &cp
	return o, nil
}

func TestCreateValidatesAndDefaultsTipo(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Nome: " Prefeitura de Penedo ", CNPJ: "12.345.678/0001-90"})
	require.NoError(t, err)
	assert.Equal(t, "Prefeitura de Penedo", created.Nome)
	assert.Equal(t, TipoSecretaria, created.Tipo)

	_, err = svc.Create(ctx, CreateInput{Nome: "Outro", CNPJ: "123"})
	var verr *util.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "cnpj", verr.Field)

	_, err = svc.Create(ctx, CreateInput{Nome: "Outro", CNPJ: "98765432000110", Tipo: "AUTARQUIA"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "tipo", verr.Field)
}

func TestCreateRejectsDuplicates(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{Nome: "Secretaria de Saúde", CNPJ: "11111111000111"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{Nome: "Secretaria de Saúde", CNPJ: "22222222000122"})
	assert.ErrorIs(t, err, ErrDuplicateNome)

	_, err = svc.Create(ctx, CreateInput{Nome: "Secretaria de Obras", CNPJ: "11111111000111"})
	assert.ErrorIs(t, err, ErrDuplicateCNPJ)
}

func TestUpdateAndDeactivate(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Nome: "Secretaria de Saúde", CNPJ: "11111111000111"})
	require.NoError(t, err)

	nome := "Secretaria Municipal de Saúde"
	updated, err := svc.Update(ctx, created.ID, UpdateInput{Nome: &nome})
	require.NoError(t, err)
	assert.Equal(t, nome, updated.Nome)
	assert.Equal(t, "11111111000111", updated.CNPJ)

	deactivated, err := svc.Deactivate(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.Ativo)

	_, err = svc.Update(ctx, 999, UpdateInput{Nome: &nome})
	assert.ErrorIs(t, err, ErrNotFound)
}
