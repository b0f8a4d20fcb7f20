package orgao

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("órgão não encontrado")
	ErrDuplicateNome = errors.New("já existe um órgão com este nome")
	ErrDuplicateCNPJ = errors.New("já existe um órgão com este CNPJ")
)

// Tipo classifica o órgão dentro da estrutura administrativa.
type Tipo string

const (
	TipoPrefeitura   Tipo = "PREFEITURA"
	TipoSecretaria   Tipo = "SECRETARIA"
	TipoDepartamento Tipo = "DEPARTAMENTO"
)

// Valid informa se o tipo é conhecido.
func (t Tipo) Valid() bool {
	switch t {
	case TipoPrefeitura, TipoSecretaria, TipoDepartamento:
		return true
	}
	return false
}

// Orgao é o tenant dono de usuários e processos.
type Orgao struct {
	ID          int64     `json:"id"`
	Nome        string    `json:"nome"`
	CNPJ        string    `json:"cnpj"`
	Tipo        Tipo      `json:"tipo"`
	Endereco    *string   `json:"endereco"`
	Telefone    *string   `json:"telefone"`
	Email       *string   `json:"email"`
	Responsavel *string   `json:"responsavel"`
	Ativo       bool      `json:"ativo"`
	Observacoes *string   `json:"observacoes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateInput contém os campos necessários para cadastrar um órgão.
type CreateInput struct {
	Nome        string  `json:"nome"`
	CNPJ        string  `json:"cnpj"`
	Tipo        Tipo    `json:"tipo"`
	Endereco    *string `json:"endereco"`
	Telefone    *string `json:"telefone"`
	Email       *string `json:"email"`
	Responsavel *string `json:"responsavel"`
	Observacoes *string `json:"observacoes"`
}

// UpdateInput altera apenas os campos informados.
type UpdateInput struct {
	Nome        *string `json:"nome"`
	CNPJ        *string `json:"cnpj"`
	Tipo        *Tipo   `json:"tipo"`
	Endereco    *string `json:"endereco"`
	Telefone    *string `json:"telefone"`
	Email       *string `json:"email"`
	Responsavel *string `json:"responsavel"`
	Ativo       *bool   `json:"ativo"`
	Observacoes *string `json:"observacoes"`
}

// ListFilter filtra a listagem de órgãos.
type ListFilter struct {
	Busca string
	Tipo  Tipo
	Ativo *bool
}
