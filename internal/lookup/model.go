package lookup

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indica registro de referência inexistente.
	ErrNotFound = errors.New("registro não encontrado")
	// ErrDuplicateName indica outro registro com o mesmo nome.
	ErrDuplicateName = errors.New("nome já cadastrado")
	// ErrInUse bloqueia a exclusão de registros referenciados por processos.
	ErrInUse = errors.New("registro em uso")
)

// Entry é uma linha de tabela de referência.
type Entry struct {
	ID        int64     `json:"id"`
	Nome      string    `json:"nome"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// kindError carrega a mensagem específica do tipo mantendo o sentinel para errors.Is.
type kindError struct {
	base error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.base }

func notFound(k Kind) error {
	return &kindError{base: ErrNotFound, msg: k.title() + " não encontrado"}
}

func duplicateName(k Kind) error {
	return &kindError{base: ErrDuplicateName, msg: "Já existe um " + k.Label() + " com este nome"}
}

func inUse(k Kind, count int64) error {
	return &kindError{
		base: ErrInUse,
		msg:  fmt.Sprintf("Este %s está sendo usado em %d processo(s) e não pode ser excluído", k.Label(), count),
	}
}
