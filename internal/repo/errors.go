package repo

import "errors"

var (
	// ErrNotFound é retornado quando nenhum registro é encontrado.
	ErrNotFound = errors.New("registro não encontrado")
	// ErrEmailInUse é retornado quando o e-mail já pertence a outro usuário.
	ErrEmailInUse = errors.New("email já cadastrado")
)
