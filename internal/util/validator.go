package util

import (
	"net/mail"
	"strings"
)

// ValidationError descreve entrada ausente ou malformada em um campo.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Invalid cria um ValidationError para o campo informado.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return Invalid("email", "email obrigatório")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Invalid("email", "email inválido")
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return Invalid("senha", "senha deve ter pelo menos 8 caracteres")
	}
	return nil
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return Invalid(field, field+" obrigatório")
	}
	return nil
}
