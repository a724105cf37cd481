package util

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrValidation marca erros de entrada do usuário. Só a mensagem desses erros
// pode ir na resposta HTTP; qualquer outro erro é interno e não vaza detalhe.
var ErrValidation = errors.New("entrada inválida")

type validationError string

func (e validationError) Error() string { return string(e) }

func (validationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError cria um erro que casa com ErrValidation via errors.Is.
func NewValidationError(msg string) error {
	return validationError(msg)
}

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return NewValidationError("email obrigatório")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return NewValidationError("email inválido")
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return NewValidationError("senha deve ter pelo menos 8 caracteres")
	}
	return nil
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(field + " obrigatório")
	}
	return nil
}
