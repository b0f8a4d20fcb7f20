package repo

import "time"

// Usuario representa colaborador de um órgão.
type Usuario struct {
	ID                 int64
	Nome               string
	Email              string
	SenhaHash          string
	Role               string
	OrgaoID            int64
	Ativo              bool
	RefreshTokenHash   *string
	RefreshTokenExpira *time.Time
	CriadoEm           time.Time
	AtualizadoEm       time.Time
}

// InsertUsuarioParams reúne os campos de um novo usuário; SenhaHash já vem calculado.
type InsertUsuarioParams struct {
	Nome      string
	Email     string
	SenhaHash string
	Role      string
	OrgaoID   int64
	Ativo     bool
}

// UpdateUsuarioParams descreve a edição administrativa de um usuário.
type UpdateUsuarioParams struct {
	ID      int64
	Nome    string
	Email   string
	Role    string
	OrgaoID int64
	Ativo   bool
}

// ListUsuariosParams filtra a listagem de usuários.
type ListUsuariosParams struct {
	OrgaoID      *int64
	ApenasAtivos bool
}
