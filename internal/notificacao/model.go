package notificacao

import (
	"errors"
	"time"
)

// ErrNotFound indica notificação inexistente ou de outro usuário.
var ErrNotFound = errors.New("notificação não encontrada")

// ListLimit é o máximo de notificações devolvidas por listagem.
const ListLimit = 50

// Notificacao é um aviso entregue a um usuário.
type Notificacao struct {
	ID        int64     `json:"id"`
	UsuarioID int64     `json:"usuario_id"`
	Mensagem  string    `json:"mensagem"`
	Lida      bool      `json:"lida"`
	CreatedAt time.Time `json:"created_at"`
}
