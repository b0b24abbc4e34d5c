package notify

import (
	"context"

	"github.com/pkg/errors"
)

// ErrDeliveryFailure indica que um destino rejeitou ou não recebeu a mensagem.
// Não desfaz o snapshot já persistido: o alerta é reportado como perdido.
var ErrDeliveryFailure = errors.New("falha ao entregar notificação")

// Kind identifica o tipo de destino de notificação
type Kind string

const (
	KindDiscord  Kind = "discord"
	KindEmail    Kind = "email"
	KindTelegram Kind = "telegram"
)

// Limit retorna o tamanho máximo de payload do destino (0 = sem limite).
// O Discord corta mensagens em 2000 caracteres; usamos 1900 de margem.
func (k Kind) Limit() int {
	switch k {
	case KindDiscord:
		return 1900
	case KindTelegram:
		return 4096
	default:
		return 0
	}
}

// Notifier define a interface para destinos de notificação.
// Implementações fazem apenas a entrega; a formatação vem pronta do Digest.
type Notifier interface {
	Kind() Kind
	Send(ctx context.Context, d Digest) error
}
