package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// TelegramNotifier envia o digest como mensagens de um bot do Telegram.
// O limite de mensagem do Telegram é 4096 caracteres.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram conecta o bot do Telegram e valida o token
func NewTelegram(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		if err.Error() == "Unauthorized" {
			return nil, errors.New("token do Telegram inválido ou expirado. Para obter um token, fale com @BotFather no Telegram")
		}
		return nil, errors.Wrap(err, "erro ao conectar com Telegram")
	}

	bot.Debug = false
	log.WithField("username", bot.Self.UserName).Info("Bot do Telegram autorizado")
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// Kind retorna o tipo do destino
func (n *TelegramNotifier) Kind() Kind {
	return KindTelegram
}

// Send entrega cada payload do digest como uma mensagem do bot
func (n *TelegramNotifier) Send(ctx context.Context, d Digest) error {
	for _, content := range Payloads(d, KindTelegram) {
		msg := tgbotapi.NewMessage(n.chatID, content)
		if _, err := n.bot.Send(msg); err != nil {
			return errors.Wrapf(ErrDeliveryFailure, "telegram: %v", err)
		}
	}
	return nil
}
