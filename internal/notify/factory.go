package notify

import (
	log "github.com/sirupsen/logrus"

	"bot-estoque/config"
)

// BuildFromConfig monta a lista de notificadores a partir da configuração.
// Destinos sem credenciais configuradas são simplesmente omitidos; uma lista
// vazia significa rodar em modo apenas-log.
func BuildFromConfig(cfg *config.Config) ([]Notifier, error) {
	var notifiers []Notifier

	if cfg.SMTPHost != "" && cfg.SMTPUser != "" && cfg.SMTPPass != "" && cfg.EmailTo != "" {
		notifiers = append(notifiers, NewEmail(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom, cfg.EmailTo))
	}

	if cfg.DiscordWebhookURL != "" {
		notifiers = append(notifiers, NewDiscord(cfg.DiscordWebhookURL, cfg.DiscordUsername, cfg.DiscordAvatarURL))
	}

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err := NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, tg)
	}

	for _, n := range notifiers {
		log.WithField("destino", n.Kind()).Info("Notificador configurado")
	}
	return notifiers, nil
}
