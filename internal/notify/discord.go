package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// DiscordNotifier envia o digest para um webhook do Discord, dividindo em
// múltiplas mensagens abaixo do limite de 2000 caracteres.
type DiscordNotifier struct {
	webhookURL string
	username   string
	avatarURL  string
	client     *http.Client
}

// NewDiscord cria um notificador de webhook do Discord
func NewDiscord(webhookURL, username, avatarURL string) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		username:   username,
		avatarURL:  avatarURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Kind retorna o tipo do destino
func (n *DiscordNotifier) Kind() Kind {
	return KindDiscord
}

type discordPayload struct {
	Content   string `json:"content"`
	Flags     int    `json:"flags"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Send entrega cada payload do digest como uma mensagem do webhook
func (n *DiscordNotifier) Send(ctx context.Context, d Digest) error {
	for _, content := range Payloads(d, KindDiscord) {
		if err := n.post(ctx, content); err != nil {
			return err
		}
	}
	return nil
}

func (n *DiscordNotifier) post(ctx context.Context, content string) error {
	payload := discordPayload{
		Content: content,
		Flags:   4, // SUPPRESS_EMBEDS
	}
	payload.Username = n.username
	payload.AvatarURL = n.avatarURL

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "erro ao codificar payload do Discord")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "erro ao montar requisição do Discord")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.Wrapf(ErrDeliveryFailure, "webhook do Discord: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return errors.Wrapf(ErrDeliveryFailure, "webhook do Discord retornou %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
