package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config contém as configurações da aplicação, construídas uma única vez na
// inicialização a partir das variáveis de ambiente.
type Config struct {
	TargetURL          string `envconfig:"TARGET_URL"`
	CheckEvery         int    `envconfig:"CHECK_EVERY" default:"300"`
	RestockWindowHours int    `envconfig:"RESTOCK_WINDOW_HOURS" default:"24"`

	// Filtros opcionais aplicados às URLs observadas antes do diff
	IncludeRe string `envconfig:"INCLUDE_RE"`
	ExcludeRe string `envconfig:"EXCLUDE_RE"`

	StateBackend string `envconfig:"STATE_BACKEND" default:"sqlite"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"./items.db"`
	StateFile    string `envconfig:"STATE_FILE" default:"seen_items.json"`

	DiscordWebhookURL string `envconfig:"DISCORD_WEBHOOK_URL"`
	DiscordUsername   string `envconfig:"DISCORD_USERNAME"`
	DiscordAvatarURL  string `envconfig:"DISCORD_AVATAR_URL"`

	SMTPHost  string `envconfig:"SMTP_HOST"`
	SMTPPort  int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser  string `envconfig:"SMTP_USER"`
	SMTPPass  string `envconfig:"SMTP_PASS"`
	EmailFrom string `envconfig:"EMAIL_FROM"`
	EmailTo   string `envconfig:"EMAIL_TO"`

	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

// Load carrega as configurações das variáveis de ambiente
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "erro ao carregar configurações")
	}
	if cfg.EmailFrom == "" {
		cfg.EmailFrom = cfg.SMTPUser
	}
	return &cfg, nil
}

// Validate confere os campos obrigatórios para rodar o watcher
func (c *Config) Validate() error {
	if c.TargetURL == "" {
		return errors.New("TARGET_URL não configurado. Defina no .env ou passe --url")
	}
	if c.CheckEvery <= 0 {
		return errors.New("CHECK_EVERY deve ser maior que zero")
	}
	if c.RestockWindowHours < 0 {
		return errors.New("RESTOCK_WINDOW_HOURS não pode ser negativo")
	}
	return nil
}

// CheckInterval retorna o intervalo entre passadas
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckEvery) * time.Second
}

// RestockWindow retorna a janela mínima de ausência para alertar reabastecimento
func (c *Config) RestockWindow() time.Duration {
	return time.Duration(c.RestockWindowHours) * time.Hour
}
