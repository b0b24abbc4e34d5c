package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"bot-estoque/config"
	"bot-estoque/internal/monitor"
	"bot-estoque/internal/notify"
	"bot-estoque/internal/scraper"
	"bot-estoque/internal/store"
)

const (
	exitRunFailure  = 1
	exitConfigError = 2
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	app := &cli.App{
		Name:  "bot-estoque",
		Usage: "observa páginas de listagem e alerta sobre itens novos ou reabastecidos",
		Before: func(c *cli.Context) error {
			if err := godotenv.Load(); err != nil {
				log.Info("Arquivo .env não encontrado, usando variáveis de ambiente do sistema")
			}
			return nil
		},
		Commands: []*cli.Command{
			watchCommand(),
			stateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error(err)
		os.Exit(exitRunFailure)
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "roda o loop de vigilância (ou uma única passada com --once)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "sobrescreve a URL alvo (senão TARGET_URL do .env)"},
			&cli.IntFlag{Name: "every", Aliases: []string{"e"}, Usage: "intervalo entre passadas em segundos"},
			&cli.IntFlag{Name: "restock", Aliases: []string{"r"}, Usage: "janela de reabastecimento em horas"},
			&cli.StringFlag{Name: "include", Usage: "regex para incluir URLs"},
			&cli.StringFlag{Name: "exclude", Usage: "regex para excluir URLs"},
			&cli.BoolFlag{Name: "once", Usage: "executa uma única passada e sai"},
		},
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	if c.IsSet("url") {
		cfg.TargetURL = c.String("url")
	}
	if c.IsSet("every") {
		cfg.CheckEvery = c.Int("every")
	}
	if c.IsSet("restock") {
		cfg.RestockWindowHours = c.Int("restock")
	}
	if c.IsSet("include") {
		cfg.IncludeRe = c.String("include")
	}
	if c.IsSet("exclude") {
		cfg.ExcludeRe = c.String("exclude")
	}

	if err := cfg.Validate(); err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	filter, err := scraper.NewFilter(cfg.IncludeRe, cfg.ExcludeRe)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	st, err := store.New(cfg.StateBackend, cfg.DatabasePath, cfg.StateFile)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	defer st.Close()

	notifiers, err := notify.BuildFromConfig(cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	if len(notifiers) == 0 {
		log.Warn("Nenhum notificador configurado (defina SMTP_*, DISCORD_WEBHOOK_URL ou TELEGRAM_*); rodando em modo apenas-log")
	}

	mon := monitor.New(st, scraper.NewRegistry(filter), notifiers, cfg.TargetURL, cfg.CheckInterval(), cfg.RestockWindow())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.Bool("once") {
		if err := mon.RunOnce(ctx); err != nil {
			if errors.Is(err, store.ErrUnsupportedSchema) {
				return cli.Exit(err.Error(), exitConfigError)
			}
			return cli.Exit(err.Error(), exitRunFailure)
		}
		return nil
	}

	if err := mon.Start(ctx); err != nil {
		// Só erro de schema interrompe o loop
		return cli.Exit(err.Error(), exitConfigError)
	}
	return nil
}

func stateCommand() *cli.Command {
	return &cli.Command{
		Name:  "state",
		Usage: "inspeciona ou limpa o estado persistido",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "mostra um resumo do snapshot atual",
				Action: runStateShow,
			},
			{
				Name:   "clear",
				Usage:  "apaga todo o estado persistido (ação destrutiva)",
				Action: runStateClear,
			},
		},
	}
}

func openStore() (store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return store.New(cfg.StateBackend, cfg.DatabasePath, cfg.StateFile)
}

func runStateShow(c *cli.Context) error {
	st, err := openStore()
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	defer st.Close()

	snap, err := st.Load()
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}

	fmt.Printf("Itens: %d (%d presentes)\n", len(snap), snap.CountPresent())

	codes := make([]string, 0, len(snap))
	for code := range snap {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	const maxShown = 20
	for i, code := range codes {
		if i == maxShown {
			fmt.Printf("... (mais %d)\n", len(codes)-maxShown)
			break
		}
		item := snap[code]
		fmt.Printf("- %s: status=%d desde=%s url=%s\n", code, int(item.Status), item.StatusSince.Format("2006-01-02 15:04:05"), item.URL)
	}
	return nil
}

func runStateClear(c *cli.Context) error {
	st, err := openStore()
	if err != nil {
		return cli.Exit(err.Error(), exitConfigError)
	}
	defer st.Close()

	if err := st.Clear(); err != nil {
		return cli.Exit(err.Error(), exitRunFailure)
	}
	fmt.Println("Estado limpo.")
	return nil
}
