package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"bot-estoque/internal/diff"
	"bot-estoque/internal/models"
	"bot-estoque/internal/notify"
	"bot-estoque/internal/scraper"
	"bot-estoque/internal/store"
)

// Monitor coordena o ciclo de vigilância: busca a listagem, roda o diff,
// persiste o snapshot e só então notifica. Uma passada é a unidade de
// trabalho tanto do modo contínuo quanto do modo de execução única.
type Monitor struct {
	store         store.Store
	registry      *scraper.Registry
	notifiers     []notify.Notifier
	targetURL     string
	interval      time.Duration
	restockWindow time.Duration
}

// New cria uma nova instância do monitor
func New(st store.Store, registry *scraper.Registry, notifiers []notify.Notifier, targetURL string, interval, restockWindow time.Duration) *Monitor {
	return &Monitor{
		store:         st,
		registry:      registry,
		notifiers:     notifiers,
		targetURL:     targetURL,
		interval:      interval,
		restockWindow: restockWindow,
	}
}

// Start roda passadas em sequência até o contexto ser cancelado.
// A parada é sempre entre passadas, nunca no meio de uma. Erros de busca e
// de entrega são registrados e a próxima passada tenta de novo; um schema de
// estado não suportado é fatal e interrompe o loop.
func (m *Monitor) Start(ctx context.Context) error {
	log.WithFields(log.Fields{
		"url":       m.targetURL,
		"intervalo": m.interval,
		"janela":    m.restockWindow,
	}).Info("Monitor iniciado")

	// Verificar imediatamente na primeira execução
	if err := m.RunOnce(ctx); err != nil {
		if errors.Is(err, store.ErrUnsupportedSchema) {
			return err
		}
		log.WithError(err).Warn("Passada falhou; tentando de novo no próximo ciclo")
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Encerrando monitor")
			return nil
		case <-ticker.C:
			if err := m.RunOnce(ctx); err != nil {
				if errors.Is(err, store.ErrUnsupportedSchema) {
					return err
				}
				log.WithError(err).Warn("Passada falhou; tentando de novo no próximo ciclo")
			}
		}
	}
}

// RunOnce executa exatamente uma passada: busca → diff → persiste → notifica.
// Uma falha de busca aborta a passada antes do diff e deixa o snapshot
// intocado. A persistência acontece antes da notificação, então uma queda
// depois do save nunca reemite eventos já entregues na próxima passada.
func (m *Monitor) RunOnce(ctx context.Context) error {
	passLog := log.WithField("pass_id", uuid.NewString())

	sc := m.registry.FindScraper(m.targetURL)
	if sc == nil {
		return errors.Wrapf(scraper.ErrFetchFailure, "nenhum scraper encontrado para URL: %s", m.targetURL)
	}

	observed, err := sc.Fetch(ctx, m.targetURL)
	if err != nil {
		return err
	}

	prev, err := m.store.Load()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	next, events := diff.Diff(prev, observed, now, m.restockWindow)

	// Persistir antes de notificar
	if err := m.store.Save(next); err != nil {
		return err
	}

	newCount, restockCount := countEvents(events)
	passLog.WithFields(log.Fields{
		"atuais":        len(observed),
		"novos":         newCount,
		"reabastecidos": restockCount,
		"conhecidos":    len(next),
	}).Info("Passada concluída")

	if len(events) == 0 {
		return nil
	}

	digest := notify.BuildDigest(events, len(observed), m.restockWindow)
	delivered := true
	for _, n := range m.notifiers {
		if err := n.Send(ctx, digest); err != nil {
			// Alerta perdido; o snapshot já foi persistido e não é refeito
			passLog.WithError(err).WithField("destino", n.Kind()).Warn("Falha ao entregar notificação")
			delivered = false
		}
	}
	if !delivered {
		return errors.WithMessage(notify.ErrDeliveryFailure, "uma ou mais entregas falharam")
	}
	return nil
}

func countEvents(events []models.Event) (newCount, restockCount int) {
	for _, ev := range events {
		if ev.Kind == models.EventNew {
			newCount++
		} else {
			restockCount++
		}
	}
	return
}
