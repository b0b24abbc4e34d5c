package diff

import (
	"time"

	"bot-estoque/internal/models"
)

// Diff compara o snapshot anterior com o conjunto observado na passada atual e
// devolve o próximo snapshot junto com os eventos de alerta.
//
// Regras:
//   - código nunca visto: cria o registro presente e emite evento NEW;
//   - código ausente que reaparece: emite RESTOCK apenas se ficou ausente por
//     pelo menos restockWindow; antes disso o status vira presente em silêncio;
//   - código já presente: apenas atualiza url/nome;
//   - código presente que some da listagem: vira ausente, sem evento.
//
// Os argumentos não são modificados; o snapshot retornado é uma cópia.
// Eventos NEW vêm antes dos RESTOCK, cada grupo na ordem de observação.
func Diff(prev models.Snapshot, observed []models.Observation, now time.Time, restockWindow time.Duration) (models.Snapshot, []models.Event) {
	next := prev.Clone()

	seen := make(map[string]bool, len(observed))
	var newEvents, restockEvents []models.Event

	for _, obs := range observed {
		if obs.Code == "" {
			continue
		}
		first := !seen[obs.Code]
		seen[obs.Code] = true

		item, known := next[obs.Code]
		if !known {
			item = &models.Item{
				Code:        obs.Code,
				URL:         obs.URL,
				Name:        obs.Name,
				FirstSeen:   now,
				Status:      models.StatusPresent,
				StatusSince: now,
			}
			next[obs.Code] = item
			newEvents = append(newEvents, eventFor(models.EventNew, item))
			continue
		}

		// Atualização latest-wins de url e nome
		if obs.URL != "" {
			item.URL = obs.URL
		}
		if obs.Name != "" {
			item.Name = obs.Name
		}

		if item.Status == models.StatusAbsent && first {
			if now.Sub(item.StatusSince) >= restockWindow {
				restockEvents = append(restockEvents, eventFor(models.EventRestock, item))
			}
			item.Status = models.StatusPresent
			item.StatusSince = now
		}
	}

	// Quem sumiu da listagem vira ausente, sem evento
	for code, item := range next {
		if !seen[code] && item.Status == models.StatusPresent {
			item.Status = models.StatusAbsent
			item.StatusSince = now
		}
	}

	return next, append(newEvents, restockEvents...)
}

func eventFor(kind models.EventKind, item *models.Item) models.Event {
	return models.Event{
		Kind: kind,
		Code: item.Code,
		URL:  item.URL,
		Name: item.Name,
	}
}
