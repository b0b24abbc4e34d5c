package diff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bot-estoque/internal/models"
)

const window = 24 * time.Hour

func obs(code, url, name string) models.Observation {
	return models.Observation{Code: code, URL: url, Name: name}
}

func TestItemNovo(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	next, events := Diff(models.Snapshot{}, []models.Observation{
		obs("438039197642", "https://loja.com/animal-pin-438039197642.html", "Animal Pin"),
	}, now, window)

	require.Len(t, events, 1)
	assert.Equal(t, models.EventNew, events[0].Kind)
	assert.Equal(t, "438039197642", events[0].Code)

	item := next["438039197642"]
	require.NotNil(t, item)
	assert.Equal(t, models.StatusPresent, item.Status)
	assert.Equal(t, now, item.FirstSeen)
	assert.Equal(t, now, item.StatusSince)
}

func TestDiffIdempotente(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	observed := []models.Observation{
		obs("111111", "https://loja.com/a-111111.html", "A"),
		obs("222222", "https://loja.com/b-222222.html", "B"),
	}

	first, events := Diff(models.Snapshot{}, observed, now, window)
	require.Len(t, events, 2)

	// Rodar de novo com o mesmo conjunto e o mesmo now não gera nada
	second, events := Diff(first, observed, now, window)
	assert.Empty(t, events)
	assert.Equal(t, first, second)
}

func TestAusenciaSilenciosa(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	prev, _ := Diff(models.Snapshot{}, []models.Observation{
		obs("111111", "https://loja.com/a-111111.html", "A"),
	}, now.Add(-time.Hour), window)

	next, events := Diff(prev, nil, now, window)

	assert.Empty(t, events)
	item := next["111111"]
	require.NotNil(t, item)
	assert.Equal(t, models.StatusAbsent, item.Status)
	assert.Equal(t, now, item.StatusSince)
}

func TestJanelaDeReabastecimento(t *testing.T) {
	absentSince := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	prev := models.Snapshot{
		"111111": &models.Item{
			Code:        "111111",
			URL:         "https://loja.com/a-111111.html",
			FirstSeen:   absentSince.Add(-48 * time.Hour),
			Status:      models.StatusAbsent,
			StatusSince: absentSince,
		},
	}
	observed := []models.Observation{obs("111111", "https://loja.com/a-111111.html", "A")}

	t.Run("um segundo antes da janela: sem evento, status vira presente", func(t *testing.T) {
		now := absentSince.Add(window - time.Second)
		next, events := Diff(prev, observed, now, window)

		assert.Empty(t, events)
		item := next["111111"]
		assert.Equal(t, models.StatusPresent, item.Status)
		assert.Equal(t, now, item.StatusSince)
	})

	t.Run("exatamente na janela: evento de reabastecimento", func(t *testing.T) {
		now := absentSince.Add(window)
		next, events := Diff(prev, observed, now, window)

		require.Len(t, events, 1)
		assert.Equal(t, models.EventRestock, events[0].Kind)
		assert.Equal(t, "111111", events[0].Code)
		assert.Equal(t, models.StatusPresent, next["111111"].Status)
	})
}

func TestCopyOnWrite(t *testing.T) {
	absentSince := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	prev := models.Snapshot{
		"111111": &models.Item{
			Code:        "111111",
			URL:         "https://loja.com/a-111111.html",
			FirstSeen:   absentSince,
			Status:      models.StatusAbsent,
			StatusSince: absentSince,
		},
	}

	now := absentSince.Add(48 * time.Hour)
	_, _ = Diff(prev, []models.Observation{obs("111111", "https://loja.com/a-111111.html", "A")}, now, window)

	// O snapshot de entrada não pode ser modificado
	assert.Equal(t, models.StatusAbsent, prev["111111"].Status)
	assert.Equal(t, absentSince, prev["111111"].StatusSince)
	assert.Empty(t, prev["111111"].Name)
}

func TestAtualizaURLENome(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	prev, _ := Diff(models.Snapshot{}, []models.Observation{
		obs("111111", "https://loja.com/a-111111.html", ""),
	}, now.Add(-time.Hour), window)

	next, events := Diff(prev, []models.Observation{
		obs("111111", "https://loja.com/a-renomeado-111111.html", "Nome Novo"),
	}, now, window)

	assert.Empty(t, events)
	item := next["111111"]
	assert.Equal(t, "https://loja.com/a-renomeado-111111.html", item.URL)
	assert.Equal(t, "Nome Novo", item.Name)
	// Item já presente não muda status nem timestamp
	assert.Equal(t, models.StatusPresent, item.Status)
	assert.Equal(t, now.Add(-time.Hour), item.StatusSince)
}

func TestOrdemDosEventos(t *testing.T) {
	absentSince := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	now := absentSince.Add(48 * time.Hour)

	prev := models.Snapshot{
		"555555": &models.Item{
			Code:        "555555",
			URL:         "https://loja.com/e-555555.html",
			FirstSeen:   absentSince,
			Status:      models.StatusAbsent,
			StatusSince: absentSince,
		},
	}

	// Reabastecido observado antes dos novos; mesmo assim NEW vem primeiro
	next, events := Diff(prev, []models.Observation{
		obs("555555", "https://loja.com/e-555555.html", "E"),
		obs("111111", "https://loja.com/a-111111.html", "A"),
		obs("222222", "https://loja.com/b-222222.html", "B"),
	}, now, window)

	require.Len(t, events, 3)
	assert.Equal(t, models.EventNew, events[0].Kind)
	assert.Equal(t, "111111", events[0].Code)
	assert.Equal(t, models.EventNew, events[1].Kind)
	assert.Equal(t, "222222", events[1].Code)
	assert.Equal(t, models.EventRestock, events[2].Kind)
	assert.Equal(t, "555555", events[2].Code)
	assert.Len(t, next, 3)
}

func TestObservacaoDuplicada(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	next, events := Diff(models.Snapshot{}, []models.Observation{
		obs("111111", "https://loja.com/a-111111.html", ""),
		obs("111111", "https://loja.com/a-111111.html", "Nome Melhor"),
	}, now, window)

	// Uma duplicata não gera segundo evento, só atualiza o nome
	require.Len(t, events, 1)
	assert.Equal(t, models.EventNew, events[0].Kind)
	assert.Equal(t, "Nome Melhor", next["111111"].Name)
}

func TestListagemVaziaMarcaTudoAusente(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	prev, _ := Diff(models.Snapshot{}, []models.Observation{
		obs("111111", "https://loja.com/a-111111.html", "A"),
		obs("222222", "https://loja.com/b-222222.html", "B"),
	}, now.Add(-time.Hour), window)

	next, events := Diff(prev, []models.Observation{}, now, window)

	assert.Empty(t, events)
	for _, item := range next {
		assert.Equal(t, models.StatusAbsent, item.Status)
	}
}
