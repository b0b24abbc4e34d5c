package notify

import (
	"fmt"
	"strings"
	"time"

	"bot-estoque/internal/identity"
	"bot-estoque/internal/models"
)

// Entry é uma linha do digest, já com nome de exibição e URL curta resolvidos
type Entry struct {
	Code string
	URL  string
	Name string
}

// Digest agrupa os eventos de uma passada em seções prontas para renderizar
type Digest struct {
	NewItems     []Entry
	Restocked    []Entry
	Total        int
	RestockHours int
}

// BuildDigest monta o digest a partir dos eventos de uma passada.
// total é a contagem de itens atualmente listados na loja.
func BuildDigest(events []models.Event, total int, restockWindow time.Duration) Digest {
	d := Digest{
		Total:        total,
		RestockHours: int(restockWindow.Hours()),
	}
	for _, ev := range events {
		entry := Entry{
			Code: ev.Code,
			URL:  identity.ShortProductURL(ev.URL, ev.Code),
			Name: ev.Name,
		}
		if entry.Name == "" {
			entry.Name = identity.PrettyNameFromURL(ev.URL)
		}
		if entry.Name == "" {
			entry.Name = ev.Code
		}
		switch ev.Kind {
		case models.EventNew:
			d.NewItems = append(d.NewItems, entry)
		case models.EventRestock:
			d.Restocked = append(d.Restocked, entry)
		}
	}
	return d
}

// Empty indica que não há nada a notificar
func (d Digest) Empty() bool {
	return len(d.NewItems) == 0 && len(d.Restocked) == 0
}

// Subject monta a linha de assunto do digest
func (d Digest) Subject() string {
	var bits []string
	if len(d.NewItems) > 0 {
		bits = append(bits, fmt.Sprintf("%d novos", len(d.NewItems)))
	}
	if len(d.Restocked) > 0 {
		bits = append(bits, fmt.Sprintf("%d reabastecidos", len(d.Restocked)))
	}
	summary := "Sem mudanças"
	if len(bits) > 0 {
		summary = strings.Join(bits, " e ")
	}
	return fmt.Sprintf("[Vigia da Loja] %s (agora %d no total)", summary, d.Total)
}

// TextLines renderiza o digest como linhas de texto com links em markdown.
// As URLs vão entre <> para suprimir a prévia automática do Discord.
func (d Digest) TextLines() []string {
	var lines []string
	if len(d.NewItems) > 0 {
		lines = append(lines, fmt.Sprintf("Itens novos (%d):", len(d.NewItems)))
		for _, e := range d.NewItems {
			lines = append(lines, "- "+maskedLink(e.Name, e.URL))
		}
		lines = append(lines, "")
	}
	if len(d.Restocked) > 0 {
		lines = append(lines, fmt.Sprintf("Reabastecidos (ausentes ≥%dh) (%d):", d.RestockHours, len(d.Restocked)))
		for _, e := range d.Restocked {
			lines = append(lines, "- "+maskedLink(e.Name, e.URL))
		}
		lines = append(lines, "")
	}
	lines = append(lines, fmt.Sprintf("Total de itens agora: %d", d.Total))
	return lines
}

// HTML renderiza o digest como corpo de e-mail
func (d Digest) HTML() string {
	var b strings.Builder
	if len(d.NewItems) > 0 {
		fmt.Fprintf(&b, "<p><strong>Itens novos (%d):</strong></p><ul>\n", len(d.NewItems))
		for _, e := range d.NewItems {
			fmt.Fprintf(&b, "<li><a href=%q>%s</a></li>\n", e.URL, escapeHTML(e.Name))
		}
		b.WriteString("</ul>\n")
	}
	if len(d.Restocked) > 0 {
		fmt.Fprintf(&b, "<p><strong>Reabastecidos (ausentes ≥%dh) (%d):</strong></p><ul>\n", d.RestockHours, len(d.Restocked))
		for _, e := range d.Restocked {
			fmt.Fprintf(&b, "<li><a href=%q>%s</a></li>\n", e.URL, escapeHTML(e.Name))
		}
		b.WriteString("</ul>\n")
	}
	fmt.Fprintf(&b, "<p>Total de itens agora: %d</p>", d.Total)
	return b.String()
}

// Payloads renderiza o digest e divide o texto nos limites do destino.
// Zero eventos produzem zero payloads; nenhuma linha é quebrada no meio.
func Payloads(d Digest, kind Kind) []string {
	if d.Empty() {
		return nil
	}
	lines := d.TextLines()
	limit := kind.Limit()
	if limit <= 0 {
		return []string{strings.Join(lines, "\n")}
	}
	return Chunk(lines, limit)
}

// Chunk agrupa linhas em payloads de até limit caracteres, sem nunca quebrar
// uma linha no meio e preservando a ordem. Uma linha maior que o limite vira
// um payload sozinha.
func Chunk(lines []string, limit int) []string {
	var payloads []string
	var buf []string
	cur := 0
	for _, line := range lines {
		add := len(line) + 1 // +1 pela quebra de linha
		if cur+add > limit && len(buf) > 0 {
			payloads = append(payloads, strings.Join(buf, "\n"))
			buf = buf[:0]
			cur = 0
		}
		buf = append(buf, line)
		cur += add
	}
	if len(buf) > 0 {
		payloads = append(payloads, strings.Join(buf, "\n"))
	}
	return payloads
}

var mdEscaper = strings.NewReplacer(
	"[", `\[`,
	"]", `\]`,
	"(", `\(`,
	")", `\)`,
)

// maskedLink monta um link markdown com a URL entre <> (sem prévia no Discord)
func maskedLink(name, url string) string {
	return fmt.Sprintf("[%s](<%s>)", mdEscaper.Replace(name), url)
}

func escapeHTML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	return text
}
