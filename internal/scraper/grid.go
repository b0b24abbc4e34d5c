package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"bot-estoque/internal/identity"
	"bot-estoque/internal/models"
)

// Links de produto em grades SFCC terminam em "...-<código>.html"
var productLinkRe = regexp.MustCompile(`(?i)/[^/]+\.html(?:\?|$)`)

// GridScraper lê grades de produtos renderizadas no servidor (estilo SFCC,
// ex.: endpoints Search-UpdateGrid) e extrai as observações da listagem.
type GridScraper struct {
	client     *http.Client
	filter     *Filter
	maxRetries uint64
	retryBase  time.Duration
}

// NewGridScraper cria uma nova instância do scraper de grade
func NewGridScraper(filter *Filter) *GridScraper {
	return &GridScraper{
		filter:     filter,
		maxRetries: 4,
		retryBase:  time.Second,
	}
}

func (g *GridScraper) getClient() *http.Client {
	if g.client == nil {
		g.client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	return g.client
}

// CanHandle verifica se o scraper pode lidar com a URL fornecida
func (g *GridScraper) CanHandle(url string) bool {
	return strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://")
}

// Fetch busca a página de listagem com retry e devolve as observações.
// Erros de transporte/HTTP e respostas sem conteúdo HTML viram ErrFetchFailure;
// uma página válida sem nenhum link de produto devolve lista vazia sem erro.
func (g *GridScraper) Fetch(ctx context.Context, pageURL string) ([]models.Observation, error) {
	op := func() (*goquery.Document, error) {
		return g.fetchDocument(ctx, pageURL)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.retryBase

	doc, err := backoff.RetryWithData(op, backoff.WithContext(backoff.WithMaxRetries(bo, g.maxRetries), ctx))
	if err != nil {
		return nil, errors.Wrapf(ErrFetchFailure, "%s: %v", pageURL, err)
	}

	if doc.Find("a").Length() == 0 {
		// Resposta vazia ou não-HTML; diferente de uma grade sem produtos
		return nil, errors.Wrapf(ErrFetchFailure, "%s: resposta sem conteúdo HTML", pageURL)
	}

	return g.parseGrid(doc, pageURL), nil
}

func (g *GridScraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := g.getClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("status code: %d", resp.StatusCode)
		// 429 e 5xx valem retry; o resto é permanente
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return doc, nil
}

func (g *GridScraper) parseGrid(doc *goquery.Document, pageURL string) []models.Observation {
	base, _ := url.Parse(pageURL)

	seen := make(map[string]bool)
	var out []models.Observation
	skipped := 0

	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href := sel.AttrOr("href", "")
		if href == "" {
			return
		}
		abs := resolveHref(base, href)
		if !productLinkRe.MatchString(abs) {
			return
		}

		canonical, code, err := identity.Resolve(abs)
		if err != nil {
			// Link de produto sem código extraível: pula só este item
			skipped++
			return
		}
		if !g.filter.Match(canonical) {
			return
		}
		if seen[code] {
			return
		}
		seen[code] = true

		name := strings.TrimSpace(sel.AttrOr("title", ""))
		if name == "" {
			name = strings.TrimSpace(sel.Text())
		}

		out = append(out, models.Observation{
			Code: code,
			URL:  canonical,
			Name: name,
		})
	})

	if skipped > 0 {
		log.WithFields(log.Fields{"ignorados": skipped, "url": pageURL}).Warn("Links de produto sem código foram ignorados")
	}
	return out
}

func resolveHref(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
