package scraper

import (
	"context"
	"regexp"

	"github.com/pkg/errors"

	"bot-estoque/internal/models"
)

// ErrFetchFailure indica erro de rede/HTTP ou resposta malformada.
// Nunca é usado para uma página válida que simplesmente não lista itens:
// esse caso retorna uma lista vazia sem erro.
var ErrFetchFailure = errors.New("falha ao buscar a página de listagem")

// Scraper define a interface para adaptadores de listagem de lojas
type Scraper interface {
	CanHandle(url string) bool
	Fetch(ctx context.Context, url string) ([]models.Observation, error)
}

// Filter aplica os regex de inclusão/exclusão às URLs canônicas observadas
type Filter struct {
	include *regexp.Regexp
	exclude *regexp.Regexp
}

// NewFilter compila os padrões de filtro (strings vazias desativam o filtro)
func NewFilter(includeRe, excludeRe string) (*Filter, error) {
	f := &Filter{}
	var err error
	if includeRe != "" {
		if f.include, err = regexp.Compile(includeRe); err != nil {
			return nil, errors.Wrap(err, "INCLUDE_RE inválido")
		}
	}
	if excludeRe != "" {
		if f.exclude, err = regexp.Compile(excludeRe); err != nil {
			return nil, errors.Wrap(err, "EXCLUDE_RE inválido")
		}
	}
	return f, nil
}

// Match decide se a URL canônica passa pelos filtros
func (f *Filter) Match(canonical string) bool {
	if f == nil {
		return true
	}
	if f.include != nil && !f.include.MatchString(canonical) {
		return false
	}
	if f.exclude != nil && f.exclude.MatchString(canonical) {
		return false
	}
	return true
}

// Registry mantém um registro de todos os scrapers disponíveis
type Registry struct {
	scrapers []Scraper
}

// NewRegistry cria o registro com os scrapers padrão
func NewRegistry(filter *Filter) *Registry {
	return &Registry{
		scrapers: []Scraper{
			NewGridScraper(filter),
		},
	}
}

// NewRegistryWith cria um registro com scrapers específicos
func NewRegistryWith(scrapers ...Scraper) *Registry {
	return &Registry{scrapers: scrapers}
}

// FindScraper encontra o scraper apropriado para uma URL
func (r *Registry) FindScraper(url string) Scraper {
	for _, scraper := range r.scrapers {
		if scraper.CanHandle(url) {
			return scraper
		}
	}
	return nil
}
