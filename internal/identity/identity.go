package identity

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidIdentity indica que não foi possível extrair um código de produto da URL
var ErrInvalidIdentity = errors.New("não foi possível extrair o código do produto")

var (
	codeRe       = regexp.MustCompile(`(?i)/([^/]+)\.html$`)
	digitsRe     = regexp.MustCompile(`\d{6,}`)
	multiSlashRe = regexp.MustCompile(`/{2,}`)
)

// Palavras que ficam em minúsculas no meio de um título
var minorWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "but": true,
	"by": true, "for": true, "from": true, "in": true, "into": true, "of": true,
	"on": true, "or": true, "the": true, "to": true, "with": true,
	"without": true, "over": true, "under": true,
}

// Canonicalize normaliza uma URL de produto: força https, host em minúsculas
// sem "www.", remove query string e fragmento e colapsa barras repetidas.
// Duas URLs que diferem apenas em query string ou caixa canonicalizam igual.
func Canonicalize(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(raw)
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")

	path := multiSlashRe.ReplaceAllString(u.EscapedPath(), "/")
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}

	return "https://" + host + path
}

// ExtractCode extrai o código numérico de produto de uma URL canônica.
// O padrão esperado é um segmento final "...-<dígitos>.html"; quando o slug
// contém mais de uma sequência numérica, a última é o código.
func ExtractCode(canonical string) (string, error) {
	m := codeRe.FindStringSubmatch(canonical)
	if m == nil {
		return "", errors.Wrapf(ErrInvalidIdentity, "url %s", canonical)
	}

	codes := digitsRe.FindAllString(m[1], -1)
	if len(codes) == 0 {
		return "", errors.Wrapf(ErrInvalidIdentity, "url %s", canonical)
	}
	return codes[len(codes)-1], nil
}

// Resolve canonicaliza a URL bruta e extrai o código do produto
func Resolve(raw string) (canonical, code string, err error) {
	canonical = Canonicalize(raw)
	code, err = ExtractCode(canonical)
	if err != nil {
		return "", "", err
	}
	return canonical, code, nil
}

// PrettyNameFromURL monta um nome legível a partir do slug da URL.
// Ex.: ".../anniversary-pin-display-frame-limited-edition-438018657693.html"
// vira "Anniversary Pin Display Frame Limited Edition".
func PrettyNameFromURL(canonical string) string {
	m := codeRe.FindStringSubmatch(canonical)
	if m == nil {
		return canonical
	}
	return slugToTitle(m[1])
}

func slugToTitle(slug string) string {
	parts := strings.Split(slug, "-")

	// Descartar os tokens numéricos finais (o código do produto)
	var trimmed []string
	for _, token := range parts {
		if len(token) >= 6 && isAllDigits(token) {
			break
		}
		if token != "" {
			trimmed = append(trimmed, token)
		}
	}
	if len(trimmed) == 0 {
		return slug
	}

	titled := make([]string, 0, len(trimmed))
	for i, w := range trimmed {
		base := strings.ReplaceAll(w, "_", " ")
		upper := strings.ToUpper(base)
		switch {
		case upper == "D23" || upper == "WDW" || upper == "WDI":
			titled = append(titled, upper)
		case isAllDigits(base):
			titled = append(titled, base)
		case i != 0 && i != len(trimmed)-1 && minorWords[strings.ToLower(base)]:
			titled = append(titled, strings.ToLower(base))
		default:
			titled = append(titled, capitalize(base))
		}
	}
	return strings.Join(titled, " ")
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// ShortProductURL monta a URL mais curta possível para o produto quando o
// caminho segue o padrão "...-<código>.html"; caso contrário devolve a canônica.
func ShortProductURL(canonical, code string) string {
	if code == "" || !isAllDigits(code) {
		return canonical
	}
	u, err := url.Parse(canonical)
	if err != nil || u.Host == "" {
		return canonical
	}
	if !strings.HasSuffix(strings.ToLower(u.Path), fmt.Sprintf("-%s.html", code)) {
		return canonical
	}
	return fmt.Sprintf("https://www.%s/%s.html", u.Host, code)
}
