package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"bot-estoque/internal/identity"
	"bot-estoque/internal/models"
)

// Versão atual do arquivo de estado. Formatos legados aceitos:
// v0 = lista de URLs, v1 = dicionário sem envelope de versão.
const jsonSchemaVersion = 2

// JSONFileStore persiste o snapshot em um único arquivo JSON.
// A escrita é atômica: grava num arquivo temporário e renomeia por cima.
type JSONFileStore struct {
	path string
}

// NewJSONFile cria um store baseado em arquivo JSON
func NewJSONFile(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

type jsonItem struct {
	URL         string    `json:"url"`
	Name        string    `json:"name,omitempty"`
	FirstSeen   time.Time `json:"first_seen"`
	Status      int       `json:"status"`
	StatusSince time.Time `json:"status_since"`
}

type jsonEnvelope struct {
	SchemaVersion int                 `json:"schema_version"`
	Items         map[string]jsonItem `json:"items"`
}

// Load lê o snapshot do disco, migrando formatos legados quando necessário
func (s *JSONFileStore) Load() (models.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(models.Snapshot), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "erro ao ler arquivo de estado")
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(models.Snapshot), nil
	}

	// Formato legado v0: lista simples de URLs
	if trimmed[0] == '[' {
		return s.migrateFromList(trimmed)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, errors.Wrap(err, "erro ao decodificar arquivo de estado")
	}

	rawVersion, ok := probe["schema_version"]
	if !ok {
		// Formato legado v1: dicionário sem envelope
		return s.migrateFromDict(probe)
	}

	var version int
	if err := json.Unmarshal(rawVersion, &version); err != nil {
		return nil, errors.Wrap(err, "erro ao decodificar versão do schema")
	}
	if version > jsonSchemaVersion {
		return nil, errors.Wrapf(ErrUnsupportedSchema, "versão %d (binário suporta até %d)", version, jsonSchemaVersion)
	}

	var env jsonEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, errors.Wrap(err, "erro ao decodificar arquivo de estado")
	}

	snap := make(models.Snapshot, len(env.Items))
	for code, it := range env.Items {
		snap[code] = &models.Item{
			Code:        code,
			URL:         it.URL,
			Name:        it.Name,
			FirstSeen:   it.FirstSeen,
			Status:      models.Status(it.Status),
			StatusSince: it.StatusSince,
		}
	}
	return snap, nil
}

// migrateFromList converte o formato v0 (lista de URLs) para o atual
func (s *JSONFileStore) migrateFromList(data []byte) (models.Snapshot, error) {
	log.Info("Migrando estado legado (lista de URLs) para o formato atual")

	var urls []string
	if err := json.Unmarshal(data, &urls); err != nil {
		return nil, errors.Wrap(err, "erro ao decodificar lista legada")
	}

	now := time.Now().UTC()
	snap := make(models.Snapshot)
	for _, raw := range urls {
		canonical, code, err := identity.Resolve(raw)
		if err != nil {
			continue
		}
		if _, exists := snap[code]; exists {
			continue
		}
		snap[code] = &models.Item{
			Code:        code,
			URL:         canonical,
			FirstSeen:   now,
			Status:      models.StatusPresent,
			StatusSince: now,
		}
	}
	return snap, nil
}

type legacyEntry struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	FirstSeen   string `json:"first_seen"`
	LastSeen    string `json:"last_seen"`
	Status      *int   `json:"status"`
	StatusSince string `json:"status_since"`
}

// migrateFromDict converte o formato v1 (dicionário por código ou URL, com o
// modelo status/status_since ou o modelo first_seen/last_seen) para o atual
func (s *JSONFileStore) migrateFromDict(raw map[string]json.RawMessage) (models.Snapshot, error) {
	log.Info("Migrando estado legado (dicionário sem versão) para o formato atual")

	now := time.Now().UTC()
	snap := make(models.Snapshot)

	for key, rawEntry := range raw {
		var entry legacyEntry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			continue
		}

		// A chave pode ser o próprio código ou uma URL
		code := key
		urlStr := entry.URL
		if !isAllDigitsKey(key) {
			canonical, extracted, err := identity.Resolve(key)
			if err != nil {
				continue
			}
			code = extracted
			if urlStr == "" {
				urlStr = canonical
			}
		}

		firstSeen := parseWhen(entry.FirstSeen, now)

		item := &models.Item{
			Code:      code,
			URL:       urlStr,
			Name:      entry.Name,
			FirstSeen: firstSeen,
		}

		if entry.Status != nil && entry.StatusSince != "" {
			item.Status = models.Status(*entry.Status)
			item.StatusSince = parseWhen(entry.StatusSince, firstSeen)
		} else {
			// Modelo antigo first_seen/last_seen: considerar presente
			item.Status = models.StatusPresent
			item.StatusSince = parseWhen(entry.LastSeen, firstSeen)
		}

		snap[code] = item
	}
	return snap, nil
}

// Save grava o snapshot num arquivo temporário e renomeia por cima do atual
func (s *JSONFileStore) Save(snap models.Snapshot) error {
	env := jsonEnvelope{
		SchemaVersion: jsonSchemaVersion,
		Items:         make(map[string]jsonItem, len(snap)),
	}
	for code, item := range snap {
		env.Items[code] = jsonItem{
			URL:         item.URL,
			Name:        item.Name,
			FirstSeen:   item.FirstSeen,
			Status:      int(item.Status),
			StatusSince: item.StatusSince,
		}
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return errors.Wrap(err, "erro ao codificar estado")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".estado-*.json")
	if err != nil {
		return errors.Wrap(err, "erro ao criar arquivo temporário")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "erro ao gravar estado")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "erro ao fechar arquivo temporário")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "erro ao substituir arquivo de estado")
	}
	return nil
}

// Clear substitui o estado persistido por um snapshot vazio
func (s *JSONFileStore) Clear() error {
	return s.Save(make(models.Snapshot))
}

// Close não tem recursos a liberar no backend de arquivo
func (s *JSONFileStore) Close() error {
	return nil
}

func isAllDigitsKey(s string) bool {
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

func parseWhen(iso string, fallback time.Time) time.Time {
	if iso == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, iso); err == nil {
		return t.UTC()
	}
	return fallback
}
