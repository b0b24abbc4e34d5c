package store

import (
	"github.com/pkg/errors"

	"bot-estoque/internal/models"
)

// ErrUnsupportedSchema indica estado persistido numa versão de schema que o
// binário não sabe migrar. É fatal: nunca seguir em frente com estado vazio.
var ErrUnsupportedSchema = errors.New("versão de schema do estado não suportada")

// Store define o contrato de persistência do snapshot.
// Uma instância do watcher é a única escritora do seu store.
type Store interface {
	// Load retorna o último snapshot persistido, migrando versões antigas
	// de schema quando necessário. Sem estado prévio, retorna snapshot vazio.
	Load() (models.Snapshot, error)
	// Save substitui o snapshot persistido de forma atômica.
	Save(models.Snapshot) error
	// Clear substitui o estado persistido por vazio (ação explícita do operador).
	Clear() error
	Close() error
}

// New cria o store do backend configurado
func New(backend, sqlitePath, jsonPath string) (Store, error) {
	switch backend {
	case "sqlite", "":
		return NewSQLite(sqlitePath)
	case "json":
		return NewJSONFile(jsonPath), nil
	default:
		return nil, errors.Errorf("backend de estado desconhecido: %s", backend)
	}
}
