package store

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"bot-estoque/internal/models"
)

// Versão atual do schema sqlite. v1 não tinha a coluna name.
const sqliteSchemaVersion = 2

// SQLiteStore persiste o snapshot em um banco sqlite local
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLite abre (ou cria) o banco de dados e aplica as migrações
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "erro ao abrir banco de dados")
	}

	s := &SQLiteStore{conn: conn}
	if err := s.init(); err != nil {
		conn.Close()
		return nil, err
	}

	log.WithField("path", dbPath).Debug("Banco de dados inicializado")
	return s, nil
}

// Close fecha a conexão com o banco de dados
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// init cria as tabelas e migra schemas antigos
func (s *SQLiteStore) init() error {
	if _, err := s.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return errors.Wrap(err, "erro ao criar tabela de versão")
	}

	var version int
	err := s.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		// Banco novo
		createTableSQL := `
		CREATE TABLE IF NOT EXISTS items (
			code TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			name TEXT,
			first_seen DATETIME NOT NULL,
			status INTEGER NOT NULL,
			status_since DATETIME NOT NULL
		);
		`
		if _, err := s.conn.Exec(createTableSQL); err != nil {
			return errors.Wrap(err, "erro ao criar tabela de itens")
		}
		if _, err := s.conn.Exec("INSERT INTO schema_version (version) VALUES (?)", sqliteSchemaVersion); err != nil {
			return errors.Wrap(err, "erro ao gravar versão do schema")
		}
		return nil
	case err != nil:
		return errors.Wrap(err, "erro ao ler versão do schema")
	}

	if version > sqliteSchemaVersion {
		return errors.Wrapf(ErrUnsupportedSchema, "versão %d (binário suporta até %d)", version, sqliteSchemaVersion)
	}

	if version < 2 {
		log.Info("Migrando schema v1 -> v2 (coluna name)")
		// SQLite não suporta IF NOT EXISTS em ALTER TABLE, então ignoramos o erro
		_, _ = s.conn.Exec("ALTER TABLE items ADD COLUMN name TEXT")
		if _, err := s.conn.Exec("UPDATE schema_version SET version = ?", sqliteSchemaVersion); err != nil {
			return errors.Wrap(err, "erro ao atualizar versão do schema")
		}
	}

	return nil
}

// Load carrega o snapshot completo do banco
func (s *SQLiteStore) Load() (models.Snapshot, error) {
	rows, err := s.conn.Query("SELECT code, url, name, first_seen, status, status_since FROM items")
	if err != nil {
		return nil, errors.Wrap(err, "erro ao ler itens")
	}
	defer rows.Close()

	snap := make(models.Snapshot)
	for rows.Next() {
		var item models.Item
		var name sql.NullString
		var status int
		if err := rows.Scan(&item.Code, &item.URL, &name, &item.FirstSeen, &status, &item.StatusSince); err != nil {
			return nil, errors.Wrap(err, "erro ao ler item")
		}
		if name.Valid {
			item.Name = name.String
		}
		item.Status = models.Status(status)
		snap[item.Code] = &item
	}
	return snap, errors.Wrap(rows.Err(), "erro ao percorrer itens")
}

// Save substitui o snapshot inteiro numa única transação
func (s *SQLiteStore) Save(snap models.Snapshot) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return errors.Wrap(err, "erro ao abrir transação")
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM items"); err != nil {
		return errors.Wrap(err, "erro ao limpar itens")
	}

	stmt, err := tx.Prepare("INSERT INTO items (code, url, name, first_seen, status, status_since) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return errors.Wrap(err, "erro ao preparar insert")
	}
	defer stmt.Close()

	for _, item := range snap {
		var name sql.NullString
		if item.Name != "" {
			name = sql.NullString{String: item.Name, Valid: true}
		}
		if _, err := stmt.Exec(item.Code, item.URL, name, item.FirstSeen, int(item.Status), item.StatusSince); err != nil {
			return errors.Wrapf(err, "erro ao gravar item %s", item.Code)
		}
	}

	return errors.Wrap(tx.Commit(), "erro ao confirmar transação")
}

// Clear remove todos os itens persistidos
func (s *SQLiteStore) Clear() error {
	_, err := s.conn.Exec("DELETE FROM items")
	return errors.Wrap(err, "erro ao limpar estado")
}
