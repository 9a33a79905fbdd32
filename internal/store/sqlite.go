package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/defensuk/defens/internal/casefile"
)

// CaseStore persists one case record per session token so a case survives the
// payment redirect round-trip. Single writer, write-through.
type CaseStore struct {
	db *sqlx.DB
}

const caseSchema = `
CREATE TABLE IF NOT EXISTS cases (
	token      TEXT PRIMARY KEY,
	record     TEXT NOT NULL,
	screen     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

func NewCaseStore(dbPath string) (*CaseStore, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(caseSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &CaseStore{db: db}, nil
}

func (s *CaseStore) Close() error {
	return s.db.Close()
}

// Save upserts the record under token, stamping the screen it was saved from.
func (s *CaseStore) Save(token string, rec *casefile.CaseRecord, screen string) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.Exec(`
		INSERT INTO cases (token, record, screen, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET
			record = excluded.record,
			screen = excluded.screen,
			updated_at = excluded.updated_at`,
		token, string(blob), screen, now, now)
	if err != nil {
		return fmt.Errorf("save case %s: %w", token, err)
	}
	return nil
}

// Load returns the saved record for token, or nil with no error when none is
// saved. Absence is an expected state, not a failure.
func (s *CaseStore) Load(token string) (*casefile.CaseRecord, error) {
	var blob string
	err := s.db.Get(&blob, "SELECT record FROM cases WHERE token = ?", token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load case %s: %w", token, err)
	}
	rec := casefile.NewCaseRecord()
	if err := json.Unmarshal([]byte(blob), rec); err != nil {
		return nil, fmt.Errorf("decode case %s: %w", token, err)
	}
	return rec, nil
}

// Clear deletes the saved record for token. Clearing an absent token is fine.
func (s *CaseStore) Clear(token string) error {
	if _, err := s.db.Exec("DELETE FROM cases WHERE token = ?", token); err != nil {
		return fmt.Errorf("clear case %s: %w", token, err)
	}
	return nil
}
