// Package storage provides SQLite-backed persistence for the current snapshot
// document and the append-only mover log.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rewired-gh/oddsticker/internal/models"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when the current snapshot has never been written.
var ErrNotFound = errors.New("snapshot not found")

// currentSnapshot is the name of the single live snapshot row.
const currentSnapshot = "current"

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/oddsticker/data.db.
func New(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "oddsticker", "data.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			name        TEXT PRIMARY KEY,
			markets     TEXT NOT NULL,
			updated_at  INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS movers (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT NOT NULL UNIQUE,
			timestamp   TEXT NOT NULL,
			ts_unix     INTEGER NOT NULL,
			items       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_movers_ts ON movers(ts_unix DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// PutCurrent replaces the current snapshot document with the given records.
func (s *Storage) PutCurrent(markets []models.RawQuote, updatedAt time.Time) error {
	if markets == nil {
		markets = []models.RawQuote{}
	}
	data, err := json.Marshal(markets)
	if err != nil {
		return fmt.Errorf("failed to marshal markets: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO snapshots (name, markets, updated_at)
		VALUES (?,?,?)`,
		currentSnapshot, string(data), updatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetCurrent returns the records of the current snapshot document and the
// time it was last written. It returns ErrNotFound when nothing has been
// written yet. Records are decoded leniently: malformed numeric fields come
// back absent rather than failing the read.
func (s *Storage) GetCurrent() ([]models.RawQuote, time.Time, error) {
	var data string
	var updatedAtNano int64
	err := s.db.QueryRow(`SELECT markets, updated_at FROM snapshots WHERE name = ?`, currentSnapshot).
		Scan(&data, &updatedAtNano)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var markets []models.RawQuote
	if err := json.Unmarshal([]byte(data), &markets); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal markets: %w", err)
	}
	return markets, time.Unix(0, updatedAtNano), nil
}

// AppendMovers adds a document to the mover log. Invalid documents are rejected.
func (s *Storage) AppendMovers(doc *models.MoverDocument) error {
	if doc == nil {
		return errors.New("mover document must not be nil")
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("invalid mover document: %w", err)
	}
	ts, _ := models.ParseTimestamp(doc.Timestamp)
	items, err := json.Marshal(doc.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal mover items: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO movers (id, timestamp, ts_unix, items)
		VALUES (?,?,?,?)`,
		doc.ID, doc.Timestamp, ts.UnixNano(), string(items),
	)
	if err != nil {
		return fmt.Errorf("failed to insert mover document: %w", err)
	}
	return nil
}

// RecentMovers returns up to limit mover documents, newest first. Documents
// with equal timestamps are returned in reverse insertion order.
func (s *Storage) RecentMovers(limit int) ([]models.MoverDocument, error) {
	if limit <= 0 {
		return []models.MoverDocument{}, nil
	}
	rows, err := s.db.Query(`
		SELECT id, timestamp, items FROM movers
		ORDER BY ts_unix DESC, seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query movers: %w", err)
	}
	defer rows.Close()

	docs := []models.MoverDocument{}
	for rows.Next() {
		var doc models.MoverDocument
		var items string
		if err := rows.Scan(&doc.ID, &doc.Timestamp, &items); err != nil {
			return nil, fmt.Errorf("failed to scan mover document: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &doc.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal mover items: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// MoversSince returns every mover document at or after since, oldest first.
func (s *Storage) MoversSince(since time.Time) ([]models.MoverDocument, error) {
	rows, err := s.db.Query(`
		SELECT id, timestamp, items FROM movers
		WHERE ts_unix >= ? ORDER BY ts_unix ASC, seq ASC`, since.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query movers: %w", err)
	}
	defer rows.Close()

	docs := []models.MoverDocument{}
	for rows.Next() {
		var doc models.MoverDocument
		var items string
		if err := rows.Scan(&doc.ID, &doc.Timestamp, &items); err != nil {
			return nil, fmt.Errorf("failed to scan mover document: %w", err)
		}
		if err := json.Unmarshal([]byte(items), &doc.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal mover items: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
