package digestfile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

const sqliteWatermarkTableName = "watermarks"

// SQLiteWatermarkStore keeps watermarks in a single sqlite database file.
// Suited to single-host deployments that want one durable file instead of a
// watermark.json per project directory.
type SQLiteWatermarkStore struct {
	path      string
	tableName string
	openDB    sqlOpenFunc

	initOnce sync.Once
	initErr  error
	db       *sql.DB

	// The driver is in-process; a single writer avoids SQLITE_BUSY churn.
	writeMu sync.Mutex
}

func NewSQLiteWatermarkStore(path string) (*SQLiteWatermarkStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrInvalidInput
	}
	return &SQLiteWatermarkStore{
		path:      path,
		tableName: sqliteWatermarkTableName,
		openDB:    sql.Open,
	}, nil
}

func (s *SQLiteWatermarkStore) Load(projectID string) (int64, bool, error) {
	if s == nil {
		return 0, false, nil
	}
	if err := s.ensureReady(); err != nil {
		return 0, false, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT last_flushed FROM %s WHERE project_id = ?", quoteIdentifier(s.tableName))
	var lastFlushed int64
	err := s.db.QueryRowContext(ctx, query, projectID).Scan(&lastFlushed)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return lastFlushed, true, nil
}

func (s *SQLiteWatermarkStore) Save(projectID string, lastFlushed int64) error {
	if s == nil {
		return ErrInvalidInput
	}
	if strings.TrimSpace(projectID) == "" {
		return ErrInvalidInput
	}
	if err := s.ensureReady(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, last_flushed)
		VALUES (?, ?)
		ON CONFLICT (project_id)
		DO UPDATE SET last_flushed = excluded.last_flushed`, quoteIdentifier(s.tableName))
	_, err := s.db.ExecContext(ctx, query, projectID, lastFlushed)
	return err
}

func (s *SQLiteWatermarkStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteWatermarkStore) ensureReady() error {
	if s == nil {
		return ErrInvalidInput
	}
	s.initOnce.Do(func() {
		db, err := s.openDB("sqlite", s.path)
		if err != nil {
			s.initErr = err
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), postgresOperationTimeout)
		defer cancel()

		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				project_id TEXT PRIMARY KEY,
				last_flushed INTEGER NOT NULL
			)`, quoteIdentifier(s.tableName))
		if _, err := db.ExecContext(ctx, query); err != nil {
			_ = db.Close()
			s.initErr = err
			return
		}
		s.db = db
	})
	return s.initErr
}
