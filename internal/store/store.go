// Package store persists submitted career profiles.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/spigell/career-path/internal/career"
)

const (
	// MemoryPath opens a private in-memory database.
	MemoryPath = ":memory:"
	// timeLayout is fixed-width so that created_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("career record not found")

// Store is the career-record store: create once, read many.
type Store interface {
	Create(ctx context.Context, s career.Submission) (*career.Record, error)
	Get(ctx context.Context, id string) (*career.Record, error)
	List(ctx context.Context) ([]*career.Record, error)
	Close() error
}

// SQLite stores records in a single SQLite table.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("store path is required")
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("store: mkdir %s: %w", filepath.Dir(path), err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	// SQLite: single writer. It also keeps an in-memory database on one connection.
	db.SetMaxOpenConns(1)

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}

	logger.Debug("career store opened", zap.String("path", path))

	return &SQLite{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS career_profiles (
		id            TEXT PRIMARY KEY,
		user_id       TEXT,
		current_class TEXT NOT NULL,
		sector        TEXT NOT NULL,
		dream_job     TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL
	)`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS career_profiles_created_at ON career_profiles (created_at)`)
	return err
}

// Create validates and stores a submission.
func (s *SQLite) Create(ctx context.Context, sub career.Submission) (*career.Record, error) {
	sub, err := sub.Normalized()
	if err != nil {
		return nil, err
	}

	rec := &career.Record{
		ID:           uuid.NewString(),
		UserID:       sub.UserID,
		CurrentClass: sub.CurrentClass,
		Sector:       sub.Sector,
		DreamJob:     sub.DreamJob,
		CreatedAt:    s.now(),
	}

	var userID sql.NullString
	if rec.UserID != "" {
		userID = sql.NullString{String: rec.UserID, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO career_profiles (id, user_id, current_class, sector, dream_job, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, userID, rec.CurrentClass, rec.Sector, rec.DreamJob, rec.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("store: insert: %w", err)
	}

	s.logger.Info("career profile stored",
		zap.String("id", rec.ID),
		zap.Bool("authenticated", rec.UserID != ""),
	)

	return rec, nil
}

// Get returns the record with id or ErrNotFound.
func (s *SQLite) Get(ctx context.Context, id string) (*career.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, current_class, sector, dream_job, created_at
		 FROM career_profiles WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", id, err)
	}
	return rec, nil
}

// List returns every record, newest first.
func (s *SQLite) List(ctx context.Context) ([]*career.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, current_class, sector, dream_job, created_at
		 FROM career_profiles ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	records := []*career.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	return records, nil
}

// Close releases the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*career.Record, error) {
	var (
		rec       career.Record
		userID    sql.NullString
		createdAt string
	)
	if err := sc.Scan(&rec.ID, &userID, &rec.CurrentClass, &rec.Sector, &rec.DreamJob, &createdAt); err != nil {
		return nil, err
	}

	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}

	rec.UserID = userID.String
	rec.CreatedAt = ts
	return &rec, nil
}
