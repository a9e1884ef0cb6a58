package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dkeye/Huddle/internal/core"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const defaultDSN = "./data/huddle.db"

type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (and creates if needed) the database at path. ":memory:"
// keeps everything in process.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		path = defaultDSN
	}
	dsn := path
	if path == ":memory:" {
		dsn = "file::memory:?cache=shared"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite dir: %w", err)
		}
		dsn = path + "?_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	log.Info().Str("module", "adapters.directory").Str("path", path).Msg("sqlite directory ready")
	return s, nil
}

func (s *SQLite) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS meetings (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		meeting_url TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME NOT NULL
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) CreateMeeting(ctx context.Context, title, url string) (core.Meeting, error) {
	mt := core.Meeting{
		ID:        newMeetingID(),
		Title:     title,
		URL:       url,
		Status:    core.MeetingActive,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meetings (id, title, meeting_url, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, mt.ID, mt.Title, mt.URL, string(mt.Status), mt.CreatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return core.Meeting{}, fmt.Errorf("create %q: %w", url, core.ErrMeetingConflict)
		}
		return core.Meeting{}, fmt.Errorf("insert meeting: %w", err)
	}
	return mt, nil
}

func (s *SQLite) GetMeetingByURL(ctx context.Context, url string) (core.Meeting, error) {
	var (
		mt     core.Meeting
		status string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, meeting_url, status, created_at
		FROM meetings WHERE meeting_url = ? AND status = ?
	`, url, string(core.MeetingActive)).Scan(&mt.ID, &mt.Title, &mt.URL, &status, &mt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Meeting{}, core.ErrMeetingNotFound
		}
		return core.Meeting{}, fmt.Errorf("query meeting: %w", err)
	}
	mt.Status = core.MeetingStatus(status)
	return mt, nil
}

func (s *SQLite) EndMeeting(ctx context.Context, url string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE meetings SET status = ? WHERE meeting_url = ?`, string(core.MeetingEnded), url)
	if err != nil {
		return fmt.Errorf("end meeting: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrMeetingNotFound
	}
	return nil
}
