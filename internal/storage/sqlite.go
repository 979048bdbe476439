package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tweetpulse/internal/feed"
	logx "tweetpulse/pkg/logx"
)

//go:embed schema.sql
var schemaSQL string

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for sqlite driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	st, err := connectSQLite(path, cfg.BusyTimeout, log)
	if err == nil {
		return st, nil
	}
	// Corrupt or foreign file: move it (and its WAL files) aside and start fresh.
	quarantine(path, log, err)
	_ = os.Remove(path + "-wal")
	_ = os.Remove(path + "-shm")
	return connectSQLite(path, cfg.BusyTimeout, log)
}

func connectSQLite(path string, busy time.Duration, log logx.Logger) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer, one worker.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if busy > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busy.Milliseconds()))
	}
	// Every append must be durable once MarkSeen returns.
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = FULL")

	st := &sqliteStore{db: db, log: log}
	if err := st.check(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	n, err := st.Len(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("seen store loaded", logx.String("path", path), logx.Int("items", n))
	return st, nil
}

func (s *sqliteStore) check(ctx context.Context) error {
	var res string
	if err := s.db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&res); err != nil {
		return fmt.Errorf("quick_check: %w", err)
	}
	if res != "ok" {
		return fmt.Errorf("quick_check: %s", res)
	}
	return nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) IsSeen(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM seen WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

func (s *sqliteStore) MarkSeen(ctx context.Context, it feed.Item) error {
	if strings.TrimSpace(it.ID) == "" {
		return errors.New("item id is empty")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO seen(id, text, author_id, created_at, query, seen_at)
		 VALUES(?,?,?,?,?,?)
		 ON CONFLICT(id) DO NOTHING`,
		it.ID, it.Text, it.AuthorID, nullTime(it.CreatedAt), it.Query,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("persist seen store: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadySeen
	}
	return nil
}

func (s *sqliteStore) Recent(ctx context.Context, n int) ([]feed.Item, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, author_id, created_at, query FROM (
			SELECT seq, id, text, author_id, created_at, query
			FROM seen ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []feed.Item
	for rows.Next() {
		var it feed.Item
		var created sql.NullString
		if err := rows.Scan(&it.ID, &it.Text, &it.AuthorID, &created, &it.Query); err != nil {
			return nil, err
		}
		if created.Valid {
			if t, err := time.Parse(time.RFC3339Nano, created.String); err == nil {
				it.CreatedAt = t
			}
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seen`).Scan(&n)
	return n, err
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
