package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tweetpulse/internal/feed"
	logx "tweetpulse/pkg/logx"
)

const fileFormatVersion = 1

// fileStore keeps the full ordered record in memory and rewrites the
// snapshot (temp file + fsync + rename) on every append.
type fileStore struct {
	log  logx.Logger
	path string

	mu     sync.Mutex
	items  []feed.Item
	index  map[string]struct{}
	closed bool
}

type fileSnapshot struct {
	Version int         `json:"version"`
	Items   []feed.Item `json:"items"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	s := &fileStore{log: log, path: path, index: map[string]struct{}{}}
	items, err := loadSnapshot(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Info("seen store not found, starting empty", logx.String("path", path))
	case err != nil:
		quarantine(path, log, err)
	default:
		for _, it := range items {
			if _, dup := s.index[it.ID]; dup || it.ID == "" {
				log.Warn("skipping invalid record in seen store", it.LogFields()...)
				continue
			}
			s.index[it.ID] = struct{}{}
			s.items = append(s.items, it)
		}
		log.Info("seen store loaded", logx.String("path", path), logx.Int("items", len(s.items)))
	}
	return s, nil
}

func loadSnapshot(path string) ([]feed.Item, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap fileSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if snap.Version > fileFormatVersion {
		return nil, fmt.Errorf("decode %s: unsupported version %d", path, snap.Version)
	}
	return snap.Items, nil
}

func (s *fileStore) IsSeen(ctx context.Context, id string) (bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	_, ok := s.index[id]
	return ok, nil
}

func (s *fileStore) MarkSeen(ctx context.Context, it feed.Item) error {
	_ = ctx
	if strings.TrimSpace(it.ID) == "" {
		return errors.New("item id is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.index[it.ID]; ok {
		return ErrAlreadySeen
	}

	s.items = append(s.items, it)
	s.index[it.ID] = struct{}{}
	if err := s.writeLocked(); err != nil {
		// Keep memory in line with what is on disk.
		s.items = s.items[:len(s.items)-1]
		delete(s.index, it.ID)
		return fmt.Errorf("persist seen store: %w", err)
	}
	return nil
}

func (s *fileStore) Recent(ctx context.Context, n int) ([]feed.Item, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if n <= 0 || len(s.items) == 0 {
		return nil, nil
	}
	start := max(0, len(s.items)-n)
	out := make([]feed.Item, len(s.items)-start)
	copy(out, s.items[start:])
	return out, nil
}

func (s *fileStore) Len(ctx context.Context) (int, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return len(s.items), nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fileStore) writeLocked() error {
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	snap := fileSnapshot{Version: fileFormatVersion, Items: s.items}
	if err := json.NewEncoder(f).Encode(snap); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
