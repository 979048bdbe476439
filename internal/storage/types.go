package storage

import (
	"context"
	"errors"
	"time"

	"tweetpulse/internal/feed"
)

var (
	// ErrAlreadySeen is returned by MarkSeen for an id that is already recorded.
	// The store is left unchanged.
	ErrAlreadySeen   = errors.New("item already seen")
	ErrClosed        = errors.New("store closed")
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// Store is the seen-item record.
//
// MarkSeen returns only after the record is on stable storage.
// There is no deletion or eviction.
type Store interface {
	IsSeen(ctx context.Context, id string) (bool, error)
	MarkSeen(ctx context.Context, it feed.Item) error
	// Recent returns the last n appended items, oldest of the window first.
	Recent(ctx context.Context, n int) ([]feed.Item, error)
	Len(ctx context.Context) (int, error)
	Close() error
}

// Config configures storage.
//
// Driver values:
//   - "file" (default): JSON snapshot rewritten on every append
//   - "sqlite": SQLite database file
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}
