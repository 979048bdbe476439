// Package feed holds the item model shared by the fetcher, the seen store,
// the notifiers and the renderer.
package feed

import (
	"context"
	"fmt"
	"time"

	logx "tweetpulse/pkg/logx"
)

// Item is one result from the upstream search feed. Identity is ID.
type Item struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"` // zero when upstream omits it
	Query     string    `json:"query"`
}

// URL returns the public status link for the item.
func (it Item) URL() string {
	return "https://x.com/i/web/status/" + it.ID
}

// LogFields identifies the item on a log line.
func (it Item) LogFields() []logx.Field { return logx.Post(it.ID, it.Query) }

// Fetcher returns candidate items for one query, in upstream order.
// Failures are reported as *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, query string, maxResults int) ([]Item, error)
}

// FetchError is a per-query upstream failure (transport, auth, rate limit, bad payload).
type FetchError struct {
	Query  string
	Status int // HTTP status, 0 if the request never completed
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %q: http %d: %v", e.Query, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %q: %v", e.Query, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
