package notifier

import (
	"context"
	"io"
	"os"
	"sync"

	"tweetpulse/internal/feed"
)

// Console writes each item as a block to an io.Writer.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{out: w}
}

func (c *Console) Notify(ctx context.Context, it feed.Item) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	// Nothing sensible to do with a failing stdout.
	_, _ = io.WriteString(c.out, FormatBlock(it))
}
