package notifier

import (
	"strings"
	"time"

	"tweetpulse/internal/feed"
)

const timeLayout = "2006-01-02 15:04 MST"

// FormatBlock renders an item as a plain-text console block.
func FormatBlock(it feed.Item) string {
	var b strings.Builder
	b.WriteString("──────── new post")
	if it.Query != "" {
		b.WriteString(" [")
		b.WriteString(it.Query)
		b.WriteString("]")
	}
	b.WriteString(" ────────\n")
	b.WriteString(meta(it))
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(it.Text))
	b.WriteString("\n")
	b.WriteString(it.URL())
	b.WriteString("\n\n")
	return b.String()
}

// FormatMessage renders an item for a chat message.
func FormatMessage(it feed.Item) string {
	var b strings.Builder
	b.WriteString("🐦 New post")
	if it.Query != "" {
		b.WriteString(" for \"")
		b.WriteString(it.Query)
		b.WriteString("\"")
	}
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(it.Text))
	b.WriteString("\n\n")
	b.WriteString(meta(it))
	b.WriteString("\n")
	b.WriteString(it.URL())
	return b.String()
}

func meta(it feed.Item) string {
	author := it.AuthorID
	if author == "" {
		author = "unknown"
	}
	s := "author " + author
	if !it.CreatedAt.IsZero() {
		s += " · " + it.CreatedAt.UTC().Format(timeLayout)
	}
	return s
}

func since(t time.Time) time.Duration { return time.Since(t).Round(time.Millisecond) }
