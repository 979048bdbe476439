// Package render writes the static HTML snapshot of the most recent items.
package render

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tweetpulse/internal/feed"
)

//go:embed templates/index.html.tmpl
var templatesFS embed.FS

const timeLayout = "Jan 2, 2006 15:04 MST"

// Renderer turns an ordered window of items (oldest first) into a document.
type Renderer interface {
	Render(ctx context.Context, items []feed.Item) error
}

type pageData struct {
	Title   string
	Updated string
	Posts   []postData
}

type postData struct {
	ID      string
	Query   string
	Author  string
	Created string
	Text    string
	URL     string
}

// HTML renders a single page to a fixed path. Posts are listed newest first.
type HTML struct {
	path  string
	title string
	tmpl  *template.Template
	now   func() time.Time
}

func NewHTML(path, title string) (*HTML, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("render output path is empty")
	}
	if title == "" {
		title = "tweetpulse"
	}
	tmpl, err := template.ParseFS(templatesFS, "templates/index.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &HTML{path: path, title: title, tmpl: tmpl, now: time.Now}, nil
}

func (h *HTML) Path() string { return h.path }

func (h *HTML) Render(ctx context.Context, items []feed.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data := pageData{
		Title:   h.title,
		Updated: h.now().UTC().Format(timeLayout),
		Posts:   make([]postData, 0, len(items)),
	}
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		p := postData{
			ID:     it.ID,
			Query:  it.Query,
			Author: it.AuthorID,
			Text:   it.Text,
			URL:    it.URL(),
		}
		if p.Author == "" {
			p.Author = "unknown"
		}
		if !it.CreatedAt.IsZero() {
			p.Created = it.CreatedAt.UTC().Format(timeLayout)
		}
		data.Posts = append(data.Posts, p)
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}
	return writeAtomic(h.path, buf.Bytes())
}

func writeAtomic(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
