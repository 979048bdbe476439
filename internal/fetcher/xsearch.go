// Package fetcher implements feed.Fetcher against the X (Twitter) v2
// recent-search endpoint.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"tweetpulse/internal/feed"
	logx "tweetpulse/pkg/logx"
)

const (
	DefaultBaseURL = "https://api.twitter.com"
	searchPath     = "/2/tweets/search/recent"

	// The recent-search endpoint only accepts max_results in [10,100].
	apiMinResults = 10
	apiMaxResults = 100
)

type Config struct {
	BaseURL     string
	BearerToken string
	Timeout     time.Duration
}

// XSearch fetches recent posts for a query.
type XSearch struct {
	cfg    Config
	log    logx.Logger
	client *http.Client
}

func New(cfg Config, log logx.Logger) (*XSearch, error) {
	if strings.TrimSpace(cfg.BearerToken) == "" {
		return nil, errors.New("x bearer token is empty")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &XSearch{
		cfg: cfg,
		log: log.With(logx.String("comp", "fetcher")),
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

type searchResponse struct {
	Data []struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		AuthorID  string `json:"author_id"`
		CreatedAt string `json:"created_at"`
	} `json:"data"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
	Errors []apiError `json:"errors"`
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

func (e apiError) String() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// Fetch returns at most maxResults items for query, in the order the API returned them.
func (x *XSearch) Fetch(ctx context.Context, query string, maxResults int) ([]feed.Item, error) {
	if maxResults < 1 {
		maxResults = 1
	}
	fail := func(status int, err error) ([]feed.Item, error) {
		return nil, &feed.FetchError{Query: query, Status: status, Err: err}
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("max_results", strconv.Itoa(min(max(maxResults, apiMinResults), apiMaxResults)))
	q.Set("tweet.fields", "created_at,author_id")
	endpoint := x.cfg.BaseURL + searchPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fail(0, err)
	}
	req.Header.Set("Authorization", "Bearer "+x.cfg.BearerToken)
	req.Header.Set("Accept", "application/json")

	resp, err := x.client.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fail(resp.StatusCode, err)
	}
	if resp.StatusCode/100 != 2 {
		return fail(resp.StatusCode, fmt.Errorf("%s", snippet(body)))
	}

	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fail(resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Data) == 0 && len(out.Errors) > 0 {
		return fail(resp.StatusCode, fmt.Errorf("api error: %s", out.Errors[0]))
	}

	items := make([]feed.Item, 0, min(len(out.Data), maxResults))
	for _, d := range out.Data {
		if len(items) >= maxResults {
			break
		}
		if d.ID == "" {
			continue
		}
		it := feed.Item{ID: d.ID, Text: d.Text, AuthorID: d.AuthorID, Query: query}
		if d.CreatedAt != "" {
			if t, err := time.Parse(time.RFC3339, d.CreatedAt); err == nil {
				it.CreatedAt = t
			} else {
				x.log.Debug("unparseable created_at", append(it.LogFields(), logx.String("value", d.CreatedAt))...)
			}
		}
		items = append(items, it)
	}
	x.log.Debug("search done", logx.String("query", query), logx.Int("items", len(items)))
	return items, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 300 {
		s = s[:297] + "..."
	}
	if s == "" {
		return "empty response body"
	}
	return s
}
