package config

import (
	logx "tweetpulse/pkg/logx"
)

const redacted = "[redacted]"

// Redacted returns a copy with credentials masked, safe to log or print.
func (c Config) Redacted() Config {
	out := c
	out.Search.Queries = append([]string(nil), c.Search.Queries...)
	if out.X.BearerToken != "" {
		out.X.BearerToken = redacted
	}
	if out.Telegram.Token != "" {
		out.Telegram.Token = redacted
	}
	return out
}

// LogFields summarizes the configuration for the startup log line. It never
// includes credentials.
func (c Config) LogFields() []logx.Field {
	notifier := "console"
	if c.Telegram.Enabled() {
		notifier = "telegram"
	}
	return []logx.Field{
		logx.Strings("queries", c.Search.Queries),
		logx.Duration("interval", c.Search.Interval()),
		logx.Int("max_results", c.Search.MaxResults),
		logx.String("x_api", c.X.APIURL),
		logx.Duration("http_timeout", c.X.RequestTimeout()),
		logx.String("notifier", notifier),
		logx.String("store_driver", c.Storage.Driver),
		logx.String("store_path", c.Storage.Path),
		logx.String("output", c.Render.OutputPath),
		logx.Int("render_window", c.Render.Window),
		logx.Bool("metrics", c.Metrics.Addr != ""),
	}
}
