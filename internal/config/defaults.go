package config

import "time"

const (
	DefaultXAPIURL          = "https://api.twitter.com"
	DefaultTelegramAPIURL   = "https://api.telegram.org"
	DefaultTelegramRate     = 1.0
	DefaultIntervalSeconds  = 60
	DefaultMaxResults       = 10
	DefaultStoreDriver      = "file"
	DefaultStorePath        = "./data/seen.json"
	DefaultOutputPath       = "./public/index.html"
	DefaultRenderWindow     = 100
	DefaultRenderTitle      = "tweetpulse"
	DefaultLogLevel         = "info"
	DefaultHTTPTimeout      = 15 * time.Second
	defaultHTTPTimeoutField = "15s"
)

// Defaults returns the built-in configuration. It has no queries and no
// credential, so it does not validate on its own.
func Defaults() Config {
	return Config{
		X: XConfig{
			APIURL:  DefaultXAPIURL,
			Timeout: defaultHTTPTimeoutField,
		},
		Telegram: TelegramConfig{
			APIURL:     DefaultTelegramAPIURL,
			RatePerSec: DefaultTelegramRate,
		},
		Search: SearchConfig{
			IntervalSeconds: DefaultIntervalSeconds,
			MaxResults:      DefaultMaxResults,
		},
		Storage: StorageConfig{
			Driver: DefaultStoreDriver,
			Path:   DefaultStorePath,
		},
		Render: RenderConfig{
			OutputPath: DefaultOutputPath,
			Window:     DefaultRenderWindow,
			Title:      DefaultRenderTitle,
		},
		Logging: LoggingConfig{Level: DefaultLogLevel},
	}
}
