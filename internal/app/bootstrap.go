package app

import (
	"tweetpulse/internal/config"
	logx "tweetpulse/pkg/logx"
)

// Bootstrap opens the log sinks from cfg and then the App. The App owns the
// sinks and closes them in Close.
func Bootstrap(cfg config.Config, opts ...Option) (*App, error) {
	log, sinks := logx.Open(LogConfig(cfg))
	a, err := New(cfg, log, append(opts, WithLogSinks(sinks))...)
	if err != nil {
		_ = sinks.Close()
		return nil, err
	}
	return a, nil
}

// LogConfig maps the logging section onto the log sinks.
func LogConfig(cfg config.Config) logx.Config {
	return logx.Config{Level: cfg.Logging.Level, File: cfg.Logging.File}
}
