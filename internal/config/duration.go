package config

import (
	"fmt"
	"strings"
	"time"
)

// Setting names used in duration errors; each can come from a file key or
// an environment variable.
const (
	keyHTTPTimeout = "HTTP_TIMEOUT"
	keyBusyTimeout = "storage.busy_timeout"
)

// duration parses the Go duration setting key. Empty or zero yields def.
func duration(key, raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: %q is not a duration such as 15s or 1m", key, raw)
	case d < 0:
		return 0, fmt.Errorf("%s: must not be negative, got %s", key, raw)
	case d == 0:
		return def, nil
	}
	return d, nil
}
