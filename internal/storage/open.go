package storage

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	logx "tweetpulse/pkg/logx"
)

// Open initializes the configured store.
//
// Unreadable or corrupt persisted state is not fatal: the artifact is moved
// aside and the store starts empty. Previously seen items may be delivered again.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = "file"
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "storage"), logx.String("driver", driver))

	switch driver {
	case "file", "json":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

// quarantine renames a corrupt artifact to <path>.corrupt-<unix> so the next
// write starts clean while the bad file stays available for inspection.
func quarantine(path string, log logx.Logger, cause error) {
	dst := path + ".corrupt-" + strconv.FormatInt(time.Now().Unix(), 10)
	if err := os.Rename(path, dst); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		log.Warn("could not move corrupt store aside", logx.String("path", path), logx.Err(err))
		return
	}
	log.Warn("seen store unreadable, starting empty",
		logx.String("path", path), logx.String("moved_to", dst), logx.Err(cause))
}
