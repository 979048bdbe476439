package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"tweetpulse/internal/config"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		if errors.Is(err, config.ErrMissingCredential) {
			fmt.Fprintln(os.Stderr, "fatal: the X API bearer token is not configured.")
			fmt.Fprintln(os.Stderr, "Set X_BEARER_TOKEN (or TWITTER_BEARER_TOKEN) to an app bearer token and retry.")
		} else {
			fmt.Fprintln(os.Stderr, "fatal:", err)
		}
		os.Exit(1)
	}
}
