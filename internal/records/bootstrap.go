package records

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Bootstrap probes the records service until it answers or the retry
// budget is exhausted (spec §7: up to 15 attempts, 2s apart — the only
// automatic retry in the system). baseURL empty skips the probe entirely,
// since the proxy may run with no external records service configured.
func Bootstrap(ctx context.Context, baseURL string, log *slog.Logger) error {
	if baseURL == "" {
		return nil
	}
	if log == nil {
		log = slog.Default()
	}

	client := &http.Client{Timeout: 5 * time.Second}
	const attempts = 15
	const interval = 2 * time.Second

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
		if err == nil {
			res, err2 := client.Do(req)
			if err2 == nil {
				res.Body.Close()
				if res.StatusCode >= 200 && res.StatusCode < 300 {
					return nil
				}
				lastErr = fmt.Errorf("records service health check returned status %d", res.StatusCode)
			} else {
				lastErr = err2
			}
		} else {
			lastErr = err
		}

		log.Warn("records service not yet reachable", "attempt", attempt, "of", attempts, "error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("records service unreachable after %d attempts: %w", attempts, lastErr)
}
