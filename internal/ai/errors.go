package ai

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (r RateLimitError) Error() string {
	if r.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", r.Provider, r.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", r.Provider)
}

// retryInfoDelay reads the RetryInfo detail Google APIs attach to
// RESOURCE_EXHAUSTED errors.
func retryInfoDelay(details []map[string]any) time.Duration {
	for _, m := range details {
		t, ok := m["@type"].(string)
		if !ok || !strings.Contains(t, "RetryInfo") {
			continue
		}
		if s, ok := m["retryDelay"].(string); ok {
			if dur, err := time.ParseDuration(s); err == nil {
				return dur
			}
		}
	}
	return 0
}

// retryAfterHeader parses a Retry-After header given in seconds or as an
// HTTP date.
func retryAfterHeader(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := time.Parse(time.RFC1123, v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
