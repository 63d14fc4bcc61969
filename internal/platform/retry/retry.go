package retry

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

// Config bounds a retry loop. Zero values fall back to Default().
type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     float64
	MaxDelay    time.Duration
}

func Default() Config {
	return Config{
		MaxAttempts: 4,
		Delay:       2 * time.Second,
		Backoff:     2.0,
		MaxDelay:    120 * time.Second,
	}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var pe *permanentError
	if errors.As(err, &pe) {
		return true
	}
	return isBadRequest(err)
}

type rateLimitError struct{ err error }

func (e *rateLimitError) Error() string { return e.err.Error() }
func (e *rateLimitError) Unwrap() error { return e.err }

// RateLimited marks err as a quota rejection so Do applies the longer
// rate-limit penalty instead of the standard backoff.
func RateLimited(err error) error {
	if err == nil {
		return nil
	}
	return &rateLimitError{err: err}
}

func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rl *rateLimitError
	if errors.As(err, &rl) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "resourceexhausted", "quota", "rate limit", "too many requests"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func isBadRequest(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "400") {
		return false
	}
	for _, marker := range []string{"invalid", "malformed", "bad request"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Do runs fn up to cfg.MaxAttempts times. Standard failures back off
// exponentially with a little jitter; rate-limit failures wait 30s plus
// 5-15s of jitter and grow by 1.5x per attempt. Permanent and bad-request
// errors short-circuit. The last error is returned when attempts run out.
func Do(ctx context.Context, log *logger.Logger, cfg Config, name string, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg = Default()
	}

	delay := cfg.Delay
	rateDelay := 30 * time.Second

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if IsPermanent(err) {
			log.Warn("non-retryable error", "op", name, "attempt", attempt, "error", err)
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		var wait time.Duration
		if IsRateLimit(err) {
			wait = rateDelay + time.Duration((5+rand.Float64()*10)*float64(time.Second))
			rateDelay = time.Duration(float64(rateDelay) * 1.5)
			log.Warn("rate limited, backing off", "op", name, "attempt", attempt, "wait", wait, "error", err)
		} else {
			wait = delay + time.Duration(rand.Float64()*float64(time.Second))
			delay = time.Duration(float64(delay) * cfg.Backoff)
			log.Warn("call failed, retrying", "op", name, "attempt", attempt, "wait", wait, "error", err)
		}
		if cfg.MaxDelay > 0 && wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return lastErr
}
