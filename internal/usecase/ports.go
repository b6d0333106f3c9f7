package usecase

import (
	"context"
	"time"
)

// Localizer resolves buyer language tags and translates message keys.
// Satisfied by i18n.Bundle.
type Localizer interface {
	Resolve(tag string) string
	T(lang, key string, args ...interface{}) string
}

// GuardNotifier mirrors operational events to the control chat. Implementations
// decide whether mirroring is active (prod mode, chat bound).
type GuardNotifier interface {
	Notify(ctx context.Context, msg string)
}

// CommandLimiter throttles buyer commands. Satisfied by redis.RateLimiter;
// a nil limiter disables throttling.
type CommandLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
