package cache

import (
	"context"
	"time"

	"placescout/backend/internal/domain"
)

// SessionCache holds the ephemeral per-user browsing cursor and the daily
// interaction counter. It is injected into the service so the engine never
// depends on ambient process state.
type SessionCache interface {
	GetSession(ctx context.Context, userID int64) (*domain.Session, bool, error)
	SetSession(ctx context.Context, userID int64, session *domain.Session, ttl time.Duration) error
	DeleteSession(ctx context.Context, userID int64) error
	DailyCount(ctx context.Context) (int, error)
	SetDailyCount(ctx context.Context, count int) error
}

// NoopSessionCache disables session persistence; browsing then starts over
// on every request. Used when Redis is not configured.
type NoopSessionCache struct{}

func (NoopSessionCache) GetSession(_ context.Context, _ int64) (*domain.Session, bool, error) {
	return nil, false, nil
}

func (NoopSessionCache) SetSession(_ context.Context, _ int64, _ *domain.Session, _ time.Duration) error {
	return nil
}

func (NoopSessionCache) DeleteSession(_ context.Context, _ int64) error {
	return nil
}

func (NoopSessionCache) DailyCount(_ context.Context) (int, error) {
	return 0, nil
}

func (NoopSessionCache) SetDailyCount(_ context.Context, _ int) error {
	return nil
}
