package store

import (
	"context"
	"errors"
	"time"

	"placescout/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Repository interface {
	ListPlaces(ctx context.Context) ([]domain.Place, error)
	SamplePlaces(ctx context.Context, limit int) ([]domain.Place, error)
	GetPlace(ctx context.Context, placeID int64) (*domain.Place, error)

	GetProfile(ctx context.Context, userID int64) (*domain.Profile, error)
	UpsertProfile(ctx context.Context, profile domain.Profile) error
	DeleteProfile(ctx context.Context, userID int64) error
	ListUserIDs(ctx context.Context) ([]int64, error)
	CountUsers(ctx context.Context) (int, error)

	ViewedState(ctx context.Context, userID int64) (map[int64]domain.ViewRelation, error)
	ReplaceRelation(ctx context.Context, userID int64, rows []domain.ViewRelation) error
	RelationExists(ctx context.Context, userID int64) (bool, error)
	ListPendingPlaces(ctx context.Context, userID int64) ([]domain.Place, error)
	MarkViewed(ctx context.Context, userID int64, placeID int64) error
	ResetViewed(ctx context.Context, userID int64) error
	CountViewed(ctx context.Context, userID int64) (int, error)

	GetActivity(ctx context.Context, userID int64) (*domain.ActivitySummary, error)
	UpsertActivity(ctx context.Context, summary domain.ActivitySummary) error
	ListActiveSince(ctx context.Context, since time.Time) ([]domain.ActivitySummary, error)

	GetAdminAccount(ctx context.Context, username string) (*domain.AdminAccount, error)
	ListAdminAccounts(ctx context.Context) ([]domain.AdminAccount, error)
	CreateAdminAccount(ctx context.Context, account domain.AdminAccount) error
}
