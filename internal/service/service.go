package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"placescout/backend/internal/cache"
	"placescout/backend/internal/domain"
	"placescout/backend/internal/recommendation"
	"placescout/backend/internal/store"
	"placescout/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Service owns the per-user view-state relation and the browsing cursor.
// All state is partitioned by user id; there is no cross-user locking.
type Service struct {
	repo       store.Repository
	sessions   cache.SessionCache
	sessionTTL time.Duration
	viewedTTL  time.Duration
}

func New(repo store.Repository, sessions cache.SessionCache, sessionTTL time.Duration, viewedTTL time.Duration) *Service {
	if sessions == nil {
		sessions = cache.NoopSessionCache{}
	}
	if sessionTTL <= 0 {
		sessionTTL = 2 * time.Hour
	}
	if viewedTTL <= 0 {
		viewedTTL = 7 * 24 * time.Hour
	}

	return &Service{
		repo:       repo,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		viewedTTL:  viewedTTL,
	}
}

// GetOrCreateProfile lazily creates an empty profile on first contact, so a
// missing profile is "not yet onboarded" rather than an error.
func (s *Service) GetOrCreateProfile(ctx context.Context, userID int64) (domain.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err == nil {
		return *profile, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Profile{}, err
	}

	created := domain.Profile{UserID: userID}
	if err := s.repo.UpsertProfile(ctx, created); err != nil {
		return domain.Profile{}, err
	}
	return created, nil
}

func (s *Service) SaveCategories(ctx context.Context, userID int64, categories []string) error {
	profile, err := s.GetOrCreateProfile(ctx, userID)
	if err != nil {
		return err
	}
	profile.Categories = normalizeTags(categories)
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return err
	}
	return s.Rebuild(ctx, userID)
}

func (s *Service) SaveWishes(ctx context.Context, userID int64, wishes []string) error {
	profile, err := s.GetOrCreateProfile(ctx, userID)
	if err != nil {
		return err
	}
	profile.Wishes = normalizeTags(wishes)
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return err
	}
	return s.Rebuild(ctx, userID)
}

func (s *Service) SaveFilters(ctx context.Context, userID int64, filters []string) error {
	profile, err := s.GetOrCreateProfile(ctx, userID)
	if err != nil {
		return err
	}
	profile.Filters = normalizeTags(filters)
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return err
	}
	return s.Rebuild(ctx, userID)
}

func (s *Service) SetLocation(ctx context.Context, userID int64, latitude float64, longitude float64) error {
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return store.ErrInvalidInput
	}

	profile, err := s.GetOrCreateProfile(ctx, userID)
	if err != nil {
		return err
	}
	profile.Latitude = &latitude
	profile.Longitude = &longitude
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return err
	}
	return s.Rebuild(ctx, userID)
}

func (s *Service) ClearLocation(ctx context.Context, userID int64) error {
	profile, err := s.GetOrCreateProfile(ctx, userID)
	if err != nil {
		return err
	}
	profile.Latitude = nil
	profile.Longitude = nil
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return err
	}
	return s.Rebuild(ctx, userID)
}

// DeleteUser removes the profile, its relation rows and session. Called when
// the user blocks the bot.
func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	if err := s.repo.DeleteProfile(ctx, userID); err != nil {
		return err
	}
	if err := s.sessions.DeleteSession(ctx, userID); err != nil {
		log.Printf("[service] WARN: failed to drop session for user=%d: %v", userID, err)
	}
	return nil
}

// Rebuild recomputes the user's candidate relation and replaces it, carrying
// the viewed flag over by place id for candidates that survive. A viewed
// flag past its expiry is not carried over, which is the authoritative
// history-reset mechanism. The stale session snapshot is dropped.
//
// A missing profile makes this a no-op: the user was deleted mid-flight.
func (s *Service) Rebuild(ctx context.Context, userID int64) error {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	prior, err := s.repo.ViewedState(ctx, userID)
	if err != nil {
		return err
	}

	candidates, err := s.planCandidates(ctx, *profile)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rows := make([]domain.ViewRelation, 0, len(candidates))
	for _, place := range candidates {
		if place.ID == 0 {
			log.Printf("[service] skipping candidate without id for user=%d (%q)", userID, place.Name)
			continue
		}
		viewed := false
		if prev, ok := prior[place.ID]; ok && prev.Viewed && prev.ExpiresAt.After(now) {
			viewed = true
		}
		rows = append(rows, domain.ViewRelation{
			UserID:    userID,
			PlaceID:   place.ID,
			Viewed:    viewed,
			ExpiresAt: now.Add(s.viewedTTL),
		})
	}

	if err := s.repo.ReplaceRelation(ctx, userID, rows); err != nil {
		return err
	}

	if err := s.sessions.DeleteSession(ctx, userID); err != nil {
		log.Printf("[service] WARN: failed to drop stale session for user=%d: %v", userID, err)
	}

	log.Printf("[service] rebuilt relation for user=%d: %d candidates", userID, len(rows))
	return nil
}

func (s *Service) planCandidates(ctx context.Context, profile domain.Profile) ([]domain.Place, error) {
	// Cold start: no preferences means no scoring, just a bounded sample.
	if !profile.HasPreferences() {
		return s.repo.SamplePlaces(ctx, recommendation.MaxCandidates)
	}

	catalog, err := s.repo.ListPlaces(ctx)
	if err != nil {
		return nil, err
	}
	return recommendation.Plan(catalog, profile), nil
}

// MarkViewed flags a candidate as shown. A missing row is a benign race
// with a concurrent rebuild and is not an error.
func (s *Service) MarkViewed(ctx context.Context, userID int64, placeID int64) error {
	return s.repo.MarkViewed(ctx, userID, placeID)
}

func (s *Service) ResetViewed(ctx context.Context, userID int64) error {
	return s.repo.ResetViewed(ctx, userID)
}

// Pending returns the user's not-yet-shown candidates in plan order,
// optionally re-sorted by distance from the profile's coordinates, sliced
// by offset and limit (limit < 1 means "to the end"). Builds the relation
// lazily when the user has none yet.
func (s *Service) Pending(ctx context.Context, userID int64, limit int, offset int, sortByDistance bool) ([]domain.Place, error) {
	profile, err := s.GetOrCreateProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.RelationExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := s.Rebuild(ctx, userID); err != nil {
			return nil, err
		}
	}

	places, err := s.repo.ListPendingPlaces(ctx, userID)
	if err != nil {
		return nil, err
	}

	if sortByDistance && profile.HasLocation() {
		places = recommendation.SortByDistance(places, *profile.Latitude, *profile.Longitude)
	}

	if offset < 0 {
		offset = 0
	}
	if offset >= len(places) {
		return nil, nil
	}
	places = places[offset:]
	if limit > 0 && len(places) > limit {
		places = places[:limit]
	}
	return places, nil
}

// StartBrowsing materializes a fresh cursor over the pending set and shows
// its first place. An empty pending set is the terminal "all viewed" state.
func (s *Service) StartBrowsing(ctx context.Context, userID int64, sortByDistance bool) (domain.BrowseResult, error) {
	places, err := s.Pending(ctx, userID, recommendation.MaxCandidates, 0, sortByDistance)
	if err != nil {
		return domain.BrowseResult{}, err
	}
	if len(places) == 0 {
		return domain.BrowseResult{Status: domain.BrowseExhausted}, nil
	}

	placeIDs := make([]int64, 0, len(places))
	for _, place := range places {
		placeIDs = append(placeIDs, place.ID)
	}
	session := &domain.Session{
		SnapshotID:     xid.New("snap"),
		PlaceIDs:       placeIDs,
		Index:          0,
		SortByDistance: sortByDistance,
	}
	if err := s.sessions.SetSession(ctx, userID, session, s.sessionTTL); err != nil {
		return domain.BrowseResult{}, err
	}

	return s.showAt(ctx, userID, session, 0)
}

// Show returns the place at the given snapshot index and marks it viewed.
// An out-of-range index, or a missing session, is the exhausted state
// rather than an error.
func (s *Service) Show(ctx context.Context, userID int64, index int) (domain.BrowseResult, error) {
	if index < 0 {
		return domain.BrowseResult{}, store.ErrInvalidInput
	}

	session, ok, err := s.sessions.GetSession(ctx, userID)
	if err != nil {
		return domain.BrowseResult{}, err
	}
	if !ok {
		return domain.BrowseResult{Status: domain.BrowseExhausted}, nil
	}
	return s.showAt(ctx, userID, session, index)
}

// Navigate moves the cursor one step. Stepping back at the start re-shows
// the first place with an at-start status; stepping forward past the end is
// the terminal exhausted state and does not wrap.
func (s *Service) Navigate(ctx context.Context, userID int64, direction domain.Direction) (domain.BrowseResult, error) {
	session, ok, err := s.sessions.GetSession(ctx, userID)
	if err != nil {
		return domain.BrowseResult{}, err
	}
	if !ok || len(session.PlaceIDs) == 0 {
		return domain.BrowseResult{Status: domain.BrowseExhausted}, nil
	}

	switch direction {
	case domain.DirectionPrev:
		if session.Index <= 0 {
			result, err := s.showAt(ctx, userID, session, 0)
			if err != nil {
				return domain.BrowseResult{}, err
			}
			if result.Status == domain.BrowseOK {
				result.Status = domain.BrowseAtStart
			}
			return result, nil
		}
		return s.showAt(ctx, userID, session, session.Index-1)
	case domain.DirectionNext:
		if session.Index >= len(session.PlaceIDs)-1 {
			return domain.BrowseResult{
				Status: domain.BrowseExhausted,
				Index:  session.Index,
				Total:  len(session.PlaceIDs),
			}, nil
		}
		return s.showAt(ctx, userID, session, session.Index+1)
	default:
		return domain.BrowseResult{}, fmt.Errorf("%w: unknown direction %q", store.ErrInvalidInput, direction)
	}
}

func (s *Service) showAt(ctx context.Context, userID int64, session *domain.Session, index int) (domain.BrowseResult, error) {
	total := len(session.PlaceIDs)
	if index >= total {
		return domain.BrowseResult{Status: domain.BrowseExhausted, Index: session.Index, Total: total}, nil
	}

	placeID := session.PlaceIDs[index]
	place, err := s.repo.GetPlace(ctx, placeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Catalog refresh removed the place mid-browse.
			log.Printf("[service] place id=%d vanished from catalog for user=%d", placeID, userID)
			return domain.BrowseResult{Status: domain.BrowseExhausted, Index: session.Index, Total: total}, nil
		}
		return domain.BrowseResult{}, err
	}

	if err := s.repo.MarkViewed(ctx, userID, placeID); err != nil {
		return domain.BrowseResult{}, err
	}

	session.Index = index
	if err := s.sessions.SetSession(ctx, userID, session, s.sessionTTL); err != nil {
		log.Printf("[service] WARN: failed to persist cursor for user=%d: %v", userID, err)
	}

	return domain.BrowseResult{Status: domain.BrowseOK, Place: place, Index: index, Total: total}, nil
}

// TouchActivity updates the per-user activity row: last action history
// (capped at three), viewed counter snapshot and totals. Failures here never
// block the user-facing flow, so the caller may ignore the error.
func (s *Service) TouchActivity(ctx context.Context, userID int64, action string) error {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	viewedCount, err := s.repo.CountViewed(ctx, userID)
	if err != nil {
		return err
	}

	summary := domain.ActivitySummary{UserID: userID, TotalActivities: 0}
	if existing, err := s.repo.GetActivity(ctx, userID); err == nil {
		summary = *existing
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	action = strings.TrimSpace(action)
	if action != "" {
		summary.LastActions = append(summary.LastActions, action)
		if len(summary.LastActions) > 3 {
			summary.LastActions = summary.LastActions[len(summary.LastActions)-3:]
		}
	}
	summary.ActivityDate = time.Now().UTC()
	summary.ViewedPlacesCount = viewedCount
	summary.HasGeolocation = profile != nil && profile.HasLocation()
	summary.TotalActivities++

	if err := s.repo.UpsertActivity(ctx, summary); err != nil {
		return err
	}

	if count, err := s.sessions.DailyCount(ctx); err == nil {
		if err := s.sessions.SetDailyCount(ctx, count+1); err != nil {
			log.Printf("[service] WARN: failed to bump daily count: %v", err)
		}
	}
	return nil
}

func (s *Service) UserStats(ctx context.Context, userID int64) (domain.ActivitySummary, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.ActivitySummary{}, err
	}
	summary, err := s.repo.GetActivity(ctx, userID)
	if err != nil {
		return domain.ActivitySummary{}, err
	}
	return *summary, nil
}

// ListUsers returns every known user id, for dashboard drill-down.
func (s *Service) ListUsers(ctx context.Context) ([]int64, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListUserIDs(ctx)
}

func (s *Service) UsersCount(ctx context.Context) (int, error) {
	if err := requireAdmin(ctx); err != nil {
		return 0, err
	}
	return s.repo.CountUsers(ctx)
}

// ActiveToday lists users active since UTC midnight.
func (s *Service) ActiveToday(ctx context.Context) ([]domain.ActivitySummary, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.repo.ListActiveSince(ctx, midnight)
}

func (s *Service) DailyCount(ctx context.Context) (int, error) {
	if err := requireAdmin(ctx); err != nil {
		return 0, err
	}
	return s.sessions.DailyCount(ctx)
}

func (s *Service) ResetDailyCount(ctx context.Context) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	return s.sessions.SetDailyCount(ctx, 0)
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}
	return nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}
	return normalized
}
