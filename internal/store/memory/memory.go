package memory

import (
	"context"
	"log"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"placescout/backend/internal/domain"
	"placescout/backend/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	places    map[int64]domain.Place
	profiles  map[int64]domain.Profile
	relations map[int64]map[int64]domain.ViewRelation
	activity  map[int64]domain.ActivitySummary
	admins    map[string]domain.AdminAccount
}

func New() *Store {
	return &Store{
		places:    make(map[int64]domain.Place),
		profiles:  make(map[int64]domain.Profile),
		relations: make(map[int64]map[int64]domain.ViewRelation),
		activity:  make(map[int64]domain.ActivitySummary),
		admins:    make(map[string]domain.AdminAccount),
	}
}

// NewSeeded builds a store with a small demo catalog and the seed admin
// account for dev mode. The admin password comes from SEED_ADMIN_PASSWORD;
// a hardcoded dev default is used (with a warning) when unset. Production
// deployments use PostgreSQL via DATABASE_URL instead.
func NewSeeded() *Store {
	s := New()
	s.AddPlaces(seedPlaces()...)

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
		log.Println("[memory-store] WARNING: using default dev admin credentials. Set SEED_ADMIN_PASSWORD to override.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[memory-store] failed to hash seed admin password: %v", err)
	}
	s.admins["admin"] = domain.AdminAccount{
		Username:  "admin",
		Password:  string(hash),
		Role:      "admin",
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	return s
}

// AddPlaces loads catalog rows. Intended for seeding and tests; the catalog
// is read-mostly and has no ingestion path inside this service.
func (s *Store) AddPlaces(places ...domain.Place) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, place := range places {
		s.places[place.ID] = place
	}
}

func (s *Store) ListPlaces(_ context.Context) ([]domain.Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedPlacesLocked(), nil
}

func (s *Store) SamplePlaces(_ context.Context, limit int) ([]domain.Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sortedPlacesLocked()
	indexes := rand.Perm(len(all))
	if len(indexes) > limit {
		indexes = indexes[:limit]
	}
	sample := make([]domain.Place, 0, len(indexes))
	for _, i := range indexes {
		sample = append(sample, all[i])
	}
	return sample, nil
}

func (s *Store) GetPlace(_ context.Context, placeID int64) (*domain.Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	place, ok := s.places[placeID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &place, nil
}

func (s *Store) GetProfile(_ context.Context, userID int64) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &profile, nil
}

func (s *Store) UpsertProfile(_ context.Context, profile domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = profile
	return nil
}

func (s *Store) DeleteProfile(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, userID)
	delete(s.relations, userID)
	delete(s.activity, userID)
	return nil
}

func (s *Store) ListUserIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.profiles))
	for id := range s.profiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles), nil
}

func (s *Store) ViewedState(_ context.Context, userID int64) (map[int64]domain.ViewRelation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := make(map[int64]domain.ViewRelation, len(s.relations[userID]))
	for placeID, row := range s.relations[userID] {
		state[placeID] = row
	}
	return state, nil
}

// ReplaceRelation swaps the user's candidate rows wholesale. A row pointing
// at an unknown place is logged and skipped; the rest of the rebuild goes
// through. The swap happens under one lock so a concurrent read never sees
// the emptied intermediate state.
func (s *Store) ReplaceRelation(_ context.Context, userID int64, rows []domain.ViewRelation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[int64]domain.ViewRelation, len(rows))
	for _, row := range rows {
		if _, ok := s.places[row.PlaceID]; !ok {
			log.Printf("[memory-store] skipping relation row user=%d place=%d: unknown place", userID, row.PlaceID)
			continue
		}
		row.UserID = userID
		next[row.PlaceID] = row
	}
	s.relations[userID] = next
	return nil
}

func (s *Store) RelationExists(_ context.Context, userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.relations[userID]) > 0, nil
}

func (s *Store) ListPendingPlaces(_ context.Context, userID int64) ([]domain.Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make([]domain.Place, 0, len(s.relations[userID]))
	for placeID, row := range s.relations[userID] {
		if row.Viewed {
			continue
		}
		place, ok := s.places[placeID]
		if !ok {
			continue
		}
		pending = append(pending, place)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending, nil
}

func (s *Store) MarkViewed(_ context.Context, userID int64, placeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.relations[userID][placeID]
	if !ok {
		// Benign: a rebuild may have dropped the row mid-browse.
		return nil
	}
	row.Viewed = true
	s.relations[userID][placeID] = row
	return nil
}

func (s *Store) ResetViewed(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for placeID, row := range s.relations[userID] {
		row.Viewed = false
		s.relations[userID][placeID] = row
	}
	return nil
}

func (s *Store) CountViewed(_ context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, row := range s.relations[userID] {
		if row.Viewed {
			count++
		}
	}
	return count, nil
}

func (s *Store) GetActivity(_ context.Context, userID int64) (*domain.ActivitySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.activity[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &summary, nil
}

func (s *Store) UpsertActivity(_ context.Context, summary domain.ActivitySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity[summary.UserID] = summary
	return nil
}

func (s *Store) ListActiveSince(_ context.Context, since time.Time) ([]domain.ActivitySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]domain.ActivitySummary, 0, len(s.activity))
	for _, summary := range s.activity {
		if summary.ActivityDate.Before(since) {
			continue
		}
		active = append(active, summary)
	}
	sort.Slice(active, func(i, j int) bool { return active[i].UserID < active[j].UserID })
	return active, nil
}

func (s *Store) GetAdminAccount(_ context.Context, username string) (*domain.AdminAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.admins[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &account, nil
}

func (s *Store) ListAdminAccounts(_ context.Context) ([]domain.AdminAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]domain.AdminAccount, 0, len(s.admins))
	for _, account := range s.admins {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Username < accounts[j].Username })
	return accounts, nil
}

func (s *Store) CreateAdminAccount(_ context.Context, account domain.AdminAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.admins[account.Username]; exists {
		return store.ErrInvalidInput
	}
	s.admins[account.Username] = account
	return nil
}

func (s *Store) sortedPlacesLocked() []domain.Place {
	all := make([]domain.Place, 0, len(s.places))
	for _, place := range s.places {
		all = append(all, place)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func floatPtr(v float64) *float64 { return &v }

func seedPlaces() []domain.Place {
	return []domain.Place{
		{
			ID: 1, Name: "Grand Central Cafe", Address: "12 Market St",
			Description: "Busy corner cafe with all-day breakfast.",
			PrimaryTags: []string{"cafe", "restaurant"},
			MoodTagsA:   []string{"family", "cozy"},
			MoodTagsB:   []string{"coffee", "breakfast"},
			Rating:      floatPtr(4.5), Latitude: floatPtr(55.7601), Longitude: floatPtr(37.6186),
		},
		{
			ID: 2, Name: "Riverside Park", Address: "Embankment 3",
			Description: "Long riverside promenade with rental bikes.",
			PrimaryTags: []string{"park"},
			MoodTagsA:   []string{"family", "active"},
			MoodTagsB:   []string{"walk", "nature"},
			Latitude:    floatPtr(55.7489), Longitude: floatPtr(37.6113),
		},
		{
			ID: 3, Name: "City History Museum", Address: "Old Square 1",
			Description: "Permanent exhibition on the city's founding.",
			PrimaryTags: []string{"museum"},
			MoodTagsA:   []string{"culture"},
			MoodTagsB:   []string{"history", "indoor"},
			Rating:      floatPtr(4.8), Latitude: floatPtr(55.7522), Longitude: floatPtr(37.6156),
		},
		{
			ID: 4, Name: "Night Owl Bar", Address: "Lenina 44",
			Description: "Late-hours cocktail bar with live jazz on Fridays.",
			PrimaryTags: []string{"bar", "cafe"},
			MoodTagsA:   []string{"nightlife"},
			MoodTagsB:   []string{"cocktails", "music"},
			Rating:      floatPtr(4.2), Latitude: floatPtr(55.7655), Longitude: floatPtr(37.6247),
		},
		{
			ID: 5, Name: "Pop-up Craft Fair", Address: "Depot Hall",
			Description: "Weekend fair, schedule varies.",
			MoodTagsA:   []string{"family"},
			MoodTagsB:   []string{"shopping"},
		},
	}
}
