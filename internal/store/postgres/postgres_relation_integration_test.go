package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"placescout/backend/internal/domain"
)

func TestReplaceRelationSwapsRowsAtomically(t *testing.T) {
	databaseURL := os.Getenv("PLACESCOUT_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set PLACESCOUT_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	userID := time.Now().UnixNano()

	var placeA, placeB int64
	if err := s.db.QueryRowContext(ctx, `
		INSERT INTO places (name, primary_tags) VALUES ('relation-it-a', 'cafe') RETURNING id
	`).Scan(&placeA); err != nil {
		t.Fatalf("insert place a: %v", err)
	}
	if err := s.db.QueryRowContext(ctx, `
		INSERT INTO places (name, primary_tags) VALUES ('relation-it-b', 'park') RETURNING id
	`).Scan(&placeB); err != nil {
		t.Fatalf("insert place b: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM places WHERE id IN ($1, $2)`, placeA, placeB)
	})

	if err := s.UpsertProfile(ctx, domain.Profile{UserID: userID}); err != nil {
		t.Fatalf("upsert profile: %v", err)
	}

	expires := time.Now().UTC().Add(7 * 24 * time.Hour)
	if err := s.ReplaceRelation(ctx, userID, []domain.ViewRelation{
		{UserID: userID, PlaceID: placeA, Viewed: true, ExpiresAt: expires},
	}); err != nil {
		t.Fatalf("first replace: %v", err)
	}

	if err := s.ReplaceRelation(ctx, userID, []domain.ViewRelation{
		{UserID: userID, PlaceID: placeA, Viewed: true, ExpiresAt: expires},
		{UserID: userID, PlaceID: placeB, Viewed: false, ExpiresAt: expires},
	}); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	state, err := s.ViewedState(ctx, userID)
	if err != nil {
		t.Fatalf("viewed state: %v", err)
	}
	if len(state) != 2 {
		t.Fatalf("expected 2 relation rows, got %d", len(state))
	}
	if !state[placeA].Viewed {
		t.Fatal("viewed flag must survive the swap")
	}
	if state[placeB].Viewed {
		t.Fatal("new row must start unviewed")
	}

	pending, err := s.ListPendingPlaces(ctx, userID)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != placeB {
		t.Fatalf("expected only place b pending, got %v", pending)
	}

	// Cascade check: dropping the profile removes the relation rows.
	if err := s.DeleteProfile(ctx, userID); err != nil {
		t.Fatalf("delete profile: %v", err)
	}
	exists, err := s.RelationExists(ctx, userID)
	if err != nil {
		t.Fatalf("relation exists: %v", err)
	}
	if exists {
		t.Fatalf("relation rows must cascade with profile %d", userID)
	}
}
