package recommendation

import (
	"math"
	"testing"

	"placescout/backend/internal/domain"
)

func coordPlace(id int64, lat, lon float64) domain.Place {
	return domain.Place{ID: id, Latitude: &lat, Longitude: &lon}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Moscow to Saint Petersburg, roughly 634 km.
	got := Haversine(55.7558, 37.6173, 59.9311, 30.3609)
	if got < 620 || got > 650 {
		t.Fatalf("Moscow-SPb distance = %.1f km, expected ~634", got)
	}
}

func TestHaversineZeroForSamePoint(t *testing.T) {
	if got := Haversine(55.75, 37.61, 55.75, 37.61); got != 0 {
		t.Fatalf("same point distance = %f, want 0", got)
	}
}

func TestSortByDistanceNearestFirst(t *testing.T) {
	places := []domain.Place{
		coordPlace(1, 59.9311, 30.3609), // ~634 km away
		coordPlace(2, 55.76, 37.62),     // nearby
		coordPlace(3, 55.9, 37.5),       // ~17 km away
	}

	got := SortByDistance(places, 55.7558, 37.6173)
	if len(got) != 3 {
		t.Fatalf("expected 3 places, got %d", len(got))
	}
	if got[0].ID != 2 || got[1].ID != 3 || got[2].ID != 1 {
		t.Fatalf("unexpected order: %d %d %d", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestSortByDistanceDropsInvalidCoordinates(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)
	places := []domain.Place{
		coordPlace(1, 55.76, 37.62),
		{ID: 2},
		{ID: 3, Latitude: &nan, Longitude: &nan},
		{ID: 4, Latitude: &inf, Longitude: &inf},
		coordPlace(5, 55.77, 37.63),
	}

	got := SortByDistance(places, 55.7558, 37.6173)
	if len(got) != 2 {
		t.Fatalf("expected invalid coordinates dropped, got %d places", len(got))
	}
	for _, place := range got {
		if place.ID != 1 && place.ID != 5 {
			t.Fatalf("unexpected survivor %d", place.ID)
		}
	}
}

func TestSortByDistanceIdempotent(t *testing.T) {
	places := []domain.Place{
		coordPlace(1, 55.9, 37.5),
		coordPlace(2, 55.76, 37.62),
		coordPlace(3, 55.76, 37.62), // same distance as 2, keeps input order
	}

	once := SortByDistance(places, 55.7558, 37.6173)
	twice := SortByDistance(once, 55.7558, 37.6173)
	if len(once) != len(twice) {
		t.Fatalf("length changed on resort: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Fatalf("resort changed order at %d: %d vs %d", i, once[i].ID, twice[i].ID)
		}
	}
	if once[0].ID != 2 || once[1].ID != 3 {
		t.Fatalf("ties must keep input order, got %d %d", once[0].ID, once[1].ID)
	}
}
