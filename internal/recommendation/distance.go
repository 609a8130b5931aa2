package recommendation

import (
	"log"
	"math"
	"sort"

	"placescout/backend/internal/domain"
)

const earthRadiusKm = 6371

// SortByDistance orders places by great-circle distance from the given
// point, nearest first. Places without usable coordinates are dropped, not
// erred on. The sort is stable: ties keep input order, and reapplying the
// sort does not change the result.
func SortByDistance(places []domain.Place, userLat float64, userLon float64) []domain.Place {
	type placeDistance struct {
		place domain.Place
		km    float64
	}

	withDistance := make([]placeDistance, 0, len(places))
	for _, place := range places {
		lat, lon, ok := placeCoordinates(place)
		if !ok {
			log.Printf("[recommendation] place id=%d excluded from distance sort: missing or invalid coordinates", place.ID)
			continue
		}
		withDistance = append(withDistance, placeDistance{
			place: place,
			km:    Haversine(userLat, userLon, lat, lon),
		})
	}

	sort.SliceStable(withDistance, func(i, j int) bool {
		return withDistance[i].km < withDistance[j].km
	})

	ordered := make([]domain.Place, 0, len(withDistance))
	for _, entry := range withDistance {
		ordered = append(ordered, entry.place)
	}
	return ordered
}

// Haversine returns the great-circle distance between two points in km.
func Haversine(lat1 float64, lon1 float64, lat2 float64, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func placeCoordinates(place domain.Place) (float64, float64, bool) {
	if place.Latitude == nil || place.Longitude == nil {
		return 0, 0, false
	}
	lat, lon := *place.Latitude, *place.Longitude
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return 0, 0, false
	}
	return lat, lon, true
}
