package recommendation

import (
	"math/rand"
	"sort"

	"placescout/backend/internal/domain"
)

// MaxCandidates bounds every plan regardless of catalog size.
const MaxCandidates = 400

type scoredPlace struct {
	place    domain.Place
	score    int
	firstTag string
	allTags  []string
}

// Plan selects and orders the bounded candidate list for a profile.
//
// A profile with no preferences at all gets a uniform random sample with no
// scoring. Otherwise every place is scored, filtered against the profile's
// filter set, ordered by descending score, and interleaved across first-tag
// buckets so that no single tag monopolizes the result.
func Plan(catalog []domain.Place, profile domain.Profile) []domain.Place {
	if len(catalog) == 0 {
		return nil
	}
	if !profile.HasPreferences() {
		return samplePlaces(catalog, MaxCandidates)
	}

	scored := make([]scoredPlace, 0, len(catalog))
	for _, place := range catalog {
		scored = append(scored, scoredPlace{
			place:    place,
			score:    Score(place, profile),
			firstTag: FirstPrimaryTag(place),
			allTags:  place.PrimaryTags,
		})
	}

	filtered := applyFilterSet(scored, profile.Filters)

	// Stable sort keeps catalog order on ties.
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].score > filtered[j].score
	})

	return balance(filtered, profile.Filters)
}

// applyFilterSet keeps the places admissible under the profile's filters.
// With a single filter the full tag set must contain it; with several, any
// intersection is enough. No filters keeps everything.
func applyFilterSet(scored []scoredPlace, filters []string) []scoredPlace {
	switch len(filters) {
	case 0:
		return scored
	case 1:
		only := filters[0]
		kept := make([]scoredPlace, 0, len(scored))
		for _, candidate := range scored {
			if containsTag(candidate.allTags, only) {
				kept = append(kept, candidate)
			}
		}
		return kept
	default:
		kept := make([]scoredPlace, 0, len(scored))
		for _, candidate := range scored {
			if intersects(candidate.allTags, filters) {
				kept = append(kept, candidate)
			}
		}
		return kept
	}
}

// balance interleaves the sorted candidates across first-tag buckets.
// Buckets pop from the front, so within each tag the score order survives.
func balance(sorted []scoredPlace, filters []string) []domain.Place {
	// A single filter needs no interleaving: everything already matches it.
	if len(filters) == 1 {
		return takePlaces(sorted, MaxCandidates)
	}

	buckets := make(map[string][]scoredPlace)
	bucketOrder := make([]string, 0, 16)
	for _, candidate := range sorted {
		if _, ok := buckets[candidate.firstTag]; !ok {
			bucketOrder = append(bucketOrder, candidate.firstTag)
		}
		buckets[candidate.firstTag] = append(buckets[candidate.firstTag], candidate)
	}

	// With several filters the rotation runs over the user's chosen tags,
	// not every observed one. A place admitted by a non-first tag still
	// competes in its first-tag bucket, which may never come up here; that
	// mirrors the inclusion rule in applyFilterSet.
	rotation := bucketOrder
	if len(filters) >= 2 {
		rotation = filters
	}

	balanced := make([]domain.Place, 0, MaxCandidates)
	for len(balanced) < MaxCandidates {
		added := false
		for _, tag := range rotation {
			bucket := buckets[tag]
			if len(bucket) == 0 {
				continue
			}
			balanced = append(balanced, bucket[0].place)
			buckets[tag] = bucket[1:]
			added = true
			if len(balanced) >= MaxCandidates {
				break
			}
		}
		if !added {
			break
		}
	}
	return balanced
}

func takePlaces(sorted []scoredPlace, limit int) []domain.Place {
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	places := make([]domain.Place, 0, len(sorted))
	for _, candidate := range sorted {
		places = append(places, candidate.place)
	}
	return places
}

func samplePlaces(catalog []domain.Place, limit int) []domain.Place {
	indexes := rand.Perm(len(catalog))
	if len(indexes) > limit {
		indexes = indexes[:limit]
	}
	sample := make([]domain.Place, 0, len(indexes))
	for _, i := range indexes {
		sample = append(sample, catalog[i])
	}
	return sample
}

func intersects(tags []string, filters []string) bool {
	for _, tag := range tags {
		if containsTag(filters, tag) {
			return true
		}
	}
	return false
}
