package recommendation

import "placescout/backend/internal/domain"

// OtherTag buckets places that carry no primary taxonomy tag.
const OtherTag = "other"

const (
	filterMatchWeight = 300
	categoryWeight    = 100
	wishWeight        = 50
)

// FirstPrimaryTag returns the place's balancing bucket: its first primary
// tag, or the sentinel OtherTag when the tag list is empty.
func FirstPrimaryTag(place domain.Place) string {
	if len(place.PrimaryTags) == 0 {
		return OtherTag
	}
	return place.PrimaryTags[0]
}

// Score ranks a place against a profile. Only the first primary tag counts
// toward the filter bonus, so a multi-tag place cannot collect it more than
// once; category and wish overlaps are softer signals in descending weight.
func Score(place domain.Place, profile domain.Profile) int {
	score := 0
	if len(profile.Filters) > 0 && containsTag(profile.Filters, FirstPrimaryTag(place)) {
		score += filterMatchWeight
	}
	score += categoryWeight * overlapCount(profile.Categories, place.MoodTagsA)
	score += wishWeight * overlapCount(profile.Wishes, place.MoodTagsB)
	return score
}

func containsTag(tags []string, tag string) bool {
	for _, candidate := range tags {
		if candidate == tag {
			return true
		}
	}
	return false
}

func overlapCount(left []string, right []string) int {
	if len(left) == 0 || len(right) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(left))
	for _, tag := range left {
		seen[tag] = struct{}{}
	}
	count := 0
	for _, tag := range right {
		if _, ok := seen[tag]; ok {
			count++
			delete(seen, tag)
		}
	}
	return count
}
