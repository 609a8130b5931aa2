package recommendation

import (
	"testing"

	"placescout/backend/internal/domain"
)

func TestScoreWeights(t *testing.T) {
	profile := domain.Profile{
		Categories: []string{"family", "cozy"},
		Wishes:     []string{"coffee", "walk"},
		Filters:    []string{"cafe"},
	}

	cases := []struct {
		name  string
		place domain.Place
		want  int
	}{
		{
			name: "category and wish overlaps without filter match",
			place: domain.Place{
				PrimaryTags: []string{"park"},
				MoodTagsA:   []string{"family", "active"},
				MoodTagsB:   []string{"walk", "nature"},
			},
			want: 100 + 50,
		},
		{
			name: "filter match on first tag plus one category",
			place: domain.Place{
				PrimaryTags: []string{"cafe", "restaurant"},
				MoodTagsA:   []string{"cozy"},
				MoodTagsB:   []string{"wine"},
			},
			want: 300 + 100,
		},
		{
			name: "filter tag in second position does not collect the bonus",
			place: domain.Place{
				PrimaryTags: []string{"restaurant", "cafe"},
				MoodTagsA:   []string{"family", "cozy"},
				MoodTagsB:   []string{"coffee", "walk"},
			},
			want: 200 + 100,
		},
		{
			name:  "no overlaps at all",
			place: domain.Place{PrimaryTags: []string{"gym"}},
			want:  0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(tc.place, profile); got != tc.want {
				t.Fatalf("score = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScoreWithoutFiltersSkipsFilterBonus(t *testing.T) {
	profile := domain.Profile{Categories: []string{"family"}}
	place := domain.Place{
		PrimaryTags: []string{"cafe"},
		MoodTagsA:   []string{"family"},
	}
	if got := Score(place, profile); got != 100 {
		t.Fatalf("score = %d, want 100", got)
	}
}

func TestScoreDuplicateTagsCountOnce(t *testing.T) {
	profile := domain.Profile{Categories: []string{"family"}}
	place := domain.Place{
		MoodTagsA: []string{"family", "family", "family"},
	}
	if got := Score(place, profile); got != 100 {
		t.Fatalf("duplicate overlaps must count once, score = %d", got)
	}
}

func TestFirstPrimaryTag(t *testing.T) {
	if got := FirstPrimaryTag(domain.Place{PrimaryTags: []string{"bar", "cafe"}}); got != "bar" {
		t.Fatalf("first tag = %q, want bar", got)
	}
	if got := FirstPrimaryTag(domain.Place{}); got != OtherTag {
		t.Fatalf("untagged place must fall into %q, got %q", OtherTag, got)
	}
}

func TestScoreUntaggedPlaceCanMatchOtherFilter(t *testing.T) {
	profile := domain.Profile{Filters: []string{OtherTag}}
	place := domain.Place{Name: "mystery venue"}
	if got := Score(place, profile); got != 300 {
		t.Fatalf("sentinel bucket should collect the filter bonus, score = %d", got)
	}
}
