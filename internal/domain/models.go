package domain

import "time"

// Place is one catalog row. PrimaryTags is the operational taxonomy (the
// first tag doubles as the balancing bucket); MoodTagsA and MoodTagsB are two
// independent tag sets matched against a profile's categories and wishes.
type Place struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Description string   `json:"description"`
	PrimaryTags []string `json:"primary_tags"`
	MoodTagsA   []string `json:"mood_tags_a"`
	MoodTagsB   []string `json:"mood_tags_b"`
	PhotoURL    string   `json:"photo_url,omitempty"`
	Website     string   `json:"website,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// Profile stores a user's preference selections and last known geolocation.
// Latitude and Longitude are either both set or both nil.
type Profile struct {
	UserID     int64    `json:"user_id"`
	Categories []string `json:"categories"`
	Wishes     []string `json:"wishes"`
	Filters    []string `json:"filters"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

// HasPreferences reports whether any preference set is non-empty. A profile
// without preferences gets the cold-start random sample instead of scoring.
func (p Profile) HasPreferences() bool {
	return len(p.Categories) > 0 || len(p.Wishes) > 0 || len(p.Filters) > 0
}

// HasLocation reports whether the profile carries usable coordinates.
func (p Profile) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// ViewRelation is one row of a user's candidate set: whether the place has
// been shown, and when the viewed flag expires and is carried over as
// unviewed on the next rebuild.
type ViewRelation struct {
	UserID    int64     `json:"user_id"`
	PlaceID   int64     `json:"place_id"`
	Viewed    bool      `json:"viewed"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Session is the ephemeral browsing cursor. It snapshots the pending place
// ids at browse time; a relation rebuild invalidates it wholesale.
type Session struct {
	SnapshotID     string  `json:"snapshot_id"`
	PlaceIDs       []int64 `json:"place_ids"`
	Index          int     `json:"index"`
	SortByDistance bool    `json:"sort_by_distance"`
}

// Direction is a typed navigation command from the transport layer.
type Direction string

const (
	DirectionNext Direction = "next"
	DirectionPrev Direction = "prev"
)

// BrowseStatus tells the transport layer which UI state to render.
type BrowseStatus string

const (
	BrowseOK        BrowseStatus = "ok"
	BrowseAtStart   BrowseStatus = "at_start"
	BrowseExhausted BrowseStatus = "exhausted"
)

type BrowseResult struct {
	Status BrowseStatus `json:"status"`
	Place  *Place       `json:"place,omitempty"`
	Index  int          `json:"index"`
	Total  int          `json:"total"`
}

// ActivitySummary is the per-user activity log row: one row per user,
// updated in place on every interaction.
type ActivitySummary struct {
	UserID            int64     `json:"user_id"`
	ActivityDate      time.Time `json:"activity_date"`
	ViewedPlacesCount int       `json:"viewed_places_count"`
	HasGeolocation    bool      `json:"has_geolocation"`
	LastActions       []string  `json:"last_actions"`
	TotalActivities   int       `json:"total_activities"`
}

type CategoriesUpdateRequest struct {
	Categories []string `json:"categories"`
}

type WishesUpdateRequest struct {
	Wishes []string `json:"wishes"`
}

type FiltersUpdateRequest struct {
	Filters []string `json:"filters"`
}

type LocationUpdateRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type NavigateRequest struct {
	Direction Direction `json:"direction"`
}

type ActivityTouchRequest struct {
	Action string `json:"action"`
}

type PlacesResponse struct {
	Places []Place `json:"places"`
}

type UsersCountResponse struct {
	Count int `json:"count"`
}

type ActiveTodayResponse struct {
	Users []ActivitySummary `json:"users"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

// AdminAccount is an internal persistence model for auth credentials.
type AdminAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}
