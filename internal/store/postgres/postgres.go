package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"placescout/backend/internal/domain"
	"placescout/backend/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema when it does not exist yet. Tag lists are
// stored comma-joined, action history as a JSON array.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS places (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			primary_tags TEXT NOT NULL DEFAULT '',
			mood_tags_a TEXT NOT NULL DEFAULT '',
			mood_tags_b TEXT NOT NULL DEFAULT '',
			photo_url TEXT NOT NULL DEFAULT '',
			website TEXT NOT NULL DEFAULT '',
			rating DOUBLE PRECISION,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id BIGINT PRIMARY KEY,
			categories TEXT NOT NULL DEFAULT '',
			wishes TEXT NOT NULL DEFAULT '',
			filters TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION
		)`,
		`CREATE TABLE IF NOT EXISTS users_places (
			user_id BIGINT NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
			place_id BIGINT NOT NULL REFERENCES places(id) ON DELETE CASCADE,
			viewed BOOLEAN NOT NULL DEFAULT FALSE,
			expires_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, place_id)
		)`,
		`CREATE TABLE IF NOT EXISTS activity_logs (
			user_id BIGINT PRIMARY KEY REFERENCES profiles(user_id) ON DELETE CASCADE,
			activity_date TIMESTAMPTZ NOT NULL,
			viewed_places_count INTEGER NOT NULL DEFAULT 0,
			has_geolocation BOOLEAN NOT NULL DEFAULT FALSE,
			last_actions TEXT NOT NULL DEFAULT '[]',
			total_activities INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS admin_accounts (
			username TEXT PRIMARY KEY,
			password TEXT NOT NULL,
			role TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const placeColumns = `id, name, address, description, primary_tags, mood_tags_a, mood_tags_b, photo_url, website, rating, latitude, longitude`

func (s *Store) ListPlaces(ctx context.Context) ([]domain.Place, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+placeColumns+` FROM places ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlaces(rows)
}

func (s *Store) SamplePlaces(ctx context.Context, limit int) ([]domain.Place, error) {
	if limit < 1 {
		limit = 400
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+placeColumns+`
		FROM places
		ORDER BY RANDOM()
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlaces(rows)
}

func (s *Store) GetPlace(ctx context.Context, placeID int64) (*domain.Place, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+placeColumns+` FROM places WHERE id = $1`, placeID)
	place, err := scanPlace(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return place, nil
}

func (s *Store) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	var (
		profile    domain.Profile
		categories string
		wishes     string
		filters    string
		lat        sql.NullFloat64
		lon        sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, categories, wishes, filters, latitude, longitude
		FROM profiles
		WHERE user_id = $1
	`, userID).Scan(&profile.UserID, &categories, &wishes, &filters, &lat, &lon)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	profile.Categories = splitTags(categories)
	profile.Wishes = splitTags(wishes)
	profile.Filters = splitTags(filters)
	if lat.Valid && lon.Valid {
		profile.Latitude = &lat.Float64
		profile.Longitude = &lon.Float64
	}
	return &profile, nil
}

func (s *Store) UpsertProfile(ctx context.Context, profile domain.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, categories, wishes, filters, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id)
		DO UPDATE SET categories = $2, wishes = $3, filters = $4, latitude = $5, longitude = $6
	`, profile.UserID, joinTags(profile.Categories), joinTags(profile.Wishes), joinTags(profile.Filters),
		profile.Latitude, profile.Longitude)
	return err
}

func (s *Store) DeleteProfile(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	return err
}

func (s *Store) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM profiles ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0, 128)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count)
	return count, err
}

func (s *Store) ViewedState(ctx context.Context, userID int64) (map[int64]domain.ViewRelation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT place_id, viewed, expires_at
		FROM users_places
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	state := make(map[int64]domain.ViewRelation, 400)
	for rows.Next() {
		row := domain.ViewRelation{UserID: userID}
		if err := rows.Scan(&row.PlaceID, &row.Viewed, &row.ExpiresAt); err != nil {
			return nil, err
		}
		state[row.PlaceID] = row
	}
	return state, rows.Err()
}

// ReplaceRelation swaps the user's candidate rows inside one transaction, so
// a concurrent pending read sees either the old relation or the new one,
// never the emptied middle. Inserts are conflict-tolerant: a duplicate
// candidate cannot poison the transaction.
func (s *Store) ReplaceRelation(ctx context.Context, userID int64, relationRows []domain.ViewRelation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM users_places WHERE user_id = $1`, userID); err != nil {
		return err
	}

	for _, row := range relationRows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users_places (user_id, place_id, viewed, expires_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, place_id) DO NOTHING
		`, userID, row.PlaceID, row.Viewed, row.ExpiresAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) RelationExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users_places WHERE user_id = $1)
	`, userID).Scan(&exists)
	return exists, err
}

func (s *Store) ListPendingPlaces(ctx context.Context, userID int64) ([]domain.Place, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.address, p.description, p.primary_tags, p.mood_tags_a, p.mood_tags_b,
			p.photo_url, p.website, p.rating, p.latitude, p.longitude
		FROM places AS p
		JOIN users_places AS up ON up.place_id = p.id
		WHERE up.user_id = $1 AND up.viewed = FALSE
		ORDER BY p.id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPlaces(rows)
}

func (s *Store) MarkViewed(ctx context.Context, userID int64, placeID int64) error {
	// Zero rows affected is fine: a rebuild may have dropped the row.
	_, err := s.db.ExecContext(ctx, `
		UPDATE users_places
		SET viewed = TRUE
		WHERE user_id = $1 AND place_id = $2
	`, userID, placeID)
	return err
}

func (s *Store) ResetViewed(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users_places
		SET viewed = FALSE
		WHERE user_id = $1
	`, userID)
	return err
}

func (s *Store) CountViewed(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM users_places
		WHERE user_id = $1 AND viewed = TRUE
	`, userID).Scan(&count)
	return count, err
}

func (s *Store) GetActivity(ctx context.Context, userID int64) (*domain.ActivitySummary, error) {
	var (
		summary domain.ActivitySummary
		actions string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, activity_date, viewed_places_count, has_geolocation, last_actions, total_activities
		FROM activity_logs
		WHERE user_id = $1
	`, userID).Scan(&summary.UserID, &summary.ActivityDate, &summary.ViewedPlacesCount,
		&summary.HasGeolocation, &actions, &summary.TotalActivities)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	summary.ActivityDate = summary.ActivityDate.UTC()
	summary.LastActions = decodeActions(actions)
	return &summary, nil
}

func (s *Store) UpsertActivity(ctx context.Context, summary domain.ActivitySummary) error {
	actions, err := json.Marshal(summary.LastActions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO activity_logs (user_id, activity_date, viewed_places_count, has_geolocation, last_actions, total_activities)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id)
		DO UPDATE SET activity_date = $2, viewed_places_count = $3, has_geolocation = $4, last_actions = $5, total_activities = $6
	`, summary.UserID, summary.ActivityDate, summary.ViewedPlacesCount, summary.HasGeolocation,
		string(actions), summary.TotalActivities)
	return err
}

func (s *Store) ListActiveSince(ctx context.Context, since time.Time) ([]domain.ActivitySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, activity_date, viewed_places_count, has_geolocation, last_actions, total_activities
		FROM activity_logs
		WHERE activity_date >= $1
		ORDER BY user_id
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	active := make([]domain.ActivitySummary, 0, 64)
	for rows.Next() {
		var (
			summary domain.ActivitySummary
			actions string
		)
		if err := rows.Scan(&summary.UserID, &summary.ActivityDate, &summary.ViewedPlacesCount,
			&summary.HasGeolocation, &actions, &summary.TotalActivities); err != nil {
			return nil, err
		}
		summary.ActivityDate = summary.ActivityDate.UTC()
		summary.LastActions = decodeActions(actions)
		active = append(active, summary)
	}
	return active, rows.Err()
}

func (s *Store) GetAdminAccount(ctx context.Context, username string) (*domain.AdminAccount, error) {
	var account domain.AdminAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM admin_accounts
		WHERE username = $1
	`, username).Scan(&account.Username, &account.Password, &account.Role, &account.Active, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (s *Store) ListAdminAccounts(ctx context.Context) ([]domain.AdminAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM admin_accounts
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]domain.AdminAccount, 0, 8)
	for rows.Next() {
		var account domain.AdminAccount
		if err := rows.Scan(&account.Username, &account.Password, &account.Role, &account.Active, &account.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (s *Store) CreateAdminAccount(ctx context.Context, account domain.AdminAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_accounts (username, password, role, active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, account.Username, account.Password, account.Role, account.Active, account.CreatedAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlace(scanner rowScanner) (*domain.Place, error) {
	var (
		place       domain.Place
		primaryTags string
		moodTagsA   string
		moodTagsB   string
		rating      sql.NullFloat64
		lat         sql.NullFloat64
		lon         sql.NullFloat64
	)
	err := scanner.Scan(&place.ID, &place.Name, &place.Address, &place.Description,
		&primaryTags, &moodTagsA, &moodTagsB, &place.PhotoURL, &place.Website,
		&rating, &lat, &lon)
	if err != nil {
		return nil, err
	}

	place.PrimaryTags = splitTags(primaryTags)
	place.MoodTagsA = splitTags(moodTagsA)
	place.MoodTagsB = splitTags(moodTagsB)
	if rating.Valid {
		place.Rating = &rating.Float64
	}
	if lat.Valid && lon.Valid {
		place.Latitude = &lat.Float64
		place.Longitude = &lon.Float64
	}
	return &place, nil
}

func scanPlaces(rows *sql.Rows) ([]domain.Place, error) {
	places := make([]domain.Place, 0, 128)
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, *place)
	}
	return places, rows.Err()
}

func splitTags(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func decodeActions(raw string) []string {
	if raw == "" {
		return nil
	}
	var actions []string
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		return nil
	}
	return actions
}
