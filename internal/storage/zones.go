package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/paceline/internal/models"
	"github.com/meltforce/paceline/internal/plan"
)

// UpsertZoneScheme stores an athlete's zone scheme. The index-parallel
// power/HR correspondence is validated here, where the scheme is defined;
// a mismatched scheme never reaches the database.
func (db *DB) UpsertZoneScheme(ctx context.Context, row models.ZoneSchemeRow) error {
	if err := row.Scheme.Validate(); err != nil {
		return fmt.Errorf("rejecting zone scheme: %w", err)
	}

	body, err := json.Marshal(row.Scheme)
	if err != nil {
		return fmt.Errorf("encoding zone scheme: %w", err)
	}

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO zone_schemes (athlete_id, name, scheme)
		 VALUES ($1,$2,$3)
		 ON CONFLICT (athlete_id) DO UPDATE SET name = $2, scheme = $3, updated_at = now()`,
		row.AthleteID, row.Name, body)
	if err != nil {
		return fmt.Errorf("upserting zone scheme: %w", err)
	}
	return nil
}

// GetZoneScheme retrieves an athlete's zone scheme, or nil when none is
// stored (the caller falls back to the configured default).
func (db *DB) GetZoneScheme(ctx context.Context, athleteID int) (*models.ZoneSchemeRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT athlete_id, name, scheme, updated_at FROM zone_schemes WHERE athlete_id = $1`,
		athleteID)

	var zs models.ZoneSchemeRow
	var body []byte
	err := row.Scan(&zs.AthleteID, &zs.Name, &body, &zs.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying zone scheme: %w", err)
	}
	if err := json.Unmarshal(body, &zs.Scheme); err != nil {
		return nil, fmt.Errorf("decoding zone scheme: %w", err)
	}
	return &zs, nil
}

// SchemeForAthlete returns the athlete's stored scheme or the given
// fallback when none exists.
func (db *DB) SchemeForAthlete(ctx context.Context, athleteID int, fallback plan.ZoneScheme) (plan.ZoneScheme, error) {
	row, err := db.GetZoneScheme(ctx, athleteID)
	if err != nil {
		return plan.ZoneScheme{}, err
	}
	if row == nil {
		return fallback, nil
	}
	return row.Scheme, nil
}
