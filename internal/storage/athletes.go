package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/paceline/internal/models"
)

// GetAthlete retrieves one athlete by ID. Returns nil without error when
// no such athlete exists.
func (db *DB) GetAthlete(ctx context.Context, id int) (*models.AthleteRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, name, coach_name, ftp_watts, max_hr, resting_hr, created_at
		 FROM athletes WHERE id = $1`, id)

	var a models.AthleteRow
	err := row.Scan(&a.ID, &a.Name, &a.CoachName, &a.FTPWatts, &a.MaxHR, &a.RestingHR, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying athlete: %w", err)
	}
	return &a, nil
}

// ListAthletes retrieves all athletes ordered by name.
func (db *DB) ListAthletes(ctx context.Context) ([]models.AthleteRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, coach_name, ftp_watts, max_hr, resting_hr, created_at
		 FROM athletes ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying athletes: %w", err)
	}
	defer rows.Close()

	var result []models.AthleteRow
	for rows.Next() {
		var a models.AthleteRow
		if err := rows.Scan(&a.ID, &a.Name, &a.CoachName, &a.FTPWatts, &a.MaxHR, &a.RestingHR, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning athlete: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// CreateAthlete inserts an athlete and returns the assigned ID.
func (db *DB) CreateAthlete(ctx context.Context, a models.AthleteRow) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO athletes (name, coach_name, ftp_watts, max_hr, resting_hr)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		a.Name, a.CoachName, a.FTPWatts, a.MaxHR, a.RestingHR).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting athlete: %w", err)
	}
	return id, nil
}

// UpdateAthleteProfile updates the FTP/HR reference values on an athlete
// record. Nil clears a value (zone display becomes unavailable).
func (db *DB) UpdateAthleteProfile(ctx context.Context, id int, ftpWatts, maxHR, restingHR *float64) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE athletes SET ftp_watts = $2, max_hr = $3, resting_hr = $4 WHERE id = $1`,
		id, ftpWatts, maxHR, restingHR)
	if err != nil {
		return fmt.Errorf("updating athlete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("athlete %d not found", id)
	}
	return nil
}
