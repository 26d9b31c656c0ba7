package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/paceline/internal/models"
	"github.com/meltforce/paceline/internal/plan"
)

// plannedScalars derives the denormalized load fields from a structure.
// Total time is reported in hours to match the calendar summary fields.
func plannedScalars(s *plan.Structure) (tss, ifactor, hours float64) {
	tl := plan.Flatten(s)
	load := plan.Estimate(tl.Segments)
	return load.TSS, load.IntensityFactor, tl.TotalDuration / 3600
}

func marshalStructure(s *plan.Structure) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding structure: %w", err)
	}
	return b, nil
}

func unmarshalStructure(b []byte) (*plan.Structure, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var s plan.Structure
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decoding structure: %w", err)
	}
	return &s, nil
}

// InsertTemplate inserts a workout template, recomputing the planned
// scalars from its structure.
func (db *DB) InsertTemplate(ctx context.Context, row models.WorkoutTemplateRow) error {
	body, err := marshalStructure(row.Structure)
	if err != nil {
		return err
	}
	tss, ifactor, hours := plannedScalars(row.Structure)

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO workout_templates (id, name, description, sport, structure,
		 tss_planned, if_planned, total_time_planned)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		row.ID, row.Name, row.Description, row.Sport, body, tss, ifactor, hours)
	if err != nil {
		return fmt.Errorf("inserting template: %w", err)
	}
	return nil
}

// UpdateTemplate replaces a template's metadata and structure and
// recomputes the planned scalars. Returns false when the ID is unknown.
func (db *DB) UpdateTemplate(ctx context.Context, row models.WorkoutTemplateRow) (bool, error) {
	body, err := marshalStructure(row.Structure)
	if err != nil {
		return false, err
	}
	tss, ifactor, hours := plannedScalars(row.Structure)

	tag, err := db.Pool.Exec(ctx,
		`UPDATE workout_templates
		 SET name = $2, description = $3, sport = $4, structure = $5,
		     tss_planned = $6, if_planned = $7, total_time_planned = $8, updated_at = now()
		 WHERE id = $1`,
		row.ID, row.Name, row.Description, row.Sport, body, tss, ifactor, hours)
	if err != nil {
		return false, fmt.Errorf("updating template: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetTemplate retrieves one template with its full structure. Returns nil
// without error when no such template exists.
func (db *DB) GetTemplate(ctx context.Context, id uuid.UUID) (*models.WorkoutTemplateRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, name, description, sport, structure,
		        tss_planned, if_planned, total_time_planned, created_at, updated_at
		 FROM workout_templates WHERE id = $1`, id)

	var t models.WorkoutTemplateRow
	var body []byte
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Sport, &body,
		&t.TSSPlanned, &t.IFPlanned, &t.TotalTimePlanned, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying template: %w", err)
	}
	s, err := unmarshalStructure(body)
	if err != nil {
		return nil, err
	}
	t.Structure = s
	return &t, nil
}

// ListTemplates retrieves template summaries (no structure payload) with
// an optional sport filter.
func (db *DB) ListTemplates(ctx context.Context, sport string) ([]models.WorkoutTemplateRow, error) {
	query := `SELECT id, name, description, sport,
	                 tss_planned, if_planned, total_time_planned, created_at, updated_at
	          FROM workout_templates`
	args := []any{}
	if sport != "" {
		query += ` WHERE sport = $1`
		args = append(args, sport)
	}
	query += ` ORDER BY name ASC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutTemplateRow
	for rows.Next() {
		var t models.WorkoutTemplateRow
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Sport,
			&t.TSSPlanned, &t.IFPlanned, &t.TotalTimePlanned, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// DeleteTemplate removes a template. Scheduled workouts keep their own
// structure copies, so deletion does not cascade into the calendar.
func (db *DB) DeleteTemplate(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM workout_templates WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting template: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
