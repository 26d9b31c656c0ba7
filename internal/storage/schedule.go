package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/paceline/internal/models"
	"github.com/meltforce/paceline/internal/plan"
)

// InsertScheduledWorkout places a workout on an athlete's calendar. When
// the entry carries no structure override, the planned scalars are copied
// from the template; otherwise they are recomputed from the override.
func (db *DB) InsertScheduledWorkout(ctx context.Context, row models.ScheduledWorkoutRow) error {
	if row.StructureOverride != nil {
		row.TSSPlanned, row.IFPlanned, row.TotalTimePlanned = plannedScalars(row.StructureOverride)
	} else if row.TemplateID != nil {
		tpl, err := db.GetTemplate(ctx, *row.TemplateID)
		if err != nil {
			return fmt.Errorf("resolving template for schedule entry: %w", err)
		}
		if tpl == nil {
			return fmt.Errorf("scheduling against unknown template %s", *row.TemplateID)
		}
		row.TSSPlanned, row.IFPlanned, row.TotalTimePlanned = tpl.TSSPlanned, tpl.IFPlanned, tpl.TotalTimePlanned
	}

	body, err := marshalStructure(row.StructureOverride)
	if err != nil {
		return err
	}

	_, err = db.Pool.Exec(ctx,
		`INSERT INTO scheduled_workouts (id, athlete_id, template_id, date, structure_override,
		 tss_planned, if_planned, total_time_planned, notes)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		row.ID, row.AthleteID, row.TemplateID, row.Date, body,
		row.TSSPlanned, row.IFPlanned, row.TotalTimePlanned, row.Notes)
	if err != nil {
		return fmt.Errorf("inserting scheduled workout: %w", err)
	}
	return nil
}

// QuerySchedule retrieves an athlete's calendar entries in a date range.
func (db *DB) QuerySchedule(ctx context.Context, athleteID int, start, end time.Time) ([]models.ScheduledWorkoutRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, athlete_id, template_id, date, structure_override,
		        tss_planned, if_planned, total_time_planned, notes, created_at
		 FROM scheduled_workouts
		 WHERE athlete_id = $1 AND date >= $2 AND date < $3
		 ORDER BY date ASC`,
		athleteID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying schedule: %w", err)
	}
	defer rows.Close()

	var result []models.ScheduledWorkoutRow
	for rows.Next() {
		var sw models.ScheduledWorkoutRow
		var body []byte
		if err := rows.Scan(&sw.ID, &sw.AthleteID, &sw.TemplateID, &sw.Date, &body,
			&sw.TSSPlanned, &sw.IFPlanned, &sw.TotalTimePlanned, &sw.Notes, &sw.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning scheduled workout: %w", err)
		}
		s, err := unmarshalStructure(body)
		if err != nil {
			return nil, err
		}
		sw.StructureOverride = s
		result = append(result, sw)
	}
	return result, rows.Err()
}

// GetScheduledWorkout retrieves one calendar entry. Returns nil without
// error when no such entry exists.
func (db *DB) GetScheduledWorkout(ctx context.Context, id uuid.UUID) (*models.ScheduledWorkoutRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, athlete_id, template_id, date, structure_override,
		        tss_planned, if_planned, total_time_planned, notes, created_at
		 FROM scheduled_workouts WHERE id = $1`, id)

	var sw models.ScheduledWorkoutRow
	var body []byte
	err := row.Scan(&sw.ID, &sw.AthleteID, &sw.TemplateID, &sw.Date, &body,
		&sw.TSSPlanned, &sw.IFPlanned, &sw.TotalTimePlanned, &sw.Notes, &sw.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying scheduled workout: %w", err)
	}
	s, err := unmarshalStructure(body)
	if err != nil {
		return nil, err
	}
	sw.StructureOverride = s
	return &sw, nil
}

// ResolveStructure returns the structure a calendar entry actually runs:
// the override when present, the template's structure otherwise. Nil when
// the entry has neither (a bare note on the calendar).
func (db *DB) ResolveStructure(ctx context.Context, sw *models.ScheduledWorkoutRow) (*plan.Structure, error) {
	if sw.StructureOverride != nil {
		return sw.StructureOverride, nil
	}
	if sw.TemplateID == nil {
		return nil, nil
	}
	tpl, err := db.GetTemplate(ctx, *sw.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("resolving template structure: %w", err)
	}
	if tpl == nil {
		return nil, nil
	}
	return tpl.Structure, nil
}

// SetStructureOverride stores an edited copy on a calendar entry and
// recomputes its planned scalars from the override. The template is left
// untouched. Returns false when the entry is unknown.
func (db *DB) SetStructureOverride(ctx context.Context, id uuid.UUID, s *plan.Structure) (bool, error) {
	body, err := marshalStructure(s)
	if err != nil {
		return false, err
	}
	tss, ifactor, hours := plannedScalars(s)

	tag, err := db.Pool.Exec(ctx,
		`UPDATE scheduled_workouts
		 SET structure_override = $2, tss_planned = $3, if_planned = $4, total_time_planned = $5
		 WHERE id = $1`,
		id, body, tss, ifactor, hours)
	if err != nil {
		return false, fmt.Errorf("setting structure override: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteScheduledWorkout removes a calendar entry.
func (db *DB) DeleteScheduledWorkout(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM scheduled_workouts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting scheduled workout: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// WeeklyLoad is the aggregated planned load for one calendar week.
type WeeklyLoad struct {
	WeekStart  time.Time `json:"week_start"`
	Workouts   int       `json:"workouts"`
	TSSPlanned float64   `json:"tss_planned"`
	Hours      float64   `json:"hours"`
}

// QueryWeeklyLoad aggregates planned TSS and hours per week for the
// coach's load chart.
func (db *DB) QueryWeeklyLoad(ctx context.Context, athleteID int, start, end time.Time) ([]WeeklyLoad, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT date_trunc('week', date) AS week_start,
		        COUNT(*)::int,
		        COALESCE(SUM(tss_planned), 0),
		        COALESCE(SUM(total_time_planned), 0)
		 FROM scheduled_workouts
		 WHERE athlete_id = $1 AND date >= $2 AND date < $3
		 GROUP BY week_start
		 ORDER BY week_start ASC`,
		athleteID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying weekly load: %w", err)
	}
	defer rows.Close()

	var result []WeeklyLoad
	for rows.Next() {
		var wl WeeklyLoad
		if err := rows.Scan(&wl.WeekStart, &wl.Workouts, &wl.TSSPlanned, &wl.Hours); err != nil {
			return nil, fmt.Errorf("scanning weekly load: %w", err)
		}
		result = append(result, wl)
	}
	return result, rows.Err()
}
