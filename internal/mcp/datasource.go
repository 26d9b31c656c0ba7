package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/models"
	"github.com/meltforce/paceline/internal/plan"
	"github.com/meltforce/paceline/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	GetAthlete(ctx context.Context, id int) (*models.AthleteRow, error)
	SchemeForAthlete(ctx context.Context, athleteID int, fallback plan.ZoneScheme) (plan.ZoneScheme, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*models.WorkoutTemplateRow, error)
	ListTemplates(ctx context.Context, sport string) ([]models.WorkoutTemplateRow, error)
	QuerySchedule(ctx context.Context, athleteID int, start, end time.Time) ([]models.ScheduledWorkoutRow, error)
	GetScheduledWorkout(ctx context.Context, id uuid.UUID) (*models.ScheduledWorkoutRow, error)
	ResolveStructure(ctx context.Context, sw *models.ScheduledWorkoutRow) (*plan.Structure, error)
	QueryWeeklyLoad(ctx context.Context, athleteID int, start, end time.Time) ([]storage.WeeklyLoad, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
