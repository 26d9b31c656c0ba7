package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/plan"
)

// AthleteRow is a row of the athletes table. FTP/HR fields are nullable:
// an athlete may not have tested yet, and the zone mapper treats missing
// values as "zone display unavailable".
type AthleteRow struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CoachName string    `json:"coach_name,omitempty"`
	FTPWatts  *float64  `json:"ftp_watts"`
	MaxHR     *float64  `json:"max_hr"`
	RestingHR *float64  `json:"resting_hr,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ZoneProfile extracts the slice of the athlete the zone mapper consumes.
func (a AthleteRow) ZoneProfile() plan.AthleteZoneProfile {
	return plan.AthleteZoneProfile{FTPWatts: a.FTPWatts, MaxHR: a.MaxHR, RestingHR: a.RestingHR}
}

// WorkoutTemplateRow is a reusable workout definition. Structure is the
// authoritative nested representation; the planned scalars are
// denormalized from it on every write so list views never re-flatten.
type WorkoutTemplateRow struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	Sport            string          `json:"sport,omitempty"`
	Structure        *plan.Structure `json:"structure"`
	TSSPlanned       float64         `json:"tss_planned"`
	IFPlanned        float64         `json:"if_planned"`
	TotalTimePlanned float64         `json:"total_time_planned"` // hours
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ScheduledWorkoutRow is one calendar entry. StructureOverride, when set,
// is an edited copy distinct from the template: the viewer and the
// planned scalars use the override, not the template.
type ScheduledWorkoutRow struct {
	ID                uuid.UUID       `json:"id"`
	AthleteID         int             `json:"athlete_id"`
	TemplateID        *uuid.UUID      `json:"template_id,omitempty"`
	Date              time.Time       `json:"date"`
	StructureOverride *plan.Structure `json:"structure_override,omitempty"`
	TSSPlanned        float64         `json:"tss_planned"`
	IFPlanned         float64         `json:"if_planned"`
	TotalTimePlanned  float64         `json:"total_time_planned"` // hours
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ZoneSchemeRow is a per-athlete zone scheme. Schemes are validated for
// index-parallel power/HR correspondence before they are persisted.
type ZoneSchemeRow struct {
	AthleteID int             `json:"athlete_id"`
	Name      string          `json:"name"`
	Scheme    plan.ZoneScheme `json:"scheme"`
	UpdatedAt time.Time       `json:"updated_at"`
}
