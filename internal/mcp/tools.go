package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/paceline/internal/plan"
)

// defaultTimeRange returns start/end defaulting to the coming 7 days.
// Schedules are plans, so the window looks forward rather than back.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = time.Now()
	}

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = start.AddDate(0, 0, 7)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// --- Tool definitions ---

var toolPreviewWorkout = mcp.NewTool("preview_workout",
	mcp.WithDescription("Flatten a workout structure into its segment timeline and compute planned load (TSS and intensity factor). The structure is the nested step/repetition tree used by workout templates."),
	mcp.WithString("structure", mcp.Required(), mcp.Description(`Workout structure as JSON, e.g. {"nodes":[{"type":"step","duration_value":1200,"duration_unit":"second","target_min":40,"target_max":55,"intensity_class":"warmUp"}]}`)),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List workout templates with their planned TSS, intensity factor, and duration. Structures are omitted; use get_workout for the full tree."),
	mcp.WithString("sport", mcp.Description("Filter by sport (e.g. 'bike', 'run')")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Fetch one workout template including its full nested structure."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Template UUID")),
)

var toolGetSchedule = mcp.NewTool("get_schedule",
	mcp.WithDescription("Query an athlete's scheduled workouts in a date range. Returns calendar entries with planned TSS, intensity factor, and duration."),
	mcp.WithNumber("athlete_id", mcp.Required(), mcp.Description("Athlete ID")),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to 7 days after start.")),
)

var toolGetWorkoutSegments = mcp.NewTool("get_workout_segments",
	mcp.WithDescription("Flatten a scheduled workout into its segment timeline with per-segment heart-rate zones. Uses the structure override when the coach has edited this entry, otherwise the template structure."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Scheduled workout UUID")),
)

var toolHRZoneForPower = mcp.NewTool("hr_zone_for_power",
	mcp.WithDescription("Map a power target (percent of FTP) to the athlete's heart-rate zone. Returns the zone number, name, and BPM range, or an unavailable marker when the athlete has no FTP or max HR on file."),
	mcp.WithNumber("athlete_id", mcp.Required(), mcp.Description("Athlete ID")),
	mcp.WithNumber("power_percent", mcp.Required(), mcp.Description("Power target as percent of FTP (e.g. 65)")),
)

var toolGetWeeklyLoad = mcp.NewTool("get_weekly_load",
	mcp.WithDescription("Aggregate an athlete's planned TSS and hours per calendar week. Defaults to the coming 4 weeks."),
	mcp.WithNumber("athlete_id", mcp.Required(), mcp.Description("Athlete ID")),
	mcp.WithString("start", mcp.Description("Start date. Defaults to now.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to 28 days after start.")),
)

// --- Tool handlers ---

func (h *handlers) previewWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("structure")
	if err != nil {
		return mcp.NewToolResultError("structure parameter is required"), nil
	}

	var structure plan.Structure
	if err := json.Unmarshal([]byte(raw), &structure); err != nil {
		return mcp.NewToolResultError("invalid structure JSON: " + err.Error()), nil
	}
	if err := structure.Validate(); err != nil {
		return mcp.NewToolResultError("invalid structure: " + err.Error()), nil
	}

	tl := plan.Flatten(&structure)
	load := plan.Estimate(tl.Segments)

	result, err := mcp.NewToolResultJSON(map[string]any{
		"segments":         tl.Segments,
		"total_duration":   tl.TotalDuration,
		"tss":              load.TSS,
		"intensity_factor": load.IntensityFactor,
		"approximate":      load.Approximate,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sport := req.GetString("sport", "")

	templates, err := h.ds.ListTemplates(ctx, sport)
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(templates)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid id: " + err.Error()), nil
	}

	tmpl, err := h.ds.GetTemplate(ctx, id)
	if err != nil {
		h.log.Error("mcp get_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if tmpl == nil {
		return mcp.NewToolResultError("workout not found"), nil
	}

	result, err := mcp.NewToolResultJSON(tmpl)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	athleteID, err := req.RequireInt("athlete_id")
	if err != nil {
		return mcp.NewToolResultError("athlete_id parameter is required"), nil
	}

	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	entries, err := h.ds.QuerySchedule(ctx, athleteID, start, end)
	if err != nil {
		h.log.Error("mcp get_schedule", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(entries)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutSegments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid id: " + err.Error()), nil
	}

	sw, err := h.ds.GetScheduledWorkout(ctx, id)
	if err != nil {
		h.log.Error("mcp get_workout_segments", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if sw == nil {
		return mcp.NewToolResultError("scheduled workout not found"), nil
	}

	structure, err := h.ds.ResolveStructure(ctx, sw)
	if err != nil {
		h.log.Error("mcp get_workout_segments resolve", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if structure == nil {
		return mcp.NewToolResultError("scheduled workout has no structure"), nil
	}

	athlete, err := h.ds.GetAthlete(ctx, sw.AthleteID)
	if err != nil {
		h.log.Error("mcp get_workout_segments athlete", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	scheme, err := h.ds.SchemeForAthlete(ctx, sw.AthleteID, h.defaultScheme)
	if err != nil {
		h.log.Error("mcp get_workout_segments scheme", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	tl := plan.Flatten(structure)
	load := plan.Estimate(tl.Segments)

	type segmentWithZone struct {
		plan.Segment
		Zone *plan.ZoneDisplay `json:"zone,omitempty"`
	}
	segments := make([]segmentWithZone, 0, len(tl.Segments))
	for _, seg := range tl.Segments {
		sz := segmentWithZone{Segment: seg}
		if athlete != nil {
			mid := (seg.TargetMin + seg.TargetMax) / 2
			sz.Zone = plan.HRZoneForPowerPercent(athlete.ZoneProfile(), scheme, mid)
		}
		segments = append(segments, sz)
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"segments":         segments,
		"total_duration":   tl.TotalDuration,
		"tss":              load.TSS,
		"intensity_factor": load.IntensityFactor,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) hrZoneForPower(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	athleteID, err := req.RequireInt("athlete_id")
	if err != nil {
		return mcp.NewToolResultError("athlete_id parameter is required"), nil
	}
	powerPct, err := req.RequireFloat("power_percent")
	if err != nil {
		return mcp.NewToolResultError("power_percent parameter is required"), nil
	}

	athlete, err := h.ds.GetAthlete(ctx, athleteID)
	if err != nil {
		h.log.Error("mcp hr_zone_for_power", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if athlete == nil {
		return mcp.NewToolResultError("athlete not found"), nil
	}

	scheme, err := h.ds.SchemeForAthlete(ctx, athleteID, h.defaultScheme)
	if err != nil {
		h.log.Error("mcp hr_zone_for_power scheme", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	zone := plan.HRZoneForPowerPercent(athlete.ZoneProfile(), scheme, powerPct)
	if zone == nil {
		result, err := mcp.NewToolResultJSON(map[string]any{"available": false})
		if err != nil {
			return mcp.NewToolResultError("serialization failed"), nil
		}
		return result, nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{"available": true, "zone": zone})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWeeklyLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	athleteID, err := req.RequireInt("athlete_id")
	if err != nil {
		return mcp.NewToolResultError("athlete_id parameter is required"), nil
	}

	startStr := req.GetString("start", "")
	endStr := req.GetString("end", "")

	var start, end time.Time
	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return mcp.NewToolResultError("invalid start date: " + err.Error()), nil
		}
	} else {
		start = time.Now()
	}
	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return mcp.NewToolResultError("invalid end date: " + err.Error()), nil
		}
	} else {
		end = start.AddDate(0, 0, 28)
	}

	weeks, err := h.ds.QueryWeeklyLoad(ctx, athleteID, start, end)
	if err != nil {
		h.log.Error("mcp get_weekly_load", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(weeks)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
