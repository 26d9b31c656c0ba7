package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/models"
	"github.com/meltforce/paceline/internal/plan"
)

func (s *Server) handleQuerySchedule(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := queryAthleteID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := s.db.QuerySchedule(r.Context(), athleteID, start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// scheduleRequest is the payload for placing a workout on the calendar.
type scheduleRequest struct {
	AthleteID  int             `json:"athlete_id"`
	TemplateID *uuid.UUID      `json:"template_id,omitempty"`
	Date       time.Time       `json:"date"`
	Structure  *plan.Structure `json:"structure,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

func (s *Server) handleCreateScheduled(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.AthleteID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "athlete_id is required"})
		return
	}
	if req.Date.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date is required"})
		return
	}
	if req.Structure != nil {
		if err := req.Structure.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	row := models.ScheduledWorkoutRow{
		ID:                uuid.New(),
		AthleteID:         req.AthleteID,
		TemplateID:        req.TemplateID,
		Date:              req.Date,
		StructureOverride: req.Structure,
		Notes:             req.Notes,
	}
	if err := s.db.InsertScheduledWorkout(r.Context(), row); err != nil {
		s.log.Error("create scheduled workout", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	created, err := s.db.GetScheduledWorkout(r.Context(), row.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetScheduled(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	sw, err := s.db.GetScheduledWorkout(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if sw == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "schedule entry not found"})
		return
	}
	writeJSON(w, http.StatusOK, sw)
}

// SegmentView is one flattened segment augmented with the athlete's HR
// zone display. Zone is null whenever the athlete's profile or scheme
// cannot produce one — callers render that as "unavailable", never zero.
type SegmentView struct {
	plan.Segment
	Zone *plan.ZoneDisplay `json:"zone"`
}

// SegmentsResponse is the read-only viewer payload for a calendar entry.
type SegmentsResponse struct {
	Segments        []SegmentView `json:"segments"`
	TotalDuration   float64       `json:"total_duration"`
	TSS             float64       `json:"tss"`
	IntensityFactor float64       `json:"intensity_factor"`
	Approximate     bool          `json:"approximate,omitempty"`
}

func (s *Server) handleScheduledSegments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	sw, err := s.db.GetScheduledWorkout(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if sw == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "schedule entry not found"})
		return
	}

	structure, err := s.db.ResolveStructure(r.Context(), sw)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	var profile plan.AthleteZoneProfile
	scheme := s.defaultScheme
	if athlete, err := s.db.GetAthlete(r.Context(), sw.AthleteID); err == nil && athlete != nil {
		profile = athlete.ZoneProfile()
		if sc, err := s.db.SchemeForAthlete(r.Context(), sw.AthleteID, s.defaultScheme); err == nil {
			scheme = sc
		}
	}

	tl := plan.Flatten(structure)
	load := plan.Estimate(tl.Segments)

	views := make([]SegmentView, 0, len(tl.Segments))
	for _, seg := range tl.Segments {
		mid := (seg.TargetMin + seg.TargetMax) / 2
		views = append(views, SegmentView{
			Segment: seg,
			Zone:    plan.HRZoneForPowerPercent(profile, scheme, mid),
		})
	}

	writeJSON(w, http.StatusOK, SegmentsResponse{
		Segments:        views,
		TotalDuration:   tl.TotalDuration,
		TSS:             load.TSS,
		IntensityFactor: load.IntensityFactor,
		Approximate:     load.Approximate,
	})
}

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var structure plan.Structure
	if err := json.NewDecoder(r.Body).Decode(&structure); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := structure.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	updated, err := s.db.SetStructureOverride(r.Context(), id, &structure)
	if err != nil {
		s.log.Error("set structure override", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !updated {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "schedule entry not found"})
		return
	}

	sw, err := s.db.GetScheduledWorkout(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sw)
}

func (s *Server) handleDeleteScheduled(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	deleted, err := s.db.DeleteScheduledWorkout(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "schedule entry not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWeeklyLoad(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := queryAthleteID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	load, err := s.db.QueryWeeklyLoad(r.Context(), athleteID, start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, load)
}

func queryAthleteID(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := r.URL.Query().Get("athlete")
	if idStr == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "athlete parameter required"})
		return 0, false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid athlete ID"})
		return 0, false
	}
	return id, true
}
