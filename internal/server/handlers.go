package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/models"
	"github.com/meltforce/paceline/internal/plan"
)

// PreviewResponse is what the builder renders after every edit: the
// flattened timeline plus the planned-load summary.
type PreviewResponse struct {
	Segments        []plan.Segment `json:"segments"`
	TotalDuration   float64        `json:"total_duration"`
	TSS             float64        `json:"tss"`
	IntensityFactor float64        `json:"intensity_factor"`
	Approximate     bool           `json:"approximate,omitempty"`
}

func previewOf(s *plan.Structure) PreviewResponse {
	tl := plan.Flatten(s)
	load := plan.Estimate(tl.Segments)
	return PreviewResponse{
		Segments:        tl.Segments,
		TotalDuration:   tl.TotalDuration,
		TSS:             load.TSS,
		IntensityFactor: load.IntensityFactor,
		Approximate:     load.Approximate,
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var structure plan.Structure
	if err := json.NewDecoder(r.Body).Decode(&structure); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := structure.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, previewOf(&structure))
}

// templateRequest is the create/update payload for workout templates.
type templateRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Sport       string          `json:"sport"`
	Structure   *plan.Structure `json:"structure"`
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Structure == nil {
		req.Structure = plan.DefaultStructure()
	}
	if err := req.Structure.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	row := models.WorkoutTemplateRow{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Sport:       req.Sport,
		Structure:   req.Structure,
	}
	if err := s.db.InsertTemplate(r.Context(), row); err != nil {
		s.log.Error("create template", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	created, err := s.db.GetTemplate(r.Context(), row.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.ListTemplates(r.Context(), r.URL.Query().Get("sport"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	tpl, err := s.db.GetTemplate(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if tpl == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Structure != nil {
		if err := req.Structure.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	updated, err := s.db.UpdateTemplate(r.Context(), models.WorkoutTemplateRow{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Sport:       req.Sport,
		Structure:   req.Structure,
	})
	if err != nil {
		s.log.Error("update template", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !updated {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}

	tpl, err := s.db.GetTemplate(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	deleted, err := s.db.DeleteTemplate(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "workout not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func pathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ID"})
		return uuid.Nil, false
	}
	return id, true
}

// statusForEditError maps editor/validation failures onto HTTP statuses.
func statusForEditError(err error) int {
	var verr *plan.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, plan.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: the coming 7 days (planning looks forward, not back)
		start = time.Now().Truncate(24 * time.Hour)
		end = start.AddDate(0, 0, 7)
		return
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if endStr == "" {
		end = start.AddDate(0, 0, 7)
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}
	return
}
