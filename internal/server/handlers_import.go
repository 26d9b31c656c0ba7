package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/ingest"
	"github.com/meltforce/paceline/internal/ingest/intervalsdoc"
	"github.com/meltforce/paceline/internal/ingest/zwo"
	"github.com/meltforce/paceline/internal/models"
	"github.com/meltforce/paceline/internal/plan"
)

// handleImport converts one third-party workout payload into a template.
// format=zwo expects Zwift XML; format=intervals (the default) expects an
// intervals.icu-style workout document. The foreign schema is not
// validated beyond what conversion and flattening tolerate.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var (
		name      string
		structure *plan.Structure
	)

	switch r.URL.Query().Get("format") {
	case "zwo":
		f, err := zwo.Parse(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		name = f.Name
		structure = zwo.Convert(f)
	case "intervals", "":
		d, err := intervalsdoc.Parse(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		name = d.Name
		structure = intervalsdoc.Convert(d)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown format"})
		return
	}

	result := ingest.Result{WorkoutsReceived: 1}

	if len(structure.Nodes) == 0 {
		result.WorkoutsSkipped = 1
		result.Message = "no convertible steps in payload"
		writeJSON(w, http.StatusOK, result)
		return
	}

	if name == "" {
		name = "Imported workout"
	}
	row := models.WorkoutTemplateRow{
		ID:        uuid.New(),
		Name:      name,
		Structure: structure,
	}
	if err := s.db.InsertTemplate(r.Context(), row); err != nil {
		s.log.Error("import workout", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	result.WorkoutsImported = 1
	writeJSON(w, http.StatusOK, result)
}
