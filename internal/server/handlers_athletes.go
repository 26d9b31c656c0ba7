package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/paceline/internal/models"
	"github.com/meltforce/paceline/internal/plan"
)

func (s *Server) handleListAthletes(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.ListAthletes(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleCreateAthlete(w http.ResponseWriter, r *http.Request) {
	var req models.AthleteRow
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	id, err := s.db.CreateAthlete(r.Context(), req)
	if err != nil {
		s.log.Error("create athlete", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	athlete, err := s.db.GetAthlete(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, athlete)
}

func (s *Server) handleGetAthlete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathAthleteID(w, r)
	if !ok {
		return
	}
	athlete, err := s.db.GetAthlete(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if athlete == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "athlete not found"})
		return
	}
	writeJSON(w, http.StatusOK, athlete)
}

// ZonesResponse bundles everything the zone display needs: the athlete's
// reference values and the scheme in effect (personal or default).
type ZonesResponse struct {
	Profile plan.AthleteZoneProfile `json:"profile"`
	Scheme  plan.ZoneScheme         `json:"scheme"`
	Source  string                  `json:"source"` // "athlete" or "default"
}

func (s *Server) handleGetZones(w http.ResponseWriter, r *http.Request) {
	id, ok := pathAthleteID(w, r)
	if !ok {
		return
	}
	athlete, err := s.db.GetAthlete(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if athlete == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "athlete not found"})
		return
	}

	resp := ZonesResponse{Profile: athlete.ZoneProfile(), Scheme: s.defaultScheme, Source: "default"}
	if row, err := s.db.GetZoneScheme(r.Context(), id); err == nil && row != nil {
		resp.Scheme = row.Scheme
		resp.Source = "athlete"
	}
	writeJSON(w, http.StatusOK, resp)
}

// zonesRequest updates an athlete's reference values and/or zone scheme.
type zonesRequest struct {
	FTPWatts  *float64         `json:"ftp_watts"`
	MaxHR     *float64         `json:"max_hr"`
	RestingHR *float64         `json:"resting_hr"`
	Scheme    *plan.ZoneScheme `json:"scheme,omitempty"`
	Name      string           `json:"scheme_name,omitempty"`
}

func (s *Server) handleSetZones(w http.ResponseWriter, r *http.Request) {
	id, ok := pathAthleteID(w, r)
	if !ok {
		return
	}
	var req zonesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	if err := s.db.UpdateAthleteProfile(r.Context(), id, req.FTPWatts, req.MaxHR, req.RestingHR); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	if req.Scheme != nil {
		err := s.db.UpsertZoneScheme(r.Context(), models.ZoneSchemeRow{
			AthleteID: id,
			Name:      req.Name,
			Scheme:    *req.Scheme,
		})
		if err != nil {
			// Scheme validation failures land here: reject, don't store.
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	s.handleGetZones(w, r)
}

func pathAthleteID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid athlete ID"})
		return 0, false
	}
	return id, true
}
