// Package intervalsdoc converts intervals.icu-style workout documents
// (nested JSON steps with a reps field) into the internal workout
// structure.
package intervalsdoc

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/plan"
)

// Document is the workout_doc payload: a flat or nested step list plus
// precomputed totals we ignore in favor of our own flattening.
type Document struct {
	Name     string  `json:"name"`
	Steps    []Step  `json:"steps"`
	Duration float64 `json:"duration"`
}

// Step is one document step. A step with nested Steps and Reps > 1 is a
// repeat block; otherwise it is a single interval. Power is a percent-of-
// threshold range.
type Step struct {
	Text     string     `json:"text"`
	Duration float64    `json:"duration"`
	Power    *UnitRange `json:"power"`
	Cadence  *UnitRange `json:"cadence"`
	HR       *UnitRange `json:"hr"`
	Warmup   bool       `json:"warmup"`
	Cooldown bool       `json:"cooldown"`
	Free     bool       `json:"free"`
	Steps    []Step     `json:"steps"`
	Reps     int        `json:"reps"`
}

// UnitRange is a start/end band in the unit's native scale.
type UnitRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Units string  `json:"units"`
}

// Parse decodes a workout document.
func Parse(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decoding workout doc: %w", err)
	}
	return &d, nil
}

// Convert maps a document onto the internal structure. Repeat blocks with
// reps < 1 are dropped, matching the editor's repeat-count bound.
func Convert(d *Document) *plan.Structure {
	s := &plan.Structure{}
	for _, st := range d.Steps {
		if n := convertStep(st); n != nil {
			s.Nodes = append(s.Nodes, n)
		}
	}
	return s
}

func convertStep(st Step) plan.Node {
	if len(st.Steps) > 0 {
		reps := st.Reps
		if reps == 0 {
			reps = 1
		}
		if reps < 1 {
			return nil
		}
		rep := &plan.Repetition{ID: uuid.New(), RepeatCount: reps}
		for _, c := range st.Steps {
			if n := convertStep(c); n != nil {
				rep.Children = append(rep.Children, n)
			}
		}
		if len(rep.Children) == 0 {
			return nil
		}
		return rep
	}

	out := &plan.Step{
		ID:             uuid.New(),
		Name:           st.Text,
		DurationValue:  st.Duration,
		DurationUnit:   plan.UnitSecond,
		IntensityClass: classify(st),
		OpenDuration:   st.Free,
	}
	if st.Power != nil {
		lo, hi := st.Power.Start, st.Power.End
		if hi == 0 {
			hi = lo
		}
		if hi < lo {
			lo, hi = hi, lo
		}
		out.TargetMin, out.TargetMax = lo, hi
	}
	if st.Cadence != nil {
		out.CadenceMin = ptr(st.Cadence.Start)
		if st.Cadence.End > 0 {
			out.CadenceMax = ptr(st.Cadence.End)
		} else {
			out.CadenceMax = ptr(st.Cadence.Start)
		}
	}
	if st.HR != nil {
		out.HRMin = ptr(st.HR.Start)
		out.HRMax = ptr(st.HR.End)
		if st.HR.Units == "%hr" {
			out.HRType = plan.HRPercent
		} else {
			out.HRType = plan.HRBPM
		}
	}
	return out
}

func classify(st Step) plan.IntensityClass {
	switch {
	case st.Warmup:
		return plan.ClassWarmUp
	case st.Cooldown:
		return plan.ClassCoolDown
	case st.Power != nil && st.Power.Start < 60 && st.Power.End < 70:
		return plan.ClassRest
	default:
		return plan.ClassActive
	}
}

func ptr(v float64) *float64 { return &v }
