// Package zwo converts Zwift workout files (.zwo XML) into the internal
// workout structure.
package zwo

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/plan"
)

// File is the root of a .zwo document. Child tags of <workout> vary by
// step kind, so they are captured generically and dispatched by name.
type File struct {
	XMLName     xml.Name `xml:"workout_file"`
	Name        string   `xml:"name"`
	Description string   `xml:"description"`
	Author      string   `xml:"author"`
	SportType   string   `xml:"sportType"`
	Workout     Workout  `xml:"workout"`
}

type Workout struct {
	Steps []Step `xml:",any"`
}

// Step carries the union of attributes across ZWO step kinds. Power
// values are fractions of FTP (0.75 = 75%).
type Step struct {
	XMLName     xml.Name
	Duration    float64 `xml:"Duration,attr"`
	Power       float64 `xml:"Power,attr"`
	PowerLow    float64 `xml:"PowerLow,attr"`
	PowerHigh   float64 `xml:"PowerHigh,attr"`
	Repeat      int     `xml:"Repeat,attr"`
	OnDuration  float64 `xml:"OnDuration,attr"`
	OnPower     float64 `xml:"OnPower,attr"`
	OffDuration float64 `xml:"OffDuration,attr"`
	OffPower    float64 `xml:"OffPower,attr"`
	Cadence     float64 `xml:"Cadence,attr"`
}

// Parse decodes a .zwo document.
func Parse(r io.Reader) (*File, error) {
	var f File
	if err := xml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding zwo: %w", err)
	}
	return &f, nil
}

// Convert maps a parsed ZWO workout onto the internal structure.
// IntervalsT blocks become repetitions with an on/off step pair; FreeRide
// becomes an open-duration step carrying its nominal length.
func Convert(f *File) *plan.Structure {
	s := &plan.Structure{}
	for _, st := range f.Workout.Steps {
		if n := convertStep(st); n != nil {
			s.Nodes = append(s.Nodes, n)
		}
	}
	return s
}

func convertStep(st Step) plan.Node {
	switch st.XMLName.Local {
	case "Warmup":
		return rangedStep(st, "Warm up", plan.ClassWarmUp)
	case "Cooldown":
		return rangedStep(st, "Cool down", plan.ClassCoolDown)
	case "SteadyState":
		pct := pctOfFTP(st.Power)
		return &plan.Step{
			ID:             uuid.New(),
			Name:           "Steady",
			DurationValue:  st.Duration,
			DurationUnit:   plan.UnitSecond,
			TargetMin:      pct,
			TargetMax:      pct,
			IntensityClass: classify(pct),
			CadenceMin:     cadence(st.Cadence),
			CadenceMax:     cadence(st.Cadence),
		}
	case "Ramp":
		return rangedStep(st, "Ramp", plan.ClassActive)
	case "FreeRide":
		return &plan.Step{
			ID:             uuid.New(),
			Name:           "Free ride",
			DurationValue:  st.Duration,
			DurationUnit:   plan.UnitSecond,
			IntensityClass: plan.ClassActive,
			OpenDuration:   true,
		}
	case "IntervalsT":
		if st.Repeat < 1 {
			return nil
		}
		onPct, offPct := pctOfFTP(st.OnPower), pctOfFTP(st.OffPower)
		return &plan.Repetition{
			ID:          uuid.New(),
			RepeatCount: st.Repeat,
			Children: []plan.Node{
				&plan.Step{
					ID:             uuid.New(),
					Name:           "Work",
					DurationValue:  st.OnDuration,
					DurationUnit:   plan.UnitSecond,
					TargetMin:      onPct,
					TargetMax:      onPct,
					IntensityClass: plan.ClassActive,
				},
				&plan.Step{
					ID:             uuid.New(),
					Name:           "Recover",
					DurationValue:  st.OffDuration,
					DurationUnit:   plan.UnitSecond,
					TargetMin:      offPct,
					TargetMax:      offPct,
					IntensityClass: plan.ClassRest,
				},
			},
		}
	default:
		// Unknown step kinds (text events etc.) are dropped.
		return nil
	}
}

func rangedStep(st Step, name string, class plan.IntensityClass) *plan.Step {
	lo, hi := pctOfFTP(st.PowerLow), pctOfFTP(st.PowerHigh)
	if hi < lo {
		lo, hi = hi, lo
	}
	if lo == 0 && hi == 0 && st.Power > 0 {
		p := pctOfFTP(st.Power)
		lo, hi = p, p
	}
	return &plan.Step{
		ID:             uuid.New(),
		Name:           name,
		DurationValue:  st.Duration,
		DurationUnit:   plan.UnitSecond,
		TargetMin:      lo,
		TargetMax:      hi,
		IntensityClass: class,
	}
}

// pctOfFTP converts a ZWO FTP fraction to a percent rounded to one
// decimal, so 0.55 stores as 55 rather than 55.00000000000001.
func pctOfFTP(frac float64) float64 {
	return math.Round(frac*1000) / 10
}

func classify(pct float64) plan.IntensityClass {
	if pct < 60 {
		return plan.ClassRest
	}
	return plan.ClassActive
}

func cadence(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
