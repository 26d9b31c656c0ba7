package intervalsdoc

import (
	"strings"
	"testing"

	"github.com/meltforce/paceline/internal/plan"
)

const sampleDoc = `{
  "name": "VO2 session",
  "steps": [
    {"text": "Warm up", "warmup": true, "duration": 900, "power": {"start": 45, "end": 60, "units": "%ftp"}},
    {"reps": 5, "steps": [
      {"text": "On", "duration": 180, "power": {"start": 110, "end": 120, "units": "%ftp"}, "cadence": {"start": 95}},
      {"text": "Off", "duration": 180, "power": {"start": 50, "end": 55, "units": "%ftp"}}
    ]},
    {"text": "Cool down", "cooldown": true, "duration": 600, "power": {"start": 60, "end": 45, "units": "%ftp"}}
  ]
}`

// TestConvertSample converts a representative intervals document and
// verifies the tree shape, classes, and flattened totals.
func TestConvertSample(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	s := Convert(d)
	if len(s.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(s.Nodes))
	}

	warm := s.Nodes[0].(*plan.Step)
	if warm.IntensityClass != plan.ClassWarmUp {
		t.Errorf("class = %q, want warmUp", warm.IntensityClass)
	}

	rep, ok := s.Nodes[1].(*plan.Repetition)
	if !ok {
		t.Fatalf("node 1 is %T, want *plan.Repetition", s.Nodes[1])
	}
	if rep.RepeatCount != 5 || len(rep.Children) != 2 {
		t.Errorf("rep = %dx%d", rep.RepeatCount, len(rep.Children))
	}
	on := rep.Children[0].(*plan.Step)
	if on.TargetMin != 110 || on.TargetMax != 120 {
		t.Errorf("on targets = %v-%v", on.TargetMin, on.TargetMax)
	}
	if on.CadenceMin == nil || *on.CadenceMin != 95 {
		t.Error("cadence not carried over")
	}
	off := rep.Children[1].(*plan.Step)
	if off.IntensityClass != plan.ClassRest {
		t.Errorf("off class = %q, want rest", off.IntensityClass)
	}

	// Cooldown band declared high-to-low must come out ordered.
	cool := s.Nodes[2].(*plan.Step)
	if cool.TargetMin != 45 || cool.TargetMax != 60 {
		t.Errorf("cooldown targets = %v-%v, want 45-60", cool.TargetMin, cool.TargetMax)
	}

	tl := plan.Flatten(s)
	if tl.TotalDuration != 900+5*(180+180)+600 {
		t.Errorf("total = %v, want 3300", tl.TotalDuration)
	}
	if len(tl.Segments) != 12 {
		t.Errorf("segments = %d, want 12", len(tl.Segments))
	}
}

// TestConvertSingleStepDefaults verifies a bare step with no unit objects
// converts with zero targets (the flattener's documented defaults).
func TestConvertSingleStepDefaults(t *testing.T) {
	d, err := Parse(strings.NewReader(`{"steps":[{"duration":60}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s := Convert(d)
	if len(s.Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(s.Nodes))
	}
	st := s.Nodes[0].(*plan.Step)
	if st.TargetMin != 0 || st.TargetMax != 0 || st.Name != "" {
		t.Errorf("defaults not applied: %+v", st)
	}
}

// TestConvertEmptyRepeatDropped verifies repeat blocks whose children all
// fail to convert are dropped entirely.
func TestConvertEmptyRepeatDropped(t *testing.T) {
	d, err := Parse(strings.NewReader(`{"steps":[{"reps":-2,"steps":[{"duration":30}]}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s := Convert(d); len(s.Nodes) != 0 {
		t.Errorf("nodes = %d, want 0", len(s.Nodes))
	}
}
