package plan

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

// TestStructureJSONRoundTrip verifies the tagged-union codec preserves a
// nested tree through marshal/unmarshal.
func TestStructureJSONRoundTrip(t *testing.T) {
	s := &Structure{Nodes: []Node{
		step(ClassWarmUp, 600, 40, 55),
		&Repetition{ID: uuid.New(), RepeatCount: 4, Children: []Node{
			step(ClassActive, 30, 110, 120),
			&Repetition{ID: uuid.New(), RepeatCount: 2, Children: []Node{
				step(ClassRest, 60, 45, 50),
			}},
		}},
	}}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Structure
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	a, b := Flatten(s), Flatten(&back)
	if a.TotalDuration != b.TotalDuration || len(a.Segments) != len(b.Segments) {
		t.Fatalf("round trip changed the timeline: %v/%d vs %v/%d",
			a.TotalDuration, len(a.Segments), b.TotalDuration, len(b.Segments))
	}
	rep, ok := back.Nodes[1].(*Repetition)
	if !ok {
		t.Fatalf("node 1 decoded as %T, want *Repetition", back.Nodes[1])
	}
	if _, ok := rep.Children[1].(*Repetition); !ok {
		t.Errorf("nested repetition decoded as %T", rep.Children[1])
	}
}

// TestStructureUnmarshalDropsUnknownTypes verifies that nodes with an
// unrecognized type tag are dropped instead of failing the document, so a
// viewer can still render data written by newer versions.
func TestStructureUnmarshalDropsUnknownTypes(t *testing.T) {
	doc := `{"nodes":[
		{"type":"step","duration_value":300,"duration_unit":"second","target_min":50,"target_max":60,"intensity_class":"active"},
		{"type":"ramp","duration_value":300},
		{"type":"step","duration_value":120,"duration_unit":"second","target_min":40,"target_max":50,"intensity_class":"rest"}
	]}`

	var s Structure
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(s.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2 (unknown type dropped)", len(s.Nodes))
	}
	if Flatten(&s).TotalDuration != 420 {
		t.Errorf("total = %v, want 420", Flatten(&s).TotalDuration)
	}
}

// TestStructureUnmarshalDefaults verifies missing optional fields default
// to empty name and zero targets.
func TestStructureUnmarshalDefaults(t *testing.T) {
	doc := `{"nodes":[{"type":"step","duration_value":60,"duration_unit":"second","intensity_class":"active"}]}`

	var s Structure
	if err := json.Unmarshal([]byte(doc), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	st := s.Nodes[0].(*Step)
	if st.Name != "" || st.TargetMin != 0 || st.TargetMax != 0 {
		t.Errorf("defaults not applied: %+v", st)
	}
}

// TestValidateRejectsMalformed covers the MalformedStructure taxonomy at
// the validation boundary.
func TestValidateRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		s    *Structure
	}{
		{"zero repeat", &Structure{Nodes: []Node{
			&Repetition{ID: uuid.New(), RepeatCount: 0, Children: []Node{step(ClassActive, 60, 50, 60)}},
		}}},
		{"non-positive closed duration", &Structure{Nodes: []Node{step(ClassActive, 0, 50, 60)}}},
		{"inverted target band", &Structure{Nodes: []Node{step(ClassActive, 60, 90, 50)}}},
		{"nested bad step", &Structure{Nodes: []Node{
			&Repetition{ID: uuid.New(), RepeatCount: 2, Children: []Node{step(ClassActive, -5, 50, 60)}},
		}}},
	}
	for _, tc := range cases {
		if err := tc.s.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}

	open := step(ClassCoolDown, 0, 40, 50)
	open.OpenDuration = true
	open.DurationValue = 300
	if err := (&Structure{Nodes: []Node{open}}).Validate(); err != nil {
		t.Errorf("open-duration step should validate: %v", err)
	}
}

// TestCloneIsDeep verifies Clone shares no mutable state with the
// original.
func TestCloneIsDeep(t *testing.T) {
	cadence := 90.0
	orig := &Structure{Nodes: []Node{
		&Repetition{ID: uuid.New(), RepeatCount: 2, Children: []Node{
			&Step{ID: uuid.New(), DurationValue: 60, DurationUnit: UnitSecond,
				TargetMin: 50, TargetMax: 60, IntensityClass: ClassActive, CadenceMin: &cadence},
		}},
	}}

	cp := orig.Clone()
	innerCopy := cp.Nodes[0].(*Repetition).Children[0].(*Step)
	innerOrig := orig.Nodes[0].(*Repetition).Children[0].(*Step)

	if innerCopy.ID != innerOrig.ID {
		t.Error("Clone should preserve identities")
	}
	*innerCopy.CadenceMin = 120
	innerCopy.TargetMax = 200
	if *innerOrig.CadenceMin == 120 || innerOrig.TargetMax == 200 {
		t.Error("clone shares storage with the original")
	}
}
