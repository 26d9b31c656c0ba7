package plan

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

// TestDefaultStructure verifies the builder's starting template is the
// warm-up/work/cool-down triple and flattens cleanly.
func TestDefaultStructure(t *testing.T) {
	s := DefaultStructure()
	if len(s.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(s.Nodes))
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("default structure invalid: %v", err)
	}
	tl := Flatten(s)
	if len(tl.Segments) != 3 {
		t.Errorf("segments = %d, want 3", len(tl.Segments))
	}
	if tl.Segments[0].IntensityClass != ClassWarmUp {
		t.Errorf("first class = %q, want warmUp", tl.Segments[0].IntensityClass)
	}
	if tl.Segments[2].IntensityClass != ClassCoolDown {
		t.Errorf("last class = %q, want coolDown", tl.Segments[2].IntensityClass)
	}
}

// TestAddRemoveStep exercises the add/remove cycle and the not-found
// error path.
func TestAddRemoveStep(t *testing.T) {
	s := &Structure{}
	st := s.AddStep(ClassActive)
	if len(s.Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(s.Nodes))
	}
	if err := s.RemoveStep(st.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(s.Nodes) != 0 {
		t.Errorf("nodes = %d after remove, want 0", len(s.Nodes))
	}

	if err := s.RemoveStep(uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("removing unknown id: err = %v, want ErrNotFound", err)
	}
}

// TestAddRepetitionRejectsZeroCount verifies repeatCount >= 1 is enforced
// at the edit boundary.
func TestAddRepetitionRejectsZeroCount(t *testing.T) {
	s := &Structure{}
	if _, err := s.AddRepetition(0, nil); err == nil {
		t.Fatal("repeat count 0 should be rejected")
	}
	var verr *ValidationError
	_, err := s.AddRepetition(-3, nil)
	if !errors.As(err, &verr) {
		t.Errorf("err = %v, want *ValidationError", err)
	}
	if len(s.Nodes) != 0 {
		t.Error("rejected mutation must not modify the tree")
	}
}

// TestDuplicateRepetitionFreshIdentities verifies duplicating a
// repetition deep-copies its children with new IDs and inserts the copy
// right after the original.
func TestDuplicateRepetitionFreshIdentities(t *testing.T) {
	s := &Structure{}
	rep, err := s.AddRepetition(3, nil)
	if err != nil {
		t.Fatal(err)
	}
	tail := s.AddStep(ClassCoolDown)

	dup, err := s.DuplicateStep(rep.ID)
	if err != nil {
		t.Fatal(err)
	}

	if len(s.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(s.Nodes))
	}
	if s.Nodes[1] != dup {
		t.Error("copy should sit immediately after the original")
	}
	if s.Nodes[2].NodeID() != tail.ID {
		t.Error("trailing node should keep its position")
	}

	copyRep, ok := dup.(*Repetition)
	if !ok {
		t.Fatalf("duplicate is %T, want *Repetition", dup)
	}
	if copyRep.ID == rep.ID {
		t.Error("copy should have a fresh identity")
	}
	if copyRep.RepeatCount != rep.RepeatCount {
		t.Errorf("copy repeat count = %d, want %d", copyRep.RepeatCount, rep.RepeatCount)
	}
	for i, c := range copyRep.Children {
		if c.NodeID() == rep.Children[i].NodeID() {
			t.Errorf("child %d of the copy shares an identity with the original", i)
		}
	}

	// Mutating the copy must not touch the original.
	copyRep.Children[0].(*Step).TargetMax = 999
	if rep.Children[0].(*Step).TargetMax == 999 {
		t.Error("copy shares child storage with the original")
	}
}

// TestReorderPreservesOthers verifies moving one node keeps every other
// relative ordering intact (the drag-and-drop contract).
func TestReorderPreservesOthers(t *testing.T) {
	s := &Structure{}
	a := s.AddStep(ClassWarmUp)
	b := s.AddStep(ClassActive)
	c := s.AddStep(ClassRest)
	d := s.AddStep(ClassCoolDown)

	if err := s.Reorder(d.ID, 0); err != nil {
		t.Fatal(err)
	}

	want := []uuid.UUID{d.ID, a.ID, b.ID, c.ID}
	for i, id := range want {
		if s.Nodes[i].NodeID() != id {
			t.Fatalf("position %d = %s, want %s", i, s.Nodes[i].NodeID(), id)
		}
	}

	if err := s.Reorder(a.ID, 99); err == nil {
		t.Error("out-of-range index should be rejected")
	}
}

// TestUpdateStepField covers a valid update, an invariant-violating
// update, and the unknown-field error.
func TestUpdateStepField(t *testing.T) {
	s := DefaultStructure()
	id := s.Nodes[1].NodeID()

	if err := s.UpdateStepField(id, "target_max", 95.0); err != nil {
		t.Fatalf("valid update: %v", err)
	}
	if got := s.Nodes[1].(*Step).TargetMax; got != 95 {
		t.Errorf("target_max = %v, want 95", got)
	}

	// target_min above target_max violates the invariant; the step must
	// be left untouched.
	if err := s.UpdateStepField(id, "target_min", 200.0); err == nil {
		t.Fatal("inverted target band should be rejected")
	}
	if got := s.Nodes[1].(*Step).TargetMin; got == 200 {
		t.Error("rejected update must not modify the step")
	}

	if err := s.UpdateStepField(id, "watts", 1.0); err == nil {
		t.Error("unknown field should be rejected")
	}

	// Zero duration on a closed step is invalid, but fine once open.
	if err := s.UpdateStepField(id, "duration_value", 0.0); err == nil {
		t.Error("zero duration on a closed step should be rejected")
	}
	if err := s.UpdateStepField(id, "open_duration", true); err != nil {
		t.Fatalf("open_duration update: %v", err)
	}
}

// TestNestedStepOperations exercises adding and removing steps inside a
// repetition, addressing nested repetitions recursively.
func TestNestedStepOperations(t *testing.T) {
	s := &Structure{}
	rep, err := s.AddRepetition(2, nil)
	if err != nil {
		t.Fatal(err)
	}

	st, err := s.AddNestedStep(rep.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Children) != 3 {
		t.Fatalf("children = %d, want 3", len(rep.Children))
	}

	if err := s.RemoveNestedStep(rep.ID, st.ID); err != nil {
		t.Fatal(err)
	}
	if len(rep.Children) != 2 {
		t.Errorf("children = %d after remove, want 2", len(rep.Children))
	}

	if err := s.RemoveNestedStep(rep.ID, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown nested id: err = %v, want ErrNotFound", err)
	}

	// Nested repetition found recursively.
	inner := &Repetition{ID: uuid.New(), RepeatCount: 2, Children: []Node{NewStep(ClassActive)}}
	rep.Children = append(rep.Children, inner)
	if _, err := s.AddNestedStep(inner.ID); err != nil {
		t.Errorf("nested repetition lookup: %v", err)
	}
}

// TestSetRepeatCount verifies the boundary check on repetition counts.
func TestSetRepeatCount(t *testing.T) {
	s := &Structure{}
	rep, err := s.AddRepetition(2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetRepeatCount(rep.ID, 6); err != nil {
		t.Fatal(err)
	}
	if rep.RepeatCount != 6 {
		t.Errorf("repeat count = %d, want 6", rep.RepeatCount)
	}
	if err := s.SetRepeatCount(rep.ID, 0); err == nil {
		t.Error("repeat count 0 should be rejected")
	}
}

// TestEditorKeepsTreeFlattenable runs a burst of edits and confirms the
// tree still validates and flattens with conserved duration afterwards.
func TestEditorKeepsTreeFlattenable(t *testing.T) {
	s := DefaultStructure()
	rep, err := s.AddRepetition(5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.DuplicateStep(rep.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Reorder(rep.ID, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("tree invalid after edits: %v", err)
	}

	tl := Flatten(s)
	var sum float64
	for _, seg := range tl.Segments {
		sum += seg.Duration
	}
	if sum != tl.TotalDuration {
		t.Errorf("duration not conserved: segments sum %v, total %v", sum, tl.TotalDuration)
	}
}
