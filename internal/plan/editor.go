package plan

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned by editor operations when no node carries the
// given ID.
var ErrNotFound = errors.New("node not found")

// The editor operations below are the only sanctioned way to mutate a
// Structure. Each one either leaves the tree satisfying Validate or
// returns an error without touching it; invalid input is rejected here,
// at the edit boundary, never downstream in the flattener or estimator.
// A structure is owned by a single editing session, so mutation is in
// place with no locking.

// DefaultStructure is the builder's starting template: a warm-up, an
// active block, and a cool-down.
func DefaultStructure() *Structure {
	return &Structure{Nodes: []Node{
		&Step{ID: uuid.New(), Name: "Warm up", DurationValue: 10, DurationUnit: UnitMinute,
			TargetMin: 40, TargetMax: 55, IntensityClass: ClassWarmUp},
		&Step{ID: uuid.New(), Name: "Work", DurationValue: 20, DurationUnit: UnitMinute,
			TargetMin: 75, TargetMax: 85, IntensityClass: ClassActive},
		&Step{ID: uuid.New(), Name: "Cool down", DurationValue: 10, DurationUnit: UnitMinute,
			TargetMin: 40, TargetMax: 55, IntensityClass: ClassCoolDown},
	}}
}

// NewStep builds a sensible default step for an intensity class.
func NewStep(class IntensityClass) *Step {
	st := &Step{
		ID:            uuid.New(),
		DurationValue: 5,
		DurationUnit:  UnitMinute,
	}
	switch class {
	case ClassWarmUp:
		st.Name, st.TargetMin, st.TargetMax = "Warm up", 40, 55
	case ClassRest:
		st.Name, st.TargetMin, st.TargetMax = "Recover", 45, 55
	case ClassCoolDown:
		st.Name, st.TargetMin, st.TargetMax = "Cool down", 40, 55
	default:
		class = ClassActive
		st.Name, st.TargetMin, st.TargetMax = "Work", 75, 85
	}
	st.IntensityClass = class
	return st
}

// AddStep appends a new step of the given class and returns it.
func (s *Structure) AddStep(class IntensityClass) *Step {
	st := NewStep(class)
	s.Nodes = append(s.Nodes, st)
	return st
}

// AddRepetition appends a repetition block. An empty children list gets a
// default work/recover pair, since a repetition of nothing flattens to
// nothing and is never what the user meant.
func (s *Structure) AddRepetition(repeatCount int, children []Node) (*Repetition, error) {
	if repeatCount < 1 {
		return nil, &ValidationError{Msg: fmt.Sprintf("repeat count must be at least 1, got %d", repeatCount)}
	}
	for _, c := range children {
		if err := validateNode(c); err != nil {
			return nil, err
		}
	}
	if len(children) == 0 {
		children = []Node{
			&Step{ID: uuid.New(), Name: "Work", DurationValue: 1, DurationUnit: UnitMinute,
				TargetMin: 105, TargetMax: 120, IntensityClass: ClassActive},
			&Step{ID: uuid.New(), Name: "Recover", DurationValue: 2, DurationUnit: UnitMinute,
				TargetMin: 45, TargetMax: 55, IntensityClass: ClassRest},
		}
	}
	rep := &Repetition{ID: uuid.New(), RepeatCount: repeatCount, Children: children}
	s.Nodes = append(s.Nodes, rep)
	return rep, nil
}

// RemoveStep removes the top-level node (step or repetition) with the
// given ID.
func (s *Structure) RemoveStep(id uuid.UUID) error {
	idx := s.topIndex(id)
	if idx < 0 {
		return fmt.Errorf("removing node %s: %w", id, ErrNotFound)
	}
	s.Nodes = append(s.Nodes[:idx], s.Nodes[idx+1:]...)
	return nil
}

// DuplicateStep deep-copies the top-level node with the given ID, giving
// every copied node a fresh identity, and inserts the copy immediately
// after the original.
func (s *Structure) DuplicateStep(id uuid.UUID) (Node, error) {
	idx := s.topIndex(id)
	if idx < 0 {
		return nil, fmt.Errorf("duplicating node %s: %w", id, ErrNotFound)
	}
	cp := cloneNode(s.Nodes[idx], true)
	s.Nodes = append(s.Nodes, nil)
	copy(s.Nodes[idx+2:], s.Nodes[idx+1:])
	s.Nodes[idx+1] = cp
	return cp, nil
}

// Reorder moves the top-level node with the given ID to newIndex,
// preserving the relative order of all other nodes. This is the data
// mutation behind drag-and-drop.
func (s *Structure) Reorder(id uuid.UUID, newIndex int) error {
	idx := s.topIndex(id)
	if idx < 0 {
		return fmt.Errorf("reordering node %s: %w", id, ErrNotFound)
	}
	if newIndex < 0 || newIndex >= len(s.Nodes) {
		return &ValidationError{Msg: fmt.Sprintf("index %d out of range [0,%d)", newIndex, len(s.Nodes))}
	}
	n := s.Nodes[idx]
	s.Nodes = append(s.Nodes[:idx], s.Nodes[idx+1:]...)
	s.Nodes = append(s.Nodes, nil)
	copy(s.Nodes[newIndex+1:], s.Nodes[newIndex:])
	s.Nodes[newIndex] = n
	return nil
}

// UpdateStepField sets one field of the step with the given ID (searching
// nested steps too), validating the resulting step before committing.
// Recognized fields use the JSON names of Step.
func (s *Structure) UpdateStepField(id uuid.UUID, field string, value any) error {
	st := s.findStep(id)
	if st == nil {
		return fmt.Errorf("updating step %s: %w", id, ErrNotFound)
	}

	updated := *st
	switch field {
	case "name":
		v, ok := value.(string)
		if !ok {
			return &ValidationError{Msg: "name must be a string"}
		}
		updated.Name = v
	case "duration_value":
		v, ok := toFloat(value)
		if !ok {
			return &ValidationError{Msg: "duration_value must be a number"}
		}
		updated.DurationValue = v
	case "duration_unit":
		v, ok := value.(string)
		if !ok {
			return &ValidationError{Msg: "duration_unit must be a string"}
		}
		updated.DurationUnit = DurationUnit(v)
	case "target_min":
		v, ok := toFloat(value)
		if !ok {
			return &ValidationError{Msg: "target_min must be a number"}
		}
		updated.TargetMin = v
	case "target_max":
		v, ok := toFloat(value)
		if !ok {
			return &ValidationError{Msg: "target_max must be a number"}
		}
		updated.TargetMax = v
	case "intensity_class":
		v, ok := value.(string)
		if !ok {
			return &ValidationError{Msg: "intensity_class must be a string"}
		}
		updated.IntensityClass = IntensityClass(v)
	case "open_duration":
		v, ok := value.(bool)
		if !ok {
			return &ValidationError{Msg: "open_duration must be a boolean"}
		}
		updated.OpenDuration = v
	case "cadence_min", "cadence_max", "hr_min", "hr_max":
		var p *float64
		if value != nil {
			v, ok := toFloat(value)
			if !ok {
				return &ValidationError{Msg: field + " must be a number or null"}
			}
			p = &v
		}
		switch field {
		case "cadence_min":
			updated.CadenceMin = p
		case "cadence_max":
			updated.CadenceMax = p
		case "hr_min":
			updated.HRMin = p
		case "hr_max":
			updated.HRMax = p
		}
	case "hr_type":
		v, ok := value.(string)
		if !ok {
			return &ValidationError{Msg: "hr_type must be a string"}
		}
		updated.HRType = HRType(v)
	default:
		return &ValidationError{Msg: fmt.Sprintf("unknown step field %q", field)}
	}

	if err := validateStep(&updated); err != nil {
		return err
	}
	*st = updated
	return nil
}

// AddNestedStep appends a new active step inside the repetition with the
// given ID (searching nested repetitions too) and returns it.
func (s *Structure) AddNestedStep(repetitionID uuid.UUID) (*Step, error) {
	rep := s.findRepetition(repetitionID)
	if rep == nil {
		return nil, fmt.Errorf("adding step to repetition %s: %w", repetitionID, ErrNotFound)
	}
	st := NewStep(ClassActive)
	rep.Children = append(rep.Children, st)
	return st, nil
}

// RemoveNestedStep removes the child with nestedID from the repetition
// with repetitionID.
func (s *Structure) RemoveNestedStep(repetitionID, nestedID uuid.UUID) error {
	rep := s.findRepetition(repetitionID)
	if rep == nil {
		return fmt.Errorf("repetition %s: %w", repetitionID, ErrNotFound)
	}
	for i, c := range rep.Children {
		if c.NodeID() == nestedID {
			rep.Children = append(rep.Children[:i], rep.Children[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("nested node %s: %w", nestedID, ErrNotFound)
}

// SetRepeatCount updates a repetition's count, enforcing the >= 1 bound.
func (s *Structure) SetRepeatCount(repetitionID uuid.UUID, count int) error {
	if count < 1 {
		return &ValidationError{Msg: fmt.Sprintf("repeat count must be at least 1, got %d", count)}
	}
	rep := s.findRepetition(repetitionID)
	if rep == nil {
		return fmt.Errorf("repetition %s: %w", repetitionID, ErrNotFound)
	}
	rep.RepeatCount = count
	return nil
}

func (s *Structure) topIndex(id uuid.UUID) int {
	for i, n := range s.Nodes {
		if n.NodeID() == id {
			return i
		}
	}
	return -1
}

func (s *Structure) findStep(id uuid.UUID) *Step {
	var found *Step
	var search func(nodes []Node)
	search = func(nodes []Node) {
		for _, n := range nodes {
			if found != nil {
				return
			}
			switch v := n.(type) {
			case *Step:
				if v.ID == id {
					found = v
					return
				}
			case *Repetition:
				search(v.Children)
			}
		}
	}
	search(s.Nodes)
	return found
}

func (s *Structure) findRepetition(id uuid.UUID) *Repetition {
	var found *Repetition
	var search func(nodes []Node)
	search = func(nodes []Node) {
		for _, n := range nodes {
			if found != nil {
				return
			}
			if rep, ok := n.(*Repetition); ok {
				if rep.ID == id {
					found = rep
					return
				}
				search(rep.Children)
			}
		}
	}
	search(s.Nodes)
	return found
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
