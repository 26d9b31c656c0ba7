// Package plan is the shared workout-structure core: the hierarchical
// interval model, the flattener that turns it into a timeline, the
// planned-load estimator, and the power-to-heart-rate zone mapper. The
// builder, viewer, import, and MCP surfaces all consume this package; none
// of them carry their own copy of this logic.
package plan

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// DurationUnit is the unit a step's duration value is expressed in.
type DurationUnit string

const (
	UnitSecond DurationUnit = "second"
	UnitMinute DurationUnit = "minute"
)

// IntensityClass categorizes a step for display and templating.
type IntensityClass string

const (
	ClassWarmUp   IntensityClass = "warmUp"
	ClassActive   IntensityClass = "active"
	ClassRest     IntensityClass = "rest"
	ClassCoolDown IntensityClass = "coolDown"
)

// HRType says whether a step's heart-rate bounds are raw bpm or a
// percentage of threshold heart rate.
type HRType string

const (
	HRBPM     HRType = "bpm"
	HRPercent HRType = "percent"
)

// Node is one element of a workout structure: a Step leaf or a
// Repetition block.
type Node interface {
	NodeID() uuid.UUID
}

// Step is a single interval. Targets are percent of FTP. Open-duration
// steps ("ride until told to stop") keep a nominal DurationValue that is
// used only for timeline placement and load approximation.
type Step struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name,omitempty"`
	DurationValue  float64        `json:"duration_value"`
	DurationUnit   DurationUnit   `json:"duration_unit"`
	TargetMin      float64        `json:"target_min"`
	TargetMax      float64        `json:"target_max"`
	IntensityClass IntensityClass `json:"intensity_class"`
	OpenDuration   bool           `json:"open_duration,omitempty"`
	CadenceMin     *float64       `json:"cadence_min,omitempty"`
	CadenceMax     *float64       `json:"cadence_max,omitempty"`
	HRMin          *float64       `json:"hr_min,omitempty"`
	HRMax          *float64       `json:"hr_max,omitempty"`
	HRType         HRType         `json:"hr_type,omitempty"`
}

// NodeID implements Node.
func (s *Step) NodeID() uuid.UUID { return s.ID }

// DurationSeconds converts the step's duration to seconds. Unrecognized
// units are treated as seconds.
func (s *Step) DurationSeconds() float64 {
	if s.DurationUnit == UnitMinute {
		return s.DurationValue * 60
	}
	return s.DurationValue
}

// Repetition repeats its child sequence RepeatCount times. Children may
// themselves be Repetitions; nesting depth is unbounded.
type Repetition struct {
	ID          uuid.UUID `json:"id"`
	RepeatCount int       `json:"repeat_count"`
	Children    []Node    `json:"children"`
}

// NodeID implements Node.
func (r *Repetition) NodeID() uuid.UUID { return r.ID }

// Structure is the root of a workout: an ordered sequence of steps and
// repetition blocks. It is mutated only through the editor operations;
// Flatten, Estimate, and the zone mapper are pure readers.
type Structure struct {
	Nodes []Node `json:"nodes"`
}

const (
	nodeTypeStep       = "step"
	nodeTypeRepetition = "repetition"
)

// stepJSON mirrors Step with the union tag added.
type stepJSON struct {
	Type string `json:"type"`
	*Step
}

// repetitionJSON mirrors Repetition with raw children for two-phase decode.
type repetitionJSON struct {
	Type        string            `json:"type"`
	ID          uuid.UUID         `json:"id"`
	RepeatCount int               `json:"repeat_count"`
	Children    []json.RawMessage `json:"children"`
}

// MarshalJSON encodes the node sequence as a tagged union.
func (s Structure) MarshalJSON() ([]byte, error) {
	raw := make([]json.RawMessage, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		b, err := marshalNode(n)
		if err != nil {
			return nil, err
		}
		raw = append(raw, b)
	}
	return json.Marshal(struct {
		Nodes []json.RawMessage `json:"nodes"`
	}{Nodes: raw})
}

func marshalNode(n Node) ([]byte, error) {
	switch v := n.(type) {
	case *Step:
		return json.Marshal(stepJSON{Type: nodeTypeStep, Step: v})
	case *Repetition:
		children := make([]json.RawMessage, 0, len(v.Children))
		for _, c := range v.Children {
			b, err := marshalNode(c)
			if err != nil {
				return nil, err
			}
			children = append(children, b)
		}
		return json.Marshal(struct {
			Type        string            `json:"type"`
			ID          uuid.UUID         `json:"id"`
			RepeatCount int               `json:"repeat_count"`
			Children    []json.RawMessage `json:"children"`
		}{nodeTypeRepetition, v.ID, v.RepeatCount, children})
	default:
		return nil, fmt.Errorf("marshaling node: unknown node type %T", n)
	}
}

// UnmarshalJSON decodes the tagged union. Nodes with an unrecognized type
// tag are dropped rather than failing the whole document, so the viewer
// stays usable against data written by newer versions or sloppy importers.
func (s *Structure) UnmarshalJSON(data []byte) error {
	var raw struct {
		Nodes []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Nodes = nil
	for _, r := range raw.Nodes {
		n, err := unmarshalNode(r)
		if err != nil {
			return err
		}
		if n != nil {
			s.Nodes = append(s.Nodes, n)
		}
	}
	return nil
}

// unmarshalNode decodes one tagged node. Unknown type tags yield (nil, nil).
func unmarshalNode(data []byte) (Node, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decoding node: %w", err)
	}
	switch probe.Type {
	case nodeTypeStep:
		var st Step
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, fmt.Errorf("decoding step: %w", err)
		}
		return &st, nil
	case nodeTypeRepetition:
		var rj repetitionJSON
		if err := json.Unmarshal(data, &rj); err != nil {
			return nil, fmt.Errorf("decoding repetition: %w", err)
		}
		rep := &Repetition{ID: rj.ID, RepeatCount: rj.RepeatCount}
		for _, c := range rj.Children {
			child, err := unmarshalNode(c)
			if err != nil {
				return nil, err
			}
			if child != nil {
				rep.Children = append(rep.Children, child)
			}
		}
		return rep, nil
	default:
		return nil, nil
	}
}

// Clone returns a deep copy sharing no nodes with the original.
// Identities are preserved; use the editor's duplicate operation when
// fresh IDs are needed.
func (s *Structure) Clone() *Structure {
	out := &Structure{Nodes: make([]Node, 0, len(s.Nodes))}
	for _, n := range s.Nodes {
		out.Nodes = append(out.Nodes, cloneNode(n, false))
	}
	return out
}

func cloneNode(n Node, freshIDs bool) Node {
	switch v := n.(type) {
	case *Step:
		cp := *v
		cp.CadenceMin = clonePtr(v.CadenceMin)
		cp.CadenceMax = clonePtr(v.CadenceMax)
		cp.HRMin = clonePtr(v.HRMin)
		cp.HRMax = clonePtr(v.HRMax)
		if freshIDs {
			cp.ID = uuid.New()
		}
		return &cp
	case *Repetition:
		cp := &Repetition{ID: v.ID, RepeatCount: v.RepeatCount}
		if freshIDs {
			cp.ID = uuid.New()
		}
		for _, c := range v.Children {
			cp.Children = append(cp.Children, cloneNode(c, freshIDs))
		}
		return cp
	default:
		return n
	}
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Validate checks the whole tree against the structural invariants the
// editor enforces per-operation. Storage and the preview endpoint call it
// on structures that arrive from outside an editing session.
func (s *Structure) Validate() error {
	for _, n := range s.Nodes {
		if err := validateNode(n); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(n Node) error {
	switch v := n.(type) {
	case *Step:
		return validateStep(v)
	case *Repetition:
		if v.RepeatCount < 1 {
			return &ValidationError{Msg: fmt.Sprintf("repeat count must be at least 1, got %d", v.RepeatCount)}
		}
		for _, c := range v.Children {
			if err := validateNode(c); err != nil {
				return err
			}
		}
		return nil
	default:
		return &ValidationError{Msg: fmt.Sprintf("unknown node type %T", n)}
	}
}

func validateStep(s *Step) error {
	if !s.OpenDuration && s.DurationValue <= 0 {
		return &ValidationError{Msg: "step duration must be positive"}
	}
	if s.TargetMin > s.TargetMax {
		return &ValidationError{Msg: fmt.Sprintf("target min %.1f exceeds target max %.1f", s.TargetMin, s.TargetMax)}
	}
	switch s.DurationUnit {
	case UnitSecond, UnitMinute, "":
	default:
		return &ValidationError{Msg: fmt.Sprintf("unknown duration unit %q", s.DurationUnit)}
	}
	return nil
}

// ValidationError reports a structural invariant violation. HTTP handlers
// map it to a 400 response.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }
