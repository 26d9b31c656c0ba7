package plan

import "fmt"

// Segment is one flattened, time-bounded interval. Times are seconds from
// the start of the workout; intervals are half-open [StartTime, EndTime).
// Segments produced from the same repetition iteration share a GroupID so
// the chart can highlight a whole rep on hover.
type Segment struct {
	StartTime      float64        `json:"start_time"`
	EndTime        float64        `json:"end_time"`
	Duration       float64        `json:"duration"`
	TargetMin      float64        `json:"target_min"`
	TargetMax      float64        `json:"target_max"`
	IntensityClass IntensityClass `json:"intensity_class"`
	Name           string         `json:"name,omitempty"`
	OpenDuration   bool           `json:"open_duration,omitempty"`
	GroupID        string         `json:"group_id,omitempty"`
}

// Timeline is the flattened form of a Structure: contiguous segments in
// execution order and the total planned duration in seconds.
type Timeline struct {
	Segments      []Segment `json:"segments"`
	TotalDuration float64   `json:"total_duration"`
}

// Flatten walks the structure depth-first, left to right, unrolling every
// repetition so each iteration materializes its own segments. The output
// is contiguous: each segment starts where the previous one ended, and
// TotalDuration is the last segment's end (0 for an empty structure).
//
// Open-duration steps are placed using their nominal duration. Malformed
// nodes (repeat count < 1, closed step with non-positive duration) are
// skipped rather than rejected: strictness belongs to the editor, and the
// viewer must stay usable against already-persisted bad data.
//
// Flatten never mutates the structure; flattening the same tree twice
// yields identical output.
func Flatten(s *Structure) Timeline {
	f := flattener{}
	if s != nil {
		for _, n := range s.Nodes {
			f.walk(n, "")
		}
	}
	return Timeline{Segments: f.segments, TotalDuration: f.cursor}
}

type flattener struct {
	segments []Segment
	cursor   float64
	groupSeq int
}

func (f *flattener) walk(n Node, group string) {
	switch v := n.(type) {
	case *Step:
		f.emit(v, group)
	case *Repetition:
		if v.RepeatCount < 1 {
			return
		}
		for i := 0; i < v.RepeatCount; i++ {
			f.groupSeq++
			g := fmt.Sprintf("rep-%d", f.groupSeq)
			for _, c := range v.Children {
				f.walk(c, g)
			}
		}
	}
}

func (f *flattener) emit(s *Step, group string) {
	d := s.DurationSeconds()
	if d <= 0 && !s.OpenDuration {
		return
	}
	if d < 0 {
		return
	}
	f.segments = append(f.segments, Segment{
		StartTime:      f.cursor,
		EndTime:        f.cursor + d,
		Duration:       d,
		TargetMin:      s.TargetMin,
		TargetMax:      s.TargetMax,
		IntensityClass: s.IntensityClass,
		Name:           s.Name,
		OpenDuration:   s.OpenDuration,
		GroupID:        group,
	})
	f.cursor += d
}
