package plan

import "math"

// Load is the aggregate planned training load of a timeline. TSS is the
// Training Stress Score approximation; IntensityFactor summarizes average
// session intensity relative to FTP. Approximate is set when any segment
// had an open duration, since those contribute only their nominal length —
// callers should label the numbers as illustrative in that case.
type Load struct {
	TSS             float64 `json:"tss"`
	IntensityFactor float64 `json:"intensity_factor"`
	Approximate     bool    `json:"approximate,omitempty"`
}

// Estimate reduces a segment timeline to TSS and IF. This is a planning
// approximation from the target band midpoint, not a power-trace TSS:
// each segment contributes (hours * avgIntensity^2 * 100), and IF is
// backed out of the total. It is a pure function; callers recompute it in
// full after every edit (segment counts are small).
func Estimate(segments []Segment) Load {
	var weighted, total float64
	var approx bool
	for _, seg := range segments {
		avg := (seg.TargetMin + seg.TargetMax) / 2 / 100
		weighted += seg.Duration / 3600 * avg * avg * 100
		total += seg.Duration
		if seg.OpenDuration {
			approx = true
		}
	}

	var intensity float64
	if total > 0 {
		intensity = math.Sqrt(weighted / (total / 3600) / 100)
	}
	return Load{
		TSS:             math.Round(weighted),
		IntensityFactor: intensity,
		Approximate:     approx,
	}
}
