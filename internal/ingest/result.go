// Package ingest defines the shared result shape for workout-import
// providers. Each provider converts one third-party format into the
// internal workout structure; schema-level validation of the foreign
// payload is deliberately out of scope — anything the flattener tolerates
// is accepted.
package ingest

// Result holds the outcome of an import operation.
type Result struct {
	WorkoutsReceived int      `json:"workouts_received"`
	WorkoutsImported int      `json:"workouts_imported"`
	WorkoutsSkipped  int      `json:"workouts_skipped"`
	SkippedNames     []string `json:"skipped_names,omitempty"`
	Message          string   `json:"message,omitempty"`
}
