package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/paceline/internal/plan"
)

// TestDefaultTimeRange verifies the forward-looking defaults (coming 7 days)
// and date parsing.
func TestDefaultTimeRange(t *testing.T) {
	// Both empty → defaults to the coming 7 days
	start, end, err := defaultTimeRange("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	diff := end.Sub(start)
	if diff.Hours() < 167 || diff.Hours() > 169 { // ~168 hours = 7 days
		t.Errorf("default range = %.0f hours, want ~168", diff.Hours())
	}

	// Explicit dates
	start, end, err = defaultTimeRange("2026-03-01", "2026-03-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Year() != 2026 || start.Month() != 3 || start.Day() != 1 {
		t.Errorf("start = %v, want 2026-03-01", start)
	}
	if end.Year() != 2026 || end.Month() != 3 || end.Day() != 31 {
		t.Errorf("end = %v, want 2026-03-31", end)
	}

	// RFC3339
	start, _, err = defaultTimeRange("2026-06-15T10:30:00Z", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Errorf("start = %v, want 10:30", start)
	}

	// Invalid
	_, _, err = defaultTimeRange("not-a-date", "")
	if err == nil {
		t.Error("expected error for invalid date")
	}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// TestPreviewWorkoutTool verifies the preview tool flattens a structure and
// reports load without touching the data source.
func TestPreviewWorkoutTool(t *testing.T) {
	h := &handlers{log: slog.Default()}
	structure := `{"nodes":[
		{"type":"step","duration_value":20,"duration_unit":"minute","target_min":40,"target_max":55,"intensity_class":"warmUp"},
		{"type":"repetition","repeat_count":4,"children":[
			{"type":"step","duration_value":10,"duration_unit":"second","target_min":200,"target_max":300,"intensity_class":"active"},
			{"type":"step","duration_value":3,"duration_unit":"minute","target_min":50,"target_max":60,"intensity_class":"rest"}
		]}
	]}`

	result, err := h.previewWorkout(context.Background(), callRequest(map[string]any{"structure": structure}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error result: %+v", result.Content)
	}
}

// TestPreviewWorkoutToolRejectsInvalid verifies malformed structures come
// back as tool errors, not transport errors.
func TestPreviewWorkoutToolRejectsInvalid(t *testing.T) {
	h := &handlers{log: slog.Default()}

	cases := []struct {
		name string
		args map[string]any
	}{
		{"missing structure", map[string]any{}},
		{"bad JSON", map[string]any{"structure": "not json"}},
		{"zero repeat count", map[string]any{"structure": `{"nodes":[{"type":"repetition","repeat_count":0,"children":[{"type":"step","duration_value":30,"duration_unit":"second","target_min":50,"target_max":60,"intensity_class":"active"}]}]}`}},
	}
	for _, tc := range cases {
		result, err := h.previewWorkout(context.Background(), callRequest(tc.args))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if !result.IsError {
			t.Errorf("%s: expected error result", tc.name)
		}
	}
}

// TestZoneReferenceResource verifies the resource serves the default scheme.
func TestZoneReferenceResource(t *testing.T) {
	scheme := plan.ZoneScheme{
		Power: []plan.ZoneBand{
			{Name: "Endurance", Min: 0, Max: f(55)},
			{Name: "Tempo", Min: 55, Max: f(75)},
		},
		HeartRate: []plan.ZoneBand{
			{Name: "Endurance", Min: 0, Max: f(120)},
			{Name: "Tempo", Min: 120, Max: f(150)},
		},
	}
	h := &handlers{defaultScheme: scheme, log: slog.Default()}

	var req mcp.ReadResourceRequest
	req.Params.URI = "paceline://zone_reference"
	contents, err := h.zoneReference(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}

	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents[0] is %T, want TextResourceContents", contents[0])
	}
	var decoded plan.ZoneScheme
	if err := json.Unmarshal([]byte(text.Text), &decoded); err != nil {
		t.Fatalf("decode resource: %v", err)
	}
	if len(decoded.Power) != 2 || decoded.Power[1].Name != "Tempo" {
		t.Errorf("decoded scheme = %+v", decoded)
	}
}

func f(v float64) *float64 { return &v }
