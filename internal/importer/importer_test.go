package importer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

const sampleZWO = `<workout_file>
  <name>Tempo Builder</name>
  <sportType>bike</sportType>
  <workout>
    <Warmup Duration="600" PowerLow="0.40" PowerHigh="0.55"/>
    <SteadyState Duration="1200" Power="0.80"/>
    <Cooldown Duration="600" PowerLow="0.55" PowerHigh="0.40"/>
  </workout>
</workout_file>`

const sampleDoc = `{
  "name": "Sweet Spot 2x20",
  "steps": [
    {"text": "Warm up", "duration": 600, "power": {"start": 40, "end": 55, "units": "%ftp"}, "warmup": true},
    {"reps": 2, "steps": [
      {"text": "Sweet spot", "duration": 1200, "power": {"start": 88, "end": 92, "units": "%ftp"}},
      {"text": "Recover", "duration": 300, "power": {"start": 45, "end": 55, "units": "%ftp"}}
    ]}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestConvertFile dispatches on extension and carries the document name
// through.
func TestConvertFile(t *testing.T) {
	dir := t.TempDir()

	zwoPath := writeFile(t, dir, "tempo.zwo", sampleZWO)
	name, structure, err := convertFile(zwoPath)
	if err != nil {
		t.Fatalf("zwo: unexpected error: %v", err)
	}
	if name != "Tempo Builder" {
		t.Errorf("zwo name = %q, want Tempo Builder", name)
	}
	if structure == nil || len(structure.Nodes) != 3 {
		t.Fatalf("zwo nodes = %+v, want 3", structure)
	}

	docPath := writeFile(t, dir, "sst.json", sampleDoc)
	name, structure, err = convertFile(docPath)
	if err != nil {
		t.Fatalf("doc: unexpected error: %v", err)
	}
	if name != "Sweet Spot 2x20" {
		t.Errorf("doc name = %q, want Sweet Spot 2x20", name)
	}
	if structure == nil || len(structure.Nodes) != 2 {
		t.Fatalf("doc nodes = %+v, want 2", structure)
	}
}

// TestConvertFileInvalid reports parse failures instead of producing an
// empty structure.
func TestConvertFileInvalid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.zwo", "<workout_file><unclosed")
	if _, _, err := convertFile(path); err == nil {
		t.Error("expected error for truncated XML")
	}
}

func TestTemplateNameFromPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"4x8min_threshold.zwo", "4x8min threshold"},
		{"bike/sweet-spot-base.json", "sweet spot base"},
		{"recovery.zwo", "recovery"},
	}
	for _, tc := range tests {
		if got := templateNameFromPath(tc.in); got != tc.want {
			t.Errorf("templateNameFromPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSportFromPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/lib/bike/tempo.zwo", "bike"},
		{"/lib/Run/easy.json", "run"},
		{"/lib/tempo.zwo", ""},
		{"/lib/misc/tempo.zwo", ""},
	}
	for _, tc := range tests {
		if got := sportFromPath(tc.in); got != tc.want {
			t.Errorf("sportFromPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestStateDBRoundTrip verifies the imported-file tracking: same
// path/size/hash skips, a changed hash re-imports.
func TestStateDBRoundTrip(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("open state db: %v", err)
	}
	defer state.Close()

	done, err := state.IsImported("bike/tempo.zwo", 512, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("fresh file reported as imported")
	}

	if err := state.MarkImported("bike/tempo.zwo", 512, "abc"); err != nil {
		t.Fatal(err)
	}

	done, err = state.IsImported("bike/tempo.zwo", 512, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("imported file not reported")
	}

	// Edited file: same path, new content
	done, err = state.IsImported("bike/tempo.zwo", 600, "def")
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("changed file reported as imported")
	}
}

// TestImportDryRun walks a small library without a database: conversions
// run, counts accumulate, nothing is persisted.
func TestImportDryRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bike/tempo.zwo", sampleZWO)
	writeFile(t, dir, "sst.json", sampleDoc)
	writeFile(t, dir, "notes.txt", "not a workout")
	writeFile(t, dir, "broken.zwo", "<workout_file><unclosed")

	imp := New(nil, nil, slog.Default(), true)
	stats, err := imp.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.FilesProcessed != 2 {
		t.Errorf("FilesProcessed = %d, want 2", stats.FilesProcessed)
	}
	if stats.WorkoutsImported != 2 {
		t.Errorf("WorkoutsImported = %d, want 2", stats.WorkoutsImported)
	}
	if stats.FilesErrored != 1 {
		t.Errorf("FilesErrored = %d, want 1", stats.FilesErrored)
	}
	if stats.FilesSkipped != 0 {
		t.Errorf("FilesSkipped = %d, want 0", stats.FilesSkipped)
	}
}
