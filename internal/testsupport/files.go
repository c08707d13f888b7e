package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// SampleNote is a transcribed lab note exercising every extractor.
const SampleNote = `Experiment ID: EXP-2025-001
Date: 2025-08-03
Researcher: Dr. Ada Moreau
Title: Protein Crystallization Study

Materials:
Lysozyme 50 mg
Buffer pH 7.4

Methods:
Mixed 10 ml of protein solution with 5 ml buffer.
Heated to 37°C for 30 minutes.

Results:
Crystals formed after 2 hours at 0.5 M NaCl.
Yield was 85%.

Observations:
Needle-shaped crystals under the microscope.
`

// WriteNote writes content to name under dir and returns the full path.
func WriteNote(t testing.TB, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
