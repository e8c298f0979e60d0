package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/civicaudit/groundtruth/internal/model"
)

func writeProjectsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projects.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write projects file: %v", err)
	}
	return path
}

func TestLoadProjectsFile(t *testing.T) {
	path := writeProjectsFile(t, `
projects:
  - id: BLR-2024-0117
    name: Ring Road Extension
    latitude: 12.9716
    longitude: 77.5946
    status: In Progress
    start_date: 2024-06-01T00:00:00Z
    department: public-works
  - id: BLR-2024-0152
    name: Community Hall
    status: Pending
`)

	projects, err := LoadProjectsFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(projects))
	}

	first := projects[0]
	if first.ID != "BLR-2024-0117" || first.Status != model.StatusInProgress {
		t.Errorf("unexpected first project: %+v", first)
	}
	if first.StartDate == nil || first.StartDate.Year() != 2024 {
		t.Errorf("start date not parsed: %+v", first.StartDate)
	}
	if !first.HasLocation() {
		t.Error("expected the first project to carry a location")
	}
	if projects[1].HasLocation() {
		t.Error("expected the second project to lack a location")
	}
}

func TestLoadProjectsFileErrors(t *testing.T) {
	if _, err := LoadProjectsFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}

	empty := writeProjectsFile(t, "projects: []\n")
	if _, err := LoadProjectsFile(empty); err == nil {
		t.Error("expected an error for an empty project list")
	}

	noID := writeProjectsFile(t, "projects:\n  - name: Nameless\n")
	if _, err := LoadProjectsFile(noID); err == nil {
		t.Error("expected an error for a missing id")
	}

	malformed := writeProjectsFile(t, "projects: {not a list\n")
	if _, err := LoadProjectsFile(malformed); err == nil {
		t.Error("expected an error for malformed yaml")
	}
}
