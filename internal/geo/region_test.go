package geo

import (
	"errors"
	"testing"

	"github.com/civicaudit/groundtruth/internal/model"
)

func TestResolve_ValidPoint(t *testing.T) {
	project := &model.ProjectRef{ID: "p1", Latitude: 12.9716, Longitude: 77.5946}

	roi, err := Resolve(project, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if roi.Latitude != 12.9716 || roi.Longitude != 77.5946 {
		t.Errorf("region center mismatch: got (%v, %v)", roi.Latitude, roi.Longitude)
	}
	if roi.RadiusMeters != 500 {
		t.Errorf("expected radius 500, got %v", roi.RadiusMeters)
	}
}

func TestResolve_DefaultBuffer(t *testing.T) {
	project := &model.ProjectRef{ID: "p1", Latitude: 12.9716, Longitude: 77.5946}

	roi, err := Resolve(project, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if roi.RadiusMeters != DefaultBufferMeters {
		t.Errorf("expected default radius %v, got %v", float64(DefaultBufferMeters), roi.RadiusMeters)
	}
}

func TestResolve_NotAnalyzable(t *testing.T) {
	cases := []struct {
		name    string
		project *model.ProjectRef
	}{
		{"nil project", nil},
		{"zero point", &model.ProjectRef{ID: "p1"}},
		{"latitude out of range", &model.ProjectRef{ID: "p1", Latitude: 91, Longitude: 10}},
		{"longitude out of range", &model.ProjectRef{ID: "p1", Latitude: 10, Longitude: -200}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(tc.project, 500)
			if !errors.Is(err, ErrNotAnalyzable) {
				t.Errorf("expected ErrNotAnalyzable, got %v", err)
			}
		})
	}
}

func TestBoundingBox_ContainsCenter(t *testing.T) {
	roi := model.RegionOfInterest{Latitude: 12.9716, Longitude: 77.5946, RadiusMeters: 500}

	box := roi.BoundingBox()
	if box[0] >= roi.Longitude || box[2] <= roi.Longitude {
		t.Errorf("longitude bounds do not bracket center: %v", box)
	}
	if box[1] >= roi.Latitude || box[3] <= roi.Latitude {
		t.Errorf("latitude bounds do not bracket center: %v", box)
	}
}
