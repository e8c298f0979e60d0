// Package geo resolves a project's point location into the region of
// interest used for all imagery sampling.
package geo

import (
	"errors"

	"github.com/civicaudit/groundtruth/internal/model"
)

// DefaultBufferMeters is the buffer radius applied around a project point
// when no override is configured.
const DefaultBufferMeters = 500

// ErrNotAnalyzable means the project has no usable coordinates. The caller
// should skip the project rather than treat this as a failure.
var ErrNotAnalyzable = errors.New("project location missing or out of bounds")

// Resolve builds the region of interest for a project. Pure: the same
// project and radius always produce the same region.
func Resolve(project *model.ProjectRef, bufferMeters float64) (model.RegionOfInterest, error) {
	if bufferMeters <= 0 {
		bufferMeters = DefaultBufferMeters
	}
	if project == nil || !project.HasLocation() {
		return model.RegionOfInterest{}, ErrNotAnalyzable
	}
	return model.RegionOfInterest{
		Latitude:     project.Latitude,
		Longitude:    project.Longitude,
		RadiusMeters: bufferMeters,
	}, nil
}
