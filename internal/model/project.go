package model

import (
	"fmt"
	"math"
	"time"
)

// ProjectStatus is the status a project claims in the registry
type ProjectStatus string

const (
	StatusPending    ProjectStatus = "Pending"     // Announced, no work started
	StatusInProgress ProjectStatus = "In Progress" // Work reportedly underway
	StatusCompleted  ProjectStatus = "Completed"   // Work reportedly finished
	StatusCancelled  ProjectStatus = "Cancelled"   // Project abandoned
)

// KnownStatuses lists every status the engine understands
var KnownStatuses = []ProjectStatus{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

// Valid reports whether the status is one the engine understands
func (s ProjectStatus) Valid() bool {
	for _, known := range KnownStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ProjectRef is the engine's read-only view of a registry project record
type ProjectRef struct {
	ID         string        `json:"id" yaml:"id"`                                     // Registry identifier
	Name       string        `json:"name" yaml:"name"`                                 // Human-readable project name
	Latitude   float64       `json:"latitude" yaml:"latitude"`                         // Location, WGS84 degrees
	Longitude  float64       `json:"longitude" yaml:"longitude"`                       // Location, WGS84 degrees
	Status     ProjectStatus `json:"status" yaml:"status"`                             // Claimed status
	StartDate  *time.Time    `json:"start_date,omitempty" yaml:"start_date,omitempty"` // Declared start, if any
	EndDate    *time.Time    `json:"end_date,omitempty" yaml:"end_date,omitempty"`     // Declared end, if any
	Department string        `json:"department,omitempty" yaml:"department,omitempty"` // Owning department tag
}

// HasLocation reports whether the project carries usable coordinates.
// (0, 0) is treated as missing: registry records default unset points there.
func (p *ProjectRef) HasLocation() bool {
	if p.Latitude == 0 && p.Longitude == 0 {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// AgeMonths returns the project age in fractional months from its declared
// start date to the given reference time, or 0 when no start date is declared.
func (p *ProjectRef) AgeMonths(ref time.Time) float64 {
	if p.StartDate == nil || ref.Before(*p.StartDate) {
		return 0
	}
	return ref.Sub(*p.StartDate).Hours() / 24 / daysPerMonth
}

// daysPerMonth is the mean Gregorian month length used for duration math
const daysPerMonth = 30.44

// RegionOfInterest is the buffered area around a project used for all
// imagery sampling. Derived per run, never persisted on its own.
type RegionOfInterest struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
}

// BoundingBox returns the ROI's bounding box as (minLng, minLat, maxLng, maxLat),
// the corner order imagery search APIs expect.
func (r RegionOfInterest) BoundingBox() [4]float64 {
	// Meters per degree latitude is nearly constant; longitude shrinks
	// with the cosine of latitude.
	const metersPerDegLat = 111_320.0
	dLat := r.RadiusMeters / metersPerDegLat
	dLng := r.RadiusMeters / (metersPerDegLat * cosDeg(r.Latitude))
	return [4]float64{r.Longitude - dLng, r.Latitude - dLat, r.Longitude + dLng, r.Latitude + dLat}
}

func (r RegionOfInterest) String() string {
	return fmt.Sprintf("(%.5f, %.5f) r=%.0fm", r.Latitude, r.Longitude, r.RadiusMeters)
}

func cosDeg(deg float64) float64 {
	c := math.Cos(deg * math.Pi / 180)
	if math.Abs(c) < 1e-6 {
		// Poles: avoid a degenerate box
		return 1e-6
	}
	return c
}
