package model

import (
	"fmt"
	"time"
)

// Period labels the two temporal windows every analysis compares
type Period string

const (
	PeriodBefore Period = "before" // Baseline window, pre-construction
	PeriodAfter  Period = "after"  // Recent window
)

// SceneRef identifies one imagery scene returned by the catalog.
// Immutable once fetched; held only for the duration of a run.
type SceneRef struct {
	ID            string    `json:"id"`                   // Catalog scene identifier
	CapturedAt    time.Time `json:"captured_at"`          // Acquisition timestamp
	CloudFraction float64   `json:"cloud_fraction"`       // Cloud cover, 0-1
	Collection    string    `json:"collection,omitempty"` // Source collection (e.g. "sentinel-2-l2a")
}

// BandID names a spectral band in catalog payloads
type BandID string

const (
	BandGreen BandID = "green" // Visible green
	BandRed   BandID = "red"   // Visible red
	BandNIR   BandID = "nir"   // Near infrared
	BandSWIR  BandID = "swir"  // Short-wave infrared
)

// BandSet holds per-pixel reflectance rows for one scene, keyed by band.
// Construct via NewBandSet so malformed payloads are rejected at the
// catalog boundary instead of surfacing as index math errors downstream.
type BandSet struct {
	bands  map[BandID][]float64
	pixels int
}

// NewBandSet validates raw band arrays: every band present must be non-empty
// and all bands must have the same pixel count.
func NewBandSet(bands map[BandID][]float64) (*BandSet, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("band set is empty")
	}
	pixels := -1
	for id, values := range bands {
		if len(values) == 0 {
			return nil, fmt.Errorf("band %s has no pixels", id)
		}
		if pixels == -1 {
			pixels = len(values)
		} else if len(values) != pixels {
			return nil, fmt.Errorf("band %s has %d pixels, want %d", id, len(values), pixels)
		}
	}
	return &BandSet{bands: bands, pixels: pixels}, nil
}

// Band returns the pixel values for one band, or false if the scene lacks it
func (b *BandSet) Band(id BandID) ([]float64, bool) {
	values, ok := b.bands[id]
	return values, ok
}

// Pixels returns the per-band pixel count
func (b *BandSet) Pixels() int {
	return b.pixels
}

// IndexSample is the reduced spectral-index value for one scene in one period
type IndexSample struct {
	Period        Period    `json:"period"`
	Value         float64   `json:"value"`          // Mean index over in-region pixels
	Scene         SceneRef  `json:"scene"`          // Scene the value was computed from
	ComputedAt    time.Time `json:"computed_at"`
	LowConfidence bool      `json:"low_confidence"` // Set when too few valid pixels survived masking
}
