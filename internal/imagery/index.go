// Package imagery computes normalized-difference spectral indices from
// scene band data and reduces them to per-region scalars.
package imagery

import (
	"fmt"
	"math"
	"time"

	"github.com/civicaudit/groundtruth/internal/model"
)

// Index names a normalized-difference band pair. Every index is computed as
// (a - b) / (a + b) per pixel, so values are bounded in [-1, 1].
type Index struct {
	Name  string
	BandA model.BandID
	BandB model.BandID
}

// BuiltUp is the primary change metric: constructed/impervious surface
// brightens short-wave infrared relative to near infrared.
var BuiltUp = Index{Name: "built-up", BandA: model.BandSWIR, BandB: model.BandNIR}

// Vegetation and Water are auxiliary signals only; they never drive the
// primary change estimate.
var (
	Vegetation = Index{Name: "vegetation", BandA: model.BandNIR, BandB: model.BandRed}
	Water      = Index{Name: "water", BandA: model.BandGreen, BandB: model.BandNIR}
)

// minValidFraction is the share of pixels that must survive masking before
// the sample is considered trustworthy.
const minValidFraction = 0.5

// MeanIndex computes the mean of the given index over all pixels, masking
// out pixels whose denominator is zero. Returns an error only when the scene
// lacks a required band or no pixel is computable; NaN never escapes.
func MeanIndex(bands *model.BandSet, idx Index) (value float64, lowConfidence bool, err error) {
	a, ok := bands.Band(idx.BandA)
	if !ok {
		return 0, false, fmt.Errorf("%s index: scene has no %s band", idx.Name, idx.BandA)
	}
	b, ok := bands.Band(idx.BandB)
	if !ok {
		return 0, false, fmt.Errorf("%s index: scene has no %s band", idx.Name, idx.BandB)
	}

	var sum float64
	valid := 0
	for i := range a {
		denom := a[i] + b[i]
		if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
			continue
		}
		sum += (a[i] - b[i]) / denom
		valid++
	}
	if valid == 0 {
		return 0, false, fmt.Errorf("%s index: no valid pixels", idx.Name)
	}

	mean := sum / float64(valid)
	// Clamp residual float error so callers can rely on the [-1, 1] bound.
	mean = math.Max(-1, math.Min(1, mean))
	low := float64(valid) < minValidFraction*float64(bands.Pixels())
	return mean, low, nil
}

// Sample computes the built-up index sample for one scene in one period
func Sample(period model.Period, scene model.SceneRef, bands *model.BandSet, now time.Time) (*model.IndexSample, error) {
	value, low, err := MeanIndex(bands, BuiltUp)
	if err != nil {
		return nil, err
	}
	return &model.IndexSample{
		Period:        period,
		Value:         value,
		Scene:         scene,
		ComputedAt:    now,
		LowConfidence: low,
	}, nil
}

// StructureDensity derives the auxiliary structure-density signal: the
// fraction of in-region pixels whose built-up index exceeds the built
// threshold. Returns false when the scene lacks the needed bands, which
// callers treat as an acceptable degraded mode.
func StructureDensity(bands *model.BandSet) (float64, bool) {
	a, okA := bands.Band(model.BandSWIR)
	b, okB := bands.Band(model.BandNIR)
	if !okA || !okB {
		return 0, false
	}

	// Pixels above this index value read as constructed surface.
	const builtThreshold = 0.1

	built, valid := 0, 0
	for i := range a {
		denom := a[i] + b[i]
		if denom == 0 || math.IsNaN(denom) || math.IsInf(denom, 0) {
			continue
		}
		valid++
		if (a[i]-b[i])/denom > builtThreshold {
			built++
		}
	}
	if valid == 0 {
		return 0, false
	}
	return float64(built) / float64(valid), true
}
