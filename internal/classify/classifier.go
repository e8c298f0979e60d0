// Package classify maps observed change magnitude to an estimated project
// status. The mapping is a versioned, table-driven policy so thresholds can
// be audited and tuned without touching control flow.
package classify

import (
	"math"

	"github.com/civicaudit/groundtruth/internal/model"
)

// StatusBand maps a half-open percentage-change range [MinPct, MaxPct) to a
// detected status. MaxMonths, when non-zero, additionally requires the
// project duration to stay under it for the band to apply.
type StatusBand struct {
	MinPct    float64
	MaxPct    float64
	MaxMonths float64
	Status    model.ProjectStatus
}

// Policy is the classifier's decision table
type Policy struct {
	Version string
	Bands   []StatusBand

	// HighDensity is the structure-density fraction above which a scene
	// reads as completed regardless of change percentage.
	HighDensity float64

	// HighConfidence is assigned to unambiguous band hits; FallbackConfidence
	// to matches that only fail a band's duration constraint.
	HighConfidence     float64
	FallbackConfidence float64
}

// DefaultPolicy returns the v1 decision table
func DefaultPolicy() Policy {
	return Policy{
		Version: "v1",
		Bands: []StatusBand{
			{MinPct: math.Inf(-1), MaxPct: 5, MaxMonths: 3, Status: model.StatusPending},
			{MinPct: 5, MaxPct: 50, Status: model.StatusInProgress},
			{MinPct: 50, MaxPct: math.Inf(1), Status: model.StatusCompleted},
		},
		HighDensity:        0.5,
		HighConfidence:     0.9,
		FallbackConfidence: 0.5,
	}
}

// Result is the classifier output. A nil Status means inconclusive.
type Result struct {
	Status     *model.ProjectStatus `json:"status,omitempty"`
	Confidence float64              `json:"confidence"`
}

// Classifier applies a policy to change estimates
type Classifier struct {
	policy Policy
}

// New creates a classifier with the given policy
func New(policy Policy) *Classifier {
	return &Classifier{policy: policy}
}

// Classify estimates the project status from a change estimate and an
// optional structure-density signal. Pure: the same inputs always yield the
// same result. A nil estimate means no usable samples and is inconclusive.
// A nil density means the signal is unavailable (degraded mode).
func (c *Classifier) Classify(est *model.ChangeEstimate, density *float64) Result {
	if est == nil {
		return Result{Status: nil, Confidence: 0}
	}

	// High structure density reads as completed even when the spectral
	// delta alone would not.
	if density != nil && *density >= c.policy.HighDensity {
		status := model.StatusCompleted
		return c.capped(est, Result{Status: &status, Confidence: c.policy.HighConfidence})
	}

	for _, band := range c.policy.Bands {
		if est.PctDelta < band.MinPct || est.PctDelta >= band.MaxPct {
			continue
		}
		if band.MaxMonths > 0 && est.DurationMonths >= band.MaxMonths {
			// In range but too old for the band's reading; keep the
			// status with reduced confidence.
			status := band.Status
			return c.capped(est, Result{Status: &status, Confidence: c.policy.FallbackConfidence})
		}
		status := band.Status
		return c.capped(est, Result{Status: &status, Confidence: c.confidenceFor(band, est.PctDelta)})
	}

	return Result{Status: nil, Confidence: 0}
}

// confidenceFor scales confidence by how centrally the value sits in a
// bounded band; unbounded bands get the policy's high confidence.
func (c *Classifier) confidenceFor(band StatusBand, pct float64) float64 {
	if math.IsInf(band.MinPct, -1) || math.IsInf(band.MaxPct, 1) {
		return c.policy.HighConfidence
	}
	center := (band.MinPct + band.MaxPct) / 2
	halfWidth := (band.MaxPct - band.MinPct) / 2
	centrality := 1 - math.Abs(pct-center)/halfWidth
	return c.policy.FallbackConfidence + (c.policy.HighConfidence-c.policy.FallbackConfidence)*centrality
}

// capped limits confidence for low-confidence estimates
func (c *Classifier) capped(est *model.ChangeEstimate, r Result) Result {
	if est.LowConfidence && r.Confidence > c.policy.FallbackConfidence {
		r.Confidence = c.policy.FallbackConfidence
	}
	return r
}
