// Package compare derives a change estimate from a pair of before/after
// index samples.
package compare

import (
	"fmt"
	"math"
	"time"

	"github.com/civicaudit/groundtruth/internal/model"
)

// Epsilon clamps the percentage-change denominator. A baseline index this
// close to zero would otherwise blow the ratio up; instead the estimate is
// kept and marked low confidence.
const Epsilon = 0.01

const daysPerMonth = 30.44

// Change computes the change estimate between two samples. startDate is the
// project's declared start; duration runs from it to the after scene's
// capture date in fractional months.
func Change(before, after *model.IndexSample, startDate *time.Time) (*model.ChangeEstimate, error) {
	if before == nil || after == nil {
		return nil, fmt.Errorf("change requires both period samples")
	}
	if before.Period != model.PeriodBefore || after.Period != model.PeriodAfter {
		return nil, fmt.Errorf("samples out of order: got %s/%s", before.Period, after.Period)
	}

	denom := math.Abs(before.Value)
	clamped := false
	if denom < Epsilon {
		denom = Epsilon
		clamped = true
	}

	estimate := &model.ChangeEstimate{
		Before:        before.Value,
		After:         after.Value,
		AbsoluteDelta: after.Value - before.Value,
		PctDelta:      (after.Value - before.Value) / denom * 100,
		LowConfidence: clamped || before.LowConfidence || after.LowConfidence,
	}

	if startDate != nil && after.Scene.CapturedAt.After(*startDate) {
		estimate.DurationMonths = after.Scene.CapturedAt.Sub(*startDate).Hours() / 24 / daysPerMonth
	}

	return estimate, nil
}
