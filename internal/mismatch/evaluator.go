// Package mismatch compares a project's claimed status against the observed
// physical change using a policy table of expected change ranges.
package mismatch

import (
	"fmt"
	"math"

	"github.com/civicaudit/groundtruth/internal/classify"
	"github.com/civicaudit/groundtruth/internal/model"
)

// Range is an inclusive expected percentage-change interval
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether pct falls inside the range
func (r Range) Contains(pct float64) bool {
	return pct >= r.Min && pct <= r.Max
}

// borderline reports whether pct sits within margin of either boundary
func (r Range) borderline(pct float64, margin float64) bool {
	return math.Abs(pct-r.Min) <= margin || math.Abs(pct-r.Max) <= margin
}

// Policy holds the expected-change table and severity thresholds
type Policy struct {
	Version  string
	Expected map[model.ProjectStatus]Range

	// StalledMaxPct is the change below which an in-progress claim of
	// StalledMinMonths age or more grades high.
	StalledMaxPct    float64
	StalledMinMonths float64

	// PendingSurgePct is the change above which a pending claim grades at
	// least medium.
	PendingSurgePct float64

	// BorderlineMargin is the distance (percentage points) from a range
	// boundary inside which a deviation grades low.
	BorderlineMargin float64
}

// DefaultPolicy returns the v1 expected-change table
func DefaultPolicy() Policy {
	return Policy{
		Version: "v1",
		Expected: map[model.ProjectStatus]Range{
			model.StatusPending:    {Min: 0, Max: 5},
			model.StatusInProgress: {Min: 5, Max: 50},
			model.StatusCompleted:  {Min: 10, Max: 100},
			model.StatusCancelled:  {Min: 0, Max: 10},
		},
		StalledMaxPct:    5,
		StalledMinMonths: 6,
		PendingSurgePct:  20,
		BorderlineMargin: 2,
	}
}

// Evaluation is the evaluator's output
type Evaluation struct {
	Mismatch        bool           `json:"mismatch"`
	Severity        model.Severity `json:"severity"`
	Expected        Range          `json:"expected"`
	Recommendations []string       `json:"recommendations"`
}

// Evaluator grades claimed-vs-observed discrepancies
type Evaluator struct {
	policy Policy
}

// New creates an evaluator with the given policy
func New(policy Policy) *Evaluator {
	return &Evaluator{policy: policy}
}

// Evaluate grades the discrepancy between the claimed status and the
// observed change. A nil estimate means the run was inconclusive: absent
// data never raises a mismatch.
func (e *Evaluator) Evaluate(claimed model.ProjectStatus, est *model.ChangeEstimate, detected classify.Result) Evaluation {
	if est == nil {
		return Evaluation{
			Mismatch: false,
			Severity: model.SeverityNone,
			Recommendations: []string{
				"Insufficient cloud-free imagery for this period. Re-run after the next acquisition pass.",
			},
		}
	}

	expected, ok := e.policy.Expected[claimed]
	if !ok {
		// Unknown claimed status: nothing to compare against.
		expected = Range{Min: 0, Max: 100}
	}

	ev := Evaluation{Expected: expected}
	ev.Mismatch = !expected.Contains(est.PctDelta)
	ev.Severity = e.grade(claimed, est, expected, ev.Mismatch)
	ev.Recommendations = e.recommend(claimed, est, detected, ev)
	return ev
}

// grade applies the severity rules in precedence order
func (e *Evaluator) grade(claimed model.ProjectStatus, est *model.ChangeEstimate, expected Range, mismatched bool) model.Severity {
	if !mismatched {
		return model.SeverityNone
	}

	// Long-running in-progress claim with no physical change: worst case.
	if claimed == model.StatusInProgress &&
		est.DurationMonths >= e.policy.StalledMinMonths &&
		est.PctDelta < e.policy.StalledMaxPct {
		return model.SeverityHigh
	}

	if expected.borderline(est.PctDelta, e.policy.BorderlineMargin) {
		return model.SeverityLow
	}

	return model.SeverityMedium
}

// recommend produces the advisory text for a graded evaluation. Ordered,
// severity-keyed; never a control decision.
func (e *Evaluator) recommend(claimed model.ProjectStatus, est *model.ChangeEstimate, detected classify.Result, ev Evaluation) []string {
	var recs []string

	switch ev.Severity {
	case model.SeverityHigh:
		recs = append(recs,
			fmt.Sprintf("Project claimed %s for %.1f months shows only %.1f%% physical change. Verify with a field inspection.",
				claimed, est.DurationMonths, est.PctDelta),
			"Request an updated contractor timeline from the implementing department.",
		)
	case model.SeverityMedium:
		recs = append(recs,
			fmt.Sprintf("Observed change of %.1f%% is outside the %.0f-%.0f%% range expected for a %s project. Request an updated status report.",
				est.PctDelta, ev.Expected.Min, ev.Expected.Max, claimed),
		)
		if claimed == model.StatusPending && est.PctDelta > e.policy.PendingSurgePct {
			recs = append(recs, "Significant construction activity on a pending project. Check for unauthorized or unreported work.")
		}
	case model.SeverityLow:
		recs = append(recs,
			fmt.Sprintf("Observed change of %.1f%% is marginally outside the expected range. Continue monitoring and re-check after the next imagery pass.",
				est.PctDelta),
		)
	default:
		recs = append(recs, "Observed change is consistent with the claimed status. Continue routine monitoring.")
	}

	if detected.Status != nil && *detected.Status != claimed && ev.Mismatch {
		recs = append(recs,
			fmt.Sprintf("Imagery suggests the project is %s rather than %s (confidence %.2f).",
				*detected.Status, claimed, detected.Confidence),
		)
	}

	if est.DurationMonths > 12 && (detected.Status == nil || *detected.Status != model.StatusCompleted) {
		recs = append(recs,
			fmt.Sprintf("Project has been running for %.1f months. Review the timeline and budget.", est.DurationMonths),
		)
	}

	return recs
}
