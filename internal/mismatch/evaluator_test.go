package mismatch

import (
	"testing"

	"github.com/civicaudit/groundtruth/internal/classify"
	"github.com/civicaudit/groundtruth/internal/model"
)

func estimate(pct, months float64) *model.ChangeEstimate {
	return &model.ChangeEstimate{PctDelta: pct, DurationMonths: months}
}

func detected(status model.ProjectStatus, conf float64) classify.Result {
	return classify.Result{Status: &status, Confidence: conf}
}

func TestEvaluate_InProgressWithinRange(t *testing.T) {
	e := New(DefaultPolicy())

	ev := e.Evaluate(model.StatusInProgress, estimate(20, 8), detected(model.StatusInProgress, 0.8))
	if ev.Mismatch {
		t.Error("expected no mismatch for 20% change on an in-progress claim")
	}
	if ev.Severity != model.SeverityNone {
		t.Errorf("expected severity none, got %s", ev.Severity)
	}
}

func TestEvaluate_StalledInProgressIsHigh(t *testing.T) {
	e := New(DefaultPolicy())

	ev := e.Evaluate(model.StatusInProgress, estimate(2, 8), detected(model.StatusPending, 0.9))
	if !ev.Mismatch {
		t.Fatal("expected mismatch for 2% change on an 8-month in-progress claim")
	}
	if ev.Severity != model.SeverityHigh {
		t.Errorf("expected severity high, got %s", ev.Severity)
	}
	if len(ev.Recommendations) == 0 {
		t.Error("expected recommendations for a high-severity mismatch")
	}
}

func TestEvaluate_PendingSurgeIsAtLeastMedium(t *testing.T) {
	e := New(DefaultPolicy())

	ev := e.Evaluate(model.StatusPending, estimate(40, 2), detected(model.StatusInProgress, 0.7))
	if !ev.Mismatch {
		t.Fatal("expected mismatch for 40% change on a pending claim")
	}
	if ev.Severity != model.SeverityMedium && ev.Severity != model.SeverityHigh {
		t.Errorf("expected at least medium severity, got %s", ev.Severity)
	}
}

func TestEvaluate_YoungDeviationIsMedium(t *testing.T) {
	e := New(DefaultPolicy())

	// Claimed completed at 2 months with no visible work.
	ev := e.Evaluate(model.StatusCompleted, estimate(1, 2), detected(model.StatusPending, 0.8))
	if !ev.Mismatch {
		t.Fatal("expected mismatch")
	}
	if ev.Severity != model.SeverityMedium {
		t.Errorf("expected medium, got %s", ev.Severity)
	}
}

func TestEvaluate_BorderlineIsLow(t *testing.T) {
	e := New(DefaultPolicy())

	// 6.5% on a pending claim: outside 0-5 but within 2 points of the boundary.
	ev := e.Evaluate(model.StatusPending, estimate(6.5, 2), detected(model.StatusInProgress, 0.5))
	if !ev.Mismatch {
		t.Fatal("expected mismatch")
	}
	if ev.Severity != model.SeverityLow {
		t.Errorf("expected low, got %s", ev.Severity)
	}
}

func TestEvaluate_InconclusiveNeverFlags(t *testing.T) {
	e := New(DefaultPolicy())

	ev := e.Evaluate(model.StatusInProgress, nil, classify.Result{})
	if ev.Mismatch {
		t.Error("absent data must never raise a mismatch")
	}
	if ev.Severity != model.SeverityNone {
		t.Errorf("expected severity none, got %s", ev.Severity)
	}
	if len(ev.Recommendations) == 0 {
		t.Error("expected an advisory note about missing imagery")
	}
}

func TestEvaluate_CancelledRange(t *testing.T) {
	e := New(DefaultPolicy())

	within := e.Evaluate(model.StatusCancelled, estimate(8, 14), classify.Result{})
	if within.Mismatch {
		t.Error("8% change is inside the cancelled range")
	}

	outside := e.Evaluate(model.StatusCancelled, estimate(35, 14), detected(model.StatusInProgress, 0.7))
	if !outside.Mismatch {
		t.Error("35% change on a cancelled project should mismatch")
	}
}

func TestEvaluate_RecommendationsOrdered(t *testing.T) {
	e := New(DefaultPolicy())

	first := e.Evaluate(model.StatusInProgress, estimate(2, 8), detected(model.StatusPending, 0.9))
	second := e.Evaluate(model.StatusInProgress, estimate(2, 8), detected(model.StatusPending, 0.9))
	if len(first.Recommendations) != len(second.Recommendations) {
		t.Fatal("recommendation list is not stable")
	}
	for i := range first.Recommendations {
		if first.Recommendations[i] != second.Recommendations[i] {
			t.Errorf("recommendation order drifted at %d", i)
		}
	}
}
