package compare

import (
	"math"
	"testing"
	"time"

	"github.com/civicaudit/groundtruth/internal/model"
)

func sample(period model.Period, value float64, captured time.Time) *model.IndexSample {
	return &model.IndexSample{
		Period:     period,
		Value:      value,
		Scene:      model.SceneRef{ID: "s-" + string(period), CapturedAt: captured},
		ComputedAt: time.Now(),
	}
}

func TestChange_BasicDelta(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	captured := start.AddDate(0, 8, 0)

	before := sample(model.PeriodBefore, 0.10, start.AddDate(0, -7, 0))
	after := sample(model.PeriodAfter, 0.12, captured)

	est, err := Change(before, after, &start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(est.AbsoluteDelta-0.02) > 1e-9 {
		t.Errorf("expected absolute delta 0.02, got %v", est.AbsoluteDelta)
	}
	if math.Abs(est.PctDelta-20) > 1e-6 {
		t.Errorf("expected 20%% delta, got %v", est.PctDelta)
	}
	if est.LowConfidence {
		t.Error("expected normal baseline not to be low confidence")
	}
	if est.DurationMonths < 7.5 || est.DurationMonths > 8.5 {
		t.Errorf("expected duration near 8 months, got %v", est.DurationMonths)
	}
}

func TestChange_NearZeroBaselineIsFiniteAndLowConfidence(t *testing.T) {
	cases := []float64{0, 0.0001, -0.0001, 0.009, -0.009}

	for _, baseline := range cases {
		before := sample(model.PeriodBefore, baseline, time.Now().AddDate(0, -7, 0))
		after := sample(model.PeriodAfter, 0.15, time.Now())

		est, err := Change(before, after, nil)
		if err != nil {
			t.Fatalf("baseline %v: unexpected error: %v", baseline, err)
		}
		if math.IsNaN(est.PctDelta) || math.IsInf(est.PctDelta, 0) {
			t.Fatalf("baseline %v: non-finite pct delta %v", baseline, est.PctDelta)
		}
		if !est.LowConfidence {
			t.Errorf("baseline %v: expected low confidence with clamped denominator", baseline)
		}
	}
}

func TestChange_PropagatesSampleLowConfidence(t *testing.T) {
	before := sample(model.PeriodBefore, 0.2, time.Now().AddDate(0, -7, 0))
	before.LowConfidence = true
	after := sample(model.PeriodAfter, 0.3, time.Now())

	est, err := Change(before, after, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !est.LowConfidence {
		t.Error("expected sample low confidence to propagate")
	}
}

func TestChange_NoStartDate(t *testing.T) {
	before := sample(model.PeriodBefore, 0.2, time.Now().AddDate(0, -7, 0))
	after := sample(model.PeriodAfter, 0.3, time.Now())

	est, err := Change(before, after, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if est.DurationMonths != 0 {
		t.Errorf("expected zero duration without start date, got %v", est.DurationMonths)
	}
}

func TestChange_MissingSamples(t *testing.T) {
	after := sample(model.PeriodAfter, 0.3, time.Now())

	if _, err := Change(nil, after, nil); err == nil {
		t.Fatal("expected error for missing before sample")
	}
	if _, err := Change(after, after, nil); err == nil {
		t.Fatal("expected error for mislabeled periods")
	}
}
