package model

import "time"

// Severity grades how badly observed change deviates from the claimed status
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// DateWindow is a half-open [From, To) query window for scene search
type DateWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ChangeEstimate describes the observed spectral change between the two
// periods. PctDelta is always finite: when the before value is near zero the
// denominator is clamped to an epsilon and LowConfidence is set instead.
type ChangeEstimate struct {
	Before         float64 `json:"before"`
	After          float64 `json:"after"`
	AbsoluteDelta  float64 `json:"absolute_delta"`
	PctDelta       float64 `json:"pct_delta"`       // Percent, e.g. 12.5 means +12.5%
	DurationMonths float64 `json:"duration_months"` // Declared start to "after" capture
	LowConfidence  bool    `json:"low_confidence"`  // Epsilon-clamped or degraded inputs
}

// AnalysisResult is the engine's output record for one run. Created fresh per
// run, immutable once written; the next run for the same project supersedes it.
type AnalysisResult struct {
	ID              string            `json:"id"`                        // Result identifier (uuid)
	ProjectID       string            `json:"project_id"`
	Region          RegionOfInterest  `json:"region"`
	BeforeWindow    DateWindow        `json:"before_window"`
	AfterWindow     DateWindow        `json:"after_window"`
	Change          *ChangeEstimate   `json:"change,omitempty"`          // Nil when inconclusive
	DetectedStatus  *ProjectStatus    `json:"detected_status,omitempty"` // Nil means inconclusive
	Confidence      float64           `json:"confidence"`                // 0-1
	Mismatch        bool              `json:"mismatch"`
	Severity        Severity          `json:"severity"`
	Recommendations []string          `json:"recommendations,omitempty"` // Ordered advisory text
	Samples         map[Period]string `json:"samples,omitempty"`         // Period -> scene id actually used
	ProducedAt      time.Time         `json:"produced_at"`
}

// Inconclusive reports whether the run could not determine a status
func (r *AnalysisResult) Inconclusive() bool {
	return r.DetectedStatus == nil
}

// RedFlag is raised when a result's mismatch is severe enough to need human
// attention. Never deleted; resolution happens outside the engine.
type RedFlag struct {
	ID          string    `json:"id"`           // Flag identifier (uuid)
	FlagType    string    `json:"flag_type"`    // e.g. "satellite-verification-mismatch"
	ProjectID   string    `json:"project_id"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description"`
	DetectedAt  time.Time `json:"detected_at"`
}

// FlagTypeSatelliteMismatch tags flags produced by this engine
const FlagTypeSatelliteMismatch = "satellite-verification-mismatch"
