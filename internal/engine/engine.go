// Package engine orchestrates a full verification run: region resolution,
// temporal scene selection, index computation, change comparison, status
// classification, mismatch evaluation and persistence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/civicaudit/groundtruth/internal/catalog"
	"github.com/civicaudit/groundtruth/internal/classify"
	"github.com/civicaudit/groundtruth/internal/compare"
	"github.com/civicaudit/groundtruth/internal/geo"
	"github.com/civicaudit/groundtruth/internal/imagery"
	"github.com/civicaudit/groundtruth/internal/mismatch"
	"github.com/civicaudit/groundtruth/internal/model"
	"github.com/civicaudit/groundtruth/internal/registry"
)

// ErrAlreadyRunning is observed by the second of two concurrent triggers
// for the same project.
var ErrAlreadyRunning = errors.New("analysis already running for this project")

// ErrNotAnalyzable re-exports the region resolver's skip outcome
var ErrNotAnalyzable = geo.ErrNotAnalyzable

// sleepFunc is the backoff sleep (injectable for tests)
var sleepFunc = sleepCtx

// Engine is the analysis orchestrator
type Engine struct {
	store      registry.Store
	catalog    catalog.Catalog
	classifier *classify.Classifier
	evaluator  *mismatch.Evaluator
	cfg        model.AnalysisConfig
	maxCloud   float64
	runs       *runTable
	now        func() time.Time
}

// New creates an engine with the default v1 policies
func New(store registry.Store, cat catalog.Catalog, cfg *model.Config) *Engine {
	return &Engine{
		store:      store,
		catalog:    cat,
		classifier: classify.New(classify.DefaultPolicy()),
		evaluator:  mismatch.New(mismatch.DefaultPolicy()),
		cfg:        cfg.Analysis,
		maxCloud:   cfg.Catalog.MaxCloudFraction,
		runs:       newRunTable(),
		now:        time.Now,
	}
}

// RunState reports the state of an in-flight run, if any
func (e *Engine) RunState(projectID string) (State, bool) {
	return e.runs.stateOf(projectID)
}

// LatestAnalysis returns the most recent persisted result for a project
func (e *Engine) LatestAnalysis(ctx context.Context, projectID string) (*model.AnalysisResult, error) {
	return e.store.LatestAnalysis(ctx, projectID)
}

// GetProject returns the registry record for a project
func (e *Engine) GetProject(ctx context.Context, projectID string) (*model.ProjectRef, error) {
	return e.store.GetProject(ctx, projectID)
}

// Shutdown clears the admission table
func (e *Engine) Shutdown() {
	e.runs.clear()
}

// RunAnalysis performs one verification run for a project. Idempotent with
// respect to concurrent calls: the second caller gets ErrAlreadyRunning.
// Inconclusive runs (no usable imagery) return a result, not an error.
func (e *Engine) RunAnalysis(ctx context.Context, projectID string) (*model.AnalysisResult, error) {
	if !e.runs.acquire(projectID) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, projectID)
	}
	defer e.runs.release(projectID)

	timeout := e.cfg.RunTimeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := e.run(ctx, projectID)
	if err != nil {
		e.runs.setState(projectID, StateFailed)
		return nil, err
	}
	e.runs.setState(projectID, StateDone)
	return result, nil
}

// run executes the state machine. Cancellation is checked at every
// transition; a cancelled run discards all partial work.
func (e *Engine) run(ctx context.Context, projectID string) (*model.AnalysisResult, error) {
	if err := e.transition(ctx, projectID, StateResolvingRegion); err != nil {
		return nil, err
	}

	project, err := e.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project %s: %w", projectID, err)
	}

	region, err := geo.Resolve(project, e.cfg.BufferMeters)
	if err != nil {
		// Skip outcome: the project is excluded, not failed.
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}

	now := e.now()
	beforeWindow, afterWindow := periodWindows(project.StartDate, now)

	// Period fetches are independent; run them concurrently, but both
	// must settle before comparison.
	if err := e.transition(ctx, projectID, StateFetchingBefore); err != nil {
		return nil, err
	}
	e.runs.setState(projectID, StateFetchingAfter)

	var beforeSample, afterSample *model.IndexSample
	var density *float64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sample, _, err := e.fetchSample(gctx, model.PeriodBefore, region, beforeWindow)
		if err != nil {
			return err
		}
		beforeSample = sample
		return nil
	})
	g.Go(func() error {
		sample, bands, err := e.fetchSample(gctx, model.PeriodAfter, region, afterWindow)
		if err != nil {
			return err
		}
		afterSample = sample
		if bands != nil {
			if d, ok := imagery.StructureDensity(bands); ok {
				density = &d
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Index math happens inside the fetches; the state is still recorded
	// so observers see the run advance.
	if err := e.transition(ctx, projectID, StateComputingIndices); err != nil {
		return nil, err
	}

	if err := e.transition(ctx, projectID, StateComparing); err != nil {
		return nil, err
	}

	// A missing period yields a nil estimate and routes straight to
	// classification: partial data still produces an inconclusive result.
	var estimate *model.ChangeEstimate
	if beforeSample != nil && afterSample != nil {
		estimate, err = compare.Change(beforeSample, afterSample, project.StartDate)
		if err != nil {
			return nil, fmt.Errorf("compare periods: %w", err)
		}
	}

	if err := e.transition(ctx, projectID, StateClassifying); err != nil {
		return nil, err
	}
	detected := e.classifier.Classify(estimate, density)

	if err := e.transition(ctx, projectID, StateEvaluating); err != nil {
		return nil, err
	}
	evaluation := e.evaluator.Evaluate(project.Status, estimate, detected)

	result := &model.AnalysisResult{
		ID:              uuid.NewString(),
		ProjectID:       projectID,
		Region:          region,
		BeforeWindow:    beforeWindow,
		AfterWindow:     afterWindow,
		Change:          estimate,
		DetectedStatus:  detected.Status,
		Confidence:      detected.Confidence,
		Mismatch:        evaluation.Mismatch,
		Severity:        evaluation.Severity,
		Recommendations: evaluation.Recommendations,
		Samples:         sampleIDs(beforeSample, afterSample),
		ProducedAt:      e.now(),
	}

	if err := e.transition(ctx, projectID, StatePersisting); err != nil {
		return nil, err
	}
	if err := e.persist(ctx, project, result, estimate); err != nil {
		return nil, err
	}

	return result, nil
}

// fetchSample lists candidate scenes for a period with retry/backoff, then
// walks them best-first until one yields a usable index sample. An empty or
// exhausted candidate list is not an error: the period has no sample.
// Returns the band set behind the sample so the caller can derive auxiliary
// signals without refetching.
func (e *Engine) fetchSample(ctx context.Context, period model.Period, region model.RegionOfInterest, window model.DateWindow) (*model.IndexSample, *model.BandSet, error) {
	scenes, err := e.listWithRetry(ctx, region, window)
	if err != nil {
		if errors.Is(err, catalog.ErrNoScenes) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("%s period: %w", period, err)
	}

	for _, scene := range scenes {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}

		bands, err := e.catalog.FetchBands(ctx, scene.ID)
		if err != nil {
			if errors.Is(err, catalog.ErrCatalogUnavailable) {
				return nil, nil, fmt.Errorf("%s period: %w", period, err)
			}
			// Malformed or missing band data: skip this scene and try
			// the next candidate.
			continue
		}

		sample, err := imagery.Sample(period, scene, bands, e.now())
		if err != nil {
			continue
		}
		return sample, bands, nil
	}

	return nil, nil, nil
}

// listWithRetry queries the catalog with bounded exponential backoff on
// transient failures
func (e *Engine) listWithRetry(ctx context.Context, region model.RegionOfInterest, window model.DateWindow) ([]model.SceneRef, error) {
	attempts := e.cfg.FetchRetries
	if attempts <= 0 {
		attempts = 3
	}
	baseDelay := e.cfg.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = time.Second
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		scenes, err := e.catalog.ListScenes(ctx, region, window.From, window.To, e.maxCloud)
		if err == nil {
			if len(scenes) == 0 {
				return nil, catalog.ErrNoScenes
			}
			return scenes, nil
		}
		if !errors.Is(err, catalog.ErrCatalogUnavailable) {
			return nil, err
		}
		lastErr = err
		if attempt < attempts-1 {
			if err := sleepFunc(ctx, baseDelay*(1<<uint(attempt))); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
}

// persist writes the result and, when mismatched, the red flag. The result
// write is retried once; exhaustion discards the computed result.
func (e *Engine) persist(ctx context.Context, project *model.ProjectRef, result *model.AnalysisResult, estimate *model.ChangeEstimate) error {
	if err := e.saveWithRetry(ctx, result); err != nil {
		return fmt.Errorf("persist result: %w", err)
	}

	if !result.Mismatch {
		return nil
	}

	flag := &model.RedFlag{
		ID:          uuid.NewString(),
		FlagType:    model.FlagTypeSatelliteMismatch,
		ProjectID:   project.ID,
		Severity:    result.Severity,
		Description: flagDescription(project, estimate),
		DetectedAt:  e.now(),
	}
	if err := e.store.RaiseRedFlag(ctx, flag); err != nil {
		// One retry, matching the result write policy.
		if err := e.store.RaiseRedFlag(ctx, flag); err != nil {
			return fmt.Errorf("raise red flag: %w", err)
		}
	}
	return nil
}

func (e *Engine) saveWithRetry(ctx context.Context, result *model.AnalysisResult) error {
	if err := e.store.SaveAnalysisResult(ctx, result); err == nil {
		return nil
	}
	return e.store.SaveAnalysisResult(ctx, result)
}

// transition advances the run's state, honoring cancellation
func (e *Engine) transition(ctx context.Context, projectID string, state State) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled before %s: %w", state, err)
	}
	e.runs.setState(projectID, state)
	return nil
}

// periodWindows derives the before/after scene-search windows. The before
// window brackets 9 to 6 months ahead of the anchor (the declared start
// when present, otherwise now); the after window covers the last two months.
func periodWindows(startDate *time.Time, now time.Time) (before, after model.DateWindow) {
	anchor := now
	if startDate != nil {
		anchor = *startDate
	}
	before = model.DateWindow{
		From: anchor.AddDate(0, 0, -270),
		To:   anchor.AddDate(0, 0, -180),
	}
	after = model.DateWindow{
		From: now.AddDate(0, 0, -60),
		To:   now.AddDate(0, 0, 1),
	}
	return before, after
}

func sampleIDs(samples ...*model.IndexSample) map[model.Period]string {
	ids := make(map[model.Period]string)
	for _, s := range samples {
		if s != nil {
			ids[s.Period] = s.Scene.ID
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}

func flagDescription(project *model.ProjectRef, estimate *model.ChangeEstimate) string {
	if estimate == nil {
		return fmt.Sprintf("Claimed status %q could not be verified from satellite imagery.", project.Status)
	}
	return fmt.Sprintf(
		"Physical change of %.1f%% observed from satellite imagery despite the project being %s for %.1f months.",
		estimate.PctDelta, project.Status, estimate.DurationMonths)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
