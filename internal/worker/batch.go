package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/civicaudit/groundtruth/internal/model"
)

// Runner starts one analysis run; satisfied by the engine
type Runner interface {
	RunAnalysis(ctx context.Context, projectID string) (*model.AnalysisResult, error)
}

// AnalysisJob analyzes a single project
type AnalysisJob struct {
	ProjectID string
	Runner    Runner
}

// Execute implements Job
func (j *AnalysisJob) Execute(ctx context.Context) Result {
	result, err := j.Runner.RunAnalysis(ctx, j.ProjectID)
	return &AnalysisOutcome{ProjectID: j.ProjectID, Result: result, Err: err}
}

// AnalysisOutcome is the per-project batch result
type AnalysisOutcome struct {
	ProjectID string
	Result    *model.AnalysisResult
	Err       error
}

// GetError implements Result
func (o *AnalysisOutcome) GetError() error {
	return o.Err
}

// BatchProcessor analyzes many projects concurrently. The engine's
// per-project admission control still applies inside each run.
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{runner: runner, concurrency: concurrency}
}

// ProcessProjects analyzes the given project ids concurrently
func (b *BatchProcessor) ProcessProjects(ctx context.Context, projectIDs []string) []*AnalysisOutcome {
	if len(projectIDs) == 0 {
		return []*AnalysisOutcome{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()
	stop := context.AfterFunc(ctx, pool.Shutdown)
	defer stop()

	for _, id := range projectIDs {
		pool.Submit(&AnalysisJob{ProjectID: id, Runner: b.runner})
	}

	results := pool.Wait()
	outcomes := make([]*AnalysisOutcome, len(results))
	for i, result := range results {
		outcomes[i] = result.(*AnalysisOutcome)
	}
	return outcomes
}

// ProcessFile reads project ids (one per line, # comments allowed) and
// analyzes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*AnalysisOutcome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("batch file %s contains no project ids", path)
	}

	return b.ProcessProjects(ctx, ids), nil
}
