// Package registry is the boundary to the external project registry: the
// engine reads project records from it and writes analysis results and red
// flags back through it.
package registry

import (
	"context"
	"errors"

	"github.com/civicaudit/groundtruth/internal/model"
)

var (
	// ErrNotFound means the project id is unknown to the registry
	ErrNotFound = errors.New("project not found")

	// ErrNoAnalysis means no analysis has been persisted for the project yet
	ErrNoAnalysis = errors.New("no analysis available")
)

// Store is the registry boundary contract
type Store interface {
	// GetProject reads one project record
	GetProject(ctx context.Context, projectID string) (*model.ProjectRef, error)

	// SaveAnalysisResult persists a run's result; it supersedes (never
	// mutates) the previous result for the same project.
	SaveAnalysisResult(ctx context.Context, result *model.AnalysisResult) error

	// RaiseRedFlag records a mismatch flag
	RaiseRedFlag(ctx context.Context, flag *model.RedFlag) error

	// LatestAnalysis returns the most recent result for a project
	LatestAnalysis(ctx context.Context, projectID string) (*model.AnalysisResult, error)
}
