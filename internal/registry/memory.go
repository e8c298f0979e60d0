package registry

import (
	"context"
	"sync"

	"github.com/civicaudit/groundtruth/internal/model"
)

// MemoryStore is an in-process registry. Used by tests and standalone runs
// fed from a projects file.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]*model.ProjectRef
	analyses map[string][]*model.AnalysisResult
	flags    []*model.RedFlag
}

// NewMemoryStore creates an empty in-memory registry
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]*model.ProjectRef),
		analyses: make(map[string][]*model.AnalysisResult),
	}
}

// SeedProject adds or replaces a project record
func (s *MemoryStore) SeedProject(project *model.ProjectRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.ID] = project
}

// GetProject implements Store
func (s *MemoryStore) GetProject(_ context.Context, projectID string) (*model.ProjectRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[projectID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *project
	return &copied, nil
}

// SaveAnalysisResult implements Store; results accumulate, newest last
func (s *MemoryStore) SaveAnalysisResult(_ context.Context, result *model.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[result.ProjectID] = append(s.analyses[result.ProjectID], result)
	return nil
}

// RaiseRedFlag implements Store
func (s *MemoryStore) RaiseRedFlag(_ context.Context, flag *model.RedFlag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = append(s.flags, flag)
	return nil
}

// LatestAnalysis implements Store
func (s *MemoryStore) LatestAnalysis(_ context.Context, projectID string) (*model.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := s.analyses[projectID]
	if len(results) == 0 {
		return nil, ErrNoAnalysis
	}
	return results[len(results)-1], nil
}

// Flags returns all raised flags (test helper)
func (s *MemoryStore) Flags() []*model.RedFlag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.RedFlag(nil), s.flags...)
}
