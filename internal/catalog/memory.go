package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/civicaudit/groundtruth/internal/model"
)

// Memory is an in-process catalog backed by seeded scenes. Used by tests and
// by standalone runs that replay previously exported scene data.
type Memory struct {
	mu     sync.RWMutex
	scenes []model.SceneRef
	bands  map[string]*model.BandSet
}

// NewMemory creates an empty in-memory catalog
func NewMemory() *Memory {
	return &Memory{bands: make(map[string]*model.BandSet)}
}

// AddScene seeds one scene and its band data
func (m *Memory) AddScene(scene model.SceneRef, bands *model.BandSet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenes = append(m.scenes, scene)
	m.bands[scene.ID] = bands
}

// ListScenes implements Catalog
func (m *Memory) ListScenes(_ context.Context, _ model.RegionOfInterest, from, to time.Time, maxCloud float64) ([]model.SceneRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := filterScenes(append([]model.SceneRef(nil), m.scenes...), from, to, maxCloud)
	sortScenes(matched)
	return matched, nil
}

// FetchBands implements Catalog
func (m *Memory) FetchBands(_ context.Context, sceneID string) (*model.BandSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bands, ok := m.bands[sceneID]
	if !ok {
		return nil, fmt.Errorf("%w: scene %s", ErrNoScenes, sceneID)
	}
	return bands, nil
}
