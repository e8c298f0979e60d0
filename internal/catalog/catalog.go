// Package catalog talks to the imagery catalog: scene search, band
// fetching, and best-scene selection.
package catalog

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/civicaudit/groundtruth/internal/model"
)

var (
	// ErrNoScenes means the catalog has no usable scene for a period.
	// The most common real-world outcome; recoverable, never fatal.
	ErrNoScenes = errors.New("no scenes match the query")

	// ErrCatalogUnavailable wraps transient catalog/network failures.
	// Callers retry with backoff.
	ErrCatalogUnavailable = errors.New("imagery catalog unavailable")
)

// Catalog is the imagery boundary contract
type Catalog interface {
	// ListScenes returns scenes intersecting the region within [from, to),
	// with cloud fraction <= maxCloud, ordered by ascending cloud cover
	// then descending recency.
	ListScenes(ctx context.Context, region model.RegionOfInterest, from, to time.Time, maxCloud float64) ([]model.SceneRef, error)

	// FetchBands retrieves the band arrays for one scene.
	FetchBands(ctx context.Context, sceneID string) (*model.BandSet, error)
}

// SelectBest picks the best-quality scene from an ordered list: the first
// entry under the catalog's ordering contract.
func SelectBest(scenes []model.SceneRef) (model.SceneRef, error) {
	if len(scenes) == 0 {
		return model.SceneRef{}, ErrNoScenes
	}
	return scenes[0], nil
}

// sortScenes applies the ordering contract in place: ascending cloud cover,
// ties broken by most recent capture first.
func sortScenes(scenes []model.SceneRef) {
	sort.SliceStable(scenes, func(i, j int) bool {
		if scenes[i].CloudFraction != scenes[j].CloudFraction {
			return scenes[i].CloudFraction < scenes[j].CloudFraction
		}
		return scenes[i].CapturedAt.After(scenes[j].CapturedAt)
	})
}

// filterScenes drops scenes above the cloud threshold or outside the window
func filterScenes(scenes []model.SceneRef, from, to time.Time, maxCloud float64) []model.SceneRef {
	kept := scenes[:0:0]
	for _, s := range scenes {
		if s.CloudFraction > maxCloud {
			continue
		}
		if s.CapturedAt.Before(from) || !s.CapturedAt.Before(to) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}
