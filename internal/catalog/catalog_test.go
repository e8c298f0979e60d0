package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/civicaudit/groundtruth/internal/model"
)

var testRegion = model.RegionOfInterest{Latitude: 12.9716, Longitude: 77.5946, RadiusMeters: 500}

func scene(id string, cloud float64, captured time.Time) model.SceneRef {
	return model.SceneRef{ID: id, CloudFraction: cloud, CapturedAt: captured, Collection: "sentinel-2-l2a"}
}

func TestSelectBest(t *testing.T) {
	now := time.Now()
	scenes := []model.SceneRef{
		scene("clear", 0.02, now.AddDate(0, 0, -20)),
		scene("hazy", 0.15, now.AddDate(0, 0, -5)),
	}

	best, err := SelectBest(scenes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.ID != "clear" {
		t.Errorf("expected first (best) scene, got %s", best.ID)
	}
}

func TestSelectBest_Empty(t *testing.T) {
	_, err := SelectBest(nil)
	if !errors.Is(err, ErrNoScenes) {
		t.Errorf("expected ErrNoScenes, got %v", err)
	}
}

func TestSortScenes_CloudThenRecency(t *testing.T) {
	now := time.Now()
	scenes := []model.SceneRef{
		scene("old-hazy", 0.18, now.AddDate(0, 0, -40)),
		scene("old-clear", 0.05, now.AddDate(0, 0, -30)),
		scene("new-clear", 0.05, now.AddDate(0, 0, -2)),
	}

	sortScenes(scenes)

	want := []string{"new-clear", "old-clear", "old-hazy"}
	for i, id := range want {
		if scenes[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, scenes[i].ID)
		}
	}
}

func TestMemory_ListScenesFiltersAndOrders(t *testing.T) {
	now := time.Now()
	cat := NewMemory()
	from := now.AddDate(0, -3, 0)

	cat.AddScene(scene("cloudy", 0.6, now.AddDate(0, 0, -10)), nil)
	cat.AddScene(scene("out-of-window", 0.05, now.AddDate(0, -6, 0)), nil)
	cat.AddScene(scene("good", 0.08, now.AddDate(0, 0, -15)), nil)
	cat.AddScene(scene("best", 0.03, now.AddDate(0, 0, -7)), nil)

	scenes, err := cat.ListScenes(context.Background(), testRegion, from, now, 0.20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scenes) != 2 {
		t.Fatalf("expected 2 scenes after filtering, got %d", len(scenes))
	}
	if scenes[0].ID != "best" || scenes[1].ID != "good" {
		t.Errorf("wrong order: %s, %s", scenes[0].ID, scenes[1].ID)
	}
}

func TestMemory_FetchBandsUnknownScene(t *testing.T) {
	cat := NewMemory()

	_, err := cat.FetchBands(context.Background(), "missing")
	if !errors.Is(err, ErrNoScenes) {
		t.Errorf("expected ErrNoScenes, got %v", err)
	}
}
