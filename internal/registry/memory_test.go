package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/civicaudit/groundtruth/internal/model"
)

func TestMemoryStore_GetProject(t *testing.T) {
	store := NewMemoryStore()
	store.SeedProject(&model.ProjectRef{ID: "p1", Name: "Flyover", Latitude: 12.97, Longitude: 77.59, Status: model.StatusInProgress})

	project, err := store.GetProject(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if project.Name != "Flyover" {
		t.Errorf("expected Flyover, got %s", project.Name)
	}

	if _, err := store.GetProject(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_LatestAnalysisSupersedes(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.LatestAnalysis(ctx, "p1"); !errors.Is(err, ErrNoAnalysis) {
		t.Fatalf("expected ErrNoAnalysis, got %v", err)
	}

	first := &model.AnalysisResult{ID: "r1", ProjectID: "p1", ProducedAt: time.Now().Add(-time.Hour)}
	second := &model.AnalysisResult{ID: "r2", ProjectID: "p1", ProducedAt: time.Now()}
	if err := store.SaveAnalysisResult(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveAnalysisResult(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	latest, err := store.LatestAnalysis(ctx, "p1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != "r2" {
		t.Errorf("expected newest result, got %s", latest.ID)
	}
}

func TestMemoryStore_RaiseRedFlag(t *testing.T) {
	store := NewMemoryStore()

	flag := &model.RedFlag{ID: "f1", FlagType: model.FlagTypeSatelliteMismatch, ProjectID: "p1", Severity: model.SeverityHigh}
	if err := store.RaiseRedFlag(context.Background(), flag); err != nil {
		t.Fatalf("raise: %v", err)
	}
	if got := store.Flags(); len(got) != 1 || got[0].ID != "f1" {
		t.Errorf("expected one flag f1, got %v", got)
	}
}
