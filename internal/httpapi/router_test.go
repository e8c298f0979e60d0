package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/civicaudit/groundtruth/internal/catalog"
	"github.com/civicaudit/groundtruth/internal/engine"
	"github.com/civicaudit/groundtruth/internal/model"
	"github.com/civicaudit/groundtruth/internal/registry"
)

func testBands(t *testing.T, swir, nir float64) *model.BandSet {
	t.Helper()
	bands, err := model.NewBandSet(map[model.BandID][]float64{
		model.BandSWIR: {swir, swir, swir, swir},
		model.BandNIR:  {nir, nir, nir, nir},
	})
	if err != nil {
		t.Fatalf("band set: %v", err)
	}
	return bands
}

func newTestServer(t *testing.T) (*httptest.Server, *registry.MemoryStore) {
	t.Helper()
	now := time.Now()
	start := now.AddDate(0, -8, 0)

	store := registry.NewMemoryStore()
	store.SeedProject(&model.ProjectRef{
		ID: "p1", Name: "Flyover Phase II",
		Latitude: 12.97, Longitude: 77.59,
		Status: model.StatusInProgress, StartDate: &start,
	})

	cat := catalog.NewMemory()
	cat.AddScene(model.SceneRef{
		ID: "b1", CapturedAt: now.AddDate(0, -15, 0), CloudFraction: 0.05,
	}, testBands(t, 1.1, 0.9))
	cat.AddScene(model.SceneRef{
		ID: "a1", CapturedAt: now.AddDate(0, 0, -10), CloudFraction: 0.05,
	}, testBands(t, 1.14, 0.86))

	srv := httptest.NewServer(NewRouter(engine.New(store, cat, model.DefaultConfig())))
	t.Cleanup(srv.Close)
	return srv, store
}

func TestRunAndFetchAnalysis(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/projects/p1/analysis", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result model.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.ProjectID != "p1" {
		t.Errorf("unexpected project id %s", result.ProjectID)
	}
	if result.Change == nil {
		t.Error("expected a change estimate")
	}

	get, err := http.Get(srv.URL + "/v1/projects/p1/analysis")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer get.Body.Close()
	if get.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for latest, got %d", get.StatusCode)
	}
}

func TestUnknownProjectIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/projects/ghost/analysis", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestNoAnalysisIs404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/projects/p1/analysis")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 before any run, got %d", resp.StatusCode)
	}
}

func TestUnlocatedProjectIs422(t *testing.T) {
	srv, store := newTestServer(t)
	store.SeedProject(&model.ProjectRef{ID: "p2", Name: "No Coords", Status: model.StatusPending})

	resp, err := http.Post(srv.URL+"/v1/projects/p2/analysis", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", resp.StatusCode)
	}
}

func TestRunStateIdle(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/projects/p1/analysis/state")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Active {
		t.Error("expected no active run")
	}
}
