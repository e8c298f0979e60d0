package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/civicaudit/groundtruth/internal/cache"
	"github.com/civicaudit/groundtruth/internal/catalog"
	"github.com/civicaudit/groundtruth/internal/engine"
	"github.com/civicaudit/groundtruth/internal/model"
	"github.com/civicaudit/groundtruth/internal/registry"
	"github.com/civicaudit/groundtruth/internal/worker"
)

// loadConfig merges config file and environment over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, nil
}

// buildEngine wires the registry, catalog, cache and engine from config.
// With the memory registry driver, projectsFile seeds the store.
// The returned cleanup closes any opened resources.
func buildEngine(ctx context.Context, cfg *model.Config, projectsFile string) (*engine.Engine, func(), error) {
	store, closeStore, err := openStore(ctx, cfg.Registry, projectsFile)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Catalog.BaseURL == "" {
		closeStore()
		return nil, nil, fmt.Errorf("catalog.base_url is not configured (set GROUNDTRUTH_CATALOG_BASE_URL or edit the config file)")
	}

	var sceneCache cache.Cache
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			if home, err := os.UserHomeDir(); err == nil {
				dir = filepath.Join(home, ".groundtruth", "cache")
			}
		}
		if dir != "" {
			sceneCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL)
		} else {
			sceneCache = cache.NewMemoryCache(cfg.Cache.MemoryTTL, cfg.Cache.MemoryTTL)
		}
	}

	limiter := worker.NewLimiter(cfg.Catalog.RequestsPerSecond, cfg.Catalog.Burst)
	cat := catalog.NewClient(cfg.Catalog, limiter, sceneCache, cfg.Cache.MemoryTTL)

	return engine.New(store, cat, cfg), closeStore, nil
}

func openStore(ctx context.Context, cfg model.RegistryConfig, projectsFile string) (registry.Store, func(), error) {
	switch cfg.Driver {
	case "", "memory":
		store := registry.NewMemoryStore()
		if projectsFile == "" {
			return nil, nil, fmt.Errorf("the memory registry driver needs --projects (or switch registry.driver to postgres)")
		}
		projects, err := registry.LoadProjectsFile(projectsFile)
		if err != nil {
			return nil, nil, err
		}
		for _, p := range projects {
			store.SeedProject(p)
		}
		return store, func() {}, nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, nil, fmt.Errorf("registry.dsn is required for the postgres driver")
		}
		store, err := registry.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown registry driver: %s", cfg.Driver)
	}
}
