package cache

import (
	"testing"
	"time"
)

func TestSceneQueryKey_StableAndDistinct(t *testing.T) {
	bbox := [4]float64{77.58, 12.96, 77.60, 12.98}
	from := time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC)
	to := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	k1 := SceneQueryKey(bbox, from, to, 0.20)
	// Same day, different hour: must hit the same key.
	k2 := SceneQueryKey(bbox, from.Add(3*time.Hour), to, 0.20)
	if k1 != k2 {
		t.Error("expected same-day queries to share a key")
	}

	k3 := SceneQueryKey(bbox, from, to, 0.10)
	if k1 == k3 {
		t.Error("expected different cloud thresholds to produce different keys")
	}

	other := [4]float64{77.00, 12.00, 77.02, 12.02}
	if SceneQueryKey(other, from, to, 0.20) == k1 {
		t.Error("expected different regions to produce different keys")
	}
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("scenes"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, found := c.Get("k")
	if !found || string(val) != "scenes" {
		t.Fatalf("expected hit, got found=%v val=%q", found, val)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expected miss after delete")
	}
}

func TestDiskCache_RoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := c.Set("k", []byte("scenes"), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, found := c.Get("k")
	if !found || string(val) != "scenes" {
		t.Fatalf("expected hit, got found=%v val=%q", found, val)
	}

	// Entry written as already expired is treated as a miss.
	if err := c.Set("expired", []byte("old"), -time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, found := c.Get("expired"); found {
		t.Error("expected expired entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	// Seed only the disk layer.
	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set("k", []byte("scenes"), time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}

	val, found := c.Get("k")
	if !found || string(val) != "scenes" {
		t.Fatalf("expected layered hit from disk, got found=%v", found)
	}

	// Now present in the memory layer too.
	mem := c.memory
	if _, found := mem.Get("k"); !found {
		t.Error("expected disk hit to be promoted to memory")
	}
}
