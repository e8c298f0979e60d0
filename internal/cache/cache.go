// Package cache stores scene-search responses so repeated analyses of the
// same region do not hammer the imagery catalog.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// SceneQueryKey derives a stable cache key for one scene search. Windows are
// truncated to the day so a re-run within the same day hits the cache.
func SceneQueryKey(bbox [4]float64, from, to time.Time, maxCloud float64) string {
	raw := fmt.Sprintf("%.5f,%.5f,%.5f,%.5f|%s|%s|%.2f",
		bbox[0], bbox[1], bbox[2], bbox[3],
		from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"), maxCloud)
	hash := sha256.Sum256([]byte(raw))
	return "groundtruth:v1:" + hex.EncodeToString(hash[:])
}
