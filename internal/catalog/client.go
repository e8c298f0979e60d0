package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/civicaudit/groundtruth/internal/cache"
	"github.com/civicaudit/groundtruth/internal/model"
	"github.com/civicaudit/groundtruth/internal/util"
	"github.com/civicaudit/groundtruth/internal/worker"
)

// maxResponseBytes bounds catalog response reads
const maxResponseBytes = 8 << 20

// Client is an HTTP catalog adapter speaking a STAC-style search API
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	collection string
	limiter    *worker.Limiter
	cache      cache.Cache // nil disables caching
	cacheTTL   time.Duration
}

// NewClient creates a catalog client from configuration. The cache may be
// nil; scene searches then always hit the network.
func NewClient(cfg model.CatalogConfig, limiter *worker.Limiter, sceneCache cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		collection: cfg.Collection,
		limiter:    limiter,
		cache:      sceneCache,
		cacheTTL:   cacheTTL,
	}
}

type searchRequest struct {
	BBox        [4]float64 `json:"bbox"`
	From        time.Time  `json:"from"`
	To          time.Time  `json:"to"`
	Collections []string   `json:"collections,omitempty"`
	MaxCloud    float64    `json:"max_cloud"`
}

type searchResponse struct {
	Scenes []sceneDoc `json:"scenes"`
}

type sceneDoc struct {
	ID            string    `json:"id"`
	CapturedAt    time.Time `json:"captured_at"`
	CloudFraction float64   `json:"cloud_fraction"`
	Collection    string    `json:"collection,omitempty"`
}

type bandsResponse struct {
	Bands map[model.BandID][]float64 `json:"bands"`
}

// ListScenes implements Catalog over the search endpoint
func (c *Client) ListScenes(ctx context.Context, region model.RegionOfInterest, from, to time.Time, maxCloud float64) ([]model.SceneRef, error) {
	bbox := region.BoundingBox()
	key := cache.SceneQueryKey(bbox, from, to, maxCloud)

	if c.cache != nil {
		if data, found := c.cache.Get(key); found {
			var cached []model.SceneRef
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
			_ = c.cache.Delete(key)
		}
	}

	body, err := json.Marshal(searchRequest{
		BBox:        bbox,
		From:        from,
		To:          to,
		Collections: collections(c.collection),
		MaxCloud:    maxCloud,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search: %w", err)
	}

	var resp searchResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/search", body, &resp); err != nil {
		return nil, err
	}

	scenes := make([]model.SceneRef, 0, len(resp.Scenes))
	for _, doc := range resp.Scenes {
		if doc.ID == "" || doc.CapturedAt.IsZero() {
			continue
		}
		if doc.CloudFraction < 0 || doc.CloudFraction > 1 {
			continue
		}
		scenes = append(scenes, model.SceneRef{
			ID:            doc.ID,
			CapturedAt:    doc.CapturedAt,
			CloudFraction: doc.CloudFraction,
			Collection:    doc.Collection,
		})
	}

	// Servers are not trusted to pre-filter or pre-sort.
	scenes = filterScenes(scenes, from, to, maxCloud)
	sortScenes(scenes)

	if c.cache != nil {
		if data, err := json.Marshal(scenes); err == nil {
			_ = c.cache.Set(key, data, c.cacheTTL)
		}
	}

	return scenes, nil
}

// FetchBands implements Catalog over the scene bands endpoint. Band payloads
// are validated here so malformed data never reaches index math.
func (c *Client) FetchBands(ctx context.Context, sceneID string) (*model.BandSet, error) {
	var resp bandsResponse
	url := fmt.Sprintf("%s/scenes/%s/bands", c.baseURL, sceneID)
	if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}

	bands, err := model.NewBandSet(resp.Bands)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", sceneID, err)
	}
	return bands, nil
}

// do performs one catalog request and decodes the JSON response
func (c *Client) do(ctx context.Context, method, url string, body []byte, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, url); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrCatalogUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNoScenes, url)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("catalog: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrCatalogUnavailable, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func collections(name string) []string {
	if name == "" {
		return nil
	}
	return []string{name}
}
