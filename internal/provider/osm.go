package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vehement/geoworld/internal/geo"
	"github.com/vehement/geoworld/pkg/logger"
	"github.com/vehement/geoworld/pkg/metrics"
)

const osmUserAgent = "geoworld/1.0 (game world pipeline)"

// OSMConfig configures the Overpass-backed OSM provider.
type OSMConfig struct {
	Endpoint          string
	RequestsPerSecond float64
	BurstSize         int
	HTTPTimeout       time.Duration
	QueryTimeout      time.Duration
	DefaultZoom       int
	MaxFeatures       int
}

func DefaultOSMConfig() OSMConfig {
	return OSMConfig{
		Endpoint:          "https://overpass-api.de/api/interpreter",
		RequestsPerSecond: 1,
		BurstSize:         3,
		HTTPTimeout:       30 * time.Second,
		QueryTimeout:      60 * time.Second,
		DefaultZoom:       15,
		MaxFeatures:       10000,
	}
}

// OSMProvider fetches map features from an Overpass API endpoint.
type OSMProvider struct {
	base
	cfg    OSMConfig
	client *http.Client
	logger logger.Logger
}

var _ Provider = (*OSMProvider)(nil)

func NewOSMProvider(cfg OSMConfig, cache TileCache, l logger.Logger) *OSMProvider {
	if l == nil {
		l = logger.NewNop()
	}
	return &OSMProvider{
		base:   newBase(cfg.RequestsPerSecond, cfg.BurstSize, cache),
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		logger: l,
	}
}

func (p *OSMProvider) Name() string { return "osm" }

// Available reports whether the Overpass endpoint answers. Always false in
// offline mode.
func (p *OSMProvider) Available(ctx context.Context) bool {
	if p.Offline() {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimSuffix(p.cfg.Endpoint, "/interpreter")+"/status", nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", osmUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Query fetches all enabled layers for the bounding box. Cache lookups key
// on the tile covering the box center at the default zoom.
func (p *OSMProvider) Query(ctx context.Context, bounds geo.BoundingBox, opts geo.QueryOptions) (geo.TileData, error) {
	tile := geo.TileAt(bounds.Center(), p.cfg.DefaultZoom)
	return p.fetch(ctx, tile, bounds, opts)
}

// QueryTile fetches all enabled layers for one tile.
func (p *OSMProvider) QueryTile(ctx context.Context, tile geo.TileID, opts geo.QueryOptions) (geo.TileData, error) {
	return p.fetch(ctx, tile, tile.Bounds(), opts)
}

func (p *OSMProvider) fetch(ctx context.Context, tile geo.TileID, bounds geo.BoundingBox, opts geo.QueryOptions) (geo.TileData, error) {
	if opts.UseCache && !opts.ForceRefresh {
		if data, ok := p.checkCache(tile); ok {
			data.Status = geo.StatusCached
			return data, nil
		}
	}

	if p.Offline() {
		data := failed(tile, bounds, "offline mode - data not in cache")
		return data, fmt.Errorf("osm: offline and tile %s not cached", tile)
	}

	if !p.limiter.Acquire(ctx) {
		data := failed(tile, bounds, "rate limiter shut down")
		return data, fmt.Errorf("osm: rate limiter interrupted for tile %s", tile)
	}

	query := buildOverpassQuery(bounds, opts, int(p.cfg.QueryTimeout.Seconds()))

	p.logger.Debug("overpass query", "tile", tile.Key(), "bytes", len(query))

	resp, err := p.execute(ctx, query)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(p.Name(), "error").Inc()
		data := failed(tile, bounds, err.Error())
		return data, fmt.Errorf("osm: query tile %s: %w", tile, err)
	}
	metrics.ProviderRequests.WithLabelValues(p.Name(), "ok").Inc()

	data := geo.TileData{
		Tile:   tile,
		Bounds: bounds,
		Status: geo.StatusLoaded,
	}
	parseOverpassResponse(resp, &data, opts)

	now := time.Now()
	data.FetchedAt = now.Unix()
	if opts.CacheExpiry > 0 {
		data.ExpiresAt = now.Add(opts.CacheExpiry).Unix()
	}

	if opts.UseCache {
		p.storeInCache(tile, data)
	}

	p.logger.Debug("overpass result",
		"tile", tile.Key(),
		"roads", len(data.Roads),
		"buildings", len(data.Buildings),
		"pois", len(data.POIs),
	)

	return data, nil
}

func (p *OSMProvider) execute(ctx context.Context, query string) (overpassResponse, error) {
	start := time.Now()
	p.stats.requests.Add(1)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return overpassResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", osmUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return overpassResponse{}, err
	}
	defer resp.Body.Close()

	metrics.ProviderRequestDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		return overpassResponse{}, fmt.Errorf("overpass returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return overpassResponse{}, err
	}

	p.stats.bytesDownloaded.Add(int64(len(body)))
	metrics.ProviderBytesDownloaded.WithLabelValues(p.Name()).Add(float64(len(body)))

	var parsed overpassResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return overpassResponse{}, fmt.Errorf("decode overpass response: %w", err)
	}

	return parsed, nil
}

// PrefetchTiles fetches tiles into the cache, skipping ones already valid.
// progress may be nil. Returns the number of tiles fetched successfully.
func (p *OSMProvider) PrefetchTiles(ctx context.Context, tiles []geo.TileID, opts geo.QueryOptions, progress func(done, total int, tile geo.TileID)) int {
	fetched := 0
	for i, tile := range tiles {
		if ctx.Err() != nil {
			break
		}

		if _, err := p.QueryTile(ctx, tile, opts); err == nil {
			fetched++
		} else {
			p.logger.Warn("prefetch failed", "tile", tile.Key(), "error", err)
		}

		if progress != nil {
			progress(i+1, len(tiles), tile)
		}
	}
	return fetched
}
