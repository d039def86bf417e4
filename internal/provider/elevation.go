package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vehement/geoworld/internal/geo"
	"github.com/vehement/geoworld/pkg/logger"
	"github.com/vehement/geoworld/pkg/metrics"
)

// maxLocationsPerRequest is the batch limit of OpenTopoData-style APIs.
const maxLocationsPerRequest = 100

// ElevationConfig configures the elevation provider.
type ElevationConfig struct {
	Endpoint          string
	RequestsPerSecond float64
	BurstSize         int
	Resolution        int
	HTTPTimeout       time.Duration
}

func DefaultElevationConfig() ElevationConfig {
	return ElevationConfig{
		Endpoint:          "https://api.opentopodata.org/v1/srtm90m",
		RequestsPerSecond: 1,
		BurstSize:         1,
		Resolution:        32,
		HTTPTimeout:       30 * time.Second,
	}
}

// ElevationProvider fetches terrain elevation from an OpenTopoData-style
// batch endpoint.
type ElevationProvider struct {
	base
	cfg    ElevationConfig
	client *http.Client
	logger logger.Logger
}

func NewElevationProvider(cfg ElevationConfig, l logger.Logger) *ElevationProvider {
	if l == nil {
		l = logger.NewNop()
	}
	return &ElevationProvider{
		base:   newBase(cfg.RequestsPerSecond, cfg.BurstSize, nil),
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		logger: l,
	}
}

func (p *ElevationProvider) Name() string { return "elevation" }

type elevationResponse struct {
	Results []struct {
		Elevation *float64 `json:"elevation"`
	} `json:"results"`
}

// Elevation returns the elevation in meters at one coordinate.
func (p *ElevationProvider) Elevation(ctx context.Context, c geo.Coordinate) (float64, error) {
	values, err := p.Elevations(ctx, []geo.Coordinate{c})
	if err != nil {
		return 0, err
	}
	return values[0], nil
}

// Elevations resolves a batch of coordinates, preserving order. Missing
// samples come back as 0.
func (p *ElevationProvider) Elevations(ctx context.Context, coords []geo.Coordinate) ([]float64, error) {
	if len(coords) == 0 {
		return nil, nil
	}
	if p.Offline() {
		return nil, fmt.Errorf("elevation: offline mode")
	}

	values := make([]float64, 0, len(coords))
	for start := 0; start < len(coords); start += maxLocationsPerRequest {
		end := min(start+maxLocationsPerRequest, len(coords))

		batch, err := p.fetchBatch(ctx, coords[start:end])
		if err != nil {
			return nil, err
		}
		values = append(values, batch...)
	}

	return values, nil
}

func (p *ElevationProvider) fetchBatch(ctx context.Context, coords []geo.Coordinate) ([]float64, error) {
	if !p.limiter.Acquire(ctx) {
		return nil, fmt.Errorf("elevation: rate limiter interrupted")
	}

	locations := make([]string, len(coords))
	for i, c := range coords {
		locations[i] = fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
	}

	start := time.Now()
	p.stats.requests.Add(1)

	url := p.cfg.Endpoint + "?locations=" + strings.Join(locations, "|")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", osmUserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(p.Name(), "error").Inc()
		return nil, fmt.Errorf("elevation: %w", err)
	}
	defer resp.Body.Close()

	metrics.ProviderRequestDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.ProviderRequests.WithLabelValues(p.Name(), "error").Inc()
		return nil, fmt.Errorf("elevation: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	p.stats.bytesDownloaded.Add(int64(len(body)))
	metrics.ProviderBytesDownloaded.WithLabelValues(p.Name()).Add(float64(len(body)))
	metrics.ProviderRequests.WithLabelValues(p.Name(), "ok").Inc()

	var parsed elevationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("elevation: decode response: %w", err)
	}
	if len(parsed.Results) != len(coords) {
		return nil, fmt.Errorf("elevation: got %d results for %d locations",
			len(parsed.Results), len(coords))
	}

	values := make([]float64, len(coords))
	for i, r := range parsed.Results {
		if r.Elevation != nil {
			values[i] = *r.Elevation
		}
	}
	return values, nil
}

// Grid samples a resolution x resolution elevation grid across the bounds.
// Row 0 is the northern edge.
func (p *ElevationProvider) Grid(ctx context.Context, bounds geo.BoundingBox, resolution int) (*geo.ElevationGrid, error) {
	if resolution < 2 {
		resolution = 2
	}

	coords := make([]geo.Coordinate, 0, resolution*resolution)
	for y := 0; y < resolution; y++ {
		lat := bounds.Max.Lat - bounds.HeightDegrees()*float64(y)/float64(resolution-1)
		for x := 0; x < resolution; x++ {
			lon := bounds.Min.Lon + bounds.WidthDegrees()*float64(x)/float64(resolution-1)
			coords = append(coords, geo.Coordinate{Lat: lat, Lon: lon})
		}
	}

	values, err := p.Elevations(ctx, coords)
	if err != nil {
		return nil, err
	}

	grid := geo.NewElevationGrid(resolution, resolution, bounds)
	for i, v := range values {
		grid.Data[i] = float32(v)
	}
	return grid, nil
}

// GridForTile samples the configured resolution across one tile.
func (p *ElevationProvider) GridForTile(ctx context.Context, tile geo.TileID) (*geo.ElevationGrid, error) {
	return p.Grid(ctx, tile.Bounds(), p.cfg.Resolution)
}
