package world

import (
	"context"
	"sort"
	"time"

	"github.com/vehement/geoworld/internal/geo"
	"github.com/vehement/geoworld/pkg/logger"
	"github.com/vehement/geoworld/pkg/metrics"
)

// StreamerConfig tunes the camera-driven tile streaming.
type StreamerConfig struct {
	// LoadRadius is the Chebyshev tile radius kept loaded around the
	// camera; UnloadRadius is where tiles get dropped again. Keeping
	// UnloadRadius larger gives hysteresis at the boundary.
	LoadRadius   int
	UnloadRadius int

	MaxConcurrentLoads int
	UpdateInterval     time.Duration

	// LoadTimeout drops a pending load that never resolves, freeing its
	// concurrency slot. Zero disables the timeout.
	LoadTimeout time.Duration
}

func DefaultStreamerConfig() StreamerConfig {
	return StreamerConfig{
		LoadRadius:         2,
		UnloadRadius:       3,
		MaxConcurrentLoads: 4,
		UpdateInterval:     time.Second,
		LoadTimeout:        2 * time.Minute,
	}
}

// TileLoader is the query surface the streamer needs. Satisfied by Query.
type TileLoader interface {
	QueryTileFuture(ctx context.Context, tile geo.TileID) *TileFuture
	TileAtGamePosition(x, y float64) geo.TileID
}

type pendingLoad struct {
	future  *TileFuture
	tile    geo.TileID
	started time.Time
}

// Streamer keeps the tiles around the camera loaded, issuing bounded
// concurrent loads and dropping tiles the camera has left behind.
//
// The streamer is not safe for concurrent use: Update, the accessors and
// the callbacks all run on the goroutine that drives Update. Only the tile
// loads themselves run in the background.
type Streamer struct {
	cfg    StreamerConfig
	loader TileLoader
	logger logger.Logger

	onLoaded   func(geo.TileID, *TileData)
	onUnloaded func(geo.TileID)

	loaded  map[string]TileData
	pending map[string]pendingLoad

	sinceUpdate time.Duration
	current     geo.TileID
	hasCurrent  bool
}

func NewStreamer(cfg StreamerConfig, loader TileLoader, l logger.Logger) *Streamer {
	if cfg.MaxConcurrentLoads <= 0 {
		cfg.MaxConcurrentLoads = 1
	}
	if cfg.UnloadRadius < cfg.LoadRadius {
		cfg.UnloadRadius = cfg.LoadRadius
	}
	if l == nil {
		l = logger.NewNop()
	}

	return &Streamer{
		cfg:     cfg,
		loader:  loader,
		logger:  l,
		loaded:  make(map[string]TileData),
		pending: make(map[string]pendingLoad),
	}
}

// OnTileLoaded registers the callback fired once per completed load.
func (s *Streamer) OnTileLoaded(fn func(geo.TileID, *TileData)) { s.onLoaded = fn }

// OnTileUnloaded registers the callback fired when a tile is dropped.
func (s *Streamer) OnTileUnloaded(fn func(geo.TileID)) { s.onUnloaded = fn }

// Update advances streaming for the camera position. Between intervals it
// only polls in-flight loads; on the interval it reissues loads for the
// surrounding square and unloads tiles out of range.
func (s *Streamer) Update(cameraX, cameraY float64, dt time.Duration) {
	s.sinceUpdate += dt
	if s.sinceUpdate < s.cfg.UpdateInterval {
		s.pollCompleted()
		return
	}
	s.sinceUpdate = 0

	current := s.loader.TileAtGamePosition(cameraX, cameraY)
	s.current = current
	s.hasCurrent = true

	s.issueLoads(current)
	s.unloadDistant(current)
	s.pollCompleted()
}

func (s *Streamer) issueLoads(current geo.TileID) {
	type candidate struct {
		tile geo.TileID
		dist int
	}

	r := s.cfg.LoadRadius
	var candidates []candidate
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			tile := geo.TileID{X: current.X + dx, Y: current.Y + dy, Zoom: current.Zoom}
			key := tile.Key()
			if _, ok := s.loaded[key]; ok {
				continue
			}
			if _, ok := s.pending[key]; ok {
				continue
			}
			candidates = append(candidates, candidate{tile: tile, dist: max(abs(dx), abs(dy))})
		}
	}

	// Nearest tiles first; scan order breaks ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})

	for _, c := range candidates {
		if len(s.pending) >= s.cfg.MaxConcurrentLoads {
			break
		}
		s.pending[c.tile.Key()] = pendingLoad{
			future:  s.loader.QueryTileFuture(context.Background(), c.tile),
			tile:    c.tile,
			started: time.Now(),
		}
	}
	metrics.StreamerPendingLoads.Set(float64(len(s.pending)))
}

func (s *Streamer) unloadDistant(current geo.TileID) {
	for key, data := range s.loaded {
		if chebyshev(data.Tile, current) > s.cfg.UnloadRadius {
			s.unload(key, data.Tile)
		}
	}
}

func (s *Streamer) unload(key string, tile geo.TileID) {
	delete(s.loaded, key)
	metrics.StreamerLoadedTiles.Set(float64(len(s.loaded)))
	metrics.StreamerUnloads.Inc()
	if s.onUnloaded != nil {
		s.onUnloaded(tile)
	}
}

// pollCompleted drains finished loads. Failed loads are dropped so the
// next interval can retry them; results the camera has already left behind
// are discarded without ever surfacing.
func (s *Streamer) pollCompleted() {
	now := time.Now()

	for key, p := range s.pending {
		data, done := p.future.Poll()
		if !done {
			if s.cfg.LoadTimeout > 0 && now.Sub(p.started) > s.cfg.LoadTimeout {
				s.logger.Warn("tile load timed out", "tile", p.tile.String())
				delete(s.pending, key)
			}
			continue
		}

		delete(s.pending, key)

		if !data.Loaded {
			s.logger.Warn("tile load failed", "tile", p.tile.String(), "error", data.Err)
			continue
		}
		if s.hasCurrent && chebyshev(p.tile, s.current) > s.cfg.UnloadRadius {
			continue
		}

		s.loaded[key] = data
		metrics.StreamerLoadedTiles.Set(float64(len(s.loaded)))
		if s.onLoaded != nil {
			s.onLoaded(p.tile, &data)
		}
	}

	metrics.StreamerPendingLoads.Set(float64(len(s.pending)))
}

// TileData returns a loaded tile's data.
func (s *Streamer) TileData(tile geo.TileID) (TileData, bool) {
	data, ok := s.loaded[tile.Key()]
	return data, ok
}

func (s *Streamer) IsLoaded(tile geo.TileID) bool {
	_, ok := s.loaded[tile.Key()]
	return ok
}

func (s *Streamer) LoadedTiles() []geo.TileID {
	tiles := make([]geo.TileID, 0, len(s.loaded))
	for _, data := range s.loaded {
		tiles = append(tiles, data.Tile)
	}
	return tiles
}

func (s *Streamer) PendingCount() int { return len(s.pending) }

// CurrentTile is the camera tile of the last full update.
func (s *Streamer) CurrentTile() (geo.TileID, bool) {
	return s.current, s.hasCurrent
}

// ForceLoad loads one tile synchronously, bypassing radius and concurrency
// limits, and keeps it loaded until the camera moves out of range.
func (s *Streamer) ForceLoad(ctx context.Context, tile geo.TileID) (TileData, error) {
	key := tile.Key()
	if data, ok := s.loaded[key]; ok {
		return data, nil
	}

	data, err := s.loader.QueryTileFuture(ctx, tile).Wait(ctx)
	if err != nil {
		return TileData{}, err
	}
	if !data.Loaded {
		return data, nil
	}

	s.loaded[key] = data
	metrics.StreamerLoadedTiles.Set(float64(len(s.loaded)))
	if s.onLoaded != nil {
		s.onLoaded(tile, &data)
	}
	return data, nil
}

// UnloadAll drops every loaded tile, firing the unload callback for each.
// Pending loads are abandoned; their results are never surfaced.
func (s *Streamer) UnloadAll() {
	for key, data := range s.loaded {
		s.unload(key, data.Tile)
	}
	s.pending = make(map[string]pendingLoad)
	metrics.StreamerPendingLoads.Set(0)
	s.hasCurrent = false
}

func chebyshev(a, b geo.TileID) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
