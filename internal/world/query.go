package world

import (
	"context"
	"math"
	"time"

	"github.com/vehement/geoworld/internal/biome"
	"github.com/vehement/geoworld/internal/buildings"
	"github.com/vehement/geoworld/internal/cache"
	"github.com/vehement/geoworld/internal/geo"
	"github.com/vehement/geoworld/internal/provider"
	"github.com/vehement/geoworld/internal/roadnet"
	"github.com/vehement/geoworld/pkg/logger"
)

// Flat-earth meters per degree around the world origin. Must stay in step
// with roadnet.DefaultTransform so road geometry and GeoToGame agree.
const (
	metersPerDegreeLon = 111320.0
	metersPerDegreeLat = 110540.0
)

// Config controls the geographic-to-game mapping and which processing
// stages run on fetched tiles.
type Config struct {
	Origin geo.Coordinate
	Scale  float64

	DefaultZoom int

	ProcessRoads     bool
	ProcessBuildings bool
	ProcessElevation bool
	ProcessBiomes    bool

	// Simplification tolerances in game units; zero disables the stage.
	RoadSimplifyTolerance     float64
	BuildingSimplifyTolerance float64

	ElevationResolution int
}

func DefaultConfig() Config {
	return Config{
		Scale:                     1,
		DefaultZoom:               15,
		ProcessRoads:              true,
		ProcessBuildings:          true,
		ProcessElevation:          true,
		ProcessBiomes:             true,
		RoadSimplifyTolerance:     2,
		BuildingSimplifyTolerance: 1,
		ElevationResolution:       32,
	}
}

// TileCache is the cache surface the query needs. Satisfied by
// cache.TileCache.
type TileCache interface {
	Get(tile geo.TileID) (geo.TileData, bool)
	Put(tile geo.TileID, data geo.TileData)
	Valid(tile geo.TileID) bool
	Clear()
	Stats() cache.Stats
}

// ElevationSource resolves terrain heights. Satisfied by
// provider.ElevationProvider.
type ElevationSource interface {
	Elevation(ctx context.Context, c geo.Coordinate) (float64, error)
	Grid(ctx context.Context, bounds geo.BoundingBox, resolution int) (*geo.ElevationGrid, error)
	GridForTile(ctx context.Context, tile geo.TileID) (*geo.ElevationGrid, error)
	SetOffline(offline bool)
	Stats() provider.StatsSnapshot
}

// Query is the single entry point for world data: it fetches raw tiles
// through the cache and providers and processes them into game space.
// Processing results are rebuilt on every call; only raw tiles are cached.
type Query struct {
	cfg        Config
	cache      TileCache
	osm        provider.Provider
	elevation  ElevationSource
	classifier *biome.Classifier
	transform  roadnet.TransformFunc
	logger     logger.Logger
}

// NewQuery wires the query from its dependencies. cache, elevation and
// classifier may be nil; the matching stages are then skipped.
func NewQuery(cfg Config, tc TileCache, osm provider.Provider, elev ElevationSource, cl *biome.Classifier, l logger.Logger) *Query {
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	if cfg.DefaultZoom <= 0 {
		cfg.DefaultZoom = 15
	}
	if cfg.ElevationResolution < 2 {
		cfg.ElevationResolution = 32
	}
	if l == nil {
		l = logger.NewNop()
	}

	return &Query{
		cfg:        cfg,
		cache:      tc,
		osm:        osm,
		elevation:  elev,
		classifier: cl,
		transform:  roadnet.DefaultTransform(cfg.Origin, cfg.Scale),
		logger:     l,
	}
}

func (q *Query) Config() Config { return q.cfg }

// GeoToGame projects a coordinate into game space around the world origin.
func (q *Query) GeoToGame(c geo.Coordinate) roadnet.Vec2 {
	return q.transform(c)
}

// GameToGeo is the exact inverse of GeoToGame.
func (q *Query) GameToGeo(p roadnet.Vec2) geo.Coordinate {
	metersX := p.X / q.cfg.Scale
	metersY := p.Y / q.cfg.Scale

	cosLat := math.Cos(q.cfg.Origin.Lat * math.Pi / 180)
	return geo.Coordinate{
		Lat: q.cfg.Origin.Lat + metersY/metersPerDegreeLat,
		Lon: q.cfg.Origin.Lon + metersX/(metersPerDegreeLon*cosLat),
	}
}

// TileAtGamePosition returns the tile under a game position at the default
// zoom.
func (q *Query) TileAtGamePosition(x, y float64) geo.TileID {
	return geo.TileAt(q.GameToGeo(roadnet.Vec2{X: x, Y: y}), q.cfg.DefaultZoom)
}

// TilesInGameArea returns every tile overlapping the game-space rectangle.
func (q *Query) TilesInGameArea(min, max roadnet.Vec2) []geo.TileID {
	a := q.GameToGeo(min)
	b := q.GameToGeo(max)

	ax, ay := a.TileXY(q.cfg.DefaultZoom)
	bx, by := b.TileXY(q.cfg.DefaultZoom)

	minX, maxX := minMax(ax, bx)
	minY, maxY := minMax(ay, by)

	var tiles []geo.TileID
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			tiles = append(tiles, geo.TileID{X: x, Y: y, Zoom: q.cfg.DefaultZoom})
		}
	}
	return tiles
}

func minMax(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

// queryOptions builds the provider options for the configured stages. The
// query manages the cache itself, so provider-side caching stays off.
func (q *Query) queryOptions() geo.QueryOptions {
	opts := geo.DefaultQueryOptions()
	opts.FetchRoads = q.cfg.ProcessRoads
	opts.FetchBuildings = q.cfg.ProcessBuildings
	opts.FetchElevation = false
	opts.UseCache = false
	return opts
}

// QueryTile loads one tile, from the cache when possible, and processes it
// into game space. Fetch failures come back as an unloaded TileData with
// Err set; they never panic or escape as errors so streaming can retry.
func (q *Query) QueryTile(ctx context.Context, tile geo.TileID) TileData {
	if q.cache != nil {
		if raw, ok := q.cache.Get(tile); ok && !raw.Expired() {
			return q.process(raw)
		}
	}

	raw, err := q.osm.QueryTile(ctx, tile, q.queryOptions())
	if err != nil {
		q.logger.Warn("tile fetch failed", "tile", tile.String(), "error", err)
		return TileData{
			Tile:     tile,
			Bounds:   tile.Bounds(),
			Err:      err.Error(),
			LoadedAt: time.Now(),
		}
	}

	q.attachElevation(ctx, &raw, tile.Bounds())

	if q.cache != nil {
		q.cache.Put(tile, raw)
	}
	return q.process(raw)
}

// QueryArea fetches and processes an arbitrary bounding box outside the
// tile grid. Area results are never cached.
func (q *Query) QueryArea(ctx context.Context, bounds geo.BoundingBox) TileData {
	raw, err := q.osm.Query(ctx, bounds, q.queryOptions())
	if err != nil {
		q.logger.Warn("area fetch failed", "error", err)
		return TileData{Bounds: bounds, Err: err.Error(), LoadedAt: time.Now()}
	}

	q.attachElevation(ctx, &raw, bounds)
	return q.process(raw)
}

// QueryRadius fetches the box covering a circle around a coordinate.
func (q *Query) QueryRadius(ctx context.Context, center geo.Coordinate, radiusMeters float64) TileData {
	return q.QueryArea(ctx, geo.BoundsFromCenterRadius(center, radiusMeters))
}

// QueryByGamePosition fetches around a game position; radius is in game
// units.
func (q *Query) QueryByGamePosition(ctx context.Context, x, y, radius float64) TileData {
	center := q.GameToGeo(roadnet.Vec2{X: x, Y: y})
	return q.QueryRadius(ctx, center, radius/q.cfg.Scale)
}

func (q *Query) attachElevation(ctx context.Context, raw *geo.TileData, bounds geo.BoundingBox) {
	if !q.cfg.ProcessElevation || q.elevation == nil || !raw.Elevation.Empty() {
		return
	}

	grid, err := q.elevation.Grid(ctx, bounds, q.cfg.ElevationResolution)
	if err != nil {
		q.logger.Warn("elevation fetch failed", "error", err)
		return
	}
	raw.Elevation = grid
}

// newNetwork builds a road network with the query's transform and
// simplification settings.
func (q *Query) newNetwork() *roadnet.Network {
	net := roadnet.NewNetwork(q.cfg.Origin, q.cfg.Scale, q.logger)
	net.SetSimplifyTolerance(q.cfg.RoadSimplifyTolerance)
	return net
}

func (q *Query) newFootprints() *buildings.Footprints {
	fp := buildings.NewFootprints(q.cfg.Origin, q.cfg.Scale, q.logger)
	fp.SetSimplifyTolerance(q.cfg.BuildingSimplifyTolerance)
	return fp
}

// process turns a raw provider payload into game-space tile data. Disabled
// stages leave their zero values.
func (q *Query) process(raw geo.TileData) TileData {
	out := TileData{
		Tile:     raw.Tile,
		Bounds:   raw.Bounds,
		LoadedAt: time.Now(),
	}

	if raw.Status == geo.StatusFailed {
		out.Err = raw.Error
		return out
	}

	if q.cfg.ProcessRoads && len(raw.Roads) > 0 {
		net := q.newNetwork()
		net.ProcessAll(raw.Roads)
		out.Roads = net.Roads()
		out.RoadGraph = net.Graph()
	}

	if q.cfg.ProcessBuildings && len(raw.Buildings) > 0 {
		fp := q.newFootprints()
		fp.ProcessAll(raw.Buildings)
		out.Buildings = fp.All()
	}

	if q.cfg.ProcessElevation && !raw.Elevation.Empty() {
		out.Elevation = raw.Elevation
		out.Heightmap = raw.Elevation.Heightmap()
		out.NormalMap = raw.Elevation.NormalMap()
	}

	if q.cfg.ProcessBiomes && q.classifier != nil {
		out.Biome = q.classifier.ClassifyTile(&raw)
	}

	out.Loaded = true
	return out
}

// QueryTileAsync runs QueryTile on its own goroutine and hands the result
// to fn.
func (q *Query) QueryTileAsync(ctx context.Context, tile geo.TileID, fn func(TileData)) {
	go func() {
		fn(q.QueryTile(ctx, tile))
	}()
}

// QueryTilesAsync loads a batch sequentially on one goroutine, reporting
// per-tile progress. Failed tiles are reported like any other and the
// batch carries on.
func (q *Query) QueryTilesAsync(ctx context.Context, tiles []geo.TileID, fn func(TileData), progress func(done, total int, tile geo.TileID)) {
	go func() {
		for i, tile := range tiles {
			data := q.QueryTile(ctx, tile)
			if fn != nil {
				fn(data)
			}
			if progress != nil {
				progress(i+1, len(tiles), tile)
			}
		}
	}()
}

// QueryTileFuture starts the load and returns a handle that resolves with
// the processed tile.
func (q *Query) QueryTileFuture(ctx context.Context, tile geo.TileID) *TileFuture {
	f := newTileFuture()
	go func() {
		f.complete(q.QueryTile(ctx, tile))
	}()
	return f
}

// PrefetchTiles warms the cache for a list of tiles and returns how many
// are cached afterwards. Already-valid tiles count without refetching.
func (q *Query) PrefetchTiles(ctx context.Context, tiles []geo.TileID, progress func(done, total int, tile geo.TileID)) int {
	fetched := 0
	for i, tile := range tiles {
		if ctx.Err() != nil {
			return fetched
		}

		if q.cache != nil && q.cache.Valid(tile) {
			fetched++
		} else if data := q.QueryTile(ctx, tile); data.Loaded {
			fetched++
		}

		if progress != nil {
			progress(i+1, len(tiles), tile)
		}
	}
	return fetched
}

// PrefetchArea warms the cache for every tile covering the bounds across a
// zoom range.
func (q *Query) PrefetchArea(ctx context.Context, bounds geo.BoundingBox, minZoom, maxZoom int, progress func(done, total int, tile geo.TileID)) int {
	var tiles []geo.TileID
	for zoom := minZoom; zoom <= maxZoom; zoom++ {
		ax, ay := bounds.Min.TileXY(zoom)
		bx, by := bounds.Max.TileXY(zoom)

		minX, maxX := minMax(ax, bx)
		minY, maxY := minMax(ay, by)

		for y := minY; y <= maxY; y++ {
			for x := minX; x <= maxX; x++ {
				tiles = append(tiles, geo.TileID{X: x, Y: y, Zoom: zoom})
			}
		}
	}
	return q.PrefetchTiles(ctx, tiles, progress)
}

// Roads fetches and processes only the road layer of a bounding box.
func (q *Query) Roads(ctx context.Context, bounds geo.BoundingBox) ([]roadnet.ProcessedRoad, error) {
	opts := q.queryOptions()
	opts.FetchRoads = true
	opts.FetchBuildings = false
	opts.FetchWater = false
	opts.FetchPOIs = false
	opts.FetchLandUse = false

	raw, err := q.osm.Query(ctx, bounds, opts)
	if err != nil {
		return nil, err
	}

	net := q.newNetwork()
	net.ProcessAll(raw.Roads)
	return net.Roads(), nil
}

// Buildings fetches and processes only the building layer of a bounding
// box.
func (q *Query) Buildings(ctx context.Context, bounds geo.BoundingBox) ([]buildings.Footprint, error) {
	opts := q.queryOptions()
	opts.FetchRoads = false
	opts.FetchBuildings = true
	opts.FetchWater = false
	opts.FetchPOIs = false
	opts.FetchLandUse = false

	raw, err := q.osm.Query(ctx, bounds, opts)
	if err != nil {
		return nil, err
	}

	fp := q.newFootprints()
	fp.ProcessAll(raw.Buildings)
	return fp.All(), nil
}

// Elevation returns the terrain height in meters at a coordinate.
func (q *Query) Elevation(ctx context.Context, c geo.Coordinate) (float64, error) {
	if q.elevation == nil {
		return 0, nil
	}
	return q.elevation.Elevation(ctx, c)
}

// ElevationAtGamePos returns the terrain height at a game position, scaled
// into game units.
func (q *Query) ElevationAtGamePos(ctx context.Context, x, y float64) (float64, error) {
	elev, err := q.Elevation(ctx, q.GameToGeo(roadnet.Vec2{X: x, Y: y}))
	if err != nil {
		return 0, err
	}
	return elev * q.cfg.Scale, nil
}

// Biome classifies the biome at a coordinate from the latitude climate
// model.
func (q *Query) Biome(c geo.Coordinate) geo.BiomeData {
	if q.classifier == nil {
		return geo.BiomeData{}
	}
	return q.classifier.Classify(c, nil, 0)
}

// SetOffline switches every provider to cache-only operation.
func (q *Query) SetOffline(offline bool) {
	q.osm.SetOffline(offline)
	if q.elevation != nil {
		q.elevation.SetOffline(offline)
	}
}

func (q *Query) Offline() bool { return q.osm.Offline() }

// RequestCount is the total upstream requests across providers.
func (q *Query) RequestCount() int64 {
	count := q.osm.Stats().Requests
	if q.elevation != nil {
		count += q.elevation.Stats().Requests
	}
	return count
}

// CacheHitRate is the tile cache's hit fraction since the last reset.
func (q *Query) CacheHitRate() float64 {
	if q.cache == nil {
		return 0
	}
	return q.cache.Stats().HitRate()
}

// BytesDownloaded is the total payload bytes fetched across providers.
func (q *Query) BytesDownloaded() int64 {
	bytes := q.osm.Stats().BytesDownloaded
	if q.elevation != nil {
		bytes += q.elevation.Stats().BytesDownloaded
	}
	return bytes
}

// ClearCache drops every cached tile.
func (q *Query) ClearCache() {
	if q.cache != nil {
		q.cache.Clear()
	}
}
