package world

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/vehement/geoworld/internal/biome"
	"github.com/vehement/geoworld/internal/cache"
	"github.com/vehement/geoworld/internal/geo"
	"github.com/vehement/geoworld/internal/provider"
	"github.com/vehement/geoworld/internal/roadnet"
)

func vec2(x, y float64) roadnet.Vec2 {
	return roadnet.Vec2{X: x, Y: y}
}

func testOrigin() geo.Coordinate {
	return geo.Coordinate{Lat: 52.5, Lon: 13.4}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Origin = testOrigin()
	cfg.ProcessElevation = false
	return cfg
}

// seededTile builds raw tile data with one road crossing the tile and one
// small building near its center.
func seededTile(tile geo.TileID) geo.TileData {
	b := tile.Bounds()
	c := b.Center()

	const e = 0.0001
	return geo.TileData{
		Tile:   tile,
		Bounds: b,
		Roads: []geo.Road{{
			ID:   1,
			Type: geo.RoadResidential,
			Points: []geo.Coordinate{
				{Lat: c.Lat, Lon: b.Min.Lon},
				{Lat: c.Lat, Lon: b.Max.Lon},
			},
		}},
		Buildings: []geo.Building{{
			ID:   1,
			Type: geo.BuildingHouse,
			Outline: []geo.Coordinate{
				{Lat: c.Lat, Lon: c.Lon},
				{Lat: c.Lat, Lon: c.Lon + e},
				{Lat: c.Lat + e, Lon: c.Lon + e},
				{Lat: c.Lat + e, Lon: c.Lon},
			},
		}},
	}
}

func newTestQuery(cfg Config, tc TileCache) (*Query, *provider.StaticProvider) {
	osm := provider.NewStaticProvider(nil)
	cl := biome.NewClassifier(biome.DefaultConfig(), nil)
	return NewQuery(cfg, tc, osm, nil, cl, nil), osm
}

func TestGeoToGameInverse(t *testing.T) {
	q, _ := newTestQuery(testConfig(), nil)

	if p := q.GeoToGame(testOrigin()); p.Len() > 1e-9 {
		t.Errorf("origin maps to %+v, want (0, 0)", p)
	}

	// One degree north of the origin is 110540 meters in game space.
	north := geo.Coordinate{Lat: testOrigin().Lat + 1, Lon: testOrigin().Lon}
	if p := q.GeoToGame(north); math.Abs(p.Y-110540) > 1e-6 {
		t.Errorf("one degree north = %f game units, want 110540", p.Y)
	}

	coords := []geo.Coordinate{
		testOrigin(),
		{Lat: 52.52, Lon: 13.37},
		{Lat: 52.4, Lon: 13.6},
	}
	for _, c := range coords {
		back := q.GameToGeo(q.GeoToGame(c))
		if math.Abs(back.Lat-c.Lat) > 1e-9 || math.Abs(back.Lon-c.Lon) > 1e-9 {
			t.Errorf("round trip of %+v gave %+v", c, back)
		}
	}
}

func TestGameTransformHonorsScale(t *testing.T) {
	cfg := testConfig()
	cfg.Scale = 0.5
	q, _ := newTestQuery(cfg, nil)

	north := geo.Coordinate{Lat: testOrigin().Lat + 1, Lon: testOrigin().Lon}
	if p := q.GeoToGame(north); math.Abs(p.Y-55270) > 1e-6 {
		t.Errorf("scaled Y = %f, want 55270", p.Y)
	}

	back := q.GameToGeo(q.GeoToGame(north))
	if math.Abs(back.Lat-north.Lat) > 1e-9 {
		t.Errorf("scaled round trip lat = %f", back.Lat)
	}
}

func TestTileAtGamePosition(t *testing.T) {
	q, _ := newTestQuery(testConfig(), nil)

	want := geo.TileAt(testOrigin(), 15)
	if got := q.TileAtGamePosition(0, 0); got != want {
		t.Errorf("tile at origin = %s, want %s", got, want)
	}
}

func TestTilesInGameArea(t *testing.T) {
	q, _ := newTestQuery(testConfig(), nil)

	// 3km square spans several zoom-15 tiles in both axes.
	tiles := q.TilesInGameArea(vec2(0, 0), vec2(3000, 3000))
	if len(tiles) < 4 {
		t.Fatalf("got %d tiles, want at least 4", len(tiles))
	}

	origin := q.TileAtGamePosition(0, 0)
	found := false
	for _, tile := range tiles {
		if tile.Zoom != 15 {
			t.Errorf("tile %s at wrong zoom", tile)
		}
		if tile == origin {
			found = true
		}
	}
	if !found {
		t.Error("origin tile missing from area")
	}
}

func TestQueryTileProcessesLayers(t *testing.T) {
	q, osm := newTestQuery(testConfig(), nil)

	tile := geo.TileAt(testOrigin(), 15)
	osm.Seed(seededTile(tile))

	data := q.QueryTile(context.Background(), tile)
	if !data.Loaded || data.Err != "" {
		t.Fatalf("tile not loaded: %+v", data)
	}
	if data.Tile != tile {
		t.Errorf("tile id = %s", data.Tile)
	}
	if len(data.Roads) != 1 {
		t.Errorf("roads = %d, want 1", len(data.Roads))
	}
	if data.RoadGraph == nil || data.RoadGraph.NodeCount() < 2 {
		t.Error("road graph missing or empty")
	}
	if len(data.Buildings) != 1 {
		t.Errorf("buildings = %d, want 1", len(data.Buildings))
	}
	if data.LoadedAt.IsZero() {
		t.Error("LoadedAt not set")
	}
}

func TestQueryTileSimplifiesGeometry(t *testing.T) {
	q, osm := newTestQuery(testConfig(), nil)

	tile := geo.TileAt(testOrigin(), 15)
	b := tile.Bounds()
	c := b.Center()
	const e = 0.0001

	// A road with a redundant collinear midpoint and a house with a
	// redundant mid-edge vertex.
	raw := seededTile(tile)
	raw.Roads[0].Points = []geo.Coordinate{
		{Lat: c.Lat, Lon: b.Min.Lon},
		{Lat: c.Lat, Lon: c.Lon},
		{Lat: c.Lat, Lon: b.Max.Lon},
	}
	raw.Buildings[0].Outline = []geo.Coordinate{
		{Lat: c.Lat, Lon: c.Lon},
		{Lat: c.Lat, Lon: c.Lon + e/2},
		{Lat: c.Lat, Lon: c.Lon + e},
		{Lat: c.Lat + e, Lon: c.Lon + e},
		{Lat: c.Lat + e, Lon: c.Lon},
	}
	osm.Seed(raw)

	data := q.QueryTile(context.Background(), tile)
	if !data.Loaded {
		t.Fatalf("load failed: %s", data.Err)
	}
	if len(data.Roads) != 1 || len(data.Roads[0].Points) != 2 {
		t.Errorf("road not simplified to its endpoints: %+v", data.Roads)
	}
	if len(data.Buildings) != 1 || len(data.Buildings[0].Outline) != 4 {
		t.Errorf("building outline not simplified to 4 corners: %d points",
			len(data.Buildings[0].Outline))
	}
}

func TestQueryTileFailure(t *testing.T) {
	q, _ := newTestQuery(testConfig(), nil)

	tile := geo.TileAt(testOrigin(), 15)
	data := q.QueryTile(context.Background(), tile)

	if data.Loaded {
		t.Error("missing tile reported as loaded")
	}
	if data.Err == "" {
		t.Error("missing tile carries no error")
	}
	if !data.Failed() {
		t.Error("Failed() = false for an error tile")
	}
	if data.Tile != tile {
		t.Errorf("failed tile id = %s, want %s", data.Tile, tile)
	}
}

func TestQueryTileUsesCache(t *testing.T) {
	tc := cache.New(cache.Config{MaxMemoryBytes: 16 << 20}, nil, nil, nil)
	q, osm := newTestQuery(testConfig(), tc)

	tile := geo.TileAt(testOrigin(), 15)
	osm.Seed(seededTile(tile))

	first := q.QueryTile(context.Background(), tile)
	if !first.Loaded {
		t.Fatalf("first load failed: %s", first.Err)
	}
	requests := osm.Stats().Requests

	// The second query processes the cached raw tile without refetching.
	second := q.QueryTile(context.Background(), tile)
	if !second.Loaded || len(second.Roads) != 1 {
		t.Fatalf("cached load incomplete: %+v", second)
	}
	if got := osm.Stats().Requests; got != requests {
		t.Errorf("requests = %d after cached query, want %d", got, requests)
	}

	// The cache holds the raw payload.
	raw, ok := tc.Get(tile)
	if !ok || len(raw.Roads) != 1 {
		t.Error("raw tile missing from cache")
	}
}

func TestProcessTogglesSkipStages(t *testing.T) {
	cfg := testConfig()
	cfg.ProcessRoads = false
	cfg.ProcessBuildings = false
	cfg.ProcessBiomes = false

	q, osm := newTestQuery(cfg, nil)
	tile := geo.TileAt(testOrigin(), 15)
	osm.Seed(seededTile(tile))

	data := q.QueryTile(context.Background(), tile)
	if !data.Loaded {
		t.Fatalf("load failed: %s", data.Err)
	}
	if data.Roads != nil || data.RoadGraph != nil {
		t.Error("road stage ran while disabled")
	}
	if data.Buildings != nil {
		t.Error("building stage ran while disabled")
	}
	if data.Biome.Type != "" {
		t.Error("biome stage ran while disabled")
	}
}

func TestQueryByGamePosition(t *testing.T) {
	q, osm := newTestQuery(testConfig(), nil)

	tile := geo.TileAt(testOrigin(), 15)
	osm.Seed(seededTile(tile))

	data := q.QueryByGamePosition(context.Background(), 0, 0, 100)
	if !data.Loaded {
		t.Fatalf("load failed: %s", data.Err)
	}
	if len(data.Roads) != 1 {
		t.Errorf("roads = %d, want 1", len(data.Roads))
	}
}

func TestQueryTileFuture(t *testing.T) {
	q, osm := newTestQuery(testConfig(), nil)

	tile := geo.TileAt(testOrigin(), 15)
	osm.Seed(seededTile(tile))

	future := q.QueryTileFuture(context.Background(), tile)

	data, err := future.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !data.Loaded {
		t.Fatalf("future resolved unloaded: %s", data.Err)
	}

	if !future.Done() {
		t.Error("Done() = false after resolution")
	}
	polled, ok := future.Poll()
	if !ok || polled.Tile != tile {
		t.Error("Poll() disagrees with Wait()")
	}
}

func TestFutureWaitCancelled(t *testing.T) {
	f := newTileFuture()

	if _, ok := f.Poll(); ok {
		t.Error("unresolved future polled as done")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Wait(ctx); err == nil {
		t.Error("Wait on cancelled context returned no error")
	}
}

func TestQueryTilesAsyncProgress(t *testing.T) {
	q, osm := newTestQuery(testConfig(), nil)

	base := geo.TileAt(testOrigin(), 15)
	tiles := []geo.TileID{
		base,
		{X: base.X + 1, Y: base.Y, Zoom: 15}, // never seeded, fails
		{X: base.X, Y: base.Y + 1, Zoom: 15},
	}
	osm.Seed(seededTile(tiles[0]))
	osm.Seed(seededTile(tiles[2]))

	var mu sync.Mutex
	var results []TileData
	finished := make(chan struct{})

	q.QueryTilesAsync(context.Background(), tiles,
		func(data TileData) {
			mu.Lock()
			results = append(results, data)
			mu.Unlock()
		},
		func(done, total int, tile geo.TileID) {
			if done == total {
				close(finished)
			}
		})

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("batch never finished")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	loaded := 0
	for _, data := range results {
		if data.Loaded {
			loaded++
		}
	}
	if loaded != 2 {
		t.Errorf("loaded = %d, want 2 (batch continues past failures)", loaded)
	}
}

func TestPrefetchTiles(t *testing.T) {
	tc := cache.New(cache.Config{MaxMemoryBytes: 16 << 20}, nil, nil, nil)
	q, osm := newTestQuery(testConfig(), tc)

	base := geo.TileAt(testOrigin(), 15)
	tiles := []geo.TileID{
		base,
		{X: base.X + 1, Y: base.Y, Zoom: 15},
		{X: base.X + 2, Y: base.Y, Zoom: 15}, // never seeded
	}
	osm.Seed(seededTile(tiles[0]))
	osm.Seed(seededTile(tiles[1]))

	var calls int
	got := q.PrefetchTiles(context.Background(), tiles, func(done, total int, tile geo.TileID) {
		calls++
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
	})
	if got != 2 {
		t.Errorf("prefetched = %d, want 2", got)
	}
	if calls != 3 {
		t.Errorf("progress calls = %d, want 3", calls)
	}

	// Second pass serves the seeded tiles from cache.
	requests := osm.Stats().Requests
	if got := q.PrefetchTiles(context.Background(), tiles, nil); got != 2 {
		t.Errorf("second prefetch = %d, want 2", got)
	}
	if osm.Stats().Requests != requests+1 {
		t.Errorf("requests = %d, want only the missing tile refetched", osm.Stats().Requests)
	}
}

func TestPrefetchArea(t *testing.T) {
	tc := cache.New(cache.Config{MaxMemoryBytes: 16 << 20}, nil, nil, nil)
	q, osm := newTestQuery(testConfig(), tc)

	tile := geo.TileAt(testOrigin(), 15)
	osm.Seed(seededTile(tile))

	bounds := tile.Bounds()
	center := bounds.Center()
	small := geo.NewBoundingBox(center.Lat, center.Lon, center.Lat, center.Lon)

	if got := q.PrefetchArea(context.Background(), small, 15, 15, nil); got != 1 {
		t.Errorf("prefetched = %d, want 1", got)
	}
	if !tc.Valid(tile) {
		t.Error("tile not cached after prefetch")
	}
}

func TestRoadsAndBuildingsHelpers(t *testing.T) {
	q, osm := newTestQuery(testConfig(), nil)

	tile := geo.TileAt(testOrigin(), 15)
	osm.Seed(seededTile(tile))

	roads, err := q.Roads(context.Background(), tile.Bounds())
	if err != nil {
		t.Fatalf("roads: %v", err)
	}
	if len(roads) != 1 {
		t.Errorf("roads = %d, want 1", len(roads))
	}

	bs, err := q.Buildings(context.Background(), tile.Bounds())
	if err != nil {
		t.Fatalf("buildings: %v", err)
	}
	if len(bs) != 1 {
		t.Errorf("buildings = %d, want 1", len(bs))
	}
}

// fakeElevation serves a constant height without any network traffic.
type fakeElevation struct {
	value   float64
	offline bool
}

func (f *fakeElevation) Elevation(ctx context.Context, c geo.Coordinate) (float64, error) {
	return f.value, nil
}

func (f *fakeElevation) Grid(ctx context.Context, bounds geo.BoundingBox, resolution int) (*geo.ElevationGrid, error) {
	g := geo.NewElevationGrid(resolution, resolution, bounds)
	for i := range g.Data {
		g.Data[i] = float32(f.value) + float32(i%5)
	}
	return g, nil
}

func (f *fakeElevation) GridForTile(ctx context.Context, tile geo.TileID) (*geo.ElevationGrid, error) {
	return f.Grid(ctx, tile.Bounds(), 8)
}

func (f *fakeElevation) SetOffline(offline bool) { f.offline = offline }

func (f *fakeElevation) Stats() provider.StatsSnapshot { return provider.StatsSnapshot{} }

func TestElevationProcessing(t *testing.T) {
	cfg := testConfig()
	cfg.ProcessElevation = true
	cfg.ElevationResolution = 8

	osm := provider.NewStaticProvider(nil)
	q := NewQuery(cfg, nil, osm, &fakeElevation{value: 120}, nil, nil)

	tile := geo.TileAt(testOrigin(), 15)
	osm.Seed(seededTile(tile))

	data := q.QueryTile(context.Background(), tile)
	if !data.Loaded {
		t.Fatalf("load failed: %s", data.Err)
	}
	if data.Elevation.Empty() {
		t.Fatal("elevation grid missing")
	}
	if len(data.Heightmap) != 64 {
		t.Errorf("heightmap = %d bytes, want 64", len(data.Heightmap))
	}
	if len(data.NormalMap) != 192 {
		t.Errorf("normal map = %d bytes, want 192", len(data.NormalMap))
	}

	elev, err := q.ElevationAtGamePos(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("elevation at game pos: %v", err)
	}
	if elev != 120 {
		t.Errorf("elevation = %f, want 120", elev)
	}
}

func TestSetOfflineAndStats(t *testing.T) {
	tc := cache.New(cache.Config{MaxMemoryBytes: 16 << 20}, nil, nil, nil)
	q, osm := newTestQuery(testConfig(), tc)

	tile := geo.TileAt(testOrigin(), 15)
	osm.Seed(seededTile(tile))

	q.SetOffline(true)
	if !q.Offline() {
		t.Error("Offline() = false after SetOffline(true)")
	}
	q.SetOffline(false)

	q.QueryTile(context.Background(), tile)
	if q.RequestCount() == 0 {
		t.Error("request count stayed zero")
	}

	q.QueryTile(context.Background(), tile)
	if q.CacheHitRate() <= 0 {
		t.Errorf("hit rate = %f after a cached query", q.CacheHitRate())
	}

	q.ClearCache()
	if tc.Valid(tile) {
		t.Error("tile survived ClearCache")
	}
}
