package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/vehement/geoworld/internal/geo"
)

// StaticProvider serves pre-seeded tile data. It backs fully-offline
// sessions running from imported bundles, and doubles as the test double
// for anything that needs a Provider.
type StaticProvider struct {
	base
	mu    sync.Mutex
	tiles map[string]geo.TileData
}

var _ Provider = (*StaticProvider)(nil)

func NewStaticProvider(cache TileCache) *StaticProvider {
	return &StaticProvider{
		base:  newBase(1000, 1000, cache),
		tiles: make(map[string]geo.TileData),
	}
}

func (p *StaticProvider) Name() string { return "static" }

func (p *StaticProvider) Available(context.Context) bool { return true }

// Seed registers data to serve for its tile.
func (p *StaticProvider) Seed(data geo.TileData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tiles[data.Tile.Key()] = data
}

func (p *StaticProvider) Query(ctx context.Context, bounds geo.BoundingBox, opts geo.QueryOptions) (geo.TileData, error) {
	tile := geo.TileAt(bounds.Center(), 15)
	return p.QueryTile(ctx, tile, opts)
}

func (p *StaticProvider) QueryTile(ctx context.Context, tile geo.TileID, opts geo.QueryOptions) (geo.TileData, error) {
	if opts.UseCache && !opts.ForceRefresh {
		if data, ok := p.checkCache(tile); ok {
			data.Status = geo.StatusCached
			return data, nil
		}
	}

	if !p.limiter.Acquire(ctx) {
		return failed(tile, tile.Bounds(), "rate limiter shut down"),
			fmt.Errorf("static: rate limiter interrupted for tile %s", tile)
	}

	p.stats.requests.Add(1)

	p.mu.Lock()
	data, ok := p.tiles[tile.Key()]
	p.mu.Unlock()

	if !ok {
		return failed(tile, tile.Bounds(), "tile not in static data set"),
			fmt.Errorf("static: no data for tile %s", tile)
	}

	data.Status = geo.StatusLoaded
	if opts.UseCache {
		p.storeInCache(tile, data)
	}
	return data, nil
}
