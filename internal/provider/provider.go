package provider

import (
	"context"
	"sync/atomic"

	"github.com/vehement/geoworld/internal/geo"
)

// TileCache is the cache surface providers need. Satisfied by
// cache.TileCache.
type TileCache interface {
	Get(tile geo.TileID) (geo.TileData, bool)
	Put(tile geo.TileID, data geo.TileData)
}

// Provider fetches geographic data for a bounding box or tile.
type Provider interface {
	Name() string
	Query(ctx context.Context, bounds geo.BoundingBox, opts geo.QueryOptions) (geo.TileData, error)
	QueryTile(ctx context.Context, tile geo.TileID, opts geo.QueryOptions) (geo.TileData, error)
	Available(ctx context.Context) bool
	RateLimiter() *RateLimiter
	Stats() StatsSnapshot
	ResetStats()
	SetOffline(offline bool)
	Offline() bool
	Close()
}

// StatsSnapshot is a point-in-time copy of a provider's counters.
type StatsSnapshot struct {
	Requests        int64 `json:"requests"`
	CacheHits       int64 `json:"cacheHits"`
	CacheMisses     int64 `json:"cacheMisses"`
	BytesDownloaded int64 `json:"bytesDownloaded"`
}

// stats tracks provider activity. All methods are safe for concurrent use.
type stats struct {
	requests        atomic.Int64
	cacheHits       atomic.Int64
	cacheMisses     atomic.Int64
	bytesDownloaded atomic.Int64
}

func (s *stats) snapshot() StatsSnapshot {
	return StatsSnapshot{
		Requests:        s.requests.Load(),
		CacheHits:       s.cacheHits.Load(),
		CacheMisses:     s.cacheMisses.Load(),
		BytesDownloaded: s.bytesDownloaded.Load(),
	}
}

func (s *stats) reset() {
	s.requests.Store(0)
	s.cacheHits.Store(0)
	s.cacheMisses.Store(0)
	s.bytesDownloaded.Store(0)
}

// base carries the pieces every provider shares: rate limiting, statistics,
// the cache hookup and the offline switch. Providers embed it.
type base struct {
	limiter *RateLimiter
	stats   stats
	cache   TileCache
	offline atomic.Bool
}

func newBase(requestsPerSecond float64, burstSize int, cache TileCache) base {
	return base{
		limiter: NewRateLimiter(requestsPerSecond, burstSize),
		cache:   cache,
	}
}

func (b *base) RateLimiter() *RateLimiter { return b.limiter }
func (b *base) Stats() StatsSnapshot      { return b.stats.snapshot() }
func (b *base) ResetStats()               { b.stats.reset() }
func (b *base) SetOffline(offline bool)   { b.offline.Store(offline) }
func (b *base) Offline() bool             { return b.offline.Load() }
func (b *base) Close()                    { b.limiter.Shutdown() }

// checkCache returns cached, unexpired data for the tile if available.
func (b *base) checkCache(tile geo.TileID) (geo.TileData, bool) {
	if b.cache == nil {
		return geo.TileData{}, false
	}

	data, ok := b.cache.Get(tile)
	if ok && !data.Expired() {
		b.stats.cacheHits.Add(1)
		return data, true
	}

	b.stats.cacheMisses.Add(1)
	return geo.TileData{}, false
}

func (b *base) storeInCache(tile geo.TileID, data geo.TileData) {
	if b.cache != nil {
		b.cache.Put(tile, data)
	}
}

// failed builds the error-state payload returned when a fetch cannot
// complete.
func failed(tile geo.TileID, bounds geo.BoundingBox, msg string) geo.TileData {
	return geo.TileData{
		Tile:   tile,
		Bounds: bounds,
		Status: geo.StatusFailed,
		Error:  msg,
	}
}
