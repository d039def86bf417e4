package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/vehement/geoworld/internal/geo"
	"github.com/vehement/geoworld/pkg/logger"
	"github.com/vehement/geoworld/pkg/metrics"
)

// Config sets the cache limits.
type Config struct {
	MaxMemoryBytes int64
	MaxDiskBytes   int64
	DefaultExpiry  time.Duration
	Compress       bool
}

func DefaultConfig() Config {
	return Config{
		MaxMemoryBytes: 64 << 20,
		MaxDiskBytes:   512 << 20,
		DefaultExpiry:  168 * time.Hour,
		Compress:       true,
	}
}

// entry is the bookkeeping record for one cached tile. data is only held
// while the entry sits in the memory tier.
type entry struct {
	tile       geo.TileID
	data       geo.TileData
	size       int64
	expiresAt  time.Time // zero = unknown until the payload is read
	lastAccess time.Time
	inMemory   bool
	onDisk     bool
	elem       *list.Element
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	TileCount   int   `json:"tileCount"`
	MemoryTiles int   `json:"memoryTiles"`
	MemoryBytes int64 `json:"memoryBytes"`
	DiskBytes   int64 `json:"diskBytes"`
}

func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// TileCache is a two-tier tile cache: a memory LRU over an optional disk
// store, with an optional shared Redis tier behind both. A single mutex
// guards all operations. Disk and Redis failures degrade to cache misses.
type TileCache struct {
	mu  sync.Mutex
	cfg Config

	entries map[string]*entry
	lru     *list.List // front = most recently used; holds *entry

	memoryUsage int64
	diskUsage   int64
	hits        int64
	misses      int64

	codec  codec
	disk   DiskStore
	remote *RedisStore
	logger logger.Logger
}

// New builds the cache over the given tiers. disk and remote may be nil.
// Tiles already on disk are indexed without loading their payloads.
func New(cfg Config, disk DiskStore, remote *RedisStore, l logger.Logger) *TileCache {
	if l == nil {
		l = logger.NewNop()
	}

	c := &TileCache{
		cfg:     cfg,
		entries: make(map[string]*entry),
		lru:     list.New(),
		codec:   codec{compress: cfg.Compress},
		disk:    disk,
		remote:  remote,
		logger:  l,
	}

	if disk != nil {
		stored, err := disk.Scan()
		if err != nil {
			l.Warn("cache disk scan failed", "error", err)
		}
		for _, s := range stored {
			c.entries[s.Tile.Key()] = &entry{
				tile:       s.Tile,
				size:       s.Size,
				lastAccess: s.LastAccess,
				onDisk:     true,
			}
			c.diskUsage += s.Size
		}
		if len(stored) > 0 {
			l.Info("cache index rebuilt", "tiles", len(stored), "diskBytes", c.diskUsage)
		}
	}

	return c
}

// Get returns the tile's data when it is cached and not expired. Hits
// refresh the entry's LRU position; disk hits are promoted to memory.
func (c *TileCache) Get(tile geo.TileID) (geo.TileData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	key := tile.Key()

	if e, ok := c.entries[key]; ok {
		if e.expired(now) {
			return c.miss()
		}

		if e.inMemory {
			if e.data.Expired() {
				return c.miss()
			}
			c.touchLocked(e, now)
			return c.hit(e.data)
		}

		if e.onDisk {
			data, err := c.disk.Load(tile)
			if err != nil {
				c.dropLocked(e)
				return c.miss()
			}
			if data.Expired() {
				return c.miss()
			}

			c.promoteLocked(e, data, now)
			return c.hit(data)
		}
	}

	// Last chance: the shared remote tier.
	if c.remote != nil {
		data, err := c.remote.Load(tile)
		if err == nil && !data.Expired() {
			c.insertLocked(tile, data, now, false)
			return c.hit(data)
		}
	}

	return c.miss()
}

func (c *TileCache) hit(data geo.TileData) (geo.TileData, bool) {
	c.hits++
	metrics.CacheHits.Inc()
	return data, true
}

func (c *TileCache) miss() (geo.TileData, bool) {
	c.misses++
	metrics.CacheMisses.Inc()
	return geo.TileData{}, false
}

// Put stores the tile in all configured tiers, evicting as needed. Data
// without an expiry is stamped with now + the cache's default, so a zero
// default expires entries immediately.
func (c *TileCache) Put(tile geo.TileID, data geo.TileData) {
	now := time.Now()

	if data.FetchedAt == 0 {
		data.FetchedAt = now.Unix()
	}
	if data.ExpiresAt == 0 {
		data.ExpiresAt = now.Add(c.cfg.DefaultExpiry).Unix()
	}
	data.Tile = tile

	c.mu.Lock()
	defer c.mu.Unlock()

	c.insertLocked(tile, data, now, true)
	metrics.CacheStores.Inc()
}

// insertLocked places data in the memory tier and, when persist is set,
// writes through to the disk and remote tiers.
func (c *TileCache) insertLocked(tile geo.TileID, data geo.TileData, now time.Time, persist bool) {
	payload, err := c.codec.encode(data)
	if err != nil {
		c.logger.Error("tile encode failed", "tile", tile.Key(), "error", err)
		return
	}
	size := int64(len(payload))

	key := tile.Key()
	if old, ok := c.entries[key]; ok {
		c.dropLocked(old)
	}

	e := &entry{
		tile:       tile,
		data:       data,
		size:       size,
		lastAccess: now,
		inMemory:   true,
	}
	if data.ExpiresAt > 0 {
		e.expiresAt = time.Unix(data.ExpiresAt, 0)
	}
	e.elem = c.lru.PushFront(e)
	c.entries[key] = e
	c.memoryUsage += size

	if c.memoryUsage > c.cfg.MaxMemoryBytes {
		c.evictMemoryLocked(c.cfg.MaxMemoryBytes / 2)
	}

	if !persist {
		return
	}

	if c.disk != nil {
		if err := c.disk.Save(tile, payload); err != nil {
			c.logger.Debug("disk save failed", "tile", key, "error", err)
		} else {
			e.onDisk = true
			c.diskUsage += size
			if c.diskUsage > c.cfg.MaxDiskBytes {
				c.evictDiskLocked(c.cfg.MaxDiskBytes / 2)
			}
		}
	}

	if c.remote != nil {
		if err := c.remote.Save(tile, payload); err != nil {
			c.logger.Debug("redis save failed", "tile", key, "error", err)
		}
	}
}

func (c *TileCache) touchLocked(e *entry, now time.Time) {
	e.lastAccess = now
	if e.elem != nil {
		c.lru.MoveToFront(e.elem)
	}
}

// promoteLocked moves a disk-resident entry into the memory tier.
func (c *TileCache) promoteLocked(e *entry, data geo.TileData, now time.Time) {
	e.data = data
	e.inMemory = true
	e.lastAccess = now
	if data.ExpiresAt > 0 {
		e.expiresAt = time.Unix(data.ExpiresAt, 0)
	}
	e.elem = c.lru.PushFront(e)
	c.memoryUsage += e.size

	if c.memoryUsage > c.cfg.MaxMemoryBytes {
		c.evictMemoryLocked(c.cfg.MaxMemoryBytes / 2)
	}
}

// dropLocked removes an entry from every tier and the index.
func (c *TileCache) dropLocked(e *entry) {
	if e.inMemory {
		c.memoryUsage -= e.size
		e.data = geo.TileData{}
		e.inMemory = false
		if e.elem != nil {
			c.lru.Remove(e.elem)
			e.elem = nil
		}
	}
	if e.onDisk {
		c.diskUsage -= e.size
		e.onDisk = false
		if c.disk != nil {
			if err := c.disk.Delete(e.tile); err != nil {
				c.logger.Debug("disk delete failed", "tile", e.tile.Key(), "error", err)
			}
		}
	}
	delete(c.entries, e.tile.Key())
}

// evictMemoryLocked drops least-recently-used payloads until memory usage
// falls to the target. Entries that also live on disk stay indexed.
func (c *TileCache) evictMemoryLocked(targetBytes int64) {
	for c.memoryUsage > targetBytes {
		back := c.lru.Back()
		if back == nil {
			return
		}
		e := back.Value.(*entry)

		c.lru.Remove(back)
		e.elem = nil
		e.inMemory = false
		e.data = geo.TileData{}
		c.memoryUsage -= e.size
		metrics.CacheEvictions.WithLabelValues("memory").Inc()

		if !e.onDisk {
			delete(c.entries, e.tile.Key())
		}
	}
}

// evictDiskLocked deletes on-disk payloads, oldest access first, until disk
// usage falls to the target.
func (c *TileCache) evictDiskLocked(targetBytes int64) {
	var candidates []*entry
	for _, e := range c.entries {
		if e.onDisk {
			candidates = append(candidates, e)
		}
	}
	// Oldest access first.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].lastAccess.Before(candidates[j-1].lastAccess); j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	for _, e := range candidates {
		if c.diskUsage <= targetBytes {
			return
		}

		if c.disk != nil {
			if err := c.disk.Delete(e.tile); err != nil {
				c.logger.Debug("disk evict failed", "tile", e.tile.Key(), "error", err)
				continue
			}
		}
		e.onDisk = false
		c.diskUsage -= e.size
		metrics.CacheEvictions.WithLabelValues("disk").Inc()

		if !e.inMemory {
			delete(c.entries, e.tile.Key())
		}
	}
}

// Contains reports whether the tile is indexed in any tier, expired or not.
func (c *TileCache) Contains(tile geo.TileID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[tile.Key()]
	return ok
}

// Valid reports whether the tile is cached and not known to be expired.
func (c *TileCache) Valid(tile geo.TileID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[tile.Key()]
	return ok && !e.expired(time.Now())
}

// Remove deletes the tile from all tiers.
func (c *TileCache) Remove(tile geo.TileID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[tile.Key()]; ok {
		c.dropLocked(e)
	}
}

// Clear empties the cache entirely.
func (c *TileCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.onDisk && c.disk != nil {
			c.disk.Delete(e.tile)
		}
	}
	c.entries = make(map[string]*entry)
	c.lru.Init()
	c.memoryUsage = 0
	c.diskUsage = 0
}

// ClearExpired removes every entry whose expiry has passed and returns how
// many were dropped. Disk entries with unknown expiry are left for the next
// Get to settle.
func (c *TileCache) ClearExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var expired []*entry
	for _, e := range c.entries {
		if e.expired(now) {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		c.dropLocked(e)
	}
	return len(expired)
}

// GetMultiple fetches several tiles, returning only the ones present.
func (c *TileCache) GetMultiple(tiles []geo.TileID) map[geo.TileID]geo.TileData {
	found := make(map[geo.TileID]geo.TileData)
	for _, tile := range tiles {
		if data, ok := c.Get(tile); ok {
			found[tile] = data
		}
	}
	return found
}

// PutMultiple stores a batch of tiles.
func (c *TileCache) PutMultiple(batch []geo.TileData) {
	for _, data := range batch {
		c.Put(data.Tile, data)
	}
}

// CachedTiles lists every indexed tile.
func (c *TileCache) CachedTiles() []geo.TileID {
	c.mu.Lock()
	defer c.mu.Unlock()

	tiles := make([]geo.TileID, 0, len(c.entries))
	for _, e := range c.entries {
		tiles = append(tiles, e.tile)
	}
	return tiles
}

// TilesInBounds lists cached tiles at the zoom whose extent intersects the
// bounds.
func (c *TileCache) TilesInBounds(bounds geo.BoundingBox, zoom int) []geo.TileID {
	c.mu.Lock()
	defer c.mu.Unlock()

	var tiles []geo.TileID
	for _, e := range c.entries {
		if e.tile.Zoom == zoom && e.tile.Bounds().Intersects(bounds) {
			tiles = append(tiles, e.tile)
		}
	}
	return tiles
}

// Coverage reports how many of the tiles covering bounds at the zoom are
// currently cached.
func (c *TileCache) Coverage(bounds geo.BoundingBox, zoom int) (cached, total int) {
	minX, maxY := bounds.Min.TileXY(zoom)
	maxX, minY := bounds.Max.TileXY(zoom)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			total++
			tile := geo.TileID{X: x, Y: y, Zoom: zoom}
			if e, ok := c.entries[tile.Key()]; ok && !e.expired(now) {
				cached++
			}
		}
	}
	return cached, total
}

func (c *TileCache) MemoryUsage() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memoryUsage
}

func (c *TileCache) DiskUsage() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.diskUsage
}

func (c *TileCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		TileCount:   len(c.entries),
		MemoryTiles: c.lru.Len(),
		MemoryBytes: c.memoryUsage,
		DiskBytes:   c.diskUsage,
	}
}

func (c *TileCache) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits = 0
	c.misses = 0
}

// Close releases the underlying stores.
func (c *TileCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if c.disk != nil {
		err = c.disk.Close()
	}
	if c.remote != nil {
		if rerr := c.remote.Close(); err == nil {
			err = rerr
		}
	}
	return err
}
