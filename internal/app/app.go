package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/vehement/geoworld/internal/biome"
	"github.com/vehement/geoworld/internal/cache"
	"github.com/vehement/geoworld/internal/geo"
	"github.com/vehement/geoworld/internal/provider"
	"github.com/vehement/geoworld/internal/world"
	"github.com/vehement/geoworld/pkg/config"
	"github.com/vehement/geoworld/pkg/logger"
)

// Options are the one-shot operations selected on the command line. When
// any is set, Run performs it and exits instead of serving.
type Options struct {
	PrefetchBBox string // "south,west,north,east"
	ExportBundle string // target directory
	ImportBundle string // source directory
}

func (o Options) oneShot() bool {
	return o.PrefetchBBox != "" || o.ExportBundle != "" || o.ImportBundle != ""
}

// Run wires the cache, providers and world query from the config, performs
// any one-shot operation, and otherwise serves the debug API until a
// shutdown signal arrives.
func Run(cfg *config.Config, opts Options) error {
	l := logger.NewZapLogger(cfg.Logger.Level)
	defer l.Sync()

	l.Info("app config", "cfg", cfg)

	tc, err := buildCache(cfg, l)
	if err != nil {
		return err
	}
	defer tc.Close()

	osm := provider.NewOSMProvider(provider.OSMConfig{
		Endpoint:          cfg.OSM.OverpassEndpoint,
		RequestsPerSecond: cfg.OSM.RequestsPerSecond,
		BurstSize:         cfg.OSM.BurstSize,
		HTTPTimeout:       cfg.OSM.HTTPTimeout,
		QueryTimeout:      cfg.OSM.QueryTimeout,
		DefaultZoom:       cfg.OSM.DefaultZoom,
		MaxFeatures:       cfg.OSM.MaxFeatures,
	}, nil, l)
	defer osm.Close()

	elev := provider.NewElevationProvider(provider.ElevationConfig{
		Endpoint:          cfg.Elevation.Endpoint,
		RequestsPerSecond: cfg.Elevation.RequestsPerSecond,
		BurstSize:         cfg.Elevation.BurstSize,
		Resolution:        cfg.Elevation.Resolution,
		HTTPTimeout:       cfg.Elevation.HTTPTimeout,
	}, l)
	defer elev.Close()

	classifier := biome.NewClassifier(biome.DefaultConfig(), l)

	query := world.NewQuery(world.Config{
		Origin:                    geo.Coordinate{Lat: cfg.World.OriginLat, Lon: cfg.World.OriginLon},
		Scale:                     cfg.World.Scale,
		DefaultZoom:               cfg.World.DefaultZoom,
		ProcessRoads:              cfg.World.ProcessRoads,
		ProcessBuildings:          cfg.World.ProcessBuildings,
		ProcessElevation:          cfg.World.ProcessElevation,
		ProcessBiomes:             cfg.World.ProcessBiomes,
		RoadSimplifyTolerance:     cfg.World.RoadSimplifyTolerance,
		BuildingSimplifyTolerance: cfg.World.BuildingSimplifyTolerance,
		ElevationResolution:       cfg.Elevation.Resolution,
	}, tc, osm, elev, classifier, l)

	if opts.oneShot() {
		return runOneShot(cfg, opts, tc, query, l)
	}

	if !cfg.Debug.Enabled {
		l.Info("debug server disabled and no one-shot operation requested, nothing to do")
		return nil
	}

	return serveDebug(cfg, tc, query, l)
}

func buildCache(cfg *config.Config, l logger.Logger) (*cache.TileCache, error) {
	var disk cache.DiskStore
	var err error

	switch cfg.Cache.Backend {
	case "filesystem":
		disk, err = cache.NewFilesystemStore(cfg.Cache.Path, cfg.Cache.Compress, l)
	case "sqlite":
		disk, err = cache.NewSQLiteStore(filepath.Join(cfg.Cache.Path, "tiles.db"), cfg.Cache.Compress, l)
	case "none":
		// memory tier only
	}
	if err != nil {
		return nil, fmt.Errorf("cache backend %s: %w", cfg.Cache.Backend, err)
	}

	var remote *cache.RedisStore
	if cfg.Cache.Redis.Enabled {
		remote, err = cache.NewRedisStore(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			TTL:      cfg.Cache.Redis.TTL,
		}, cfg.Cache.Compress)
		if err != nil {
			l.Warn("redis tier unavailable, continuing without it", "error", err)
			remote = nil
		}
	}

	return cache.New(cache.Config{
		MaxMemoryBytes: int64(cfg.Cache.MaxMemoryMB) << 20,
		MaxDiskBytes:   int64(cfg.Cache.MaxDiskMB) << 20,
		DefaultExpiry:  cfg.Cache.DefaultExpiry,
		Compress:       cfg.Cache.Compress,
	}, disk, remote, l), nil
}

func runOneShot(cfg *config.Config, opts Options, tc *cache.TileCache, query *world.Query, l logger.Logger) error {
	if opts.ImportBundle != "" {
		n, err := tc.ImportBundle(opts.ImportBundle)
		if err != nil {
			return fmt.Errorf("import bundle: %w", err)
		}
		l.Info("bundle imported", "dir", opts.ImportBundle, "tiles", n)
	}

	if opts.PrefetchBBox != "" {
		bounds, err := parseBBox(opts.PrefetchBBox)
		if err != nil {
			return err
		}

		zoom := cfg.World.DefaultZoom
		n := query.PrefetchArea(context.Background(), bounds, zoom, zoom,
			func(done, total int, tile geo.TileID) {
				l.Info("prefetch progress", "done", done, "total", total, "tile", tile.String())
			})
		l.Info("prefetch finished", "tiles", n)
	}

	if opts.ExportBundle != "" {
		n, err := tc.ExportBundle(opts.ExportBundle, tc.CachedTiles())
		if err != nil {
			return fmt.Errorf("export bundle: %w", err)
		}
		l.Info("bundle exported", "dir", opts.ExportBundle, "tiles", n)
	}

	return nil
}

// parseBBox parses "south,west,north,east" in degrees.
func parseBBox(s string) (geo.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.BoundingBox{}, fmt.Errorf("bbox %q: want south,west,north,east", s)
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.BoundingBox{}, fmt.Errorf("bbox %q: %w", s, err)
		}
		vals[i] = v
	}

	bounds := geo.NewBoundingBox(vals[0], vals[1], vals[2], vals[3])
	if !bounds.Valid() {
		return geo.BoundingBox{}, fmt.Errorf("bbox %q: invalid bounds", s)
	}
	return bounds, nil
}

func serveDebug(cfg *config.Config, tc *cache.TileCache, query *world.Query, l logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    ":" + cfg.Debug.Port,
		Handler: newRouter(query, tc, l),
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("starting debug server", "address", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("debug server: %w", err)
		}
	case <-ctx.Done():
		l.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("debug server shutdown failed", "error", err)
	} else {
		l.Info("debug server shutdown completed")
	}
	return nil
}
