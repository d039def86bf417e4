package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vehement/geoworld/internal/geo"
)

const bundleVersion = 1

// bundleManifest indexes the tile files inside an offline bundle directory.
type bundleManifest struct {
	Version int          `json:"version"`
	Tiles   []bundleTile `json:"tiles"`
}

type bundleTile struct {
	Zoom int    `json:"zoom"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	File string `json:"file"`
}

// ExportBundle writes the given cached tiles into a directory alongside a
// manifest.json, for distribution to offline sessions. Tiles missing from
// the cache are skipped. Returns the number of tiles exported.
func (c *TileCache) ExportBundle(dir string, tiles []geo.TileID) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("create bundle dir %s: %w", dir, err)
	}

	manifest := bundleManifest{Version: bundleVersion}

	for _, tile := range tiles {
		data, ok := c.Get(tile)
		if !ok {
			c.logger.Warn("bundle export skipping uncached tile", "tile", tile.Key())
			continue
		}

		payload, err := c.codec.encode(data)
		if err != nil {
			return 0, fmt.Errorf("encode tile %s: %w", tile, err)
		}

		name := fmt.Sprintf("%d_%d_%d%s", tile.Zoom, tile.X, tile.Y, tileExt)
		if err := os.WriteFile(filepath.Join(dir, name), payload, 0644); err != nil {
			return 0, fmt.Errorf("write bundle tile %s: %w", tile, err)
		}

		manifest.Tiles = append(manifest.Tiles, bundleTile{
			Zoom: tile.Zoom, X: tile.X, Y: tile.Y, File: name,
		})
	}

	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), raw, 0644); err != nil {
		return 0, fmt.Errorf("write bundle manifest: %w", err)
	}

	c.logger.Info("bundle exported", "dir", dir, "tiles", len(manifest.Tiles))
	return len(manifest.Tiles), nil
}

// ImportBundle merges a bundle directory into the cache, overwriting any
// tiles already present. Returns the number of tiles imported.
func (c *TileCache) ImportBundle(dir string) (int, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return 0, fmt.Errorf("read bundle manifest: %w", err)
	}

	var manifest bundleManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return 0, fmt.Errorf("parse bundle manifest: %w", err)
	}
	if manifest.Version != bundleVersion {
		return 0, fmt.Errorf("unsupported bundle version %d", manifest.Version)
	}

	imported := 0
	for _, bt := range manifest.Tiles {
		payload, err := os.ReadFile(filepath.Join(dir, bt.File))
		if err != nil {
			c.logger.Warn("bundle tile unreadable", "file", bt.File, "error", err)
			continue
		}

		data, err := c.codec.decode(payload)
		if err != nil {
			c.logger.Warn("bundle tile corrupt", "file", bt.File, "error", err)
			continue
		}

		tile := geo.TileID{X: bt.X, Y: bt.Y, Zoom: bt.Zoom}
		c.Put(tile, data)
		imported++
	}

	c.logger.Info("bundle imported", "dir", dir, "tiles", imported)
	return imported, nil
}
