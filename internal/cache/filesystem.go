package cache

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vehement/geoworld/internal/geo"
	"github.com/vehement/geoworld/pkg/logger"
)

const tileExt = ".tile"

// FilesystemStore keeps one file per tile at <root>/<zoom>/<x>/<y>.tile.
type FilesystemStore struct {
	root   string
	codec  codec
	logger logger.Logger
}

var _ DiskStore = (*FilesystemStore)(nil)

func NewFilesystemStore(root string, compress bool, l logger.Logger) (*FilesystemStore, error) {
	if l == nil {
		l = logger.NewNop()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", root, err)
	}
	return &FilesystemStore{
		root:   root,
		codec:  codec{compress: compress},
		logger: l,
	}, nil
}

func (s *FilesystemStore) path(tile geo.TileID) string {
	return filepath.Join(s.root,
		fmt.Sprintf("%d", tile.Zoom),
		fmt.Sprintf("%d", tile.X),
		fmt.Sprintf("%d%s", tile.Y, tileExt))
}

func (s *FilesystemStore) Load(tile geo.TileID) (geo.TileData, error) {
	payload, err := os.ReadFile(s.path(tile))
	if err != nil {
		if os.IsNotExist(err) {
			return geo.TileData{}, ErrNotFound
		}
		return geo.TileData{}, err
	}

	data, err := s.codec.decode(payload)
	if err != nil {
		// Corrupt file: drop it so the next save starts clean.
		s.logger.Warn("removing corrupt cache file", "tile", tile.Key(), "error", err)
		os.Remove(s.path(tile))
		return geo.TileData{}, err
	}
	return data, nil
}

func (s *FilesystemStore) Save(tile geo.TileID, payload []byte) error {
	path := s.path(tile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0644)
}

func (s *FilesystemStore) Delete(tile geo.TileID) error {
	err := os.Remove(s.path(tile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Scan walks the cache directory and reports every stored tile. File
// modification time stands in for last access.
func (s *FilesystemStore) Scan() ([]StoredEntry, error) {
	var entries []StoredEntry

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, tileExt) {
			return err
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return nil
		}
		key := strings.TrimSuffix(filepath.ToSlash(rel), tileExt)
		tile, err := geo.ParseTileKey(key)
		if err != nil {
			return nil // stray file, skip
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		entries = append(entries, StoredEntry{
			Tile:       tile,
			Size:       info.Size(),
			LastAccess: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan cache dir %s: %w", s.root, err)
	}

	return entries, nil
}

func (s *FilesystemStore) Close() error { return nil }
