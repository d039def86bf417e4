package cache

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vehement/geoworld/internal/geo"
)

// ErrNotFound is returned by disk stores for tiles they do not hold.
var ErrNotFound = errors.New("tile not found")

// StoredEntry describes one tile held by a disk store, reported by Scan on
// startup.
type StoredEntry struct {
	Tile       geo.TileID
	Size       int64
	LastAccess time.Time
}

// DiskStore is the persistent tier under the memory cache.
type DiskStore interface {
	Load(tile geo.TileID) (geo.TileData, error)
	Save(tile geo.TileID, payload []byte) error
	Delete(tile geo.TileID) error
	Scan() ([]StoredEntry, error)
	Close() error
}

// codec serializes tile payloads for the disk tier and bundles.
type codec struct {
	compress bool
}

func (c codec) encode(data geo.TileData) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal tile %s: %w", data.Tile, err)
	}

	if !c.compress {
		return raw, nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c codec) decode(payload []byte) (geo.TileData, error) {
	var data geo.TileData

	raw := payload
	if isGzip(payload) {
		zr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return data, fmt.Errorf("decompress tile payload: %w", err)
		}
		defer zr.Close()

		raw, err = io.ReadAll(zr)
		if err != nil {
			return data, fmt.Errorf("decompress tile payload: %w", err)
		}
	}

	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("unmarshal tile payload: %w", err)
	}
	return data, nil
}

func isGzip(payload []byte) bool {
	return len(payload) > 2 && payload[0] == 0x1f && payload[1] == 0x8b
}
