package geo

import "fmt"

// TileID identifies an XYZ map tile.
type TileID struct {
	X    int `json:"x"`
	Y    int `json:"y"`
	Zoom int `json:"zoom"`
}

func (t TileID) Valid() bool {
	if t.Zoom < 0 || t.Zoom > 22 {
		return false
	}
	n := 1 << t.Zoom
	return t.X >= 0 && t.X < n && t.Y >= 0 && t.Y < n
}

func (t TileID) Bounds() BoundingBox {
	return BoundsFromTile(t.X, t.Y, t.Zoom)
}

// Key returns the "zoom/x/y" string form used as the cache key.
func (t TileID) Key() string {
	return fmt.Sprintf("%d/%d/%d", t.Zoom, t.X, t.Y)
}

func (t TileID) String() string { return t.Key() }

// ParseTileKey parses a "zoom/x/y" key back into a TileID.
func ParseTileKey(key string) (TileID, error) {
	var t TileID
	_, err := fmt.Sscanf(key, "%d/%d/%d", &t.Zoom, &t.X, &t.Y)
	if err != nil {
		return TileID{}, fmt.Errorf("parse tile key %q: %w", key, err)
	}
	return t, nil
}

// TileAt returns the tile containing the coordinate at the given zoom.
func TileAt(c Coordinate, zoom int) TileID {
	x, y := c.TileXY(zoom)
	return TileID{X: x, Y: y, Zoom: zoom}
}
