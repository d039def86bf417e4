package geo

import "math"

// BoundingBox is a geographic rectangle. Min is the southwest corner, Max the
// northeast corner.
type BoundingBox struct {
	Min Coordinate `json:"min"`
	Max Coordinate `json:"max"`
}

func NewBoundingBox(south, west, north, east float64) BoundingBox {
	return BoundingBox{
		Min: Coordinate{Lat: south, Lon: west},
		Max: Coordinate{Lat: north, Lon: east},
	}
}

func (b BoundingBox) Valid() bool {
	return b.Min.Valid() && b.Max.Valid() &&
		b.Min.Lat <= b.Max.Lat && b.Min.Lon <= b.Max.Lon
}

func (b BoundingBox) Center() Coordinate {
	return Coordinate{
		Lat: (b.Min.Lat + b.Max.Lat) / 2,
		Lon: (b.Min.Lon + b.Max.Lon) / 2,
	}
}

func (b BoundingBox) WidthDegrees() float64  { return b.Max.Lon - b.Min.Lon }
func (b BoundingBox) HeightDegrees() float64 { return b.Max.Lat - b.Min.Lat }

func (b BoundingBox) WidthMeters() float64 {
	center := b.Center()
	left := Coordinate{Lat: center.Lat, Lon: b.Min.Lon}
	right := Coordinate{Lat: center.Lat, Lon: b.Max.Lon}
	return left.DistanceTo(right)
}

func (b BoundingBox) HeightMeters() float64 {
	center := b.Center()
	bottom := Coordinate{Lat: b.Min.Lat, Lon: center.Lon}
	top := Coordinate{Lat: b.Max.Lat, Lon: center.Lon}
	return bottom.DistanceTo(top)
}

func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= b.Min.Lat && c.Lat <= b.Max.Lat &&
		c.Lon >= b.Min.Lon && c.Lon <= b.Max.Lon
}

func (b BoundingBox) Intersects(other BoundingBox) bool {
	return !(b.Max.Lon < other.Min.Lon ||
		b.Min.Lon > other.Max.Lon ||
		b.Max.Lat < other.Min.Lat ||
		b.Min.Lat > other.Max.Lat)
}

// Expand grows the box to include the coordinate.
func (b *BoundingBox) Expand(c Coordinate) {
	b.Min.Lat = math.Min(b.Min.Lat, c.Lat)
	b.Min.Lon = math.Min(b.Min.Lon, c.Lon)
	b.Max.Lat = math.Max(b.Max.Lat, c.Lat)
	b.Max.Lon = math.Max(b.Max.Lon, c.Lon)
}

// Padded returns the box grown by margin degrees on every side.
func (b BoundingBox) Padded(margin float64) BoundingBox {
	return NewBoundingBox(
		b.Min.Lat-margin, b.Min.Lon-margin,
		b.Max.Lat+margin, b.Max.Lon+margin,
	)
}

// BoundsFromCenterRadius returns the box covering a circle of radiusMeters
// around center.
func BoundsFromCenterRadius(center Coordinate, radiusMeters float64) BoundingBox {
	north := center.Offset(radiusMeters, 0)
	south := center.Offset(radiusMeters, 180)
	east := center.Offset(radiusMeters, 90)
	west := center.Offset(radiusMeters, 270)

	return NewBoundingBox(south.Lat, west.Lon, north.Lat, east.Lon)
}

// BoundsFromTile returns the geographic extent of an XYZ tile.
func BoundsFromTile(x, y, zoom int) BoundingBox {
	nw := FromTileXY(x, y, zoom)
	se := FromTileXY(x+1, y+1, zoom)

	return NewBoundingBox(se.Lat, nw.Lon, nw.Lat, se.Lon)
}
