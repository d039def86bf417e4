package geo

import "math"

// EarthRadiusMeters is the mean earth radius used by all spherical math.
const EarthRadiusMeters = 6371000.0

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// DistanceTo returns the great-circle distance to other in meters (haversine).
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	lat1 := degToRad(c.Lat)
	lat2 := degToRad(other.Lat)
	dLat := degToRad(other.Lat - c.Lat)
	dLon := degToRad(other.Lon - c.Lon)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	cc := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * cc
}

// BearingTo returns the initial bearing to other in degrees, 0..360 from north.
func (c Coordinate) BearingTo(other Coordinate) float64 {
	lat1 := degToRad(c.Lat)
	lat2 := degToRad(other.Lat)
	dLon := degToRad(other.Lon - c.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	bearing := radToDeg(math.Atan2(y, x))
	return math.Mod(bearing+360.0, 360.0)
}

// Offset returns the coordinate reached by travelling distance meters along
// the given bearing in degrees.
func (c Coordinate) Offset(distance, bearing float64) Coordinate {
	lat1 := degToRad(c.Lat)
	lon1 := degToRad(c.Lon)
	brng := degToRad(bearing)
	d := distance / EarthRadiusMeters

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) +
		math.Cos(lat1)*math.Sin(d)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))

	return Coordinate{Lat: radToDeg(lat2), Lon: radToDeg(lon2)}
}

// TileXY returns the XYZ (slippy map) tile containing the coordinate at the
// given zoom level.
func (c Coordinate) TileXY(zoom int) (int, int) {
	n := 1 << zoom
	latRad := degToRad(c.Lat)

	x := int((c.Lon + 180.0) / 360.0 * float64(n))
	y := int((1.0 - math.Asinh(math.Tan(latRad))/math.Pi) / 2.0 * float64(n))

	x = min(max(x, 0), n-1)
	y = min(max(y, 0), n-1)

	return x, y
}

// FromTileXY returns the northwest corner of tile (x, y) at the given zoom.
func FromTileXY(x, y, zoom int) Coordinate {
	n := 1 << zoom

	lon := float64(x)/float64(n)*360.0 - 180.0
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(y)/float64(n))))

	return Coordinate{Lat: radToDeg(latRad), Lon: lon}
}
