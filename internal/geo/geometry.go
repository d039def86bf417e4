package geo

import "math"

// PolygonArea returns the shoelace area of a polygon in square degrees.
func PolygonArea(polygon []Coordinate) float64 {
	if len(polygon) < 3 {
		return 0
	}

	area := 0.0
	n := len(polygon)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += polygon[i].Lon * polygon[j].Lat
		area -= polygon[j].Lon * polygon[i].Lat
	}

	return math.Abs(area) / 2.0
}

// PolygonAreaMeters returns the polygon area in square meters using the
// spherical excess approximation.
func PolygonAreaMeters(polygon []Coordinate) float64 {
	if len(polygon) < 3 {
		return 0
	}

	area := 0.0
	n := len(polygon)
	for i := 0; i < n; i++ {
		j := (i + 1) % n

		lat1 := degToRad(polygon[i].Lat)
		lon1 := degToRad(polygon[i].Lon)
		lat2 := degToRad(polygon[j].Lat)
		lon2 := degToRad(polygon[j].Lon)

		area += (lon2 - lon1) * (2 + math.Sin(lat1) + math.Sin(lat2))
	}

	return math.Abs(area) * EarthRadiusMeters * EarthRadiusMeters / 2.0
}

// PolylineLength returns the total haversine length of a polyline in meters.
func PolylineLength(polyline []Coordinate) float64 {
	if len(polyline) < 2 {
		return 0
	}

	length := 0.0
	for i := 1; i < len(polyline); i++ {
		length += polyline[i-1].DistanceTo(polyline[i])
	}

	return length
}

// Centroid returns the average of the polygon's vertices.
func Centroid(polygon []Coordinate) Coordinate {
	if len(polygon) == 0 {
		return Coordinate{}
	}
	if len(polygon) == 1 {
		return polygon[0]
	}

	var latSum, lonSum float64
	for _, c := range polygon {
		latSum += c.Lat
		lonSum += c.Lon
	}

	n := float64(len(polygon))
	return Coordinate{Lat: latSum / n, Lon: lonSum / n}
}

// PointInPolygon reports whether the point lies inside the polygon using
// ray casting.
func PointInPolygon(point Coordinate, polygon []Coordinate) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi := polygon[i]
		pj := polygon[j]

		if (pi.Lat > point.Lat) != (pj.Lat > point.Lat) &&
			point.Lon < (pj.Lon-pi.Lon)*(point.Lat-pi.Lat)/(pj.Lat-pi.Lat)+pi.Lon {
			inside = !inside
		}
	}

	return inside
}
