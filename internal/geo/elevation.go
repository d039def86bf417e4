package geo

import "math"

// ElevationGrid is a regular grid of elevation samples covering Bounds.
// Row 0 is the northern edge.
type ElevationGrid struct {
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Bounds      BoundingBox `json:"bounds"`
	Data        []float32   `json:"data"`
	NoDataValue float32     `json:"noDataValue"`
}

func NewElevationGrid(width, height int, bounds BoundingBox) *ElevationGrid {
	return &ElevationGrid{
		Width:       width,
		Height:      height,
		Bounds:      bounds,
		Data:        make([]float32, width*height),
		NoDataValue: -9999,
	}
}

func (g *ElevationGrid) Empty() bool {
	return g == nil || g.Width <= 0 || g.Height <= 0 || len(g.Data) == 0
}

func (g *ElevationGrid) At(x, y int) float32 {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return g.NoDataValue
	}
	return g.Data[y*g.Width+x]
}

func (g *ElevationGrid) Set(x, y int, v float32) {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return
	}
	g.Data[y*g.Width+x] = v
}

// Sample returns the bilinearly interpolated elevation at the coordinate,
// or NoDataValue outside the grid or next to missing samples.
func (g *ElevationGrid) Sample(c Coordinate) float32 {
	if g.Empty() {
		return g.NoDataValue
	}
	if !g.Bounds.Contains(c) {
		return g.NoDataValue
	}

	fx := (c.Lon - g.Bounds.Min.Lon) / g.Bounds.WidthDegrees() * float64(g.Width-1)
	fy := (g.Bounds.Max.Lat - c.Lat) / g.Bounds.HeightDegrees() * float64(g.Height-1)

	x0 := int(fx)
	y0 := int(fy)
	x1 := min(x0+1, g.Width-1)
	y1 := min(y0+1, g.Height-1)

	fracX := float32(fx - float64(x0))
	fracY := float32(fy - float64(y0))

	e00 := g.At(x0, y0)
	e10 := g.At(x1, y0)
	e01 := g.At(x0, y1)
	e11 := g.At(x1, y1)

	if e00 == g.NoDataValue || e10 == g.NoDataValue ||
		e01 == g.NoDataValue || e11 == g.NoDataValue {
		return g.NoDataValue
	}

	e0 := e00*(1-fracX) + e10*fracX
	e1 := e01*(1-fracX) + e11*fracX

	return e0*(1-fracY) + e1*fracY
}

// Slope returns the terrain slope at the coordinate in degrees.
func (g *ElevationGrid) Slope(c Coordinate) float32 {
	if g.Empty() || g.Width <= 2 || g.Height <= 2 {
		return 0
	}

	cellSizeX := g.Bounds.WidthMeters() / float64(g.Width-1)
	cellSizeY := g.Bounds.HeightMeters() / float64(g.Height-1)

	const offset = 0.0001
	eN := g.Sample(Coordinate{Lat: c.Lat + offset, Lon: c.Lon})
	eS := g.Sample(Coordinate{Lat: c.Lat - offset, Lon: c.Lon})
	eE := g.Sample(Coordinate{Lat: c.Lat, Lon: c.Lon + offset})
	eW := g.Sample(Coordinate{Lat: c.Lat, Lon: c.Lon - offset})

	if eN == g.NoDataValue || eS == g.NoDataValue ||
		eE == g.NoDataValue || eW == g.NoDataValue {
		return 0
	}

	dzdx := float64(eE-eW) / (2.0 * cellSizeX)
	dzdy := float64(eN-eS) / (2.0 * cellSizeY)

	slope := math.Atan(math.Sqrt(dzdx*dzdx + dzdy*dzdy))
	return float32(radToDeg(slope))
}

// Aspect returns the downslope direction at the coordinate in degrees from
// north.
func (g *ElevationGrid) Aspect(c Coordinate) float32 {
	if g.Empty() || g.Width <= 2 || g.Height <= 2 {
		return 0
	}

	const offset = 0.0001
	eN := g.Sample(Coordinate{Lat: c.Lat + offset, Lon: c.Lon})
	eS := g.Sample(Coordinate{Lat: c.Lat - offset, Lon: c.Lon})
	eE := g.Sample(Coordinate{Lat: c.Lat, Lon: c.Lon + offset})
	eW := g.Sample(Coordinate{Lat: c.Lat, Lon: c.Lon - offset})

	if eN == g.NoDataValue || eS == g.NoDataValue ||
		eE == g.NoDataValue || eW == g.NoDataValue {
		return 0
	}

	dzdx := float64(eE - eW)
	dzdy := float64(eN - eS)

	aspect := radToDeg(math.Atan2(-dzdy, dzdx))
	return float32(math.Mod(aspect+360.0, 360.0))
}

// MinMax returns the smallest and largest valid sample values.
func (g *ElevationGrid) MinMax() (float32, float32) {
	minVal := float32(math.MaxFloat32)
	maxVal := float32(-math.MaxFloat32)

	for _, v := range g.Data {
		if v == g.NoDataValue {
			continue
		}
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}

	return minVal, maxVal
}

// Heightmap returns the grid normalized to one byte per sample, 0 at the
// lowest elevation and 255 at the highest. Missing samples map to 0.
func (g *ElevationGrid) Heightmap() []byte {
	heightmap := make([]byte, g.Width*g.Height)

	minElev, maxElev := g.MinMax()
	elevRange := maxElev - minElev
	if elevRange < 0.001 {
		elevRange = 1.0
	}

	for i, v := range g.Data {
		if v == g.NoDataValue {
			continue
		}
		normalized := (v - minElev) / elevRange
		heightmap[i] = byte(min(max(normalized*255.0, 0), 255))
	}

	return heightmap
}

// NormalMap returns RGB-encoded surface normals, three bytes per sample.
func (g *ElevationGrid) NormalMap() []byte {
	normalMap := make([]byte, g.Width*g.Height*3)

	cellSizeX := g.Bounds.WidthMeters() / float64(g.Width-1)
	cellSizeY := g.Bounds.HeightMeters() / float64(g.Height-1)

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			eL := g.At(max(x-1, 0), y)
			eR := g.At(min(x+1, g.Width-1), y)
			eU := g.At(x, max(y-1, 0))
			eD := g.At(x, min(y+1, g.Height-1))

			if eL == g.NoDataValue || eR == g.NoDataValue ||
				eU == g.NoDataValue || eD == g.NoDataValue {
				// Flat up-facing normal for missing data.
				i := (y*g.Width + x) * 3
				normalMap[i] = 128
				normalMap[i+1] = 128
				normalMap[i+2] = 255
				continue
			}

			nx := float64(eL-eR) / (2.0 * cellSizeX)
			ny := float64(eU-eD) / (2.0 * cellSizeY)
			nz := 1.0

			length := math.Sqrt(nx*nx + ny*ny + nz*nz)
			nx /= length
			ny /= length
			nz /= length

			i := (y*g.Width + x) * 3
			normalMap[i] = byte((nx*0.5 + 0.5) * 255)
			normalMap[i+1] = byte((ny*0.5 + 0.5) * 255)
			normalMap[i+2] = byte((nz*0.5 + 0.5) * 255)
		}
	}

	return normalMap
}
