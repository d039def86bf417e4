package buildings

import (
	"math"

	"github.com/vehement/geoworld/internal/geo"
	"github.com/vehement/geoworld/internal/roadnet"
	"github.com/vehement/geoworld/pkg/logger"
)

// gridCellSize is the spatial index cell edge in game units.
const gridCellSize = 50.0

// Footprint is a building transformed into game space.
type Footprint struct {
	ID        int64
	Name      string
	Type      geo.BuildingType
	Outline   []roadnet.Vec2
	Holes     [][]roadnet.Vec2
	Height    float64
	MinHeight float64
	Levels    int
	Material  string
	RoofType  string

	Centroid  roadnet.Vec2
	Area      float64
	BoundsMin roadnet.Vec2
	BoundsMax roadnet.Vec2
}

// Contains reports whether the point lies inside the footprint outline.
// Holes are not considered.
func (f *Footprint) Contains(p roadnet.Vec2) bool {
	return pointInPolygon(p, f.Outline)
}

func (f *Footprint) Perimeter() float64 {
	if len(f.Outline) < 2 {
		return 0
	}
	total := 0.0
	for i := range f.Outline {
		j := (i + 1) % len(f.Outline)
		total += f.Outline[i].DistanceTo(f.Outline[j])
	}
	return total
}

func (f *Footprint) overlapsBounds(min, max roadnet.Vec2) bool {
	return f.BoundsMax.X >= min.X && f.BoundsMin.X <= max.X &&
		f.BoundsMax.Y >= min.Y && f.BoundsMin.Y <= max.Y
}

type gridCell struct{ x, y int }

// Footprints turns raw buildings into game-space footprints with a spatial
// hash index for point and range queries. Processing is not safe for
// concurrent use; queries are safe once processing is complete.
type Footprints struct {
	transform roadnet.TransformFunc
	scale     float64
	simplify  float64

	footprints []Footprint
	byID       map[int64]int
	grid       map[gridCell][]int

	logger logger.Logger
}

func NewFootprints(origin geo.Coordinate, scale float64, l logger.Logger) *Footprints {
	if l == nil {
		l = logger.NewNop()
	}
	if scale <= 0 {
		scale = 1
	}
	return &Footprints{
		transform: roadnet.DefaultTransform(origin, scale),
		scale:     scale,
		byID:      make(map[int64]int),
		grid:      make(map[gridCell][]int),
		logger:    l,
	}
}

// SetTransform replaces the coordinate mapping. Call before processing.
func (fp *Footprints) SetTransform(t roadnet.TransformFunc) {
	if t != nil {
		fp.transform = t
	}
}

// SetSimplifyTolerance enables outline simplification during processing.
// Zero keeps outlines as tagged.
func (fp *Footprints) SetSimplifyTolerance(tol float64) {
	fp.simplify = tol
}

// ProcessAll replaces the stored footprints with the given buildings.
func (fp *Footprints) ProcessAll(buildings []geo.Building) {
	fp.Clear()
	fp.ProcessBuildings(buildings)
	fp.EstimateHeights()
	fp.buildIndex()

	fp.logger.Debug("building footprints processed", "count", len(fp.footprints))
}

// ProcessBuildings transforms buildings into game space. Outlines with fewer
// than three points are skipped. Returns the number accepted.
func (fp *Footprints) ProcessBuildings(buildings []geo.Building) int {
	count := 0
	for i := range buildings {
		if fp.processBuilding(&buildings[i]) {
			count++
		}
	}
	return count
}

func (fp *Footprints) processBuilding(b *geo.Building) bool {
	if len(b.Outline) < 3 {
		return false
	}

	f := Footprint{
		ID:       b.ID,
		Name:     b.Name,
		Type:     b.Type,
		Levels:   b.Levels,
		Material: b.Material,
		RoofType: b.RoofType,
	}

	f.Outline = make([]roadnet.Vec2, len(b.Outline))
	for i, p := range b.Outline {
		f.Outline[i] = fp.transform(p)
	}
	if fp.simplify > 0 {
		f.Outline = SimplifyOutline(f.Outline, fp.simplify)
	}
	for _, hole := range b.Holes {
		transformed := make([]roadnet.Vec2, len(hole))
		for i, p := range hole {
			transformed[i] = fp.transform(p)
		}
		if fp.simplify > 0 {
			transformed = SimplifyOutline(transformed, fp.simplify)
		}
		f.Holes = append(f.Holes, transformed)
	}

	if b.Height > 0 {
		f.Height = b.Height * fp.scale
	} else {
		f.Height = EstimateHeightFromType(b.Type) * fp.scale
	}
	if f.Levels <= 0 {
		f.Levels = HeightToLevels(f.Height/fp.scale, b.Type)
	}

	f.Centroid = polygonCentroid(f.Outline)
	f.Area = polygonArea(f.Outline)

	f.BoundsMin, f.BoundsMax = f.Outline[0], f.Outline[0]
	for _, p := range f.Outline[1:] {
		f.BoundsMin.X = math.Min(f.BoundsMin.X, p.X)
		f.BoundsMin.Y = math.Min(f.BoundsMin.Y, p.Y)
		f.BoundsMax.X = math.Max(f.BoundsMax.X, p.X)
		f.BoundsMax.Y = math.Max(f.BoundsMax.Y, p.Y)
	}

	fp.byID[f.ID] = len(fp.footprints)
	fp.footprints = append(fp.footprints, f)
	return true
}

// EstimateHeights refines heights using footprint area for buildings that
// carried no explicit height.
func (fp *Footprints) EstimateHeights() {
	for i := range fp.footprints {
		f := &fp.footprints[i]
		if f.Height > 0.01 {
			continue
		}
		f.Height = EstimateHeightFromArea(f.Area/(fp.scale*fp.scale), f.Type) * fp.scale
		f.Levels = HeightToLevels(f.Height/fp.scale, f.Type)
	}
}

func (fp *Footprints) buildIndex() {
	fp.grid = make(map[gridCell][]int)
	for i := range fp.footprints {
		f := &fp.footprints[i]
		for _, cell := range cellsFor(f.BoundsMin, f.BoundsMax) {
			fp.grid[cell] = append(fp.grid[cell], i)
		}
	}
}

func cellsFor(min, max roadnet.Vec2) []gridCell {
	x0 := int(math.Floor(min.X / gridCellSize))
	x1 := int(math.Floor(max.X / gridCellSize))
	y0 := int(math.Floor(min.Y / gridCellSize))
	y1 := int(math.Floor(max.Y / gridCellSize))

	var cells []gridCell
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			cells = append(cells, gridCell{x, y})
		}
	}
	return cells
}

func (fp *Footprints) Clear() {
	fp.footprints = fp.footprints[:0]
	fp.byID = make(map[int64]int)
	fp.grid = make(map[gridCell][]int)
}

func (fp *Footprints) All() []Footprint { return fp.footprints }
func (fp *Footprints) Count() int       { return len(fp.footprints) }

func (fp *Footprints) Footprint(id int64) *Footprint {
	if idx, ok := fp.byID[id]; ok && idx < len(fp.footprints) {
		return &fp.footprints[idx]
	}
	return nil
}

// At returns the id of the building containing the point, or -1.
func (fp *Footprints) At(point roadnet.Vec2) int64 {
	cell := gridCell{
		x: int(math.Floor(point.X / gridCellSize)),
		y: int(math.Floor(point.Y / gridCellSize)),
	}
	for _, idx := range fp.grid[cell] {
		f := &fp.footprints[idx]
		if point.X >= f.BoundsMin.X && point.X <= f.BoundsMax.X &&
			point.Y >= f.BoundsMin.Y && point.Y <= f.BoundsMax.Y &&
			f.Contains(point) {
			return f.ID
		}
	}
	return -1
}

// Nearest returns the building whose centroid is closest to the point and
// the distance to it, or -1 when none are loaded.
func (fp *Footprints) Nearest(point roadnet.Vec2) (int64, float64) {
	nearestID := int64(-1)
	nearestDist := math.MaxFloat64

	for i := range fp.footprints {
		f := &fp.footprints[i]
		dist := f.Centroid.DistanceTo(point)
		if dist < nearestDist {
			nearestDist = dist
			nearestID = f.ID
		}
	}
	return nearestID, nearestDist
}

// InBounds lists buildings whose bounding box overlaps the given box.
func (fp *Footprints) InBounds(min, max roadnet.Vec2) []int64 {
	seen := make(map[int64]bool)
	var result []int64

	for _, cell := range cellsFor(min, max) {
		for _, idx := range fp.grid[cell] {
			f := &fp.footprints[idx]
			if !seen[f.ID] && f.overlapsBounds(min, max) {
				seen[f.ID] = true
				result = append(result, f.ID)
			}
		}
	}
	return result
}

// ByType lists buildings of the given type.
func (fp *Footprints) ByType(t geo.BuildingType) []int64 {
	var result []int64
	for i := range fp.footprints {
		if fp.footprints[i].Type == t {
			result = append(result, fp.footprints[i].ID)
		}
	}
	return result
}

// Coverage returns the fraction of the box covered by building footprints,
// capped at 1.
func (fp *Footprints) Coverage(min, max roadnet.Vec2) float64 {
	totalArea := (max.X - min.X) * (max.Y - min.Y)
	if totalArea <= 0 {
		return 0
	}

	buildingArea := 0.0
	for i := range fp.footprints {
		if fp.footprints[i].overlapsBounds(min, max) {
			buildingArea += fp.footprints[i].Area
		}
	}
	return math.Min(1, buildingArea/totalArea)
}

// AverageHeight returns the mean height of buildings overlapping the box.
func (fp *Footprints) AverageHeight(min, max roadnet.Vec2) float64 {
	total := 0.0
	count := 0
	for i := range fp.footprints {
		if fp.footprints[i].overlapsBounds(min, max) {
			total += fp.footprints[i].Height
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// EstimateHeightFromType is the assumed height in meters for a building
// without height or level tags.
func EstimateHeightFromType(t geo.BuildingType) float64 {
	switch t {
	case geo.BuildingHouse, geo.BuildingDetached, geo.BuildingSemidetached:
		return 8
	case geo.BuildingApartments:
		return 15
	case geo.BuildingCommercial, geo.BuildingRetail:
		return 12
	case geo.BuildingOffice:
		return 25
	case geo.BuildingIndustrial, geo.BuildingWarehouse:
		return 10
	case geo.BuildingHospital:
		return 20
	case geo.BuildingSchool:
		return 12
	case geo.BuildingChurch:
		return 15
	case geo.BuildingShed:
		return 3
	case geo.BuildingGarage:
		return 4
	default:
		return 10
	}
}

// EstimateHeightFromArea scales the type estimate up for large commercial
// footprints, which tend to be taller.
func EstimateHeightFromArea(area float64, t geo.BuildingType) float64 {
	base := EstimateHeightFromType(t)

	if t == geo.BuildingCommercial || t == geo.BuildingOffice || t == geo.BuildingApartments {
		switch {
		case area > 5000:
			base *= 2
		case area > 2000:
			base *= 1.5
		case area > 1000:
			base *= 1.2
		}
	}
	return base
}

// FloorHeight is the assumed story height in meters for a building type.
func FloorHeight(t geo.BuildingType) float64 {
	switch t {
	case geo.BuildingIndustrial, geo.BuildingWarehouse:
		return 5
	case geo.BuildingCommercial, geo.BuildingRetail:
		return 4
	case geo.BuildingChurch:
		return 6
	default:
		return 3
	}
}

// HeightToLevels converts a height into a floor count, at least one.
func HeightToLevels(height float64, t geo.BuildingType) int {
	levels := int(height / FloorHeight(t))
	if levels < 1 {
		return 1
	}
	return levels
}

func polygonArea(polygon []roadnet.Vec2) float64 {
	if len(polygon) < 3 {
		return 0
	}
	area := 0.0
	n := len(polygon)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += polygon[i].X * polygon[j].Y
		area -= polygon[j].X * polygon[i].Y
	}
	return math.Abs(area) * 0.5
}

func polygonCentroid(polygon []roadnet.Vec2) roadnet.Vec2 {
	if len(polygon) == 0 {
		return roadnet.Vec2{}
	}
	var c roadnet.Vec2
	for _, p := range polygon {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(polygon)))
}

func pointInPolygon(point roadnet.Vec2, polygon []roadnet.Vec2) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := polygon[i], polygon[j]
		if (pi.Y > point.Y) != (pj.Y > point.Y) &&
			point.X < (pj.X-pi.X)*(point.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}
