package buildings

import (
	"math"
	"testing"

	"github.com/vehement/geoworld/internal/geo"
	"github.com/vehement/geoworld/internal/roadnet"
)

// flatTransform maps lon/lat directly onto game x/y for readable geometry.
func flatTransform(c geo.Coordinate) roadnet.Vec2 {
	return roadnet.Vec2{X: c.Lon, Y: c.Lat}
}

// squareBuilding is a 10x10 counter-clockwise square at the given origin.
func squareBuilding(id int64, t geo.BuildingType, x, y float64) geo.Building {
	return geo.Building{
		ID:   id,
		Type: t,
		Outline: []geo.Coordinate{
			{Lon: x, Lat: y},
			{Lon: x + 10, Lat: y},
			{Lon: x + 10, Lat: y + 10},
			{Lon: x, Lat: y + 10},
		},
	}
}

func testFootprints(bs ...geo.Building) *Footprints {
	fp := NewFootprints(geo.Coordinate{}, 1, nil)
	fp.SetTransform(flatTransform)
	fp.ProcessAll(bs)
	return fp
}

func TestProcessBuilding(t *testing.T) {
	fp := testFootprints(squareBuilding(1, geo.BuildingHouse, 0, 0))

	if fp.Count() != 1 {
		t.Fatalf("count = %d, want 1", fp.Count())
	}

	f := fp.Footprint(1)
	if f == nil {
		t.Fatal("footprint 1 missing")
	}
	if math.Abs(f.Area-100) > 1e-9 {
		t.Errorf("area = %f, want 100", f.Area)
	}
	if f.Centroid.DistanceTo(roadnet.Vec2{X: 5, Y: 5}) > 1e-9 {
		t.Errorf("centroid = %+v, want (5, 5)", f.Centroid)
	}
	if f.BoundsMin != (roadnet.Vec2{}) || f.BoundsMax != (roadnet.Vec2{X: 10, Y: 10}) {
		t.Errorf("bounds = %+v .. %+v", f.BoundsMin, f.BoundsMax)
	}
	if f.Height != EstimateHeightFromType(geo.BuildingHouse) {
		t.Errorf("height = %f", f.Height)
	}
	if f.Levels < 1 {
		t.Errorf("levels = %d", f.Levels)
	}
}

func TestProcessBuildingSimplifiesOutline(t *testing.T) {
	b := geo.Building{
		ID:   1,
		Type: geo.BuildingHouse,
		Outline: []geo.Coordinate{
			{Lon: 0, Lat: 0},
			{Lon: 5, Lat: 0}, // redundant mid-edge vertex
			{Lon: 10, Lat: 0},
			{Lon: 10, Lat: 10},
			{Lon: 0, Lat: 10},
		},
	}

	fp := NewFootprints(geo.Coordinate{}, 1, nil)
	fp.SetTransform(flatTransform)
	fp.SetSimplifyTolerance(2)
	fp.ProcessAll([]geo.Building{b})

	f := fp.Footprint(1)
	if f == nil {
		t.Fatal("footprint missing")
	}
	if len(f.Outline) != 4 {
		t.Errorf("simplified outline has %d points, want 4 corners", len(f.Outline))
	}
	if math.Abs(f.Area-100) > 1e-9 {
		t.Errorf("area changed by simplification: %f", f.Area)
	}

	// Without a tolerance the redundant vertex stays.
	plain := testFootprints(b)
	if len(plain.Footprint(1).Outline) != 5 {
		t.Errorf("outline = %d points, want all 5 kept", len(plain.Footprint(1).Outline))
	}
}

func TestProcessSkipsDegenerateOutline(t *testing.T) {
	fp := testFootprints(geo.Building{
		ID:      1,
		Outline: []geo.Coordinate{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0}},
	})
	if fp.Count() != 0 {
		t.Errorf("degenerate outline accepted, count = %d", fp.Count())
	}
}

func TestExplicitHeightWins(t *testing.T) {
	b := squareBuilding(1, geo.BuildingHouse, 0, 0)
	b.Height = 42
	b.Levels = 12

	fp := testFootprints(b)
	f := fp.Footprint(1)
	if f.Height != 42 {
		t.Errorf("height = %f, want tagged 42", f.Height)
	}
	if f.Levels != 12 {
		t.Errorf("levels = %d, want tagged 12", f.Levels)
	}
}

func TestHeightEstimationTables(t *testing.T) {
	tests := []struct {
		typ  geo.BuildingType
		want float64
	}{
		{geo.BuildingHouse, 8},
		{geo.BuildingApartments, 15},
		{geo.BuildingOffice, 25},
		{geo.BuildingChurch, 15},
		{geo.BuildingShed, 3},
		{geo.BuildingGarage, 4},
		{geo.BuildingUnknown, 10},
	}
	for _, tt := range tests {
		if got := EstimateHeightFromType(tt.typ); got != tt.want {
			t.Errorf("EstimateHeightFromType(%s) = %f, want %f", tt.typ, got, tt.want)
		}
	}
}

func TestAreaScalesCommercialHeight(t *testing.T) {
	base := EstimateHeightFromType(geo.BuildingOffice)

	if got := EstimateHeightFromArea(6000, geo.BuildingOffice); got != base*2 {
		t.Errorf("large office height = %f, want %f", got, base*2)
	}
	if got := EstimateHeightFromArea(3000, geo.BuildingOffice); got != base*1.5 {
		t.Errorf("medium office height = %f, want %f", got, base*1.5)
	}
	if got := EstimateHeightFromArea(500, geo.BuildingOffice); got != base {
		t.Errorf("small office height = %f, want %f", got, base)
	}
	// Area never scales residential houses.
	if got := EstimateHeightFromArea(6000, geo.BuildingHouse); got != 8 {
		t.Errorf("large house height = %f, want 8", got)
	}
}

func TestHeightToLevels(t *testing.T) {
	if got := HeightToLevels(15, geo.BuildingApartments); got != 5 {
		t.Errorf("levels = %d, want 5", got)
	}
	if got := HeightToLevels(10, geo.BuildingIndustrial); got != 2 {
		t.Errorf("industrial levels = %d, want 2", got)
	}
	if got := HeightToLevels(1, geo.BuildingHouse); got != 1 {
		t.Errorf("minimum levels = %d, want 1", got)
	}
}

func TestAtFindsContainingBuilding(t *testing.T) {
	fp := testFootprints(
		squareBuilding(1, geo.BuildingHouse, 0, 0),
		squareBuilding(2, geo.BuildingHouse, 100, 100),
	)

	if id := fp.At(roadnet.Vec2{X: 5, Y: 5}); id != 1 {
		t.Errorf("At(5,5) = %d, want 1", id)
	}
	if id := fp.At(roadnet.Vec2{X: 105, Y: 105}); id != 2 {
		t.Errorf("At(105,105) = %d, want 2", id)
	}
	if id := fp.At(roadnet.Vec2{X: 50, Y: 50}); id != -1 {
		t.Errorf("At(50,50) = %d, want -1", id)
	}
}

func TestNearest(t *testing.T) {
	fp := testFootprints(
		squareBuilding(1, geo.BuildingHouse, 0, 0),
		squareBuilding(2, geo.BuildingHouse, 100, 100),
	)

	id, dist := fp.Nearest(roadnet.Vec2{X: 8, Y: 5})
	if id != 1 {
		t.Errorf("nearest = %d, want 1", id)
	}
	if math.Abs(dist-3) > 1e-9 {
		t.Errorf("distance = %f, want 3", dist)
	}

	empty := testFootprints()
	if id, _ := empty.Nearest(roadnet.Vec2{}); id != -1 {
		t.Errorf("nearest in empty set = %d, want -1", id)
	}
}

func TestInBoundsAndByType(t *testing.T) {
	fp := testFootprints(
		squareBuilding(1, geo.BuildingHouse, 0, 0),
		squareBuilding(2, geo.BuildingOffice, 100, 100),
	)

	in := fp.InBounds(roadnet.Vec2{X: -5, Y: -5}, roadnet.Vec2{X: 20, Y: 20})
	if len(in) != 1 || in[0] != 1 {
		t.Errorf("InBounds = %v, want [1]", in)
	}

	in = fp.InBounds(roadnet.Vec2{X: -5, Y: -5}, roadnet.Vec2{X: 200, Y: 200})
	if len(in) != 2 {
		t.Errorf("InBounds = %v, want both", in)
	}

	offices := fp.ByType(geo.BuildingOffice)
	if len(offices) != 1 || offices[0] != 2 {
		t.Errorf("ByType = %v, want [2]", offices)
	}
}

func TestCoverageAndAverageHeight(t *testing.T) {
	fp := testFootprints(squareBuilding(1, geo.BuildingHouse, 0, 0))

	// One 100 unit² building in a 400 unit² box.
	cov := fp.Coverage(roadnet.Vec2{X: 0, Y: 0}, roadnet.Vec2{X: 20, Y: 20})
	if math.Abs(cov-0.25) > 1e-9 {
		t.Errorf("coverage = %f, want 0.25", cov)
	}

	if cov := fp.Coverage(roadnet.Vec2{X: 5, Y: 5}, roadnet.Vec2{X: 5, Y: 5}); cov != 0 {
		t.Errorf("zero-area coverage = %f", cov)
	}

	avg := fp.AverageHeight(roadnet.Vec2{X: -5, Y: -5}, roadnet.Vec2{X: 20, Y: 20})
	if avg != EstimateHeightFromType(geo.BuildingHouse) {
		t.Errorf("average height = %f", avg)
	}
	if avg := fp.AverageHeight(roadnet.Vec2{X: 500, Y: 500}, roadnet.Vec2{X: 600, Y: 600}); avg != 0 {
		t.Errorf("empty-box average = %f", avg)
	}
}

func TestPerimeter(t *testing.T) {
	fp := testFootprints(squareBuilding(1, geo.BuildingHouse, 0, 0))
	if p := fp.Footprint(1).Perimeter(); math.Abs(p-40) > 1e-9 {
		t.Errorf("perimeter = %f, want 40", p)
	}
}
