package provider

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/vehement/geoworld/internal/geo"
)

func TestBuildOverpassQuery(t *testing.T) {
	bounds := geo.NewBoundingBox(52.5, 13.3, 52.6, 13.5)
	opts := geo.DefaultQueryOptions()

	query := buildOverpassQuery(bounds, opts, 60)

	for _, want := range []string{
		"[out:json]",
		"[timeout:60]",
		"way[highway](52.5,13.3,52.6,13.5);",
		"way[building]",
		"way[natural=water]",
		"node[amenity]",
		"way[landuse]",
		"out body geom;",
	} {
		if !strings.Contains(query, want) {
			t.Errorf("query missing %q:\n%s", want, query)
		}
	}
}

func TestBuildOverpassQueryTogglesLayers(t *testing.T) {
	bounds := geo.NewBoundingBox(0, 0, 1, 1)
	opts := geo.QueryOptions{FetchRoads: true}

	query := buildOverpassQuery(bounds, opts, 30)

	if !strings.Contains(query, "way[highway]") {
		t.Error("roads layer missing")
	}
	for _, absent := range []string{"[building]", "[amenity]", "[landuse]"} {
		if strings.Contains(query, absent) {
			t.Errorf("query should not request %s:\n%s", absent, query)
		}
	}
}

func TestBuildOverpassQueryRoadTypeFilter(t *testing.T) {
	opts := geo.QueryOptions{
		FetchRoads: true,
		RoadTypes:  []geo.RoadType{geo.RoadPrimary, geo.RoadSecondary},
	}

	query := buildOverpassQuery(geo.NewBoundingBox(0, 0, 1, 1), opts, 30)
	if !strings.Contains(query, `way[highway~"primary|secondary"]`) {
		t.Errorf("missing road type filter:\n%s", query)
	}
}

// sample Overpass payload covering all layers, out body geom shape.
const overpassFixture = `{
  "elements": [
    {"type": "node", "id": 1, "lat": 52.501, "lon": 13.401},
    {"type": "node", "id": 2, "lat": 52.502, "lon": 13.402},
    {"type": "node", "id": 100, "lat": 52.505, "lon": 13.405,
     "tags": {"amenity": "restaurant", "name": "Zum Adler"}},
    {"type": "way", "id": 10,
     "tags": {"highway": "residential", "name": "Lindenstrasse", "oneway": "yes",
              "maxspeed": "30", "lanes": "2", "surface": "asphalt"},
     "geometry": [{"lat": 52.501, "lon": 13.401}, {"lat": 52.502, "lon": 13.402}]},
    {"type": "way", "id": 11,
     "tags": {"highway": "service"},
     "nodes": [1, 2]},
    {"type": "way", "id": 20,
     "tags": {"building": "apartments", "building:levels": "5", "height": "16 m"},
     "geometry": [{"lat": 52.5, "lon": 13.4}, {"lat": 52.5, "lon": 13.401},
                  {"lat": 52.501, "lon": 13.401}, {"lat": 52.5, "lon": 13.4}]},
    {"type": "way", "id": 30,
     "tags": {"natural": "water", "water": "pond"},
     "geometry": [{"lat": 52.51, "lon": 13.41}, {"lat": 52.51, "lon": 13.411},
                  {"lat": 52.511, "lon": 13.411}]},
    {"type": "way", "id": 31,
     "tags": {"waterway": "stream"},
     "geometry": [{"lat": 52.52, "lon": 13.42}, {"lat": 52.521, "lon": 13.421}]},
    {"type": "way", "id": 40,
     "tags": {"landuse": "residential"},
     "geometry": [{"lat": 52.5, "lon": 13.4}, {"lat": 52.5, "lon": 13.41},
                  {"lat": 52.51, "lon": 13.41}, {"lat": 52.5, "lon": 13.4}]}
  ]
}`

func parseFixture(t *testing.T) geo.TileData {
	t.Helper()

	var resp overpassResponse
	if err := json.Unmarshal([]byte(overpassFixture), &resp); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}

	data := geo.TileData{}
	parseOverpassResponse(resp, &data, geo.DefaultQueryOptions())
	return data
}

func TestParseRoads(t *testing.T) {
	data := parseFixture(t)

	if len(data.Roads) != 2 {
		t.Fatalf("got %d roads, want 2", len(data.Roads))
	}

	road := data.RoadByID(10)
	if road == nil {
		t.Fatal("road 10 missing")
	}
	if road.Type != geo.RoadResidential {
		t.Errorf("type = %s, want residential", road.Type)
	}
	if road.Name != "Lindenstrasse" || !road.Oneway {
		t.Errorf("attributes wrong: %+v", road)
	}
	if road.MaxSpeed != 30 || road.Lanes != 2 {
		t.Errorf("maxspeed/lanes wrong: %+v", road)
	}
	if road.Surface != geo.SurfaceAsphalt {
		t.Errorf("surface = %s", road.Surface)
	}

	// Way 11 has node refs instead of inline geometry.
	refRoad := data.RoadByID(11)
	if refRoad == nil {
		t.Fatal("road 11 missing")
	}
	if len(refRoad.Points) != 2 {
		t.Errorf("node-ref road has %d points, want 2", len(refRoad.Points))
	}
}

func TestParseBuildings(t *testing.T) {
	data := parseFixture(t)

	if len(data.Buildings) != 1 {
		t.Fatalf("got %d buildings, want 1", len(data.Buildings))
	}

	b := data.Buildings[0]
	if b.Type != geo.BuildingApartments {
		t.Errorf("type = %s, want apartments", b.Type)
	}
	if b.Levels != 5 {
		t.Errorf("levels = %d, want 5", b.Levels)
	}
	if b.Height != 16 {
		t.Errorf("height = %f, want 16 (unit suffix stripped)", b.Height)
	}
}

func TestParseWater(t *testing.T) {
	data := parseFixture(t)

	if len(data.WaterBodies) != 2 {
		t.Fatalf("got %d water bodies, want 2", len(data.WaterBodies))
	}

	var pond, stream *geo.WaterBody
	for i := range data.WaterBodies {
		switch data.WaterBodies[i].Type {
		case geo.WaterPond:
			pond = &data.WaterBodies[i]
		case geo.WaterStream:
			stream = &data.WaterBodies[i]
		}
	}

	if pond == nil || len(pond.Outline) == 0 {
		t.Error("pond should be an area feature")
	}
	if stream == nil || len(stream.Path) == 0 {
		t.Error("stream should be a linear feature")
	}
}

func TestParsePOIsAndLandUse(t *testing.T) {
	data := parseFixture(t)

	if len(data.POIs) != 1 {
		t.Fatalf("got %d POIs, want 1", len(data.POIs))
	}
	if data.POIs[0].Category != geo.POIRestaurant || data.POIs[0].Name != "Zum Adler" {
		t.Errorf("POI wrong: %+v", data.POIs[0])
	}

	if len(data.LandUse) != 1 {
		t.Fatalf("got %d land use areas, want 1", len(data.LandUse))
	}
	if data.LandUse[0].Type != geo.LandUseResidential {
		t.Errorf("land use type = %s", data.LandUse[0].Type)
	}
}

func TestParseMaxFeatures(t *testing.T) {
	var resp overpassResponse
	if err := json.Unmarshal([]byte(overpassFixture), &resp); err != nil {
		t.Fatal(err)
	}

	opts := geo.DefaultQueryOptions()
	opts.MaxFeatures = 1

	data := geo.TileData{}
	parseOverpassResponse(resp, &data, opts)

	if len(data.Roads) != 1 {
		t.Errorf("max features not enforced: %d roads", len(data.Roads))
	}
}

func TestParseSpeed(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"50", 50},
		{"30 mph", 48.28032},
		{"", 0},
		{" ", 0},
		{"none", 0},
	}

	for _, tt := range tests {
		got := parseSpeed(tt.in)
		if diff := got - tt.want; diff > 0.001 || diff < -0.001 {
			t.Errorf("parseSpeed(%q) = %f, want %f", tt.in, got, tt.want)
		}
	}
}

func TestParseFloatMalformedTags(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"12 m", 12},
		{"4.5", 4.5},
		{"", 0},
		{" ", 0},
		{"\t \n", 0},
		{"tall", 0},
	}

	for _, tt := range tests {
		if got := parseFloat(tt.in); got != tt.want {
			t.Errorf("parseFloat(%q) = %f, want %f", tt.in, got, tt.want)
		}
	}
}
