package provider

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vehement/geoworld/internal/geo"
)

// overpassQuery accumulates Overpass QL statements for one bounding box and
// renders the final query string.
type overpassQuery struct {
	bounds  geo.BoundingBox
	timeout int // seconds
	parts   []string
}

func newOverpassQuery(bounds geo.BoundingBox, timeoutSeconds int) *overpassQuery {
	return &overpassQuery{bounds: bounds, timeout: timeoutSeconds}
}

func (q *overpassQuery) bbox() string {
	return fmt.Sprintf("(%g,%g,%g,%g)",
		q.bounds.Min.Lat, q.bounds.Min.Lon, q.bounds.Max.Lat, q.bounds.Max.Lon)
}

func (q *overpassQuery) addWay(filter string) {
	q.parts = append(q.parts, "way"+filter+q.bbox()+";")
}

func (q *overpassQuery) addNode(filter string) {
	q.parts = append(q.parts, "node"+filter+q.bbox()+";")
}

func (q *overpassQuery) addHighways(types []geo.RoadType) {
	if len(types) == 0 {
		q.addWay("[highway]")
		return
	}
	values := make([]string, len(types))
	for i, t := range types {
		values[i] = string(t)
	}
	q.addWay(`[highway~"` + strings.Join(values, "|") + `"]`)
}

func (q *overpassQuery) addRailways() {
	q.addWay(`[railway~"rail|light_rail|subway|tram"]`)
}

func (q *overpassQuery) addBuildings() {
	q.addWay("[building]")
}

func (q *overpassQuery) addWater() {
	q.addWay("[natural=water]")
	q.addWay("[waterway]")
	q.addWay("[natural=coastline]")
}

func (q *overpassQuery) addPOIs() {
	q.addNode("[amenity]")
	q.addNode("[shop]")
	q.addNode("[tourism]")
	q.addWay("[amenity]")
	q.addWay("[shop]")
}

func (q *overpassQuery) addLandUse() {
	q.addWay("[landuse]")
	q.addWay(`[natural~"wood|grassland|heath|scrub|wetland|beach|sand"]`)
	q.addWay(`[leisure~"park|playground|pitch|golf_course"]`)
}

func (q *overpassQuery) build() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", q.timeout)
	for _, p := range q.parts {
		b.WriteString("  " + p + "\n")
	}
	b.WriteString(");\nout body geom;\n")
	return b.String()
}

// buildOverpassQuery assembles the query for the layers the options enable.
func buildOverpassQuery(bounds geo.BoundingBox, opts geo.QueryOptions, timeoutSeconds int) string {
	q := newOverpassQuery(bounds, timeoutSeconds)

	if opts.FetchRoads {
		q.addHighways(opts.RoadTypes)
		q.addRailways()
	}
	if opts.FetchBuildings {
		q.addBuildings()
	}
	if opts.FetchWater {
		q.addWater()
	}
	if opts.FetchPOIs {
		q.addPOIs()
	}
	if opts.FetchLandUse {
		q.addLandUse()
	}

	return q.build()
}

// overpassResponse mirrors the JSON shape the Overpass API returns for
// "out body geom".
type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Lat      float64           `json:"lat,omitempty"`
	Lon      float64           `json:"lon,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
	Geometry []overpassPoint   `json:"geometry,omitempty"`
	Nodes    []int64           `json:"nodes,omitempty"`
}

type overpassPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// extractNodes indexes all node elements by id for way resolution.
func extractNodes(elements []overpassElement) map[int64]geo.Coordinate {
	nodes := make(map[int64]geo.Coordinate)
	for _, elem := range elements {
		if elem.Type == "node" {
			nodes[elem.ID] = geo.Coordinate{Lat: elem.Lat, Lon: elem.Lon}
		}
	}
	return nodes
}

// wayCoordinates resolves a way's polyline, preferring inline geometry over
// node references.
func wayCoordinates(way overpassElement, nodes map[int64]geo.Coordinate) []geo.Coordinate {
	if len(way.Geometry) > 0 {
		coords := make([]geo.Coordinate, len(way.Geometry))
		for i, pt := range way.Geometry {
			coords[i] = geo.Coordinate{Lat: pt.Lat, Lon: pt.Lon}
		}
		return coords
	}

	coords := make([]geo.Coordinate, 0, len(way.Nodes))
	for _, id := range way.Nodes {
		if c, ok := nodes[id]; ok {
			coords = append(coords, c)
		}
	}
	return coords
}

func parseOverpassResponse(resp overpassResponse, data *geo.TileData, opts geo.QueryOptions) {
	nodes := extractNodes(resp.Elements)

	if opts.FetchRoads {
		data.Roads = parseRoads(resp.Elements, nodes, opts)
	}
	if opts.FetchBuildings {
		data.Buildings = parseBuildings(resp.Elements, nodes, opts)
	}
	if opts.FetchWater {
		data.WaterBodies = parseWaterBodies(resp.Elements, nodes, opts)
	}
	if opts.FetchPOIs {
		data.POIs = parsePOIs(resp.Elements, opts)
	}
	if opts.FetchLandUse {
		data.LandUse = parseLandUse(resp.Elements, nodes, opts)
	}
}

func parseRoads(elements []overpassElement, nodes map[int64]geo.Coordinate, opts geo.QueryOptions) []geo.Road {
	var roads []geo.Road

	for _, elem := range elements {
		if elem.Type != "way" || elem.Tags == nil {
			continue
		}
		highway, hasHighway := elem.Tags["highway"]
		railway, hasRailway := elem.Tags["railway"]
		if !hasHighway && !hasRailway {
			continue
		}

		road := geo.Road{
			ID:     elem.ID,
			Points: wayCoordinates(elem, nodes),
			Tags:   elem.Tags,
		}
		if len(road.Points) < 2 {
			continue
		}
		if opts.MinRoadLength > 0 && road.Length() < opts.MinRoadLength {
			continue
		}

		if hasHighway {
			road.Type = geo.RoadTypeFromOSM(highway)
		} else {
			switch railway {
			case "rail":
				road.Type = geo.RoadRail
			case "light_rail", "tram":
				road.Type = geo.RoadLightRail
			case "subway":
				road.Type = geo.RoadSubway
			default:
				continue
			}
		}

		if len(opts.RoadTypes) > 0 && !containsRoadType(opts.RoadTypes, road.Type) {
			continue
		}

		road.Name = elem.Tags["name"]
		road.Ref = elem.Tags["ref"]
		road.Oneway = elem.Tags["oneway"] == "yes"
		road.Bridge = elem.Tags["bridge"] == "yes"
		road.Tunnel = elem.Tags["tunnel"] == "yes"
		road.Surface = geo.RoadSurfaceFromOSM(elem.Tags["surface"])
		road.Layer = parseInt(elem.Tags["layer"])
		road.Lanes = parseInt(elem.Tags["lanes"])
		road.Width = parseFloat(elem.Tags["width"])
		road.MaxSpeed = parseSpeed(elem.Tags["maxspeed"])

		roads = append(roads, road)
		if opts.MaxFeatures > 0 && len(roads) >= opts.MaxFeatures {
			break
		}
	}

	return roads
}

func parseBuildings(elements []overpassElement, nodes map[int64]geo.Coordinate, opts geo.QueryOptions) []geo.Building {
	var buildings []geo.Building

	for _, elem := range elements {
		if elem.Type != "way" || elem.Tags == nil {
			continue
		}
		tag, ok := elem.Tags["building"]
		if !ok {
			continue
		}

		building := geo.Building{
			ID:      elem.ID,
			Outline: wayCoordinates(elem, nodes),
			Tags:    elem.Tags,
		}
		if len(building.Outline) < 3 {
			continue
		}
		if opts.MinBuildingArea > 0 && building.Area() < opts.MinBuildingArea {
			continue
		}

		building.Type = geo.BuildingTypeFromOSM(tag)
		if len(opts.BuildingTypes) > 0 && !containsBuildingType(opts.BuildingTypes, building.Type) {
			continue
		}

		building.Name = elem.Tags["name"]
		building.Height = parseFloat(elem.Tags["height"])
		building.Levels = parseInt(elem.Tags["building:levels"])
		building.Material = elem.Tags["building:material"]
		building.RoofType = elem.Tags["roof:shape"]

		buildings = append(buildings, building)
		if opts.MaxFeatures > 0 && len(buildings) >= opts.MaxFeatures {
			break
		}
	}

	return buildings
}

func parseWaterBodies(elements []overpassElement, nodes map[int64]geo.Coordinate, opts geo.QueryOptions) []geo.WaterBody {
	var water []geo.WaterBody

	for _, elem := range elements {
		if elem.Type != "way" || elem.Tags == nil {
			continue
		}

		natural := elem.Tags["natural"]
		waterway := elem.Tags["waterway"]
		wtype := geo.WaterTypeFromOSM(natural, elem.Tags["water"], waterway)
		if wtype == geo.WaterUnknown {
			continue
		}

		coords := wayCoordinates(elem, nodes)
		if len(coords) < 2 {
			continue
		}

		body := geo.WaterBody{
			ID:    elem.ID,
			Name:  elem.Tags["name"],
			Type:  wtype,
			Width: parseFloat(elem.Tags["width"]),
		}

		// Waterways are linear, everything else is an area.
		if waterway != "" && natural == "" {
			body.Path = coords
		} else {
			body.Outline = coords
		}

		water = append(water, body)
		if opts.MaxFeatures > 0 && len(water) >= opts.MaxFeatures {
			break
		}
	}

	return water
}

func parsePOIs(elements []overpassElement, opts geo.QueryOptions) []geo.POI {
	var pois []geo.POI

	for _, elem := range elements {
		if elem.Type != "node" || elem.Tags == nil {
			continue
		}

		category := geo.POICategoryFromOSM(
			elem.Tags["amenity"], elem.Tags["shop"],
			elem.Tags["tourism"], elem.Tags["natural"])
		if category == geo.POIUnknown {
			continue
		}
		if len(opts.POICategories) > 0 && !containsPOICategory(opts.POICategories, category) {
			continue
		}

		pois = append(pois, geo.POI{
			ID:       elem.ID,
			Name:     elem.Tags["name"],
			Category: category,
			Position: geo.Coordinate{Lat: elem.Lat, Lon: elem.Lon},
			Tags:     elem.Tags,
		})
		if opts.MaxFeatures > 0 && len(pois) >= opts.MaxFeatures {
			break
		}
	}

	return pois
}

func parseLandUse(elements []overpassElement, nodes map[int64]geo.Coordinate, opts geo.QueryOptions) []geo.LandUse {
	var areas []geo.LandUse

	for _, elem := range elements {
		if elem.Type != "way" || elem.Tags == nil {
			continue
		}

		ltype := geo.LandUseTypeFromOSM(
			elem.Tags["landuse"], elem.Tags["natural"], elem.Tags["leisure"])
		if ltype == geo.LandUseUnknown {
			continue
		}

		outline := wayCoordinates(elem, nodes)
		if len(outline) < 3 {
			continue
		}

		areas = append(areas, geo.LandUse{
			ID:      elem.ID,
			Type:    ltype,
			Outline: outline,
		})
		if opts.MaxFeatures > 0 && len(areas) >= opts.MaxFeatures {
			break
		}
	}

	return areas
}

func containsRoadType(types []geo.RoadType, t geo.RoadType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

func containsBuildingType(types []geo.BuildingType, t geo.BuildingType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

func containsPOICategory(categories []geo.POICategory, c geo.POICategory) bool {
	for _, v := range categories {
		if v == c {
			return true
		}
	}
	return false
}

func parseInt(s string) int {
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func parseFloat(s string) float64 {
	// Tags like "12 m" carry a unit suffix; blank values are dropped.
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return v
}

// parseSpeed parses an OSM maxspeed value into km/h, handling mph suffixes.
func parseSpeed(s string) float64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	if len(fields) > 1 && fields[1] == "mph" {
		v *= 1.609344
	}
	return v
}
