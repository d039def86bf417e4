package roadnet

import (
	"math"
	"testing"

	"github.com/vehement/geoworld/internal/geo"
)

// flatTransform maps lon/lat directly onto game x/y for readable geometry.
func flatTransform(c geo.Coordinate) Vec2 {
	return Vec2{X: c.Lon, Y: c.Lat}
}

func testNetwork(roads ...geo.Road) *Network {
	n := NewNetwork(geo.Coordinate{}, 1, nil)
	n.SetTransform(flatTransform)
	n.ProcessAll(roads)
	return n
}

func road(id int64, t geo.RoadType, oneway bool, points ...[2]float64) geo.Road {
	r := geo.Road{ID: id, Type: t, Oneway: oneway}
	for _, p := range points {
		r.Points = append(r.Points, geo.Coordinate{Lon: p[0], Lat: p[1]})
	}
	return r
}

func TestCrossingRoadsProduceOneIntersection(t *testing.T) {
	n := testNetwork(
		road(1, geo.RoadResidential, false, [2]float64{0, 0}, [2]float64{10, 0}),
		road(2, geo.RoadResidential, false, [2]float64{5, -5}, [2]float64{5, 5}),
	)

	xs := n.Intersections()
	if len(xs) != 1 {
		t.Fatalf("intersections = %d, want 1", len(xs))
	}

	x := xs[0]
	if math.Abs(x.Position.X-5) > 0.01 || math.Abs(x.Position.Y) > 0.01 {
		t.Errorf("intersection at %+v, want (5, 0)", x.Position)
	}
	if x.Degree() != 2 {
		t.Errorf("degree = %d, want 2", x.Degree())
	}
	if x.Priority != RoadPriority(geo.RoadResidential) {
		t.Errorf("priority = %d", x.Priority)
	}
}

func TestParallelRoadsNeverIntersect(t *testing.T) {
	n := testNetwork(
		road(1, geo.RoadResidential, false, [2]float64{0, 0}, [2]float64{10, 0}),
		road(2, geo.RoadResidential, false, [2]float64{0, 10}, [2]float64{10, 10}),
	)

	if xs := n.Intersections(); len(xs) != 0 {
		t.Errorf("parallel roads produced %d intersections", len(xs))
	}
}

func TestCrossingRoadsAreRoutable(t *testing.T) {
	n := testNetwork(
		road(1, geo.RoadResidential, false, [2]float64{0, 0}, [2]float64{10, 0}),
		road(2, geo.RoadResidential, false, [2]float64{5, -5}, [2]float64{5, 5}),
	)
	g := n.Graph()

	start := g.NearestNode(Vec2{X: 0, Y: 0})
	end := g.NearestNode(Vec2{X: 5, Y: 5})
	crossing := g.NearestNode(Vec2{X: 5, Y: 0})

	path := g.FindPath(start, end)
	if len(path) == 0 {
		t.Fatal("no path across the crossing")
	}

	through := false
	for _, id := range path {
		if id == crossing {
			through = true
		}
	}
	if !through {
		t.Errorf("path %v does not pass through the crossing node %d", path, crossing)
	}
}

func TestEdgesSplitAtCrossing(t *testing.T) {
	n := testNetwork(
		road(1, geo.RoadResidential, false, [2]float64{0, 0}, [2]float64{10, 0}),
		road(2, geo.RoadResidential, false, [2]float64{5, -5}, [2]float64{5, 5}),
	)

	// Each road contributes two edges meeting at the crossing.
	edges := n.Graph().Edges()
	if len(edges) != 4 {
		t.Fatalf("edges = %d, want 4", len(edges))
	}
	for _, e := range edges {
		if math.Abs(e.Distance-5) > 0.01 {
			t.Errorf("edge distance = %f, want 5", e.Distance)
		}
	}
}

func TestSharedEndpointBecomesIntersection(t *testing.T) {
	n := testNetwork(
		road(1, geo.RoadPrimary, false, [2]float64{0, 0}, [2]float64{5, 0}),
		road(2, geo.RoadResidential, false, [2]float64{5, 0}, [2]float64{10, 0}),
	)

	xs := n.Intersections()
	if len(xs) != 1 {
		t.Fatalf("intersections = %d, want 1", len(xs))
	}
	if xs[0].Priority != RoadPriority(geo.RoadPrimary) {
		t.Errorf("priority = %d, want primary's %d", xs[0].Priority, RoadPriority(geo.RoadPrimary))
	}
}

func TestOnewayExcludesReverseTraversal(t *testing.T) {
	n := testNetwork(
		road(1, geo.RoadResidential, true, [2]float64{0, 0}, [2]float64{10, 0}),
	)
	g := n.Graph()

	start := g.NearestNode(Vec2{X: 0, Y: 0})
	end := g.NearestNode(Vec2{X: 10, Y: 0})

	if path := g.FindPath(start, end); len(path) == 0 {
		t.Error("forward traversal of a oneway road should work")
	}
	if path := g.FindPath(end, start); len(path) != 0 {
		t.Errorf("reverse traversal of a oneway road returned %v", path)
	}
}

func TestFastestPathPrefersHighSpeedDetour(t *testing.T) {
	// Direct slow road versus a longer motorway detour via (5, 5).
	n := testNetwork(
		road(1, geo.RoadResidential, false, [2]float64{0, 0}, [2]float64{10, 0}),
		road(2, geo.RoadMotorway, false, [2]float64{0, 0}, [2]float64{5, 5}),
		road(3, geo.RoadMotorway, false, [2]float64{5, 5}, [2]float64{10, 0}),
	)
	g := n.Graph()

	start := g.NearestNode(Vec2{X: 0, Y: 0})
	end := g.NearestNode(Vec2{X: 10, Y: 0})
	detour := g.NearestNode(Vec2{X: 5, Y: 5})

	shortest := g.FindPath(start, end)
	if len(shortest) != 2 {
		t.Errorf("shortest path = %v, want direct 2-node path", shortest)
	}

	fastest := g.FindFastestPath(start, end)
	if len(fastest) != 3 || fastest[1] != detour {
		t.Errorf("fastest path = %v, want detour through node %d", fastest, detour)
	}
}

func TestProcessRoadsSkipsDegenerate(t *testing.T) {
	n := NewNetwork(geo.Coordinate{}, 1, nil)
	n.SetTransform(flatTransform)

	count := n.ProcessRoads([]geo.Road{
		road(1, geo.RoadResidential, false, [2]float64{0, 0}, [2]float64{1, 0}),
		road(2, geo.RoadResidential, false, [2]float64{0, 0}),
	})
	if count != 1 {
		t.Errorf("ProcessRoads accepted %d, want 1", count)
	}
	if n.Road(2) != nil {
		t.Error("single-point road should not be stored")
	}
}

func TestProcessRoadsSimplifiesPolylines(t *testing.T) {
	collinear := road(1, geo.RoadResidential, false,
		[2]float64{0, 0}, [2]float64{2, 0}, [2]float64{5, 0}, [2]float64{7, 0}, [2]float64{10, 0})

	n := NewNetwork(geo.Coordinate{}, 1, nil)
	n.SetTransform(flatTransform)
	n.SetSimplifyTolerance(0.5)
	n.ProcessAll([]geo.Road{collinear})

	r := n.Road(1)
	if r == nil {
		t.Fatal("road missing")
	}
	if len(r.Points) != 2 {
		t.Errorf("simplified road has %d points, want 2 endpoints", len(r.Points))
	}
	if math.Abs(r.Length()-10) > 1e-9 {
		t.Errorf("length changed by simplification: %f", r.Length())
	}
}

func TestZeroSimplifyToleranceKeepsGeometry(t *testing.T) {
	n := testNetwork(
		road(1, geo.RoadResidential, false,
			[2]float64{0, 0}, [2]float64{5, 0}, [2]float64{10, 0}),
	)

	if r := n.Road(1); len(r.Points) != 3 {
		t.Errorf("road has %d points, want all 3 kept", len(r.Points))
	}
}

func TestNearestRoadQueries(t *testing.T) {
	n := testNetwork(
		road(1, geo.RoadResidential, false, [2]float64{0, 0}, [2]float64{10, 0}),
		road(2, geo.RoadResidential, false, [2]float64{0, 10}, [2]float64{10, 10}),
	)

	id, dist := n.NearestRoad(Vec2{X: 5, Y: 1})
	if id != 1 {
		t.Errorf("nearest road = %d, want 1", id)
	}
	if math.Abs(dist-1) > 1e-9 {
		t.Errorf("nearest distance = %f, want 1", dist)
	}

	p := n.NearestPointOnRoad(Vec2{X: 5, Y: 1})
	if math.Abs(p.X-5) > 1e-9 || math.Abs(p.Y) > 1e-9 {
		t.Errorf("nearest point = %+v, want (5, 0)", p)
	}

	if !n.OnRoad(Vec2{X: 5, Y: 0.05}, 0.1) {
		t.Error("point within tolerance should be on road")
	}
	if n.OnRoad(Vec2{X: 5, Y: 5}, 0.1) {
		t.Error("point far from roads should not be on road")
	}
}

func TestRoadsNearAndInBounds(t *testing.T) {
	n := testNetwork(
		road(1, geo.RoadResidential, false, [2]float64{0, 0}, [2]float64{10, 0}),
		road(2, geo.RoadResidential, false, [2]float64{0, 10}, [2]float64{10, 10}),
	)

	near := n.RoadsNear(Vec2{X: 0, Y: 1}, 2)
	if len(near) != 1 || near[0] != 1 {
		t.Errorf("RoadsNear = %v, want [1]", near)
	}

	in := n.RoadsInBounds(Vec2{X: -1, Y: -1}, Vec2{X: 11, Y: 11})
	if len(in) != 2 {
		t.Errorf("RoadsInBounds = %v, want both roads", in)
	}

	in = n.RoadsInBounds(Vec2{X: -1, Y: 5}, Vec2{X: 11, Y: 11})
	if len(in) != 1 || in[0] != 2 {
		t.Errorf("RoadsInBounds = %v, want [2]", in)
	}
}

func TestDefaultTransformScalesFromOrigin(t *testing.T) {
	origin := geo.Coordinate{Lat: 52.5, Lon: 13.4}
	transform := DefaultTransform(origin, 1)

	if p := transform(origin); p.X != 0 || p.Y != 0 {
		t.Errorf("origin maps to %+v, want (0, 0)", p)
	}

	// One degree north is ~110540 meters.
	p := transform(geo.Coordinate{Lat: 53.5, Lon: 13.4})
	if math.Abs(p.Y-110540) > 1 {
		t.Errorf("1 degree north = %f game units", p.Y)
	}
	if math.Abs(p.X) > 1e-6 {
		t.Errorf("pure northward move has X = %f", p.X)
	}
}

func TestSpeedLimitAndPriorityTables(t *testing.T) {
	if s := SpeedLimit(geo.RoadMotorway); s != 120 {
		t.Errorf("motorway speed = %f", s)
	}
	if s := SpeedLimit(geo.RoadFootway); s != 50 {
		t.Errorf("default speed = %f", s)
	}
	if p := RoadPriority(geo.RoadMotorway); p != 10 {
		t.Errorf("motorway priority = %d", p)
	}
	if p := RoadPriority(geo.RoadFootway); p != 1 {
		t.Errorf("default priority = %d", p)
	}
}

func TestClearResetsEverything(t *testing.T) {
	n := testNetwork(
		road(1, geo.RoadResidential, false, [2]float64{0, 0}, [2]float64{10, 0}),
	)
	n.Clear()

	if len(n.Roads()) != 0 || len(n.Segments()) != 0 || n.Graph().NodeCount() != 0 {
		t.Error("clear left residual state")
	}
}
