package roadnet

import (
	"fmt"
	"math"
	"sort"

	"github.com/vehement/geoworld/internal/geo"
	"github.com/vehement/geoworld/pkg/logger"
)

// IntersectTolerance is the default distance, in game units, within which
// nearby intersection points are merged into one junction.
const IntersectTolerance = 0.1

// TransformFunc maps a geographic coordinate into game space.
type TransformFunc func(geo.Coordinate) Vec2

// DefaultTransform builds the flat-earth meter projection around an origin,
// scaled into game units. It matches the world query's GeoToGame mapping.
func DefaultTransform(origin geo.Coordinate, scale float64) TransformFunc {
	cosLat := math.Cos(origin.Lat * math.Pi / 180)
	return func(c geo.Coordinate) Vec2 {
		dx := (c.Lon - origin.Lon) * cosLat * 111320.0
		dy := (c.Lat - origin.Lat) * 110540.0
		return Vec2{X: dx * scale, Y: dy * scale}
	}
}

// Segment is one consecutive point pair of a road, with its metadata copied
// down for mesh generation and spatial queries.
type Segment struct {
	RoadID int64
	Index  int
	Start  Vec2
	End    Vec2
	Type   geo.RoadType
	Width  float64
	Lanes  int
	Oneway bool
	Bridge bool
	Tunnel bool
	Layer  int
}

func (s Segment) Length() float64 { return s.End.Sub(s.Start).Len() }
func (s Segment) Dir() Vec2       { return s.End.Sub(s.Start).Normalize() }
func (s Segment) Perp() Vec2      { return s.Dir().Perp() }
func (s Segment) Midpoint() Vec2  { return s.Start.Add(s.End).Scale(0.5) }

// ProcessedRoad is a road transformed into game space.
type ProcessedRoad struct {
	ID       int64
	Name     string
	Ref      string
	Type     geo.RoadType
	Surface  geo.RoadSurface
	Points   []Vec2
	Width    float64
	Lanes    int
	Oneway   bool
	Bridge   bool
	Tunnel   bool
	Layer    int
	Segments []Segment
}

func (r *ProcessedRoad) Length() float64 {
	total := 0.0
	for i := 0; i+1 < len(r.Points); i++ {
		total += r.Points[i].DistanceTo(r.Points[i+1])
	}
	return total
}

func (r *ProcessedRoad) Bounds() (min, max Vec2) {
	if len(r.Points) == 0 {
		return Vec2{}, Vec2{}
	}
	min, max = r.Points[0], r.Points[0]
	for _, p := range r.Points[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}

// Intersection is a junction where two or more roads meet or cross.
type Intersection struct {
	ID             int64
	Position       Vec2
	ConnectedRoads []int64
	SegmentIndices []int
	TrafficLight   bool
	StopSign       bool
	Roundabout     bool
	// Priority is the highest priority among connected roads; yield
	// resolution at ungoverned junctions is left to the consumer.
	Priority int
}

func (x *Intersection) Degree() int { return len(x.ConnectedRoads) }

func (x *Intersection) connect(roadID int64, segIdx int) {
	for i, id := range x.ConnectedRoads {
		if id == roadID && x.SegmentIndices[i] == segIdx {
			return
		}
	}
	x.ConnectedRoads = append(x.ConnectedRoads, roadID)
	x.SegmentIndices = append(x.SegmentIndices, segIdx)
}

// Network turns raw roads into game-space geometry, junctions, and a
// routable graph. Processing methods are not safe for concurrent use;
// queries are safe once processing is complete.
type Network struct {
	transform TransformFunc
	scale     float64
	tolerance float64
	simplify  float64

	roads         []ProcessedRoad
	roadIndex     map[int64]int
	segments      []Segment
	intersections []Intersection
	graph         *Graph

	logger logger.Logger
}

func NewNetwork(origin geo.Coordinate, scale float64, l logger.Logger) *Network {
	if l == nil {
		l = logger.NewNop()
	}
	if scale <= 0 {
		scale = 1
	}
	return &Network{
		transform: DefaultTransform(origin, scale),
		scale:     scale,
		tolerance: IntersectTolerance,
		roadIndex: make(map[int64]int),
		graph:     NewGraph(),
		logger:    l,
	}
}

// SetTransform replaces the coordinate mapping. Call before ProcessRoads.
func (n *Network) SetTransform(t TransformFunc) {
	if t != nil {
		n.transform = t
	}
}

// SetIntersectTolerance adjusts the junction merge distance in game units.
func (n *Network) SetIntersectTolerance(tol float64) {
	if tol > 0 {
		n.tolerance = tol
	}
}

// SetSimplifyTolerance enables polyline simplification during processing.
// Zero leaves road geometry untouched.
func (n *Network) SetSimplifyTolerance(tol float64) {
	n.simplify = tol
}

// ProcessAll runs the full pipeline over a fresh road set.
func (n *Network) ProcessAll(roads []geo.Road) {
	n.Clear()
	n.ProcessRoads(roads)
	n.BuildSegments()
	n.BuildIntersections()
	n.BuildGraph()

	n.logger.Debug("road network built",
		"roads", len(n.roads),
		"segments", len(n.segments),
		"intersections", len(n.intersections),
		"nodes", n.graph.NodeCount())
}

// ProcessRoads transforms roads into game space. Roads with fewer than two
// points are skipped. Returns the number of roads accepted.
func (n *Network) ProcessRoads(roads []geo.Road) int {
	count := 0
	for i := range roads {
		if n.processRoad(&roads[i]) {
			count++
		}
	}
	return count
}

func (n *Network) processRoad(road *geo.Road) bool {
	if len(road.Points) < 2 {
		return false
	}

	processed := ProcessedRoad{
		ID:      road.ID,
		Name:    road.Name,
		Ref:     road.Ref,
		Type:    road.Type,
		Surface: road.Surface,
		Width:   road.EffectiveWidth() * n.scale,
		Lanes:   road.EffectiveLanes(),
		Oneway:  road.Oneway,
		Bridge:  road.Bridge,
		Tunnel:  road.Tunnel,
		Layer:   road.Layer,
	}

	processed.Points = make([]Vec2, len(road.Points))
	for i, p := range road.Points {
		processed.Points[i] = n.transform(p)
	}
	if n.simplify > 0 {
		processed.Points = SimplifyPolyline(processed.Points, n.simplify)
	}

	n.roadIndex[processed.ID] = len(n.roads)
	n.roads = append(n.roads, processed)
	return true
}

// BuildSegments derives the per-road segment lists and the flat segment set.
func (n *Network) BuildSegments() {
	n.segments = n.segments[:0]

	for ri := range n.roads {
		road := &n.roads[ri]
		road.Segments = road.Segments[:0]

		for i := 0; i+1 < len(road.Points); i++ {
			seg := Segment{
				RoadID: road.ID,
				Index:  i,
				Start:  road.Points[i],
				End:    road.Points[i+1],
				Type:   road.Type,
				Width:  road.Width,
				Lanes:  road.Lanes,
				Oneway: road.Oneway,
				Bridge: road.Bridge,
				Tunnel: road.Tunnel,
				Layer:  road.Layer,
			}
			road.Segments = append(road.Segments, seg)
			n.segments = append(n.segments, seg)
		}
	}
}

// bucketKey snaps a point to the merge grid. The grid cell matches the
// intersection tolerance so nearby points land in the same bucket.
func (n *Network) bucketKey(p Vec2) string {
	x := int(math.Round(p.X / n.tolerance))
	y := int(math.Round(p.Y / n.tolerance))
	return fmt.Sprintf("%d_%d", x, y)
}

// BuildIntersections finds junctions two ways: shared road endpoints, and
// mid-segment crossings from pairwise segment intersection tests across
// different roads. The pairwise pass is quadratic in segments, which is
// acceptable at single-tile scope.
func (n *Network) BuildIntersections() {
	n.intersections = n.intersections[:0]

	byBucket := make(map[string]*Intersection)
	nextID := int64(1)

	at := func(p Vec2) *Intersection {
		key := n.bucketKey(p)
		x, ok := byBucket[key]
		if !ok {
			x = &Intersection{ID: nextID, Position: p}
			nextID++
			byBucket[key] = x
		}
		return x
	}

	// Shared endpoints.
	for ri := range n.roads {
		road := &n.roads[ri]
		if len(road.Points) == 0 {
			continue
		}
		at(road.Points[0]).connect(road.ID, 0)
		lastSeg := len(road.Segments) - 1
		if lastSeg < 0 {
			lastSeg = 0
		}
		at(road.Points[len(road.Points)-1]).connect(road.ID, lastSeg)
	}

	// Mid-segment crossings.
	for i := 0; i < len(n.segments); i++ {
		for j := i + 1; j < len(n.segments); j++ {
			a, b := &n.segments[i], &n.segments[j]
			if a.RoadID == b.RoadID {
				continue
			}
			point, ok := segmentIntersection(a.Start, a.End, b.Start, b.End)
			if !ok {
				continue
			}
			x := at(point)
			x.connect(a.RoadID, a.Index)
			x.connect(b.RoadID, b.Index)
		}
	}

	// Only junctions with more than one connection are real intersections.
	for _, x := range byBucket {
		if x.Degree() < 2 {
			continue
		}

		maxPriority := 0
		for _, roadID := range x.ConnectedRoads {
			if road := n.Road(roadID); road != nil {
				if p := RoadPriority(road.Type); p > maxPriority {
					maxPriority = p
				}
			}
		}
		x.Priority = maxPriority

		n.intersections = append(n.intersections, *x)
	}

	sort.Slice(n.intersections, func(i, j int) bool {
		return n.intersections[i].ID < n.intersections[j].ID
	})
}

// roadCut marks a graph node's position along a road's polyline.
type roadCut struct {
	chainPos float64
	nodeID   int64
}

// BuildGraph collapses intersections and uncovered road endpoints into graph
// nodes and creates one edge per maximal stretch between consecutive nodes
// along each road, with distance summed along the polyline.
func (n *Network) BuildGraph() {
	n.graph.Clear()

	nextNodeID := int64(1)
	pointToNode := make(map[string]int64)

	for i := range n.intersections {
		x := &n.intersections[i]
		n.graph.AddNode(x.ID, x.Position)
		pointToNode[n.bucketKey(x.Position)] = x.ID
		if x.ID >= nextNodeID {
			nextNodeID = x.ID + 1
		}
	}

	nodeAt := func(p Vec2) int64 {
		key := n.bucketKey(p)
		if id, ok := pointToNode[key]; ok {
			return id
		}
		id := nextNodeID
		nextNodeID++
		n.graph.AddNode(id, p)
		pointToNode[key] = id
		return id
	}

	// Intersections touching each road, for mid-road edge splits.
	touching := make(map[int64][]*Intersection)
	for i := range n.intersections {
		x := &n.intersections[i]
		seen := make(map[int64]bool)
		for _, roadID := range x.ConnectedRoads {
			if !seen[roadID] {
				seen[roadID] = true
				touching[roadID] = append(touching[roadID], x)
			}
		}
	}

	for ri := range n.roads {
		road := &n.roads[ri]
		if len(road.Points) < 2 {
			continue
		}

		// Cumulative length at each point.
		prefix := make([]float64, len(road.Points))
		for i := 1; i < len(road.Points); i++ {
			prefix[i] = prefix[i-1] + road.Points[i-1].DistanceTo(road.Points[i])
		}
		total := prefix[len(prefix)-1]

		cuts := []roadCut{
			{chainPos: 0, nodeID: nodeAt(road.Points[0])},
			{chainPos: total, nodeID: nodeAt(road.Points[len(road.Points)-1])},
		}

		for _, x := range touching[road.ID] {
			segIdx, t := n.locateOnRoad(road, x.Position)
			if segIdx < 0 {
				continue
			}
			segLen := road.Segments[segIdx].Length()
			cuts = append(cuts, roadCut{
				chainPos: prefix[segIdx] + t*segLen,
				nodeID:   x.ID,
			})
		}

		sort.Slice(cuts, func(i, j int) bool { return cuts[i].chainPos < cuts[j].chainPos })

		prev := cuts[0]
		for _, cut := range cuts[1:] {
			if cut.nodeID == prev.nodeID || cut.chainPos-prev.chainPos < n.tolerance {
				continue
			}
			n.graph.AddEdge(Edge{
				From:       prev.nodeID,
				To:         cut.nodeID,
				RoadID:     road.ID,
				Distance:   cut.chainPos - prev.chainPos,
				SpeedLimit: SpeedLimit(road.Type),
				Oneway:     road.Oneway,
				Type:       road.Type,
			})
			prev = cut
		}
	}
}

// locateOnRoad finds the segment index and parameter of the point on the
// road's polyline nearest to p.
func (n *Network) locateOnRoad(road *ProcessedRoad, p Vec2) (int, float64) {
	bestIdx := -1
	bestT := 0.0
	bestDist := math.MaxFloat64

	for i := range road.Segments {
		seg := &road.Segments[i]
		closest, t := closestPointOnSegment(p, seg.Start, seg.End)
		dist := p.DistanceTo(closest)
		if dist < bestDist {
			bestDist = dist
			bestIdx = i
			bestT = t
		}
	}
	return bestIdx, bestT
}

func (n *Network) Clear() {
	n.roads = n.roads[:0]
	n.roadIndex = make(map[int64]int)
	n.segments = n.segments[:0]
	n.intersections = n.intersections[:0]
	n.graph.Clear()
}

func (n *Network) Roads() []ProcessedRoad        { return n.roads }
func (n *Network) Segments() []Segment           { return n.segments }
func (n *Network) Intersections() []Intersection { return n.intersections }
func (n *Network) Graph() *Graph                 { return n.graph }

func (n *Network) Road(id int64) *ProcessedRoad {
	if idx, ok := n.roadIndex[id]; ok && idx < len(n.roads) {
		return &n.roads[idx]
	}
	return nil
}

// RoadsNear lists roads with any point within radius of the position.
func (n *Network) RoadsNear(point Vec2, radius float64) []int64 {
	radiusSq := radius * radius
	var result []int64

	for ri := range n.roads {
		road := &n.roads[ri]
		for _, p := range road.Points {
			if p.Sub(point).LenSq() <= radiusSq {
				result = append(result, road.ID)
				break
			}
		}
	}
	return result
}

// NearestRoad returns the road whose geometry is closest to the point and
// the distance to it. Returns -1 when the network is empty.
func (n *Network) NearestRoad(point Vec2) (int64, float64) {
	nearestID := int64(-1)
	nearestDist := math.MaxFloat64

	for ri := range n.roads {
		road := &n.roads[ri]
		for i := 0; i+1 < len(road.Points); i++ {
			dist := pointToSegmentDistance(point, road.Points[i], road.Points[i+1])
			if dist < nearestDist {
				nearestDist = dist
				nearestID = road.ID
			}
		}
	}
	return nearestID, nearestDist
}

// NearestPointOnRoad projects the point onto the closest road geometry.
// With no roads loaded the point itself is returned.
func (n *Network) NearestPointOnRoad(point Vec2) Vec2 {
	nearest := point
	nearestDist := math.MaxFloat64

	for ri := range n.roads {
		road := &n.roads[ri]
		for i := 0; i+1 < len(road.Points); i++ {
			closest, _ := closestPointOnSegment(point, road.Points[i], road.Points[i+1])
			dist := point.DistanceTo(closest)
			if dist < nearestDist {
				nearestDist = dist
				nearest = closest
			}
		}
	}
	return nearest
}

// OnRoad reports whether the point lies within tolerance of any road.
func (n *Network) OnRoad(point Vec2, tolerance float64) bool {
	id, dist := n.NearestRoad(point)
	return id >= 0 && dist <= tolerance
}

// RoadsInBounds lists roads whose bounding box overlaps the given box.
func (n *Network) RoadsInBounds(min, max Vec2) []int64 {
	var result []int64
	for ri := range n.roads {
		road := &n.roads[ri]
		rMin, rMax := road.Bounds()
		if rMax.X >= min.X && rMin.X <= max.X && rMax.Y >= min.Y && rMin.Y <= max.Y {
			result = append(result, road.ID)
		}
	}
	return result
}

// RoadPriority ranks road types for junction yield resolution; higher wins.
func RoadPriority(t geo.RoadType) int {
	switch t {
	case geo.RoadMotorway, geo.RoadMotorwayLink:
		return 10
	case geo.RoadTrunk, geo.RoadTrunkLink:
		return 9
	case geo.RoadPrimary, geo.RoadPrimaryLink:
		return 8
	case geo.RoadSecondary, geo.RoadSecondaryLink:
		return 7
	case geo.RoadTertiary, geo.RoadTertiaryLink:
		return 6
	case geo.RoadResidential:
		return 5
	case geo.RoadUnclassified:
		return 4
	case geo.RoadService:
		return 3
	case geo.RoadLivingStreet:
		return 2
	default:
		return 1
	}
}

// SpeedLimit is the assumed speed in km/h for a road type without explicit
// signage.
func SpeedLimit(t geo.RoadType) float64 {
	switch t {
	case geo.RoadMotorway:
		return 120
	case geo.RoadTrunk:
		return 100
	case geo.RoadPrimary:
		return 80
	case geo.RoadSecondary:
		return 60
	case geo.RoadTertiary:
		return 50
	case geo.RoadResidential, geo.RoadLivingStreet:
		return 30
	case geo.RoadService:
		return 20
	default:
		return 50
	}
}
