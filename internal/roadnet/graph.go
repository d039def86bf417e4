package roadnet

import (
	"container/heap"
	"math"

	"github.com/vehement/geoworld/internal/geo"
)

// Node is a graph junction: an intersection or a road endpoint.
type Node struct {
	ID        int64
	Position  Vec2
	Neighbors []Neighbor
}

// Neighbor is one traversable connection out of a node.
type Neighbor struct {
	To         int64
	Distance   float64
	SpeedLimit float64
}

// Edge connects two nodes along a stretch of road. Non-oneway edges are
// traversable in both directions even though only one direction is stored.
type Edge struct {
	From       int64
	To         int64
	RoadID     int64
	Distance   float64
	SpeedLimit float64
	Oneway     bool
	Type       geo.RoadType
}

// Graph is the routable road graph. Build it through RoadNetwork; once built
// it is safe for concurrent reads.
type Graph struct {
	nodes map[int64]*Node
	edges []Edge
}

func NewGraph() *Graph {
	return &Graph{nodes: make(map[int64]*Node)}
}

func (g *Graph) AddNode(id int64, pos Vec2) {
	g.nodes[id] = &Node{ID: id, Position: pos}
}

// AddEdge records the edge and wires the adjacency lists. The reverse
// direction is added unless the edge is oneway.
func (g *Graph) AddEdge(e Edge) {
	g.edges = append(g.edges, e)

	if from, ok := g.nodes[e.From]; ok {
		from.Neighbors = append(from.Neighbors, Neighbor{
			To: e.To, Distance: e.Distance, SpeedLimit: e.SpeedLimit,
		})
	}
	if !e.Oneway {
		if to, ok := g.nodes[e.To]; ok {
			to.Neighbors = append(to.Neighbors, Neighbor{
				To: e.From, Distance: e.Distance, SpeedLimit: e.SpeedLimit,
			})
		}
	}
}

func (g *Graph) Node(id int64) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

func (g *Graph) NodeCount() int { return len(g.nodes) }
func (g *Graph) Edges() []Edge  { return g.edges }

// NearestNode returns the node closest to the position, -1 when the graph is
// empty. Distance ties go to the lower node id.
func (g *Graph) NearestNode(pos Vec2) int64 {
	nearestID := int64(-1)
	nearestDist := math.MaxFloat64

	for id, node := range g.nodes {
		dist := node.Position.DistanceTo(pos)
		if dist < nearestDist || (dist == nearestDist && id < nearestID) {
			nearestDist = dist
			nearestID = id
		}
	}
	return nearestID
}

// FindPath returns the shortest path by distance between two nodes as a node
// id sequence including both endpoints. An empty slice means no path exists.
func (g *Graph) FindPath(start, end int64) []int64 {
	return g.dijkstra(start, end, func(n Neighbor) float64 {
		return n.Distance
	})
}

// FindFastestPath minimizes travel time instead of distance, weighting each
// edge by distance over its speed limit.
func (g *Graph) FindFastestPath(start, end int64) []int64 {
	return g.dijkstra(start, end, func(n Neighbor) float64 {
		if n.SpeedLimit <= 0 {
			return n.Distance
		}
		return n.Distance / n.SpeedLimit
	})
}

type pqItem struct {
	node int64
	cost float64
	seq  int
}

// pqueue is a min-heap on cost with insertion order as tie-break, which keeps
// path results deterministic.
type pqueue []pqItem

func (q pqueue) Len() int { return len(q) }
func (q pqueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].seq < q[j].seq
}
func (q pqueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *pqueue) Push(x any)        { *q = append(*q, x.(pqItem)) }
func (q *pqueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

func (g *Graph) dijkstra(start, end int64, weight func(Neighbor) float64) []int64 {
	if _, ok := g.nodes[start]; !ok {
		return nil
	}
	if _, ok := g.nodes[end]; !ok {
		return nil
	}

	dist := make(map[int64]float64, len(g.nodes))
	prev := make(map[int64]int64)
	dist[start] = 0

	seq := 0
	pq := pqueue{{node: start, cost: 0, seq: seq}}
	heap.Init(&pq)

	for pq.Len() > 0 {
		item := heap.Pop(&pq).(pqItem)
		u := item.node
		if u == end {
			break
		}
		if item.cost > dist[u] {
			continue
		}

		for _, nb := range g.nodes[u].Neighbors {
			alt := dist[u] + weight(nb)
			if cur, seen := dist[nb.To]; !seen || alt < cur {
				dist[nb.To] = alt
				prev[nb.To] = u
				seq++
				heap.Push(&pq, pqItem{node: nb.To, cost: alt, seq: seq})
			}
		}
	}

	if _, reached := dist[end]; !reached {
		return nil
	}

	var path []int64
	for current := end; current != start; current = prev[current] {
		path = append(path, current)
	}
	path = append(path, start)

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathLength sums the straight-line hops of a node path, for diagnostics.
func (g *Graph) PathLength(path []int64) float64 {
	total := 0.0
	for i := 0; i+1 < len(path); i++ {
		a, okA := g.nodes[path[i]]
		b, okB := g.nodes[path[i+1]]
		if okA && okB {
			total += a.Position.DistanceTo(b.Position)
		}
	}
	return total
}

func (g *Graph) Clear() {
	g.nodes = make(map[int64]*Node)
	g.edges = nil
}
