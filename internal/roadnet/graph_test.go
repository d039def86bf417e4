package roadnet

import (
	"testing"

	"github.com/vehement/geoworld/internal/geo"
)

func lineGraph(oneway bool) *Graph {
	g := NewGraph()
	g.AddNode(1, Vec2{0, 0})
	g.AddNode(2, Vec2{10, 0})
	g.AddNode(3, Vec2{20, 0})
	g.AddEdge(Edge{From: 1, To: 2, RoadID: 1, Distance: 10, SpeedLimit: 50, Oneway: oneway, Type: geo.RoadResidential})
	g.AddEdge(Edge{From: 2, To: 3, RoadID: 1, Distance: 10, SpeedLimit: 50, Oneway: oneway, Type: geo.RoadResidential})
	return g
}

func TestFindPathAlongLine(t *testing.T) {
	g := lineGraph(false)

	path := g.FindPath(1, 3)
	if len(path) != 3 || path[0] != 1 || path[1] != 2 || path[2] != 3 {
		t.Errorf("path = %v, want [1 2 3]", path)
	}

	// Undirected edges work backwards too.
	path = g.FindPath(3, 1)
	if len(path) != 3 || path[0] != 3 || path[2] != 1 {
		t.Errorf("reverse path = %v, want [3 2 1]", path)
	}
}

func TestFindPathSameNode(t *testing.T) {
	g := lineGraph(false)
	if path := g.FindPath(2, 2); len(path) != 1 || path[0] != 2 {
		t.Errorf("path to self = %v, want [2]", path)
	}
}

func TestFindPathUnreachable(t *testing.T) {
	g := lineGraph(false)
	g.AddNode(99, Vec2{100, 100})

	if path := g.FindPath(1, 99); len(path) != 0 {
		t.Errorf("path to isolated node = %v, want empty", path)
	}
}

func TestFindPathUnknownNodes(t *testing.T) {
	g := lineGraph(false)
	if path := g.FindPath(1, 42); path != nil {
		t.Errorf("path to unknown node = %v", path)
	}
	if path := g.FindPath(42, 1); path != nil {
		t.Errorf("path from unknown node = %v", path)
	}
}

func TestFindPathPicksShorterBranch(t *testing.T) {
	g := NewGraph()
	g.AddNode(1, Vec2{0, 0})
	g.AddNode(2, Vec2{10, 0})
	g.AddNode(3, Vec2{5, 8})
	g.AddEdge(Edge{From: 1, To: 2, Distance: 10, SpeedLimit: 50})
	g.AddEdge(Edge{From: 1, To: 3, Distance: 9, SpeedLimit: 50})
	g.AddEdge(Edge{From: 3, To: 2, Distance: 9, SpeedLimit: 50})

	path := g.FindPath(1, 2)
	if len(path) != 2 {
		t.Errorf("path = %v, want direct [1 2]", path)
	}
}

func TestNearestNode(t *testing.T) {
	g := lineGraph(false)

	if id := g.NearestNode(Vec2{11, 1}); id != 2 {
		t.Errorf("nearest = %d, want 2", id)
	}
	if id := NewGraph().NearestNode(Vec2{}); id != -1 {
		t.Errorf("nearest in empty graph = %d, want -1", id)
	}
}

func TestNodeLookup(t *testing.T) {
	g := lineGraph(false)

	node, ok := g.Node(2)
	if !ok {
		t.Fatal("node 2 should exist")
	}
	// Bidirectional edges give the middle node two neighbors.
	if len(node.Neighbors) != 2 {
		t.Errorf("neighbors = %d, want 2", len(node.Neighbors))
	}

	if _, ok := g.Node(42); ok {
		t.Error("unknown node lookup should fail")
	}
}

func TestOnewayAdjacency(t *testing.T) {
	g := lineGraph(true)

	node, _ := g.Node(2)
	if len(node.Neighbors) != 1 || node.Neighbors[0].To != 3 {
		t.Errorf("oneway middle node neighbors = %+v", node.Neighbors)
	}
}

func TestPathLength(t *testing.T) {
	g := lineGraph(false)
	if l := g.PathLength([]int64{1, 2, 3}); l != 20 {
		t.Errorf("path length = %f, want 20", l)
	}
	if l := g.PathLength(nil); l != 0 {
		t.Errorf("empty path length = %f", l)
	}
}

func TestGraphClear(t *testing.T) {
	g := lineGraph(false)
	g.Clear()
	if g.NodeCount() != 0 || len(g.Edges()) != 0 {
		t.Error("clear left residual state")
	}
}
