package buildings

import (
	"github.com/vehement/geoworld/internal/roadnet"
)

// Vertex is one mesh vertex in game space, z up.
type Vertex struct {
	Position [3]float64
	Normal   [3]float64
	UV       [2]float64
}

// Mesh is an extruded building: wall quads around the outline plus a flat
// triangulated roof.
type Mesh struct {
	BuildingID int64
	Vertices   []Vertex
	Indices    []uint32
}

// Mesh extrudes the footprint into walls and a flat roof.
func (fp *Footprints) Mesh(f *Footprint) Mesh {
	mesh := Mesh{BuildingID: f.ID}
	fp.generateWalls(f, &mesh)
	fp.generateRoof(f, &mesh)
	return mesh
}

// MeshForID builds the mesh for a stored building, or an empty mesh for an
// unknown id.
func (fp *Footprints) MeshForID(id int64) Mesh {
	f := fp.Footprint(id)
	if f == nil {
		return Mesh{}
	}
	return fp.Mesh(f)
}

// CombinedMesh merges the meshes of every building overlapping the box into
// one vertex and index buffer.
func (fp *Footprints) CombinedMesh(min, max roadnet.Vec2) Mesh {
	var combined Mesh

	for _, id := range fp.InBounds(min, max) {
		f := fp.Footprint(id)
		if f == nil {
			continue
		}
		mesh := fp.Mesh(f)

		base := uint32(len(combined.Vertices))
		combined.Vertices = append(combined.Vertices, mesh.Vertices...)
		for _, idx := range mesh.Indices {
			combined.Indices = append(combined.Indices, base+idx)
		}
	}
	return combined
}

func (fp *Footprints) generateWalls(f *Footprint, mesh *Mesh) {
	baseZ := f.MinHeight
	topZ := f.MinHeight + f.Height
	n := len(f.Outline)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		p0, p1 := f.Outline[i], f.Outline[j]

		edge := p1.Sub(p0)
		edgeLen := edge.Len()
		normal := edge.Perp().Normalize()

		base := uint32(len(mesh.Vertices))
		wallN := [3]float64{normal.X, normal.Y, 0}
		wallH := (topZ - baseZ) / 3.0

		mesh.Vertices = append(mesh.Vertices,
			Vertex{Position: [3]float64{p0.X, p0.Y, baseZ}, Normal: wallN, UV: [2]float64{0, 0}},
			Vertex{Position: [3]float64{p1.X, p1.Y, baseZ}, Normal: wallN, UV: [2]float64{edgeLen / 5, 0}},
			Vertex{Position: [3]float64{p1.X, p1.Y, topZ}, Normal: wallN, UV: [2]float64{edgeLen / 5, wallH}},
			Vertex{Position: [3]float64{p0.X, p0.Y, topZ}, Normal: wallN, UV: [2]float64{0, wallH}},
		)
		mesh.Indices = append(mesh.Indices,
			base, base+1, base+2,
			base, base+2, base+3,
		)
	}
}

func (fp *Footprints) generateRoof(f *Footprint, mesh *Mesh) {
	topZ := f.MinHeight + f.Height
	roofIndices := Triangulate(f.Outline)

	base := uint32(len(mesh.Vertices))
	for _, p := range f.Outline {
		mesh.Vertices = append(mesh.Vertices, Vertex{
			Position: [3]float64{p.X, p.Y, topZ},
			Normal:   [3]float64{0, 0, 1},
			UV:       [2]float64{p.X / 10, p.Y / 10},
		})
	}
	for _, idx := range roofIndices {
		mesh.Indices = append(mesh.Indices, base+idx)
	}
}

// Triangulate decomposes a simple polygon into triangles by ear clipping and
// returns indices into the input. The outline must wind counter-clockwise;
// degenerate polygons yield a partial or empty result.
func Triangulate(polygon []roadnet.Vec2) []uint32 {
	if len(polygon) < 3 {
		return nil
	}

	remaining := make([]int, len(polygon))
	for i := range remaining {
		remaining[i] = i
	}

	var result []uint32

	for len(remaining) > 3 {
		earFound := false

		for i := 0; i < len(remaining); i++ {
			prev := (i + len(remaining) - 1) % len(remaining)
			next := (i + 1) % len(remaining)

			p0 := polygon[remaining[prev]]
			p1 := polygon[remaining[i]]
			p2 := polygon[remaining[next]]

			// Reflex corners cannot be ears.
			if p1.Sub(p0).Cross(p2.Sub(p0)) <= 0 {
				continue
			}

			isEar := true
			for j := 0; j < len(remaining); j++ {
				if j == prev || j == i || j == next {
					continue
				}
				if pointInTriangle(polygon[remaining[j]], p0, p1, p2) {
					isEar = false
					break
				}
			}

			if isEar {
				result = append(result,
					uint32(remaining[prev]),
					uint32(remaining[i]),
					uint32(remaining[next]),
				)
				remaining = append(remaining[:i], remaining[i+1:]...)
				earFound = true
				break
			}
		}

		if !earFound {
			break
		}
	}

	if len(remaining) == 3 {
		result = append(result,
			uint32(remaining[0]), uint32(remaining[1]), uint32(remaining[2]))
	}
	return result
}

func pointInTriangle(pt, a, b, c roadnet.Vec2) bool {
	sign := func(p1, p2, p3 roadnet.Vec2) float64 {
		return (p1.X-p3.X)*(p2.Y-p3.Y) - (p2.X-p3.X)*(p1.Y-p3.Y)
	}

	d1 := sign(pt, a, b)
	d2 := sign(pt, b, c)
	d3 := sign(pt, c, a)

	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// SimplifyOutline reduces near-collinear outline vertices while keeping the
// overall shape, for lower level-of-detail meshes.
func SimplifyOutline(polygon []roadnet.Vec2, tolerance float64) []roadnet.Vec2 {
	if len(polygon) < 4 {
		return polygon
	}

	result := []roadnet.Vec2{polygon[0]}
	for i := 1; i < len(polygon)-1; i++ {
		prev := result[len(result)-1]
		curr := polygon[i]
		next := polygon[i+1]

		v1 := curr.Sub(prev).Normalize()
		v2 := next.Sub(curr).Normalize()

		if v1.Dot(v2) < 0.99 || curr.DistanceTo(prev) > tolerance*5 {
			result = append(result, curr)
		}
	}
	result = append(result, polygon[len(polygon)-1])

	if len(result) < 3 {
		return polygon
	}
	return result
}
