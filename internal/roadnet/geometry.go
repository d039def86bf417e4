package roadnet

// parallelEpsilon rejects near-parallel segment pairs in intersection tests.
const parallelEpsilon = 0.0001

// segmentIntersection reports whether segments a1-a2 and b1-b2 cross, and
// the crossing point when they do. Parallel and collinear pairs never cross.
func segmentIntersection(a1, a2, b1, b2 Vec2) (Vec2, bool) {
	r := a2.Sub(a1)
	s := b2.Sub(b1)

	rxs := r.Cross(s)
	if rxs > -parallelEpsilon && rxs < parallelEpsilon {
		return Vec2{}, false
	}

	qp := b1.Sub(a1)
	t := qp.Cross(s) / rxs
	u := qp.Cross(r) / rxs

	if t >= 0 && t <= 1 && u >= 0 && u <= 1 {
		return a1.Add(r.Scale(t)), true
	}
	return Vec2{}, false
}

// pointToSegmentDistance is the minimum distance from point to the segment
// between start and end.
func pointToSegmentDistance(point, start, end Vec2) float64 {
	v := end.Sub(start)
	w := point.Sub(start)

	c1 := w.Dot(v)
	if c1 <= 0 {
		return point.DistanceTo(start)
	}
	c2 := v.Dot(v)
	if c2 <= c1 {
		return point.DistanceTo(end)
	}

	return point.DistanceTo(start.Add(v.Scale(c1 / c2)))
}

// closestPointOnSegment projects point onto the segment, clamped to its ends.
// The second return is the parameter along the segment in [0, 1].
func closestPointOnSegment(point, start, end Vec2) (Vec2, float64) {
	v := end.Sub(start)
	denom := v.Dot(v)
	if denom == 0 {
		return start, 0
	}
	t := point.Sub(start).Dot(v) / denom
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return start.Add(v.Scale(t)), t
}

// SimplifyPolyline reduces a polyline with Douglas-Peucker: points farther
// than tolerance from the chord between kept neighbors are retained.
func SimplifyPolyline(points []Vec2, tolerance float64) []Vec2 {
	if len(points) < 3 {
		return points
	}

	keep := make([]bool, len(points))
	keep[0] = true
	keep[len(points)-1] = true

	type span struct{ start, end int }
	stack := []span{{0, len(points) - 1}}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.end <= s.start+1 {
			continue
		}

		p0 := points[s.start]
		line := points[s.end].Sub(p0)
		lineLen := line.Len()

		maxDist := 0.0
		maxIdx := s.start
		for i := s.start + 1; i < s.end; i++ {
			v := points[i].Sub(p0)
			var dist float64
			if lineLen > 0.001 {
				dist = v.Cross(line) / lineLen
				if dist < 0 {
					dist = -dist
				}
			} else {
				dist = v.Len()
			}
			if dist > maxDist {
				maxDist = dist
				maxIdx = i
			}
		}

		if maxDist > tolerance {
			keep[maxIdx] = true
			stack = append(stack, span{s.start, maxIdx}, span{maxIdx, s.end})
		}
	}

	result := make([]Vec2, 0, len(points))
	for i, p := range points {
		if keep[i] {
			result = append(result, p)
		}
	}
	return result
}
