package geometry

import (
	"fmt"

	"github.com/notargets/ncsubmesh/types"
)

// Geometry is the shape of an element, used as the key into the topology table
type Geometry uint8

const (
	Point Geometry = iota
	Segment
	Triangle
	Square
	Cube
	NumGeometries
)

func (g Geometry) String() string {
	return [...]string{"Point", "Segment", "Triangle", "Square", "Cube"}[g]
}

// MaxElemNodes and MaxElemChildren bound the fixed size node and child arrays
const (
	MaxElemNodes    = 8
	MaxElemChildren = 8
)

// Point3 is a position on the refinement lattice, in half edge units: vertices
// sit on even coordinates, the nodes created by one refinement on odd ones.
type Point3 [3]int

func (p Point3) mid(o Point3) Point3 {
	return Point3{(p[0] + o[0]) / 2, (p[1] + o[1]) / 2, (p[2] + o[2]) / 2}
}

// GeomInfo holds the static topology of a geometry. Faces use the padded four
// node form of types.FaceNodes: 2D elements have degenerate edge faces
// (a,a,b,b), segments have point faces (a,a,a,a).
type GeomInfo struct {
	Geom       Geometry
	Dim        int
	NV, NE, NF int
	Edges      [][2]int
	Faces      [][4]int
	Lattice    []Point3
	Children   [][]Point3
}

var table [NumGeometries]GeomInfo

func init() {
	table[Point] = GeomInfo{Geom: Point, Dim: 0, NV: 1, Lattice: []Point3{{0, 0, 0}}}
	table[Segment] = GeomInfo{
		Geom: Segment, Dim: 1, NV: 2, NE: 0, NF: 2,
		Faces:   [][4]int{{0, 0, 0, 0}, {1, 1, 1, 1}},
		Lattice: []Point3{{0, 0, 0}, {2, 0, 0}},
	}
	table[Triangle] = GeomInfo{
		Geom: Triangle, Dim: 2, NV: 3, NE: 3, NF: 3,
		Edges:   [][2]int{{0, 1}, {1, 2}, {2, 0}},
		Lattice: []Point3{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}},
	}
	table[Square] = GeomInfo{
		Geom: Square, Dim: 2, NV: 4, NE: 4, NF: 4,
		Edges:   [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}},
		Lattice: []Point3{{0, 0, 0}, {2, 0, 0}, {2, 2, 0}, {0, 2, 0}},
	}
	table[Cube] = GeomInfo{
		Geom: Cube, Dim: 3, NV: 8, NE: 12, NF: 6,
		Edges: [][2]int{
			{0, 1}, {1, 2}, {3, 2}, {0, 3}, {4, 5}, {5, 6},
			{7, 6}, {4, 7}, {0, 4}, {1, 5}, {2, 6}, {3, 7},
		},
		Faces: [][4]int{
			{3, 2, 1, 0}, {0, 1, 5, 4}, {1, 2, 6, 5},
			{2, 3, 7, 6}, {3, 0, 4, 7}, {4, 5, 6, 7},
		},
		Lattice: []Point3{
			{0, 0, 0}, {2, 0, 0}, {2, 2, 0}, {0, 2, 0},
			{0, 0, 2}, {2, 0, 2}, {2, 2, 2}, {0, 2, 2},
		},
	}
	for _, g := range []Geometry{Triangle, Square} {
		gi := &table[g]
		for _, e := range gi.Edges {
			gi.Faces = append(gi.Faces, [4]int{e[0], e[0], e[1], e[1]})
		}
	}
	for g := Segment; g < NumGeometries; g++ {
		gi := &table[g]
		// child k shrinks the parent toward vertex k
		for k := 0; k < gi.NV; k++ {
			child := make([]Point3, gi.NV)
			for j := 0; j < gi.NV; j++ {
				child[j] = gi.Lattice[k].mid(gi.Lattice[j])
			}
			gi.Children = append(gi.Children, child)
		}
		if g == Triangle {
			L := gi.Lattice
			gi.Children = append(gi.Children, []Point3{L[1].mid(L[2]), L[2].mid(L[0]), L[0].mid(L[1])})
		}
	}
}

func Info(g Geometry) *GeomInfo {
	if g >= NumGeometries {
		panic(fmt.Errorf("unknown geometry %d", g))
	}
	return &table[g]
}

// FaceGeometry recovers the geometry of a face from the pattern of its nodes
func FaceGeometry(fn types.FaceNodes) Geometry {
	switch {
	case fn.IsPoint():
		return Point
	case fn.IsTriangle():
		return Triangle
	}
	if fn[0] == fn[1] && fn[2] == fn[3] {
		return Segment
	}
	return Square
}

// NodeKind classifies a lattice position within a refined element
type NodeKind uint8

const (
	VertexNode NodeKind = iota
	EdgeNode
	FaceNode
	InteriorNode
)

// Classify maps a lattice position of a once refined element to what it
// represents: a vertex (index into Lattice), an edge midpoint (index into
// Edges), a quad face center (index into Faces) or the element interior.
func (gi *GeomInfo) Classify(p Point3) (kind NodeKind, index int) {
	for i, v := range gi.Lattice {
		if v == p {
			return VertexNode, i
		}
	}
	for i, e := range gi.Edges {
		if gi.Lattice[e[0]].mid(gi.Lattice[e[1]]) == p {
			return EdgeNode, i
		}
	}
	if gi.Dim == 3 {
		for i, f := range gi.Faces {
			a, c := gi.Lattice[f[0]], gi.Lattice[f[2]]
			if a.mid(c) == p {
				return FaceNode, i
			}
		}
	}
	return InteriorNode, 0
}
