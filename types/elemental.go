package types

import (
	"fmt"
	"math"
	"sort"
)

/*
EdgeKey is an always positive number that stores a node pair as indices in a way that can be compared
A pair of nodes [4] and [0] will always be stored as [0,4], in the ascending order of the index values
*/
type EdgeKey uint64

func NewEdgeKey(verts [2]int) (packed EdgeKey) {
	// This packs two index coordinates into two 32 bit unsigned integers to act as a hash and an indirect access method
	var (
		limit = math.MaxUint32
	)
	for _, vert := range verts {
		if vert < 0 || vert > limit {
			panic(fmt.Errorf("unable to pack two ints into a uint64, have %d and %d as inputs",
				verts[0], verts[1]))
		}
	}
	var i1, i2 int
	if verts[0] <= verts[1] {
		i1, i2 = verts[0], verts[1]
	} else {
		i1, i2 = verts[1], verts[0]
	}
	packed = EdgeKey(i1 + i2<<32)
	return
}

func (ek EdgeKey) GetVertices(rev bool) (verts [2]int) {
	var (
		enTmp EdgeKey
	)
	enTmp = ek >> 32
	verts[1] = int(enTmp)
	verts[0] = int(ek - enTmp*(1<<32))
	if rev {
		verts[0], verts[1] = verts[1], verts[0]
	}
	return
}

// MaxFaceNodes is the size of a face node tuple. Triangles carry -1 in the
// last slot, 2D faces (edges) are stored degenerate as (a,a,b,b) and 1D faces
// (points) as (a,a,a,a).
const MaxFaceNodes = 4

/*
FaceNodes stores the nodes of a face in the order they were discovered, so that the orientation can be recovered.
FaceKey is the sorted, orientation-free form used to identify a face regardless of the direction it is seen from.
*/
type FaceNodes [MaxFaceNodes]int

type FaceKey [MaxFaceNodes]int

func NewFaceNodes(a, b, c, d int) FaceNodes { return FaceNodes{a, b, c, d} }

func (fn FaceNodes) Key() (fk FaceKey) {
	fk = FaceKey(fn)
	sort.Ints(fk[:])
	return
}

// Less is the lexicographic order on the tuple as stored.
func (fn FaceNodes) Less(o FaceNodes) bool {
	for i := 0; i < MaxFaceNodes; i++ {
		if fn[i] != o[i] {
			return fn[i] < o[i]
		}
	}
	return false
}

func (fk FaceKey) Less(o FaceKey) bool {
	return FaceNodes(fk).Less(FaceNodes(o))
}

func (fn FaceNodes) IsTriangle() bool { return fn[3] == -1 }

func (fn FaceNodes) IsSegment() bool {
	return fn[3] != -1 && fn[0] == fn[1] && fn[2] == fn[3] && fn[0] != fn[2]
}

func (fn FaceNodes) IsPoint() bool {
	return fn[0] == fn[1] && fn[1] == fn[2] && fn[2] == fn[3]
}

// Vertices collapses the degenerate storage forms into the distinct corner nodes
func (fn FaceNodes) Vertices() []int {
	switch {
	case fn.IsPoint():
		return []int{fn[0]}
	case fn.IsTriangle():
		return []int{fn[0], fn[1], fn[2]}
	case fn.IsSegment():
		return []int{fn[0], fn[2]}
	default:
		return []int{fn[0], fn[1], fn[2], fn[3]}
	}
}

// FaceNodesFromVertices is the inverse of Vertices
func FaceNodesFromVertices(v []int) FaceNodes {
	switch len(v) {
	case 1:
		return FaceNodes{v[0], v[0], v[0], v[0]}
	case 2:
		return FaceNodes{v[0], v[0], v[1], v[1]}
	case 3:
		return FaceNodes{v[0], v[1], v[2], -1}
	case 4:
		return FaceNodes{v[0], v[1], v[2], v[3]}
	}
	panic(fmt.Errorf("a face has 1 to 4 vertices, have %d", len(v)))
}

func (fn FaceNodes) String() string {
	return fmt.Sprintf("(%d %d %d %d)", fn[0], fn[1], fn[2], fn[3])
}
