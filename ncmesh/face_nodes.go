package ncmesh

import (
	"fmt"

	"github.com/notargets/ncsubmesh/geometry"
	"github.com/notargets/ncsubmesh/types"
)

// FindFaceNodes returns the nodes of a face in the orientation its first
// adjacent element sees it
func (nc *NCMesh) FindFaceNodes(id int) types.FaceNodes {
	f := nc.Faces.At(id)
	elem := f.Elem[0]
	if elem < 0 {
		elem = f.Elem[1]
	}
	if elem < 0 {
		panic(fmt.Errorf("face %d has no element", id))
	}
	key := nc.Faces.Nodes(id).Key()
	for lf := range geometry.Info(nc.Elements[elem].Geom).Faces {
		if fn := nc.ElementFaceNodes(elem, lf); fn.Key() == key {
			return fn
		}
	}
	panic(fmt.Errorf("face %d is not a face of its element %d", id, elem))
}

// otherParent returns the parent of node n that is not p, -1 when p is not a
// parent of n or n is a top level vertex
func (nc *NCMesh) otherParent(n, p int) int {
	if n < 0 || p < 0 || n >= nc.Nodes.Size() {
		return -1
	}
	node := nc.Nodes.At(n)
	if node.IsTopLevel(n) {
		return -1
	}
	return node.OtherParent(p)
}

// ParentFaceNodes replaces fn with the next coarser face containing it and
// returns the child slot fn occupies in that face: the child in slot k holds
// the coarse vertex k at position k, slot 3 of a triangle is the central
// child. A face with no coarser face is left alone and -1 returned.
func (nc *NCMesh) ParentFaceNodes(fn *types.FaceNodes) int {
	switch {
	case fn.IsPoint():
		return -1
	case fn.IsSegment():
		return nc.parentSegment(fn)
	case fn.IsTriangle():
		return nc.parentTriangle(fn)
	}
	return nc.parentQuad(fn)
}

func (nc *NCMesh) parentSegment(fn *types.FaceNodes) int {
	a, b := fn[0], fn[2]
	if x := nc.otherParent(b, a); x >= 0 {
		*fn = types.NewFaceNodes(a, a, x, x)
		return 0
	}
	if x := nc.otherParent(a, b); x >= 0 {
		*fn = types.NewFaceNodes(x, x, b, b)
		return 1
	}
	return -1
}

func (nc *NCMesh) parentQuad(fn *types.FaceNodes) int {
	n := *fn
	for k := 0; k < 4; k++ {
		var (
			k1, k2, k3 = (k + 1) % 4, (k + 2) % 4, (k + 3) % 4
			v1         = nc.otherParent(n[k1], n[k])
			v3         = nc.otherParent(n[k3], n[k])
		)
		if v1 < 0 || v3 < 0 {
			continue
		}
		// The center is the midpoint of one of the two pairs of opposite edge midpoints
		v2 := -1
		if q := nc.otherParent(n[k2], n[k1]); q >= 0 {
			v2 = nc.otherParent(q, v3)
		}
		if v2 < 0 {
			if q := nc.otherParent(n[k2], n[k3]); q >= 0 {
				v2 = nc.otherParent(q, v1)
			}
		}
		if v2 < 0 {
			continue
		}
		var p types.FaceNodes
		p[k], p[k1], p[k2], p[k3] = n[k], v1, v2, v3
		*fn = p
		return k
	}
	return -1
}

func (nc *NCMesh) commonParent(a, b int) int {
	if a < 0 || b < 0 {
		return -1
	}
	na, nb := nc.Nodes.At(a), nc.Nodes.At(b)
	if na.IsTopLevel(a) || nb.IsTopLevel(b) {
		return -1
	}
	for _, p := range [2]int{na.P1, na.P2} {
		if p == nb.P1 || p == nb.P2 {
			return p
		}
	}
	return -1
}

func (nc *NCMesh) parentTriangle(fn *types.FaceNodes) int {
	n := [3]int{fn[0], fn[1], fn[2]}
	for k := 0; k < 3; k++ {
		k1, k2 := (k+1)%3, (k+2)%3
		v1, v2 := nc.otherParent(n[k1], n[k]), nc.otherParent(n[k2], n[k])
		if v1 < 0 || v2 < 0 {
			continue
		}
		var p types.FaceNodes
		p[k], p[k1], p[k2], p[3] = n[k], v1, v2, -1
		*fn = p
		return k
	}
	// Central child: every node is the midpoint of the edge opposite a coarse vertex
	var p [3]int
	for i := 0; i < 3; i++ {
		if p[i] = nc.commonParent(n[(i+1)%3], n[(i+2)%3]); p[i] < 0 {
			return -1
		}
	}
	for i := 0; i < 3; i++ {
		if nc.otherParent(n[i], p[(i+1)%3]) != p[(i+2)%3] {
			return -1
		}
	}
	*fn = types.NewFaceNodes(p[0], p[1], p[2], -1)
	return 3
}
