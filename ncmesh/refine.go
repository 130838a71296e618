package ncmesh

import (
	"fmt"

	"github.com/notargets/ncsubmesh/geometry"
)

// getNode returns the midpoint node of a and b, creating it with coordinates
func (nc *NCMesh) getNode(a, b int) int {
	id, _ := nc.Nodes.GetId(a, b)
	nc.setMidpointCoords(id)
	return id
}

// midFaceNode returns the center of a quad. The first element to refine the
// quad decides which pair of opposite edge midpoints keys it, the neighbor
// finds it through either pair.
func (nc *NCMesh) midFaceNode(a, b, c, d int) int {
	m01, m12 := nc.getNode(a, b), nc.getNode(b, c)
	m23, m30 := nc.getNode(c, d), nc.getNode(d, a)
	if id := nc.Nodes.FindId(m01, m23); id >= 0 {
		return id
	}
	return nc.getNode(m12, m30)
}

// latticeNode resolves a lattice position of a refined element to a node
func (nc *NCMesh) latticeNode(el *Element, gi *geometry.GeomInfo, p geometry.Point3) int {
	kind, idx := gi.Classify(p)
	switch kind {
	case geometry.VertexNode:
		return el.Node[idx]
	case geometry.EdgeNode:
		e := gi.Edges[idx]
		return nc.getNode(el.Node[e[0]], el.Node[e[1]])
	case geometry.FaceNode:
		f := gi.Faces[idx]
		return nc.midFaceNode(el.Node[f[0]], el.Node[f[1]], el.Node[f[2]], el.Node[f[3]])
	}
	switch el.Geom {
	case geometry.Segment:
		return nc.getNode(el.Node[0], el.Node[1])
	case geometry.Square:
		return nc.midFaceNode(el.Node[0], el.Node[1], el.Node[2], el.Node[3])
	case geometry.Cube:
		f0, f5 := gi.Faces[0], gi.Faces[5]
		return nc.getNode(
			nc.midFaceNode(el.Node[f0[0]], el.Node[f0[1]], el.Node[f0[2]], el.Node[f0[3]]),
			nc.midFaceNode(el.Node[f5[0]], el.Node[f5[1]], el.Node[f5[2]], el.Node[f5[3]]))
	}
	panic(fmt.Errorf("%s has no interior node at %v", el.Geom, p))
}

// Refine splits a leaf isotropically. Children inherit the attribute and the
// rank, child k keeps vertex k of the parent.
func (nc *NCMesh) Refine(elem int) {
	el := nc.Elements[elem]
	if !el.IsLeaf() {
		panic(fmt.Errorf("element %d is already refined", elem))
	}
	if el.Geom == geometry.Point {
		panic(fmt.Errorf("element %d: points cannot be refined", elem))
	}
	gi := geometry.Info(el.Geom)
	nc.UnrefElement(elem)

	children := make([]int, len(gi.Children))
	for k, lattice := range gi.Children {
		child := NewElement(el.Geom, el.Attribute)
		child.Rank = el.Rank
		child.Parent = elem
		for j, p := range lattice {
			child.Node[j] = nc.latticeNode(&el, gi, p)
		}
		children[k] = nc.AddElement(child)
	}

	parent := &nc.Elements[elem]
	parent.RefType = geometry.IsoRefType(gi.Dim)
	parent.ClearNodes()
	copy(parent.Child[:], children)
	for _, c := range children {
		nc.RefElement(c)
	}
}

// RefineElements refines every listed leaf once
func (nc *NCMesh) RefineElements(elems []int) {
	for _, e := range elems {
		nc.Refine(e)
	}
}

func (nc *NCMesh) leavesWhere(keep func(el *Element) bool) (leaves []int) {
	for i := range nc.Elements {
		if el := &nc.Elements[i]; el.IsLeaf() && keep(el) {
			leaves = append(leaves, i)
		}
	}
	return
}

// RefineByAttribute refines the leaves with one of attrs, levels times
func (nc *NCMesh) RefineByAttribute(attrs []int, levels int) {
	for l := 0; l < levels; l++ {
		nc.RefineElements(nc.leavesWhere(func(el *Element) bool {
			return HasAttribute(el.Attribute, attrs)
		}))
	}
}

func (nc *NCMesh) RefineUniformly(levels int) {
	for l := 0; l < levels; l++ {
		nc.RefineElements(nc.leavesWhere(func(*Element) bool { return true }))
	}
}
