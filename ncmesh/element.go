package ncmesh

import (
	"fmt"

	"github.com/notargets/ncsubmesh/geometry"
)

// Element is a node of a refinement tree. A leaf holds its vertex nodes in
// Node, an internal element its children in Child; the unused array is all -1.
type Element struct {
	Geom      geometry.Geometry
	Attribute int
	Rank      int
	RefType   geometry.RefType
	Index     int // Leaf index after Update, -1 for internal elements
	Parent    int
	Child     [geometry.MaxElemChildren]int
	Node      [geometry.MaxElemNodes]int
}

func NewElement(geom geometry.Geometry, attr int) (e Element) {
	e = Element{
		Geom:      geom,
		Attribute: attr,
		Index:     -1,
		Parent:    -1,
	}
	e.ClearChildren()
	e.ClearNodes()
	return
}

func (e *Element) IsLeaf() bool { return e.RefType == geometry.RefNone }

func (e *Element) NumChildren() int { return geometry.NumChildren(e.RefType) }

func (e *Element) ClearNodes() {
	for i := range e.Node {
		e.Node[i] = -1
	}
}

func (e *Element) ClearChildren() {
	for i := range e.Child {
		e.Child[i] = -1
	}
}

// Nodes returns the vertex nodes of a leaf
func (e *Element) Nodes() []int {
	return e.Node[:geometry.Info(e.Geom).NV]
}

// Children returns the children of an internal element
func (e *Element) Children() []int {
	return e.Child[:e.NumChildren()]
}

// Validate checks that exactly one of the node and child arrays is in use and
// that it is filled to the size the geometry or refinement type requires
func (e *Element) Validate() error {
	nv := geometry.Info(e.Geom).NV
	if e.IsLeaf() {
		for i, n := range e.Node {
			if (i < nv) != (n >= 0) {
				return fmt.Errorf("leaf %s has node[%d] = %d", e.Geom, i, n)
			}
		}
		for i, c := range e.Child {
			if c != -1 {
				return fmt.Errorf("leaf %s has child[%d] = %d", e.Geom, i, c)
			}
		}
		return nil
	}
	nc := e.NumChildren()
	for i, c := range e.Child {
		if (i < nc) != (c >= 0) {
			return fmt.Errorf("internal %s refined %s has child[%d] = %d", e.Geom, e.RefType, i, c)
		}
	}
	for i, n := range e.Node {
		if n != -1 {
			return fmt.Errorf("internal %s has node[%d] = %d", e.Geom, i, n)
		}
	}
	return nil
}

func (e Element) String() string {
	if e.IsLeaf() {
		return fmt.Sprintf("%s attr %d rank %d parent %d nodes %v",
			e.Geom, e.Attribute, e.Rank, e.Parent, e.Nodes())
	}
	return fmt.Sprintf("%s attr %d rank %d parent %d children %v",
		e.Geom, e.Attribute, e.Rank, e.Parent, e.Children())
}
