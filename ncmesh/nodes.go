package ncmesh

import (
	"fmt"

	"github.com/notargets/ncsubmesh/types"
)

// Node is a vertex or an edge midpoint, identified by the pair of nodes it
// lies between. Top level vertices are their own parents.
type Node struct {
	P1, P2    int
	VertRefc  int // Leaves using the node as a vertex
	EdgeRefc  int // Leaves having the node as the midpoint of an edge
	VertIndex int
	Unused    bool
}

func (n *Node) HasVertex() bool { return n.VertRefc > 0 }
func (n *Node) HasEdge() bool   { return n.EdgeRefc > 0 }

// IsTopLevel is true for the vertices of the root elements
func (n *Node) IsTopLevel(id int) bool { return n.P1 == id && n.P2 == id }

// OtherParent returns the parent of the node that is not p, or -1 if p is
// not one of its parents
func (n *Node) OtherParent(p int) int {
	switch p {
	case n.P1:
		return n.P2
	case n.P2:
		return n.P1
	}
	return -1
}

// NodeTable stores nodes by id and finds them by their parent pair
type NodeTable struct {
	nodes []Node
	ids   map[types.EdgeKey]int
}

func NewNodeTable() *NodeTable {
	return &NodeTable{ids: make(map[types.EdgeKey]int)}
}

func (nt *NodeTable) Size() int { return len(nt.nodes) }

func (nt *NodeTable) At(id int) *Node {
	if id < 0 || id >= len(nt.nodes) {
		panic(fmt.Errorf("node %d out of range [0,%d)", id, len(nt.nodes)))
	}
	return &nt.nodes[id]
}

func newNode(p1, p2 int) Node {
	return Node{P1: p1, P2: p2, VertIndex: -1}
}

// Alloc creates node id with the given parents. Ids must be allocated in
// increasing order; gaps are filled with unused placeholder nodes.
func (nt *NodeTable) Alloc(id, p1, p2 int) {
	if id < len(nt.nodes) {
		panic(fmt.Errorf("node %d is already allocated", id))
	}
	key := types.NewEdgeKey([2]int{p1, p2})
	if other, exists := nt.ids[key]; exists {
		panic(fmt.Errorf("node %d: parents (%d,%d) already belong to node %d", id, p1, p2, other))
	}
	for len(nt.nodes) < id {
		gap := len(nt.nodes)
		nt.nodes = append(nt.nodes, newNode(gap, gap))
		nt.nodes[gap].Unused = true
	}
	nt.nodes = append(nt.nodes, newNode(p1, p2))
	nt.ids[key] = id
}

// FindId returns the node between a and b, or -1
func (nt *NodeTable) FindId(a, b int) int {
	if a < 0 || b < 0 {
		return -1
	}
	if id, ok := nt.ids[types.NewEdgeKey([2]int{a, b})]; ok {
		return id
	}
	return -1
}

// GetId returns the node between a and b, creating it if needed
func (nt *NodeTable) GetId(a, b int) (id int, isNew bool) {
	if id = nt.FindId(a, b); id >= 0 {
		return id, false
	}
	id = len(nt.nodes)
	nt.Alloc(id, a, b)
	return id, true
}

// Reparent moves node id to a new parent pair
func (nt *NodeTable) Reparent(id, p1, p2 int) {
	n := nt.At(id)
	oldKey := types.NewEdgeKey([2]int{n.P1, n.P2})
	if nt.ids[oldKey] == id {
		delete(nt.ids, oldKey)
	}
	newKey := types.NewEdgeKey([2]int{p1, p2})
	if other, exists := nt.ids[newKey]; exists && other != id {
		panic(fmt.Errorf("reparenting node %d: parents (%d,%d) already belong to node %d", id, p1, p2, other))
	}
	n.P1, n.P2 = p1, p2
	nt.ids[newKey] = id
}

// UpdateUnused flags nodes no leaf refers to. Ids stay contiguous, unused
// nodes are skipped by vertex numbering.
func (nt *NodeTable) UpdateUnused() (nUnused int) {
	for i := range nt.nodes {
		n := &nt.nodes[i]
		n.Unused = !n.HasVertex() && !n.HasEdge()
		if n.Unused {
			nUnused++
		}
	}
	return
}

func (nt *NodeTable) ResetRefCounts() {
	for i := range nt.nodes {
		nt.nodes[i].VertRefc = 0
		nt.nodes[i].EdgeRefc = 0
	}
}
