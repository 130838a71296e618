package ncmesh

import (
	"fmt"
	"math"

	"github.com/notargets/ncsubmesh/geometry"
)

// Leaves lists every leaf in tree order: roots by index, children by slot
func (nc *NCMesh) Leaves() (leaves []int) {
	var walk func(e int)
	walk = func(e int) {
		el := &nc.Elements[e]
		if el.IsLeaf() {
			leaves = append(leaves, e)
			return
		}
		for _, c := range el.Children() {
			walk(c)
		}
	}
	for i := range nc.Elements {
		if nc.Elements[i].Parent < 0 {
			walk(i)
		}
	}
	return
}

// AssignLeafRanks sets the owner of every leaf, in Leaves order
func (nc *NCMesh) AssignLeafRanks(ranks []int) {
	leaves := nc.Leaves()
	if len(ranks) != len(leaves) {
		panic(fmt.Errorf("have %d ranks for %d leaves", len(ranks), len(leaves)))
	}
	for i, l := range leaves {
		if ranks[i] < 0 || ranks[i] >= nc.NRanks {
			panic(fmt.Errorf("leaf %d: rank %d out of range [0,%d)", l, ranks[i], nc.NRanks))
		}
		nc.Elements[l].Rank = ranks[i]
	}
	nc.updateInternalRanks()
}

// AssignRootRanks gives every leaf the rank of its root
func (nc *NCMesh) AssignRootRanks(rootRanks []int) {
	var ranks []int
	var walk func(e, rank int)
	walk = func(e, rank int) {
		el := &nc.Elements[e]
		if el.IsLeaf() {
			ranks = append(ranks, rank)
			return
		}
		for _, c := range el.Children() {
			walk(c, rank)
		}
	}
	root := 0
	for i := range nc.Elements {
		if nc.Elements[i].Parent < 0 {
			if root >= len(rootRanks) {
				panic(fmt.Errorf("have %d root ranks, need more", len(rootRanks)))
			}
			walk(i, rootRanks[root])
			root++
		}
	}
	nc.AssignLeafRanks(ranks)
}

// LeafCounts returns the number of leaves under each root, in root order
func (nc *NCMesh) LeafCounts() (counts []int) {
	var count func(e int) int
	count = func(e int) int {
		el := &nc.Elements[e]
		if el.IsLeaf() {
			return 1
		}
		n := 0
		for _, c := range el.Children() {
			n += count(c)
		}
		return n
	}
	for i := range nc.Elements {
		if nc.Elements[i].Parent < 0 {
			counts = append(counts, count(i))
		}
	}
	return
}

// updateInternalRanks sets each internal element to the lowest rank below it
func (nc *NCMesh) updateInternalRanks() {
	var walk func(e int) int
	walk = func(e int) int {
		el := &nc.Elements[e]
		if el.IsLeaf() {
			return el.Rank
		}
		rank := math.MaxInt32
		for _, c := range el.Children() {
			if r := walk(c); r < rank {
				rank = r
			}
		}
		nc.Elements[e].Rank = rank
		return rank
	}
	for i := range nc.Elements {
		if nc.Elements[i].Parent < 0 {
			walk(i)
		}
	}
}

// ExchangeFaceNbrData is collective. It checks that all ranks hold the same
// forest and marks the ghost leaves: leaves of other ranks touching an owned
// leaf through a vertex or a hanging node.
func (nc *NCMesh) ExchangeFaceNbrData() {
	roots := 0
	for i := range nc.Elements {
		if nc.Elements[i].Parent < 0 {
			roots++
		}
	}
	sig := []int{roots, -roots, nc.Nodes.Size(), -nc.Nodes.Size()}
	res := nc.Comm.AllReduceMin(sig)
	if res[0] != -res[1] || res[2] != -res[3] {
		panic(fmt.Errorf("ranks hold different forests: roots in [%d,%d], nodes in [%d,%d]",
			res[0], -res[1], res[2], -res[3]))
	}

	owned := make(map[int]bool)
	for i := range nc.Elements {
		el := &nc.Elements[i]
		if el.IsLeaf() && el.Rank == nc.MyRank {
			for _, n := range el.Nodes() {
				owned[n] = true
			}
		}
	}
	touches := func(n int) bool {
		if owned[n] {
			return true
		}
		node := nc.Nodes.At(n)
		return !node.IsTopLevel(n) && owned[node.P1] && owned[node.P2]
	}
	nc.ghost = make(map[int]bool)
	for i := range nc.Elements {
		el := &nc.Elements[i]
		if !el.IsLeaf() || el.Rank == nc.MyRank {
			continue
		}
		for _, n := range el.Nodes() {
			if touches(n) {
				nc.ghost[i] = true
				break
			}
		}
	}
	// Owned leaves with a hanging node on a coarser remote leaf
	byVertex := make(map[int][]int)
	for i := range nc.Elements {
		el := &nc.Elements[i]
		if el.IsLeaf() && el.Rank != nc.MyRank && !nc.ghost[i] {
			for _, v := range el.Nodes() {
				byVertex[v] = append(byVertex[v], i)
			}
		}
	}
	for n := range owned {
		node := nc.Nodes.At(n)
		if node.IsTopLevel(n) {
			continue
		}
		for _, i := range byVertex[node.P1] {
			for _, v := range nc.Elements[i].Nodes() {
				if v == node.P2 {
					nc.ghost[i] = true
				}
			}
		}
	}
}

// cornerNode is vertex k of element e, descending through child k
func (nc *NCMesh) cornerNode(e, k int) int {
	for {
		el := &nc.Elements[e]
		if el.IsLeaf() {
			return el.Node[k]
		}
		e = el.Child[k]
	}
}

// Prune collapses every subtree without an owned or ghost leaf into a single
// leaf, then compacts the element array and rebuilds faces and node counts.
// Must follow ExchangeFaceNbrData.
func (nc *NCMesh) Prune() {
	needed := make([]bool, len(nc.Elements))
	var mark func(e int) bool
	mark = func(e int) bool {
		el := &nc.Elements[e]
		if el.IsLeaf() {
			needed[e] = el.Rank == nc.MyRank || nc.ghost[e]
			return needed[e]
		}
		for _, c := range el.Children() {
			if mark(c) {
				needed[e] = true
			}
		}
		return needed[e]
	}
	var collapse func(e int)
	collapse = func(e int) {
		el := &nc.Elements[e]
		if el.IsLeaf() {
			return
		}
		if !needed[e] {
			// The collapsed leaf keeps the rank of its lowest ranked leaf
			var corners [geometry.MaxElemNodes]int
			for k := range corners {
				corners[k] = -1
			}
			for k := 0; k < geometry.Info(el.Geom).NV; k++ {
				corners[k] = nc.cornerNode(e, k)
			}
			el = &nc.Elements[e]
			el.RefType = geometry.RefNone
			el.ClearChildren()
			el.Node = corners
			return
		}
		for _, c := range el.Children() {
			collapse(c)
		}
	}
	for i := range nc.Elements {
		if nc.Elements[i].Parent < 0 {
			mark(i)
			collapse(i)
		}
	}
	nc.compact()
	nc.rebuildTopology()
}

// compact drops elements no longer reachable from a root, keeping the order
func (nc *NCMesh) compact() {
	reachable := make([]bool, len(nc.Elements))
	var walk func(e int)
	walk = func(e int) {
		reachable[e] = true
		el := &nc.Elements[e]
		if !el.IsLeaf() {
			for _, c := range el.Children() {
				walk(c)
			}
		}
	}
	for i := range nc.Elements {
		if nc.Elements[i].Parent < 0 {
			walk(i)
		}
	}
	oldToNew := make([]int, len(nc.Elements))
	kept := nc.Elements[:0:0]
	for i := range nc.Elements {
		oldToNew[i] = -1
		if reachable[i] {
			oldToNew[i] = len(kept)
			kept = append(kept, nc.Elements[i])
		}
	}
	ghost := make(map[int]bool)
	for old := range nc.ghost {
		if oldToNew[old] >= 0 {
			ghost[oldToNew[old]] = true
		}
	}
	for i := range kept {
		el := &kept[i]
		if el.Parent >= 0 {
			el.Parent = oldToNew[el.Parent]
		}
		if !el.IsLeaf() {
			for k, c := range el.Children() {
				el.Child[k] = oldToNew[c]
			}
		}
	}
	nc.Elements = kept
	nc.ghost = ghost
}

// rebuildTopology recounts node references and registers the faces of all
// leaves from scratch
func (nc *NCMesh) rebuildTopology() {
	nc.Nodes.ResetRefCounts()
	nc.Faces = NewFaceTable()
	for i := range nc.Elements {
		if nc.Elements[i].IsLeaf() {
			nc.RefElement(i)
		}
	}
}
