package submesh

import (
	"log"
	"sort"
)

// finalize completes the forest once its elements and leaf nodes are in
// place: node parents, faces, roots, numbering and coordinates, and finally
// points the owner's element map at the submesh's own leaf order
func (nsm *NCSubMesh) finalize() {
	parent := nsm.Parent
	// Nodes take the parents they have in the parent mesh. Parents outside the
	// selection join as unused nodes, so the loop bound grows as it runs.
	for i := 0; i < len(nsm.ParentNodeIDs); i++ {
		pn := parent.Nodes.At(nsm.ParentNodeIDs[i])
		nsm.Nodes.Reparent(i, nsm.addNode(pn.P1), nsm.addNode(pn.P2))
	}
	nsm.Nodes.UpdateUnused()
	for i := range nsm.Elements {
		if nsm.Elements[i].IsLeaf() {
			nsm.RegisterFaces(i)
		}
	}
	if nsm.From == Boundary {
		nsm.markBoundaryGhosts()
	}

	nsm.InitRootElements()
	nsm.InitRootState(nsm.RootCount)
	nsm.InitGeomFlags()
	if Debug {
		nsm.checkRootAgreement()
	}
	nsm.Update()

	if parent.HasCoordinates() {
		nsm.Coordinates = make([]float64, 3*len(nsm.ParentNodeIDs))
		for i, pn := range nsm.ParentNodeIDs {
			copy(nsm.Coordinates[3*i:3*i+3], parent.CalcVertexPos(pn))
		}
	}

	switch nsm.From {
	case Domain:
		nsm.rewriteOwnerMap(func(pe int) int {
			return parent.Elements[pe].Index
		})
	case Boundary:
		toBdr := parent.GetFaceToBdrElMap()
		nsm.rewriteOwnerMap(func(pf int) int {
			return toBdr[parent.Faces.At(pf).Index]
		})
	}
}

// checkRootAgreement is collective: every rank must have built the same roots
func (nsm *NCSubMesh) checkRootAgreement() {
	res := nsm.Comm.AllReduceMin([]int{nsm.RootCount, -nsm.RootCount})
	if lo, hi := res[0], -res[1]; lo != hi {
		log.Printf("rank %d: submesh root count %d, ranks range over [%d,%d]\n", nsm.MyRank, nsm.RootCount, lo, hi)
		fail(ErrRankDisagreement, "ranks must agree on number of root elements: min %d max %d local %d rank %d",
			lo, hi, nsm.RootCount, nsm.MyRank)
	}
}

// rewriteOwnerMap renumbers the owner's elements to follow the submesh's owned
// leaves, so owner element i is leaf i of the forest. toOwner maps a parent
// element or face id to the parent entity the owner indexes.
func (nsm *NCSubMesh) rewriteOwnerMap(toOwner func(int) int) {
	owner := nsm.Owner
	check(nsm.NElements == owner.NE(), "%d owned submesh leaves, %d selected parent elements",
		nsm.NElements, owner.NE())
	var before []int
	if Debug {
		before = append([]int(nil), owner.ParentElementIDs...)
	}
	for i := range owner.ParentToSubMeshElementIDs {
		owner.ParentToSubMeshElementIDs[i] = -1
	}
	for i := 0; i < nsm.NElements; i++ {
		pe := toOwner(nsm.ParentElementIDs[nsm.LeafElements[i]])
		check(pe >= 0 && pe < len(owner.ParentToSubMeshElementIDs),
			"owned leaf %d stands for parent entity %d outside the selection", i, pe)
		owner.ParentElementIDs[i] = pe
		owner.ParentToSubMeshElementIDs[pe] = i
	}
	if Debug {
		after := append([]int(nil), owner.ParentElementIDs...)
		sort.Ints(before)
		sort.Ints(after)
		for i := range before {
			check(before[i] == after[i], "owned leaves select parent entities %v, expected %v", after, before)
		}
	}
}
