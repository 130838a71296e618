package submesh

import (
	"github.com/notargets/ncsubmesh/ncmesh"
	"github.com/notargets/ncsubmesh/types"
)

// NCSubMesh is the refinement forest of a submesh. It is a complete NCMesh
// whose elements and nodes remember where they came from in the parent:
// Domain submeshes copy the parent's trees restricted to the selected
// attributes, Boundary submeshes rebuild trees out of the parent's faces.
type NCSubMesh struct {
	*ncmesh.NCMesh

	Owner      *SubMesh
	Parent     *ncmesh.NCMesh
	From       From
	Attributes []int

	// Element -> parent element (Domain) or parent face id (Boundary). Boundary
	// elements made for coarse faces the parent never registered hold -1.
	ParentElementIDs          []int
	ParentToSubMeshElementIDs map[int]int
	ParentNodeIDs             []int
	ParentToSubMeshNodeIDs    map[int]int

	nodeIDs *UniqueIndexGenerator
	// Boundary: the parent face tuple each element was built from, in the
	// orientation its children are laid out in
	sourceFaces []types.FaceNodes
}

func newNCSubMesh(owner *SubMesh) (nsm *NCSubMesh) {
	parent := owner.Parent
	dim := parent.Dim
	if owner.From == Boundary {
		dim--
	}
	nsm = &NCSubMesh{
		NCMesh:                    ncmesh.New(dim, parent.SpaceDim, parent.Comm),
		Owner:                     owner,
		Parent:                    parent,
		From:                      owner.From,
		Attributes:                owner.Attributes,
		ParentToSubMeshElementIDs: make(map[int]int),
		ParentToSubMeshNodeIDs:    make(map[int]int),
		nodeIDs:                   NewUniqueIndexGenerator(),
	}
	switch owner.From {
	case Domain:
		nsm.buildFromDomain()
	case Boundary:
		nsm.buildFromBoundary()
		nsm.reorderElements()
		nsm.signInLeaves()
	}
	nsm.finalize()
	return
}

// SourceFaceNodes is the parent face tuple boundary element i was built from
func (nsm *NCSubMesh) SourceFaceNodes(i int) types.FaceNodes {
	return nsm.sourceFaces[i]
}

// addNode returns the submesh node of parent node pn, allocating a top level
// node for it on first sight
func (nsm *NCSubMesh) addNode(pn int) int {
	id, isNew := nsm.nodeIDs.Get(pn)
	if isNew {
		nsm.Nodes.Alloc(id, id, id)
		nsm.ParentNodeIDs = append(nsm.ParentNodeIDs, pn)
		nsm.ParentToSubMeshNodeIDs[pn] = id
	}
	return id
}

// allocNodes adds the collected parent nodes in ascending parent id order
func (nsm *NCSubMesh) allocNodes(collected map[int]bool) {
	for _, pn := range sortedKeys(collected) {
		check(nsm.nodeIDs.Find(pn) < 0, "parent node %d collected twice", pn)
		nsm.addNode(pn)
	}
}

func (nsm *NCSubMesh) subNode(pn int) int {
	id := nsm.nodeIDs.Find(pn)
	check(id >= 0, "parent node %d has no submesh node", pn)
	return id
}

// toParentFace maps a face tuple of submesh nodes to parent nodes
func (nsm *NCSubMesh) toParentFace(fn types.FaceNodes) (pf types.FaceNodes) {
	for i, n := range fn {
		pf[i] = -1
		if n >= 0 {
			pf[i] = nsm.ParentNodeIDs[n]
		}
	}
	return
}
