package submesh

import (
	"github.com/notargets/ncsubmesh/geometry"
	"github.com/notargets/ncsubmesh/ncmesh"
	"github.com/notargets/ncsubmesh/types"
)

// faceEntry is a boundary element by the key of the parent face it stands for
type faceEntry struct {
	nodes types.FaceNodes
	elem  int
}

// buildFromBoundary turns every selected parent face into a leaf and rebuilds
// the trees above the leaves by walking each face up through the coarser
// faces containing it. Coarse faces the parent no longer registers still get
// an element so every tree reaches down from its root face.
func (nsm *NCSubMesh) buildFromBoundary() {
	parent := nsm.Parent
	ncList := parent.GetFaceList()
	byFace := make(map[types.FaceKey]*faceEntry)
	collected := make(map[int]bool)

	parent.Faces.Each(func(fid int, face *ncmesh.Face) {
		if !ncmesh.HasAttribute(face.Attribute, nsm.Attributes) || face.NumElements() == 0 ||
			ncList.GetMeshIdType(face.Index) == ncmesh.Master {
			return
		}
		fn := parent.FindFaceNodes(fid)
		if _, seen := byFace[fn.Key()]; seen {
			return
		}
		if face.NumElements() == 2 {
			fail(ErrUnsupported, "face %d %v with attribute %d lies between elements %d and %d",
				fid, fn, face.Attribute, face.Elem[0], face.Elem[1])
		}
		elem := nsm.newBoundaryElement(fn, face.Attribute, fid)
		nsm.Elements[elem].Rank = parent.FaceRank(face)
		verts := fn.Vertices()
		for k, n := range verts {
			nsm.Elements[elem].Node[k] = n
			collected[n] = true
		}
		for _, e := range geometry.Info(nsm.Elements[elem].Geom).Edges {
			pid := parent.Nodes.FindId(verts[e[0]], verts[e[1]])
			check(pid >= 0, "face %d: edge (%d,%d) has no node", fid, verts[e[0]], verts[e[1]])
			collected[pid] = true
		}
		byFace[fn.Key()] = &faceEntry{nodes: fn, elem: elem}
		nsm.ascend(fn, elem, face.Attribute, byFace)
	})
	nsm.allocNodes(collected)
}

func (nsm *NCSubMesh) newBoundaryElement(fn types.FaceNodes, attr, parentFace int) (id int) {
	id = nsm.AddElement(ncmesh.NewElement(geometry.FaceGeometry(fn), attr))
	nsm.ParentElementIDs = append(nsm.ParentElementIDs, parentFace)
	if parentFace >= 0 {
		nsm.ParentToSubMeshElementIDs[parentFace] = id
	}
	nsm.sourceFaces = append(nsm.sourceFaces, fn)
	return
}

// ascend hangs elem, built from face fn, under the element of the next coarser
// face, creating that element if needed, and repeats from there until it
// reaches a root face or an element that was already in place
func (nsm *NCSubMesh) ascend(fn types.FaceNodes, elem, attr int, byFace map[types.FaceKey]*faceEntry) {
	refType := geometry.IsoRefType(nsm.Dim)
	for {
		slot := nsm.Parent.ParentFaceNodes(&fn)
		if slot < 0 {
			nsm.Elements[elem].Parent = -1
			return
		}
		entry, found := byFace[fn.Key()]
		fixed := false
		if !found {
			pid := nsm.newBoundaryElement(fn, attr, nsm.Parent.Faces.FindId(fn))
			entry = &faceEntry{nodes: fn, elem: pid}
			byFace[fn.Key()] = entry
		} else if entry.nodes != fn && !(fn.IsTriangle() && slot == 3) {
			// The central child of a triangle sits in the same slot whatever the orientation
			nsm.reorient(entry, fn)
			fixed = true
		}
		p := &nsm.Elements[entry.elem]
		if p.IsLeaf() {
			p.ClearNodes()
		}
		p.RefType = refType
		p.Child[slot] = elem
		nsm.Elements[elem].Parent = entry.elem
		if found && !fixed {
			return
		}
		elem = entry.elem
	}
}

// reorient rebuilds an element first seen from another side in the
// orientation of fn. An internal element moves every child to the slot of the
// coarse vertex it holds.
func (nsm *NCSubMesh) reorient(entry *faceEntry, fn types.FaceNodes) {
	el := &nsm.Elements[entry.elem]
	if !el.IsLeaf() {
		oldV, newV := entry.nodes.Vertices(), fn.Vertices()
		child := el.Child
		for i1, v := range newV {
			child[i1] = -1
			for i2, ov := range oldV {
				if v == ov {
					child[i1] = el.Child[i2]
					break
				}
			}
		}
		el.Child = child
	}
	entry.nodes = fn
	nsm.sourceFaces[entry.elem] = fn
}

// signInLeaves renumbers the leaves' nodes into the submesh, once the
// elements are in their final order, and creates their faces
func (nsm *NCSubMesh) signInLeaves() {
	parent := nsm.Parent
	for i := range nsm.Elements {
		el := &nsm.Elements[i]
		if !el.IsLeaf() {
			continue
		}
		gi := geometry.Info(el.Geom)
		for _, e := range gi.Edges {
			pid := parent.Nodes.FindId(el.Node[e[0]], el.Node[e[1]])
			check(pid >= 0, "element %d: parent edge (%d,%d) has no node", i, el.Node[e[0]], el.Node[e[1]])
			nsm.Nodes.At(nsm.subNode(pid)).EdgeRefc++
		}
		for k, pn := range el.Nodes() {
			id := nsm.subNode(pn)
			el.Node[k] = id
			nsm.Nodes.At(id).VertRefc++
		}
		for f := range gi.Faces {
			face := nsm.Faces.Get(nsm.ElementFaceNodes(i, f))
			face.Attribute, face.Index = -1, -1
		}
	}
}

// markBoundaryGhosts flags the leaves of other ranks that stand for a face of
// an owned or ghost parent element
func (nsm *NCSubMesh) markBoundaryGhosts() {
	parent := nsm.Parent
	for i := range nsm.Elements {
		el := &nsm.Elements[i]
		if !el.IsLeaf() || el.Rank == nsm.MyRank {
			continue
		}
		face := parent.Faces.At(nsm.ParentElementIDs[i])
		for _, e := range face.Elem {
			if e >= 0 && (parent.Elements[e].Rank == parent.MyRank || parent.IsGhost(e)) {
				nsm.MarkGhost(i)
				break
			}
		}
	}
}
