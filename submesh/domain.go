package submesh

import (
	"github.com/notargets/ncsubmesh/geometry"
	"github.com/notargets/ncsubmesh/ncmesh"
)

// buildFromDomain copies the parent's trees restricted to the selected
// attributes, internal elements included, and rebuilds their nodes and faces
// in submesh numbering
func (nsm *NCSubMesh) buildFromDomain() {
	parent := nsm.Parent
	collected := make(map[int]bool)
	for ipe := range parent.Elements {
		pe := &parent.Elements[ipe]
		if !ncmesh.HasAttribute(pe.Attribute, nsm.Attributes) {
			continue
		}
		id := nsm.AddElement(*pe)
		nsm.ParentElementIDs = append(nsm.ParentElementIDs, ipe)
		nsm.ParentToSubMeshElementIDs[ipe] = id
		nsm.Elements[id].Index = nsm.Owner.GetSubMeshElementFromParent(pe.Index)
		if parent.IsGhost(ipe) {
			nsm.MarkGhost(id)
		}
		if !pe.IsLeaf() {
			continue
		}
		for _, n := range pe.Nodes() {
			collected[n] = true
		}
		for _, e := range geometry.Info(pe.Geom).Edges {
			pid := parent.Nodes.FindId(pe.Node[e[0]], pe.Node[e[1]])
			check(pid >= 0, "parent element %d: edge (%d,%d) has no node", ipe, pe.Node[e[0]], pe.Node[e[1]])
			collected[pid] = true
		}
	}
	nsm.allocNodes(collected)

	for iv, pv := range nsm.Owner.ParentVertexIDs {
		pn := parent.VertexNodeID[pv]
		nsm.Nodes.At(nsm.subNode(pn)).VertIndex = iv
	}

	for i := range nsm.Elements {
		el := &nsm.Elements[i]
		if el.IsLeaf() {
			nsm.signInDomainLeaf(i)
		} else {
			for k, c := range el.Children() {
				sc, ok := nsm.ParentToSubMeshElementIDs[c]
				if !ok {
					fail(ErrUnsupported, "parent element %d: child %d has another attribute",
						nsm.ParentElementIDs[i], c)
				}
				el.Child[k] = sc
			}
		}
		if el.Parent >= 0 {
			sp, ok := nsm.ParentToSubMeshElementIDs[el.Parent]
			if !ok {
				fail(ErrUnsupported, "parent element %d: its parent %d has another attribute",
					nsm.ParentElementIDs[i], el.Parent)
			}
			el.Parent = sp
		}
	}
}

// signInDomainLeaf renumbers the nodes of a copied leaf, counts its node
// references and creates its faces with the parent's face attributes
func (nsm *NCSubMesh) signInDomainLeaf(i int) {
	parent := nsm.Parent
	el := &nsm.Elements[i]
	gi := geometry.Info(el.Geom)
	for k, pn := range el.Nodes() {
		id := nsm.subNode(pn)
		el.Node[k] = id
		nsm.Nodes.At(id).VertRefc++
	}
	for _, e := range gi.Edges {
		a, b := nsm.ParentNodeIDs[el.Node[e[0]]], nsm.ParentNodeIDs[el.Node[e[1]]]
		pid := parent.Nodes.FindId(a, b)
		check(pid >= 0, "element %d: parent edge (%d,%d) has no node", i, a, b)
		nsm.Nodes.At(nsm.addNode(pid)).EdgeRefc++
	}
	for f := range gi.Faces {
		fn := nsm.ElementFaceNodes(i, f)
		pid := parent.Faces.FindId(nsm.toParentFace(fn))
		check(pid >= 0, "element %d: face %v is not a parent face", i, fn)
		fid, _ := nsm.Faces.GetId(fn)
		nsm.Faces.At(fid).Attribute = parent.Faces.At(pid).Attribute
	}
}
