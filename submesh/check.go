package submesh

import "fmt"

// CheckConsistency verifies the structure of a finished forest: both id maps
// are bijections onto their image, roots lead the element array, boundary
// elements are in their final sort order and every element uses exactly one
// of its node and child arrays
func (nsm *NCSubMesh) CheckConsistency() error {
	if len(nsm.ParentElementIDs) != len(nsm.Elements) {
		return fmt.Errorf("%d parent element ids for %d elements", len(nsm.ParentElementIDs), len(nsm.Elements))
	}
	mapped := 0
	for i, pe := range nsm.ParentElementIDs {
		if pe < 0 {
			continue
		}
		mapped++
		if j, ok := nsm.ParentToSubMeshElementIDs[pe]; !ok || j != i {
			return fmt.Errorf("element %d comes from parent %d, which maps to %d", i, pe, j)
		}
	}
	if mapped != len(nsm.ParentToSubMeshElementIDs) {
		return fmt.Errorf("%d elements have a parent id, the inverse map holds %d", mapped,
			len(nsm.ParentToSubMeshElementIDs))
	}

	if len(nsm.ParentNodeIDs) != nsm.Nodes.Size() {
		return fmt.Errorf("%d parent node ids for %d nodes", len(nsm.ParentNodeIDs), nsm.Nodes.Size())
	}
	if len(nsm.ParentToSubMeshNodeIDs) != len(nsm.ParentNodeIDs) {
		return fmt.Errorf("%d parent node ids, the inverse map holds %d", len(nsm.ParentNodeIDs),
			len(nsm.ParentToSubMeshNodeIDs))
	}
	for i, pn := range nsm.ParentNodeIDs {
		if j, ok := nsm.ParentToSubMeshNodeIDs[pn]; !ok || j != i {
			return fmt.Errorf("node %d comes from parent node %d, which maps to %d", i, pn, j)
		}
		n := nsm.Nodes.At(i)
		if n.P1 < 0 || n.P1 >= nsm.Nodes.Size() || n.P2 < 0 || n.P2 >= nsm.Nodes.Size() {
			return fmt.Errorf("node %d has parents (%d,%d) outside the submesh", i, n.P1, n.P2)
		}
	}

	for i := range nsm.Elements {
		el := &nsm.Elements[i]
		if err := el.Validate(); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		if i > 0 && el.Parent < 0 && nsm.Elements[i-1].Parent >= 0 {
			return fmt.Errorf("root element %d follows non-root element %d", i, i-1)
		}
		for _, c := range el.Child {
			if c >= 0 && nsm.Elements[c].Parent != i {
				return fmt.Errorf("element %d lists child %d whose parent is %d", i, c, nsm.Elements[c].Parent)
			}
		}
	}
	if nsm.From == Boundary && !nsm.isSorted() {
		return fmt.Errorf("boundary elements are not sorted by parent and source face")
	}
	return nil
}
