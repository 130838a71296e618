package submesh

import (
	"sort"

	"github.com/notargets/ncsubmesh/ncmesh"
	"github.com/notargets/ncsubmesh/types"
)

// elementLess orders elements by parent, then siblings by the key of the
// parent face they were built from. Both depend on parent mesh data only, so
// every rank holding the same trees orders them the same way. The sorted key
// is used on purpose instead of the recorded tuple: reorient may rotate a
// tuple, never its key.
func (nsm *NCSubMesh) elementLess(l, r int) bool {
	pl, pr := nsm.Elements[l].Parent, nsm.Elements[r].Parent
	if pl != pr {
		return pl < pr
	}
	return nsm.sourceFaces[l].Key().Less(nsm.sourceFaces[r].Key())
}

func (nsm *NCSubMesh) isSorted() bool {
	for i := 1; i < len(nsm.Elements); i++ {
		if nsm.elementLess(i, i-1) {
			return false
		}
	}
	return true
}

// reorderElements sorts until sorting changes nothing: roots come first and
// every child follows its parent. Parent indices move with each pass.
func (nsm *NCSubMesh) reorderElements() {
	n := len(nsm.Elements)
	for pass := 0; !nsm.isSorted(); pass++ {
		check(pass <= n, "element order still changing after %d passes", pass)
		newToOld := make([]int, n)
		for i := range newToOld {
			newToOld[i] = i
		}
		sort.SliceStable(newToOld, func(a, b int) bool {
			return nsm.elementLess(newToOld[a], newToOld[b])
		})
		nsm.permute(newToOld)
	}
	// Internal elements take the lowest rank below them
	for i := n - 1; i >= 0; i-- {
		el := &nsm.Elements[i]
		if el.IsLeaf() {
			continue
		}
		rank := -1
		for _, c := range el.Child {
			if c < 0 {
				continue
			}
			if r := nsm.Elements[c].Rank; rank < 0 || r < rank {
				rank = r
			}
		}
		el.Rank = rank
	}
}

func (nsm *NCSubMesh) permute(newToOld []int) {
	n := len(newToOld)
	oldToNew := make([]int, n)
	for i, old := range newToOld {
		oldToNew[old] = i
	}
	var (
		elements    = make([]ncmesh.Element, n)
		parentIDs   = make([]int, n)
		sourceFaces = make([]types.FaceNodes, n)
	)
	for i, old := range newToOld {
		elements[i] = nsm.Elements[old]
		parentIDs[i] = nsm.ParentElementIDs[old]
		sourceFaces[i] = nsm.sourceFaces[old]
	}
	for i := range elements {
		el := &elements[i]
		for k, c := range el.Child {
			if c >= 0 {
				el.Child[k] = oldToNew[c]
			}
		}
		if el.Parent >= 0 {
			el.Parent = oldToNew[el.Parent]
		}
	}
	nsm.Elements, nsm.ParentElementIDs, nsm.sourceFaces = elements, parentIDs, sourceFaces
	nsm.ParentToSubMeshElementIDs = make(map[int]int, n)
	for i, pf := range parentIDs {
		if pf >= 0 {
			nsm.ParentToSubMeshElementIDs[pf] = i
		}
	}
}
