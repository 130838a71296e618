package submesh

import (
	"fmt"
	"sort"
	"strings"

	"github.com/notargets/ncsubmesh/ncmesh"
)

// From selects what a submesh is extracted from
type From uint8

const (
	Domain From = iota
	Boundary
)

func (f From) String() string {
	return [...]string{"domain", "boundary"}[f]
}

func ParseFrom(s string) (From, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "domain":
		return Domain, nil
	case "boundary":
		return Boundary, nil
	}
	return Domain, fmt.Errorf("unknown submesh source %q, want domain or boundary", s)
}

// SubMesh is one rank's piece of a submesh: the owned parent leaves (Domain)
// or owned parent boundary elements (Boundary) carrying one of Attributes,
// and the non-conforming forest built over them.
type SubMesh struct {
	Parent     *ncmesh.NCMesh
	From       From
	Attributes []int

	// Submesh element -> parent leaf index (Domain) or parent boundary element (Boundary)
	ParentElementIDs []int
	// Parent leaf index / boundary element -> submesh element, -1 where not selected
	ParentToSubMeshElementIDs []int
	// Submesh vertex -> parent vertex index, ascending
	ParentVertexIDs []int

	NC *NCSubMesh
}

// NewSubMesh extracts the submesh of the parent elements or boundary elements
// with one of attributes. The parent must be current (Update called after the
// last change). Collective when Debug is set. Violations of the construction
// invariants panic with an error wrapping ErrInvariant, ErrUnsupported or
// ErrRankDisagreement.
func NewSubMesh(parent *ncmesh.NCMesh, from From, attributes []int) (sm *SubMesh) {
	check(len(parent.LeafElements) == parent.NumLeaves(),
		"parent lists %d of its %d leaves, call Update first", len(parent.LeafElements), parent.NumLeaves())
	sm = &SubMesh{
		Parent:     parent,
		From:       from,
		Attributes: append([]int(nil), attributes...),
	}
	switch from {
	case Domain:
		sm.selectDomain()
	case Boundary:
		sm.selectBoundary()
	default:
		fail(ErrUnsupported, "unknown submesh source %d", from)
	}
	sm.NC = newNCSubMesh(sm)
	if Debug {
		if err := sm.CheckConsistency(); err != nil {
			fail(ErrInvariant, "%v", err)
		}
	}
	return
}

func (sm *SubMesh) selectDomain() {
	parent := sm.Parent
	sm.ParentToSubMeshElementIDs = filled(parent.NElements, -1)
	verts := make(map[int]bool)
	for i := 0; i < parent.NElements; i++ {
		el := &parent.Elements[parent.LeafElements[i]]
		if !ncmesh.HasAttribute(el.Attribute, sm.Attributes) {
			continue
		}
		sm.ParentToSubMeshElementIDs[i] = len(sm.ParentElementIDs)
		sm.ParentElementIDs = append(sm.ParentElementIDs, i)
		for _, n := range el.Nodes() {
			sm.addVertex(verts, n)
		}
	}
	sm.ParentVertexIDs = sortedKeys(verts)
}

func (sm *SubMesh) selectBoundary() {
	parent := sm.Parent
	sm.ParentToSubMeshElementIDs = filled(parent.NBE(), -1)
	verts := make(map[int]bool)
	for be, fid := range parent.BdrElementFace {
		if !ncmesh.HasAttribute(parent.Faces.At(fid).Attribute, sm.Attributes) {
			continue
		}
		sm.ParentToSubMeshElementIDs[be] = len(sm.ParentElementIDs)
		sm.ParentElementIDs = append(sm.ParentElementIDs, be)
		for _, n := range parent.Faces.Nodes(fid).Vertices() {
			sm.addVertex(verts, n)
		}
	}
	sm.ParentVertexIDs = sortedKeys(verts)
}

func (sm *SubMesh) addVertex(verts map[int]bool, node int) {
	vi := sm.Parent.Nodes.At(node).VertIndex
	check(vi >= 0, "node %d of a selected element has no vertex index", node)
	verts[vi] = true
}

// NE is the number of submesh elements on this rank
func (sm *SubMesh) NE() int { return len(sm.ParentElementIDs) }

func (sm *SubMesh) NV() int { return len(sm.ParentVertexIDs) }

// GetSubMeshElementFromParent maps a parent leaf index (Domain) or boundary
// element (Boundary) to its submesh element, -1 if it is not selected
func (sm *SubMesh) GetSubMeshElementFromParent(pe int) int {
	if pe < 0 || pe >= len(sm.ParentToSubMeshElementIDs) {
		return -1
	}
	return sm.ParentToSubMeshElementIDs[pe]
}

// CheckConsistency verifies the element maps of the submesh and of its forest
func (sm *SubMesh) CheckConsistency() error {
	mapped := 0
	for pe, i := range sm.ParentToSubMeshElementIDs {
		if i < 0 {
			continue
		}
		mapped++
		if i >= sm.NE() || sm.ParentElementIDs[i] != pe {
			return fmt.Errorf("parent element %d maps to submesh element %d which does not map back", pe, i)
		}
	}
	if mapped != sm.NE() {
		return fmt.Errorf("%d parent elements map into a submesh of %d elements", mapped, sm.NE())
	}
	return sm.NC.CheckConsistency()
}

func (sm *SubMesh) Print() {
	fmt.Printf("SubMesh from %s attributes %v on rank %d: %d elements, %d vertices\n",
		sm.From, sm.Attributes, sm.Parent.MyRank, sm.NE(), sm.NV())
	sm.NC.Print()
}

func filled(n, v int) (s []int) {
	s = make([]int, n)
	for i := range s {
		s[i] = v
	}
	return
}

func sortedKeys(m map[int]bool) (keys []int) {
	keys = make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return
}
