package ncmesh

import (
	"fmt"

	"github.com/notargets/ncsubmesh/types"
)

// Face is keyed by its (up to four) nodes. Elem holds the leaf elements on
// either side, -1 where there is none.
type Face struct {
	Attribute int
	Index     int
	Elem      [2]int
	unused    bool
}

func (f *Face) Unused() bool { return f.unused }

func (f *Face) Boundary() bool { return f.Elem[0] < 0 || f.Elem[1] < 0 }

func (f *Face) NumElements() (n int) {
	for _, e := range f.Elem {
		if e >= 0 {
			n++
		}
	}
	return
}

func (f *Face) RegisterElement(e int) {
	switch {
	case f.Elem[0] < 0:
		f.Elem[0] = e
	case f.Elem[1] < 0:
		f.Elem[1] = e
	default:
		panic(fmt.Errorf("face already has two elements %v, cannot add %d", f.Elem, e))
	}
}

func (f *Face) ForgetElement(e int) {
	switch e {
	case f.Elem[0]:
		f.Elem[0] = -1
	case f.Elem[1]:
		f.Elem[1] = -1
	default:
		panic(fmt.Errorf("element %d is not adjacent to face with elements %v", e, f.Elem))
	}
}

// FaceTable stores faces by id and finds them by node tuple, in any order
type FaceTable struct {
	faces []Face
	nodes []types.FaceNodes
	ids   map[types.FaceKey]int
	live  int
}

func NewFaceTable() *FaceTable {
	return &FaceTable{ids: make(map[types.FaceKey]int)}
}

// Len is the number of face ids ever allocated, Size the number in use
func (ft *FaceTable) Len() int  { return len(ft.faces) }
func (ft *FaceTable) Size() int { return ft.live }

func (ft *FaceTable) At(id int) *Face {
	if id < 0 || id >= len(ft.faces) {
		panic(fmt.Errorf("face %d out of range [0,%d)", id, len(ft.faces)))
	}
	return &ft.faces[id]
}

// Nodes returns the node tuple the face was created with
func (ft *FaceTable) Nodes(id int) types.FaceNodes { return ft.nodes[id] }

func (ft *FaceTable) FindId(fn types.FaceNodes) int {
	if id, ok := ft.ids[fn.Key()]; ok {
		return id
	}
	return -1
}

func (ft *FaceTable) GetId(fn types.FaceNodes) (id int, isNew bool) {
	if id = ft.FindId(fn); id >= 0 {
		return id, false
	}
	id = len(ft.faces)
	ft.faces = append(ft.faces, Face{Attribute: -1, Index: -1, Elem: [2]int{-1, -1}})
	ft.nodes = append(ft.nodes, fn)
	ft.ids[fn.Key()] = id
	ft.live++
	return id, true
}

// Get is GetId returning the face itself
func (ft *FaceTable) Get(fn types.FaceNodes) *Face {
	id, _ := ft.GetId(fn)
	return &ft.faces[id]
}

// Delete removes the face from the lookup, its id is not reused
func (ft *FaceTable) Delete(id int) {
	f := ft.At(id)
	if f.unused {
		return
	}
	delete(ft.ids, ft.nodes[id].Key())
	f.unused = true
	f.Elem = [2]int{-1, -1}
	ft.live--
}

// Each visits the faces in use in id order
func (ft *FaceTable) Each(fn func(id int, f *Face)) {
	for id := range ft.faces {
		if !ft.faces[id].unused {
			fn(id, &ft.faces[id])
		}
	}
}
