package ncmesh

import "fmt"

// MeshIdType classifies a face in the non-conforming face list
type MeshIdType uint8

const (
	Conforming MeshIdType = iota
	Master
	Slave
	Unrecognized
)

func (t MeshIdType) String() string {
	return [...]string{"Conforming", "Master", "Slave", "Unrecognized"}[t]
}

// NCList holds the face classification by face index. A master is a face
// whose finer faces are also registered (a coarse leaf next to refined
// neighbors), its slaves are those finer faces.
type NCList struct {
	Types    []MeshIdType
	MasterOf []int // Slave face index -> master face index, -1 otherwise
}

func (l *NCList) GetMeshIdType(faceIndex int) MeshIdType {
	if faceIndex < 0 || faceIndex >= len(l.Types) {
		return Unrecognized
	}
	return l.Types[faceIndex]
}

// Slaves returns the slave face indices of a master, ascending
func (l *NCList) Slaves(master int) (slaves []int) {
	for s, m := range l.MasterOf {
		if m == master {
			slaves = append(slaves, s)
		}
	}
	return
}

func (nc *NCMesh) GetFaceList() *NCList { return &nc.NCList }

// FaceRank is the lowest rank of the leaves adjacent to a face
func (nc *NCMesh) FaceRank(f *Face) int {
	rank := -1
	for _, e := range f.Elem {
		if e < 0 {
			continue
		}
		if r := nc.Elements[e].Rank; rank < 0 || r < rank {
			rank = r
		}
	}
	return rank
}

// Update rebuilds everything derived from the elements, nodes and faces:
// leaf numbering (owned leaves first), vertex numbering, face indices, the
// non-conforming face list and the boundary elements.
func (nc *NCMesh) Update() {
	nc.InitRootElements()
	nc.InitGeomFlags()
	if len(nc.RootState) != nc.RootCount {
		nc.InitRootState(nc.RootCount)
	}

	var owned, ghosts, remote []int
	for _, l := range nc.Leaves() {
		switch {
		case nc.Elements[l].Rank == nc.MyRank:
			owned = append(owned, l)
		case nc.ghost[l]:
			ghosts = append(ghosts, l)
		default:
			remote = append(remote, l)
		}
	}
	for i := range nc.Elements {
		nc.Elements[i].Index = -1
	}
	nc.LeafElements = append(append(owned, ghosts...), remote...)
	for i, l := range nc.LeafElements {
		nc.Elements[l].Index = i
	}
	nc.NElements, nc.NGhostElements = len(owned), len(ghosts)

	nc.Nodes.UpdateUnused()
	nc.VertexNodeID = nc.VertexNodeID[:0]
	for id := 0; id < nc.Nodes.Size(); id++ {
		n := nc.Nodes.At(id)
		n.VertIndex = -1
		if !n.Unused && n.HasVertex() {
			n.VertIndex = len(nc.VertexNodeID)
			nc.VertexNodeID = append(nc.VertexNodeID, id)
		}
	}

	index := 0
	nc.Faces.Each(func(_ int, f *Face) {
		f.Index = index
		index++
	})
	nc.buildNCList()
	nc.buildBoundary()
}

func (nc *NCMesh) buildNCList() {
	n := nc.Faces.Size()
	nc.NCList = NCList{
		Types:    make([]MeshIdType, n),
		MasterOf: make([]int, n),
	}
	for i := range nc.NCList.MasterOf {
		nc.NCList.MasterOf[i] = -1
	}
	nc.Faces.Each(func(id int, f *Face) {
		fn := nc.Faces.Nodes(id)
		for nc.ParentFaceNodes(&fn) >= 0 {
			if mid := nc.Faces.FindId(fn); mid >= 0 {
				nc.NCList.MasterOf[f.Index] = nc.Faces.At(mid).Index
				break
			}
		}
	})
	for s, m := range nc.NCList.MasterOf {
		if m >= 0 {
			nc.NCList.Types[s] = Slave
		}
	}
	for _, m := range nc.NCList.MasterOf {
		if m >= 0 {
			nc.NCList.Types[m] = Master
		}
	}
	nc.Faces.Each(func(_ int, f *Face) {
		if nc.NCList.Types[f.Index] != Conforming {
			return
		}
		for _, e := range f.Elem {
			if e >= 0 && (nc.Elements[e].Rank == nc.MyRank || nc.ghost[e]) {
				return
			}
		}
		nc.NCList.Types[f.Index] = Unrecognized
	})
}

// buildBoundary numbers the boundary elements of this rank: attributed faces
// that are not masters and whose lowest ranked neighbor is this rank
func (nc *NCMesh) buildBoundary() {
	nc.BdrElementFace = nc.BdrElementFace[:0]
	nc.FaceToBdrElMap = make([]int, nc.Faces.Size())
	for i := range nc.FaceToBdrElMap {
		nc.FaceToBdrElMap[i] = -1
	}
	nc.Faces.Each(func(id int, f *Face) {
		if f.Attribute < 0 || nc.NCList.Types[f.Index] == Master || f.NumElements() == 0 {
			return
		}
		if nc.FaceRank(f) != nc.MyRank {
			return
		}
		nc.FaceToBdrElMap[f.Index] = len(nc.BdrElementFace)
		nc.BdrElementFace = append(nc.BdrElementFace, id)
	})
}

func (nc *NCMesh) GetFaceToBdrElMap() []int { return nc.FaceToBdrElMap }

func (nc *NCMesh) NBE() int { return len(nc.BdrElementFace) }

// InitRootElements counts the roots, which must lead the element array
func (nc *NCMesh) InitRootElements() {
	nc.RootCount = 0
	for i := range nc.Elements {
		if nc.Elements[i].Parent >= 0 {
			continue
		}
		if i != nc.RootCount {
			panic(fmt.Errorf("root element %d follows non-root elements, %d roots before it", i, nc.RootCount))
		}
		nc.RootCount++
	}
}

// InitRootState records for every root the local index of the first vertex
// it shares with the previous root, the entry point of the traversal through
// the roots; 0 where there is none.
func (nc *NCMesh) InitRootState(count int) {
	nc.RootState = make([]int, count)
	corners := func(e int) []int {
		nv := len(nc.Elements[e].Nodes())
		c := make([]int, nv)
		for k := range c {
			c[k] = nc.cornerNode(e, k)
		}
		return c
	}
	for r := 1; r < count; r++ {
		prev := corners(r - 1)
	search:
		for k, v := range corners(r) {
			for _, pv := range prev {
				if v == pv {
					nc.RootState[r] = k
					break search
				}
			}
		}
	}
}

// InitGeomFlags sets bit g for every geometry g present
func (nc *NCMesh) InitGeomFlags() {
	nc.GeomFlags = 0
	for i := range nc.Elements {
		nc.GeomFlags |= 1 << uint(nc.Elements[i].Geom)
	}
}

// MaxDepth is the deepest refinement level below any root
func (nc *NCMesh) MaxDepth() (depth int) {
	for i := range nc.Elements {
		d := 0
		for p := nc.Elements[i].Parent; p >= 0; p = nc.Elements[p].Parent {
			d++
		}
		depth = max(depth, d)
	}
	return
}
