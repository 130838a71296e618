package ncmesh

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/ncsubmesh/comm"
	"github.com/notargets/ncsubmesh/geometry"
	"github.com/notargets/ncsubmesh/mesh"
	"github.com/notargets/ncsubmesh/types"
)

// DefaultBoundaryAttribute is given to boundary faces without a marker
const DefaultBoundaryAttribute = 1

// NCMesh is a forest of refinement trees over a conforming root mesh. Every
// rank holds the trees of its own leaves and their neighbors; the rest of the
// forest is collapsed by Prune.
type NCMesh struct {
	Dim, SpaceDim int

	Elements    []Element
	Nodes       *NodeTable
	Faces       *FaceTable
	Coordinates []float64 // 3 per node

	// Filled by InitRootElements / InitRootState / InitGeomFlags
	RootCount int
	RootState []int
	GeomFlags uint

	// Filled by Update
	LeafElements   []int // Owned leaves first, then ghosts, then remote
	NElements      int   // Owned leaves
	NGhostElements int
	VertexNodeID   []int // Vertex index -> node
	NCList         NCList
	BdrElementFace []int // Boundary element -> face id
	FaceToBdrElMap []int // Face index -> boundary element, -1 if none

	Comm           comm.Communicator
	MyRank, NRanks int

	ghost          map[int]bool
	faceAttributes map[types.FaceKey]int
}

// New returns an empty mesh, the base for meshes assembled element by element
func New(dim, spaceDim int, c comm.Communicator) *NCMesh {
	if c == nil {
		c = comm.SelfComm()
	}
	return &NCMesh{
		Dim:            dim,
		SpaceDim:       spaceDim,
		Nodes:          NewNodeTable(),
		Faces:          NewFaceTable(),
		Comm:           c,
		MyRank:         c.Rank(),
		NRanks:         c.Size(),
		ghost:          make(map[int]bool),
		faceAttributes: make(map[types.FaceKey]int),
	}
}

// FromMesh builds the forest with one root per mesh element. Mesh vertices
// become nodes 0..NV-1, marked faces keep their tag as attribute and the
// remaining boundary faces get DefaultBoundaryAttribute.
func FromMesh(m *mesh.Mesh, c comm.Communicator) (nc *NCMesh, err error) {
	if err = m.Validate(); err != nil {
		return nil, err
	}
	spaceDim := m.Dim
	if spaceDim < 2 {
		spaceDim = 2
	}
	nc = New(m.Dim, spaceDim, c)
	for v, coord := range m.Vertices {
		nc.Nodes.Alloc(v, v, v)
		xyz := make([]float64, 3)
		copy(xyz, coord)
		nc.Coordinates = append(nc.Coordinates, xyz...)
	}
	for _, bf := range m.BoundaryFaces {
		nc.faceAttributes[types.FaceNodesFromVertices(bf.Vertices).Key()] = bf.Tag
	}
	for k := range m.EtoV {
		g, _ := m.ElementTypes[k].Geometry()
		el := NewElement(g, m.ElementTags[k])
		copy(el.Node[:], m.EtoV[k])
		nc.AddElement(el)
	}
	for k := range nc.Elements {
		nc.RefElement(k)
	}
	// Root faces on the boundary without a marker
	nc.Faces.Each(func(id int, f *Face) {
		if f.NumElements() == 1 {
			key := nc.Faces.Nodes(id).Key()
			if _, tagged := nc.faceAttributes[key]; !tagged {
				nc.faceAttributes[key] = DefaultBoundaryAttribute
				f.Attribute = DefaultBoundaryAttribute
			}
		}
	})
	return nc, nil
}

func (nc *NCMesh) AddElement(el Element) (id int) {
	id = len(nc.Elements)
	nc.Elements = append(nc.Elements, el)
	return
}

// RefElement signs a leaf in on its vertex and edge nodes and registers its faces
func (nc *NCMesh) RefElement(elem int) {
	el := &nc.Elements[elem]
	gi := geometry.Info(el.Geom)
	for _, n := range el.Nodes() {
		nc.Nodes.At(n).VertRefc++
	}
	for _, e := range gi.Edges {
		id, _ := nc.Nodes.GetId(el.Node[e[0]], el.Node[e[1]])
		nc.setMidpointCoords(id)
		nc.Nodes.At(id).EdgeRefc++
	}
	nc.RegisterFaces(elem)
}

// UnrefElement reverses RefElement; faces no leaf refers to are deleted
func (nc *NCMesh) UnrefElement(elem int) {
	el := &nc.Elements[elem]
	gi := geometry.Info(el.Geom)
	for _, n := range el.Nodes() {
		nc.Nodes.At(n).VertRefc--
	}
	for _, e := range gi.Edges {
		id := nc.Nodes.FindId(el.Node[e[0]], el.Node[e[1]])
		if id < 0 {
			panic(fmt.Errorf("element %d: edge (%d,%d) has no node", elem, el.Node[e[0]], el.Node[e[1]]))
		}
		nc.Nodes.At(id).EdgeRefc--
	}
	for f := range gi.Faces {
		fid := nc.Faces.FindId(nc.ElementFaceNodes(elem, f))
		if fid < 0 {
			panic(fmt.Errorf("element %d: face %d is not registered", elem, f))
		}
		face := nc.Faces.At(fid)
		face.ForgetElement(elem)
		if face.NumElements() == 0 {
			nc.Faces.Delete(fid)
		}
	}
}

// ElementFaceNodes is local face f of a leaf in the element's own orientation
func (nc *NCMesh) ElementFaceNodes(elem, f int) (fn types.FaceNodes) {
	el := &nc.Elements[elem]
	for i, lv := range geometry.Info(el.Geom).Faces[f] {
		if lv < 0 {
			fn[i] = -1
		} else {
			fn[i] = el.Node[lv]
		}
	}
	return
}

// RegisterFaces adds a leaf to all of its faces, creating them as needed
func (nc *NCMesh) RegisterFaces(elem int) {
	gi := geometry.Info(nc.Elements[elem].Geom)
	for f := range gi.Faces {
		fn := nc.ElementFaceNodes(elem, f)
		id, isNew := nc.Faces.GetId(fn)
		face := nc.Faces.At(id)
		if isNew {
			face.Attribute = nc.inheritedFaceAttribute(fn)
		}
		face.RegisterElement(elem)
	}
}

// inheritedFaceAttribute is the attribute of the closest face, the face itself
// included, that carries one
func (nc *NCMesh) inheritedFaceAttribute(fn types.FaceNodes) int {
	for {
		if attr, ok := nc.faceAttributes[fn.Key()]; ok {
			return attr
		}
		if nc.ParentFaceNodes(&fn) < 0 {
			return -1
		}
	}
}

// SetFaceAttribute tags a face and everything later refined out of it
func (nc *NCMesh) SetFaceAttribute(fn types.FaceNodes, attr int) {
	nc.faceAttributes[fn.Key()] = attr
	if id := nc.Faces.FindId(fn); id >= 0 {
		nc.Faces.At(id).Attribute = attr
	}
}

func (nc *NCMesh) setMidpointCoords(id int) {
	need := 3 * (id + 1)
	if len(nc.Coordinates) == 0 || len(nc.Coordinates) >= need {
		return
	}
	for len(nc.Coordinates) < need {
		nc.Coordinates = append(nc.Coordinates, 0)
	}
	n := nc.Nodes.At(id)
	pos := nc.Coordinates[3*id : 3*id+3]
	floats.AddTo(pos, nc.CalcVertexPos(n.P1), nc.CalcVertexPos(n.P2))
	floats.Scale(0.5, pos)
}

// CalcVertexPos is the position of a node; nodes created by refinement sit at
// the midpoint of their parents
func (nc *NCMesh) CalcVertexPos(node int) []float64 {
	if 3*node+3 > len(nc.Coordinates) {
		panic(fmt.Errorf("node %d has no coordinates", node))
	}
	return nc.Coordinates[3*node : 3*node+3]
}

func (nc *NCMesh) HasCoordinates() bool { return len(nc.Coordinates) > 0 }

// HasAttribute reports whether attr is one of attrs
func HasAttribute(attr int, attrs []int) bool {
	for _, a := range attrs {
		if a == attr {
			return true
		}
	}
	return false
}

// Attributes lists the distinct attributes of the leaves, ascending
func (nc *NCMesh) Attributes() (attrs []int) {
	seen := make(map[int]bool)
	for i := range nc.Elements {
		el := &nc.Elements[i]
		if el.IsLeaf() && !seen[el.Attribute] {
			seen[el.Attribute] = true
			attrs = append(attrs, el.Attribute)
		}
	}
	sort.Ints(attrs)
	return
}

// BdrAttributes lists the distinct attributes of the faces, ascending
func (nc *NCMesh) BdrAttributes() (attrs []int) {
	seen := make(map[int]bool)
	nc.Faces.Each(func(_ int, f *Face) {
		if f.Attribute >= 0 && !seen[f.Attribute] {
			seen[f.Attribute] = true
			attrs = append(attrs, f.Attribute)
		}
	})
	sort.Ints(attrs)
	return
}

func (nc *NCMesh) IsGhost(elem int) bool { return nc.ghost[elem] }

// MarkGhost flags a leaf of another rank as a neighbor of this rank's leaves,
// for meshes assembled without ExchangeFaceNbrData
func (nc *NCMesh) MarkGhost(elem int) { nc.ghost[elem] = true }

func (nc *NCMesh) NumLeaves() (n int) {
	for i := range nc.Elements {
		if nc.Elements[i].IsLeaf() {
			n++
		}
	}
	return
}

func (nc *NCMesh) Print() {
	fmt.Printf("NCMesh rank %d/%d: dim %d, %d elements (%d roots, %d leaves, %d owned, %d ghost)\n",
		nc.MyRank, nc.NRanks, nc.Dim, len(nc.Elements), nc.RootCount, nc.NumLeaves(),
		nc.NElements, nc.NGhostElements)
	fmt.Printf("  nodes %d, vertices %d, faces %d, boundary elements %d\n",
		nc.Nodes.Size(), len(nc.VertexNodeID), nc.Faces.Size(), len(nc.BdrElementFace))
	fmt.Printf("  attributes %v, boundary attributes %v\n", nc.Attributes(), nc.BdrAttributes())
}
