package submesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/ncsubmesh/comm"
	"github.com/notargets/ncsubmesh/geometry"
	"github.com/notargets/ncsubmesh/mesh"
	"github.com/notargets/ncsubmesh/ncmesh"
	"github.com/notargets/ncsubmesh/types"
)

func newParent(t *testing.T, m *mesh.Mesh) *ncmesh.NCMesh {
	nc, err := ncmesh.FromMesh(m, nil)
	require.NoError(t, err)
	return nc
}

func withDebug(t *testing.T) {
	Debug = true
	t.Cleanup(func() { Debug = false })
}

// extract turns the panics of NewSubMesh back into errors
func extract(parent *ncmesh.NCMesh, from From, attrs ...int) (sm *SubMesh, err error) {
	defer func() {
		if r := recover(); r != nil {
			var ok bool
			if err, ok = r.(error); !ok {
				panic(r)
			}
		}
	}()
	return NewSubMesh(parent, from, attrs), nil
}

func assertCoordinates(t *testing.T, sm *SubMesh) {
	nsm := sm.NC
	require.Equal(t, 3*len(nsm.ParentNodeIDs), len(nsm.Coordinates))
	for i, pn := range nsm.ParentNodeIDs {
		assert.Equal(t, sm.Parent.CalcVertexPos(pn), nsm.CalcVertexPos(i), "node %d", i)
	}
}

func TestUniqueIndexGenerator(t *testing.T) {
	g := NewUniqueIndexGenerator()
	id, isNew := g.Get(42)
	assert.Equal(t, 0, id)
	assert.True(t, isNew)
	id, isNew = g.Get(7)
	assert.Equal(t, 1, id)
	assert.True(t, isNew)
	id, isNew = g.Get(42)
	assert.Equal(t, 0, id)
	assert.False(t, isNew)
	assert.Equal(t, 1, g.Find(7))
	assert.Equal(t, -1, g.Find(3))
	assert.Equal(t, 2, g.Size())
}

func TestParseFrom(t *testing.T) {
	f, err := ParseFrom("Boundary")
	require.NoError(t, err)
	assert.Equal(t, Boundary, f)
	f, err = ParseFrom("")
	require.NoError(t, err)
	assert.Equal(t, Domain, f)
	assert.Equal(t, "domain", f.String())
	_, err = ParseFrom("volume")
	assert.Error(t, err)
}

func TestParentMustBeUpdated(t *testing.T) {
	parent := newParent(t, mesh.NewStructuredQuadMesh(1, 1))
	_, err := extract(parent, Domain, 1)
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestDomainRefinedQuad(t *testing.T) {
	withDebug(t)
	parent := newParent(t, mesh.NewStructuredQuadMesh(1, 1))
	parent.Refine(0)
	parent.Update()

	sm, err := extract(parent, Domain, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, sm.NE())
	assert.Equal(t, 9, sm.NV())

	nsm := sm.NC
	assert.Equal(t, 2, nsm.Dim)
	assert.Equal(t, 5, len(nsm.Elements))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, nsm.ParentElementIDs)
	assert.Equal(t, 1, nsm.RootCount)
	assert.Equal(t, 4, nsm.NElements)
	// Every parent node is used by the selection, in the same order
	assert.Equal(t, 21, nsm.Nodes.Size())
	for i, pn := range nsm.ParentNodeIDs {
		assert.Equal(t, i, pn)
	}
	assert.Equal(t, 12, nsm.Faces.Size())
	bottom := nsm.Faces.FindId(types.NewFaceNodes(0, 0, 4, 4))
	require.True(t, bottom >= 0)
	assert.Equal(t, 1, nsm.Faces.At(bottom).Attribute)
	assert.Equal(t, []int{0, 1, 2, 3}, sm.ParentElementIDs)
	assert.Equal(t, []int{0, 1, 2, 3}, sm.ParentToSubMeshElementIDs)
	assertCoordinates(t, sm)
	assert.NoError(t, sm.CheckConsistency())
}

func TestDomainByAttribute(t *testing.T) {
	m := mesh.NewStructuredQuadMesh(2, 1)
	m.ElementTags[1] = 2
	parent := newParent(t, m)
	parent.Refine(1)
	parent.Update()

	sm, err := extract(parent, Domain, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, sm.NE())
	assert.Equal(t, 9, sm.NV())
	assert.Equal(t, []int{-1, 0, 1, 2, 3}, sm.ParentToSubMeshElementIDs)
	assert.Equal(t, 5, len(sm.NC.Elements))
	assert.Equal(t, 21, sm.NC.Nodes.Size())
	assert.NoError(t, sm.CheckConsistency())

	// The coarse neighbor keeps its hanging edge node
	sm, err = extract(parent, Domain, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sm.NE())
	assert.Equal(t, 4, sm.NV())
	assert.Equal(t, 1, len(sm.NC.Elements))
	assert.Equal(t, 8, sm.NC.Nodes.Size())
	assert.Equal(t, 4, sm.NC.Faces.Size())
	assertCoordinates(t, sm)
	assert.NoError(t, sm.CheckConsistency())

	sm, err = extract(parent, Domain, 99)
	require.NoError(t, err)
	assert.Equal(t, 0, sm.NE())
	assert.Equal(t, 0, len(sm.NC.Elements))
	assert.NoError(t, sm.CheckConsistency())
}

func TestBoundaryRefinedQuadSide(t *testing.T) {
	withDebug(t)
	parent := newParent(t, mesh.NewStructuredQuadMesh(1, 1))
	parent.Refine(0)
	parent.Update()

	sm, err := extract(parent, Boundary, 1)
	require.NoError(t, err)
	nsm := sm.NC
	assert.Equal(t, 1, nsm.Dim)
	require.Equal(t, 3, len(nsm.Elements))
	assert.Equal(t, 1, nsm.RootCount)
	assert.Equal(t, 2, nsm.NElements)

	// The coarse side was replaced by its halves, its element has no parent face
	left := parent.Faces.FindId(types.NewFaceNodes(0, 0, 4, 4))
	right := parent.Faces.FindId(types.NewFaceNodes(4, 4, 1, 1))
	assert.Equal(t, []int{-1, left, right}, nsm.ParentElementIDs)
	root := &nsm.Elements[0]
	assert.Equal(t, geometry.Segment, root.Geom)
	assert.Equal(t, geometry.RefX, root.RefType)
	assert.Equal(t, []int{1, 2}, root.Children())
	assert.Equal(t, types.NewFaceNodes(0, 0, 1, 1), nsm.SourceFaceNodes(0))

	assert.Equal(t, []int{0, 1, 4}, nsm.ParentNodeIDs)
	mid := nsm.Nodes.At(2)
	assert.Equal(t, [2]int{0, 1}, [2]int{mid.P1, mid.P2})
	assert.Equal(t, []int{0, 2}, nsm.Elements[1].Nodes())
	assert.Equal(t, []int{2, 1}, nsm.Elements[2].Nodes())
	assert.InDeltaSlice(t, []float64{0.5, 0, 0}, nsm.CalcVertexPos(2), 1e-14)
	assertCoordinates(t, sm)

	toBdr := parent.GetFaceToBdrElMap()
	assert.Equal(t, []int{
		toBdr[parent.Faces.At(left).Index],
		toBdr[parent.Faces.At(right).Index],
	}, sm.ParentElementIDs)
	assert.Equal(t, 3, sm.NV())
	assert.NoError(t, sm.CheckConsistency())
}

func TestBoundaryClosedLoop(t *testing.T) {
	withDebug(t)
	parent := newParent(t, mesh.NewStructuredQuadMesh(1, 1))
	parent.Refine(0)
	parent.Update()

	sm, err := extract(parent, Boundary, 1, 2, 3, 4)
	require.NoError(t, err)
	nsm := sm.NC
	assert.Equal(t, 12, len(nsm.Elements))
	assert.Equal(t, 4, nsm.RootCount)
	assert.Equal(t, 8, nsm.NElements)
	assert.Equal(t, 8, sm.NE())
	assert.Equal(t, 8, nsm.Nodes.Size())
	// Each point is shared by two segments
	assert.Equal(t, 8, nsm.Faces.Size())
	// Roots ordered by their sorted corner nodes: bottom, left, right, top
	for i, attr := range []int{1, 4, 2, 3} {
		assert.Equal(t, attr, nsm.Elements[i].Attribute, "root %d", i)
		assert.Equal(t, -1, nsm.ParentElementIDs[i], "root %d", i)
	}
	for i := 4; i < len(nsm.Elements); i++ {
		assert.Equal(t, (i-4)/2, nsm.Elements[i].Parent)
	}
	assertCoordinates(t, sm)
	assert.NoError(t, sm.CheckConsistency())
}

func TestBoundaryRefinedHexFace(t *testing.T) {
	withDebug(t)
	parent := newParent(t, mesh.NewStructuredHexMesh(1, 1, 1))
	parent.Refine(0)
	parent.Update()

	sm, err := extract(parent, Boundary, 1)
	require.NoError(t, err)
	nsm := sm.NC
	assert.Equal(t, 2, nsm.Dim)
	require.Equal(t, 5, len(nsm.Elements))
	assert.Equal(t, 1, nsm.RootCount)
	assert.Equal(t, 4, nsm.NElements)
	assert.Equal(t, geometry.Square, nsm.Elements[0].Geom)
	assert.Equal(t, geometry.RefXY, nsm.Elements[0].RefType)
	assert.Equal(t, -1, nsm.ParentElementIDs[0])
	// 9 lattice nodes of the face and the midpoints of its 12 fine edges
	assert.Equal(t, 21, nsm.Nodes.Size())
	assert.Equal(t, 12, nsm.Faces.Size())
	assert.Equal(t, 9, sm.NV())
	assertCoordinates(t, sm)
	for i := 0; i < nsm.Nodes.Size(); i++ {
		assert.Equal(t, 0., nsm.CalcVertexPos(i)[0], "node %d", i)
	}
	// Child k holds coarse vertex k
	corners := nsm.SourceFaceNodes(0).Vertices()
	for k, c := range nsm.Elements[0].Children() {
		var held []int
		for _, n := range nsm.Elements[c].Nodes() {
			held = append(held, nsm.ParentNodeIDs[n])
		}
		assert.Contains(t, held, corners[k], "child %d", k)
	}
	assert.NoError(t, sm.CheckConsistency())
}

// Two refined neighbors of a coarse quad see the shared master side from
// opposite directions, so the element made for it must be turned around once
// the second slave reaches it
func TestBoundaryReorientsSharedParent(t *testing.T) {
	withDebug(t)
	nc := ncmesh.New(2, 2, nil)
	for v := 0; v <= 6; v++ {
		nc.Nodes.Alloc(v, v, v)
	}
	a := ncmesh.NewElement(geometry.Square, 1)
	copy(a.Node[:], []int{0, 1, 2, 3})
	nc.RefElement(nc.AddElement(a))
	m := nc.Nodes.FindId(1, 2)
	require.Equal(t, 8, m)
	nc.SetFaceAttribute(types.NewFaceNodes(1, 1, 2, 2), 5)

	b1 := ncmesh.NewElement(geometry.Square, 1)
	copy(b1.Node[:], []int{1, 4, 5, m})
	nc.RefElement(nc.AddElement(b1))
	b2 := ncmesh.NewElement(geometry.Square, 1)
	copy(b2.Node[:], []int{m, 2, 6, 5})
	nc.RefElement(nc.AddElement(b2))
	nc.Update()

	master := nc.Faces.FindId(types.NewFaceNodes(1, 1, 2, 2))
	require.True(t, master >= 0)
	assert.Equal(t, ncmesh.Master, nc.GetFaceList().GetMeshIdType(nc.Faces.At(master).Index))
	assert.Equal(t, 2, nc.NBE())

	sm, err := extract(nc, Boundary, 5)
	require.NoError(t, err)
	nsm := sm.NC
	require.Equal(t, 3, len(nsm.Elements))
	slave1 := nc.Faces.FindId(types.NewFaceNodes(1, 1, m, m))
	slave2 := nc.Faces.FindId(types.NewFaceNodes(m, m, 2, 2))
	assert.Equal(t, []int{master, slave1, slave2}, nsm.ParentElementIDs)
	// The master is stored in the orientation of the last slave to reach it
	assert.Equal(t, types.NewFaceNodes(1, 1, 2, 2), nsm.SourceFaceNodes(0))
	root := &nsm.Elements[0]
	assert.Equal(t, []int{1, 2}, root.Children())

	assert.Equal(t, []int{1, 2, m}, nsm.ParentNodeIDs)
	assert.Equal(t, []int{2, 0}, nsm.Elements[1].Nodes())
	assert.Equal(t, []int{2, 1}, nsm.Elements[2].Nodes())
	mid := nsm.Nodes.At(2)
	assert.Equal(t, [2]int{0, 1}, [2]int{mid.P1, mid.P2})

	assert.Equal(t, 2, sm.NE())
	assert.Equal(t, []int{0, 1}, sm.ParentElementIDs)
	assert.Equal(t, []int{1, 2, 7}, sm.ParentVertexIDs)
	assert.Equal(t, 0, len(nsm.Coordinates))
	assert.NoError(t, sm.CheckConsistency())
}

func TestBoundaryRejectsInteriorFaces(t *testing.T) {
	parent := newParent(t, mesh.NewStructuredQuadMesh(2, 1))
	parent.SetFaceAttribute(types.NewFaceNodes(1, 1, 4, 4), 7)
	parent.Update()
	_, err := extract(parent, Boundary, 7)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestRanksAgreeOnRoots(t *testing.T) {
	withDebug(t)
	subs := make([]*SubMesh, 2)
	err := comm.NewWorld(2).Run(func(c *comm.Comm) {
		parent, err := ncmesh.FromMesh(mesh.NewStructuredQuadMesh(4, 1), c)
		if err != nil {
			panic(err)
		}
		parent.RefineUniformly(1)
		parent.AssignRootRanks([]int{0, 0, 1, 1})
		parent.ExchangeFaceNbrData()
		parent.Prune()
		parent.Update()
		subs[c.Rank()] = NewSubMesh(parent, Domain, []int{1})
	})
	require.NoError(t, err)
	for rank, sm := range subs {
		assert.Equal(t, 4, sm.NC.RootCount, "rank %d", rank)
		assert.Equal(t, 8, sm.NE(), "rank %d", rank)
		assert.Equal(t, 8, sm.NC.NElements, "rank %d", rank)
		assert.Equal(t, 2, sm.NC.NGhostElements, "rank %d", rank)
		assert.NoError(t, sm.CheckConsistency(), "rank %d", rank)
	}
}

func TestBoundaryRanksAgreeOnRoots(t *testing.T) {
	withDebug(t)
	for _, tc := range []struct {
		nranks int
		attrs  []int
		roots  int
	}{
		{2, []int{1}, 1},
		{3, []int{3}, 2},
		{2, []int{1, 2, 3, 4, 5, 6}, 10},
		{4, []int{1, 2, 3, 4, 5, 6}, 10},
	} {
		subs := make([]*SubMesh, tc.nranks)
		err := comm.NewWorld(tc.nranks).Run(func(c *comm.Comm) {
			parent, err := ncmesh.FromMesh(mesh.NewStructuredHexMesh(2, 1, 1), c)
			if err != nil {
				panic(err)
			}
			parent.RefineUniformly(1)
			// Contiguous runs of leaves, so the trees straddle ranks
			ranks := make([]int, parent.NumLeaves())
			for i := range ranks {
				ranks[i] = i * tc.nranks / len(ranks)
			}
			parent.AssignLeafRanks(ranks)
			parent.ExchangeFaceNbrData()
			parent.Prune()
			parent.Update()
			subs[c.Rank()] = NewSubMesh(parent, Boundary, tc.attrs)
		})
		require.NoError(t, err, "%d ranks, attributes %v", tc.nranks, tc.attrs)
		owned := 0
		for rank, sm := range subs {
			assert.Equal(t, tc.roots, sm.NC.RootCount, "rank %d of %d", rank, tc.nranks)
			assert.Equal(t, 2, sm.NC.Dim)
			assert.Equal(t, sm.NE(), sm.NC.NElements, "rank %d of %d", rank, tc.nranks)
			assert.NoError(t, sm.CheckConsistency(), "rank %d of %d", rank, tc.nranks)
			owned += sm.NE()
		}
		// Every root face is split in four and each quarter has one owner
		assert.Equal(t, 4*tc.roots, owned, "%d ranks, attributes %v", tc.nranks, tc.attrs)
	}
}

func TestRanksDisagreeOnRoots(t *testing.T) {
	withDebug(t)
	err := comm.NewWorld(2).Run(func(c *comm.Comm) {
		m := mesh.NewStructuredQuadMesh(2, 1)
		m.ElementTags[1] = 2
		parent, err := ncmesh.FromMesh(m, c)
		if err != nil {
			panic(err)
		}
		parent.Update()
		attrs := []int{1}
		if c.Rank() == 1 {
			attrs = []int{1, 2}
		}
		NewSubMesh(parent, Domain, attrs)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRankDisagreement)
	assert.Contains(t, err.Error(), "ranks must agree on number of root elements")
}

func TestTransferMap(t *testing.T) {
	m := mesh.NewStructuredQuadMesh(2, 1)
	m.ElementTags[1] = 2
	parent := newParent(t, m)
	parent.Refine(1)
	parent.Update()
	sm, err := extract(parent, Domain, 2)
	require.NoError(t, err)

	tm := NewTransferMap(sm)
	r, c := tm.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 5, c)
	x := mat.NewVecDense(5, []float64{0, 10, 20, 30, 40})
	y := tm.ParentToSub(x)
	assert.Equal(t, []float64{10, 20, 30, 40}, y.RawVector().Data)

	y.ScaleVec(2, y)
	z := mat.NewVecDense(5, []float64{-1, -1, -1, -1, -1})
	tm.SubToParent(y, z)
	assert.Equal(t, []float64{-1, 20, 40, 60, 80}, z.RawVector().Data)
	assert.Panics(t, func() { tm.ParentToSub(mat.NewVecDense(3, nil)) })

	sm, err = extract(parent, Domain, 99)
	require.NoError(t, err)
	tm = NewTransferMap(sm)
	assert.Equal(t, 0, tm.ParentToSub(x).Len())
}

// triangleParent holds the coarse vertices 0, 1, 2 and the midpoints
// m01 = 3, m12 = 4, m20 = 5 of one refined triangular face
func triangleParent() *ncmesh.NCMesh {
	parent := ncmesh.New(3, 3, nil)
	for v := 0; v < 3; v++ {
		parent.Nodes.Alloc(v, v, v)
	}
	parent.Nodes.Alloc(3, 0, 1)
	parent.Nodes.Alloc(4, 1, 2)
	parent.Nodes.Alloc(5, 2, 0)
	return parent
}

func newFaceSubMesh(parent *ncmesh.NCMesh) *NCSubMesh {
	return &NCSubMesh{
		NCMesh:                    ncmesh.New(parent.Dim-1, parent.SpaceDim, nil),
		Parent:                    parent,
		From:                      Boundary,
		ParentToSubMeshElementIDs: make(map[int]int),
		ParentToSubMeshNodeIDs:    make(map[int]int),
		nodeIDs:                   NewUniqueIndexGenerator(),
	}
}

// hang adds a leaf for fn and walks it up to its root
func hang(nsm *NCSubMesh, byFace map[types.FaceKey]*faceEntry, fn types.FaceNodes) int {
	elem := nsm.newBoundaryElement(fn, 1, -1)
	byFace[fn.Key()] = &faceEntry{nodes: fn, elem: elem}
	nsm.ascend(fn, elem, 1, byFace)
	return elem
}

func TestBoundaryTriangleAscent(t *testing.T) {
	const m01, m12, m20 = 3, 4, 5
	nsm := newFaceSubMesh(triangleParent())
	byFace := make(map[types.FaceKey]*faceEntry)
	// The central child comes first and fixes a rotated orientation of the root
	central := hang(nsm, byFace, types.NewFaceNodes(m20, m01, m12, -1))
	hang(nsm, byFace, types.NewFaceNodes(1, m12, m01, -1))
	hang(nsm, byFace, types.NewFaceNodes(0, m01, m20, -1))
	hang(nsm, byFace, types.NewFaceNodes(m20, m12, 2, -1))

	require.Equal(t, 5, len(nsm.Elements))
	root := nsm.Elements[central].Parent
	require.True(t, root >= 0)
	el := nsm.Elements[root]
	assert.Equal(t, -1, el.Parent)
	assert.Equal(t, geometry.Triangle, el.Geom)
	src := nsm.SourceFaceNodes(root)
	assert.Equal(t, types.NewFaceNodes(0, 1, 2, -1), src)
	assert.Equal(t, central, el.Child[3])
	for k := 0; k < 3; k++ {
		c := el.Child[k]
		require.True(t, c >= 0, "slot %d", k)
		assert.Equal(t, root, nsm.Elements[c].Parent)
		assert.Contains(t, nsm.SourceFaceNodes(c).Vertices(), src[k], "slot %d", k)
	}
	assert.Equal(t, []int{3, 2, 4, 0}, el.Child[:4])
	assert.NoError(t, el.Validate())
}

func TestBoundaryLeafBecomesParent(t *testing.T) {
	// The coarse face is already a leaf, once in the orientation its child
	// computes and once rotated
	for _, coarse := range []types.FaceNodes{
		types.NewFaceNodes(0, 1, 2, -1),
		types.NewFaceNodes(1, 2, 0, -1),
	} {
		nsm := newFaceSubMesh(triangleParent())
		byFace := make(map[types.FaceKey]*faceEntry)
		leaf := nsm.newBoundaryElement(coarse, 1, -1)
		copy(nsm.Elements[leaf].Node[:3], coarse.Vertices())
		byFace[coarse.Key()] = &faceEntry{nodes: coarse, elem: leaf}

		corner := hang(nsm, byFace, types.NewFaceNodes(0, 3, 5, -1))
		assert.Equal(t, 2, len(nsm.Elements))
		el := nsm.Elements[leaf]
		assert.False(t, el.IsLeaf(), "coarse %v", coarse)
		assert.Equal(t, corner, el.Child[0], "coarse %v", coarse)
		for k, n := range el.Node {
			assert.Equal(t, -1, n, "coarse %v node %d", coarse, k)
		}
		assert.Equal(t, types.NewFaceNodes(0, 1, 2, -1), nsm.SourceFaceNodes(leaf))
	}
}
