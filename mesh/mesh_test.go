package mesh

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTempSU2File(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "test.su2")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))
	return tmpFile
}

func countBoundary(m *Mesh) (n int) {
	for _, nbrs := range m.EToE {
		for _, nbr := range nbrs {
			if nbr < 0 {
				n++
			}
		}
	}
	return
}

func TestStructuredMeshes(t *testing.T) {
	testCases := []struct {
		name                           string
		m                              *Mesh
		nv, ne, nf, nbdr, nmark, ntags int
	}{
		{"Quad2x2", NewStructuredQuadMesh(2, 2), 9, 4, 12, 8, 8, 4},
		{"Tri1x1", NewStructuredTriMesh(1, 1), 4, 2, 5, 4, 4, 4},
		{"Hex1x1x2", NewStructuredHexMesh(1, 1, 2), 12, 2, 11, 10, 10, 6},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.m
			assert.Equal(t, tc.nv, m.NumVertices)
			assert.Equal(t, tc.ne, m.NumElements)
			assert.Equal(t, tc.nf, m.NumFaces)
			assert.Equal(t, tc.nbdr, countBoundary(m))
			assert.Equal(t, tc.nmark, len(m.BoundaryFaces))
			assert.Equal(t, tc.ntags, len(m.BoundaryTags))
			require.NoError(t, m.Validate())
			// Every marked face is a face of the mesh with a single element
			for _, bf := range m.BoundaryFaces {
				faceID, ok := m.FaceMap[FaceKey(bf.Vertices)]
				require.True(t, ok, "%v", bf.Vertices)
				face := m.Faces[faceID]
				assert.Equal(t, -1, m.EToE[face.Element][face.LocalID])
			}
		})
	}
	assert.Panics(t, func() { NewStructuredQuadMesh(0, 1) })
}

func TestConnectivity(t *testing.T) {
	m := NewStructuredQuadMesh(2, 1)
	// The shared edge of the two quads is face 1 of element 0 and face 3 of element 1
	assert.Equal(t, []int{-1, 1, -1, -1}, m.EToE[0])
	assert.Equal(t, []int{-1, -1, -1, 0}, m.EToE[1])
	assert.Equal(t, m.EToF[0][1], m.EToF[1][3])
	assert.Equal(t, []float64{0.25, 0.5, 0}, m.Centroid(0))

	m.TagElements(func(elem int, c []float64) int {
		if c[0] < 0.5 {
			return 1
		}
		return 2
	})
	assert.Equal(t, []int{1, 2}, m.ElementTags)
	tags := m.BoundaryFaceTags()
	assert.Equal(t, 1, tags[FaceKey([]int{1, 0})])
	assert.Equal(t, 2, tags[FaceKey([]int{2, 5})])
}

func TestReadSU2(t *testing.T) {
	content := `% two quads
NDIME= 2
NELEM= 2
9 0 1 4 3 0
9 1 2 5 4 1
NPOIN= 6
0.0 0.0 0
0.5 0.0 1
1.0 0.0 2
0.0 1.0 3
0.5 1.0 4
1.0 1.0 5
NMARK= 2
MARKER_TAG= wall
MARKER_ELEMS= 2
3 0 1
3 1 2
MARKER_TAG= inflow
MARKER_ELEMS= 1
3 3 0
`
	m, err := ReadSU2(createTempSU2File(t, content))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Dim)
	assert.Equal(t, 2, m.NumElements)
	assert.Equal(t, 6, m.NumVertices)
	assert.Equal(t, []ElementType{Quad, Quad}, m.ElementTypes)
	assert.Equal(t, []int{1, 2, 5, 4}, m.EtoV[1])
	assert.Equal(t, map[int]string{1: "wall", 2: "inflow"}, m.BoundaryTags)
	require.Equal(t, 3, len(m.BoundaryFaces))
	assert.Equal(t, BoundaryFace{Vertices: []int{3, 0}, Tag: 2}, m.BoundaryFaces[2])
	assert.Equal(t, []float64{0.5, 1.0, 0}, m.Vertices[4])
	require.NoError(t, m.Validate())

	hex := `NDIME= 3
NPOIN= 8
0 0 0
1 0 0
1 1 0
0 1 0
0 0 1
1 0 1
1 1 1
0 1 1
NELEM= 1
12 0 1 2 3 4 5 6 7 0
NMARK= 1
MARKER_TAG= bottom
MARKER_ELEMS= 1
9 0 3 2 1
`
	m, err = ReadMeshFile(createTempSU2File(t, hex))
	require.NoError(t, err)
	assert.Equal(t, Hex, m.ElementTypes[0])
	assert.Equal(t, 6, m.NumFaces)
	assert.Equal(t, []int{0, 3, 2, 1}, m.BoundaryFaces[0].Vertices)
}

func TestReadSU2Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"Invalid dimension", "NDIME= 4\nNPOIN= 0", "unsupported dimension"},
		{"Missing dimension", "NPOIN= 0", "NDIME"},
		{"Bad element", "NDIME= 2\nNELEM= 1\n7 0 1 2", "unsupported SU2 element type"},
		{"Truncated points", "NDIME= 2\nNPOIN= 2\n0 0", "unexpected end of file"},
		{"Bad marker", "NDIME= 2\nNMARK= 1\nMARKER_ELEMS= 0", "MARKER_TAG"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadSU2(createTempSU2File(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
	_, err := ReadMeshFile("mesh.neu")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	m := NewStructuredQuadMesh(1, 1)
	m.ElementTypes[0] = Tet
	assert.Error(t, m.Validate())
	m.ElementTypes[0] = Triangle
	assert.Error(t, m.Validate())
	m.ElementTypes[0] = Quad
	m.ElementTags = m.ElementTags[:0]
	assert.Error(t, m.Validate())
}
