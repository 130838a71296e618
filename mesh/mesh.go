package mesh

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/notargets/ncsubmesh/geometry"
)

// ElementType represents different element types
type ElementType int

const (
	Line ElementType = iota
	Triangle
	Quad
	Tet
	Hex
	Prism
	Pyramid
)

func (e ElementType) String() string {
	return [...]string{"Line", "Triangle", "Quad", "Tet", "Hex", "Prism", "Pyramid"}[e]
}

func (e ElementType) GetDimension() int {
	switch e {
	case Line:
		return 1
	case Triangle, Quad:
		return 2
	}
	return 3
}

// Geometry maps the element type onto the refinement topology table. Only
// element types that can be refined have one.
func (e ElementType) Geometry() (g geometry.Geometry, ok bool) {
	switch e {
	case Line:
		return geometry.Segment, true
	case Triangle:
		return geometry.Triangle, true
	case Quad:
		return geometry.Square, true
	case Hex:
		return geometry.Cube, true
	}
	return 0, false
}

// Face represents a face of an element
type Face struct {
	Vertices []int // Sorted vertex indices
	Element  int   // Parent element
	LocalID  int   // Local face ID within element
}

// BoundaryFace is a marked face read from the mesh file or generated
type BoundaryFace struct {
	Vertices []int
	Tag      int
}

// Mesh represents a complete unstructured, conforming mesh with all connectivity
type Mesh struct {
	Dim int

	// Geometry
	Vertices [][]float64 // Vertex coordinates [nvertices][3]

	// Element data
	EtoV         [][]int       // Element to vertex connectivity [nelems][nverts_per_elem]
	ElementTypes []ElementType // Element type for each element
	ElementTags  []int         // Physical group/tag for each element

	// Connectivity (built during initialization)
	EToE [][]int // Element to element connectivity [nelems][nfaces_per_elem]
	EToF [][]int // Element to face connectivity [nelems][nfaces_per_elem]
	EToP []int   // Element to partition mapping (set after partitioning)

	// Face data
	Faces         []Face         // All unique faces in mesh
	FaceMap       map[string]int // Map from sorted vertex string to face ID
	BoundaryFaces []BoundaryFace
	BoundaryTags  map[int]string // Boundary condition tags

	// Mesh statistics
	NumElements int
	NumVertices int
	NumFaces    int
}

func NewMesh() *Mesh {
	return &Mesh{
		FaceMap:      make(map[string]int),
		BoundaryTags: make(map[int]string),
	}
}

// ReadMeshFile reads a mesh file based on extension
func ReadMeshFile(filename string) (*Mesh, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".su2":
		return ReadSU2(filename)
	default:
		return nil, fmt.Errorf("unsupported mesh format: %s", ext)
	}
}

// FaceKey is the orientation free key of a face, shared by both adjacent elements
func FaceKey(verts []int) string {
	sorted := make([]int, len(verts))
	copy(sorted, verts)
	sort.Ints(sorted)
	return fmt.Sprintf("%v", sorted)
}

// BuildConnectivity builds element-to-element and face connectivity
func (m *Mesh) BuildConnectivity() {
	m.NumElements = len(m.EtoV)
	m.NumVertices = len(m.Vertices)
	m.EToE = make([][]int, m.NumElements)
	m.EToF = make([][]int, m.NumElements)
	m.Faces = m.Faces[:0]
	m.FaceMap = make(map[string]int)

	for elemID := 0; elemID < m.NumElements; elemID++ {
		faceVertices := GetElementFaces(m.ElementTypes[elemID], m.EtoV[elemID])

		m.EToE[elemID] = make([]int, len(faceVertices))
		m.EToF[elemID] = make([]int, len(faceVertices))
		for i := range m.EToE[elemID] {
			m.EToE[elemID][i] = -1
			m.EToF[elemID][i] = -1
		}

		for localFaceID, faceVerts := range faceVertices {
			key := FaceKey(faceVerts)
			if faceID, exists := m.FaceMap[key]; exists {
				// Face already exists - this is an interior face
				face := &m.Faces[faceID]
				m.EToE[elemID][localFaceID] = face.Element
				m.EToE[face.Element][face.LocalID] = elemID
				m.EToF[elemID][localFaceID] = faceID
			} else {
				sorted := make([]int, len(faceVerts))
				copy(sorted, faceVerts)
				sort.Ints(sorted)
				faceID := len(m.Faces)
				m.Faces = append(m.Faces, Face{
					Vertices: sorted,
					Element:  elemID,
					LocalID:  localFaceID,
				})
				m.FaceMap[key] = faceID
				m.EToF[elemID][localFaceID] = faceID
			}
		}
	}
	m.NumFaces = len(m.Faces)
}

// GetElementFaces returns the face vertices for each element type. Faces of 2D
// elements are their edges, faces of 1D elements their end points.
func GetElementFaces(elemType ElementType, vertices []int) [][]int {
	switch elemType {
	case Line:
		return [][]int{{vertices[0]}, {vertices[1]}}
	case Triangle:
		return [][]int{
			{vertices[0], vertices[1]},
			{vertices[1], vertices[2]},
			{vertices[2], vertices[0]},
		}
	case Quad:
		return [][]int{
			{vertices[0], vertices[1]},
			{vertices[1], vertices[2]},
			{vertices[2], vertices[3]},
			{vertices[3], vertices[0]},
		}
	case Tet:
		return [][]int{
			{vertices[0], vertices[2], vertices[1]}, // Face 0
			{vertices[0], vertices[1], vertices[3]}, // Face 1
			{vertices[1], vertices[2], vertices[3]}, // Face 2
			{vertices[0], vertices[3], vertices[2]}, // Face 3
		}
	case Hex:
		return [][]int{
			{vertices[0], vertices[3], vertices[2], vertices[1]}, // Face 0 (bottom)
			{vertices[4], vertices[5], vertices[6], vertices[7]}, // Face 1 (top)
			{vertices[0], vertices[1], vertices[5], vertices[4]}, // Face 2
			{vertices[1], vertices[2], vertices[6], vertices[5]}, // Face 3
			{vertices[2], vertices[3], vertices[7], vertices[6]}, // Face 4
			{vertices[3], vertices[0], vertices[4], vertices[7]}, // Face 5
		}
	case Prism:
		return [][]int{
			{vertices[0], vertices[2], vertices[1]},              // Face 0 (bottom tri)
			{vertices[3], vertices[4], vertices[5]},              // Face 1 (top tri)
			{vertices[0], vertices[1], vertices[4], vertices[3]}, // Face 2 (quad)
			{vertices[1], vertices[2], vertices[5], vertices[4]}, // Face 3 (quad)
			{vertices[2], vertices[0], vertices[3], vertices[5]}, // Face 4 (quad)
		}
	case Pyramid:
		return [][]int{
			{vertices[0], vertices[3], vertices[2], vertices[1]}, // Face 0 (base quad)
			{vertices[0], vertices[1], vertices[4]},              // Face 1 (tri)
			{vertices[1], vertices[2], vertices[4]},              // Face 2 (tri)
			{vertices[2], vertices[3], vertices[4]},              // Face 3 (tri)
			{vertices[3], vertices[0], vertices[4]},              // Face 4 (tri)
		}
	default:
		return [][]int{}
	}
}

// Centroid is the vertex average of an element
func (m *Mesh) Centroid(elem int) (c []float64) {
	c = make([]float64, 3)
	verts := m.EtoV[elem]
	for _, v := range verts {
		for d := 0; d < 3 && d < len(m.Vertices[v]); d++ {
			c[d] += m.Vertices[v][d]
		}
	}
	for d := range c {
		c[d] /= float64(len(verts))
	}
	return
}

// TagElements overwrites the element tags with the value fn returns for each
// element centroid
func (m *Mesh) TagElements(fn func(elem int, centroid []float64) int) {
	if len(m.ElementTags) != len(m.EtoV) {
		m.ElementTags = make([]int, len(m.EtoV))
	}
	for k := range m.EtoV {
		m.ElementTags[k] = fn(k, m.Centroid(k))
	}
}

// BoundaryFaceTags returns the tag of every marked face keyed by FaceKey
func (m *Mesh) BoundaryFaceTags() map[string]int {
	tags := make(map[string]int, len(m.BoundaryFaces))
	for _, bf := range m.BoundaryFaces {
		tags[FaceKey(bf.Vertices)] = bf.Tag
	}
	return tags
}

// Validate checks that the mesh can be turned into a refinement forest
func (m *Mesh) Validate() error {
	if len(m.EtoV) == 0 {
		return fmt.Errorf("mesh has no elements")
	}
	if len(m.ElementTypes) != len(m.EtoV) || len(m.ElementTags) != len(m.EtoV) {
		return fmt.Errorf("element arrays disagree: %d elements, %d types, %d tags",
			len(m.EtoV), len(m.ElementTypes), len(m.ElementTags))
	}
	for k, et := range m.ElementTypes {
		g, ok := et.Geometry()
		if !ok {
			return fmt.Errorf("element %d: type %s cannot be refined", k, et)
		}
		if nv := geometry.Info(g).NV; len(m.EtoV[k]) != nv {
			return fmt.Errorf("element %d: %s needs %d vertices, have %d", k, et, nv, len(m.EtoV[k]))
		}
		if et.GetDimension() != m.Dim {
			return fmt.Errorf("element %d: %dD %s in a %dD mesh", k, et.GetDimension(), et, m.Dim)
		}
		for _, v := range m.EtoV[k] {
			if v < 0 || v >= len(m.Vertices) {
				return fmt.Errorf("element %d: vertex %d out of range", k, v)
			}
		}
	}
	return nil
}

// PrintStatistics prints mesh statistics
func (m *Mesh) PrintStatistics() {
	fmt.Printf("Mesh Statistics:\n")
	fmt.Printf("  Dimension: %d\n", m.Dim)
	fmt.Printf("  Vertices: %d\n", m.NumVertices)
	fmt.Printf("  Elements: %d\n", m.NumElements)
	fmt.Printf("  Faces: %d\n", m.NumFaces)

	typeCounts := make(map[ElementType]int)
	for _, t := range m.ElementTypes {
		typeCounts[t]++
	}
	fmt.Printf("  Element types:\n")
	for t, count := range typeCounts {
		fmt.Printf("    %s: %d\n", t, count)
	}
	tagCounts := make(map[int]int)
	for _, tag := range m.ElementTags {
		tagCounts[tag]++
	}
	fmt.Printf("  Element tags: %v\n", tagCounts)

	boundaryFaces := 0
	for i := 0; i < m.NumElements; i++ {
		for _, neighbor := range m.EToE[i] {
			if neighbor < 0 {
				boundaryFaces++
			}
		}
	}
	fmt.Printf("  Boundary faces: %d\n", boundaryFaces)
	markerCounts := make(map[int]int)
	for _, bf := range m.BoundaryFaces {
		markerCounts[bf.Tag]++
	}
	for tag, name := range m.BoundaryTags {
		fmt.Printf("    Marker %d (%s): %d faces\n", tag, name, markerCounts[tag])
	}
}
