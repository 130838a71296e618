package mesh

import "fmt"

// Structured meshes of the unit square / cube. All elements carry tag 1, the
// sides are marked 1..4 in 2D (bottom, right, top, left) and 1..6 in 3D
// (x-, x+, y-, y+, z-, z+).

var (
	sideNames2D = map[int]string{1: "bottom", 2: "right", 3: "top", 4: "left"}
	sideNames3D = map[int]string{1: "xmin", 2: "xmax", 3: "ymin", 4: "ymax", 5: "zmin", 6: "zmax"}
)

func newStructured(dim int, names map[int]string) *Mesh {
	m := NewMesh()
	m.Dim = dim
	for tag, name := range names {
		m.BoundaryTags[tag] = name
	}
	return m
}

func (m *Mesh) addElement(et ElementType, verts ...int) {
	m.EtoV = append(m.EtoV, verts)
	m.ElementTypes = append(m.ElementTypes, et)
	m.ElementTags = append(m.ElementTags, 1)
}

func (m *Mesh) addBoundary(tag int, verts ...int) {
	m.BoundaryFaces = append(m.BoundaryFaces, BoundaryFace{Vertices: verts, Tag: tag})
}

func grid2D(m *Mesh, nx, ny int) func(i, j int) int {
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			m.Vertices = append(m.Vertices, []float64{float64(i) / float64(nx), float64(j) / float64(ny), 0})
		}
	}
	id := func(i, j int) int { return j*(nx+1) + i }
	for i := 0; i < nx; i++ {
		m.addBoundary(1, id(i, 0), id(i+1, 0))
		m.addBoundary(3, id(i+1, ny), id(i, ny))
	}
	for j := 0; j < ny; j++ {
		m.addBoundary(2, id(nx, j), id(nx, j+1))
		m.addBoundary(4, id(0, j+1), id(0, j))
	}
	return id
}

func NewStructuredQuadMesh(nx, ny int) *Mesh {
	if nx < 1 || ny < 1 {
		panic(fmt.Errorf("structured mesh needs at least one cell per direction, have %dx%d", nx, ny))
	}
	m := newStructured(2, sideNames2D)
	id := grid2D(m, nx, ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			m.addElement(Quad, id(i, j), id(i+1, j), id(i+1, j+1), id(i, j+1))
		}
	}
	m.BuildConnectivity()
	return m
}

// NewStructuredTriMesh splits every cell of the quad grid along its diagonal
func NewStructuredTriMesh(nx, ny int) *Mesh {
	if nx < 1 || ny < 1 {
		panic(fmt.Errorf("structured mesh needs at least one cell per direction, have %dx%d", nx, ny))
	}
	m := newStructured(2, sideNames2D)
	id := grid2D(m, nx, ny)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			m.addElement(Triangle, id(i, j), id(i+1, j), id(i+1, j+1))
			m.addElement(Triangle, id(i, j), id(i+1, j+1), id(i, j+1))
		}
	}
	m.BuildConnectivity()
	return m
}

func NewStructuredHexMesh(nx, ny, nz int) *Mesh {
	if nx < 1 || ny < 1 || nz < 1 {
		panic(fmt.Errorf("structured mesh needs at least one cell per direction, have %dx%dx%d", nx, ny, nz))
	}
	m := newStructured(3, sideNames3D)
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				m.Vertices = append(m.Vertices, []float64{
					float64(i) / float64(nx), float64(j) / float64(ny), float64(k) / float64(nz)})
			}
		}
	}
	id := func(i, j, k int) int { return (k*(ny+1)+j)*(nx+1) + i }
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				m.addElement(Hex,
					id(i, j, k), id(i+1, j, k), id(i+1, j+1, k), id(i, j+1, k),
					id(i, j, k+1), id(i+1, j, k+1), id(i+1, j+1, k+1), id(i, j+1, k+1))
			}
		}
	}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			m.addBoundary(1, id(0, j, k), id(0, j, k+1), id(0, j+1, k+1), id(0, j+1, k))
			m.addBoundary(2, id(nx, j, k), id(nx, j+1, k), id(nx, j+1, k+1), id(nx, j, k+1))
		}
	}
	for k := 0; k < nz; k++ {
		for i := 0; i < nx; i++ {
			m.addBoundary(3, id(i, 0, k), id(i+1, 0, k), id(i+1, 0, k+1), id(i, 0, k+1))
			m.addBoundary(4, id(i, ny, k), id(i, ny, k+1), id(i+1, ny, k+1), id(i+1, ny, k))
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			m.addBoundary(5, id(i, j, 0), id(i, j+1, 0), id(i+1, j+1, 0), id(i+1, j, 0))
			m.addBoundary(6, id(i, j, nz), id(i+1, j, nz), id(i+1, j+1, nz), id(i, j+1, nz))
		}
	}
	m.BuildConnectivity()
	return m
}
