package mesh

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// su2ElementType maps SU2 VTK element ids to our types
func su2ElementType(su2Type int) (etype ElementType, numNodes int, ok bool) {
	switch su2Type {
	case 3:
		return Line, 2, true
	case 5:
		return Triangle, 3, true
	case 9:
		return Quad, 4, true
	case 10:
		return Tet, 4, true
	case 12:
		return Hex, 8, true
	case 13:
		return Prism, 6, true
	case 14:
		return Pyramid, 5, true
	}
	return 0, 0, false
}

func readSU2Keyword(line, keyword string) (val int, err error) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, keyword))
	if val, err = strconv.Atoi(rest); err != nil {
		return 0, fmt.Errorf("malformed %s line %q: %w", keyword, line, err)
	}
	return
}

func parseSU2Connectivity(fields []string) (etype ElementType, verts []int, err error) {
	su2Type, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, nil, fmt.Errorf("bad element type %q: %w", fields[0], err)
	}
	etype, numNodes, ok := su2ElementType(su2Type)
	if !ok {
		return 0, nil, fmt.Errorf("unsupported SU2 element type %d", su2Type)
	}
	if len(fields) < numNodes+1 {
		return 0, nil, fmt.Errorf("element type %d needs %d nodes, have %d fields",
			su2Type, numNodes, len(fields)-1)
	}
	verts = make([]int, numNodes)
	for j := 0; j < numNodes; j++ {
		if verts[j], err = strconv.Atoi(fields[1+j]); err != nil {
			return 0, nil, fmt.Errorf("bad node index %q: %w", fields[1+j], err)
		}
	}
	return
}

// ReadSU2 reads an SU2 native format file. Volume elements (of dimension
// NDIME) become mesh elements, every MARKER_TAG section becomes boundary tag
// i+1 with its elements as boundary faces.
func ReadSU2(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mesh := NewMesh()
	scanner := bufio.NewScanner(file)
	nextLine := func() (string, bool) {
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "%") {
				continue
			}
			return line, true
		}
		return "", false
	}

	var ndime int
	for {
		line, ok := nextLine()
		if !ok {
			break
		}
		switch {
		case strings.HasPrefix(line, "NDIME="):
			if ndime, err = readSU2Keyword(line, "NDIME="); err != nil {
				return nil, err
			}
			if ndime < 1 || ndime > 3 {
				return nil, fmt.Errorf("unsupported dimension NDIME=%d", ndime)
			}
			mesh.Dim = ndime

		case strings.HasPrefix(line, "NELEM="):
			if ndime == 0 {
				return nil, fmt.Errorf("NELEM section before NDIME")
			}
			nelem, err := readSU2Keyword(line, "NELEM=")
			if err != nil {
				return nil, err
			}
			mesh.EtoV = make([][]int, 0, nelem)
			mesh.ElementTypes = make([]ElementType, 0, nelem)
			mesh.ElementTags = make([]int, 0, nelem)
			for i := 0; i < nelem; i++ {
				eline, ok := nextLine()
				if !ok {
					return nil, fmt.Errorf("unexpected end of file reading element %d of %d", i, nelem)
				}
				etype, verts, err := parseSU2Connectivity(strings.Fields(eline))
				if err != nil {
					return nil, fmt.Errorf("element %d: %w", i, err)
				}
				if etype.GetDimension() != ndime {
					// Lower dimensional elements in the volume section are skipped
					continue
				}
				mesh.EtoV = append(mesh.EtoV, verts)
				mesh.ElementTypes = append(mesh.ElementTypes, etype)
				mesh.ElementTags = append(mesh.ElementTags, 1) // Default tag
			}

		case strings.HasPrefix(line, "NPOIN="):
			if ndime == 0 {
				return nil, fmt.Errorf("NPOIN section before NDIME")
			}
			npoin, err := readSU2Keyword(line, "NPOIN=")
			if err != nil {
				return nil, err
			}
			mesh.Vertices = make([][]float64, npoin)
			for i := 0; i < npoin; i++ {
				pline, ok := nextLine()
				if !ok {
					return nil, fmt.Errorf("unexpected end of file reading point %d of %d", i, npoin)
				}
				fields := strings.Fields(pline)
				if len(fields) < ndime {
					return nil, fmt.Errorf("point %d: need %d coordinates, have %d", i, ndime, len(fields))
				}
				coords := make([]float64, 3)
				for j := 0; j < ndime; j++ {
					if coords[j], err = strconv.ParseFloat(fields[j], 64); err != nil {
						return nil, fmt.Errorf("point %d: %w", i, err)
					}
				}
				// An optional trailing field carries the point id
				ptID := i
				if len(fields) > ndime {
					if id, err := strconv.Atoi(fields[len(fields)-1]); err == nil && id >= 0 && id < npoin {
						ptID = id
					}
				}
				mesh.Vertices[ptID] = coords
			}

		case strings.HasPrefix(line, "NMARK="):
			nmark, err := readSU2Keyword(line, "NMARK=")
			if err != nil {
				return nil, err
			}
			for i := 0; i < nmark; i++ {
				tline, ok := nextLine()
				if !ok || !strings.HasPrefix(tline, "MARKER_TAG=") {
					return nil, fmt.Errorf("marker %d: expected MARKER_TAG=, have %q", i, tline)
				}
				tag := i + 1
				mesh.BoundaryTags[tag] = strings.TrimSpace(strings.TrimPrefix(tline, "MARKER_TAG="))

				cline, ok := nextLine()
				if !ok || !strings.HasPrefix(cline, "MARKER_ELEMS=") {
					return nil, fmt.Errorf("marker %d: expected MARKER_ELEMS=, have %q", i, cline)
				}
				nMarkerElems, err := readSU2Keyword(cline, "MARKER_ELEMS=")
				if err != nil {
					return nil, err
				}
				for j := 0; j < nMarkerElems; j++ {
					mline, ok := nextLine()
					if !ok {
						return nil, fmt.Errorf("marker %d: unexpected end of file", i)
					}
					_, verts, err := parseSU2Connectivity(strings.Fields(mline))
					if err != nil {
						return nil, fmt.Errorf("marker %d element %d: %w", i, j, err)
					}
					mesh.BoundaryFaces = append(mesh.BoundaryFaces, BoundaryFace{Vertices: verts, Tag: tag})
				}
			}
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}
	if ndime == 0 {
		return nil, fmt.Errorf("missing NDIME section in %s", filename)
	}

	mesh.BuildConnectivity()
	return mesh, nil
}
