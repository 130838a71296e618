package partition

import (
	"fmt"
	"log"
	"math"

	metis "github.com/notargets/go-metis"

	"github.com/notargets/ncsubmesh/mesh"
)

// PartitionConfig controls how METIS splits the root elements over ranks
type PartitionConfig struct {
	NumPartitions    int32
	ImbalanceFactor  float32 // 1.05 allows 5% more than the mean load per rank
	UseEdgeWeights   bool
	UseVertexWeights bool
	Objective        string // "cut" or "vol"
	Verbose          bool   // Log the load of every rank
}

func DefaultPartitionConfig(nparts int32) *PartitionConfig {
	return &PartitionConfig{
		NumPartitions:    nparts,
		ImbalanceFactor:  1.05,
		UseEdgeWeights:   true,
		UseVertexWeights: true,
		Objective:        "vol",
	}
}

// rootCost is the load of an unrefined root, the number of leaves one level
// of refinement would give it halved. Refined forests replace it with the
// actual leaf counts through SetElementWeights.
var rootCost = map[mesh.ElementType]int32{
	mesh.Line:     1,
	mesh.Triangle: 2,
	mesh.Quad:     2,
	mesh.Hex:      4,
}

// MeshPartitioner assigns the root elements of a mesh to ranks. Every root is a
// graph vertex weighted by its load, every shared face an edge weighted by its
// vertex count.
type MeshPartitioner struct {
	mesh    *mesh.Mesh
	config  *PartitionConfig
	weights []int32
}

func NewMeshPartitioner(m *mesh.Mesh, config *PartitionConfig) *MeshPartitioner {
	return &MeshPartitioner{mesh: m, config: config}
}

// SetElementWeights overrides the root cost, one weight per mesh element
func (mp *MeshPartitioner) SetElementWeights(w []int32) error {
	if len(w) != mp.mesh.NumElements {
		return fmt.Errorf("need %d element weights, have %d", mp.mesh.NumElements, len(w))
	}
	mp.weights = w
	return nil
}

func (mp *MeshPartitioner) weight(elem int) int32 {
	if mp.weights != nil {
		return mp.weights[elem]
	}
	if c, ok := rootCost[mp.mesh.ElementTypes[elem]]; ok {
		return c
	}
	return 1
}

func (mp *MeshPartitioner) faceWeight(elem, localFace int) int32 {
	return int32(len(mp.mesh.Faces[mp.mesh.EToF[elem][localFace]].Vertices))
}

// Partition runs METIS and returns the rank of every root, also stored in
// mesh.EToP
func (mp *MeshPartitioner) Partition() ([]int, error) {
	ne := mp.mesh.NumElements
	nparts := int(mp.config.NumPartitions)
	if nparts < 1 {
		return nil, fmt.Errorf("need at least one partition, have %d", nparts)
	}
	if ne < nparts {
		return nil, fmt.Errorf("cannot split %d roots over %d ranks", ne, nparts)
	}
	log.Printf("Partitioning %d roots over %d ranks", ne, nparts)

	mp.mesh.EToP = make([]int, ne)
	if nparts == 1 {
		return mp.mesh.EToP, nil
	}

	xadj, adjncy, vwgt, adjwgt := mp.buildMetisGraph()
	opts := make([]int32, metis.NoOptions)
	if err := metis.SetDefaultOptions(opts); err != nil {
		return nil, fmt.Errorf("failed to set METIS options: %w", err)
	}
	opts[metis.OptionObjType] = metis.ObjTypeCut
	if mp.config.Objective == "vol" {
		opts[metis.OptionObjType] = metis.ObjTypeVol
	}
	if !mp.config.UseVertexWeights {
		vwgt = nil
	}
	if !mp.config.UseEdgeWeights {
		adjwgt = nil
	}

	part, objval, err := metis.PartGraphKwayWeighted(xadj, adjncy, vwgt, adjwgt,
		mp.config.NumPartitions, nil, []float32{mp.config.ImbalanceFactor}, opts)
	if err != nil {
		return nil, fmt.Errorf("METIS partitioning failed: %w", err)
	}
	for i, p := range part[:ne] {
		mp.mesh.EToP[i] = int(p)
	}
	mp.report(objval)
	return mp.mesh.EToP, nil
}

// buildMetisGraph returns the CSR dual graph of the roots. Vertex and edge
// weights are always filled; Partition drops them as configured.
func (mp *MeshPartitioner) buildMetisGraph() (xadj, adjncy, vwgt, adjwgt []int32) {
	ne := mp.mesh.NumElements
	xadj = make([]int32, ne+1)
	vwgt = make([]int32, ne)
	for elem := 0; elem < ne; elem++ {
		vwgt[elem] = mp.weight(elem)
		for lf, nbr := range mp.mesh.EToE[elem] {
			if nbr < 0 || nbr == elem {
				continue
			}
			adjncy = append(adjncy, int32(nbr))
			adjwgt = append(adjwgt, mp.faceWeight(elem, lf))
		}
		xadj[elem+1] = int32(len(adjncy))
	}
	return
}

// report logs the load balance and the faces cut between ranks
func (mp *MeshPartitioner) report(objval int32) {
	var (
		nparts = int(mp.config.NumPartitions)
		load   = make([]int64, nparts)
		roots  = make([]int, nparts)
		nbrs   = make([]map[int]bool, nparts)
		cut    int
	)
	for i := range nbrs {
		nbrs[i] = make(map[int]bool)
	}
	for elem, p := range mp.mesh.EToP {
		load[p] += int64(mp.weight(elem))
		roots[p]++
		for _, nbr := range mp.mesh.EToE[elem] {
			if nbr > elem && mp.mesh.EToP[nbr] != p {
				cut++
				nbrs[p][mp.mesh.EToP[nbr]] = true
				nbrs[mp.mesh.EToP[nbr]][p] = true
			}
		}
	}
	var (
		total  int64
		lo, hi int64 = math.MaxInt64, 0
	)
	for _, l := range load {
		total += l
		if l < lo {
			lo = l
		}
		if l > hi {
			hi = l
		}
	}
	avg := float64(total) / float64(nparts)
	log.Printf("Partition: objective %d, %d cut faces, load [%d,%d] avg %.1f, imbalance %.2f%%",
		objval, cut, lo, hi, avg, (float64(hi)/avg-1)*100)
	if mp.config.Verbose {
		for p := range load {
			log.Printf("  rank %d: %d roots, load %d, %d neighbor ranks", p, roots[p], load[p], len(nbrs[p]))
		}
	}
}
