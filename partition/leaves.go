package partition

import (
	"fmt"

	"github.com/notargets/ncsubmesh/comm"
)

// Strategy names how ranks are assigned to the leaves of the refinement forest
type Strategy string

const (
	// Metis keeps every refinement tree on one rank, trees weighted by leaf count
	Metis Strategy = "metis"
	// Block splits the leaves in tree order into contiguous runs, so a tree can
	// straddle ranks
	Block Strategy = "block"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case Metis, Block:
		return Strategy(s), nil
	case "":
		return Block, nil
	}
	return "", fmt.Errorf("unknown partitioner %q, want %q or %q", s, Metis, Block)
}

// SplitLeaves returns the rank of each of nleaves leaves, in contiguous runs
// whose lengths differ by at most one
func SplitLeaves(nleaves, nranks int) (ranks []int) {
	if nranks < 1 {
		panic(fmt.Errorf("need at least one rank, have %d", nranks))
	}
	pm := comm.NewPartitionMap(nranks, nleaves)
	ranks = make([]int, nleaves)
	for k := 0; k < nleaves; k++ {
		bn, _, _ := pm.GetBucket(k)
		ranks[k] = bn
	}
	return
}
