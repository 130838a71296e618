package submesh

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// TransferMap moves one value per element between a parent mesh and a
// submesh. P selects, for each submesh element, the parent leaf (Domain) or
// boundary element (Boundary) it comes from.
type TransferMap struct {
	P             *sparse.CSR
	nSub, nParent int
}

func NewTransferMap(sm *SubMesh) (tm *TransferMap) {
	tm = &TransferMap{
		nSub:    sm.NE(),
		nParent: len(sm.ParentToSubMeshElementIDs),
	}
	if tm.nSub == 0 || tm.nParent == 0 {
		return
	}
	dok := sparse.NewDOK(tm.nSub, tm.nParent)
	for i, pe := range sm.ParentElementIDs {
		dok.Set(i, pe, 1)
	}
	tm.P = dok.ToCSR()
	return
}

func (tm *TransferMap) Dims() (r, c int) { return tm.nSub, tm.nParent }

// ParentToSub restricts parent element data to the submesh
func (tm *TransferMap) ParentToSub(x mat.Vector) (y *mat.VecDense) {
	if x.Len() != tm.nParent {
		panic(fmt.Errorf("parent vector has length %d, want %d", x.Len(), tm.nParent))
	}
	if tm.P == nil {
		return &mat.VecDense{}
	}
	y = mat.NewVecDense(tm.nSub, nil)
	tm.P.DoNonZero(func(i, j int, v float64) {
		y.SetVec(i, v*x.AtVec(j))
	})
	return
}

// SubToParent writes submesh element data into the selected entries of x,
// leaving the others untouched
func (tm *TransferMap) SubToParent(y mat.Vector, x *mat.VecDense) {
	if y.Len() != tm.nSub || x.Len() != tm.nParent {
		panic(fmt.Errorf("transfer of %d values into %d, map is %dx%d", y.Len(), x.Len(), tm.nSub, tm.nParent))
	}
	if tm.P == nil {
		return
	}
	tm.P.DoNonZero(func(i, j int, v float64) {
		x.SetVec(j, v*y.AtVec(i))
	})
}
