package geometry

// RefType records how an element's children are arranged, one bit per split
// direction. Zero means the element is a leaf.
type RefType uint8

const (
	RefNone RefType = 0
	RefX    RefType = 1
	RefY    RefType = 2
	RefXY   RefType = 3
	RefZ    RefType = 4
	RefXZ   RefType = 5
	RefYZ   RefType = 6
	RefXYZ  RefType = 7
)

var refTypeNumChildren = [8]int{0, 2, 2, 4, 2, 4, 4, 8}

func NumChildren(r RefType) int { return refTypeNumChildren[r&7] }

// IsoRefType is the isotropic split of an element of dimension dim
func IsoRefType(dim int) RefType {
	switch dim {
	case 1:
		return RefX
	case 2:
		return RefXY
	case 3:
		return RefXYZ
	}
	return RefNone
}

func (r RefType) String() string {
	if r == RefNone {
		return "None"
	}
	s := ""
	for i, c := range "XYZ" {
		if r&(1<<uint(i)) != 0 {
			s += string(c)
		}
	}
	return s
}
