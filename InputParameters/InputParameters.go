package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"

	"github.com/notargets/ncsubmesh/selection"
)

type StructuredMesh struct {
	Type       string `yaml:"Type"` // quad, tri or hex
	NX, NY, NZ int
}

// RefineStep refines the leaves with Attribute, Levels times
type RefineStep struct {
	Attribute int `yaml:"Attribute"`
	Levels    int `yaml:"Levels"`
}

// Parameters obtained from the YAML input file
type ExtractParameters struct {
	Title         string          `yaml:"Title"`
	MeshFile      string          `yaml:"MeshFile"`
	Structured    *StructuredMesh `yaml:"Structured"` // Used when MeshFile is empty
	From          string          `yaml:"From"`       // domain or boundary
	Attributes    []int           `yaml:"Attributes"`
	Select        string          `yaml:"Select"` // CEL predicate over attr, overrides Attributes
	Refine        []RefineStep    `yaml:"Refine"`
	UniformLevels int             `yaml:"UniformLevels"`
	Ranks         int             `yaml:"Ranks"`
	Partitioner   string          `yaml:"Partitioner"`
	Debug         bool            `yaml:"Debug"`
}

func (ip *ExtractParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ip); err != nil {
		return err
	}
	if ip.Ranks == 0 {
		ip.Ranks = 1
	}
	if ip.MeshFile == "" && ip.Structured == nil {
		return fmt.Errorf("input names neither a MeshFile nor a Structured mesh")
	}
	if ip.Ranks < 0 {
		return fmt.Errorf("Ranks must be positive, have %d", ip.Ranks)
	}
	for _, r := range ip.Refine {
		if r.Levels < 0 {
			return fmt.Errorf("refinement of attribute %d by %d levels", r.Attribute, r.Levels)
		}
	}
	return nil
}

// Selector is the compiled Select expression if there is one, else the
// Attributes list
func (ip *ExtractParameters) Selector() (*selection.Selector, error) {
	if ip.Select != "" {
		return selection.Compile(ip.Select)
	}
	return selection.FromList(ip.Attributes), nil
}

func (ip *ExtractParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	if ip.MeshFile != "" {
		fmt.Printf("[%s]\t\t= Mesh File\n", ip.MeshFile)
	} else {
		s := ip.Structured
		fmt.Printf("[%s %dx%dx%d]\t= Structured Mesh\n", s.Type, s.NX, s.NY, s.NZ)
	}
	fmt.Printf("[%s]\t\t\t= From\n", ip.From)
	if ip.Select != "" {
		fmt.Printf("[%s]\t\t= Select\n", ip.Select)
	} else {
		fmt.Printf("%v\t\t\t= Attributes\n", ip.Attributes)
	}
	for _, r := range ip.Refine {
		fmt.Printf("Refine[%d] = %d levels\n", r.Attribute, r.Levels)
	}
	fmt.Printf("[%d]\t\t\t\t= Uniform Levels\n", ip.UniformLevels)
	fmt.Printf("[%d]\t\t\t\t= Ranks\n", ip.Ranks)
	fmt.Printf("[%s]\t\t\t= Partitioner\n", ip.Partitioner)
}
