/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/ncsubmesh/InputParameters"
	"github.com/notargets/ncsubmesh/comm"
	"github.com/notargets/ncsubmesh/mesh"
	"github.com/notargets/ncsubmesh/ncmesh"
	"github.com/notargets/ncsubmesh/partition"
	"github.com/notargets/ncsubmesh/submesh"
)

type ExtractRun struct {
	InputFile  string
	ReportFile string
	Profile    string
	Debug      bool
}

// RankReport is what one rank extracted
type RankReport struct {
	Rank             int    `json:"Rank"`
	From             string `json:"From"`
	Attributes       []int  `json:"Attributes"`
	Elements         int    `json:"Elements"` // Owned submesh elements
	Vertices         int    `json:"Vertices"`
	Roots            int    `json:"Roots"`
	TreeElements     int    `json:"TreeElements"`
	GhostElements    int    `json:"GhostElements"`
	Nodes            int    `json:"Nodes"`
	ParentElementIDs []int  `json:"ParentElementIDs"`
	ParentVertexIDs  []int  `json:"ParentVertexIDs"`
}

var exampleInput = `
########################################
Title: "Bottom of a refined channel"
Structured:
  Type: quad # quad, tri or hex
  NX: 4
  NY: 2
From: boundary # or domain
Select: "attr == 1" # or Attributes: [1]
Refine:
  - Attribute: 1
    Levels: 1
Ranks: 2
Partitioner: block # or metis
########################################
`

// ExtractCmd represents the extract command
var ExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the submesh of the selected attributes on every rank",
	Long: `
Builds and refines the parent mesh, partitions it over the requested number of
ranks and extracts the domain or boundary submesh of the selected attributes on
each rank, checking the result.

ncsubmesh extract -I input.yaml -r report.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		er := &ExtractRun{
			InputFile:  viper.GetString("inputFile"),
			ReportFile: viper.GetString("report"),
			Profile:    viper.GetString("profile"),
			Debug:      viper.GetBool("debug"),
		}
		ip := processExtractInput(er)
		switch er.Profile {
		case "":
		case "cpu":
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		case "mem":
			defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
		default:
			fmt.Printf("error: unknown profile %q, want cpu or mem\n", er.Profile)
			os.Exit(1)
		}
		reports, err := RunExtract(ip)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		PrintReports(reports)
		if er.ReportFile != "" {
			if err = WriteReports(er.ReportFile, reports); err != nil {
				fmt.Printf("error: %s\n", err.Error())
				os.Exit(1)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(ExtractCmd)
	ExtractCmd.Flags().StringP("inputFile", "I", "", "YAML file describing the parent mesh, its refinement and the selection")
	ExtractCmd.Flags().StringP("report", "r", "", "write the per rank element and vertex maps to this YAML file")
	ExtractCmd.Flags().StringP("profile", "p", "", "profile the run: cpu or mem")
	ExtractCmd.Flags().Bool("debug", false, "run the collective and bijection checks of the extraction")
	for _, name := range []string{"inputFile", "report", "profile", "debug"} {
		if err := viper.BindPFlag(name, ExtractCmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}
}

func processExtractInput(er *ExtractRun) (ip *InputParameters.ExtractParameters) {
	if len(er.InputFile) == 0 {
		fmt.Printf("error: must supply an input parameters file (-I, --inputFile)\n")
		fmt.Printf("Example File:%s\n", exampleInput)
		os.Exit(1)
	}
	data, err := os.ReadFile(er.InputFile)
	if err != nil {
		panic(err)
	}
	ip = &InputParameters.ExtractParameters{}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	ip.Debug = ip.Debug || er.Debug
	ip.Print()
	return
}

func buildMesh(ip *InputParameters.ExtractParameters) (*mesh.Mesh, error) {
	if ip.MeshFile != "" {
		return mesh.ReadMeshFile(ip.MeshFile)
	}
	s := ip.Structured
	if s.NX < 1 || s.NY < 1 {
		return nil, fmt.Errorf("structured mesh needs at least one cell per direction, have %dx%d", s.NX, s.NY)
	}
	switch strings.ToLower(s.Type) {
	case "", "quad":
		return mesh.NewStructuredQuadMesh(s.NX, s.NY), nil
	case "tri":
		return mesh.NewStructuredTriMesh(s.NX, s.NY), nil
	case "hex":
		if s.NZ < 1 {
			return nil, fmt.Errorf("structured hex mesh needs NZ >= 1, have %d", s.NZ)
		}
		return mesh.NewStructuredHexMesh(s.NX, s.NY, s.NZ), nil
	}
	return nil, fmt.Errorf("unknown structured mesh type %q, want quad, tri or hex", s.Type)
}

// buildForest turns the mesh into a forest refined as the input asks; every
// rank builds the same one
func buildForest(m *mesh.Mesh, ip *InputParameters.ExtractParameters, c comm.Communicator) (nc *ncmesh.NCMesh, err error) {
	if nc, err = ncmesh.FromMesh(m, c); err != nil {
		return
	}
	for _, r := range ip.Refine {
		nc.RefineByAttribute([]int{r.Attribute}, r.Levels)
	}
	nc.RefineUniformly(ip.UniformLevels)
	return
}

// leafRanks assigns every leaf of the forest, in tree order, to a rank
func leafRanks(m *mesh.Mesh, nc *ncmesh.NCMesh, strategy partition.Strategy, nranks int, verbose bool) ([]int, error) {
	if strategy == partition.Block {
		return partition.SplitLeaves(nc.NumLeaves(), nranks), nil
	}
	// METIS places whole trees, weighted by their leaf count
	counts := nc.LeafCounts()
	weights := make([]int32, len(counts))
	for i, n := range counts {
		weights[i] = int32(n)
	}
	cfg := partition.DefaultPartitionConfig(int32(nranks))
	cfg.Verbose = verbose
	mp := partition.NewMeshPartitioner(m, cfg)
	if err := mp.SetElementWeights(weights); err != nil {
		return nil, err
	}
	rootRanks, err := mp.Partition()
	if err != nil {
		return nil, err
	}
	var ranks []int
	for root, n := range counts {
		for k := 0; k < n; k++ {
			ranks = append(ranks, rootRanks[root])
		}
	}
	return ranks, nil
}

// RunExtract runs the extraction on ip.Ranks simulated ranks and returns what
// each of them extracted
func RunExtract(ip *InputParameters.ExtractParameters) (reports []RankReport, err error) {
	var (
		from     submesh.From
		strategy partition.Strategy
		m        *mesh.Mesh
	)
	if from, err = submesh.ParseFrom(ip.From); err != nil {
		return
	}
	if strategy, err = partition.ParseStrategy(ip.Partitioner); err != nil {
		return
	}
	if m, err = buildMesh(ip); err != nil {
		return
	}
	sel, err := ip.Selector()
	if err != nil {
		return
	}

	serial, err := buildForest(m, ip, comm.SelfComm())
	if err != nil {
		return
	}
	candidates := serial.Attributes()
	if from == submesh.Boundary {
		candidates = serial.BdrAttributes()
	}
	attrs, err := sel.Select(candidates)
	if err != nil {
		return
	}
	if len(attrs) == 0 {
		return nil, fmt.Errorf("%s selects none of the %s attributes %v", sel, from, candidates)
	}
	ranks, err := leafRanks(m, serial, strategy, ip.Ranks, ip.Debug)
	if err != nil {
		return
	}

	log.Printf("Extracting %s submesh of attributes %v on %d ranks", from, attrs, ip.Ranks)
	submesh.Debug = ip.Debug
	reports = make([]RankReport, ip.Ranks)
	err = comm.NewWorld(ip.Ranks).Run(func(c *comm.Comm) {
		nc, err := buildForest(m, ip, c)
		if err != nil {
			panic(err)
		}
		nc.AssignLeafRanks(ranks)
		nc.ExchangeFaceNbrData()
		nc.Prune()
		nc.Update()
		sm := submesh.NewSubMesh(nc, from, attrs)
		if err = sm.CheckConsistency(); err != nil {
			panic(err)
		}
		reports[c.Rank()] = newRankReport(c.Rank(), sm)
	})
	if err != nil {
		return nil, err
	}
	return
}

func newRankReport(rank int, sm *submesh.SubMesh) RankReport {
	return RankReport{
		Rank:             rank,
		From:             sm.From.String(),
		Attributes:       sm.Attributes,
		Elements:         sm.NE(),
		Vertices:         sm.NV(),
		Roots:            sm.NC.RootCount,
		TreeElements:     len(sm.NC.Elements),
		GhostElements:    sm.NC.NGhostElements,
		Nodes:            sm.NC.Nodes.Size(),
		ParentElementIDs: sm.ParentElementIDs,
		ParentVertexIDs:  sm.ParentVertexIDs,
	}
}

func PrintReports(reports []RankReport) {
	fmt.Printf("%6s %10s %10s %8s %8s %8s %8s\n", "Rank", "Elements", "Vertices", "Roots", "Tree", "Ghosts", "Nodes")
	for _, r := range reports {
		fmt.Printf("%6d %10d %10d %8d %8d %8d %8d\n",
			r.Rank, r.Elements, r.Vertices, r.Roots, r.TreeElements, r.GhostElements, r.Nodes)
	}
}

func WriteReports(filename string, reports []RankReport) error {
	data, err := yaml.Marshal(reports)
	if err != nil {
		return err
	}
	if err = os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
