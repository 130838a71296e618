package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ghodss/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/ncsubmesh/InputParameters"
	"github.com/notargets/ncsubmesh/submesh"
)

func channel(from string, ranks int) *InputParameters.ExtractParameters {
	return &InputParameters.ExtractParameters{
		Structured:  &InputParameters.StructuredMesh{Type: "quad", NX: 2, NY: 2},
		From:        from,
		Refine:      []InputParameters.RefineStep{{Attribute: 1, Levels: 1}},
		Ranks:       ranks,
		Partitioner: "block",
	}
}

func TestRunExtractDomain(t *testing.T) {
	ip := channel("domain", 2)
	ip.Attributes = []int{1}
	reports, err := RunExtract(ip)
	require.NoError(t, err)
	require.Equal(t, 2, len(reports))
	total := 0
	for rank, r := range reports {
		assert.Equal(t, rank, r.Rank)
		assert.Equal(t, 8, r.Elements)
		assert.Equal(t, len(r.ParentElementIDs), r.Elements)
		total += r.Elements
	}
	assert.Equal(t, 16, total)
}

func TestRunExtractMetisDebug(t *testing.T) {
	ip := channel("domain", 2)
	ip.Attributes = []int{1}
	ip.Partitioner = "metis"
	ip.Debug = true
	t.Cleanup(func() { submesh.Debug = false })
	reports, err := RunExtract(ip)
	require.NoError(t, err)
	total := 0
	for _, r := range reports {
		assert.Equal(t, reports[0].Roots, r.Roots)
		total += r.Elements
	}
	assert.Equal(t, 16, total)
}

func TestRunExtractBoundary(t *testing.T) {
	ip := channel("boundary", 2)
	ip.Select = "attr == 1"
	reports, err := RunExtract(ip)
	require.NoError(t, err)
	// The bottom row belongs to rank 0
	assert.Equal(t, 4, reports[0].Elements)
	assert.Equal(t, 0, reports[1].Elements)
	assert.Equal(t, 2, reports[0].Roots)
	assert.Equal(t, 5, reports[0].Vertices)
	PrintReports(reports)

	file := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, WriteReports(file, reports))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var back []RankReport
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, reports, back)
}

func TestRunExtractErrors(t *testing.T) {
	ip := channel("boundary", 1)
	ip.Select = "attr > 10"
	_, err := RunExtract(ip)
	assert.Error(t, err)

	ip = channel("volume", 1)
	_, err = RunExtract(ip)
	assert.Error(t, err)

	ip = channel("domain", 1)
	ip.Structured.Type = "prism"
	_, err = RunExtract(ip)
	assert.Error(t, err)

	ip = channel("domain", 1)
	ip.Partitioner = "random"
	_, err = RunExtract(ip)
	assert.Error(t, err)
}
