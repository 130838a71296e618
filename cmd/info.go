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
	"os"

	"github.com/spf13/cobra"

	"github.com/notargets/ncsubmesh/comm"
)

// InfoCmd represents the info command
var InfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print statistics of the parent mesh an input file describes",
	Long: `
Reads the input file, builds and refines the parent mesh and prints its
statistics and attributes, the attributes an extraction can select.

ncsubmesh info -I input.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("info called")
		inputFile, _ := cmd.Flags().GetString("inputFile")
		ip := processExtractInput(&ExtractRun{InputFile: inputFile})
		m, err := buildMesh(ip)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		m.PrintStatistics()
		nc, err := buildForest(m, ip, comm.SelfComm())
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		nc.Update()
		nc.Print()
		fmt.Printf("  refinement depth %d, leaves per root %v\n", nc.MaxDepth(), nc.LeafCounts())
	},
}

func init() {
	rootCmd.AddCommand(InfoCmd)
	InfoCmd.Flags().StringP("inputFile", "I", "", "YAML file describing the parent mesh and its refinement")
}
