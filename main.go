package main

import "github.com/notargets/ncsubmesh/cmd"

func main() {
	cmd.Execute()
}
