package main

import "github.com/treeverse/viewstore/cmd/viewstore/cmd"

func main() {
	cmd.Execute()
}
