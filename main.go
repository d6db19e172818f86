package main

import "optrace/cmd/optrace/cmd"

func main() {
	cmd.Execute()
}
