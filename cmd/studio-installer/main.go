package main

import "github.com/cvxrs/studio-tools/cmd/studio-installer/cmd"

func main() {
	cmd.Execute()
}
