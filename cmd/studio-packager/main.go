package main

import "github.com/cvxrs/studio-tools/cmd/studio-packager/cmd"

func main() {
	cmd.Execute()
}
