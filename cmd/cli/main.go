package main

import "github.com/mem-analysis/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
