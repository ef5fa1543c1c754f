package main

import (
	"github.com/perf-attribution/cmd/cli/cmd"
)

func main() {
	cmd.Execute()
}
