package main

import (
	"os"

	"github.com/tenstorrent/perf-timeline/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
