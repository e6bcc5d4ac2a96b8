package main

import (
	"os"

	"github.com/debreselam/schoolbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
