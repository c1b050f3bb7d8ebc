package main

import (
	"os"
)

func main() {
	if err := newRootCommand(openBackend).Execute(); err != nil {
		os.Exit(1)
	}
}
