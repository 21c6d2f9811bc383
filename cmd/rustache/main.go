package main

import (
	"os"

	"github.com/lovasoa/rustache/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
