package main

import (
	"os"

	"travelpro-gamification/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
