// Package main provides the entry point for the timelog CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/timelog/cmd/timelog/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
