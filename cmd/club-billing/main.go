// Package main is the entry point for the club-billing CLI.
package main

import (
	"os"

	"github.com/pigeonworks-llc/club-billing/cmd/club-billing/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
