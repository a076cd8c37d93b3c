// Package main is the entry point for the surchargectl operator CLI.
package main

import (
	"os"

	"fuelsurcharge/cmd/surchargectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
