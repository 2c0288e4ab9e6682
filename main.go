// Package main is the entry point for the pktcraft IPv4 header tool.
package main

import (
	"fmt"
	"os"

	"firestige.xyz/pktcraft/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
