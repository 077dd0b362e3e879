// Package main provides the entry point for the knowledgescout CLI.
package main

import (
	"os"

	"github.com/ranjeet229/KnowledgeScout/cmd/knowledgescout/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
