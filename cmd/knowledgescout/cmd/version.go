package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ranjeet229/KnowledgeScout/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
