package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillbox/quillbox/internal/version"
)

func init() {
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print QuillBox version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			line := version.Detailed()
			if short {
				line = version.Short()
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), line)
			return err
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version and revision")
	return cmd
}
