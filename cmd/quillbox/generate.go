package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/quillbox/quillbox/internal/syncstore"
)

func init() {
	rootCmd.AddCommand(newGenerateCmd())
}

func newGenerateCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Publish the local blog as a sync store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			if err := ws.Lock(); err != nil {
				return err
			}
			defer ws.Unlock()

			cs, err := ws.openStore()
			if err != nil {
				return err
			}
			defer cs.Close()

			if outDir == "" {
				outDir = ws.SyncDir
			}

			gen := syncstore.NewGenerator(cs, ws.themeRegistry(), syncstore.WithProgress(printProgress(cmd)))
			res, err := gen.Generate(cmd.Context(), outDir)
			if err != nil {
				return err
			}

			var total uint64
			for _, entry := range res.Manifest.Files {
				total += uint64(entry.Size)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s published %d files (%s) to %s\n",
				green("✓"), res.Manifest.FileCount, humanize.Bytes(total), res.Dir)
			fmt.Fprintf(cmd.OutOrStdout(), "  content version %s\n", cyan(res.Manifest.ContentVersion))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (defaults to <datadir>/sync)")
	return cmd
}

// printProgress renders download/write counters on one line.
func printProgress(cmd *cobra.Command) syncstore.ProgressFunc {
	return func(step string, done, total int) {
		fmt.Fprintf(cmd.OutOrStdout(), "\r  %-14s %d/%d", step, done, total)
		if done == total {
			fmt.Fprintln(cmd.OutOrStdout())
		}
	}
}
