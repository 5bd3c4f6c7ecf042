package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillbox/quillbox/internal/syncer"
	"github.com/quillbox/quillbox/internal/syncsdk"
)

func init() {
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newBootstrapCmd())
	rootCmd.AddCommand(newPullCmd())
	rootCmd.AddCommand(newResyncCmd())
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Compare local state against the remote sync store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			s, cleanup, err := openConfiguredSyncer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			changes, manifest, err := s.Check(cmd.Context())
			if err != nil {
				if errors.Is(err, syncsdk.ErrNoSyncStore) {
					return errors.New("the remote blog has no sync store")
				}
				return err
			}

			if !changes.HasChanges() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s up to date (content version %s)\n",
					green("✓"), cyan(manifest.ContentVersion))
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "remote changes: %s\n", changes.Summary())
			fmt.Fprintf(cmd.OutOrStdout(), "  added %d, modified %d, deleted %d\n",
				len(changes.Added), len(changes.Modified), len(changes.Deleted))
			fmt.Fprintln(cmd.OutOrStdout(), "run", cyan("quillbox pull"), "to apply them")
			return nil
		},
	}
}

func newBootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Import a complete blog from the remote sync store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			s, cleanup, err := openConfiguredSyncer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := s.Bootstrap(cmd.Context()); err != nil {
				if errors.Is(err, syncsdk.ErrNoSyncStore) {
					return errors.New("the remote blog has no sync store")
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), green("✓"), "blog imported")
			return nil
		},
	}
	addDraftPasswordFlag(cmd)
	return cmd
}

func newPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Apply remote changes to the local blog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			s, cleanup, err := openConfiguredSyncer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			changes, err := s.Pull(cmd.Context())
			if err != nil {
				return err
			}
			if !changes.HasChanges() {
				fmt.Fprintln(cmd.OutOrStdout(), green("✓"), "already up to date")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s applied %d added, %d modified, %d deleted\n",
				green("✓"), len(changes.Added), len(changes.Modified), len(changes.Deleted))
			return nil
		},
	}
	addDraftPasswordFlag(cmd)
	return cmd
}

func newResyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resync",
		Short: "Discard local synced state and re-import the remote blog",
		Long: "Resync deletes every synced entity and the sync journal, then runs a fresh\n" +
			"bootstrap. Local drafts and never-synced content are preserved. Use it to\n" +
			"recover from a corrupted or diverged local state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			s, cleanup, err := openConfiguredSyncer(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := s.ForceResync(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), green("✓"), "blog re-imported from scratch")
			return nil
		},
	}
	addDraftPasswordFlag(cmd)
	return cmd
}

// addDraftPasswordFlag registers the password for the encrypted drafts
// sub-tree of legacy stores. Stores without one ignore the flag.
func addDraftPasswordFlag(cmd *cobra.Command) {
	cmd.Flags().String("draft-password", "", "password for encrypted drafts in a legacy sync store")
}

// openConfiguredSyncer resolves the server url, locks the workspace and wires
// a syncer with progress output. The cleanup also releases the lock.
func openConfiguredSyncer(cmd *cobra.Command) (*syncer.Syncer, func(), error) {
	url, err := serverURL()
	if err != nil {
		return nil, nil, err
	}
	ws, err := openWorkspace()
	if err != nil {
		return nil, nil, err
	}
	if err := ws.Lock(); err != nil {
		return nil, nil, err
	}

	opts := []syncer.Option{syncer.WithProgress(printProgress(cmd))}
	if pw, err := cmd.Flags().GetString("draft-password"); err == nil && pw != "" {
		opts = append(opts, syncer.WithDraftPassword(pw))
	}

	s, cleanup, err := ws.openSyncer(url, opts...)
	if err != nil {
		ws.Unlock()
		return nil, nil, err
	}
	return s, func() {
		cleanup()
		ws.Unlock()
	}, nil
}
