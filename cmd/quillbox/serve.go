package main

import (
	"github.com/spf13/cobra"

	"github.com/quillbox/quillbox/internal/server"
)

func init() {
	rootCmd.AddCommand(newServeCmd())
}

func newServeCmd() *cobra.Command {
	var addr string
	var certFile string
	var keyFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the published sync store over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			ws, err := openWorkspace()
			if err != nil {
				return err
			}

			srv, err := server.New(&server.Config{
				Addr:     addr,
				SyncDir:  ws.SyncDir,
				CertFile: certFile,
				KeyFile:  keyFile,
			})
			if err != nil {
				return err
			}
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", server.DefaultAddr, "Address to bind the preview server")
	cmd.Flags().StringVar(&certFile, "cert", "", "TLS certificate file")
	cmd.Flags().StringVar(&keyFile, "key", "", "TLS key file")

	return cmd
}
