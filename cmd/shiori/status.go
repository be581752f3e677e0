package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/shiori/internal/cli"
	"github.com/hyperjump/shiori/internal/server"
)

// NewStatusCmd reports bookmark and embedding counts.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show storage and embedding status",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	cmd.Flags().String("server", defaultServerURL, "server URL (empty = open storage directly)")
	cmd.Flags().StringP("output", "o", "text", "output format: text or json")
	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	serverURL, _ := cmd.Flags().GetString("server")
	if serverURL != "" {
		status, err := statusViaHTTP(cmd.Context(), serverURL)
		if err != nil {
			return fmt.Errorf("status failed: %w", err)
		}
		return cli.WriteStatus(cmd.OutOrStdout(), status, format)
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	status, err := server.BuildStatus(cmd.Context(), cfg, components.Bookmarks, components.Embeddings, logger)
	if err != nil {
		return err
	}
	return cli.WriteStatus(cmd.OutOrStdout(), status, format)
}
