package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/hyperjump/shiori/internal/cli"
)

// NewReindexCmd recomputes missing or stale embeddings and drops orphaned ones.
func NewReindexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Bring stored embeddings up to date",
		Long: `Embed bookmarks whose embedding is missing, unreadable, or computed from an older
title and description, and remove embeddings whose bookmark no longer exists.
Use --force after switching models to recompute every embedding.`,
		Args: cobra.NoArgs,
		RunE: runReindex,
	}
	cmd.Flags().Bool("force", false, "re-embed every bookmark")
	cmd.Flags().Bool("quiet", false, "hide the progress bar")
	return cmd
}

func runReindex(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")
	quiet, _ := cmd.Flags().GetBool("quiet")

	return withComponents(cmd, func(c *Components) error {
		var bar *progressbar.ProgressBar
		total := func(n int) {
			if quiet || n == 0 {
				return
			}
			bar = progressbar.NewOptions(n,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("Embedding"),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)
		}
		progress := func() {
			if bar != nil {
				_ = bar.Add(1)
			}
		}

		stats, err := c.Bookmarks.Reindex(cmd.Context(), force, total, progress)
		if bar != nil {
			_ = bar.Finish()
		}
		if err != nil {
			return fmt.Errorf("reindex aborted: %w", err)
		}
		cli.WriteReindexStats(cmd.OutOrStdout(), stats)
		if stats.Failed > 0 {
			return fmt.Errorf("%d bookmarks could not be embedded", stats.Failed)
		}
		return nil
	})
}
