package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/shiori/internal/cli"
	"github.com/hyperjump/shiori/internal/models"
)

// NewSearchCmd searches bookmarks by meaning.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search bookmarks",
		Long: `Search bookmarks by semantic similarity to the query.

The query is all arguments joined by spaces; quoting is optional.
Results are ordered from most to least similar.`,
		Example: `  shiori search machine learning
  shiori search --limit 5 "rust async runtime"
  shiori search --server "" --output json golang`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}
	cmd.Flags().IntP("limit", "n", models.DefaultSearchLimit, "maximum number of results")
	cmd.Flags().String("server", defaultServerURL, "server URL (empty = open storage directly)")
	cmd.Flags().StringP("output", "o", "text", "output format: text, compact, or json")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	queryStr := buildSearchQuery(args)
	if queryStr == "" {
		return errors.New("search query is empty")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	serverURL, _ := cmd.Flags().GetString("server")
	outputFlag, _ := cmd.Flags().GetString("output")
	format, err := cli.ParseOutputFormat(outputFlag)
	if err != nil {
		return err
	}

	var response *models.SearchResponse
	if serverURL != "" {
		response, err = searchViaHTTP(cmd.Context(), serverURL, queryStr, limit)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
	} else {
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

		limit = cfg.Search.FloorLimit(limit)
		response, err = components.Engine.Search(cmd.Context(), &models.SearchQuery{Query: queryStr, Limit: limit})
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
	}
	return cli.WriteSearchResults(cmd.OutOrStdout(), response, format)
}
