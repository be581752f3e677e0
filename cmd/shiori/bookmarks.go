package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperjump/shiori/internal/cli"
	"github.com/hyperjump/shiori/internal/models"
)

// withComponents runs fn with configured services and releases them afterwards.
func withComponents(cmd *cobra.Command, fn func(c *Components) error) error {
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
	return fn(components)
}

func outputFormat(cmd *cobra.Command) (cli.OutputFormat, error) {
	s, _ := cmd.Flags().GetString("output")
	return cli.ParseOutputFormat(s)
}

// NewAddCmd creates a bookmark.
func NewAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add a bookmark",
		Example: `  shiori add --title "Go" --url https://go.dev --description "The Go programming language"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			var in models.BookmarkInput
			in.Title, _ = cmd.Flags().GetString("title")
			in.URL, _ = cmd.Flags().GetString("url")
			in.Description, _ = cmd.Flags().GetString("description")
			in.IsFavorite, _ = cmd.Flags().GetBool("favorite")
			in.ID, _ = cmd.Flags().GetString("id")
			if cmd.Flags().Changed("collection") {
				id, _ := cmd.Flags().GetInt64("collection")
				in.CollectionID = &id
			}
			in.TagIDs, _ = cmd.Flags().GetInt64Slice("tag")
			return withComponents(cmd, func(c *Components) error {
				b, err := c.Bookmarks.Create(cmd.Context(), &in)
				if err != nil {
					return fmt.Errorf("add failed: %w", err)
				}
				return cli.WriteBookmarks(cmd.OutOrStdout(), []*models.Bookmark{b}, format)
			})
		},
	}
	cmd.Flags().String("title", "", "bookmark title")
	cmd.Flags().String("url", "", "bookmark URL")
	cmd.Flags().String("description", "", "bookmark description")
	cmd.Flags().Bool("favorite", false, "mark as favorite")
	cmd.Flags().String("id", "", "bookmark id (default: generated)")
	cmd.Flags().Int64("collection", 0, "collection id")
	cmd.Flags().Int64Slice("tag", nil, "tag id; repeat or comma-separate for several")
	cmd.Flags().StringP("output", "o", "text", "output format: text, compact, or json")
	return cmd
}

// NewUpdateCmd edits a bookmark. Only flags that are given are applied.
func NewUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			var patch models.BookmarkPatch
			changedStrings(cmd, map[string]**string{
				"title":       &patch.Title,
				"url":         &patch.URL,
				"description": &patch.Description,
			})
			if cmd.Flags().Changed("collection") {
				id, _ := cmd.Flags().GetInt64("collection")
				patch.CollectionID = &id
			}
			if cmd.Flags().Changed("tag") {
				patch.TagIDs, _ = cmd.Flags().GetInt64Slice("tag")
			}
			if clearTags, _ := cmd.Flags().GetBool("clear-tags"); clearTags {
				patch.TagIDs = []int64{}
			}
			return withComponents(cmd, func(c *Components) error {
				b, err := c.Bookmarks.Update(cmd.Context(), args[0], &patch)
				if err != nil {
					return fmt.Errorf("update failed: %w", err)
				}
				return cli.WriteBookmarks(cmd.OutOrStdout(), []*models.Bookmark{b}, format)
			})
		},
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("url", "", "new URL")
	cmd.Flags().String("description", "", "new description")
	cmd.Flags().Int64("collection", 0, "move to this collection id")
	cmd.Flags().Int64Slice("tag", nil, "replace tags with these tag ids")
	cmd.Flags().Bool("clear-tags", false, "remove all tags")
	cmd.Flags().StringP("output", "o", "text", "output format: text, compact, or json")
	return cmd
}

// NewDeleteCmd removes a bookmark and its embedding.
func NewDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withComponents(cmd, func(c *Components) error {
				if err := c.Bookmarks.Delete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("delete failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

// NewListCmd lists bookmarks, newest first.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			favorites, _ := cmd.Flags().GetBool("favorites")
			offset, _ := cmd.Flags().GetInt("offset")
			limit, _ := cmd.Flags().GetInt("limit")
			return withComponents(cmd, func(c *Components) error {
				var list []*models.Bookmark
				var err error
				if favorites {
					list, err = c.Bookmarks.Favorites(cmd.Context())
				} else {
					list, err = c.Bookmarks.List(cmd.Context(), offset, limit)
				}
				if err != nil {
					return fmt.Errorf("list failed: %w", err)
				}
				return cli.WriteBookmarks(cmd.OutOrStdout(), list, format)
			})
		},
	}
	cmd.Flags().Bool("favorites", false, "only favorites")
	cmd.Flags().Int("offset", 0, "skip this many bookmarks")
	cmd.Flags().Int("limit", 0, "maximum number of bookmarks (0 = all)")
	cmd.Flags().StringP("output", "o", "compact", "output format: text, compact, or json")
	return cmd
}

// NewFavoriteCmd marks or unmarks a bookmark as favorite.
func NewFavoriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorite <id>",
		Short: "Mark a bookmark as favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remove, _ := cmd.Flags().GetBool("remove")
			return withComponents(cmd, func(c *Components) error {
				b, err := c.Bookmarks.SetFavorite(cmd.Context(), args[0], !remove)
				if err != nil {
					return fmt.Errorf("favorite failed: %w", err)
				}
				state := "added to"
				if !b.IsFavorite {
					state = "removed from"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s favorites\n", b.ID, state)
				return nil
			})
		},
	}
	cmd.Flags().Bool("remove", false, "remove from favorites instead")
	return cmd
}
