package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hyperjump/shiori/internal/cli"
	"github.com/hyperjump/shiori/internal/models"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// changedStrings points each changed string flag's value into its destination.
func changedStrings(cmd *cobra.Command, dst map[string]**string) {
	for name, p := range dst {
		if cmd.Flags().Changed(name) {
			v, _ := cmd.Flags().GetString(name)
			*p = &v
		}
	}
}

// NewTagCmd groups the tag subcommands.
func NewTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			return withComponents(cmd, func(c *Components) error {
				tags, err := c.Bookmarks.Tags(cmd.Context())
				if err != nil {
					return fmt.Errorf("list tags failed: %w", err)
				}
				return cli.WriteTags(cmd.OutOrStdout(), tags, format)
			})
		},
	}
	list.Flags().StringP("output", "o", "text", "output format: text, compact, or json")

	add := &cobra.Command{
		Use:     "add <name>",
		Short:   "Create a tag",
		Example: `  shiori tag add golang --color "#3B82F6"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			color, _ := cmd.Flags().GetString("color")
			return withComponents(cmd, func(c *Components) error {
				t, err := c.Bookmarks.CreateTag(cmd.Context(), &models.TagInput{Name: args[0], Color: color})
				if err != nil {
					return fmt.Errorf("add tag failed: %w", err)
				}
				return cli.WriteTags(cmd.OutOrStdout(), []*models.Tag{t}, cli.OutputCompact)
			})
		},
	}
	add.Flags().String("color", "", "tag color (default: picked from the palette)")

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or recolor a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var patch models.TagPatch
			changedStrings(cmd, map[string]**string{"name": &patch.Name, "color": &patch.Color})
			return withComponents(cmd, func(c *Components) error {
				t, err := c.Bookmarks.UpdateTag(cmd.Context(), id, &patch)
				if err != nil {
					return fmt.Errorf("update tag failed: %w", err)
				}
				return cli.WriteTags(cmd.OutOrStdout(), []*models.Tag{t}, cli.OutputCompact)
			})
		},
	}
	update.Flags().String("name", "", "new name")
	update.Flags().String("color", "", "new color")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a tag and detach it from its bookmarks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withComponents(cmd, func(c *Components) error {
				if err := c.Bookmarks.DeleteTag(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete tag failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted tag %d\n", id)
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, update, del)
	return cmd
}

// NewCollectionCmd groups the collection subcommands.
func NewCollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Manage collections",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			return withComponents(cmd, func(c *Components) error {
				cols, err := c.Bookmarks.Collections(cmd.Context())
				if err != nil {
					return fmt.Errorf("list collections failed: %w", err)
				}
				return cli.WriteCollections(cmd.OutOrStdout(), cols, format)
			})
		},
	}
	list.Flags().StringP("output", "o", "text", "output format: text, compact, or json")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "List the bookmarks of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			return withComponents(cmd, func(c *Components) error {
				members, err := c.Bookmarks.InCollection(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("show collection failed: %w", err)
				}
				return cli.WriteBookmarks(cmd.OutOrStdout(), members, format)
			})
		},
	}
	show.Flags().StringP("output", "o", "compact", "output format: text, compact, or json")

	add := &cobra.Command{
		Use:     "add <name>",
		Short:   "Create a collection",
		Example: `  shiori collection add Reading --icon rocket`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			icon, _ := cmd.Flags().GetString("icon")
			color, _ := cmd.Flags().GetString("color")
			return withComponents(cmd, func(c *Components) error {
				col, err := c.Bookmarks.CreateCollection(cmd.Context(), &models.CollectionInput{Name: args[0], Icon: icon, Color: color})
				if err != nil {
					return fmt.Errorf("add collection failed: %w", err)
				}
				return cli.WriteCollections(cmd.OutOrStdout(), []*models.Collection{col}, cli.OutputCompact)
			})
		},
	}
	add.Flags().String("icon", "", "collection icon (default: picked at random)")
	add.Flags().String("color", "", "collection color (default: picked from the palette)")

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename or restyle a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var patch models.CollectionPatch
			changedStrings(cmd, map[string]**string{"name": &patch.Name, "icon": &patch.Icon, "color": &patch.Color})
			return withComponents(cmd, func(c *Components) error {
				col, err := c.Bookmarks.UpdateCollection(cmd.Context(), id, &patch)
				if err != nil {
					return fmt.Errorf("update collection failed: %w", err)
				}
				return cli.WriteCollections(cmd.OutOrStdout(), []*models.Collection{col}, cli.OutputCompact)
			})
		},
	}
	update.Flags().String("name", "", "new name")
	update.Flags().String("icon", "", "new icon")
	update.Flags().String("color", "", "new color")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a collection; its bookmarks are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withComponents(cmd, func(c *Components) error {
				if err := c.Bookmarks.DeleteCollection(cmd.Context(), id); err != nil {
					return fmt.Errorf("delete collection failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted collection %d\n", id)
				return nil
			})
		},
	}

	cmd.AddCommand(list, show, add, update, del)
	return cmd
}
