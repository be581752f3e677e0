package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/config"
	"github.com/hyperjump/shiori/pkg/utils"
)

const (
	defaultConfigPath = "/usr/local/etc/shiori/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// NewRootCmd builds the shiori command tree.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "shiori",
		Short:         "Bookmark manager with semantic search",
		Long:          `Store bookmarks and find them again by meaning, using embeddings of their title and description.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(
		NewServerCmd(),
		NewSearchCmd(),
		NewAddCmd(),
		NewUpdateCmd(),
		NewDeleteCmd(),
		NewListCmd(),
		NewFavoriteCmd(),
		NewTagCmd(),
		NewCollectionCmd(),
		NewReindexCmd(),
		NewStatusCmd(),
		NewVersionCmd(version),
	)
	return rootCmd
}

// NewVersionCmd prints the build version.
func NewVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shiori version %s\n", version)
		},
	}
}

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory takes precedence so that running from a project checkout uses its config.
// A missing default config is not an error: built-in defaults are used and the returned path is empty.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				path = fallback
			}
		}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup loads config and .env files and creates the logger for a command.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	debugFlag, _ := cmd.Flags().GetBool("debug")

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	envFiles := []string{".env"}
	if resolved != "" {
		envFiles = append(envFiles, filepath.Join(filepath.Dir(resolved), ".env"))
	}
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return nil, nil, err
	}

	debug := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolved),
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("embedding_backend", cfg.Storage.EmbeddingBackend),
	)
	return cfg, logger, nil
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
