package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/trazo/internal/config"
	"github.com/matzehuels/trazo/pkg/cache"
	errs "github.com/matzehuels/trazo/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the outline, layout and export cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Cache.Backend != config.BackendFile {
				return errs.New(errs.ErrCodeInvalidInput, "cache clear only supports the file backend (configured: %s)", c.cfg.Cache.Backend)
			}
			dir := c.cfg.Cache.Dir
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				printInfo("Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return errs.Wrap(errs.ErrCodeInternal, err, "open cache")
			}
			defer fc.Close()

			count, err := fc.Clear()
			if err != nil {
				return errs.Wrap(errs.ErrCodeInternal, err, "clear cache")
			}

			printSuccess("Cleared %d cached entries", count)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Cache.Backend != config.BackendFile {
				return errs.New(errs.ErrCodeInvalidInput, "cache backend %s has no directory", c.cfg.Cache.Backend)
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.cfg.Cache.Dir)
			return nil
		},
	}
}
