package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the AI candidate cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired entries from the SQLite cache",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Cache.Driver != "sqlite" {
			return eris.Errorf("cache purge requires the sqlite cache driver, not %q", cfg.Cache.Driver)
		}

		c, err := cache.NewSQLite(cfg.Cache.Path, time.Duration(cfg.Cache.TTLHours)*time.Hour)
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		purged, err := c.Purge(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "cache purge")
		}

		zap.L().Info("cache purged", zap.Int("entries", purged))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
