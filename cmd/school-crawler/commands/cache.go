package commands

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/school-directory-crawler/pkg/cache"
)

// cache purge: drop every cached upstream response.
func cacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the Redis response cache",
	}

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Remove every cached upstream response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Redis.Addr == "" {
				return errors.New("no cache configured (redis.addr or CRAWLER_REDIS_ADDR)")
			}

			rdb := redis.NewClient(&redis.Options{Addr: a.cfg.Redis.Addr, DB: a.cfg.Redis.DB})
			defer rdb.Close()

			removed, err := cache.NewManager(rdb, a.cfg.Redis.TTL).Purge(cmd.Context())
			if err != nil {
				return fmt.Errorf("purge cache: %w", err)
			}
			a.logger.Info().Str("addr", a.cfg.Redis.Addr).Int("removed", removed).Msg("Cache purged")
			fmt.Fprintf(a.out, "removed %d entries\n", removed)
			return nil
		},
	}

	cmd.AddCommand(purge)
	return cmd
}
