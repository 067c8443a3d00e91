package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/school-directory-crawler/pkg/cache"
	"github.com/Sternrassler/school-directory-crawler/pkg/client"
	"github.com/Sternrassler/school-directory-crawler/pkg/directory"
	"github.com/Sternrassler/school-directory-crawler/pkg/export"
	"github.com/Sternrassler/school-directory-crawler/pkg/metrics"
	"github.com/Sternrassler/school-directory-crawler/pkg/record"
)

// session holds the collaborators of one crawl run.
type session struct {
	app     *app
	runAt   time.Time
	logger  zerolog.Logger
	client  *client.Client
	crawler *directory.Crawler
	redis   *redis.Client
	metrics *metrics.Server
}

func newSession(ctx context.Context, a *app) (*session, error) {
	cfg := a.cfg
	rt := &session{app: a, runAt: time.Now()}

	ccfg := cfg.ClientConfig(a.logger)
	if cfg.Redis.Addr != "" {
		rt.redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err := rt.redis.Ping(ctx).Err(); err != nil {
			rt.redis.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		ccfg.Cache = cache.NewManager(rt.redis, cfg.Redis.TTL)
		a.logger.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("Response cache enabled")
	}

	c, err := client.New(ccfg)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.client = c

	crawler, err := directory.NewCrawler(c, cfg.CrawlerConfig(a.logger))
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.crawler = crawler
	rt.logger = a.logger.With().Str("run_id", crawler.RunID()).Logger()

	if cfg.MetricsAddr != "" {
		srv, err := metrics.Listen(cfg.MetricsAddr, a.logger)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.metrics = srv
	}

	return rt, nil
}

func (rt *session) close() {
	if rt.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rt.metrics.Shutdown(ctx); err != nil {
			rt.app.logger.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}
	if rt.client != nil {
		rt.client.Close()
	}
	if rt.redis != nil {
		rt.redis.Close()
	}
}

// output is one export waiting to be written.
type output struct {
	prefix  string
	sheet   string
	records []record.Record
}

// export writes every output to {output_dir}/{prefix}_{timestamp}.xlsx and
// prints the paths once all of them are written. If one fails, the workbooks
// already written by this call are removed.
func (rt *session) export(outputs ...output) (err error) {
	var written []string
	defer func() {
		if err == nil {
			return
		}
		for _, path := range written {
			if rmErr := os.Remove(path); rmErr != nil {
				rt.logger.Warn().Err(rmErr).Str("path", path).Msg("Failed to remove partial export")
			}
		}
	}()

	for _, o := range outputs {
		path := filepath.Join(rt.app.cfg.OutputDir, export.FileName(o.prefix, rt.runAt))
		if err := export.WriteWorkbook(path, o.sheet, o.records); err != nil {
			return fmt.Errorf("export %s: %w", o.prefix, err)
		}
		written = append(written, path)
		rt.logger.Info().Str("path", path).Int("records", len(o.records)).Msg("Export written")
	}

	for _, path := range written {
		fmt.Fprintln(rt.app.out, path)
	}
	return nil
}
