package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/school-directory-crawler/pkg/client"
	"github.com/Sternrassler/school-directory-crawler/pkg/pagination"
	"github.com/Sternrassler/school-directory-crawler/pkg/record"
	"github.com/Sternrassler/school-directory-crawler/pkg/staging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Resource names, used in logs, metrics and staging file names.
const (
	ResourceSubarea      = "subarea"
	ResourceSchoolList   = "school_list"
	ResourceSchoolDetail = "school_detail"
)

// DefaultBatchLimit is the number of identifiers fetched concurrently.
const DefaultBatchLimit = 50

// Fetcher issues upstream requests. *client.Client implements it.
type Fetcher interface {
	Get(ctx context.Context, req client.Request) (*client.Response, error)
}

// Config holds crawler configuration.
type Config struct {
	// BatchLimit is the batch size; all items in a batch run concurrently.
	BatchLimit int

	// StagingDir holds staging files. Empty means the OS temp directory.
	StagingDir string

	// KeepStagingOnError leaves the staging file on disk when a crawl fails.
	KeepStagingOnError bool

	// RunID tags logs and staging file names. Generated when empty.
	RunID string

	// Logger receives crawl logs.
	Logger zerolog.Logger
}

// DefaultConfig returns the default crawler configuration.
func DefaultConfig() Config {
	return Config{
		BatchLimit: DefaultBatchLimit,
		Logger:     zerolog.Nop(),
	}
}

// Result is the outcome of one orchestrator call.
type Result struct {
	// Records are the drained output rows, in no guaranteed cross-batch order.
	Records []record.Record

	// Succeeded counts rows produced by successful fetches.
	Succeeded int

	// NotFound counts detail placeholders.
	NotFound int

	// Dropped counts detail lookups that produced no row.
	Dropped int
}

// Crawler runs the batch loop for every resource kind.
type Crawler struct {
	fetcher Fetcher
	config  Config
	logger  zerolog.Logger
}

// NewCrawler creates a crawler.
func NewCrawler(fetcher Fetcher, cfg Config) (*Crawler, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.BatchLimit <= 0 {
		return nil, fmt.Errorf("batch limit: %w (got %d)", pagination.ErrInvalidPageSize, cfg.BatchLimit)
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}

	return &Crawler{
		fetcher: fetcher,
		config:  cfg,
		logger: cfg.Logger.With().
			Str("component", "crawler").
			Str("run_id", cfg.RunID).
			Logger(),
	}, nil
}

// RunID returns the identifier of this crawler's run.
func (c *Crawler) RunID() string {
	return c.config.RunID
}

// sink receives each completed batch. staging.Buffer and staging.Memory implement it.
type sink interface {
	Append(records []record.Record) error
	Drain() ([]record.Record, error)
	Discard() error
	Lines() int
}

// itemResult is what one identifier's fetch contributes to its batch.
type itemResult struct {
	records []record.Record
	outcome Outcome
}

type fetchItem = pagination.FetchFunc[string, itemResult]

func (c *Crawler) openStaging(resource string) (sink, error) {
	buf, err := staging.New(c.config.StagingDir, "sekolah-"+resource+"-"+c.config.RunID)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("resource", resource).Str("staging_file", buf.Path()).Msg("Opened staging file")
	return buf, nil
}

// run paginates ids, fetches batch by batch, appends every batch to s and
// drains s at the end. On any failure s is discarded (or abandoned when
// KeepStagingOnError is set) and no records are returned.
func (c *Crawler) run(ctx context.Context, resource string, ids []string, s sink, fetch fetchItem) (res Result, err error) {
	logger := c.logger.With().Str("resource", resource).Logger()
	start := time.Now()

	defer func() {
		if err == nil {
			return
		}
		c.release(logger, s)
	}()

	pages, err := pagination.Paginate(ids, c.config.BatchLimit)
	if err != nil {
		return Result{}, err
	}

	logger.Info().
		Int("items", len(ids)).
		Int("batches", len(pages)).
		Int("batch_limit", c.config.BatchLimit).
		Msg("Starting crawl")

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("%s crawl interrupted before batch %d/%d: %w", resource, i+1, len(pages), err)
		}

		batchStart := time.Now()
		items, err := pagination.FetchBatch(ctx, page, fetch)
		if err != nil {
			batchesTotal.WithLabelValues(resource, "failed").Inc()
			logger.Error().Err(err).Int("batch", i+1).Int("batches", len(pages)).Msg("Batch failed")
			return Result{}, fmt.Errorf("%s batch %d/%d: %w", resource, i+1, len(pages), err)
		}

		var rows []record.Record
		for _, item := range items {
			itemsTotal.WithLabelValues(resource, item.outcome.String()).Inc()
			switch item.outcome {
			case OutcomeSuccess:
				res.Succeeded += len(item.records)
			case OutcomeNotFound:
				res.NotFound += len(item.records)
			case OutcomeDropped:
				res.Dropped++
			}
			rows = append(rows, item.records...)
		}

		if err := s.Append(rows); err != nil {
			batchesTotal.WithLabelValues(resource, "failed").Inc()
			return Result{}, fmt.Errorf("%s batch %d/%d: %w", resource, i+1, len(pages), err)
		}

		batchesTotal.WithLabelValues(resource, "ok").Inc()
		batchDuration.WithLabelValues(resource).Observe(time.Since(batchStart).Seconds())
		logger.Info().
			Int("batch", i+1).
			Int("batches", len(pages)).
			Int("rows", len(rows)).
			Int("staged", s.Lines()).
			Dur("duration", time.Since(batchStart)).
			Msg("Batch complete")
	}

	records, err := s.Drain()
	if err != nil {
		return Result{}, fmt.Errorf("%s drain: %w", resource, err)
	}
	res.Records = records

	logger.Info().
		Int("records", len(records)).
		Int("succeeded", res.Succeeded).
		Int("not_found", res.NotFound).
		Int("dropped", res.Dropped).
		Dur("duration", time.Since(start)).
		Msg("Crawl complete")

	return res, nil
}

// release disposes of a sink after a failed crawl.
func (c *Crawler) release(logger zerolog.Logger, s sink) {
	if buf, ok := s.(*staging.Buffer); ok && c.config.KeepStagingOnError {
		if err := buf.Abandon(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close staging file")
			return
		}
		logger.Warn().
			Str("staging_file", buf.Path()).
			Int("staged", buf.Lines()).
			Msg("Crawl failed; staging file kept for inspection")
		return
	}

	if err := s.Discard(); err != nil && !errors.Is(err, staging.ErrClosed) {
		logger.Warn().Err(err).Msg("Failed to remove staging file")
	}
}
