package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/profile-cli/internal/intake"
	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/pipeline"
	"github.com/sells-group/profile-cli/pkg/notion"
)

var (
	batchInput  string
	batchNotion bool
	batchLimit  int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Profile organizations from a list file or the Notion queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mode := "batch"
		if batchNotion {
			mode = "batch-notion"
		} else if batchInput == "" {
			return eris.New("either --input or --notion is required")
		}

		env, err := initPipeline(ctx, mode)
		if err != nil {
			return err
		}
		defer env.Close()

		var orgs []batchOrg
		if batchNotion {
			items, err := notion.QueryQueuedOrgs(ctx, env.Notion, cfg.Notion.OrgDB)
			if err != nil {
				return eris.Wrap(err, "query queued orgs")
			}
			orgs, err = queueToOrgs(items)
			if err != nil {
				return err
			}
		} else {
			loaded, err := intake.LoadOrgs(batchInput)
			if err != nil {
				return eris.Wrap(err, "load org list")
			}
			for _, o := range loaded {
				orgs = append(orgs, batchOrg{Name: o.Name, Sources: o.Sources})
			}
		}

		return processBatch(ctx, orgs, batchLimit, cfg.Batch.MaxConcurrentOrgs, env.Notion, func(ctx context.Context, sources []model.Source, opts pipeline.Options) (*model.ProfileDraft, []model.PipelineError, error) {
			return env.Coordinator.Run(ctx, sources, opts)
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "organization list file (.csv, .xlsx or .yaml)")
	batchCmd.Flags().BoolVar(&batchNotion, "notion", false, "read the queue from the configured Notion database")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of organizations to process")
	rootCmd.AddCommand(batchCmd)
}

// batchOrg is one unit of batch work: an org's sources plus, for Notion
// queues, the page to write the outcome back to.
type batchOrg struct {
	Name         string
	Sources      []model.Source
	NotionPageID string
}

// queueToOrgs converts Notion queue items to batch work, skipping items
// with no usable URL.
func queueToOrgs(items []notion.QueueItem) ([]batchOrg, error) {
	var orgs []batchOrg
	for _, item := range items {
		if item.URL == "" {
			zap.L().Warn("skipping queue item without url", zap.String("name", item.Name))
			continue
		}
		sources, err := intake.Sources([]string{item.URL}, nil, item.Notes)
		if err != nil {
			zap.L().Warn("skipping queue item with invalid url",
				zap.String("name", item.Name),
				zap.Error(err),
			)
			continue
		}
		orgs = append(orgs, batchOrg{Name: item.Name, Sources: sources, NotionPageID: item.PageID})
	}
	return orgs, nil
}

// profileFunc is the callback signature for running one organization.
type profileFunc func(ctx context.Context, sources []model.Source, opts pipeline.Options) (*model.ProfileDraft, []model.PipelineError, error)

// processBatch applies limit, then profiles orgs concurrently with the
// given function. Individual failures never abort the batch. When
// notionClient is non-nil, outcomes are written back to the org's page.
func processBatch(ctx context.Context, orgs []batchOrg, limit, concurrency int, notionClient notion.Client, profile profileFunc) error {
	if len(orgs) == 0 {
		zap.L().Info("no organizations to process")
		return nil
	}

	if limit > 0 && len(orgs) > limit {
		orgs = orgs[:limit]
	}

	zap.L().Info("processing batch",
		zap.Int("orgs", len(orgs)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, org := range orgs {
		g.Go(func() error {
			log := zap.L().With(zap.String("org", org.Name))

			opts := defaultOptions()
			opts.OrgName = org.Name

			draft, pipeErrs, err := profile(gctx, org.Sources, opts)
			if err != nil {
				failed.Add(1)
				log.Error("profiling failed", zap.Error(err))
				if notionClient != nil && org.NotionPageID != "" {
					if nErr := notion.MarkFailed(gctx, notionClient, org.NotionPageID, err); nErr != nil {
						log.Warn("failed to update notion status to Failed", zap.Error(nErr))
					}
				}
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("profiling complete",
				zap.Float64("score", draft.ConfidenceScore),
				zap.Int("fields_populated", len(draft.PopulatedFields())),
				zap.Int("source_errors", len(pipeErrs)),
			)
			if notionClient != nil && org.NotionPageID != "" {
				if nErr := notion.MarkProfiled(gctx, notionClient, org.NotionPageID, draft.ConfidenceScore); nErr != nil {
					log.Warn("failed to update notion status to Profiled", zap.Error(nErr))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
