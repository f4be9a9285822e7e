package main

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/cache"
	"github.com/sells-group/profile-cli/internal/extract"
	"github.com/sells-group/profile-cli/internal/fetch"
	"github.com/sells-group/profile-cli/internal/pipeline"
	"github.com/sells-group/profile-cli/internal/store"
	"github.com/sells-group/profile-cli/internal/structurer"
	anthropicpkg "github.com/sells-group/profile-cli/pkg/anthropic"
	"github.com/sells-group/profile-cli/pkg/notion"
	"github.com/sells-group/profile-cli/pkg/reader"
)

// pipelineEnv holds the initialized store, clients and coordinator shared
// by the profile/batch/serve commands.
type pipelineEnv struct {
	Store       store.Store
	Cache       cache.Cache
	Coordinator *pipeline.Coordinator
	Notion      notion.Client // nil unless configured
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if c, ok := pe.Cache.(io.Closer); ok {
		_ = c.Close()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates config for the given command mode, sets up the
// store, the cache, the fetch chain and the optional AI backend, and builds
// the coordinator. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	candCache, err := initCache()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	// The AI layer is optional: without a key the pipeline degrades to
	// pattern/entity extraction.
	var ai *structurer.Structurer
	if cfg.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		completer := anthropicpkg.NewCompleter(client, cfg.Anthropic.Model,
			anthropicpkg.WithTemperature(cfg.Anthropic.Temperature))
		ai = structurer.New(completer, time.Duration(cfg.Pipeline.AITimeoutSecs)*time.Second,
			structurer.WithMaxTokens(int64(cfg.Anthropic.MaxTokens)))
	} else {
		zap.L().Warn("anthropic key not set, ai structuring disabled")
	}

	// Fetch chain: plain GET first, rendering reader as the URL fallback,
	// then the non-network fetchers for document/text sources.
	fetchers := []fetch.Fetcher{fetch.NewHTTPFetcher(
		fetch.WithUserAgent(cfg.Fetch.UserAgent),
		fetch.WithMaxBodyBytes(int64(cfg.Fetch.MaxBodyKB)*1024),
		fetch.WithHostRate(float64(cfg.Fetch.HostRateLimit)),
	)}
	if cfg.Reader.Key != "" {
		readerClient := reader.NewClient(cfg.Reader.Key, reader.WithBaseURL(cfg.Reader.BaseURL))
		fetchers = append(fetchers, fetch.NewReaderFetcher(readerClient))
	} else {
		zap.L().Warn("reader key not set, rendering fallback disabled")
	}
	fetchers = append(fetchers, fetch.NewDirectFetcher(), fetch.NewFTPFetcher())
	chain := fetch.NewChain(fetchers...).WithMinText(cfg.Fetch.MinContentChars)

	var notionClient notion.Client
	if cfg.Notion.Token != "" {
		notionClient = notion.NewClient(cfg.Notion.Token)
	}

	coordinator := pipeline.New(chain, ai, extract.NoopRecognizer{}, candCache, st)

	return &pipelineEnv{
		Store:       st,
		Cache:       candCache,
		Coordinator: coordinator,
		Notion:      notionClient,
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "profile.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initCache() (cache.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	ttl := time.Duration(cfg.Cache.TTLHours) * time.Hour
	switch cfg.Cache.Driver {
	case "memory":
		return cache.NewMemory(ttl), nil
	case "sqlite":
		return cache.NewSQLite(cfg.Cache.Path, ttl)
	default:
		return nil, eris.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
}

// defaultOptions builds the configured per-run pipeline options.
func defaultOptions() pipeline.Options {
	return pipeline.Options{
		UseAI:            cfg.Pipeline.UseAI,
		MaxConcurrency:   cfg.Pipeline.MaxConcurrency,
		TimeoutPerSource: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
	}
}
