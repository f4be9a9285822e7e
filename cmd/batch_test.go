package main

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/profile-cli/internal/config"
	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/pipeline"
	"github.com/sells-group/profile-cli/pkg/notion"
)

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			MaxConcurrency: 5,
			UseAI:          true,
			MaxSources:     20,
			AITimeoutSecs:  60,
		},
		Fetch: config.FetchConfig{TimeoutSecs: 30},
		Batch: config.BatchConfig{MaxConcurrentOrgs: 3},
	}
}

func testOrgs(n int) []batchOrg {
	orgs := make([]batchOrg, 0, n)
	for i := 0; i < n; i++ {
		orgs = append(orgs, batchOrg{
			Name: "Org " + string(rune('A'+i)),
			Sources: []model.Source{
				{ID: "https://example.com", Kind: model.SourceKindURL, Order: 0},
			},
		})
	}
	return orgs
}

func TestProcessBatch_CountsOutcomes(t *testing.T) {
	cfg = testConfig()

	var calls atomic.Int64
	profile := func(_ context.Context, _ []model.Source, opts pipeline.Options) (*model.ProfileDraft, []model.PipelineError, error) {
		n := calls.Add(1)
		if n%2 == 0 {
			return nil, nil, eris.New("all sources failed")
		}
		return &model.ProfileDraft{CompanyName: opts.OrgName, ConfidenceScore: 0.5}, nil, nil
	}

	err := processBatch(context.Background(), testOrgs(4), 0, 2, nil, profile)
	require.NoError(t, err)
	assert.Equal(t, int64(4), calls.Load())
}

func TestProcessBatch_AppliesLimit(t *testing.T) {
	cfg = testConfig()

	var calls atomic.Int64
	profile := func(_ context.Context, _ []model.Source, _ pipeline.Options) (*model.ProfileDraft, []model.PipelineError, error) {
		calls.Add(1)
		return &model.ProfileDraft{}, nil, nil
	}

	err := processBatch(context.Background(), testOrgs(5), 2, 3, nil, profile)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestProcessBatch_FailureDoesNotAbortBatch(t *testing.T) {
	cfg = testConfig()

	var calls atomic.Int64
	profile := func(_ context.Context, _ []model.Source, _ pipeline.Options) (*model.ProfileDraft, []model.PipelineError, error) {
		calls.Add(1)
		return nil, nil, eris.New("boom")
	}

	err := processBatch(context.Background(), testOrgs(3), 0, 1, nil, profile)
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load())
}

func TestProcessBatch_Empty(t *testing.T) {
	cfg = testConfig()

	err := processBatch(context.Background(), nil, 0, 1, nil, func(context.Context, []model.Source, pipeline.Options) (*model.ProfileDraft, []model.PipelineError, error) {
		t.Fatal("profile should not be called for an empty batch")
		return nil, nil, nil
	})
	require.NoError(t, err)
}

func TestQueueToOrgs_SkipsUnusableItems(t *testing.T) {
	items := []notion.QueueItem{
		{PageID: "p1", Name: "Acme", URL: "https://acme.com", Notes: "industrial supplier"},
		{PageID: "p2", Name: "No URL"},
		{PageID: "p3", Name: "Bad URL", URL: "ftp://not-http.example"},
		{PageID: "p4", Name: "Bare Domain", URL: "example.org"},
	}

	orgs, err := queueToOrgs(items)
	require.NoError(t, err)
	require.Len(t, orgs, 2)

	assert.Equal(t, "Acme", orgs[0].Name)
	assert.Equal(t, "p1", orgs[0].NotionPageID)
	require.Len(t, orgs[0].Sources, 2) // url + notes text
	assert.Equal(t, model.SourceKindURL, orgs[0].Sources[0].Kind)
	assert.Equal(t, model.SourceKindText, orgs[0].Sources[1].Kind)

	assert.Equal(t, "Bare Domain", orgs[1].Name)
	assert.Equal(t, "https://example.org", orgs[1].Sources[0].ID)
}
