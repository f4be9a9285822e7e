package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/resilience"
	"github.com/sells-group/profile-cli/pkg/reader"
)

// minRenderedContent is the shortest rendered body worth keeping. Anything
// under it is treated as a blocked or empty page.
const minRenderedContent = 100

// ReaderFetcher renders URL sources through the hosted reader API. A circuit
// breaker skips the upstream after 3 failures within 30s, for 60s.
type ReaderFetcher struct {
	client  reader.Client
	breaker *resilience.Breaker
}

// NewReaderFetcher wraps a reader client as the fallback fetcher.
func NewReaderFetcher(client reader.Client) *ReaderFetcher {
	return &ReaderFetcher{
		client:  client,
		breaker: resilience.NewBreaker("reader", 3, 30*time.Second, 60*time.Second),
	}
}

func (r *ReaderFetcher) Name() string { return "reader" }

// Supports returns true for URL sources unless the circuit breaker is open.
func (r *ReaderFetcher) Supports(src model.Source) bool {
	return src.Kind == model.SourceKindURL && !r.breaker.Open()
}

// Fetch renders the URL to markdown and validates the response.
func (r *ReaderFetcher) Fetch(ctx context.Context, src model.Source) (*model.RawContent, error) {
	if r.breaker.Open() {
		return nil, eris.New("reader: circuit breaker open")
	}

	start := time.Now()
	resp, err := r.client.Read(ctx, src.ID)
	if err != nil {
		r.breaker.RecordFailure()
		return nil, &FetchError{SourceID: src.ID, Reason: classify(err), Err: err}
	}

	if blocked, why := responseBlocked(resp); blocked {
		r.breaker.RecordFailure()
		return nil, &FetchError{SourceID: src.ID, Reason: ReasonHTTPError,
			Err: eris.Errorf("reader: %s", why)}
	}

	r.breaker.RecordSuccess()

	return &model.RawContent{
		SourceID: src.ID,
		Body:     resp.Data.Content,
		Title:    resp.Data.Title,
		IsHTML:   false, // rendered output is markdown
		Meta: model.FetchMetadata{
			Method:        model.FetchMethodFallback,
			StatusCode:    resp.Code,
			ContentLength: len(resp.Data.Content),
			Latency:       time.Since(start),
			FetchedAt:     time.Now(),
		},
	}, nil
}

// challengeSignatures mark bot-challenge interstitials that render as short
// pages of boilerplate instead of content.
var challengeSignatures = []string{
	"checking your browser",
	"enable javascript",
	"please enable cookies",
	"access denied",
	"403 forbidden",
	"just a moment",
	"cloudflare",
	"attention required",
}

// responseBlocked checks whether a rendered response carries usable content
// or indicates the page is blocked or empty.
func responseBlocked(resp *reader.ReadResponse) (bool, string) {
	if resp == nil {
		return true, "empty response"
	}

	if resp.Code != 0 && resp.Code != 200 {
		return true, fmt.Sprintf("upstream code %d", resp.Code)
	}

	content := strings.TrimSpace(resp.Data.Content)
	if len(content) < minRenderedContent {
		return true, "rendered content too short"
	}

	lower := strings.ToLower(content)
	for _, sig := range challengeSignatures {
		if strings.Contains(lower, sig) && len(content) < 1000 {
			return true, "challenge page: " + sig
		}
	}

	return false, ""
}
