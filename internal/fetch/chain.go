package fetch

import (
	"context"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/model"
)

// minExtractableText is the thin-content threshold. A URL source whose
// stripped text falls under it is re-fetched through the next fetcher,
// usually the rendering reader, since short bodies are typically
// script-shells or interstitials.
const minExtractableText = 500

// Chain tries fetchers in priority order. For URL sources a successful but
// thin result is kept as best-so-far and the next fetcher is tried; the
// longest result wins if no fetcher produces a full one.
type Chain struct {
	fetchers []Fetcher
	minText  int
}

// NewChain creates a Chain over the given fetchers, tried in order.
func NewChain(fetchers ...Fetcher) *Chain {
	return &Chain{fetchers: fetchers, minText: minExtractableText}
}

// WithMinText overrides the thin-content threshold. Values under 1 keep
// the default.
func (c *Chain) WithMinText(n int) *Chain {
	if n > 0 {
		c.minText = n
	}
	return c
}

// Fetch retrieves raw content for one source.
func (c *Chain) Fetch(ctx context.Context, src model.Source) (*model.RawContent, error) {
	var (
		lastErr error
		thin    *model.RawContent
	)

	for _, f := range c.fetchers {
		if !f.Supports(src) {
			continue
		}

		raw, err := f.Fetch(ctx, src)
		if err != nil {
			zap.L().Debug("fetch: fetcher failed, trying next",
				zap.String("fetcher", f.Name()),
				zap.String("source", src.ID),
				zap.Error(err),
			)
			lastErr = err
			continue
		}

		if src.Kind == model.SourceKindURL {
			if n := extractableTextLen(raw); n < c.minText {
				zap.L().Debug("fetch: thin content, trying fallback",
					zap.String("fetcher", f.Name()),
					zap.String("source", src.ID),
					zap.Int("text_len", n),
				)
				if thin == nil || n > extractableTextLen(thin) {
					thin = raw
				}
				continue
			}
		}

		return raw, nil
	}

	// A thin page beats reporting failure when nothing richer turned up.
	if thin != nil {
		return thin, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}

	return nil, &FetchError{SourceID: src.ID, Reason: ReasonUnsupportedType,
		Err: eris.Errorf("fetch: no fetcher supports source kind %q", src.Kind)}
}

var (
	noiseBlockRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>|<style[^>]*>.*?</style>`)
	anyTagRe     = regexp.MustCompile(`<[^>]+>`)
)

// extractableTextLen estimates how much prose a fetched body carries. HTML
// is tag-stripped first so markup weight does not mask empty pages.
func extractableTextLen(raw *model.RawContent) int {
	if raw == nil {
		return 0
	}
	body := raw.Body
	if raw.IsHTML {
		body = noiseBlockRe.ReplaceAllString(body, " ")
		body = anyTagRe.ReplaceAllString(body, " ")
	}
	return len(strings.Join(strings.Fields(body), " "))
}
