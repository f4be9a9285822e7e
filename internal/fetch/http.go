package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/profile-cli/internal/model"
)

const (
	// defaultMaxBodyBytes caps how much of a response body is read.
	defaultMaxBodyBytes = 512 * 1024

	// defaultHostRate and defaultHostBurst bound requests per company site.
	// Sites that 429 get their rate halved by the adaptive limiter.
	defaultHostRate  = rate.Limit(2)
	defaultHostBurst = 4

	defaultUserAgent = "Mozilla/5.0 (compatible; ProfileBot/1.0)"
)

// HTTPFetcher retrieves URL sources with a plain GET. No retries: thin or
// failed pages fall through to the rendering fallback in the chain.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
	hostRate  rate.Limit

	mu       sync.Mutex
	limiters map[string]*AdaptiveLimiter
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodyBytes overrides the response body cap.
func WithMaxBodyBytes(n int64) HTTPOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// WithHostRate overrides the initial per-host request rate. The adaptive
// limiter still adjusts it per host from there.
func WithHostRate(perSec float64) HTTPOption {
	return func(f *HTTPFetcher) {
		if perSec > 0 {
			f.hostRate = rate.Limit(perSec)
		}
	}
}

// NewHTTPFetcher creates an HTTPFetcher with per-host adaptive rate limiting.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: defaultUserAgent,
		maxBody:   defaultMaxBodyBytes,
		hostRate:  defaultHostRate,
		limiters:  make(map[string]*AdaptiveLimiter),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *HTTPFetcher) Name() string { return "http" }

func (f *HTTPFetcher) Supports(src model.Source) bool {
	return src.Kind == model.SourceKindURL
}

// limiterFor returns the adaptive limiter for host, creating one on first use.
func (f *HTTPFetcher) limiterFor(host string) *AdaptiveLimiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = NewAdaptiveLimiter(f.hostRate, defaultHostBurst)
		f.limiters[host] = lim
	}
	return lim
}

// Fetch GETs the source URL, capping the body at the configured limit.
func (f *HTTPFetcher) Fetch(ctx context.Context, src model.Source) (*model.RawContent, error) {
	u, err := url.Parse(src.ID)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &FetchError{SourceID: src.ID, Reason: ReasonInvalidURL,
			Err: eris.Errorf("http: not a fetchable url: %q", src.ID)}
	}

	lim := f.limiterFor(u.Host)
	if err := lim.Wait(ctx); err != nil {
		return nil, &FetchError{SourceID: src.ID, Reason: classify(err), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.ID, nil)
	if err != nil {
		return nil, &FetchError{SourceID: src.ID, Reason: ReasonInvalidURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{SourceID: src.ID, Reason: classify(err), Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, &FetchError{SourceID: src.ID, Reason: classify(err), Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		lim.OnRateLimit()
	}
	if resp.StatusCode >= 400 {
		return nil, &FetchError{SourceID: src.ID, Reason: ReasonHTTPError,
			Err: eris.Errorf("http: status %d", resp.StatusCode)}
	}

	lim.OnSuccess()

	return &model.RawContent{
		SourceID: src.ID,
		Body:     string(body),
		IsHTML:   looksLikeHTML(resp.Header.Get("Content-Type"), body),
		Meta: model.FetchMetadata{
			Method:        model.FetchMethodPrimary,
			StatusCode:    resp.StatusCode,
			ContentLength: len(body),
			Latency:       time.Since(start),
			FetchedAt:     time.Now(),
		},
	}, nil
}

// looksLikeHTML decides from the Content-Type header, falling back to
// sniffing the opening bytes when the header is absent or generic.
func looksLikeHTML(contentType string, body []byte) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml") {
		return true
	}
	if ct != "" && !strings.Contains(ct, "octet-stream") && !strings.Contains(ct, "text/plain") {
		return false
	}

	head := body
	if len(head) > 512 {
		head = head[:512]
	}
	lower := strings.ToLower(string(head))
	return strings.Contains(lower, "<!doctype html") || strings.Contains(lower, "<html")
}
