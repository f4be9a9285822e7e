package model

import "time"

// SourceKind identifies how a source's content is obtained.
type SourceKind string

const (
	SourceKindURL      SourceKind = "url"      // fetched over HTTP with fallback rendering
	SourceKindDocument SourceKind = "document" // pre-decoded document text, passed through
	SourceKindText     SourceKind = "text"     // free-form text supplied by the caller
)

// InputMode describes what the caller supplied for a profiling run.
type InputMode string

const (
	InputModeURLOnly InputMode = "url_only" // URLs only
	InputModeMixed   InputMode = "mixed"    // URLs plus documents or text
	InputModeOffline InputMode = "offline"  // documents/text only, no network fetch
)

// Source is one unit of input to a profiling run: a URL, an uploaded
// document already decoded to text, or raw free-form text.
type Source struct {
	ID        string     `json:"id"` // URL, document name, or caller-assigned label
	Kind      SourceKind `json:"kind"`
	Content   string     `json:"content,omitempty"`    // pre-decoded text for document/text kinds
	MediaType string     `json:"media_type,omitempty"` // optional hint, e.g. "text/html"
	Order     int        `json:"order"`                // position in the caller's source list
}

// FetchMethod identifies which retrieval strategy produced raw content.
type FetchMethod string

const (
	FetchMethodPrimary  FetchMethod = "primary"  // plain HTTP GET
	FetchMethodFallback FetchMethod = "fallback" // rendering reader (scripts executed)
	FetchMethodDirect   FetchMethod = "direct"   // document/text plane: pass-through, local file, or FTP

)

// FetchMetadata describes how a source's raw content was obtained.
type FetchMetadata struct {
	Method        FetchMethod   `json:"method"`
	StatusCode    int           `json:"status_code,omitempty"`
	ContentLength int           `json:"content_length"`
	Latency       time.Duration `json:"latency"`
	FetchedAt     time.Time     `json:"fetched_at"`
}

// RawContent is the fetched but not yet normalized material for one source.
// Title is set only when the retrieval method surfaces one (the rendering
// reader does); for HTML bodies the normalizer mines it instead.
type RawContent struct {
	SourceID string        `json:"source_id"`
	Body     string        `json:"body"`
	Title    string        `json:"title,omitempty"`
	IsHTML   bool          `json:"is_html"`
	Meta     FetchMetadata `json:"meta"`
}

// DetermineInputMode classifies a source list for observability.
func DetermineInputMode(sources []Source) InputMode {
	var urls, other int
	for _, s := range sources {
		if s.Kind == SourceKindURL {
			urls++
		} else {
			other++
		}
	}
	switch {
	case urls > 0 && other == 0:
		return InputModeURLOnly
	case urls == 0:
		return InputModeOffline
	default:
		return InputModeMixed
	}
}
