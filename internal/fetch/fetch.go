// Package fetch retrieves raw source content. URL sources go through plain
// HTTP first with a rendering reader fallback for thin or blocked pages;
// document and text sources pass through directly, with local file and
// anonymous FTP retrieval for file-backed documents.
package fetch

import (
	"context"

	"github.com/sells-group/profile-cli/internal/model"
)

// Fetcher retrieves the raw content for one source.
type Fetcher interface {
	Fetch(ctx context.Context, src model.Source) (*model.RawContent, error)
	Name() string
	Supports(src model.Source) bool
}
