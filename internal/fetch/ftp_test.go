package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/profile-cli/internal/model"
)

func TestParseFTPURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantHost string
		wantPath string
		wantErr  bool
	}{
		{
			name:     "standard ftp url",
			url:      "ftp://files.acme.com/pub/brochure.txt",
			wantHost: "files.acme.com:21",
			wantPath: "/pub/brochure.txt",
		},
		{
			name:     "ftp url with port",
			url:      "ftp://files.acme.com:2121/docs/fact-sheet.txt",
			wantHost: "files.acme.com:2121",
			wantPath: "/docs/fact-sheet.txt",
		},
		{
			name:     "nested path",
			url:      "ftp://files.acme.com/pub/2024/q1/overview.txt",
			wantHost: "files.acme.com:21",
			wantPath: "/pub/2024/q1/overview.txt",
		},
		{
			name:    "http scheme rejected",
			url:     "http://acme.com/file.txt",
			wantErr: true,
		},
		{
			name:    "empty path",
			url:     "ftp://files.acme.com",
			wantErr: true,
		},
		{
			name:    "invalid url",
			url:     "://bad",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, path, err := parseFTPURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestFTPFetcher_Supports(t *testing.T) {
	f := NewFTPFetcher()
	assert.True(t, f.Supports(model.Source{ID: "ftp://host/doc.txt", Kind: model.SourceKindDocument}))
	assert.True(t, f.Supports(model.Source{ID: "FTP://host/doc.txt", Kind: model.SourceKindDocument}))
	assert.False(t, f.Supports(model.Source{ID: "/local/doc.txt", Kind: model.SourceKindDocument}))
	assert.False(t, f.Supports(model.Source{ID: "ftp://host/doc.txt", Kind: model.SourceKindURL}))
}
