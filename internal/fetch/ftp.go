package fetch

import (
	"context"
	"io"
	"net"
	"net/url"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/model"
)

// FTPFetcher retrieves ftp:// document sources via anonymous FTP.
type FTPFetcher struct {
	timeout time.Duration
}

// NewFTPFetcher creates an FTPFetcher with a 30s dial timeout.
func NewFTPFetcher() *FTPFetcher {
	return &FTPFetcher{timeout: 30 * time.Second}
}

func (f *FTPFetcher) Name() string { return "ftp" }

func (f *FTPFetcher) Supports(src model.Source) bool {
	return src.Kind == model.SourceKindDocument &&
		strings.HasPrefix(strings.ToLower(src.ID), "ftp://")
}

func (f *FTPFetcher) Fetch(ctx context.Context, src model.Source) (*model.RawContent, error) {
	host, path, err := parseFTPURL(src.ID)
	if err != nil {
		return nil, &FetchError{SourceID: src.ID, Reason: ReasonInvalidURL, Err: err}
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("path", path))

	start := time.Now()
	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, &FetchError{SourceID: src.ID, Reason: classify(err),
			Err: eris.Wrap(err, "ftp: dial")}
	}
	defer conn.Quit() //nolint:errcheck

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		return nil, &FetchError{SourceID: src.ID, Reason: ReasonHTTPError,
			Err: eris.Wrap(err, "ftp: login")}
	}

	resp, err := conn.Retr(path)
	if err != nil {
		return nil, &FetchError{SourceID: src.ID, Reason: ReasonHTTPError,
			Err: eris.Wrap(err, "ftp: retrieve")}
	}

	data, err := io.ReadAll(io.LimitReader(resp, defaultMaxBodyBytes))
	closeErr := resp.Close()
	if err != nil {
		return nil, &FetchError{SourceID: src.ID, Reason: classify(err),
			Err: eris.Wrap(err, "ftp: read")}
	}
	if closeErr != nil {
		zap.L().Debug("ftp: close response", zap.Error(closeErr))
	}

	var body string
	if isSpreadsheet(filepath.Base(path), src.MediaType) {
		flat, err := flattenXLSX(data)
		if err != nil {
			return nil, &FetchError{SourceID: src.ID, Reason: ReasonUnsupportedType,
				Err: eris.Wrap(err, "ftp: flatten spreadsheet")}
		}
		body = flat
	} else {
		if !utf8.Valid(data) {
			return nil, &FetchError{SourceID: src.ID, Reason: ReasonUnsupportedType,
				Err: eris.Errorf("ftp: document %s is not text", src.ID)}
		}
		body = string(data)
	}

	return &model.RawContent{
		SourceID: src.ID,
		Body:     body,
		IsHTML:   looksLikeHTML("", data),
		Meta: model.FetchMetadata{
			Method:        model.FetchMethodDirect,
			ContentLength: len(body),
			Latency:       time.Since(start),
			FetchedAt:     time.Now(),
		},
	}, nil
}

// parseFTPURL extracts host (with port) and path from an FTP URL.
func parseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "ftp: parse url")
	}
	if !strings.EqualFold(u.Scheme, "ftp") {
		return "", "", eris.Errorf("ftp: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", eris.New("ftp: empty path in url")
	}

	return host, path, nil
}
