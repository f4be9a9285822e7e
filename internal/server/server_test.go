package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/pipeline"
)

// fakeRunner records what the handler passed in and returns a canned
// pipeline outcome.
type fakeRunner struct {
	mu      sync.Mutex
	sources []model.Source
	opts    pipeline.Options
	draft   *model.ProfileDraft
	perrs   []model.PipelineError
	err     error
}

func (f *fakeRunner) Run(_ context.Context, sources []model.Source, opts pipeline.Options) (*model.ProfileDraft, []model.PipelineError, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources = sources
	f.opts = opts
	return f.draft, f.perrs, f.err
}

func sampleDraft() *model.ProfileDraft {
	return &model.ProfileDraft{
		CompanyName:     "Acme Corp",
		Website:         "https://acme.example.com",
		ConfidenceScore: 0.5,
		Provenance: map[string]model.FieldProvenance{
			model.FieldCompanyName: {
				FieldKey: model.FieldCompanyName,
				Entries:  []model.ProvenanceEntry{{SourceID: "https://acme.example.com", Layer: model.LayerAI, RawValue: "Acme Corp"}},
			},
		},
	}
}

func postProfile(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/profile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	h := New(&fakeRunner{}, Options{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestProfile_CompleteRun(t *testing.T) {
	runner := &fakeRunner{draft: sampleDraft()}
	h := New(runner, Options{Pipeline: pipeline.Options{UseAI: true}}).Handler()

	rr := postProfile(t, h, `{
		"org_name": "Acme Corp",
		"urls": ["https://acme.example.com", "https://acme.example.com/about"]
	}`)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp profileResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "complete", resp.Status)
	require.NotNil(t, resp.Draft)
	assert.Equal(t, "Acme Corp", resp.Draft.CompanyName)
	assert.Empty(t, resp.Errors)

	require.Len(t, runner.sources, 2)
	assert.Equal(t, model.SourceKindURL, runner.sources[0].Kind)
	assert.Equal(t, "https://acme.example.com", runner.sources[0].ID)
	assert.Equal(t, 0, runner.sources[0].Order)
	assert.Equal(t, 1, runner.sources[1].Order)
	assert.Equal(t, "Acme Corp", runner.opts.OrgName)
	assert.True(t, runner.opts.UseAI)
}

func TestProfile_PartialRun(t *testing.T) {
	runner := &fakeRunner{
		draft: sampleDraft(),
		perrs: []model.PipelineError{{SourceID: "https://down.example.com", Stage: model.StageFetch, Message: "connection refused"}},
	}
	h := New(runner, Options{}).Handler()

	rr := postProfile(t, h, `{"urls": ["https://acme.example.com", "https://down.example.com"]}`)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp profileResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "partial", resp.Status)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, model.StageFetch, resp.Errors[0].Stage)
}

func TestProfile_AllSourcesFail(t *testing.T) {
	runner := &fakeRunner{
		perrs: []model.PipelineError{{SourceID: "https://down.example.com", Stage: model.StageFetch, Message: "connection refused"}},
		err:   pipeline.ErrAllSourcesFailed,
	}
	h := New(runner, Options{}).Handler()

	rr := postProfile(t, h, `{"urls": ["https://down.example.com"]}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "all sources failed at fetch", resp.Error)
	assert.Len(t, resp.Errors, 1)
}

func TestProfile_InvalidJSON(t *testing.T) {
	h := New(&fakeRunner{}, Options{}).Handler()

	rr := postProfile(t, h, "not json")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestProfile_InvalidURL(t *testing.T) {
	h := New(&fakeRunner{}, Options{}).Handler()

	rr := postProfile(t, h, `{"urls": ["ftp://files.example.com/brochure.txt"]}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid url")
}

func TestProfile_NoSources(t *testing.T) {
	h := New(&fakeRunner{}, Options{}).Handler()

	rr := postProfile(t, h, `{"org_name": "Acme Corp"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "at least one source is required")
}

func TestProfile_TooManySources(t *testing.T) {
	h := New(&fakeRunner{}, Options{MaxSources: 2}).Handler()

	rr := postProfile(t, h, `{"urls": ["https://a.example.com", "https://b.example.com", "https://c.example.com"]}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "too many sources")
}

func TestProfile_BodyTooLarge(t *testing.T) {
	h := New(&fakeRunner{}, Options{MaxBodyBytes: 64}).Handler()

	var buf bytes.Buffer
	buf.WriteString(`{"text": "`)
	buf.WriteString(strings.Repeat("x", 256))
	buf.WriteString(`"}`)

	rr := postProfile(t, h, buf.String())

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "request body exceeds")
}

func TestProfile_DocumentWithoutContent(t *testing.T) {
	h := New(&fakeRunner{}, Options{}).Handler()

	rr := postProfile(t, h, `{"documents": [{"name": "brochure.txt", "content": ""}]}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `document "brochure.txt" has no content`)
}

func TestProfile_MixedSourcesInRequestOrder(t *testing.T) {
	runner := &fakeRunner{draft: sampleDraft()}
	h := New(runner, Options{}).Handler()

	rr := postProfile(t, h, `{
		"urls": ["https://acme.example.com"],
		"documents": [{"name": "brochure.txt", "content": "Acme Corp brochure text."}],
		"text": "Notes from the sales call."
	}`)

	assert.Equal(t, http.StatusOK, rr.Code)

	require.Len(t, runner.sources, 3)
	assert.Equal(t, model.SourceKindURL, runner.sources[0].Kind)
	assert.Equal(t, model.SourceKindDocument, runner.sources[1].Kind)
	assert.Equal(t, "brochure.txt", runner.sources[1].ID)
	assert.Equal(t, model.SourceKindText, runner.sources[2].Kind)
	for i, src := range runner.sources {
		assert.Equal(t, i, src.Order)
	}
}

func TestProfile_UseAIOverride(t *testing.T) {
	runner := &fakeRunner{draft: sampleDraft()}
	h := New(runner, Options{Pipeline: pipeline.Options{UseAI: true}}).Handler()

	rr := postProfile(t, h, `{
		"urls": ["https://acme.example.com"],
		"use_ai": false,
		"focus_hints": ["funding"]
	}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, runner.opts.UseAI)
	assert.Equal(t, []string{"funding"}, runner.opts.FocusHints)
}

func TestProfile_RunnerFailure(t *testing.T) {
	runner := &fakeRunner{err: assert.AnError}
	h := New(runner, Options{}).Handler()

	rr := postProfile(t, h, `{"urls": ["https://acme.example.com"]}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "profile run failed")
}

func TestCORSPreflight(t *testing.T) {
	h := New(&fakeRunner{}, Options{}).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/profile", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
