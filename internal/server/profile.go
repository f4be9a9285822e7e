package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/model"
	"github.com/sells-group/profile-cli/internal/pipeline"
)

// profileRequest is the POST /api/v1/profile body. Documents arrive
// already decoded to text; the server never reads files.
type profileRequest struct {
	OrgName    string          `json:"org_name"`
	URLs       []string        `json:"urls,omitempty"`
	Documents  []documentInput `json:"documents,omitempty"`
	Text       string          `json:"text,omitempty"`
	UseAI      *bool           `json:"use_ai,omitempty"`
	FocusHints []string        `json:"focus_hints,omitempty"`
}

type documentInput struct {
	Name      string `json:"name"`
	Content   string `json:"content"`
	MediaType string `json:"media_type,omitempty"`
}

type profileResponse struct {
	Status string                `json:"status"`
	Draft  *model.ProfileDraft   `json:"draft"`
	Errors []model.PipelineError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error  string                `json:"error"`
	Errors []model.PipelineError `json:"errors,omitempty"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sources, err := req.sources()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(sources) == 0 {
		writeError(w, http.StatusBadRequest, "at least one source is required")
		return
	}
	if len(sources) > s.opts.MaxSources {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("too many sources: %d exceeds the maximum of %d", len(sources), s.opts.MaxSources))
		return
	}

	opts := s.opts.Pipeline
	opts.OrgName = strings.TrimSpace(req.OrgName)
	if req.UseAI != nil {
		opts.UseAI = *req.UseAI
	}
	if len(req.FocusHints) > 0 {
		opts.FocusHints = req.FocusHints
	}

	draft, perrs, err := s.runner.Run(r.Context(), sources, opts)
	switch {
	case err == nil:
		status := "complete"
		if len(perrs) > 0 {
			status = "partial"
		}
		writeJSON(w, http.StatusOK, profileResponse{Status: status, Draft: draft, Errors: perrs})
	case errors.Is(err, pipeline.ErrAllSourcesFailed):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "all sources failed at fetch", Errors: perrs})
	case errors.Is(err, context.Canceled):
		// Client went away mid-run; the write is best-effort.
		writeError(w, http.StatusInternalServerError, "run cancelled")
	default:
		zap.L().Error("server: profile run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "profile run failed")
	}
}

// sources assembles the pipeline input in request order: URLs, then
// documents, then free text. URLs must be absolute http(s).
func (r *profileRequest) sources() ([]model.Source, error) {
	var out []model.Source
	order := 0

	for _, raw := range r.URLs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, eris.Errorf("invalid url %q", raw)
		}
		out = append(out, model.Source{ID: raw, Kind: model.SourceKindURL, Content: raw, Order: order})
		order++
	}

	for i, doc := range r.Documents {
		name := strings.TrimSpace(doc.Name)
		if name == "" {
			name = fmt.Sprintf("document-%d", i+1)
		}
		if strings.TrimSpace(doc.Content) == "" {
			return nil, eris.Errorf("document %q has no content", name)
		}
		out = append(out, model.Source{
			ID:        name,
			Kind:      model.SourceKindDocument,
			Content:   doc.Content,
			MediaType: doc.MediaType,
			Order:     order,
		})
		order++
	}

	if text := strings.TrimSpace(r.Text); text != "" {
		out = append(out, model.Source{ID: "text", Kind: model.SourceKindText, Content: text, Order: order})
	}
	return out, nil
}
