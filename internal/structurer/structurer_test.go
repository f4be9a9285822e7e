package structurer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/profile-cli/internal/model"
)

type fakeCompleter struct {
	resp      string
	err       error
	calls     int
	gotSystem string
	gotPrompt string
	gotMax    int64
}

func (f *fakeCompleter) Complete(_ context.Context, system, prompt string, maxTokens int64) (string, error) {
	f.calls++
	f.gotSystem = system
	f.gotPrompt = prompt
	f.gotMax = maxTokens
	return f.resp, f.err
}

const sampleText = "Acme Robotics builds autonomous warehouse robots for logistics companies worldwide."

func TestCandidate_ParsesModelJSON(t *testing.T) {
	fake := &fakeCompleter{resp: `{"company_name": "Acme Robotics", "founded_year": 1998, "emails": ["info@acme.io"]}`}
	s := New(fake, 0)

	c := s.Candidate(context.Background(), &model.NormalizedContent{SourceID: "https://acme.io", Text: sampleText}, nil)

	require.NotNil(t, c)
	assert.Equal(t, "Acme Robotics", c.CompanyName)
	assert.Equal(t, "1998", c.FoundedYear, "numeric founded_year is coerced to a string")
	assert.Equal(t, []string{"info@acme.io"}, c.Emails)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, int64(defaultMaxTokens), fake.gotMax)
}

func TestCandidate_MaxTokensOption(t *testing.T) {
	fake := &fakeCompleter{resp: `{}`}
	s := New(fake, 0, WithMaxTokens(512))

	s.Candidate(context.Background(), &model.NormalizedContent{SourceID: "https://acme.io", Text: sampleText}, nil)

	assert.Equal(t, int64(512), fake.gotMax)

	s = New(fake, 0, WithMaxTokens(0))
	assert.Equal(t, int64(defaultMaxTokens), s.maxTokens)
}

func TestCandidate_StripsCodeFences(t *testing.T) {
	fake := &fakeCompleter{resp: "```json\n{\"company_name\": \"Acme\"}\n```"}
	s := New(fake, 0)

	c := s.Candidate(context.Background(), &model.NormalizedContent{SourceID: "s1", Text: sampleText}, nil)

	require.NotNil(t, c)
	assert.Equal(t, "Acme", c.CompanyName)
}

func TestCandidate_RepairsMalformedJSON(t *testing.T) {
	fake := &fakeCompleter{resp: `{"company_name": "Acme", "values": ["quality", "speed",]}`}
	s := New(fake, 0)

	c := s.Candidate(context.Background(), &model.NormalizedContent{SourceID: "s1", Text: sampleText}, nil)

	require.NotNil(t, c)
	assert.Equal(t, "Acme", c.CompanyName)
	assert.Equal(t, []string{"quality", "speed"}, c.Values)
}

func TestCandidate_RejectsWrongShape(t *testing.T) {
	fake := &fakeCompleter{resp: `{"company_name": {"text": "Acme"}}`}
	s := New(fake, 0)

	c := s.Candidate(context.Background(), &model.NormalizedContent{SourceID: "s1", Text: sampleText}, nil)

	assert.Nil(t, c)
}

func TestCandidate_NilOnProseResponse(t *testing.T) {
	fake := &fakeCompleter{resp: "I could not find any information about this organization."}
	s := New(fake, 0)

	c := s.Candidate(context.Background(), &model.NormalizedContent{SourceID: "s1", Text: sampleText}, nil)

	assert.Nil(t, c)
}

func TestCandidate_SkipsShortContent(t *testing.T) {
	fake := &fakeCompleter{resp: `{"company_name": "Acme"}`}
	s := New(fake, 0)

	c := s.Candidate(context.Background(), &model.NormalizedContent{SourceID: "s1", Text: "Tiny."}, nil)

	assert.Nil(t, c)
	assert.Zero(t, fake.calls, "model must not be called for near-empty content")
}

func TestCandidate_CompleterErrorReturnsNil(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("model overloaded")}
	s := New(fake, 0)

	c := s.Candidate(context.Background(), &model.NormalizedContent{SourceID: "s1", Text: sampleText}, nil)

	assert.Nil(t, c)
}

func TestCandidate_PromptCarriesHintsAndBudget(t *testing.T) {
	fake := &fakeCompleter{resp: `{}`}
	s := New(fake, 0)
	nc := &model.NormalizedContent{
		SourceID: "doc-1",
		Title:    "Acme Robotics",
		Text:     strings.Repeat("a", contentBudget) + "OVERFLOW",
	}

	c := s.Candidate(context.Background(), nc, []string{"ownership", "locations"})

	require.NotNil(t, c)
	assert.Equal(t, structureSystemText, fake.gotSystem)
	assert.Equal(t, int64(defaultMaxTokens), fake.gotMax)
	assert.Contains(t, fake.gotPrompt, "ownership, locations")
	assert.Contains(t, fake.gotPrompt, "Title: Acme Robotics")
	assert.Contains(t, fake.gotPrompt, "Source: doc-1")
	assert.NotContains(t, fake.gotPrompt, "OVERFLOW", "content past the budget is cut")
}

func TestCandidate_AllNullFieldsStillParses(t *testing.T) {
	fake := &fakeCompleter{resp: `{"company_name": null, "emails": []}`}
	s := New(fake, 0)

	c := s.Candidate(context.Background(), &model.NormalizedContent{SourceID: "s1", Text: sampleText}, nil)

	require.NotNil(t, c)
	assert.True(t, c.Empty())
}

func TestCandidate_NilStructurerAndContent(t *testing.T) {
	var s *Structurer
	assert.Nil(t, s.Candidate(context.Background(), &model.NormalizedContent{Text: sampleText}, nil))

	s = New(&fakeCompleter{resp: `{}`}, 0)
	assert.Nil(t, s.Candidate(context.Background(), nil, nil))
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, cleanJSON("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, cleanJSON("```\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, cleanJSON("Here is the JSON: {\"a\": 1} Done."))
	assert.Equal(t, "", cleanJSON("   "))
}
