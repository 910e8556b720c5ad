package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribeflow/internal/datauri"
	"scribeflow/internal/prompt"
	"scribeflow/internal/schema"
)

type stubProvider struct {
	resp  Response
	err   error
	calls []Request
}

func (s *stubProvider) Generate(_ context.Context, req Request) (Response, error) {
	s.calls = append(s.calls, req)
	return s.resp, s.err
}

var summaryOutput = schema.Object{
	Name:   "summary",
	Fields: []schema.Field{{Name: "summary", Type: schema.String, Required: true}},
}

func TestNewRequestKeepsPartOrder(t *testing.T) {
	req, err := NewRequest(prompt.Rendered{Parts: []prompt.Part{
		{Text: "Form File:\n"},
		{MediaURL: "data:application/pdf;base64,aGVsbG8="},
	}}, &summaryOutput)
	require.NoError(t, err)

	require.Len(t, req.Parts, 2)
	assert.Equal(t, "Form File:\n", req.Parts[0].Text)
	require.NotNil(t, req.Parts[1].Media)
	assert.Equal(t, "application/pdf", req.Parts[1].Media.MIMEType)
	assert.Equal(t, []byte("hello"), req.Parts[1].Media.Bytes)
	assert.Same(t, &summaryOutput, req.Output)
}

func TestNewRequestRejectsBadMedia(t *testing.T) {
	_, err := NewRequest(prompt.Rendered{Parts: []prompt.Part{{MediaURL: "data:nope"}}}, nil)
	assert.ErrorIs(t, err, datauri.ErrInvalid)
}

func TestStructuredDecodesValidResponse(t *testing.T) {
	provider := &stubProvider{resp: Response{Text: `{"summary":"Follow-up for hypertension."}`}}
	adapter := NewAdapter(provider)

	var out struct {
		Summary string `json:"summary"`
	}
	_, err := adapter.Structured(context.Background(), Request{Model: "m", Output: &summaryOutput}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Follow-up for hypertension.", out.Summary)
	require.Len(t, provider.calls, 1)
	assert.Equal(t, "m", provider.calls[0].Model)
}

func TestStructuredRejectsNonConformingResponse(t *testing.T) {
	adapter := NewAdapter(&stubProvider{resp: Response{Text: `{"note":"wrong shape"}`}})

	var out map[string]any
	_, err := adapter.Structured(context.Background(), Request{Model: "m", Output: &summaryOutput}, &out)
	require.Error(t, err)
	assert.True(t, schema.IsValidationError(err))
}

func TestStructuredPropagatesProviderError(t *testing.T) {
	upstream := errors.New("boom")
	adapter := NewAdapter(&stubProvider{err: upstream})

	var out map[string]any
	_, err := adapter.Structured(context.Background(), Request{Model: "m", Output: &summaryOutput}, &out)
	assert.Same(t, upstream, err)
}
