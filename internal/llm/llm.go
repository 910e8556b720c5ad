// Package llm is the model invocation adapter: it turns a rendered prompt
// into a provider request and turns the provider's answer into either free
// text or a schema-validated value.
package llm

import (
	"context"
	"fmt"

	"scribeflow/internal/datauri"
	"scribeflow/internal/prompt"
	"scribeflow/internal/schema"
)

// Part is text or media, in prompt order.
type Part struct {
	Text  string
	Media *datauri.Data
}

type Request struct {
	Model string
	Parts []Part
	// Output, when set, is sent as the response schema and the response is
	// requested as JSON.
	Output *schema.Object
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Response struct {
	Model string
	Text  string
	Usage *Usage
}

type Provider interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// NewRequest converts rendered prompt parts into request parts. Media parts
// must be data URIs.
func NewRequest(rendered prompt.Rendered, output *schema.Object) (Request, error) {
	req := Request{Output: output}
	for _, p := range rendered.Parts {
		if p.MediaURL == "" {
			req.Parts = append(req.Parts, Part{Text: p.Text})
			continue
		}
		media, err := datauri.Parse(p.MediaURL)
		if err != nil {
			return Request{}, err
		}
		req.Parts = append(req.Parts, Part{Media: &media})
	}
	return req, nil
}

// WithModel returns a copy of r addressed to model. Parts are shared, so the
// primary and fallback attempts send an identical prompt.
func (r Request) WithModel(model string) Request {
	r.Model = model
	return r
}

type Adapter struct {
	provider Provider
}

func NewAdapter(provider Provider) *Adapter {
	return &Adapter{provider: provider}
}

// Text returns the generated text verbatim.
func (a *Adapter) Text(ctx context.Context, req Request) (Response, error) {
	return a.provider.Generate(ctx, req)
}

// Structured sends req and decodes the answer into dst. A response that does
// not satisfy req.Output is a *schema.ValidationError.
func (a *Adapter) Structured(ctx context.Context, req Request, dst any) (Response, error) {
	if req.Output == nil {
		return Response{}, fmt.Errorf("structured request for %s has no output schema", req.Model)
	}
	resp, err := a.provider.Generate(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if err := req.Output.DecodeOutput(resp.Text, dst); err != nil {
		return resp, err
	}
	return resp, nil
}
