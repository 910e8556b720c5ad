package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"scribeflow/internal/llm"
	"scribeflow/internal/schema"
)

type ObserverFunc func(model string, status int, duration time.Duration)

type Option func(*Client)

type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	models   *genai.Models
	observer ObserverFunc
}

// Error is a non-2xx answer from the Gemini API. The status code is part of
// the message so callers that only see the text can still classify it.
type Error struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("gemini request failed with status %d", e.StatusCode)
	if e.Status != "" {
		msg += " " + e.Status
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func WithObserver(observer ObserverFunc) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     strings.TrimSpace(cfg.APIKey),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = strings.TrimRight(baseURL, "/") + "/"
	}

	gc, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	c := &Client{models: gc.Models}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func (c *Client) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	started := time.Now()
	statusCode := 0
	defer func() { c.observe(req.Model, statusCode, time.Since(started)) }()

	parts := make([]*genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		if p.Media != nil {
			parts = append(parts, genai.NewPartFromBytes(p.Media.Bytes, p.Media.MIMEType))
			continue
		}
		if p.Text != "" {
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
	}
	if len(parts) == 0 {
		return llm.Response{}, errors.New("gemini request has no content")
	}

	var genCfg *genai.GenerateContentConfig
	if req.Output != nil {
		genCfg = &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   responseSchema(*req.Output),
		}
	}

	resp, err := c.models.GenerateContent(ctx, req.Model, []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}, genCfg)
	if err != nil {
		statusCode = statusOf(err)
		return llm.Response{}, wrapError(err)
	}
	statusCode = http.StatusOK

	out := llm.Response{Model: req.Model, Text: resp.Text()}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = &llm.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	// Silent audio legitimately yields no text; callers decide what empty means.
	return out, nil
}

// CheckModels confirms the API key can see model.
func (c *Client) CheckModels(ctx context.Context, model string) error {
	started := time.Now()
	statusCode := 0
	defer func() { c.observe(model, statusCode, time.Since(started)) }()

	if _, err := c.models.Get(ctx, model, nil); err != nil {
		statusCode = statusOf(err)
		return wrapError(err)
	}
	statusCode = http.StatusOK
	return nil
}

func (c *Client) observe(model string, status int, duration time.Duration) {
	if c.observer != nil {
		c.observer(model, status, duration)
	}
}

// responseSchema mirrors an output object as a Gemini response schema. Every
// field is required here, including defaulted ones, so the model is always
// asked to fill them.
func responseSchema(o schema.Object) *genai.Schema {
	out := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(o.Fields)),
	}
	for _, f := range o.Fields {
		prop := &genai.Schema{Type: genai.TypeString, Description: f.Description}
		if f.Type == schema.StringArray {
			prop = &genai.Schema{
				Type:        genai.TypeArray,
				Description: f.Description,
				Items:       &genai.Schema{Type: genai.TypeString},
			}
		}
		if len(f.Enum) > 0 {
			prop.Format = "enum"
			prop.Enum = f.Enum
		}
		out.Properties[f.Name] = prop
		out.PropertyOrdering = append(out.PropertyOrdering, f.Name)
		if f.Required {
			out.Required = append(out.Required, f.Name)
		}
	}
	return out
}

func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &Error{StatusCode: apiErr.Code, Status: apiErr.Status, Message: truncate(apiErr.Message)}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &Error{StatusCode: apiErrPtr.Code, Status: apiErrPtr.Status, Message: truncate(apiErrPtr.Message)}
	}
	return err
}

func statusOf(err error) int {
	var upstreamErr *Error
	if errors.As(wrapError(err), &upstreamErr) {
		return upstreamErr.StatusCode
	}
	return 0
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 4096 {
		return s
	}
	return s[:4096] + "..."
}
