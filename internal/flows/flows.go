// Package flows holds one orchestrator per AI capability. Every flow runs the
// same steps: validate the input, render the prompt, invoke the model and
// validate the output.
package flows

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"scribeflow/internal/fallback"
	"scribeflow/internal/llm"
	"scribeflow/internal/observability"
	"scribeflow/internal/prompt"
	"scribeflow/internal/schema"
)

//go:embed prompts/*.hbs
var promptFS embed.FS

var ErrUnknownFlow = errors.New("unknown flow")

// Spec pairs a prompt template with the input and output contracts of one
// operation. Output is nil for free-text operations.
type Spec struct {
	Name        string
	Description string
	Input       schema.Object
	Output      *schema.Object
	Template    *prompt.Template
	// Long flows get the transcription deadline instead of the default one.
	Long bool

	newOutput func() any
}

type Metrics interface {
	ObserveFlow(flow, outcome string, duration time.Duration)
	IncFallback(flow string)
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(metrics Metrics) Option {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithTimeouts bounds each flow invocation, fallback attempt included. Zero
// leaves the caller's deadline in charge.
func WithTimeouts(flow, transcription time.Duration) Option {
	return func(s *Service) {
		s.timeout = flow
		s.longTimeout = transcription
	}
}

type Service struct {
	adapter     *llm.Adapter
	routes      Routing
	logger      *slog.Logger
	metrics     Metrics
	timeout     time.Duration
	longTimeout time.Duration
}

func New(provider llm.Provider, routes Routing, opts ...Option) *Service {
	s := &Service{
		adapter: llm.NewAdapter(provider),
		routes:  routes,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Run executes the flow called name with a JSON-shaped input and returns its
// typed output.
func (s *Service) Run(ctx context.Context, name string, in map[string]any) (any, error) {
	spec, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlow, name)
	}
	out := spec.newOutput()
	if err := s.execute(ctx, spec, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// textOutput is implemented by outputs of free-text operations.
type textOutput interface {
	setText(string)
}

func (s *Service) execute(ctx context.Context, spec *Spec, in map[string]any, dst any) (err error) {
	started := time.Now()
	outcome := "ok"
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveFlow(spec.Name, outcome, time.Since(started))
		}
	}()

	values, err := spec.Input.Normalize(in)
	if err != nil {
		outcome = "invalid_input"
		return err
	}
	rendered, err := spec.Template.Render(values)
	if err != nil {
		outcome = "invalid_input"
		return err
	}
	req, err := llm.NewRequest(rendered, spec.Output)
	if err != nil {
		outcome = "invalid_input"
		return &schema.ValidationError{
			Stage:    schema.StageInput,
			Schema:   spec.Input.Name,
			Problems: []schema.Problem{{Message: err.Error()}},
		}
	}

	route := s.routes.Resolve(spec.Name, values.String("model"))

	ctx, span := observability.StartSpan(ctx, "flow."+spec.Name, trace.WithAttributes(
		attribute.String("flow.name", spec.Name),
		attribute.String("flow.model.primary", route.Primary),
		attribute.String("flow.model.fallback", route.Fallback),
	))
	defer span.End()

	if timeout := s.timeoutFor(spec); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, tr, err := fallback.Run(ctx, route, func(ctx context.Context, model string) (llm.Response, error) {
		attemptReq := req.WithModel(model)
		if spec.Output == nil {
			return s.adapter.Text(ctx, attemptReq)
		}
		return s.adapter.Structured(ctx, attemptReq, dst)
	}, s.onTransition(ctx, spec.Name, span))

	span.SetAttributes(attribute.String("flow.model", tr.Model), attribute.Bool("flow.fallback", tr.FellBack))
	if err != nil {
		outcome = "error"
		if schema.IsValidationError(err) {
			outcome = "invalid_output"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		s.logger.Error("flow_failed",
			"flow", spec.Name,
			"model", tr.Model,
			"fallback", tr.FellBack,
			"outcome", outcome,
			"duration_ms", time.Since(started).Milliseconds(),
			"error", err,
		)
		return err
	}

	if t, ok := dst.(textOutput); ok {
		t.setText(resp.Text)
	}

	attrs := []any{
		"flow", spec.Name,
		"model", tr.Model,
		"fallback", tr.FellBack,
		"duration_ms", time.Since(started).Milliseconds(),
	}
	if resp.Usage != nil {
		attrs = append(attrs, "total_tokens", resp.Usage.TotalTokens)
	}
	s.logger.Info("flow_completed", attrs...)
	return nil
}

func (s *Service) onTransition(ctx context.Context, flow string, span trace.Span) fallback.Observer {
	return func(t fallback.Transition) {
		if t.To != fallback.Fallback {
			return
		}
		span.AddEvent("fallback", trace.WithAttributes(
			attribute.String("flow.model.fallback", t.Model),
			attribute.String("error", t.Err.Error()),
		))
		if s.metrics != nil {
			s.metrics.IncFallback(flow)
		}
		s.logger.WarnContext(ctx, "primary model unavailable, retrying with fallback",
			"flow", flow,
			"fallback_model", t.Model,
			"error", t.Err,
		)
	}
}

func (s *Service) timeoutFor(spec *Spec) time.Duration {
	if spec.Long && s.longTimeout > 0 {
		return s.longTimeout
	}
	return s.timeout
}

// invoke is the typed entry point used by the per-flow methods.
func invoke[In any, Out any](ctx context.Context, s *Service, spec *Spec, in In) (Out, error) {
	var out Out
	values, err := toValues(in)
	if err != nil {
		return out, err
	}
	if err := s.execute(ctx, spec, values, &out); err != nil {
		var zero Out
		return zero, err
	}
	return out, nil
}

func toValues(in any) (map[string]any, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	return values, nil
}

var (
	registry []*Spec
	byName   = map[string]*Spec{}
)

func register[Out any](spec *Spec) *Spec {
	if _, dup := byName[spec.Name]; dup {
		panic("flows: duplicate flow " + spec.Name)
	}
	spec.newOutput = func() any { return new(Out) }
	registry = append(registry, spec)
	byName[spec.Name] = spec
	return spec
}

func Lookup(name string) (*Spec, bool) {
	spec, ok := byName[name]
	return spec, ok
}

// Specs lists every flow in registration order.
func Specs() []*Spec {
	out := make([]*Spec, len(registry))
	copy(out, registry)
	return out
}

func mustTemplate(name, file string) *prompt.Template {
	raw, err := promptFS.ReadFile("prompts/" + file)
	if err != nil {
		panic(fmt.Sprintf("flows: read prompt %s: %v", file, err))
	}
	return prompt.MustParse(name, string(raw))
}
