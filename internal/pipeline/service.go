// Package pipeline turns one recorded encounter into a note: transcribe the
// audio, write the note with its metadata, then summarize it. Later stages
// degrade instead of failing the whole run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"scribeflow/internal/catalog"
	"scribeflow/internal/datauri"
	"scribeflow/internal/flows"
	"scribeflow/internal/schema"
)

const (
	StatusComplete       = "Note generated"
	StatusTranscriptOnly = "Note generation failed, transcript only"
	StatusNoSummary      = "Summary failed, note without summary"
)

type Transcriber interface {
	TranscribeAudio(ctx context.Context, in flows.TranscribeAudioInput) (flows.TranscribeAudioOutput, error)
}

type NoteWriter interface {
	GenerateComprehensiveNote(ctx context.Context, in flows.ComprehensiveNoteInput) (flows.ComprehensiveNoteOutput, error)
}

type Summarizer interface {
	SummarizeNote(ctx context.Context, in flows.SummarizeNoteInput) (flows.SummaryOutput, error)
}

// Flows is the set of operations a run needs. *flows.Service implements it.
type Flows interface {
	Transcriber
	NoteWriter
	Summarizer
}

type Metrics interface {
	IncPipelineDegraded(stage string)
}

type Service struct {
	flows   Flows
	metrics Metrics
	logger  *slog.Logger
}

type ProcessInput struct {
	File        io.Reader
	FileName    string
	ContentType string
	// TemplateKey selects a built-in template. TemplateContent, when set,
	// takes precedence and TemplateName labels it.
	TemplateKey     string
	TemplateName    string
	TemplateContent string
	DetailLevel     string
	NoteFormat      string
	Model           string
	MedicalContext  string
}

type Timings struct {
	Transcription  time.Duration
	NoteGeneration time.Duration
	Summary        time.Duration
	Total          time.Duration
}

type ProcessResult struct {
	Transcript  string
	Note        string
	Title       string
	PatientName string
	Tag         string
	Summary     string
	Status      string
	Timings     Timings
}

func New(f Flows, metrics Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{flows: f, metrics: metrics, logger: logger}
}

// Process returns an error only when the audio cannot be read or
// transcribed. Note and summary failures are reported through Status.
func (s *Service) Process(ctx context.Context, in ProcessInput) (ProcessResult, error) {
	started := time.Now()

	templateName, templateContent, err := resolveTemplate(in)
	if err != nil {
		return ProcessResult{}, err
	}

	audio, err := io.ReadAll(in.File)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("read audio %q: %w", in.FileName, err)
	}
	if len(audio) == 0 {
		return ProcessResult{}, &schema.ValidationError{
			Stage:    schema.StageInput,
			Schema:   "pipeline",
			Problems: []schema.Problem{{Field: "file", Message: "is empty"}},
		}
	}

	transcriptionStarted := time.Now()
	transcribed, err := s.flows.TranscribeAudio(ctx, flows.TranscribeAudioInput{
		AudioDataURI: datauri.Encode(in.ContentType, audio),
	})
	transcriptionDuration := time.Since(transcriptionStarted)
	if err != nil {
		return ProcessResult{}, err
	}
	result := ProcessResult{
		Transcript: transcribed.Transcript,
		Timings:    Timings{Transcription: transcriptionDuration},
	}

	noteStarted := time.Now()
	note, err := s.flows.GenerateComprehensiveNote(ctx, flows.ComprehensiveNoteInput{
		Transcript:      result.Transcript,
		MedicalContext:  strings.TrimSpace(in.MedicalContext),
		TemplateContent: templateContent,
		TemplateName:    templateName,
		DetailLevel:     strings.TrimSpace(in.DetailLevel),
		NoteFormat:      strings.TrimSpace(in.NoteFormat),
		Model:           strings.TrimSpace(in.Model),
	})
	result.Timings.NoteGeneration = time.Since(noteStarted)
	if err != nil {
		s.degrade(ctx, "note", err)
		result.Status = StatusTranscriptOnly
		result.Timings.Total = time.Since(started)
		return result, nil
	}
	result.Note = note.Note
	result.Title = note.Title
	result.PatientName = note.PatientName
	result.Tag = note.Tag

	summaryStarted := time.Now()
	summary, err := s.flows.SummarizeNote(ctx, flows.SummarizeNoteInput{NoteContent: note.Note})
	result.Timings.Summary = time.Since(summaryStarted)
	if err != nil {
		s.degrade(ctx, "summary", err)
		result.Status = StatusNoSummary
		result.Timings.Total = time.Since(started)
		return result, nil
	}

	result.Summary = summary.Summary
	result.Status = StatusComplete
	result.Timings.Total = time.Since(started)
	return result, nil
}

func (s *Service) degrade(ctx context.Context, stage string, err error) {
	if s.metrics != nil {
		s.metrics.IncPipelineDegraded(stage)
	}
	s.logger.WarnContext(ctx, "pipeline_degraded", "stage", stage, "error", err)
}

func resolveTemplate(in ProcessInput) (string, string, error) {
	if content := strings.TrimSpace(in.TemplateContent); content != "" {
		return strings.TrimSpace(in.TemplateName), in.TemplateContent, nil
	}
	key := strings.TrimSpace(in.TemplateKey)
	if key == "" {
		key = catalog.DefaultKey
	}
	tpl, ok := catalog.Lookup(key)
	if !ok {
		return "", "", &schema.ValidationError{
			Stage:    schema.StageInput,
			Schema:   "pipeline",
			Problems: []schema.Problem{{Field: "template", Message: fmt.Sprintf("unknown built-in template %q", key)}},
		}
	}
	return tpl.Name, tpl.Content, nil
}
