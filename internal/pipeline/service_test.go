package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"scribeflow/internal/flows"
	"scribeflow/internal/schema"
)

type fakeFlows struct {
	transcript    string
	transcribeErr error
	note          flows.ComprehensiveNoteOutput
	noteErr       error
	summary       string
	summaryErr    error

	audioURI    string
	noteInput   flows.ComprehensiveNoteInput
	summaryCall bool
}

func (f *fakeFlows) TranscribeAudio(_ context.Context, in flows.TranscribeAudioInput) (flows.TranscribeAudioOutput, error) {
	f.audioURI = in.AudioDataURI
	return flows.TranscribeAudioOutput{Transcript: f.transcript}, f.transcribeErr
}

func (f *fakeFlows) GenerateComprehensiveNote(_ context.Context, in flows.ComprehensiveNoteInput) (flows.ComprehensiveNoteOutput, error) {
	f.noteInput = in
	return f.note, f.noteErr
}

func (f *fakeFlows) SummarizeNote(_ context.Context, _ flows.SummarizeNoteInput) (flows.SummaryOutput, error) {
	f.summaryCall = true
	return flows.SummaryOutput{Summary: f.summary}, f.summaryErr
}

type countingMetrics struct {
	stages []string
}

func (m *countingMetrics) IncPipelineDegraded(stage string) { m.stages = append(m.stages, stage) }

func generatedNote() flows.ComprehensiveNoteOutput {
	return flows.ComprehensiveNoteOutput{
		Note:         "### Subjective\n- Headache",
		NoteMetadata: flows.NoteMetadata{Title: "SOAP Note - Jane Roe", PatientName: "Jane Roe", Tag: "Neurology"},
	}
}

func TestProcessRunsAllStages(t *testing.T) {
	f := &fakeFlows{transcript: " Doctor: Hi.\n", note: generatedNote(), summary: "Headache for three days."}
	svc := New(f, nil, nil)

	res, err := svc.Process(context.Background(), ProcessInput{
		File:        strings.NewReader("audio"),
		FileName:    "visit.webm",
		ContentType: "audio/webm",
		DetailLevel: "Concise",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Status != StatusComplete {
		t.Fatalf("unexpected status: %q", res.Status)
	}
	if res.Transcript != " Doctor: Hi.\n" {
		t.Fatalf("transcript must be kept verbatim, got %q", res.Transcript)
	}
	if res.PatientName != "Jane Roe" || res.Summary != "Headache for three days." {
		t.Fatalf("unexpected result: %+v", res)
	}
	if f.audioURI != "data:audio/webm;base64,YXVkaW8=" {
		t.Fatalf("unexpected audio data URI: %q", f.audioURI)
	}
	if f.noteInput.TemplateName != "Standard SOAP Note" || !strings.HasPrefix(f.noteInput.TemplateContent, "### Subjective") {
		t.Fatalf("expected the SOAP template by default, got %+v", f.noteInput)
	}
	if f.noteInput.DetailLevel != "Concise" {
		t.Fatalf("detail level not forwarded: %+v", f.noteInput)
	}
}

func TestProcessDegradesToTranscriptOnNoteError(t *testing.T) {
	f := &fakeFlows{transcript: "raw transcript", noteErr: errors.New("gemini request failed with status 500 INTERNAL: boom")}
	metrics := &countingMetrics{}
	svc := New(f, metrics, nil)

	res, err := svc.Process(context.Background(), ProcessInput{File: strings.NewReader("audio"), FileName: "a.wav"})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Status != StatusTranscriptOnly {
		t.Fatalf("unexpected status: %q", res.Status)
	}
	if res.Transcript != "raw transcript" || res.Note != "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if f.summaryCall {
		t.Fatal("summary must not run without a note")
	}
	if len(metrics.stages) != 1 || metrics.stages[0] != "note" {
		t.Fatalf("unexpected degraded stages: %v", metrics.stages)
	}
}

func TestProcessKeepsNoteOnSummaryError(t *testing.T) {
	f := &fakeFlows{transcript: "t", note: generatedNote(), summaryErr: errors.New("boom")}
	metrics := &countingMetrics{}
	svc := New(f, metrics, nil)

	res, err := svc.Process(context.Background(), ProcessInput{File: strings.NewReader("audio")})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Status != StatusNoSummary {
		t.Fatalf("unexpected status: %q", res.Status)
	}
	if res.Note == "" || res.Summary != "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(metrics.stages) != 1 || metrics.stages[0] != "summary" {
		t.Fatalf("unexpected degraded stages: %v", metrics.stages)
	}
}

func TestProcessFailsOnTranscriptionError(t *testing.T) {
	boom := errors.New("gemini request failed with status 503 UNAVAILABLE: overloaded")
	svc := New(&fakeFlows{transcribeErr: boom}, nil, nil)

	_, err := svc.Process(context.Background(), ProcessInput{File: strings.NewReader("audio")})
	if !errors.Is(err, boom) {
		t.Fatalf("expected transcription error, got %v", err)
	}
}

func TestProcessCustomTemplateWins(t *testing.T) {
	f := &fakeFlows{transcript: "t", note: generatedNote(), summary: "s"}
	svc := New(f, nil, nil)

	_, err := svc.Process(context.Background(), ProcessInput{
		File:            strings.NewReader("audio"),
		TemplateKey:     "hp",
		TemplateName:    "Sports Medicine",
		TemplateContent: "### Injury\n- ",
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if f.noteInput.TemplateName != "Sports Medicine" || f.noteInput.TemplateContent != "### Injury\n- " {
		t.Fatalf("custom template not used: %+v", f.noteInput)
	}
}

func TestProcessRejectsUnknownTemplateAndEmptyAudio(t *testing.T) {
	svc := New(&fakeFlows{}, nil, nil)

	_, err := svc.Process(context.Background(), ProcessInput{File: strings.NewReader("audio"), TemplateKey: "nope"})
	if !schema.IsValidationError(err) {
		t.Fatalf("expected validation error for unknown template, got %v", err)
	}

	_, err = svc.Process(context.Background(), ProcessInput{File: strings.NewReader("")})
	if !schema.IsValidationError(err) {
		t.Fatalf("expected validation error for empty audio, got %v", err)
	}
}
