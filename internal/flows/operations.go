package flows

import "context"

type TranscribeAudioInput struct {
	AudioDataURI string `json:"audioDataUri"`
}

type TranscribeAudioOutput struct {
	Transcript string `json:"transcript"`
}

func (o *TranscribeAudioOutput) setText(text string) { o.Transcript = text }

// TranscribeAudio returns the model's transcript verbatim. A transient
// failure of the pro model is retried once on the flash model.
func (s *Service) TranscribeAudio(ctx context.Context, in TranscribeAudioInput) (TranscribeAudioOutput, error) {
	return invoke[TranscribeAudioInput, TranscribeAudioOutput](ctx, s, transcribeAudio, in)
}

type NoteFromTranscriptInput struct {
	Transcript     string `json:"transcript"`
	MedicalContext string `json:"medicalContext,omitempty"`
}

type NoteOutput struct {
	Note string `json:"note"`
}

func (s *Service) GenerateNoteFromTranscript(ctx context.Context, in NoteFromTranscriptInput) (NoteOutput, error) {
	return invoke[NoteFromTranscriptInput, NoteOutput](ctx, s, noteFromTranscript, in)
}

type ComprehensiveNoteInput struct {
	Transcript      string `json:"transcript"`
	MedicalContext  string `json:"medicalContext,omitempty"`
	TemplateContent string `json:"templateContent,omitempty"`
	TemplateName    string `json:"templateName,omitempty"`
	DetailLevel     string `json:"detailLevel,omitempty"`
	NoteFormat      string `json:"noteFormat,omitempty"`
	// Model is a hint; unrecognised values use the default model.
	Model string `json:"model,omitempty"`
}

type NoteMetadata struct {
	Title       string `json:"title"`
	PatientName string `json:"patientName"`
	Tag         string `json:"tag"`
}

type ComprehensiveNoteOutput struct {
	Note string `json:"note"`
	NoteMetadata
}

// GenerateComprehensiveNote writes the note and extracts its metadata in a
// single call.
func (s *Service) GenerateComprehensiveNote(ctx context.Context, in ComprehensiveNoteInput) (ComprehensiveNoteOutput, error) {
	return invoke[ComprehensiveNoteInput, ComprehensiveNoteOutput](ctx, s, comprehensiveNote, in)
}

type NoteMetadataInput struct {
	Transcript string `json:"transcript"`
}

func (s *Service) ExtractNoteMetadata(ctx context.Context, in NoteMetadataInput) (NoteMetadata, error) {
	return invoke[NoteMetadataInput, NoteMetadata](ctx, s, noteMetadata, in)
}

type SummarizeNoteInput struct {
	NoteContent string `json:"noteContent"`
}

type SummaryOutput struct {
	Summary string `json:"summary"`
}

func (s *Service) SummarizeNote(ctx context.Context, in SummarizeNoteInput) (SummaryOutput, error) {
	return invoke[SummarizeNoteInput, SummaryOutput](ctx, s, summarizeNote, in)
}

type TemplateContentInput struct {
	Name                   string   `json:"name"`
	Description            string   `json:"description"`
	Headings               []string `json:"headings,omitempty"`
	Categories             []string `json:"categories,omitempty"`
	AdditionalInstructions string   `json:"additionalInstructions,omitempty"`
}

type TemplateContentOutput struct {
	Content string `json:"content"`
}

func (s *Service) GenerateTemplateContent(ctx context.Context, in TemplateContentInput) (TemplateContentOutput, error) {
	return invoke[TemplateContentInput, TemplateContentOutput](ctx, s, templateContent, in)
}

type TemplateFromImageInput struct {
	FormDataURI string `json:"formDataUri"`
}

type TemplateFromImageOutput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

func (s *Service) GenerateTemplateFromImage(ctx context.Context, in TemplateFromImageInput) (TemplateFromImageOutput, error) {
	return invoke[TemplateFromImageInput, TemplateFromImageOutput](ctx, s, templateFromImage, in)
}

type MockConversationInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Categories  []string `json:"categories,omitempty"`
	Headings    []string `json:"headings"`
}

type MockConversationOutput struct {
	Conversation string `json:"conversation"`
}

func (s *Service) GenerateMockConversation(ctx context.Context, in MockConversationInput) (MockConversationOutput, error) {
	return invoke[MockConversationInput, MockConversationOutput](ctx, s, mockConversation, in)
}

type NoteFromTemplateInput struct {
	TemplateContent string `json:"templateContent"`
	Transcript      string `json:"transcript"`
}

func (s *Service) GenerateNoteFromTemplate(ctx context.Context, in NoteFromTemplateInput) (NoteOutput, error) {
	return invoke[NoteFromTemplateInput, NoteOutput](ctx, s, noteFromTemplate, in)
}

type PatientIntakeInput struct {
	PatientName             string `json:"patientName"`
	ChiefComplaint          string `json:"chiefComplaint"`
	HistoryOfPresentIllness string `json:"historyOfPresentIllness"`
	PastMedicalHistory      string `json:"pastMedicalHistory"`
	Medications             string `json:"medications"`
	Allergies               string `json:"allergies"`
	FamilyHistory           string `json:"familyHistory"`
	SocialHistory           string `json:"socialHistory"`
	ReviewOfSystems         string `json:"reviewOfSystems"`
}

func (s *Service) SummarizePatientIntake(ctx context.Context, in PatientIntakeInput) (SummaryOutput, error) {
	return invoke[PatientIntakeInput, SummaryOutput](ctx, s, patientIntake, in)
}
