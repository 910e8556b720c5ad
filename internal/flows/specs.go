package flows

import "scribeflow/internal/schema"

const (
	unknownPatient = "Unknown Patient"
	generalTag     = "General"
)

var (
	metadataFields = []schema.Field{
		{Name: "title", Type: schema.String, Required: true, Description: "A concise and relevant title for the medical note."},
		{Name: "patientName", Type: schema.String, Required: true, Default: unknownPatient, Description: "The full name of the patient. If no name is found, return 'Unknown Patient'."},
		{Name: "tag", Type: schema.String, Required: true, Default: generalTag, Description: "A single, relevant medical tag or specialty for the note, like 'Cardiology'. If no specific specialty is clear, return 'General'."},
	}

	headingsField   = schema.Field{Name: "headings", Type: schema.StringArray, Description: "Headings the template must include."}
	categoriesField = schema.Field{Name: "categories", Type: schema.StringArray, Description: "Categories or specialties the template belongs to."}
)

// Flows register in this order, which is the order Specs reports.
var (
	transcribeAudio = register[TranscribeAudioOutput](&Spec{
		Name:        "transcribe-audio",
		Description: "Transcribes an audio recording of a medical consultation.",
		Long:        true,
		Input: schema.Object{Name: "transcribe-audio", Fields: []schema.Field{
			{Name: "audioDataUri", Type: schema.String, Required: true, Format: schema.DataURI, Description: "The audio recording as a data URI with a MIME type and base64 payload."},
		}},
		Template: mustTemplate("transcribe-audio", "transcribe_audio.hbs"),
	})

	noteFromTranscript = register[NoteOutput](&Spec{
		Name:        "generate-note-from-transcript",
		Description: "Turns a consultation transcript into a SOAP note.",
		Input: schema.Object{Name: "generate-note-from-transcript", Fields: []schema.Field{
			{Name: "transcript", Type: schema.String, Required: true, Description: "The transcript of the medical consultation."},
			{Name: "medicalContext", Type: schema.String, Description: "Additional context from the user, such as lab results or patient history."},
		}},
		Output: &schema.Object{Name: "generate-note-from-transcript", Fields: []schema.Field{
			{Name: "note", Type: schema.String, Required: true, Description: "The generated medical note in Markdown."},
		}},
		Template: mustTemplate("generate-note-from-transcript", "note_from_transcript.hbs"),
	})

	comprehensiveNote = register[ComprehensiveNoteOutput](&Spec{
		Name:        "generate-comprehensive-note",
		Description: "Generates a structured note plus its title, patient name and tag.",
		Input: schema.Object{Name: "generate-comprehensive-note", Fields: []schema.Field{
			{Name: "transcript", Type: schema.String, Required: true, Description: "The transcript of the medical consultation."},
			{Name: "medicalContext", Type: schema.String, Description: "Additional context from the user."},
			{Name: "templateContent", Type: schema.String, Description: "Markdown template the note must follow."},
			{Name: "templateName", Type: schema.String, Description: "Display name of the template."},
			{Name: "detailLevel", Type: schema.String, Enum: []string{"Concise", "Default", "Detailed"}, Description: "How detailed the note should be."},
			{Name: "noteFormat", Type: schema.String, Enum: []string{"Bullet Point", "Narrative", "Default"}, Description: "Bullet points or narrative prose."},
			{Name: "model", Type: schema.String, Description: "Optional model hint."},
		}},
		Output: &schema.Object{Name: "generate-comprehensive-note", Fields: append([]schema.Field{
			{Name: "note", Type: schema.String, Required: true, Description: "The generated medical note in Markdown."},
		}, metadataFields...)},
		Template: mustTemplate("generate-comprehensive-note", "comprehensive_note.hbs"),
	})

	noteMetadata = register[NoteMetadata](&Spec{
		Name:        "extract-note-metadata",
		Description: "Extracts a title, patient name and tag from a transcript.",
		Input: schema.Object{Name: "extract-note-metadata", Fields: []schema.Field{
			{Name: "transcript", Type: schema.String, Required: true, Description: "The transcript of the medical consultation."},
		}},
		Output:   &schema.Object{Name: "extract-note-metadata", Fields: metadataFields},
		Template: mustTemplate("extract-note-metadata", "note_metadata.hbs"),
	})

	summarizeNote = register[SummaryOutput](&Spec{
		Name:        "summarize-note",
		Description: "Summarizes a note in one or two sentences.",
		Input: schema.Object{Name: "summarize-note", Fields: []schema.Field{
			{Name: "noteContent", Type: schema.String, Required: true, Description: "The full content of the medical note."},
		}},
		Output: &schema.Object{Name: "summarize-note", Fields: []schema.Field{
			{Name: "summary", Type: schema.String, Required: true, Description: "A one or two sentence summary of the note."},
		}},
		Template: mustTemplate("summarize-note", "summarize_note.hbs"),
	})

	templateContent = register[TemplateContentOutput](&Spec{
		Name:        "generate-template-content",
		Description: "Drafts blank Markdown content for a new note template.",
		Input: schema.Object{Name: "generate-template-content", Fields: []schema.Field{
			{Name: "name", Type: schema.String, Required: true, Description: "The name of the template."},
			{Name: "description", Type: schema.String, Required: true, Description: "What the template is used for."},
			headingsField,
			categoriesField,
			{Name: "additionalInstructions", Type: schema.String, Description: "Extra instructions for the template content."},
		}},
		Output: &schema.Object{Name: "generate-template-content", Fields: []schema.Field{
			{Name: "content", Type: schema.String, Required: true, Description: "The blank, reusable template in Markdown without example data."},
		}},
		Template: mustTemplate("generate-template-content", "template_content.hbs"),
	})

	templateFromImage = register[TemplateFromImageOutput](&Spec{
		Name:        "generate-template-from-image",
		Description: "Converts a photographed or scanned form into a Markdown template.",
		Long:        true,
		Input: schema.Object{Name: "generate-template-from-image", Fields: []schema.Field{
			{Name: "formDataUri", Type: schema.String, Required: true, Format: schema.DataURI, Description: "The form image or PDF as a data URI with a MIME type and base64 payload."},
		}},
		Output: &schema.Object{Name: "generate-template-from-image", Fields: []schema.Field{
			{Name: "name", Type: schema.String, Required: true, Description: "A concise, descriptive template name."},
			{Name: "description", Type: schema.String, Required: true, Description: "One sentence describing the purpose of the template."},
			{Name: "content", Type: schema.String, Required: true, Description: "The structure of the form as a blank Markdown template."},
		}},
		Template: mustTemplate("generate-template-from-image", "template_from_image.hbs"),
	})

	mockConversation = register[MockConversationOutput](&Spec{
		Name:        "generate-mock-conversation",
		Description: "Writes a short doctor and patient exchange for previewing a template.",
		Input: schema.Object{Name: "generate-mock-conversation", Fields: []schema.Field{
			{Name: "name", Type: schema.String, Required: true, Description: "The name of the template."},
			{Name: "description", Type: schema.String, Required: true, Description: "What the template is used for."},
			categoriesField,
			{Name: "headings", Type: schema.StringArray, Required: true, Description: "Headings of the template."},
		}},
		Output: &schema.Object{Name: "generate-mock-conversation", Fields: []schema.Field{
			{Name: "conversation", Type: schema.String, Required: true, Description: "Lines prefixed with 'Doctor: ' or 'Patient: '."},
		}},
		Template: mustTemplate("generate-mock-conversation", "mock_conversation.hbs"),
	})

	noteFromTemplate = register[NoteOutput](&Spec{
		Name:        "generate-note-from-template",
		Description: "Fills a Markdown template from a transcript to produce a sample note.",
		Input: schema.Object{Name: "generate-note-from-template", Fields: []schema.Field{
			{Name: "templateContent", Type: schema.String, Required: true, Description: "The Markdown template to fill out."},
			{Name: "transcript", Type: schema.String, Required: true, Description: "The conversation used to fill the template."},
		}},
		Output: &schema.Object{Name: "generate-note-from-template", Fields: []schema.Field{
			{Name: "note", Type: schema.String, Required: true, Description: "The completed note in Markdown."},
		}},
		Template: mustTemplate("generate-note-from-template", "note_from_template.hbs"),
	})

	patientIntake = register[SummaryOutput](&Spec{
		Name:        "summarize-patient-intake",
		Description: "Condenses patient intake answers into a summary for the clinician.",
		Input: schema.Object{Name: "summarize-patient-intake", Fields: []schema.Field{
			{Name: "patientName", Type: schema.String, Required: true, Description: "The name of the patient."},
			{Name: "chiefComplaint", Type: schema.String, Required: true, Description: "The main reason for the visit."},
			{Name: "historyOfPresentIllness", Type: schema.String, Required: true, Description: "History of the present illness."},
			{Name: "pastMedicalHistory", Type: schema.String, Required: true, Description: "Past medical history."},
			{Name: "medications", Type: schema.String, Required: true, Description: "Current medications."},
			{Name: "allergies", Type: schema.String, Required: true, Description: "Known allergies."},
			{Name: "familyHistory", Type: schema.String, Required: true, Description: "Family medical history."},
			{Name: "socialHistory", Type: schema.String, Required: true, Description: "Social history."},
			{Name: "reviewOfSystems", Type: schema.String, Required: true, Description: "Review of systems."},
		}},
		Output: &schema.Object{Name: "summarize-patient-intake", Fields: []schema.Field{
			{Name: "summary", Type: schema.String, Required: true, Description: "A concise summary of the intake for the doctor."},
		}},
		Template: mustTemplate("summarize-patient-intake", "patient_intake.hbs"),
	})
)
