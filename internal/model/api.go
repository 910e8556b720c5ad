package model

type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error     APIError `json:"error"`
	RequestID string   `json:"request_id,omitempty"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

type ReadyResponse struct {
	OK          bool   `json:"ok"`
	ServiceName string `json:"service_name,omitempty"`
}

type FlowDescriptor struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	InputSchema  map[string]any `json:"input_schema"`
	OutputSchema map[string]any `json:"output_schema,omitempty"`
}

type FlowListResponse struct {
	Flows []FlowDescriptor `json:"flows"`
}

type TranscriptionResponse struct {
	Transcript string `json:"transcript"`
}

type TemplateResponse struct {
	Key         string `json:"key,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content"`
}

type TemplateListResponse struct {
	Templates []TemplateResponse `json:"templates"`
}

type PipelineTimings struct {
	Transcription  int64 `json:"transcription"`
	NoteGeneration int64 `json:"note_generation"`
	Summary        int64 `json:"summary"`
	Total          int64 `json:"total"`
}

type PipelineProcessResponse struct {
	Transcript  string          `json:"transcript"`
	Note        string          `json:"note,omitempty"`
	Title       string          `json:"title,omitempty"`
	PatientName string          `json:"patient_name,omitempty"`
	Tag         string          `json:"tag,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	Status      string          `json:"status"`
	TimingsMS   PipelineTimings `json:"timings_ms"`
}
