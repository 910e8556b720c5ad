package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"scribeflow/internal/catalog"
	"scribeflow/internal/datauri"
	"scribeflow/internal/flows"
	"scribeflow/internal/model"
	"scribeflow/internal/pipeline"
)

func (s *server) handleListFlows(w http.ResponseWriter, r *http.Request) {
	specs := flows.Specs()
	resp := model.FlowListResponse{Flows: make([]model.FlowDescriptor, 0, len(specs))}
	for _, spec := range specs {
		d := model.FlowDescriptor{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.Input.JSONSchema(),
		}
		if spec.Output != nil {
			d.OutputSchema = spec.Output.JSONSchema()
		}
		resp.Flows = append(resp.Flows, d)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleRunFlow(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	defer func() { _ = r.Body.Close() }()

	var in map[string]any
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&in); err != nil {
		s.handleJSONDecodeError(w, r, err)
		return
	}
	if err := ensureBodyFullyConsumed(decoder); err != nil {
		s.handleJSONDecodeError(w, r, err)
		return
	}

	out, err := s.flows.Run(r.Context(), chi.URLParam(r, "name"), in)
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleTranscriptions(w http.ResponseWriter, r *http.Request) {
	uri, form, err := s.readUploadAsDataURI(w, r)
	defer cleanupMultipartForm(form)
	if err != nil {
		s.handleMultipartReadError(w, r, err)
		return
	}

	out, err := s.flows.TranscribeAudio(r.Context(), flows.TranscribeAudioInput{AudioDataURI: uri})
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.TranscriptionResponse{Transcript: out.Transcript})
}

func (s *server) handleTemplateFromImage(w http.ResponseWriter, r *http.Request) {
	uri, form, err := s.readUploadAsDataURI(w, r)
	defer cleanupMultipartForm(form)
	if err != nil {
		s.handleMultipartReadError(w, r, err)
		return
	}

	out, err := s.flows.GenerateTemplateFromImage(r.Context(), flows.TemplateFromImageInput{FormDataURI: uri})
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.TemplateResponse{
		Name:        out.Name,
		Description: out.Description,
		Content:     out.Content,
	})
}

func (s *server) handleBuiltinTemplates(w http.ResponseWriter, r *http.Request) {
	list := catalog.List()
	resp := model.TemplateListResponse{Templates: make([]model.TemplateResponse, 0, len(list))}
	for _, t := range list {
		resp.Templates = append(resp.Templates, model.TemplateResponse{Key: t.Key, Name: t.Name, Content: t.Content})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handlePipelineProcess(w http.ResponseWriter, r *http.Request) {
	file, header, form, err := s.readMultipartFile(w, r)
	defer cleanupMultipartForm(form)
	if err != nil {
		s.handleMultipartReadError(w, r, err)
		return
	}
	defer func() { _ = file.Close() }()

	result, err := s.pipeline.Process(r.Context(), pipeline.ProcessInput{
		File:            file,
		FileName:        header.Filename,
		ContentType:     header.Header.Get("Content-Type"),
		TemplateKey:     r.FormValue("template"),
		TemplateName:    r.FormValue("template_name"),
		TemplateContent: r.FormValue("template_content"),
		DetailLevel:     r.FormValue("detail_level"),
		NoteFormat:      r.FormValue("note_format"),
		Model:           r.FormValue("model"),
		MedicalContext:  r.FormValue("medical_context"),
	})
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.PipelineProcessResponse{
		Transcript:  result.Transcript,
		Note:        result.Note,
		Title:       result.Title,
		PatientName: result.PatientName,
		Tag:         result.Tag,
		Summary:     result.Summary,
		Status:      result.Status,
		TimingsMS: model.PipelineTimings{
			Transcription:  result.Timings.Transcription.Milliseconds(),
			NoteGeneration: result.Timings.NoteGeneration.Milliseconds(),
			Summary:        result.Timings.Summary.Milliseconds(),
			Total:          result.Timings.Total.Milliseconds(),
		},
	})
}

// readUploadAsDataURI converts the multipart "file" field into the data URI
// form the flows accept.
func (s *server) readUploadAsDataURI(w http.ResponseWriter, r *http.Request) (string, *multipart.Form, error) {
	file, header, form, err := s.readMultipartFile(w, r)
	if err != nil {
		return "", form, err
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", form, fmt.Errorf("read upload %q: %w", header.Filename, err)
	}
	if len(data) == 0 {
		return "", form, errEmptyUpload
	}
	return datauri.Encode(strings.TrimSpace(header.Header.Get("Content-Type")), data), form, nil
}
