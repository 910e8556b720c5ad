package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type metadata struct {
	Title       string `json:"title"`
	PatientName string `json:"patientName"`
	Tag         string `json:"tag"`
}

func TestDecodeOutputAcceptsFencedJSON(t *testing.T) {
	text := "```json\n{\"title\":\"SOAP Note - Jane Doe\",\"patientName\":\"Jane Doe\",\"tag\":\"Cardiology\"}\n```"

	var got metadata
	require.NoError(t, metadataOutput.DecodeOutput(text, &got))
	assert.Equal(t, metadata{Title: "SOAP Note - Jane Doe", PatientName: "Jane Doe", Tag: "Cardiology"}, got)
}

func TestDecodeOutputSubstitutesDefaults(t *testing.T) {
	var got metadata
	require.NoError(t, metadataOutput.DecodeOutput(`{"title":"Medical Note","patientName":""}`, &got))
	assert.Equal(t, "Unknown Patient", got.PatientName)
	assert.Equal(t, "General", got.Tag)
}

func TestDecodeOutputRejectsMissingRequiredField(t *testing.T) {
	var got metadata
	err := metadataOutput.DecodeOutput(`{"patientName":"Jane Doe"}`, &got)
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, StageOutput, vErr.Stage)
	require.Len(t, vErr.Problems, 1)
	assert.Contains(t, vErr.Problems[0].Message, "title")
}

func TestDecodeOutputRejectsWrongFieldType(t *testing.T) {
	var got metadata
	err := metadataOutput.DecodeOutput(`{"title":["a","b"]}`, &got)
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "title", vErr.Problems[0].Field)
}

func TestDecodeOutputRejectsPlainText(t *testing.T) {
	var got metadata
	err := metadataOutput.DecodeOutput("### Subjective\n- headache", &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not contain a JSON object")
}

func TestExtractJSONObject(t *testing.T) {
	raw, ok := ExtractJSONObject("Here you go: {\"note\":\"x {y}\"} thanks")
	require.True(t, ok)
	assert.Equal(t, `{"note":"x {y}"}`, raw)

	raw, ok = ExtractJSONObject("{\"summary\":\"ok\"}\nNote: no {extra} data")
	require.True(t, ok)
	assert.Equal(t, `{"summary":"ok"}`, raw)

	raw, ok = ExtractJSONObject("Fields {title, tag} follow:\n```json\n{\"title\":\"t\"}\n```")
	require.True(t, ok)
	assert.Equal(t, `{"title":"t"}`, raw)

	_, ok = ExtractJSONObject("{not json}")
	assert.False(t, ok)
}
