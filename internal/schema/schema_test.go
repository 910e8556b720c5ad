package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noteInput = Object{
	Name: "note-input",
	Fields: []Field{
		{Name: "transcript", Type: String, Required: true},
		{Name: "medicalContext", Type: String},
		{Name: "detailLevel", Type: String, Enum: []string{"Concise", "Default", "Detailed"}},
		{Name: "headings", Type: StringArray},
	},
}

var metadataOutput = Object{
	Name: "metadata-output",
	Fields: []Field{
		{Name: "title", Type: String, Required: true},
		{Name: "patientName", Type: String, Required: true, Default: "Unknown Patient"},
		{Name: "tag", Type: String, Required: true, Default: "General"},
	},
}

func TestNormalizeKeepsDeclaredFieldsOnly(t *testing.T) {
	values, err := noteInput.Normalize(map[string]any{
		"transcript": "Patient reports headache.",
		"headings":   []any{"### Plan", "### Assessment"},
		"unknown":    "dropped",
	})
	require.NoError(t, err)

	assert.Equal(t, "Patient reports headache.", values.String("transcript"))
	assert.Equal(t, []string{"### Plan", "### Assessment"}, values.Strings("headings"))
	assert.NotContains(t, values, "unknown")
	assert.NotContains(t, values, "medicalContext")
}

func TestNormalizeTreatsBlankOptionalAsAbsent(t *testing.T) {
	values, err := noteInput.Normalize(map[string]any{
		"transcript":     "x",
		"medicalContext": "   ",
	})
	require.NoError(t, err)
	assert.NotContains(t, values, "medicalContext")
}

func TestNormalizeCollectsAllProblems(t *testing.T) {
	_, err := noteInput.Normalize(map[string]any{
		"transcript":  "  ",
		"detailLevel": "Verbose",
		"headings":    []any{"ok", 3},
	})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, StageInput, vErr.Stage)
	assert.Equal(t, "note-input", vErr.Schema)
	require.Len(t, vErr.Problems, 3)
	assert.Equal(t, "transcript", vErr.Problems[0].Field)
	assert.Equal(t, "detailLevel", vErr.Problems[1].Field)
	assert.Contains(t, vErr.Problems[1].Message, "Concise, Default, Detailed")
	assert.Equal(t, "headings", vErr.Problems[2].Field)
	assert.True(t, IsValidationError(err))
}

func TestNormalizeRejectsWrongType(t *testing.T) {
	_, err := noteInput.Normalize(map[string]any{"transcript": 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcript: must be a string")
}

func TestNormalizeChecksDataURIFields(t *testing.T) {
	audio := Object{Name: "audio", Fields: []Field{{Name: "audioDataUri", Type: String, Required: true, Format: DataURI}}}

	_, err := audio.Normalize(map[string]any{"audioDataUri": "data:audio/webm;base64,aGVsbG8="})
	require.NoError(t, err)

	_, err = audio.Normalize(map[string]any{"audioDataUri": "https://example.com/a.webm"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audioDataUri: invalid data URI")
}

func TestJSONSchemaOmitsDefaultedFieldsFromRequired(t *testing.T) {
	doc := metadataOutput.JSONSchema()
	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, []string{"title"}, doc["required"])

	props := doc["properties"].(map[string]any)
	assert.Len(t, props, 3)
}
