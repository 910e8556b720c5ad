package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contextTemplate = "Transcript:\n{{{transcript}}}\n\n{{#if medicalContext}}\nHere is additional context provided by the user:\n{{{medicalContext}}}\n{{/if}}\n"

func TestParseBuildsOrderedSegments(t *testing.T) {
	tpl, err := Parse("t", "a{{#if x}}b{{else}}c{{/if}}")
	require.NoError(t, err)

	assert.Equal(t, []Segment{
		{Kind: TextSegment, Text: "a"},
		{
			Kind:  IfSegment,
			Field: "x",
			Then:  []Segment{{Kind: TextSegment, Text: "b"}},
			Else:  []Segment{{Kind: TextSegment, Text: "c"}},
		},
	}, tpl.Segments)
}

func TestRenderOmitsAbsentConditionalBlock(t *testing.T) {
	tpl := MustParse("note", contextTemplate)

	out, err := tpl.Render(map[string]any{"transcript": "Patient reports headache for three days."})
	require.NoError(t, err)
	assert.Equal(t, "Transcript:\nPatient reports headache for three days.\n\n", out.Text())
	assert.NotContains(t, out.Text(), "additional context")
}

func TestRenderIncludesPresentConditionalBlock(t *testing.T) {
	tpl := MustParse("note", contextTemplate)

	out, err := tpl.Render(map[string]any{"transcript": "T", "medicalContext": "Diabetic"})
	require.NoError(t, err)
	assert.Equal(t, "Transcript:\nT\n\nHere is additional context provided by the user:\nDiabetic\n", out.Text())
}

func TestRenderEachBlocks(t *testing.T) {
	tpl := MustParse("template-content", "Name: {{{name}}}\n"+
		"{{#if categories}}\n"+
		"- Categories: {{#each categories sep=\", \"}}{{{this}}}{{/each}}\n"+
		"{{/if}}\n"+
		"{{#if headings}}\n"+
		"- Required Headings:\n"+
		"{{#each headings}}\n"+
		"  - {{{this}}}\n"+
		"{{/each}}\n"+
		"{{/if}}\n"+
		"End\n")

	out, err := tpl.Render(map[string]any{"name": "Follow-up", "headings": []string{"### Plan"}})
	require.NoError(t, err)
	assert.Equal(t, "Name: Follow-up\n- Required Headings:\n  - ### Plan\nEnd\n", out.Text())

	out, err = tpl.Render(map[string]any{
		"name":       "Follow-up",
		"categories": []string{"Cardiology", "General", "Cardiology"},
		"headings":   []string{"### B", "### A"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Name: Follow-up\n"+
		"- Categories: Cardiology, General, Cardiology\n"+
		"- Required Headings:\n  - ### B\n  - ### A\n"+
		"End\n", out.Text())
}

func TestRenderInlineElseBranch(t *testing.T) {
	tpl := MustParse("detail", "Detail: {{#if detailLevel}}{{{detailLevel}}}{{else}}Default{{/if}}.")

	out, err := tpl.Render(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Detail: Default.", out.Text())

	out, err = tpl.Render(map[string]any{"detailLevel": "Concise"})
	require.NoError(t, err)
	assert.Equal(t, "Detail: Concise.", out.Text())
}

func TestRenderEmitsMediaAsSeparatePart(t *testing.T) {
	tpl := MustParse("image", "Form File:\n{{media url=formDataUri}}\n")

	out, err := tpl.Render(map[string]any{"formDataUri": "data:image/png;base64,AAAA"})
	require.NoError(t, err)
	assert.Equal(t, []Part{
		{Text: "Form File:\n"},
		{MediaURL: "data:image/png;base64,AAAA"},
		{Text: "\n"},
	}, out.Parts)
	assert.Equal(t, []string{"data:image/png;base64,AAAA"}, out.Media())
	assert.NotContains(t, out.Text(), "base64")

	_, err = tpl.Render(map[string]any{})
	assert.Error(t, err)
}

func TestRenderDoesNotEscapeValues(t *testing.T) {
	tpl := MustParse("raw", "{{value}}|{{{value}}}")

	out, err := tpl.Render(map[string]any{"value": `<b>"x" & y</b>`})
	require.NoError(t, err)
	assert.Equal(t, `<b>"x" & y</b>|<b>"x" & y</b>`, out.Text())
}

func TestRenderIsDeterministic(t *testing.T) {
	tpl := MustParse("note", contextTemplate)
	values := map[string]any{"transcript": "T", "medicalContext": "C"}

	first, err := tpl.Render(values)
	require.NoError(t, err)
	second, err := tpl.Render(values)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unclosed block":   "{{#if a}}x",
		"stray close":      "x{{/if}}",
		"mismatched close": "{{#if a}}x{{/each}}",
		"unknown helper":   "{{> partial}}",
		"this outside":     "{{this}}",
		"unterminated":     "{{name",
		"duplicate else":   "{{#if a}}x{{else}}y{{else}}z{{/if}}",
		"bad media":        "{{media formDataUri}}",
		"bad sep":          "{{#each a sep=,}}{{this}}{{/each}}",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse("broken", text)
			assert.Error(t, err)
		})
	}
}
