package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// DecodeOutput extracts the JSON object from a model response, validates it
// against the object and decodes it into dst. Blank defaulted string fields
// receive their Default before decoding.
func (o Object) DecodeOutput(text string, dst any) error {
	raw, ok := ExtractJSONObject(text)
	if !ok {
		return o.outputError(Problem{Message: "response does not contain a JSON object"})
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(o.JSONSchema()),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return o.outputError(Problem{Message: fmt.Sprintf("response is not valid JSON: %v", err)})
	}
	if !result.Valid() {
		problems := make([]Problem, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
				field = ""
			}
			problems = append(problems, Problem{Field: field, Message: desc.Description()})
		}
		return o.outputError(problems...)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return o.outputError(Problem{Message: fmt.Sprintf("response is not a JSON object: %v", err)})
	}
	for _, f := range o.Fields {
		if f.Default == "" || f.Type != String {
			continue
		}
		if s, _ := doc[f.Name].(string); strings.TrimSpace(s) == "" {
			doc[f.Name] = f.Default
		}
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(normalized, dst); err != nil {
		return o.outputError(Problem{Message: fmt.Sprintf("decode response: %v", err)})
	}
	return nil
}

func (o Object) outputError(problems ...Problem) error {
	return &ValidationError{Stage: StageOutput, Schema: o.Name, Problems: problems}
}

// ExtractJSONObject returns the first complete JSON object embedded in s.
// Models sometimes wrap the object in Markdown fences or surrounding prose,
// and that prose may itself contain braces.
func ExtractJSONObject(s string) (string, bool) {
	for offset := 0; ; {
		i := strings.IndexByte(s[offset:], '{')
		if i < 0 {
			return "", false
		}
		start := offset + i
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[start:])).Decode(&raw); err == nil {
			return string(raw), true
		}
		offset = start + 1
	}
}
