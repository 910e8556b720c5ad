// Package schema declares the typed input and output contracts of every
// generation flow and validates values against them.
package schema

import (
	"fmt"
	"slices"
	"strings"

	"scribeflow/internal/datauri"
)

type Type string

const (
	String      Type = "string"
	StringArray Type = "string_array"
)

type Format string

// DataURI marks a string field that carries "data:<mimetype>;base64,<payload>".
const DataURI Format = "data-uri"

// Field is one named, typed and described member of an Object. The
// description is sent to the model as part of the response schema, so it
// doubles as an instruction.
type Field struct {
	Name        string
	Type        Type
	Required    bool
	Description string
	Format      Format
	Enum        []string
	// Default is substituted when a decoded output leaves the field blank.
	Default string
}

// Object is an ordered set of fields.
type Object struct {
	Name   string
	Fields []Field
}

// Values maps field names to string or []string values. Absent optional
// fields have no key.
type Values map[string]any

func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

func (v Values) Strings(name string) []string {
	s, _ := v[name].([]string)
	return s
}

func (o Object) Field(name string) (Field, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Normalize checks in against the object and returns a copy holding only
// declared fields. JSON arrays decoded as []any are converted to []string.
// All problems are collected into a single *ValidationError.
func (o Object) Normalize(in map[string]any) (Values, error) {
	out := make(Values, len(o.Fields))
	var problems []Problem

	for _, f := range o.Fields {
		raw, present := in[f.Name]
		if !present || raw == nil {
			if f.Required {
				problems = append(problems, Problem{Field: f.Name, Message: "is required"})
			}
			continue
		}

		switch f.Type {
		case String:
			s, ok := raw.(string)
			if !ok {
				problems = append(problems, Problem{Field: f.Name, Message: "must be a string"})
				continue
			}
			if strings.TrimSpace(s) == "" {
				if f.Required {
					problems = append(problems, Problem{Field: f.Name, Message: "is required"})
				}
				continue
			}
			if len(f.Enum) > 0 && !slices.Contains(f.Enum, s) {
				problems = append(problems, Problem{
					Field:   f.Name,
					Message: fmt.Sprintf("must be one of %s", strings.Join(f.Enum, ", ")),
				})
				continue
			}
			if f.Format == DataURI {
				if _, err := datauri.Parse(s); err != nil {
					problems = append(problems, Problem{Field: f.Name, Message: err.Error()})
					continue
				}
			}
			out[f.Name] = s
		case StringArray:
			items, ok := toStrings(raw)
			if !ok {
				problems = append(problems, Problem{Field: f.Name, Message: "must be an array of strings"})
				continue
			}
			out[f.Name] = items
		default:
			problems = append(problems, Problem{Field: f.Name, Message: fmt.Sprintf("unsupported type %q", f.Type)})
		}
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Stage: StageInput, Schema: o.Name, Problems: problems}
	}
	return out, nil
}

// JSONSchema renders the object as a draft-04 JSON Schema document. Fields
// with a Default are not listed as required so a decoded output that omits
// them still validates and receives the default afterwards.
func (o Object) JSONSchema() map[string]any {
	properties := make(map[string]any, len(o.Fields))
	required := make([]string, 0, len(o.Fields))
	for _, f := range o.Fields {
		prop := map[string]any{}
		switch f.Type {
		case StringArray:
			prop["type"] = "array"
			prop["items"] = map[string]any{"type": "string"}
		default:
			prop["type"] = "string"
		}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		if len(f.Enum) > 0 {
			prop["enum"] = f.Enum
		}
		properties[f.Name] = prop
		if f.Required && f.Default == "" {
			required = append(required, f.Name)
		}
	}

	doc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return doc
}

func toStrings(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case []string:
		return slices.Clone(v), true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
