// Package catalog ships the built-in note templates offered when no custom
// template is chosen.
package catalog

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed templates/*.md
var templateFS embed.FS

// DefaultKey is used when a request names no template.
const DefaultKey = "soap"

type Template struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

var builtin = []struct{ key, name string }{
	{"soap", "Standard SOAP Note"},
	{"hp", "Initial Consultation H&P"},
	{"followup", "Follow-up Visit Note"},
	{"physical_exam", "Physical Examination"},
	{"procedure_note", "Procedure Note"},
	{"or_report", "OR Report"},
	{"specialty_consult", "Specialty-Specific Consult"},
	{"allied_health", "Allied-Health Note"},
	{"diagnostic_report", "Diagnostic Report"},
	{"disability_form", "Disability Form"},
	{"consult_letter", "Consult Letter"},
}

var (
	templates []Template
	byKey     = map[string]Template{}
)

func init() {
	for _, b := range builtin {
		raw, err := templateFS.ReadFile("templates/" + b.key + ".md")
		if err != nil {
			panic(fmt.Sprintf("catalog: missing template %s: %v", b.key, err))
		}
		t := Template{Key: b.key, Name: b.name, Content: strings.TrimRight(string(raw), "\n")}
		templates = append(templates, t)
		byKey[t.Key] = t
	}
}

// List returns the built-in templates in display order.
func List() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

func Lookup(key string) (Template, bool) {
	t, ok := byKey[key]
	return t, ok
}
