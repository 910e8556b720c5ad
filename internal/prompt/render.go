package prompt

import (
	"fmt"
	"strings"
)

// Part is a piece of rendered prompt. Exactly one of Text or MediaURL is set.
type Part struct {
	Text     string
	MediaURL string
}

type Rendered struct {
	Parts []Part
}

// Text joins the text parts, skipping media.
func (r Rendered) Text() string {
	var b strings.Builder
	for _, p := range r.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func (r Rendered) Media() []string {
	var urls []string
	for _, p := range r.Parts {
		if p.MediaURL != "" {
			urls = append(urls, p.MediaURL)
		}
	}
	return urls
}

// Render evaluates the template against values. Values are embedded as-is,
// with no escaping. Array values outside an each block are joined with ", ".
func (t *Template) Render(values map[string]any) (Rendered, error) {
	r := &renderer{values: values}
	if err := r.segments(t.Segments, ""); err != nil {
		return Rendered{}, fmt.Errorf("render %s: %w", t.Name, err)
	}
	r.flush()
	return Rendered{Parts: r.parts}, nil
}

type renderer struct {
	values map[string]any
	buf    strings.Builder
	parts  []Part
}

func (r *renderer) segments(segs []Segment, this string) error {
	for _, seg := range segs {
		switch seg.Kind {
		case TextSegment:
			r.buf.WriteString(seg.Text)
		case FieldSegment:
			r.buf.WriteString(stringValue(r.values[seg.Field]))
		case ThisSegment:
			r.buf.WriteString(this)
		case IfSegment:
			body := seg.Else
			if truthy(r.values[seg.Field]) {
				body = seg.Then
			}
			if err := r.segments(body, this); err != nil {
				return err
			}
		case EachSegment:
			items := listValue(r.values[seg.Field])
			if len(items) == 0 {
				if err := r.segments(seg.Else, this); err != nil {
					return err
				}
				continue
			}
			for i, item := range items {
				if i > 0 {
					r.buf.WriteString(seg.Sep)
				}
				if err := r.segments(seg.Then, item); err != nil {
					return err
				}
			}
		case MediaSegment:
			url := stringValue(r.values[seg.Field])
			if url == "" {
				return fmt.Errorf("media field %q is empty", seg.Field)
			}
			r.flush()
			r.parts = append(r.parts, Part{MediaURL: url})
		default:
			return fmt.Errorf("unsupported segment %s", seg.Kind)
		}
	}
	return nil
}

func (r *renderer) flush() {
	if r.buf.Len() == 0 {
		return
	}
	r.parts = append(r.parts, Part{Text: r.buf.String()})
	r.buf.Reset()
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case []string:
		return len(val) > 0
	case []any:
		return len(val) > 0
	case bool:
		return val
	default:
		return true
	}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	default:
		return fmt.Sprint(val)
	}
}

func listValue(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, stringValue(item))
		}
		return out
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	default:
		return nil
	}
}
