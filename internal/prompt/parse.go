// Package prompt renders flow prompts from a small handlebars-style template
// language. Templates are parsed once into an ordered list of segments and
// rendered against a map of field values.
//
// Supported tags:
//
//	{{field}} {{{field}}}            interpolate a value verbatim
//	{{#if field}} {{else}} {{/if}}   conditional on a non-empty value
//	{{#each field sep=", "}} {{this}} {{/each}}
//	{{media url=field}}              attach a data URI as a media part
//
// A block tag that is alone on its line removes that whole line from the
// output, matching handlebars standalone handling.
package prompt

import (
	"fmt"
	"strconv"
	"strings"
)

type SegmentKind int

const (
	TextSegment SegmentKind = iota
	FieldSegment
	ThisSegment
	IfSegment
	EachSegment
	MediaSegment
)

func (k SegmentKind) String() string {
	switch k {
	case TextSegment:
		return "text"
	case FieldSegment:
		return "field"
	case ThisSegment:
		return "this"
	case IfSegment:
		return "if"
	case EachSegment:
		return "each"
	case MediaSegment:
		return "media"
	default:
		return "unknown"
	}
}

// Segment is one node of a parsed template. Then and Else hold the bodies of
// if and each blocks.
type Segment struct {
	Kind  SegmentKind
	Text  string
	Field string
	Sep   string
	Then  []Segment
	Else  []Segment
}

type Template struct {
	Name     string
	Segments []Segment
}

// MustParse is Parse for templates embedded in the binary.
func MustParse(name, text string) *Template {
	tpl, err := Parse(name, text)
	if err != nil {
		panic(err)
	}
	return tpl
}

func Parse(name, text string) (*Template, error) {
	tokens, err := lex(text)
	if err != nil {
		return nil, fmt.Errorf("prompt %s: %w", name, err)
	}
	stripStandalone(tokens)

	p := &parser{tokens: tokens}
	segments, end, err := p.parseUntil(0)
	if err != nil {
		return nil, fmt.Errorf("prompt %s: %w", name, err)
	}
	if end != nil {
		return nil, fmt.Errorf("prompt %s: unexpected {{%s}}", name, end.raw)
	}
	return &Template{Name: name, Segments: segments}, nil
}

type tagKind int

const (
	tagNone tagKind = iota
	tagField
	tagThis
	tagIf
	tagElse
	tagEndIf
	tagEach
	tagEndEach
	tagMedia
)

type token struct {
	tag   tagKind
	text  string
	field string
	sep   string
	raw   string
}

func (t token) isBlock() bool {
	switch t.tag {
	case tagIf, tagElse, tagEndIf, tagEach, tagEndEach:
		return true
	default:
		return false
	}
}

func lex(text string) ([]token, error) {
	var tokens []token
	for len(text) > 0 {
		open := strings.Index(text, "{{")
		if open < 0 {
			tokens = append(tokens, token{text: text})
			break
		}
		if open > 0 {
			tokens = append(tokens, token{text: text[:open]})
		}
		text = text[open:]

		closer := "}}"
		body := text[2:]
		if strings.HasPrefix(text, "{{{") {
			closer = "}}}"
			body = text[3:]
		}
		end := strings.Index(body, closer)
		if end < 0 {
			return nil, fmt.Errorf("unterminated tag near %q", truncate(text, 24))
		}
		raw := strings.TrimSpace(body[:end])
		text = body[end+len(closer):]

		tok, err := parseTag(raw)
		if err != nil {
			return nil, err
		}
		if closer == "}}}" && tok.tag != tagField && tok.tag != tagThis {
			return nil, fmt.Errorf("triple braces are only allowed for values, got {{{%s}}}", raw)
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func parseTag(raw string) (token, error) {
	tok := token{raw: raw}
	head, rest, _ := strings.Cut(raw, " ")
	rest = strings.TrimSpace(rest)

	switch {
	case raw == "else":
		tok.tag = tagElse
	case raw == "/if":
		tok.tag = tagEndIf
	case raw == "/each":
		tok.tag = tagEndEach
	case raw == "this":
		tok.tag = tagThis
	case head == "#if":
		if !isIdent(rest) {
			return token{}, fmt.Errorf("{{#if}} needs a field name, got %q", rest)
		}
		tok.tag, tok.field = tagIf, rest
	case head == "#each":
		field, args, _ := strings.Cut(rest, " ")
		if !isIdent(field) {
			return token{}, fmt.Errorf("{{#each}} needs a field name, got %q", rest)
		}
		tok.tag, tok.field = tagEach, field
		if args = strings.TrimSpace(args); args != "" {
			value, ok := strings.CutPrefix(args, "sep=")
			if !ok {
				return token{}, fmt.Errorf("unknown {{#each}} argument %q", args)
			}
			sep, err := strconv.Unquote(value)
			if err != nil {
				return token{}, fmt.Errorf("{{#each}} sep must be a quoted string: %w", err)
			}
			tok.sep = sep
		}
	case head == "media":
		field, ok := strings.CutPrefix(rest, "url=")
		if !ok || !isIdent(field) {
			return token{}, fmt.Errorf("{{media}} needs url=<field>, got %q", rest)
		}
		tok.tag, tok.field = tagMedia, field
	case isIdent(raw):
		tok.tag, tok.field = tagField, raw
	default:
		return token{}, fmt.Errorf("unknown helper {{%s}}", raw)
	}
	return tok, nil
}

// stripStandalone removes the line of every block tag that has nothing but
// whitespace around it on its line. Flags are computed on the untouched text
// first so neighbouring standalone tags do not affect each other.
func stripStandalone(tokens []token) {
	n := len(tokens)
	cutHead := make([]bool, n)
	cutTail := make([]bool, n)

	for i, tok := range tokens {
		if !tok.isBlock() {
			continue
		}
		startsLine := i == 0
		if i > 0 && tokens[i-1].tag == tagNone {
			prev := tokens[i-1].text
			nl := strings.LastIndexByte(prev, '\n')
			startsLine = isBlank(prev[nl+1:]) && (nl >= 0 || i == 1)
		}
		endsLine := i == n-1
		if i < n-1 && tokens[i+1].tag == tagNone {
			next := tokens[i+1].text
			nl := strings.IndexByte(next, '\n')
			if nl < 0 {
				endsLine = isBlank(next) && i+1 == n-1
			} else {
				endsLine = isBlank(next[:nl])
			}
		}
		if !startsLine || !endsLine {
			continue
		}
		if i > 0 {
			cutTail[i-1] = true
		}
		if i < n-1 {
			cutHead[i+1] = true
		}
	}

	for i := range tokens {
		if tokens[i].tag != tagNone {
			continue
		}
		text := tokens[i].text
		start, end := 0, len(text)
		if cutHead[i] {
			if nl := strings.IndexByte(text, '\n'); nl >= 0 {
				start = nl + 1
			} else {
				start = len(text)
			}
		}
		if cutTail[i] {
			end = strings.LastIndexByte(text, '\n') + 1
		}
		if start >= end {
			tokens[i].text = ""
			continue
		}
		tokens[i].text = text[start:end]
	}
}

type parser struct {
	tokens []token
	pos    int
	inEach int
}

// parseUntil consumes segments until a closing or else tag at the current
// depth, which it returns without consuming further.
func (p *parser) parseUntil(depth int) ([]Segment, *token, error) {
	var segments []Segment
	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++

		switch tok.tag {
		case tagNone:
			if tok.text != "" {
				segments = append(segments, Segment{Kind: TextSegment, Text: tok.text})
			}
		case tagField:
			segments = append(segments, Segment{Kind: FieldSegment, Field: tok.field})
		case tagThis:
			if p.inEach == 0 {
				return nil, nil, fmt.Errorf("{{%s}} outside {{#each}}", tok.raw)
			}
			segments = append(segments, Segment{Kind: ThisSegment})
		case tagMedia:
			segments = append(segments, Segment{Kind: MediaSegment, Field: tok.field})
		case tagIf, tagEach:
			block, err := p.parseBlock(tok, depth+1)
			if err != nil {
				return nil, nil, err
			}
			segments = append(segments, block)
		case tagElse, tagEndIf, tagEndEach:
			if depth == 0 {
				return nil, nil, fmt.Errorf("unexpected {{%s}}", tok.raw)
			}
			return segments, &tok, nil
		}
	}
	if depth > 0 {
		return nil, nil, fmt.Errorf("unclosed block")
	}
	return segments, nil, nil
}

func (p *parser) parseBlock(open token, depth int) (Segment, error) {
	kind, closeTag, closeRaw := IfSegment, tagEndIf, "/if"
	if open.tag == tagEach {
		kind, closeTag, closeRaw = EachSegment, tagEndEach, "/each"
	}
	seg := Segment{Kind: kind, Field: open.field, Sep: open.sep}

	if kind == EachSegment {
		p.inEach++
	}
	then, end, err := p.parseUntil(depth)
	if kind == EachSegment {
		p.inEach--
	}
	if err != nil {
		return Segment{}, fmt.Errorf("{{%s}}: %w", open.raw, err)
	}
	seg.Then = then

	if end.tag == tagElse {
		otherwise, elseEnd, err := p.parseUntil(depth)
		if err != nil {
			return Segment{}, fmt.Errorf("{{%s}}: %w", open.raw, err)
		}
		if elseEnd.tag == tagElse {
			return Segment{}, fmt.Errorf("{{%s}}: duplicate {{else}}", open.raw)
		}
		seg.Else = otherwise
		end = elseEnd
	}
	if end.tag != closeTag {
		return Segment{}, fmt.Errorf("{{%s}} closed by {{%s}}, want {{%s}}", open.raw, end.raw, closeRaw)
	}
	return seg, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
