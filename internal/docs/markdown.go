package docs

import (
	"regexp"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// InstructionKind identifies which Docs operation a styling instruction replays as.
type InstructionKind int

const (
	// ParagraphStyleKind sets a named paragraph style (HEADING_1 ... HEADING_6).
	ParagraphStyleKind InstructionKind = iota
	// BulletPresetKind applies a bullet or numbered list preset.
	BulletPresetKind
	// TextStyleKind sets character level styling (bold, italic, link).
	TextStyleKind
)

// String returns the name used in JSON and YAML output
func (k InstructionKind) String() string {
	switch k {
	case ParagraphStyleKind:
		return "paragraphStyle"
	case BulletPresetKind:
		return "bulletPreset"
	case TextStyleKind:
		return "textStyle"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k InstructionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Range is a half open [Start, End) span of 1-based document indexes.
type Range struct {
	Start int64 `json:"start" yaml:"start"`
	End   int64 `json:"end" yaml:"end"`
}

// Len returns the number of UTF-16 code units covered by the range
func (r Range) Len() int64 {
	return r.End - r.Start
}

// TextStyle holds the character attributes produced by inline markup.
// A non-empty Link is always rendered with the link accent color.
type TextStyle struct {
	Bold   bool   `json:"bold,omitempty" yaml:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty" yaml:"italic,omitempty"`
	Link   string `json:"link,omitempty" yaml:"link,omitempty"`
}

// Instruction is one position addressed styling operation.
type Instruction struct {
	Kind       InstructionKind `json:"kind" yaml:"kind"`
	Range      Range           `json:"range" yaml:"range"`
	NamedStyle string          `json:"namedStyle,omitempty" yaml:"namedStyle,omitempty"`
	Ordered    bool            `json:"ordered,omitempty" yaml:"ordered,omitempty"`
	Style      TextStyle       `json:"style,omitzero" yaml:"style,omitempty"`
}

// Conversion is the result of converting a markdown string: the text to insert
// at index 1 of an empty document and the instructions to replay afterwards.
type Conversion struct {
	Text         string        `json:"text" yaml:"text"`
	Instructions []Instruction `json:"instructions" yaml:"instructions"`
}

// Length returns the length of Text in document index units
func (c Conversion) Length() int64 {
	return TextLength(c.Text)
}

// TextLength returns the length of s in UTF-16 code units, which is how the
// Docs API counts indexes.
func TextLength(s string) int64 {
	var n int64
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += int64(l)
		} else {
			n++
		}
	}
	return n
}

// space and digit match any Unicode whitespace and decimal digit. RE2's \s
// and \d only cover ASCII.
const (
	space = `[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]`
	digit = `\p{Nd}`
)

var (
	headingLine  = regexp.MustCompile(`^(#{1,6})` + space + `+(.+)$`)
	bulletLine   = regexp.MustCompile(`^[-*]` + space + `+.+`)
	numberedLine = regexp.MustCompile(`^` + digit + `+\.` + space + `+.+`)

	bulletMarker   = regexp.MustCompile(`^[-*]` + space + `+`)
	numberedMarker = regexp.MustCompile(`^` + digit + `+\.` + space + `+`)
)

// inlineRule pairs an anchored pattern with the style its match produces.
// Group 1 is always the visible text.
type inlineRule struct {
	pattern *regexp.Regexp
	style   func(match []string) TextStyle
}

// Evaluated in order at every position; the first match wins and its span is
// not scanned again, so markup never nests.
var inlineRules = []inlineRule{
	{regexp.MustCompile(`^\*\*(.+?)\*\*`), func([]string) TextStyle { return TextStyle{Bold: true} }},
	{regexp.MustCompile(`^__(.+?)__`), func([]string) TextStyle { return TextStyle{Bold: true} }},
	{regexp.MustCompile(`^\*(.+?)\*`), func([]string) TextStyle { return TextStyle{Italic: true} }},
	{regexp.MustCompile(`^_(.+?)_`), func([]string) TextStyle { return TextStyle{Italic: true} }},
	{regexp.MustCompile(`^\[([^\]]+)\]\(([^)]+)\)`), func(m []string) TextStyle { return TextStyle{Link: m[2]} }},
}

// accumulator threads the document cursor through the text buffer and the
// instruction list.
type accumulator struct {
	text         strings.Builder
	cursor       int64
	instructions []Instruction
}

// write appends s and returns the range it now occupies
func (a *accumulator) write(s string) Range {
	start := a.cursor
	a.text.WriteString(s)
	a.cursor += TextLength(s)
	return Range{Start: start, End: a.cursor}
}

// ConvertMarkdown turns markdown into plain text plus the styling
// instructions that reproduce headings, lists and inline markup once the text
// has been inserted at index 1 of an empty document. It never fails.
func ConvertMarkdown(markdown string) Conversion {
	acc := &accumulator{cursor: 1}
	lines := splitLines(markdown)

	for i := 0; i < len(lines); {
		line := lines[i]

		if m := headingLine.FindStringSubmatch(line); m != nil {
			r := acc.write(m[2] + "\n")
			acc.instructions = append(acc.instructions, Instruction{
				Kind:       ParagraphStyleKind,
				Range:      r,
				NamedStyle: HeadingStyle(len(m[1])),
			})
			i++
			continue
		}

		if bulletLine.MatchString(line) {
			i = acc.listRun(lines, i, bulletLine, bulletMarker, false)
			continue
		}

		if numberedLine.MatchString(line) {
			i = acc.listRun(lines, i, numberedLine, numberedMarker, true)
			continue
		}

		text, styles := FormatInline(line, acc.cursor)
		acc.write(text + "\n")
		acc.instructions = append(acc.instructions, styles...)
		i++
	}

	return Conversion{
		Text:         acc.text.String(),
		Instructions: acc.instructions,
	}
}

// listRun consumes the maximal run of lines matching item starting at lines[start]
// and returns the index of the first line after the run.
func (a *accumulator) listRun(lines []string, start int, item, marker *regexp.Regexp, ordered bool) int {
	var items []string
	end := start
	for end < len(lines) && item.MatchString(lines[end]) {
		items = append(items, marker.ReplaceAllString(lines[end], ""))
		end++
	}

	r := a.write(strings.Join(items, "\n") + "\n")
	a.instructions = append(a.instructions, Instruction{
		Kind:    BulletPresetKind,
		Range:   r,
		Ordered: ordered,
	})
	return end
}

// FormatInline strips bold, italic and link markup from line and returns the
// remaining text together with one TextStyle instruction per matched span.
// base is the document index the first character of line will occupy.
// Unterminated markup is copied verbatim.
func FormatInline(line string, base int64) (string, []Instruction) {
	var (
		out          strings.Builder
		outLen       int64
		instructions []Instruction
	)

	for i := 0; i < len(line); {
		matched := false
		for _, rule := range inlineRules {
			m := rule.pattern.FindStringSubmatch(line[i:])
			if m == nil {
				continue
			}
			inner := m[1]
			innerLen := TextLength(inner)
			instructions = append(instructions, Instruction{
				Kind:  TextStyleKind,
				Range: Range{Start: base + outLen, End: base + outLen + innerLen},
				Style: rule.style(m),
			})
			out.WriteString(inner)
			outLen += innerLen
			i += len(m[0])
			matched = true
			break
		}
		if matched {
			continue
		}

		_, size := utf8.DecodeRuneInString(line[i:])
		out.WriteString(line[i : i+size])
		outLen += TextLength(line[i : i+size])
		i += size
	}

	return out.String(), instructions
}

// splitLines normalises line endings and splits markdown into lines. A single
// trailing newline terminates the last line instead of opening an empty one.
func splitLines(markdown string) []string {
	if markdown == "" {
		return nil
	}
	markdown = strings.ReplaceAll(markdown, "\r\n", "\n")
	lines := strings.Split(markdown, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
