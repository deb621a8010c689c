package docs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	docs "google.golang.org/api/docs/v1"
)

const (
	// BulletPresetDisc is applied to unordered lists
	BulletPresetDisc = "BULLET_DISC_CIRCLE_SQUARE"
	// BulletPresetNumbered is applied to ordered lists
	BulletPresetNumbered = "NUMBERED_DECIMAL_ALPHA_ROMAN"

	// MaxHeadingLevel is the deepest heading style the Docs API offers
	MaxHeadingLevel = 6
)

// LinkColor is the accent applied to hyperlinks produced from markdown
var LinkColor = RGB{Red: 0.06, Green: 0.46, Blue: 0.88}

// ErrInvalidColor is returned when a color is not a #RRGGBB hex string
var ErrInvalidColor = errors.New("invalid color: expected #RRGGBB")

// RGB is a color with components in the range [0, 1]
type RGB struct {
	Red   float64
	Green float64
	Blue  float64
}

func (c RGB) optionalColor() *docs.OptionalColor {
	return &docs.OptionalColor{
		Color: &docs.Color{
			RgbColor: &docs.RgbColor{
				Red:   c.Red,
				Green: c.Green,
				Blue:  c.Blue,
				// zero components would otherwise be dropped from the payload
				ForceSendFields: []string{"Red", "Green", "Blue"},
			},
		},
	}
}

// ParseHexColor parses "#RRGGBB" (the leading # is optional)
func ParseHexColor(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return RGB{
		Red:   float64((v>>16)&0xff) / 255,
		Green: float64((v>>8)&0xff) / 255,
		Blue:  float64(v&0xff) / 255,
	}, nil
}

// HeadingStyle returns the named style for a heading level, clamped to 1..6
func HeadingStyle(level int) string {
	if level < 1 {
		level = 1
	}
	if level > MaxHeadingLevel {
		level = MaxHeadingLevel
	}
	return "HEADING_" + strconv.Itoa(level)
}

// BulletPreset returns the list preset for ordered or unordered lists
func BulletPreset(ordered bool) string {
	if ordered {
		return BulletPresetNumbered
	}
	return BulletPresetDisc
}

func (r Range) docsRange() *docs.Range {
	return &docs.Range{StartIndex: r.Start, EndIndex: r.End}
}

// Request serializes the instruction into a Docs batchUpdate request
func (in Instruction) Request() *docs.Request {
	switch in.Kind {
	case ParagraphStyleKind:
		return &docs.Request{
			UpdateParagraphStyle: &docs.UpdateParagraphStyleRequest{
				Range:          in.Range.docsRange(),
				ParagraphStyle: &docs.ParagraphStyle{NamedStyleType: in.NamedStyle},
				Fields:         "namedStyleType",
			},
		}
	case BulletPresetKind:
		return &docs.Request{
			CreateParagraphBullets: &docs.CreateParagraphBulletsRequest{
				Range:        in.Range.docsRange(),
				BulletPreset: BulletPreset(in.Ordered),
			},
		}
	default:
		style, fields := in.Style.docsStyle()
		return &docs.Request{
			UpdateTextStyle: &docs.UpdateTextStyleRequest{
				Range:     in.Range.docsRange(),
				TextStyle: style,
				Fields:    fields,
			},
		}
	}
}

// docsStyle returns the Docs text style and a fields mask naming exactly the
// attributes that are set
func (s TextStyle) docsStyle() (*docs.TextStyle, string) {
	style := &docs.TextStyle{}
	var fields []string
	if s.Bold {
		style.Bold = true
		fields = append(fields, "bold")
	}
	if s.Italic {
		style.Italic = true
		fields = append(fields, "italic")
	}
	if s.Link != "" {
		style.Link = &docs.Link{Url: s.Link}
		style.ForegroundColor = LinkColor.optionalColor()
		fields = append(fields, "link", "foregroundColor")
	}
	return style, strings.Join(fields, ",")
}

// Requests serializes every instruction in order
func (c Conversion) Requests() []*docs.Request {
	requests := make([]*docs.Request, 0, len(c.Instructions))
	for _, in := range c.Instructions {
		requests = append(requests, in.Request())
	}
	return requests
}

// InsertTextRequest inserts text at the given 1-based index
func InsertTextRequest(text string, index int64) *docs.Request {
	return &docs.Request{
		InsertText: &docs.InsertTextRequest{
			Location: &docs.Location{Index: index},
			Text:     text,
		},
	}
}

// DeleteRangeRequest deletes the content in r
func DeleteRangeRequest(r Range) *docs.Request {
	return &docs.Request{
		DeleteContentRange: &docs.DeleteContentRangeRequest{Range: r.docsRange()},
	}
}

// TextFormat describes a manual formatting change. Nil fields are left untouched.
type TextFormat struct {
	Bold      *bool
	Italic    *bool
	Underline *bool
	FontSize  *float64
	Color     string
}

// IsEmpty reports whether no attribute is set
func (f TextFormat) IsEmpty() bool {
	return f.Bold == nil && f.Italic == nil && f.Underline == nil && f.FontSize == nil && f.Color == ""
}

// Request builds an updateTextStyle request for r. Explicit false values are
// sent so formatting can be removed as well as added.
func (f TextFormat) Request(r Range) (*docs.Request, error) {
	if f.IsEmpty() {
		return nil, errors.New("no formatting attributes provided")
	}

	style := &docs.TextStyle{}
	var fields, force []string

	if f.Bold != nil {
		style.Bold = *f.Bold
		fields = append(fields, "bold")
		force = append(force, "Bold")
	}
	if f.Italic != nil {
		style.Italic = *f.Italic
		fields = append(fields, "italic")
		force = append(force, "Italic")
	}
	if f.Underline != nil {
		style.Underline = *f.Underline
		fields = append(fields, "underline")
		force = append(force, "Underline")
	}
	if f.FontSize != nil {
		style.FontSize = &docs.Dimension{Magnitude: *f.FontSize, Unit: "PT"}
		fields = append(fields, "fontSize")
	}
	if f.Color != "" {
		rgb, err := ParseHexColor(f.Color)
		if err != nil {
			return nil, err
		}
		style.ForegroundColor = rgb.optionalColor()
		fields = append(fields, "foregroundColor")
	}
	style.ForceSendFields = force

	return &docs.Request{
		UpdateTextStyle: &docs.UpdateTextStyleRequest{
			Range:     r.docsRange(),
			TextStyle: style,
			Fields:    strings.Join(fields, ","),
		},
	}, nil
}

// DocumentURL returns the edit URL of a document
func DocumentURL(documentID string) string {
	return "https://docs.google.com/document/d/" + documentID + "/edit"
}
