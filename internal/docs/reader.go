package docs

import (
	"errors"
	"fmt"
	"strings"

	docs "google.golang.org/api/docs/v1"
)

// ErrNilDocument is returned when a reader is handed a nil document
var ErrNilDocument = errors.New("document is nil")

// section is one body of content together with the list definitions its
// paragraphs refer to. Legacy documents have a single untitled section,
// tabbed documents have one per tab.
type section struct {
	title string
	depth int
	body  *docs.Body
	lists map[string]docs.List
}

// sections flattens a document into its bodies in reading order
func sections(doc *docs.Document) []section {
	if len(doc.Tabs) == 0 {
		return []section{{body: doc.Body, lists: doc.Lists}}
	}

	var out []section
	var walk func(tabs []*docs.Tab, depth int)
	walk = func(tabs []*docs.Tab, depth int) {
		for i, tab := range tabs {
			s := section{depth: depth}
			if tab.TabProperties != nil {
				s.title = tab.TabProperties.Title
			}
			if s.title == "" {
				s.title = fmt.Sprintf("Tab %d", i+1)
			}
			if tab.DocumentTab != nil {
				s.body = tab.DocumentTab.Body
				s.lists = tab.DocumentTab.Lists
			}
			out = append(out, s)
			walk(tab.ChildTabs, depth+1)
		}
	}
	walk(doc.Tabs, 0)
	return out
}

// DocumentToMarkdown renders a document as markdown using the subset the
// markdown converter understands, so the output can be fed back unchanged.
// Tabbed documents get one heading per tab when there is more than one.
func DocumentToMarkdown(doc *docs.Document) (string, error) {
	if doc == nil {
		return "", ErrNilDocument
	}

	var md strings.Builder
	if doc.Title != "" {
		md.WriteString("# " + doc.Title + "\n\n")
	}

	all := sections(doc)
	for _, s := range all {
		if len(all) > 1 {
			level := min(2+s.depth, MaxHeadingLevel)
			md.WriteString(strings.Repeat("#", level) + " " + s.title + "\n\n")
		}
		if s.body == nil {
			continue
		}
		for _, el := range s.body.Content {
			writeMarkdownElement(&md, el, s.lists)
		}
	}

	return md.String(), nil
}

func writeMarkdownElement(md *strings.Builder, el *docs.StructuralElement, lists map[string]docs.List) {
	switch {
	case el.Paragraph != nil:
		writeMarkdownParagraph(md, el.Paragraph, lists)
	case el.Table != nil:
		writeMarkdownTable(md, el.Table)
	case el.SectionBreak != nil:
		// the leading section break of every body carries no content
	}
}

func writeMarkdownParagraph(md *strings.Builder, para *docs.Paragraph, lists map[string]docs.List) {
	if len(para.Elements) == 0 {
		return
	}

	if para.ParagraphStyle != nil {
		if level := headingLevel(para.ParagraphStyle.NamedStyleType); level > 0 {
			md.WriteString(strings.Repeat("#", level) + " ")
		}
	}

	if para.Bullet != nil {
		md.WriteString(strings.Repeat("  ", int(para.Bullet.NestingLevel)))
		if isOrderedList(lists, para.Bullet) {
			md.WriteString("1. ")
		} else {
			md.WriteString("- ")
		}
	}

	for _, pe := range para.Elements {
		switch {
		case pe.TextRun != nil:
			writeMarkdownRun(md, pe.TextRun)
		case pe.InlineObjectElement != nil:
			md.WriteString("[inline object]")
		}
	}
}

// writeMarkdownRun wraps the run in markup, keeping the paragraph's trailing
// newline outside the delimiters.
func writeMarkdownRun(md *strings.Builder, run *docs.TextRun) {
	content := run.Content
	trailing := ""
	if strings.HasSuffix(content, "\n") {
		content = strings.TrimSuffix(content, "\n")
		trailing = "\n"
	}

	style := run.TextStyle
	switch {
	case content == "" || style == nil:
		md.WriteString(content)
	case style.Link != nil && style.Link.Url != "":
		md.WriteString("[" + content + "](" + style.Link.Url + ")")
	case style.Bold:
		md.WriteString("**" + content + "**")
	case style.Italic:
		md.WriteString("*" + content + "*")
	default:
		md.WriteString(content)
	}
	md.WriteString(trailing)
}

func writeMarkdownTable(md *strings.Builder, table *docs.Table) {
	for i, row := range table.TableRows {
		md.WriteString("|")
		for _, cell := range row.TableCells {
			md.WriteString(" " + cellText(cell) + " |")
		}
		md.WriteString("\n")
		if i == 0 {
			md.WriteString("|" + strings.Repeat(" --- |", len(row.TableCells)) + "\n")
		}
	}
	md.WriteString("\n")
}

func cellText(cell *docs.TableCell) string {
	var b strings.Builder
	for _, el := range cell.Content {
		if el.Paragraph != nil {
			writePlainParagraph(&b, el.Paragraph)
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(b.String()), "\n", " ")
}

// DocumentToPlainText extracts the text of every tab without formatting
func DocumentToPlainText(doc *docs.Document) (string, error) {
	if doc == nil {
		return "", ErrNilDocument
	}

	var text strings.Builder
	if doc.Title != "" {
		text.WriteString(doc.Title + "\n\n")
	}

	all := sections(doc)
	for _, s := range all {
		if len(all) > 1 {
			text.WriteString(strings.Repeat("  ", s.depth) + "=== " + s.title + " ===\n\n")
		}
		if s.body == nil {
			continue
		}
		for _, el := range s.body.Content {
			switch {
			case el.Paragraph != nil:
				writePlainParagraph(&text, el.Paragraph)
			case el.Table != nil:
				for _, row := range el.Table.TableRows {
					cells := make([]string, 0, len(row.TableCells))
					for _, cell := range row.TableCells {
						cells = append(cells, cellText(cell))
					}
					text.WriteString(strings.Join(cells, "\t") + "\n")
				}
			}
		}
	}

	return text.String(), nil
}

func writePlainParagraph(b *strings.Builder, para *docs.Paragraph) {
	for _, pe := range para.Elements {
		if pe.TextRun != nil {
			b.WriteString(pe.TextRun.Content)
		}
	}
}

// headingLevel returns 1-6 for HEADING_n styles and 0 otherwise
func headingLevel(namedStyle string) int {
	for level := 1; level <= MaxHeadingLevel; level++ {
		if namedStyle == HeadingStyle(level) {
			return level
		}
	}
	return 0
}

// isOrderedList reports whether the bullet's list uses a numbering glyph at
// its nesting level
func isOrderedList(lists map[string]docs.List, bullet *docs.Bullet) bool {
	list, ok := lists[bullet.ListId]
	if !ok || list.ListProperties == nil {
		return false
	}
	levels := list.ListProperties.NestingLevels
	if int(bullet.NestingLevel) >= len(levels) {
		return false
	}
	switch levels[bullet.NestingLevel].GlyphType {
	case "", "NONE", "GLYPH_TYPE_UNSPECIFIED":
		return false
	default:
		return true
	}
}

// EndIndex returns the index just before the final newline of the body,
// which is where text must be inserted to append to a document.
func EndIndex(doc *docs.Document) int64 {
	body := doc.Body
	if body == nil && len(doc.Tabs) > 0 && doc.Tabs[0].DocumentTab != nil {
		body = doc.Tabs[0].DocumentTab.Body
	}
	if body == nil || len(body.Content) == 0 {
		return 1
	}
	end := body.Content[len(body.Content)-1].EndIndex - 1
	if end < 1 {
		return 1
	}
	return end
}
