// Package docs works with Google Docs.
//
// The core of the package is ConvertMarkdown, which turns markdown into the
// plain text of a document plus the styling instructions (headings, bullet
// presets, bold, italic and links) that reproduce the formatting once the text
// has been inserted. Instructions serialize to Docs API batchUpdate requests.
//
// The package also reads documents back as markdown or plain text and
// provides a Client for creating and editing documents:
//
//	conv := docs.ConvertMarkdown("# Title\nSome **bold** text\n")
//	// conv.Text == "Title\nSome bold text\n"
//	// conv.Requests() styles [1,7) as HEADING_1 and [12,16) as bold
//
//	client, err := docs.NewClient(ctx, httpClient, "default")
//	result, err := client.CreateFromMarkdown(ctx, "Notes", markdown, "")
package docs
