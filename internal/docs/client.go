package docs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	docs "google.golang.org/api/docs/v1"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/teemow/gdrive-mcp/internal/instrumentation"
)

// Client wraps the Google Docs service, plus the Drive service for moving
// documents between folders
type Client struct {
	docsService  *docs.Service
	driveService *drive.Service
	account      string
	metrics      *instrumentation.Metrics
}

// Position is where inserted content goes: at Index, or at the end of the
// body when AtEnd is set. Index defaults to 1, the start of the body.
type Position struct {
	Index int64
	AtEnd bool
}

// MarkdownResult describes a document created from markdown
type MarkdownResult struct {
	DocumentID   string `json:"documentId"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Instructions int    `json:"instructions"`
}

// NewClient creates a Docs client on top of an authorized HTTP client.
// opts apply to both the Docs and the Drive service.
func NewClient(ctx context.Context, httpClient *http.Client, account string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)

	docsService, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docs service: %w", err)
	}

	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	return &Client{
		docsService:  docsService,
		driveService: driveService,
		account:      account,
	}, nil
}

// WithMetrics records every API call on m
func (c *Client) WithMetrics(m *instrumentation.Metrics) *Client {
	c.metrics = m
	return c
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

func (c *Client) observe(ctx context.Context, operation, documentID string, fn func(ctx context.Context) error) error {
	return instrumentation.ObserveGoogleAPI(ctx, c.metrics, instrumentation.ServiceDocs, operation, documentID, fn)
}

// CreateDocument creates a document and inserts content when it is not empty.
// It returns the new document's ID.
func (c *Client) CreateDocument(ctx context.Context, title, content string) (string, error) {
	if title == "" {
		return "", errors.New("title is required")
	}

	var doc *docs.Document
	err := c.observe(ctx, instrumentation.OperationCreate, "", func(ctx context.Context) error {
		var err error
		doc, err = c.docsService.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to create document %q: %w", title, err)
	}

	if content != "" {
		if err := c.BatchUpdate(ctx, doc.DocumentId, []*docs.Request{InsertTextRequest(content, 1)}); err != nil {
			return doc.DocumentId, err
		}
	}

	return doc.DocumentId, nil
}

// GetDocument retrieves a document including the content of all its tabs
func (c *Client) GetDocument(ctx context.Context, documentID string) (*docs.Document, error) {
	if documentID == "" {
		return nil, errors.New("documentID is required")
	}

	var doc *docs.Document
	err := c.observe(ctx, instrumentation.OperationGet, documentID, func(ctx context.Context) error {
		var err error
		doc, err = c.docsService.Documents.Get(documentID).IncludeTabsContent(true).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", documentID, err)
	}

	return doc, nil
}

// GetDocumentAsMarkdown converts a document to markdown
func (c *Client) GetDocumentAsMarkdown(ctx context.Context, documentID string) (string, error) {
	doc, err := c.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	return DocumentToMarkdown(doc)
}

// GetDocumentAsPlainText extracts the plain text of a document
func (c *Client) GetDocumentAsPlainText(ctx context.Context, documentID string) (string, error) {
	doc, err := c.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	return DocumentToPlainText(doc)
}

// BatchUpdate applies requests in one call. An empty list is a no-op.
func (c *Client) BatchUpdate(ctx context.Context, documentID string, requests []*docs.Request) error {
	if len(requests) == 0 {
		return nil
	}

	err := c.observe(ctx, instrumentation.OperationUpdate, documentID, func(ctx context.Context) error {
		_, err := c.docsService.Documents.BatchUpdate(documentID, &docs.BatchUpdateDocumentRequest{
			Requests: requests,
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to update document %s: %w", documentID, err)
	}
	return nil
}

// EndIndex returns the index at which text is appended to the document
func (c *Client) EndIndex(ctx context.Context, documentID string) (int64, error) {
	var doc *docs.Document
	err := c.observe(ctx, instrumentation.OperationGet, documentID, func(ctx context.Context) error {
		var err error
		doc, err = c.docsService.Documents.Get(documentID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get document %s: %w", documentID, err)
	}
	return EndIndex(doc), nil
}

// resolve turns a Position into a document index
func (c *Client) resolve(ctx context.Context, documentID string, pos Position) (int64, error) {
	if pos.AtEnd {
		return c.EndIndex(ctx, documentID)
	}
	if pos.Index < 1 {
		return 1, nil
	}
	return pos.Index, nil
}

// AppendText inserts text at the end of the document
func (c *Client) AppendText(ctx context.Context, documentID, text string) error {
	if text == "" {
		return errors.New("text is required")
	}

	end, err := c.EndIndex(ctx, documentID)
	if err != nil {
		return err
	}
	return c.BatchUpdate(ctx, documentID, []*docs.Request{InsertTextRequest(text, end)})
}

// ReplaceContent deletes the body and inserts text in its place
func (c *Client) ReplaceContent(ctx context.Context, documentID, text string) error {
	end, err := c.EndIndex(ctx, documentID)
	if err != nil {
		return err
	}

	var requests []*docs.Request
	if end > 1 {
		requests = append(requests, DeleteRangeRequest(Range{Start: 1, End: end}))
	}
	if text != "" {
		requests = append(requests, InsertTextRequest(text, 1))
	}
	return c.BatchUpdate(ctx, documentID, requests)
}

// InsertHeading inserts text as its own paragraph styled HEADING_<level>
func (c *Client) InsertHeading(ctx context.Context, documentID, text string, level int, pos Position) (Range, error) {
	if text == "" {
		return Range{}, errors.New("heading text is required")
	}
	if level < 1 || level > MaxHeadingLevel {
		return Range{}, fmt.Errorf("heading level must be between 1 and %d, got %d", MaxHeadingLevel, level)
	}

	index, err := c.resolve(ctx, documentID, pos)
	if err != nil {
		return Range{}, err
	}

	content := text + "\n"
	r := Range{Start: index, End: index + TextLength(content)}
	heading := Instruction{Kind: ParagraphStyleKind, Range: r, NamedStyle: HeadingStyle(level)}

	return r, c.BatchUpdate(ctx, documentID, []*docs.Request{
		InsertTextRequest(content, index),
		heading.Request(),
	})
}

// InsertList inserts one paragraph per item and turns them into a bullet or
// numbered list
func (c *Client) InsertList(ctx context.Context, documentID string, items []string, ordered bool, pos Position) (Range, error) {
	if len(items) == 0 {
		return Range{}, errors.New("at least one list item is required")
	}

	index, err := c.resolve(ctx, documentID, pos)
	if err != nil {
		return Range{}, err
	}

	content := strings.Join(items, "\n") + "\n"
	r := Range{Start: index, End: index + TextLength(content)}
	list := Instruction{Kind: BulletPresetKind, Range: r, Ordered: ordered}

	return r, c.BatchUpdate(ctx, documentID, []*docs.Request{
		InsertTextRequest(content, index),
		list.Request(),
	})
}

// FormatText applies a manual formatting change to r
func (c *Client) FormatText(ctx context.Context, documentID string, r Range, format TextFormat) error {
	if r.Start < 1 || r.End <= r.Start {
		return fmt.Errorf("invalid range [%d, %d)", r.Start, r.End)
	}

	req, err := format.Request(r)
	if err != nil {
		return err
	}
	return c.BatchUpdate(ctx, documentID, []*docs.Request{req})
}

// CreateFromMarkdown creates a document from markdown. The plain text is
// inserted first and the styling instructions are applied in a second batch,
// because their indexes refer to the text once it is in place.
func (c *Client) CreateFromMarkdown(ctx context.Context, title, markdown, folderID string) (*MarkdownResult, error) {
	conv := ConvertMarkdown(markdown)

	documentID, err := c.CreateDocument(ctx, title, "")
	if err != nil {
		return nil, err
	}

	result := &MarkdownResult{
		DocumentID:   documentID,
		Title:        title,
		URL:          DocumentURL(documentID),
		Instructions: len(conv.Instructions),
	}

	if folderID != "" {
		if err := c.moveToFolder(ctx, documentID, folderID); err != nil {
			return result, err
		}
	}

	if conv.Text == "" {
		return result, nil
	}
	if err := c.BatchUpdate(ctx, documentID, []*docs.Request{InsertTextRequest(conv.Text, 1)}); err != nil {
		return result, err
	}
	if err := c.BatchUpdate(ctx, documentID, conv.Requests()); err != nil {
		return result, err
	}

	return result, nil
}

// moveToFolder replaces the parents of a document with folderID
func (c *Client) moveToFolder(ctx context.Context, documentID, folderID string) error {
	return c.observe(ctx, instrumentation.OperationMove, documentID, func(ctx context.Context) error {
		file, err := c.driveService.Files.Get(documentID).Fields("parents").SupportsAllDrives(true).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to get parents of %s: %w", documentID, err)
		}

		call := c.driveService.Files.Update(documentID, &drive.File{}).
			AddParents(folderID).
			Fields("id, parents").
			SupportsAllDrives(true)
		if len(file.Parents) > 0 {
			call = call.RemoveParents(strings.Join(file.Parents, ","))
		}
		if _, err := call.Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to move %s to folder %s: %w", documentID, folderID, err)
		}
		return nil
	})
}
