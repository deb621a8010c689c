package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/gdrive-mcp/internal/instrumentation"
)

const (
	// DefaultListResults is the page size of ListFiles when none is given
	DefaultListResults = 100
	// MaxListResults caps the page size of ListFiles
	MaxListResults = 500
	// DefaultSearchResults is the number of results of SearchFiles when none is given
	DefaultSearchResults = 20
	// MaxSearchResults caps SearchFiles
	MaxSearchResults = 100

	// MaxReadBytes is the most content ReadFile returns
	MaxReadBytes = 10 << 20
)

// ErrUnsupportedExport is returned by ReadFile for Google Workspace files
// without a text export, such as forms and drawings
var ErrUnsupportedExport = errors.New("file type cannot be exported as text")

const listFields = "nextPageToken, files(" + fileFields + ")"

// Client is a Drive client bound to one account
type Client struct {
	service *drive.Service
	account string
	metrics *instrumentation.Metrics
}

// NewClient creates a Drive client on top of an authorized HTTP client.
// opts are appended to the defaults, which lets tests point the client at a
// local server with option.WithEndpoint.
func NewClient(ctx context.Context, httpClient *http.Client, account string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive service: %w", err)
	}

	return &Client{
		service: srv,
		account: account,
	}, nil
}

// WithMetrics records every API call on m
func (c *Client) WithMetrics(m *instrumentation.Metrics) *Client {
	c.metrics = m
	return c
}

// Account returns the account the client acts for
func (c *Client) Account() string {
	return c.account
}

func (c *Client) observe(ctx context.Context, operation, resourceID string, fn func(ctx context.Context) error) error {
	return instrumentation.ObserveGoogleAPI(ctx, c.metrics, instrumentation.ServiceDrive, operation, resourceID, fn)
}

// ListFiles returns one page of files and the token of the next page
func (c *Client) ListFiles(ctx context.Context, opts ListOptions) ([]*FileInfo, string, error) {
	if opts.FolderID != "" {
		if err := ValidateID(opts.FolderID); err != nil {
			return nil, "", err
		}
	}

	call := c.service.Files.List().
		Q(buildListQuery(opts)).
		PageSize(int64(clampResults(opts.MaxResults, DefaultListResults, MaxListResults))).
		Fields(listFields).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)
	if opts.PageToken != "" {
		call = call.PageToken(opts.PageToken)
	}
	if opts.OrderBy != "" {
		call = call.OrderBy(opts.OrderBy)
	}

	var result *drive.FileList
	err := c.observe(ctx, instrumentation.OperationList, opts.FolderID, func(ctx context.Context) error {
		var err error
		result, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list files: %w", err)
	}

	return convertFiles(result.Files), result.NextPageToken, nil
}

// SearchFiles matches text against file names and content
func (c *Client) SearchFiles(ctx context.Context, text string, maxResults int) ([]*FileInfo, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("search text is required")
	}

	call := c.service.Files.List().
		Q(buildSearchQuery(text)).
		PageSize(int64(clampResults(maxResults, DefaultSearchResults, MaxSearchResults))).
		Fields(listFields).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)

	var result *drive.FileList
	err := c.observe(ctx, instrumentation.OperationSearch, "", func(ctx context.Context) error {
		var err error
		result, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search files: %w", err)
	}

	return convertFiles(result.Files), nil
}

// GetFile returns the metadata of a file
func (c *Client) GetFile(ctx context.Context, fileID string) (*FileInfo, error) {
	if err := ValidateID(fileID); err != nil {
		return nil, err
	}

	var file *drive.File
	err := c.observe(ctx, instrumentation.OperationGet, fileID, func(ctx context.Context) error {
		var err error
		file, err = c.service.Files.Get(fileID).
			Fields(fileFields).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", fileID, err)
	}

	return convertToFileInfo(file), nil
}

// ReadFile returns the content of a file. Google Docs and Slides are exported
// as plain text and Sheets as CSV, other Workspace types are rejected.
// Content beyond MaxReadBytes is cut off and flagged as truncated.
func (c *Client) ReadFile(ctx context.Context, fileID string) (*FileContent, error) {
	info, err := c.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if info.IsFolder() {
		return nil, fmt.Errorf("%s is a folder", fileID)
	}

	exportType, exportable := exportFormats[info.MimeType]
	if !exportable && strings.HasPrefix(info.MimeType, GoogleAppsPrefix) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExport, info.MimeType)
	}

	content := &FileContent{File: info, MimeType: info.MimeType}
	if exportable {
		content.MimeType = exportType
	}

	err = c.observe(ctx, instrumentation.OperationRead, fileID, func(ctx context.Context) error {
		var resp *http.Response
		var err error
		if exportable {
			resp, err = c.service.Files.Export(fileID, exportType).Context(ctx).Download()
		} else {
			resp, err = c.service.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
		}
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, MaxReadBytes+1))
		if err != nil {
			return err
		}
		if len(data) > MaxReadBytes {
			data = data[:MaxReadBytes]
			content.Truncated = true
		}
		content.Content = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}

	return content, nil
}

// UploadFile creates a new file with the given content
func (c *Client) UploadFile(ctx context.Context, opts UploadOptions, content io.Reader) (*FileInfo, error) {
	if opts.Name == "" {
		return nil, errors.New("file name is required")
	}
	if opts.FolderID != "" {
		if err := ValidateID(opts.FolderID); err != nil {
			return nil, err
		}
	}

	meta := &drive.File{
		Name:        opts.Name,
		MimeType:    opts.MimeType,
		Description: opts.Description,
	}
	if opts.FolderID != "" {
		meta.Parents = []string{opts.FolderID}
	}

	var mediaOpts []googleapi.MediaOption
	if opts.MimeType != "" {
		mediaOpts = append(mediaOpts, googleapi.ContentType(opts.MimeType))
	}

	var file *drive.File
	err := c.observe(ctx, instrumentation.OperationUpload, opts.FolderID, func(ctx context.Context) error {
		var err error
		file, err = c.service.Files.Create(meta).
			Media(content, mediaOpts...).
			Fields(fileFields).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", opts.Name, err)
	}

	return convertToFileInfo(file), nil
}

// CreateFile creates a text file. It is UploadFile with a string body and a
// text/plain default.
func (c *Client) CreateFile(ctx context.Context, opts UploadOptions, content string) (*FileInfo, error) {
	if opts.MimeType == "" {
		opts.MimeType = "text/plain"
	}
	return c.UploadFile(ctx, opts, strings.NewReader(content))
}

// UpdateFile replaces the content of a file, keeping its metadata
func (c *Client) UpdateFile(ctx context.Context, fileID string, content io.Reader, mimeType string) (*FileInfo, error) {
	if err := ValidateID(fileID); err != nil {
		return nil, err
	}

	var mediaOpts []googleapi.MediaOption
	if mimeType != "" {
		mediaOpts = append(mediaOpts, googleapi.ContentType(mimeType))
	}

	var file *drive.File
	err := c.observe(ctx, instrumentation.OperationUpdate, fileID, func(ctx context.Context) error {
		var err error
		file, err = c.service.Files.Update(fileID, &drive.File{}).
			Media(content, mediaOpts...).
			Fields(fileFields).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update file %s: %w", fileID, err)
	}

	return convertToFileInfo(file), nil
}

// DeleteFile permanently deletes a file, skipping the trash
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if err := ValidateID(fileID); err != nil {
		return err
	}

	err := c.observe(ctx, instrumentation.OperationDelete, fileID, func(ctx context.Context) error {
		return c.service.Files.Delete(fileID).SupportsAllDrives(true).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", fileID, err)
	}
	return nil
}

// TrashFile moves a file to the trash
func (c *Client) TrashFile(ctx context.Context, fileID string) error {
	if err := ValidateID(fileID); err != nil {
		return err
	}

	err := c.observe(ctx, instrumentation.OperationDelete, fileID, func(ctx context.Context) error {
		_, err := c.service.Files.Update(fileID, &drive.File{Trashed: true}).
			Fields("id").
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to trash file %s: %w", fileID, err)
	}
	return nil
}

// CreateFolder creates a folder, in the root folder when parentID is empty
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (*FileInfo, error) {
	if name == "" {
		return nil, errors.New("folder name is required")
	}
	if parentID != "" {
		if err := ValidateID(parentID); err != nil {
			return nil, err
		}
	}

	folder := &drive.File{
		Name:     name,
		MimeType: FolderMimeType,
	}
	if parentID != "" {
		folder.Parents = []string{parentID}
	}

	var file *drive.File
	err := c.observe(ctx, instrumentation.OperationCreate, parentID, func(ctx context.Context) error {
		var err error
		file, err = c.service.Files.Create(folder).
			Fields(fileFields).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create folder %s: %w", name, err)
	}

	return convertToFileInfo(file), nil
}

// MoveFile moves a file into folderID, removing it from all previous parents
func (c *Client) MoveFile(ctx context.Context, fileID, folderID string) (*FileInfo, error) {
	if err := ValidateID(fileID); err != nil {
		return nil, err
	}
	if err := ValidateID(folderID); err != nil {
		return nil, err
	}

	current, err := c.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	var file *drive.File
	err = c.observe(ctx, instrumentation.OperationMove, fileID, func(ctx context.Context) error {
		call := c.service.Files.Update(fileID, &drive.File{}).
			AddParents(folderID).
			Fields(fileFields).
			SupportsAllDrives(true)
		if len(current.Parents) > 0 {
			call = call.RemoveParents(strings.Join(current.Parents, ","))
		}
		var err error
		file, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to move file %s: %w", fileID, err)
	}

	return convertToFileInfo(file), nil
}

// CopyFile copies a file. An empty name yields "Copy of <original name>" and
// an empty folderID keeps the copy next to the original.
func (c *Client) CopyFile(ctx context.Context, fileID, name, folderID string) (*FileInfo, error) {
	if err := ValidateID(fileID); err != nil {
		return nil, err
	}
	if folderID != "" {
		if err := ValidateID(folderID); err != nil {
			return nil, err
		}
	}

	if name == "" {
		original, err := c.GetFile(ctx, fileID)
		if err != nil {
			return nil, err
		}
		name = "Copy of " + original.Name
	}

	meta := &drive.File{Name: name}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}

	var file *drive.File
	err := c.observe(ctx, instrumentation.OperationCopy, fileID, func(ctx context.Context) error {
		var err error
		file, err = c.service.Files.Copy(fileID, meta).
			Fields(fileFields).
			SupportsAllDrives(true).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to copy file %s: %w", fileID, err)
	}

	return convertToFileInfo(file), nil
}

func convertFiles(files []*drive.File) []*FileInfo {
	out := make([]*FileInfo, 0, len(files))
	for _, f := range files {
		out = append(out, convertToFileInfo(f))
	}
	return out
}
