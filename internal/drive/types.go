package drive

import (
	"time"

	drive "google.golang.org/api/drive/v3"
)

// MIME types of Google Workspace files
const (
	FolderMimeType       = "application/vnd.google-apps.folder"
	DocumentMimeType     = "application/vnd.google-apps.document"
	SpreadsheetMimeType  = "application/vnd.google-apps.spreadsheet"
	PresentationMimeType = "application/vnd.google-apps.presentation"
	GoogleAppsPrefix     = "application/vnd.google-apps."
)

// exportFormats maps exportable Google Workspace types to the format used
// when reading them
var exportFormats = map[string]string{
	DocumentMimeType:     "text/plain",
	SpreadsheetMimeType:  "text/csv",
	PresentationMimeType: "text/plain",
}

// fileFields is the partial response requested for single files
const fileFields = "id, name, mimeType, size, createdTime, modifiedTime, webViewLink, parents, owners, trashed"

// FileInfo is the metadata of a file or folder
type FileInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size,omitempty"`
	CreatedTime  time.Time `json:"createdTime,omitzero"`
	ModifiedTime time.Time `json:"modifiedTime,omitzero"`
	WebViewLink  string    `json:"webViewLink,omitempty"`
	Parents      []string  `json:"parents,omitempty"`
	Owners       []User    `json:"owners,omitempty"`
	Trashed      bool      `json:"trashed,omitempty"`
}

// IsFolder reports whether the file is a folder
func (f *FileInfo) IsFolder() bool {
	return f.MimeType == FolderMimeType
}

// User is a Drive user, for example a file owner
type User struct {
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// ListOptions filter ListFiles
type ListOptions struct {
	// FolderID restricts the listing to direct children of a folder
	FolderID string

	// Query is an additional Drive query, ANDed with the folder filter
	Query string

	// MaxResults defaults to DefaultListResults and is capped at MaxListResults
	MaxResults int

	PageToken string
	OrderBy   string

	IncludeTrashed bool
}

// UploadOptions describe a new file
type UploadOptions struct {
	Name        string
	MimeType    string
	FolderID    string
	Description string
}

// FileContent is the result of ReadFile
type FileContent struct {
	File *FileInfo `json:"file"`

	// MimeType is the type of Content, which differs from File.MimeType
	// for exported Google Workspace files
	MimeType string `json:"mimeType"`

	Content []byte `json:"-"`

	// Truncated is set when the file exceeded MaxReadBytes
	Truncated bool `json:"truncated,omitempty"`
}

func convertToFileInfo(f *drive.File) *FileInfo {
	if f == nil {
		return nil
	}

	info := &FileInfo{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		Size:        f.Size,
		WebViewLink: f.WebViewLink,
		Parents:     f.Parents,
		Trashed:     f.Trashed,
	}
	if t, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
		info.CreatedTime = t
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		info.ModifiedTime = t
	}
	for _, o := range f.Owners {
		info.Owners = append(info.Owners, User{DisplayName: o.DisplayName, EmailAddress: o.EmailAddress})
	}
	return info
}
