package drive_tools

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gdrive-mcp/internal/drive"
	"github.com/teemow/gdrive-mcp/internal/instrumentation"
	"github.com/teemow/gdrive-mcp/internal/server"
	"github.com/teemow/gdrive-mcp/internal/tools/batch"
	"github.com/teemow/gdrive-mcp/internal/tools/common"
)

// defaultBinaryType is used for uploads whose type cannot be detected
const defaultBinaryType = "application/octet-stream"

// orderByPattern accepts Drive sort keys such as "folder,modifiedTime desc"
var orderByPattern = regexp.MustCompile(`^[a-zA-Z]+( desc)?(,\s*[a-zA-Z]+( desc)?)*$`)

type listParams struct {
	FolderID       string `json:"folder_id"`
	Query          string `json:"query"`
	OrderBy        string `json:"order_by"`
	PageToken      string `json:"page_token"`
	MaxResults     int    `json:"max_results"`
	IncludeTrashed bool   `json:"include_trashed"`
}

func (p listParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FolderID, common.GoogleID),
		validation.Field(&p.OrderBy, validation.Match(orderByPattern)),
		validation.Field(&p.MaxResults, validation.Min(0)),
	)
}

type searchParams struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

func (p searchParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Query, validation.Required, validation.Length(1, 500)),
		validation.Field(&p.MaxResults, validation.Min(0)),
	)
}

type fileIDsParams struct {
	FileIDs []string `json:"file_ids"`
}

func (p fileIDsParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FileIDs, validation.Required, validation.Length(1, batch.MaxItems), common.GoogleIDs),
	)
}

type fileIDParams struct {
	FileID string `json:"file_id"`
}

func (p fileIDParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FileID, validation.Required, common.GoogleID),
	)
}

type createFileParams struct {
	Name        string `json:"name"`
	Content     string `json:"content"`
	MimeType    string `json:"mime_type"`
	FolderID    string `json:"folder_id"`
	Description string `json:"description"`
}

func (p createFileParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.FolderID, common.GoogleID),
	)
}

type updateFileParams struct {
	FileID   string `json:"file_id"`
	Content  string `json:"content"`
	MimeType string `json:"mime_type"`
}

func (p updateFileParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FileID, validation.Required, common.GoogleID),
	)
}

type copyFileParams struct {
	FileID   string `json:"file_id"`
	NewName  string `json:"new_name"`
	FolderID string `json:"folder_id"`
}

func (p copyFileParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FileID, validation.Required, common.GoogleID),
		validation.Field(&p.FolderID, common.GoogleID),
	)
}

type uploadParams struct {
	Name          string `json:"name"`
	LocalPath     string `json:"local_path"`
	Base64Content string `json:"base64_content"`
	MimeType      string `json:"mime_type"`
	FolderID      string `json:"folder_id"`
}

func (p uploadParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.LocalPath,
			validation.When(p.Base64Content == "", validation.Required.Error("local_path or base64_content is required")),
			validation.When(p.Base64Content != "", validation.Empty.Error("use either local_path or base64_content")),
		),
		validation.Field(&p.Base64Content, is.Base64),
		validation.Field(&p.MimeType,
			validation.When(p.Base64Content != "", validation.Required.Error("is required with base64_content")),
		),
		validation.Field(&p.FolderID, common.GoogleID),
	)
}

func fileTools(sc *server.ServerContext) []common.Tool {
	return []common.Tool{
		{
			Definition: mcp.NewTool("drive_list_files",
				mcp.WithDescription("List files in Google Drive, optionally inside one folder. Trashed files are excluded unless requested."),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("folder_id",
					mcp.Description("Only list direct children of this folder"),
				),
				mcp.WithString("query",
					mcp.Description("Additional filter in Drive query language (e.g. \"mimeType='application/pdf'\")"),
				),
				mcp.WithNumber("max_results",
					mcp.Description(fmt.Sprintf("Maximum number of files to return (default: %d, max: %d)", drive.DefaultListResults, drive.MaxListResults)),
				),
				mcp.WithString("order_by",
					mcp.Description("Sort order (e.g. 'folder,modifiedTime desc,name')"),
				),
				mcp.WithString("page_token",
					mcp.Description("Page token from a previous call"),
				),
				mcp.WithBoolean("include_trashed",
					mcp.Description("Include trashed files (default: false)"),
				),
			),
			Handler:   handleListFiles(sc),
			Service:   instrumentation.ServiceDrive,
			Operation: instrumentation.OperationList,
		},
		{
			Definition: mcp.NewTool("drive_search_files",
				mcp.WithDescription("Search Google Drive for files whose name or content contains the query"),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("query",
					mcp.Required(),
					mcp.Description("Text to search for in file names and content"),
				),
				mcp.WithNumber("max_results",
					mcp.Description(fmt.Sprintf("Maximum number of files to return (default: %d, max: %d)", drive.DefaultSearchResults, drive.MaxSearchResults)),
				),
			),
			Handler:   handleSearchFiles(sc),
			Service:   instrumentation.ServiceDrive,
			Operation: instrumentation.OperationSearch,
		},
		{
			Definition: mcp.NewTool("drive_get_files",
				mcp.WithDescription("Get metadata for one or more files in Google Drive"),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("file_ids",
					mcp.Required(),
					mcp.Description("File ID (string) or array of file IDs"),
				),
			),
			Handler:   handleGetFiles(sc),
			Service:   instrumentation.ServiceDrive,
			Operation: instrumentation.OperationGet,
		},
		{
			Definition: mcp.NewTool("drive_read_file",
				mcp.WithDescription("Read the content of a text file. Google Docs and Slides are exported as plain text, Sheets as CSV."),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("file_id",
					mcp.Required(),
					mcp.Description("ID of the file to read"),
				),
			),
			Handler:   handleReadFile(sc),
			Service:   instrumentation.ServiceDrive,
			Operation: instrumentation.OperationRead,
		},
		{
			Definition: mcp.NewTool("drive_create_file",
				mcp.WithDescription("Create a new text file in Google Drive"),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("name",
					mcp.Required(),
					mcp.Description("Name of the file"),
				),
				mcp.WithString("content",
					mcp.Required(),
					mcp.Description("Content of the file"),
				),
				mcp.WithString("mime_type",
					mcp.Description("MIME type of the content (default: text/plain)"),
				),
				mcp.WithString("folder_id",
					mcp.Description("Folder to create the file in"),
				),
				mcp.WithString("description",
					mcp.Description("A short description of the file"),
				),
			),
			Handler:   handleCreateFile(sc),
			Service:   instrumentation.ServiceDrive,
			Operation: instrumentation.OperationCreate,
			Write:     true,
		},
		{
			Definition: mcp.NewTool("drive_update_file",
				mcp.WithDescription("Replace the content of an existing file"),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("file_id",
					mcp.Required(),
					mcp.Description("ID of the file to update"),
				),
				mcp.WithString("content",
					mcp.Required(),
					mcp.Description("New content"),
				),
				mcp.WithString("mime_type",
					mcp.Description("MIME type of the content (default: text/plain)"),
				),
			),
			Handler:   handleUpdateFile(sc),
			Service:   instrumentation.ServiceDrive,
			Operation: instrumentation.OperationUpdate,
			Write:     true,
		},
		{
			Definition: mcp.NewTool("drive_delete_files",
				mcp.WithDescription("Delete one or more files. Deletion is permanent unless trash is set."),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("file_ids",
					mcp.Required(),
					mcp.Description("File ID (string) or array of file IDs"),
				),
				mcp.WithBoolean("trash",
					mcp.Description("Move the files to the trash instead of deleting them (default: false)"),
				),
			),
			Handler:   handleDeleteFiles(sc),
			Service:   instrumentation.ServiceDrive,
			Operation: instrumentation.OperationDelete,
			Write:     true,
		},
		{
			Definition: mcp.NewTool("drive_copy_file",
				mcp.WithDescription("Copy a file, optionally into another folder"),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("file_id",
					mcp.Required(),
					mcp.Description("ID of the file to copy"),
				),
				mcp.WithString("new_name",
					mcp.Description("Name of the copy (default: 'Copy of <original name>')"),
				),
				mcp.WithString("folder_id",
					mcp.Description("Folder to place the copy in"),
				),
			),
			Handler:   handleCopyFile(sc),
			Service:   instrumentation.ServiceDrive,
			Operation: instrumentation.OperationCopy,
			Write:     true,
		},
		{
			Definition: mcp.NewTool("drive_upload_file",
				mcp.WithDescription("Upload a binary file (image, PDF, ...) from a local path or from base64 content"),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("name",
					mcp.Required(),
					mcp.Description("Name of the file in Google Drive"),
				),
				mcp.WithString("local_path",
					mcp.Description("Path of a file on the server's machine (use this OR base64_content)"),
				),
				mcp.WithString("base64_content",
					mcp.Description("Base64 encoded file content (use this OR local_path)"),
				),
				mcp.WithString("mime_type",
					mcp.Description("MIME type (e.g. 'image/png'). Detected from the file extension for local_path, required for base64_content."),
				),
				mcp.WithString("folder_id",
					mcp.Description("Folder to upload into"),
				),
			),
			Handler:   handleUploadFile(sc),
			Service:   instrumentation.ServiceDrive,
			Operation: instrumentation.OperationUpload,
			Write:     true,
		},
	}
}

func handleListFiles(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		params := listParams{
			FolderID:       common.StringArg(args, "folder_id"),
			Query:          common.StringArg(args, "query"),
			OrderBy:        common.StringArg(args, "order_by"),
			PageToken:      common.StringArg(args, "page_token"),
			MaxResults:     common.IntArg(args, "max_results", drive.DefaultListResults),
			IncludeTrashed: common.BoolArg(args, "include_trashed", false),
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}

		client, account, err := driveClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "list files", err), nil
		}

		files, nextPageToken, err := client.ListFiles(ctx, drive.ListOptions{
			FolderID:       params.FolderID,
			Query:          params.Query,
			MaxResults:     params.MaxResults,
			PageToken:      params.PageToken,
			OrderBy:        params.OrderBy,
			IncludeTrashed: params.IncludeTrashed,
		})
		if err != nil {
			return common.ErrorResult(account, "list files", err), nil
		}

		return common.JSONResult(fmt.Sprintf("Found %d files", len(files)), map[string]any{
			"files":         files,
			"nextPageToken": nextPageToken,
		})
	}
}

func handleSearchFiles(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		params := searchParams{
			Query:      common.StringArg(args, "query"),
			MaxResults: common.IntArg(args, "max_results", drive.DefaultSearchResults),
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}

		client, account, err := driveClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "search files", err), nil
		}

		files, err := client.SearchFiles(ctx, params.Query, params.MaxResults)
		if err != nil {
			return common.ErrorResult(account, "search files", err), nil
		}
		if len(files) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No files found matching %q", params.Query)), nil
		}

		return common.JSONResult(fmt.Sprintf("Found %d files matching %q", len(files), params.Query), files)
	}
}

func handleGetFiles(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		ids, err := batch.ParseStringOrArray(args["file_ids"], "file_ids")
		if err != nil {
			return common.InvalidArguments(err), nil
		}
		params := fileIDsParams{FileIDs: ids}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}

		client, account, err := driveClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "get files", err), nil
		}

		results := batch.ProcessBatch(ctx, params.FileIDs, batch.DefaultConcurrency, func(ctx context.Context, id string) (any, error) {
			return client.GetFile(ctx, id)
		})
		return mcp.NewToolResultText(batch.FormatResults(results)), nil
	}
}

func handleReadFile(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		params := fileIDParams{FileID: common.StringArg(args, "file_id")}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}

		client, account, err := driveClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "read file", err), nil
		}

		content, err := client.ReadFile(ctx, params.FileID)
		if err != nil {
			return common.ErrorResult(account, "read file", err), nil
		}
		if !utf8.Valid(content.Content) {
			return mcp.NewToolResultError(fmt.Sprintf("File %q (%s) is binary and cannot be displayed as text", content.File.Name, content.MimeType)), nil
		}

		header := fmt.Sprintf("File: %s", content.File.Name)
		if content.Truncated {
			header += fmt.Sprintf(" (truncated to %d bytes)", drive.MaxReadBytes)
		}
		return mcp.NewToolResultText(header + "\n\n" + string(content.Content)), nil
	}
}

func handleCreateFile(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		params := createFileParams{
			Name:        common.StringArg(args, "name"),
			Content:     common.StringArg(args, "content"),
			MimeType:    common.StringArg(args, "mime_type"),
			FolderID:    common.StringArg(args, "folder_id"),
			Description: common.StringArg(args, "description"),
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}

		client, account, err := driveClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "create file", err), nil
		}

		file, err := client.CreateFile(ctx, drive.UploadOptions{
			Name:        params.Name,
			MimeType:    params.MimeType,
			FolderID:    params.FolderID,
			Description: params.Description,
		}, params.Content)
		if err != nil {
			return common.ErrorResult(account, "create file", err), nil
		}

		return common.JSONResult("File created successfully:", file)
	}
}

func handleUpdateFile(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		params := updateFileParams{
			FileID:   common.StringArg(args, "file_id"),
			Content:  common.StringArg(args, "content"),
			MimeType: common.StringArg(args, "mime_type"),
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}
		if params.MimeType == "" {
			params.MimeType = "text/plain"
		}

		client, account, err := driveClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "update file", err), nil
		}

		file, err := client.UpdateFile(ctx, params.FileID, strings.NewReader(params.Content), params.MimeType)
		if err != nil {
			return common.ErrorResult(account, "update file", err), nil
		}

		return common.JSONResult("File updated successfully:", file)
	}
}

func handleDeleteFiles(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		ids, err := batch.ParseStringOrArray(args["file_ids"], "file_ids")
		if err != nil {
			return common.InvalidArguments(err), nil
		}
		params := fileIDsParams{FileIDs: ids}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}
		trash := common.BoolArg(args, "trash", false)

		client, account, err := driveClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "delete files", err), nil
		}

		results := batch.ProcessBatch(ctx, params.FileIDs, batch.DefaultConcurrency, func(ctx context.Context, id string) (any, error) {
			if trash {
				return "Moved to trash", client.TrashFile(ctx, id)
			}
			return "Deleted permanently", client.DeleteFile(ctx, id)
		})
		return mcp.NewToolResultText(batch.FormatResults(results)), nil
	}
}

func handleCopyFile(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		params := copyFileParams{
			FileID:   common.StringArg(args, "file_id"),
			NewName:  common.StringArg(args, "new_name"),
			FolderID: common.StringArg(args, "folder_id"),
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}

		client, account, err := driveClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "copy file", err), nil
		}

		file, err := client.CopyFile(ctx, params.FileID, params.NewName, params.FolderID)
		if err != nil {
			return common.ErrorResult(account, "copy file", err), nil
		}

		return common.JSONResult(fmt.Sprintf("Copied file as %q:", file.Name), file)
	}
}

func handleUploadFile(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		params := uploadParams{
			Name:          common.StringArg(args, "name"),
			LocalPath:     common.StringArg(args, "local_path"),
			Base64Content: common.StringArg(args, "base64_content"),
			MimeType:      common.StringArg(args, "mime_type"),
			FolderID:      common.StringArg(args, "folder_id"),
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}
		if params.LocalPath != "" && common.IsRemoteUser(ctx) {
			return mcp.NewToolResultError("local_path is only available to local clients, use base64_content"), nil
		}

		content, mimeType, err := openUpload(params)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		defer content.Close()

		client, account, err := driveClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "upload file", err), nil
		}

		file, err := client.UploadFile(ctx, drive.UploadOptions{
			Name:     params.Name,
			MimeType: mimeType,
			FolderID: params.FolderID,
		}, content)
		if err != nil {
			return common.ErrorResult(account, "upload file", err), nil
		}

		return common.JSONResult("File uploaded successfully:", file)
	}
}

// openUpload returns the content of an upload and its MIME type. Local files
// get their type from the extension unless one was given.
func openUpload(p uploadParams) (io.ReadCloser, string, error) {
	if p.Base64Content != "" {
		data, err := base64.StdEncoding.DecodeString(p.Base64Content)
		if err != nil {
			return nil, "", fmt.Errorf("invalid base64 content: %w", err)
		}
		return io.NopCloser(strings.NewReader(string(data))), p.MimeType, nil
	}

	path, err := expandHome(p.LocalPath)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("file not found: %s", p.LocalPath)
		}
		return nil, "", fmt.Errorf("failed to open %s: %w", p.LocalPath, err)
	}

	mimeType := p.MimeType
	if mimeType == "" {
		mimeType = detectMimeType(path)
	}
	return f, mimeType, nil
}

// detectMimeType guesses the type of a file from its extension
func detectMimeType(path string) string {
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		return defaultBinaryType
	}
	// drop parameters such as "; charset=utf-8"
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
