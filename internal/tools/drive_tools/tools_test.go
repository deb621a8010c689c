package drive_tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/teemow/gdrive-mcp/internal/google"
	"github.com/teemow/gdrive-mcp/internal/oauth"
	"github.com/teemow/gdrive-mcp/internal/server"
	"github.com/teemow/gdrive-mcp/internal/tools/batch"
)

// newTestServerContext returns a server context whose Drive clients talk to
// handler with a stored token for the default account
func newTestServerContext(t *testing.T, handler http.Handler, readOnly bool) *server.ServerContext {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	provider := google.NewFileTokenProvider(t.TempDir())
	require.NoError(t, provider.SaveTokenForAccount("default", &oauth2.Token{
		AccessToken: "access",
		Expiry:      time.Now().Add(time.Hour),
	}))

	sc, err := server.NewServerContext(context.Background(), server.Options{
		TokenProvider: provider,
		ReadOnly:      readOnly,
		ClientOptions: []option.ClientOption{option.WithEndpoint(srv.URL + "/")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error": map[string]any{"code": 404, "message": "File not found"},
	})
}

// callTool invokes the named tool the way the MCP server would
func callTool(t *testing.T, sc *server.ServerContext, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	return callToolWithContext(t, context.Background(), sc, name, args)
}

func callToolWithContext(t *testing.T, ctx context.Context, sc *server.ServerContext, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	for _, tool := range Tools(sc) {
		if tool.Definition.Name != name {
			continue
		}
		result, err := tool.Handler(ctx, mcp.CallToolRequest{
			Params: mcp.CallToolParams{Name: name, Arguments: args},
		})
		require.NoError(t, err)
		require.NotNil(t, result)
		return result
	}
	t.Fatalf("tool %s not found", name)
	return nil
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestRegisterDriveTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     int
	}{
		{name: "read only", readOnly: true, want: 4},
		{name: "read write", readOnly: false, want: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestServerContext(t, http.NotFoundHandler(), tt.readOnly)
			s := mcpserver.NewMCPServer("test", "1.0.0", mcpserver.WithToolCapabilities(true))

			names := RegisterDriveTools(s, sc)
			assert.Len(t, names, tt.want)
			assert.Contains(t, names, "drive_read_file")
			if tt.readOnly {
				assert.NotContains(t, names, "drive_delete_files")
			}
		})
	}
}

func TestListParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  listParams
		wantErr bool
	}{
		{name: "empty", params: listParams{}},
		{name: "folder", params: listParams{FolderID: "folder-0000001"}},
		{name: "order by", params: listParams{OrderBy: "folder,modifiedTime desc,name"}},
		{name: "bad folder", params: listParams{FolderID: "x' in parents or '"}, wantErr: true},
		{name: "bad order by", params: listParams{OrderBy: "name; drop"}, wantErr: true},
		{name: "negative max", params: listParams{MaxResults: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUploadParams_Validate(t *testing.T) {
	tests := []struct {
		name        string
		params      uploadParams
		errContains string
	}{
		{name: "local path", params: uploadParams{Name: "a.png", LocalPath: "/tmp/a.png"}},
		{name: "base64", params: uploadParams{Name: "a.png", Base64Content: "aGVsbG8=", MimeType: "image/png"}},
		{name: "no content", params: uploadParams{Name: "a.png"}, errContains: "local_path or base64_content is required"},
		{name: "both", params: uploadParams{Name: "a.png", LocalPath: "/tmp/a.png", Base64Content: "aGVsbG8=", MimeType: "image/png"}, errContains: "use either"},
		{name: "base64 without type", params: uploadParams{Name: "a.png", Base64Content: "aGVsbG8="}, errContains: "mime_type"},
		{name: "invalid base64", params: uploadParams{Name: "a.png", Base64Content: "not base64!", MimeType: "image/png"}, errContains: "base64_content"},
		{name: "no name", params: uploadParams{LocalPath: "/tmp/a.png"}, errContains: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestDetectMimeType(t *testing.T) {
	assert.Equal(t, "image/png", detectMimeType("/tmp/photo.png"))
	assert.Equal(t, "application/pdf", detectMimeType("report.PDF"))
	assert.Equal(t, "text/plain", detectMimeType("notes.txt"))
	assert.Equal(t, defaultBinaryType, detectMimeType("blob.unknownext"))
	assert.Equal(t, defaultBinaryType, detectMimeType("Makefile"))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandHome("~/docs/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "docs", "a.pdf"), got)

	got, err = expandHome("/abs/~/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/abs/~/a.pdf", got)
}

func TestDriveListFiles(t *testing.T) {
	sc := newTestServerContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "'folder-0000001' in parents and trashed = false", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("pageSize"))
		writeJSON(w, http.StatusOK, map[string]any{
			"nextPageToken": "next",
			"files": []map[string]any{
				{"id": "file-0000001", "name": "a.txt", "mimeType": "text/plain"},
				{"id": "file-0000002", "name": "b.txt", "mimeType": "text/plain"},
			},
		})
	}), false)

	result := callTool(t, sc, "drive_list_files", map[string]interface{}{
		"folder_id":   "folder-0000001",
		"max_results": float64(10),
	})
	require.False(t, result.IsError, textOf(t, result))

	text := textOf(t, result)
	assert.True(t, strings.HasPrefix(text, "Found 2 files\n"))
	assert.Contains(t, text, `"nextPageToken": "next"`)
	assert.Contains(t, text, `"name": "b.txt"`)
}

func TestDriveListFiles_InvalidArguments(t *testing.T) {
	sc := newTestServerContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL)
	}), false)

	result := callTool(t, sc, "drive_list_files", map[string]interface{}{"folder_id": "bad id"})
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "folder_id")
}

func TestDriveSearchFiles_NoResults(t *testing.T) {
	sc := newTestServerContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("q"), `fullText contains 'it\'s'`)
		writeJSON(w, http.StatusOK, map[string]any{"files": []any{}})
	}), false)

	result := callTool(t, sc, "drive_search_files", map[string]interface{}{"query": "it's"})
	assert.False(t, result.IsError)
	assert.Equal(t, `No files found matching "it's"`, textOf(t, result))

	result = callTool(t, sc, "drive_search_files", map[string]interface{}{})
	assert.True(t, result.IsError)
}

func TestDriveGetFiles_PartialFailure(t *testing.T) {
	sc := newTestServerContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/files/file-0000001") {
			writeJSON(w, http.StatusOK, map[string]any{"id": "file-0000001", "name": "a.txt", "mimeType": "text/plain"})
			return
		}
		notFound(w)
	}), false)

	result := callTool(t, sc, "drive_get_files", map[string]interface{}{
		"file_ids": []interface{}{"file-0000001", "file-0000404"},
	})
	require.False(t, result.IsError)

	var br batch.BatchResult
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &br))
	assert.Equal(t, 2, br.Total)
	assert.Equal(t, 1, br.Successful)
	assert.Equal(t, 1, br.Failed)
	assert.Equal(t, "file-0000001", br.Results[0].ID)
	assert.Equal(t, batch.StatusError, br.Results[1].Status)
}

func TestDriveReadFile(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError bool
		want      string
	}{
		{name: "text", body: "hello world", want: "File: notes.txt\n\nhello world"},
		{name: "binary", body: "\xff\xfe\x00\x01", wantError: true, want: "is binary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestServerContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("alt") == "media" {
					_, _ = w.Write([]byte(tt.body))
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"id": "file-0000001", "name": "notes.txt", "mimeType": "application/octet-stream"})
			}), false)

			result := callTool(t, sc, "drive_read_file", map[string]interface{}{"file_id": "file-0000001"})
			assert.Equal(t, tt.wantError, result.IsError)
			assert.Contains(t, textOf(t, result), tt.want)
		})
	}
}

func TestDriveDeleteFiles(t *testing.T) {
	tests := []struct {
		name       string
		trash      bool
		wantMethod string
		wantResult string
	}{
		{name: "permanent", trash: false, wantMethod: http.MethodDelete, wantResult: "Deleted permanently"},
		{name: "trash", trash: true, wantMethod: http.MethodPatch, wantResult: "Moved to trash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			var methods []string
			sc := newTestServerContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				methods = append(methods, r.Method)
				mu.Unlock()
				if r.Method == http.MethodDelete {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{"id": "file-0000001", "trashed": true})
			}), false)

			result := callTool(t, sc, "drive_delete_files", map[string]interface{}{
				"file_ids": "file-0000001",
				"trash":    tt.trash,
			})
			require.False(t, result.IsError)
			assert.Contains(t, textOf(t, result), tt.wantResult)
			assert.Equal(t, []string{tt.wantMethod}, methods)
		})
	}
}

func TestDriveUploadFile_LocalPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, os.WriteFile(path, []byte("png bytes"), 0o600))

	sc := newTestServerContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/files"))
		writeJSON(w, http.StatusOK, map[string]any{"id": "file-0000009", "name": "chart.png", "mimeType": "image/png"})
	}), false)

	result := callTool(t, sc, "drive_upload_file", map[string]interface{}{
		"name":       "chart.png",
		"local_path": path,
	})
	require.False(t, result.IsError, textOf(t, result))
	assert.Contains(t, textOf(t, result), "File uploaded successfully")

	result = callTool(t, sc, "drive_upload_file", map[string]interface{}{
		"name":       "missing.png",
		"local_path": filepath.Join(t.TempDir(), "missing.png"),
	})
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "file not found")
}

func TestDriveUploadFile_LocalPathNeedsLocalClient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(path, []byte("server secret"), 0o600))

	sc := newTestServerContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}), false)

	ctx := oauth.ContextWithUser(context.Background(), "jane@example.com")
	result := callToolWithContext(t, ctx, sc, "drive_upload_file", map[string]interface{}{
		"name":       "secret.txt",
		"local_path": path,
	})
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "only available to local clients")
}

func TestDriveTools_MissingToken(t *testing.T) {
	sc := newTestServerContext(t, http.NotFoundHandler(), false)

	result := callTool(t, sc, "drive_list_files", map[string]interface{}{"account": "work"})
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "gdrive-mcp auth --account work")
}
