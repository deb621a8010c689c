package drive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// newTestClient returns a client whose requests are served by handler
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), srv.Client(), "default", option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestClient_ListFiles(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/files"))

		q := r.URL.Query()
		assert.Equal(t, "'folder-0000001' in parents and trashed = false", q.Get("q"))
		assert.Equal(t, "500", q.Get("pageSize"))
		assert.Equal(t, "page-2", q.Get("pageToken"))

		writeJSON(t, w, map[string]any{
			"nextPageToken": "page-3",
			"files": []map[string]any{
				{"id": "file-0000001", "name": "notes.txt", "mimeType": "text/plain", "size": "12"},
				{"id": "folder-0000002", "name": "Sub", "mimeType": FolderMimeType},
			},
		})
	})

	files, next, err := client.ListFiles(context.Background(), ListOptions{
		FolderID:   "folder-0000001",
		MaxResults: 1000,
		PageToken:  "page-2",
	})
	require.NoError(t, err)
	assert.Equal(t, "page-3", next)
	require.Len(t, files, 2)
	assert.Equal(t, "notes.txt", files[0].Name)
	assert.Equal(t, int64(12), files[0].Size)
	assert.True(t, files[1].IsFolder())
}

func TestClient_ListFiles_InvalidFolder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL)
	})

	_, _, err := client.ListFiles(context.Background(), ListOptions{FolderID: "x' or 'a"})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestClient_SearchFiles(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Contains(t, q.Get("q"), "name contains 'budget'")
		assert.Equal(t, "20", q.Get("pageSize"))
		writeJSON(t, w, map[string]any{"files": []map[string]any{}})
	})

	files, err := client.SearchFiles(context.Background(), "budget", 0)
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = client.SearchFiles(context.Background(), "   ", 0)
	assert.Error(t, err)
}

func TestClient_ReadFile_ExportsDocuments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/files/doc-0000001/export"):
			assert.Equal(t, "text/plain", r.URL.Query().Get("mimeType"))
			_, _ = io.WriteString(w, "exported text")
		case strings.HasSuffix(r.URL.Path, "/files/doc-0000001"):
			writeJSON(t, w, map[string]any{"id": "doc-0000001", "name": "Plan", "mimeType": DocumentMimeType})
		default:
			t.Errorf("unexpected request %s", r.URL)
		}
	})

	content, err := client.ReadFile(context.Background(), "doc-0000001")
	require.NoError(t, err)
	assert.Equal(t, "exported text", string(content.Content))
	assert.Equal(t, "text/plain", content.MimeType)
	assert.Equal(t, "Plan", content.File.Name)
	assert.False(t, content.Truncated)
}

func TestClient_ReadFile_DownloadsBinary(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/files/csv-0000001"))
		if r.URL.Query().Get("alt") == "media" {
			_, _ = io.WriteString(w, "a,b\n1,2\n")
			return
		}
		writeJSON(t, w, map[string]any{"id": "csv-0000001", "name": "data.csv", "mimeType": "text/csv"})
	})

	content, err := client.ReadFile(context.Background(), "csv-0000001")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(content.Content))
	assert.Equal(t, "text/csv", content.MimeType)
}

func TestClient_ReadFile_UnsupportedWorkspaceType(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"id": "form-0000001", "name": "Survey", "mimeType": GoogleAppsPrefix + "form"})
	})

	_, err := client.ReadFile(context.Background(), "form-0000001")
	assert.ErrorIs(t, err, ErrUnsupportedExport)
}

func TestClient_GetFile_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":404,"message":"File not found"}}`)
	})

	_, err := client.GetFile(context.Background(), "missing-00001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing-00001")
}

func TestClient_CopyFile_DefaultName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/files/orig-0000001/copy"):
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Copy of Report", body["name"])
			assert.Nil(t, body["parents"])
			writeJSON(t, w, map[string]any{"id": "copy-0000001", "name": body["name"]})
		case r.Method == http.MethodGet:
			writeJSON(t, w, map[string]any{"id": "orig-0000001", "name": "Report"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
	})

	copied, err := client.CopyFile(context.Background(), "orig-0000001", "", "")
	require.NoError(t, err)
	assert.Equal(t, "copy-0000001", copied.ID)
	assert.Equal(t, "Copy of Report", copied.Name)
}

func TestClient_MoveFile_RemovesOldParents(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(t, w, map[string]any{"id": "file-0000001", "parents": []string{"old-parent-1", "old-parent-2"}})
		case http.MethodPatch:
			q := r.URL.Query()
			assert.Equal(t, "new-parent-1", q.Get("addParents"))
			assert.Equal(t, "old-parent-1,old-parent-2", q.Get("removeParents"))
			writeJSON(t, w, map[string]any{"id": "file-0000001", "parents": []string{"new-parent-1"}})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL)
		}
	})

	moved, err := client.MoveFile(context.Background(), "file-0000001", "new-parent-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"new-parent-1"}, moved.Parents)
}

func TestClient_DeleteAndTrash(t *testing.T) {
	var calls []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method)
		if r.Method == http.MethodPatch {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, true, body["trashed"])
			writeJSON(t, w, map[string]any{"id": "file-0000001"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteFile(context.Background(), "file-0000001"))
	require.NoError(t, client.TrashFile(context.Background(), "file-0000001"))
	assert.Equal(t, []string{http.MethodDelete, http.MethodPatch}, calls)

	assert.ErrorIs(t, client.DeleteFile(context.Background(), "bad"), ErrInvalidID)
}

func TestClient_CreateFolder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, FolderMimeType, body["mimeType"])
		assert.Equal(t, []any{"parent-00001"}, body["parents"])
		writeJSON(t, w, map[string]any{"id": "folder-00001", "name": body["name"], "mimeType": FolderMimeType})
	})

	folder, err := client.CreateFolder(context.Background(), "Reports", "parent-00001")
	require.NoError(t, err)
	assert.True(t, folder.IsFolder())

	_, err = client.CreateFolder(context.Background(), "", "")
	assert.Error(t, err)
}

func TestClient_UploadFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/files"))
		assert.NotEmpty(t, r.URL.Query().Get("uploadType"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "hello drive")
		writeJSON(t, w, map[string]any{"id": "new-file-0001", "name": "hello.txt", "mimeType": "text/plain"})
	})

	file, err := client.CreateFile(context.Background(), UploadOptions{Name: "hello.txt"}, "hello drive")
	require.NoError(t, err)
	assert.Equal(t, "new-file-0001", file.ID)

	_, err = client.CreateFile(context.Background(), UploadOptions{}, "x")
	assert.Error(t, err)
}
