// Package drive wraps the Google Drive v3 API.
//
// The client covers what the MCP tools need: listing and searching files,
// reading content (Google Docs and Sheets are exported to text and CSV),
// creating, updating, copying, moving and deleting files, folders and binary
// uploads. Every API call is traced and counted through internal/instrumentation.
//
//	httpClient := google.NewHTTPClient(ctx, conf, token)
//	client, err := drive.NewClient(ctx, httpClient, "default")
//	files, next, err := client.ListFiles(ctx, drive.ListOptions{FolderID: id})
package drive
