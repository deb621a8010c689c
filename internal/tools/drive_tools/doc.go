// Package drive_tools provides MCP tools for Google Drive.
//
// Read tools are always registered:
//   - drive_list_files: list files, optionally inside one folder
//   - drive_search_files: search names and full text
//   - drive_get_files: metadata for one or more files
//   - drive_read_file: file content, exporting Google Docs and Sheets as text
//
// Write tools are only registered when the server is not read-only:
//   - drive_create_file, drive_update_file, drive_upload_file
//   - drive_delete_files: trash or permanently delete one or more files
//   - drive_create_folder, drive_move_file, drive_copy_file
//
// Every tool accepts an optional account argument naming the Google account
// to act for:
//
//	drive_search_files({
//	  account: "work",
//	  query: "quarterly report",
//	  max_results: 10
//	})
package drive_tools
