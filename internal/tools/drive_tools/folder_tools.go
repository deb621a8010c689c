package drive_tools

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gdrive-mcp/internal/instrumentation"
	"github.com/teemow/gdrive-mcp/internal/server"
	"github.com/teemow/gdrive-mcp/internal/tools/common"
)

type createFolderParams struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
}

func (p createFolderParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&p.ParentID, common.GoogleID),
	)
}

type moveFileParams struct {
	FileID   string `json:"file_id"`
	FolderID string `json:"folder_id"`
}

func (p moveFileParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FileID, validation.Required, common.GoogleID),
		validation.Field(&p.FolderID, validation.Required, common.GoogleID),
	)
}

func folderTools(sc *server.ServerContext) []common.Tool {
	return []common.Tool{
		{
			Definition: mcp.NewTool("drive_create_folder",
				mcp.WithDescription("Create a new folder in Google Drive"),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("name",
					mcp.Required(),
					mcp.Description("Name of the folder"),
				),
				mcp.WithString("parent_id",
					mcp.Description("Parent folder ID (default: My Drive root)"),
				),
			),
			Handler:   handleCreateFolder(sc),
			Service:   instrumentation.ServiceDrive,
			Operation: instrumentation.OperationCreate,
			Write:     true,
		},
		{
			Definition: mcp.NewTool("drive_move_file",
				mcp.WithDescription("Move a file to another folder. The file is removed from all its current folders."),
				mcp.WithString("account", mcp.Description(accountDescription)),
				mcp.WithString("file_id",
					mcp.Required(),
					mcp.Description("ID of the file to move"),
				),
				mcp.WithString("folder_id",
					mcp.Required(),
					mcp.Description("ID of the destination folder"),
				),
			),
			Handler:   handleMoveFile(sc),
			Service:   instrumentation.ServiceDrive,
			Operation: instrumentation.OperationMove,
			Write:     true,
		},
	}
}

func handleCreateFolder(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		params := createFolderParams{
			Name:     common.StringArg(args, "name"),
			ParentID: common.StringArg(args, "parent_id"),
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}

		client, account, err := driveClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "create folder", err), nil
		}

		folder, err := client.CreateFolder(ctx, params.Name, params.ParentID)
		if err != nil {
			return common.ErrorResult(account, "create folder", err), nil
		}

		return common.JSONResult("Folder created successfully:", folder)
	}
}

func handleMoveFile(sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		params := moveFileParams{
			FileID:   common.StringArg(args, "file_id"),
			FolderID: common.StringArg(args, "folder_id"),
		}
		if err := params.Validate(); err != nil {
			return common.InvalidArguments(err), nil
		}

		client, account, err := driveClient(ctx, sc, args)
		if err != nil {
			return common.ErrorResult(account, "move file", err), nil
		}

		file, err := client.MoveFile(ctx, params.FileID, params.FolderID)
		if err != nil {
			return common.ErrorResult(account, "move file", err), nil
		}

		return common.JSONResult(fmt.Sprintf("Moved %q to folder %s:", file.Name, params.FolderID), file)
	}
}
