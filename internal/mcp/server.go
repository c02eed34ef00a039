package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"notekeeper/internal/identity"
	"notekeeper/internal/model"
	"notekeeper/internal/notes"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates an MCP server exposing every note operation as a tool.
// Tools act on behalf of the principal found in the request context.
func NewServer(svc *notes.Service) *server.MCPServer {
	s := server.NewMCPServer(
		"Notekeeper",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	idArg := mcp.WithString("id",
		mcp.Required(),
		mcp.Description("The note ID"),
	)

	s.AddTool(
		mcp.NewTool("list_notes",
			mcp.WithDescription("List your notes in creation order with offset/limit pagination."),
			mcp.WithNumber("offset",
				mcp.Description("Number of notes to skip (default: 0)"),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of notes to return (default: 50)"),
			),
		),
		handleListNotes(svc),
	)

	s.AddTool(
		mcp.NewTool("get_note",
			mcp.WithDescription("Get one of your notes by its ID."),
			idArg,
		),
		withNote(svc.Get),
	)

	s.AddTool(
		mcp.NewTool("list_notes_by_tag",
			mcp.WithDescription("List your notes carrying an exact tag."),
			mcp.WithString("tag",
				mcp.Required(),
				mcp.Description("Tag to match exactly"),
			),
		),
		handleListByTag(svc),
	)

	s.AddTool(
		mcp.NewTool("search_notes",
			mcp.WithDescription("Case-insensitive substring search over the title and content of your notes."),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Text to look for"),
			),
		),
		handleSearchNotes(svc),
	)

	s.AddTool(
		mcp.NewTool("create_note",
			mcp.WithDescription("Create a note. Title and content must not be blank."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
			mcp.WithString("content", mcp.Required(), mcp.Description("Note body, markdown")),
		),
		handleCreateNote(svc),
	)

	s.AddTool(
		mcp.NewTool("update_note",
			mcp.WithDescription("Replace the title and content of one of your notes."),
			idArg,
			mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
			mcp.WithString("content", mcp.Required(), mcp.Description("New body, markdown")),
		),
		handleUpdateNote(svc),
	)

	s.AddTool(
		mcp.NewTool("add_tags",
			mcp.WithDescription("Append tags to one of your notes. Existing tags are kept, duplicates allowed."),
			idArg,
			mcp.WithArray("tags",
				mcp.Required(),
				mcp.Description("Tags to append"),
				mcp.WithStringItems(),
			),
		),
		handleAddTags(svc),
	)

	s.AddTool(
		mcp.NewTool("delete_note",
			mcp.WithDescription("Delete one of your notes. Returns the note as it was."),
			idArg,
		),
		withNote(svc.Delete),
	)

	flagTools := []struct {
		name, desc string
		op         noteOp
	}{
		{"archive_note", "Mark one of your notes as archived.", svc.Archive},
		{"unarchive_note", "Clear the archived mark on one of your notes.", svc.Unarchive},
		{"favorite_note", "Mark one of your notes as favorite.", svc.Favorite},
		{"unfavorite_note", "Clear the favorite mark on one of your notes.", svc.Unfavorite},
	}
	for _, ft := range flagTools {
		s.AddTool(mcp.NewTool(ft.name, mcp.WithDescription(ft.desc), idArg), withNote(ft.op))
	}

	return s
}

type noteOp func(ctx context.Context, caller identity.Principal, id string) (model.Note, error)

func withNote(op noteOp) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		caller, ok := identity.FromContext(ctx)
		if !ok {
			return mcp.NewToolResultError("unauthenticated"), nil
		}
		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		note, err := op(ctx, caller, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(note), nil
	}
}

func handleListNotes(svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		caller, ok := identity.FromContext(ctx)
		if !ok {
			return mcp.NewToolResultError("unauthenticated"), nil
		}

		noteList, err := svc.List(ctx, caller, req.GetInt("offset", 0), req.GetInt("limit", 50))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list notes: %v", err)), nil
		}
		return jsonResult(noteList), nil
	}
}

func handleListByTag(svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		caller, ok := identity.FromContext(ctx)
		if !ok {
			return mcp.NewToolResultError("unauthenticated"), nil
		}
		tag, err := req.RequireString("tag")
		if err != nil {
			return mcp.NewToolResultError("tag is required"), nil
		}

		noteList, err := svc.ListByTag(ctx, caller, tag)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list notes: %v", err)), nil
		}
		return jsonResult(noteList), nil
	}
}

func handleSearchNotes(svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		caller, ok := identity.FromContext(ctx)
		if !ok {
			return mcp.NewToolResultError("unauthenticated"), nil
		}
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		noteList, err := svc.Search(ctx, caller, query)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to search notes: %v", err)), nil
		}
		return jsonResult(noteList), nil
	}
}

func handleCreateNote(svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		caller, ok := identity.FromContext(ctx)
		if !ok {
			return mcp.NewToolResultError("unauthenticated"), nil
		}

		note, err := svc.Create(ctx, caller, model.NoteInput{
			Title:   req.GetString("title", ""),
			Content: req.GetString("content", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(note), nil
	}
}

func handleUpdateNote(svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		caller, ok := identity.FromContext(ctx)
		if !ok {
			return mcp.NewToolResultError("unauthenticated"), nil
		}
		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		note, err := svc.Update(ctx, caller, id, model.NoteInput{
			Title:   req.GetString("title", ""),
			Content: req.GetString("content", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(note), nil
	}
}

func handleAddTags(svc *notes.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		caller, ok := identity.FromContext(ctx)
		if !ok {
			return mcp.NewToolResultError("unauthenticated"), nil
		}
		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}
		tags, err := req.RequireStringSlice("tags")
		if err != nil {
			return mcp.NewToolResultError("tags must be a list of strings"), nil
		}

		note, err := svc.AddTags(ctx, caller, id, tags)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(note), nil
	}
}

// Helper functions

func jsonResult(v any) *mcp.CallToolResult {
	data, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(data))
}
