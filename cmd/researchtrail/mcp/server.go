package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/neilberkman/researchtrail/internal/core/capture"
	"github.com/neilberkman/researchtrail/internal/core/db"
	"github.com/neilberkman/researchtrail/internal/core/models"
)

// ListSessionsArgs defines arguments for the list_sessions tool
type ListSessionsArgs struct {
	Limit int    `json:"limit,omitempty" jsonschema:"description=Max sessions to return (default: 20)"`
	Topic string `json:"topic,omitempty" jsonschema:"description=Filter by topic substring"`
}

// SessionIDArgs identifies one session
type SessionIDArgs struct {
	SessionID string `json:"session_id" jsonschema:"description=Research session id,required"`
}

// SaveNotesArgs defines arguments for the save_notes tool
type SaveNotesArgs struct {
	SessionID string `json:"session_id" jsonschema:"description=Research session id,required"`
	Content   string `json:"content" jsonschema:"description=Notes text; replaces existing notes,required"`
}

// SessionSummary represents a session in the list view
type SessionSummary struct {
	SessionID string `json:"session_id"`
	Topic     string `json:"topic"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at,omitempty"`
	Duration  string `json:"duration,omitempty"`
	PageCount int    `json:"page_count"`
}

// PageDetail represents one visited page
type PageDetail struct {
	Order    int    `json:"order"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	OpenedAt string `json:"opened_at"`
	Status   string `json:"status"`
}

// SessionDetail is the current session with its pages
type SessionDetail struct {
	SessionSummary
	Generating int          `json:"generating"`
	Pages      []PageDetail `json:"pages"`
}

// Engine is the part of the capture engine the tools use
type Engine interface {
	Sessions(ctx context.Context) ([]models.Session, error)
	CurrentSession(ctx context.Context) (*models.Session, error)
	SessionMarkdown(ctx context.Context, sessionID string) (string, error)
	LoadNotes(ctx context.Context, sessionID string) (string, error)
	SaveNotes(ctx context.Context, sessionID, content string) error
}

const timeLayout = "2006-01-02 15:04:05"

// StartServer starts the MCP server
func StartServer(dbPath string) error {
	// Open database
	database, err := db.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := database.Close(); closeErr != nil {
			log.Printf("Error closing database: %v", closeErr)
		}
	}()

	// Read-mostly view; titles are generated by the native host
	engine := capture.New(database, nil)
	defer engine.Close()

	return server.ServeStdio(NewServer(engine))
}

// NewServer registers the research trail tools against engine
func NewServer(engine Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"ResearchTrail",
		"1.0.0",
	)

	listTool := mcp.NewTool("list_sessions",
		mcp.WithDescription("List finished research sessions, most recent first"),
		mcp.WithNumber("limit",
			mcp.Description("Max sessions to return (default: 20)")),
		mcp.WithString("topic",
			mcp.Description("Only sessions whose topic contains this text")),
	)
	s.AddTool(listTool, makeListSessionsHandler(engine))

	currentTool := mcp.NewTool("get_current_session",
		mcp.WithDescription("Get the active research session and the pages visited so far"),
	)
	s.AddTool(currentTool, makeGetCurrentSessionHandler(engine))

	markdownTool := mcp.NewTool("get_session_markdown",
		mcp.WithDescription("Render a finished research session and its notes as a markdown document"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Research session id")),
	)
	s.AddTool(markdownTool, makeGetSessionMarkdownHandler(engine))

	loadNotesTool := mcp.NewTool("load_notes",
		mcp.WithDescription("Read the notes attached to a research session"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Research session id")),
	)
	s.AddTool(loadNotesTool, makeLoadNotesHandler(engine))

	saveNotesTool := mcp.NewTool("save_notes",
		mcp.WithDescription("Replace the notes attached to a research session"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Research session id")),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Notes text")),
	)
	s.AddTool(saveNotesTool, makeSaveNotesHandler(engine))

	return s
}

type toolHandler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func decodeArgs(request mcp.CallToolRequest, v interface{}) error {
	argsBytes, _ := json.Marshal(request.Params.Arguments)
	if len(argsBytes) == 0 || string(argsBytes) == "null" {
		return nil
	}
	return json.Unmarshal(argsBytes, v)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	resultJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func summarize(s *models.Session) SessionSummary {
	out := SessionSummary{
		SessionID: s.ID,
		Topic:     s.TopicName,
		StartedAt: s.Started().Format(timeLayout),
		PageCount: len(s.Pages),
	}
	if !s.Active() {
		out.EndedAt = s.Ended().Format(timeLayout)
		out.Duration = s.Duration().Round(time.Second).String()
	}
	return out
}

func makeListSessionsHandler(engine Engine) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ListSessionsArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		limit := args.Limit
		if limit <= 0 {
			limit = 20
		}

		sessions, err := engine.Sessions(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}

		results := []SessionSummary{}
		// History is stored oldest first
		for i := len(sessions) - 1; i >= 0 && len(results) < limit; i-- {
			if args.Topic != "" && !containsFold(sessions[i].TopicName, args.Topic) {
				continue
			}
			results = append(results, summarize(&sessions[i]))
		}

		return jsonResult(map[string]interface{}{
			"sessions": results,
		})
	}
}

func makeGetCurrentSessionHandler(engine Engine) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		current, err := engine.CurrentSession(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}
		if current == nil {
			return jsonResult(map[string]interface{}{"active": false})
		}

		detail := SessionDetail{
			SessionSummary: summarize(current),
			Generating:     current.LoadingCount(),
			Pages:          make([]PageDetail, 0, len(current.Pages)),
		}
		for _, p := range current.Pages {
			detail.Pages = append(detail.Pages, PageDetail{
				Order:    p.Order,
				Title:    p.Title,
				URL:      p.URL,
				OpenedAt: models.FromMillis(p.OpenedAt).Format(timeLayout),
				Status:   string(p.Status),
			})
		}

		return jsonResult(map[string]interface{}{
			"active":  true,
			"session": detail,
		})
	}
}

func makeGetSessionMarkdownHandler(engine Engine) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args SessionIDArgs
		if err := decodeArgs(request, &args); err != nil || args.SessionID == "" {
			return mcp.NewToolResultError("session_id is required"), nil
		}

		md, err := engine.SessionMarkdown(ctx, args.SessionID)
		if errors.Is(err, capture.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("session not found: %s", args.SessionID)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
		}

		return mcp.NewToolResultText(md), nil
	}
}

func makeLoadNotesHandler(engine Engine) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args SessionIDArgs
		if err := decodeArgs(request, &args); err != nil || args.SessionID == "" {
			return mcp.NewToolResultError("session_id is required"), nil
		}

		content, err := engine.LoadNotes(ctx, args.SessionID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
		}

		return jsonResult(map[string]interface{}{
			"session_id": args.SessionID,
			"content":    content,
		})
	}
}

func makeSaveNotesHandler(engine Engine) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args SaveNotesArgs
		if err := decodeArgs(request, &args); err != nil || args.SessionID == "" {
			return mcp.NewToolResultError("session_id is required"), nil
		}

		if err := engine.SaveNotes(ctx, args.SessionID, args.Content); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
		}

		return jsonResult(map[string]interface{}{
			"session_id": args.SessionID,
			"saved":      true,
		})
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
