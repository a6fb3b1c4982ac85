package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leonardcser/clockverse/internal/bucket"
	"github.com/leonardcser/clockverse/internal/content"
	"github.com/leonardcser/clockverse/internal/service"
)

const CurrentVerseName = "current-verse"

// Current is the part of service.Service the tool needs.
type Current interface {
	Current(ctx context.Context, params bucket.Params) (service.Response, error)
}

// NewCurrentVerseTool describes the "current-verse" tool.
func NewCurrentVerseTool() mcp.Tool {
	return mcp.NewTool(CurrentVerseName,
		mcp.WithDescription(multiline(
			"Returns the short poem and photograph currently shown on the clockverse display",
			"\nFunctionality:",
			"- Every minute gets one poem that spells out the time, plus a photograph",
			"- All callers asking within the same minute, time zone and context get the same verse",
			"\nUsage notes:",
			"- tz is an IANA zone name such as Europe/Paris; unknown zones fall back to UTC",
			"- context splits the verse further, e.g. one per screen",
			"- This tool is read-only",
		)),
		mcp.WithString("tz", mcp.Description("IANA time zone of the reader, defaults to UTC")),
		mcp.WithString("context", mcp.Description("Optional display context")),
	)
}

// CurrentVerseHandler returns the MCP tool handler for the "current-verse" tool.
func CurrentVerseHandler(svc Current) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		params := bucket.Params{
			TimeZone: req.GetString("tz", ""),
			Variant:  req.GetString("context", ""),
		}
		resp, err := svc.Current(ctx, params)
		if err != nil && !errors.Is(err, content.ErrRateLimited) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(formatVerse(resp)), nil
	}
}

func formatVerse(resp service.Response) string {
	var sb strings.Builder
	sb.WriteString(resp.Record.Text)
	sb.WriteString("\n")
	if resp.Record.Poet != "" {
		sb.WriteString("\nin the style of ")
		sb.WriteString(resp.Record.Poet)
		sb.WriteString("\n")
	}
	if resp.Record.HasImage() {
		sb.WriteString("\n")
		if resp.Record.Alt != "" {
			sb.WriteString(fmt.Sprintf("Photo: %s\n", resp.Record.Alt))
		}
		sb.WriteString(resp.Record.URL)
		sb.WriteString("\n")
	}
	if !resp.Bucket.Start.IsZero() {
		sb.WriteString(fmt.Sprintf("\n(%s, %s)", resp.Bucket.Start.Format("15:04 MST"), resp.Outcome))
	}
	return sb.String()
}

// multiline joins lines with newlines for tool descriptions.
func multiline(lines ...string) string { return strings.Join(lines, "\n") }
