package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tableflip.dev/zeit/pkg/timeutil"
)

func registerTools(srv *server.MCPServer, svc *Service) {
	registerListEntriesTool(srv, svc)
	registerStartTimerTool(srv, svc)
	registerStopTimerTool(srv, svc)
	registerMoveEntryTool(srv, svc)
	registerWeekStatsTool(srv, svc)
	registerListProjectsTool(srv, svc)
}

func registerListEntriesTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_entries",
		mcp.WithDescription("List time entries of a calendar week, running timer first."),
		mcp.WithString("week",
			mcp.Description("ISO week such as 2024-W23. Defaults to the current week."),
		),
		mcp.WithString("day",
			mcp.Description("Optional weekday filter."),
			mcp.Enum("mo", "di", "mi", "do", "fr", "sa", "so"),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		w, err := weekArg(request.GetString("week", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		day, err := dayArg(request.GetString("day", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		results, err := svc.ListEntries(ctx, w, day)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"week":    w.String(),
			"entries": results,
			"count":   len(results),
		})
	})
}

func registerStartTimerTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"start_timer",
		mcp.WithDescription("Start the timer for a project."),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project to track time for."),
		),
		mcp.WithString("description",
			mcp.Description("Optional note for the entry."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Project     string `json:"project"`
			Description string `json:"description"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		dto, err := svc.StartTimer(ctx, args.Project, args.Description)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerStopTimerTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"stop_timer",
		mcp.WithDescription("Stop the running timer."),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dto, err := svc.StopTimer(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerMoveEntryTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"move_entry",
		mcp.WithDescription("Move an entry to another day or time, keeping its duration."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Entry identifier to move."),
		),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Target date as YYYY-MM-DD."),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Target start time as HH:MM, rounded to the quarter hour."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetInt("id", 0)
		if id <= 0 {
			return mcp.NewToolResultError("id is required"), nil
		}
		date, err := request.RequireString("date")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		start, err := request.RequireString("start")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		dto, err := svc.MoveEntry(ctx, id, date, start)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerWeekStatsTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"week_stats",
		mcp.WithDescription("Total hours of a week per project and per work day."),
		mcp.WithString("week",
			mcp.Description("ISO week such as 2024-W23. Defaults to the current week."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		w, err := weekArg(request.GetString("week", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.Week(ctx, w, false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerListProjectsTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_projects",
		mcp.WithDescription("List the active projects."),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projects, err := svc.ListProjects(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(map[string]any{
			"projects": projects,
			"count":    len(projects),
		})
	})
}

func weekArg(v string) (timeutil.Week, error) {
	if strings.TrimSpace(v) == "" {
		return timeutil.Current(time.Now()), nil
	}
	return timeutil.ParseWeek(strings.TrimSpace(v))
}

func dayArg(v string) (int, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return -1, nil
	}
	for i, name := range timeutil.DayNames {
		if strings.ToLower(name) == v {
			return i, nil
		}
	}
	return -1, fmt.Errorf("unknown day %q", v)
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return result, nil
}
