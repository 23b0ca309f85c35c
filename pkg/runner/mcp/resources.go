package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tableflip.dev/zeit/pkg/timeutil"
)

func registerResources(srv *server.MCPServer, svc *Service) {
	registerProjectsResource(srv, svc)
	registerWeekTemplate(srv, svc)
}

func registerProjectsResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		"zeit://projects",
		"Projects",
		mcp.WithResourceDescription("Active projects with their colors."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		projects, err := svc.ListProjects(ctx)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, map[string]any{
			"projects": projects,
			"count":    len(projects),
		})
	})
}

func registerWeekTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"zeit://week/{year}/{week}",
		"Week",
		mcp.WithTemplateDescription("Entries and totals of one calendar week."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		w, err := weekFromArguments(request.Params.Arguments)
		if err != nil {
			return nil, err
		}
		dto, err := svc.Week(ctx, w, true)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, map[string]any{
			"week": dto,
		})
	})
}

// weekFromArguments reads the template variables, which arrive as strings
// or single element string slices depending on the matcher.
func weekFromArguments(args map[string]any) (timeutil.Week, error) {
	year, err := intArgument(args, "year")
	if err != nil {
		return timeutil.Week{}, err
	}
	number, err := intArgument(args, "week")
	if err != nil {
		return timeutil.Week{}, err
	}
	if number < 1 || number > 53 {
		return timeutil.Week{}, fmt.Errorf("invalid week number %d", number)
	}
	return timeutil.Week{Year: year, Number: number}, nil
}

func intArgument(args map[string]any, key string) (int, error) {
	var raw string
	switch v := args[key].(type) {
	case string:
		raw = v
	case []string:
		if len(v) > 0 {
			raw = v[0]
		}
	}
	if raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}

func encodeResourceJSON(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
