package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/modguard/internal/moderation"
)

const defaultSubmitter = "mcp-agent"

// handleFlagContent queues content for review.
func (s *Server) handleFlagContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}
	reasonStr, err := request.RequireString("reason")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: reason"), nil
	}
	reason, err := moderation.ParseReason(reasonStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	item, err := s.svc.Flag(ctx, request.GetString("submitter", defaultSubmitter), content, reason)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("flagging failed: %v", err)), nil
	}
	return jsonResult(item)
}

// handleReviewItem resolves a pending item.
func (s *Server) handleReviewItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("item_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: item_id"), nil
	}
	decisionStr, err := request.RequireString("decision")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: decision"), nil
	}
	decision, err := moderation.ParseStatus(decisionStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	admin := request.GetString("admin_id", s.defaultAdmin)
	if err := s.svc.Review(ctx, id, admin, decision); err != nil {
		switch {
		case errors.Is(err, moderation.ErrNotFound):
			return mcp.NewToolResultError(fmt.Sprintf("no moderation item with id %q", id)), nil
		case errors.Is(err, moderation.ErrAlreadyResolved):
			return mcp.NewToolResultError(fmt.Sprintf("item %q has already been reviewed", id)), nil
		default:
			return mcp.NewToolResultError(fmt.Sprintf("review failed: %v", err)), nil
		}
	}

	item, err := s.svc.Item(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading item: %v", err)), nil
	}
	return jsonResult(item)
}

// handleGetQueue lists queue items.
func (s *Server) handleGetQueue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter, err := moderation.ParseFilter(request.GetString("status", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.svc.Queue(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing queue: %v", err)), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("The moderation queue is empty for this filter."), nil
	}
	return jsonResult(items)
}

// handleGetAuditLogs lists audit entries.
func (s *Server) handleGetAuditLogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := moderation.AuditFilter{ItemID: request.GetString("item_id", "")}
	if v := request.GetString("action", ""); v != "" {
		action, err := moderation.ParseAction(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filter.Action = action
	}

	entries, err := s.svc.AuditLogs(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing audit logs: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No audit entries match."), nil
	}
	return jsonResult(entries)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
