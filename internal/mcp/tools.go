package mcp

import "github.com/mark3labs/mcp-go/mcp"

// flagContentTool defines the flag_content MCP tool.
var flagContentTool = mcp.NewTool("flag_content",
	mcp.WithDescription("Report content for moderator review. Emails, phone numbers and IP addresses are redacted before storage."),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("The offending content; only the first 500 characters are kept"),
	),
	mcp.WithString("reason",
		mcp.Required(),
		mcp.Description("Why the content is being reported"),
		mcp.Enum("Hate Speech", "Spam", "Personal Attack", "Misinformation"),
	),
	mcp.WithString("submitter",
		mcp.Description("Identifier of the reporter (default: mcp-agent)"),
	),
)

// reviewItemTool defines the review_item MCP tool.
var reviewItemTool = mcp.NewTool("review_item",
	mcp.WithDescription("Approve or reject a pending moderation item. Resolved items cannot be reviewed again."),
	mcp.WithString("item_id",
		mcp.Required(),
		mcp.Description("ID of the flagged item"),
	),
	mcp.WithString("decision",
		mcp.Required(),
		mcp.Enum("Approved", "Rejected"),
	),
	mcp.WithString("admin_id",
		mcp.Description("Moderator recorded on the audit entry"),
	),
)

// getQueueTool defines the get_queue MCP tool.
var getQueueTool = mcp.NewTool("get_queue",
	mcp.WithDescription("List flagged items in the order they were reported."),
	mcp.WithString("status",
		mcp.Description("Only return items with this status (default All)"),
		mcp.Enum("All", "Pending", "Approved", "Rejected"),
	),
)

// getAuditLogsTool defines the get_audit_logs MCP tool.
var getAuditLogsTool = mcp.NewTool("get_audit_logs",
	mcp.WithDescription("List moderation audit entries in chronological order, including automated PII redactions."),
	mcp.WithString("item_id",
		mcp.Description("Only return entries for this item"),
	),
	mcp.WithString("action",
		mcp.Description("Only return entries with this action"),
		mcp.Enum("Approved", "Rejected", "PII_MASKED"),
	),
)
