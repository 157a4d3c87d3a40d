// Package report renders the moderation queue and audit trail as a markdown
// governance report, optionally converted to a standalone HTML page.
package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/ziadkadry99/modguard/internal/moderation"
)

// Data is everything a report shows.
type Data struct {
	GeneratedAt time.Time
	Stats       moderation.Stats
	Items       []moderation.Item
	Audit       []moderation.AuditEntry
}

const timeLayout = "2006-01-02 15:04:05"

// Markdown builds the report. Pending items are listed with their full
// (already redacted) content; the rest appear only in the queue table.
func Markdown(d Data) string {
	var b strings.Builder

	b.WriteString("# Moderation Report\n\n")
	fmt.Fprintf(&b, "Generated %s UTC.\n\n", d.GeneratedAt.UTC().Format(timeLayout))

	b.WriteString("## Summary\n\n")
	b.WriteString("| Total | Pending | Approved | Rejected |\n")
	b.WriteString("|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n\n", d.Stats.Total, d.Stats.Pending, d.Stats.Approved, d.Stats.Rejected)

	b.WriteString("## Queue\n\n")
	if len(d.Items) == 0 {
		b.WriteString("_No flagged items._\n\n")
	} else {
		b.WriteString("| ID | Submitter | Reason | Severity | Status | Flagged |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, it := range d.Items {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				cell(it.ID), cell(it.Submitter), it.Reason, it.Severity, it.Status,
				it.Timestamp.UTC().Format(timeLayout))
		}
		b.WriteString("\n")
	}

	var pending []moderation.Item
	for _, it := range d.Items {
		if it.Status == moderation.StatusPending {
			pending = append(pending, it)
		}
	}
	if len(pending) > 0 {
		b.WriteString("## Awaiting Review\n\n")
		for _, it := range pending {
			fmt.Fprintf(&b, "### %s (%s, %s)\n\n", cell(it.ID), it.Reason, it.Severity)
			fence := fenceFor(it.Content)
			fmt.Fprintf(&b, "%stext\n%s\n%s\n\n", fence, it.Content, fence)
		}
	}

	b.WriteString("## Audit Trail\n\n")
	if len(d.Audit) == 0 {
		b.WriteString("_No audit entries._\n")
		return b.String()
	}
	b.WriteString("| Time | Item | Actor | Action | Reason |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, e := range d.Audit {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			e.Timestamp.UTC().Format(timeLayout), cell(e.ItemID), cell(e.AdminID), e.Action, cell(e.Reason))
	}
	return b.String()
}

// HTML converts a markdown report into a standalone page.
func HTML(markdown, title string) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, pageTemplate, html.EscapeString(title), body.String())
	return page.Bytes(), nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; width: 100%%; }
th, td { border: 1px solid #ddd; padding: 4px 8px; text-align: left; }
pre { padding: 8px; overflow-x: auto; }
</style>
</head>
<body>
%s
</body>
</html>
`

// cell makes s safe inside a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// fenceFor returns a backtick fence longer than any run inside content.
func fenceFor(content string) string {
	fence := "```"
	for strings.Contains(content, fence) {
		fence += "`"
	}
	return fence
}
