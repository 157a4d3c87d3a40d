// Package importer bulk-flags content from JSON Lines files. Each line is
// {"submitter": "...", "content": "...", "reason": "Spam"} and goes through
// the same flagging path as a single report.
package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/ziadkadry99/modguard/internal/moderation"
	"github.com/ziadkadry99/modguard/internal/progress"
)

// DefaultSubmitter is recorded for lines without a submitter.
const DefaultSubmitter = "bulk-import"

// maxLineBytes bounds a single JSONL record.
const maxLineBytes = 1 << 20

// Flagger is the part of moderation.Service the importer needs.
type Flagger interface {
	Flag(ctx context.Context, submitter, content string, reason moderation.Reason) (moderation.Item, error)
}

// Record is one line of an import file.
type Record struct {
	Submitter string `json:"submitter"`
	Content   string `json:"content"`
	Reason    string `json:"reason"`
}

// LineError describes a line that was skipped.
type LineError struct {
	File string
	Line int
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

// Result summarizes an import run.
type Result struct {
	Files    int
	Imported int
	Skipped  []LineError
}

// Importer feeds records into a Flagger.
type Importer struct {
	flagger  Flagger
	reporter progress.Reporter
	log      *zap.Logger
}

// New creates an Importer. A nil reporter or logger disables that output.
func New(flagger Flagger, reporter progress.Reporter, log *zap.Logger) *Importer {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{flagger: flagger, reporter: reporter, log: log}
}

// Expand resolves glob patterns (with ** support) relative to root into a
// sorted, de-duplicated list of regular files.
func Expand(root string, patterns []string) ([]string, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", pattern, err)
		}
		for _, m := range matches {
			path := filepath.Join(root, filepath.FromSlash(m))
			if !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

type pending struct {
	file   string
	line   int
	record Record
	reason moderation.Reason
}

// Import reads every file, skips malformed lines, and flags the rest in file
// order. A flagging failure is a storage failure and aborts the run; records
// flagged before it stay flagged.
func (im *Importer) Import(ctx context.Context, files []string) (Result, error) {
	var (
		res  Result
		todo []pending
	)

	for _, path := range files {
		recs, skipped, err := readFile(path)
		if err != nil {
			return res, err
		}
		res.Files++
		res.Skipped = append(res.Skipped, skipped...)
		todo = append(todo, recs...)
	}

	im.reporter.Start(len(todo))
	defer im.reporter.Finish()

	for i, p := range todo {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		submitter := p.record.Submitter
		if submitter == "" {
			submitter = DefaultSubmitter
		}
		if _, err := im.flagger.Flag(ctx, submitter, p.record.Content, p.reason); err != nil {
			return res, fmt.Errorf("%s:%d: %w", p.file, p.line, err)
		}
		res.Imported++
		im.reporter.Update(i+1, fmt.Sprintf("%s:%d", filepath.Base(p.file), p.line))
	}

	for _, s := range res.Skipped {
		im.log.Warn("skipped import line", zap.String("file", s.File), zap.Int("line", s.Line), zap.Error(s.Err))
	}
	im.log.Info("import finished",
		zap.Int("files", res.Files),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

func readFile(path string) ([]pending, []LineError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var (
		recs    []pending
		skipped []LineError
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			skipped = append(skipped, LineError{File: path, Line: line, Err: fmt.Errorf("decoding record: %w", err)})
			continue
		}
		reason, err := moderation.ParseReason(rec.Reason)
		if err != nil {
			skipped = append(skipped, LineError{File: path, Line: line, Err: err})
			continue
		}
		recs = append(recs, pending{file: path, line: line, record: rec, reason: reason})
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return recs, skipped, nil
}
