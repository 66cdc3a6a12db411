// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     service
// Description: Lint, format and outline entry point shared by the CLI, the
//              language server and watch mode. Adds run ids, timing, logging
//              and optional run history around the pure analysis core.
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/msto63/structlint/internal/ast"
	"github.com/msto63/structlint/internal/formatter"
	"github.com/msto63/structlint/internal/parser"
	"github.com/msto63/structlint/internal/store"
	"github.com/msto63/structlint/internal/validator"
	mdwerrors "github.com/msto63/structlint/pkg/core/errors"
	"github.com/msto63/structlint/pkg/core/logging"
)

// Document is one text to analyze. Version is opaque to the service and
// echoed back so hosts can drop superseded results.
type Document struct {
	URI     string `json:"uri" yaml:"uri"`
	Version int    `json:"version" yaml:"version"`
	Text    string `json:"text" yaml:"text"`
}

// LintResult is the outcome of a lint run
type LintResult struct {
	RunID       string                 `json:"run_id" yaml:"run_id"`
	URI         string                 `json:"uri" yaml:"uri"`
	Version     int                    `json:"version" yaml:"version"`
	Diagnostics []validator.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	Faults      []validator.RuleFault  `json:"faults,omitempty" yaml:"faults,omitempty"`
	Errors      int                    `json:"errors" yaml:"errors"`
	Warnings    int                    `json:"warnings" yaml:"warnings"`
	Duration    time.Duration          `json:"duration" yaml:"duration"`
}

// FormatResult is the outcome of a format run. Formatted is the text with
// all edits applied; Blocked is set when error diagnostics suppressed them.
type FormatResult struct {
	RunID       string                 `json:"run_id" yaml:"run_id"`
	URI         string                 `json:"uri" yaml:"uri"`
	Version     int                    `json:"version" yaml:"version"`
	Edits       []formatter.TextEdit   `json:"edits" yaml:"edits"`
	Formatted   string                 `json:"formatted" yaml:"formatted"`
	Blocked     bool                   `json:"blocked" yaml:"blocked"`
	Diagnostics []validator.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	Duration    time.Duration          `json:"duration" yaml:"duration"`
}

// Changed reports whether formatting would modify the document
func (r *FormatResult) Changed() bool {
	return len(r.Edits) > 0
}

// OutlineNode is one block of the document structure
type OutlineNode struct {
	Name      string         `json:"name" yaml:"name"`
	StartLine int            `json:"start_line" yaml:"start_line"`
	EndLine   int            `json:"end_line" yaml:"end_line"`
	Depth     int            `json:"depth" yaml:"depth"`
	Closed    bool           `json:"closed" yaml:"closed"`
	Children  []*OutlineNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Config holds service configuration
type Config struct {
	Options validator.Options
	// Store records every run when set
	Store store.RunStore
}

// Service combines the analysis core with run bookkeeping
type Service struct {
	logger *logging.Logger
	opts   validator.Options
	store  store.RunStore
}

// NewService creates a new service
func NewService(cfg Config) *Service {
	return &Service{
		logger: logging.New("service"),
		opts:   cfg.Options,
		store:  cfg.Store,
	}
}

// Options returns the analysis options the service runs with
func (s *Service) Options() validator.Options {
	return s.opts
}

// Store returns the run store, nil when history is disabled
func (s *Service) Store() store.RunStore {
	return s.store
}

// Lint validates a document
func (s *Service) Lint(ctx context.Context, doc Document) (*LintResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, canceled(err, "lint")
	}
	start := time.Now()

	vres := validator.Validate(doc.Text, s.opts)
	result := &LintResult{
		RunID:       uuid.New().String(),
		URI:         doc.URI,
		Version:     doc.Version,
		Diagnostics: vres.Diagnostics,
		Faults:      vres.Faults,
		Errors:      vres.Errors(),
		Warnings:    vres.Warnings(),
		Duration:    time.Since(start),
	}
	for _, f := range vres.Faults {
		s.logger.Error("Rule failed", "run_id", result.RunID, "rule", f.Rule, "fault", f.Message)
	}

	s.logger.Debug("Lint completed",
		"run_id", result.RunID,
		"uri", doc.URI,
		"errors", result.Errors,
		"warnings", result.Warnings,
		"duration", result.Duration,
	)

	s.record(ctx, &store.Run{
		ID:          result.RunID,
		URI:         doc.URI,
		Kind:        store.KindLint,
		Version:     doc.Version,
		Errors:      result.Errors,
		Warnings:    result.Warnings,
		Duration:    result.Duration,
		Diagnostics: result.Diagnostics,
	})
	return result, nil
}

// Format computes indentation edits for a document. Documents with error
// diagnostics come back Blocked and unchanged.
func (s *Service) Format(ctx context.Context, doc Document) (*FormatResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, canceled(err, "format")
	}
	start := time.Now()

	fres := formatter.Format(doc.Text, s.opts)
	formatted := doc.Text
	if len(fres.Edits) > 0 {
		formatted = formatter.ApplyText(doc.Text, fres.Edits)
	}
	result := &FormatResult{
		RunID:       uuid.New().String(),
		URI:         doc.URI,
		Version:     doc.Version,
		Edits:       fres.Edits,
		Formatted:   formatted,
		Blocked:     fres.Blocked,
		Diagnostics: fres.Validation.Diagnostics,
		Duration:    time.Since(start),
	}

	s.logger.Debug("Format completed",
		"run_id", result.RunID,
		"uri", doc.URI,
		"edits", len(result.Edits),
		"blocked", result.Blocked,
		"duration", result.Duration,
	)

	s.record(ctx, &store.Run{
		ID:          result.RunID,
		URI:         doc.URI,
		Kind:        store.KindFormat,
		Version:     doc.Version,
		Errors:      fres.Validation.Errors(),
		Warnings:    fres.Validation.Warnings(),
		Edits:       len(result.Edits),
		Duration:    result.Duration,
		Diagnostics: result.Diagnostics,
	})
	return result, nil
}

// Outline returns the block tree of a document. Unclosed blocks are
// included with EndLine set to the last line they extend to.
func (s *Service) Outline(ctx context.Context, doc Document) ([]*OutlineNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, canceled(err, "outline")
	}
	parsed := parser.ParseText(doc.Text, s.opts.Parser)
	return outline(parsed.Document.Children, 0, len(parsed.Lines)-1), nil
}

func outline(nodes []ast.Node, depth, last int) []*OutlineNode {
	var out []*OutlineNode
	for _, n := range nodes {
		b, ok := n.(*ast.Block)
		if !ok {
			continue
		}
		end := b.End
		if !b.Closed() {
			end = lastLine(b, last)
		}
		out = append(out, &OutlineNode{
			Name:      b.Name(),
			StartLine: b.Start,
			EndLine:   end,
			Depth:     depth,
			Closed:    b.Closed(),
			Children:  outline(b.Children, depth+1, end),
		})
	}
	return out
}

// lastLine is the last line holding a descendant of an unclosed block, or
// the header line if it has none
func lastLine(b *ast.Block, limit int) int {
	end := b.Start
	ast.Walk(b, func(n ast.Node, _ *ast.Block, _ int) bool {
		line := n.StartLine()
		if c, ok := n.(*ast.Block); ok && c.Closed() {
			line = c.End
		}
		if line > end && line <= limit {
			end = line
		}
		return true
	})
	return end
}

// record writes a run to the store. Failures are logged and never fail the
// run itself.
func (s *Service) record(ctx context.Context, run *store.Run) {
	if s.store == nil {
		return
	}
	if err := s.store.RecordRun(ctx, run); err != nil {
		s.logger.Warn("Failed to record run", "run_id", run.ID, "uri", run.URI, "error", err)
	}
}

func canceled(err error, op string) error {
	return mdwerrors.Wrap(err, "request canceled").WithCode(mdwerrors.CodeInvalidInput).WithOperation("service." + op)
}
