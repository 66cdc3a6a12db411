// ============================================================================
// structlint - tooling for struct.begin / struct.end configuration files
// ============================================================================
//
// Package:     diagview
// Description: Message types for async operations in the diagnostics browser
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package diagview

import "github.com/msto63/structlint/internal/validator"

// diagnosticsLoadedMsg is sent when the file was re-read and re-linted
type diagnosticsLoadedMsg struct {
	lines       []string
	diagnostics []validator.Diagnostic
	err         error
}

// reloadMsg signals a re-lint request
type reloadMsg struct{}
