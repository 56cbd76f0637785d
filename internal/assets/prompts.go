// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at
// compile time, keeping prompt wording out of Go string literals.
package assets

import (
	_ "embed"
)

// ReportSystemPrompt instructs the model how to turn per-question transcripts
// and non-verbal summaries into a structured interview report.
//
//go:embed prompts/report-system.txt
var ReportSystemPrompt string
