package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/admitcoach/interview-ai/internal/report"
)

// FormatTimestamp formats a video offset in seconds as M:SS or H:MM:SS.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// RenderReport writes a human-readable rendition of the interview report.
func RenderReport(w io.Writer, rep *report.InterviewReport) {
	fmt.Fprintf(w, "\nInterview Report — overall score %d/10\n", rep.OverallScore)
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", 50))
	fmt.Fprintf(w, "\n%s\n", rep.OverallSummary)

	if len(rep.Strengths) > 0 {
		fmt.Fprintf(w, "\nStrengths:\n")
		for _, s := range rep.Strengths {
			fmt.Fprintf(w, "  + %s\n", s)
		}
	}
	if len(rep.Improvements) > 0 {
		fmt.Fprintf(w, "\nAreas to improve:\n")
		for _, s := range rep.Improvements {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}

	for _, q := range rep.Questions {
		fmt.Fprintf(w, "\nQuestion %d (%s) — score %d/10\n", q.Index+1, q.QuestionID, q.Score)
		if q.ContentFeedback != "" {
			fmt.Fprintf(w, "  Content:  %s\n", q.ContentFeedback)
		}
		if q.DeliveryFeedback != "" {
			fmt.Fprintf(w, "  Delivery: %s\n", q.DeliveryFeedback)
		}
	}
	fmt.Fprintln(w)
}
