// Package report turns the session's per-question payloads into a structured
// interview report via the Gemini API.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/admitcoach/interview-ai/internal/assets"
	"github.com/admitcoach/interview-ai/internal/jsonutil"
	"github.com/admitcoach/interview-ai/internal/metrics"
	"github.com/admitcoach/interview-ai/internal/nonverbal"
)

// QuestionPayload is the per-question unit handed to the model: the question,
// what the candidate said, and how they appeared on camera while saying it.
type QuestionPayload struct {
	Index        int               `json:"index"`
	QuestionID   string            `json:"questionId"`
	QuestionText string            `json:"questionText"`
	Transcript   string            `json:"transcript"`
	NonVerbal    nonverbal.Summary `json:"nonVerbalSummary"`
}

// QuestionFeedback is the model's evaluation of a single answer.
type QuestionFeedback struct {
	Index            int    `json:"index"`
	QuestionID       string `json:"questionId"`
	ContentFeedback  string `json:"contentFeedback"`
	DeliveryFeedback string `json:"deliveryFeedback"`
	Score            int    `json:"score"`
}

// InterviewReport is the structured evaluation of a full mock-interview
// session.
type InterviewReport struct {
	OverallSummary string             `json:"overallSummary"`
	OverallScore   int                `json:"overallScore"`
	Strengths      []string           `json:"strengths"`
	Improvements   []string           `json:"improvements"`
	Questions      []QuestionFeedback `json:"questions"`
}

// generateFunc matches genai's Models.GenerateContent, factored out so tests
// can fake the model call.
type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// Generator produces interview reports with Gemini.
type Generator struct {
	model string
	call  generateFunc
}

// NewGenerator creates a Generator using the given client and model name.
func NewGenerator(client *genai.Client, model string) *Generator {
	return &Generator{model: model, call: client.Models.GenerateContent}
}

// generateTimeout bounds a single report-generation call. Generous: the model
// writes a long structured document, but a hung call must not pin the session
// forever.
const generateTimeout = 3 * time.Minute

// Generate builds the report prompt from the ordered payloads, calls Gemini,
// and parses the structured report out of the response. Any failure here is
// fatal to the session — there is no degraded report.
func (g *Generator) Generate(ctx context.Context, payloads []QuestionPayload) (*InterviewReport, error) {
	prompt, err := BuildReportPrompt(payloads)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: assets.ReportSystemPrompt}},
		},
	}

	log.Info().
		Str("model", g.model).
		Int("questions", len(payloads)).
		Msg("Requesting interview report from Gemini")

	start := time.Now()
	resp, err := g.call(ctx, g.model, genai.Text(prompt), config)
	elapsed := time.Since(start)

	metrics.New(metrics.Namespace).
		Dimension("Operation", "report").
		Metric("ReportLatencyMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Property("model", g.model).
		Property("questions", len(payloads)).
		Flush()

	if err != nil {
		log.Error().Err(err).Dur("duration", elapsed).Msg("Failed to generate interview report")
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || resp.Text() == "" {
		return nil, fmt.Errorf("received empty response from Gemini API")
	}

	parsed, err := jsonutil.Parse[InterviewReport](resp.Text())
	if err != nil {
		return nil, fmt.Errorf("failed to parse interview report: %w", err)
	}

	log.Info().
		Int("question_feedback", len(parsed.Questions)).
		Dur("duration", elapsed).
		Msg("Interview report generated")

	return &parsed, nil
}

// BuildReportPrompt renders the evaluation task with the payload list embedded
// as a JSON block, so the model sees exactly the structure it must echo
// per-question feedback for.
func BuildReportPrompt(payloads []QuestionPayload) (string, error) {
	payloadJSON, err := json.MarshalIndent(payloads, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize question payloads: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("## Mock Interview Evaluation Task\n\n")
	sb.WriteString(fmt.Sprintf("Evaluate this mock MBA admissions interview session of %d question(s).\n", len(payloads)))
	sb.WriteString("Each payload below contains the question, the candidate's answer transcript, ")
	sb.WriteString("and non-verbal metrics derived from video analysis.\n\n")
	sb.WriteString("### Question Payloads\n\n")
	sb.WriteString("```json\n")
	sb.Write(payloadJSON)
	sb.WriteString("\n```\n")

	return sb.String(), nil
}
