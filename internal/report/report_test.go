package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/admitcoach/interview-ai/internal/nonverbal"
)

func TestBuildReportPrompt_IncludesEveryPayloadInOrder(t *testing.T) {
	payloads := []QuestionPayload{
		{
			Index:        0,
			QuestionID:   "q-behavioral-1",
			QuestionText: "Tell me about a time you led a team.",
			Transcript:   "I led a team of five.",
			NonVerbal: nonverbal.Summary{
				FramesAnalyzed:             5,
				FramesWithFace:             5,
				AverageDetectionConfidence: 0.9,
				AffectScoreAverage:         3.0,
				AffectLikelihoodMode:       nonverbal.Likely,
			},
		},
		{
			Index:        1,
			QuestionID:   "q-goals-1",
			QuestionText: "Why an MBA now?",
			Transcript:   "",
			NonVerbal:    nonverbal.ZeroSummary(),
		},
	}

	prompt, err := BuildReportPrompt(payloads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"q-behavioral-1",
		"q-goals-1",
		"Tell me about a time you led a team.",
		"I led a team of five.",
		`"framesAnalyzed": 5`,
		`"affectLikelihoodMode": "LIKELY"`,
		`"affectLikelihoodMode": "UNKNOWN"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Order preserved: first question appears before the second.
	if strings.Index(prompt, "q-behavioral-1") > strings.Index(prompt, "q-goals-1") {
		t.Error("payloads out of order in prompt")
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestGenerate_BoundsCallWithDeadline(t *testing.T) {
	var gotDeadline time.Time
	gen := &Generator{
		model: "test-model",
		call: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			deadline, ok := ctx.Deadline()
			if !ok {
				t.Error("model call context has no deadline")
			}
			gotDeadline = deadline
			return textResponse("```json\n{\"overallSummary\": \"fine\", \"overallScore\": 7}\n```"), nil
		},
	}

	rep, err := gen.Generate(context.Background(), []QuestionPayload{{Index: 0, QuestionID: "q1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.OverallSummary != "fine" || rep.OverallScore != 7 {
		t.Errorf("unexpected report: %+v", rep)
	}
	if remaining := time.Until(gotDeadline); remaining > generateTimeout {
		t.Errorf("deadline %v from now exceeds the per-call bound %v", remaining, generateTimeout)
	}
}

func TestGenerate_EmptyResponseIsError(t *testing.T) {
	gen := &Generator{
		model: "test-model",
		call: func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{}, nil
		},
	}

	if _, err := gen.Generate(context.Background(), []QuestionPayload{{Index: 0, QuestionID: "q1"}}); err == nil {
		t.Fatal("expected an error for an empty model response")
	}
}

func TestBuildReportPrompt_StatesQuestionCount(t *testing.T) {
	prompt, err := BuildReportPrompt([]QuestionPayload{{Index: 0, QuestionID: "q1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(prompt, "1 question(s)") {
		t.Errorf("prompt does not state the question count:\n%s", prompt)
	}
}
