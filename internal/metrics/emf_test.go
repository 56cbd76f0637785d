package metrics

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
)

func TestNew_ServiceDimension(t *testing.T) {
	initOnce.Do(func() {})
	serviceName = "interview-web"

	r := New(Namespace)
	if r.namespace != Namespace {
		t.Errorf("expected namespace %s, got %s", Namespace, r.namespace)
	}
	if r.dimensions["Service"] != "interview-web" {
		t.Errorf("expected Service dimension interview-web, got %s", r.dimensions["Service"])
	}
}

func TestRecorder_FlushOutput(t *testing.T) {
	// Capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	serviceName = "" // Clear for test isolation

	rec := New(Namespace)
	rec.Dimension("Operation", "evaluate")
	rec.Metric("ReportLatencyMs", 1234.5, UnitMilliseconds)
	rec.Metric("FramesAnalyzed", 5, UnitCount)
	rec.Property("sessionId", "abc-123")
	rec.Flush()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := buf.String()

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(output), &doc); err != nil {
		t.Fatalf("failed to parse EMF output as JSON: %v\nOutput: %s", err, output)
	}

	if _, ok := doc["_aws"]; !ok {
		t.Fatal("missing _aws directive in EMF output")
	}
	if doc["Operation"] != "evaluate" {
		t.Errorf("expected Operation dimension evaluate, got %v", doc["Operation"])
	}
	if doc["ReportLatencyMs"] != 1234.5 {
		t.Errorf("expected ReportLatencyMs 1234.5, got %v", doc["ReportLatencyMs"])
	}
	if doc["FramesAnalyzed"] != float64(5) {
		t.Errorf("expected FramesAnalyzed 5, got %v", doc["FramesAnalyzed"])
	}
	if doc["sessionId"] != "abc-123" {
		t.Errorf("expected sessionId property abc-123, got %v", doc["sessionId"])
	}
}

func TestRecorder_EmptyFlushEmitsNothing(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	New(Namespace).Property("onlyProperty", "x").Flush()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	if buf.Len() != 0 {
		t.Errorf("expected no output for metric-less flush, got %q", buf.String())
	}
}
