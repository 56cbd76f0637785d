package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/admitcoach/interview-ai/internal/report"
	"github.com/admitcoach/interview-ai/internal/session"
)

func init() {
	// The server writes Zstandard ZIP entries; tests need the matching
	// decompressor to read them back.
	zip.RegisterDecompressor(zipMethodZstd, func(r io.Reader) io.ReadCloser {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return io.NopCloser(r)
		}
		return zr.IOReadCloser()
	})
}

// fakeRunner records its inputs and the on-disk state of the recordings at
// call time, then returns a canned report or error.
type fakeRunner struct {
	metadata []session.Metadata
	videos   map[int]session.Recording
	contents map[int][]byte
	report   *report.InterviewReport
	err      error
}

func (f *fakeRunner) Run(ctx context.Context, metadata []session.Metadata, videos map[int]session.Recording) (*report.InterviewReport, error) {
	f.metadata = metadata
	f.videos = videos
	f.contents = make(map[int][]byte)
	for index, rec := range videos {
		data, err := os.ReadFile(rec.Path)
		if err == nil {
			f.contents[index] = data
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func newTestServer(t *testing.T, runner sessionRunner) *server {
	t.Helper()
	return &server{runner: runner, uploadDir: t.TempDir()}
}

// buildEvaluateRequest creates a multipart POST with the given metadata JSON
// and video parts keyed by index.
func buildEvaluateRequest(t *testing.T, target, metadataJSON string, videoParts map[int][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if metadataJSON != "" {
		if err := mw.WriteField("metadata", metadataJSON); err != nil {
			t.Fatalf("write metadata field: %v", err)
		}
	}
	for index, data := range videoParts {
		part, err := mw.CreateFormFile(fmt.Sprintf("video_%d", index), fmt.Sprintf("answer-%d.webm", index))
		if err != nil {
			t.Fatalf("create video part: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write video part: %v", err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const twoQuestionMetadata = `[
	{"index": 0, "questionId": "q1", "questionText": "Why an MBA?", "transcript": "Because..."},
	{"index": 1, "questionId": "q2", "questionText": "Tell me about a failure.", "transcript": ""}
]`

func TestHandleEvaluate_ReturnsReport(t *testing.T) {
	runner := &fakeRunner{report: &report.InterviewReport{OverallSummary: "solid", OverallScore: 8}}
	srv := newTestServer(t, runner)

	req := buildEvaluateRequest(t, "/api/session/evaluate", twoQuestionMetadata, map[int][]byte{
		0: []byte("video-zero"),
	})
	w := httptest.NewRecorder()
	srv.handleEvaluate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var got report.InterviewReport
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if got.OverallSummary != "solid" || got.OverallScore != 8 {
		t.Errorf("unexpected report: %+v", got)
	}

	if len(runner.metadata) != 2 {
		t.Fatalf("runner got %d metadata entries, want 2", len(runner.metadata))
	}
	if runner.metadata[1].QuestionID != "q2" {
		t.Errorf("metadata order lost: %+v", runner.metadata)
	}
	if string(runner.contents[0]) != "video-zero" {
		t.Errorf("uploaded video not readable by runner: %q", runner.contents[0])
	}
	if _, ok := runner.videos[1]; ok {
		t.Error("question 1 had no upload but runner received a recording for it")
	}
}

func TestHandleEvaluate_MissingMetadata(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{})
	req := buildEvaluateRequest(t, "/api/session/evaluate", "", nil)
	w := httptest.NewRecorder()
	srv.handleEvaluate(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleEvaluate_MalformedMetadata(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{})
	req := buildEvaluateRequest(t, "/api/session/evaluate", "{not json", nil)
	w := httptest.NewRecorder()
	srv.handleEvaluate(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleEvaluate_RunnerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"Invalid metadata", fmt.Errorf("%w: empty", session.ErrInvalidMetadata), http.StatusBadRequest},
		{"Report generation failed", fmt.Errorf("%w: model overloaded", session.ErrReportGeneration), http.StatusBadGateway},
		{"Unexpected failure", fmt.Errorf("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeRunner{err: tt.err})
			req := buildEvaluateRequest(t, "/api/session/evaluate", twoQuestionMetadata, nil)
			w := httptest.NewRecorder()
			srv.handleEvaluate(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandleEvaluate_BadVideoFieldLeavesNoUploads(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{})

	// Valid parts followed by a part whose suffix is not an index. The save
	// fails, and nothing staged before the failure may remain on disk.
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("metadata", twoQuestionMetadata); err != nil {
		t.Fatalf("write metadata field: %v", err)
	}
	for _, field := range []string{"video_0", "video_1", "video_oops"} {
		part, err := mw.CreateFormFile(field, field+".webm")
		if err != nil {
			t.Fatalf("create part %s: %v", field, err)
		}
		if _, err := part.Write([]byte("data")); err != nil {
			t.Fatalf("write part %s: %v", field, err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/session/evaluate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.handleEvaluate(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}

	entries, err := os.ReadDir(srv.uploadDir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("upload dir holds %d file(s) after failed save, want 0", len(entries))
	}
}

func TestHandleEvaluate_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{})
	req := httptest.NewRequest(http.MethodGet, "/api/session/evaluate", nil)
	w := httptest.NewRecorder()
	srv.handleEvaluate(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestHandleEvaluate_ZipFormat(t *testing.T) {
	runner := &fakeRunner{report: &report.InterviewReport{OverallSummary: "archived", OverallScore: 6}}
	srv := newTestServer(t, runner)

	req := buildEvaluateRequest(t, "/api/session/evaluate?format=zip", twoQuestionMetadata, nil)
	w := httptest.NewRecorder()
	srv.handleEvaluate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("Content-Type = %q", ct)
	}

	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	if err != nil {
		t.Fatalf("response is not a valid ZIP: %v", err)
	}

	entries := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		entries[f.Name] = data
	}

	var got report.InterviewReport
	if err := json.Unmarshal(entries["report.json"], &got); err != nil {
		t.Fatalf("report.json is not valid JSON: %v", err)
	}
	if got.OverallSummary != "archived" {
		t.Errorf("unexpected report in archive: %+v", got)
	}

	// Question 0 has a transcript; question 1 does not and gets no file.
	transcript, ok := entries["transcripts/question-0.txt"]
	if !ok {
		t.Fatalf("transcript entry missing, archive holds: %v", zr.File)
	}
	if !bytes.Contains(transcript, []byte("Because...")) {
		t.Errorf("transcript content = %q", transcript)
	}
	if _, ok := entries["transcripts/question-1.txt"]; ok {
		t.Error("question without transcript should have no archive entry")
	}
}

func TestHandleHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.handleHealthz(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("GET status = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/healthz", nil)
	w = httptest.NewRecorder()
	srv.handleHealthz(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", w.Code)
	}
}
