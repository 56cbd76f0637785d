package main

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/admitcoach/interview-ai/internal/report"
	"github.com/admitcoach/interview-ai/internal/session"
)

// zipMethodZstd is the ZIP compression method ID for Zstandard (APPNOTE 6.3.7).
const zipMethodZstd uint16 = 93

func init() {
	// Register Zstandard as a ZIP compressor at level 12, the highest the
	// Go library supports. Reports are small; the cost is negligible.
	zip.RegisterCompressor(zipMethodZstd, func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(12)))
	})
}

// writeReportArchive streams the evaluation result as a ZIP archive:
// report.json plus one transcript text file per answered question, all
// compressed with Zstandard.
func writeReportArchive(w http.ResponseWriter, rep *report.InterviewReport, metadata []session.Metadata) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="interview-report.zip"`)

	zw := zip.NewWriter(w)
	if err := addArchiveEntry(zw, "report.json", data); err != nil {
		return err
	}

	for _, meta := range metadata {
		if meta.Transcript == "" {
			continue
		}
		name := fmt.Sprintf("transcripts/question-%d.txt", meta.Index)
		body := fmt.Sprintf("Q: %s\n\n%s\n", meta.QuestionText, meta.Transcript)
		if err := addArchiveEntry(zw, name, []byte(body)); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close ZIP writer: %w", err)
	}
	return nil
}

func addArchiveEntry(zw *zip.Writer, name string, data []byte) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zipMethodZstd,
		Modified: time.Now(),
	}
	entry, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create ZIP entry %s: %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("write ZIP entry %s: %w", name, err)
	}
	return nil
}
