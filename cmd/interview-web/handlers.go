package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/admitcoach/interview-ai/internal/report"
	"github.com/admitcoach/interview-ai/internal/session"
)

// maxUploadBytes caps a whole evaluation request. Sessions are short webcam
// answers, so 512 MB leaves ample headroom for a dozen questions.
const maxUploadBytes int64 = 512 * 1024 * 1024

// multipartMemory is the in-memory threshold for multipart parsing; larger
// parts spill to disk.
const multipartMemory int64 = 32 << 20

// videoPartPrefix names the multipart file fields: video_0, video_1, ...
// matching the index field of the corresponding metadata entry.
const videoPartPrefix = "video_"

type sessionRunner interface {
	Run(ctx context.Context, metadata []session.Metadata, videos map[int]session.Recording) (*report.InterviewReport, error)
}

type server struct {
	runner    sessionRunner
	uploadDir string
}

// GET /healthz
func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /api/session/evaluate
//
// Multipart form with a "metadata" JSON field (array of question metadata)
// and one "video_<index>" file part per recorded answer. Questions without a
// video part are still evaluated, with an empty non-verbal summary.
// Append ?format=zip to receive the report as a compressed archive.
func (s *server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		httpError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	metadataJSON := r.FormValue("metadata")
	if metadataJSON == "" {
		httpError(w, http.StatusBadRequest, "metadata field is required")
		return
	}
	var metadata []session.Metadata
	if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
		httpError(w, http.StatusBadRequest, "metadata is not valid JSON")
		return
	}

	videos, err := s.saveUploads(r)
	if err != nil {
		log.Error().Err(err).Msg("Failed to store uploaded videos")
		httpError(w, http.StatusInternalServerError, "failed to store uploads")
		return
	}

	result, err := s.runner.Run(r.Context(), metadata, videos)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidMetadata):
			httpError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, session.ErrReportGeneration):
			log.Error().Err(err).Msg("Report generation failed")
			httpError(w, http.StatusBadGateway, "report generation failed")
		default:
			log.Error().Err(err).Msg("Session evaluation failed")
			httpError(w, http.StatusInternalServerError, "session evaluation failed")
		}
		return
	}

	if r.URL.Query().Get("format") == "zip" {
		if err := writeReportArchive(w, result, metadata); err != nil {
			log.Error().Err(err).Msg("Failed to write report archive")
		}
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// saveUploads copies each video_<index> part into the upload directory under
// a random name. On success the session runner owns the files and deletes
// them when the run finishes; on error every file staged so far is removed
// here, since the runner never sees them.
func (s *server) saveUploads(r *http.Request) (videos map[int]session.Recording, err error) {
	videos = make(map[int]session.Recording)
	var staged []string
	defer func() {
		if err == nil {
			return
		}
		for _, path := range staged {
			os.Remove(path)
		}
	}()

	for field, headers := range r.MultipartForm.File {
		if !strings.HasPrefix(field, videoPartPrefix) || len(headers) == 0 {
			continue
		}
		index, err := strconv.Atoi(strings.TrimPrefix(field, videoPartPrefix))
		if err != nil {
			return nil, fmt.Errorf("invalid video field name %q", field)
		}

		header := headers[0]
		src, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", field, err)
		}

		ext := filepath.Ext(header.Filename)
		if ext == "" {
			ext = ".webm"
		}
		path := filepath.Join(s.uploadDir, uuid.New().String()+ext)

		dst, err := os.Create(path)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("create %s: %w", path, err)
		}
		_, err = io.Copy(dst, src)
		src.Close()
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
			return nil, fmt.Errorf("write upload %s: %w", field, err)
		}

		videos[index] = session.Recording{Index: index, Path: path}
		staged = append(staged, path)
	}

	return videos, nil
}
