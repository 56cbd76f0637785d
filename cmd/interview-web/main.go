package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/admitcoach/interview-ai/internal/auth"
	"github.com/admitcoach/interview-ai/internal/framesampler"
	"github.com/admitcoach/interview-ai/internal/logging"
	"github.com/admitcoach/interview-ai/internal/nonverbal"
	"github.com/admitcoach/interview-ai/internal/report"
	"github.com/admitcoach/interview-ai/internal/session"
	"github.com/admitcoach/interview-ai/internal/vision"
)

// CLI flags
var (
	portFlag    int
	modelFlag   string
	framesFlag  int
	workdirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "interview-web",
	Short: "HTTP API for mock interview evaluation",
	Long: `Interview Web starts an HTTP server that evaluates recorded mock
interview sessions. Clients upload per-question video answers together with
the question metadata and receive an AI-generated feedback report.

Examples:
  interview-web
  interview-web --port 9090
  interview-web --model gemini-3-flash-preview --frames 8`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 8080, "Port to listen on")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", report.GetModelName(), "Gemini model for report generation")
	rootCmd.Flags().IntVar(&framesFlag, "frames", session.DefaultFrameCount, "Frames sampled per answer video")
	rootCmd.Flags().StringVar(&workdirFlag, "workdir", "", "Base directory for upload scratch files (default: system temp)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	if err := framesampler.CheckBackendAvailable(); err != nil {
		log.Fatal().Err(err).Msg("ffmpeg/ffprobe not available")
	}

	// Validate the Gemini key at startup so a bad key fails the boot, not
	// the first interview upload.
	apiKey, err := auth.GetAPIKey()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get API key")
	}

	ctx := context.Background()
	geminiClient, err := report.NewGeminiClient(ctx, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}
	if err := auth.ValidateAPIKey(ctx, geminiClient); err != nil {
		log.Fatal().Err(err).Msg("Invalid API key")
	}
	log.Info().Msg("API key validated")

	visionKey, err := auth.GetVisionAPIKey()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get Vision API key")
	}
	visionClient, err := vision.NewClient(ctx, option.WithAPIKey(visionKey))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Cloud Vision client")
	}
	defer visionClient.Close()

	sampler, err := framesampler.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize frame sampler")
	}

	if workdirFlag != "" {
		if err := os.MkdirAll(workdirFlag, 0o755); err != nil {
			log.Fatal().Err(err).Str("path", workdirFlag).Msg("Failed to create work directory")
		}
	}
	uploadDir, err := os.MkdirTemp(workdirFlag, "interview-uploads-")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create upload directory")
	}
	defer os.RemoveAll(uploadDir)

	srvState := &server{
		runner: session.NewRunner(
			sampler,
			nonverbal.NewAnalyzer(visionClient),
			report.NewGenerator(geminiClient, modelFlag),
			session.WithFrameCount(framesFlag),
			session.WithWorkDir(uploadDir),
		),
		uploadDir: uploadDir,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/session/evaluate", srvState.handleEvaluate)
	mux.HandleFunc("/healthz", srvState.handleHealthz)

	handler := withLogging(withCORS(mux))

	addr := fmt.Sprintf(":%d", portFlag)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		// Evaluation holds the request open through sampling, face
		// detection, and report generation, so the write timeout is long.
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	log.Info().
		Int("port", portFlag).
		Str("model", modelFlag).
		Int("frames", framesFlag).
		Msg("Starting interview evaluation server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// --- Middleware ---

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if strings.HasPrefix(r.URL.Path, "/api/") {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("API request")
		}
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only allow localhost origins; the server fronts a local coaching app.
		origin := r.Header.Get("Origin")
		if origin != "" && (strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
