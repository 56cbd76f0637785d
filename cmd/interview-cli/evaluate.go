package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/admitcoach/interview-ai/internal/auth"
	"github.com/admitcoach/interview-ai/internal/cli"
	"github.com/admitcoach/interview-ai/internal/framesampler"
	"github.com/admitcoach/interview-ai/internal/logging"
	"github.com/admitcoach/interview-ai/internal/nonverbal"
	"github.com/admitcoach/interview-ai/internal/report"
	"github.com/admitcoach/interview-ai/internal/session"
	"github.com/admitcoach/interview-ai/internal/vision"
)

// evaluate flags
var (
	metadataFlag string
	videoFlags   []string
	modelFlag    string
	framesFlag   int
	outFlag      string
	workdirFlag  string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a recorded interview session",
	Long: `Evaluate reads the session metadata file, pairs each question with its
answer video, and produces a feedback report. Questions without a video are
still scored on their transcript alone.

The metadata file is a JSON array:
  [{"index": 0, "questionId": "q1", "questionText": "Why an MBA?", "transcript": "..."}]

Videos are attached with repeated --video flags as index=path pairs.`,
	Run: runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&metadataFlag, "metadata", "", "Path to the session metadata JSON file")
	evaluateCmd.Flags().StringArrayVar(&videoFlags, "video", nil, "Answer video as index=path (repeatable)")
	evaluateCmd.Flags().StringVarP(&modelFlag, "model", "m", report.GetModelName(), "Gemini model for report generation")
	evaluateCmd.Flags().IntVar(&framesFlag, "frames", session.DefaultFrameCount, "Frames sampled per answer video")
	evaluateCmd.Flags().StringVarP(&outFlag, "out", "o", "", "Write the report JSON to this file instead of rendering it")
	evaluateCmd.Flags().StringVar(&workdirFlag, "workdir", "", "Base directory for scratch files (default: system temp)")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) {
	logging.Init()

	metadataPath := metadataFlag
	if metadataPath == "" {
		metadataPath = cli.PromptForMetadataPath()
	}
	metadataPath = cli.ValidateAndResolveFile(metadataPath)

	metadata, err := loadMetadata(metadataPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", metadataPath).Msg("Failed to load session metadata")
	}

	if err := framesampler.CheckBackendAvailable(); err != nil {
		log.Fatal().Err(err).Msg("ffmpeg/ffprobe not available")
	}
	sampler, err := framesampler.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize frame sampler")
	}

	ctx, geminiClient := cli.InitGeminiClient()

	visionKey, err := auth.GetVisionAPIKey()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get Vision API key")
	}
	visionClient, err := vision.NewClient(ctx, option.WithAPIKey(visionKey))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Cloud Vision client")
	}
	defer visionClient.Close()

	if workdirFlag != "" {
		if err := os.MkdirAll(workdirFlag, 0o755); err != nil {
			log.Fatal().Err(err).Str("path", workdirFlag).Msg("Failed to create work directory")
		}
	}
	workDir, err := os.MkdirTemp(workdirFlag, "interview-eval-")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create working directory")
	}
	defer os.RemoveAll(workDir)

	// The session runner deletes its recordings when the run finishes, so
	// hand it copies and leave the user's originals alone.
	videos, err := stageVideos(videoFlags, workDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to stage answer videos")
	}

	runner := session.NewRunner(
		sampler,
		nonverbal.NewAnalyzer(visionClient),
		report.NewGenerator(geminiClient, modelFlag),
		session.WithFrameCount(framesFlag),
		session.WithWorkDir(workDir),
	)

	rep, err := runner.Run(ctx, metadata, videos)
	if err != nil {
		log.Fatal().Err(err).Msg("Session evaluation failed")
	}

	if outFlag != "" {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to encode report")
		}
		if err := os.WriteFile(outFlag, data, 0o644); err != nil {
			log.Fatal().Err(err).Str("path", outFlag).Msg("Failed to write report")
		}
		log.Info().Str("path", outFlag).Msg("Report written")
		return
	}

	cli.RenderReport(os.Stdout, rep)
}

// loadMetadata reads and parses the session metadata file.
func loadMetadata(path string) ([]session.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var metadata []session.Metadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return metadata, nil
}

// stageVideos parses index=path pairs and copies each video into the working
// directory under a random name.
func stageVideos(pairs []string, workDir string) (map[int]session.Recording, error) {
	videos := make(map[int]session.Recording, len(pairs))

	for _, pair := range pairs {
		index, src, err := parseVideoPair(pair)
		if err != nil {
			return nil, err
		}
		if _, ok := videos[index]; ok {
			return nil, fmt.Errorf("duplicate video for index %d", index)
		}

		ext := filepath.Ext(src)
		if ext == "" {
			ext = ".webm"
		}
		dst := filepath.Join(workDir, uuid.New().String()+ext)
		if err := copyFile(src, dst); err != nil {
			return nil, fmt.Errorf("copy %s: %w", src, err)
		}
		videos[index] = session.Recording{Index: index, Path: dst}
	}

	return videos, nil
}

// parseVideoPair splits an index=path argument.
func parseVideoPair(pair string) (int, string, error) {
	idx := strings.IndexByte(pair, '=')
	if idx <= 0 || idx == len(pair)-1 {
		return 0, "", fmt.Errorf("invalid --video %q, expected index=path", pair)
	}
	index, err := strconv.Atoi(pair[:idx])
	if err != nil || index < 0 {
		return 0, "", fmt.Errorf("invalid --video index in %q", pair)
	}
	return index, pair[idx+1:], nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
