package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/admitcoach/interview-ai/internal/cli"
	"github.com/admitcoach/interview-ai/internal/framesampler"
	"github.com/admitcoach/interview-ai/internal/logging"
	"github.com/admitcoach/interview-ai/internal/session"
)

// frames flags
var (
	framesVideoFlag   string
	framesCountFlag   int
	framesOutFlag     string
	framesColumnsFlag int
)

var framesCmd = &cobra.Command{
	Use:   "frames",
	Short: "Sample frames from a video into a contact sheet",
	Long: `Frames extracts evenly spaced stills from an answer video and writes them
as a single JPEG grid. Useful for checking what the face detector will see
before running a full evaluation.

Examples:
  interview-cli frames --video q1.webm --out sheet.jpg
  interview-cli frames --video q1.webm --count 12 --columns 4 --out sheet.jpg`,
	Run: runFrames,
}

func init() {
	framesCmd.Flags().StringVar(&framesVideoFlag, "video", "", "Path to the video to sample")
	framesCmd.Flags().IntVar(&framesCountFlag, "count", session.DefaultFrameCount, "Number of frames to sample")
	framesCmd.Flags().StringVarP(&framesOutFlag, "out", "o", "contact-sheet.jpg", "Output JPEG path")
	framesCmd.Flags().IntVar(&framesColumnsFlag, "columns", 3, "Columns in the contact sheet grid")
	framesCmd.MarkFlagRequired("video")
	rootCmd.AddCommand(framesCmd)
}

func runFrames(cmd *cobra.Command, args []string) {
	logging.Init()

	videoPath := cli.ValidateAndResolveFile(framesVideoFlag)

	if err := framesampler.CheckBackendAvailable(); err != nil {
		log.Fatal().Err(err).Msg("ffmpeg/ffprobe not available")
	}
	sampler, err := framesampler.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize frame sampler")
	}

	workDir, err := os.MkdirTemp("", "interview-frames-")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create working directory")
	}
	defer os.RemoveAll(workDir)

	frames, err := sampler.Sample(context.Background(), videoPath, framesCountFlag, workDir)
	if err != nil {
		log.Fatal().Err(err).Str("video", videoPath).Msg("Failed to sample frames")
	}
	if len(frames) == 0 {
		log.Fatal().Str("video", videoPath).Msg("No frames could be extracted")
	}

	for _, frame := range frames {
		log.Info().
			Str("timestamp", cli.FormatTimestamp(frame.Timestamp)).
			Int("bytes", len(frame.Data)).
			Msg("Sampled frame")
	}

	sheet, err := framesampler.ContactSheet(frames, framesColumnsFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build contact sheet")
	}
	if err := os.WriteFile(framesOutFlag, sheet, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", framesOutFlag).Msg("Failed to write contact sheet")
	}

	log.Info().
		Str("path", framesOutFlag).
		Int("frames", len(frames)).
		Msg("Contact sheet written")
}
