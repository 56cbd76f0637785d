package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "interview-cli",
	Short: "AI-powered mock interview evaluation",
	Long: `Interview CLI evaluates recorded mock MBA interview sessions. It samples
frames from each answer video, scores the candidate's on-camera presence with
face detection, and asks Gemini for a structured feedback report.

Examples:
  interview-cli evaluate --metadata session.json --video 0=q1.webm --video 1=q2.webm
  interview-cli evaluate --metadata session.json --video 0=q1.webm --out report.json
  interview-cli frames --video q1.webm --count 8 --out sheet.jpg`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
