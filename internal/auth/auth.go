package auth

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// GetAPIKey retrieves the Gemini API key from the GEMINI_API_KEY environment
// variable. The same key is accepted for Cloud Vision requests when
// VISION_API_KEY is unset, since both products can share a Google Cloud key.
func GetAPIKey() (string, error) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		log.Debug().Msg("Using Gemini API key from environment variable")
		return key, nil
	}
	return "", fmt.Errorf("API key not found: set GEMINI_API_KEY")
}

// GetVisionAPIKey retrieves the Cloud Vision API key. Falls back to the Gemini
// key when VISION_API_KEY is unset.
func GetVisionAPIKey() (string, error) {
	if key := os.Getenv("VISION_API_KEY"); key != "" {
		log.Debug().Msg("Using Vision API key from environment variable")
		return key, nil
	}
	return GetAPIKey()
}
