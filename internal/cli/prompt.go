package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// PromptForMetadataPath prompts the user interactively for the session
// metadata file. Returns the default name in the current directory if the
// user enters nothing.
func PromptForMetadataPath() string {
	const defaultName = "metadata.json"

	fmt.Printf("Session metadata file [%s]: ", defaultName)

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read input, using default metadata file")
		return defaultName
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return defaultName
	}

	return input
}
