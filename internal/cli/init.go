package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aurastream/genmusic/internal/config"
)

const envTemplate = `# genmusic configuration
GEMINI_API_KEY=

# Optional overrides
# DEFAULT_BPM=120
# TEMPERATURE=1.0
# OUTPUT_DIR=
# BUFFER_CAPACITY=500
# BUFFER_FILL_THRESHOLD=20
# LOG_LEVEL=info
# METRICS_ENABLED=false
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the user configuration file",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := config.ConfigDir()
	if dir == "" {
		return fmt.Errorf("cannot resolve home directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config already exists at %s\n", path)
		return nil
	}

	// The file holds an API key, keep it private.
	if err := os.WriteFile(path, []byte(envTemplate), 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	fmt.Printf("Created %s\nAdd your GEMINI_API_KEY to get started.\n", path)
	return nil
}
