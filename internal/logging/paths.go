package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.knowledgescout/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".knowledgescout", "logs")
	}
	return filepath.Join(home, ".knowledgescout", "logs")
}

// DefaultLogPath returns the default server log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "server.log")
}
