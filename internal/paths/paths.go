// Package paths lays out the CLI data directory.
package paths

import "path/filepath"

// Outputs is the default directory for downloaded results.
func Outputs(dataDir string) string {
	return filepath.Join(dataDir, "outputs")
}

// History is the job log database.
func History(dataDir string) string {
	return filepath.Join(dataDir, "history.db")
}

// Log holds panic reports.
func Log(dataDir string) string {
	return filepath.Join(dataDir, "log")
}
