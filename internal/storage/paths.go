package storage

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
)

const appName = "minimax"

// DatabaseDir returns <data home>/minimax/db, creating it if needed. The
// data home is ~/Library/Application Support on macOS, %APPDATA% on
// Windows and $XDG_DATA_HOME (or ~/.local/share) elsewhere.
func DatabaseDir() (string, error) {
	home, err := dataHome()
	if err != nil {
		return "", errors.Wrap(err, "locate data directory")
	}
	dir := filepath.Join(home, appName, "db")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create database directory")
	}
	return dir, nil
}

func dataHome() (string, error) {
	env := "XDG_DATA_HOME"
	fallback := []string{".local", "share"}
	switch runtime.GOOS {
	case "darwin":
		env, fallback = "", []string{"Library", "Application Support"}
	case "windows":
		env, fallback = "APPDATA", []string{"AppData", "Roaming"}
	}

	if env != "" {
		if dir := os.Getenv(env); dir != "" {
			return dir, nil
		}
	}
	user, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{user}, fallback...)...), nil
}
