package ffmpegdecoder

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// ErrFFmpegNotFound is returned when no ffmpeg executable can be located.
var ErrFFmpegNotFound = errors.New("ffmpegdecoder: ffmpeg not found in PATH")

var customFFmpegPath string

// SetFFmpegPath sets a custom ffmpeg executable path.
// An empty path restores the default search.
func SetFFmpegPath(path string) {
	customFFmpegPath = path
}

// IsAvailable checks if ffmpeg is available on the system.
func IsAvailable() bool {
	_, err := FindFFmpeg()
	return err == nil
}

// FindFFmpeg searches for ffmpeg in PATH and common locations.
// Priority: 1) SetFFmpegPath, 2) FFMPEG_PATH env, 3) PATH, 4) common locations
func FindFFmpeg() (string, error) {
	if customFFmpegPath != "" {
		if _, err := os.Stat(customFFmpegPath); err == nil {
			return customFFmpegPath, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, customFFmpegPath)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}
	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files (x86)\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/usr/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}

	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrFFmpegNotFound
}
