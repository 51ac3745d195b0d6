package utils

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// VideoFormats lists the file suffixes registered as clips
var VideoFormats = []string{
	"mkv", "flv", "vob", "ogv", "ogg",
	"264", "263", "mjpeg", "avc", "m2ts",
	"mts", "avi", "mov", "qt", "wmv", "mp4",
	"m4p", "m4v", "mpg", "mp2", "mpeg",
	"mpe", "mpv", "m2v", "3gp", "3g2",
	"f4v", "f4p", "f4a", "f4b", "webm",
}

var videoFormatSet = func() map[string]bool {
	m := make(map[string]bool, len(VideoFormats))
	for _, f := range VideoFormats {
		m[f] = true
	}
	return m
}()

// AnalyzeFile splits a file name at its last dot and reports whether the
// suffix is a known video format. Names without a suffix are never clips.
func AnalyzeFile(filename string) (isClip bool, name, format string) {
	idx := strings.LastIndex(filename, ".")
	if idx <= 0 || idx == len(filename)-1 {
		return false, filename, ""
	}
	name, format = filename[:idx], filename[idx+1:]
	return videoFormatSet[strings.ToLower(format)], name, format
}

// IsVideoFile checks if the filename has a known video suffix
func IsVideoFile(filename string) bool {
	isClip, _, _ := AnalyzeFile(filename)
	return isClip
}

// HashFile returns the hex BLAKE2b-256 digest of a file's content
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for hashing: %w", path, err)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
