// Package voice resolves and lists reference voice samples.
//
// A voice sample is a short WAV recording used to condition synthesis toward
// a target voice. Samples live in a configured directory and are resolved
// once at startup.
package voice

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Sample file matching.
const (
	sampleExtension = ".wav"
)

// Data size constants for human-readable formatting.
const (
	byteUnit = 1
	kilobyte = byteUnit * 1024
	megabyte = kilobyte * 1024
	gigabyte = megabyte * 1024
)

// Size format strings.
const (
	formatGB    = "%.1f GB"
	formatMB    = "%.1f MB"
	formatKB    = "%.1f KB"
	formatBytes = "%d B"
)

// ErrSampleNotFound is returned when an explicitly requested sample is missing.
var ErrSampleNotFound = errors.New("voice sample not found")

// Sample describes one voice-sample candidate.
type Sample struct {
	// Path is the absolute path to the sample file.
	Path string

	// Name is the file name without directory.
	Name string

	// Size is the file size in bytes.
	Size int64
}

// List returns the WAV samples in dir in lexical order. A missing or empty
// directory yields an empty list and no error; the caller degrades to the
// default voice.
func List(dir string) ([]Sample, error) {
	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read sample directory %s: %w", dir, readErr)
	}

	var samples []Sample

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if !strings.EqualFold(filepath.Ext(entry.Name()), sampleExtension) {
			continue
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			return nil, fmt.Errorf(
				"failed to stat sample %s: %w",
				entry.Name(),
				infoErr,
			)
		}

		samples = append(samples, Sample{
			Path: filepath.Join(dir, entry.Name()),
			Name: entry.Name(),
			Size: info.Size(),
		})
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].Name < samples[j].Name })

	return samples, nil
}

// Resolve picks the voice sample for a session. An explicit path wins and
// must exist; otherwise the first sample in dir is auto-selected; otherwise
// "" is returned and the caller falls back to the default voice.
func Resolve(explicitPath, dir string) (string, error) {
	if explicitPath != "" {
		_, statErr := os.Stat(explicitPath)
		if statErr != nil {
			return "", fmt.Errorf("%w: %s", ErrSampleNotFound, explicitPath)
		}

		return explicitPath, nil
	}

	samples, listErr := List(dir)
	if listErr != nil {
		return "", listErr
	}

	if len(samples) == 0 {
		return "", nil
	}

	return samples[0].Path, nil
}

// FormatFileSize renders a byte count as a human-readable string
// (e.g., "1.2 GB", "500.5 KB").
func FormatFileSize(bytes int64) string {
	switch {
	case bytes >= gigabyte:
		return fmt.Sprintf(formatGB, float64(bytes)/gigabyte)
	case bytes >= megabyte:
		return fmt.Sprintf(formatMB, float64(bytes)/megabyte)
	case bytes >= kilobyte:
		return fmt.Sprintf(formatKB, float64(bytes)/kilobyte)
	default:
		return fmt.Sprintf(formatBytes, bytes)
	}
}
