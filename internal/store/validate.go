package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Deploy percentage bounds.
const (
	minDeployPercentage = 0
	maxDeployPercentage = 100
)

// MinWatchInterval is the smallest interval accepted by Poller.Watch.
const MinWatchInterval = 5 * time.Second

// artifactExtensions lists the accepted package file extensions (lowercase).
var artifactExtensions = map[string]bool{
	".zip": true,
	".crx": true,
}

// ValidateArtifact checks that path names an existing, non-empty regular
// file with a .zip or .crx extension. It performs no network activity.
func ValidateArtifact(path string) (os.FileInfo, error) {
	if path == "" {
		return nil, &ValidationError{Field: "file", Reason: "path is empty"}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !artifactExtensions[ext] {
		return nil, &ValidationError{
			Field:  "file",
			Reason: fmt.Sprintf("%s: extension must be .zip or .crx", path),
		}
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &ValidationError{Field: "file", Reason: fmt.Sprintf("%s does not exist", path)}
	}

	if err != nil {
		return nil, &ValidationError{Field: "file", Reason: err.Error()}
	}

	if !info.Mode().IsRegular() {
		return nil, &ValidationError{Field: "file", Reason: fmt.Sprintf("%s is not a regular file", path)}
	}

	if info.Size() == 0 {
		return nil, &ValidationError{Field: "file", Reason: fmt.Sprintf("%s is empty", path)}
	}

	return info, nil
}

// ValidateDeployPercentage checks that pct is within [0, 100].
func ValidateDeployPercentage(pct int) error {
	if pct < minDeployPercentage || pct > maxDeployPercentage {
		return &ValidationError{
			Field:  "deploy percentage",
			Reason: fmt.Sprintf("%d is outside %d..%d", pct, minDeployPercentage, maxDeployPercentage),
		}
	}

	return nil
}

// ValidateWatchInterval rejects intervals shorter than MinWatchInterval.
func ValidateWatchInterval(d time.Duration) error {
	if d < MinWatchInterval {
		return &ValidationError{
			Field:  "interval",
			Reason: fmt.Sprintf("%s is too small (minimum %s)", d, MinWatchInterval),
		}
	}

	return nil
}

func validateItemID(itemID string) error {
	if strings.TrimSpace(itemID) == "" {
		return &ValidationError{Field: "item ID", Reason: "must not be empty"}
	}

	return nil
}
