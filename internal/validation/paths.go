package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidPath is wrapped by every rejection from FileValidator.
var ErrInvalidPath = errors.New("invalid path")

// FileValidator checks file paths given on the command line or in the config
// file before anything is created at them.
type FileValidator struct {
	// AllowHomeExpansion determines if a leading "~/" is expanded
	AllowHomeExpansion bool
	// MaxPathLength is the maximum allowed path length
	MaxPathLength int
}

func NewFileValidator() *FileValidator {
	return &FileValidator{
		AllowHomeExpansion: true,
		MaxPathLength:      4096,
	}
}

// ValidateFile returns the cleaned absolute path. The file need not exist,
// but an existing directory at the path is rejected.
func (v *FileValidator) ValidateFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: path cannot be empty", ErrInvalidPath)
	}
	if len(path) > v.MaxPathLength {
		return "", fmt.Errorf("%w: path too long (max %d characters)", ErrInvalidPath, v.MaxPathLength)
	}
	for _, r := range path {
		if r == 0 {
			return "", fmt.Errorf("%w: path contains null bytes", ErrInvalidPath)
		}
		if r < 32 && r != '\t' {
			return "", fmt.Errorf("%w: path contains control characters", ErrInvalidPath)
		}
	}

	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: directory traversal not allowed", ErrInvalidPath)
		}
	}

	expanded, err := v.expand(path)
	if err != nil {
		return "", err
	}

	if info, err := os.Stat(expanded); err == nil && info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory, not a file", ErrInvalidPath, expanded)
	}
	return expanded, nil
}

func (v *FileValidator) expand(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		if !v.AllowHomeExpansion || !strings.HasPrefix(path, "~/") {
			return "", fmt.Errorf("%w: tilde expansion not allowed or invalid tilde usage", ErrInvalidPath)
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot make path absolute: %w", err)
	}
	return filepath.Clean(abs), nil
}
