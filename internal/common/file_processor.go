package common

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"coverletter/internal/errors"
)

// textExtensions are the input extensions read without a warning
var textExtensions = []string{".txt", ".md", ".markdown", ".text", ".json"}

// FileProcessor handles common file operations
type FileProcessor struct {
	logger *errors.Logger
	// maxSize caps input files in bytes; zero means no limit
	maxSize int64
}

// NewFileProcessor creates a new file processor instance
func NewFileProcessor(logger *errors.Logger, maxSize int64) *FileProcessor {
	return &FileProcessor{logger: logger, maxSize: maxSize}
}

// ReadFile validates and reads one input file
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	info, err := statInputFile(filename)
	if err != nil {
		return "", err
	}

	if fp.maxSize > 0 && info.Size() > fp.maxSize {
		return "", errors.NewValidationError(errors.ErrCodeRequestTooLarge,
			fmt.Sprintf("File %s is %s, larger than the %s limit", filename, formatFileSize(info.Size()), formatFileSize(fp.maxSize)), nil)
	}

	if !isTextFile(filename) {
		fp.logger.Warn("File may not be a text file", "filename", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			// Log the error but don't override the main operation result
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	fp.logger.Debug("Read input file", "filename", filename, "size", formatFileSize(info.Size()))
	return string(content), nil
}

// ReadJSONFile reads filename and decodes it into v, rejecting unknown fields
func (fp *FileProcessor) ReadJSONFile(filename string, v any) error {
	content, err := fp.ReadFile(filename)
	if err != nil {
		return err
	}

	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Invalid JSON in %s", filename), err)
	}
	return nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, []byte(content), 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile checks that the output path is not a directory.
// An empty filename means stdout.
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}

	if info, err := os.Stat(filename); err == nil && info.IsDir() {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s is a directory", filename), nil)
	}

	return nil
}

func statInputFile(filename string) (os.FileInfo, error) {
	if filename == "" {
		return nil, errors.NewValidationError("INVALID_INPUT_FILE", "filename cannot be empty", nil)
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot access file: %s", filename), err)
	}

	if info.IsDir() {
		return nil, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Path is a directory, not a file: %s", filename), nil)
	}

	return info, nil
}

// isTextFile checks if the file has a text-based extension
func isTextFile(filename string) bool {
	return slices.Contains(textExtensions, strings.ToLower(filepath.Ext(filename)))
}

// formatFileSize returns a human-readable file size
func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
