package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/templui/hydrate/internal/apperror"
)

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

// SoundConstraints covers custom reminder sounds: short audio clips up to 100 KB.
var SoundConstraints = FileConstraints{
	AllowedMimeTypes: map[string]bool{
		"audio/mpeg":      true,
		"audio/wave":      true,
		"audio/aiff":      true,
		"audio/basic":     true,
		"application/ogg": true,
	},
	AllowedExtensions: map[string]bool{
		".mp3":  true,
		".wav":  true,
		".aif":  true,
		".aiff": true,
		".au":   true,
		".ogg":  true,
		".oga":  true,
	},
	MaxSize: 100 << 10,
}

// ValidateFile checks an upload against one or more constraint sets. The file
// must satisfy at least one of them.
func ValidateFile(header *multipart.FileHeader, constraints ...FileConstraints) error {
	if len(constraints) == 0 {
		return fmt.Errorf("no file constraints provided")
	}

	var lastErr error
	for _, constraint := range constraints {
		err := validateAgainstConstraint(header, constraint)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return lastErr
}

func validateAgainstConstraint(header *multipart.FileHeader, constraints FileConstraints) error {
	if header.Size > constraints.MaxSize {
		return apperror.Validation("file_too_large",
			fmt.Sprintf("file too large: maximum size is %d KB", constraints.MaxSize>>10))
	}

	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// http.DetectContentType looks at most at the first 512 bytes
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file: %w", err)
	}

	seeker, ok := file.(io.Seeker)
	if ok {
		_, err = seeker.Seek(0, io.SeekStart)
		if err != nil {
			return fmt.Errorf("failed to reset file pointer: %w", err)
		}
	}

	detectedType := DetectContentType(buffer[:n])
	if !constraints.AllowedMimeTypes[detectedType] {
		return apperror.Validation("invalid_file_type", "invalid file type").WithMeta("detected", detectedType)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !constraints.AllowedExtensions[ext] {
		return apperror.Validation("invalid_file_extension", "invalid file extension").WithMeta("extension", ext)
	}

	return nil
}

// DetectContentType sniffs the MIME type from magic numbers, dropping any
// parameters such as "; charset=".
func DetectContentType(head []byte) string {
	detected := http.DetectContentType(head)
	mediaType, _, _ := strings.Cut(detected, ";")
	return strings.TrimSpace(mediaType)
}
