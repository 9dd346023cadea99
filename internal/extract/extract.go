package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/keenlabs/docvec/internal/model"
	apperr "github.com/keenlabs/docvec/internal/pkg/errors"
)

// Supported reports whether path has an extension this package can extract
// text from.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".pdf":
		return true
	}
	return false
}

// TypeOf maps a path's extension to its stored file type. Call Supported
// first; unknown extensions come back as plain text.
func TypeOf(path string) model.FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return model.FileTypePDF
	case ".md":
		return model.FileTypeMarkdown
	default:
		return model.FileTypeText
	}
}

// Text extracts the plain text of the file at path. Failures wrap ErrRead so
// callers can skip the file and keep the batch going.
func Text(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return readTextFile(path)
	case ".md":
		return readMarkdownFile(path)
	case ".pdf":
		return readPDFFile(path)
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", apperr.ErrRead, filepath.Ext(path))
	}
}

// readTextFile reads path as UTF-8, falling back to a Latin-1 reinterpretation
// when the bytes are not valid UTF-8.
func readTextFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrRead, err)
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	return decodeLatin1(raw), nil
}

// decodeLatin1 maps each byte to the code point of the same value, which is
// exactly the ISO-8859-1 interpretation.
func decodeLatin1(raw []byte) string {
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, b := range raw {
		sb.WriteRune(rune(b))
	}
	return sb.String()
}
