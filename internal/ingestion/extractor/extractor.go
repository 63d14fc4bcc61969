package extractor

import (
	"fmt"
	"strings"

	"github.com/nisschay/Edu-Rag/internal/platform/logger"
)

// SupportedTypes lists the upload extensions the extractor can handle,
// normalized to lower case without the dot.
var SupportedTypes = map[string]bool{
	"pdf":  true,
	"docx": true,
	"pptx": true,
	"ppt":  true,
	"txt":  true,
	"md":   true,
}

// ExtractionError wraps a per-file extraction failure with the file it
// came from so the pipeline can record it verbatim.
type ExtractionError struct {
	FileType string
	Path     string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s file %s: %v", e.FileType, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor turns a stored upload into plain text.
type Extractor interface {
	Extract(path, fileType string) (string, error)
}

type extractor struct {
	log *logger.Logger
}

func New(baseLog *logger.Logger) Extractor {
	return &extractor{log: baseLog.With("component", "extractor")}
}

func (e *extractor) Extract(path, fileType string) (string, error) {
	ft := strings.ToLower(strings.TrimPrefix(fileType, "."))
	var (
		text string
		err  error
	)
	switch ft {
	case "pdf":
		text, err = extractPDF(path)
	case "docx":
		text, err = extractDOCX(path)
	case "pptx", "ppt":
		text, err = extractPPTX(path)
	case "txt", "md":
		text, err = extractPlain(path)
	default:
		return "", &ExtractionError{FileType: ft, Path: path, Err: fmt.Errorf("unsupported file type")}
	}
	if err != nil {
		return "", &ExtractionError{FileType: ft, Path: path, Err: err}
	}
	e.log.Debug("extracted text", "path", path, "type", ft, "chars", len(text))
	return text, nil
}
