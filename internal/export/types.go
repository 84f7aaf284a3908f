// Package export turns content items into downloadable HTML, PDF, and DOCX
// files.
package export

import "errors"

// Format represents the export output format.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// Request contains parameters for an export operation.
type Request struct {
	ContentID string
	Format    Format
}

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrUnsupportedFormat indicates the requested format is not one of
	// html, pdf, or docx.
	ErrUnsupportedFormat = errors.New("export format unsupported")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrDOCXDependencyMissing indicates DOCX export runtime dependencies are unavailable.
	ErrDOCXDependencyMissing = errors.New("export docx dependency missing")
)
