package export

import (
	"fmt"
	"html/template"

	"studio/api/internal/block"
	"studio/api/internal/content"
	"studio/api/internal/render"
)

// ContentSource is the slice of the content store that export needs.
type ContentSource interface {
	Get(id string) (content.ContentItem, bool)
}

// Service turns a content item into a downloadable file.
type Service struct {
	store    ContentSource
	registry *block.Registry
}

// NewService creates an export service.
func NewService(store ContentSource, registry *block.Registry) *Service {
	return &Service{store: store, registry: registry}
}

// Export generates an export in the requested format.
func (s *Service) Export(req Request) (*Result, error) {
	item, ok := s.store.Get(req.ContentID)
	if !ok {
		return nil, content.ErrNotFound
	}

	page, err := RenderPageHTML(PageData{
		Title:       item.Title,
		Author:      item.Author,
		Status:      string(item.Status),
		UpdatedAt:   item.UpdatedAt,
		ContentHTML: template.HTML(render.HTML(s.registry, item.Document)),
	})
	if err != nil {
		return nil, fmt.Errorf("render export page: %w", err)
	}

	switch req.Format {
	case FormatHTML:
		return &Result{
			Data:     []byte(page),
			Filename: sanitizeFilename(item.Title) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	case FormatPDF:
		return exportPDF(page, item.Title)
	case FormatDOCX:
		return exportDOCX(page, item.Title)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
	}
}
