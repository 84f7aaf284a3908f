package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"studio/api/internal/block"
	"studio/api/internal/content"
	"studio/api/internal/export"
	"studio/api/internal/rbac"
	"studio/api/internal/search"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"redis": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["redis"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	principal := principalFrom(r)
	parts := splitPath(r.URL.Path)

	if len(parts) == 2 && parts[0] == "api" && parts[1] == "content" {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"content": s.service.ListContent()})
		case http.MethodPost:
			var body struct {
				Title string `json:"title"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			item, err := s.service.CreateContent(r.Context(), principal, strings.TrimSpace(body.Title))
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, item)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if len(parts) == 2 && parts[0] == "api" && parts[1] == "blocks" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]any{"blockTypes": s.service.BlockTypes(principal)})
		return
	}

	if len(parts) == 2 && parts[0] == "api" && parts[1] == "templates" && r.Method == http.MethodGet {
		query := r.URL.Query()
		templates := s.service.SearchTemplates(principal, query.Get("q"), query.Get("category"))
		writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
		return
	}

	if len(parts) == 2 && parts[0] == "api" && parts[1] == "search" && r.Method == http.MethodGet {
		query := r.URL.Query()
		q := search.Query{
			Text:         query.Get("q"),
			FilterStatus: query.Get("status"),
			FilterType:   query.Get("type"),
			Limit:        intParam(query.Get("limit")),
			Offset:       intParam(query.Get("offset")),
		}
		writeJSON(w, http.StatusOK, s.service.SearchContent(q))
		return
	}

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "assets" && parts[2] == "url" && r.Method == http.MethodGet {
		objectName := r.URL.Query().Get("object")
		if objectName == "" {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "object is required", nil)
			return
		}
		url, err := s.service.AssetURL(r.Context(), objectName)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"url": url})
		return
	}

	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "content" {
		contentID := parts[2]
		s.handleContent(w, r, principal, contentID, parts[3:])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleContent(w http.ResponseWriter, r *http.Request, principal Principal, contentID string, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			item, err := s.service.GetContent(contentID)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, item)
		case http.MethodPut:
			var patch content.FieldPatch
			if err := decodeBody(r, &patch); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			item, err := s.service.UpdateContentFields(r.Context(), principal, contentID, patch)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, item)
		case http.MethodDelete:
			if err := s.service.DeleteContent(r.Context(), principal, contentID); err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	action := rest[0]

	switch {
	case action == "publish" && len(rest) == 1 && r.Method == http.MethodPost:
		item, err := s.service.Publish(r.Context(), principal, contentID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)

	case action == "unpublish" && len(rest) == 1 && r.Method == http.MethodPost:
		item, err := s.service.Unpublish(r.Context(), principal, contentID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)

	case action == "schedule" && len(rest) == 1 && r.Method == http.MethodPost:
		var body struct {
			ScheduledAt time.Time `json:"scheduledAt"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		item, err := s.service.Schedule(r.Context(), principal, contentID, body.ScheduledAt)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)

	case action == "document" && len(rest) == 1:
		switch r.Method {
		case http.MethodGet:
			item, err := s.service.GetContent(contentID)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"document": item.Document})
		case http.MethodPut:
			var body struct {
				Document      json.RawMessage `json:"document"`
				ChangeSummary string          `json:"changeSummary"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			doc, err := parseDocument(body.Document)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
				return
			}
			version, err := s.service.SaveDocument(r.Context(), principal, contentID, doc, body.ChangeSummary)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"version": version})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}

	case action == "versions" && len(rest) == 1:
		switch r.Method {
		case http.MethodGet:
			versions, err := s.service.Versions(r.Context(), contentID)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
		case http.MethodPost:
			var body struct {
				ChangeSummary string `json:"changeSummary"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			version, err := s.service.SnapshotVersion(r.Context(), principal, contentID, body.ChangeSummary)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, version)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}

	case action == "versions" && len(rest) == 3 && rest[2] == "restore" && r.Method == http.MethodPost:
		doc, err := s.service.RestoreVersion(r.Context(), principal, contentID, rest[1])
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"document": doc})

	case action == "preview" && len(rest) == 1 && r.Method == http.MethodGet:
		nodes, html, err := s.service.RenderPreview(contentID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes, "html": html})

	case action == "export" && len(rest) == 1 && r.Method == http.MethodGet:
		format := export.Format(r.URL.Query().Get("format"))
		if format == "" {
			format = export.FormatHTML
		}
		result, err := s.service.Export(principal, contentID, format)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", result.MimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Data)

	case action == "session" && len(rest) == 1:
		switch r.Method {
		case http.MethodGet:
			info, open := s.service.Session(contentID)
			if !open {
				writeJSON(w, http.StatusOK, map[string]any{"open": false})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"open": true, "session": info})
		case http.MethodPost:
			var body struct {
				Color string `json:"color"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			info, err := s.service.OpenSession(r.Context(), principal, contentID, body.Color)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, info)
		case http.MethodDelete:
			if err := s.service.CloseSession(r.Context(), principal, contentID); err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}

	case action == "blocks" && len(rest) == 1 && r.Method == http.MethodPost:
		var body struct {
			Type string         `json:"type"`
			Data map[string]any `json:"data"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		result, err := s.service.InsertBlock(r.Context(), principal, contentID, body.Type, body.Data)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		status := http.StatusOK
		if !result.OK {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, result)

	case action == "template" && len(rest) == 1 && r.Method == http.MethodPost:
		var body struct {
			TemplateID string `json:"templateId"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		report, err := s.service.ApplyTemplate(r.Context(), principal, contentID, body.TemplateID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)

	case action == "presence" && len(rest) == 1 && r.Method == http.MethodGet:
		cursors, err := s.service.Cursors(principal, contentID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cursors": cursors})

	case action == "presence" && len(rest) == 2 && rest[1] == "cursor" && r.Method == http.MethodPost:
		var body struct {
			X              float64 `json:"x"`
			Y              float64 `json:"y"`
			EditingSection string  `json:"editingSection"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.PublishCursor(r.Context(), principal, contentID, body.X, body.Y, body.EditingSection); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case action == "locks" && len(rest) == 2:
		sectionID := rest[1]
		switch r.Method {
		case http.MethodPost:
			granted, err := s.service.AcquireLock(r.Context(), principal, contentID, sectionID)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			if !granted {
				writeError(w, http.StatusConflict, "LOCK_HELD", "Section is locked by another user", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"granted": true})
		case http.MethodDelete:
			if err := s.service.ReleaseLock(r.Context(), principal, contentID, sectionID); err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}

	case action == "assets" && len(rest) == 1 && r.Method == http.MethodPost:
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "multipart file field is required", nil)
			return
		}
		defer file.Close()
		contentType := header.Header.Get("Content-Type")
		asset, err := s.service.UploadAsset(r.Context(), principal, contentID, header.Filename, contentType, file, header.Size)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, asset)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	writeError(w, status, code, message, details)
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, content.ErrNotFound) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, export.ErrUnsupportedFormat) {
		return http.StatusBadRequest, "INVALID_FORMAT", "Unsupported export format", nil
	}
	if errors.Is(err, export.ErrPDFDependencyMissing) || errors.Is(err, export.ErrDOCXDependencyMissing) {
		return http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export dependency missing", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

// principalFrom reads caller identity from gateway headers. Unauthenticated
// callers act as an anonymous viewer.
func principalFrom(r *http.Request) Principal {
	userID := strings.TrimSpace(r.Header.Get("X-Studio-User"))
	if userID == "" {
		userID = "usr_anonymous"
	}
	userName := strings.TrimSpace(r.Header.Get("X-Studio-User-Name"))
	if userName == "" {
		userName = "Anonymous"
	}
	return Principal{
		UserID:   userID,
		UserName: userName,
		Role:     rbac.Normalize(strings.TrimSpace(r.Header.Get("X-Studio-Role"))),
	}
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-Studio-User, X-Studio-User-Name, X-Studio-Role")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func parseDocument(raw json.RawMessage) (block.Document, error) {
	if len(raw) == 0 {
		return block.Document{}, fmt.Errorf("document is required")
	}
	var doc block.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return block.Document{}, fmt.Errorf("invalid document payload")
	}
	if doc.Version == "" {
		doc.Version = block.SchemaVersion
	}
	return doc, nil
}

func intParam(raw string) int {
	if raw == "" {
		return 0
	}
	var n int
	if _, err := fmt.Sscanf(raw, "%d", &n); err != nil {
		return 0
	}
	return n
}
