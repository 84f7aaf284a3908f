package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"studio/api/internal/assets"
	"studio/api/internal/block"
	"studio/api/internal/config"
	"studio/api/internal/content"
	"studio/api/internal/editor"
	"studio/api/internal/export"
	"studio/api/internal/history"
	"studio/api/internal/presence"
	"studio/api/internal/rbac"
	"studio/api/internal/render"
	"studio/api/internal/search"
	"studio/api/internal/template"
)

// Principal identifies the caller of an operation. Identity arrives from the
// gateway in headers; the API itself does not authenticate.
type Principal struct {
	UserID   string
	UserName string
	Role     rbac.Role
}

// editSession is one user's live editing session on one content item. At
// most one session exists per content id.
type editSession struct {
	contentID   string
	userID      string
	userName    string
	adapter     *editor.Adapter
	autosaver   *content.Autosaver
	coordinator *presence.Coordinator
	startedAt   time.Time
}

// SessionInfo is the outward view of an editing session.
type SessionInfo struct {
	ContentID string    `json:"contentId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"startedAt"`
}

// BlockTypeInfo describes one registered block type for the editor toolbox.
type BlockTypeInfo struct {
	Type    string           `json:"type"`
	Toolbox block.Toolbox    `json:"toolbox"`
	Access  rbac.AccessLevel `json:"access"`
}

type Service struct {
	cfg      config.Config
	store    *content.Store
	history  *history.Manager
	registry *block.Registry
	catalog  *template.Catalog
	search   *search.Service
	exporter *export.Service
	assets   *assets.Store // nil when object storage is not configured
	bus      presence.Bus

	mu       sync.Mutex
	sessions map[string]*editSession
}

func NewService(
	cfg config.Config,
	store *content.Store,
	hist *history.Manager,
	registry *block.Registry,
	catalog *template.Catalog,
	searchSvc *search.Service,
	exporter *export.Service,
	assetStore *assets.Store,
	bus presence.Bus,
) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		history:  hist,
		registry: registry,
		catalog:  catalog,
		search:   searchSvc,
		exporter: exporter,
		assets:   assetStore,
		bus:      bus,
		sessions: make(map[string]*editSession),
	}
}

// Ping reports backing store connectivity for readiness checks.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Bootstrap warms the search indexes from the content store.
func (s *Service) Bootstrap(ctx context.Context) {
	items := s.store.List()
	records := make([]search.Record, 0, len(items))
	for _, item := range items {
		records = append(records, indexRecord(item))
	}
	s.search.ReindexAll(records)
}

func indexRecord(item content.ContentItem) search.Record {
	return search.Record{
		ID:     item.ID,
		Title:  item.Title,
		Slug:   item.Slug,
		Type:   item.Type,
		Status: string(item.Status),
		Author: item.Author,
		Tags:   item.Tags,
		Body:   item.Document.PlainText(),
	}
}

// Content operations

func (s *Service) ListContent() []content.ContentItem {
	return s.store.List()
}

func (s *Service) GetContent(id string) (content.ContentItem, error) {
	item, ok := s.store.Get(id)
	if !ok {
		return content.ContentItem{}, domainError(http.StatusNotFound, "NOT_FOUND", "Content not found", nil)
	}
	return item, nil
}

func (s *Service) CreateContent(ctx context.Context, p Principal, title string) (content.ContentItem, error) {
	if err := s.requireEditor(p); err != nil {
		return content.ContentItem{}, err
	}
	if title == "" {
		return content.ContentItem{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}
	item := s.store.Create(ctx, title, p.UserName)
	s.search.IndexContent(indexRecord(item))
	return item, nil
}

func (s *Service) UpdateContentFields(ctx context.Context, p Principal, id string, patch content.FieldPatch) (content.ContentItem, error) {
	if err := s.requireEditor(p); err != nil {
		return content.ContentItem{}, err
	}
	if err := s.store.UpdateFields(ctx, id, patch); err != nil {
		return content.ContentItem{}, s.storeError(err)
	}
	item, _ := s.store.Get(id)
	s.search.IndexContent(indexRecord(item))
	return item, nil
}

// DeleteContent removes the item, its version history, its search record,
// and its stored assets. An open session on the item is torn down first.
func (s *Service) DeleteContent(ctx context.Context, p Principal, id string) error {
	if err := s.requireEditor(p); err != nil {
		return err
	}

	s.mu.Lock()
	if session, ok := s.sessions[id]; ok {
		delete(s.sessions, id)
		s.mu.Unlock()
		s.teardown(ctx, session, false)
	} else {
		s.mu.Unlock()
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return s.storeError(err)
	}
	s.history.Drop(ctx, id)
	s.search.DeleteContent(id)
	if s.assets != nil {
		s.assets.DeleteAll(ctx, id)
	}
	return nil
}

func (s *Service) Publish(ctx context.Context, p Principal, id string) (content.ContentItem, error) {
	return s.lifecycle(ctx, p, id, func() error { return s.store.Publish(ctx, id) })
}

func (s *Service) Unpublish(ctx context.Context, p Principal, id string) (content.ContentItem, error) {
	return s.lifecycle(ctx, p, id, func() error { return s.store.Unpublish(ctx, id) })
}

func (s *Service) Schedule(ctx context.Context, p Principal, id string, at time.Time) (content.ContentItem, error) {
	if at.IsZero() {
		return content.ContentItem{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "scheduledAt is required", nil)
	}
	return s.lifecycle(ctx, p, id, func() error { return s.store.Schedule(ctx, id, at) })
}

func (s *Service) lifecycle(ctx context.Context, p Principal, id string, op func() error) (content.ContentItem, error) {
	if err := s.requireEditor(p); err != nil {
		return content.ContentItem{}, err
	}
	if err := op(); err != nil {
		return content.ContentItem{}, s.storeError(err)
	}
	item, _ := s.store.Get(id)
	s.search.IndexContent(indexRecord(item))
	return item, nil
}

// SaveDocument is the explicit save: it replaces the stored document,
// records a version snapshot, and refreshes the search index. Autosave goes
// through the session's debouncer instead and records no version.
func (s *Service) SaveDocument(ctx context.Context, p Principal, id string, doc block.Document, changeSummary string) (history.ContentVersion, error) {
	if err := s.requireEditor(p); err != nil {
		return history.ContentVersion{}, err
	}
	if err := s.store.UpdateDocument(ctx, id, doc); err != nil {
		return history.ContentVersion{}, s.storeError(err)
	}
	version, err := s.history.Snapshot(ctx, id, p.UserName, changeSummary)
	if err != nil {
		return history.ContentVersion{}, s.storeError(err)
	}
	item, _ := s.store.Get(id)
	s.search.IndexContent(indexRecord(item))
	return version, nil
}

// Version history

func (s *Service) Versions(ctx context.Context, id string) ([]history.ContentVersion, error) {
	if _, ok := s.store.Get(id); !ok {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Content not found", nil)
	}
	return s.history.List(ctx, id), nil
}

func (s *Service) SnapshotVersion(ctx context.Context, p Principal, id, changeSummary string) (history.ContentVersion, error) {
	if err := s.requireEditor(p); err != nil {
		return history.ContentVersion{}, err
	}
	version, err := s.history.Snapshot(ctx, id, p.UserName, changeSummary)
	if err != nil {
		return history.ContentVersion{}, s.storeError(err)
	}
	return version, nil
}

// RestoreVersion swaps the live document back to a snapshot. Restoring does
// not record a new version; the restored snapshot stays where it is in the
// list.
func (s *Service) RestoreVersion(ctx context.Context, p Principal, id, versionID string) (block.Document, error) {
	if err := s.requireEditor(p); err != nil {
		return block.Document{}, err
	}
	doc, ok := s.history.Restore(ctx, id, versionID)
	if !ok {
		return block.Document{}, domainError(http.StatusNotFound, "NOT_FOUND", "Version not found", nil)
	}
	item, _ := s.store.Get(id)
	s.search.IndexContent(indexRecord(item))
	return doc, nil
}

// Rendering and search

func (s *Service) RenderPreview(id string) ([]render.Node, string, error) {
	item, ok := s.store.Get(id)
	if !ok {
		return nil, "", domainError(http.StatusNotFound, "NOT_FOUND", "Content not found", nil)
	}
	nodes := render.Render(s.registry, item.Document)
	return nodes, render.HTML(s.registry, item.Document), nil
}

func (s *Service) SearchContent(q search.Query) search.Response {
	return s.search.Search(q)
}

// Block types and templates

// BlockTypes lists the toolbox entries the caller's role may use.
func (s *Service) BlockTypes(p Principal) []BlockTypeInfo {
	types := s.registry.Types()
	out := make([]BlockTypeInfo, 0, len(types))
	for _, t := range types {
		def, ok := s.registry.Definition(t)
		if !ok || !rbac.CanAccess(p.Role, def.Access) {
			continue
		}
		out = append(out, BlockTypeInfo{Type: t, Toolbox: def.Toolbox, Access: def.Access})
	}
	return out
}

func (s *Service) SearchTemplates(p Principal, query, category string) []template.BlockTemplate {
	return s.catalog.Search(query, category, p.Role)
}

// ApplyTemplate inserts a template's blocks through the caller's open
// editing session. Partial success is reported, not rolled back.
func (s *Service) ApplyTemplate(ctx context.Context, p Principal, contentID, templateID string) (template.Report, error) {
	tpl, ok := s.catalog.Get(templateID)
	if !ok {
		return template.Report{}, domainError(http.StatusNotFound, "NOT_FOUND", "Template not found", nil)
	}
	if !rbac.CanAccess(p.Role, tpl.Access) {
		return template.Report{}, domainError(http.StatusForbidden, "FORBIDDEN", "Template not available for this role", nil)
	}
	session, err := s.ownedSession(contentID, p.UserID)
	if err != nil {
		return template.Report{}, err
	}
	return template.Instantiate(ctx, tpl, session.adapter), nil
}

// Editing sessions

// OpenSession starts the single editing session for a content item. The
// editor boots with the stored document and autosave is wired to the
// adapter's change notifications.
func (s *Service) OpenSession(ctx context.Context, p Principal, contentID, color string) (SessionInfo, error) {
	if err := s.requireEditor(p); err != nil {
		return SessionInfo{}, err
	}
	item, ok := s.store.Get(contentID)
	if !ok {
		return SessionInfo{}, domainError(http.StatusNotFound, "NOT_FOUND", "Content not found", nil)
	}

	session := &editSession{
		contentID: contentID,
		userID:    p.UserID,
		userName:  p.UserName,
		startedAt: time.Now().UTC(),
	}
	session.autosaver = content.NewAutosaver(s.store, contentID, s.cfg.AutosaveDebounce)
	session.adapter = editor.New(s.registry, editor.NewMemoryEngine())
	session.adapter.OnChange(session.autosaver.Notify)
	session.coordinator = presence.NewCoordinator(s.bus, contentID, p.UserID, p.UserName, color, s.cfg.PresenceThrottle, s.cfg.LockTTL)

	if err := session.adapter.Initialize(ctx, item.Document); err != nil {
		session.autosaver.Stop()
		return SessionInfo{}, domainError(http.StatusInternalServerError, "EDITOR_BOOT_FAILED", "Editor failed to initialize", nil)
	}
	if err := session.coordinator.Join(ctx); err != nil {
		session.autosaver.Stop()
		session.adapter.Dispose()
		return SessionInfo{}, domainError(http.StatusInternalServerError, "PRESENCE_JOIN_FAILED", "Presence channel unavailable", nil)
	}

	s.mu.Lock()
	if existing, open := s.sessions[contentID]; open {
		s.mu.Unlock()
		session.autosaver.Stop()
		session.adapter.Dispose()
		session.coordinator.Leave(ctx)
		return SessionInfo{}, domainError(http.StatusConflict, "SESSION_OPEN", "Content is being edited",
			map[string]any{"userId": existing.userID, "userName": existing.userName})
	}
	s.sessions[contentID] = session
	s.mu.Unlock()

	return s.sessionInfo(session), nil
}

// CloseSession flushes pending autosave and tears the session down. Only the
// session owner may close it.
func (s *Service) CloseSession(ctx context.Context, p Principal, contentID string) error {
	session, err := s.ownedSession(contentID, p.UserID)
	if err != nil {
		return err
	}
	s.dropSession(contentID)
	s.teardown(ctx, session, true)
	item, _ := s.store.Get(contentID)
	s.search.IndexContent(indexRecord(item))
	return nil
}

func (s *Service) Session(contentID string) (SessionInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[contentID]
	if !ok {
		return SessionInfo{}, false
	}
	return s.sessionInfo(session), true
}

func (s *Service) sessionInfo(session *editSession) SessionInfo {
	return SessionInfo{
		ContentID: session.contentID,
		UserID:    session.userID,
		UserName:  session.userName,
		State:     string(session.adapter.State()),
		StartedAt: session.startedAt,
	}
}

// teardown stops autosave (flushing when asked), disposes the editor, and
// leaves the presence channel. The session must already be out of the map.
func (s *Service) teardown(ctx context.Context, session *editSession, flush bool) {
	if flush {
		session.autosaver.Flush(ctx)
	}
	session.autosaver.Stop()
	session.adapter.Dispose()
	session.coordinator.Leave(ctx)
}

func (s *Service) dropSession(contentID string) {
	s.mu.Lock()
	delete(s.sessions, contentID)
	s.mu.Unlock()
}

func (s *Service) ownedSession(contentID, userID string) (*editSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[contentID]
	if !ok {
		return nil, domainError(http.StatusConflict, "NO_SESSION", "No editing session is open", nil)
	}
	if session.userID != userID {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Session belongs to another user", nil)
	}
	return session, nil
}

// InsertBlock inserts a block through the caller's open session. The typed
// result carries failure reasons instead of an error.
func (s *Service) InsertBlock(ctx context.Context, p Principal, contentID, blockType string, data map[string]any) (editor.InsertResult, error) {
	session, err := s.ownedSession(contentID, p.UserID)
	if err != nil {
		return editor.InsertResult{}, err
	}
	return session.adapter.InsertBlock(ctx, blockType, data), nil
}

// Presence and locks

func (s *Service) PublishCursor(ctx context.Context, p Principal, contentID string, x, y float64, editingSection string) error {
	session, err := s.ownedSession(contentID, p.UserID)
	if err != nil {
		return err
	}
	session.coordinator.PublishCursor(ctx, x, y, editingSection)
	return nil
}

func (s *Service) Cursors(p Principal, contentID string) ([]presence.Cursor, error) {
	session, err := s.ownedSession(contentID, p.UserID)
	if err != nil {
		return nil, err
	}
	return session.coordinator.Cursors(), nil
}

func (s *Service) AcquireLock(ctx context.Context, p Principal, contentID, sectionID string) (bool, error) {
	session, err := s.ownedSession(contentID, p.UserID)
	if err != nil {
		return false, err
	}
	return session.coordinator.AcquireLock(ctx, sectionID), nil
}

func (s *Service) ReleaseLock(ctx context.Context, p Principal, contentID, sectionID string) error {
	session, err := s.ownedSession(contentID, p.UserID)
	if err != nil {
		return err
	}
	session.coordinator.ReleaseLock(ctx, sectionID)
	return nil
}

// Export and assets

func (s *Service) Export(p Principal, contentID string, format export.Format) (*export.Result, error) {
	result, err := s.exporter.Export(export.Request{ContentID: contentID, Format: format})
	if err != nil {
		return nil, s.storeError(err)
	}
	return result, nil
}

func (s *Service) UploadAsset(ctx context.Context, p Principal, contentID, fileName, contentType string, r io.Reader, size int64) (assets.Asset, error) {
	if err := s.requireEditor(p); err != nil {
		return assets.Asset{}, err
	}
	if s.assets == nil {
		return assets.Asset{}, domainError(http.StatusServiceUnavailable, "ASSETS_UNAVAILABLE", "Object storage not configured", nil)
	}
	if _, ok := s.store.Get(contentID); !ok {
		return assets.Asset{}, domainError(http.StatusNotFound, "NOT_FOUND", "Content not found", nil)
	}
	asset, err := s.assets.Upload(ctx, contentID, fileName, contentType, r, size)
	if err != nil {
		return assets.Asset{}, domainError(http.StatusBadGateway, "UPLOAD_FAILED", "Asset upload failed", nil)
	}
	return asset, nil
}

func (s *Service) AssetURL(ctx context.Context, objectName string) (string, error) {
	if s.assets == nil {
		return "", domainError(http.StatusServiceUnavailable, "ASSETS_UNAVAILABLE", "Object storage not configured", nil)
	}
	url, err := s.assets.PresignedURL(ctx, objectName, 15*time.Minute)
	if err != nil {
		return "", domainError(http.StatusBadGateway, "PRESIGN_FAILED", "Could not presign asset", nil)
	}
	return url, nil
}

// Shutdown closes every open session, flushing pending autosaves so nothing
// typed is lost.
func (s *Service) Shutdown(ctx context.Context) {
	s.mu.Lock()
	sessions := make([]*editSession, 0, len(s.sessions))
	for id, session := range s.sessions {
		sessions = append(sessions, session)
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	for _, session := range sessions {
		s.teardown(ctx, session, true)
	}
}

func (s *Service) requireEditor(p Principal) error {
	if !rbac.CanEdit(p.Role) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Role cannot modify content", nil)
	}
	return nil
}

func (s *Service) storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, content.ErrNotFound):
		return domainError(http.StatusNotFound, "NOT_FOUND", "Content not found", nil)
	default:
		return err
	}
}
