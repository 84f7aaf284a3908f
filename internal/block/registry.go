package block

import "studio/api/internal/rbac"

// RenderFunc projects a block's data to an HTML fragment.
type RenderFunc func(data map[string]any) string

// Toolbox is the descriptor shown to the editing UI for a block type.
type Toolbox struct {
	Title string `json:"title"`
	Icon  string `json:"icon"`
}

// Definition binds a block type to its default-data factory, renderer, and
// toolbox metadata. Access is a tag consulted by callers (template catalog,
// insert permission checks); the registry itself never enforces it.
type Definition struct {
	Default func() map[string]any
	Render  RenderFunc
	Toolbox Toolbox
	Access  rbac.AccessLevel
}

// Registry maps block type identifiers to definitions, preserving
// registration order for toolbox listings.
type Registry struct {
	order []string
	defs  map[string]Definition
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds or replaces a definition. Re-registering keeps the original
// position in the order.
func (r *Registry) Register(blockType string, def Definition) {
	if _, exists := r.defs[blockType]; !exists {
		r.order = append(r.order, blockType)
	}
	r.defs[blockType] = def
}

func (r *Registry) Has(blockType string) bool {
	_, ok := r.defs[blockType]
	return ok
}

// Default returns a fresh default data map for the type, or false for an
// unknown type. The map is newly built on every call so callers may mutate it.
func (r *Registry) Default(blockType string) (map[string]any, bool) {
	def, ok := r.defs[blockType]
	if !ok || def.Default == nil {
		return nil, false
	}
	return def.Default(), true
}

// Renderer returns the render function for the type, or nil when the type is
// unregistered. Unknown types never panic; callers render a placeholder.
func (r *Registry) Renderer(blockType string) RenderFunc {
	def, ok := r.defs[blockType]
	if !ok {
		return nil
	}
	return def.Render
}

func (r *Registry) Definition(blockType string) (Definition, bool) {
	def, ok := r.defs[blockType]
	return def, ok
}

// Types returns all registered type identifiers in registration order.
func (r *Registry) Types() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
