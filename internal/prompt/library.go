package prompt

import (
	"fmt"
	"sort"
	"sync"

	"github.com/threatsim/threatsim/internal/types"
)

// Library holds immutable base templates keyed by content type.
// It follows an init-then-freeze lifecycle: populated once at process start,
// read-only afterward. Reads are safe for concurrent use.
type Library struct {
	mu        sync.RWMutex
	templates map[ContentType]*Template
	frozen    bool
}

// NewLibrary creates an empty template library.
func NewLibrary() *Library {
	return &Library{
		templates: make(map[ContentType]*Template),
	}
}

// Register adds a template to the library.
// Registering a second template for an already-covered content type fails
// with TEMPLATE_DUPLICATE; use Replace for deliberate overrides.
func (l *Library) Register(tmpl *Template) error {
	if tmpl == nil {
		return types.NewError(types.TEMPLATE_INVALID, "template cannot be nil")
	}
	if err := tmpl.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen {
		return types.NewError(types.TEMPLATE_INVALID,
			fmt.Sprintf("library is frozen, cannot register %q", tmpl.Name))
	}

	if existing, exists := l.templates[tmpl.ContentType]; exists {
		return types.NewError(types.TEMPLATE_DUPLICATE,
			fmt.Sprintf("content type %q already covered by template %q", tmpl.ContentType, existing.Name))
	}

	l.templates[tmpl.ContentType] = tmpl
	return nil
}

// Replace registers a template, overwriting any existing one for the same
// content type. This is the approved path for duplicates.
func (l *Library) Replace(tmpl *Template) error {
	if tmpl == nil {
		return types.NewError(types.TEMPLATE_INVALID, "template cannot be nil")
	}
	if err := tmpl.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen {
		return types.NewError(types.TEMPLATE_INVALID,
			fmt.Sprintf("library is frozen, cannot replace %q", tmpl.Name))
	}

	l.templates[tmpl.ContentType] = tmpl
	return nil
}

// Get returns the template for a content type.
// Fails with TEMPLATE_NOT_FOUND when no template covers the type.
func (l *Library) Get(contentType ContentType) (*Template, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tmpl, exists := l.templates[contentType]
	if !exists {
		return nil, types.NewError(types.TEMPLATE_NOT_FOUND,
			fmt.Sprintf("no template registered for content type %q", contentType))
	}
	return tmpl, nil
}

// Freeze seals the library against further registration.
func (l *Library) Freeze() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frozen = true
}

// List returns the registered content types in sorted order.
func (l *Library) List() []ContentType {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]ContentType, 0, len(l.templates))
	for ct := range l.templates {
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of registered templates.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.templates)
}
