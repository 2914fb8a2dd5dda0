// Package prompt provides the prompt template library, the per-stage context
// builder, and template rendering for threat content generation.
package prompt

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"

	"github.com/threatsim/threatsim/internal/types"
)

// ContentType identifies the kind of threat content a template produces.
type ContentType string

const (
	ContentEmailPhishing   ContentType = "email_phishing"
	ContentSMSPhishing     ContentType = "sms_phishing"
	ContentVoiceScript     ContentType = "voice_script"
	ContentSocialMediaPost ContentType = "social_media_post"
	ContentDocumentLure    ContentType = "document_lure"
	ContentChatMessage     ContentType = "chat_message"
	ContentPretextScenario ContentType = "pretext_scenario"
)

// String returns the string representation of the ContentType
func (c ContentType) String() string {
	return string(c)
}

// Template is an immutable base prompt template for one content type.
// The user prompt uses text/template syntax; every declared variable must
// resolve at render time or rendering fails.
type Template struct {
	Name         string      `json:"name" yaml:"name"`
	ContentType  ContentType `json:"content_type" yaml:"content_type"`
	SystemPrompt string      `json:"system_prompt" yaml:"system_prompt"`
	UserPrompt   string      `json:"user_prompt" yaml:"user_prompt"`
	Variables    []string    `json:"variables" yaml:"variables"`
	Constraints  []string    `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// Validate checks the template for completeness.
func (t *Template) Validate() error {
	if t.Name == "" {
		return types.NewError(types.TEMPLATE_INVALID, "template name is required")
	}
	if t.ContentType == "" {
		return types.NewError(types.TEMPLATE_INVALID, "template content type is required")
	}
	if t.SystemPrompt == "" {
		return types.NewError(types.TEMPLATE_INVALID,
			fmt.Sprintf("template %q: system prompt is required", t.Name))
	}
	if t.UserPrompt == "" {
		return types.NewError(types.TEMPLATE_INVALID,
			fmt.Sprintf("template %q: user prompt is required", t.Name))
	}
	return nil
}

// RenderedPrompt is a fully substituted (system, user) prompt pair ready for
// dispatch to a provider.
type RenderedPrompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// Renderer substitutes template variables into prompt templates.
// Compiled templates are cached by template name.
type Renderer struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// NewRenderer creates a Renderer with an empty compilation cache.
func NewRenderer() *Renderer {
	return &Renderer{
		templates: make(map[string]*template.Template),
	}
}

// Render substitutes vars into the template's user prompt and returns the
// rendered (system, user) pair. Every variable declared by the template must
// be present and non-nil in vars; otherwise rendering fails with
// TEMPLATE_VAR_MISSING. No blank substitution ever occurs.
func (r *Renderer) Render(tmpl *Template, vars map[string]any) (RenderedPrompt, error) {
	if tmpl == nil {
		return RenderedPrompt{}, types.NewError(types.TEMPLATE_INVALID, "template cannot be nil")
	}

	for _, name := range tmpl.Variables {
		v, ok := vars[name]
		if !ok || v == nil {
			return RenderedPrompt{}, types.NewError(types.TEMPLATE_VAR_MISSING,
				fmt.Sprintf("template %q: variable %q unresolved", tmpl.Name, name))
		}
	}

	compiled, err := r.getTemplate(tmpl)
	if err != nil {
		return RenderedPrompt{}, err
	}

	var buf bytes.Buffer
	if err := compiled.Execute(&buf, vars); err != nil {
		return RenderedPrompt{}, types.WrapError(types.TEMPLATE_RENDER_FAILED,
			fmt.Sprintf("template %q: render failed", tmpl.Name), err)
	}

	return RenderedPrompt{
		System: tmpl.SystemPrompt,
		User:   buf.String(),
	}, nil
}

// getTemplate retrieves a compiled template from cache or compiles it.
func (r *Renderer) getTemplate(tmpl *Template) (*template.Template, error) {
	r.mu.RLock()
	compiled, exists := r.templates[tmpl.Name]
	r.mu.RUnlock()

	if exists {
		return compiled, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check in case another goroutine compiled it
	if compiled, exists := r.templates[tmpl.Name]; exists {
		return compiled, nil
	}

	compiled, err := template.New(tmpl.Name).Option("missingkey=error").Parse(tmpl.UserPrompt)
	if err != nil {
		return nil, types.WrapError(types.TEMPLATE_INVALID,
			fmt.Sprintf("template %q: parse failed", tmpl.Name), err)
	}

	r.templates[tmpl.Name] = compiled
	return compiled, nil
}
