package safety

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// MinContentLength is the floor below which generated content is flagged
// as too thin to carry training value.
const MinContentLength = 50

// educationalFraming is prepended to system prompts that lack an explicit
// training context.
const educationalFraming = "This content is generated exclusively for authorized security " +
	"awareness training and controlled simulation exercises. All names, organizations, " +
	"and domains must be fictitious.\n\n"

var framingMarkers = []string{
	"security awareness training",
	"authorized security training",
	"controlled simulation",
	"penetration testing",
	"training purposes",
}

// FramingCheck guarantees every outgoing system prompt carries the
// educational framing. Prompts that already carry it pass unchanged;
// prompts that do not are rewritten with the framing prefixed.
type FramingCheck struct{}

func NewFramingCheck() *FramingCheck { return &FramingCheck{} }

func (c *FramingCheck) Name() string { return "educational_framing" }

func (c *FramingCheck) CheckPrompt(ctx context.Context, input PromptInput) (Result, error) {
	lower := strings.ToLower(input.Prompt.System)
	for _, marker := range framingMarkers {
		if strings.Contains(lower, marker) {
			return Allow(), nil
		}
	}

	modified := input.Prompt
	modified.System = educationalFraming + modified.System
	return Result{
		Action:         ActionRewrite,
		Reason:         "added educational framing to system prompt",
		ModifiedPrompt: &modified,
	}, nil
}

func (c *FramingCheck) CheckResponse(ctx context.Context, content string) (Result, error) {
	return Allow(), nil
}

// prohibitedPatterns match genuinely harmful output: harmful instructions,
// real credential harvesting, or content that crossed from simulation into
// operational tooling.
var prohibitedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bdownload\s+and\s+install\b.*\.(exe|bat|scr|com|pif)`),
	regexp.MustCompile(`(?i)\bpassword\s*:\s*\w+`),
	regexp.MustCompile(`(?i)real\s+bank\s+account`),
	regexp.MustCompile(`(?i)actual\s+credit\s+card`),
	regexp.MustCompile(`(?i)\bdelete\s+(all\s+files|system\s+files)\b`),
	regexp.MustCompile(`(?i)\bformat\s+hard\s+drive\b`),
	regexp.MustCompile(`(?i)\bdisable\s+(antivirus|firewall)\b`),
	regexp.MustCompile(`(?i)\benter\s+your\s+real\s+password\b`),
	regexp.MustCompile(`(?i)\bprovide\s+actual\s+credentials\b`),
	regexp.MustCompile(`(?i)\bwire\s+money\s+to\b`),
	regexp.MustCompile(`(?i)\bsend\s+bitcoin\s+to\b`),
}

// ProhibitedContentCheck rejects responses matching harmful patterns.
type ProhibitedContentCheck struct{}

func NewProhibitedContentCheck() *ProhibitedContentCheck { return &ProhibitedContentCheck{} }

func (c *ProhibitedContentCheck) Name() string { return "prohibited_content" }

func (c *ProhibitedContentCheck) CheckPrompt(ctx context.Context, input PromptInput) (Result, error) {
	return Allow(), nil
}

func (c *ProhibitedContentCheck) CheckResponse(ctx context.Context, content string) (Result, error) {
	for _, pattern := range prohibitedPatterns {
		if pattern.MatchString(content) {
			return Result{
				Action: ActionReject,
				Reason: "prohibited pattern: " + pattern.String(),
			}, nil
		}
	}
	return Allow(), nil
}

// domainPattern finds domain-looking tokens in generated content.
var domainPattern = regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9-]*\.(com|org|net|io|co|biz|info)\b`)

// allowedPlaceholderDomains are the only domains generated content may
// reference. Everything else risks pointing at a real organization.
var allowedPlaceholderDomains = map[string]bool{
	"example.com": true,
	"example.org": true,
	"example.net": true,
}

// PlaceholderCheck rejects responses that reference non-placeholder domains.
type PlaceholderCheck struct{}

func NewPlaceholderCheck() *PlaceholderCheck { return &PlaceholderCheck{} }

func (c *PlaceholderCheck) Name() string { return "placeholder_compliance" }

func (c *PlaceholderCheck) CheckPrompt(ctx context.Context, input PromptInput) (Result, error) {
	return Allow(), nil
}

func (c *PlaceholderCheck) CheckResponse(ctx context.Context, content string) (Result, error) {
	for _, match := range domainPattern.FindAllString(content, -1) {
		domain := strings.ToLower(match)
		if !allowedPlaceholderDomains[domain] {
			return Result{
				Action: ActionReject,
				Reason: fmt.Sprintf("non-placeholder domain %q in generated content", domain),
			}, nil
		}
	}
	return Allow(), nil
}

// MinLengthCheck flags responses too short to carry training value. The
// content passes through but the response is annotated for reviewers.
type MinLengthCheck struct {
	min int
}

func NewMinLengthCheck(min int) *MinLengthCheck {
	if min <= 0 {
		min = MinContentLength
	}
	return &MinLengthCheck{min: min}
}

func (c *MinLengthCheck) Name() string { return "min_length" }

func (c *MinLengthCheck) CheckPrompt(ctx context.Context, input PromptInput) (Result, error) {
	return Allow(), nil
}

func (c *MinLengthCheck) CheckResponse(ctx context.Context, content string) (Result, error) {
	if len(strings.TrimSpace(content)) >= c.min {
		return Allow(), nil
	}
	return Result{
		Action: ActionAnnotate,
		Reason: fmt.Sprintf("content below minimum length %d", c.min),
		Annotations: map[string]string{
			"verdict": "flagged",
			"quality": "below_minimum_length",
		},
	}, nil
}

var educationalMarkerPattern = regexp.MustCompile(`(?i)\b(training|simulation|educational|exercise|scenario|test)\b`)

// MarkerCheck flags responses that carry no educational context marker.
type MarkerCheck struct{}

func NewMarkerCheck() *MarkerCheck { return &MarkerCheck{} }

func (c *MarkerCheck) Name() string { return "educational_markers" }

func (c *MarkerCheck) CheckPrompt(ctx context.Context, input PromptInput) (Result, error) {
	return Allow(), nil
}

func (c *MarkerCheck) CheckResponse(ctx context.Context, content string) (Result, error) {
	if educationalMarkerPattern.MatchString(content) {
		return Allow(), nil
	}
	return Result{
		Action: ActionAnnotate,
		Reason: "no educational context markers in generated content",
		Annotations: map[string]string{
			"verdict": "flagged",
			"markers": "missing",
		},
	}, nil
}

// DefaultChecks returns the standard check chain: framing enforcement,
// then hard rejections, then advisory annotations.
func DefaultChecks() []Check {
	return []Check{
		NewFramingCheck(),
		NewProhibitedContentCheck(),
		NewPlaceholderCheck(),
		NewMinLengthCheck(MinContentLength),
		NewMarkerCheck(),
	}
}
