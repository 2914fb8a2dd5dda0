package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// MaxVariants bounds variation expansion per stage.
const MaxVariants = 5

// variationDimensions are the bounded descriptor dimensions used when a
// caller requests more than one variant. Each dimension has at most 5
// values; variant selection is deterministic by variant index.
var variationDimensions = []struct {
	name   string
	values []string
}{
	{"sophistication", []string{"basic", "moderate", "advanced", "expert", "nation-state"}},
	{"urgency", []string{"relaxed", "routine", "pressing", "urgent", "critical"}},
	{"authority", []string{"peer", "vendor", "manager", "executive", "regulator"}},
	{"personalization", []string{"generic", "role-based", "department-based", "individual", "relationship-based"}},
	{"formality", []string{"casual", "conversational", "businesslike", "formal", "legalistic"}},
}

// expandVariants derives count contexts from the base context, each tagged
// with a distinct descriptor combination. Variant 0 is the base context
// unchanged; requesting 1 (or fewer) variants yields only the base. The
// derivation is purely index-based, so identical inputs always produce
// identical variants.
func expandVariants(base *Context, count int) []*Context {
	if count < 1 {
		count = 1
	}
	if count > MaxVariants {
		count = MaxVariants
	}

	out := make([]*Context, 0, count)
	out = append(out, base)

	for i := 1; i < count; i++ {
		variant := *base
		variant.Variation = make(map[string]string, len(variationDimensions))
		for d, dim := range variationDimensions {
			// Offset each dimension by its position so variants differ on
			// every axis, not just shift together.
			variant.Variation[dim.name] = dim.values[(i+d)%len(dim.values)]
		}
		out = append(out, &variant)
	}

	return out
}

// variationDescriptor renders a variation map as a stable, sorted string.
func variationDescriptor(variation map[string]string) string {
	keys := make([]string, 0, len(variation))
	for k := range variation {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, variation[k]))
	}
	return strings.Join(parts, ", ")
}
