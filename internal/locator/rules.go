package locator

import "strings"

const (
	DefaultMaxPathDepth  = 10
	DefaultMaxAlternates = 3
	maxContainerClasses  = 3
)

// Rules holds the keyword lists that decide which class names are worth keeping in a
// structural path. They come from configuration so other site conventions can be
// supported without touching the algorithm.
type Rules struct {
	ContainerSuffixes []string
	ContainerKeywords []string
	SkipSuffixes      []string
	SkipPrefixes      []string
	// MaxPathDepth bounds how many ancestors above the element a path may climb.
	MaxPathDepth int
}

func DefaultRules() Rules {
	return Rules{
		ContainerSuffixes: []string{"container", "wrapper", "module", "holder", "box"},
		ContainerKeywords: []string{"header", "footer", "main", "sidebar", "aside"},
		SkipSuffixes:      []string{"item", "text", "content", "inner", "link", "btn", "button", "icon", "img", "title", "desc"},
		SkipPrefixes:      []string{"layout", "page", "section"},
		MaxPathDepth:      DefaultMaxPathDepth,
	}
}

func (r Rules) maxDepth() int {
	if r.MaxPathDepth <= 0 {
		return DefaultMaxPathDepth
	}

	return r.MaxPathDepth
}

// containerClasses returns the class tokens usable in a path segment, in original order.
func (r Rules) containerClasses(class string) []string {
	var out []string

	for _, token := range strings.Fields(class) {
		if r.isContainerClass(token) {
			out = append(out, token)
		}
		if len(out) == maxContainerClasses {
			break
		}
	}

	return out
}

func (r Rules) isContainerClass(token string) bool {
	if IsDynamicValue(token) {
		return false
	}

	lower := strings.ToLower(token)

	for _, suffix := range r.SkipSuffixes {
		if strings.HasSuffix(lower, suffix) || strings.Contains(lower, "-"+suffix) {
			return false
		}
	}

	for _, prefix := range r.SkipPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}

	for _, suffix := range r.ContainerSuffixes {
		if strings.Contains(lower, suffix) {
			return true
		}
	}

	for _, keyword := range r.ContainerKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	return false
}
