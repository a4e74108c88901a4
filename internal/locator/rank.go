package locator

import (
	"strings"
	"unicode/utf8"

	"ui-recorder/internal/entity"
)

const maxAlternatePathLen = 100

var singleAttributeMarkers = []string{"[name=", "[placeholder=", "[title=", "[href*="}

// primaryRules is the fixed priority used by SelectPrimary: text and link locators
// survive restyling, attribute locators survive restyling but not restructuring, and
// structural paths survive neither.
var primaryRules = []func(entity.Locator) bool{
	func(l entity.Locator) bool { return l.Kind == entity.LocatorLinkText },
	func(l entity.Locator) bool {
		return l.Kind == entity.LocatorXPath && strings.Contains(l.Expression, "text()=")
	},
	func(l entity.Locator) bool {
		return l.Kind == entity.LocatorXPath && strings.Contains(l.Expression, "contains(text()")
	},
	func(l entity.Locator) bool { return l.Kind == entity.LocatorPartialLinkText },
	func(l entity.Locator) bool { return l.Kind == entity.LocatorName },
	isIDSelector,
	isSingleAttributeSelector,
	func(l entity.Locator) bool { return isFlatCSS(l) && strings.Count(l.Expression, ".") >= 2 },
	func(l entity.Locator) bool { return isFlatCSS(l) && strings.Contains(l.Expression, ".") },
	isStructuralPath,
}

// SelectPrimary picks the most stable candidate; ties go to emission order.
func SelectPrimary(cands []entity.Locator) (entity.Locator, bool) {
	if len(cands) == 0 {
		return entity.Locator{}, false
	}

	for _, matches := range primaryRules {
		for _, c := range cands {
			if matches(c) {
				return c, true
			}
		}
	}

	return cands[0], true
}

// SelectAlternates picks up to limit fallbacks in emission order. Apart from CSS,
// a kind is used at most once across primary and alternates.
func SelectAlternates(cands []entity.Locator, primary entity.Locator, limit int) []entity.Locator {
	if limit <= 0 {
		limit = DefaultMaxAlternates
	}

	used := map[entity.LocatorKind]bool{primary.Kind: true}
	out := make([]entity.Locator, 0, limit)

	for _, c := range cands {
		if len(out) == limit {
			break
		}

		if c == primary {
			continue
		}

		if used[c.Kind] && c.Kind != entity.LocatorCSS {
			continue
		}

		if isStructuralPath(c) && utf8.RuneCountInString(c.Expression) > maxAlternatePathLen {
			continue
		}

		// a[href*='x'] with at most one slash matches nearly every link on a page.
		if strings.Contains(c.Expression, "[href*=") && strings.Count(c.Expression, "/") <= 1 {
			continue
		}

		out = append(out, c)
		used[c.Kind] = true
	}

	return out
}

// Rank selects the primary and its alternates. It fails with ErrNoCandidates when
// cands is empty.
func Rank(cands []entity.Locator, maxAlternates int) (entity.RankedLocatorSet, error) {
	primary, ok := SelectPrimary(cands)
	if !ok {
		return entity.RankedLocatorSet{}, ErrNoCandidates
	}

	return entity.RankedLocatorSet{
		Primary:    primary,
		Alternates: SelectAlternates(cands, primary, maxAlternates),
	}, nil
}

func isFlatCSS(l entity.Locator) bool {
	return l.Kind == entity.LocatorCSS && !strings.Contains(l.Expression, childCombinator)
}

func isIDSelector(l entity.Locator) bool {
	return isFlatCSS(l) && (strings.HasPrefix(l.Expression, "#") || strings.HasPrefix(l.Expression, "[id="))
}

func isSingleAttributeSelector(l entity.Locator) bool {
	if !isFlatCSS(l) {
		return false
	}

	for _, marker := range singleAttributeMarkers {
		if strings.Contains(l.Expression, marker) {
			return true
		}
	}

	return false
}

func isStructuralPath(l entity.Locator) bool {
	return l.Kind == entity.LocatorCSS && strings.Contains(l.Expression, childCombinator)
}
