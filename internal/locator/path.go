package locator

import (
	"fmt"
	"strings"

	"ui-recorder/internal/entity"
)

const childCombinator = " > "

// SynthesizePath builds a CSS child-combinator path from the nearest ancestor with a
// usable id down to the element, the way a person reading the markup would shorten
// it. ancestry starts with the element itself. It returns "" when no anchoring id is
// found within rules.MaxPathDepth ancestors.
func SynthesizePath(ancestry []entity.PathNode, rules Rules) string {
	depth := rules.maxDepth()
	anchor := -1

	for i, node := range ancestry {
		if i > depth {
			break
		}

		if usableID(node.ID) {
			anchor = i
			break
		}
	}

	if anchor < 0 {
		return ""
	}

	segments := make([]string, 0, anchor+1)
	segments = append(segments, IDSelector(ancestry[anchor].ID))

	for i := anchor - 1; i >= 0; i-- {
		segments = append(segments, pathSegment(ancestry[i], rules))
	}

	return strings.Join(segments, childCombinator)
}

func pathSegment(node entity.PathNode, rules Rules) string {
	tag := strings.ToLower(node.Tag)

	if classes := rules.containerClasses(node.Class); len(classes) > 0 {
		escaped := make([]string, len(classes))
		for i, c := range classes {
			escaped[i] = CSSIdent(c)
		}

		return tag + "." + strings.Join(escaped, ".")
	}

	if node.SameTagSiblings > 1 && node.Position > 0 {
		return fmt.Sprintf("%s:nth-child(%d)", tag, node.Position)
	}

	return tag
}

// usableID decides both direct id candidates and path anchors.
func usableID(id string) bool {
	return id != "" && !IsDynamicValue(id)
}
