package locator

import (
	"fmt"
	"regexp"
	"strings"
)

var cssIdentifier = regexp.MustCompile(`^-?[_a-zA-Z\x{80}-\x{10FFFF}][-_a-zA-Z0-9\x{80}-\x{10FFFF}]*$`)

// XPathLiteral quotes s for XPath 1.0, which has no escape sequences: single quotes
// by default, double quotes when s holds a single quote, concat() when it holds both.
func XPathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}

	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)

	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+part+"'")
	}

	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// CSSString renders s as a single-quoted CSS string literal.
func CSSString(s string) string {
	var b strings.Builder

	b.WriteByte('\'')

	for _, r := range s {
		switch r {
		case '\\', '\'':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\a `)
		case '\r':
			b.WriteString(`\d `)
		default:
			b.WriteRune(r)
		}
	}

	b.WriteByte('\'')

	return b.String()
}

// CSSIdent escapes s so it can follow '.' or '#' in a selector.
func CSSIdent(s string) string {
	var b strings.Builder

	for i, r := range s {
		switch {
		case r >= 0x80 || r == '_' || isASCIILetter(r):
			b.WriteRune(r)
		case r == '-':
			if len(s) == 1 {
				b.WriteString(`\-`)
			} else {
				b.WriteRune(r)
			}
		case r >= '0' && r <= '9':
			if i == 0 || (i == 1 && s[0] == '-') {
				fmt.Fprintf(&b, `\%x `, r)
			} else {
				b.WriteRune(r)
			}
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\%x `, r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}

	return b.String()
}

// IDSelector returns "#id", or the attribute form when id is not a plain CSS
// identifier (for example when it starts with a digit).
func IDSelector(id string) string {
	if cssIdentifier.MatchString(id) {
		return "#" + id
	}

	return "[id=" + CSSString(id) + "]"
}

func AttributeSelector(tag, name, value string) string {
	return fmt.Sprintf("%s[%s=%s]", tag, name, CSSString(value))
}

func HrefContainsSelector(fragment string) string {
	return fmt.Sprintf("a[href*=%s]", CSSString(fragment))
}

// NameSelector is the CSS equivalent of a NAME locator.
func NameSelector(name string) string {
	return "[name=" + CSSString(name) + "]"
}

// LinkTextXPath is the XPath equivalent of a LINK_TEXT or PARTIAL_LINK_TEXT locator.
func LinkTextXPath(text string, partial bool) string {
	if partial {
		return fmt.Sprintf("//a[contains(normalize-space(.),%s)]", XPathLiteral(text))
	}

	return fmt.Sprintf("//a[normalize-space(.)=%s]", XPathLiteral(text))
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
