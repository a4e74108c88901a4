package locator

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"ui-recorder/internal/entity"
)

const (
	minHrefSegmentLen = 3
	minHrefPathLen    = 6
	minHrefQueryLen   = 4
	maxHrefQueryLen   = 20
)

// Generator turns an element snapshot into locator candidates ordered from the most
// to the least markup-independent. It keeps no state between calls.
type Generator struct {
	rules Rules
}

func NewGenerator(rules Rules) *Generator {
	return &Generator{rules: rules}
}

// Generate returns every applicable candidate, deduplicated in first-seen order. An
// empty result means no locator is available for the element.
func (g *Generator) Generate(snapshot entity.ElementSnapshot, searchText string) []entity.Locator {
	if snapshot.IsZero() {
		return nil
	}

	tag := strings.ToLower(snapshot.Tag)
	text := strings.TrimSpace(snapshot.Text)
	search := strings.TrimSpace(searchText)

	var c candidates

	if tag == "a" && search != "" {
		if text == search {
			c.add(entity.LocatorLinkText, search)
		}

		if strings.Contains(text, search) {
			c.add(entity.LocatorPartialLinkText, search)
		}
	}

	if text != "" {
		literal := XPathLiteral(text)
		exact := fmt.Sprintf("//%s[text()=%s]", tag, literal)

		switch {
		case text == search:
			c.add(entity.LocatorXPath, exact)
		case search != "" && strings.Contains(text, search):
			c.add(entity.LocatorXPath, exact)
			c.add(entity.LocatorXPath, fmt.Sprintf("//%s[contains(text(),%s)]", tag, literal))
		}
	}

	if id, _ := snapshot.Attr("id"); usableID(id) {
		c.add(entity.LocatorCSS, IDSelector(id))
	}

	g.attributeCandidates(&c, tag, snapshot)

	if class, _ := snapshot.Attr("class"); class != "" {
		var stable []string

		for _, token := range strings.Fields(class) {
			if !IsDynamicValue(token) {
				stable = append(stable, CSSIdent(token))
			}
		}

		if len(stable) > 0 {
			c.add(entity.LocatorCSS, tag+"."+stable[0])
		}

		if len(stable) >= 2 {
			c.add(entity.LocatorCSS, tag+"."+stable[0]+"."+stable[1])
		}
	}

	if path := SynthesizePath(snapshot.Ancestry, g.rules); strings.Contains(path, childCombinator) {
		c.add(entity.LocatorCSS, path)
	}

	return c.list
}

func (g *Generator) attributeCandidates(c *candidates, tag string, snapshot entity.ElementSnapshot) {
	if name, _ := snapshot.Attr("name"); name != "" && !IsDynamicValue(name) {
		c.add(entity.LocatorCSS, AttributeSelector(tag, "name", name))
		c.add(entity.LocatorName, name)
	}

	if typ, _ := snapshot.Attr("type"); typ != "" {
		c.add(entity.LocatorCSS, AttributeSelector(tag, "type", typ))
	}

	if placeholder, _ := snapshot.Attr("placeholder"); placeholder != "" {
		c.add(entity.LocatorCSS, AttributeSelector(tag, "placeholder", placeholder))
	}

	if href, _ := snapshot.Attr("href"); href != "" && tag == "a" {
		for _, fragment := range hrefFragments(href) {
			c.add(entity.LocatorCSS, HrefContainsSelector(fragment))
		}
	}

	if title, _ := snapshot.Attr("title"); title != "" && !IsDynamicValue(title) {
		c.add(entity.LocatorCSS, AttributeSelector(tag, "title", title))
	}

	if label, _ := snapshot.Attr("aria-label"); label != "" {
		c.add(entity.LocatorCSS, AttributeSelector(tag, "aria-label", label))
	}

	for _, attr := range snapshot.DataAttributes() {
		if attr.Value != "" && !IsDynamicValue(attr.Value) {
			c.add(entity.LocatorCSS, AttributeSelector(tag, attr.Name, attr.Value))
		}
	}
}

// hrefFragments picks substrings of an absolute link that survive a change of host or
// scheme: the last path segment, the whole path, and the head of the query string.
func hrefFragments(href string) []string {
	if !strings.Contains(href, "http") {
		return nil
	}

	u, err := url.Parse(href)
	if err != nil {
		return nil
	}

	var fragments []string

	if clean := strings.Trim(u.Path, "/"); clean != "" {
		segments := strings.Split(clean, "/")
		last := segments[len(segments)-1]

		if utf8.RuneCountInString(last) >= minHrefSegmentLen {
			fragments = append(fragments, last)
		}

		if utf8.RuneCountInString(clean) >= minHrefPathLen {
			fragments = append(fragments, clean)
		}
	}

	if utf8.RuneCountInString(u.RawQuery) >= minHrefQueryLen {
		fragments = append(fragments, truncateRunes(u.RawQuery, maxHrefQueryLen))
	}

	return fragments
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n])
}

type candidates struct {
	list []entity.Locator
	seen map[entity.Locator]struct{}
}

func (c *candidates) add(kind entity.LocatorKind, expression string) {
	loc := entity.Locator{Kind: kind, Expression: expression}

	if c.seen == nil {
		c.seen = make(map[entity.Locator]struct{})
	}

	if _, ok := c.seen[loc]; ok {
		return
	}

	c.seen[loc] = struct{}{}
	c.list = append(c.list, loc)
}
