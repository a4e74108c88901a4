package entity

import "strings"

// ElementSnapshot is the read-once view of a DOM element. It is built in a single
// pass when a recording starts and is never refreshed from the live page.
type ElementSnapshot struct {
	Tag        string
	Text       string
	Attributes []Attribute
	// Ancestry holds the element itself first, then its ancestors nearest-first.
	Ancestry []PathNode
}

type Attribute struct {
	Name  string
	Value string
}

// PathNode describes one node of the ancestor chain as seen at capture time.
type PathNode struct {
	Tag   string
	ID    string
	Class string
	// Position is the 1-based index among all element children of the parent.
	Position int
	// SameTagSiblings counts the parent's element children with this tag, self included.
	SameTagSiblings int
}

// Attr returns the attribute value and whether it was present. A present attribute
// with an empty value reports ok=true.
func (s ElementSnapshot) Attr(name string) (string, bool) {
	for _, a := range s.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}

	return "", false
}

// DataAttributes returns the data-* attributes in capture order.
func (s ElementSnapshot) DataAttributes() []Attribute {
	var out []Attribute

	for _, a := range s.Attributes {
		if strings.HasPrefix(a.Name, "data-") {
			out = append(out, a)
		}
	}

	return out
}

func (s ElementSnapshot) IsZero() bool {
	return s.Tag == ""
}

type WindowInfo struct {
	Index   int
	Title   string
	URL     string
	Current bool
}
