package htmldoc

import (
	"strings"

	"ui-recorder/internal/entity"
	"ui-recorder/internal/locator"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Capture reads n into a snapshot in one pass under the read lock. maxDepth bounds
// how many ancestors are recorded above n. A node no longer attached to the document
// yields locator.ErrStaleElement.
func (d *Document) Capture(n *html.Node, maxDepth int) (entity.ElementSnapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if n == nil || n.Type != html.ElementNode || !d.attached(n) {
		return entity.ElementSnapshot{}, locator.ErrStaleElement
	}

	snap := entity.ElementSnapshot{
		Tag:        strings.ToLower(n.Data),
		Text:       strings.TrimSpace(htmlquery.InnerText(n)),
		Attributes: make([]entity.Attribute, 0, len(n.Attr)),
	}

	for _, a := range n.Attr {
		snap.Attributes = append(snap.Attributes, entity.Attribute{Name: a.Key, Value: a.Val})
	}

	for cur, i := n, 0; cur != nil && cur.Type == html.ElementNode && i <= maxDepth; cur, i = cur.Parent, i+1 {
		snap.Ancestry = append(snap.Ancestry, pathNode(cur))
	}

	return snap, nil
}

// Attached reports whether n is still part of the document tree.
func (d *Document) Attached(n *html.Node) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.attached(n)
}

func (d *Document) attached(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == d.root {
			return true
		}
	}

	return false
}

func pathNode(n *html.Node) entity.PathNode {
	node := entity.PathNode{
		Tag:      strings.ToLower(n.Data),
		ID:       htmlquery.SelectAttr(n, "id"),
		Class:    htmlquery.SelectAttr(n, "class"),
		Position: 1,
	}

	for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode {
			node.Position++
		}
	}

	if n.Parent == nil {
		node.SameTagSiblings = 1
		return node
	}

	for sib := n.Parent.FirstChild; sib != nil; sib = sib.NextSibling {
		if sib.Type == html.ElementNode && sib.Data == n.Data {
			node.SameTagSiblings++
		}
	}

	return node
}
