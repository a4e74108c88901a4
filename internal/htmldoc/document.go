// Package htmldoc is an offline page model over golang.org/x/net/html. It answers the
// same probes as the live browser so recorded locators can be checked against saved
// pages, and it backs the locator tests.
package htmldoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"ui-recorder/internal/entity"
	"ui-recorder/internal/locator"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var ErrNoBody = errors.New("document has no body element")

// Document is a parsed page. Reads take a shared lock, mutations an exclusive one,
// so probes may run while another goroutine edits the tree.
type Document struct {
	mu   sync.RWMutex
	root *html.Node
}

func Parse(r io.Reader) (*Document, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return &Document{root: root}, nil
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return Parse(bytes.NewReader(data))
}

// Probe looks the locator up once. Unparseable expressions report ProbeInvalid
// rather than an error so the resolver can move on to the next alternate.
func (d *Document) Probe(_ context.Context, loc entity.Locator) (*html.Node, entity.ProbeStatus, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var (
		node *html.Node
		err  error
	)

	switch loc.Kind {
	case entity.LocatorCSS:
		node, err = d.queryCSS(loc.Expression)
	case entity.LocatorName:
		node, err = d.queryCSS(locator.NameSelector(loc.Expression))
	case entity.LocatorXPath:
		node, err = htmlquery.Query(d.root, loc.Expression)
	case entity.LocatorLinkText:
		node, err = htmlquery.Query(d.root, locator.LinkTextXPath(loc.Expression, false))
	case entity.LocatorPartialLinkText:
		node, err = htmlquery.Query(d.root, locator.LinkTextXPath(loc.Expression, true))
	default:
		return nil, entity.ProbeInvalid, nil
	}

	if err != nil {
		return nil, entity.ProbeInvalid, nil
	}

	if node == nil {
		return nil, entity.ProbeAbsent, nil
	}

	return node, entity.ProbeFound, nil
}

func (d *Document) queryCSS(selector string) (*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, err
	}

	return sel.MatchFirst(d.root), nil
}

// QueryAll returns every element matching a CSS selector, in document order.
func (d *Document) QueryAll(selector string) ([]*html.Node, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", selector, err)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	return sel.MatchAll(d.root), nil
}

// FindByText returns elements whose own text equals (or, when exact is false,
// contains) text. Script and style contents are ignored.
func (d *Document) FindByText(text string, exact bool) ([]*html.Node, error) {
	lit := locator.XPathLiteral(text)

	expr := fmt.Sprintf("//body//*[not(self::script or self::style)][text()=%s]", lit)
	if !exact {
		expr = fmt.Sprintf("//body//*[not(self::script or self::style)][contains(text(),%s)]", lit)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	nodes, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("query text %q: %w", text, err)
	}

	return nodes, nil
}

// FindInputs returns text-entry elements: inputs other than buttons and checkboxes,
// and textareas.
func (d *Document) FindInputs() ([]*html.Node, error) {
	return d.QueryAll(`input:not([type=hidden]):not([type=submit]):not([type=button]):not([type=checkbox]):not([type=radio]), textarea`)
}

// Remove detaches n from the tree. Handles to n and its descendants become stale.
func (d *Document) Remove(n *html.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// AppendHTML parses fragment in the context of parent and appends the result.
func (d *Document) AppendHTML(parent *html.Node, fragment string) error {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent)
	if err != nil {
		return fmt.Errorf("parse fragment: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, n := range nodes {
		parent.AppendChild(n)
	}

	return nil
}

// Body returns the body element.
func (d *Document) Body() (*html.Node, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	body := htmlquery.FindOne(d.root, "//body")
	if body == nil {
		return nil, ErrNoBody
	}

	return body, nil
}

func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return html.Render(w, d.root)
}
