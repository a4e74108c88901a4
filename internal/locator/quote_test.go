package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXPathLiteral(t *testing.T) {
	assert.Equal(t, `'Search'`, XPathLiteral("Search"))
	assert.Equal(t, `"Tom's"`, XPathLiteral("Tom's"))
	assert.Equal(t, `concat('say "hi" to Tom', "'", 's')`, XPathLiteral(`say "hi" to Tom's`))
}

func TestCSSString(t *testing.T) {
	assert.Equal(t, `'owDCity'`, CSSString("owDCity"))
	assert.Equal(t, `'it\'s'`, CSSString("it's"))
	assert.Equal(t, `'a\\b'`, CSSString(`a\b`))
	assert.Equal(t, `'line\a next'`, CSSString("line\nnext"))
}

func TestIDSelector(t *testing.T) {
	assert.Equal(t, "#kw", IDSelector("kw"))
	assert.Equal(t, "#search-box", IDSelector("search-box"))
	assert.Equal(t, "[id='123abc']", IDSelector("123abc"))
	assert.Equal(t, "[id='a.b']", IDSelector("a.b"))
}

func TestCSSIdent(t *testing.T) {
	assert.Equal(t, "nav-bar", CSSIdent("nav-bar"))
	assert.Equal(t, `\31 col`, CSSIdent("1col"))
	assert.Equal(t, `md\:flex`, CSSIdent("md:flex"))
}

func TestLinkTextXPath(t *testing.T) {
	assert.Equal(t, "//a[normalize-space(.)='航班']", LinkTextXPath("航班", false))
	assert.Equal(t, "//a[contains(normalize-space(.),'航班')]", LinkTextXPath("航班", true))
}
