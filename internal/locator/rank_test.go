package locator

import (
	"strings"
	"testing"

	"ui-recorder/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectAlternates_Diversity(t *testing.T) {
	name := entity.Locator{Kind: entity.LocatorName, Expression: "n"}
	cands := []entity.Locator{css("#a"), css("#a.b"), name, css(".c"), {Kind: entity.LocatorName, Expression: "m"}}

	got := SelectAlternates(cands, css("#a"), 5)

	assert.Equal(t, []entity.Locator{css("#a.b"), name, css(".c")}, got)
}

func TestSelectAlternates_SkipsBroadHrefAndLongPaths(t *testing.T) {
	long := "#root > " + strings.Repeat("div.wrapper > ", 10) + "a"
	cands := []entity.Locator{
		{Kind: entity.LocatorLinkText, Expression: "Home"},
		css("a[href*='home']"),
		css(long),
		css("a[href*='en/home/index']"),
	}

	got := SelectAlternates(cands, cands[0], 3)

	assert.Equal(t, []entity.Locator{css("a[href*='en/home/index']")}, got)
}

func TestSelectAlternates_Limit(t *testing.T) {
	cands := []entity.Locator{css("#a"), css("a.x"), css("a.y"), css("a.z"), css("a.w")}

	assert.Len(t, SelectAlternates(cands, cands[0], 2), 2)
	assert.Len(t, SelectAlternates(cands, cands[0], 0), DefaultMaxAlternates)
}

func TestSelectPrimary_Priority(t *testing.T) {
	cases := []struct {
		name  string
		cands []entity.Locator
		want  entity.Locator
	}{
		{
			name:  "xpath exact before name",
			cands: []entity.Locator{{Kind: entity.LocatorName, Expression: "q"}, {Kind: entity.LocatorXPath, Expression: "//a[text()='x']"}},
			want:  entity.Locator{Kind: entity.LocatorXPath, Expression: "//a[text()='x']"},
		},
		{
			name:  "id before attribute",
			cands: []entity.Locator{css("input[placeholder='p']"), css("#kw")},
			want:  css("#kw"),
		},
		{
			name:  "two classes before one",
			cands: []entity.Locator{css("div.a"), css("div.a.b")},
			want:  css("div.a.b"),
		},
		{
			name:  "structural path with id is not an id selector",
			cands: []entity.Locator{css("#app > div > a"), css("a.more")},
			want:  css("a.more"),
		},
		{
			name:  "falls back to first",
			cands: []entity.Locator{css("input[type='text']"), css("input[aria-label='q']")},
			want:  css("input[type='text']"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := SelectPrimary(tc.cands)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRank_Empty(t *testing.T) {
	_, err := Rank(nil, DefaultMaxAlternates)

	assert.ErrorIs(t, err, ErrNoCandidates)
}
