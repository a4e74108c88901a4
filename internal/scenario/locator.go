package scenario

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ui-recorder/internal/entity"
)

var ErrMalformedLocator = errors.New("malformed locator")

// FormatLocator renders a locator as KIND "expression".
func FormatLocator(loc entity.Locator) string {
	return string(loc.Kind) + " " + strconv.Quote(loc.Expression)
}

func ParseLocator(s string) (entity.Locator, error) {
	kind, rest, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return entity.Locator{}, fmt.Errorf("%w: %q", ErrMalformedLocator, s)
	}

	loc := entity.Locator{Kind: entity.LocatorKind(kind)}
	if !loc.Kind.Valid() {
		return entity.Locator{}, fmt.Errorf("%w: unknown kind %q", ErrMalformedLocator, kind)
	}

	expr, err := strconv.Unquote(strings.TrimSpace(rest))
	if err != nil {
		return entity.Locator{}, fmt.Errorf("%w: %q: %v", ErrMalformedLocator, s, err)
	}

	loc.Expression = expr

	return loc, nil
}
