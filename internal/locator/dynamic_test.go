package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDynamicValue(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"btn_7f3a9c2", true},
		{"header", false},
		{"12345", true},
		{"1234", false},
		{"id3", false},
		{"main_container", false},
		{"ts1699999999123", true},
		{"css-1a2b3c", false},
		{"", false},
	}

	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDynamicValue(tc.value))
		})
	}
}
