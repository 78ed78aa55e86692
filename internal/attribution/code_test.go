// AngelaMos | 2026
// code_test.go

package attribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsReserved(t *testing.T) {
	for _, word := range []string{"api", "AUTH", "Dashboard", " admin ", "sign-in", "_next"} {
		assert.True(t, IsReserved(word), word)
	}
	for _, word := range []string{"sarah2024", "jdoe", "apiary"} {
		assert.False(t, IsReserved(word), word)
	}
}

func TestValidCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"SARAH2024", true},
		{"john_doe-tax", true},
		{"ab", true},
		{"a", false},
		{"", false},
		{"has space", false},
		{"semi;colon", false},
		{"../etc", false},
		{"Admin", false},
		{string(make([]byte, 65)), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidCode(tt.code), "code %q", tt.code)
	}
}
