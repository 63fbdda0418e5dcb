// AngelaMos | 2026
// redirect_test.go

package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeRedirectPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/dashboard"},
		{"/lessons/42", "/lessons/42"},
		{"/lessons?category=Life", "/lessons?category=Life"},
		{"  /profile  ", "/profile"},
		{"//evil.example/phish", "/dashboard"},
		{"https://evil.example", "/dashboard"},
		{"javascript:alert(1)", "/dashboard"},
		{`/\evil.example`, "/dashboard"},
		{"lessons", "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeRedirectPath(tt.in))
		})
	}
}
