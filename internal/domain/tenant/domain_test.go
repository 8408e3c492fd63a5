package tenant

import "testing"

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mergington.local", "mergington.local"},
		{"mergington.local:8080", "mergington.local"},
		{"Mergington.LOCAL", "mergington.local"},
		{" mergington.local ", "mergington.local"},
		{"localhost:3000", "localhost"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeDomain(tt.in); got != tt.want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
