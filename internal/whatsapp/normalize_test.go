package whatsapp

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"local without trunk zero", "1012345678", "201012345678"},
		{"local with trunk zero", "01012345678", "21012345678"},
		{"already international", "201012345678", "201012345678"},
		{"long unknown format", "4479123456789", "4479123456789"},
		{"short number", "19999", "2019999"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in, "20"); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
