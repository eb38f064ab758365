package relay

import "testing"

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"whatsapp prefix", "whatsapp:+14155552671", "+14155552671"},
		{"formatted number", "whatsapp:+1 (415) 555-2671", "+14155552671"},
		{"bare digits", "14155552671", "+14155552671"},
		{"surrounding whitespace", "  +1415555 2671  ", "+14155552671"},
		{"no digits", "whatsapp:", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeNumber(tt.input); got != tt.want {
				t.Fatalf("NormalizeNumber(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
