package payments

import "testing"

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ana@example.com", "a**@example.com"},
		{"a@example.com", "a*@example.com"},
		{"", ""},
		{"not-an-email", ""},
	}
	for _, tc := range tests {
		if got := MaskEmail(tc.in); got != tc.want {
			t.Fatalf("MaskEmail(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRedactTokens(t *testing.T) {
	tokens := []Token{{ID: "1", CustomerEmail: "ana@example.com"}, {ID: "2"}}
	RedactTokens(tokens, true)
	if tokens[0].CustomerEmail != "ana@example.com" {
		t.Fatal("reveal should keep the address")
	}
	RedactTokens(tokens, false)
	if tokens[0].CustomerEmail != "a**@example.com" {
		t.Fatalf("unexpected mask %q", tokens[0].CustomerEmail)
	}
	if tokens[1].CustomerEmail != "" {
		t.Fatal("empty email should stay empty")
	}
}
