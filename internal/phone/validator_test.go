package phone

import (
	"strings"
	"testing"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		valid bool
	}{
		{"Empty", "", false},
		{"PunctuationOnly", "+() - .", false},
		{"TooShort", "123-456", false},
		{"NineDigits", "416-312-892", false},
		{"TenDigits", "4163128929", true},
		{"FormattedWithCountryCode", "+1 (416) 312-8929", true},
		{"E164", "+14163128929", true},
		{"LettersMixedIn", "call 416 312 8929 now", true},
		{"LettersOnly", "INVALID", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Valid(tc.phone); got != tc.valid {
				t.Errorf("Valid(%q) = %v, want %v", tc.phone, got, tc.valid)
			}
		})
	}
}

func TestValidMatchesDigitCount(t *testing.T) {
	for n := 0; n <= 15; n++ {
		raw := "+" + strings.Repeat("1-", n)
		want := n >= MinDigits
		if got := Valid(raw); got != want {
			t.Errorf("Valid(%q) with %d digits = %v, want %v", raw, n, got, want)
		}
	}
}

func TestDigits(t *testing.T) {
	if got := Digits("+1 (416) 312-8929"); got != "14163128929" {
		t.Fatalf("unexpected digits %q", got)
	}
	if got := Digits("abc"); got != "" {
		t.Fatalf("expected no digits, got %q", got)
	}
}
