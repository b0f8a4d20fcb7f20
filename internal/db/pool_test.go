package db

import "testing"

func TestContainsPatternEscapesWildcards(t *testing.T) {
	cases := map[string]string{
		"2024":     "%2024%",
		"_":        `%\_%`,
		"100%":     `%100\%%`,
		`a\b`:      `%a\\b%`,
		"obra_x %": `%obra\_x \%%`,
	}
	for in, want := range cases {
		if got := ContainsPattern(in); got != want {
			t.Fatalf("ContainsPattern(%q) = %q, want %q", in, got, want)
		}
	}
}
