package jinjamsg

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFallbacks(t *testing.T) {
	var tests = []struct {
		locale   string
		expected []string
	}{
		{"en", []string{"en"}},
		{"en_US", []string{"en-US", "en"}},
		{"pt-BR", []string{"pt-BR", "pt"}},
		{"ar_Arab", []string{"ar-Arab", "ar"}},
		{"ar_Arab_EG", []string{"ar-Arab-EG", "ar-Arab", "ar"}},
	}
	for _, test := range tests {
		actual, err := fallbacks(test.locale)
		if err != nil {
			t.Errorf("%s: %v", test.locale, err)
			continue
		}
		if diff := cmp.Diff(test.expected, actual); diff != "" {
			t.Errorf("%s: (-want +got)\n%s", test.locale, diff)
		}
	}

	if _, err := fallbacks("not a locale!"); err == nil {
		t.Errorf("expected an error for an invalid locale")
	}
}
