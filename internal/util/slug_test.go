package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "ABOUT", "about"},
		{"spaces to dashes", "about us", "about-us"},
		{"underscores kept", "about_us", "about_us"},
		{"already a slug", "about-us", "about-us"},

		{"trim whitespace", "  news  ", "news"},
		{"multiple spaces", "our   team", "our-team"},

		{"accents folded", "Café Crème", "cafe-creme"},
		{"slashes", "2024/Reports", "2024-reports"},
		{"punctuation", "Q&A: FAQ!", "q-a-faq"},
		{"emoji", "🎉 Launch", "launch"},

		{"leading and trailing dashes", "--news--", "news"},
		{"empty", "", ""},
		{"only symbols", "!@#$", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Slugify(tt.input)
			if result != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNthSlug(t *testing.T) {
	if got := NthSlug("news", 1); got != "news" {
		t.Errorf("NthSlug(news, 1) = %q, want news", got)
	}
	if got := NthSlug("news", 3); got != "news-3" {
		t.Errorf("NthSlug(news, 3) = %q, want news-3", got)
	}
}

func TestValidSlug(t *testing.T) {
	for _, s := range []string{"news", "my-post", "a_b", "2024"} {
		if !ValidSlug(s) {
			t.Errorf("ValidSlug(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"", "a/b", "with space", "ünï"} {
		if ValidSlug(s) {
			t.Errorf("ValidSlug(%q) = true, want false", s)
		}
	}
}
