package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/volunteerhub/internal/app/system/htmlsanitize"
)

func TestText(t *testing.T) {
	tests := map[string]string{
		"":                              "",
		"Food Drive":                    "Food Drive",
		"Food & Fun":                    "Food & Fun",
		"<b>Bold</b> move":              "Bold move",
		"Hi<script>alert(1)</script>":   "Hi",
		"  padded  ":                     "padded",
	}
	for in, want := range tests {
		if got := htmlsanitize.Text(in); got != want {
			t.Errorf("Text(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitize_RemovesScript(t *testing.T) {
	got := htmlsanitize.Sanitize("<p>Hello</p><script>alert('xss')</script>")
	if got != "<p>Hello</p>" {
		t.Errorf("Sanitize() = %q", got)
	}
}

func TestSanitize_RemovesJavascriptHref(t *testing.T) {
	got := htmlsanitize.Sanitize(`<a href="javascript:alert('xss')">Click</a>`)
	if strings.Contains(got, "javascript:") {
		t.Errorf("javascript: href kept: %q", got)
	}
}

func TestSanitize_KeepsSafeMarkup(t *testing.T) {
	in := "<p><strong>Bold</strong> and <em>italic</em></p>"
	if got := htmlsanitize.Sanitize(in); got != in {
		t.Errorf("Sanitize() = %q, want unchanged", got)
	}
}
