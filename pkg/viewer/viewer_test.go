package viewer

import (
	"strings"
	"testing"
)

func TestFormSubstitutesPlaceholders(t *testing.T) {
	tpl := New("https://viewer.example/?link=__LINK__&headers=__HEADERS__&proxy=__PROXY__")

	got := tpl.Form("https://i.pximg.net/img/1.png", "https://www.pixiv.net/", true)

	if !strings.Contains(got, "link=https://i.pximg.net/img/1.png") {
		t.Errorf("link not substituted: %q", got)
	}
	if !strings.Contains(got, `"referer":"https://www.pixiv.net/"`) {
		t.Errorf("headers not substituted: %q", got)
	}
	if !strings.Contains(got, "proxy=1") {
		t.Errorf("proxy flag not substituted: %q", got)
	}
}

func TestFormWithoutProxy(t *testing.T) {
	tpl := New("https://viewer.example/?l=__LINK__&p=__PROXY__")
	if got := tpl.Form("https://img.example/x.jpg", "https://img.example", false); !strings.Contains(got, "p=0") {
		t.Errorf("proxy flag should be 0: %q", got)
	}
}

func TestFormDecodesEscapes(t *testing.T) {
	tpl := New("https://viewer.example/?l=__LINK__")
	got := tpl.Form("https://img.example/%D0%B0%D1%80%D1%82%3Ffinal.png", "https://img.example", false)
	// Plain escapes decode, the reserved %3F stays encoded.
	want := "https://viewer.example/?l=https://img.example/арт%3Ffinal.png"
	if got != want {
		t.Errorf("Form() = %q, want %q", got, want)
	}
}

func TestDecodeMalformedEscapeUntouched(t *testing.T) {
	tests := []string{
		"https://img.example/bad%G1.png",
		"https://img.example/truncated%2",
	}
	for _, s := range tests {
		if got := decode(s); got != s {
			t.Errorf("decode(%q) = %q, want input unchanged", s, got)
		}
	}
}

func TestEmptyTemplatePassesThrough(t *testing.T) {
	tpl := New("")
	link := "https://img.example/x.jpg"
	if got := tpl.Form(link, "https://img.example", false); got != link {
		t.Errorf("empty template should pass link through, got %q", got)
	}
}
