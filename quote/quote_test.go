package quote

import (
	"errors"
	"strings"
	"testing"
)

func TestNewRejectsBlank(t *testing.T) {
	for _, text := range []string{"", "   ", "\r\n\t"} {
		if _, err := New(text, "t", ""); !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("New(%q): expected ErrEmptyInput, got %v", text, err)
		}
	}
}

func TestNormalize(t *testing.T) {
	// "e" + U+0301 组合为 "é"
	got := Normalize("  cafe\u0301\r\nline2\r ")
	want := "caf\u00e9\nline2"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestCaptionAlwaysHasPrefix(t *testing.T) {
	q, err := New("学而时习之", "  论语  ", "https://example.com")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := q.Caption(DefaultCaptionPrefix); got != "Source: 论语" {
		t.Fatalf("caption = %q", got)
	}
	q.Title = ""
	if got := q.Caption("来源："); got != "来源：" {
		t.Fatalf("caption with empty title = %q", got)
	}
}

func TestTitleFromHTML(t *testing.T) {
	cases := []struct {
		name string
		page string
		want string
	}{
		{"simple", `<html><head><title>金句 | 博客</title></head><body>x</body></html>`, "金句 | 博客"},
		{"whitespace", "<title>\n  Hello\n  World </title>", "Hello World"},
		{"entities", `<title>Tom &amp; Jerry</title>`, "Tom & Jerry"},
		{"missing", `<html><body><p>no title</p></body></html>`, ""},
		{"svg title ignored", `<html><body><svg><title>icon</title></svg></body></html>`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TitleFromHTML(strings.NewReader(tc.page))
			if err != nil {
				t.Fatalf("TitleFromHTML: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
