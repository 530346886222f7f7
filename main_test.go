package main

import (
	"testing"

	"golden_quote/render"
)

func TestOutputFormat(t *testing.T) {
	cases := []struct {
		format, out string
		want        render.Format
		wantOut     string
	}{
		{"", "card.png", render.PNG, "card.png"},
		{"", "card.JPG", render.JPEG, "card.JPG"},
		{"", "card", render.PNG, "card.png"},
		{"jpeg", "card.jpg", render.JPEG, "card.jpg"},
		{"jpg", "out/card.jpeg", render.JPEG, "out/card.jpeg"},
		{"pdf", "card", render.PDF, "card.pdf"},
	}
	for _, tc := range cases {
		got, out, err := outputFormat(tc.format, tc.out)
		if err != nil {
			t.Fatalf("outputFormat(%q, %q): %v", tc.format, tc.out, err)
		}
		if got != tc.want || out != tc.wantOut {
			t.Fatalf("outputFormat(%q, %q) = %s %s, want %s %s", tc.format, tc.out, got, out, tc.want, tc.wantOut)
		}
	}
}

func TestOutputFormatRejectsMismatch(t *testing.T) {
	for _, tc := range [][2]string{
		{"jpeg", "card.png"},
		{"png", "card.pdf"},
		{"gif", "card.gif"},
		{"", "card.gif"},
	} {
		if _, _, err := outputFormat(tc[0], tc[1]); err == nil {
			t.Fatalf("outputFormat(%q, %q): expected error", tc[0], tc[1])
		}
	}
}
