package publisher

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngBase64(t *testing.T) (string, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), buf.Bytes()
}

func newTestPublisher(t *testing.T) (*Publisher, string) {
	t.Helper()
	dir := t.TempDir()
	p, err := New(dir, false, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, dir
}

func TestSaveImageWritesFile(t *testing.T) {
	p, dir := newTestPublisher(t)
	b64, raw := pngBase64(t)

	for _, tc := range []struct{ name, data string }{
		{"quote.png", b64},
		{"nested/day1/Quote.PNG", "data:image/png;base64," + b64},
	} {
		path, err := p.SaveImage(tc.name, tc.data)
		if err != nil {
			t.Fatalf("SaveImage(%s): %v", tc.name, err)
		}
		if want := filepath.Join(dir, filepath.FromSlash(tc.name)); path != want {
			t.Fatalf("path = %s, want %s", path, want)
		}
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read back: %v", err)
		}
		if !bytes.Equal(got, raw) {
			t.Fatalf("%s: bytes differ", tc.name)
		}
	}
	assertNoTemp(t, dir)
}

func TestSaveImageInvalidFilename(t *testing.T) {
	p, dir := newTestPublisher(t)
	b64, _ := pngBase64(t)
	for _, name := range []string{"", "out.txt", "out", "../escape.png", "a/../../escape.png", "/abs/quote.png"} {
		_, err := p.SaveImage(name, b64)
		if !errors.Is(err, ErrInvalidFilename) {
			t.Fatalf("SaveImage(%q): expected ErrInvalidFilename, got %v", name, err)
		}
	}
	_, err := p.SaveImage("out.txt", b64)
	if !strings.Contains(err.Error(), ".png") {
		t.Fatalf("extension error should mention .png: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("nothing should be written, found %d entries", len(entries))
	}
}

func TestSaveImageInvalidData(t *testing.T) {
	p, _ := newTestPublisher(t)
	for _, data := range []string{
		"",
		"data:image/png;base64,",
		"%%%not base64%%%",
		base64.StdEncoding.EncodeToString([]byte("plain text, not an image")),
	} {
		if _, err := p.SaveImage("x.png", data); !errors.Is(err, ErrInvalidData) {
			t.Fatalf("SaveImage(data=%q): expected ErrInvalidData, got %v", data, err)
		}
	}
}

func TestSaveWriteFailed(t *testing.T) {
	dir := t.TempDir()
	// 用普通文件占住子目录的位置，MkdirAll 必然失败
	blocker := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := New(dir, false, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b64, _ := pngBase64(t)
	if _, err := p.SaveImage("blocked/q.png", b64); !errors.Is(err, ErrWriteFailed) {
		t.Fatalf("expected ErrWriteFailed, got %v", err)
	}
	assertNoTemp(t, dir)
}

func TestSaveOtherFormats(t *testing.T) {
	p, dir := newTestPublisher(t)
	path, err := p.Save("card.pdf", []byte("%PDF-1.7"), ".pdf")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != filepath.Join(dir, "card.pdf") {
		t.Fatalf("path = %s", path)
	}
	if _, err := p.Save("card.png", []byte("%PDF-1.7"), ".pdf"); !errors.Is(err, ErrInvalidFilename) {
		t.Fatalf("expected ErrInvalidFilename, got %v", err)
	}
	if _, err := p.Save("empty.pdf", nil, ".pdf"); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
}

func assertNoTemp(t *testing.T, dir string) {
	t.Helper()
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err == nil && strings.HasSuffix(d.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", path)
		}
		return nil
	})
}
