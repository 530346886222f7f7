package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"golden_quote/quote"
	"golden_quote/render"
	"golden_quote/style"
	"golden_quote/summarizer"
)

type fakeRenderer struct {
	mu    sync.Mutex
	cards []render.Card
}

func (f *fakeRenderer) Render(card render.Card, format render.Format) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards = append(f.cards, card)
	return []byte(string(format) + ":" + card.Text), nil
}

type fakeSaver struct {
	name string
	data []byte
	ext  string
	err  error
}

func (f *fakeSaver) Save(filename string, data []byte, ext string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.name, f.data, f.ext = filename, data, ext
	return "/saved/" + filename, nil
}

type fakeSummarizer struct {
	started chan struct{}
	release chan struct{}
	summary string
	err     error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string) (summarizer.Result, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return summarizer.Result{}, f.err
	}
	return summarizer.Result{Summary: f.summary}, nil
}

func newTestSession(sum Summarizer) (*Session, *fakeRenderer, *fakeSaver) {
	r := &fakeRenderer{}
	sv := &fakeSaver{}
	return New("t1", Deps{
		Renderer:      r,
		Styles:        style.NewRegistry(),
		Saver:         sv,
		Summarizer:    sum,
		CaptionPrefix: quote.DefaultCaptionPrefix,
	}), r, sv
}

func TestHappyPath(t *testing.T) {
	s, r, sv := newTestSession(nil)
	if s.State() != Idle {
		t.Fatalf("initial state = %s", s.State())
	}
	if err := s.Select("学而时习之", "论语", "https://example.com"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if s.State() != TextSelected {
		t.Fatalf("after select = %s", s.State())
	}
	if err := s.SetStyle(style.GradientPink); err != nil {
		t.Fatalf("SetStyle: %v", err)
	}
	img, err := s.Generate(render.PNG)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(img.Data) != "png:学而时习之" {
		t.Fatalf("image = %q", img.Data)
	}
	card := r.cards[0]
	if card.Caption != "Source: 论语" || card.Style.Name != style.GradientPink {
		t.Fatalf("card = %+v", card)
	}
	if s.State() != ImageGenerated {
		t.Fatalf("after generate = %s", s.State())
	}
	path, err := s.Save("q.png")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if path != "/saved/q.png" || sv.ext != ".png" {
		t.Fatalf("saved %s ext %s", path, sv.ext)
	}

	v := s.View()
	if len(v.History) != 4 {
		t.Fatalf("history = %+v", v.History)
	}
	if v.ImageURL == "" || v.Format != render.PNG {
		t.Fatalf("view image missing: %+v", v)
	}
}

func TestSelectBlankKeepsState(t *testing.T) {
	s, _, _ := newTestSession(nil)
	if err := s.Select("  \n", "", ""); !errors.Is(err, quote.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if s.State() != Idle {
		t.Fatalf("state = %s", s.State())
	}
}

func TestInvalidTransitions(t *testing.T) {
	s, _, _ := newTestSession(nil)
	if err := s.Edit("x"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("edit in idle: %v", err)
	}
	if _, err := s.Generate(render.PNG); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("generate in idle: %v", err)
	}
	if _, err := s.Save("x.png"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("save in idle: %v", err)
	}
	if err := s.Select("text", "", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save("x.png"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("save before generate: %v", err)
	}
}

func TestEditAndStyleDropImage(t *testing.T) {
	s, _, _ := newTestSession(nil)
	_ = s.Select("first", "", "")
	if _, err := s.Generate(render.PNG); err != nil {
		t.Fatal(err)
	}
	if err := s.Edit("second"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if s.State() != TextSelected {
		t.Fatalf("after edit = %s", s.State())
	}
	if _, ok := s.Image(); ok {
		t.Fatal("edit should drop the image")
	}
	if err := s.Edit(" "); !errors.Is(err, quote.ErrEmptyInput) {
		t.Fatalf("blank edit: %v", err)
	}
	if s.View().Text != "second" {
		t.Fatalf("blank edit changed the text")
	}

	if _, err := s.Generate(render.JPEG); err != nil {
		t.Fatal(err)
	}
	if err := s.SetStyle(style.DarkBlack); err != nil {
		t.Fatal(err)
	}
	if s.State() != TextSelected {
		t.Fatalf("after style = %s", s.State())
	}
	if err := s.SetStyle("neon"); !errors.Is(err, style.ErrUnknownStyle) {
		t.Fatalf("unknown style: %v", err)
	}
}

func TestSetStyleInIdle(t *testing.T) {
	s, r, _ := newTestSession(nil)
	if err := s.SetStyle(style.DarkBlack); err != nil {
		t.Fatalf("SetStyle in idle: %v", err)
	}
	if s.State() != Idle {
		t.Fatalf("state = %s", s.State())
	}
	_ = s.Select("text", "", "")
	if _, err := s.Generate(""); err != nil {
		t.Fatal(err)
	}
	if r.cards[0].Style.Name != style.DarkBlack {
		t.Fatalf("style = %s", r.cards[0].Style.Name)
	}
}

func TestSummarizeUnavailable(t *testing.T) {
	s, _, _ := newTestSession(nil)
	_ = s.Select("text", "", "")
	if _, err := s.Summarize(context.Background()); !errors.Is(err, ErrSummarizeUnavailable) {
		t.Fatalf("expected ErrSummarizeUnavailable, got %v", err)
	}
}

func TestSummarizeReplacesText(t *testing.T) {
	s, _, _ := newTestSession(&fakeSummarizer{summary: "一句话"})
	_ = s.Select("很长很长的文字", "", "")
	_, _ = s.Generate(render.PNG)

	got, err := s.Summarize(context.Background())
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	v := s.View()
	if got != "一句话" || v.Text != "一句话" {
		t.Fatalf("summary %q text %q", got, v.Text)
	}
	if v.State != TextSelected || v.ImageURL != "" {
		t.Fatalf("summarize should behave like edit: %+v", v)
	}
}

func TestSummarizeFailureKeepsText(t *testing.T) {
	s, _, _ := newTestSession(&fakeSummarizer{err: summarizer.ErrRequestFailed})
	_ = s.Select("原文", "", "")
	if _, err := s.Summarize(context.Background()); !errors.Is(err, summarizer.ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	v := s.View()
	if v.Text != "原文" || v.Busy {
		t.Fatalf("failure should keep text and clear busy: %+v", v)
	}
}

func TestSummarizeBusy(t *testing.T) {
	sum := &fakeSummarizer{started: make(chan struct{}), release: make(chan struct{}), summary: "done"}
	s, _, _ := newTestSession(sum)
	_ = s.Select("text", "", "")

	errc := make(chan error, 1)
	go func() {
		_, err := s.Summarize(context.Background())
		errc <- err
	}()
	<-sum.started
	if !s.View().Busy {
		t.Fatal("session should be busy during summarize")
	}
	if _, err := s.Summarize(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(sum.release)
	if err := <-errc; err != nil {
		t.Fatalf("first summarize: %v", err)
	}
	if s.View().Busy {
		t.Fatal("busy flag not cleared")
	}
}

func TestStore(t *testing.T) {
	st := NewStore(Deps{Styles: style.NewRegistry()})
	a := st.Create()
	b := st.Create()
	if a.ID == b.ID {
		t.Fatalf("duplicate id %s", a.ID)
	}
	got, err := st.Get(a.ID)
	if err != nil || got != a {
		t.Fatalf("Get: %v", err)
	}
	if _, err := st.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if st.Len() != 2 {
		t.Fatalf("len = %d", st.Len())
	}
	st.Delete(a.ID)
	if _, err := st.Get(a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted session still found: %v", err)
	}
	st.Delete("missing")
	if st.Len() != 1 {
		t.Fatalf("len after delete = %d", st.Len())
	}
}
