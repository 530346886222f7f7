package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golden_quote/config"
	"golden_quote/layout"
	"golden_quote/publisher"
	"golden_quote/quote"
	"golden_quote/render"
	"golden_quote/server"
	"golden_quote/style"
	"golden_quote/summarizer"
)

var verbose bool

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	configPath := flag.String("config", config.DefaultPath, "path to config.json")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	static := flag.String("static", "", "directory of static files when --serve (overrides config.static_dir)")
	text := flag.String("text", "", "quote text to render")
	textFile := flag.String("text-file", "", "read quote text from file")
	styleName := flag.String("style", style.Default, "style name")
	title := flag.String("title", "", "source title drawn in the caption")
	htmlPath := flag.String("html", "", "take the caption title from this HTML page")
	out := flag.String("out", "", "output file (extension selects the format when --format is empty)")
	format := flag.String("format", "", "png, jpeg or pdf")
	summarize := flag.Bool("summarize", false, "condense the text with the configured LLM before rendering")
	layoutOut := flag.String("layout", "", "write the layout plan as JSON to this file")
	flag.BoolVar(&verbose, "v", false, "enable info logs")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fail(err)
	}

	styles := style.NewRegistry()
	if cfg.StylesPath != "" {
		if err := styles.LoadFile(cfg.StylesPath); err != nil {
			fail(err)
		}
	}
	if cfg.FontPath == "" {
		log.Printf("[render] font_path not set, using Go Regular; CJK text will render as missing glyphs")
	}
	renderer, err := render.New(render.Options{
		FontPath: cfg.FontPath,
		Target:   layout.Target{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height},
		Scale:    cfg.Canvas.Scale,
	})
	if err != nil {
		fail(err)
	}

	// Web server mode
	if *serve {
		if *addr != "" {
			cfg.ServerAddr = *addr
		}
		if *static != "" {
			cfg.StaticDir = *static
		}
		if err := runServer(cfg, styles, renderer); err != nil {
			fail(err)
		}
		return
	}

	body, err := readText(*text, *textFile)
	if err != nil {
		fail(err)
	}
	if *out == "" {
		fail(errors.New("--out is required (or use --serve)"))
	}
	caption := *title
	if *htmlPath != "" {
		f, err := os.Open(*htmlPath)
		if err != nil {
			fail(err)
		}
		caption, err = quote.TitleFromHTML(f)
		f.Close()
		if err != nil {
			fail(err)
		}
	}
	q, err := quote.New(body, caption, "")
	if err != nil {
		fail(err)
	}

	if *summarize {
		sum, err := buildSummarizer(cfg)
		if err != nil {
			fail(err)
		}
		if sum == nil {
			fail(errors.New("--summarize needs an llm section in the config"))
		}
		res, err := sum.Summarize(context.Background(), q.Text)
		if err != nil {
			fail(err)
		}
		log.Printf("[cli] summarized %d -> %d chars in %s", len([]rune(q.Text)), len([]rune(res.Summary)), res.Latency.Round(time.Millisecond))
		q.Text = res.Summary
	}

	st, err := styles.Get(*styleName)
	if err != nil {
		fail(err)
	}
	fmtOut, outPath, err := outputFormat(*format, *out)
	if err != nil {
		fail(err)
	}
	if missing := renderer.MissingGlyphs(q.Text); len(missing) > 0 {
		log.Printf("[cli] font has no glyphs for %q; set font_path to a font that covers them", string(missing))
	}

	card := render.Card{Text: q.Text, Caption: q.Caption(cfg.Prefix()), Style: st}
	if *layoutOut != "" {
		if err := writeLayout(renderer, card, *layoutOut); err != nil {
			fail(err)
		}
	}
	data, err := renderer.Render(card, fmtOut)
	if err != nil {
		fail(err)
	}

	outDir, name := filepath.Split(outPath)
	if outDir == "" {
		outDir = "."
	}
	pub, err := publisher.New(outDir, verbose, log.Default())
	if err != nil {
		fail(err)
	}
	path, err := pub.Save(name, data, filepath.Ext(name))
	if err != nil {
		fail(err)
	}
	log.Printf("[cli] rendered style=%s format=%s -> %s", st.Name, fmtOut, path)
	fmt.Println(path)
}

func runServer(cfg config.Config, styles *style.Registry, renderer *render.Renderer) error {
	sum, err := buildSummarizer(cfg)
	if err != nil {
		return err
	}
	if sum == nil {
		log.Printf("[server] llm not configured; /api/summarize will fail")
	}
	pub, err := publisher.New(cfg.SaveDir, verbose, log.Default())
	if err != nil {
		return err
	}
	opts := server.Options{
		Renderer:      renderer,
		Styles:        styles,
		Publisher:     pub,
		Summarizer:    sum,
		CaptionPrefix: cfg.Prefix(),
		Verbose:       verbose,
		Logger:        log.Default(),
	}
	if cfg.StaticDir != "" {
		opts.StaticFS = os.DirFS(cfg.StaticDir)
	}
	srv, err := server.New(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.StylesPath != "" {
		if err := styles.Watch(ctx, cfg.StylesPath, log.Default()); err != nil {
			log.Printf("[style] hot reload disabled: %v", err)
		}
	}

	httpSrv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Printf("Starting web server on %s (images -> %s)", cfg.ServerAddr, pub.Dir())
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Printf("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildSummarizer 在未配置 llm 时返回 nil。
func buildSummarizer(cfg config.Config) (*summarizer.Summarizer, error) {
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		return nil, nil
	}
	settings := summarizer.LLMSettings{
		Provider:     cfg.LLM.Provider,
		Model:        cfg.LLM.Model,
		APIKey:       cfg.LLM.APIKey,
		BaseURL:      cfg.LLM.BaseURL,
		Temperature:  cfg.LLM.Temperature,
		Timeout:      cfg.LLM.Timeout(),
		SystemPrompt: cfg.LLM.SystemPrompt,
	}
	client, err := summarizer.NewClient(settings)
	if err != nil {
		return nil, err
	}
	return summarizer.New(client, settings, verbose, log.Default())
}

// outputFormat 解析输出格式：--format 为空时取 --out 的扩展名；
// 两者都给出时必须一致，--out 没有扩展名时补上。
func outputFormat(flagFormat, out string) (render.Format, string, error) {
	ext := filepath.Ext(out)
	if flagFormat == "" {
		flagFormat = strings.TrimPrefix(ext, ".")
	}
	f, err := render.ParseFormat(flagFormat)
	if err != nil {
		return "", "", err
	}
	if ext == "" {
		return f, out + f.Ext(), nil
	}
	fromExt, err := render.ParseFormat(strings.TrimPrefix(ext, "."))
	if err != nil || fromExt != f {
		return "", "", fmt.Errorf("--format %s does not match output file %s", flagFormat, out)
	}
	return f, out, nil
}

func readText(text, path string) (string, error) {
	if path == "" {
		return text, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func writeLayout(r *render.Renderer, card render.Card, path string) error {
	plan, err := r.Layout(card)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
