package render

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"github.com/tdewolff/canvas"
	"golang.org/x/image/font/gofont/goregular"

	"golden_quote/layout"
	"golden_quote/style"
)

const defaultJPEGQuality = 92

// Card 是一次渲染的全部输入。
type Card struct {
	Text    string
	Caption string
	Style   style.Spec
}

// Options 配置渲染器。
type Options struct {
	FontPath    string // 空串使用内置 Go Regular；中文需要配置 CJK 字体
	Target      layout.Target
	Metrics     layout.Metrics
	Scale       float64
	JPEGQuality int
}

// Renderer 把文字卡片绘制为 PNG/JPEG（gogpu/gg）或 PDF（tdewolff/canvas）。
// 可被多个请求并发使用。
type Renderer struct {
	fontData    []byte
	source      *text.FontSource
	baseTarget  layout.Target  // 未缩放
	baseMetrics layout.Metrics // 未缩放
	target      layout.Target
	metrics     layout.Metrics
	scale       float64
	jpegQuality int

	pdfOnce   sync.Once
	pdfFamily *canvas.FontFamily
	pdfErr    error
}

// New 加载字体并创建渲染器。
func New(opts Options) (*Renderer, error) {
	data := goregular.TTF
	if opts.FontPath != "" {
		b, err := os.ReadFile(opts.FontPath)
		if err != nil {
			return nil, fmt.Errorf("read font %s: %w", opts.FontPath, err)
		}
		data = b
	}
	source, err := text.NewFontSource(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	target := opts.Target
	if target.Width <= 0 || target.Height <= 0 {
		target = layout.DefaultTarget()
	}
	metrics := opts.Metrics
	if metrics.FontSize <= 0 {
		metrics = layout.DefaultMetrics()
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	quality := opts.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = defaultJPEGQuality
	}

	return &Renderer{
		fontData:    data,
		source:      source,
		baseTarget:  target,
		baseMetrics: metrics,
		target:      target.Scaled(scale),
		metrics:     metrics.Scaled(scale),
		scale:       scale,
		jpegQuality: quality,
	}, nil
}

// Target 返回缩放后的画布尺寸。
func (r *Renderer) Target() layout.Target { return r.target }

// Measurer 返回指定字号下的宽度度量函数。
func (r *Renderer) Measurer(size float64) layout.Measurer {
	face := r.source.Face(size)
	return func(line string) float64 {
		return face.Advance(displayText(line))
	}
}

// Layout 使用光栅字体度量排版，不绘制。
func (r *Renderer) Layout(card Card) (layout.Plan, error) {
	return layout.Compose(card.Text, r.target, r.metrics, r.Measurer(r.metrics.FontSize), card.Caption)
}

// ComposeImage 把已折好的行按主题绘制到画布上。
// 字号、边距、描边按 target 相对基准画布的宽度比例缩放。
// 顺序：背景（纯色/描边或渐变）→ 文字颜色与阴影 → 正文自上而下 → 右下角来源。
func (r *Renderer) ComposeImage(lines []string, st style.Spec, target layout.Target, caption string) (image.Image, error) {
	scale := r.scaleFor(target)
	dc, err := r.compose(layout.Place(lines, target, r.baseMetrics.Scaled(scale), caption), st, scale)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	_ = dc.FlushGPU()
	return dc.Image(), nil
}

// Render 排版、绘制并编码。
func (r *Renderer) Render(card Card, format Format) ([]byte, error) {
	if err := card.Style.Validate(); err != nil {
		return nil, err
	}
	if format == PDF {
		return r.renderPDF(card)
	}

	plan, err := r.Layout(card)
	if err != nil {
		return nil, err
	}
	dc, err := r.compose(plan, card.Style, r.scale)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	_ = dc.FlushGPU()

	var buf bytes.Buffer
	switch format {
	case PNG, "":
		err = dc.EncodePNG(&buf)
	case JPEG:
		err = dc.EncodeJPEG(&buf, r.jpegQuality)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) scaleFor(target layout.Target) float64 {
	if r.baseTarget.Width <= 0 || target.Width <= 0 {
		return r.scale
	}
	return target.Width / r.baseTarget.Width
}

func (r *Renderer) compose(plan layout.Plan, st style.Spec, scale float64) (*gg.Context, error) {
	dc, err := r.background(plan.Target, st, scale)
	if err != nil {
		return nil, err
	}

	body := r.source.Face(plan.Metrics.FontSize)
	for _, p := range plan.Lines {
		drawText(dc, body, p, st, scale)
	}
	drawText(dc, r.source.Face(plan.Metrics.CaptionFontSize), plan.Caption, st, scale)
	return dc, nil
}

// background 绘制背景与描边，不含文字；PDF 导出复用它作为底图。
func (r *Renderer) background(target layout.Target, st style.Spec, scale float64) (*gg.Context, error) {
	w := int(math.Round(target.Width))
	h := int(math.Round(target.Height))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", w, h)
	}
	dc := gg.NewContext(w, h)

	switch st.Background.Kind {
	case style.FillGradient:
		paintGradient(dc, st.Background, w, h)
	default:
		dc.ClearWithColor(gg.Hex(st.Background.Color))
	}

	if b := st.Border; b != nil {
		lw := b.Width * scale
		dc.SetHexColor(b.Color)
		dc.SetLineWidth(lw)
		dc.DrawRectangle(lw/2, lw/2, float64(w)-lw, float64(h)-lw)
		if err := dc.Stroke(); err != nil {
			dc.Close()
			return nil, fmt.Errorf("stroke border: %w", err)
		}
	}
	return dc, nil
}

// paintGradient 逐像素采样 gg 的线性渐变，从左上角 (0,0) 到右下角 (w,h)。
// 软件光栅器的 Fill 只支持纯色画刷，因此这里直接写像素。
func paintGradient(dc *gg.Context, fill style.Fill, w, h int) {
	grad := gg.NewLinearGradientBrush(0, 0, float64(w), float64(h)).
		AddColorStop(0, gg.Hex(fill.From)).
		AddColorStop(1, gg.Hex(fill.To))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dc.SetPixel(x, y, grad.ColorAt(float64(x)+0.5, float64(y)+0.5))
		}
	}
}

// drawText 按 canvas 的 textBaseline=middle 语义绘制：Placement.Y 是字形垂直中线。
func drawText(dc *gg.Context, face text.Face, p layout.Placement, st style.Spec, scale float64) {
	s := displayText(p.Text)
	if s == "" {
		return
	}
	dc.SetFont(face)
	x := anchorX(p, face.Advance(s))
	m := face.Metrics()
	baseline := p.Y + (m.Ascent-m.Descent)/2

	if sh := st.Shadow; sh != nil {
		cr, cg, cb, ca := style.RGBA(sh.Color, sh.Alpha)
		dc.SetRGBA(cr, cg, cb, ca)
		dc.DrawString(s, x+sh.OffsetX*scale, baseline+sh.OffsetY*scale)
	}
	dc.SetHexColor(st.TextColor)
	dc.DrawString(s, x, baseline)
}

func anchorX(p layout.Placement, width float64) float64 {
	switch p.Align {
	case layout.AlignCenter:
		return p.X - width/2
	case layout.AlignRight:
		return p.X - width
	default:
		return p.X
	}
}

// MissingGlyphs 返回 s 中当前字体无法绘制的字符（去重，保持出现顺序）。
// 默认的 Go Regular 不含中日韩字形，这些字符会被画成缺字方框。
func (r *Renderer) MissingGlyphs(s string) []rune {
	face := r.source.Face(r.metrics.FontSize)
	seen := make(map[rune]bool)
	var missing []rune
	for _, c := range displayText(s) {
		if c == ' ' || seen[c] || face.HasGlyph(c) {
			continue
		}
		seen[c] = true
		missing = append(missing, c)
	}
	return missing
}

// displayText 把换行、制表符等控制空白画成空格，与浏览器 canvas 的 fillText 一致。
func displayText(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', '\f', '\v':
			return ' '
		}
		return r
	}, s)
}
