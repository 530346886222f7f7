package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"golden_quote/layout"
	"golden_quote/style"
)

const (
	mmPerPx = 25.4 / 96
	ptPerPx = 0.75
)

func pxToMM(v float64) float64 { return v * mmPerPx }

func (r *Renderer) family() (*canvas.FontFamily, error) {
	r.pdfOnce.Do(func() {
		family := canvas.NewFontFamily("golden-quote")
		if err := family.LoadFont(r.fontData, 0, canvas.FontRegular); err != nil {
			r.pdfErr = fmt.Errorf("load pdf font: %w", err)
			return
		}
		r.pdfFamily = family
	})
	return r.pdfFamily, r.pdfErr
}

// renderPDF 输出单页矢量 PDF：背景用光栅底图，文字保持可选中。
// 折行沿用光栅度量，保证与 PNG 版本一致。
func (r *Renderer) renderPDF(card Card) ([]byte, error) {
	family, err := r.family()
	if err != nil {
		return nil, err
	}
	plan, err := r.Layout(card)
	if err != nil {
		return nil, err
	}

	bg, err := r.background(plan.Target, card.Style, r.scale)
	if err != nil {
		return nil, err
	}
	_ = bg.FlushGPU()
	img := bg.Image()
	bg.Close()

	wMM, hMM := pxToMM(plan.Target.Width), pxToMM(plan.Target.Height)
	c := canvas.New(wMM, hMM)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)
	ctx.DrawImage(0, 0, img, canvas.DPMM(float64(img.Bounds().Dx())/wMM))

	for _, p := range plan.Lines {
		r.drawPDFText(ctx, family, plan.Metrics.FontSize, p, card.Style)
	}
	r.drawPDFText(ctx, family, plan.Metrics.CaptionFontSize, plan.Caption, card.Style)

	var buf bytes.Buffer
	writer := pdf.New(&buf, wMM, hMM, nil)
	writer.SetInfo(card.Caption, "", "", "", "golden_quote")
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawPDFText(ctx *canvas.Context, family *canvas.FontFamily, sizePx float64, p layout.Placement, st style.Spec) {
	s := displayText(p.Text)
	if s == "" {
		return
	}
	align := canvas.Left
	switch p.Align {
	case layout.AlignCenter:
		align = canvas.Center
	case layout.AlignRight:
		align = canvas.Right
	}

	face := family.Face(sizePx*ptPerPx, hexColor(st.TextColor, 1), canvas.FontRegular, canvas.FontNormal)
	m := face.Metrics()
	x := pxToMM(p.X)
	baseline := pxToMM(p.Y) + (m.Ascent-math.Abs(m.Descent))/2

	if sh := st.Shadow; sh != nil {
		shadow := family.Face(sizePx*ptPerPx, hexColor(sh.Color, sh.Alpha), canvas.FontRegular, canvas.FontNormal)
		ctx.DrawText(x+pxToMM(sh.OffsetX*r.scale), baseline+pxToMM(sh.OffsetY*r.scale), canvas.NewTextLine(shadow, s, align))
	}
	ctx.DrawText(x, baseline, canvas.NewTextLine(face, s, align))
}

func hexColor(hex string, alpha float64) color.Color {
	cr, cg, cb, ca := style.RGBA(hex, alpha)
	return canvas.RGBA(cr, cg, cb, ca)
}
