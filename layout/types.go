package layout

// Target 描述输出画布尺寸（逻辑像素）。
type Target struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Metrics 保存排版常量。LineHeight 与 FontSize 的比例（参考值 1.5）在缩放时保持不变。
type Metrics struct {
	FontSize        float64 `json:"fontSize"`
	LineHeight      float64 `json:"lineHeight"`
	CaptionFontSize float64 `json:"captionFontSize"`
	Padding         float64 `json:"padding"`      // 正文左右各留的空白
	CaptionInset    float64 `json:"captionInset"` // 来源距右边和底边的距离
}

// Align 表示水平对齐方式。
type Align string

const (
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Placement 是一段已定位的文本。Y 为该行垂直中线，对应 canvas 的 textBaseline=middle。
type Placement struct {
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Align Align   `json:"align"`
}

// Plan 是一次排版的完整结果，渲染器按顺序绘制 Lines 后再绘制 Caption。
type Plan struct {
	Target      Target      `json:"target"`
	Metrics     Metrics     `json:"metrics"`
	Lines       []Placement `json:"lines"`
	Caption     Placement   `json:"caption"`
	BlockHeight float64     `json:"blockHeight"`
	StartY      float64     `json:"startY"`
}

// DefaultTarget 返回参考画布 800x400。
func DefaultTarget() Target {
	return Target{Width: 800, Height: 400}
}

// DefaultMetrics 返回参考排版常量：24 号字、36 行高、12 号来源、40 边距、20 内缩。
func DefaultMetrics() Metrics {
	return Metrics{
		FontSize:        24,
		LineHeight:      36,
		CaptionFontSize: 12,
		Padding:         40,
		CaptionInset:    20,
	}
}

// Scaled 按倍率放大画布，用于高分屏导出。
func (t Target) Scaled(f float64) Target {
	if f <= 0 {
		return t
	}
	return Target{Width: t.Width * f, Height: t.Height * f}
}

// Scaled 按倍率放大所有尺寸。
func (m Metrics) Scaled(f float64) Metrics {
	if f <= 0 {
		return m
	}
	return Metrics{
		FontSize:        m.FontSize * f,
		LineHeight:      m.LineHeight * f,
		CaptionFontSize: m.CaptionFontSize * f,
		Padding:         m.Padding * f,
		CaptionInset:    m.CaptionInset * f,
	}
}

// MaxLineWidth 返回正文每行可用宽度。
func (m Metrics) MaxLineWidth(t Target) float64 {
	return t.Width - 2*m.Padding
}
