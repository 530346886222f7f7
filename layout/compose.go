package layout

import (
	"errors"
	"strings"
)

// ErrEmptyText 表示正文为空，排版前即被拒绝。
var ErrEmptyText = errors.New("layout: text is empty")

// Place 计算各行与来源的位置。
//
// 正文块整体垂直居中：startY = (height - len(lines)*lineHeight) / 2，
// 第 i 行的中线位于 startY + i*lineHeight，每行水平居中。
// 来源固定在右下角，与正文长度无关；正文过长时二者可能重叠，这里不做检测。
func Place(lines []string, target Target, m Metrics, caption string) Plan {
	blockHeight := float64(len(lines)) * m.LineHeight
	startY := (target.Height - blockHeight) / 2

	placed := make([]Placement, 0, len(lines))
	for i, line := range lines {
		placed = append(placed, Placement{
			Text:  line,
			X:     target.Width / 2,
			Y:     startY + float64(i)*m.LineHeight,
			Align: AlignCenter,
		})
	}

	return Plan{
		Target:  target,
		Metrics: m,
		Lines:   placed,
		Caption: Placement{
			Text:  caption,
			X:     target.Width - m.CaptionInset,
			Y:     target.Height - m.CaptionInset,
			Align: AlignRight,
		},
		BlockHeight: blockHeight,
		StartY:      startY,
	}
}

// Compose 折行并定位。空白正文返回 ErrEmptyText。
func Compose(text string, target Target, m Metrics, measure Measurer, caption string) (Plan, error) {
	if strings.TrimSpace(text) == "" {
		return Plan{}, ErrEmptyText
	}
	lines := WrapText(text, m.MaxLineWidth(target), measure)
	return Place(lines, target, m, caption), nil
}

// LineTexts 返回 Plan 中各行的文本。
func (p Plan) LineTexts() []string {
	out := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		out[i] = l.Text
	}
	return out
}
