package layout

import (
	"errors"
	"math"
	"testing"
)

func TestPlaceCentersBlockVertically(t *testing.T) {
	target := DefaultTarget()
	m := DefaultMetrics()

	plan := Place([]string{"一", "二", "三"}, target, m, "Source: demo")

	if plan.BlockHeight != 108 {
		t.Fatalf("block height = %g, want 108", plan.BlockHeight)
	}
	if plan.StartY != 146 {
		t.Fatalf("startY = %g, want 146", plan.StartY)
	}
	for i, line := range plan.Lines {
		wantY := 146 + float64(i)*36
		if line.Y != wantY || line.X != 400 || line.Align != AlignCenter {
			t.Fatalf("line %d placed at (%g,%g,%s), want (400,%g,center)", i, line.X, line.Y, line.Align, wantY)
		}
	}
}

func TestCaptionPositionIndependentOfBody(t *testing.T) {
	target := DefaultTarget()
	m := DefaultMetrics()

	short := Place([]string{"a"}, target, m, "Source: x")
	long := Place(make([]string, 40), target, m, "Source: x")

	if short.Caption != long.Caption {
		t.Fatalf("caption moved: %+v vs %+v", short.Caption, long.Caption)
	}
	if short.Caption.X != 780 || short.Caption.Y != 380 || short.Caption.Align != AlignRight {
		t.Fatalf("unexpected caption placement %+v", short.Caption)
	}
}

func TestComposeUsesPaddedWidth(t *testing.T) {
	target := DefaultTarget()
	m := DefaultMetrics()

	// 720 像素可用宽度，每字 24 像素，正好 30 个字一行。
	text := ""
	for i := 0; i < 45; i++ {
		text += "字"
	}
	plan, err := Compose(text, target, m, FixedWidth(24), "Source: t")
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	if got := len(plan.Lines); got != 2 {
		t.Fatalf("expected 2 lines, got %d", got)
	}
	if n := len([]rune(plan.Lines[0].Text)); n != 30 {
		t.Fatalf("first line has %d runes, want 30", n)
	}
}

func TestComposeRejectsBlank(t *testing.T) {
	_, err := Compose("  \n\t", DefaultTarget(), DefaultMetrics(), FixedWidth(10), "")
	if !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
}

func TestScaledKeepsLineHeightRatio(t *testing.T) {
	m := DefaultMetrics().Scaled(2)
	if ratio := m.LineHeight / m.FontSize; math.Abs(ratio-1.5) > 1e-9 {
		t.Fatalf("line height ratio = %g, want 1.5", ratio)
	}
	if got := m.MaxLineWidth(DefaultTarget().Scaled(2)); got != 1440 {
		t.Fatalf("max line width = %g, want 1440", got)
	}
	if DefaultMetrics().Scaled(0) != DefaultMetrics() {
		t.Fatalf("non-positive scale must be ignored")
	}
}
