package style

import (
	"errors"
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ErrUnknownStyle 表示样式名不存在。
var ErrUnknownStyle = errors.New("unknown style")

// FillKind 区分纯色与渐变背景。
type FillKind string

const (
	FillSolid    FillKind = "solid"
	FillGradient FillKind = "gradient"
)

// Fill 描述背景。渐变固定从左上角到右下角，From 为 0 处色标，To 为 1 处色标。
type Fill struct {
	Kind  FillKind `json:"kind"`
	Color string   `json:"color,omitempty"`
	From  string   `json:"from,omitempty"`
	To    string   `json:"to,omitempty"`
}

// Border 描述描边，矩形内缩 Width/2 以保证线宽完整落在画布内。
type Border struct {
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// Shadow 描述文字阴影。
type Shadow struct {
	Color   string  `json:"color"`
	Alpha   float64 `json:"alpha"`
	Blur    float64 `json:"blur,omitempty"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// Spec 是一个命名的视觉主题。
type Spec struct {
	Name       string  `json:"name"`
	Label      string  `json:"label,omitempty"`
	Background Fill    `json:"background"`
	Border     *Border `json:"border,omitempty"`
	TextColor  string  `json:"textColor"`
	Shadow     *Shadow `json:"shadow,omitempty"`
}

// 内置主题名。
const (
	SimpleWhite  = "simple-white"
	DarkBlack    = "dark-black"
	GradientPink = "gradient-pink"

	Default = SimpleWhite
)

// Builtins 返回内置主题，顺序即展示顺序。
func Builtins() []Spec {
	return []Spec{
		{
			Name:       SimpleWhite,
			Label:      "简约白",
			Background: Fill{Kind: FillSolid, Color: "#ffffff"},
			Border:     &Border{Color: "#eeeeee", Width: 2},
			TextColor:  "#333333",
		},
		{
			Name:       DarkBlack,
			Label:      "暗夜黑",
			Background: Fill{Kind: FillSolid, Color: "#222222"},
			TextColor:  "#ffffff",
		},
		{
			Name:       GradientPink,
			Label:      "渐变粉",
			Background: Fill{Kind: FillGradient, From: "#ff9a9e", To: "#fad0c4"},
			TextColor:  "#ffffff",
			Shadow:     &Shadow{Color: "#000000", Alpha: 0.2, Blur: 2, OffsetX: 1, OffsetY: 1},
		},
	}
}

// Validate 检查主题名与所有颜色。
func (s Spec) Validate() error {
	if s.Name == "" {
		return errors.New("style name is required")
	}
	switch s.Background.Kind {
	case FillSolid:
		if err := checkColor(s.Name, "background.color", s.Background.Color); err != nil {
			return err
		}
	case FillGradient:
		if err := checkColor(s.Name, "background.from", s.Background.From); err != nil {
			return err
		}
		if err := checkColor(s.Name, "background.to", s.Background.To); err != nil {
			return err
		}
	default:
		return fmt.Errorf("style %s: background kind %q not supported", s.Name, s.Background.Kind)
	}
	if err := checkColor(s.Name, "textColor", s.TextColor); err != nil {
		return err
	}
	if s.Border != nil {
		if s.Border.Width <= 0 {
			return fmt.Errorf("style %s: border width must be positive", s.Name)
		}
		if err := checkColor(s.Name, "border.color", s.Border.Color); err != nil {
			return err
		}
	}
	if s.Shadow != nil {
		if s.Shadow.Alpha < 0 || s.Shadow.Alpha > 1 {
			return fmt.Errorf("style %s: shadow alpha must be within [0,1]", s.Name)
		}
		if err := checkColor(s.Name, "shadow.color", s.Shadow.Color); err != nil {
			return err
		}
	}
	return nil
}

func checkColor(style, field, hex string) error {
	if _, err := colorful.Hex(hex); err != nil {
		return fmt.Errorf("style %s: %s %q: %w", style, field, hex, err)
	}
	return nil
}

// RGBA 把十六进制颜色转成 0-1 浮点分量，颜色非法时返回黑色。
func RGBA(hex string, alpha float64) (r, g, b, a float64) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return 0, 0, 0, alpha
	}
	c = c.Clamped()
	return c.R, c.G, c.B, alpha
}
