package layout

import "unicode/utf8"

// Measurer 返回一行候选文本在当前字体下的渲染宽度（像素）。
type Measurer func(line string) float64

// WrapText 逐字符贪心折行。
//
// 不按空格分词：中文等文本没有词边界，因此每个 rune 都是一个断行机会。
// 宽度恰好等于 maxWidth 的行会被接受；单个字符本身超宽时独占一行，不再拆分。
// 各行按顺序拼接后与输入完全一致。
func WrapText(text string, maxWidth float64, measure Measurer) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); {
		// 非法 UTF-8 字节按单字节前进，行切片直接取自原文，不会被替换成 U+FFFD
		_, size := utf8.DecodeRuneInString(text[i:])
		end := i + size
		if measure(text[start:end]) > maxWidth && i > start {
			lines = append(lines, text[start:i])
			start = i
		}
		i = end
	}
	return append(lines, text[start:])
}

// FixedWidth 以固定字宽度量文本，便于测试和无字体环境下的粗排。
func FixedWidth(perRune float64) Measurer {
	return func(line string) float64 {
		return float64(utf8.RuneCountInString(line)) * perRune
	}
}
