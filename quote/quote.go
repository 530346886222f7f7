package quote

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyInput 表示选中的文本为空，操作在排版前中止。
var ErrEmptyInput = errors.New("请输入要转换的文字内容")

// DefaultCaptionPrefix 是来源前缀。
const DefaultCaptionPrefix = "Source: "

// Quote 是用户选中的一段文字及其来源页面。
type Quote struct {
	Text  string `json:"text"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// New 规范化文本并校验非空。
func New(text, title, url string) (Quote, error) {
	q := Quote{
		Text:  Normalize(text),
		Title: strings.TrimSpace(title),
		URL:   strings.TrimSpace(url),
	}
	if q.Text == "" {
		return Quote{}, ErrEmptyInput
	}
	return q, nil
}

// Normalize 统一为 NFC、换行统一为 \n，并去掉首尾空白。
// 网页里同一个字可能以组合序列出现，NFC 之后逐字符折行才不会把组合符拆到下一行。
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimSpace(norm.NFC.String(text))
}

// Caption 返回右下角的来源文字。标题为空时仍然绘制前缀，与弹窗行为一致。
func (q Quote) Caption(prefix string) string {
	return prefix + q.Title
}
