package summarizer

import (
	"context"
	"strings"
	"unicode/utf8"
)

// MockLLM 一个简单的占位实现，便于本地调试，不调用外部模型。
// 返回原文的第一句。
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	text := strings.TrimSpace(prompt.User)
	if i := strings.IndexAny(text, "。！？!?\n"); i >= 0 {
		_, size := utf8.DecodeRuneInString(text[i:])
		return strings.TrimSpace(text[:i+size]), nil
	}
	return text, nil
}
