package summarizer

import "strings"

// DefaultSystemPrompt 要求模型只用一句话概括全文。
const DefaultSystemPrompt = "使用一个金句总结全文最核心的内容"

// Prompt 表示发送给 LLM 的消息：一条 system，一条 user。
type Prompt struct {
	System      string
	User        string
	Temperature float64
}

// BuildSummaryPrompt 把选中的全文原样作为 user 消息。
func BuildSummaryPrompt(system, text string, temperature float64) Prompt {
	if strings.TrimSpace(system) == "" {
		system = DefaultSystemPrompt
	}
	return Prompt{
		System:      system,
		User:        text,
		Temperature: temperature,
	}
}
