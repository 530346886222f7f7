package summarizer

import (
	"errors"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var errEmptySummary = errors.New("model returned empty summary")

// 模型偶尔会把金句包在引号里。
var quotePairs = [][2]string{
	{"“", "”"},
	{"\"", "\""},
	{"「", "」"},
	{"『", "』"},
	{"‘", "’"},
	{"'", "'"},
}

// PostProcess 去掉 Markdown 标记和外层引号，得到可直接排版的纯文本。
func PostProcess(raw string) (string, error) {
	s := stripMarkdown(strings.TrimSpace(raw))
	s = trimQuotes(s)
	if s == "" {
		return "", errEmptySummary
	}
	return s, nil
}

// stripMarkdown 遍历 goldmark AST，只保留文本节点；块之间用换行分隔。
func stripMarkdown(md string) string {
	src := []byte(md)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var b strings.Builder
	newBlock := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			newBlock()
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(node.Value)
		default:
			if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument {
				newBlock()
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func trimQuotes(s string) string {
	for {
		trimmed := false
		for _, p := range quotePairs {
			if len(s) >= len(p[0])+len(p[1]) && strings.HasPrefix(s, p[0]) && strings.HasSuffix(s, p[1]) {
				inner := s[len(p[0]) : len(s)-len(p[1])]
				// 内部还有同类引号时说明不是整体包裹，例如 "a" 和 "b"
				if strings.Contains(inner, p[0]) || strings.Contains(inner, p[1]) {
					continue
				}
				s = strings.TrimSpace(inner)
				trimmed = true
			}
		}
		if !trimmed {
			return s
		}
	}
}
