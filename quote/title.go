package quote

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// TitleFromHTML 返回页面 <head> 中第一个 <title> 的文本，没有标题时返回空串。
func TitleFromHTML(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}
	n := findElement(doc, "title")
	if n == nil {
		return "", nil
	}
	return strings.Join(strings.Fields(textContent(n)), " "), nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	// <svg> 里的 <title> 不是页面标题
	if n.Type == html.ElementNode && n.Data == "svg" {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
