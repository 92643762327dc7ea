package normalizer

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// articleSelectors are tried in order; the first matching element wins.
var articleSelectors = []struct {
	tag   atom.Atom
	class string
}{
	{atom.Article, ""},
	{atom.Div, "article-body"},
	{atom.Div, "article__content"},
	{atom.Section, "articleContent"},
}

// ExtractText returns the visible text of an HTML document, preferring the
// main article container when one exists. Script and style contents are
// dropped. Input without markup comes back as its text.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}
	for _, sel := range articleSelectors {
		if n := findElement(doc, sel.tag, sel.class); n != nil {
			return collectText(n), nil
		}
	}
	return collectText(doc), nil
}

func findElement(n *html.Node, tag atom.Atom, class string) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == tag && (class == "" || hasClass(n, class)) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func collectText(root *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.Join(parts, " ")
}
