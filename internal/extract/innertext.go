package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipped elements never contribute rendered text
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Head:     true,
	atom.Iframe:   true,
	atom.Svg:      true,
}

// blocks start and end on their own line when rendered
var blocks = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Fieldset: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Tr: true, atom.Ul: true,
}

// flattenWhitespace turns source line breaks into spaces; only elements break rendered lines
var flattenWhitespace = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

// InnerText approximates the rendered text of a selection: hidden and non-visual elements are
// dropped, block elements and <br> break lines, and runs of whitespace collapse to one space.
func InnerText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, n := range sel.Nodes {
		render(&b, n)
	}
	return normalizeLines(b.String())
}

func render(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(flattenWhitespace.Replace(n.Data))
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if skipped[n.DataAtom] || hasAttr(n, "hidden") || hasAttr(n, "aria-hidden", "true") {
			return
		}
		if n.DataAtom == atom.Br {
			b.WriteByte('\n')
			return
		}
	}

	block := n.Type == html.ElementNode && blocks[n.DataAtom]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		render(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}

func hasAttr(n *html.Node, key string, value ...string) bool {
	for _, a := range n.Attr {
		if !strings.EqualFold(a.Key, key) {
			continue
		}
		if len(value) == 0 {
			return true
		}
		return strings.EqualFold(strings.TrimSpace(a.Val), value[0])
	}
	return false
}

// normalizeLines collapses whitespace inside each line and drops empty lines.
func normalizeLines(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
