// Package htmlutil extracts segmentable text from HTML pages.
package htmlutil

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/happyhackingspace/wordseg/internal/textutil"
	"golang.org/x/net/html"
)

// LoadHTML parses HTML bytes into a goquery Document.
func LoadHTML(r io.Reader) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(r)
}

// LoadHTMLString parses HTML string into a goquery Document.
func LoadHTMLString(htmlStr string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
}

// skipTags hold no human-readable text.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"svg":      true,
}

// blockTags start a new line of text.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "td": true, "th": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true, "blockquote": true,
	"option": true, "pre": true,
}

// VisibleText returns the document's readable text, one block per line.
// Script, style and other non-rendered content is dropped.
func VisibleText(doc *goquery.Document) []string {
	var lines []string
	var buf strings.Builder

	flush := func() {
		line := strings.TrimSpace(textutil.NormalizeWhitespaces(buf.String()))
		if line != "" {
			lines = append(lines, line)
		}
		buf.Reset()
	}

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
			return
		case html.ElementNode:
			if skipTags[n.Data] {
				return
			}
			if blockTags[n.Data] {
				flush()
				defer flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}

	for _, n := range doc.Nodes {
		visit(n)
	}
	flush()
	return lines
}

// Title returns the document title, trimmed.
func Title(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// Lang returns the lang attribute of the <html> element, if any.
func Lang(doc *goquery.Document) string {
	lang, _ := doc.Find("html").First().Attr("lang")
	return strings.TrimSpace(lang)
}
