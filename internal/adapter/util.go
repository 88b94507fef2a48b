package adapter

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// normalizeText collapses runs of whitespace into single spaces and trims
// both ends.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// absoluteURL resolves href against the page it was found on. Unparseable
// links are returned unchanged.
func absoluteURL(baseURL, href string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// leadingText returns the text of sel's first node that precedes its first
// child element.
func leadingText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	var b strings.Builder
	for n := sel.Nodes[0].FirstChild; n != nil && n.Type != html.ElementNode; n = n.NextSibling {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	}
	return b.String()
}

// trailingText returns the text that follows the last child element of sel's
// first node.
func trailingText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	var last *html.Node
	for n := sel.Nodes[0].FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode {
			last = n
		}
	}
	if last == nil {
		return ""
	}
	var b strings.Builder
	for n := last.NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	}
	return b.String()
}
