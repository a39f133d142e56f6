package scraper

import (
	"strings"

	"github.com/account-explorer/internal/types"
	"golang.org/x/net/html"
)

// skipElements are elements whose text content is never user-visible
var skipElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

// visibleText flattens the rendered text of a parsed document,
// approximating what a browser would display.
func visibleText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skipElements[n.Data]; skip {
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// collectAnchors returns every anchor href in document order
func collectAnchors(n *html.Node) []string {
	var hrefs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" && attr.Val != "" {
					hrefs = append(hrefs, attr.Val)
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return hrefs
}

// parseTableRows extracts every table row in the document into cells and
// links. Rows without any cell are dropped.
func parseTableRows(doc *html.Node) []types.TableRow {
	var rows []types.TableRow
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			if row, ok := parseRow(n); ok {
				rows = append(rows, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return rows
}

func parseRow(tr *html.Node) (types.TableRow, bool) {
	var row types.TableRow
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "td" {
			continue
		}
		row.Cells = append(row.Cells, visibleText(c))
		row.Links = append(row.Links, collectAnchors(c)...)
	}
	if len(row.Cells) == 0 {
		return types.TableRow{}, false
	}
	return row, true
}
