// internal/browser/dom/nodes.go
package dom

import (
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// isVisible approximates rendered visibility from markup alone: the node and
// its ancestors must not be hidden by attribute or inline style.
func isVisible(n *html.Node) bool {
	if isTag(n, "input") && strings.EqualFold(attr(n, "type"), "hidden") {
		return false
	}
	for c := n; c != nil; c = c.Parent {
		if c.Type != html.ElementNode {
			continue
		}
		switch strings.ToLower(c.Data) {
		case "head", "script", "style", "template", "noscript":
			return false
		}
		if hasAttr(c, "hidden") {
			return false
		}
		style := strings.ToLower(strings.ReplaceAll(attr(c, "style"), " ", ""))
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

func isFillable(n *html.Node) bool {
	if isTag(n, "textarea") {
		return true
	}
	if !isTag(n, "input") {
		return false
	}
	switch strings.ToLower(attr(n, "type")) {
	case "", "text", "email", "tel", "password", "number", "search", "url", "date":
		return true
	}
	return false
}

func isTag(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && strings.EqualFold(n.Data, tag)
}

func attr(n *html.Node, key string) string {
	return htmlquery.SelectAttr(n, key)
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if !strings.EqualFold(a.Key, key) {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

func toggleAttr(n *html.Node, key string) {
	if hasAttr(n, key) {
		removeAttr(n, key)
		return
	}
	setAttr(n, key, "")
}

func setValue(n *html.Node, value string) {
	if isTag(n, "textarea") {
		SetText(n, value)
		return
	}
	setAttr(n, "value", value)
}

func optionsOf(sel *html.Node) []*html.Node {
	return htmlquery.Find(sel, ".//option")
}

func optionValue(opt *html.Node) string {
	if hasAttr(opt, "value") {
		return attr(opt, "value")
	}
	return strings.TrimSpace(htmlquery.InnerText(opt))
}

func selectedValue(sel *html.Node) string {
	options := optionsOf(sel)
	for _, opt := range options {
		if hasAttr(opt, "selected") {
			return optionValue(opt)
		}
	}
	if len(options) > 0 {
		return optionValue(options[0])
	}
	return ""
}

// SetText replaces the children of n with a single text node.
func SetText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// SetHidden adds or removes the hidden attribute.
func SetHidden(n *html.Node, hidden bool) {
	if hidden {
		setAttr(n, "hidden", "")
		return
	}
	removeAttr(n, "hidden")
}

// AppendHTML parses fragment in the context of parent and appends the result.
func AppendHTML(parent *html.Node, fragment string) error {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), parent)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}

// Value returns the value attribute of n, or its text for a textarea.
func Value(n *html.Node) string {
	if isTag(n, "textarea") {
		return htmlquery.InnerText(n)
	}
	return attr(n, "value")
}
