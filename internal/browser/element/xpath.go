// internal/browser/element/xpath.go
package element

import (
	"fmt"
	"strings"
)

// Join resolves rel against base and returns one absolute XPath expression.
//
//	Join("//form", ".//input")                 -> "//form//input"
//	Join("//form", "//input")                  -> "//form//input"
//	Join("//form/input", "preceding-sibling::label") -> "//form/input/preceding-sibling::label"
//
// A rel starting with "/" but not "//" is treated as absolute and returned
// unchanged. An empty base yields rel as an absolute expression.
func Join(base, rel string) string {
	rel = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rel), "xpath="))
	if base == "" {
		if strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, "(") {
			return rel
		}
		return "//" + strings.TrimPrefix(rel, "./")
	}
	switch {
	case rel == "" || rel == ".":
		return base
	case strings.HasPrefix(rel, ".//"):
		return base + rel[1:]
	case strings.HasPrefix(rel, "//"):
		return base + rel
	case strings.HasPrefix(rel, "./"):
		return base + rel[1:]
	case strings.HasPrefix(rel, "/"):
		return rel
	default:
		return base + "/" + rel
	}
}

// Nth pins expr to its n-th match (1-based, XPath convention).
func Nth(expr string, n int) string {
	return fmt.Sprintf("(%s)[%d]", expr, n)
}

// Literal quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so a value containing both quote kinds is built with concat().
func Literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// ButtonByName matches a button by its accessible name: visible text or aria-label.
func ButtonByName(name string) string {
	lit := Literal(name)
	return fmt.Sprintf("//button[normalize-space(.)=%s or @aria-label=%s]", lit, lit)
}
