// internal/fields/descriptor.go
package fields

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xkilldash9x/applyflow/internal/browser/element"
)

// Descriptor is one required field found in the dialog.
type Descriptor struct {
	// Label is the normalised label text. Duplicate labels keep the same
	// Label even when their map key carries a positional suffix.
	Label    string
	Kind     Kind
	Handle   element.Handle
	// Position is the control's index among controls of its kind, in document order.
	Position int
}

// RequiredFields holds the result of one extraction. It is never cached:
// each Extract call builds a new value from the live page.
type RequiredFields struct {
	text    map[string]Descriptor
	selects map[string]Descriptor
}

// NewRequiredFields returns an empty set.
func NewRequiredFields() *RequiredFields {
	return &RequiredFields{
		text:    make(map[string]Descriptor),
		selects: make(map[string]Descriptor),
	}
}

// Of returns the label → descriptor map of kind. The map is a copy.
func (r *RequiredFields) Of(kind Kind) map[string]Descriptor {
	src := r.mapOf(kind)
	out := make(map[string]Descriptor, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Get looks up one field.
func (r *RequiredFields) Get(kind Kind, key string) (Descriptor, bool) {
	d, ok := r.mapOf(kind)[key]
	return d, ok
}

// Keys returns the keys of kind in document order.
func (r *RequiredFields) Keys(kind Kind) []string {
	m := r.mapOf(kind)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := m[keys[i]].Position, m[keys[j]].Position
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Len counts the fields of kind.
func (r *RequiredFields) Len(kind Kind) int { return len(r.mapOf(kind)) }

// Total counts every field.
func (r *RequiredFields) Total() int { return len(r.text) + len(r.selects) }

func (r *RequiredFields) mapOf(kind Kind) map[string]Descriptor {
	switch kind {
	case Text:
		return r.text
	case Select:
		return r.selects
	default:
		panic(fmt.Sprintf("fields: unknown kind %d", int(kind)))
	}
}

// add stores d under its label following policy and returns the key used.
func (r *RequiredFields) add(d Descriptor, policy DuplicatePolicy) (string, error) {
	m := r.mapOf(d.Kind)
	if _, exists := m[d.Label]; !exists {
		m[d.Label] = d
		return d.Label, nil
	}
	switch policy {
	case DuplicateReject:
		return "", &DuplicateLabelError{Kind: d.Kind, Label: d.Label}
	case DuplicateLastWins:
		m[d.Label] = d
		return d.Label, nil
	default:
		for n := 2; ; n++ {
			key := fmt.Sprintf("%s (%d)", d.Label, n)
			if _, taken := m[key]; !taken {
				m[key] = d
				return key, nil
			}
		}
	}
}

// NormalizeLabel collapses runs of whitespace and trims the ends.
func NormalizeLabel(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
