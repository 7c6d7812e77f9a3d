// internal/fields/kind.go
package fields

import "fmt"

// Kind partitions required fields by the control that renders them.
type Kind int

const (
	// Text covers every <input> in the dialog.
	Text Kind = iota
	// Select covers <select> dropdowns.
	Select
)

// Kinds lists every kind in extraction order.
func Kinds() []Kind { return []Kind{Text, Select} }

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Select:
		return "select"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// selector is the descendant query that finds controls of this kind.
func (k Kind) selector() string {
	switch k {
	case Text:
		return ".//input"
	case Select:
		return ".//select"
	default:
		panic(fmt.Sprintf("fields: unknown kind %d", int(k)))
	}
}

// labelSelector resolves the label text node relative to the control.
func (k Kind) labelSelector() string {
	switch k {
	case Text:
		return "preceding-sibling::label"
	case Select:
		return "preceding-sibling::label//span"
	default:
		panic(fmt.Sprintf("fields: unknown kind %d", int(k)))
	}
}

// errorSelector locates the validation message rendered for the control.
func (k Kind) errorSelector() string {
	switch k {
	case Text:
		return "../../following-sibling::div"
	case Select:
		return "following-sibling::div"
	default:
		panic(fmt.Sprintf("fields: unknown kind %d", int(k)))
	}
}
