// internal/pages/components/select.go
package components

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
)

// Placeholder is the option a dropdown shows before the user picks one.
const Placeholder = "Select an option"

// SelectHandler drives native <select> controls located on a page.
type SelectHandler struct {
	page element.Page
	exec *action.Executor
}

func NewSelectHandler(page element.Page, exec *action.Executor) *SelectHandler {
	return &SelectHandler{page: page, exec: exec}
}

// SelectByValue picks the option with value. An empty value resets the
// dropdown to Placeholder.
func (s *SelectHandler) SelectByValue(ctx context.Context, selector, value string) error {
	if value == "" {
		value = Placeholder
	}
	return s.exec.SelectOption(ctx, s.page.Locate(selector), value, fmt.Sprintf("select %q in %s", value, selector))
}

// SelectByLabel picks the option whose visible text is label.
func (s *SelectHandler) SelectByLabel(ctx context.Context, selector, label string) error {
	opt := s.page.Locate(selector).Locate(fmt.Sprintf(".//option[normalize-space(.)=%s]", element.Literal(strings.TrimSpace(label)))).First()
	value, ok, err := opt.Attribute(ctx, "value")
	if err != nil {
		return fmt.Errorf("option labelled %q not found in %s: %w", label, selector, err)
	}
	if !ok {
		value = strings.TrimSpace(label)
	}
	return s.exec.SelectOption(ctx, s.page.Locate(selector), value, fmt.Sprintf("select %q in %s", label, selector))
}

// SelectByIndex picks the option at the zero-based index.
func (s *SelectHandler) SelectByIndex(ctx context.Context, selector string, index int) error {
	options, err := s.page.Locate(selector).Locate(".//option").All(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(options) {
		return fmt.Errorf("index %d is out of bounds for select options", index)
	}
	value, ok, err := options[index].Attribute(ctx, "value")
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("option at index %d does not have a value attribute", index)
	}
	return s.exec.SelectOption(ctx, s.page.Locate(selector), value, fmt.Sprintf("select option %d in %s", index, selector))
}

// SelectedText returns the visible text of the selected option.
func (s *SelectHandler) SelectedText(ctx context.Context, selector string) (string, error) {
	sel := s.page.Locate(selector)
	value, err := sel.InputValue(ctx)
	if err != nil {
		return "", err
	}
	opt := sel.Locate(fmt.Sprintf(".//option[@value=%s]", element.Literal(value))).First()
	if n, err := opt.Count(ctx); err != nil || n == 0 {
		// Options without a value attribute report their text as the value.
		return value, err
	}
	text, err := s.exec.ReadText(ctx, opt, "read selected option of "+selector)
	return strings.TrimSpace(text), err
}
