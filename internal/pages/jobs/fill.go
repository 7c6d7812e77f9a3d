// internal/pages/jobs/fill.go
package jobs

import (
	"strings"

	"github.com/xkilldash9x/applyflow/internal/config"
	"github.com/xkilldash9x/applyflow/internal/fields"
)

// DefaultFillValue is typed into required fields with no configured value.
const DefaultFillValue = "Sample Data"

// FillValues maps field labels to the text typed into them. Labels match
// case-insensitively.
type FillValues struct {
	values map[string]string
	def    string
}

func NewFillValues(values map[string]string, def string) FillValues {
	if def == "" {
		def = DefaultFillValue
	}
	fv := FillValues{values: make(map[string]string, len(values)), def: def}
	for label, v := range values {
		fv.values[fillKey(label)] = v
	}
	return fv
}

// FillValuesFromConfig converts the fill section.
func FillValuesFromConfig(cfg config.FillConfig) FillValues {
	return NewFillValues(cfg.Values, cfg.Default)
}

// For returns the value for label.
func (f FillValues) For(label string) string {
	if v, ok := f.values[fillKey(label)]; ok {
		return v
	}
	if f.def == "" {
		return DefaultFillValue
	}
	return f.def
}

func fillKey(label string) string {
	return strings.ToLower(fields.NormalizeLabel(label))
}
