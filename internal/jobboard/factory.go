// internal/jobboard/factory.go
package jobboard

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/applyflow/internal/browser/dom"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
)

// PageFactory opens a blank page on a new visitor session per call.
func PageFactory(logger *zap.Logger, opts Options, docOpts ...dom.Option) func(ctx context.Context) (element.Page, error) {
	return func(ctx context.Context) (element.Page, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return New(logger, opts).NewPage(append([]dom.Option{dom.WithLogger(logger)}, docOpts...)...)
	}
}
