// internal/fields/extractor.go
// Package fields discovers the required controls of a form dialog at runtime
// and asserts the validation messages rendered for them.
package fields

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
	"github.com/xkilldash9x/applyflow/internal/config"
)

// ExtractorConfig tunes discovery.
type ExtractorConfig struct {
	PollInterval time.Duration
	Timeout      time.Duration
	// LabelTimeout bounds the single label read per control.
	LabelTimeout time.Duration
	// RequireSelects makes discovery wait for at least one select. Disable it
	// for dialog steps that render no dropdowns.
	RequireSelects  bool
	DuplicatePolicy DuplicatePolicy
}

// DefaultExtractorConfig mirrors the discovery defaults in config.SetDefaults.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		PollInterval:    100 * time.Millisecond,
		Timeout:         30 * time.Second,
		LabelTimeout:    2 * time.Second,
		RequireSelects:  true,
		DuplicatePolicy: DuplicatePositional,
	}
}

// ExtractorConfigFromConfig converts the discovery section.
func ExtractorConfigFromConfig(cfg config.DiscoveryConfig) (ExtractorConfig, error) {
	policy, err := ParseDuplicatePolicy(cfg.DuplicatePolicy)
	if err != nil {
		return ExtractorConfig{}, err
	}
	out := ExtractorConfig{
		PollInterval:    cfg.PollInterval,
		Timeout:         cfg.Timeout,
		LabelTimeout:    cfg.LabelTimeout,
		RequireSelects:  cfg.RequireSelects,
		DuplicatePolicy: policy,
	}
	d := DefaultExtractorConfig()
	if out.PollInterval <= 0 {
		out.PollInterval = d.PollInterval
	}
	if out.Timeout <= 0 {
		out.Timeout = d.Timeout
	}
	if out.LabelTimeout <= 0 {
		out.LabelTimeout = d.LabelTimeout
	}
	return out, nil
}

// Extractor builds a RequiredFields map from a dialog root.
type Extractor struct {
	cfg    ExtractorConfig
	once   *action.Executor
	logger *zap.Logger
}

// NewExtractor creates an Extractor. Label reads run on a copy of exec with a
// single-attempt policy bounded by cfg.LabelTimeout.
func NewExtractor(logger *zap.Logger, exec *action.Executor, cfg ExtractorConfig) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := exec.Policy()
	once := exec.WithPolicy(action.Policy{
		MaxAttempts:  1,
		Timeout:      cfg.LabelTimeout,
		PollInterval: base.PollInterval,
	})
	return &Extractor{cfg: cfg, once: once, logger: logger.Named("fields")}
}

// Extract waits for the dialog to render its controls and returns every
// required, labelled one. Controls whose label cannot be resolved are logged
// and skipped.
func (x *Extractor) Extract(ctx context.Context, root element.Handle) (*RequiredFields, error) {
	x.logger.Info("Extracting required fields", zap.String("root", root.String()))

	if err := x.waitForChildren(ctx, root, Text.selector()); err != nil {
		return nil, err
	}
	if x.cfg.RequireSelects {
		if err := x.waitForChildren(ctx, root, Select.selector()); err != nil {
			return nil, err
		}
	}

	fields := NewRequiredFields()
	for _, kind := range Kinds() {
		controls, err := root.Locate(kind.selector()).All(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s controls: %w", kind, err)
		}
		for i, control := range controls {
			if err := x.collect(ctx, fields, kind, i, control); err != nil {
				return nil, err
			}
		}
	}

	x.logger.Info("Required fields extraction completed",
		zap.Int("text_fields", fields.Len(Text)),
		zap.Int("select_fields", fields.Len(Select)))
	return fields, nil
}

// collect inspects one control. Only context cancellation and duplicate
// rejection abort the extraction; everything else skips the control.
func (x *Extractor) collect(ctx context.Context, fields *RequiredFields, kind Kind, index int, control element.Handle) error {
	skip := func(reason string, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		x.logger.Warn(fmt.Sprintf("Failed to process %s field %d", kind, index),
			zap.String("reason", reason), zap.String("control", control.String()), zap.Error(err))
		return nil
	}

	_, required, err := control.Attribute(ctx, "required")
	if err != nil {
		return skip("required attribute unreadable", err)
	}
	if !required {
		return nil
	}

	labelHandle := control.Locate(kind.labelSelector()).First()
	raw, err := x.once.ReadText(ctx, labelHandle, fmt.Sprintf("read label of %s field %d", kind, index))
	if err != nil {
		return skip("label unresolvable", err)
	}
	label := NormalizeLabel(raw)
	if label == "" {
		return skip("label empty", errors.New("label text is blank"))
	}

	key, err := fields.add(Descriptor{Label: label, Kind: kind, Handle: control, Position: index}, x.cfg.DuplicatePolicy)
	if err != nil {
		return err
	}
	x.logger.Info(fmt.Sprintf("Found required %s field", kind), zap.String("label", key))
	return nil
}

func (x *Extractor) waitForChildren(ctx context.Context, root element.Handle, selector string) error {
	x.logger.Debug("Waiting for dialog controls", zap.String("selector", selector))
	return WaitForChildren(ctx, root, selector, x.cfg.PollInterval, x.cfg.Timeout)
}
