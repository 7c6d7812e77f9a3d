// internal/fields/verifier.go
package fields

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/config"
)

// VerifierConfig holds the expected validation messages.
type VerifierConfig struct {
	ErrorTimeout time.Duration
	// SelectMessage is expected under every required select.
	SelectMessage string
	// Messages maps a text field label to its expected message. Labels are
	// matched case-insensitively; a missing label expects "".
	Messages map[string]string
}

// VerifierConfigFromConfig converts the verify section.
func VerifierConfigFromConfig(cfg config.VerifyConfig) VerifierConfig {
	out := VerifierConfig{
		ErrorTimeout:  cfg.ErrorTimeout,
		SelectMessage: cfg.SelectMessage,
		Messages:      cfg.ErrorMessages,
	}
	if out.ErrorTimeout <= 0 {
		out.ErrorTimeout = 30 * time.Second
	}
	return out
}

// Verifier asserts the validation messages shown for required fields after
// a submit with invalid data.
type Verifier struct {
	cfg    VerifierConfig
	exec   *action.Executor
	once   *action.Executor
	logger *zap.Logger
}

// NewVerifier creates a Verifier. Message reads are single attempts.
func NewVerifier(logger *zap.Logger, exec *action.Executor, cfg VerifierConfig) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	once := exec.WithPolicy(action.Policy{
		MaxAttempts:  1,
		Timeout:      cfg.ErrorTimeout,
		PollInterval: exec.Policy().PollInterval,
	})
	lowered := make(map[string]string, len(cfg.Messages))
	for label, msg := range cfg.Messages {
		lowered[strings.ToLower(NormalizeLabel(label))] = msg
	}
	cfg.Messages = lowered
	return &Verifier{cfg: cfg, exec: exec, once: once, logger: logger.Named("verify")}
}

// ExpectedMessage returns the message expected for a field with label.
func (v *Verifier) ExpectedMessage(kind Kind, label string) string {
	switch kind {
	case Text:
		return v.cfg.Messages[strings.ToLower(NormalizeLabel(label))]
	case Select:
		return v.cfg.SelectMessage
	default:
		panic(fmt.Sprintf("fields: unknown kind %d", int(kind)))
	}
}

// VerifyErrors checks the message under each field named by keys. The
// rendered text must contain the expected message. It stops at the first
// mismatch, which is returned as an *action.MismatchError.
func (v *Verifier) VerifyErrors(ctx context.Context, kind Kind, fields *RequiredFields, keys []string) error {
	v.logger.Info(fmt.Sprintf("Verifying %s field error messages", kind), zap.Int("field_count", len(keys)))
	if len(keys) == 0 {
		v.logger.Error(fmt.Sprintf("No required %s fields found to verify", kind))
		return fmt.Errorf("%w (%s fields)", ErrNoRequiredFields, kind)
	}

	for _, key := range keys {
		d, ok := fields.Get(kind, key)
		if !ok {
			return fmt.Errorf("%s field %q is not in the required field map", kind, key)
		}
		if err := v.verifyOne(ctx, kind, key, d); err != nil {
			v.logger.Error(fmt.Sprintf("Failed to verify error for %s field", kind), zap.String("field", key), zap.Error(err))
			return err
		}
	}
	return nil
}

func (v *Verifier) verifyOne(ctx context.Context, kind Kind, key string, d Descriptor) error {
	expected := v.ExpectedMessage(kind, d.Label)
	errNode := d.Handle.Locate(kind.errorSelector()).First()
	desc := fmt.Sprintf("error message for %s", key)

	if err := v.exec.WaitVisible(ctx, errNode, desc, v.cfg.ErrorTimeout); err != nil {
		return err
	}
	actual, err := v.once.ReadText(ctx, errNode, "read "+desc)
	if err != nil {
		return err
	}
	if !strings.Contains(actual, expected) {
		v.logger.Error("Error message mismatch",
			zap.String("field", key), zap.String("expected", expected), zap.String("actual", actual))
		return &action.MismatchError{Subject: fmt.Sprintf("error message for %q", key), Expected: expected, Actual: actual}
	}
	v.logger.Info("Error message verified", zap.String("field", key), zap.String("message", expected))
	return nil
}
