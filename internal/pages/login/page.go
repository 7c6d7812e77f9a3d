// internal/pages/login/page.go
package login

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
)

// ErrLoginRejected is returned when the site answers a sign-in with an error.
var ErrLoginRejected = errors.New("login rejected")

// Page is the sign-in flow.
type Page struct {
	actions *Actions
	logger  *zap.Logger
}

func NewPage(logger *zap.Logger, page element.Page, exec *action.Executor) *Page {
	return &Page{actions: NewActions(page, exec), logger: logger.Named("login")}
}

// Actions exposes the underlying single-step interactions.
func (p *Page) Actions() *Actions { return p.actions }

func (p *Page) SelectLoginWithEmail(ctx context.Context) error {
	return p.actions.ClickLoginWithEmail(ctx)
}

// LoginByEmail signs in when the login form is showing. An already
// authenticated session has no form, so it returns nil without acting.
func (p *Page) LoginByEmail(ctx context.Context, email, password string) error {
	visible, err := p.actions.LoginFormVisible(ctx)
	if err != nil {
		return fmt.Errorf("failed to check login form: %w", err)
	}
	if !visible {
		p.logger.Info("Login form not visible, assuming an authenticated session")
		return nil
	}
	if err := p.EnterCredentials(ctx, email, password); err != nil {
		return err
	}
	if err := p.SubmitLogin(ctx); err != nil {
		return err
	}
	msg, err := p.actions.LoginError(ctx)
	if err != nil {
		return err
	}
	if msg != "" {
		return fmt.Errorf("%w: %s", ErrLoginRejected, msg)
	}
	p.logger.Info("Signed in", zap.String("email", email))
	return nil
}

func (p *Page) EnterCredentials(ctx context.Context, email, password string) error {
	if err := p.actions.EnterEmail(ctx, email); err != nil {
		return err
	}
	return p.actions.EnterPassword(ctx, password)
}

func (p *Page) SubmitLogin(ctx context.Context) error {
	return p.actions.ClickSignIn(ctx)
}
