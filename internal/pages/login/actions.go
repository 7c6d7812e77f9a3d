// internal/pages/login/actions.go
// Package login wraps the sign-in page.
package login

import (
	"context"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
)

// Actions are the single-step interactions on the sign-in page.
type Actions struct {
	page element.Page
	exec *action.Executor
}

func NewActions(page element.Page, exec *action.Executor) *Actions {
	return &Actions{page: page, exec: exec}
}

func (a *Actions) EnterEmail(ctx context.Context, email string) error {
	return a.exec.Fill(ctx, a.page.Locate(EmailTextfield), email, "enter email")
}

// EnterPassword never logs the password.
func (a *Actions) EnterPassword(ctx context.Context, password string) error {
	return a.exec.FillSecret(ctx, a.page.Locate(PasswordTextfield), password, "enter password")
}

func (a *Actions) ClickLoginWithEmail(ctx context.Context) error {
	return a.exec.Click(ctx, a.page.Locate(LoginWithEmail), "click sign in with email")
}

func (a *Actions) ClickSignIn(ctx context.Context) error {
	return a.exec.Click(ctx, a.page.Locate(SignInButton), "click sign in button")
}

// LoginFormVisible reports whether the email field is on screen right now.
func (a *Actions) LoginFormVisible(ctx context.Context) (bool, error) {
	return a.page.Locate(EmailTextfield).IsVisible(ctx)
}

// LoginError returns the rendered sign-in failure, or "" when there is none.
func (a *Actions) LoginError(ctx context.Context) (string, error) {
	h := a.page.Locate(LoginError)
	if ok, err := h.IsVisible(ctx); err != nil || !ok {
		return "", err
	}
	return a.exec.ReadText(ctx, h, "read sign in error")
}
