// internal/pages/jobs/actions.go
// Package jobs holds the job search page and the Easy Apply dialog.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
	"github.com/xkilldash9x/applyflow/internal/fields"
	"github.com/xkilldash9x/applyflow/internal/pages/components"
)

// NetworkIdleTimeout bounds the wait after a search.
const NetworkIdleTimeout = 30 * time.Second

// Actions are the single-step interactions with the jobs page.
type Actions struct {
	page      element.Page
	exec      *action.Executor
	extractor *fields.Extractor
	verifier  *fields.Verifier
	logger    *zap.Logger
}

func NewActions(logger *zap.Logger, page element.Page, exec *action.Executor, extractor *fields.Extractor, verifier *fields.Verifier) *Actions {
	return &Actions{
		page:      page,
		exec:      exec,
		extractor: extractor,
		verifier:  verifier,
		logger:    logger,
	}
}

// SearchJob types title into the search box and submits with Enter. A page
// that never goes network idle is logged, not failed.
func (a *Actions) SearchJob(ctx context.Context, title string) error {
	a.logger.Info("Starting job search", zap.String("title", title))
	if err := a.exec.Fill(ctx, a.page.Locate(SearchJobInput), title, "fill search input"); err != nil {
		return err
	}
	if err := a.exec.Press(ctx, a.page, "Enter", "submit search"); err != nil {
		return err
	}
	if err := a.page.WaitForLoad(ctx, element.LoadStateNetworkIdle, NetworkIdleTimeout); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.Warn("Page did not reach networkidle state", zap.Error(err))
	}
	a.logger.Info("Job search completed", zap.String("title", title))
	return nil
}

// ClickEasyApplyFilter enables the Easy Apply filter unless it is already on.
func (a *Actions) ClickEasyApplyFilter(ctx context.Context) error {
	filter := a.page.Locate(EasyApplyFilter)
	if pressed, _, err := filter.Attribute(ctx, "aria-pressed"); err == nil && pressed == "true" {
		a.logger.Debug("Easy Apply filter already enabled")
		return nil
	}
	return a.exec.Click(ctx, filter, "click easy apply filter")
}

// ClickApplyJobButton opens the dialog from the selected job's top card.
func (a *Actions) ClickApplyJobButton(ctx context.Context) error {
	button := a.page.Locate(JobDetailTopCard).Locate(ApplyButton).First()
	if err := a.exec.Click(ctx, button, "click apply button"); err != nil {
		a.logger.Error("Failed to click apply job button", zap.Error(err))
		return err
	}
	return nil
}

// Dialog is the Easy Apply modal.
func (a *Actions) Dialog() element.Handle {
	return a.page.Locate(ApplyJobDialog)
}

// GetRequiredFields extracts the required controls of the open dialog.
func (a *Actions) GetRequiredFields(ctx context.Context) (*fields.RequiredFields, error) {
	a.logger.Info("Extracting required fields")
	return a.extractor.Extract(ctx, a.Dialog())
}

// ClickBottomFormButton clicks whatever primary button closes the current step.
func (a *Actions) ClickBottomFormButton(ctx context.Context) error {
	return a.exec.Click(ctx, a.page.Locate(EndLineButton).First(), "click bottom form button")
}

func (a *Actions) VerifyErrorMessageOfTextFields(ctx context.Context, f *fields.RequiredFields, keys []string) error {
	return a.verifier.VerifyErrors(ctx, fields.Text, f, keys)
}

func (a *Actions) VerifyErrorMessageOfSelects(ctx context.Context, f *fields.RequiredFields, keys []string) error {
	return a.verifier.VerifyErrors(ctx, fields.Select, f, keys)
}

func (a *Actions) ClickNextButton(ctx context.Context) error {
	return a.exec.Click(ctx, a.page.Locate(NextButton), "click next button")
}

func (a *Actions) ClickReviewApplicationButton(ctx context.Context) error {
	return a.exec.Click(ctx, a.page.Locate(ReviewButton), "click review application button")
}

// UploadCvFile sets the resume and waits for the uploaded file card.
func (a *Actions) UploadCvFile(ctx context.Context, path string) error {
	a.logger.Info("Starting CV upload", zap.String("file_path", path))
	return a.exec.UploadFile(ctx, a.page.Locate(UploadResumeInput), path, "upload CV file",
		action.WithSettleSignal(a.page.Locate(UploadedFileName)))
}

func (a *Actions) GetUploadedFileName(ctx context.Context) (string, error) {
	name, err := a.exec.ReadText(ctx, a.page.Locate(UploadedFileName), "get uploaded file name")
	return strings.TrimSpace(name), err
}

// InvalidResumeMessageShouldBe requires the upload error to equal message exactly.
func (a *Actions) InvalidResumeMessageShouldBe(ctx context.Context, message string) error {
	h := a.page.Locate(InvalidResumeMessage)
	if err := a.exec.WaitVisible(ctx, h, "invalid resume message", 0); err != nil {
		return err
	}
	actual, err := a.exec.ReadText(ctx, h, "read invalid resume message")
	if err != nil {
		return err
	}
	actual = strings.TrimSpace(actual)
	if actual != message {
		a.logger.Error("Invalid resume message mismatch", zap.String("expected", message), zap.String("actual", actual))
		return &action.MismatchError{Subject: "invalid resume message", Expected: message, Actual: actual}
	}
	a.logger.Info("Invalid resume message verified", zap.String("message", message))
	return nil
}

func (a *Actions) RequireResumeMessageShouldBeVisible(ctx context.Context) error {
	return a.exec.WaitVisible(ctx, a.page.Locate(RequireResumeMessage), "require resume message", 0)
}

func (a *Actions) ReviewApplicationButtonShouldBeVisible(ctx context.Context) error {
	return a.exec.WaitVisible(ctx, a.page.Locate(ReviewButton), "review application button", 0)
}

func (a *Actions) ReviewApplicationButtonShouldNotBeVisible(ctx context.Context) error {
	a.logger.Info("Verifying review button is not visible")
	return a.exec.WaitHidden(ctx, a.page.Locate(ReviewButton), "review application button", 0)
}

func (a *Actions) SubmitApplicationShouldBeVisible(ctx context.Context) error {
	return a.exec.WaitVisible(ctx, a.page.Locate(SubmitApplication), "submit application button", 0)
}

func (a *Actions) ClickSubmitApplication(ctx context.Context) error {
	return a.exec.Click(ctx, a.page.Locate(SubmitApplication), "click submit application button")
}

func (a *Actions) ClearDocumentButtonShouldBeVisible(ctx context.Context) error {
	return a.exec.WaitVisible(ctx, a.page.Locate(RemoveDocument), "clear document button", 0)
}

// ResetSelect puts a dropdown back on its placeholder option.
func (a *Actions) ResetSelect(ctx context.Context, h element.Handle, label string) error {
	return a.exec.SelectOption(ctx, h, components.Placeholder, fmt.Sprintf("reset select %q", label))
}
