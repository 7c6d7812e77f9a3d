// internal/pages/jobs/page.go
package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
	"github.com/xkilldash9x/applyflow/internal/fields"
	"github.com/xkilldash9x/applyflow/internal/pages/components"
)

// Deps are the collaborators a Page is built from.
type Deps struct {
	Logger    *zap.Logger
	Page      element.Page
	Executor  *action.Executor
	Extractor *fields.Extractor
	Verifier  *fields.Verifier
	Fill      FillValues
	BaseURL   string
	JobsPath  string
}

// Page composes the jobs page actions into the steps a scenario reads as.
type Page struct {
	actions  *Actions
	exec     *action.Executor
	elements *components.ElementHandler
	nav      *components.Navigation
	fill     FillValues
	jobsPath string
	logger   *zap.Logger
}

func NewPage(d Deps) *Page {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("jobs")
	jobsPath := d.JobsPath
	if jobsPath == "" {
		jobsPath = "/jobs"
	}
	return &Page{
		actions:  NewActions(logger, d.Page, d.Executor, d.Extractor, d.Verifier),
		exec:     d.Executor,
		elements: components.NewElementHandler(d.Executor),
		nav:      components.NewNavigation(d.Page, d.Executor, d.BaseURL),
		fill:     d.Fill,
		jobsPath: jobsPath,
		logger:   logger,
	}
}

// Actions exposes the underlying single-step interactions.
func (p *Page) Actions() *Actions { return p.actions }

func (p *Page) GoToJobsPage(ctx context.Context) error {
	return p.nav.NavigateToURL(ctx, p.jobsPath, "access to jobs page")
}

func (p *Page) SearchJob(ctx context.Context, title string) error {
	return p.actions.SearchJob(ctx, title)
}

func (p *Page) SelectEasyApplyFilter(ctx context.Context) error {
	return p.actions.ClickEasyApplyFilter(ctx)
}

func (p *Page) ClickEasyApplyButton(ctx context.Context) error {
	return p.actions.ClickApplyJobButton(ctx)
}

// VerifyApplyDialogVisible waits for every required control of the dialog.
func (p *Page) VerifyApplyDialogVisible(ctx context.Context) error {
	required, err := p.actions.GetRequiredFields(ctx)
	if err != nil {
		return err
	}
	for _, kind := range fields.Kinds() {
		for _, key := range required.Keys(kind) {
			d, _ := required.Get(kind, key)
			if err := p.elements.WaitForVisible(ctx, d.Handle, fmt.Sprintf("%s field %s", kind, key), 0); err != nil {
				return err
			}
		}
	}
	return nil
}

// MakeAllRequiredFieldsEmpty clears required text fields and resets required
// selects to their placeholder.
func (p *Page) MakeAllRequiredFieldsEmpty(ctx context.Context) error {
	required, err := p.actions.GetRequiredFields(ctx)
	if err != nil {
		return err
	}
	for _, kind := range fields.Kinds() {
		for _, key := range required.Keys(kind) {
			d, _ := required.Get(kind, key)
			switch kind {
			case fields.Text:
				err = p.exec.Fill(ctx, d.Handle, "", "clear "+key)
			case fields.Select:
				err = p.actions.ResetSelect(ctx, d.Handle, key)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// FillAllRequiredFields types the configured value into every required text
// field. Selects keep their current choice.
func (p *Page) FillAllRequiredFields(ctx context.Context) error {
	required, err := p.actions.GetRequiredFields(ctx)
	if err != nil {
		return err
	}
	for _, key := range required.Keys(fields.Text) {
		d, _ := required.Get(fields.Text, key)
		if err := p.exec.Fill(ctx, d.Handle, p.fill.For(d.Label), "fill "+key); err != nil {
			return err
		}
	}
	return nil
}

// VerifyErrorMessagesForRequiredFields submits the step and checks the
// message under every required field of both kinds.
func (p *Page) VerifyErrorMessagesForRequiredFields(ctx context.Context) error {
	if err := p.actions.ClickBottomFormButton(ctx); err != nil {
		return err
	}
	required, err := p.actions.GetRequiredFields(ctx)
	if err != nil {
		return err
	}
	if err := p.actions.VerifyErrorMessageOfTextFields(ctx, required, required.Keys(fields.Text)); err != nil {
		return err
	}
	return p.actions.VerifyErrorMessageOfSelects(ctx, required, required.Keys(fields.Select))
}

func (p *Page) ClickNextButton(ctx context.Context) error {
	return p.actions.ClickNextButton(ctx)
}

// UploadResume waits for the resume step to render its file input, then
// uploads path.
func (p *Page) UploadResume(ctx context.Context, path string) error {
	if err := p.elements.WaitUntilHasChildElements(ctx, p.actions.Dialog(), DialogFileInput, 0); err != nil {
		return err
	}
	return p.actions.UploadCvFile(ctx, path)
}

// VerifyResumeUploadSuccess requires the file card to show name.
func (p *Page) VerifyResumeUploadSuccess(ctx context.Context, name string) error {
	actual, err := p.actions.GetUploadedFileName(ctx)
	if err != nil {
		return err
	}
	if actual != name {
		return &action.MismatchError{Subject: "uploaded file name", Expected: name, Actual: actual}
	}
	return nil
}

func (p *Page) ClickReviewApplication(ctx context.Context) error {
	if err := p.actions.ReviewApplicationButtonShouldBeVisible(ctx); err != nil {
		return err
	}
	return p.actions.ClickReviewApplicationButton(ctx)
}

// VerifyApplicationSuccess checks the dialog moved on to the review step.
func (p *Page) VerifyApplicationSuccess(ctx context.Context) error {
	if err := p.actions.SubmitApplicationShouldBeVisible(ctx); err != nil {
		return err
	}
	return p.actions.ReviewApplicationButtonShouldNotBeVisible(ctx)
}

func (p *Page) VerifyRequireResumeMessage(ctx context.Context) error {
	return p.actions.RequireResumeMessageShouldBeVisible(ctx)
}

func (p *Page) VerifyInvalidResumeMessage(ctx context.Context, message string) error {
	return p.actions.InvalidResumeMessageShouldBe(ctx, message)
}

func (p *Page) VerifyRemoveDocument(ctx context.Context) error {
	return p.actions.ClearDocumentButtonShouldBeVisible(ctx)
}
