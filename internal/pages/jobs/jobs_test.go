// internal/pages/jobs/jobs_test.go
package jobs_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/dom"
	"github.com/xkilldash9x/applyflow/internal/config"
	"github.com/xkilldash9x/applyflow/internal/fields"
	"github.com/xkilldash9x/applyflow/internal/jobboard"
	"github.com/xkilldash9x/applyflow/internal/pages/jobs"
	"github.com/xkilldash9x/applyflow/internal/pages/login"
)

type fixture struct {
	site *jobboard.Site
	doc  *dom.Document
	page *jobs.Page
	logs *observer.ObservedLogs
	dir  string
}

func newFixture(t *testing.T, opts jobboard.Options) *fixture {
	t.Helper()
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	site := jobboard.New(logger, opts)
	doc, err := site.NewPage(dom.WithPollInterval(time.Millisecond))
	require.NoError(t, err)

	exec := action.New(logger, action.Policy{
		MaxAttempts:   2,
		BaseBackoff:   time.Millisecond,
		Timeout:       50 * time.Millisecond,
		SettleTime:    time.Millisecond,
		SettleTimeout: 50 * time.Millisecond,
		PollInterval:  time.Millisecond,
	})
	xcfg := fields.DefaultExtractorConfig()
	xcfg.PollInterval, xcfg.Timeout, xcfg.LabelTimeout = time.Millisecond, 50*time.Millisecond, 10*time.Millisecond
	vcfg := fields.VerifierConfigFromConfig(config.NewDefaultConfig().Verify())
	vcfg.ErrorTimeout = 20 * time.Millisecond

	page := jobs.NewPage(jobs.Deps{
		Logger:    logger,
		Page:      doc,
		Executor:  exec,
		Extractor: fields.NewExtractor(logger, exec, xcfg),
		Verifier:  fields.NewVerifier(logger, exec, vcfg),
		Fill:      jobs.FillValuesFromConfig(config.NewDefaultConfig().Fill()),
		BaseURL:   jobboard.BaseURL,
	})

	require.NoError(t, page.GoToJobsPage(ctx))
	require.NoError(t, login.NewPage(logger, doc, exec).LoginByEmail(ctx, opts.Username, opts.Password))

	dir := t.TempDir()
	require.NoError(t, jobboard.WriteSampleResumes(dir, "sample-resume.pdf", "sample-resume-2mb.pdf"))
	return &fixture{site: site, doc: doc, page: page, logs: logs, dir: dir}
}

func (f *fixture) openDialog(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.page.SearchJob(ctx, "Quality Analyst (Manual/Automation Tester - QA QC)"))
	require.NoError(t, f.page.SelectEasyApplyFilter(ctx))
	require.NoError(t, f.page.ClickEasyApplyButton(ctx))
	require.NoError(t, f.page.VerifyApplyDialogVisible(ctx))
}

func TestGetRequiredFields(t *testing.T) {
	f := newFixture(t, jobboard.DefaultOptions())
	f.openDialog(t)

	required, err := f.page.Actions().GetRequiredFields(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"First Name", "Last Name", "Mobile phone number"}, required.Keys(fields.Text))
	assert.Equal(t, []string{"Email address", "Phone country code"}, required.Keys(fields.Select))
}

func TestSelectEasyApplyFilterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, jobboard.DefaultOptions())
	require.NoError(t, f.page.SearchJob(ctx, "Senior Go"))
	require.NoError(t, f.page.SelectEasyApplyFilter(ctx))
	require.NoError(t, f.page.SelectEasyApplyFilter(ctx))
	pressed, _, err := f.doc.Locate(jobs.EasyApplyFilter).Attribute(ctx, "aria-pressed")
	require.NoError(t, err)
	assert.Equal(t, "true", pressed)
}

func TestClickApplyWithoutFilterFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, jobboard.DefaultOptions())
	require.NoError(t, f.page.SearchJob(ctx, "Senior Go"))

	err := f.page.ClickEasyApplyButton(ctx)
	var ae *action.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 2, ae.Attempts)
	assert.Equal(t, 1, f.logs.FilterMessage("Failed to click apply job button").Len())
}

func TestMissingRequiredFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, jobboard.DefaultOptions())
	f.openDialog(t)

	require.NoError(t, f.page.MakeAllRequiredFieldsEmpty(ctx))
	require.NoError(t, f.page.VerifyErrorMessagesForRequiredFields(ctx))
	assert.Equal(t, jobboard.StepContact, f.site.Step())

	// Phone carries its own message; the others only need to show something.
	assert.Equal(t, 1, f.logs.FilterMessage("Error message verified").FilterField(zap.String("message", "Enter a valid phone number")).Len())
}

func TestVerifyErrorsWithoutSubmitFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, jobboard.DefaultOptions())
	f.openDialog(t)

	required, err := f.page.Actions().GetRequiredFields(ctx)
	require.NoError(t, err)
	err = f.page.Actions().VerifyErrorMessageOfTextFields(ctx, required, required.Keys(fields.Text))
	require.Error(t, err, "no messages are rendered before a submit")

	err = f.page.Actions().VerifyErrorMessageOfSelects(ctx, required, nil)
	require.ErrorIs(t, err, fields.ErrNoRequiredFields)
}

func TestApplySuccessfully(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, jobboard.DefaultOptions())
	f.openDialog(t)

	require.NoError(t, f.page.FillAllRequiredFields(ctx))
	phone, err := f.doc.Locate("//input[@name='phone']").InputValue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0312345678", phone, "labels match the fill table case-insensitively")

	require.NoError(t, f.page.ClickNextButton(ctx))
	require.NoError(t, f.page.UploadResume(ctx, filepath.Join(f.dir, "sample-resume.pdf")))
	require.NoError(t, f.page.VerifyResumeUploadSuccess(ctx, "sample-resume.pdf"))

	err = f.page.VerifyResumeUploadSuccess(ctx, "other.pdf")
	assert.True(t, action.IsMismatch(err))

	require.NoError(t, f.page.ClickReviewApplication(ctx))
	require.NoError(t, f.page.VerifyApplicationSuccess(ctx))
	assert.Equal(t, jobboard.StepReview, f.site.Step())

	require.NoError(t, f.page.Actions().ClickSubmitApplication(ctx))
	assert.True(t, f.site.Submitted())
}

func TestUploadResumeWaitsForResumeStep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, jobboard.DefaultOptions())
	f.openDialog(t)

	err := f.page.UploadResume(ctx, filepath.Join(f.dir, "sample-resume.pdf"))
	var timeout *fields.DiscoveryTimeoutError
	require.True(t, errors.As(err, &timeout), "the contact step has no file input")
	assert.Equal(t, jobs.DialogFileInput, timeout.Selector)
	assert.Equal(t, jobboard.StepContact, f.site.Step())
}

func TestEmptyResume(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, jobboard.DefaultOptions())
	f.openDialog(t)

	require.NoError(t, f.page.FillAllRequiredFields(ctx))
	require.NoError(t, f.page.ClickNextButton(ctx))
	require.NoError(t, f.page.ClickReviewApplication(ctx))
	require.NoError(t, f.page.VerifyRequireResumeMessage(ctx))
}

func TestOversizedResume(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, jobboard.DefaultOptions())
	f.openDialog(t)

	require.NoError(t, f.page.FillAllRequiredFields(ctx))
	require.NoError(t, f.page.ClickNextButton(ctx))
	require.NoError(t, f.page.UploadResume(ctx, filepath.Join(f.dir, "sample-resume-2mb.pdf")))
	require.NoError(t, f.page.VerifyResumeUploadSuccess(ctx, "sample-resume-2mb.pdf"))
	require.NoError(t, f.page.VerifyInvalidResumeMessage(ctx, jobboard.MsgResumeTooLarge))
	require.NoError(t, f.page.VerifyRemoveDocument(ctx))

	err := f.page.VerifyInvalidResumeMessage(ctx, "Please upload a smaller file")
	assert.True(t, action.IsMismatch(err), "the upload message is compared exactly")
}

func TestFillValues(t *testing.T) {
	fv := jobs.NewFillValues(map[string]string{"Mobile Phone Number": "0312345678"}, "")
	assert.Equal(t, "0312345678", fv.For("mobile  phone number"))
	assert.Equal(t, jobs.DefaultFillValue, fv.For("Last Name"))

	fv = jobs.NewFillValues(nil, "x")
	assert.Equal(t, "x", fv.For("anything"))
	assert.Equal(t, jobs.DefaultFillValue, jobs.FillValues{}.For("zero value"))
}
