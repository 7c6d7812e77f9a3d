// internal/scenario/apply.go
package scenario

import (
	"context"
)

var applyTags = []string{"@jobs", "@apply"}

// Apply returns the Easy Apply suite.
func Apply() []Scenario {
	return []Scenario{
		{
			ID:    "apply_1_001",
			Title: "Verify that user cannot apply job if missing required fields",
			Tags:  applyTags,
			Setup: openJobsAndLogin,
			Run: func(ctx context.Context, env *Env) error {
				if err := performJobSearch(ctx, env); err != nil {
					return err
				}
				if err := env.Jobs.MakeAllRequiredFieldsEmpty(ctx); err != nil {
					return err
				}
				return env.Jobs.VerifyErrorMessagesForRequiredFields(ctx)
			},
		},
		{
			ID:    "apply_1_002",
			Title: "Verify that user can apply job successfully",
			Tags:  applyTags,
			Setup: openJobsAndLogin,
			Run: func(ctx context.Context, env *Env) error {
				if err := fillContactStep(ctx, env); err != nil {
					return err
				}
				steps := []func(context.Context) error{
					func(ctx context.Context) error { return env.Jobs.UploadResume(ctx, env.ResumePath(env.Resumes.Valid)) },
					func(ctx context.Context) error { return env.Jobs.VerifyResumeUploadSuccess(ctx, env.Resumes.Valid) },
					env.Jobs.ClickReviewApplication,
					env.Jobs.VerifyApplicationSuccess,
				}
				return runSteps(ctx, steps...)
			},
		},
		{
			ID:    "apply_1_003",
			Title: "Verify the error should appear if submit apply that resume is empty",
			Tags:  applyTags,
			Setup: openJobsAndLogin,
			Run: func(ctx context.Context, env *Env) error {
				if err := fillContactStep(ctx, env); err != nil {
					return err
				}
				return runSteps(ctx, env.Jobs.ClickReviewApplication, env.Jobs.VerifyRequireResumeMessage)
			},
		},
		{
			ID:    "apply_1_004",
			Title: "Verify the error should appear if update resume more than 2MB",
			Tags:  applyTags,
			Setup: openJobsAndLogin,
			Run: func(ctx context.Context, env *Env) error {
				if err := fillContactStep(ctx, env); err != nil {
					return err
				}
				steps := []func(context.Context) error{
					func(ctx context.Context) error {
						return env.Jobs.UploadResume(ctx, env.ResumePath(env.Resumes.Oversized))
					},
					func(ctx context.Context) error {
						return env.Jobs.VerifyResumeUploadSuccess(ctx, env.Resumes.Oversized)
					},
					func(ctx context.Context) error {
						return env.Jobs.VerifyInvalidResumeMessage(ctx, env.Resumes.OversizedMessage)
					},
					env.Jobs.VerifyRemoveDocument,
				}
				return runSteps(ctx, steps...)
			},
		},
	}
}

func openJobsAndLogin(ctx context.Context, env *Env) error {
	if err := env.Jobs.GoToJobsPage(ctx); err != nil {
		return err
	}
	return env.Login.LoginByEmail(ctx, env.Target.Username, env.Target.Password)
}

func performJobSearch(ctx context.Context, env *Env) error {
	return runSteps(ctx,
		func(ctx context.Context) error { return env.Jobs.SearchJob(ctx, env.Target.SearchTerm) },
		env.Jobs.SelectEasyApplyFilter,
		env.Jobs.ClickEasyApplyButton,
		env.Jobs.VerifyApplyDialogVisible,
	)
}

func fillContactStep(ctx context.Context, env *Env) error {
	if err := performJobSearch(ctx, env); err != nil {
		return err
	}
	return runSteps(ctx, env.Jobs.FillAllRequiredFields, env.Jobs.ClickNextButton)
}

func runSteps(ctx context.Context, steps ...func(context.Context) error) error {
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}
