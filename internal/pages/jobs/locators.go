// internal/pages/jobs/locators.go
package jobs

import "github.com/xkilldash9x/applyflow/internal/browser/element"

// Locators of the job search page and the Easy Apply dialog.
var (
	SearchJobInput       = "//input[contains(@class,'jobs-search-box__text-input')]"
	EasyApplyFilter      = "//button[starts-with(@aria-label,'Easy Apply filter')]"
	JobDetailTopCard     = "//div[contains(@class,'job-details-jobs-unified-top-card')]"
	ApplyButton          = ".//button[contains(@class,'jobs-apply-button')]"
	ApplyJobDialog       = "//div[@role='dialog']"
	EndLineButton        = "//div[@role='dialog']//footer//button[contains(@class,'artdeco-button--primary')]"
	NextButton           = element.ButtonByName("Continue to next step")
	ReviewButton         = element.ButtonByName("Review your application")
	SubmitApplication    = element.ButtonByName("Submit application")
	DialogFileInput      = ".//input[@type='file']"
	UploadResumeInput    = "//input[@id='jobs-document-upload-file-input-upload-resume']"
	UploadedFileName     = "//h3[contains(@class,'jobs-document-upload-redesign-card__file-name')]"
	InvalidResumeMessage = "//div[contains(@class,'jobs-document-upload__error')]"
	RequireResumeMessage = "//span[contains(@class,'artdeco-inline-feedback__message') and contains(normalize-space(.),'A resume is required')]"
	RemoveDocument       = element.ButtonByName("Remove uploaded document")
)
