// internal/pages/login/locators.go
package login

import "github.com/xkilldash9x/applyflow/internal/browser/element"

// Locators of the sign-in page.
var (
	EmailTextfield    = "//input[@id='username']"
	PasswordTextfield = "//input[@id='password']"
	LoginWithEmail    = "//button[contains(@class,'sign-in-with-email')]"
	SignInButton      = element.ButtonByName("Sign in")
	LoginError        = "//div[contains(@class,'form__error')]"
)
