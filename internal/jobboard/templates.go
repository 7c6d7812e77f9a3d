// internal/jobboard/templates.go
package jobboard

import "html/template"

var pages = template.Must(template.New("pages").Parse(`
{{define "login"}}<!DOCTYPE html>
<html><head><title>Sign In</title></head>
<body>
<main class="sign-in">
<h1>Sign in</h1>
<button type="button" class="sign-in-with-email btn__secondary">Sign in with email</button>
{{if .LoginFormOpen}}<form class="login__form">
<div class="form__input--floating"><label for="username">Email or phone</label><input id="username" name="session_key" type="email" value="{{.Username}}"></div>
<div class="form__input--floating"><label for="password">Password</label><input id="password" name="session_password" type="password"></div>
{{if .LoginFailed}}<div class="form__error" role="alert">{{.LoginError}}</div>{{end}}
<button type="submit" class="btn__primary--large" aria-label="Sign in">Sign in</button>
</form>{{end}}
</main>
</body></html>{{end}}

{{define "jobs"}}<!DOCTYPE html>
<html><head><title>Jobs</title></head>
<body>
<header class="global-nav"><a href="/jobs">Jobs</a></header>
<main class="jobs-search">
<div class="jobs-search-box"><input class="jobs-search-box__text-input" name="keywords" type="search" aria-label="Search by title, skill, or company" value="{{.Keywords}}"></div>
<div class="search-reusables__filter-list"><button type="button" class="search-reusables__filter-pill" aria-label="Easy Apply filter." aria-pressed="{{.EasyApply}}">Easy Apply</button></div>
{{if .Query}}{{if .Job}}
<ul class="jobs-search-results-list"><li class="jobs-search-results__list-item"><div class="job-card-list__title">{{.Job}}</div></li></ul>
<div class="job-details-jobs-unified-top-card">
<h1 class="job-details-jobs-unified-top-card__job-title">{{.Job}}</h1>
<div class="jobs-apply-button--top-card">{{if .EasyApply}}<button type="button" class="jobs-apply-button artdeco-button artdeco-button--primary" aria-label="Easy Apply to {{.Job}}">Easy Apply</button>{{else}}<a class="jobs-apply-link" href="#">Apply</a>{{end}}</div>
</div>
{{else}}<div class="jobs-search-no-results-banner">No matching jobs found.</div>{{end}}{{end}}
</main>
{{if .DialogOpen}}{{template "dialog" .}}{{end}}
</body></html>{{end}}

{{define "dialog"}}<div role="dialog" class="artdeco-modal jobs-easy-apply-modal" aria-labelledby="jobs-apply-header">
<div class="artdeco-modal__header"><h2 id="jobs-apply-header">Apply to {{.Company}}</h2><button type="button" aria-label="Dismiss">Close</button></div>
<div class="artdeco-modal__content">
{{if eq .Step "contact"}}{{template "contact" .}}{{else if eq .Step "resume"}}{{template "resume" .}}{{else if eq .Step "review"}}{{template "review" .}}{{else}}{{template "submitted" .}}{{end}}
</div>
</div>{{end}}

{{define "contact"}}<form class="jobs-easy-apply-form" data-step="contact">
<h3>Contact info</h3>
{{range .Text}}<div class="fb-dash-form-element" data-test-field="{{.Name}}">
<div class="artdeco-text-input"><div class="artdeco-text-input--container"><label for="f-{{.Name}}" class="artdeco-text-input--label">{{.Label}}</label><input id="f-{{.Name}}" name="{{.Name}}" type="{{.Type}}" class="artdeco-text-input--input" value="{{.Value}}"{{if .Required}} required{{end}}></div></div>
{{if .Error}}<div class="artdeco-inline-feedback artdeco-inline-feedback--error" role="alert"><span class="artdeco-inline-feedback__message">{{.Error}}</span></div>{{end}}
</div>
{{end}}{{range .Selects}}<div class="fb-dash-form-element" data-test-field="{{.Name}}">
<label for="f-{{.Name}}"><span>{{.Label}}</span>{{if .Required}}<span class="required-marker">*</span>{{end}}</label><select id="f-{{.Name}}" name="{{.Name}}"{{if .Required}} required{{end}}>{{range .Options}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>{{end}}</select>
{{if .Error}}<div class="artdeco-inline-feedback artdeco-inline-feedback--error" role="alert"><span class="artdeco-inline-feedback__message">{{.Error}}</span></div>{{end}}
</div>
{{end}}</form>
<footer><button type="button" class="artdeco-button artdeco-button--primary" aria-label="Continue to next step">Next</button></footer>{{end}}

{{define "resume"}}<form class="jobs-easy-apply-form" data-step="resume">
<h3>Resume</h3>
{{with .Resume}}<div class="jobs-document-upload-redesign-card__container"><h3 class="jobs-document-upload-redesign-card__file-name">{{.}}</h3><button type="button" class="artdeco-button--tertiary" aria-label="Remove uploaded document">Remove</button></div>{{end}}
{{if .ResumeTooLarge}}<div class="jobs-document-upload__error" role="alert">Please upload a smaller file (2 MB or less). <a href="#">Change file</a></div>{{end}}
<label for="jobs-document-upload-file-input-upload-resume" class="jobs-document-upload__upload-button">Upload resume</label>
<input id="jobs-document-upload-file-input-upload-resume" name="file" type="file" accept=".pdf,.doc,.docx">
{{if .ResumeMissing}}<div class="artdeco-inline-feedback artdeco-inline-feedback--error" role="alert"><span class="artdeco-inline-feedback__message">A resume is required</span></div>{{end}}
</form>
<footer><button type="button" class="artdeco-button artdeco-button--primary" aria-label="Review your application">Review</button></footer>{{end}}

{{define "review"}}<div class="jobs-easy-apply-content" data-step="review"><h3>Review your application</h3><p>The employer will also receive a copy of your profile.</p></div>
<footer><button type="button" class="artdeco-button artdeco-button--primary" aria-label="Submit application">Submit application</button></footer>{{end}}

{{define "submitted"}}<div class="jobs-easy-apply-content" data-step="submitted"><h3 class="artdeco-inline-feedback--success">Your application was sent to {{.Company}}!</h3></div>
<footer><button type="button" class="artdeco-button artdeco-button--primary" aria-label="Done">Done</button></footer>{{end}}
`))
