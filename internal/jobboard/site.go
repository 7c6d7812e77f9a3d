// internal/jobboard/site.go
// Package jobboard simulates the job board the scenarios target: a login
// page, a job search with an Easy Apply filter and the multi-step apply
// dialog with its validation rules. It is served through the dom snapshot
// driver so the whole suite can run without a browser or network access.
package jobboard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/applyflow/internal/browser/dom"
)

// BaseURL is the origin the simulated board answers on.
const BaseURL = "https://jobboard.local"

// Messages rendered by the board.
const (
	MsgRequired       = "Please enter a valid answer"
	MsgPhone          = "Enter a valid phone number"
	MsgResumeTooLarge = "Please upload a smaller file (2 MB or less). Change file"
	MsgResumeRequired = "A resume is required"
	MsgLoginFailed    = "Wrong email or password. Try again."
	Placeholder       = "Select an option"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// TextField is one input of the contact step.
type TextField struct {
	Name     string
	Label    string
	Required bool
	Phone    bool
	Value    string
}

// SelectField is one dropdown of the contact step. A placeholder option is
// always rendered first.
type SelectField struct {
	Name     string
	Label    string
	Required bool
	Options  []string
	Selected string
}

// Options describes the simulated board.
type Options struct {
	Username string
	Password string
	Company  string
	Jobs     []string
	Text     []TextField
	Selects  []SelectField
	// MaxResumeBytes is the upload limit. Larger files render MsgResumeTooLarge.
	MaxResumeBytes int64
	// LoginFormCollapsed hides the login form until "Sign in with email" is clicked.
	LoginFormCollapsed bool
}

// DefaultOptions returns a board with the contact fields of a typical
// Easy Apply dialog.
func DefaultOptions() Options {
	return Options{
		Username: "candidate@example.com",
		Password: "correct-horse",
		Company:  "Acme Corp",
		Jobs: []string{
			"Quality Analyst (Manual/Automation Tester - QA QC)",
			"Senior Go Engineer",
		},
		Text: []TextField{
			{Name: "first_name", Label: "First Name", Required: true},
			{Name: "last_name", Label: "Last Name", Required: true},
			{Name: "middle_name", Label: "Middle name"},
			{Name: "phone", Label: "Mobile phone number", Required: true, Phone: true},
		},
		Selects: []SelectField{
			{Name: "email", Label: "Email address", Required: true, Options: []string{"candidate@example.com"}, Selected: "candidate@example.com"},
			{Name: "phone_country", Label: "Phone country code", Required: true, Options: []string{"Vietnam (+84)", "United States (+1)"}, Selected: "Vietnam (+84)"},
		},
		MaxResumeBytes: 2 * 1024 * 1024,
	}
}

// Step names of the apply dialog.
const (
	StepContact   = "contact"
	StepResume    = "resume"
	StepReview    = "review"
	StepSubmitted = "submitted"
)

// Site is one visitor's session on the board. It is not shared between
// scenarios.
type Site struct {
	opts   Options
	logger *zap.Logger

	mu sync.Mutex
	st state
}

type state struct {
	loggedIn      bool
	loginFormOpen bool
	loginFailed   bool
	username      string
	password      string

	keywords   string
	query      string
	easyApply  bool
	dialogOpen bool
	step       string
	showErrors bool
	text       map[string]string
	selects    map[string]string

	resume        string
	resumeTooBig  bool
	resumeMissing bool
}

// New creates a fresh session.
func New(logger *zap.Logger, opts Options) *Site {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Site{opts: opts, logger: logger.Named("jobboard")}
	s.st.loginFormOpen = !opts.LoginFormCollapsed
	s.resetForm()
	return s
}

// NewPage returns a blank document wired to the site. Navigate it to
// BaseURL + "/jobs" to begin.
func (s *Site) NewPage(opts ...dom.Option) (*dom.Document, error) {
	opts = append(opts, dom.WithLoader(s.load), dom.WithEventHandler(s.handle), dom.WithURL("about:blank"))
	return dom.ParseString("<html><head></head><body></body></html>", opts...)
}

// Step reports the current dialog step, or "" when the dialog is closed.
func (s *Site) Step() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.st.dialogOpen {
		return ""
	}
	return s.st.step
}

// Submitted reports whether an application went through.
func (s *Site) Submitted() bool {
	return s.Step() == StepSubmitted
}

func (s *Site) resetForm() {
	s.st.step = StepContact
	s.st.showErrors = false
	s.st.text = make(map[string]string, len(s.opts.Text))
	for _, f := range s.opts.Text {
		s.st.text[f.Name] = f.Value
	}
	s.st.selects = make(map[string]string, len(s.opts.Selects))
	for _, f := range s.opts.Selects {
		s.st.selects[f.Name] = f.Selected
	}
	s.st.resume, s.st.resumeTooBig, s.st.resumeMissing = "", false, false
}

func (s *Site) load(ctx context.Context, raw string) (io.ReadCloser, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if base, _ := url.Parse(BaseURL); u.Host != base.Host {
		return nil, fmt.Errorf("host %q not served by the job board", u.Host)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch u.Path {
	case "", "/", "/login", "/jobs":
	default:
		return nil, fmt.Errorf("404 page not found: %s", u.Path)
	}
	if kw := u.Query().Get("keywords"); kw != "" && s.st.loggedIn {
		s.st.keywords, s.st.query = kw, kw
	}
	page, err := s.renderLocked()
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(page)), nil
}

func (s *Site) handle(ctx context.Context, doc *dom.Document, ev dom.Event) error {
	var files []string
	if ev.Type == dom.EventChange && isFileInput(ev.Node) {
		files = doc.FilesOf(ev.Node)
	}

	s.mu.Lock()
	changed := s.applyLocked(ev, files)
	var page string
	var err error
	if changed {
		page, err = s.renderLocked()
	}
	s.mu.Unlock()

	if err != nil || !changed {
		return err
	}
	return doc.Replace(page)
}

// applyLocked updates state for ev and reports whether the page re-renders.
func (s *Site) applyLocked(ev dom.Event, files []string) bool {
	switch ev.Type {
	case dom.EventInput:
		switch name := htmlquery.SelectAttr(ev.Node, "name"); name {
		case "session_key":
			s.st.username = ev.Value
		case "session_password":
			s.st.password = ev.Value
		case "keywords":
			s.st.keywords = ev.Value
		default:
			if _, ok := s.st.text[name]; ok {
				s.st.text[name] = ev.Value
			}
		}
		return false

	case dom.EventChange:
		if isFileInput(ev.Node) {
			s.uploadLocked(files)
			return true
		}
		if name := htmlquery.SelectAttr(ev.Node, "name"); name != "" {
			s.st.selects[name] = ev.Value
		}
		return false

	case dom.EventKey:
		if ev.Key == "Enter" && s.st.loggedIn && strings.TrimSpace(s.st.keywords) != "" {
			s.st.query = strings.TrimSpace(s.st.keywords)
			return true
		}
		return false

	case dom.EventClick:
		return s.clickLocked(ev.Node)
	}
	return false
}

func (s *Site) clickLocked(n *html.Node) bool {
	label := htmlquery.SelectAttr(n, "aria-label")
	class := htmlquery.SelectAttr(n, "class")
	switch {
	case strings.Contains(class, "sign-in-with-email"):
		s.st.loginFormOpen = true
	case label == "Sign in":
		ok := s.st.username != "" && s.st.username == s.opts.Username && s.st.password == s.opts.Password
		s.st.loggedIn, s.st.loginFailed = ok, !ok
		s.logger.Debug("Sign in attempt", zap.Bool("success", ok))
	case strings.HasPrefix(label, "Easy Apply filter"):
		s.st.easyApply = !s.st.easyApply
	case strings.Contains(class, "jobs-apply-button"):
		s.st.dialogOpen = true
		s.resetForm()
	case label == "Continue to next step":
		s.st.showErrors = true
		if s.contactValidLocked() {
			s.st.step, s.st.showErrors = StepResume, false
		}
	case label == "Review your application":
		switch {
		case s.st.resume == "":
			s.st.resumeMissing = true
		case !s.st.resumeTooBig:
			s.st.step = StepReview
		}
	case label == "Submit application":
		s.st.step = StepSubmitted
		s.logger.Info("Application submitted", zap.String("company", s.opts.Company))
	case label == "Remove uploaded document":
		s.st.resume, s.st.resumeTooBig = "", false
	case label == "Dismiss" || label == "Done":
		s.st.dialogOpen = false
	default:
		return false
	}
	return true
}

func (s *Site) uploadLocked(files []string) {
	s.st.resumeMissing = false
	if len(files) == 0 {
		s.st.resume, s.st.resumeTooBig = "", false
		return
	}
	path := files[0]
	s.st.resume = filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		s.logger.Warn("Uploaded file unreadable", zap.String("path", path), zap.Error(err))
		s.st.resumeTooBig = false
		return
	}
	s.st.resumeTooBig = info.Size() > s.opts.MaxResumeBytes
}

func (s *Site) textErrorLocked(f TextField) string {
	v := strings.TrimSpace(s.st.text[f.Name])
	switch {
	case f.Phone && (f.Required || v != "") && !phonePattern.MatchString(v):
		return MsgPhone
	case f.Required && v == "":
		return MsgRequired
	}
	return ""
}

func (s *Site) selectErrorLocked(f SelectField) string {
	v := s.st.selects[f.Name]
	if f.Required && (v == "" || v == Placeholder) {
		return MsgRequired
	}
	return ""
}

func (s *Site) contactValidLocked() bool {
	for _, f := range s.opts.Text {
		if s.textErrorLocked(f) != "" {
			return false
		}
	}
	for _, f := range s.opts.Selects {
		if s.selectErrorLocked(f) != "" {
			return false
		}
	}
	return true
}

type textView struct {
	TextField
	Type  string
	Error string
}

type optionView struct {
	Value    string
	Selected bool
}

type selectView struct {
	Name     string
	Label    string
	Required bool
	Options  []optionView
	Error    string
}

type pageView struct {
	LoginFormOpen bool
	LoginFailed   bool
	LoginError    string
	Username      string

	Keywords   string
	Query      string
	Job        string
	EasyApply  bool
	DialogOpen bool
	Company    string
	Step       string
	Text       []textView
	Selects    []selectView

	Resume         string
	ResumeTooLarge bool
	ResumeMissing  bool
}

func (s *Site) renderLocked() (string, error) {
	v := pageView{
		LoginFormOpen: s.st.loginFormOpen,
		LoginFailed:   s.st.loginFailed,
		LoginError:    MsgLoginFailed,
		Username:      s.st.username,
		Keywords:      s.st.keywords,
		Query:         s.st.query,
		EasyApply:     s.st.easyApply,
		DialogOpen:    s.st.dialogOpen,
		Company:       s.opts.Company,
		Step:          s.st.step,
		Resume:        s.st.resume,
		ResumeTooLarge: s.st.resumeTooBig,
		ResumeMissing: s.st.resumeMissing,
	}
	if v.Query != "" {
		for _, job := range s.opts.Jobs {
			if strings.Contains(strings.ToLower(job), strings.ToLower(v.Query)) {
				v.Job = job
				break
			}
		}
	}
	for _, f := range s.opts.Text {
		tv := textView{TextField: f, Type: "text"}
		tv.Value = s.st.text[f.Name]
		if f.Phone {
			tv.Type = "tel"
		}
		if s.st.showErrors {
			tv.Error = s.textErrorLocked(f)
		}
		v.Text = append(v.Text, tv)
	}
	for _, f := range s.opts.Selects {
		sv := selectView{Name: f.Name, Label: f.Label, Required: f.Required}
		current := s.st.selects[f.Name]
		for _, o := range append([]string{Placeholder}, f.Options...) {
			sv.Options = append(sv.Options, optionView{Value: o, Selected: o == current})
		}
		if s.st.showErrors {
			sv.Error = s.selectErrorLocked(f)
		}
		v.Selects = append(v.Selects, sv)
	}

	name := "login"
	if s.st.loggedIn {
		name = "jobs"
	}
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, v); err != nil {
		return "", fmt.Errorf("failed to render %s page: %w", name, err)
	}
	return buf.String(), nil
}

func isFileInput(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && strings.EqualFold(n.Data, "input") &&
		strings.EqualFold(htmlquery.SelectAttr(n, "type"), "file")
}
