// internal/fields/fields_test.go
package fields_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/dom"
	"github.com/xkilldash9x/applyflow/internal/browser/element"
	"github.com/xkilldash9x/applyflow/internal/config"
	"github.com/xkilldash9x/applyflow/internal/fields"
)

// textField renders a labelled input in the nesting the error locator expects:
// input/../.. is the row and the row's following div is the message.
func textField(label, attrs, errMsg string) string {
	labelHTML := ""
	if label != "" {
		labelHTML = "<label>" + label + "</label>"
	}
	errHTML := ""
	if errMsg != "" {
		errHTML = `<div class="err">` + errMsg + `</div>`
	}
	return `<div class="field"><div class="row"><div class="ctl">` + labelHTML + `<input type="text" ` + attrs + `></div></div>` + errHTML + `</div>`
}

func selectField(label, attrs, errMsg string) string {
	errHTML := ""
	if errMsg != "" {
		errHTML = `<div class="err">` + errMsg + `</div>`
	}
	return `<div class="field"><label><span>` + label + `</span><span>*</span></label><select ` + attrs + `>` +
		`<option value="Select an option">Select an option</option><option value="Yes">Yes</option></select>` + errHTML + `</div>`
}

func dialog(body ...string) string {
	out := `<html><body><div role="dialog" class="apply-modal"><form>`
	for _, b := range body {
		out += b
	}
	return out + `</form></div></body></html>`
}

type harness struct {
	doc       *dom.Document
	root      element.Handle
	exec      *action.Executor
	extractor *fields.Extractor
	verifier  *fields.Verifier
	logs      *observer.ObservedLogs
}

func newHarness(t *testing.T, page string, mutate func(*fields.ExtractorConfig), opts ...dom.Option) *harness {
	t.Helper()
	opts = append([]dom.Option{dom.WithPollInterval(time.Millisecond)}, opts...)
	doc, err := dom.ParseString(page, opts...)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	exec := action.New(logger, action.Policy{MaxAttempts: 2, BaseBackoff: time.Millisecond, Timeout: 50 * time.Millisecond, PollInterval: time.Millisecond})

	cfg := fields.DefaultExtractorConfig()
	cfg.PollInterval = time.Millisecond
	cfg.Timeout = 50 * time.Millisecond
	cfg.LabelTimeout = 10 * time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}

	vcfg := fields.VerifierConfigFromConfig(config.NewDefaultConfig().Verify())
	vcfg.ErrorTimeout = 50 * time.Millisecond

	return &harness{
		doc:       doc,
		root:      doc.Locate("//div[@role='dialog']"),
		exec:      exec,
		extractor: fields.NewExtractor(logger, exec, cfg),
		verifier:  fields.NewVerifier(logger, exec, vcfg),
		logs:      logs,
	}
}

func TestExtract_FiltersUnlabelledAndOptional(t *testing.T) {
	page := dialog(
		textField("First Name", "required", ""),
		textField("", "required", ""),
		textField("  Last \n  Name ", `required=""`, ""),
		textField("Middle name", "", ""),
		selectField("Are you legally authorized to work?", "required", ""),
		selectField("Referral source", "", ""),
	)
	h := newHarness(t, page, nil)

	got, err := h.extractor.Extract(context.Background(), h.root)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"First Name", "Last Name"}, got.Keys(fields.Text)); diff != "" {
		t.Errorf("text keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Are you legally authorized to work?"}, got.Keys(fields.Select)); diff != "" {
		t.Errorf("select keys mismatch (-want +got):\n%s", diff)
	}
	_, hasEmpty := got.Get(fields.Text, "")
	assert.False(t, hasEmpty, "an unlabelled control must never be keyed by the empty string")
	assert.Equal(t, 3, got.Total())

	d, ok := got.Get(fields.Text, "Last Name")
	require.True(t, ok)
	assert.Equal(t, fields.Text, d.Kind)
	assert.Equal(t, 2, d.Position)

	warns := h.logs.FilterMessage("Failed to process text field 1").All()
	require.Len(t, warns, 1)
	assert.Equal(t, "label unresolvable", warns[0].ContextMap()["reason"])
}

func TestExtract_NeverIncludesOptionalFields(t *testing.T) {
	page := dialog(
		textField("Email", "", ""),
		textField("Phone", "required", ""),
		selectField("Country", "", ""),
		selectField("Visa", "required", ""),
	)
	h := newHarness(t, page, nil)

	got, err := h.extractor.Extract(context.Background(), h.root)
	require.NoError(t, err)
	for _, kind := range fields.Kinds() {
		for _, key := range got.Keys(kind) {
			d, _ := got.Get(kind, key)
			_, present, err := d.Handle.Attribute(context.Background(), "required")
			require.NoError(t, err)
			assert.True(t, present, "%s field %q lacks the required attribute", kind, key)
		}
	}
}

func TestExtract_Idempotent(t *testing.T) {
	page := dialog(
		textField("First Name", "required", ""),
		textField("Mobile phone number", "required", ""),
		selectField("Email address", "required", ""),
	)
	h := newHarness(t, page, nil)
	ctx := context.Background()

	first, err := h.extractor.Extract(ctx, h.root)
	require.NoError(t, err)
	second, err := h.extractor.Extract(ctx, h.root)
	require.NoError(t, err)

	for _, kind := range fields.Kinds() {
		require.Equal(t, first.Keys(kind), second.Keys(kind))
		for _, key := range first.Keys(kind) {
			a, _ := first.Get(kind, key)
			b, _ := second.Get(kind, key)
			assert.Equal(t, a.Handle.Key(), b.Handle.Key(), "handles for %q must address the same node", key)
		}
	}
	assert.NotSame(t, first, second, "extraction results are never cached")
}

func TestExtract_ZeroSelects(t *testing.T) {
	page := dialog(textField("First Name", "required", ""))
	ctx := context.Background()

	t.Run("optional wait yields empty map", func(t *testing.T) {
		h := newHarness(t, page, func(c *fields.ExtractorConfig) { c.RequireSelects = false })
		got, err := h.extractor.Extract(ctx, h.root)
		require.NoError(t, err)
		assert.Empty(t, got.Of(fields.Select))

		err = h.verifier.VerifyErrors(ctx, fields.Select, got, got.Keys(fields.Select))
		assert.ErrorIs(t, err, fields.ErrNoRequiredFields)
	})

	t.Run("required wait times out naming the selector", func(t *testing.T) {
		h := newHarness(t, page, nil)
		_, err := h.extractor.Extract(ctx, h.root)
		var timeout *fields.DiscoveryTimeoutError
		require.ErrorAs(t, err, &timeout)
		assert.Equal(t, ".//select", timeout.Selector)
	})
}

func TestExtract_NoInputsTimesOut(t *testing.T) {
	h := newHarness(t, dialog(selectField("Visa", "required", "")), nil)
	_, err := h.extractor.Extract(context.Background(), h.root)
	var timeout *fields.DiscoveryTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, ".//input", timeout.Selector)
	assert.Contains(t, err.Error(), "within 50ms")
}

func TestExtract_WaitsForLateRender(t *testing.T) {
	page := `<html><body><div role="dialog"><p>Loading</p></div><button id="load">Load</button></body></html>`
	handler := func(ctx context.Context, doc *dom.Document, ev dom.Event) error {
		if ev.Type != dom.EventClick {
			return nil
		}
		return doc.Mutate(func(root *html.Node) error {
			return dom.AppendHTML(findDialog(root), textField("First Name", "required", "")+selectField("Visa", "required", ""))
		})
	}
	h := newHarness(t, page, func(c *fields.ExtractorConfig) { c.Timeout = time.Second }, dom.WithEventHandler(handler))
	ctx := context.Background()

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = h.doc.Locate("//button[@id='load']").Click(ctx)
	}()

	got, err := h.extractor.Extract(ctx, h.root)
	require.NoError(t, err)
	assert.Equal(t, []string{"First Name"}, got.Keys(fields.Text))
	assert.Equal(t, []string{"Visa"}, got.Keys(fields.Select))
}

func findDialog(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "div" {
		for _, a := range n.Attr {
			if a.Key == "role" && a.Val == "dialog" {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findDialog(c); found != nil {
			return found
		}
	}
	return nil
}

func TestExtract_CancelledContext(t *testing.T) {
	h := newHarness(t, dialog(textField("First Name", "required", "")), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.extractor.Extract(ctx, h.root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtract_DuplicateLabels(t *testing.T) {
	page := dialog(
		textField("Phone", "required", ""),
		textField("Phone", "required", ""),
		textField("Phone", "required", ""),
		selectField("Visa", "required", ""),
	)
	ctx := context.Background()

	t.Run("positional", func(t *testing.T) {
		h := newHarness(t, page, nil)
		got, err := h.extractor.Extract(ctx, h.root)
		require.NoError(t, err)
		assert.Equal(t, []string{"Phone", "Phone (2)", "Phone (3)"}, got.Keys(fields.Text))
		d, _ := got.Get(fields.Text, "Phone (3)")
		assert.Equal(t, "Phone", d.Label)
	})

	t.Run("reject", func(t *testing.T) {
		h := newHarness(t, page, func(c *fields.ExtractorConfig) { c.DuplicatePolicy = fields.DuplicateReject })
		_, err := h.extractor.Extract(ctx, h.root)
		var dup *fields.DuplicateLabelError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "Phone", dup.Label)
		assert.Equal(t, fields.Text, dup.Kind)
	})

	t.Run("last wins", func(t *testing.T) {
		h := newHarness(t, page, func(c *fields.ExtractorConfig) { c.DuplicatePolicy = fields.DuplicateLastWins })
		got, err := h.extractor.Extract(ctx, h.root)
		require.NoError(t, err)
		assert.Equal(t, []string{"Phone"}, got.Keys(fields.Text))
		d, _ := got.Get(fields.Text, "Phone")
		assert.Equal(t, 2, d.Position)
	})
}

func TestVerifyErrors_PhoneMessage(t *testing.T) {
	page := dialog(
		textField("Mobile phone number", `required value="0312345678"`, "Enter a valid phone number"),
		textField("First Name", "required", "Please enter a valid answer"),
		selectField("Email address", "required", "Please enter a valid answer"),
	)
	h := newHarness(t, page, nil)
	ctx := context.Background()

	got, err := h.extractor.Extract(ctx, h.root)
	require.NoError(t, err)

	assert.Equal(t, "Enter a valid phone number", h.verifier.ExpectedMessage(fields.Text, "Mobile phone number"))
	assert.Empty(t, h.verifier.ExpectedMessage(fields.Text, "First Name"))
	require.NoError(t, h.verifier.VerifyErrors(ctx, fields.Text, got, got.Keys(fields.Text)))
	require.NoError(t, h.verifier.VerifyErrors(ctx, fields.Select, got, got.Keys(fields.Select)))
}

func TestVerifyErrors_Mismatch(t *testing.T) {
	page := dialog(
		textField("Phone", "required", "Please enter a valid answer"),
		selectField("Visa", "required", "Something else"),
	)
	h := newHarness(t, page, nil)
	ctx := context.Background()

	got, err := h.extractor.Extract(ctx, h.root)
	require.NoError(t, err)

	err = h.verifier.VerifyErrors(ctx, fields.Text, got, got.Keys(fields.Text))
	var mm *action.MismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, "Enter a valid phone number", mm.Expected)
	assert.Equal(t, "Please enter a valid answer", mm.Actual)

	err = h.verifier.VerifyErrors(ctx, fields.Select, got, got.Keys(fields.Select))
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, "Please enter a valid answer", mm.Expected)
}

func TestVerifyErrors_MessageNeverShown(t *testing.T) {
	h := newHarness(t, dialog(textField("First Name", "required", ""), selectField("Visa", "required", "")), nil)
	ctx := context.Background()

	got, err := h.extractor.Extract(ctx, h.root)
	require.NoError(t, err)
	err = h.verifier.VerifyErrors(ctx, fields.Text, got, []string{"First Name"})
	assert.ErrorIs(t, err, element.ErrNotVisible)
}

func TestVerifyErrors_UnknownKey(t *testing.T) {
	h := newHarness(t, dialog(textField("First Name", "required", "x"), selectField("Visa", "required", "")), nil)
	got, err := h.extractor.Extract(context.Background(), h.root)
	require.NoError(t, err)

	err = h.verifier.VerifyErrors(context.Background(), fields.Text, got, []string{"Nickname"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Nickname"`)
}

func TestVerifyErrors_HiddenMessageRevealed(t *testing.T) {
	page := dialog(
		`<div class="field"><div class="row"><div class="ctl"><label>City</label><input required></div></div><div class="err" hidden>Please enter a valid answer</div></div>`,
		selectField("Visa", "required", ""),
		`<button id="next" type="button">Next</button>`,
	)
	handler := func(ctx context.Context, doc *dom.Document, ev dom.Event) error {
		if ev.Type != dom.EventClick {
			return nil
		}
		return doc.Mutate(func(root *html.Node) error {
			var walk func(n *html.Node)
			walk = func(n *html.Node) {
				for _, a := range n.Attr {
					if a.Key == "class" && a.Val == "err" {
						dom.SetHidden(n, false)
					}
				}
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c)
				}
			}
			walk(root)
			return nil
		})
	}
	h := newHarness(t, page, nil, dom.WithEventHandler(handler))
	ctx := context.Background()

	got, err := h.extractor.Extract(ctx, h.root)
	require.NoError(t, err)

	err = h.verifier.VerifyErrors(ctx, fields.Text, got, got.Keys(fields.Text))
	require.ErrorIs(t, err, element.ErrNotVisible)

	require.NoError(t, h.exec.Click(ctx, h.doc.Locate("//button[@id='next']"), "click next"))
	require.NoError(t, h.verifier.VerifyErrors(ctx, fields.Text, got, got.Keys(fields.Text)))
}

func TestParseDuplicatePolicy(t *testing.T) {
	for in, want := range map[string]fields.DuplicatePolicy{
		"":           fields.DuplicatePositional,
		"positional": fields.DuplicatePositional,
		"REJECT":     fields.DuplicateReject,
		" last_wins": fields.DuplicateLastWins,
	} {
		got, err := fields.ParseDuplicatePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := fields.ParseDuplicatePolicy("first_wins")
	assert.Error(t, err)
}

func TestExtractorConfigFromConfig(t *testing.T) {
	cfg, err := fields.ExtractorConfigFromConfig(config.NewDefaultConfig().Discovery())
	require.NoError(t, err)
	assert.Equal(t, fields.DefaultExtractorConfig(), cfg)

	_, err = fields.ExtractorConfigFromConfig(config.DiscoveryConfig{DuplicatePolicy: "bogus"})
	assert.Error(t, err)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "text", fields.Text.String())
	assert.Equal(t, "select", fields.Select.String())
	assert.Equal(t, "Kind(7)", fields.Kind(7).String())
}

func TestNewExtractor_NilLogger(t *testing.T) {
	exec := action.New(zaptest.NewLogger(t), action.DefaultPolicy())
	assert.NotNil(t, fields.NewExtractor(nil, exec, fields.DefaultExtractorConfig()))
}
