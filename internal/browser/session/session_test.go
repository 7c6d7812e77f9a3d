// internal/browser/session/session_test.go
package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/applyflow/internal/browser/element"
	"github.com/xkilldash9x/applyflow/internal/config"
)

func TestLifecycleTracksNetworkIdle(t *testing.T) {
	s := &Session{}
	s.onEvent(&page.EventLifecycleEvent{Name: "networkIdle"})
	assert.True(t, s.networkIdle.Load())

	s.onEvent(&page.EventLifecycleEvent{Name: "init"})
	assert.False(t, s.networkIdle.Load(), "a new document resets idleness")

	s.onEvent(&page.EventLoadEventFired{})
	assert.False(t, s.networkIdle.Load())
}

func TestExecOptions(t *testing.T) {
	base := len(ExecOptions(config.BrowserConfig{}))
	cfg := config.BrowserConfig{
		Headless: true,
		ExecPath: "/usr/bin/chromium",
		Viewport: map[string]int{"width": 1366, "height": 900},
		Args:     []string{"--lang=en-US", "mute-audio"},
	}
	assert.Equal(t, base+5, len(ExecOptions(cfg)))

	cfg.Viewport = map[string]int{"width": 1366}
	assert.Equal(t, base+4, len(ExecOptions(cfg)), "a partial viewport is ignored")
}

func TestElementScriptQuotesInputs(t *testing.T) {
	expr := `//label[normalize-space(.)="Name's"]`
	script, err := buildElementScript(expr, "a\"b\n", jsFill)
	require.NoError(t, err)
	assert.Contains(t, script, `"//label[normalize-space(.)=\"Name's\"]"`)
	assert.Contains(t, script, `const arg = "a\"b\n";`)

	count, err := buildCountScript("(//input)[2]")
	require.NoError(t, err)
	assert.Equal(t, `document.evaluate("(//input)[2]", document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotLength`, count)
}

func TestHandleKeys(t *testing.T) {
	s := &Session{}
	h := s.Locate("//div[@role='dialog']")
	assert.Equal(t, "//div[@role='dialog']//input", h.Locate(".//input").Key())
	assert.Equal(t, "(//div[@role='dialog'])[1]", h.First().Key())
}

const e2eForm = `<!DOCTYPE html><html><body>
<form onsubmit="return false">
<div><label for="name">Name</label><input id="name" required></div>
<select id="pick"><option value="a">Alpha</option><option value="b">Beta</option></select>
<input id="file" type="file" onchange="document.getElementById('picked').textContent = this.files[0].name">
<span id="picked"></span>
<button id="go" type="button" onclick="document.getElementById('msg').hidden = false">Go</button>
<div id="msg" hidden>done</div>
</form></body></html>`

// TestSessionE2E needs a local Chrome.
func TestSessionE2E(t *testing.T) {
	if os.Getenv("APPLYFLOW_E2E") != "1" {
		t.Skip("set APPLYFLOW_E2E=1 to run browser tests")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, e2eForm)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	cfg := config.NewDefaultConfig().Browser()
	cfg.Headless = true
	s, err := New(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Navigate(ctx, srv.URL))
	require.NoError(t, s.WaitForLoad(ctx, element.LoadStateLoad, 5*time.Second))

	name := s.Locate("//input[@id='name']")
	require.NoError(t, name.Fill(ctx, "John"))
	v, err := name.InputValue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "John", v)

	_, required, err := name.Attribute(ctx, "required")
	require.NoError(t, err)
	assert.True(t, required)
	label, err := name.Locate("preceding-sibling::label").Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Name", strings.TrimSpace(label))

	require.NoError(t, s.Locate("//select[@id='pick']").SelectOption(ctx, "Beta"))
	v, err = s.Locate("//select[@id='pick']").InputValue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	msg := s.Locate("//div[@id='msg']")
	require.NoError(t, msg.WaitHidden(ctx, time.Second))
	require.NoError(t, s.Locate("//button[@id='go']").Click(ctx))
	require.NoError(t, msg.WaitVisible(ctx, 5*time.Second))

	path := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	require.NoError(t, s.Locate("//input[@id='file']").SetFiles(ctx, path))
	require.Eventually(t, func() bool {
		text, _ := s.Locate("//span[@id='picked']").Text(ctx)
		return text == "cv.pdf"
	}, 5*time.Second, 50*time.Millisecond)

	n, err := s.Locate("//option").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, err := s.Locate("//div[@id='missing']").IsVisible(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
