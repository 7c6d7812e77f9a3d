// internal/pages/components/components_test.go
package components_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/applyflow/internal/action"
	"github.com/xkilldash9x/applyflow/internal/browser/dom"
	"github.com/xkilldash9x/applyflow/internal/fields"
	"github.com/xkilldash9x/applyflow/internal/pages/components"
)

const form = `<html><body><form id="f">
<select id="country" name="country">
<option value="Select an option">Select an option</option>
<option value="vn">Vietnam (+84)</option>
<option value="us">United States (+1)</option>
<option>No value</option>
</select>
<div id="list"></div>
</form></body></html>`

func fastExecutor(t *testing.T) *action.Executor {
	return action.New(zaptest.NewLogger(t), action.Policy{
		MaxAttempts:   2,
		BaseBackoff:   time.Millisecond,
		Timeout:       20 * time.Millisecond,
		SettleTime:    time.Millisecond,
		SettleTimeout: 20 * time.Millisecond,
		PollInterval:  time.Millisecond,
	})
}

func TestSelectHandler(t *testing.T) {
	ctx := context.Background()
	doc, err := dom.ParseString(form)
	require.NoError(t, err)
	s := components.NewSelectHandler(doc, fastExecutor(t))
	sel := "//select[@id='country']"

	require.NoError(t, s.SelectByValue(ctx, sel, "us"))
	text, err := s.SelectedText(ctx, sel)
	require.NoError(t, err)
	assert.Equal(t, "United States (+1)", text)

	require.NoError(t, s.SelectByLabel(ctx, sel, "Vietnam (+84)"))
	v, err := doc.Locate(sel).InputValue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "vn", v)

	require.NoError(t, s.SelectByValue(ctx, sel, ""))
	text, err = s.SelectedText(ctx, sel)
	require.NoError(t, err)
	assert.Equal(t, components.Placeholder, text)

	require.NoError(t, s.SelectByIndex(ctx, sel, 2))
	text, err = s.SelectedText(ctx, sel)
	require.NoError(t, err)
	assert.Equal(t, "United States (+1)", text)

	err = s.SelectByIndex(ctx, sel, 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of bounds")

	err = s.SelectByIndex(ctx, sel, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not have a value attribute")

	require.Error(t, s.SelectByLabel(ctx, sel, "Mars"))
}

func TestWaitUntilHasChildElements(t *testing.T) {
	ctx := context.Background()

	t.Run("times out", func(t *testing.T) {
		doc, err := dom.ParseString(form)
		require.NoError(t, err)
		e := components.NewElementHandler(fastExecutor(t))
		err = e.WaitUntilHasChildElements(ctx, doc.Locate("//div[@id='list']"), ".//li", 5*time.Millisecond)
		var timeout *fields.DiscoveryTimeoutError
		require.True(t, errors.As(err, &timeout))
		assert.Equal(t, ".//li", timeout.Selector)
	})

	t.Run("children present", func(t *testing.T) {
		doc, err := dom.ParseString(form)
		require.NoError(t, err)
		require.NoError(t, doc.Mutate(func(root *html.Node) error {
			list := htmlquery.FindOne(root, "//div[@id='list']")
			return dom.AppendHTML(list, "<ul><li>one</li></ul>")
		}))
		e := components.NewElementHandler(fastExecutor(t))
		require.NoError(t, e.WaitUntilHasChildElements(ctx, doc.Locate("//div[@id='list']"), ".//li", 0))
	})
}

func TestNavigation(t *testing.T) {
	var loaded []string
	loader := func(ctx context.Context, url string) (io.ReadCloser, error) {
		loaded = append(loaded, url)
		return io.NopCloser(strings.NewReader(form)), nil
	}
	doc, err := dom.ParseString("<html></html>", dom.WithLoader(loader))
	require.NoError(t, err)
	nav := components.NewNavigation(doc, fastExecutor(t), "https://board.example/app/")

	require.NoError(t, nav.NavigateToURL(context.Background(), "/jobs", ""))
	require.NoError(t, nav.NavigateToURL(context.Background(), "https://other.example/x", "open other"))
	assert.Equal(t, []string{"https://board.example/jobs", "https://other.example/x"}, loaded)

	u, err := nav.Resolve("search?q=go")
	require.NoError(t, err)
	assert.Equal(t, "https://board.example/app/search?q=go", u)
}
