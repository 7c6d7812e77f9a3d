// internal/browser/dom/document.go
// Package dom is an offline element.Page backed by a parsed HTML snapshot.
// Selectors are evaluated with htmlquery; interactions mutate the node tree
// the way a browser would mutate the live DOM (values, selection, checked
// state), and an optional EventHandler can script the page's reactions to
// clicks and input. It lets the field extractor, the verifier and the page
// objects run against saved snapshots and test fixtures without a browser.
package dom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/applyflow/internal/browser/element"
)

// EventType names the interaction that produced an Event.
type EventType string

const (
	EventClick  EventType = "click"
	EventInput  EventType = "input"
	EventChange EventType = "change"
	EventKey    EventType = "keydown"
)

// Event describes an interaction after it was applied to the tree.
type Event struct {
	Type EventType
	// Node is the target element. Nil for key events.
	Node *html.Node
	// Value is the filled value, the selected option or the uploaded file names.
	Value string
	// Key is set for key events.
	Key string
}

// EventHandler reacts to an interaction. It runs without the document lock
// held and may call Document.Mutate or Document.Replace.
type EventHandler func(ctx context.Context, doc *Document, ev Event) error

// Loader fetches the HTML for a URL.
type Loader func(ctx context.Context, url string) (io.ReadCloser, error)

// Option configures a Document.
type Option func(*Document)

// WithURL sets the URL reported by the document.
func WithURL(url string) Option {
	return func(d *Document) { d.url = url }
}

// WithLoader replaces the loader used by Navigate.
func WithLoader(l Loader) Option {
	return func(d *Document) { d.loader = l }
}

// WithEventHandler installs the page script.
func WithEventHandler(h EventHandler) Option {
	return func(d *Document) { d.handler = h }
}

// WithPollInterval sets the cadence of visibility waits.
func WithPollInterval(interval time.Duration) Option {
	return func(d *Document) {
		if interval > 0 {
			d.pollInterval = interval
		}
	}
}

// WithLogger sets the document logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger.Named("dom")
		}
	}
}

// Document is a parsed page. Safe for concurrent use.
type Document struct {
	mu    sync.RWMutex
	root  *html.Node
	files map[*html.Node][]string

	url          string
	loader       Loader
	handler      EventHandler
	pollInterval time.Duration
	logger       *zap.Logger
}

var _ element.Page = (*Document)(nil)

func newDocument(opts ...Option) *Document {
	d := &Document{
		files:        make(map[*html.Node][]string),
		loader:       defaultLoader,
		pollInterval: 50 * time.Millisecond,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Parse reads an HTML document from r.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	d := newDocument(opts...)
	d.root = root
	return d, nil
}

// ParseString parses an HTML string.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// Open creates a document and navigates it to url.
func Open(ctx context.Context, url string, opts ...Option) (*Document, error) {
	d := newDocument(opts...)
	if err := d.Navigate(ctx, url); err != nil {
		return nil, err
	}
	return d, nil
}

// Locate returns a handle for an XPath selector evaluated from the document root.
func (d *Document) Locate(selector string) element.Handle {
	return &Handle{doc: d, expr: element.Join("", selector)}
}

// Navigate replaces the document with the HTML loaded from url.
func (d *Document) Navigate(ctx context.Context, url string) error {
	rc, err := d.loader(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", url, err)
	}
	defer rc.Close()

	root, err := htmlquery.Parse(rc)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", url, err)
	}

	d.mu.Lock()
	d.root = root
	d.url = url
	d.files = make(map[*html.Node][]string)
	d.mu.Unlock()

	d.logger.Debug("Loaded snapshot", zap.String("url", url))
	return nil
}

// Press dispatches a key event to the event handler.
func (d *Document) Press(ctx context.Context, key string) error {
	return d.dispatch(ctx, Event{Type: EventKey, Key: key})
}

// WaitForLoad returns immediately; a snapshot is loaded once parsed.
func (d *Document) WaitForLoad(ctx context.Context, state string, timeout time.Duration) error {
	return ctx.Err()
}

// URL returns the document URL.
func (d *Document) URL(ctx context.Context) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.url, nil
}

// Close is a no-op.
func (d *Document) Close() error { return nil }

// Mutate runs fn with exclusive access to the tree.
func (d *Document) Mutate(fn func(root *html.Node) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.root)
}

// Replace swaps the whole tree for the parsed content of s, keeping the URL.
func (d *Document) Replace(s string) error {
	root, err := htmlquery.Parse(strings.NewReader(s))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}
	d.mu.Lock()
	d.root = root
	d.files = make(map[*html.Node][]string)
	d.mu.Unlock()
	return nil
}

// HTML renders the current tree.
func (d *Document) HTML() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return htmlquery.OutputHTML(d.root, true)
}

// Files returns the paths set on the file input h resolves to.
func (d *Document) Files(h element.Handle) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, err := d.query(h.Key())
	if err != nil {
		return nil
	}
	return append([]string(nil), d.files[n]...)
}

// FilesOf returns the paths set on file input node n. Event handlers use it
// to inspect an upload.
func (d *Document) FilesOf(n *html.Node) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.files[n]...)
}

// query resolves expr to its first match. Callers hold the lock.
func (d *Document) query(expr string) (*html.Node, error) {
	nodes, err := d.queryAll(expr)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", element.ErrNotFound, expr)
	}
	return nodes[0], nil
}

func (d *Document) queryAll(expr string) ([]*html.Node, error) {
	if d.root == nil {
		return nil, nil
	}
	nodes, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", expr, err)
	}
	return nodes, nil
}

func (d *Document) dispatch(ctx context.Context, ev Event) error {
	if d.handler == nil {
		return nil
	}
	d.logger.Debug("Dispatching event", zap.String("type", string(ev.Type)), zap.String("value", ev.Value), zap.String("key", ev.Key))
	return d.handler(ctx, d, ev)
}

func defaultLoader(ctx context.Context, url string) (io.ReadCloser, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusBadRequest {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return resp.Body, nil
	}
	return os.Open(strings.TrimPrefix(url, "file://"))
}
