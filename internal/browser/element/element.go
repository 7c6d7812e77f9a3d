// internal/browser/element/element.go
// Package element defines the driver-neutral view of a rendered page that the
// action executor, the field extractor and the page objects are written
// against. Each browser backend (chromedp session, playwright, offline DOM
// snapshot) provides an implementation.
//
// Selectors are XPath expressions. A selector passed to Handle.Locate is
// evaluated relative to the handle's node, so "preceding-sibling::label" and
// ".//input" behave the way they would in a browser's document.evaluate.
package element

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound means the selector matched no node.
	ErrNotFound = errors.New("element not found")
	// ErrDetached means a previously resolved node is no longer attached to the document.
	ErrDetached = errors.New("element is detached from the document")
	// ErrNotVisible means a visibility wait elapsed without the node becoming visible.
	ErrNotVisible = errors.New("element not visible")
	// ErrStillVisible means a hidden-wait elapsed while the node stayed visible.
	ErrStillVisible = errors.New("element still visible")
)

// Handle is a lazily resolved reference to one node. Resolution happens on
// every call, so a Handle survives re-renders as long as its selector still
// matches.
type Handle interface {
	Click(ctx context.Context) error
	Fill(ctx context.Context, value string) error
	Clear(ctx context.Context) error
	// Text returns the rendered text of the node.
	Text(ctx context.Context) (string, error)
	// InputValue returns the current value of an input, textarea or select.
	InputValue(ctx context.Context) (string, error)
	// Attribute reports the attribute value and whether it is present at all.
	// A boolean attribute such as required="" is present with an empty value.
	Attribute(ctx context.Context, name string) (string, bool, error)
	IsVisible(ctx context.Context) (bool, error)
	WaitVisible(ctx context.Context, timeout time.Duration) error
	WaitHidden(ctx context.Context, timeout time.Duration) error
	SetFiles(ctx context.Context, paths ...string) error
	SelectOption(ctx context.Context, value string) error

	// Locate derives a handle for selector relative to this node.
	Locate(selector string) Handle
	// First narrows the handle to the first match.
	First() Handle
	// All resolves every current match into position-pinned handles.
	All(ctx context.Context) ([]Handle, error)
	Count(ctx context.Context) (int, error)

	// Key identifies the node the handle resolves to. Two handles with the
	// same Key address the same selector path.
	Key() string
	String() string
}

// Page is the document-level capability set.
type Page interface {
	Locate(selector string) Handle
	Navigate(ctx context.Context, url string) error
	// Press dispatches a named key ("Enter", "Tab") to the focused element.
	Press(ctx context.Context, key string) error
	// WaitForLoad waits for the page to reach state ("load", "domcontentloaded", "networkidle").
	WaitForLoad(ctx context.Context, state string, timeout time.Duration) error
	URL(ctx context.Context) (string, error)
	Close() error
}

// Load states accepted by Page.WaitForLoad.
const (
	LoadStateLoad             = "load"
	LoadStateDOMContentLoaded = "domcontentloaded"
	LoadStateNetworkIdle      = "networkidle"
)
