// internal/browser/session/script.go
package session

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Every element script resolves the handle's XPath itself so a handle never
// holds a remote object across re-renders.
const elementScript = `(() => {
	const el = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	if (!el) return {found: false};
	const arg = %s;
	const visible = (n) => {
		if (!n.isConnected) return false;
		const st = getComputedStyle(n);
		if (st.visibility === 'hidden' || st.display === 'none') return false;
		const r = n.getBoundingClientRect();
		return r.width > 0 || r.height > 0;
	};
	const fire = (n, type) => n.dispatchEvent(new Event(type, {bubbles: true}));
	%s
})()`

const countScript = `document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotLength`

// Script bodies. Each returns {found: true, ...} or throws.
const (
	jsText       = `return {found: true, value: el.innerText};`
	jsValue      = `if (!('value' in el)) throw new Error('element is not an input, textarea or select'); return {found: true, value: String(el.value)};`
	jsAttribute  = `return {found: true, present: el.hasAttribute(arg), value: el.getAttribute(arg) || ''};`
	jsVisible    = `return {found: true, value: visible(el)};`
	jsClickCheck = `if (!visible(el)) return {found: true, value: false}; if (el.disabled) throw new Error('element is disabled'); el.scrollIntoView({block: 'center'}); return {found: true, value: true};`
	jsFill       = `if (el.disabled || el.readOnly) throw new Error('element is not editable');
	const proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
	el.focus();
	Object.getOwnPropertyDescriptor(proto, 'value').set.call(el, arg);
	fire(el, 'input'); fire(el, 'change');
	return {found: true};`
	jsSelect = `if (el.tagName !== 'SELECT') throw new Error('element is not a select');
	const opt = Array.from(el.options).find(o => o.value === arg || o.text.trim() === arg);
	if (!opt) throw new Error('option not found: ' + arg);
	if (opt.disabled) throw new Error('option is disabled: ' + arg);
	el.value = opt.value;
	fire(el, 'input'); fire(el, 'change');
	return {found: true, value: opt.value};`
)

type evalResult[T any] struct {
	Found   bool `json:"found"`
	Present bool `json:"present"`
	Value   T    `json:"value"`
}

func buildElementScript(expr string, arg any, body string) (string, error) {
	exprJS, err := json.Marshal(expr)
	if err != nil {
		return "", err
	}
	argJS, err := json.Marshal(arg)
	if err != nil {
		return "", fmt.Errorf("failed to encode script argument: %w", err)
	}
	return fmt.Sprintf(elementScript, exprJS, argJS, body), nil
}

func buildCountScript(expr string) (string, error) {
	exprJS, err := json.Marshal(expr)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(countScript, exprJS), nil
}
