// Package jsonscan holds the traversal and number-decoding helpers used to read
// provider payloads whose shape is not under our control.
package jsonscan

import (
	"strings"

	"github.com/tidwall/gjson"
)

// MaxDepth bounds every traversal. Members of the root object are at depth 0,
// so a key nested inside ten objects is still visited and one inside eleven is not.
const MaxDepth = 10

// Visitor receives every object member (key set) and array element (key empty)
// in document order. Returning false stops the walk.
type Visitor func(key string, value gjson.Result, depth int) bool

// Walk traverses root depth-first.
func Walk(root gjson.Result, visit Visitor) {
	walk(root, 0, visit)
}

func walk(node gjson.Result, depth int, visit Visitor) bool {
	if depth > MaxDepth {
		return true
	}
	isObject := node.IsObject()
	if !isObject && !node.IsArray() {
		return true
	}
	keepGoing := true
	node.ForEach(func(k, child gjson.Result) bool {
		key := ""
		if isObject {
			key = k.String()
		}
		if !visit(key, child, depth) || !walk(child, depth+1, visit) {
			keepGoing = false
		}
		return keepGoing
	})
	return keepGoing
}

// WalkObjects calls visit for root (when it is an object) and for every nested
// object, passing the key the object was found under.
func WalkObjects(root gjson.Result, visit Visitor) {
	if root.IsObject() && !visit("", root, -1) {
		return
	}
	Walk(root, func(key string, value gjson.Result, depth int) bool {
		if value.IsObject() {
			return visit(key, value, depth)
		}
		return true
	})
}

// Find returns the first value whose key and value satisfy match.
func Find(root gjson.Result, match func(key string, value gjson.Result) bool) (gjson.Result, bool) {
	var found gjson.Result
	ok := false
	Walk(root, func(key string, value gjson.Result, _ int) bool {
		if match(key, value) {
			found, ok = value, true
			return false
		}
		return true
	})
	return found, ok
}

// KeyHas reports whether key contains any keyword, ignoring case.
func KeyHas(key string, keywords ...string) bool {
	if key == "" {
		return false
	}
	lower := strings.ToLower(key)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// KeyIs reports whether key equals any of names, ignoring case.
func KeyIs(key string, names ...string) bool {
	for _, n := range names {
		if strings.EqualFold(key, n) {
			return true
		}
	}
	return false
}

// NonBlank returns the trimmed string value of v when v is a non-empty string.
func NonBlank(v gjson.Result) (string, bool) {
	if v.Type != gjson.String {
		return "", false
	}
	s := strings.TrimSpace(v.Str)
	return s, s != ""
}

// Text flattens a plain or rich-text value into a string.
func Text(v gjson.Result) string {
	switch {
	case v.Type == gjson.String:
		return strings.TrimSpace(v.Str)
	case v.IsObject():
		if s, ok := NonBlank(v.Get("text")); ok {
			return s
		}
		if elems := v.Get("richTextElements"); elems.IsArray() {
			var parts []string
			for _, el := range elems.Array() {
				if s, ok := NonBlank(el.Get("text.text.text")); ok {
					parts = append(parts, s)
				}
			}
			return strings.Join(parts, " ")
		}
		if t := v.Get("text"); t.IsObject() {
			return Text(t)
		}
	}
	return ""
}

// Probe is one known payload shape: Match recognises it, Extract reads it.
type Probe[T any] struct {
	Name    string
	Match   func(gjson.Result) bool
	Extract func(gjson.Result) (T, bool)
}

// First evaluates probes in order and returns the first successful extraction.
func First[T any](v gjson.Result, probes []Probe[T]) (T, string, bool) {
	for _, p := range probes {
		if p.Match != nil && !p.Match(v) {
			continue
		}
		if out, ok := p.Extract(v); ok {
			return out, p.Name, true
		}
	}
	var zero T
	return zero, "", false
}
