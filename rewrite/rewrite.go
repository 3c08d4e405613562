// Package rewrite replaces the content backend's internal origin with
// the public site origin across arbitrarily nested data, including JSON
// documents embedded as strings. Every function is total: malformed
// input degrades to plain-text replacement, never to an error.
package rewrite

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/golden-fork/bistro"
)

// Rewriter rewrites one origin pair. Construct one per origin pair and
// share it freely; it has no mutable state.
type Rewriter struct {
	from string
	to   string
	// PHP-style json_encode escapes slashes, so inside a JSON-encoded
	// string the origin appears as https:\/\/host. Both forms are
	// matched and replaced.
	fromEscaped string
	toEscaped   string
}

func New(from, to string) *Rewriter {
	from = bistro.NormalizeOrigin(from)
	to = bistro.NormalizeOrigin(to)
	return &Rewriter{
		from:        from,
		to:          to,
		fromEscaped: strings.ReplaceAll(from, "/", `\/`),
		toEscaped:   strings.ReplaceAll(to, "/", `\/`),
	}
}

// String rewrites all occurrences of the internal origin in s. A string
// that parses as a JSON document is rewritten structurally and
// re-serialized, so origins inside string-encoded JSON blobs are caught
// too, escaped-slash encodings included. Formatting and key order of
// such blobs are not preserved.
func (r *Rewriter) String(s string) string {
	if r.from == "" || r.from == r.to || !r.contains(s) {
		return s
	}

	if looksLikeJSON(s) {
		if v, err := decodeJSON([]byte(s)); err == nil {
			if out, err := json.Marshal(r.Value(v)); err == nil {
				return string(out)
			}
		}
	}

	return r.replaceText(s)
}

// Value rewrites a decoded JSON value recursively. Map keys are left
// untouched; only values are rewritten.
func (r *Rewriter) Value(v any) any {
	switch val := v.(type) {
	case string:
		return r.String(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = r.Value(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = r.Value(item)
		}
		return out
	default:
		return v
	}
}

// JSON rewrites a raw JSON document. Input that fails to parse falls
// back to textual replacement of the origin.
func (r *Rewriter) JSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || r.from == "" || r.from == r.to {
		return raw
	}
	if !r.contains(string(raw)) {
		return raw
	}

	v, err := decodeJSON(raw)
	if err != nil {
		return json.RawMessage(r.replaceText(string(raw)))
	}
	out, err := json.Marshal(r.Value(v))
	if err != nil {
		return json.RawMessage(r.replaceText(string(raw)))
	}
	return out
}

// Image returns a sanitized copy of img, or nil when img is nil or has
// no URL.
func (r *Rewriter) Image(img *bistro.SEOImage) *bistro.SEOImage {
	if img == nil || img.URL == "" {
		return nil
	}
	out := *img
	out.URL = r.String(out.URL)
	out.Alt = r.String(out.Alt)
	return &out
}

func (r *Rewriter) contains(s string) bool {
	return strings.Contains(s, r.from) || strings.Contains(s, r.fromEscaped)
}

func (r *Rewriter) replaceText(s string) string {
	s = strings.ReplaceAll(s, r.from, r.to)
	return strings.ReplaceAll(s, r.fromEscaped, r.toEscaped)
}

// decodeJSON parses with UseNumber so numeric values round-trip through
// rewriting without float64 precision loss.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON document")
	}
	return v, nil
}

func looksLikeJSON(s string) bool {
	trimmed := strings.TrimSpace(s)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}
