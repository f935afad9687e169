// Package luigisapi decodes Luigi's Box response bodies while keeping the key
// order of JSON objects, which the API uses to report per-URL failures.
package luigisapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNotObject is returned when a JSON value is expected to be an object.
var ErrNotObject = errors.New("luigisapi: value is not a JSON object")

// Entry is one key/value pair of a JSON object, in document order.
type Entry struct {
	Key   string
	Value json.RawMessage
}

// Document is a decoded top-level response object.
type Document struct {
	// Raw is the body exactly as received.
	Raw json.RawMessage
	// Decoded is the generic decoding of Raw.
	Decoded map[string]any
	fields  map[string]json.RawMessage
}

// Parse decodes body, which must be a JSON object.
func Parse(body []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("luigisapi: empty response body")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("luigisapi: decode body: %w", err)
	}
	if fields == nil {
		return nil, ErrNotObject
	}
	var decoded map[string]any
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return nil, fmt.Errorf("luigisapi: decode body: %w", err)
	}
	return &Document{
		Raw:     append(json.RawMessage(nil), trimmed...),
		Decoded: decoded,
		fields:  fields,
	}, nil
}

// Has reports whether key is present with a non-null value.
func (d *Document) Has(key string) bool {
	raw, ok := d.fields[key]
	return ok && !isNull(raw)
}

// Field returns the raw value stored under key.
func (d *Document) Field(key string) (json.RawMessage, bool) {
	raw, ok := d.fields[key]
	return raw, ok
}

// Int decodes key as an integer. ok is false when the key is absent or null.
func (d *Document) Int(key string) (value int, ok bool, err error) {
	if !d.Has(key) {
		return 0, false, nil
	}
	raw := bytes.TrimSpace(d.fields[key])
	if len(raw) > 0 && raw[0] == '"' {
		return 0, true, fmt.Errorf("luigisapi: field %q is a string, not a number", key)
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return 0, true, fmt.Errorf("luigisapi: field %q: %w", key, err)
	}
	i, err := n.Int64()
	if err != nil {
		return 0, true, fmt.Errorf("luigisapi: field %q is not an integer: %w", key, err)
	}
	return int(i), true, nil
}

// String decodes key as a string. ok is false when the key is absent or null.
func (d *Document) String(key string) (value string, ok bool, err error) {
	if !d.Has(key) {
		return "", false, nil
	}
	if err := json.Unmarshal(d.fields[key], &value); err != nil {
		return "", true, fmt.Errorf("luigisapi: field %q is not a string: %w", key, err)
	}
	return value, true, nil
}

// Entries returns the members of the object stored under key in document
// order. ok is false when the key is absent or null.
func (d *Document) Entries(key string) (entries []Entry, ok bool, err error) {
	if !d.Has(key) {
		return nil, false, nil
	}
	entries, err = OrderedObject(d.fields[key])
	if err != nil {
		return nil, true, fmt.Errorf("luigisapi: field %q: %w", key, err)
	}
	return entries, true, nil
}

// OrderedObject splits a JSON object into its members, preserving order.
// An empty object yields a non-nil, empty slice, and so does an empty array:
// the API encodes "no failures" as [] as well as {}.
func OrderedObject(raw json.RawMessage) ([]Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if ok && delim == '[' && !dec.More() {
		return []Entry{}, nil
	}
	if !ok || delim != '{' {
		return nil, ErrNotObject
	}

	entries := make([]Entry, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("luigisapi: unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return entries, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
