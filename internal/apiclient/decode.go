package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Response is the outcome of one upstream call that produced an HTTP status.
//
// A body that does not parse as JSON is not an error: Value is an empty
// object and DecodeErr keeps the reason, so callers can tell "unparseable"
// apart from "parsed but empty".
type Response struct {
	Status    int
	Value     any
	Raw       []byte
	DecodeErr error
}

// Unparseable reports whether the body failed to decode as JSON.
func (r *Response) Unparseable() bool { return r.DecodeErr != nil }

// OK reports whether Status is in [200,300).
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Decode unmarshals the raw body into v. An unparseable body leaves v untouched.
func (r *Response) Decode(v any) error {
	if r.Unparseable() {
		return nil
	}
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return fmt.Errorf("unexpected response shape: %w", err)
	}
	return nil
}

// detail returns the server-supplied error message, if the body carried one.
func (r *Response) detail() string {
	obj, ok := r.Value.(map[string]any)
	if !ok {
		return ""
	}
	d, _ := obj["detail"].(string)
	return d
}

func newResponse(status int, raw []byte) *Response {
	resp := &Response{Status: status, Raw: raw}
	value, err := decodeBody(raw)
	if err != nil {
		resp.Value = map[string]any{}
		resp.DecodeErr = err
		return resp
	}
	resp.Value = value
	return resp
}

// decodeBody parses exactly one JSON value, keeping numbers as json.Number so
// a successful body round-trips unchanged.
func decodeBody(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode body: trailing data after JSON value")
	}
	return v, nil
}

// looseString decodes any JSON scalar into its text: strings as-is, numbers
// and booleans as their literal, null as "". Objects and arrays keep their
// compact JSON text. It never rejects a well-formed value.
type looseString string

func (ls *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*ls = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("invalid string %s: %w", b, err)
		}
		*ls = looseString(s)
	case b[0] == '{' || b[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, b); err != nil {
			return fmt.Errorf("invalid value %s: %w", b, err)
		}
		*ls = looseString(buf.String())
	default:
		*ls = looseString(b)
	}
	return nil
}

func (ls looseString) String() string { return string(ls) }
