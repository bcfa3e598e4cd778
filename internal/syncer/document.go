package syncer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrParse is returned for inbound documents that are not a JSON object.
var ErrParse = errors.New("parsing failed")

// Document is a decoded inbound key/value document. Values keep their raw
// JSON form so a field may arrive as a number, a string or a boolean.
type Document map[string]json.RawMessage

// Decode parses raw. An empty payload yields a nil Document and no error.
func Decode(raw []byte) (Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var d Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: not an object", ErrParse)
	}
	return d, nil
}

// Has reports whether key is present.
func (d Document) Has(key string) bool {
	_, ok := d[key]
	return ok
}

// String returns the value of key as text. Strings are unquoted, any other
// JSON value is returned in its literal form.
func (d Document) String(key string) string {
	raw, ok := d[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// Int returns the value of key as an integer. Numeric strings are accepted;
// anything else reads as zero.
func (d Document) Int(key string) int {
	text := d.String(key)
	if n, err := strconv.Atoi(text); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return int(f)
	}
	return 0
}

// Int64 is Int for wide values such as epoch timestamps.
func (d Document) Int64(key string) int64 {
	text := d.String(key)
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return int64(f)
	}
	return 0
}

// Truthy reports whether key holds "1" or "true" anywhere in its text.
func (d Document) Truthy(key string) bool {
	text := d.String(key)
	return strings.Contains(text, "1") || strings.Contains(text, "true")
}
