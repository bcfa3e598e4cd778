package device

import (
	"net/url"
	"strings"
)

// EncodeValue returns "0" when both channels are off, otherwise the
// concatenation of the active channel numbers.
func EncodeValue(light1, light2 bool) string {
	if !light1 && !light2 {
		return "0"
	}
	var b strings.Builder
	if light1 {
		b.WriteByte('1')
	}
	if light2 {
		b.WriteByte('2')
	}
	return b.String()
}

// DecodeValue parses a compact value. "4" selects both channels; anything
// without a channel digit turns both off.
func DecodeValue(v string) (light1, light2 bool) {
	both := strings.Contains(v, "4")
	return both || strings.Contains(v, "1"), both || strings.Contains(v, "2")
}

// Delta accumulates key=value pairs for an outward push, in insertion order.
type Delta struct {
	parts []string
}

// Add appends a pair. The value is query-escaped.
func (d *Delta) Add(key, value string) {
	d.parts = append(d.parts, key+"="+url.QueryEscape(value))
}

// Empty reports whether nothing has been added.
func (d *Delta) Empty() bool {
	return len(d.parts) == 0
}

func (d *Delta) String() string {
	return strings.Join(d.parts, "&")
}
