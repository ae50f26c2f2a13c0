package source

import (
	"bytes"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// The provider's response schema is not fixed, so decoding never fails on a
// field of the wrong shape: it falls back to the zero value instead.

// text decodes a string, accepting numbers and booleans and ignoring
// objects and arrays.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*t = text(s)
		}
	case '{', '[', 'n':
		*t = ""
	default:
		*t = text(b)
	}
	return nil
}

func (t text) String() string { return string(t) }

// number decodes a JSON number or a numeric string such as "$12.99" or
// "1,204". Anything else, including NaN and infinities, leaves it unset.
type number struct {
	v     float64
	valid bool
}

func (n *number) UnmarshalJSON(b []byte) error {
	*n = number{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	var s string
	switch b[0] {
	case '"':
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	case '{', '[', 'n', 't', 'f':
		return nil
	default:
		s = string(b)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		*n = number{v: v, valid: true}
	}
	return nil
}

func (n number) floatPtr() *float64 {
	if !n.valid {
		return nil
	}
	v := n.v
	return &v
}

func (n number) intPtr() *int {
	if !n.valid {
		return nil
	}
	v := int(n.v)
	return &v
}

func (n number) int64Ptr() *int64 {
	if !n.valid {
		return nil
	}
	v := int64(n.v)
	return &v
}

func (n number) or(def float64) float64 {
	if !n.valid {
		return def
	}
	return n.v
}

// list decodes a JSON array, skipping elements that do not decode. A value
// that is not an array decodes as an empty list.
type list[T any] []T

func (l *list[T]) UnmarshalJSON(b []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		*l = nil
		return nil
	}
	out := make([]T, 0, len(raws))
	for _, r := range raws {
		var v T
		if err := json.Unmarshal(r, &v); err == nil {
			out = append(out, v)
		}
	}
	*l = out
	return nil
}

// present reports whether a raw field was sent with a non-null value.
func present(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) > 0 && !bytes.Equal(b, []byte("null"))
}

// position returns the provider's 1-based position, falling back to the
// element index.
func position(p number, index int) int {
	if v := p.intPtr(); v != nil && *v > 0 {
		return *v
	}
	return index + 1
}

// domainOf returns the host of link without a leading "www.".
func domainOf(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// opt decodes an optional object. A null, absent or mis-shaped value leaves
// it unset.
type opt[T any] struct {
	V   T
	Set bool
}

func (o *opt[T]) UnmarshalJSON(b []byte) error {
	*o = opt[T]{}
	if !present(b) {
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err == nil {
		*o = opt[T]{V: v, Set: true}
	}
	return nil
}
