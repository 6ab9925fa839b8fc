// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"strconv"
	"time"
)

// Kind names the property type of a Value. The names match the Notion
// property types so the notion backend can use them verbatim.
type Kind string

const (
	KindTitle  Kind = "title"
	KindText   Kind = "rich_text"
	KindNumber Kind = "number"
	KindSelect Kind = "select"
	KindDate   Kind = "date"
)

// DateLayout is the calendar-day format used for date properties.
const DateLayout = "2006-01-02"

// Value is a single typed property value.
type Value struct {
	Kind Kind    `json:"type"`
	Str  string  `json:"str,omitempty"`
	Num  float64 `json:"num,omitempty"`
}

func Title(s string) Value  { return Value{Kind: KindTitle, Str: s} }
func Text(s string) Value   { return Value{Kind: KindText, Str: s} }
func Select(s string) Value { return Value{Kind: KindSelect, Str: s} }

// Number stores n as a float64. Integers beyond ±2^53 lose precision.
func Number[T int | int64 | float64](n T) Value {
	return Value{Kind: KindNumber, Num: float64(n)}
}

// Date stores the UTC calendar day of t.
func Date(t time.Time) Value {
	return Value{Kind: KindDate, Str: t.UTC().Format(DateLayout)}
}

// Equal reports whether v and o have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	if v.Kind == KindNumber {
		return v.Num == o.Num
	}
	return v.Str == o.Str
}

func (v Value) String() string {
	if v.Kind == KindNumber {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Str
}

// Properties is the property set of a record, keyed by property name.
type Properties map[string]Value

// Text returns the string content of a property, or "" if absent.
func (p Properties) Text(name string) string {
	return p[name].Str
}

// Int returns a number property truncated to an int. ok is false when the
// property is absent or not a number.
func (p Properties) Int(name string) (n int, ok bool) {
	v, found := p[name]
	if !found || v.Kind != KindNumber {
		return 0, false
	}
	return int(v.Num), true
}

// Clone returns a shallow copy, safe to mutate.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
