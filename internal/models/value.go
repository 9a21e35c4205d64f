package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Float is an optional numeric field. The zero value is absent.
//
// Decoding never fails: null, missing, non-numeric and non-finite inputs all
// decode as absent, and numeric strings ("0.61") decode as numbers.
type Float struct {
	value float64
	valid bool
}

// SomeFloat returns a present Float. Non-finite values are treated as absent.
func SomeFloat(v float64) Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Float{}
	}
	return Float{value: v, valid: true}
}

// Get returns the value and whether it is present.
func (f Float) Get() (float64, bool) {
	return f.value, f.valid
}

// Valid reports whether a value is present.
func (f Float) Valid() bool {
	return f.valid
}

// Or returns the value, or def when absent.
func (f Float) Or(def float64) float64 {
	if !f.valid {
		return def
	}
	return f.value
}

// Ptr returns nil when absent.
func (f Float) Ptr() *float64 {
	if !f.valid {
		return nil
	}
	v := f.value
	return &v
}

func (f *Float) UnmarshalJSON(b []byte) error {
	*f = Float{}
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	switch v := raw.(type) {
	case float64:
		*f = SomeFloat(v)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			*f = SomeFloat(parsed)
		}
	}
	return nil
}

func (f Float) MarshalJSON() ([]byte, error) {
	if !f.valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// Int is an optional integer field with the same lenient decoding as Float.
type Int struct {
	value int64
	valid bool
}

// SomeInt returns a present Int.
func SomeInt(v int64) Int {
	return Int{value: v, valid: true}
}

// Get returns the value and whether it is present.
func (i Int) Get() (int64, bool) {
	return i.value, i.valid
}

// Valid reports whether a value is present.
func (i Int) Valid() bool {
	return i.valid
}

func (i *Int) UnmarshalJSON(b []byte) error {
	*i = Int{}
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	var f Float
	switch v := raw.(type) {
	case float64:
		f = SomeFloat(v)
	case string:
		if parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			*i = SomeInt(parsed)
			return nil
		}
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			f = SomeFloat(parsed)
		}
	}
	if v, ok := f.Get(); ok && v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		*i = SomeInt(int64(v))
	}
	return nil
}

func (i Int) MarshalJSON() ([]byte, error) {
	if !i.valid {
		return []byte("null"), nil
	}
	return json.Marshal(i.value)
}
