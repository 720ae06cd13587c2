// Package model holds the scalar value type and per-decoder measurement
// records shared by every sensor decoder and consumer.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Value is a closed sum over the scalar kinds a decoder can emit. It
// marshals as the bare underlying JSON value, matching the untagged enum
// the original collector used on the wire.
type Value struct {
	kind kind
	s    string
	i    int64
	f    float64
	b    bool
}

type kind int

const (
	kindString kind = iota
	kindInteger
	kindFloat
	kindBoolean
)

func String(v string) Value { return Value{kind: kindString, s: v} }
func Integer(v int64) Value { return Value{kind: kindInteger, i: v} }
func Float(v float64) Value { return Value{kind: kindFloat, f: v} }
func Boolean(v bool) Value  { return Value{kind: kindBoolean, b: v} }

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindString:
		return json.Marshal(v.s)
	case kindInteger:
		return json.Marshal(v.i)
	case kindFloat:
		return json.Marshal(v.f)
	case kindBoolean:
		return json.Marshal(v.b)
	default:
		return nil, fmt.Errorf("model: unknown value kind %d", v.kind)
	}
}

// String renders the bare value: strings unquoted, integers without a
// suffix. InfluxDB's per-kind field syntax is LineProtocolField.
func (v Value) String() string {
	switch v.kind {
	case kindString:
		return v.s
	case kindInteger:
		return strconv.FormatInt(v.i, 10)
	case kindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case kindBoolean:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Float64 coerces the value to a float64, for consumers (like Prometheus
// gauges) that need a numeric reading regardless of the original scalar
// kind. Non-numeric kinds yield 0.
func (v Value) Float64() float64 {
	switch v.kind {
	case kindInteger:
		return float64(v.i)
	case kindFloat:
		return v.f
	case kindBoolean:
		if v.b {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// LineProtocolField renders the value as an InfluxDB line-protocol field,
// including the type-specific suffix/quoting the wire format requires.
func (v Value) LineProtocolField() string {
	switch v.kind {
	case kindString:
		return strconv.Quote(v.s)
	case kindInteger:
		return strconv.FormatInt(v.i, 10) + "i"
	case kindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case kindBoolean:
		return strconv.FormatBool(v.b)
	default:
		return "0"
	}
}
