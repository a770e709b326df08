package laptime

import (
	"bytes"
	"encoding/json"
	"strconv"
)

type Kind uint8

const (
	KindAbsent Kind = iota
	KindNumber
	KindString
)

// Value is a lap time exactly as it was recorded in a session document. Timing exports are
// inconsistent: some write a number of seconds, some a "M:SS.mmm" string, and some leave
// the field empty or out altogether.
type Value struct {
	Kind Kind
	Num  float64
	Text string
}

// Absent is the zero Value.
var Absent = Value{}

func Number(seconds float64) Value {
	return Value{Kind: KindNumber, Num: seconds}
}

func String(s string) Value {
	return Value{Kind: KindString, Text: s}
}

func (v Value) IsAbsent() bool {
	return v.Kind == KindAbsent
}

// UnmarshalJSON never fails. Anything that is not a number or a string (null, booleans,
// arrays, objects, out of range numbers) decodes to Absent so that a single broken lap
// can't stop the rest of the document from decoding.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	*v = Absent

	if len(data) == 0 {
		return nil
	}

	switch c := data[0]; {
	case c == '"':
		var s string

		if err := json.Unmarshal(data, &s); err == nil {
			*v = String(s)
		}
	case c == '-' || (c >= '0' && c <= '9'):
		f, err := strconv.ParseFloat(string(data), 64)

		if err == nil {
			*v = Number(f)
		}
	}

	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindString:
		return json.Marshal(v.Text)
	default:
		return []byte("null"), nil
	}
}
