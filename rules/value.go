package rules

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type valueKind int

const (
	numberValue valueKind = iota
	boolValue
	textValue
)

// Value is a rule limit: a number, a flag or free text such as "08:30".
// The zero Value is the number 0.
type Value struct {
	kind valueKind
	num  float64
	flag bool
	text string
}

func Num(f float64) Value { return Value{kind: numberValue, num: f} }
func Bool(b bool) Value { return Value{kind: boolValue, flag: b} }
func Text(s string) Value { return Value{kind: textValue, text: s} }

func (v Value) IsNumber() bool { return v.kind == numberValue }
func (v Value) IsBool() bool { return v.kind == boolValue }
func (v Value) IsText() bool { return v.kind == textValue }

// Float returns the numeric reading of v. Flags read as 1 or 0; text is
// parsed strictly and reads as 0 when it is not a number.
func (v Value) Float() float64 {
	switch v.kind {
	case boolValue:
		if v.flag {
			return 1
		}
		return 0
	case textValue:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return v.num
	}
}

// Enabled returns the boolean reading of v.
func (v Value) Enabled() bool {
	switch v.kind {
	case boolValue:
		return v.flag
	case textValue:
		return strings.EqualFold(strings.TrimSpace(v.text), "true")
	default:
		return v.num != 0
	}
}

// Clock returns v as a zero-padded "HH:MM" time of day. Numbers are read as
// whole hours. ok is false when v cannot be read as a time of day.
func (v Value) Clock() (string, bool) {
	switch v.kind {
	case numberValue:
		h := int(v.num)
		if float64(h) != v.num || h < 0 || h > 23 {
			return "", false
		}
		return fmt.Sprintf("%02d:00", h), true
	case textValue:
		parts := strings.Split(strings.TrimSpace(v.text), ":")
		if len(parts) < 2 || len(parts) > 3 {
			return "", false
		}
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
			return "", false
		}
		return fmt.Sprintf("%02d:%02d", h, m), true
	default:
		return "", false
	}
}

func (v Value) String() string {
	switch v.kind {
	case boolValue:
		return strconv.FormatBool(v.flag)
	case textValue:
		return v.text
	default:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
}

// Interface returns the plain Go value: float64, bool or string.
func (v Value) Interface() any {
	switch v.kind {
	case boolValue:
		return v.flag
	case textValue:
		return v.text
	default:
		return v.num
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*v = Coerce(raw)
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	return v.Interface(), nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*v = Coerce(raw)
	return nil
}

// Coerce converts a decoded template value into a Value. A {"valor": x}
// wrapper is unwrapped. Strings "true"/"false" (any case) become flags,
// all-digit strings integers, other numeric strings floats; anything else is
// kept as trimmed text.
func Coerce(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Num(0)
	case Value:
		return x
	case bool:
		return Bool(x)
	case float64:
		return Num(x)
	case float32:
		return Num(float64(x))
	case int:
		return Num(float64(x))
	case int64:
		return Num(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Text(x.String())
		}
		return Num(f)
	case map[string]any:
		if inner, ok := x["valor"]; ok {
			return Coerce(inner)
		}
		return Text(fmt.Sprint(x))
	case string:
		return coerceString(x)
	default:
		return Text(fmt.Sprint(x))
	}
}

func coerceString(s string) Value {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if isDigits(s) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Num(float64(n))
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Num(f)
	}
	return Text(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
