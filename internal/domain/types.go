// Package domain contains the core entities shared by the neurology scoring
// calculators and the decision pathway engines: input declarations, answer sets,
// calculation results, and the pathway input/output types.
package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ValueKind tags the variant held by an InputValue.
type ValueKind int

const (
	KindNone ValueKind = iota
	KindNumber
	KindBool
	KindTag
)

// String returns the JSON-ish name of the kind.
func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindTag:
		return "string"
	default:
		return "none"
	}
}

// InputValue is a tagged union of the three value shapes an answer or an option
// may take: a number, a boolean, or a string tag. The zero value holds nothing.
type InputValue struct {
	kind ValueKind
	num  float64
	flag bool
	tag  string
}

// Number returns a numeric InputValue.
func Number(n float64) InputValue { return InputValue{kind: KindNumber, num: n} }

// Bool returns a boolean InputValue.
func Bool(b bool) InputValue { return InputValue{kind: KindBool, flag: b} }

// Tag returns a string-tag InputValue.
func Tag(s string) InputValue { return InputValue{kind: KindTag, tag: s} }

// Kind reports which variant is held.
func (v InputValue) Kind() ValueKind { return v.kind }

// IsZero reports whether the value holds nothing.
func (v InputValue) IsZero() bool { return v.kind == KindNone }

// AsNumber returns the numeric variant.
func (v InputValue) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsBool returns the boolean variant.
func (v InputValue) AsBool() (bool, bool) { return v.flag, v.kind == KindBool }

// AsTag returns the string-tag variant.
func (v InputValue) AsTag() (string, bool) { return v.tag, v.kind == KindTag }

// Numeric coerces the value to a number the way the calculators' arithmetic
// does: booleans count as 1/0, numeric-looking tags parse, anything else is 0.
func (v InputValue) Numeric() float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		if v.flag {
			return 1
		}
		return 0
	case KindTag:
		if n, err := strconv.ParseFloat(v.tag, 64); err == nil {
			return n
		}
	}
	return 0
}

// Truthy coerces the value to a boolean: non-zero numbers and non-empty tags
// are true.
func (v InputValue) Truthy() bool {
	switch v.kind {
	case KindNumber:
		return v.num != 0
	case KindBool:
		return v.flag
	case KindTag:
		return v.tag != ""
	}
	return false
}

// Equal reports whether two values hold the same variant and payload.
func (v InputValue) Equal(other InputValue) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.flag == other.flag
	case KindTag:
		return v.tag == other.tag
	}
	return true
}

// String renders the payload for logs and cache keys.
func (v InputValue) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindTag:
		return v.tag
	}
	return ""
}

// MarshalJSON encodes the held variant as a bare JSON number, boolean, or string.
func (v InputValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.flag)
	case KindTag:
		return json.Marshal(v.tag)
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes a bare JSON number, boolean, or string.
func (v *InputValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = InputValue{}
		return nil
	}
	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Tag(s)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("input value must be a number, boolean or string: %w", err)
		}
		*v = Number(n)
	}
	return nil
}

// ValueFromAny converts a decoded JSON value into an InputValue.
func ValueFromAny(raw any) (InputValue, error) {
	switch x := raw.(type) {
	case float64:
		return Number(x), nil
	case int:
		return Number(float64(x)), nil
	case bool:
		return Bool(x), nil
	case string:
		return Tag(x), nil
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return InputValue{}, err
		}
		return Number(n), nil
	case nil:
		return InputValue{}, errors.New("value is null")
	}
	return InputValue{}, fmt.Errorf("unsupported value type %T", raw)
}

// InputType is the kind of control an input is answered with.
type InputType string

const (
	InputBoolean InputType = "boolean"
	InputSelect  InputType = "select"
)

// IsValid reports whether the input type is known.
func (t InputType) IsValid() bool {
	return t == InputBoolean || t == InputSelect
}

// InputOption is one selectable value of a select input.
type InputOption struct {
	Value InputValue `json:"value"`
	Label string     `json:"label"`
}

// InputSpec declares one answerable input of a calculator.
type InputSpec struct {
	ID      string        `json:"id"`
	Label   string        `json:"label"`
	Type    InputType     `json:"type"`
	Options []InputOption `json:"options,omitempty"`
}

// Accepts reports whether v is a legal answer for this input.
func (s InputSpec) Accepts(v InputValue) bool {
	switch s.Type {
	case InputBoolean:
		return v.Kind() == KindBool
	case InputSelect:
		for _, opt := range s.Options {
			if opt.Value.Equal(v) {
				return true
			}
		}
	}
	return false
}

// AnswerSet maps input IDs to supplied values. An unanswered input is absent.
type AnswerSet map[string]InputValue

// Number returns the answer as a number, or 0 when absent.
func (a AnswerSet) Number(id string) float64 {
	v, ok := a[id]
	if !ok {
		return 0
	}
	return v.Numeric()
}

// Flag returns the answer as a boolean, or false when absent.
func (a AnswerSet) Flag(id string) bool {
	v, ok := a[id]
	if !ok {
		return false
	}
	return v.Truthy()
}

// Has reports whether id has been answered.
func (a AnswerSet) Has(id string) bool {
	_, ok := a[id]
	return ok
}

// Clone returns an independent copy.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Fingerprint returns a stable hex digest of the answers. Map keys are
// marshalled in sorted order so equal sets always share a fingerprint.
func (a AnswerSet) Fingerprint() string {
	data, err := json.Marshal(a)
	if err != nil {
		// NaN and infinities have no JSON form
		data = a.canonicalText()
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// canonicalText renders the answers as sorted id=kind:value lines.
func (a AnswerSet) canonicalText() []byte {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b bytes.Buffer
	for _, id := range ids {
		v := a[id]
		fmt.Fprintf(&b, "%q=%s:%s\n", id, v.Kind(), v.String())
	}
	return b.Bytes()
}

// AnswerSetFromMap converts decoded JSON answers into an AnswerSet.
func AnswerSetFromMap(raw map[string]any) (AnswerSet, error) {
	out := make(AnswerSet, len(raw))
	for id, value := range raw {
		v, err := ValueFromAny(value)
		if err != nil {
			return nil, NewValidationError(id, err.Error(), value)
		}
		out[id] = v
	}
	return out, nil
}

// CalculationResult is the output of a calculator: a score (numeric, or a
// categorical tag) and its textual interpretation.
type CalculationResult struct {
	Score          InputValue `json:"score"`
	Interpretation string     `json:"interpretation"`
}

// CalculateFunc evaluates an AnswerSet. It must be total: missing answers are
// coerced, never rejected.
type CalculateFunc func(answers AnswerSet) CalculationResult

// CalculatorDefinition is an immutable scoring definition.
type CalculatorDefinition struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Inputs      []InputSpec   `json:"inputs"`
	Calculate   CalculateFunc `json:"-"`
}

// Input returns the declared input with the given ID.
func (d *CalculatorDefinition) Input(id string) (InputSpec, bool) {
	for _, in := range d.Inputs {
		if in.ID == id {
			return in, true
		}
	}
	return InputSpec{}, false
}
