package vm

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Kind byte

const (
	KindNull Kind = iota
	KindStr
	KindDouble
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindStr:
		return "Str"
	case KindDouble:
		return "Double"
	case KindInt:
		return "Int"
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

// Value is a tagged runtime datum. The zero Value is Null, which is also
// what an uninitialized slot holds. Values are comparable with ==, which
// is structural equality per kind.
type Value struct {
	kind Kind
	s    string
	f    float64
	i    int64
}

func Str(s string) Value {
	return Value{kind: KindStr, s: s}
}

func Double(f float64) Value {
	return Value{kind: KindDouble, f: f}
}

func Int(i int64) Value {
	return Value{kind: KindInt, i: i}
}

func Null() Value {
	return Value{}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) AsStr() (string, bool) {
	return v.s, v.kind == KindStr
}

func (v Value) AsDouble() (float64, bool) {
	return v.f, v.kind == KindDouble
}

func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

func (v Value) Equal(o Value) bool {
	return v == o
}

// String renders text literally, numbers in their default form and Null
// as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindStr:
		return v.s
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	}
	return ""
}

// Repr is the disassembly form of v. Unlike String it keeps kinds apart:
// text is quoted, doubles always carry a decimal point or exponent and
// Null is spelled out.
func (v Value) Repr() string {
	switch v.kind {
	case KindStr:
		return strconv.Quote(v.s)
	case KindDouble:
		out := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(out, ".eEnN") {
			out += ".0"
		}
		return out
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	}
	return "null"
}

func (v Value) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("kind", v.kind.String())
	switch v.kind {
	case KindStr:
		enc.AddString("value", v.s)
	case KindDouble:
		enc.AddFloat64("value", v.f)
	case KindInt:
		enc.AddInt64("value", v.i)
	}
	return nil
}

func (v Value) isNumeric() bool {
	return v.kind == KindInt || v.kind == KindDouble
}

func (v Value) float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// operands is a numeric pair after promotion. When ints is set both sides
// were Int and li/ri hold them; otherwise lf/rf hold the promoted doubles.
type operands struct {
	ints   bool
	li, ri int64
	lf, rf float64
}

func promote(op string, a, b Value) (operands, error) {
	if !a.isNumeric() || !b.isNumeric() {
		return operands{}, fmt.Errorf("%w: %s %s %s", ErrArithmeticType, a.kind, op, b.kind)
	}
	if a.kind == KindInt && b.kind == KindInt {
		return operands{ints: true, li: a.i, ri: b.i}, nil
	}
	return operands{lf: a.float(), rf: b.float()}, nil
}

func (v Value) Add(o Value) (Value, error) {
	p, err := promote("+", v, o)
	if err != nil {
		return Null(), err
	}
	if p.ints {
		return Int(p.li + p.ri), nil
	}
	return Double(p.lf + p.rf), nil
}

func (v Value) Sub(o Value) (Value, error) {
	p, err := promote("-", v, o)
	if err != nil {
		return Null(), err
	}
	if p.ints {
		return Int(p.li - p.ri), nil
	}
	return Double(p.lf - p.rf), nil
}

func (v Value) Mul(o Value) (Value, error) {
	p, err := promote("*", v, o)
	if err != nil {
		return Null(), err
	}
	if p.ints {
		return Int(p.li * p.ri), nil
	}
	return Double(p.lf * p.rf), nil
}

// Div checks o against the zero of its own kind before dividing, for
// doubles as well as ints, so 1.0/0.0 is a fault rather than +Inf.
func (v Value) Div(o Value) (Value, error) {
	p, err := promote("/", v, o)
	if err != nil {
		return Null(), err
	}
	if (o.kind == KindInt && o.i == 0) || (o.kind == KindDouble && o.f == 0) {
		return Null(), fmt.Errorf("%w: %s / %s", ErrDivisionByZero, v.Repr(), o.Repr())
	}
	if p.ints {
		return Int(p.li / p.ri), nil
	}
	return Double(p.lf / p.rf), nil
}

func (v Value) GreaterThan(o Value) (bool, error) {
	p, err := promote(">", v, o)
	if err != nil {
		return false, err
	}
	if p.ints {
		return p.li > p.ri, nil
	}
	return p.lf > p.rf, nil
}

func (v Value) GreaterEq(o Value) (bool, error) {
	p, err := promote(">=", v, o)
	if err != nil {
		return false, err
	}
	if p.ints {
		return p.li >= p.ri, nil
	}
	return p.lf >= p.rf, nil
}

func (v Value) LessThan(o Value) (bool, error) {
	p, err := promote("<", v, o)
	if err != nil {
		return false, err
	}
	if p.ints {
		return p.li < p.ri, nil
	}
	return p.lf < p.rf, nil
}

func (v Value) LessEq(o Value) (bool, error) {
	p, err := promote("<=", v, o)
	if err != nil {
		return false, err
	}
	if p.ints {
		return p.li <= p.ri, nil
	}
	return p.lf <= p.rf, nil
}
