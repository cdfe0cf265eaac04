package xslt

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Operator is a comparison operator for values and nodes.
type Operator int

const (
	Equal Operator = iota
	NotEqual
	LessThan
	LessThanEqual
	GreaterThan
	GreaterThanEqual
	// Is tests node identity. Defined only on nodes.
	Is
	// Before and After compare document order. Defined only on nodes.
	Before
	After
)

// String returns the XPath spelling of the operator.
func (op Operator) String() string {
	switch op {
	case Equal:
		return "="
	case NotEqual:
		return "!="
	case LessThan:
		return "<"
	case LessThanEqual:
		return "<="
	case GreaterThan:
		return ">"
	case GreaterThanEqual:
		return ">="
	case Is:
		return "is"
	case Before:
		return "<<"
	case After:
		return ">>"
	default:
		return "?"
	}
}

// ValueKind identifies the dynamic type of a Value. The set covers the
// XSD primitive types; several kinds are markers only and carry no payload.
type ValueKind int

const (
	AnyType ValueKind = iota
	Untyped
	AnySimpleType
	AnyAtomicType
	UntypedAtomic
	KindString
	KindNormalizedString
	KindBoolean
	KindDecimal
	KindFloat
	KindDouble
	KindInteger
	KindLong
	KindInt
	KindShort
	KindByte
	KindNonPositiveInteger
	KindNegativeInteger
	KindNonNegativeInteger
	KindPositiveInteger
	KindUnsignedLong
	KindUnsignedInt
	KindUnsignedShort
	KindUnsignedByte
	KindDate
	KindTime
	KindDateTime
	KindDateTimeStamp
	KindDuration
	// Marker kinds used only as type tags.
	KindToken
	KindLanguage
	KindNMTOKEN
	KindName
	KindNCName
	KindID
	KindIDREF
	KindENTITY
)

// String returns the name of the kind.
func (k ValueKind) String() string {
	switch k {
	case AnyType:
		return "AnyType"
	case Untyped:
		return "Untyped"
	case AnySimpleType:
		return "AnySimpleType"
	case AnyAtomicType:
		return "AnyAtomicType"
	case UntypedAtomic:
		return "UntypedAtomic"
	case KindString:
		return "String"
	case KindNormalizedString:
		return "NormalizedString"
	case KindBoolean:
		return "Boolean"
	case KindDecimal:
		return "Decimal"
	case KindFloat:
		return "Float"
	case KindDouble:
		return "Double"
	case KindInteger:
		return "Integer"
	case KindLong:
		return "Long"
	case KindInt:
		return "Int"
	case KindShort:
		return "Short"
	case KindByte:
		return "Byte"
	case KindNonPositiveInteger:
		return "NonPositiveInteger"
	case KindNegativeInteger:
		return "NegativeInteger"
	case KindNonNegativeInteger:
		return "NonNegativeInteger"
	case KindPositiveInteger:
		return "PositiveInteger"
	case KindUnsignedLong:
		return "UnsignedLong"
	case KindUnsignedInt:
		return "UnsignedInt"
	case KindUnsignedShort:
		return "UnsignedShort"
	case KindUnsignedByte:
		return "UnsignedByte"
	case KindDate:
		return "Date"
	case KindTime:
		return "Time"
	case KindDateTime:
		return "DateTime"
	case KindDateTimeStamp:
		return "DateTimeStamp"
	case KindDuration:
		return "Duration"
	case KindToken:
		return "Token"
	case KindLanguage:
		return "Language"
	case KindNMTOKEN:
		return "NMTOKEN"
	case KindName:
		return "Name"
	case KindNCName:
		return "NCName"
	case KindID:
		return "ID"
	case KindIDREF:
		return "IDREF"
	case KindENTITY:
		return "ENTITY"
	default:
		return "Unknown"
	}
}

// Value is an atomic value: a typed scalar that appears as an item in a
// sequence. Values are immutable.
type Value struct {
	kind ValueKind
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
	d    time.Duration
}

// NewString returns a string value.
func NewString(s string) Value { return Value{kind: KindString, s: s} }

// NewBoolean returns a boolean value.
func NewBoolean(b bool) Value { return Value{kind: KindBoolean, b: b} }

// NewInteger returns an integer value.
func NewInteger(i int64) Value { return Value{kind: KindInteger, i: i} }

// NewDouble returns a double value.
func NewDouble(f float64) Value { return Value{kind: KindDouble, f: f} }

// NewDecimal returns a decimal value. Decimals are carried as float64;
// the engine does not implement arbitrary precision arithmetic.
func NewDecimal(f float64) Value { return Value{kind: KindDecimal, f: f} }

// NewFloat returns a single-precision float value.
func NewFloat(f float32) Value { return Value{kind: KindFloat, f: float64(f)} }

// NewDate returns a date value. The time-of-day part is ignored.
func NewDate(t time.Time) Value { return Value{kind: KindDate, t: t} }

// NewTime returns a time-of-day value. The date part is ignored.
func NewTime(t time.Time) Value { return Value{kind: KindTime, t: t} }

// NewDateTime returns a dateTime value.
func NewDateTime(t time.Time) Value { return Value{kind: KindDateTime, t: t} }

// NewDuration returns a duration value.
func NewDuration(d time.Duration) Value { return Value{kind: KindDuration, d: d} }

// NewMarker returns a payload-free value of the given marker kind.
func NewMarker(k ValueKind) Value { return Value{kind: k} }

// ValueOf converts a native Go scalar to a Value. The conversion is total:
// unrecognised types are carried as their string rendering.
func ValueOf(v any) Value {
	switch u := v.(type) {
	case Value:
		return u
	case string:
		return NewString(u)
	case bool:
		return NewBoolean(u)
	case int:
		return NewInteger(int64(u))
	case int8:
		return NewInteger(int64(u))
	case int16:
		return NewInteger(int64(u))
	case int32:
		return NewInteger(int64(u))
	case int64:
		return NewInteger(u)
	case uint:
		return NewInteger(int64(u))
	case uint8:
		return NewInteger(int64(u))
	case uint16:
		return NewInteger(int64(u))
	case uint32:
		return NewInteger(int64(u))
	case uint64:
		return NewInteger(int64(u))
	case float32:
		return NewDouble(float64(u))
	case float64:
		return NewDouble(u)
	case time.Time:
		return NewDateTime(u)
	case time.Duration:
		return NewDuration(u)
	default:
		return NewString(cast.ToString(v))
	}
}

// Kind returns the dynamic type of the value.
func (v Value) Kind() ValueKind { return v.kind }

// String gives the string form of the value. Marker kinds render as "".
func (v Value) String() string {
	switch v.kind {
	case KindString, KindNormalizedString, UntypedAtomic:
		return v.s
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindInteger, KindLong, KindInt, KindShort, KindByte,
		KindNonPositiveInteger, KindNegativeInteger,
		KindNonNegativeInteger, KindPositiveInteger,
		KindUnsignedLong, KindUnsignedInt, KindUnsignedShort, KindUnsignedByte:
		return strconv.FormatInt(v.i, 10)
	case KindDouble, KindDecimal, KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindDate:
		return v.t.Format("2006-01-02")
	case KindTime:
		return v.t.Format("15:04:05.000000000")
	case KindDateTime, KindDateTimeStamp:
		return v.t.Format("2006-01-02T15:04:05-0700")
	case KindDuration:
		return v.d.String()
	default:
		return ""
	}
}

// Bool gives the effective boolean value.
func (v Value) Bool() bool {
	switch v.kind {
	case KindBoolean:
		return v.b
	case KindString, KindNormalizedString, UntypedAtomic:
		return len(v.s) != 0
	case KindInteger, KindLong, KindInt, KindShort, KindByte,
		KindNonPositiveInteger, KindNegativeInteger,
		KindNonNegativeInteger, KindPositiveInteger,
		KindUnsignedLong, KindUnsignedInt, KindUnsignedShort, KindUnsignedByte:
		return v.i != 0
	case KindDouble, KindDecimal, KindFloat:
		return v.f != 0 && !math.IsNaN(v.f)
	default:
		return false
	}
}

// Int converts the value to an integer. Non-numeric kinds fall back to
// parsing the string form; an unparseable string is an error.
func (v Value) Int() (int64, error) {
	switch v.kind {
	case KindInteger, KindLong, KindInt, KindShort, KindByte,
		KindNonPositiveInteger, KindNegativeInteger,
		KindNonNegativeInteger, KindPositiveInteger,
		KindUnsignedLong, KindUnsignedInt, KindUnsignedShort, KindUnsignedByte:
		return v.i, nil
	default:
		i, err := cast.ToInt64E(strings.TrimSpace(v.String()))
		if err != nil {
			return 0, errTypef("type conversion error: %v", err)
		}
		return i, nil
	}
}

// Double converts the value to a double. If the value cannot be
// converted the result is NaN.
func (v Value) Double() float64 {
	switch v.kind {
	case KindDouble, KindDecimal, KindFloat:
		return v.f
	case KindInteger, KindLong, KindInt, KindShort, KindByte,
		KindNonPositiveInteger, KindNegativeInteger,
		KindNonNegativeInteger, KindPositiveInteger,
		KindUnsignedLong, KindUnsignedInt, KindUnsignedShort, KindUnsignedByte:
		return float64(v.i)
	case KindString, KindNormalizedString, UntypedAtomic:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// Compare compares two values under an operator. The right operand is
// coerced to the left operand's dynamic type before comparison; string
// ordering is codepoint-lexicographic. Is, Before and After are defined
// only on nodes and yield a type error here.
func (v Value) Compare(other Value, op Operator) (bool, error) {
	switch op {
	case Is, Before, After:
		return false, errType("node comparison applied to atomic values")
	}
	switch v.kind {
	case KindBoolean:
		return compareOrdered(boolRank(v.b), boolRank(other.Bool()), op)
	case KindInteger, KindLong, KindInt, KindShort, KindByte,
		KindNonPositiveInteger, KindNegativeInteger,
		KindNonNegativeInteger, KindPositiveInteger,
		KindUnsignedLong, KindUnsignedInt, KindUnsignedShort, KindUnsignedByte:
		c, err := other.Int()
		if err != nil {
			return false, err
		}
		return compareOrdered(v.i, c, op)
	case KindDouble, KindDecimal, KindFloat:
		return compareOrdered(v.f, other.Double(), op)
	case KindString, KindNormalizedString, UntypedAtomic:
		return compareOrdered(v.s, other.String(), op)
	default:
		return false, errNotImplementedf("comparing type %q is not implemented", v.kind)
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func compareOrdered[T int | int64 | float64 | string](l, r T, op Operator) (bool, error) {
	switch op {
	case Equal:
		return l == r, nil
	case NotEqual:
		return l != r, nil
	case LessThan:
		return l < r, nil
	case LessThanEqual:
		return l <= r, nil
	case GreaterThan:
		return l > r, nil
	case GreaterThanEqual:
		return l >= r, nil
	default:
		return false, errTypef("operator %s is not an ordering operator", op)
	}
}
