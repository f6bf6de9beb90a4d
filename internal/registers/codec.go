package registers

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/exp/constraints"
)

// ErrInvalidValue signals that a value cannot be encoded for a register,
// e.g. because it would not round-trip through the register's scale.
type ErrInvalidValue struct {
	Name   string
	Reason string
}

func (e *ErrInvalidValue) Error() string {
	return fmt.Sprintf("registers: %s: invalid value: %s", e.Name, e.Reason)
}

// Result pairs a decoded value with its exposed unit (nil when the
// register's unit is dynamic).
type Result struct {
	Value any
	Unit  *string
}

func constUnit(s string) *string { return &s }

// packUint assembles consecutive big-endian words into an unsigned integer
// of type T, high word first. T must be wide enough for len(words)*16 bits.
func packUint[T constraints.Unsigned](words []uint16) T {
	var v T
	for _, w := range words {
		v = v<<16 | T(w)
	}
	return v
}

// unpackUint splits an unsigned integer into n big-endian 16-bit words,
// high word first.
func unpackUint[T constraints.Unsigned](v T, n int) []uint16 {
	out := make([]uint16, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = uint16(v)
		v >>= 16
	}
	return out
}

// Decode turns a word stream (already sliced to exactly d.Length words) into
// a Result, applying scale and unit rules. tz is the session's learned
// time-zone offset in minutes, or nil if not yet known.
func Decode(d Descriptor, words []uint16, tz *int) (Result, error) {
	if len(words) != int(d.Length) {
		return Result{}, fmt.Errorf("registers: %s: expected %d words, got %d", d.Name, d.Length, len(words))
	}

	var raw float64

	switch d.Kind {
	case KindU16:
		raw = float64(words[0])
	case KindI16:
		raw = float64(int16(words[0]))
	case KindU32:
		raw = float64(packUint[uint32](words))
	case KindI32:
		raw = float64(int32(packUint[uint32](words)))
	case KindU64:
		raw = float64(packUint[uint64](words))
	case KindI64:
		raw = float64(int64(packUint[uint64](words)))
	case KindF32:
		raw = float64(math.Float32frombits(packUint[uint32](words)))
	case KindString:
		return Result{Value: decodeString(words, d.StringLen), Unit: exposedUnit(d, 0)}, nil
	case KindTimestamp:
		v, terr := decodeTimestamp(words, tz)
		if terr != nil {
			return Result{}, terr
		}
		return Result{Value: v, Unit: exposedUnit(d, 0)}, nil
	case KindBitfield:
		bits := packUint[uint64](words)
		set := make([]string, 0, len(d.BitfieldMap))
		for bit, name := range d.BitfieldMap {
			if bits&(1<<uint(bit)) != 0 {
				set = append(set, name)
			}
		}
		return Result{Value: set, Unit: exposedUnit(d, 0)}, nil
	case KindEnum:
		iv := int64(packUint[uint64](words))
		if name, ok := d.EnumMap[iv]; ok {
			return Result{Value: name, Unit: exposedUnit(d, iv)}, nil
		}
		return Result{Value: Unknown{Value: iv}, Unit: exposedUnit(d, iv)}, nil
	case KindCustom:
		v, cerr := d.CustomDecode(words, tz)
		if cerr != nil {
			return Result{}, cerr
		}
		return Result{Value: v, Unit: exposedUnit(d, 0)}, nil
	default:
		return Result{}, fmt.Errorf("registers: %s: unsupported kind %s", d.Name, d.Kind)
	}

	scale := d.Scale
	if scale == 0 {
		scale = 1
	}
	value := raw / scale

	return Result{Value: value, Unit: exposedUnit(d, int64(value))}, nil
}

// Unknown wraps an Enum-kind integer that has no known name.
type Unknown struct{ Value int64 }

func (u Unknown) String() string { return fmt.Sprintf("Unknown(%d)", u.Value) }

func exposedUnit(d Descriptor, value int64) *string {
	if d.Unit.IsDynamic() {
		// Never resolved from value, even for ByValue units: the caller
		// interprets the raw numeric value against the field's semantics.
		return nil
	}
	if d.Unit.Const == "" {
		return nil
	}
	return constUnit(d.Unit.Const)
}

func decodeString(words []uint16, n int) string {
	b := make([]byte, 0, len(words)*2)
	for _, w := range words {
		b = append(b, byte(w>>8), byte(w))
	}
	if n > 0 && n < len(b) {
		b = b[:n]
	}
	b = []byte(strings.TrimRight(string(b), "\x00 \t\r\n"))
	if !utf8.Valid(b) {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(b)
}

// TimestampSentinel is the "no value" marker used by Huawei's Timestamp
// registers.
const TimestampSentinel = 0xFFFFFFFF

// Timestamp is the decoded value of a KindTimestamp register: epoch seconds
// adjusted by the inverter's reported time-zone offset, when known.
type Timestamp struct {
	UTC      time.Time
	TZOffset *int // minutes, nil if not yet learned
}

// Local returns the timestamp shifted by the learned offset, or UTC if the
// offset is not yet known.
func (t Timestamp) Local() time.Time {
	if t.TZOffset == nil {
		return t.UTC
	}
	return t.UTC.Add(time.Duration(*t.TZOffset) * time.Minute)
}

func decodeTimestamp(words []uint16, tz *int) (any, error) {
	secs := packUint[uint32](words)
	if secs == TimestampSentinel {
		return nil, nil
	}
	return Timestamp{UTC: time.Unix(int64(secs), 0).UTC(), TZOffset: tz}, nil
}

// Encode is the inverse of Decode for writeable kinds. value's dynamic type
// must match what Decode would have produced (float64 for scaled numerics,
// string for String, []string for Bitfield, the chosen enum name or
// Unknown for Enum, Timestamp for Timestamp).
func Encode(d Descriptor, value any) ([]uint16, error) {
	switch d.Kind {
	case KindU16, KindI16, KindU32, KindI32, KindU64, KindI64, KindF32:
		return encodeNumeric(d, value)
	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, &ErrInvalidValue{d.Name, "expected string"}
		}
		return encodeString(d, s), nil
	case KindTimestamp:
		ts, ok := value.(Timestamp)
		if !ok {
			return nil, &ErrInvalidValue{d.Name, "expected Timestamp"}
		}
		return unpackUint(uint32(ts.UTC.Unix()), int(d.Length)), nil
	case KindBitfield:
		names, ok := value.([]string)
		if !ok {
			return nil, &ErrInvalidValue{d.Name, "expected []string"}
		}
		return encodeBitfield(d, names)
	case KindEnum:
		return encodeEnum(d, value)
	case KindCustom:
		if d.CustomEncode == nil {
			return nil, &ErrInvalidValue{d.Name, "register is not writeable"}
		}
		return d.CustomEncode(value)
	default:
		return nil, fmt.Errorf("registers: %s: unsupported kind %s", d.Name, d.Kind)
	}
}

func encodeNumeric(d Descriptor, value any) ([]uint16, error) {
	f, ok := toFloat64(value)
	if !ok {
		return nil, &ErrInvalidValue{d.Name, "expected numeric value"}
	}
	scale := d.Scale
	if scale == 0 {
		scale = 1
	}
	scaled := f * scale

	switch d.Kind {
	case KindU16:
		if scaled < 0 || scaled > math.MaxUint16 || scaled != math.Trunc(scaled) {
			return nil, &ErrInvalidValue{d.Name, "out of range for U16"}
		}
		return []uint16{uint16(scaled)}, nil
	case KindI16:
		if scaled < math.MinInt16 || scaled > math.MaxInt16 || scaled != math.Trunc(scaled) {
			return nil, &ErrInvalidValue{d.Name, "out of range for I16"}
		}
		return []uint16{uint16(int16(scaled))}, nil
	case KindU32:
		if scaled < 0 || scaled > math.MaxUint32 || scaled != math.Trunc(scaled) {
			return nil, &ErrInvalidValue{d.Name, "out of range for U32"}
		}
		return unpackUint(uint32(scaled), int(d.Length)), nil
	case KindI32:
		if scaled < math.MinInt32 || scaled > math.MaxInt32 || scaled != math.Trunc(scaled) {
			return nil, &ErrInvalidValue{d.Name, "out of range for I32"}
		}
		return unpackUint(uint32(int32(scaled)), int(d.Length)), nil
	case KindU64:
		if scaled < 0 || scaled != math.Trunc(scaled) {
			return nil, &ErrInvalidValue{d.Name, "out of range for U64"}
		}
		return unpackUint(uint64(scaled), int(d.Length)), nil
	case KindI64:
		if scaled != math.Trunc(scaled) {
			return nil, &ErrInvalidValue{d.Name, "out of range for I64"}
		}
		return unpackUint(uint64(int64(scaled)), int(d.Length)), nil
	case KindF32:
		return unpackUint(math.Float32bits(float32(scaled)), int(d.Length)), nil
	}
	return nil, fmt.Errorf("registers: %s: unreachable kind %s", d.Name, d.Kind)
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func encodeString(d Descriptor, s string) []uint16 {
	b := []byte(s)
	width := int(d.Length) * 2
	padded := make([]byte, width)
	copy(padded, b)
	words := make([]uint16, d.Length)
	for i := range words {
		words[i] = uint16(padded[2*i])<<8 | uint16(padded[2*i+1])
	}
	return words
}

func encodeBitfield(d Descriptor, names []string) ([]uint16, error) {
	nameToBit := make(map[string]uint, len(d.BitfieldMap))
	for bit, name := range d.BitfieldMap {
		nameToBit[name] = bit
	}
	var bits uint64
	for _, name := range names {
		bit, ok := nameToBit[name]
		if !ok {
			return nil, &ErrInvalidValue{d.Name, fmt.Sprintf("unknown bit name %q", name)}
		}
		bits |= 1 << bit
	}
	return unpackUint(bits, int(d.Length)), nil
}

func encodeEnum(d Descriptor, value any) ([]uint16, error) {
	var iv int64
	switch v := value.(type) {
	case string:
		found := false
		for k, name := range d.EnumMap {
			if name == v {
				iv, found = k, true
				break
			}
		}
		if !found {
			return nil, &ErrInvalidValue{d.Name, fmt.Sprintf("unknown enum name %q", v)}
		}
	case Unknown:
		iv = v.Value
	default:
		return nil, &ErrInvalidValue{d.Name, "expected enum name or Unknown"}
	}
	return unpackUint(uint64(iv), int(d.Length)), nil
}
