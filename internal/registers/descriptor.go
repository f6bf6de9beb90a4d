// Package registers defines the Huawei inverter holding-register catalog and
// the codec that turns raw Modbus words into semantic values.
package registers

import "fmt"

// Kind tags the wire representation of a register's value.
type Kind int

const (
	KindU16 Kind = iota
	KindI16
	KindU32
	KindI32
	KindU64
	KindI64
	KindF32
	KindString
	KindTimestamp
	KindBitfield
	KindEnum
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindU16:
		return "U16"
	case KindI16:
		return "I16"
	case KindU32:
		return "U32"
	case KindI32:
		return "I32"
	case KindU64:
		return "U64"
	case KindI64:
		return "I64"
	case KindF32:
		return "F32"
	case KindString:
		return "String"
	case KindTimestamp:
		return "Timestamp"
	case KindBitfield:
		return "Bitfield"
	case KindEnum:
		return "Enum"
	case KindCustom:
		return "Custom"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// AccessLevel controls whether a register may be read before login, only
// after login, or written.
type AccessLevel int

const (
	AccessReadable AccessLevel = iota
	AccessReadableLoggedIn
	AccessWriteable
)

// Unit describes how the exposed unit string for a Result is derived.
type Unit struct {
	// Const is used when the unit never varies, e.g. "W", "V", "A".
	Const string
	// ByValue maps a decoded integer value to its unit (e.g. a scale-code
	// register). When non-nil, the unit exposed on Result is always nil:
	// the caller interprets the raw value against the field's semantics.
	ByValue map[int64]string
	// Func marks a unit computed by a decoder-specific function; also
	// always exposed as nil on Result.
	Func bool
}

// IsDynamic reports whether this unit is non-constant and therefore must be
// exposed as nil on the decoded Result.
func (u Unit) IsDynamic() bool {
	return u.ByValue != nil || u.Func
}

// CustomDecoder decodes a raw word slice using session context (currently
// only the learned time zone offset) into a semantic value.
type CustomDecoder func(words []uint16, tz *int) (any, error)

// CustomEncoder is the inverse of CustomDecoder for writeable custom kinds.
type CustomEncoder func(value any) ([]uint16, error)

// Descriptor is an immutable entry in the register Catalog.
type Descriptor struct {
	Name        string
	Address     uint16
	Length      uint16
	Kind        Kind
	Scale       float64 // default 1; ignored for String/Bitfield/Enum/Custom
	Unit        Unit
	Writeable   bool
	AccessLevel AccessLevel

	// StringLen is the byte length of a KindString register (<= Length*2).
	StringLen int
	// BitfieldMap maps bit index -> name, for KindBitfield.
	BitfieldMap map[uint]string
	// EnumMap maps the decoded integer -> name, for KindEnum.
	EnumMap map[int64]string

	CustomDecode CustomDecoder
	CustomEncode CustomEncoder
}

// end returns address+length as an int to avoid uint16 overflow in checks.
func (d Descriptor) end() int { return int(d.Address) + int(d.Length) }

// Validate checks the descriptor invariants: non-negative address/length
// (guaranteed by the uint16 type) and address+length <= 2^16.
func (d Descriptor) Validate() error {
	if d.end() > 1<<16 {
		return fmt.Errorf("registers: %s: address+length %d exceeds 2^16", d.Name, d.end())
	}
	if d.Length == 0 {
		return fmt.Errorf("registers: %s: length must be positive", d.Name)
	}
	if d.Kind == KindString && d.StringLen > int(d.Length)*2 {
		return fmt.Errorf("registers: %s: string length %d exceeds %d words", d.Name, d.StringLen, d.Length)
	}
	return nil
}
