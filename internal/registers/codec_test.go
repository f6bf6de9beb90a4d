package registers

import (
	"testing"
	"time"
)

func TestDecodeScaledI32(t *testing.T) {
	d := Descriptor{Name: "ACTIVE_POWER", Address: 32080, Length: 2, Kind: KindI32, Scale: 1, Unit: Unit{Const: "W"}}
	res, err := Decode(d, []uint16{0xFFFF, 0xFFF6}, nil) // -10
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if res.Value != float64(-10) {
		t.Fatalf("expected -10, got %v", res.Value)
	}
	if res.Unit == nil || *res.Unit != "W" {
		t.Fatalf("expected unit W, got %v", res.Unit)
	}
}

func TestDecodeU16Scale(t *testing.T) {
	d := Descriptor{Name: "PHASE_A_VOLTAGE", Address: 32069, Length: 1, Kind: KindU16, Scale: 10, Unit: Unit{Const: "V"}}
	res, err := Decode(d, []uint16{2300}, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if res.Value != float64(230) {
		t.Fatalf("expected 230, got %v", res.Value)
	}
}

func TestDecodeEnumUnknown(t *testing.T) {
	d := Descriptor{Name: "DEVICE_STATUS", Length: 1, Kind: KindEnum, EnumMap: map[int64]string{0: "Standby"}}
	res, err := Decode(d, []uint16{0x1234}, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	u, ok := res.Value.(Unknown)
	if !ok || u.Value != 0x1234 {
		t.Fatalf("expected Unknown(0x1234), got %#v", res.Value)
	}
}

func TestDecodeTimestampSentinel(t *testing.T) {
	d := Descriptor{Name: "SHUTDOWN_TIME", Length: 2, Kind: KindTimestamp}
	res, err := Decode(d, []uint16{0xFFFF, 0xFFFF}, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if res.Value != nil {
		t.Fatalf("expected nil for sentinel timestamp, got %#v", res.Value)
	}
}

func TestDecodeTimestampLocal(t *testing.T) {
	d := Descriptor{Name: "STARTUP_TIME", Length: 2, Kind: KindTimestamp}
	res, err := Decode(d, []uint16{0x0000, 0x0001}, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	ts, ok := res.Value.(Timestamp)
	if !ok {
		t.Fatalf("expected Timestamp, got %#v", res.Value)
	}
	if !ts.UTC.Equal(time.Unix(1, 0).UTC()) {
		t.Fatalf("expected epoch+1s, got %v", ts.UTC)
	}
	tz := -120
	ts.TZOffset = &tz
	if !ts.Local().Equal(ts.UTC.Add(-2 * time.Hour)) {
		t.Fatalf("Local() did not apply offset correctly: %v", ts.Local())
	}
}

func TestDecodeString(t *testing.T) {
	d := Descriptor{Name: "MODEL_NAME", Length: 2, Kind: KindString, StringLen: 4}
	res, err := Decode(d, []uint16{'A'<<8 | 'B', 'C'<<8 | 0}, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if res.Value != "ABC" {
		t.Fatalf("expected ABC, got %q", res.Value)
	}
}

func TestEncodeDecodeRoundTripI16(t *testing.T) {
	d := Descriptor{Name: "TIME_ZONE", Length: 1, Kind: KindI16, Scale: 1, Writeable: true}
	words, err := Encode(d, float64(-60))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	res, err := Decode(d, words, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if res.Value != float64(-60) {
		t.Fatalf("round trip mismatch: got %v", res.Value)
	}
}

func TestEncodeOutOfRangeRejected(t *testing.T) {
	d := Descriptor{Name: "TIME_ZONE", Length: 1, Kind: KindI16, Scale: 1, Writeable: true}
	if _, err := Encode(d, float64(100000)); err == nil {
		t.Fatalf("expected an error for an out-of-range I16 value")
	}
}

func TestEncodeEnumByName(t *testing.T) {
	d := Descriptor{Name: "METER_TYPE", Length: 1, Kind: KindEnum, EnumMap: map[int64]string{0: "SINGLE_PHASE", 1: "THREE_PHASE"}, Writeable: true}
	words, err := Encode(d, "THREE_PHASE")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if words[0] != 1 {
		t.Fatalf("expected word 1, got %d", words[0])
	}
}

func TestExposedUnitDynamic(t *testing.T) {
	d := Descriptor{Name: "X", Length: 1, Kind: KindU16, Unit: Unit{Func: true}}
	res, err := Decode(d, []uint16{1}, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if res.Unit != nil {
		t.Fatalf("expected nil unit for dynamic register, got %v", *res.Unit)
	}
}
