package transport

import (
	"errors"
	"testing"

	mb "github.com/goburrow/modbus"
)

func TestClassifyModbusError(t *testing.T) {
	err := classify(&mb.ModbusError{FunctionCode: 0x83, ExceptionCode: 0x06})
	if !IsSlaveBusy(err) {
		t.Fatalf("exception 0x06 should classify as slave busy: %v", err)
	}

	err = classify(&mb.ModbusError{FunctionCode: 0x83, ExceptionCode: 0x02})
	if !IsIllegalAddress(err) {
		t.Fatalf("exception 0x02 should classify as illegal address: %v", err)
	}
	if IsSlaveBusy(err) {
		t.Fatalf("illegal address must not also classify as slave busy")
	}

	err = classify(&mb.ModbusError{FunctionCode: 0xC1, ExceptionCode: 0x80})
	if !IsPermissionDenied(err) {
		t.Fatalf("exception 0x80 should classify as permission denied: %v", err)
	}
}

func TestClassifyPassesUnknownErrorsThrough(t *testing.T) {
	sentinel := errors.New("boom")
	if got := classify(sentinel); got != sentinel {
		t.Fatalf("unrecognized errors must pass through unchanged, got %v", got)
	}
	if classify(nil) != nil {
		t.Fatalf("nil must classify as nil")
	}
}

func TestWordByteConversionRoundTrip(t *testing.T) {
	words := []uint16{0x0102, 0xFFFE, 0x0000}
	raw := wordsToBytes(words)
	if len(raw) != 6 {
		t.Fatalf("expected 6 bytes, got %d", len(raw))
	}
	if raw[0] != 0x01 || raw[1] != 0x02 {
		t.Fatalf("words must serialize big-endian: % x", raw)
	}
	back := bytesToWords(raw)
	for i := range words {
		if back[i] != words[i] {
			t.Fatalf("round trip mismatch at %d: %#04x != %#04x", i, back[i], words[i])
		}
	}
}
