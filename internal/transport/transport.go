// Package transport wraps github.com/goburrow/modbus for both TCP and RTU
// framing and classifies its errors into tagged kinds the session layer
// can dispatch on (connection, timeout, slave-busy, illegal-address,
// permission-denied). It is also the only place that reaches past the
// library's high-level Client to issue the vendor-private function code
// 0x41 exchanges needed for challenge/login/file-upload.
package transport

import (
	"errors"
	"fmt"
	"net"

	mb "github.com/goburrow/modbus"
)

// ExceptionCode mirrors the one-byte Modbus exception code carried by an
// exception response, plus the Huawei-private 0x80 "permission denied"
// value used inside the 0x41 private frames.
type ExceptionCode byte

const (
	ExceptionIllegalFunction    ExceptionCode = 0x01
	ExceptionIllegalDataAddress ExceptionCode = 0x02
	ExceptionIllegalDataValue   ExceptionCode = 0x03
	ExceptionSlaveDeviceFailure ExceptionCode = 0x04
	ExceptionAcknowledge        ExceptionCode = 0x05
	ExceptionSlaveDeviceBusy    ExceptionCode = 0x06
	ExceptionPermissionDenied   ExceptionCode = 0x80
)

// ModbusException is a decoded exception response from the inverter.
type ModbusException struct {
	FunctionCode byte
	Code         ExceptionCode
}

func (e *ModbusException) Error() string {
	return fmt.Sprintf("transport: exception %#x for function %#x", byte(e.Code), e.FunctionCode)
}

// TimeoutError wraps a per-request receive timeout.
type TimeoutError struct{ Err error }

func (e *TimeoutError) Error() string { return fmt.Sprintf("transport: timeout: %v", e.Err) }
func (e *TimeoutError) Unwrap() error { return e.Err }

// ConnectionError wraps a dropped or never-opened transport.
type ConnectionError struct{ Err error }

func (e *ConnectionError) Error() string { return fmt.Sprintf("transport: connection error: %v", e.Err) }
func (e *ConnectionError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// IsSlaveBusy reports whether err is the SlaveDeviceBusy exception.
func IsSlaveBusy(err error) bool {
	var me *ModbusException
	return errors.As(err, &me) && me.Code == ExceptionSlaveDeviceBusy
}

// IsIllegalAddress reports whether err is the IllegalDataAddress exception.
func IsIllegalAddress(err error) bool {
	var me *ModbusException
	return errors.As(err, &me) && me.Code == ExceptionIllegalDataAddress
}

// IsPermissionDenied reports whether err is the private PermissionDenied
// exception (code 0x80).
func IsPermissionDenied(err error) bool {
	var me *ModbusException
	return errors.As(err, &me) && me.Code == ExceptionPermissionDenied
}

// IsConnection reports whether err is (or wraps) a ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// classify turns a raw goburrow/modbus or net error into one of the tagged
// kinds above. Unrecognized errors are returned unchanged so callers can
// still inspect them.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var modbusErr *mb.ModbusError
	if errors.As(err, &modbusErr) {
		return &ModbusException{FunctionCode: modbusErr.FunctionCode, Code: ExceptionCode(modbusErr.ExceptionCode)}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Err: err}
	}

	if errors.Is(err, net.ErrClosed) {
		return &ConnectionError{Err: err}
	}

	return err
}

// Response is a generic result for the vendor-private function code 0x41:
// either Data (the sub-command payload) on success, or an exception.
type Response struct {
	FunctionCode byte
	Data         []byte
}

// Request is a generic vendor-private function-code request, used with
// Execute for everything the high-level Client interface has no method
// for: challenge, login, file upload start/data/complete.
type Request struct {
	FunctionCode byte
	Data         []byte
}

// Transport is the client-facing surface the session layer depends on. The ADU/PDU codec and socket management live behind it; the
// session-level retry and serialization logic only needs this interface.
type Transport interface {
	// Connect opens the underlying socket or serial port.
	Connect() error
	// Close releases the underlying socket or serial port.
	Close() error

	// ReadHoldingRegisters issues function code 0x03.
	ReadHoldingRegisters(address, count uint16, slave byte) ([]uint16, error)
	// WriteRegisters issues function code 0x10 (write multiple).
	WriteRegisters(address uint16, words []uint16, slave byte) (echoAddress, echoCount uint16, err error)
	// WriteSingleRegister issues function code 0x06.
	WriteSingleRegister(address, word uint16, slave byte) error
	// Execute issues an arbitrary vendor-private function code (0x41),
	// used for challenge/login/file-upload sub-commands.
	Execute(req Request, slave byte) (Response, error)
}
