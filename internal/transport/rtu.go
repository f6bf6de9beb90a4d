package transport

import (
	"strings"
	"time"

	mb "github.com/goburrow/modbus"
)

// RTUConfig configures a Modbus-RTU transport over a serial port.
type RTUConfig struct {
	SerialPort string
	BaudRate   int // default 9600
	DataBits   int // default 8
	StopBits   int // default 1
	Parity     string // "N", "E", "O"; default "N"
	Timeout    time.Duration
	SlaveID    byte
}

// NewRTU builds a Transport over Modbus-RTU.
func NewRTU(cfg RTUConfig) Transport {
	h := mb.NewRTUClientHandler(cfg.SerialPort)
	h.BaudRate = 9600
	h.Parity = "N"
	if cfg.BaudRate > 0 {
		h.BaudRate = cfg.BaudRate
	}
	if cfg.DataBits > 0 {
		h.DataBits = cfg.DataBits
	}
	if cfg.StopBits > 0 {
		h.StopBits = cfg.StopBits
	}
	if p := strings.ToUpper(strings.TrimSpace(cfg.Parity)); p != "" {
		h.Parity = p
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	h.Timeout = timeout
	h.SlaveId = cfg.SlaveID

	return NewFromHandler(h, func(slave byte) { h.SlaveId = slave })
}
