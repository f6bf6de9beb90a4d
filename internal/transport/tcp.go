package transport

import (
	"fmt"
	"time"

	mb "github.com/goburrow/modbus"
)

// TCPConfig configures a Modbus-TCP transport.
type TCPConfig struct {
	Host    string
	Port    int // default 502
	Timeout time.Duration
	SlaveID byte
}

// NewTCP builds a Transport over Modbus-TCP.
func NewTCP(cfg TCPConfig) Transport {
	port := cfg.Port
	if port == 0 {
		port = 502
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	address := fmt.Sprintf("%s:%d", cfg.Host, port)
	h := mb.NewTCPClientHandler(address)
	h.Timeout = timeout
	h.SlaveId = cfg.SlaveID

	return NewFromHandler(h, func(slave byte) { h.SlaveId = slave })
}
