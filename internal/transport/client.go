package transport

import (
	"encoding/binary"
	"fmt"

	mb "github.com/goburrow/modbus"
)

// handler is the subset of goburrow/modbus's ClientHandler this package
// depends on directly, satisfied by both *mb.TCPClientHandler and
// *mb.RTUClientHandler.
type handler interface {
	mb.Packager
	mb.Transporter
	Connect() error
	Close() error
}

// client adapts a goburrow/modbus handler into the Transport interface,
// additionally reaching into the handler's Packager/Transporter methods
// directly (the same thing mb.NewClient's returned implementation does
// internally) to issue the private function code 0x41 that mb.Client has
// no method for.
type client struct {
	h       handler
	mc      mb.Client
	setSlave func(byte)
}

// NewFromHandler wraps an already-configured goburrow/modbus handler. Used
// by NewTCP and NewRTU, which differ only in how the handler is built.
func NewFromHandler(h handler, setSlave func(byte)) Transport {
	return &client{h: h, mc: mb.NewClient(h), setSlave: setSlave}
}

func (c *client) Connect() error { return c.h.Connect() }
func (c *client) Close() error   { return c.h.Close() }

func (c *client) ReadHoldingRegisters(address, count uint16, slave byte) ([]uint16, error) {
	c.setSlave(slave)
	raw, err := c.mc.ReadHoldingRegisters(address, count)
	if err != nil {
		return nil, classify(err)
	}
	return bytesToWords(raw), nil
}

func (c *client) WriteRegisters(address uint16, words []uint16, slave byte) (uint16, uint16, error) {
	c.setSlave(slave)
	raw, err := c.mc.WriteMultipleRegisters(address, uint16(len(words)), wordsToBytes(words))
	if err != nil {
		return 0, 0, classify(err)
	}
	if len(raw) != 4 {
		return 0, 0, fmt.Errorf("transport: short write-multiple echo (%d bytes)", len(raw))
	}
	return binary.BigEndian.Uint16(raw[0:2]), binary.BigEndian.Uint16(raw[2:4]), nil
}

func (c *client) WriteSingleRegister(address, word uint16, slave byte) error {
	c.setSlave(slave)
	_, err := c.mc.WriteSingleRegister(address, word)
	if err != nil {
		return classify(err)
	}
	return nil
}

// Execute encodes req as a raw PDU (function code 0x41 plus sub-command
// payload), sends it via the handler's Transporter directly, and decodes
// the response PDU via the handler's Packager: the two halves mb.Client
// composes for its own known function codes, used here for one it doesn't
// know about.
func (c *client) Execute(req Request, slave byte) (Response, error) {
	c.setSlave(slave)

	pdu := &mb.ProtocolDataUnit{FunctionCode: req.FunctionCode, Data: req.Data}

	aduRequest, err := c.h.Encode(pdu)
	if err != nil {
		return Response{}, fmt.Errorf("transport: encode private frame: %w", err)
	}

	aduResponse, err := c.h.Send(aduRequest)
	if err != nil {
		return Response{}, classify(err)
	}

	if err := c.h.Verify(aduRequest, aduResponse); err != nil {
		return Response{}, fmt.Errorf("transport: verify private frame: %w", err)
	}

	respPDU, err := c.h.Decode(aduResponse)
	if err != nil {
		return Response{}, fmt.Errorf("transport: decode private frame: %w", err)
	}

	if respPDU.FunctionCode&0x80 != 0 {
		code := ExceptionIllegalFunction
		if len(respPDU.Data) > 0 {
			code = ExceptionCode(respPDU.Data[0])
		}
		return Response{}, &ModbusException{FunctionCode: respPDU.FunctionCode, Code: code}
	}

	return Response{FunctionCode: respPDU.FunctionCode, Data: respPDU.Data}, nil
}

func bytesToWords(raw []byte) []uint16 {
	words := make([]uint16, len(raw)/2)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(raw[2*i : 2*i+2])
	}
	return words
}

func wordsToBytes(words []uint16) []byte {
	raw := make([]byte, len(words)*2)
	for i, w := range words {
		binary.BigEndian.PutUint16(raw[2*i:2*i+2], w)
	}
	return raw
}
