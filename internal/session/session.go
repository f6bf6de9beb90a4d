// Package session implements the stateful session layer: the
// Disconnected -> ... -> Closed lifecycle, the probe step that learns
// time zone / smart-logger / battery presence, challenge-response login,
// the heartbeat loop and the chunked file-upload sub-protocol, all
// funneled through the serialized request gate (internal/gate) and the
// batched read planner (internal/batch).
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kvaps/huawei-solar-go/internal/batch"
	"github.com/kvaps/huawei-solar-go/internal/gate"
	"github.com/kvaps/huawei-solar-go/internal/protocol"
	"github.com/kvaps/huawei-solar-go/internal/registers"
	"github.com/kvaps/huawei-solar-go/internal/transport"
)

// State is a node in the session lifecycle state machine.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateProbing
	StateReady
	StateAuthenticated
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateProbing:
		return "Probing"
	case StateReady:
		return "Ready"
	case StateAuthenticated:
		return "Authenticated"
	case StateClosing:
		return "Closing"
	case StateClosed:
		return "Closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	// HeartbeatRegister is the register address written by the
	// heartbeat loop.
	HeartbeatRegister uint16 = 49999
	// HeartbeatWord is the constant word value written to HeartbeatRegister.
	HeartbeatWord uint16 = 0x0001
	// HeartbeatInterval is the minimum spacing between heartbeat writes.
	HeartbeatInterval = 15 * time.Second

	fileUploadMaxTries   = 6
	fileUploadRetryDelay = 10 * time.Second
	loginSettlePause     = 50 * time.Millisecond
	connectSettleDelay   = time.Second
)

// Config is everything the Session constructor needs.
type Config struct {
	// Transport is pre-built by the caller (TCP or RTU); see
	// internal/transport.NewTCP / NewRTU.
	Transport transport.Transport
	SlaveID   byte

	Timeout      time.Duration // not applied by the Session; receives use the Transport's own timeout (TCPConfig/RTUConfig.Timeout)
	CooldownTime time.Duration // post-request idle, default 50ms
	Wait         time.Duration // inter-retry backoff, default 2s
	MaxTries     int           // default 5
}

// Session owns a Transport exclusively and holds the probed inverter
// state. State fields are mutated only from inside an operation or from
// the heartbeat loop's own gated write.
type Session struct {
	ID uuid.UUID

	cat     *registers.Catalog
	tr      transport.Transport
	gate    *gate.Gate
	retry   gate.RetryPolicy
	slaveID byte

	mu    sync.Mutex
	state State

	timeZone         *int
	isSmartLogger    bool
	batteryModel1    string
	loggedIn         bool
	heartbeatEnabled bool

	heartbeatCancel context.CancelFunc
	heartbeatWG     sync.WaitGroup
}

// Create opens cfg.Transport, waits the firmware settle delay, then probes
// time zone / smart-logger / battery presence.
func Create(ctx context.Context, cat *registers.Catalog, cfg Config) (*Session, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	wait := cfg.Wait
	if wait <= 0 {
		wait = 2 * time.Second
	}
	maxTries := cfg.MaxTries
	if maxTries <= 0 {
		maxTries = 5
	}

	s := &Session{
		ID:      uuid.New(),
		cat:     cat,
		tr:      cfg.Transport,
		gate:    gate.New(cfg.CooldownTime),
		slaveID: cfg.SlaveID,
		state:   StateConnecting,
	}
	s.retry = gate.RetryPolicy{
		Delay:    wait,
		MaxTries: maxTries,
		ShouldRetry: func(err error) bool {
			return transport.IsTimeout(err) || transport.IsSlaveBusy(err)
		},
	}

	if err := s.tr.Connect(); err != nil {
		return nil, &ConnectionError{Err: err}
	}

	// Firmware needs a moment after connecting before it will answer the
	// first request without timing out.
	select {
	case <-time.After(connectSettleDelay):
	case <-ctx.Done():
		s.tr.Close()
		return nil, ctx.Err()
	}

	s.setState(StateProbing)
	if err := s.probe(ctx); err != nil {
		s.tr.Close()
		return nil, err
	}
	s.setState(StateReady)

	return s, nil
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TimeZone returns the learned time-zone offset in minutes, or nil if not
// yet known. The probe learns it before any register whose decoding
// depends on it is exposed to callers.
func (s *Session) TimeZone() *int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeZone
}

// IsSmartLogger reports whether slave 0 was detected as a Smart Logger.
func (s *Session) IsSmartLogger() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSmartLogger
}

// probe learns the smart-logger flag (slave 0 only), the time zone, and
// whether the inverter answers battery queries at all.
func (s *Session) probe(ctx context.Context) error {
	if s.slaveID == 0 {
		if _, err := s.Get(ctx, "SMARTLOGGER_FIRST_SLAVE_POWER", s.slaveID); err == nil {
			s.mu.Lock()
			s.isSmartLogger = true
			s.mu.Unlock()
			log.Printf("session %s: smart logger detected", s.ID)
		} else {
			log.Printf("session %s: no smart logger detected: %v", s.ID, err)
		}
	}

	if s.IsSmartLogger() {
		res, err := s.Get(ctx, "SMARTLOGGER_TIME_ZONE", s.slaveID)
		if err != nil {
			return fmt.Errorf("session: reading smart-logger time zone: %w", err)
		}
		s.storeTimeZone(res)
		return nil
	}

	res, err := s.Get(ctx, "TIME_ZONE", s.slaveID)
	if err != nil {
		return fmt.Errorf("session: reading time zone: %w", err)
	}
	s.storeTimeZone(res)

	res, err = s.Get(ctx, "STORAGE_UNIT_1_PRODUCT_MODEL", s.slaveID)
	if err != nil {
		if transport.IsIllegalAddress(err) {
			s.mu.Lock()
			s.batteryModel1 = ""
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("session: probing battery support: %w", err)
	}
	model, _ := res.Value.(string)
	s.mu.Lock()
	s.batteryModel1 = model
	s.mu.Unlock()

	return nil
}

func (s *Session) storeTimeZone(res registers.Result) {
	v, _ := res.Value.(float64)
	tz := int(v)
	s.mu.Lock()
	s.timeZone = &tz
	s.mu.Unlock()
}

// Catalog exposes the register catalog this session was built with.
func (s *Session) Catalog() *registers.Catalog { return s.cat }

// Get reads a single named register for slave, as a one-field batch.
func (s *Session) Get(ctx context.Context, name string, slave byte) (registers.Result, error) {
	results, err := s.GetMultiple(ctx, []string{name}, slave)
	if err != nil {
		return registers.Result{}, err
	}
	return results[0], nil
}

// GetMultiple fuses names into one physical read under the gate, with
// retries for transient errors, and slices the result back out in input
// order. slave lets multiple Bridges sharing this Session's transport and
// gate address distinct inverters on the same bus.
func (s *Session) GetMultiple(ctx context.Context, names []string, slave byte) ([]registers.Result, error) {
	plan, err := batch.Build(s.cat, names)
	if err != nil {
		return nil, err
	}

	var words []uint16
	gateErr := s.gate.Do(ctx, func() error {
		return s.retry.Run(ctx, func() error {
			w, rerr := s.tr.ReadHoldingRegisters(plan.Address, plan.Count, slave)
			if rerr != nil {
				return rerr
			}
			words = w
			return nil
		})
	})
	if gateErr != nil {
		return nil, &ReadException{Op: fmt.Sprintf("read %v", names), Err: gateErr}
	}

	return batch.Decode(plan, words, s.TimeZone())
}

// Set encodes value for the named register and writes it; returns true
// iff the inverter echoes the same address and word count.
func (s *Session) Set(ctx context.Context, name string, value any, slave byte) (bool, error) {
	d, err := s.cat.Lookup(name)
	if err != nil {
		return false, &InvalidNameError{Name: name}
	}
	if !d.Writeable {
		return false, &WriteException{Op: name, Err: fmt.Errorf("register %q is not writeable", name)}
	}

	words, err := registers.Encode(d, value)
	if err != nil {
		return false, err
	}

	var echoAddr, echoCount uint16
	gateErr := s.gate.Do(ctx, func() error {
		return s.retry.Run(ctx, func() error {
			a, c, werr := s.tr.WriteRegisters(d.Address, words, slave)
			if werr != nil {
				return werr
			}
			echoAddr, echoCount = a, c
			return nil
		})
	})
	if gateErr != nil {
		return false, &WriteException{Op: name, Err: gateErr}
	}

	return echoAddr == d.Address && echoCount == d.Length, nil
}

// HasWritePermission tests write permission by reading the time zone and
// writing the same value back; a permission-denied response returns false
// rather than an error. Writing the unchanged value is a no-op on the
// inverter, but it is still a real write.
func (s *Session) HasWritePermission(ctx context.Context, slave byte) (bool, error) {
	res, err := s.Get(ctx, "TIME_ZONE", slave)
	if err != nil {
		return false, err
	}
	ok, err := s.Set(ctx, "TIME_ZONE", res.Value, slave)
	if err != nil {
		if transport.IsPermissionDenied(err) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// execute runs one vendor-private function-code exchange under the gate,
// with no retry: a failed login is terminal, not a transient condition.
func (s *Session) execute(ctx context.Context, sub byte, payload []byte, slave byte) ([]byte, error) {
	var data []byte
	err := s.gate.Do(ctx, func() error {
		d, rerr := s.executeLocked(sub, payload, slave)
		if rerr != nil {
			return rerr
		}
		data = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// executeLocked performs one private 0x41 exchange on the transport. The
// caller must hold the gate; GetFile uses this directly so the gate stays
// held across the whole multi-frame transfer.
func (s *Session) executeLocked(sub byte, payload []byte, slave byte) ([]byte, error) {
	full := append([]byte{sub}, payload...)
	resp, err := s.tr.Execute(transport.Request{FunctionCode: protocol.FunctionCode, Data: full}, slave)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || resp.Data[0] != sub {
		return nil, &protocol.ProtocolViolationError{Reason: fmt.Sprintf("response sub-command %v, want %#x", resp.Data, sub)}
	}
	return resp.Data, nil
}

// Stop disables the heartbeat, cancels its task, and, when closeTransport
// is set, releases the transport. A non-primary Bridge sharing this
// Session passes false; see pkg/huaweisolar.Bridge.Stop.
func (s *Session) Stop(closeTransport bool) {
	s.setState(StateClosing)
	s.StopHeartbeat()
	if closeTransport {
		s.tr.Close()
	}
	s.setState(StateClosed)
}
