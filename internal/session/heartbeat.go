package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/kvaps/huawei-solar-go/internal/transport"
)

// StartHeartbeat begins the heartbeat task: while enabled, it writes
// HeartbeatWord to HeartbeatRegister every HeartbeatInterval. Login calls
// this automatically on success; exposed separately so a caller can
// restart it after a transient disable.
func (s *Session) StartHeartbeat() {
	s.mu.Lock()
	if s.heartbeatCancel != nil {
		s.mu.Unlock()
		return
	}
	s.heartbeatEnabled = true
	ctx, cancel := context.WithCancel(context.Background())
	s.heartbeatCancel = cancel
	s.mu.Unlock()

	s.heartbeatWG.Add(1)
	go s.heartbeatLoop(ctx)
}

// StopHeartbeat disables the loop and waits for its current iteration to
// observe the cancellation. After it returns, no further heartbeat writes
// occur.
func (s *Session) StopHeartbeat() {
	s.mu.Lock()
	s.heartbeatEnabled = false
	cancel := s.heartbeatCancel
	s.heartbeatCancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.heartbeatWG.Wait()
}

// HeartbeatEnabled reports whether the heartbeat loop is currently armed.
func (s *Session) HeartbeatEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heartbeatEnabled
}

func (s *Session) heartbeatLoop(ctx context.Context) {
	defer s.heartbeatWG.Done()

	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.beat(ctx) {
				s.mu.Lock()
				s.heartbeatEnabled = false
				s.heartbeatCancel = nil
				s.mu.Unlock()
				return
			}
		}
	}
}

// beat writes the heartbeat word once. Any ExceptionResponse disables the
// heartbeat silently (returns false); any other session error disables it
// with a warning; "not connected" returns false without panicking.
func (s *Session) beat(ctx context.Context) bool {
	gateErr := s.gate.Do(ctx, func() error {
		return s.tr.WriteSingleRegister(HeartbeatRegister, HeartbeatWord, s.slaveID)
	})
	if gateErr == nil {
		return true
	}

	if transport.IsConnection(gateErr) {
		return false
	}

	var me *transport.ModbusException
	if errors.As(gateErr, &me) {
		return false
	}

	log.Printf("session %s: heartbeat stopped because of %v", s.ID, gateErr)
	return false
}
