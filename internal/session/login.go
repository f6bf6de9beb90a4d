package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"time"

	"github.com/kvaps/huawei-solar-go/internal/protocol"
)

// Login performs the challenge/response exchange and, on success, starts
// the heartbeat loop. A non-zero login status raises
// InvalidCredentialsError; state is left unchanged on failure.
//
// The inverter's echoed MAC is verified and a mismatch is logged as a
// security warning, but login still reports success: the inverter has
// already authorized the connection at that point.
func (s *Session) Login(ctx context.Context, username, password string, slave byte) error {
	challengeResp, err := s.execute(ctx, protocol.SubChallenge, protocol.ChallengeRequestPayload, slave)
	if err != nil {
		return fmt.Errorf("session: challenge: %w", err)
	}
	inverterNonce, err := protocol.DecodeChallengeResponse(challengeResp[1:])
	if err != nil {
		return err
	}

	var clientNonce [16]byte
	if _, err := rand.Read(clientNonce[:]); err != nil {
		return fmt.Errorf("session: generating client nonce: %w", err)
	}

	mac := protocol.LoginDigest([]byte(password), inverterNonce[:])
	loginPayload := protocol.EncodeLoginRequest(clientNonce, username, mac)

	select {
	case <-time.After(loginSettlePause):
	case <-ctx.Done():
		return ctx.Err()
	}

	loginResp, err := s.execute(ctx, protocol.SubLogin, loginPayload, slave)
	if err != nil {
		return fmt.Errorf("session: login: %w", err)
	}
	decoded, err := protocol.DecodeLoginResponse(loginResp[1:])
	if err != nil {
		return err
	}
	if !decoded.Accepted {
		return &InvalidCredentialsError{}
	}

	expected := protocol.LoginDigest([]byte(password), clientNonce[:])
	if !bytesEqual(decoded.MAC, expected) {
		log.Printf("session %s: inverter's login response contains an invalid challenge answer; this could indicate a MitM attack", s.ID)
	}

	s.mu.Lock()
	s.loggedIn = true
	s.mu.Unlock()
	s.setState(StateAuthenticated)

	s.StartHeartbeat()
	return nil
}

// LoggedIn reports whether Login has completed successfully.
func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
