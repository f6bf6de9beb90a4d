package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing profile: %v", err)
	}
	return path
}

func TestLoadTCPProfileWithDefaults(t *testing.T) {
	path := writeProfile(t, `
mode: tcp
tcp:
  host: 192.168.1.10
slave_id: 1
username: installer
password: secret
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.TCP.Port != 502 {
		t.Errorf("port = %d, want the 502 default", p.TCP.Port)
	}
	if p.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", p.Timeout)
	}
	if p.Cooldown != 50*time.Millisecond {
		t.Errorf("cooldown = %v, want 50ms", p.Cooldown)
	}
	if p.Wait != 2*time.Second {
		t.Errorf("wait = %v, want 2s", p.Wait)
	}
	if p.MaxTries != 5 {
		t.Errorf("max_tries = %d, want 5", p.MaxTries)
	}
	if p.Username != "installer" || p.Password != "secret" {
		t.Errorf("credentials not loaded")
	}
}

func TestLoadRTUProfileWithDefaults(t *testing.T) {
	path := writeProfile(t, `
mode: rtu
rtu:
  serial_port: /dev/ttyUSB0
  parity: e
slave_id: 3
`)
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.RTU.BaudRate != 9600 || p.RTU.DataBits != 8 || p.RTU.StopBits != 1 {
		t.Errorf("serial defaults not applied: %+v", p.RTU)
	}
	if p.RTU.Parity != "E" {
		t.Errorf("parity = %q, want E", p.RTU.Parity)
	}
}

func TestLoadRejectsMissingMode(t *testing.T) {
	path := writeProfile(t, "slave_id: 1\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for a profile with no mode")
	}
}

func TestLoadRejectsTCPWithoutHost(t *testing.T) {
	path := writeProfile(t, "mode: tcp\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for tcp mode without a host")
	}
}
