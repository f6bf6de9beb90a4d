// Package config loads the connection Profile describing how to reach one
// inverter: TCP or RTU transport parameters, slave id, gate/retry timing,
// and login credentials.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is the root YAML document.
type Profile struct {
	Mode string `yaml:"mode"` // "tcp" or "rtu"

	TCP TCPProfile `yaml:"tcp"`
	RTU RTUProfile `yaml:"rtu"`

	SlaveID  uint8         `yaml:"slave_id"`
	Timeout  time.Duration `yaml:"timeout"`
	Cooldown time.Duration `yaml:"cooldown"`
	Wait     time.Duration `yaml:"wait"`
	MaxTries int           `yaml:"max_tries"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// TCPProfile mirrors internal/transport.TCPConfig's fields.
type TCPProfile struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RTUProfile mirrors internal/transport.RTUConfig's fields.
type RTUProfile struct {
	SerialPort string `yaml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate"`
	DataBits   int    `yaml:"data_bits"`
	StopBits   int    `yaml:"stop_bits"`
	Parity     string `yaml:"parity"`
}

// Load reads and validates a Profile from path, filling in the same
// defaults internal/session.Create would otherwise apply on a zero Config,
// so the profile on disk only needs to state what differs from them.
func Load(path string) (Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, err
	}

	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Profile{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	p.Mode = strings.ToLower(strings.TrimSpace(p.Mode))
	switch p.Mode {
	case "tcp":
		if strings.TrimSpace(p.TCP.Host) == "" {
			return Profile{}, fmt.Errorf("config: tcp.host is required when mode is \"tcp\"")
		}
		if p.TCP.Port <= 0 {
			p.TCP.Port = 502
		}
	case "rtu":
		if strings.TrimSpace(p.RTU.SerialPort) == "" {
			return Profile{}, fmt.Errorf("config: rtu.serial_port is required when mode is \"rtu\"")
		}
		if p.RTU.BaudRate <= 0 {
			p.RTU.BaudRate = 9600
		}
		if p.RTU.DataBits <= 0 {
			p.RTU.DataBits = 8
		}
		if p.RTU.StopBits <= 0 {
			p.RTU.StopBits = 1
		}
		if p.RTU.Parity == "" {
			p.RTU.Parity = "N"
		} else {
			p.RTU.Parity = strings.ToUpper(p.RTU.Parity)
		}
	case "":
		return Profile{}, fmt.Errorf("config: mode must be \"tcp\" or \"rtu\"")
	default:
		return Profile{}, fmt.Errorf("config: unsupported mode %q", p.Mode)
	}

	if p.Timeout <= 0 {
		p.Timeout = 5 * time.Second
	}
	if p.Cooldown <= 0 {
		p.Cooldown = 50 * time.Millisecond
	}
	if p.Wait <= 0 {
		p.Wait = 2 * time.Second
	}
	if p.MaxTries <= 0 {
		p.MaxTries = 5
	}

	return p, nil
}
