// Package config loads the YAML configuration for the serve command.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes one responder instance.
type Config struct {
	// Listen is the HTTP listen address, for example ":8080".
	Listen string `yaml:"listen"`

	// CACert is the path to the issuing CA certificate.
	CACert string `yaml:"ca_cert"`

	// ResponderCert and ResponderKey are the delegated responder
	// certificate and its PEM private key. When empty, CACert and
	// ResponderKey form a CA-signed responder.
	ResponderCert string `yaml:"responder_cert"`
	ResponderKey  string `yaml:"responder_key"`

	// Validity is the thisUpdate..nextUpdate window as a Go duration
	// string, for example "1h" or "30m".
	Validity string `yaml:"validity"`

	// CopyNonce echoes request nonces into responses.
	CopyNonce bool `yaml:"copy_nonce"`

	// AssumeGood reports serials absent from Entries as good instead
	// of unknown.
	AssumeGood bool `yaml:"assume_good"`

	// LogFormat is "json" (default) or "console".
	LogFormat string `yaml:"log_format"`

	// Entries is the revocation table.
	Entries []Entry `yaml:"entries"`

	validity time.Duration
}

// ValidityDuration returns the parsed validity window.
func (c *Config) ValidityDuration() time.Duration { return c.validity }

// Entry pins the status of one serial number.
type Entry struct {
	// Serial is the certificate serial in hexadecimal.
	Serial string `yaml:"serial"`

	// Status is good, revoked, or unknown.
	Status string `yaml:"status"`

	// RevokedAt is the RFC 3339 revocation time, for revoked entries.
	RevokedAt string `yaml:"revoked_at"`

	// Reason is the symbolic CRL reason name, for revoked entries.
	Reason string `yaml:"reason"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates configuration bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate applies defaults and rejects inconsistent settings.
func (c *Config) Validate() error {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.CACert == "" {
		return fmt.Errorf("ca_cert is required")
	}
	if c.ResponderKey == "" {
		return fmt.Errorf("responder_key is required")
	}
	if c.Validity == "" {
		c.validity = time.Hour
	} else {
		d, err := time.ParseDuration(c.Validity)
		if err != nil || d <= 0 {
			return fmt.Errorf("validity must be a positive duration, got %q", c.Validity)
		}
		c.validity = d
	}
	switch c.LogFormat {
	case "":
		c.LogFormat = "json"
	case "json", "console":
	default:
		return fmt.Errorf("log_format must be json or console, got %q", c.LogFormat)
	}
	for i := range c.Entries {
		e := &c.Entries[i]
		if e.Serial == "" {
			return fmt.Errorf("entry %d: serial is required", i)
		}
		switch e.Status {
		case "good", "revoked", "unknown":
		default:
			return fmt.Errorf("entry %d: status must be good, revoked, or unknown, got %q", i, e.Status)
		}
	}
	return nil
}
