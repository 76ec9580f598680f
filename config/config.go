// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads and validates a trustee's boot configuration
// (spec.md §6 "Configuration (consumed)"): the material a trustee
// process needs before it can resolve its own Position against a
// board's posted protocol Configuration — signing key, symmetric
// channel-secret key, and the board(s) to poll.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"go.dedis.ch/kyber/v3"
	"gopkg.in/yaml.v3"

	"github.com/sequentech/braid/group"
)

// Duration wraps time.Duration with YAML text parsing ("2s", "500ms"),
// since yaml.v3 has no built-in duration support and the teacher's own
// json-tagged time.Duration fields rely on encoding/json's int64
// fallback, which is unreadable in a hand-edited trustee config file.
type Duration time.Duration

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// TrusteeConfig is a trustee process's boot configuration. Board names
// and the protocol's N-of-T parameters live on the board-posted
// Configuration artifact, not here; this struct carries only what a
// process needs before it can fetch that artifact.
type TrusteeConfig struct {
	// SigningKeyHex is this trustee's long-term signature key, hex
	// encoding a marshaled kyber.Scalar. The scalar's concrete group is
	// only known once the board's Configuration is read, so it stays
	// raw bytes here; ResolveSigningKey unmarshals it against a
	// resolved group.Suite.
	SigningKeyHex string `yaml:"signing_key"`
	// SymmetricKeyHex is the 256-bit (32-byte hex) key used to seal a
	// channel's secret (crypto/channel.EncryptSecretAtRest); the sealed
	// secret is posted to the board in the Channel artifact's
	// EncryptedSecret field.
	SymmetricKeyHex string `yaml:"symmetric_key"`
	// DisplayName is an optional human-readable label for logs and
	// metrics; it plays no role in the protocol.
	DisplayName string `yaml:"display_name,omitempty"`
	// BoardURL is the JSON-RPC endpoint of the board server this
	// trustee polls (board.NewHTTPClient).
	BoardURL string `yaml:"board_url"`
	// Strict exits the process non-zero on any session step failure
	// other than "not authorized for this board" (spec.md §6 "Exit
	// conditions").
	Strict bool `yaml:"strict"`
	// PollInterval is the sleep between board polls. Defaults to 2s.
	PollInterval Duration `yaml:"poll_interval,omitempty"`
	// Timeout bounds each board network call. Defaults to 10s.
	Timeout Duration `yaml:"timeout,omitempty"`
	// PersistDir optionally roots the action.FileCache that keeps
	// generated-but-not-yet-posted artifact bytes across restarts
	// (spec.md §6 "Persisted state"); without it the trustee uses an
	// in-memory cache and replays from the board on every startup.
	PersistDir string `yaml:"persist_dir,omitempty"`
}

// Default returns a TrusteeConfig with sensible non-secret defaults;
// callers must still supply SigningKeyHex, SymmetricKeyHex and
// BoardURL.
func Default() TrusteeConfig {
	return TrusteeConfig{
		PollInterval: Duration(2 * time.Second),
		Timeout:      Duration(10 * time.Second),
	}
}

// Load reads and validates a TrusteeConfig from a YAML file at path.
func Load(path string) (TrusteeConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return TrusteeConfig{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return TrusteeConfig{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return TrusteeConfig{}, err
	}
	return cfg, nil
}

// Validate checks the structural invariants of a TrusteeConfig.
func (c TrusteeConfig) Validate() error {
	if c.SigningKeyHex == "" {
		return ErrMissingSigningKey
	}
	symKey, err := hex.DecodeString(c.SymmetricKeyHex)
	if err != nil || len(symKey) != 32 {
		return ErrMissingSymmetricKey
	}
	if c.BoardURL == "" {
		return ErrMissingBoardURL
	}
	if c.PollInterval.Duration() <= 0 {
		return ErrInvalidPollInterval
	}
	if c.Timeout.Duration() <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// SymmetricKey decodes SymmetricKeyHex into the fixed-size array the
// channel package expects.
func (c TrusteeConfig) SymmetricKey() ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(c.SymmetricKeyHex)
	if err != nil {
		return out, fmt.Errorf("config: decoding symmetric key: %w", err)
	}
	if len(b) != 32 {
		return out, ErrMissingSymmetricKey
	}
	copy(out[:], b)
	return out, nil
}

// ResolveSigningKey unmarshals SigningKeyHex as a scalar of s's group.
func (c TrusteeConfig) ResolveSigningKey(s group.Suite) (kyber.Scalar, error) {
	b, err := hex.DecodeString(c.SigningKeyHex)
	if err != nil {
		return nil, fmt.Errorf("config: decoding signing key: %w", err)
	}
	return group.UnmarshalScalar(s, b)
}
