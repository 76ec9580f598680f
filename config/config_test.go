// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sequentech/braid/config"
)

func TestLoadValidConfig(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "trustee.yaml")
	contents := `
signing_key: "aabbcc"
symmetric_key: "0000000000000000000000000000000000000000000000000000000000000000"
board_url: "http://127.0.0.1:8080/rpc"
strict: true
poll_interval: "5s"
timeout: "15s"
`
	require.NoError(os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := config.Load(path)
	require.NoError(err)
	require.Equal("aabbcc", cfg.SigningKeyHex)
	require.True(cfg.Strict)
	require.Equal("http://127.0.0.1:8080/rpc", cfg.BoardURL)

	sym, err := cfg.SymmetricKey()
	require.NoError(err)
	require.Len(sym, 32)
}

func TestValidateRejectsMissingFields(t *testing.T) {
	require := require.New(t)

	cfg := config.Default()
	err := cfg.Validate()
	require.ErrorIs(err, config.ErrMissingSigningKey)

	cfg.SigningKeyHex = "aa"
	err = cfg.Validate()
	require.ErrorIs(err, config.ErrMissingSymmetricKey)

	cfg.SymmetricKeyHex = "0000000000000000000000000000000000000000000000000000000000000000"
	err = cfg.Validate()
	require.ErrorIs(err, config.ErrMissingBoardURL)

	cfg.BoardURL = "http://example"
	require.NoError(cfg.Validate())
}

func TestDurationUnmarshalsHumanStrings(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "trustee.yaml")
	contents := `
signing_key: "aa"
symmetric_key: "0000000000000000000000000000000000000000000000000000000000000000"
board_url: "http://example"
poll_interval: "250ms"
timeout: "3s"
`
	require.NoError(os.WriteFile(path, []byte(contents), 0o600))
	cfg, err := config.Load(path)
	require.NoError(err)
	require.Equal(int64(250_000_000), cfg.PollInterval.Duration().Nanoseconds())
	require.Equal(int64(3_000_000_000), cfg.Timeout.Duration().Nanoseconds())
}
