// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "errors"

var (
	ErrMissingSigningKey   = errors.New("config: signing key is required")
	ErrMissingSymmetricKey = errors.New("config: symmetric key must be exactly 32 bytes")
	ErrMissingBoardURL     = errors.New("config: at least one board URL is required")
	ErrInvalidPollInterval = errors.New("config: poll interval must be positive")
	ErrInvalidTimeout      = errors.New("config: per-call timeout must be positive")
)
