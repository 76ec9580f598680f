// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package message

import (
	"fmt"

	"go.dedis.ch/kyber/v3"

	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/types"
)

// ResolveKey returns the marshaled verification key configured for
// position p (a trustee position, types.ManagerPosition, or
// types.VerifierPosition is never a signer of record and has no
// configured key).
func ResolveKey(s group.Suite, cfg types.Configuration, p types.Position) (kyber.Point, error) {
	var raw []byte
	switch {
	case p == types.ManagerPosition:
		raw = cfg.ManagerKey
	case int(p) >= 0 && int(p) < cfg.N():
		raw = cfg.TrusteeKeys[p]
	default:
		return nil, fmt.Errorf("message: position %s has no configured verification key", p)
	}
	pt, err := group.UnmarshalPoint(s, raw)
	if err != nil {
		return nil, fmt.Errorf("message: resolving key for %s: %w", p, err)
	}
	return pt, nil
}
