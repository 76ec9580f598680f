// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dleq implements a label-bound Chaum-Pedersen proof of
// discrete-log equality: knowledge of x such that y1 = g1^x and
// y2 = g2^x for two independent bases g1, g2. The proof shape (C, R,
// VG, VH) follows kyber's own proof/dleq package; the challenge here
// additionally binds a types.Label so a decryption-factor proof from
// one batch cannot be replayed as a proof for another (spec.md §4.2.7
// requires every such proof be produced "under the label").
package dleq

import (
	"crypto/sha256"
	"fmt"

	"go.dedis.ch/kyber/v3"

	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/types"
)

// Proof is a non-interactive Chaum-Pedersen proof that log_{g1}(VG) ==
// log_{g2}(VH).
type Proof struct {
	VG kyber.Point  // commitment w.r.t. g1: v*g1
	VH kyber.Point  // commitment w.r.t. g2: v*g2
	C  kyber.Scalar // challenge
	R  kyber.Scalar // response: v - c*x
}

func challenge(s group.Suite, label types.Label, g1, y1, g2, y2, vg, vh kyber.Point) (kyber.Scalar, error) {
	h := sha256.New()
	h.Write([]byte(label))
	for _, p := range []kyber.Point{g1, y1, g2, y2, vg, vh} {
		b, err := p.MarshalBinary()
		if err != nil {
			return nil, err
		}
		h.Write(b)
	}
	xof := s.RandomStream().XOF(h.Sum(nil))
	return s.Scalar().Pick(xof), nil
}

// Prove proves knowledge of x such that y1 = g1^x and y2 = g2^x,
// binding the proof to label.
func Prove(s group.Suite, label types.Label, g1, g2 kyber.Point, x kyber.Scalar) (Proof, kyber.Point, kyber.Point, error) {
	y1 := s.Point().Mul(x, g1)
	y2 := s.Point().Mul(x, g2)
	v := group.RandomScalar(s)
	vg := s.Point().Mul(v, g1)
	vh := s.Point().Mul(v, g2)
	c, err := challenge(s, label, g1, y1, g2, y2, vg, vh)
	if err != nil {
		return Proof{}, nil, nil, fmt.Errorf("dleq: deriving challenge: %w", err)
	}
	r := s.Scalar().Sub(v, s.Scalar().Mul(c, x))
	return Proof{VG: vg, VH: vh, C: c, R: r}, y1, y2, nil
}

// Verify checks that proof demonstrates log_{g1}(y1) == log_{g2}(y2)
// under label.
func Verify(s group.Suite, label types.Label, g1, y1, g2, y2 kyber.Point, proof Proof) error {
	c, err := challenge(s, label, g1, y1, g2, y2, proof.VG, proof.VH)
	if err != nil {
		return fmt.Errorf("dleq: deriving challenge: %w", err)
	}
	if !c.Equal(proof.C) {
		return fmt.Errorf("%w: dleq challenge mismatch", types.ErrVerificationFailed)
	}
	// check g1^r * y1^c == VG
	lhs1 := s.Point().Add(s.Point().Mul(proof.R, g1), s.Point().Mul(c, y1))
	if !lhs1.Equal(proof.VG) {
		return fmt.Errorf("%w: dleq base-1 equation", types.ErrVerificationFailed)
	}
	lhs2 := s.Point().Add(s.Point().Mul(proof.R, g2), s.Point().Mul(c, y2))
	if !lhs2.Equal(proof.VH) {
		return fmt.Errorf("%w: dleq base-2 equation", types.ErrVerificationFailed)
	}
	return nil
}
