// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package schnorr implements a non-interactive Schnorr proof of
// knowledge of a discrete logarithm, Fiat-Shamir transformed with a
// label-bound challenge. It is used by the DKG channel artifact to
// prove knowledge of the channel's private key, and follows the same
// challenge-derivation idiom as kyber's own proof/dleq package: hash
// the transcript into a seed, expand it through the suite's XOF, and
// read the challenge scalar off the resulting stream.
package schnorr

import (
	"crypto/sha256"
	"fmt"

	"go.dedis.ch/kyber/v3"

	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/types"
)

// Proof is a non-interactive proof of knowledge of x such that y = g^x.
type Proof struct {
	Commitment kyber.Point  // t = g^v
	Response   kyber.Scalar // r = v - c*x
}

func challenge(s group.Suite, label types.Label, y, t kyber.Point) (kyber.Scalar, error) {
	yb, err := y.MarshalBinary()
	if err != nil {
		return nil, err
	}
	tb, err := t.MarshalBinary()
	if err != nil {
		return nil, err
	}
	h := sha256.New()
	h.Write([]byte(label))
	h.Write(yb)
	h.Write(tb)
	seed := h.Sum(nil)
	xof := s.RandomStream().XOF(seed)
	return s.Scalar().Pick(xof), nil
}

// Prove constructs a proof that the prover knows x where y = g^x,
// binding the proof to label so it cannot be replayed into a different
// configuration, batch, or purpose.
func Prove(s group.Suite, label types.Label, x kyber.Scalar, y kyber.Point) (Proof, error) {
	v := group.RandomScalar(s)
	t := s.Point().Mul(v, nil)
	c, err := challenge(s, label, y, t)
	if err != nil {
		return Proof{}, fmt.Errorf("schnorr: deriving challenge: %w", err)
	}
	// r = v - c*x
	cx := s.Scalar().Mul(c, x)
	r := s.Scalar().Sub(v, cx)
	return Proof{Commitment: t, Response: r}, nil
}

// Verify checks that proof is a valid proof of knowledge of the
// discrete log of y under the given label.
func Verify(s group.Suite, label types.Label, y kyber.Point, proof Proof) error {
	c, err := challenge(s, label, y, proof.Commitment)
	if err != nil {
		return fmt.Errorf("schnorr: deriving challenge: %w", err)
	}
	// check g^r * y^c == t
	gr := s.Point().Mul(proof.Response, nil)
	yc := s.Point().Mul(c, y)
	rhs := s.Point().Add(gr, yc)
	if !rhs.Equal(proof.Commitment) {
		return fmt.Errorf("%w: schnorr proof of knowledge", types.ErrVerificationFailed)
	}
	return nil
}
