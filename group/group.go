// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package group resolves a types.GroupID to a concrete kyber.Group
// implementation and provides the canonical point/scalar codecs every
// artifact and proof in the engine shares. Centralizing the suite
// lookup here is the dynamic enforcement of the "phantom group
// parameter" design note: every artifact carries a types.GroupID, and
// every place that deserializes a point or scalar must resolve its
// suite through this package and will fail closed on an unknown tag.
package group

import (
	"fmt"
	"hash"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/group/edwards25519"
	"go.dedis.ch/kyber/v3/group/nist"
	"go.dedis.ch/kyber/v3/util/random"
	"go.dedis.ch/kyber/v3/xof/keccak"

	"github.com/sequentech/braid/types"
)

// Suite is the cryptographic context an artifact of a given
// Configuration is defined over: a kyber group plus a source of
// randomness derived from a Keccak XOF and a hash factory, matching
// the suite shape used throughout the kyber ecosystem (kyber.Suite).
type Suite interface {
	kyber.Group
	RandomStream() kyber.XOFFactory
	Hash() hash.Hash
}

type hasher interface {
	Hash() hash.Hash
}

type suite struct {
	kyber.Group
	h hasher
}

func (s suite) RandomStream() kyber.XOFFactory { return keccakXOFFactory{} }
func (s suite) Hash() hash.Hash                { return s.h.Hash() }

type keccakXOFFactory struct{}

func (keccakXOFFactory) XOF(seed []byte) kyber.XOF { return keccak.New(seed) }

// Resolve returns the Suite configured by id, or an error if id is not
// a group this engine understands.
func Resolve(id types.GroupID) (Suite, error) {
	switch id {
	case types.GroupEdwards25519, "":
		s := edwards25519.NewBlakeSHA256Ed25519()
		return suite{Group: s, h: s}, nil
	case types.GroupNIST256:
		s := nist.NewBlakeSHA256P256()
		return suite{Group: s, h: s}, nil
	default:
		return nil, fmt.Errorf("group: unknown group id %q", id)
	}
}

// RandomScalar draws a uniformly random scalar using the suite's
// configured entropy source (crypto/rand under the hood via
// kyber's util/random).
func RandomScalar(s Suite) kyber.Scalar {
	return s.Scalar().Pick(random.New())
}

// MarshalPoint returns the canonical, fixed-length encoding of p.
func MarshalPoint(p kyber.Point) ([]byte, error) {
	return p.MarshalBinary()
}

// UnmarshalPoint decodes b into a new point of the suite's group.
func UnmarshalPoint(s Suite, b []byte) (kyber.Point, error) {
	p := s.Point()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("group: unmarshaling point: %w", err)
	}
	return p, nil
}

// MarshalScalar returns the canonical, fixed-length encoding of x.
func MarshalScalar(x kyber.Scalar) ([]byte, error) {
	return x.MarshalBinary()
}

// UnmarshalScalar decodes b into a new scalar of the suite's exponent ring.
func UnmarshalScalar(s Suite, b []byte) (kyber.Scalar, error) {
	x := s.Scalar()
	if err := x.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("group: unmarshaling scalar: %w", err)
	}
	return x, nil
}

// ScalarFromUint returns the scalar embedding of a small non-negative
// integer, used for polynomial evaluation points (trustee positions).
func ScalarFromUint(s Suite, v uint64) kyber.Scalar {
	return s.Scalar().SetInt64(int64(v))
}
