// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package shamir implements the dealer and reconstruction side of
// Shamir secret sharing over a kyber group's exponent ring, building
// on kyber's own share package (the modern successor of the
// DeDiS-crypto share/core.go this engine's design is grounded on).
package shamir

import (
	"crypto/cipher"
	"fmt"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/share"

	"github.com/sequentech/braid/group"
)

// Polynomial is one dealer's degree-(T-1) secret-sharing polynomial,
// plus the convenience of deriving its public commitment polynomial.
type Polynomial struct {
	suite group.Suite
	priv  *share.PriPoly
}

// NewPolynomial draws a fresh random polynomial of degree threshold-1
// whose constant term is the dealer's secret.
func NewPolynomial(s group.Suite, threshold int, rand cipher.Stream) Polynomial {
	return Polynomial{suite: s, priv: share.NewPriPoly(s, threshold, nil, rand)}
}

// Secret returns the dealer's secret, f(0).
func (p Polynomial) Secret() kyber.Scalar { return p.priv.Secret() }

// Commitments returns the public commitments C_k = g^{a_k} to this
// polynomial's coefficients, in ascending degree order.
func (p Polynomial) Commitments() []kyber.Point {
	_, commits := p.priv.Commit(nil).Info()
	return commits
}

// ShareFor evaluates the polynomial at the 1-based recipient index
// (recipientPosition+1, per spec.md §4.2.2: "the share s_ij = f(j+1)").
func (p Polynomial) ShareFor(recipientPosition uint8) kyber.Scalar {
	return p.priv.Eval(int(recipientPosition) + 1).V
}

// VerificationKeyFactor reconstructs one dealer's contribution to
// trustee j's verification key, vk_j contribution = prod_k
// C_k^{(j+1)^k}, from that dealer's posted coefficient commitments.
// This is the public evaluation of the dealer's commitment polynomial
// at point (j+1), i.e. g^{f(j+1)}; summing (multiplying, in the group)
// this across all dealers for a fixed j yields vk_j.
func VerificationKeyFactor(s group.Suite, commitments []kyber.Point, recipientPosition uint8) kyber.Point {
	pub := share.NewPubPoly(s, nil, commitments)
	return pub.Eval(int(recipientPosition) + 1).V
}

// JointPublicKeyFactor returns a single dealer's contribution to the
// joint public key, C_0 = g^{a_0} = g^{f(0)}, the dealer's secret commitment.
func JointPublicKeyFactor(commitments []kyber.Point) kyber.Point {
	return commitments[0]
}

// CombinePoints multiplies (adds, in additive group notation) a set of
// group elements together; used both to accumulate the joint public
// key across dealers and to accumulate a trustee's verification key
// contribution across dealers.
func CombinePoints(s group.Suite, points []kyber.Point) kyber.Point {
	acc := s.Point().Null()
	for _, p := range points {
		acc = s.Point().Add(acc, p)
	}
	return acc
}

// SumScalars sums a set of scalars mod the group order; used to
// combine the shares a trustee received from every dealer into its
// effective secret key share.
func SumScalars(s group.Suite, xs []kyber.Scalar) kyber.Scalar {
	acc := s.Scalar().Zero()
	for _, x := range xs {
		acc = s.Scalar().Add(acc, x)
	}
	return acc
}

// LagrangeCoefficient computes lambda_idx, the Lagrange basis
// coefficient at x=0 for evaluation point xs[idx], over the full set
// of 1-based evaluation points xs (the selected trustee positions).
func LagrangeCoefficient(s group.Suite, xs []uint8, idx int) (kyber.Scalar, error) {
	if idx < 0 || idx >= len(xs) {
		return nil, fmt.Errorf("shamir: lagrange index %d out of range [0,%d)", idx, len(xs))
	}
	xi := s.Scalar().SetInt64(int64(xs[idx]))
	num := s.Scalar().One()
	den := s.Scalar().One()
	for j, xj8 := range xs {
		if j == idx {
			continue
		}
		xj := s.Scalar().SetInt64(int64(xj8))
		num = s.Scalar().Mul(num, xj)
		diff := s.Scalar().Sub(xj, xi)
		den = s.Scalar().Mul(den, diff)
	}
	inv := s.Scalar().Inv(den)
	return s.Scalar().Mul(num, inv), nil
}

// CombineInExponent raises each factor to its corresponding Lagrange
// coefficient and multiplies the results together: prod_t factor_t^{lambda_t}.
// This is how decryption factors are Lagrange-recombined: the exponent
// interpolation happens "in the exponent" because only g^{x_t} is
// known, never x_t itself.
func CombineInExponent(s group.Suite, factors []kyber.Point, coeffs []kyber.Scalar) (kyber.Point, error) {
	if len(factors) != len(coeffs) {
		return nil, fmt.Errorf("shamir: %d factors but %d coefficients", len(factors), len(coeffs))
	}
	acc := s.Point().Null()
	for i, f := range factors {
		acc = s.Point().Add(acc, s.Point().Mul(coeffs[i], f))
	}
	return acc, nil
}
