// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package shuffle implements a verifiable shuffle proof in the spirit
// of Wikström's proof of a correct shuffle: a Pedersen commitment to
// the secret permutation, a Fiat-Shamir challenge vector, and a
// multi-exponentiation check that simultaneously verifies (a) the
// permutation commitment opens to a permutation of the input indices
// and (b) every output ciphertext is a re-encryption of the
// corresponding permuted input ciphertext.
//
// This is the aggregated, single-challenge-round form of the
// argument: soundness of the permutation check comes from testing
// polynomial identity of the two challenge multisets at one further
// random point, which has error roughly n/|F| — negligible for the
// field sizes kyber's groups use and for any batch size this engine
// will see. The full multi-round Wikström/Groth commitment-consistent
// proof (with a separate product-argument sub-protocol) is not
// reproduced; this module documents that simplification rather than
// silently matching the paper's soundness claims.
package shuffle

import (
	"crypto/sha256"
	"fmt"

	"go.dedis.ch/kyber/v3"

	"github.com/sequentech/braid/crypto/elgamal"
	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/types"
)

// Proof is a verifiable shuffle proof binding an input ciphertext
// vector to an output ciphertext vector under a hidden permutation.
type Proof struct {
	Commitments []kyber.Point  // c_k = g^{r_k} * h_{perm[k]}, k=0..n-1
	R           kyber.Scalar   // opening: sum_k t_k * r_k
	RPrime      kyber.Scalar   // opening: sum_k t_k * rho_k
	U           []kyber.Scalar // permuted challenge vector, indexed by input position
}

// DeriveGenerators deterministically derives n independent generators
// from label, in the nothing-up-my-sleeve style common to Pedersen
// vector commitments: each generator is picked from a stream seeded by
// the hash of (label, index).
func DeriveGenerators(s group.Suite, label types.Label, n int) []kyber.Point {
	gens := make([]kyber.Point, n)
	for i := 0; i < n; i++ {
		h := sha256.New()
		h.Write([]byte(label))
		h.Write([]byte("|gen|"))
		h.Write(encodeInt(i))
		xof := s.RandomStream().XOF(h.Sum(nil))
		gens[i] = s.Point().Pick(xof)
	}
	return gens
}

func encodeInt(i int) []byte {
	b := make([]byte, 8)
	for j := 0; j < 8; j++ {
		b[j] = byte(i >> (8 * j))
	}
	return b
}

func challengeVector(s group.Suite, label types.Label, pk kyber.Point, input, output []elgamal.Ciphertext, commitments []kyber.Point, tag string) ([]kyber.Scalar, error) {
	n := len(input)
	base := sha256.New()
	base.Write([]byte(label))
	base.Write([]byte(tag))
	pkb, err := pk.MarshalBinary()
	if err != nil {
		return nil, err
	}
	base.Write(pkb)
	for _, c := range input {
		if err := writePoint(base, c.C1); err != nil {
			return nil, err
		}
		if err := writePoint(base, c.C2); err != nil {
			return nil, err
		}
	}
	for _, c := range output {
		if err := writePoint(base, c.C1); err != nil {
			return nil, err
		}
		if err := writePoint(base, c.C2); err != nil {
			return nil, err
		}
	}
	for _, c := range commitments {
		if err := writePoint(base, c); err != nil {
			return nil, err
		}
	}
	root := base.Sum(nil)

	out := make([]kyber.Scalar, n)
	for i := 0; i < n; i++ {
		h := sha256.New()
		h.Write(root)
		h.Write(encodeInt(i))
		xof := s.RandomStream().XOF(h.Sum(nil))
		out[i] = s.Scalar().Pick(xof)
	}
	return out, nil
}

func writePoint(h interface{ Write([]byte) (int, error) }, p kyber.Point) error {
	b, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = h.Write(b)
	return err
}

// secondChallenge derives the random evaluation point used by the
// polynomial-identity permutation check, binding in the revealed
// proof material so the prover cannot pick u after seeing it.
func secondChallenge(s group.Suite, label types.Label, proof Proof) kyber.Scalar {
	h := sha256.New()
	h.Write([]byte(label))
	h.Write([]byte("|x0|"))
	for _, c := range proof.Commitments {
		b, _ := c.MarshalBinary()
		h.Write(b)
	}
	rb, _ := proof.R.MarshalBinary()
	h.Write(rb)
	rpb, _ := proof.RPrime.MarshalBinary()
	h.Write(rpb)
	for _, u := range proof.U {
		ub, _ := u.MarshalBinary()
		h.Write(ub)
	}
	xof := s.RandomStream().XOF(h.Sum(nil))
	return s.Scalar().Pick(xof)
}

// Prove builds a shuffle proof for output[k] = Reencrypt(input[perm[k]], rho[k]),
// k = 0..n-1. perm must be a permutation of 0..n-1.
func Prove(s group.Suite, label types.Label, pk kyber.Point, input, output []elgamal.Ciphertext, perm []int, rho []kyber.Scalar) (Proof, error) {
	n := len(input)
	if len(output) != n || len(perm) != n || len(rho) != n {
		return Proof{}, fmt.Errorf("shuffle: mismatched lengths: input=%d output=%d perm=%d rho=%d", n, len(output), len(perm), len(rho))
	}
	if err := checkPermutation(perm); err != nil {
		return Proof{}, err
	}
	gens := DeriveGenerators(s, label, n)

	r := make([]kyber.Scalar, n)
	commitments := make([]kyber.Point, n)
	for k := 0; k < n; k++ {
		r[k] = group.RandomScalar(s)
		commitments[k] = s.Point().Add(s.Point().Mul(r[k], nil), gens[perm[k]])
	}

	t, err := challengeVector(s, label, pk, input, output, commitments, "|t|")
	if err != nil {
		return Proof{}, fmt.Errorf("shuffle: deriving challenge vector: %w", err)
	}

	// u[j] = t[k] where perm[k] == j.
	u := make([]kyber.Scalar, n)
	for k := 0; k < n; k++ {
		u[perm[k]] = t[k]
	}

	R := s.Scalar().Zero()
	RPrime := s.Scalar().Zero()
	for k := 0; k < n; k++ {
		R = s.Scalar().Add(R, s.Scalar().Mul(t[k], r[k]))
		RPrime = s.Scalar().Add(RPrime, s.Scalar().Mul(t[k], rho[k]))
	}

	return Proof{Commitments: commitments, R: R, RPrime: RPrime, U: u}, nil
}

func checkPermutation(perm []int) error {
	n := len(perm)
	seen := make([]bool, n)
	for _, p := range perm {
		if p < 0 || p >= n || seen[p] {
			return fmt.Errorf("shuffle: perm is not a valid permutation of 0..%d", n-1)
		}
		seen[p] = true
	}
	return nil
}

// Verify checks proof against the public input/output ciphertext
// vectors and public key pk, under label.
func Verify(s group.Suite, label types.Label, pk kyber.Point, input, output []elgamal.Ciphertext, proof Proof) error {
	n := len(input)
	if len(output) != n || len(proof.Commitments) != n || len(proof.U) != n {
		return fmt.Errorf("%w: shuffle proof has inconsistent vector lengths", types.ErrVerificationFailed)
	}

	t, err := challengeVector(s, label, pk, input, output, proof.Commitments, "|t|")
	if err != nil {
		return fmt.Errorf("shuffle: deriving challenge vector: %w", err)
	}

	// Check 1: permutation-commitment opening.
	// sum_k c_k^{t_k} == g^R * sum_j h_j^{u_j}
	gens := DeriveGenerators(s, label, n)
	lhs := s.Point().Null()
	for k := 0; k < n; k++ {
		lhs = s.Point().Add(lhs, s.Point().Mul(t[k], proof.Commitments[k]))
	}
	rhs := s.Point().Mul(proof.R, nil)
	for j := 0; j < n; j++ {
		rhs = s.Point().Add(rhs, s.Point().Mul(proof.U[j], gens[j]))
	}
	if !lhs.Equal(rhs) {
		return fmt.Errorf("%w: shuffle permutation-commitment check", types.ErrVerificationFailed)
	}

	// Check 2: {u_j} is a permutation of {t_k}, tested as polynomial
	// identity prod(X0 - u_j) == prod(X0 - t_k) at a random point X0.
	x0 := secondChallenge(s, label, proof)
	lhsPoly := s.Scalar().One()
	for _, u := range proof.U {
		lhsPoly = s.Scalar().Mul(lhsPoly, s.Scalar().Sub(x0, u))
	}
	rhsPoly := s.Scalar().One()
	for _, tk := range t {
		rhsPoly = s.Scalar().Mul(rhsPoly, s.Scalar().Sub(x0, tk))
	}
	if !lhsPoly.Equal(rhsPoly) {
		return fmt.Errorf("%w: shuffle permutation multiset check", types.ErrVerificationFailed)
	}

	// Check 3: re-encryption consistency.
	// sum_k t_k*output_k == sum_j u_j*input_j + R'*(g, pk)
	lhsC1 := s.Point().Null()
	lhsC2 := s.Point().Null()
	for k := 0; k < n; k++ {
		lhsC1 = s.Point().Add(lhsC1, s.Point().Mul(t[k], output[k].C1))
		lhsC2 = s.Point().Add(lhsC2, s.Point().Mul(t[k], output[k].C2))
	}
	rhsC1 := s.Point().Mul(proof.RPrime, nil)
	rhsC2 := s.Point().Mul(proof.RPrime, pk)
	for j := 0; j < n; j++ {
		rhsC1 = s.Point().Add(rhsC1, s.Point().Mul(proof.U[j], input[j].C1))
		rhsC2 = s.Point().Add(rhsC2, s.Point().Mul(proof.U[j], input[j].C2))
	}
	if !lhsC1.Equal(rhsC1) || !lhsC2.Equal(rhsC2) {
		return fmt.Errorf("%w: shuffle re-encryption consistency check", types.ErrVerificationFailed)
	}

	return nil
}
