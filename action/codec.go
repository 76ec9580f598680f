// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"go.dedis.ch/kyber/v3"

	"github.com/sequentech/braid/artifact"
	"github.com/sequentech/braid/crypto/dleq"
	"github.com/sequentech/braid/crypto/elgamal"
	"github.com/sequentech/braid/crypto/shuffle"
	"github.com/sequentech/braid/group"
)

// ciphertextsFromBytes decodes a wire ciphertext vector into group elements.
func ciphertextsFromBytes(s group.Suite, in []artifact.CiphertextBytes) ([]elgamal.Ciphertext, error) {
	out := make([]elgamal.Ciphertext, len(in))
	for i, c := range in {
		c1, err := group.UnmarshalPoint(s, c.C1)
		if err != nil {
			return nil, fmt.Errorf("action: unmarshaling ciphertext %d C1: %w", i, err)
		}
		c2, err := group.UnmarshalPoint(s, c.C2)
		if err != nil {
			return nil, fmt.Errorf("action: unmarshaling ciphertext %d C2: %w", i, err)
		}
		out[i] = elgamal.Ciphertext{C1: c1, C2: c2}
	}
	return out, nil
}

// ciphertextsToBytes encodes a ciphertext vector to its wire form.
func ciphertextsToBytes(in []elgamal.Ciphertext) ([]artifact.CiphertextBytes, error) {
	out := make([]artifact.CiphertextBytes, len(in))
	for i, c := range in {
		c1, err := group.MarshalPoint(c.C1)
		if err != nil {
			return nil, fmt.Errorf("action: marshaling ciphertext %d C1: %w", i, err)
		}
		c2, err := group.MarshalPoint(c.C2)
		if err != nil {
			return nil, fmt.Errorf("action: marshaling ciphertext %d C2: %w", i, err)
		}
		out[i] = artifact.CiphertextBytes{C1: c1, C2: c2}
	}
	return out, nil
}

func shuffleProofToBytes(p shuffle.Proof) (artifact.ShuffleProofBytes, error) {
	var out artifact.ShuffleProofBytes
	out.Commitments = make([][]byte, len(p.Commitments))
	for i, c := range p.Commitments {
		b, err := group.MarshalPoint(c)
		if err != nil {
			return out, fmt.Errorf("action: marshaling shuffle commitment %d: %w", i, err)
		}
		out.Commitments[i] = b
	}
	var err error
	if out.R, err = group.MarshalScalar(p.R); err != nil {
		return out, fmt.Errorf("action: marshaling shuffle R: %w", err)
	}
	if out.RPrime, err = group.MarshalScalar(p.RPrime); err != nil {
		return out, fmt.Errorf("action: marshaling shuffle R': %w", err)
	}
	out.U = make([][]byte, len(p.U))
	for i, u := range p.U {
		b, err := group.MarshalScalar(u)
		if err != nil {
			return out, fmt.Errorf("action: marshaling shuffle U %d: %w", i, err)
		}
		out.U[i] = b
	}
	return out, nil
}

func shuffleProofFromBytes(s group.Suite, b artifact.ShuffleProofBytes) (shuffle.Proof, error) {
	var p shuffle.Proof
	p.Commitments = make([]kyber.Point, len(b.Commitments))
	for i, c := range b.Commitments {
		pt, err := group.UnmarshalPoint(s, c)
		if err != nil {
			return p, fmt.Errorf("action: unmarshaling shuffle commitment %d: %w", i, err)
		}
		p.Commitments[i] = pt
	}
	var err error
	if p.R, err = group.UnmarshalScalar(s, b.R); err != nil {
		return p, fmt.Errorf("action: unmarshaling shuffle R: %w", err)
	}
	if p.RPrime, err = group.UnmarshalScalar(s, b.RPrime); err != nil {
		return p, fmt.Errorf("action: unmarshaling shuffle R': %w", err)
	}
	p.U = make([]kyber.Scalar, len(b.U))
	for i, u := range b.U {
		sc, err := group.UnmarshalScalar(s, u)
		if err != nil {
			return p, fmt.Errorf("action: unmarshaling shuffle U %d: %w", i, err)
		}
		p.U[i] = sc
	}
	return p, nil
}

func dleqProofToBytes(p dleq.Proof) (artifact.DleqProofBytes, error) {
	var out artifact.DleqProofBytes
	var err error
	if out.VG, err = group.MarshalPoint(p.VG); err != nil {
		return out, fmt.Errorf("action: marshaling dleq VG: %w", err)
	}
	if out.VH, err = group.MarshalPoint(p.VH); err != nil {
		return out, fmt.Errorf("action: marshaling dleq VH: %w", err)
	}
	if out.C, err = group.MarshalScalar(p.C); err != nil {
		return out, fmt.Errorf("action: marshaling dleq C: %w", err)
	}
	if out.R, err = group.MarshalScalar(p.R); err != nil {
		return out, fmt.Errorf("action: marshaling dleq R: %w", err)
	}
	return out, nil
}

func dleqProofFromBytes(s group.Suite, b artifact.DleqProofBytes) (dleq.Proof, error) {
	var p dleq.Proof
	var err error
	if p.VG, err = group.UnmarshalPoint(s, b.VG); err != nil {
		return p, fmt.Errorf("action: unmarshaling dleq VG: %w", err)
	}
	if p.VH, err = group.UnmarshalPoint(s, b.VH); err != nil {
		return p, fmt.Errorf("action: unmarshaling dleq VH: %w", err)
	}
	if p.C, err = group.UnmarshalScalar(s, b.C); err != nil {
		return p, fmt.Errorf("action: unmarshaling dleq C: %w", err)
	}
	if p.R, err = group.UnmarshalScalar(s, b.R); err != nil {
		return p, fmt.Errorf("action: unmarshaling dleq R: %w", err)
	}
	return p, nil
}

// randomPermutation draws a uniformly random permutation of 0..n-1
// using crypto/rand Fisher-Yates shuffling, so a mix's hidden
// permutation is not predictable from a weak PRNG seed.
func randomPermutation(n int) ([]int, error) {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return nil, fmt.Errorf("action: drawing permutation randomness: %w", err)
		}
		perm[i], perm[j.Int64()] = perm[j.Int64()], perm[i]
	}
	return perm, nil
}
