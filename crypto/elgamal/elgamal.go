// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package elgamal implements the lifted ElGamal cryptosystem over a
// kyber group: key pairs, encryption, re-encryption (used by the
// shuffle), and the final decode step, in the same style as kyber's
// own encryption examples (kyber/examples/enc).
package elgamal

import (
	"crypto/cipher"
	"fmt"

	"go.dedis.ch/kyber/v3"

	"github.com/sequentech/braid/group"
)

// KeyPair is an ElGamal private/public key pair: sk is the discrete
// log of the public point pk = g^sk.
type KeyPair struct {
	Secret kyber.Scalar
	Public kyber.Point
}

// GenerateKeyPair draws a fresh random key pair in the given suite.
func GenerateKeyPair(s group.Suite) KeyPair {
	sk := group.RandomScalar(s)
	return KeyPair{Secret: sk, Public: s.Point().Mul(sk, nil)}
}

// Ciphertext is a two-component lifted ElGamal ciphertext (C1, C2) =
// (g^r, m * pk^r).
type Ciphertext struct {
	C1 kyber.Point
	C2 kyber.Point
}

// Encrypt embeds data as a group element and encrypts it under pk with
// fresh randomness r drawn from rand. It returns the ciphertext and the
// randomness used (callers that only need the ciphertext may discard r).
func Encrypt(s group.Suite, pk kyber.Point, data []byte, rand cipher.Stream) (Ciphertext, kyber.Scalar, error) {
	if maxLen := s.Point().EmbedLen(); len(data) > maxLen {
		return Ciphertext{}, nil, fmt.Errorf("elgamal: plaintext %d bytes exceeds embeddable length %d", len(data), maxLen)
	}
	m := s.Point().Embed(data, rand)
	r := s.Scalar().Pick(rand)
	c1 := s.Point().Mul(r, nil)
	shared := s.Point().Mul(r, pk)
	c2 := s.Point().Add(m, shared)
	return Ciphertext{C1: c1, C2: c2}, r, nil
}

// EncryptPoint encrypts an already-encoded plaintext point m, drawing
// the encryption randomness from rand. The mix does not use it; it
// re-randomizes existing ciphertexts with Reencrypt.
func EncryptPoint(s group.Suite, pk kyber.Point, m kyber.Point, rand cipher.Stream) Ciphertext {
	r := s.Scalar().Pick(rand)
	return Ciphertext{
		C1: s.Point().Mul(r, nil),
		C2: s.Point().Add(m, s.Point().Mul(r, pk)),
	}
}

// Decrypt recovers the embedded plaintext bytes given the private key sk.
func Decrypt(s group.Suite, sk kyber.Scalar, c Ciphertext) ([]byte, error) {
	shared := s.Point().Mul(sk, c.C1)
	m := s.Point().Sub(c.C2, shared)
	data, err := m.Data()
	if err != nil {
		return nil, fmt.Errorf("elgamal: decoding plaintext point: %w", err)
	}
	return data, nil
}

// DecryptToPoint recovers the plaintext point m = C2 - sk*C1 without
// attempting to decode it, used when the caller already knows how to
// interpret the point (e.g. test fixtures).
func DecryptToPoint(s group.Suite, sk kyber.Scalar, c Ciphertext) kyber.Point {
	return s.Point().Sub(c.C2, s.Point().Mul(sk, c.C1))
}

// Reencrypt rerandomizes c under pk with fresh randomness rho, without
// changing the plaintext it encodes: (C1', C2') = (C1 + g^rho, C2 + pk^rho).
func Reencrypt(s group.Suite, pk kyber.Point, c Ciphertext, rho kyber.Scalar) Ciphertext {
	return Ciphertext{
		C1: s.Point().Add(c.C1, s.Point().Mul(rho, nil)),
		C2: s.Point().Add(c.C2, s.Point().Mul(rho, pk)),
	}
}

// PartialDecryptionFactor computes gr^x = C1^x, the partial decryption
// share one trustee with secret x contributes toward the final
// decryption of c.
func PartialDecryptionFactor(s group.Suite, x kyber.Scalar, c Ciphertext) kyber.Point {
	return s.Point().Mul(x, c.C1)
}

// DivideFactor returns C2 / factor = C2 + (-factor), the plaintext
// point once a caller has combined enough partial decryption factors
// into the single divisor.
func DivideFactor(s group.Suite, c Ciphertext, divisor kyber.Point) kyber.Point {
	return s.Point().Sub(c.C2, divisor)
}
