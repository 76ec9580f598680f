// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package channel implements the per-trustee DKG side-channel: an
// ephemeral ElGamal key pair used only so that other trustees can send
// this trustee its Shamir shares privately, plus the two layers of
// encryption the design calls for:
//
//   - the channel's own private key is protected at rest by the
//     trustee's long-term symmetric configuration key (AES-GCM), so a
//     restarted trustee can recover it without ever having persisted
//     it in the clear;
//   - a share addressed to this channel is protected end-to-end with
//     hybrid ECIES under the channel's public key, using kyber's own
//     encrypt/ecies package (the modern form of the DeDiS-crypto
//     encrypt/ecies this design is grounded on), so only the channel's
//     holder can recover it.
package channel

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/encrypt/ecies"

	"github.com/sequentech/braid/crypto/elgamal"
	"github.com/sequentech/braid/crypto/schnorr"
	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/types"
)

// KeyPair is a channel's ElGamal key pair plus the Schnorr proof of
// knowledge of its private key.
type KeyPair struct {
	elgamal.KeyPair
	Proof schnorr.Proof
}

// Generate draws a fresh channel key pair and proves knowledge of its
// secret under the configuration's channel label.
func Generate(s group.Suite, cfgID types.Hash) (KeyPair, error) {
	kp := elgamal.GenerateKeyPair(s)
	label := types.NewLabel(cfgID, -1, types.LabelSuffixChannel)
	proof, err := schnorr.Prove(s, label, kp.Secret, kp.Public)
	if err != nil {
		return KeyPair{}, fmt.Errorf("channel: proving knowledge of secret: %w", err)
	}
	return KeyPair{KeyPair: kp, Proof: proof}, nil
}

// VerifyProof checks the Schnorr proof of knowledge bound to a
// channel's public key.
func VerifyProof(s group.Suite, cfgID types.Hash, pub kyber.Point, proof schnorr.Proof) error {
	label := types.NewLabel(cfgID, -1, types.LabelSuffixChannel)
	return schnorr.Verify(s, label, pub, proof)
}

// EncryptShare seals a Shamir share scalar for the holder of channel
// public key pub, who alone can recover it via DecryptShare.
func EncryptShare(s group.Suite, pub kyber.Point, share kyber.Scalar) ([]byte, error) {
	b, err := share.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("channel: marshaling share: %w", err)
	}
	ct, err := ecies.Encrypt(s, pub, b, s.Hash)
	if err != nil {
		return nil, fmt.Errorf("channel: encrypting share: %w", err)
	}
	return ct, nil
}

// DecryptShare recovers a share scalar encrypted by EncryptShare, given
// the channel's private key.
func DecryptShare(s group.Suite, priv kyber.Scalar, ciphertext []byte) (kyber.Scalar, error) {
	b, err := ecies.Decrypt(s, priv, ciphertext, s.Hash)
	if err != nil {
		return nil, fmt.Errorf("%w: channel share decryption: %v", types.ErrVerificationFailed, err)
	}
	x := s.Scalar()
	if err := x.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("channel: unmarshaling decrypted share: %w", err)
	}
	return x, nil
}

// EncryptSecretAtRest seals a channel's own private scalar under the
// trustee's 256-bit configured symmetric key, so it can be persisted
// and later recovered without ever writing the plaintext key to disk.
func EncryptSecretAtRest(key [32]byte, secret kyber.Scalar) ([]byte, error) {
	b, err := secret.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("channel: marshaling secret: %w", err)
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("channel: building cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("channel: building gcm: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("channel: drawing nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, b, nil), nil
}

// DecryptSecretAtRest recovers a secret sealed by EncryptSecretAtRest.
func DecryptSecretAtRest(s group.Suite, key [32]byte, sealed []byte) (kyber.Scalar, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("channel: building cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("channel: building gcm: %w", err)
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("channel: sealed secret too short")
	}
	nonce, ct := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	pt, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: channel secret-at-rest decryption: %v", types.ErrVerificationFailed, err)
	}
	x := s.Scalar()
	if err := x.UnmarshalBinary(pt); err != nil {
		return nil, fmt.Errorf("channel: unmarshaling secret: %w", err)
	}
	return x, nil
}
