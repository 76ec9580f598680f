// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package message

import (
	"fmt"

	"go.dedis.ch/kyber/v3"
	kschnorr "go.dedis.ch/kyber/v3/sign/schnorr"

	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/types"
)

// Message is the unit posted to the board (spec.md §3 "Message").
type Message struct {
	Statement     Statement
	ArtifactBytes []byte
	Signature     []byte
}

// Sign hashes stmt's canonical bytes (not the artifact bytes) and
// signs the hash with the sender's long-term trustee key, using
// kyber's sign/schnorr — the modern form of the signature package this
// design is grounded on (DeDiS-crypto/sign).
func Sign(s group.Suite, priv kyber.Scalar, stmt Statement) ([]byte, error) {
	h := stmt.Hash()
	sig, err := kschnorr.Sign(s, priv, h[:])
	if err != nil {
		return nil, fmt.Errorf("message: signing statement: %w", err)
	}
	return sig, nil
}

// Build signs stmt and artifactBytes into a ready-to-post Message.
func Build(s group.Suite, priv kyber.Scalar, stmt Statement, artifactBytes []byte) (Message, error) {
	sig, err := Sign(s, priv, stmt)
	if err != nil {
		return Message{}, err
	}
	return Message{Statement: stmt, ArtifactBytes: artifactBytes, Signature: sig}, nil
}

// Verify checks that sig is a valid signature over stmt's canonical
// bytes under the verification key pub.
func Verify(s group.Suite, pub kyber.Point, stmt Statement, sig []byte) error {
	h := stmt.Hash()
	if err := kschnorr.Verify(s, pub, h[:], sig); err != nil {
		return fmt.Errorf("%w: message signature: %v", types.ErrVerificationFailed, err)
	}
	return nil
}

// VerifyMessage is a convenience wrapper verifying a full Message
// against a resolved verification key.
func VerifyMessage(s group.Suite, pub kyber.Point, m Message) error {
	return Verify(s, pub, m.Statement, m.Signature)
}
