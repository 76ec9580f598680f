// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package message

import (
	"fmt"

	"github.com/sequentech/braid/artifact"
)

// Encode serializes the full Message — every Statement field
// unconditionally, followed by the artifact bytes and signature — for
// transport as a board message's opaque byte blob (spec.md §6). This
// is deliberately distinct from Statement.Encode, which writes only
// the fields relevant to Kind for canonical hashing/signing; the wire
// form must round-trip every field so a receiving trustee can
// reconstruct the posted Statement exactly, not just verify it.
func (m Message) Encode() []byte {
	w := artifact.NewWriter()
	s := m.Statement
	w.WriteUint8(uint8(s.Kind))
	w.WriteHash(s.ConfigurationHash)
	w.WritePosition(s.Signer)
	w.WriteHash(s.ChannelHash)
	w.WriteHashVector(s.ChannelHashes)
	w.WriteHash(s.SharesHash)
	w.WriteHashVector(s.SharesHashes)
	w.WriteHash(s.PublicKeyHash)
	w.WriteInt64(s.Batch)
	w.WriteHash(s.BallotsHash)
	w.WriteTrusteeSet(s.Selected)
	w.WriteHash(s.SourceHash)
	w.WriteHash(s.MixHash)
	w.WriteUint32(uint32(s.MixNumber))
	w.WriteHash(s.DecryptionFactorsHash)
	w.WriteHash(s.FinalHash)
	w.WriteHash(s.PlaintextsHash)
	w.WriteHashVector(s.DecryptionFactorsHashes)
	w.WriteBytes(m.ArtifactBytes)
	w.WriteBytes(m.Signature)
	return w.Bytes()
}

// Decode is Encode's counterpart.
func Decode(b []byte) (Message, error) {
	r := artifact.NewReader(b)
	var s Statement
	k, err := r.ReadUint8()
	if err != nil {
		return Message{}, fmt.Errorf("message: decoding kind: %w", err)
	}
	s.Kind = Kind(k)
	if s.ConfigurationHash, err = r.ReadHash(); err != nil {
		return Message{}, err
	}
	if s.Signer, err = r.ReadPosition(); err != nil {
		return Message{}, err
	}
	if s.ChannelHash, err = r.ReadHash(); err != nil {
		return Message{}, err
	}
	if s.ChannelHashes, err = r.ReadHashVector(); err != nil {
		return Message{}, err
	}
	if s.SharesHash, err = r.ReadHash(); err != nil {
		return Message{}, err
	}
	if s.SharesHashes, err = r.ReadHashVector(); err != nil {
		return Message{}, err
	}
	if s.PublicKeyHash, err = r.ReadHash(); err != nil {
		return Message{}, err
	}
	if s.Batch, err = r.ReadInt64(); err != nil {
		return Message{}, err
	}
	if s.BallotsHash, err = r.ReadHash(); err != nil {
		return Message{}, err
	}
	if s.Selected, err = r.ReadTrusteeSet(); err != nil {
		return Message{}, err
	}
	if s.SourceHash, err = r.ReadHash(); err != nil {
		return Message{}, err
	}
	if s.MixHash, err = r.ReadHash(); err != nil {
		return Message{}, err
	}
	mixNumber, err := r.ReadUint32()
	if err != nil {
		return Message{}, err
	}
	s.MixNumber = int(mixNumber)
	if s.DecryptionFactorsHash, err = r.ReadHash(); err != nil {
		return Message{}, err
	}
	if s.FinalHash, err = r.ReadHash(); err != nil {
		return Message{}, err
	}
	if s.PlaintextsHash, err = r.ReadHash(); err != nil {
		return Message{}, err
	}
	if s.DecryptionFactorsHashes, err = r.ReadHashVector(); err != nil {
		return Message{}, err
	}
	artifactBytes, err := r.ReadBytes()
	if err != nil {
		return Message{}, err
	}
	sig, err := r.ReadBytes()
	if err != nil {
		return Message{}, err
	}
	return Message{Statement: s, ArtifactBytes: artifactBytes, Signature: sig}, nil
}
