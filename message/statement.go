// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package message defines the Message envelope posted to the board:
// a Statement (a tagged record naming the artifact kind and every
// relevant parent hash/index), the artifact bytes, and a signature
// over the statement (spec.md §3 "Message", §4.3).
package message

import (
	"fmt"

	"github.com/sequentech/braid/artifact"
	"github.com/sequentech/braid/types"
)

// Kind enumerates every statement a trustee or the protocol manager
// can post.
type Kind uint8

const (
	KindConfiguration Kind = iota + 1
	KindConfigurationSigned
	KindChannel
	KindChannelsSigned
	KindShares
	KindPublicKey
	KindPublicKeySigned
	KindBallots
	KindMix
	KindMixSigned
	KindDecryptionFactors
	KindPlaintexts
	KindPlaintextsSigned
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "Configuration"
	case KindConfigurationSigned:
		return "ConfigurationSigned"
	case KindChannel:
		return "Channel"
	case KindChannelsSigned:
		return "ChannelsSigned"
	case KindShares:
		return "Shares"
	case KindPublicKey:
		return "PublicKey"
	case KindPublicKeySigned:
		return "PublicKeySigned"
	case KindBallots:
		return "Ballots"
	case KindMix:
		return "Mix"
	case KindMixSigned:
		return "MixSigned"
	case KindDecryptionFactors:
		return "DecryptionFactors"
	case KindPlaintexts:
		return "Plaintexts"
	case KindPlaintextsSigned:
		return "PlaintextsSigned"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Statement is the tagged record carried by every Message: the
// artifact kind plus the full closure of parent hashes and indices
// relevant to it. Binding every parent hash into the statement is what
// lets the local store reconstruct a faithful transcript without
// further joins (spec.md §4.3).
type Statement struct {
	Kind Kind

	ConfigurationHash types.Hash
	Signer            types.Position

	// Channel / ChannelsSigned
	ChannelHash   types.Hash
	ChannelHashes []types.Hash

	// Shares / PublicKey / PublicKeySigned / DecryptionFactors
	SharesHash   types.Hash
	SharesHashes []types.Hash

	// PublicKey / PublicKeySigned / Ballots / Plaintexts / PlaintextsSigned
	PublicKeyHash types.Hash

	// Ballots / Mix / MixSigned / DecryptionFactors / Plaintexts / PlaintextsSigned
	Batch int64

	// Ballots
	BallotsHash types.Hash
	Selected    types.TrusteeSet

	// Mix / MixSigned
	SourceHash types.Hash
	MixHash    types.Hash
	MixNumber  int

	// DecryptionFactors
	DecryptionFactorsHash types.Hash
	FinalHash             types.Hash

	// Plaintexts / PlaintextsSigned
	PlaintextsHash        types.Hash
	DecryptionFactorsHashes []types.Hash
}

// Encode returns the canonical statement bytes that get hashed and
// signed. Only the fields relevant to Kind are written, so a given
// Statement always has exactly one encoding regardless of zero-valued
// fields left over from the Go struct's shared shape.
func (s Statement) Encode() []byte {
	w := artifact.NewWriter()
	w.WriteUint8(uint8(s.Kind))
	w.WriteHash(s.ConfigurationHash)
	switch s.Kind {
	case KindConfiguration:
	case KindConfigurationSigned:
		w.WritePosition(s.Signer)
	case KindChannel:
		w.WriteHash(s.ChannelHash)
		w.WritePosition(s.Signer)
	case KindChannelsSigned:
		w.WriteHashVector(s.ChannelHashes)
		w.WritePosition(s.Signer)
	case KindShares:
		w.WriteHash(s.SharesHash)
		w.WritePosition(s.Signer)
	case KindPublicKey, KindPublicKeySigned:
		w.WriteHash(s.PublicKeyHash)
		w.WriteHashVector(s.SharesHashes)
		w.WriteHashVector(s.ChannelHashes)
		w.WritePosition(s.Signer)
	case KindBallots:
		w.WriteInt64(s.Batch)
		w.WriteHash(s.BallotsHash)
		w.WriteHash(s.PublicKeyHash)
		w.WriteTrusteeSet(s.Selected)
		w.WritePosition(s.Signer)
	case KindMix:
		w.WriteInt64(s.Batch)
		w.WriteHash(s.SourceHash)
		w.WriteHash(s.MixHash)
		w.WriteUint32(uint32(s.MixNumber))
		w.WritePosition(s.Signer)
	case KindMixSigned:
		w.WriteInt64(s.Batch)
		w.WriteHash(s.SourceHash)
		w.WriteHash(s.MixHash)
		w.WritePosition(s.Signer)
	case KindDecryptionFactors:
		w.WriteInt64(s.Batch)
		w.WriteHash(s.DecryptionFactorsHash)
		w.WriteHash(s.FinalHash)
		w.WriteHashVector(s.SharesHashes)
		w.WritePosition(s.Signer)
	case KindPlaintexts, KindPlaintextsSigned:
		w.WriteInt64(s.Batch)
		w.WriteHash(s.PlaintextsHash)
		w.WriteHashVector(s.DecryptionFactorsHashes)
		w.WriteHash(s.FinalHash)
		w.WriteHash(s.PublicKeyHash)
		w.WritePosition(s.Signer)
	}
	return w.Bytes()
}

// Hash returns the canonical identifier of the statement (not the
// artifact it describes).
func (s Statement) Hash() types.Hash { return artifact.Hash(s.Encode()) }
