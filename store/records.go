// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"fmt"

	"go.dedis.ch/kyber/v3"

	"github.com/sequentech/braid/artifact"
	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/message"
	"github.com/sequentech/braid/types"
)

// PublicKeyRecord is the indexed joint public key artifact, together
// with the position that posted it (the dealer coordinator, by
// convention trustee 0, though the driver does not depend on that).
type PublicKeyRecord struct {
	Hash     types.Hash
	Artifact artifact.DkgPublicKey
	Signer   types.Position
}

// BallotsRecord is the indexed submitted-ciphertext batch.
type BallotsRecord struct {
	Hash     types.Hash
	Artifact artifact.Ballots
	Signer   types.Position
}

// MixRecord is one indexed shuffle-chain step.
type MixRecord struct {
	Hash     types.Hash
	Source   types.Hash
	Artifact artifact.Mix
	Signer   types.Position
}

// DecryptionFactorsRecord is one trustee's indexed partial-decryption contribution.
type DecryptionFactorsRecord struct {
	Hash     types.Hash
	Artifact artifact.DecryptionFactors
	Signer   types.Position
}

// PlaintextsRecord is the indexed reconstructed plaintext batch.
type PlaintextsRecord struct {
	Hash     types.Hash
	Artifact artifact.Plaintexts
	Signer   types.Position
}

// resolveKeyForStatement resolves the verification key for the entity
// that must have signed stmt. KindConfiguration is posted by the
// protocol manager and carries no explicit Signer field.
func resolveKeyForStatement(s group.Suite, cfg types.Configuration, stmt message.Statement) (kyber.Point, error) {
	signer := stmt.Signer
	if stmt.Kind == message.KindConfiguration {
		signer = types.ManagerPosition
	}
	return message.ResolveKey(s, cfg, signer)
}

// applyStructural rejects statements that violate a structural
// invariant detectable without decoding referenced artifacts (spec.md
// §7 "Structural violations"). It runs before the statement is
// recorded, so a rejected statement leaves no trace in the store.
func (s *Store) applyStructural(stmt message.Statement) error {
	switch stmt.Kind {
	case message.KindChannelsSigned:
		if len(stmt.ChannelHashes) != s.cfg.N() {
			return types.NewDatalogError(types.WrongArtifactCount, s.cfgHash, -1,
				"ChannelsSigned by %s carries %d channel hashes, want %d", stmt.Signer, len(stmt.ChannelHashes), s.cfg.N())
		}
	case message.KindPublicKey, message.KindPublicKeySigned:
		if len(stmt.SharesHashes) != s.cfg.N() || len(stmt.ChannelHashes) != s.cfg.N() {
			return types.NewDatalogError(types.WrongArtifactCount, s.cfgHash, -1,
				"%s carries %d shares hashes and %d channel hashes, want %d each", stmt.Kind, len(stmt.SharesHashes), len(stmt.ChannelHashes), s.cfg.N())
		}
	case message.KindBallots:
		if stmt.Selected.Threshold != s.cfg.Threshold {
			return types.NewDatalogError(types.MalformedTrusteeSet, s.cfgHash, stmt.Batch,
				"ballots selected %d trustees, configuration threshold is %d", stmt.Selected.Threshold, s.cfg.Threshold)
		}
		if err := stmt.Selected.Validate(s.cfg.N()); err != nil {
			return types.NewDatalogError(types.MalformedTrusteeSet, s.cfgHash, stmt.Batch,
				"ballots selected trustee set invalid: %v", err)
		}
	case message.KindMix, message.KindMixSigned:
		if stmt.MixNumber < 0 || stmt.MixNumber >= s.cfg.Threshold {
			return types.NewDatalogError(types.WrongArtifactCount, s.cfgHash, stmt.Batch,
				"mix number %d out of range [0,%d)", stmt.MixNumber, s.cfg.Threshold)
		}
		if mixes, ok := s.mixSignedBy[stmt.Batch]; ok {
			for n, signers := range mixes {
				if n == stmt.MixNumber {
					continue
				}
				if _, repeat := signers[stmt.Signer]; repeat && stmt.Kind == message.KindMixSigned {
					return types.NewDatalogError(types.MixRepeat, s.cfgHash, stmt.Batch,
						"trustee %s signed both mix %d and mix %d", stmt.Signer, n, stmt.MixNumber)
				}
			}
		}
		if byNum, ok := s.mixes[stmt.Batch]; ok && stmt.Kind == message.KindMix {
			for n, rec := range byNum {
				if n != stmt.MixNumber && rec.Signer == stmt.Signer {
					return types.NewDatalogError(types.MixRepeat, s.cfgHash, stmt.Batch,
						"trustee %s produced both mix %d and mix %d", stmt.Signer, n, stmt.MixNumber)
				}
			}
		}
	case message.KindPlaintexts, message.KindPlaintextsSigned:
		if len(stmt.DecryptionFactorsHashes) != s.cfg.Threshold {
			return types.NewDatalogError(types.WrongArtifactCount, s.cfgHash, stmt.Batch,
				"%s carries %d decryption-factor hashes, want %d", stmt.Kind, len(stmt.DecryptionFactorsHashes), s.cfg.Threshold)
		}
	}
	return nil
}

// index updates the typed predicate indices once a statement has
// passed signature and structural checks. Artifact-carrying kinds
// decode their bytes here; decode failure is treated as a rejection,
// not a panic, since artifact bytes arrive over the network.
func (s *Store) index(stmt message.Statement, artifactBytes []byte) error {
	switch stmt.Kind {
	case message.KindConfiguration:
		// Presence of a verified Configuration message is itself the
		// predicate; nothing further to index.
	case message.KindConfigurationSigned:
		s.configurationSigned[stmt.Signer] = struct{}{}

	case message.KindChannel:
		ch, err := artifact.DecodeChannel(artifactBytes)
		if err != nil {
			return fmt.Errorf("store: decoding channel artifact: %w", err)
		}
		s.channels[stmt.Signer] = stmt.ChannelHash
		s.channelArtifacts[stmt.ChannelHash] = ch

	case message.KindChannelsSigned:
		s.channelsSignedBy[stmt.Signer] = stmt.ChannelHashes

	case message.KindShares:
		sh, err := artifact.DecodeShares(artifactBytes)
		if err != nil {
			return fmt.Errorf("store: decoding shares artifact: %w", err)
		}
		if len(sh.ShareCiphertexts) != s.cfg.N() {
			return types.NewDatalogError(types.WrongArtifactCount, s.cfgHash, -1,
				"shares from %s carry %d ciphertexts, want %d", stmt.Signer, len(sh.ShareCiphertexts), s.cfg.N())
		}
		if len(sh.Commitments) != s.cfg.Threshold {
			return types.NewDatalogError(types.WrongArtifactCount, s.cfgHash, -1,
				"shares from %s carry %d commitments, want threshold %d", stmt.Signer, len(sh.Commitments), s.cfg.Threshold)
		}
		s.shares[stmt.Signer] = stmt.SharesHash
		s.sharesArtifact[stmt.SharesHash] = sh

	case message.KindPublicKey:
		pk, err := artifact.DecodeDkgPublicKey(artifactBytes)
		if err != nil {
			return fmt.Errorf("store: decoding public key artifact: %w", err)
		}
		if len(pk.VerificationKeys) != s.cfg.N() {
			return types.NewDatalogError(types.WrongArtifactCount, s.cfgHash, -1,
				"public key carries %d verification keys, want %d", len(pk.VerificationKeys), s.cfg.N())
		}
		s.publicKey = &PublicKeyRecord{Hash: stmt.PublicKeyHash, Artifact: pk, Signer: stmt.Signer}

	case message.KindPublicKeySigned:
		s.publicKeySignedBy[stmt.Signer] = struct{}{}

	case message.KindBallots:
		b, err := artifact.DecodeBallots(artifactBytes)
		if err != nil {
			return fmt.Errorf("store: decoding ballots artifact: %w", err)
		}
		s.ballots[stmt.Batch] = BallotsRecord{Hash: stmt.BallotsHash, Artifact: b, Signer: stmt.Signer}

	case message.KindMix:
		m, err := artifact.DecodeMix(artifactBytes)
		if err != nil {
			return fmt.Errorf("store: decoding mix artifact: %w", err)
		}
		if s.mixes[stmt.Batch] == nil {
			s.mixes[stmt.Batch] = make(map[int]MixRecord)
		}
		s.mixes[stmt.Batch][stmt.MixNumber] = MixRecord{Hash: stmt.MixHash, Source: stmt.SourceHash, Artifact: m, Signer: stmt.Signer}

	case message.KindMixSigned:
		if s.mixSignedBy[stmt.Batch] == nil {
			s.mixSignedBy[stmt.Batch] = make(map[int]map[types.Position]struct{})
		}
		if s.mixSignedBy[stmt.Batch][stmt.MixNumber] == nil {
			s.mixSignedBy[stmt.Batch][stmt.MixNumber] = make(map[types.Position]struct{})
		}
		s.mixSignedBy[stmt.Batch][stmt.MixNumber][stmt.Signer] = struct{}{}

	case message.KindDecryptionFactors:
		d, err := artifact.DecodeDecryptionFactors(artifactBytes)
		if err != nil {
			return fmt.Errorf("store: decoding decryption factors artifact: %w", err)
		}
		if len(d.Factors) != len(d.Proofs) {
			return types.NewDatalogError(types.WrongArtifactCount, s.cfgHash, stmt.Batch,
				"decryption factors from %s carry %d factors but %d proofs", stmt.Signer, len(d.Factors), len(d.Proofs))
		}
		if s.decryptionFactors[stmt.Batch] == nil {
			s.decryptionFactors[stmt.Batch] = make(map[types.Position]DecryptionFactorsRecord)
		}
		s.decryptionFactors[stmt.Batch][stmt.Signer] = DecryptionFactorsRecord{Hash: stmt.DecryptionFactorsHash, Artifact: d, Signer: stmt.Signer}

	case message.KindPlaintexts:
		p, err := artifact.DecodePlaintexts(artifactBytes)
		if err != nil {
			return fmt.Errorf("store: decoding plaintexts artifact: %w", err)
		}
		s.plaintexts[stmt.Batch] = PlaintextsRecord{Hash: stmt.PlaintextsHash, Artifact: p, Signer: stmt.Signer}

	case message.KindPlaintextsSigned:
		if s.plaintextsSignedBy[stmt.Batch] == nil {
			s.plaintextsSignedBy[stmt.Batch] = make(map[types.Position]struct{})
		}
		s.plaintextsSignedBy[stmt.Batch][stmt.Signer] = struct{}{}
	}
	return nil
}
