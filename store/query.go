// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"github.com/sequentech/braid/artifact"
	"github.com/sequentech/braid/types"
)

// The methods in this file are the read side of the local store: the
// predicate set the protocol driver evaluates against (spec.md §4.1's
// relations table). Each is a plain index lookup, per the design note
// that stratified evaluation needs only monotonic lookups, not a
// general Datalog engine.

// ConfigurationSignedBy reports whether p has posted ConfigurationSigned.
func (s *Store) ConfigurationSignedBy(p types.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.configurationSigned[p]
	return ok
}

// ConfigurationSignedCount returns how many trustees have signed the configuration.
func (s *Store) ConfigurationSignedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.configurationSigned)
}

// Channel returns the channel hash posted by trustee p, if any.
func (s *Store) Channel(p types.Position) (types.Hash, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.channels[p]
	return h, ok
}

// ChannelsAll returns the N channel hashes in position order, and
// false if any trustee has not yet posted one.
func (s *Store) ChannelsAll() ([]types.Hash, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Hash, s.cfg.N())
	for i := 0; i < s.cfg.N(); i++ {
		h, ok := s.channels[types.Position(i)]
		if !ok {
			return nil, false
		}
		out[i] = h
	}
	return out, true
}

// ChannelsSignedBy returns the channel-hash vector trustee p attested
// to via ChannelsSigned.
func (s *Store) ChannelsSignedBy(p types.Position) ([]types.Hash, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hs, ok := s.channelsSignedBy[p]
	return hs, ok
}

// ChannelsSignedCount returns the number of trustees who have signed a
// ChannelsSigned statement matching want, the full channel hash vector.
func (s *Store) ChannelsSignedCount(want []types.Hash) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, hs := range s.channelsSignedBy {
		if hashVectorsEqual(hs, want) {
			n++
		}
	}
	return n
}

func hashVectorsEqual(a, b []types.Hash) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ChannelArtifact returns the decoded Channel artifact for a given hash.
func (s *Store) ChannelArtifact(h types.Hash) (artifact.Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.channelArtifacts[h]
	return a, ok
}

// Shares returns the shares hash posted by trustee p, if any.
func (s *Store) Shares(p types.Position) (types.Hash, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.shares[p]
	return h, ok
}

// SharesAll returns the N shares hashes in position order, and false
// if any dealer has not yet posted one.
func (s *Store) SharesAll() ([]types.Hash, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Hash, s.cfg.N())
	for i := 0; i < s.cfg.N(); i++ {
		h, ok := s.shares[types.Position(i)]
		if !ok {
			return nil, false
		}
		out[i] = h
	}
	return out, true
}

// SharesArtifact returns the decoded Shares artifact for a given hash.
func (s *Store) SharesArtifact(h types.Hash) (artifact.Shares, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.sharesArtifact[h]
	return a, ok
}

// PublicKey returns the indexed joint public key record, if posted.
func (s *Store) PublicKey() (PublicKeyRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.publicKey == nil {
		return PublicKeyRecord{}, false
	}
	return *s.publicKey, true
}

// PublicKeySignedBy reports whether p has signed the public key.
func (s *Store) PublicKeySignedBy(p types.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.publicKeySignedBy[p]
	return ok
}

// PublicKeySignedCount returns how many trustees have signed the public key.
func (s *Store) PublicKeySignedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.publicKeySignedBy)
}

// Ballots returns the indexed ballots record for batch, if posted.
func (s *Store) Ballots(batch int64) (BallotsRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.ballots[batch]
	return b, ok
}

// Mix returns the indexed mix record for (batch, mixNumber), if posted.
func (s *Store) Mix(batch int64, mixNumber int) (MixRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mixes[batch][mixNumber]
	return m, ok
}

// MixChainComplete reports whether mixes 0..T-1 all exist for batch,
// and returns the final mix's ciphertext hash.
func (s *Store) MixChainComplete(batch int64, threshold int) (types.Hash, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byNum := s.mixes[batch]
	if len(byNum) < threshold {
		return types.Hash{}, false
	}
	for n := 0; n < threshold; n++ {
		if _, ok := byNum[n]; !ok {
			return types.Hash{}, false
		}
	}
	return byNum[threshold-1].Hash, true
}

// MixSignedBy reports whether p has signed mix (batch, mixNumber).
func (s *Store) MixSignedBy(batch int64, mixNumber int, p types.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.mixSignedBy[batch][mixNumber][p]
	return ok
}

// MixSignedCount returns how many trustees have signed mix (batch, mixNumber).
func (s *Store) MixSignedCount(batch int64, mixNumber int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mixSignedBy[batch][mixNumber])
}

// DecryptionFactors returns trustee p's indexed decryption-factors
// record for batch, if posted.
func (s *Store) DecryptionFactors(batch int64, p types.Position) (DecryptionFactorsRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.decryptionFactors[batch][p]
	return d, ok
}

// DecryptionFactorsBy returns every trustee's decryption-factors
// record for batch, keyed by position.
func (s *Store) DecryptionFactorsBy(batch int64) map[types.Position]DecryptionFactorsRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[types.Position]DecryptionFactorsRecord, len(s.decryptionFactors[batch]))
	for p, d := range s.decryptionFactors[batch] {
		out[p] = d
	}
	return out
}

// DecryptionFactorsCount returns how many trustees have posted
// decryption factors for batch.
func (s *Store) DecryptionFactorsCount(batch int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.decryptionFactors[batch])
}

// Plaintexts returns the indexed plaintexts record for batch, if posted.
func (s *Store) Plaintexts(batch int64) (PlaintextsRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plaintexts[batch]
	return p, ok
}

// PlaintextsSignedBy reports whether p has signed the plaintexts for batch.
func (s *Store) PlaintextsSignedBy(batch int64, p types.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.plaintextsSignedBy[batch][p]
	return ok
}

// PlaintextsSignedCount returns how many trustees have signed the
// plaintexts for batch.
func (s *Store) PlaintextsSignedCount(batch int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plaintextsSignedBy[batch])
}

// Batches returns every batch number with a posted Ballots artifact,
// in ascending order.
func (s *Store) Batches() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.ballots))
	for b := range s.ballots {
		out = append(out, b)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Artifact returns raw artifact bytes previously ingested under the
// exact (hash, sender, batch, subIdx) key, satisfying invariant I1: a
// caller never reads an artifact without knowing who is on the hook
// for it.
func (s *Store) Artifact(hash types.Hash, sender types.Position, batch int64, subIdx int64) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.artifacts[artifactKey{hash: hash, sender: sender, batch: batch, subIdx: subIdx}]
	return b, ok
}
