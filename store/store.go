// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store implements the per-trustee local store: a
// content-addressed cache of verified artifacts plus the typed
// indices the protocol driver reads as its predicate set (spec.md §3
// "Local store", §4.4). Ingestion is the only place verification
// happens; once a message is in the store, every invariant in §3 (I1-I4)
// holds for it.
package store

import (
	"fmt"
	"sync"

	"github.com/sequentech/braid/artifact"
	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/log"
	"github.com/sequentech/braid/message"
	"github.com/sequentech/braid/metrics"
	"github.com/sequentech/braid/types"
)

// artifactKey is the composite key artifacts are addressed by:
// (hash, expected sender, optional batch/mix index). Using the triple
// as the key — rather than the hash alone — means a lookup only finds
// an artifact under the sender and batch it was posted for; a
// byte-identical artifact replayed under a different sender or batch
// is stored as a separate entry, not rejected.
type artifactKey struct {
	hash    types.Hash
	sender  types.Position
	batch   int64 // -1 if not batch-scoped
	subIdx  int64 // mix number, or -1
}

// Store is one trustee's local view of a single board's messages.
// It is not safe for concurrent use by more than one session (spec.md
// §5 "Shared-resource policy"); a session owns its store exclusively.
type Store struct {
	mu sync.Mutex

	cfg     types.Configuration
	cfgHash types.Hash
	suite   group.Suite
	log     log.Logger
	metrics *metrics.Metrics

	artifacts  map[artifactKey][]byte
	signatures map[types.Hash]map[types.Position][]byte // statement hash -> signer -> sig

	// Typed indices, populated only once the corresponding signature(s)
	// verify — these are exactly the "predicates" of spec.md §4.1.
	configurationSigned map[types.Position]struct{}

	channels         map[types.Position]types.Hash
	channelArtifacts map[types.Hash]artifact.Channel
	channelsSignedBy map[types.Position][]types.Hash // the hash vector each signer signed

	shares         map[types.Position]types.Hash
	sharesArtifact map[types.Hash]artifact.Shares

	publicKey         *PublicKeyRecord
	publicKeySignedBy map[types.Position]struct{}

	ballots map[int64]BallotsRecord

	mixes       map[int64]map[int]MixRecord // batch -> mix number -> record
	mixSignedBy map[int64]map[int]map[types.Position]struct{}

	decryptionFactors map[int64]map[types.Position]DecryptionFactorsRecord

	plaintexts        map[int64]PlaintextsRecord
	plaintextsSignedBy map[int64]map[types.Position]struct{}
}

// New builds an empty store for the given, already-validated configuration.
func New(cfg types.Configuration, suite group.Suite, logger log.Logger, m *metrics.Metrics) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		cfg:                  cfg,
		cfgHash:              artifact.FromConfiguration(cfg).Hash(),
		suite:                suite,
		log:                  logger,
		metrics:              m,
		artifacts:            make(map[artifactKey][]byte),
		signatures:           make(map[types.Hash]map[types.Position][]byte),
		configurationSigned:  make(map[types.Position]struct{}),
		channels:             make(map[types.Position]types.Hash),
		channelArtifacts:     make(map[types.Hash]artifact.Channel),
		channelsSignedBy:     make(map[types.Position][]types.Hash),
		shares:               make(map[types.Position]types.Hash),
		sharesArtifact:       make(map[types.Hash]artifact.Shares),
		publicKeySignedBy:    make(map[types.Position]struct{}),
		ballots:              make(map[int64]BallotsRecord),
		mixes:                make(map[int64]map[int]MixRecord),
		mixSignedBy:          make(map[int64]map[int]map[types.Position]struct{}),
		decryptionFactors:    make(map[int64]map[types.Position]DecryptionFactorsRecord),
		plaintexts:           make(map[int64]PlaintextsRecord),
		plaintextsSignedBy:   make(map[int64]map[types.Position]struct{}),
	}
}

// Configuration returns the store's configuration and its hash.
func (s *Store) Configuration() (types.Configuration, types.Hash) { return s.cfg, s.cfgHash }

// Suite returns the resolved cryptographic suite for this store's configuration.
func (s *Store) Suite() group.Suite { return s.suite }

// Ingest validates and applies m, recording its artifact and signature
// and, on success, updating the typed predicate indices. A rejected
// message is never added to the store (spec.md §4.4); the error
// explains why, and the caller should log it alongside the statement
// hash and expected sender, per §7.
func (s *Store) Ingest(m message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingestLocked(m)
}

func (s *Store) ingestLocked(m message.Message) error {
	stmt := m.Statement
	if stmt.ConfigurationHash != s.cfgHash {
		s.reject("wrong-configuration")
		return fmt.Errorf("store: statement configuration %s does not match store configuration %s", stmt.ConfigurationHash, s.cfgHash)
	}

	pub, err := resolveKeyForStatement(s.suite, s.cfg, stmt)
	if err != nil {
		s.reject("unknown-signer")
		return fmt.Errorf("store: resolving signer key: %w", err)
	}
	if err := message.Verify(s.suite, pub, stmt, m.Signature); err != nil {
		s.reject("bad-signature")
		return err
	}

	if len(m.ArtifactBytes) > 0 {
		h := artifactHashForStatement(stmt)
		if h != types.ZeroHash && artifact.Hash(m.ArtifactBytes) != h {
			s.reject("artifact-hash-mismatch")
			return fmt.Errorf("store: artifact bytes do not hash to the statement's declared hash")
		}
	}

	if err := s.applyStructural(stmt); err != nil {
		s.reject("structural")
		return err
	}

	stmtHash := stmt.Hash()
	if _, dup := s.signatures[stmtHash][stmt.Signer]; dup {
		// Idempotent re-ingestion: already known, no-op.
		return nil
	}

	if err := s.index(stmt, m.ArtifactBytes); err != nil {
		s.reject("index")
		return err
	}

	if s.signatures[stmtHash] == nil {
		s.signatures[stmtHash] = make(map[types.Position][]byte)
	}
	s.signatures[stmtHash][stmt.Signer] = m.Signature

	if len(m.ArtifactBytes) > 0 {
		key := artifactKey{hash: artifactHashForStatement(stmt), sender: stmt.Signer, batch: batchOf(stmt), subIdx: subIdxOf(stmt)}
		s.artifacts[key] = m.ArtifactBytes
	}

	s.metrics.IngestOK(stmt.Kind.String())
	s.log.Debug("ingested message", "kind", stmt.Kind.String(), "signer", stmt.Signer.String(), "cfg", s.cfgHash.String())
	return nil
}

func (s *Store) reject(reason string) {
	s.metrics.IngestRejected(reason)
}

func batchOf(stmt message.Statement) int64 {
	switch stmt.Kind {
	case message.KindBallots, message.KindMix, message.KindMixSigned,
		message.KindDecryptionFactors, message.KindPlaintexts, message.KindPlaintextsSigned:
		return stmt.Batch
	default:
		return -1
	}
}

func subIdxOf(stmt message.Statement) int64 {
	if stmt.Kind == message.KindMix || stmt.Kind == message.KindMixSigned {
		return int64(stmt.MixNumber)
	}
	return -1
}

// artifactHashForStatement returns the hash the posted artifact bytes
// must match for kinds that carry fresh artifact bytes; "Signed"
// statements and Configuration carry no independent artifact (they
// attest to one posted by someone else), so this returns ZeroHash and
// the byte-equality check is skipped.
func artifactHashForStatement(stmt message.Statement) types.Hash {
	switch stmt.Kind {
	case message.KindChannel:
		return stmt.ChannelHash
	case message.KindShares:
		return stmt.SharesHash
	case message.KindPublicKey:
		return stmt.PublicKeyHash
	case message.KindBallots:
		return stmt.BallotsHash
	case message.KindMix:
		return stmt.MixHash
	case message.KindDecryptionFactors:
		return stmt.DecryptionFactorsHash
	case message.KindPlaintexts:
		return stmt.PlaintextsHash
	default:
		return types.ZeroHash
	}
}
