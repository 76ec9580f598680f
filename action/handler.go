// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"fmt"

	"go.dedis.ch/kyber/v3"

	"github.com/sequentech/braid/crypto/channel"
	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/log"
	"github.com/sequentech/braid/message"
	"github.com/sequentech/braid/metrics"
	"github.com/sequentech/braid/predicate"
	"github.com/sequentech/braid/store"
	"github.com/sequentech/braid/types"
)

// Handler executes the actions predicate.Drive assigns to one trustee,
// reading whatever it needs from the local store and returning the
// signed messages a session should post. Handlers never touch the
// board and never mutate the store: posting and ingestion both happen
// one layer up, in package session.
type Handler struct {
	Suite        group.Suite
	Store        *store.Store
	Self         types.Position
	SigningKey   kyber.Scalar
	SymmetricKey [32]byte
	Cache        Cache
	Log          log.Logger
	Metrics      *metrics.Metrics
}

// New builds a Handler. cache may be a *MemoryCache or any other Cache
// implementation; logger and m may be nil (log.NewNop() and a nil
// *metrics.Metrics are both valid zero-cost defaults).
func New(s group.Suite, st *store.Store, self types.Position, signingKey kyber.Scalar, symmetricKey [32]byte, cache Cache, logger log.Logger, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Handler{
		Suite: s, Store: st, Self: self, SigningKey: signingKey,
		SymmetricKey: symmetricKey, Cache: cache, Log: logger, Metrics: m,
	}
}

// Execute dispatches a to the handler method matching its Kind.
func (h *Handler) Execute(a predicate.Action) ([]message.Message, error) {
	var (
		msgs []message.Message
		err  error
	)
	switch a.Kind {
	case predicate.ActionSignConfiguration:
		msgs, err = h.SignConfiguration(a)
	case predicate.ActionGenChannel:
		msgs, err = h.GenChannel(a)
	case predicate.ActionSignChannels:
		msgs, err = h.SignChannels(a)
	case predicate.ActionComputeShares:
		msgs, err = h.ComputeShares(a)
	case predicate.ActionComputePublicKey:
		msgs, err = h.ComputePublicKey(a)
	case predicate.ActionSignPublicKey:
		msgs, err = h.SignPublicKey(a)
	case predicate.ActionMix:
		msgs, err = h.Mix(a)
	case predicate.ActionSignMix:
		msgs, err = h.SignMix(a)
	case predicate.ActionComputeDecryptionFactors:
		msgs, err = h.ComputeDecryptionFactors(a)
	case predicate.ActionComputePlaintexts:
		msgs, err = h.ComputePlaintexts(a)
	case predicate.ActionSignPlaintexts:
		msgs, err = h.SignPlaintexts(a)
	default:
		return nil, fmt.Errorf("action: unknown action kind %v", a.Kind)
	}
	if h.Metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		h.Metrics.ActionExecuted(a.Kind.String(), outcome)
	}
	return msgs, err
}

// build signs stmt over artifactBytes with the handler's signing key.
func (h *Handler) build(stmt message.Statement, artifactBytes []byte) (message.Message, error) {
	stmt.Signer = h.Self
	m, err := message.Build(h.Suite, h.SigningKey, stmt, artifactBytes)
	if err != nil {
		return message.Message{}, fmt.Errorf("action: signing %s statement: %w", stmt.Kind, err)
	}
	return m, nil
}

// ownChannelSecret recovers this trustee's channel private key. Once a
// Channel artifact has been posted and ingested, the store is ground
// truth (per DESIGN.md, the EncryptedSecret field posted to the board
// is how a restarted trustee recovers this key without ever persisting
// it in the clear). Before that first post is confirmed, it falls back
// to the pending cache entry GenChannel wrote.
func (h *Handler) ownChannelSecret(cfgHash types.Hash) (kyber.Scalar, error) {
	if hash, ok := h.Store.Channel(h.Self); ok {
		art, ok := h.Store.ChannelArtifact(hash)
		if !ok {
			return nil, fmt.Errorf("action: own channel %s posted but artifact not indexed", hash)
		}
		return channel.DecryptSecretAtRest(h.Suite, h.SymmetricKey, art.EncryptedSecret)
	}
	b, ok, err := h.Cache.Load(cfgHash, cacheKeyChannel)
	if err != nil {
		return nil, fmt.Errorf("action: loading pending channel: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("action: no channel posted or pending for self")
	}
	art, err := decodeChannel(b)
	if err != nil {
		return nil, err
	}
	return channel.DecryptSecretAtRest(h.Suite, h.SymmetricKey, art.EncryptedSecret)
}

const (
	cacheKeyChannel = "channel"
	cacheKeyShares  = "shares"
)

func cacheKeyMix(batch int64, mixNumber int) string {
	return fmt.Sprintf("mix|%d|%d", batch, mixNumber)
}

func cacheKeyDecryptionFactors(batch int64) string {
	return fmt.Sprintf("decryption-factors|%d", batch)
}
