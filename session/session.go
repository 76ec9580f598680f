// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package session implements the per-board step loop (spec.md §4.5):
// receive from the board, ingest into the local store, derive actions
// from the driver, execute them, and post the resulting messages back.
package session

import (
	"context"
	"fmt"
	"time"

	"go.dedis.ch/kyber/v3"

	"github.com/sequentech/braid/action"
	"github.com/sequentech/braid/artifact"
	"github.com/sequentech/braid/board"
	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/log"
	"github.com/sequentech/braid/message"
	"github.com/sequentech/braid/metrics"
	"github.com/sequentech/braid/predicate"
	"github.com/sequentech/braid/store"
	"github.com/sequentech/braid/types"
)

const messageVersion = "braid/1"

// Session drives one board for one trustee: a local store, pinned at
// the first decodable configuration message posted to the board, and the
// cryptographic handler that executes the driver's actions against it.
// A Session is not safe for concurrent use; one goroutine owns it, per
// spec.md §5 "Shared-resource policy".
type Session struct {
	Board           board.Client
	BoardName       string
	SigningKeyBytes []byte
	SymmetricKey    [32]byte
	Cache           action.Cache
	Log             log.Logger
	Metrics         *metrics.Metrics

	store      *store.Store
	self       types.Position
	signingKey kyber.Scalar
	lastID     int64
}

// New returns a session that has not yet bootstrapped against the
// board; the first call to Step fetches and pins the configuration.
// signingKeyBytes is unmarshaled against the board's posted group once
// it is known (see bootstrap); a kyber.Scalar cannot be resolved
// before then since the concrete group is a property of that
// configuration, not of the trustee.
func New(client board.Client, boardName string, signingKeyBytes []byte, symmetricKey [32]byte, cache action.Cache, logger log.Logger, m *metrics.Metrics) *Session {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Session{
		Board: client, BoardName: boardName, SigningKeyBytes: signingKeyBytes,
		SymmetricKey: symmetricKey, Cache: cache, Log: logger, Metrics: m,
	}
}

// bootstrap fetches every message posted so far, locates the
// KindConfiguration statement the protocol manager must post first,
// resolves this trustee's Position by matching its own public key
// against the configuration's trustee keys, and builds the local
// store. It returns types.ErrNotAuthorized if no such match exists —
// the caller should add the board to its permanent ignore list
// (spec.md §7 "Authorization errors").
func (s *Session) bootstrap(ctx context.Context, initial []board.Message) error {
	var cfg types.Configuration
	found := false
	for _, m := range initial {
		msg, err := message.Decode(m.Bytes)
		if err != nil {
			continue
		}
		if msg.Statement.Kind != message.KindConfiguration {
			continue
		}
		art, err := artifact.DecodeConfiguration(msg.ArtifactBytes)
		if err != nil {
			continue
		}
		cfg = art.ToTypes()
		found = true
		break
	}
	if !found {
		return fmt.Errorf("session: board %q has not posted a configuration yet", s.BoardName)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("session: board %q posted an invalid configuration: %w", s.BoardName, err)
	}

	suite, err := group.Resolve(cfg.Group)
	if err != nil {
		return fmt.Errorf("session: resolving group: %w", err)
	}
	signingKey, err := group.UnmarshalScalar(suite, s.SigningKeyBytes)
	if err != nil {
		return fmt.Errorf("session: unmarshaling signing key: %w", err)
	}
	self, err := resolveSelf(suite, cfg, signingKey)
	if err != nil {
		return fmt.Errorf("%w: board %q: %v", types.ErrNotAuthorized, s.BoardName, err)
	}

	s.store = store.New(cfg, suite, s.Log, s.Metrics)
	s.self = self
	s.signingKey = signingKey
	return nil
}

// resolveSelf finds the Position whose configured verification key
// matches priv's public key.
func resolveSelf(suite group.Suite, cfg types.Configuration, priv kyber.Scalar) (types.Position, error) {
	pub := suite.Point().Mul(priv, nil)
	pubBytes, err := group.MarshalPoint(pub)
	if err != nil {
		return 0, err
	}
	for i, k := range cfg.TrusteeKeys {
		if bytesEqual(k, pubBytes) {
			return types.Position(i), nil
		}
	}
	return 0, types.ErrNotAuthorized
}

func bytesEqual(a, b []byte) bool {
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

// Step runs one iteration: fetch new messages, ingest them, derive and
// execute actions, and post the resulting messages. It recovers from
// panics, converting them into a types.ErrInternal error so the outer
// loop can discard this session and restart it with a fresh store
// (spec.md §7 "Internal invariant violations").
func (s *Session) Step(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: session panic: %v", types.ErrInternal, r)
		}
	}()

	start := time.Now()
	defer func() { s.Metrics.ObserveStep(time.Since(start).Seconds()) }()

	fetched, err := s.Board.GetMessagesMulti(ctx, []board.Cursor{{Board: s.BoardName, LastID: s.lastID}})
	if err != nil {
		s.Metrics.BoardPollFailed()
		return fmt.Errorf("session: fetching board %q: %w", s.BoardName, err)
	}
	var incoming []board.Message
	for _, bm := range fetched {
		if bm.Board == s.BoardName {
			incoming = bm.Messages
			break
		}
	}

	if s.store == nil {
		if err := s.bootstrap(ctx, incoming); err != nil {
			return err
		}
	}

	outgoing, err := s.ingestAndDrive(incoming)
	if err != nil {
		return err
	}
	if len(outgoing) == 0 {
		return nil
	}
	return s.Board.PutMessagesMulti(ctx, []board.BoardMessages{{Board: s.BoardName, Messages: outgoing}})
}

// ingestAndDrive consumes incoming, advances the cursor, runs the
// driver, executes every emitted action, and returns the resulting
// board messages ready to post.
func (s *Session) ingestAndDrive(incoming []board.Message) ([]board.Message, error) {
	for _, m := range incoming {
		msg, err := message.Decode(m.Bytes)
		if err != nil {
			s.Log.Warn("session: undecodable message", "board", s.BoardName, "id", m.ID, "error", err)
			s.Metrics.IngestRejected("undecodable")
		} else if err := s.store.Ingest(msg); err != nil {
			s.Log.Warn("session: rejected message",
				"board", s.BoardName, "id", m.ID, "kind", msg.Statement.Kind.String(),
				"signer", msg.Statement.Signer.String(), "statement", msg.Statement.Hash().String(),
				"artifact", artifact.Hash(msg.ArtifactBytes).String(), "error", err)
		} else {
			s.Metrics.IngestOK(msg.Statement.Kind.String())
		}
		if m.ID > s.lastID {
			s.lastID = m.ID
		}
	}

	h := action.New(s.store.Suite(), s.store, s.self, s.signingKey, s.SymmetricKey, s.Cache, s.Log, s.Metrics)

	result := predicate.Drive(s.store, s.self)
	for _, derr := range result.Errors {
		s.Log.Error("session: structural violation", "board", s.BoardName, "error", derr)
	}

	var outgoing []board.Message
	for _, a := range result.Actions {
		s.Metrics.ActionEmitted(a.Kind.String())
		msgs, err := h.Execute(a)
		if err != nil {
			s.Log.Error("session: action failed", "board", s.BoardName, "kind", a.Kind.String(), "error", err)
			continue
		}
		for _, msg := range msgs {
			outgoing = append(outgoing, board.Message{Bytes: msg.Encode(), Version: messageVersion})
		}
	}
	return outgoing, nil
}
