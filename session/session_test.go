// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package session_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sequentech/braid/action"
	"github.com/sequentech/braid/artifact"
	"github.com/sequentech/braid/board"
	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/message"
	"github.com/sequentech/braid/session"
	"github.com/sequentech/braid/types"
)

// fakeBoard is a minimal, in-process board.Client for exercising a
// Session without any transport. Not meant to be a general-purpose
// test double: each test constructs exactly the board state it needs.
type fakeBoard struct {
	mu       sync.Mutex
	messages []board.Message
	nextID   int64
	putCount int
}

func (b *fakeBoard) GetBoards(ctx context.Context) ([]string, error) {
	return []string{"election-1"}, nil
}

func (b *fakeBoard) GetMessagesMulti(ctx context.Context, cursors []board.Cursor) ([]board.BoardMessages, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []board.Message
	for _, c := range cursors {
		if c.Board != "election-1" {
			continue
		}
		for _, m := range b.messages {
			if m.ID > c.LastID {
				out = append(out, m)
			}
		}
	}
	return []board.BoardMessages{{Board: "election-1", Messages: out}}, nil
}

func (b *fakeBoard) PutMessagesMulti(ctx context.Context, batches []board.BoardMessages) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, bm := range batches {
		for _, m := range bm.Messages {
			b.nextID++
			m.ID = b.nextID
			b.messages = append(b.messages, m)
			b.putCount++
		}
	}
	return nil
}

// buildConfigBoard seeds a fakeBoard with a signed Configuration
// message for n trustees and returns the board, the configuration, and
// the raw private key bytes for each trustee.
func buildConfigBoard(t *testing.T, n, threshold int) (*fakeBoard, types.Configuration, [][]byte) {
	t.Helper()
	require := require.New(t)

	suite, err := group.Resolve(types.GroupEdwards25519)
	require.NoError(err)

	managerPriv := group.RandomScalar(suite)
	managerPub, err := group.MarshalPoint(suite.Point().Mul(managerPriv, nil))
	require.NoError(err)

	trusteeKeyBytes := make([][]byte, n)
	trusteePub := make([][]byte, n)
	for i := 0; i < n; i++ {
		priv := group.RandomScalar(suite)
		privBytes, err := group.MarshalScalar(priv)
		require.NoError(err)
		trusteeKeyBytes[i] = privBytes
		pub, err := group.MarshalPoint(suite.Point().Mul(priv, nil))
		require.NoError(err)
		trusteePub[i] = pub
	}

	cfg := types.Configuration{ManagerKey: managerPub, TrusteeKeys: trusteePub, Threshold: threshold, Group: types.GroupEdwards25519}
	require.NoError(cfg.Validate())

	art := artifact.FromConfiguration(cfg)
	stmt := message.Statement{Kind: message.KindConfiguration, ConfigurationHash: art.Hash()}
	msg, err := message.Build(suite, managerPriv, stmt, art.Encode())
	require.NoError(err)

	b := &fakeBoard{}
	require.NoError(b.PutMessagesMulti(context.Background(), []board.BoardMessages{
		{Board: "election-1", Messages: []board.Message{{Bytes: msg.Encode(), Version: "braid/1"}}},
	}))
	return b, cfg, trusteeKeyBytes
}

func TestSessionBootstrapsAndSignsConfiguration(t *testing.T) {
	require := require.New(t)

	b, _, trusteeKeys := buildConfigBoard(t, 2, 2)

	var symKey [32]byte
	sess := session.New(b, "election-1", trusteeKeys[0], symKey, action.NewMemoryCache(), nil, nil)

	require.NoError(sess.Step(context.Background()))
	require.Equal(1, b.putCount)

	// A second step before the other trustee signs posts nothing new:
	// ConfigurationSigned has already been posted by trustee 0.
	require.NoError(sess.Step(context.Background()))
	require.Equal(1, b.putCount)
}

func TestSessionStepRejectsUnauthorizedTrustee(t *testing.T) {
	require := require.New(t)

	b, _, _ := buildConfigBoard(t, 2, 2)

	suite, err := group.Resolve(types.GroupEdwards25519)
	require.NoError(err)
	strangerPriv := group.RandomScalar(suite)
	strangerBytes, err := group.MarshalScalar(strangerPriv)
	require.NoError(err)

	var symKey [32]byte
	sess := session.New(b, "election-1", strangerBytes, symKey, action.NewMemoryCache(), nil, nil)

	err = sess.Step(context.Background())
	require.ErrorIs(err, types.ErrNotAuthorized)
}
