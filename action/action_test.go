// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package action_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sequentech/braid/action"
	"github.com/sequentech/braid/artifact"
	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/log"
	"github.com/sequentech/braid/message"
	"github.com/sequentech/braid/predicate"
	"github.com/sequentech/braid/types"
)

func newHandler(t *testing.T, cache action.Cache) (*action.Handler, group.Suite) {
	t.Helper()
	suite, err := group.Resolve(types.GroupEdwards25519)
	require.NoError(t, err)
	priv := group.RandomScalar(suite)
	var sym [32]byte
	copy(sym[:], []byte("0123456789abcdef0123456789abcdef"))
	h := action.New(suite, nil, types.Position(1), priv, sym, cache, log.NewNop(), nil)
	return h, suite
}

func TestSignConfigurationProducesVerifiableMessage(t *testing.T) {
	require := require.New(t)

	h, suite := newHandler(t, action.NewMemoryCache())
	pubPoint := suite.Point().Mul(h.SigningKey, nil)

	var cfgHash types.Hash
	cfgHash[0] = 0xAB

	msgs, err := h.SignConfiguration(predicate.Action{Kind: predicate.ActionSignConfiguration, ConfigurationHash: cfgHash, Batch: -1})
	require.NoError(err)
	require.Len(msgs, 1)

	msg := msgs[0]
	require.Equal(message.KindConfigurationSigned, msg.Statement.Kind)
	require.Equal(cfgHash, msg.Statement.ConfigurationHash)
	require.Equal(h.Self, msg.Statement.Signer)
	require.NoError(message.VerifyMessage(suite, pubPoint, msg))

	// A mutated statement must fail verification.
	tampered := msg.Statement
	tampered.ConfigurationHash[0] ^= 0xFF
	require.Error(message.VerifyMessage(suite, pubPoint, message.Message{Statement: tampered, Signature: msg.Signature}))
}

func TestGenChannelIsIdempotentUntilPosted(t *testing.T) {
	require := require.New(t)

	cache := action.NewMemoryCache()
	h, suite := newHandler(t, cache)
	pubPoint := suite.Point().Mul(h.SigningKey, nil)

	var cfgHash types.Hash
	cfgHash[1] = 0x01

	a := predicate.Action{Kind: predicate.ActionGenChannel, ConfigurationHash: cfgHash, Batch: -1}

	first, err := h.GenChannel(a)
	require.NoError(err)
	require.Len(first, 1)
	require.NoError(message.VerifyMessage(suite, pubPoint, first[0]))

	// A second call before the first is ever posted must reuse the
	// cached artifact bytes verbatim: same channel key, same hash.
	second, err := h.GenChannel(a)
	require.NoError(err)
	require.Equal(first[0].ArtifactBytes, second[0].ArtifactBytes)
	require.Equal(first[0].Statement.ChannelHash, second[0].Statement.ChannelHash)

	ch, err := artifact.DecodeChannel(first[0].ArtifactBytes)
	require.NoError(err)
	require.Equal(ch.Hash(), first[0].Statement.ChannelHash)
}

func TestSignChannelsCarriesHashVector(t *testing.T) {
	require := require.New(t)

	h, suite := newHandler(t, action.NewMemoryCache())
	pubPoint := suite.Point().Mul(h.SigningKey, nil)

	var cfgHash types.Hash
	hashes := []types.Hash{{0x01}, {0x02}, {0x03}}

	a := predicate.Action{Kind: predicate.ActionSignChannels, ConfigurationHash: cfgHash, Batch: -1, ChannelHashes: hashes}
	msgs, err := h.SignChannels(a)
	require.NoError(err)
	require.Len(msgs, 1)
	require.Equal(hashes, msgs[0].Statement.ChannelHashes)
	require.NoError(message.VerifyMessage(suite, pubPoint, msgs[0]))
}

func TestExecuteDispatchesByKind(t *testing.T) {
	require := require.New(t)

	h, _ := newHandler(t, action.NewMemoryCache())
	var cfgHash types.Hash

	msgs, err := h.Execute(predicate.Action{Kind: predicate.ActionSignConfiguration, ConfigurationHash: cfgHash, Batch: -1})
	require.NoError(err)
	require.Len(msgs, 1)

	_, err = h.Execute(predicate.Action{Kind: predicate.ActionKind(255), ConfigurationHash: cfgHash, Batch: -1})
	require.Error(err)
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	require := require.New(t)

	c := action.NewMemoryCache()
	var cfgHash types.Hash
	cfgHash[0] = 9

	_, ok, err := c.Load(cfgHash, "missing")
	require.NoError(err)
	require.False(ok)

	require.NoError(c.Save(cfgHash, "key", []byte("payload")))
	b, ok, err := c.Load(cfgHash, "key")
	require.NoError(err)
	require.True(ok)
	require.Equal([]byte("payload"), b)
}
