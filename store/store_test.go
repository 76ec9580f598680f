// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/kyber/v3"

	"github.com/sequentech/braid/artifact"
	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/message"
	"github.com/sequentech/braid/types"
)

type testTrustee struct {
	priv kyber.Scalar
	pub  kyber.Point
}

func newTestConfiguration(t *testing.T, n, threshold int) (types.Configuration, group.Suite, []testTrustee) {
	t.Helper()
	suite, err := group.Resolve(types.GroupEdwards25519)
	require.NoError(t, err)

	manager := testTrustee{}
	manager.priv, manager.pub = group.RandomScalar(suite), nil
	manager.pub = suite.Point().Mul(manager.priv, nil)

	trustees := make([]testTrustee, n)
	keys := make([][]byte, n)
	for i := range trustees {
		trustees[i].priv = group.RandomScalar(suite)
		trustees[i].pub = suite.Point().Mul(trustees[i].priv, nil)
		b, err := group.MarshalPoint(trustees[i].pub)
		require.NoError(t, err)
		keys[i] = b
	}
	mgrBytes, err := group.MarshalPoint(manager.pub)
	require.NoError(t, err)

	cfg := types.Configuration{
		ManagerKey:  mgrBytes,
		TrusteeKeys: keys,
		Threshold:   threshold,
		Group:       types.GroupEdwards25519,
	}
	require.NoError(t, cfg.Validate())
	return cfg, suite, append([]testTrustee{manager}, trustees...)
}

func buildConfigurationMessage(t *testing.T, s group.Suite, cfg types.Configuration, managerPriv kyber.Scalar) message.Message {
	t.Helper()
	cfgHash := artifact.FromConfiguration(cfg).Hash()
	stmt := message.Statement{Kind: message.KindConfiguration, ConfigurationHash: cfgHash}
	m, err := message.Build(s, managerPriv, stmt, artifact.FromConfiguration(cfg).Encode())
	require.NoError(t, err)
	return m
}

func TestIngestConfigurationAndSignatures(t *testing.T) {
	cfg, suite, trustees := newTestConfiguration(t, 3, 2)
	cfgHash := artifact.FromConfiguration(cfg).Hash()
	st := New(cfg, suite, nil, nil)

	require.NoError(t, st.Ingest(buildConfigurationMessage(t, suite, cfg, trustees[0].priv)))

	for i := 1; i < len(trustees); i++ {
		pos := types.Position(i - 1)
		stmt := message.Statement{Kind: message.KindConfigurationSigned, ConfigurationHash: cfgHash, Signer: pos}
		m, err := message.Build(suite, trustees[i].priv, stmt, nil)
		require.NoError(t, err)
		require.NoError(t, st.Ingest(m))
		require.True(t, st.ConfigurationSignedBy(pos))
	}
	require.Equal(t, 3, st.ConfigurationSignedCount())
}

func TestIngestRejectsBadSignature(t *testing.T) {
	cfg, suite, trustees := newTestConfiguration(t, 3, 2)
	cfgHash := artifact.FromConfiguration(cfg).Hash()
	st := New(cfg, suite, nil, nil)

	stmt := message.Statement{Kind: message.KindConfigurationSigned, ConfigurationHash: cfgHash, Signer: 0}
	// Sign with the wrong trustee's key relative to the claimed Signer.
	m, err := message.Build(suite, trustees[2].priv, stmt, nil)
	require.NoError(t, err)

	err = st.Ingest(m)
	require.Error(t, err)
	require.False(t, st.ConfigurationSignedBy(0))
}

func TestIngestIsIdempotent(t *testing.T) {
	cfg, suite, trustees := newTestConfiguration(t, 3, 2)
	st := New(cfg, suite, nil, nil)
	m := buildConfigurationMessage(t, suite, cfg, trustees[0].priv)

	require.NoError(t, st.Ingest(m))
	require.NoError(t, st.Ingest(m))
}

func TestIngestRejectsWrongConfiguration(t *testing.T) {
	cfg, suite, trustees := newTestConfiguration(t, 3, 2)
	st := New(cfg, suite, nil, nil)

	stmt := message.Statement{Kind: message.KindConfiguration, ConfigurationHash: types.Hash{0x1}}
	m, err := message.Build(suite, trustees[0].priv, stmt, nil)
	require.NoError(t, err)
	require.Error(t, st.Ingest(m))
}

func TestMixRepeatIsRejected(t *testing.T) {
	cfg, suite, trustees := newTestConfiguration(t, 3, 2)
	cfgHash := artifact.FromConfiguration(cfg).Hash()
	st := New(cfg, suite, nil, nil)

	mixArtifact := artifact.Mix{Batch: 1, Source: types.Hash{0x9}, MixNumber: 0}
	bytes0 := mixArtifact.Encode()
	stmt0 := message.Statement{
		Kind: message.KindMix, ConfigurationHash: cfgHash, Signer: 0,
		Batch: 1, SourceHash: mixArtifact.Source, MixHash: artifact.Hash(bytes0), MixNumber: 0,
	}
	m0, err := message.Build(suite, trustees[1].priv, stmt0, bytes0)
	require.NoError(t, err)
	require.NoError(t, st.Ingest(m0))

	mixArtifact1 := artifact.Mix{Batch: 1, Source: artifact.Hash(bytes0), MixNumber: 1}
	bytes1 := mixArtifact1.Encode()
	stmt1 := message.Statement{
		Kind: message.KindMix, ConfigurationHash: cfgHash, Signer: 0, // same signer, different mix number
		Batch: 1, SourceHash: mixArtifact1.Source, MixHash: artifact.Hash(bytes1), MixNumber: 1,
	}
	m1, err := message.Build(suite, trustees[1].priv, stmt1, bytes1)
	require.NoError(t, err)

	err = st.Ingest(m1)
	require.Error(t, err)
	var de *types.DatalogError
	require.ErrorAs(t, err, &de)
	require.Equal(t, types.MixRepeat, de.Kind)
}

func TestBallotsMalformedTrusteeSetRejected(t *testing.T) {
	cfg, suite, trustees := newTestConfiguration(t, 3, 2)
	cfgHash := artifact.FromConfiguration(cfg).Hash()
	st := New(cfg, suite, nil, nil)

	badSet, err := types.NewTrusteeSet([]uint8{1}, 3) // only 1 trustee, threshold is 2
	require.NoError(t, err)
	ballots := artifact.Ballots{Batch: 1, Selected: badSet}
	bytes := ballots.Encode()
	stmt := message.Statement{
		Kind: message.KindBallots, ConfigurationHash: cfgHash, Signer: types.ManagerPosition,
		Batch: 1, BallotsHash: artifact.Hash(bytes), Selected: badSet,
	}
	m, err := message.Build(suite, trustees[0].priv, stmt, bytes)
	require.NoError(t, err)

	err = st.Ingest(m)
	require.Error(t, err)
	var de *types.DatalogError
	require.ErrorAs(t, err, &de)
	require.Equal(t, types.MalformedTrusteeSet, de.Kind)
}
