// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package predicate_test

import (
	"testing"

	"go.dedis.ch/kyber/v3"

	"github.com/stretchr/testify/require"

	"github.com/sequentech/braid/action"
	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/log"
	"github.com/sequentech/braid/predicate"
	"github.com/sequentech/braid/store"
	"github.com/sequentech/braid/types"
)

// TestDriveThroughDKGCompletion runs a 3-trustee, threshold-2 instance
// through configuration signing and the full DKG phase (spec.md §8,
// testable scenario 1): each trustee's Drive/Execute/Ingest loop
// converges on a jointly-signed public key, all driven against one
// shared store standing in for a fully-synchronized board.
func TestDriveThroughDKGCompletion(t *testing.T) {
	require := require.New(t)

	suite, err := group.Resolve(types.GroupEdwards25519)
	require.NoError(err)

	const n = 3
	const threshold = 2

	managerPriv := group.RandomScalar(suite)
	managerPub, err := group.MarshalPoint(suite.Point().Mul(managerPriv, nil))
	require.NoError(err)

	trusteePriv := make([]kyber.Scalar, n)
	trusteeKeys := make([][]byte, n)
	for i := 0; i < n; i++ {
		trusteePriv[i] = group.RandomScalar(suite)
		pub, err := group.MarshalPoint(suite.Point().Mul(trusteePriv[i], nil))
		require.NoError(err)
		trusteeKeys[i] = pub
	}

	cfg := types.Configuration{
		ManagerKey:  managerPub,
		TrusteeKeys: trusteeKeys,
		Threshold:   threshold,
		Group:       types.GroupEdwards25519,
	}
	require.NoError(cfg.Validate())

	st := store.New(cfg, suite, log.NewNop(), nil)

	var symKey [32]byte
	copy(symKey[:], []byte("0123456789abcdef0123456789abcdef"))

	handlers := make([]*action.Handler, n)
	for i := 0; i < n; i++ {
		handlers[i] = action.New(suite, st, types.Position(i), trusteePriv[i], symKey, action.NewMemoryCache(), log.NewNop(), nil)
	}

	// Drive every trustee in rounds until nobody has any action left to
	// take; Drive/Execute/Ingest is deterministic, so this always
	// converges once the phase's preconditions are met (spec.md §8,
	// testable property 7).
	const maxRounds = 25
	converged := false
	for round := 0; round < maxRounds; round++ {
		progressed := false
		for i := 0; i < n; i++ {
			res := predicate.Drive(st, types.Position(i))
			require.Empty(res.Errors, "round %d trustee %d", round, i)
			for _, a := range res.Actions {
				msgs, err := handlers[i].Execute(a)
				require.NoError(err, "round %d trustee %d action %s", round, i, a.Kind)
				for _, m := range msgs {
					require.NoError(st.Ingest(m), "round %d trustee %d action %s", round, i, a.Kind)
				}
				progressed = true
			}
		}
		res := predicate.Drive(st, types.Position(0))
		for _, op := range res.OutputPredicates {
			if op.Kind == predicate.OutputPublicKeySignedAll {
				converged = true
			}
		}
		if converged {
			break
		}
		if !progressed {
			break
		}
	}

	require.True(converged, "DKG did not converge within %d rounds", maxRounds)

	pk, ok := st.PublicKey()
	require.True(ok)
	require.Len(pk.Artifact.VerificationKeys, n)

	for i := 0; i < n; i++ {
		require.True(st.PublicKeySignedBy(types.Position(i)))
	}
}

// TestDriveIsPureBetweenIngests asserts that calling Drive twice without
// an intervening Ingest returns identical Actions (spec.md §8, testable
// property 7).
func TestDriveIsPureBetweenIngests(t *testing.T) {
	require := require.New(t)

	suite, err := group.Resolve(types.GroupEdwards25519)
	require.NoError(err)

	managerPriv := group.RandomScalar(suite)
	managerPub, err := group.MarshalPoint(suite.Point().Mul(managerPriv, nil))
	require.NoError(err)

	trusteeKeys := make([][]byte, 2)
	for i := range trusteeKeys {
		priv := group.RandomScalar(suite)
		pub, err := group.MarshalPoint(suite.Point().Mul(priv, nil))
		require.NoError(err)
		trusteeKeys[i] = pub
	}

	cfg := types.Configuration{ManagerKey: managerPub, TrusteeKeys: trusteeKeys, Threshold: 2, Group: types.GroupEdwards25519}
	require.NoError(cfg.Validate())
	st := store.New(cfg, suite, log.NewNop(), nil)

	first := predicate.Drive(st, types.Position(0))
	second := predicate.Drive(st, types.Position(0))
	require.Equal(first, second)
}
