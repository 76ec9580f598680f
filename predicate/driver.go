// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package predicate

import (
	"github.com/sequentech/braid/store"
	"github.com/sequentech/braid/types"
)

// Drive runs one round of stratified inference over st's predicate
// set for the trustee at position self, and returns the actions it
// must perform, the phase-complete predicates that now hold, and any
// structural errors encountered. It is a pure function of the store's
// current content and self; calling it twice without an intervening
// Ingest returns identical results (spec.md §8, testable property 7).
func Drive(st *store.Store, self types.Position) Result {
	var res Result
	cfg, cfgHash := st.Configuration()
	n := cfg.N()

	configurationDone := configurationPhase(st, cfgHash, self, n, &res)
	if !configurationDone {
		return res
	}

	dkgDone := dkgPhase(st, cfgHash, self, n, cfg.Threshold, &res)
	if !dkgDone {
		return res
	}

	for _, batch := range st.Batches() {
		shuffleDone, finalHash, selected := shufflePhase(st, cfgHash, self, batch, cfg.Threshold, &res)
		if !shuffleDone {
			continue
		}
		decryptionPhase(st, cfgHash, self, batch, selected, finalHash, &res)
	}

	return res
}

// allSignedUpTo reports whether signedBy(p) holds for every position
// 0..n-1, stopping at the first gap. This mirrors spec.md §4.1's
// ascending-induction description of "all N signed" (UpTo(k+1) :-
// UpTo(k), Signed(k+1)) rather than a cardinality count, so a forged
// predicate set that signs the same position twice can never be
// mistaken for full coverage.
func allSignedUpTo(n int, signedBy func(types.Position) bool) bool {
	for p := 0; p < n; p++ {
		if !signedBy(types.Position(p)) {
			return false
		}
	}
	return true
}

func configurationPhase(st *store.Store, cfgHash types.Hash, self types.Position, n int, res *Result) bool {
	if self.IsTrustee() && !st.ConfigurationSignedBy(self) {
		res.Actions = append(res.Actions, Action{Kind: ActionSignConfiguration, ConfigurationHash: cfgHash, Batch: -1})
	}
	done := allSignedUpTo(n, st.ConfigurationSignedBy)
	if done {
		res.OutputPredicates = append(res.OutputPredicates, OutputPredicate{Kind: OutputConfigurationSignedAll, ConfigurationHash: cfgHash, Batch: -1})
	}
	return done
}

func dkgPhase(st *store.Store, cfgHash types.Hash, self types.Position, n, threshold int, res *Result) bool {
	if self.IsTrustee() {
		if _, ok := st.Channel(self); !ok {
			res.Actions = append(res.Actions, Action{Kind: ActionGenChannel, ConfigurationHash: cfgHash, Batch: -1})
		}
	}

	channelHashes, channelsAll := st.ChannelsAll()
	if !channelsAll {
		return false
	}

	if self.IsTrustee() {
		signed, ok := st.ChannelsSignedBy(self)
		if !ok || !hashVectorEqual(signed, channelHashes) {
			res.Actions = append(res.Actions, Action{Kind: ActionSignChannels, ConfigurationHash: cfgHash, Batch: -1, ChannelHashes: channelHashes})
		}
	}

	channelsSignedByPos := func(p types.Position) bool {
		hs, ok := st.ChannelsSignedBy(p)
		return ok && hashVectorEqual(hs, channelHashes)
	}
	channelsAllSignedAll := allSignedUpTo(n, channelsSignedByPos)
	if !channelsAllSignedAll {
		return false
	}
	res.OutputPredicates = append(res.OutputPredicates, OutputPredicate{Kind: OutputChannelsAllSignedAll, ConfigurationHash: cfgHash, Batch: -1})

	if self.IsTrustee() {
		if _, ok := st.Shares(self); !ok {
			res.Actions = append(res.Actions, Action{Kind: ActionComputeShares, ConfigurationHash: cfgHash, Batch: -1})
		}
	}

	sharesHashes, sharesAll := st.SharesAll()
	if !sharesAll {
		return false
	}

	if self == types.Position(0) {
		if _, ok := st.PublicKey(); !ok {
			res.Actions = append(res.Actions, Action{Kind: ActionComputePublicKey, ConfigurationHash: cfgHash, Batch: -1})
		}
	}

	pk, pkPosted := st.PublicKey()
	if !pkPosted {
		return false
	}

	// Every trustee, including position 0, gates its own signature on
	// independent recomputation inside the action handler; the driver
	// only tracks whether self has signed yet.
	if self.IsTrustee() && !st.PublicKeySignedBy(self) {
		res.Actions = append(res.Actions, Action{
			Kind: ActionSignPublicKey, ConfigurationHash: cfgHash, Batch: -1,
			PublicKeyHash: pk.Hash,
		})
	}

	publicKeySignedAll := allSignedUpTo(n, st.PublicKeySignedBy)
	if !publicKeySignedAll {
		return false
	}
	res.OutputPredicates = append(res.OutputPredicates, OutputPredicate{Kind: OutputPublicKeySignedAll, ConfigurationHash: cfgHash, Batch: -1})
	return true
}

func hashVectorEqual(a, b []types.Hash) bool {
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

// shufflePhase runs the shuffle phase for one batch and reports
// whether MixComplete now holds, together with the final mix hash and
// the selected-trustee set (valid only when it reports true).
func shufflePhase(st *store.Store, cfgHash types.Hash, self types.Position, batch int64, threshold int, res *Result) (bool, types.Hash, types.TrusteeSet) {
	ballotsRec, ok := st.Ballots(batch)
	if !ok {
		return false, types.Hash{}, types.TrusteeSet{}
	}
	selected := ballotsRec.Artifact.Selected
	positions := selected.Positions() // 1-based, length T, in dealing order

	mixRepeat := false
	for i := range positions {
		for j := i + 1; j < len(positions); j++ {
			mi, iok := st.Mix(batch, i)
			mj, jok := st.Mix(batch, j)
			if iok && jok && mi.Signer == mj.Signer {
				res.Errors = append(res.Errors, types.NewDatalogError(types.MixRepeat, cfgHash, batch,
					"trustee %s produced both mix %d and mix %d", mi.Signer, i, j))
				mixRepeat = true
			}
		}
	}
	if mixRepeat {
		return false, types.Hash{}, selected
	}

	for k := 0; k < len(positions); k++ {
		assigned := types.Position(positions[k] - 1)
		mixRec, posted := st.Mix(batch, k)

		if !posted {
			var sourceHash types.Hash
			ready := false
			if k == 0 {
				sourceHash = ballotsRec.Hash
				ready = true
			} else {
				prev, prevPosted := st.Mix(batch, k-1)
				if prevPosted {
					prevAssigned := types.Position(positions[k-1] - 1)
					ready = st.MixSignedBy(batch, k-1, prevAssigned) && allSelectedSigned(st, batch, k-1, positions)
					sourceHash = prev.Hash
				}
			}
			if ready && self == assigned {
				res.Actions = append(res.Actions, Action{
					Kind: ActionMix, ConfigurationHash: cfgHash, Batch: batch,
					Selected: selected, SourceHash: sourceHash, MixNumber: k,
				})
			}
			return false, types.Hash{}, selected
		}

		if !st.MixSignedBy(batch, k, self) && selfShouldSignMix(self, positions) {
			res.Actions = append(res.Actions, Action{
				Kind: ActionSignMix, ConfigurationHash: cfgHash, Batch: batch,
				Selected: selected, SourceHash: mixRec.Source, MixHash: mixRec.Hash, MixNumber: k,
			})
		}
	}

	if !allSelectedSigned(st, batch, len(positions)-1, positions) {
		return false, types.Hash{}, selected
	}

	final, _ := st.Mix(batch, len(positions)-1)
	res.OutputPredicates = append(res.OutputPredicates, OutputPredicate{
		Kind: OutputMixComplete, ConfigurationHash: cfgHash, Batch: batch, FinalHash: final.Hash,
	})
	return true, final.Hash, selected
}

// selfShouldSignMix reports whether self is obligated to sign mixes
// for this batch: every selected trustee, plus the reserved verifier
// position (spec.md §4.1 "SignMix is emitted to every selected trustee
// and to the verifier").
func selfShouldSignMix(self types.Position, positions []uint8) bool {
	if self == types.VerifierPosition {
		return true
	}
	for _, p := range positions {
		if types.Position(p-1) == self {
			return true
		}
	}
	return false
}

func allSelectedSigned(st *store.Store, batch int64, mixNumber int, positions []uint8) bool {
	for _, p := range positions {
		if !st.MixSignedBy(batch, mixNumber, types.Position(p-1)) {
			return false
		}
	}
	return true
}

func decryptionPhase(st *store.Store, cfgHash types.Hash, self types.Position, batch int64, selected types.TrusteeSet, finalHash types.Hash, res *Result) {
	positions := selected.Positions()
	ballotsRec, _ := st.Ballots(batch)
	pkHash := ballotsRec.Artifact.PublicKeyHash

	if selfIsSelected(self, positions) {
		if _, ok := st.DecryptionFactors(batch, self); !ok {
			res.Actions = append(res.Actions, Action{
				Kind: ActionComputeDecryptionFactors, ConfigurationHash: cfgHash, Batch: batch,
				Selected: selected, FinalHash: finalHash, PublicKeyHash: pkHash,
			})
		}
	}

	if st.DecryptionFactorsCount(batch) < selected.Threshold {
		return
	}

	dfHashes := make([]types.Hash, 0, len(positions))
	complete := true
	for _, p := range positions {
		rec, ok := st.DecryptionFactors(batch, types.Position(p-1))
		if !ok {
			complete = false
			break
		}
		dfHashes = append(dfHashes, rec.Hash)
	}
	if !complete {
		return
	}

	firstSelected := types.Position(positions[0] - 1)
	if self == firstSelected {
		if _, ok := st.Plaintexts(batch); !ok {
			res.Actions = append(res.Actions, Action{
				Kind: ActionComputePlaintexts, ConfigurationHash: cfgHash, Batch: batch,
				Selected: selected, FinalHash: finalHash, PublicKeyHash: pkHash,
				DecryptionFactorsHashes: dfHashes,
			})
		}
	}

	ptRec, ptOk := st.Plaintexts(batch)
	if !ptOk {
		return
	}

	if (selfIsSelected(self, positions) || self == types.VerifierPosition) && !st.PlaintextsSignedBy(batch, self) {
		res.Actions = append(res.Actions, Action{
			Kind: ActionSignPlaintexts, ConfigurationHash: cfgHash, Batch: batch,
			Selected: selected, FinalHash: finalHash, PublicKeyHash: pkHash,
			DecryptionFactorsHashes: dfHashes, PlaintextsHash: ptRec.Hash,
		})
	}

	allSigned := true
	for _, p := range positions {
		if !st.PlaintextsSignedBy(batch, types.Position(p-1)) {
			allSigned = false
			break
		}
	}
	if allSigned {
		res.OutputPredicates = append(res.OutputPredicates, OutputPredicate{
			Kind: OutputPlaintextsSignedAll, ConfigurationHash: cfgHash, Batch: batch, FinalHash: ptRec.Hash,
		})
	}
}

func selfIsSelected(self types.Position, positions []uint8) bool {
	for _, p := range positions {
		if types.Position(p-1) == self {
			return true
		}
	}
	return false
}
