// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"fmt"

	"go.dedis.ch/kyber/v3"
	"golang.org/x/sync/errgroup"

	"github.com/sequentech/braid/artifact"
	"github.com/sequentech/braid/crypto/elgamal"
	"github.com/sequentech/braid/crypto/shuffle"
	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/message"
	"github.com/sequentech/braid/predicate"
	"github.com/sequentech/braid/types"
)

// mixInput returns the ciphertext vector this mix step re-encrypts:
// the ballots for mix 0, or the previous mix's output otherwise.
func (h *Handler) mixInput(batch int64, mixNumber int) ([]elgamal.Ciphertext, error) {
	if mixNumber == 0 {
		rec, ok := h.Store.Ballots(batch)
		if !ok {
			return nil, fmt.Errorf("action: ballots for batch %d not posted", batch)
		}
		return ciphertextsFromBytes(h.Suite, rec.Artifact.Ciphertexts)
	}
	rec, ok := h.Store.Mix(batch, mixNumber-1)
	if !ok {
		return nil, fmt.Errorf("action: mix %d for batch %d not posted", mixNumber-1, batch)
	}
	return ciphertextsFromBytes(h.Suite, rec.Artifact.Ciphertexts)
}

func (h *Handler) publicKeyPoint() (kyber.Point, error) {
	rec, ok := h.Store.PublicKey()
	if !ok {
		return nil, fmt.Errorf("action: joint public key not posted yet")
	}
	return group.UnmarshalPoint(h.Suite, rec.Artifact.PublicKey)
}

// Mix re-encrypts and randomly permutes the input ciphertext vector,
// producing a Wikström-style shuffle proof of correctness (spec.md
// §4.2.5). The permutation and re-encryption randomness are cached, so
// a retried invocation before the post is confirmed reuses the exact
// same output rather than shuffling again under fresh randomness.
func (h *Handler) Mix(a predicate.Action) ([]message.Message, error) {
	_, cfgHash := h.Store.Configuration()

	input, err := h.mixInput(a.Batch, a.MixNumber)
	if err != nil {
		return nil, err
	}
	pk, err := h.publicKeyPoint()
	if err != nil {
		return nil, err
	}
	n := len(input)

	b, err := h.cachedOrCompute(cfgHash, cacheKeyMix(a.Batch, a.MixNumber), func() ([]byte, error) {
		perm, err := randomPermutation(n)
		if err != nil {
			return nil, err
		}
		// Re-encryption is a pure, data-parallel map over the permuted
		// ciphertext vector (spec.md §5 "Parallelism within a step"):
		// each output slot only ever touches its own index, so the
		// fan-out needs no synchronization.
		rho := make([]kyber.Scalar, n)
		output := make([]elgamal.Ciphertext, n)
		var eg errgroup.Group
		for k := 0; k < n; k++ {
			k := k
			eg.Go(func() error {
				rho[k] = group.RandomScalar(h.Suite)
				output[k] = elgamal.Reencrypt(h.Suite, pk, input[perm[k]], rho[k])
				return nil
			})
		}
		_ = eg.Wait()

		label := types.NewLabel(cfgHash, a.Batch, types.LabelSuffixMix)
		proof, err := shuffle.Prove(h.Suite, label, pk, input, output, perm, rho)
		if err != nil {
			return nil, fmt.Errorf("action: proving shuffle: %w", err)
		}
		outputBytes, err := ciphertextsToBytes(output)
		if err != nil {
			return nil, err
		}
		proofBytes, err := shuffleProofToBytes(proof)
		if err != nil {
			return nil, err
		}
		art := artifact.Mix{
			Batch: a.Batch, Source: a.SourceHash, MixNumber: a.MixNumber,
			Ciphertexts: outputBytes, Proof: proofBytes,
		}
		return art.Encode(), nil
	})
	if err != nil {
		return nil, err
	}

	art, err := artifact.DecodeMix(b)
	if err != nil {
		return nil, fmt.Errorf("action: decoding cached mix: %w", err)
	}
	hash := art.Hash()
	stmt := message.Statement{
		Kind: message.KindMix, ConfigurationHash: cfgHash, Batch: a.Batch,
		SourceHash: a.SourceHash, MixHash: hash, MixNumber: a.MixNumber,
	}
	msg, err := h.build(stmt, b)
	if err != nil {
		return nil, err
	}
	return []message.Message{msg}, nil
}

// SignMix verifies a posted mix's shuffle proof and signs only on
// success (spec.md §4.2.6).
func (h *Handler) SignMix(a predicate.Action) ([]message.Message, error) {
	_, cfgHash := h.Store.Configuration()

	mixRec, ok := h.Store.Mix(a.Batch, a.MixNumber)
	if !ok || mixRec.Hash != a.MixHash {
		return nil, fmt.Errorf("action: mix %d for batch %d not posted or hash mismatch", a.MixNumber, a.Batch)
	}
	input, err := h.mixInput(a.Batch, a.MixNumber)
	if err != nil {
		return nil, err
	}
	output, err := ciphertextsFromBytes(h.Suite, mixRec.Artifact.Ciphertexts)
	if err != nil {
		return nil, err
	}
	proof, err := shuffleProofFromBytes(h.Suite, mixRec.Artifact.Proof)
	if err != nil {
		return nil, err
	}
	pk, err := h.publicKeyPoint()
	if err != nil {
		return nil, err
	}

	label := types.NewLabel(cfgHash, a.Batch, types.LabelSuffixMix)
	if err := shuffle.Verify(h.Suite, label, pk, input, output, proof); err != nil {
		return nil, err
	}

	stmt := message.Statement{
		Kind: message.KindMixSigned, ConfigurationHash: cfgHash, Batch: a.Batch,
		SourceHash: mixRec.Source, MixHash: mixRec.Hash, MixNumber: a.MixNumber,
	}
	msg, err := h.build(stmt, nil)
	if err != nil {
		return nil, err
	}
	return []message.Message{msg}, nil
}
