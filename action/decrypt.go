// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"fmt"

	"go.dedis.ch/kyber/v3"
	"golang.org/x/sync/errgroup"

	"github.com/sequentech/braid/artifact"
	"github.com/sequentech/braid/crypto/channel"
	"github.com/sequentech/braid/crypto/dleq"
	"github.com/sequentech/braid/crypto/elgamal"
	"github.com/sequentech/braid/crypto/shamir"
	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/message"
	"github.com/sequentech/braid/predicate"
	"github.com/sequentech/braid/types"
)

// basePoint returns the suite's standard generator as a concrete Point,
// for proofs that need to name it explicitly as a DLEQ base rather
// than relying on kyber's Mul(x, nil) base-point shorthand.
func (h *Handler) basePoint() kyber.Point {
	return h.Suite.Point().Mul(h.Suite.Scalar().One(), nil)
}

// effectiveSecret recombines this trustee's N received Shamir shares
// (one per dealer, decrypted with its own channel key) into its
// effective secret key share (spec.md §4.2.7).
func (h *Handler) effectiveSecret(cfgHash types.Hash, sharesHashes []types.Hash) (kyber.Scalar, error) {
	secret, err := h.ownChannelSecret(cfgHash)
	if err != nil {
		return nil, err
	}
	shares := make([]kyber.Scalar, 0, len(sharesHashes))
	for i, sh := range sharesHashes {
		art, ok := h.Store.SharesArtifact(sh)
		if !ok {
			return nil, fmt.Errorf("action: shares artifact %s not indexed", sh)
		}
		if int(h.Self) >= len(art.ShareCiphertexts) {
			return nil, fmt.Errorf("action: dealer %d shares carry no entry for self", i)
		}
		share, err := channel.DecryptShare(h.Suite, secret, art.ShareCiphertexts[h.Self])
		if err != nil {
			return nil, fmt.Errorf("action: decrypting share from dealer %d: %w", i, err)
		}
		shares = append(shares, share)
	}
	return shamir.SumScalars(h.Suite, shares), nil
}

// ComputeDecryptionFactors computes this trustee's partial decryption
// factor for every ciphertext in the final mix output, with a
// Chaum-Pedersen proof binding each factor to the trustee's published
// verification key (spec.md §4.2.7). The proofs draw fresh randomness,
// so the whole artifact is cached to stay idempotent across retries.
func (h *Handler) ComputeDecryptionFactors(a predicate.Action) ([]message.Message, error) {
	_, cfgHash := h.Store.Configuration()

	finalMix, ok := h.Store.Mix(a.Batch, a.Selected.Threshold-1)
	if !ok || finalMix.Hash != a.FinalHash {
		return nil, fmt.Errorf("action: final mix for batch %d not posted or hash mismatch", a.Batch)
	}
	ciphertexts, err := ciphertextsFromBytes(h.Suite, finalMix.Artifact.Ciphertexts)
	if err != nil {
		return nil, err
	}

	sharesHashes, ok := h.Store.SharesAll()
	if !ok {
		return nil, fmt.Errorf("action: shares not all posted yet")
	}
	x, err := h.effectiveSecret(cfgHash, sharesHashes)
	if err != nil {
		return nil, err
	}

	b, err := h.cachedOrCompute(cfgHash, cacheKeyDecryptionFactors(a.Batch), func() ([]byte, error) {
		g := h.basePoint()
		label := types.NewLabel(cfgHash, a.Batch, types.LabelSuffixDecryptionFactors)
		factors := make([][]byte, len(ciphertexts))
		proofs := make([]artifact.DleqProofBytes, len(ciphertexts))
		// Per-ciphertext decryption-factor computation is independent
		// across i (spec.md §5 "Parallelism within a step"); only the
		// slice writes need to stay index-disjoint, which they are.
		var wg errgroup.Group
		for i, c := range ciphertexts {
			i, c := i, c
			wg.Go(func() error {
				proof, _, factorPoint, err := dleq.Prove(h.Suite, label, g, c.C1, x)
				if err != nil {
					return fmt.Errorf("action: proving decryption factor %d: %w", i, err)
				}
				fb, err := group.MarshalPoint(factorPoint)
				if err != nil {
					return err
				}
				pb, err := dleqProofToBytes(proof)
				if err != nil {
					return err
				}
				factors[i] = fb
				proofs[i] = pb
				return nil
			})
		}
		if err := wg.Wait(); err != nil {
			return nil, err
		}
		art := artifact.DecryptionFactors{Batch: a.Batch, FinalHash: a.FinalHash, Factors: factors, Proofs: proofs}
		return art.Encode(), nil
	})
	if err != nil {
		return nil, err
	}

	art, err := artifact.DecodeDecryptionFactors(b)
	if err != nil {
		return nil, fmt.Errorf("action: decoding cached decryption factors: %w", err)
	}
	hash := art.Hash()
	stmt := message.Statement{
		Kind: message.KindDecryptionFactors, ConfigurationHash: cfgHash, Batch: a.Batch,
		DecryptionFactorsHash: hash, FinalHash: a.FinalHash, SharesHashes: sharesHashes,
	}
	msg, err := h.build(stmt, b)
	if err != nil {
		return nil, err
	}
	return []message.Message{msg}, nil
}

// computePlaintextsArtifact verifies every selected trustee's
// decryption-factor proof against its published verification key,
// Lagrange-recombines the factors in the exponent, and divides them
// out of the final mix's ciphertexts (spec.md §4.2.8). It is pure and
// shared between ComputePlaintexts and SignPlaintexts's independent
// recomputation check.
func (h *Handler) computePlaintextsArtifact(a predicate.Action) (artifact.Plaintexts, error) {
	finalMix, ok := h.Store.Mix(a.Batch, a.Selected.Threshold-1)
	if !ok || finalMix.Hash != a.FinalHash {
		return artifact.Plaintexts{}, fmt.Errorf("action: final mix for batch %d not posted or hash mismatch", a.Batch)
	}
	ciphertexts, err := ciphertextsFromBytes(h.Suite, finalMix.Artifact.Ciphertexts)
	if err != nil {
		return artifact.Plaintexts{}, err
	}

	pkRec, ok := h.Store.PublicKey()
	if !ok {
		return artifact.Plaintexts{}, fmt.Errorf("action: joint public key not posted yet")
	}

	positions := a.Selected.Positions()
	if len(positions) != len(a.DecryptionFactorsHashes) {
		return artifact.Plaintexts{}, fmt.Errorf("action: %d selected trustees but %d decryption-factor hashes", len(positions), len(a.DecryptionFactorsHashes))
	}

	g := h.basePoint()
	label := types.NewLabel(a.ConfigurationHash, a.Batch, types.LabelSuffixDecryptionFactors)

	// factorsByCiphertext[i][idx] is the idx'th selected trustee's
	// verified partial decryption factor for ciphertext i.
	factorsByCiphertext := make([][]kyber.Point, len(ciphertexts))
	for i := range factorsByCiphertext {
		factorsByCiphertext[i] = make([]kyber.Point, len(positions))
	}

	for idx, p := range positions {
		pos := types.Position(p - 1)
		rec, ok := h.Store.DecryptionFactors(a.Batch, pos)
		if !ok {
			return artifact.Plaintexts{}, fmt.Errorf("action: decryption factors from trustee %d not posted", pos)
		}
		if rec.Hash != a.DecryptionFactorsHashes[idx] {
			return artifact.Plaintexts{}, fmt.Errorf("%w: decryption factors from trustee %d do not match expected hash", types.ErrVerificationFailed, pos)
		}
		if len(rec.Artifact.Factors) != len(ciphertexts) || len(rec.Artifact.Proofs) != len(ciphertexts) {
			return artifact.Plaintexts{}, fmt.Errorf("action: trustee %d posted %d factors for %d ciphertexts", pos, len(rec.Artifact.Factors), len(ciphertexts))
		}
		vk, err := group.UnmarshalPoint(h.Suite, pkRec.Artifact.VerificationKeys[pos])
		if err != nil {
			return artifact.Plaintexts{}, fmt.Errorf("action: unmarshaling verification key %d: %w", pos, err)
		}
		for i, c := range ciphertexts {
			factorPt, err := group.UnmarshalPoint(h.Suite, rec.Artifact.Factors[i])
			if err != nil {
				return artifact.Plaintexts{}, fmt.Errorf("action: unmarshaling factor %d from trustee %d: %w", i, pos, err)
			}
			proof, err := dleqProofFromBytes(h.Suite, rec.Artifact.Proofs[i])
			if err != nil {
				return artifact.Plaintexts{}, err
			}
			if err := dleq.Verify(h.Suite, label, g, vk, c.C1, factorPt, proof); err != nil {
				return artifact.Plaintexts{}, fmt.Errorf("action: decryption factor %d from trustee %d: %w", i, pos, err)
			}
			factorsByCiphertext[i][idx] = factorPt
		}
	}

	values := make([][]byte, len(ciphertexts))
	coeffs := make([]kyber.Scalar, len(positions))
	for idx := range positions {
		c, err := shamir.LagrangeCoefficient(h.Suite, positions, idx)
		if err != nil {
			return artifact.Plaintexts{}, err
		}
		coeffs[idx] = c
	}
	// Per-ciphertext Lagrange recombination and division are likewise
	// independent across i (spec.md §5 "Parallelism within a step").
	var wg errgroup.Group
	for i, c := range ciphertexts {
		i, c := i, c
		wg.Go(func() error {
			divisor, err := shamir.CombineInExponent(h.Suite, factorsByCiphertext[i], coeffs)
			if err != nil {
				return err
			}
			plaintextPoint := elgamal.DivideFactor(h.Suite, c, divisor)
			data, err := plaintextPoint.Data()
			if err != nil {
				return fmt.Errorf("action: decoding plaintext %d: %w", i, err)
			}
			values[i] = data
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return artifact.Plaintexts{}, err
	}
	return artifact.Plaintexts{Batch: a.Batch, Values: values}, nil
}

// ComputePlaintexts reconstructs the batch's plaintexts from the T
// posted decryption factors (spec.md §4.2.8). The driver assigns this
// only to the first selected trustee; the computation is otherwise pure
// and every selected trustee reruns it in SignPlaintexts.
func (h *Handler) ComputePlaintexts(a predicate.Action) ([]message.Message, error) {
	art, err := h.computePlaintextsArtifact(a)
	if err != nil {
		return nil, err
	}
	b := art.Encode()
	hash := art.Hash()
	stmt := message.Statement{
		Kind: message.KindPlaintexts, ConfigurationHash: a.ConfigurationHash, Batch: a.Batch,
		PlaintextsHash: hash, DecryptionFactorsHashes: a.DecryptionFactorsHashes,
		FinalHash: a.FinalHash, PublicKeyHash: a.PublicKeyHash,
	}
	msg, err := h.build(stmt, b)
	if err != nil {
		return nil, err
	}
	return []message.Message{msg}, nil
}

// SignPlaintexts independently recomputes the plaintext batch and signs
// only if it byte-matches the posted Plaintexts artifact (spec.md
// §4.2.9).
func (h *Handler) SignPlaintexts(a predicate.Action) ([]message.Message, error) {
	recomputed, err := h.computePlaintextsArtifact(a)
	if err != nil {
		return nil, err
	}
	if recomputed.Hash() != a.PlaintextsHash {
		return nil, fmt.Errorf("%w: recomputed plaintexts do not match posted artifact", types.ErrVerificationFailed)
	}
	stmt := message.Statement{
		Kind: message.KindPlaintextsSigned, ConfigurationHash: a.ConfigurationHash, Batch: a.Batch,
		PlaintextsHash: a.PlaintextsHash, DecryptionFactorsHashes: a.DecryptionFactorsHashes,
		FinalHash: a.FinalHash, PublicKeyHash: a.PublicKeyHash,
	}
	msg, err := h.build(stmt, nil)
	if err != nil {
		return nil, err
	}
	return []message.Message{msg}, nil
}
