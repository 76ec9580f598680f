// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"fmt"

	"go.dedis.ch/kyber/v3"

	"github.com/sequentech/braid/artifact"
	"github.com/sequentech/braid/crypto/channel"
	"github.com/sequentech/braid/crypto/shamir"
	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/message"
	"github.com/sequentech/braid/predicate"
	"github.com/sequentech/braid/types"
)

// computePublicKeyArtifact combines every dealer's coefficient
// commitments into the joint public key and the N verification keys
// (spec.md §4.2.3). It is pure: given the same posted Shares, it always
// returns the same bytes, which is what lets every trustee independently
// recompute and byte-compare before signing (spec.md §4.2.4), not just
// the dealer-coordinator who first posts it.
func (h *Handler) computePublicKeyArtifact(n int, sharesHashes, channelHashes []types.Hash) (artifact.DkgPublicKey, error) {
	shares := make([]artifact.Shares, n)
	dealerCommitments := make([][]kyber.Point, n)
	for i := 0; i < n; i++ {
		sh, ok := h.Store.SharesArtifact(sharesHashes[i])
		if !ok {
			return artifact.DkgPublicKey{}, fmt.Errorf("action: shares artifact %s not indexed", sharesHashes[i])
		}
		shares[i] = sh
		points := make([]kyber.Point, len(sh.Commitments))
		for k, cb := range sh.Commitments {
			p, err := group.UnmarshalPoint(h.Suite, cb)
			if err != nil {
				return artifact.DkgPublicKey{}, fmt.Errorf("action: unmarshaling dealer %d commitment %d: %w", i, k, err)
			}
			points[k] = p
		}
		dealerCommitments[i] = points
	}

	if err := h.selfCheckShares(dealerCommitments, shares); err != nil {
		return artifact.DkgPublicKey{}, err
	}

	pkFactors := make([]kyber.Point, n)
	for i, c := range dealerCommitments {
		pkFactors[i] = shamir.JointPublicKeyFactor(c)
	}
	pk := shamir.CombinePoints(h.Suite, pkFactors)

	verKeys := make([]kyber.Point, n)
	for j := 0; j < n; j++ {
		factors := make([]kyber.Point, n)
		for i, c := range dealerCommitments {
			factors[i] = shamir.VerificationKeyFactor(h.Suite, c, uint8(j))
		}
		verKeys[j] = shamir.CombinePoints(h.Suite, factors)
	}

	pkBytes, err := group.MarshalPoint(pk)
	if err != nil {
		return artifact.DkgPublicKey{}, err
	}
	verBytes := make([][]byte, n)
	for j, v := range verKeys {
		b, err := group.MarshalPoint(v)
		if err != nil {
			return artifact.DkgPublicKey{}, fmt.Errorf("action: marshaling verification key %d: %w", j, err)
		}
		verBytes[j] = b
	}
	return artifact.DkgPublicKey{
		PublicKey:        pkBytes,
		VerificationKeys: verBytes,
		SharesHashes:     sharesHashes,
		ChannelHashes:    channelHashes,
	}, nil
}

// selfCheckShares decrypts the share each dealer sent to this trustee
// and asserts g^share == the dealer's per-recipient verification-key
// factor for this trustee's position, before the joint public key is
// ever posted (spec.md §4.2.3: "as a self-check, decrypt the share
// that was sent to this trustee and assert g^{share} = vkfᵢⱼ"). A
// mismatch means this trustee's own share is inconsistent with the
// dealer's committed polynomial — an internal invariant violation, not
// something a retry or a differently-shaped message could fix.
func (h *Handler) selfCheckShares(dealerCommitments [][]kyber.Point, shares []artifact.Shares) error {
	_, cfgHash := h.Store.Configuration()
	secret, err := h.ownChannelSecret(cfgHash)
	if err != nil {
		return err
	}
	for i, sh := range shares {
		if int(h.Self) >= len(sh.ShareCiphertexts) {
			return fmt.Errorf("%w: dealer %d shares carry no entry for self", types.ErrInternal, i)
		}
		share, err := channel.DecryptShare(h.Suite, secret, sh.ShareCiphertexts[h.Self])
		if err != nil {
			return fmt.Errorf("%w: decrypting self-check share from dealer %d: %v", types.ErrInternal, i, err)
		}
		factor := shamir.VerificationKeyFactor(h.Suite, dealerCommitments[i], uint8(h.Self))
		if !h.Suite.Point().Mul(share, nil).Equal(factor) {
			return fmt.Errorf("%w: self-check failed for dealer %d: g^share does not match verification-key factor", types.ErrInternal, i)
		}
	}
	return nil
}

// ComputePublicKey combines the N dealers' Shares into the joint public
// key and per-trustee verification keys (spec.md §4.2.3). The driver
// assigns this only to trustee 0, but the computation is pure and
// every trustee reruns it independently in SignPublicKey.
func (h *Handler) ComputePublicKey(a predicate.Action) ([]message.Message, error) {
	cfg, cfgHash := h.Store.Configuration()
	n := cfg.N()

	channelHashes, ok := h.Store.ChannelsAll()
	if !ok {
		return nil, fmt.Errorf("action: channels not all posted yet")
	}
	sharesHashes, ok := h.Store.SharesAll()
	if !ok {
		return nil, fmt.Errorf("action: shares not all posted yet")
	}

	art, err := h.computePublicKeyArtifact(n, sharesHashes, channelHashes)
	if err != nil {
		return nil, err
	}
	b := art.Encode()
	hash := art.Hash()
	stmt := message.Statement{
		Kind: message.KindPublicKey, ConfigurationHash: cfgHash,
		PublicKeyHash: hash, SharesHashes: sharesHashes, ChannelHashes: channelHashes,
	}
	msg, err := h.build(stmt, b)
	if err != nil {
		return nil, err
	}
	return []message.Message{msg}, nil
}

// SignPublicKey independently recomputes the joint public key and
// verification keys and signs only if the result byte-matches the
// posted DkgPublicKey (spec.md §4.2.4: "no partial signatures on
// mismatch" — a mismatch means the posted public key is wrong, and
// signing it would be worse than silence).
func (h *Handler) SignPublicKey(a predicate.Action) ([]message.Message, error) {
	cfg, cfgHash := h.Store.Configuration()
	n := cfg.N()

	channelHashes, ok := h.Store.ChannelsAll()
	if !ok {
		return nil, fmt.Errorf("action: channels not all posted yet")
	}
	sharesHashes, ok := h.Store.SharesAll()
	if !ok {
		return nil, fmt.Errorf("action: shares not all posted yet")
	}

	recomputed, err := h.computePublicKeyArtifact(n, sharesHashes, channelHashes)
	if err != nil {
		return nil, err
	}
	if recomputed.Hash() != a.PublicKeyHash {
		return nil, fmt.Errorf("%w: recomputed public key does not match posted artifact", types.ErrVerificationFailed)
	}

	stmt := message.Statement{
		Kind: message.KindPublicKeySigned, ConfigurationHash: cfgHash,
		PublicKeyHash: a.PublicKeyHash, SharesHashes: sharesHashes, ChannelHashes: channelHashes,
	}
	msg, err := h.build(stmt, nil)
	if err != nil {
		return nil, err
	}
	return []message.Message{msg}, nil
}
