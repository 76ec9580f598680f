// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"fmt"

	"go.dedis.ch/kyber/v3/util/random"

	"github.com/sequentech/braid/artifact"
	"github.com/sequentech/braid/crypto/channel"
	"github.com/sequentech/braid/crypto/shamir"
	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/message"
	"github.com/sequentech/braid/predicate"
)

// ComputeShares deals this trustee's degree-(T-1) polynomial and posts
// one ECIES-encrypted share per recipient channel, plus the public
// commitments to the polynomial's coefficients (spec.md §4.2.2). The
// polynomial itself is never retained once its Shares artifact is
// cached: no later phase needs the dealer's own coefficients again, only
// the shares recipients already hold.
func (h *Handler) ComputeShares(a predicate.Action) ([]message.Message, error) {
	cfg, cfgHash := h.Store.Configuration()
	n := cfg.N()

	channelHashes, ok := h.Store.ChannelsAll()
	if !ok {
		return nil, fmt.Errorf("action: channels not all posted yet")
	}

	b, err := h.cachedOrCompute(cfgHash, cacheKeyShares, func() ([]byte, error) {
		poly := shamir.NewPolynomial(h.Suite, cfg.Threshold, random.New())
		commitPoints := poly.Commitments()
		commitBytes := make([][]byte, len(commitPoints))
		for i, c := range commitPoints {
			cb, err := group.MarshalPoint(c)
			if err != nil {
				return nil, fmt.Errorf("action: marshaling commitment %d: %w", i, err)
			}
			commitBytes[i] = cb
		}

		ciphertexts := make([][]byte, n)
		for j := 0; j < n; j++ {
			chArt, ok := h.Store.ChannelArtifact(channelHashes[j])
			if !ok {
				return nil, fmt.Errorf("action: channel artifact %s not indexed", channelHashes[j])
			}
			pub, err := group.UnmarshalPoint(h.Suite, chArt.Public)
			if err != nil {
				return nil, fmt.Errorf("action: unmarshaling channel %d public key: %w", j, err)
			}
			ct, err := channel.EncryptShare(h.Suite, pub, poly.ShareFor(uint8(j)))
			if err != nil {
				return nil, fmt.Errorf("action: encrypting share for recipient %d: %w", j, err)
			}
			ciphertexts[j] = ct
		}

		art := artifact.Shares{Commitments: commitBytes, ShareCiphertexts: ciphertexts}
		return art.Encode(), nil
	})
	if err != nil {
		return nil, err
	}

	art, err := artifact.DecodeShares(b)
	if err != nil {
		return nil, fmt.Errorf("action: decoding cached shares: %w", err)
	}
	hash := art.Hash()
	stmt := message.Statement{Kind: message.KindShares, ConfigurationHash: cfgHash, SharesHash: hash}
	msg, err := h.build(stmt, b)
	if err != nil {
		return nil, err
	}
	return []message.Message{msg}, nil
}
