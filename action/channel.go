// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package action

import (
	"fmt"

	"github.com/sequentech/braid/artifact"
	"github.com/sequentech/braid/crypto/channel"
	"github.com/sequentech/braid/group"
	"github.com/sequentech/braid/message"
	"github.com/sequentech/braid/predicate"
)

// SignConfiguration attests to the posted Configuration (spec.md §4.2
// step 0): carries no artifact of its own.
func (h *Handler) SignConfiguration(a predicate.Action) ([]message.Message, error) {
	stmt := message.Statement{Kind: message.KindConfigurationSigned, ConfigurationHash: a.ConfigurationHash}
	msg, err := h.build(stmt, nil)
	if err != nil {
		return nil, err
	}
	return []message.Message{msg}, nil
}

func decodeChannel(b []byte) (artifact.Channel, error) {
	ch, err := artifact.DecodeChannel(b)
	if err != nil {
		return ch, fmt.Errorf("action: decoding cached channel: %w", err)
	}
	return ch, nil
}

// GenChannel draws this trustee's DKG side-channel key pair and Schnorr
// proof of knowledge of it, seals the secret under the trustee's
// configured symmetric key, and posts the result (spec.md §4.2.1). The
// draw and seal only happen once per configuration: a repeated
// invocation before the post is confirmed reuses the cached artifact
// bytes verbatim, preserving idempotency.
func (h *Handler) GenChannel(a predicate.Action) ([]message.Message, error) {
	b, err := h.cachedOrCompute(a.ConfigurationHash, cacheKeyChannel, func() ([]byte, error) {
		kp, err := channel.Generate(h.Suite, a.ConfigurationHash)
		if err != nil {
			return nil, fmt.Errorf("action: generating channel key pair: %w", err)
		}
		encSecret, err := channel.EncryptSecretAtRest(h.SymmetricKey, kp.Secret)
		if err != nil {
			return nil, fmt.Errorf("action: sealing channel secret at rest: %w", err)
		}
		pubBytes, err := group.MarshalPoint(kp.Public)
		if err != nil {
			return nil, err
		}
		commitBytes, err := group.MarshalPoint(kp.Proof.Commitment)
		if err != nil {
			return nil, err
		}
		respBytes, err := group.MarshalScalar(kp.Proof.Response)
		if err != nil {
			return nil, err
		}
		art := artifact.Channel{
			Public:          pubBytes,
			ProofCommitment: commitBytes,
			ProofResponse:   respBytes,
			EncryptedSecret: encSecret,
		}
		return art.Encode(), nil
	})
	if err != nil {
		return nil, err
	}

	art, err := decodeChannel(b)
	if err != nil {
		return nil, err
	}
	hash := art.Hash()
	stmt := message.Statement{Kind: message.KindChannel, ConfigurationHash: a.ConfigurationHash, ChannelHash: hash}
	msg, err := h.build(stmt, b)
	if err != nil {
		return nil, err
	}
	return []message.Message{msg}, nil
}

// SignChannels attests to the full N-vector of channel hashes (spec.md
// §4.2.1's companion attestation step): carries no artifact of its own.
func (h *Handler) SignChannels(a predicate.Action) ([]message.Message, error) {
	stmt := message.Statement{Kind: message.KindChannelsSigned, ConfigurationHash: a.ConfigurationHash, ChannelHashes: a.ChannelHashes}
	msg, err := h.build(stmt, nil)
	if err != nil {
		return nil, err
	}
	return []message.Message{msg}, nil
}
