// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package predicate implements the stratified protocol driver (spec.md
// §4.1): given a trustee's local store and position, it derives the
// set of cryptographic actions that trustee must now perform, the
// phase-complete output predicates, and any structural errors. It
// performs no cryptography itself — action parameters name artifacts
// by hash; the action package reads and computes.
package predicate

import (
	"fmt"

	"github.com/sequentech/braid/types"
)

// ActionKind enumerates the work the driver can assign.
type ActionKind uint8

const (
	ActionSignConfiguration ActionKind = iota + 1
	ActionGenChannel
	ActionSignChannels
	ActionComputeShares
	ActionComputePublicKey
	ActionSignPublicKey
	ActionMix
	ActionSignMix
	ActionComputeDecryptionFactors
	ActionComputePlaintexts
	ActionSignPlaintexts
)

func (k ActionKind) String() string {
	switch k {
	case ActionSignConfiguration:
		return "SignConfiguration"
	case ActionGenChannel:
		return "GenChannel"
	case ActionSignChannels:
		return "SignChannels"
	case ActionComputeShares:
		return "ComputeShares"
	case ActionComputePublicKey:
		return "ComputePublicKey"
	case ActionSignPublicKey:
		return "SignPublicKey"
	case ActionMix:
		return "Mix"
	case ActionSignMix:
		return "SignMix"
	case ActionComputeDecryptionFactors:
		return "ComputeDecryptionFactors"
	case ActionComputePlaintexts:
		return "ComputePlaintexts"
	case ActionSignPlaintexts:
		return "SignPlaintexts"
	default:
		return fmt.Sprintf("ActionKind(%d)", uint8(k))
	}
}

// Action is a tagged record naming one unit of cryptographic work and
// every hash/index an action handler needs to carry it out. Keeping
// actions as data rather than closures is what makes a step idempotent
// (spec.md §9 "Actions as data"): emitting the same action twice is
// harmless, since the handler recomputes the same bytes and the
// store's "already posted" guard suppresses the duplicate.
type Action struct {
	Kind              ActionKind
	ConfigurationHash types.Hash
	Batch             int64 // -1 when the action is not batch-scoped

	ChannelHashes []types.Hash // SignChannels: the N-vector to sign

	PublicKeyHash types.Hash       // SignPublicKey, *DecryptionFactors, *Plaintexts
	Selected      types.TrusteeSet // Mix, SignMix, *DecryptionFactors, *Plaintexts

	SourceHash types.Hash // Mix, SignMix: the mix's input hash
	MixHash    types.Hash // SignMix: the mix's claimed output hash
	MixNumber  int        // Mix, SignMix: 0-based position in the shuffle chain

	FinalHash               types.Hash  // ComputeDecryptionFactors, *Plaintexts: final mix output hash
	DecryptionFactorsHashes []types.Hash // *Plaintexts: the T decryption-factors hashes, in S order
	PlaintextsHash          types.Hash  // SignPlaintexts
}

// OutputPredicateKind enumerates the phase-complete summaries the
// driver emits once a phase has fully saturated.
type OutputPredicateKind uint8

const (
	OutputConfigurationSignedAll OutputPredicateKind = iota + 1
	OutputChannelsAllSignedAll
	OutputPublicKeySignedAll
	OutputMixComplete
	OutputPlaintextsSignedAll
)

func (k OutputPredicateKind) String() string {
	switch k {
	case OutputConfigurationSignedAll:
		return "ConfigurationSignedAll"
	case OutputChannelsAllSignedAll:
		return "ChannelsAllSignedAll"
	case OutputPublicKeySignedAll:
		return "PublicKeySignedAll"
	case OutputMixComplete:
		return "MixComplete"
	case OutputPlaintextsSignedAll:
		return "PlaintextsSignedAll"
	default:
		return fmt.Sprintf("OutputPredicateKind(%d)", uint8(k))
	}
}

// OutputPredicate summarizes a completed phase.
type OutputPredicate struct {
	Kind              OutputPredicateKind
	ConfigurationHash types.Hash
	Batch             int64 // -1 when not batch-scoped
	FinalHash         types.Hash
}

// Result is the driver's output for one invocation: the three
// disjoint sets named by spec.md §4.1.
type Result struct {
	Actions          []Action
	OutputPredicates []OutputPredicate
	Errors           []error
}
