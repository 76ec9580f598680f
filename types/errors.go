// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for Configuration and TrusteeSet validation.
var (
	ErrInvalidTrusteeCount = errors.New("trustee count out of range")
	ErrInvalidThreshold    = errors.New("threshold out of range")
	ErrMissingManagerKey   = errors.New("missing protocol manager key")
	ErrMissingTrusteeKey   = errors.New("missing trustee key")
	ErrUnknownGroup        = errors.New("unknown cryptographic group")
)

// Sentinel errors surfaced by the store and session loop per spec.md §7.
var (
	// ErrVerificationFailed is wrapped with context whenever a
	// signature, a zero-knowledge proof, or an independent
	// recomputation byte-comparison fails.
	ErrVerificationFailed = errors.New("verification failed")
	// ErrNotAuthorized means this trustee's key is absent from the
	// configuration for a given board; the board should be ignored.
	ErrNotAuthorized = errors.New("self authority not found")
	// ErrUnknownArtifact means a predicate or action referenced an
	// artifact hash the local store does not hold.
	ErrUnknownArtifact = errors.New("artifact not found in local store")
	// ErrInternal marks a fatal invariant violation local to this
	// session (hash collision, store corruption, a recovered panic).
	// Policy: the session is fatal and the outer loop restarts it with
	// a fresh store (spec.md §7 "Internal invariant violations").
	ErrInternal = errors.New("internal invariant violation")
)

// DatalogErrorKind enumerates the structural violations the protocol
// driver can detect during inference (spec.md §7 "Structural violations").
type DatalogErrorKind string

const (
	// MixRepeat fires when the same trustee appears at two different
	// mix positions within the same batch.
	MixRepeat DatalogErrorKind = "MixRepeat"
	// MalformedTrusteeSet fires when a Ballots selected-trustee set
	// does not have exactly T distinct, in-range entries.
	MalformedTrusteeSet DatalogErrorKind = "MalformedTrusteeSet"
	// WrongArtifactCount fires when an artifact that must carry
	// exactly N or T sub-items does not.
	WrongArtifactCount DatalogErrorKind = "WrongArtifactCount"
)

// DatalogError is raised by the protocol driver when a structural
// invariant of the predicate set is violated. It carries enough
// context to log without a further database join.
type DatalogError struct {
	Kind          DatalogErrorKind
	Configuration Hash
	Batch         int64
	Detail        string
}

func (e *DatalogError) Error() string {
	if e.Batch >= 0 {
		return fmt.Sprintf("datalog error %s: cfg=%s batch=%d: %s", e.Kind, e.Configuration, e.Batch, e.Detail)
	}
	return fmt.Sprintf("datalog error %s: cfg=%s: %s", e.Kind, e.Configuration, e.Detail)
}

// Is allows errors.Is(err, &DatalogError{Kind: X}) to match on Kind alone.
func (e *DatalogError) Is(target error) bool {
	t, ok := target.(*DatalogError)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return true
	}
	return t.Kind == e.Kind
}

// NewDatalogError builds a DatalogError with a formatted detail message.
func NewDatalogError(kind DatalogErrorKind, cfg Hash, batch int64, format string, args ...any) *DatalogError {
	return &DatalogError{Kind: kind, Configuration: cfg, Batch: batch, Detail: fmt.Sprintf(format, args...)}
}
