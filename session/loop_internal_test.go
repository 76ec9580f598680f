// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sequentech/braid/board/boardmock"
	"github.com/sequentech/braid/log"
	"github.com/sequentech/braid/types"
)

// TestStepRecoversPanicFromNilBoard exercises Step's recover() path
// directly: a zero-value Session has a nil Board, so the first call
// into it panics on a nil interface method call. Step must convert
// that into a types.ErrInternal error rather than crashing the
// process (spec.md §7 "Internal invariant violations").
func TestStepRecoversPanicFromNilBoard(t *testing.T) {
	require := require.New(t)

	s := &Session{}
	err := s.Step(context.Background())
	require.ErrorIs(err, types.ErrInternal)
}

// TestTickSwallowsBoardListingFailure asserts that a failing GetBoards
// call does not abort tick: it must log and return nil so Run keeps
// polling on the next tick, even in Strict mode (spec.md §6 "Exit
// conditions" names step failures, not board-listing failures, as
// terminal). Asserted against a gomock expectation rather than a
// behavioral fake so the exact call (and that it happens exactly
// once) is pinned down directly.
func TestTickSwallowsBoardListingFailure(t *testing.T) {
	require := require.New(t)

	ctrl := gomock.NewController(t)
	client := boardmock.NewMockClient(ctrl)
	client.EXPECT().GetBoards(gomock.Any()).Return(nil, errors.New("transport down")).Times(1)

	l := &Loop{Board: client, Strict: true, Log: log.NewNop(), sessions: map[string]*Session{}, ignored: map[string]struct{}{}}
	err := l.tick(context.Background())
	require.NoError(err)
}
