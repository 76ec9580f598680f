// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sequentech/braid/action"
	"github.com/sequentech/braid/board"
	"github.com/sequentech/braid/log"
	"github.com/sequentech/braid/metrics"
	"github.com/sequentech/braid/types"
)

// Loop polls a board client's list of boards on a fixed interval,
// running one Session per board it is authorized for, and maintains a
// permanent ignore list for boards it is not (spec.md §4.5, §7).
type Loop struct {
	Board           board.Client
	SigningKeyBytes []byte
	SymmetricKey    [32]byte
	Cache           action.Cache
	Log             log.Logger
	Metrics         *metrics.Metrics

	// PollInterval is the sleep between ticks. Defaults to 2 seconds
	// if zero.
	PollInterval time.Duration
	// Strict exits the loop with an error on any step failure other
	// than types.ErrNotAuthorized (spec.md §6 "Exit conditions").
	Strict bool

	mu       sync.Mutex
	sessions map[string]*Session
	ignored  map[string]struct{}
}

// Run polls indefinitely until ctx is cancelled, or until a step fails
// in Strict mode, in which case Run returns that error.
func (l *Loop) Run(ctx context.Context) error {
	if l.Log == nil {
		l.Log = log.NewNop()
	}
	if l.PollInterval <= 0 {
		l.PollInterval = 2 * time.Second
	}
	if l.sessions == nil {
		l.sessions = make(map[string]*Session)
	}
	if l.ignored == nil {
		l.ignored = make(map[string]struct{})
	}

	ticker := time.NewTicker(l.PollInterval)
	defer ticker.Stop()

	for {
		if err := l.tick(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// tick steps every board the loop is not ignoring, one session each.
// Boards are independent — each session owns its store exclusively,
// and the board client is required to be safe for concurrent use
// (spec.md §5 "Shared-resource policy") — so they are stepped
// concurrently rather than one at a time.
func (l *Loop) tick(ctx context.Context) error {
	boards, err := l.Board.GetBoards(ctx)
	if err != nil {
		l.Metrics.BoardPollFailed()
		l.Log.Warn("session: listing boards failed", "error", err)
		return nil
	}

	var eg errgroup.Group
	var errMu sync.Mutex
	var firstErr error
	recordStrictErr := func(err error) {
		if !l.Strict {
			return
		}
		errMu.Lock()
		defer errMu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, name := range boards {
		name := name
		l.mu.Lock()
		_, skip := l.ignored[name]
		l.mu.Unlock()
		if skip {
			continue
		}

		eg.Go(func() error {
			l.mu.Lock()
			sess, ok := l.sessions[name]
			if !ok {
				sess = New(l.Board, name, l.SigningKeyBytes, l.SymmetricKey, l.Cache, l.Log, l.Metrics)
				l.sessions[name] = sess
			}
			l.mu.Unlock()

			err := sess.Step(ctx)
			switch {
			case err == nil:
			case errors.Is(err, types.ErrNotAuthorized):
				l.Log.Info("session: ignoring unauthorized board", "board", name)
				l.mu.Lock()
				l.ignored[name] = struct{}{}
				delete(l.sessions, name)
				l.mu.Unlock()
			case errors.Is(err, types.ErrInternal):
				l.Log.Error("session: internal error, restarting session", "board", name, "error", err)
				l.mu.Lock()
				delete(l.sessions, name)
				l.mu.Unlock()
				recordStrictErr(err)
			default:
				l.Log.Error("session: step failed", "board", name, "error", err)
				recordStrictErr(err)
			}
			return nil
		})
	}
	_ = eg.Wait()
	return firstErr
}
