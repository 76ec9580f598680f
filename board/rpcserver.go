// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package board

import (
	"net/http"
	"sort"
	"sync"

	gorillarpc "github.com/gorilla/rpc/v2"
	gorillajson "github.com/gorilla/rpc/v2/json"
)

// GetBoardsArgs, GetBoardsReply, GetMessagesMultiArgs,
// GetMessagesMultiReply and PutMessagesMultiArgs are the gorilla/rpc
// request/reply pairs BoardService registers; each method's signature
// (*http.Request, *Args, *Reply) error is gorilla/rpc's required shape.
type GetBoardsArgs struct{}

type GetBoardsReply struct {
	Boards []string `json:"boards"`
}

type GetMessagesMultiArgs struct {
	Cursors []Cursor `json:"cursors"`
}

type GetMessagesMultiReply struct {
	Boards []BoardMessages `json:"boards"`
}

type PutMessagesMultiArgs struct {
	Boards []BoardMessages `json:"boards"`
}

type PutMessagesMultiReply struct{}

// MemoryBoard is a reference, in-process implementation of the board
// server: an append-only, per-board sequence of messages with
// server-assigned monotonic ids starting at 1. It exists for local
// development and integration tests; it is not a durability guarantee
// for production deployments.
type MemoryBoard struct {
	mu     sync.Mutex
	boards map[string][]Message
	nextID map[string]int64
}

// NewMemoryBoard returns an empty board.
func NewMemoryBoard() *MemoryBoard {
	return &MemoryBoard{boards: make(map[string][]Message), nextID: make(map[string]int64)}
}

func (b *MemoryBoard) GetBoards(r *http.Request, args *GetBoardsArgs, reply *GetBoardsReply) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.boards))
	for name := range b.boards {
		names = append(names, name)
	}
	sort.Strings(names)
	reply.Boards = names
	return nil
}

func (b *MemoryBoard) GetMessagesMulti(r *http.Request, args *GetMessagesMultiArgs, reply *GetMessagesMultiReply) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]BoardMessages, 0, len(args.Cursors))
	for _, c := range args.Cursors {
		all := b.boards[c.Board]
		var msgs []Message
		for _, m := range all {
			if m.ID > c.LastID {
				msgs = append(msgs, m)
			}
		}
		out = append(out, BoardMessages{Board: c.Board, Messages: msgs})
	}
	reply.Boards = out
	return nil
}

func (b *MemoryBoard) PutMessagesMulti(r *http.Request, args *PutMessagesMultiArgs, reply *PutMessagesMultiReply) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, bm := range args.Boards {
		for _, m := range bm.Messages {
			b.nextID[bm.Board]++
			m.ID = b.nextID[bm.Board]
			b.boards[bm.Board] = append(b.boards[bm.Board], m)
		}
	}
	return nil
}

// NewHandler mounts a MemoryBoard as a gorilla/rpc JSON-RPC service,
// registered under the name "BoardService" to match the method paths
// HTTPClient dials (e.g. "BoardService.GetBoards").
func NewHandler(b *MemoryBoard) (http.Handler, error) {
	server := gorillarpc.NewServer()
	server.RegisterCodec(gorillajson.NewCodec(), "application/json")
	if err := server.RegisterService(b, "BoardService"); err != nil {
		return nil, err
	}
	return server, nil
}
