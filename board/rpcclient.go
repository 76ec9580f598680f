// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// rpcRequest and rpcResponse follow the wire contract of
// github.com/gorilla/rpc's JSON codec (github.com/gorilla/rpc/v2/json):
// a single positional argument in Params, and Service.Method dotted in
// Method. gorilla/rpc ships no client; HTTPClient is this module's
// hand-written counterpart speaking the same wire format, the way a
// JSON-RPC consumer of a gorilla/rpc service is expected to.
type rpcRequest struct {
	Method string        `json:"method"`
	Params [1]interface{} `json:"params"`
	ID     uint64        `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
	ID     uint64          `json:"id"`
}

// HTTPClient is a board.Client that speaks JSON-RPC to a service
// registered with gorilla/rpc (see RegisterService). It is safe for
// concurrent use: the underlying *http.Client pools connections and
// nextID is only ever advanced atomically.
type HTTPClient struct {
	Endpoint string
	HTTP     *http.Client
	nextID   atomic.Uint64
}

// NewHTTPClient returns a client posting to endpoint with the given
// per-call timeout.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		Endpoint: endpoint,
		HTTP:     &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) call(ctx context.Context, method string, args, reply interface{}) error {
	req := rpcRequest{Method: method, ID: c.nextID.Add(1)}
	req.Params[0] = args

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("board: encoding request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("board: building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("board: %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("board: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("board: %s: HTTP %d: %s", method, resp.StatusCode, respBody)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("board: decoding response: %w", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("board: %s: %s", method, *rpcResp.Error)
	}
	if reply != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, reply); err != nil {
			return fmt.Errorf("board: decoding result: %w", err)
		}
	}
	return nil
}

func (c *HTTPClient) GetBoards(ctx context.Context) ([]string, error) {
	var reply GetBoardsReply
	if err := c.call(ctx, "BoardService.GetBoards", GetBoardsArgs{}, &reply); err != nil {
		return nil, err
	}
	return reply.Boards, nil
}

func (c *HTTPClient) GetMessagesMulti(ctx context.Context, cursors []Cursor) ([]BoardMessages, error) {
	var reply GetMessagesMultiReply
	args := GetMessagesMultiArgs{Cursors: cursors}
	if err := c.call(ctx, "BoardService.GetMessagesMulti", args, &reply); err != nil {
		return nil, err
	}
	return reply.Boards, nil
}

// MaxChunkBytes bounds the accumulated payload size of a single
// PutMessagesMulti wire call (spec.md §5 "Back-pressure"). A lone
// message larger than this is a fatal error for its batch rather than
// being split, since a message's bytes are an opaque signed blob that
// cannot be partially posted.
const MaxChunkBytes = 1 << 20

func (c *HTTPClient) PutMessagesMulti(ctx context.Context, batches []BoardMessages) error {
	chunks, err := chunkBoardMessages(batches, MaxChunkBytes)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		args := PutMessagesMultiArgs{Boards: chunk}
		if err := c.call(ctx, "BoardService.PutMessagesMulti", args, nil); err != nil {
			return err
		}
	}
	return nil
}

// chunkBoardMessages splits batches into wire-call-sized groups,
// preserving each board's message order and never splitting a single
// message across chunks. A single message over limit is a fatal error
// for the whole batch (spec.md §5 "Back-pressure"): its bytes are an
// opaque signed blob that cannot be partially posted, so there is no
// chunk it could ever fit in.
func chunkBoardMessages(batches []BoardMessages, limit int) ([][]BoardMessages, error) {
	var chunks [][]BoardMessages
	var current []BoardMessages
	size := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, current)
			current = nil
			size = 0
		}
	}
	appendTo := func(board string, m Message) {
		for i := range current {
			if current[i].Board == board {
				current[i].Messages = append(current[i].Messages, m)
				return
			}
		}
		current = append(current, BoardMessages{Board: board, Messages: []Message{m}})
	}

	for _, b := range batches {
		for _, m := range b.Messages {
			n := len(m.Bytes)
			if n > limit {
				return nil, fmt.Errorf("board: message for %q is %d bytes, over the %d byte chunk limit", b.Board, n, limit)
			}
			if size+n > limit {
				flush()
			}
			appendTo(b.Board, m)
			size += n
		}
	}
	flush()
	return chunks, nil
}

var _ Client = (*HTTPClient)(nil)
