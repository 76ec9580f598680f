// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package board_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sequentech/braid/board"
)

func TestHTTPClientRoundTrip(t *testing.T) {
	require := require.New(t)

	memboard := board.NewMemoryBoard()
	handler, err := board.NewHandler(memboard)
	require.NoError(err)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	client := board.NewHTTPClient(srv.URL, 2*time.Second)
	ctx := context.Background()

	names, err := client.GetBoards(ctx)
	require.NoError(err)
	require.Empty(names)

	err = client.PutMessagesMulti(ctx, []board.BoardMessages{
		{Board: "election-1", Messages: []board.Message{
			{Bytes: []byte("hello"), Version: "v1"},
			{Bytes: []byte("world"), Version: "v1"},
		}},
	})
	require.NoError(err)

	names, err = client.GetBoards(ctx)
	require.NoError(err)
	require.Equal([]string{"election-1"}, names)

	got, err := client.GetMessagesMulti(ctx, []board.Cursor{{Board: "election-1", LastID: 0}})
	require.NoError(err)
	require.Len(got, 1)
	require.Equal("election-1", got[0].Board)
	require.Len(got[0].Messages, 2)
	require.Equal(int64(1), got[0].Messages[0].ID)
	require.Equal([]byte("hello"), got[0].Messages[0].Bytes)
	require.Equal(int64(2), got[0].Messages[1].ID)

	// Requesting strictly after the first message returns only the second.
	got, err = client.GetMessagesMulti(ctx, []board.Cursor{{Board: "election-1", LastID: 1}})
	require.NoError(err)
	require.Len(got[0].Messages, 1)
	require.Equal([]byte("world"), got[0].Messages[0].Bytes)
}

func TestPutMessagesMultiAcceptsMultipleBoards(t *testing.T) {
	require := require.New(t)

	memboard := board.NewMemoryBoard()
	handler, err := board.NewHandler(memboard)
	require.NoError(err)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	client := board.NewHTTPClient(srv.URL, 2*time.Second)
	ctx := context.Background()
	err = client.PutMessagesMulti(ctx, []board.BoardMessages{
		{Board: "a", Messages: []board.Message{{Bytes: []byte("x")}}},
		{Board: "b", Messages: []board.Message{{Bytes: []byte("y")}, {Bytes: []byte("z")}}},
	})
	require.NoError(err)

	got, err := client.GetMessagesMulti(ctx, []board.Cursor{
		{Board: "a", LastID: 0}, {Board: "b", LastID: 0},
	})
	require.NoError(err)
	require.Len(got, 2)
}
