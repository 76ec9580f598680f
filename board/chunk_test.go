// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

package board

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkBoardMessagesRespectsLimit(t *testing.T) {
	require := require.New(t)

	batches := []BoardMessages{
		{Board: "a", Messages: []Message{
			{Bytes: make([]byte, 40)},
			{Bytes: make([]byte, 40)},
			{Bytes: make([]byte, 40)},
		}},
	}
	chunks, err := chunkBoardMessages(batches, 50)
	require.NoError(err)
	require.Len(chunks, 3)
	for _, c := range chunks {
		require.Len(c, 1)
		require.Len(c[0].Messages, 1)
	}
}

func TestChunkBoardMessagesPreservesOrderAcrossBoards(t *testing.T) {
	require := require.New(t)

	batches := []BoardMessages{
		{Board: "a", Messages: []Message{{Bytes: make([]byte, 10)}, {Bytes: make([]byte, 10)}}},
		{Board: "b", Messages: []Message{{Bytes: make([]byte, 10)}}},
	}
	chunks, err := chunkBoardMessages(batches, 1000)
	require.NoError(err)
	require.Len(chunks, 1)
	require.Len(chunks[0], 2)
	require.Equal("a", chunks[0][0].Board)
	require.Len(chunks[0][0].Messages, 2)
	require.Equal("b", chunks[0][1].Board)
}

// TestChunkBoardMessagesOversizedMessageIsFatal asserts that a single
// message over the chunk limit fails the whole batch instead of being
// forwarded as its own oversized chunk (spec.md §5 "Back-pressure"; see
// also the original client's Chunker::add_message, which returns an
// error rather than ever sending such a message).
func TestChunkBoardMessagesOversizedMessageIsFatal(t *testing.T) {
	require := require.New(t)

	batches := []BoardMessages{
		{Board: "a", Messages: []Message{{Bytes: make([]byte, 100)}}},
	}
	chunks, err := chunkBoardMessages(batches, 10)
	require.Error(err)
	require.Nil(chunks)
}
