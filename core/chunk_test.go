package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkVariants(t *testing.T) {
	var _ Chunk = TextChunk{}
	var _ Chunk = ToolCallChunk{}
	var _ Chunk = HandoffChunk{}
	var _ Chunk = DoneChunk{}
	var _ Chunk = ErrorChunk{}
}

func TestTeardownResultErr(t *testing.T) {
	r := &TeardownResult{AgentsDeleted: 2, FilesDeleted: 1}
	assert.True(t, r.OK())
	assert.NoError(t, r.Err())

	r.Failures = append(r.Failures, ResourceFailure{
		Kind: ResourceFile,
		ID:   "file_1",
		Err:  errors.New("permission denied"),
	})
	assert.False(t, r.OK())
	assert.ErrorContains(t, r.Err(), "file file_1")
}

func TestProviderErrorUnwrap(t *testing.T) {
	err := NewProviderError("delete agent", "asst_1", ErrNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "delete agent asst_1")
}
