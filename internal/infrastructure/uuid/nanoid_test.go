package uuid

import (
	"testing"

	guuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNanoIDGenerator(t *testing.T) {
	g := NewNanoIDGenerator(16)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := g.Generate()
		require.NoError(t, err)
		assert.Len(t, id, 16)
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Panics(t, func() { NewNanoIDGenerator(0) })
}

func TestRequestID(t *testing.T) {
	id := RequestID()
	_, err := guuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, RequestID())
}
