package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewULID(t *testing.T) {
	id := NewULID()
	assert.Len(t, id, 26)
	assert.NotEqual(t, id, NewULID())
}

func TestNewShortID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewShortID()
		assert.Len(t, id, 9)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
