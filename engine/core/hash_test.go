package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/atlas/engine/core"
)

func TestHashNameIsStable(t *testing.T) {
	// These hashes end up in serialized streams; they must never change.
	assert.Equal(t, core.HashName("hierarchy"), core.HashName("hierarchy"))
	assert.NotEqual(t, core.HashName("hierarchy"), core.HashName("renderer"))
	assert.NotZero(t, core.HashName("hierarchy"))
}
