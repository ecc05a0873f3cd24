package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJumpHash_Range(t *testing.T) {
	for key := uint64(0); key < 1000; key++ {
		b := JumpHash(key*0x9e3779b97f4a7c15, 7)
		assert.GreaterOrEqual(t, b, 0)
		assert.Less(t, b, 7)
	}
}

func TestJumpHash_NoBuckets(t *testing.T) {
	assert.Equal(t, 0, JumpHash(42, 0))
	assert.Equal(t, 0, JumpHash(42, -1))
}

func TestJumpHash_Stable(t *testing.T) {
	// Growing the bucket count only moves keys to the new bucket
	for key := uint64(1); key < 500; key++ {
		before := JumpHash(key, 4)
		after := JumpHash(key, 5)
		if after != before {
			assert.Equal(t, 4, after)
		}
	}
}
