package id

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompound_Deterministic(t *testing.T) {
	a := Compound("atlantic_philanthropies", "zk51vh33z")
	b := Compound("atlantic_philanthropies", "zk51vh33z")

	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
	assert.Equal(t, strings.ToLower(a), a)
}

func TestCompound_KnownValue(t *testing.T) {
	// md5("1-abc")
	assert.Equal(t, "dd9f55fa4cedb0083d547941970c26ad", Compound("1", "abc"))
}

func TestCompound_DistinctPairs(t *testing.T) {
	seen := make(map[string]string)
	for e := 0; e < 20; e++ {
		for i := 0; i < 50; i++ {
			pair := fmt.Sprintf("exhibit%d/item%d", e, i)
			id := Compound(fmt.Sprintf("exhibit%d", e), fmt.Sprintf("item%d", i))
			prev, dup := seen[id]
			require.False(t, dup, "collision between %s and %s", prev, pair)
			seen[id] = pair
		}
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate("fld")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	id, err := Generate("fld")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, "fld-"))
	assert.Len(t, id, len("fld-")+21)
}

