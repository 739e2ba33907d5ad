package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasher_SHA256KnownVectors(t *testing.T) {
	h := NewHasher(HashSHA256)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", h.Finish())

	h = NewHasher(HashSHA256)
	h.Write([]byte("ab"))
	h.Write([]byte("c"))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", h.Finish())
}

func TestHasher_BLAKE3ChunkingIndependent(t *testing.T) {
	data := randomBytes(t, 10_000)

	whole := NewHasher(HashBLAKE3)
	whole.Write(data)

	pieces := NewHasher(HashBLAKE3)
	for i := 0; i < len(data); i += 7 {
		end := min(i+7, len(data))
		pieces.Write(data[i:end])
	}

	assert.Len(t, whole.Finish(), 64)
	assert.Equal(t, whole.Finish(), pieces.Finish())
}

func TestParseHashAlgorithm(t *testing.T) {
	alg, err := ParseHashAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, HashSHA256, alg)

	alg, err = ParseHashAlgorithm(" BLAKE3 ")
	require.NoError(t, err)
	assert.Equal(t, HashBLAKE3, alg)

	_, err = ParseHashAlgorithm("md5")
	assert.Error(t, err)
}
