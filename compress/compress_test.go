package compress

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/collcache/internal/wire"
)

func compressors(t *testing.T) []Compressor {
	t.Helper()
	z, err := NewZstd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = z.Close() })
	return []Compressor{LZ4{}, z}
}

func TestCompress_RoundTripCompressible(t *testing.T) {
	data := bytes.Repeat([]byte(`{"id":1,"name":"widget"},`), 400)

	for _, c := range compressors(t) {
		t.Run(c.Name(), func(t *testing.T) {
			block, err := c.Compress(data)
			require.NoError(t, err)
			assert.Less(t, len(block), len(data)/2, "repeated JSON should compress well")

			alg, rawLen, _, err := wire.DecodeBlock(block)
			require.NoError(t, err)
			assert.NotEqual(t, wire.AlgRaw, alg)
			assert.Equal(t, len(data), rawLen)

			out, err := c.Decompress(block)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestCompress_IncompressibleStoredRaw(t *testing.T) {
	data := make([]byte, 2048)
	rand.New(rand.NewSource(7)).Read(data)

	for _, c := range compressors(t) {
		t.Run(c.Name(), func(t *testing.T) {
			block, err := c.Compress(data)
			require.NoError(t, err)

			alg, _, _, err := wire.DecodeBlock(block)
			require.NoError(t, err)
			assert.Equal(t, wire.AlgRaw, alg)

			out, err := c.Decompress(block)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestCompress_Empty(t *testing.T) {
	for _, c := range compressors(t) {
		block, err := c.Compress(nil)
		require.NoError(t, err)
		out, err := c.Decompress(block)
		require.NoError(t, err)
		assert.Empty(t, out)
	}
}

func TestDecompress_RejectsCorruptInput(t *testing.T) {
	for _, c := range compressors(t) {
		t.Run(c.Name(), func(t *testing.T) {
			_, err := c.Decompress([]byte(`{"id":1}`))
			assert.True(t, errors.Is(err, wire.ErrCorrupt), "plain JSON is not a block: %v", err)
		})
	}
}

func TestDecompress_AlgorithmMismatch(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefgh"), 512)
	block, err := LZ4{}.Compress(data)
	require.NoError(t, err)

	z, err := NewZstd()
	require.NoError(t, err)
	defer z.Close()

	_, err = z.Decompress(block)
	assert.ErrorIs(t, err, wire.ErrCorrupt)
}

func TestByName(t *testing.T) {
	c, err := ByName("")
	require.NoError(t, err)
	assert.Equal(t, "lz4", c.Name())

	c, err = ByName("zstd")
	require.NoError(t, err)
	assert.Equal(t, "zstd", c.Name())

	_, err = ByName("snappy")
	assert.Error(t, err)
}
