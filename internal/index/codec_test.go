package index

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func buildTestIndex(t *testing.T) *flatIndex {
	t.Helper()
	vectors := [][]float32{
		{0.1, -0.2, 0.3},
		{1.5, 0, -2.25},
	}
	ix, err := newFlatIndex(3, vectors, testSnapshots(2))
	require.NoError(t, err)
	return ix
}

func TestBlobRoundTrip(t *testing.T) {
	ix := buildTestIndex(t)

	blob, err := encodeBlob(ix)
	require.NoError(t, err)

	dim, vectors, err := decodeBlob(bytes.NewReader(blob))
	require.NoError(t, err)
	require.Equal(t, 3, dim)
	require.Equal(t, ix.vectors, vectors)
}

func TestDecodeBlob_BadMagic(t *testing.T) {
	blob := []byte("XXXX rest does not matter")
	_, _, err := decodeBlob(bytes.NewReader(blob))
	require.Error(t, err)
}

func TestDecodeBlob_Truncated(t *testing.T) {
	ix := buildTestIndex(t)
	blob, err := encodeBlob(ix)
	require.NoError(t, err)

	_, _, err = decodeBlob(bytes.NewReader(blob[:len(blob)-3]))
	require.Error(t, err)
}

func TestMetaRoundTrip(t *testing.T) {
	ix := buildTestIndex(t)
	builtAt := time.Now().UTC().Truncate(time.Second)

	raw, err := encodeMeta(ix, "embed-test-model", builtAt)
	require.NoError(t, err)

	meta, err := decodeMeta(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, "embed-test-model", meta.Model)
	require.Equal(t, 3, meta.Dim)
	require.Equal(t, 2, meta.Count)
	require.True(t, meta.BuiltAt.Equal(builtAt))
	require.Equal(t, ix.snapshots, meta.Snapshots)
}

func TestAssemble_RejectsMismatchedPair(t *testing.T) {
	ix := buildTestIndex(t)
	builtAt := time.Now().UTC()

	raw, err := encodeMeta(ix, "m", builtAt)
	require.NoError(t, err)
	meta, err := decodeMeta(bytes.NewReader(raw))
	require.NoError(t, err)

	_, err = assemble(4, ix.vectors, meta)
	require.Error(t, err)

	_, err = assemble(3, ix.vectors[:1], meta)
	require.Error(t, err)
}

func TestAssemble_RoundTripSearchIdentical(t *testing.T) {
	ix := buildTestIndex(t)

	blob, err := encodeBlob(ix)
	require.NoError(t, err)
	rawMeta, err := encodeMeta(ix, "m", time.Now().UTC())
	require.NoError(t, err)

	dim, vectors, err := decodeBlob(bytes.NewReader(blob))
	require.NoError(t, err)
	meta, err := decodeMeta(bytes.NewReader(rawMeta))
	require.NoError(t, err)
	restored, err := assemble(dim, vectors, meta)
	require.NoError(t, err)

	query := []float32{0.2, -0.1, 0.1}
	want, err := ix.search(query, 2)
	require.NoError(t, err)
	got, err := restored.search(query, 2)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].Article, got[i].Article)
		require.InDelta(t, want[i].Distance, got[i].Distance, 1e-6)
		require.InDelta(t, want[i].Score, got[i].Score, 1e-6)
	}
}
