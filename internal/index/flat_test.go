package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/newsdigest/internal/model"
)

func testSnapshots(n int) []model.ArticleSnapshot {
	snapshots := make([]model.ArticleSnapshot, 0, n)
	for i := 0; i < n; i++ {
		snapshots = append(snapshots, model.ArticleSnapshot{
			ID:    int64(i + 1),
			Title: string(rune('a' + i)),
			URL:   "https://news.example/" + string(rune('a'+i)),
		})
	}
	return snapshots
}

func TestNewFlatIndex_Validation(t *testing.T) {
	_, err := newFlatIndex(2, [][]float32{{1, 2}, {3}}, testSnapshots(2))
	require.Error(t, err)

	_, err = newFlatIndex(2, [][]float32{{1, 2}}, testSnapshots(2))
	require.Error(t, err)

	_, err = newFlatIndex(-1, [][]float32{{1}}, testSnapshots(1))
	require.Error(t, err)

	empty, err := newFlatIndex(0, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, empty.size())
}

func TestFlatIndexSearch_OrderingAndScores(t *testing.T) {
	vectors := [][]float32{
		{0, 0},
		{3, 4},
		{1, 0},
		{0, 2},
	}
	ix, err := newFlatIndex(2, vectors, testSnapshots(len(vectors)))
	require.NoError(t, err)

	results, err := ix.search([]float32{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Squared L2 from origin: 0, 1, 4; the (3,4) vector at 25 is cut off.
	require.Equal(t, int64(1), results[0].Article.ID)
	require.Equal(t, int64(3), results[1].Article.ID)
	require.Equal(t, int64(4), results[2].Article.ID)

	prev := float32(-1)
	for _, r := range results {
		require.GreaterOrEqual(t, r.Distance, float32(0))
		require.GreaterOrEqual(t, r.Distance, prev)
		require.InDelta(t, 1/(1+r.Distance), r.Score, 1e-6)
		prev = r.Distance
	}
}

func TestFlatIndexSearch_KLargerThanSize(t *testing.T) {
	ix, err := newFlatIndex(2, [][]float32{{1, 1}, {2, 2}}, testSnapshots(2))
	require.NoError(t, err)

	results, err := ix.search([]float32{0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestFlatIndexSearch_EmptyAndZeroK(t *testing.T) {
	empty, err := newFlatIndex(0, nil, nil)
	require.NoError(t, err)

	results, err := empty.search([]float32{1, 2}, 5)
	require.NoError(t, err)
	require.Empty(t, results)

	ix, err := newFlatIndex(2, [][]float32{{1, 1}}, testSnapshots(1))
	require.NoError(t, err)
	results, err = ix.search([]float32{0, 0}, 0)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestFlatIndexSearch_DimensionMismatch(t *testing.T) {
	ix, err := newFlatIndex(2, [][]float32{{1, 1}}, testSnapshots(1))
	require.NoError(t, err)

	_, err = ix.search([]float32{1, 2, 3}, 1)
	require.Error(t, err)
}

func TestFlatIndexSearch_MembersOnlyFromBuiltSet(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}}
	ix, err := newFlatIndex(2, vectors, testSnapshots(len(vectors)))
	require.NoError(t, err)

	results, err := ix.search([]float32{0.5, 0.5}, 3)
	require.NoError(t, err)

	known := map[int64]bool{1: true, 2: true, 3: true}
	for _, r := range results {
		require.True(t, known[r.Article.ID])
	}
}
