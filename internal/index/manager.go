package index

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/newsdigest/internal/ai"
	"github.com/xxxsen/newsdigest/internal/filestore"
	"github.com/xxxsen/newsdigest/internal/model"
	appErr "github.com/xxxsen/newsdigest/internal/pkg/errors"
)

// Embedding task types, passed through to providers that distinguish them.
const (
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

// ArticleLister is the slice of the article store a rebuild needs.
type ArticleLister interface {
	ListAll(ctx context.Context) ([]model.Article, error)
}

// Manager owns the process-wide current index. Rebuild constructs a fresh
// flatIndex off to the side and publishes it atomically, so concurrent
// searches always see a complete snapshot — either the previous build or the
// new one, never a half-built index.
type Manager struct {
	lister    ArticleLister
	embedder  ai.IEmbedder
	artifacts filestore.Store
	blobKey   string
	metaKey   string

	rebuildMu sync.Mutex
	current   atomic.Pointer[flatIndex]
}

func NewManager(lister ArticleLister, embedder ai.IEmbedder, artifacts filestore.Store, blobKey, metaKey string) *Manager {
	return &Manager{
		lister:    lister,
		embedder:  embedder,
		artifacts: artifacts,
		blobKey:   blobKey,
		metaKey:   metaKey,
	}
}

// Ready reports whether a snapshot has been published.
func (m *Manager) Ready() bool {
	return m.current.Load() != nil
}

// Size returns the entry count of the current snapshot, 0 when unbuilt.
func (m *Manager) Size() int {
	cur := m.current.Load()
	if cur == nil {
		return 0
	}
	return cur.size()
}

// Search embeds the query and returns the k nearest articles, ascending by
// distance. Before the first successful build or load it fails with
// ErrIndexUnavailable rather than pretending there are no matches.
func (m *Manager) Search(ctx context.Context, query string, k int) ([]model.RetrievalResult, error) {
	cur := m.current.Load()
	if cur == nil {
		return nil, appErr.ErrIndexUnavailable
	}
	vec, err := m.embedder.Embed(ctx, query, TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return cur.search(vec, k)
}

// Rebuild re-embeds every article in the store and swaps in the result.
// It is all-or-nothing: any embedding failure aborts the build and the
// previous snapshot keeps serving. Artifact persistence failures are logged
// but do not block publication.
func (m *Manager) Rebuild(ctx context.Context) error {
	m.rebuildMu.Lock()
	defer m.rebuildMu.Unlock()

	logger := logutil.GetLogger(ctx)
	start := time.Now()

	articles, err := m.lister.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list articles: %w", err)
	}
	vectors := make([][]float32, 0, len(articles))
	snapshots := make([]model.ArticleSnapshot, 0, len(articles))
	dim := 0
	for i := range articles {
		article := &articles[i]
		vec, err := m.embedder.Embed(ctx, embedText(article), TaskDocument)
		if err != nil {
			return fmt.Errorf("embed article %s: %w", article.URL, err)
		}
		if dim == 0 {
			dim = len(vec)
		}
		vectors = append(vectors, vec)
		snapshots = append(snapshots, article.Snapshot())
	}
	ix, err := newFlatIndex(dim, vectors, snapshots)
	if err != nil {
		return err
	}

	if ix.size() > 0 {
		if err := m.persist(ctx, ix); err != nil {
			logger.Warn("failed to persist index artifacts", zap.Error(err))
		}
	}
	m.current.Store(ix)
	logger.Info("index rebuilt",
		zap.Int("entries", ix.size()),
		zap.Int("dim", dim),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Load restores the persisted artifact pair. Any failure — missing blob,
// missing metadata, corrupt or mismatched pair — falls back to a rebuild
// from the article store; it never crashes the caller.
func (m *Manager) Load(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)
	ix, err := m.restore(ctx)
	if err != nil {
		logger.Warn("index artifacts unavailable, rebuilding", zap.Error(err))
		return m.Rebuild(ctx)
	}
	m.current.Store(ix)
	logger.Info("index loaded from artifacts", zap.Int("entries", ix.size()))
	return nil
}

func (m *Manager) restore(ctx context.Context) (*flatIndex, error) {
	blobReader, err := m.artifacts.Open(ctx, m.blobKey)
	if err != nil {
		return nil, fmt.Errorf("open index blob: %w", err)
	}
	defer blobReader.Close()
	dim, vectors, err := decodeBlob(blobReader)
	if err != nil {
		return nil, err
	}
	metaReader, err := m.artifacts.Open(ctx, m.metaKey)
	if err != nil {
		return nil, fmt.Errorf("open index metadata: %w", err)
	}
	defer metaReader.Close()
	meta, err := decodeMeta(metaReader)
	if err != nil {
		return nil, err
	}
	return assemble(dim, vectors, meta)
}

func (m *Manager) persist(ctx context.Context, ix *flatIndex) error {
	builtAt := time.Now().UTC()
	blob, err := encodeBlob(ix)
	if err != nil {
		return err
	}
	meta, err := encodeMeta(ix, m.embedder.ModelName(), builtAt)
	if err != nil {
		return err
	}
	if err := m.artifacts.Save(ctx, m.blobKey, newByteReader(blob), int64(len(blob))); err != nil {
		return fmt.Errorf("save index blob: %w", err)
	}
	if err := m.artifacts.Save(ctx, m.metaKey, newByteReader(meta), int64(len(meta))); err != nil {
		return fmt.Errorf("save index metadata: %w", err)
	}
	return nil
}

// embedText is the text the index is built over: title plus excerpt. Full
// content is deliberately excluded to keep vectors comparable between
// articles with and without fetched bodies.
func embedText(a *model.Article) string {
	return a.Title + "\n\n" + a.Excerpt
}

type byteReader struct {
	*bytes.Reader
}

func newByteReader(data []byte) filestore.ReadSeekCloser {
	return byteReader{Reader: bytes.NewReader(data)}
}

func (byteReader) Close() error { return nil }
