package service

import (
	"context"

	"github.com/xxxsen/newsdigest/internal/model"
)

// Searcher is the read side of the vector index.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]model.RetrievalResult, error)
}

// Retriever bounds k and delegates to the index. Index errors (including
// ErrIndexUnavailable before the first build) pass through untouched so
// callers never mistake an outage for an empty corpus.
type Retriever struct {
	searcher Searcher
	defaultK int
	maxK     int
}

func NewRetriever(searcher Searcher, defaultK int, maxK int) *Retriever {
	if defaultK <= 0 {
		defaultK = 3
	}
	if maxK <= 0 {
		maxK = 10
	}
	return &Retriever{searcher: searcher, defaultK: defaultK, maxK: maxK}
}

func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]model.RetrievalResult, error) {
	if k <= 0 {
		k = r.defaultK
	}
	if k > r.maxK {
		k = r.maxK
	}
	return r.searcher.Search(ctx, query, k)
}
