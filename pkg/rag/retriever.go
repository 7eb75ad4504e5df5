package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// rrfK dampens the weight of lower ranks in reciprocal rank fusion.
const rrfK = 60

// preRetrieveMultiplier widens per-retriever candidate sets before fusion.
const preRetrieveMultiplier = 3

// EmbeddingRetriever embeds the query and searches a document store by vector
// similarity. An optional cache short-circuits repeated queries; cache
// failures are logged and ignored.
type EmbeddingRetriever struct {
	embedder Embedder
	store    DocumentStore
	cache    ResultCache
	log      *logrus.Logger
}

// NewEmbeddingRetriever returns a vector retriever over the store. Cache may
// be nil; a nil logger falls back to a fresh one.
func NewEmbeddingRetriever(embedder Embedder, store DocumentStore, cache ResultCache, log *logrus.Logger) *EmbeddingRetriever {
	if log == nil {
		log = logrus.New()
	}

	return &EmbeddingRetriever{
		embedder: embedder,
		store:    store,
		cache:    cache,
		log:      log,
	}
}

func (r *EmbeddingRetriever) Retrieve(ctx context.Context, query string, opts SearchOptions) ([]Document, error) {
	key := queryKey(query, opts)

	if r.cache != nil {
		docs, ok, err := r.cache.Get(ctx, key)
		switch {
		case err != nil:
			r.log.WithError(err).Warn("retrieval cache get failed")
		case ok:
			r.log.WithField("query", query).Debug("retrieval cache hit")
			return docs, nil
		}
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "unable to embed query")
	}

	docs, err := r.store.Search(ctx, vector, opts)
	if err != nil {
		return nil, errors.Wrap(err, "unable to search store")
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, docs); err != nil {
			r.log.WithError(err).Warn("retrieval cache set failed")
		}
	}

	return docs, nil
}

// KeywordRetriever matches documents by term overlap with the query.
type KeywordRetriever struct {
	store DocumentStore
}

// NewKeywordRetriever returns a keyword retriever over the store.
func NewKeywordRetriever(store DocumentStore) *KeywordRetriever {
	return &KeywordRetriever{store: store}
}

func (r *KeywordRetriever) Retrieve(ctx context.Context, query string, opts SearchOptions) ([]Document, error) {
	docs, err := r.store.SearchKeyword(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "unable to search store by keyword")
	}

	return docs, nil
}

// HybridRetriever runs a dense and a sparse retriever in parallel and fuses
// their results with reciprocal rank fusion. Both retrievers fetch a widened
// candidate set so fusion has enough overlap to work with.
type HybridRetriever struct {
	dense  Retriever
	sparse Retriever
	log    *logrus.Logger
}

// NewHybridRetriever combines a dense and a sparse retriever. A nil logger
// falls back to a fresh one.
func NewHybridRetriever(dense, sparse Retriever, log *logrus.Logger) *HybridRetriever {
	if log == nil {
		log = logrus.New()
	}

	return &HybridRetriever{
		dense:  dense,
		sparse: sparse,
		log:    log,
	}
}

func (r *HybridRetriever) Retrieve(ctx context.Context, query string, opts SearchOptions) ([]Document, error) {
	pre := opts
	if pre.TopK > 0 {
		pre.TopK *= preRetrieveMultiplier
	}

	var dense, sparse []Document

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		var err error
		dense, err = r.dense.Retrieve(gctx, query, pre)
		return errors.Wrap(err, "dense retrieval")
	})
	grp.Go(func() error {
		var err error
		sparse, err = r.sparse.Retrieve(gctx, query, pre)
		return errors.Wrap(err, "sparse retrieval")
	})
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	r.log.WithFields(logrus.Fields{
		"dense":  len(dense),
		"sparse": len(sparse),
	}).Debug("fusing retrieval results")

	return FuseRRF(opts.TopK, dense, sparse), nil
}

// FuseRRF merges ranked result lists with reciprocal rank fusion. Documents
// are identified by ID; the fused list is ordered by fused score with ties
// broken by first appearance. A non-positive topK keeps every document.
func FuseRRF(topK int, lists ...[]Document) []Document {
	type fused struct {
		doc   Document
		score float64
	}

	byID := make(map[string]*fused)
	var arrival []*fused

	for _, list := range lists {
		for rank, doc := range list {
			f, ok := byID[doc.ID]
			if !ok {
				f = &fused{doc: doc}
				byID[doc.ID] = f
				arrival = append(arrival, f)
			}
			f.score += 1 / float64(rrfK+rank+1)
		}
	}

	sort.SliceStable(arrival, func(i, j int) bool {
		return arrival[i].score > arrival[j].score
	})

	if topK <= 0 || topK > len(arrival) {
		topK = len(arrival)
	}

	out := make([]Document, 0, topK)
	for _, f := range arrival[:topK] {
		doc := f.doc
		doc.Score = f.score
		out = append(out, doc)
	}

	return out
}

// queryKey derives a stable cache key from a query and its search options.
func queryKey(query string, opts SearchOptions) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%g", query, opts.TopK, opts.MinScore)

	keys := make([]string, 0, len(opts.Filter))
	for k := range opts.Filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "|%s=%v", k, opts.Filter[k])
	}

	return hex.EncodeToString(h.Sum(nil))
}

var (
	_ Retriever = (*EmbeddingRetriever)(nil)
	_ Retriever = (*KeywordRetriever)(nil)
	_ Retriever = (*HybridRetriever)(nil)
)
