// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect gathers paper metadata from OpenAlex, snapshots it to CSV
// and indexes it into the vector store.
package collect

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/topic-brainstorm/internal/httputil"
	"github.com/pdiddy/topic-brainstorm/internal/logger"
	"github.com/pdiddy/topic-brainstorm/internal/vectorstore"
	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

// Store is the subset of the vector store the collector writes to and
// queries.
type Store interface {
	AddDocuments(ctx context.Context, docs []types.Document) ([]string, error)
	SimilaritySearch(ctx context.Context, query string, k int) ([]vectorstore.Hit, error)
}

// OpenStoreFunc opens (or creates) the persisted store.
type OpenStoreFunc func() (Store, error)

// ErrNoDocuments is returned by CreateVectorDB when there is nothing to index.
var ErrNoDocuments = errors.New("no papers to index")

// Collector fetches papers and owns the vector store handle for a run.
type Collector struct {
	cfg       types.CollectorConfig
	vcfg      types.VectorDBConfig
	client    *httputil.RetryClient
	openStore OpenStoreFunc
	store     Store
	out       io.Writer
	log       *logger.Logger
	now       func() time.Time
}

// New builds a Collector. openStore is called lazily the first time the
// store is needed. Progress lines go to out.
func New(cfg types.Config, openStore OpenStoreFunc, out io.Writer, log *logger.Logger) *Collector {
	if log == nil {
		log = logger.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	log = log.With("component", "collector")
	hc := &http.Client{Timeout: 60 * time.Second}
	return &Collector{
		cfg:       cfg.Collector,
		vcfg:      cfg.VectorDB,
		client:    httputil.NewRetryClient(hc, log),
		openStore: openStore,
		out:       out,
		log:       log,
		now:       time.Now,
	}
}

// Store returns the store opened by CreateVectorDB or QueryDB, or nil.
func (c *Collector) Store() Store {
	return c.store
}

// Close closes the held store if it supports closing.
func (c *Collector) Close() error {
	if cl, ok := c.store.(io.Closer); ok {
		c.store = nil
		return cl.Close()
	}
	return nil
}

func (c *Collector) ensureStore() (Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	if c.openStore == nil {
		return nil, errors.New("no vector store configured")
	}
	s, err := c.openStore()
	if err != nil {
		return nil, err
	}
	c.store = s
	return s, nil
}

// QueryDB returns the k documents nearest to query, opening the persisted
// store first if this collector does not hold one yet.
func (c *Collector) QueryDB(ctx context.Context, query string, k int) ([]types.Document, error) {
	if k <= 0 {
		k = c.vcfg.SearchK
	}
	s, err := c.ensureStore()
	if err != nil {
		return nil, err
	}
	hits, err := s.SimilaritySearch(ctx, query, k)
	if err != nil {
		return nil, err
	}
	docs := make([]types.Document, len(hits))
	for i, h := range hits {
		docs[i] = h.Document
	}
	return docs, nil
}
