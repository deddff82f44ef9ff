// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/topic-brainstorm/internal/vectorstore"
	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

// --- fakes ---

// flakyStore fails the first failures calls to AddDocuments for each batch
// whose first document title is listed in failFor (or every batch when
// failFor is nil).
type flakyStore struct {
	failures int
	failFor  map[string]bool
	attempts map[string]int
	added    []types.Document
	hits     []vectorstore.Hit
	queries  []string
}

func newFlakyStore(failures int) *flakyStore {
	return &flakyStore{failures: failures, attempts: map[string]int{}}
}

func (s *flakyStore) AddDocuments(_ context.Context, docs []types.Document) ([]string, error) {
	key := docs[0].MetaString("title", "")
	s.attempts[key]++
	if (s.failFor == nil || s.failFor[key]) && s.attempts[key] <= s.failures {
		return nil, fmt.Errorf("embedding service unavailable (attempt %d)", s.attempts[key])
	}
	s.added = append(s.added, docs...)
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = fmt.Sprintf("id-%d", len(s.added)-len(docs)+i)
	}
	return ids, nil
}

func (s *flakyStore) SimilaritySearch(_ context.Context, query string, k int) ([]vectorstore.Hit, error) {
	s.queries = append(s.queries, query)
	if k < len(s.hits) {
		return s.hits[:k], nil
	}
	return s.hits, nil
}

func testConfig(t *testing.T) types.Config {
	t.Helper()
	cfg := types.DefaultConfig()
	cfg.Collector.CSVDir = filepath.Join(t.TempDir(), "csv")
	cfg.VectorDB.RetryDelay = time.Millisecond
	return cfg
}

func newTestCollector(t *testing.T, cfg types.Config, store Store) (*Collector, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c := New(cfg, func() (Store, error) { return store, nil }, &out, nil)
	c.now = func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }
	return c, &out
}

func samplePapers(n int) []types.Paper {
	papers := make([]types.Paper, n)
	for i := range papers {
		papers[i] = types.Paper{
			Title:           fmt.Sprintf("Paper %d", i+1),
			Abstract:        "We study things.",
			URL:             fmt.Sprintf("https://openalex.org/W%d", i+1),
			PublicationYear: 2020 + i,
			Authors:         []string{"A. Author", "B. Author"},
		}
	}
	return papers
}

// --- reconstructAbstract ---

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{"nil map", nil, ""},
		{"single word", map[string][]int{"hello": {0}}, "hello"},
		{"repeated word", map[string][]int{"a": {0, 2}, "b": {1}}, "a b a"},
		{
			"ordered sentence",
			map[string][]int{"We": {0}, "propose": {1}, "a": {2}, "new": {3}, "method": {4}},
			"We propose a new method",
		},
		{"gaps in positions", map[string][]int{"x": {10}, "y": {3}}, "y x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reconstructAbstract(tt.index))
		})
	}
}

// --- toPaper ---

func TestToPaperCapsAuthorsAndInstitutions(t *testing.T) {
	c, _ := newTestCollector(t, testConfig(t), newFlakyStore(0))

	var work openAlexWork
	work.Title = "Capped"
	work.AbstractInvertedIndex = map[string][]int{"text": {0}}
	for i := 1; i <= 5; i++ {
		work.Authorships = append(work.Authorships, openAlexAuthorship{
			Author: openAlexAuthor{DisplayName: fmt.Sprintf("Author %d", i)},
			Institutions: []openAlexInstitution{
				{DisplayName: "MIT"},
				{DisplayName: fmt.Sprintf("Inst %d", i)},
			},
		})
	}

	p := c.toPaper(work)
	assert.Equal(t, []string{"Author 1", "Author 2", "Author 3"}, p.Authors)
	// Institutions come from the first three authorships, deduplicated.
	assert.Equal(t, []string{"MIT", "Inst 1", "Inst 2"}, p.Institutions)
}

// --- FetchPapers ---

const openAlexFixture = `{
  "meta": {"count": 3},
  "results": [
    {
      "id": "https://openalex.org/W1",
      "title": "Graph Transformers",
      "publication_year": 2024,
      "abstract_inverted_index": {"Graphs": [0], "are": [1], "everywhere": [2]},
      "authorships": [
        {"author": {"display_name": "Ada"}, "institutions": [{"display_name": "ETH"}]},
        {"author": {"display_name": "Bob"}, "institutions": [{"display_name": "ETH"}, {"display_name": "EPFL"}]}
      ]
    },
    {
      "id": "https://openalex.org/W2",
      "title": "No Abstract",
      "publication_year": 2023,
      "abstract_inverted_index": null,
      "authorships": []
    },
    {
      "id": "https://openalex.org/W3",
      "title": null,
      "publication_year": null,
      "abstract_inverted_index": {"orphan": [0]},
      "authorships": []
    }
  ]
}`

func TestFetchPapers(t *testing.T) {
	var gotQuery map[string][]string
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, openAlexFixture)
	}))
	defer ts.Close()

	cfg := testConfig(t)
	cfg.Collector.APIURL = ts.URL
	cfg.Collector.Email = "me@lab.org"
	c, out := newTestCollector(t, cfg, newFlakyStore(0))

	papers := c.FetchPapers(context.Background(), "graph learning", 25)
	require.Len(t, papers, 1)
	p := papers[0]
	assert.Equal(t, "Graph Transformers", p.Title)
	assert.Equal(t, "Graphs are everywhere", p.Abstract)
	assert.Equal(t, "https://openalex.org/W1", p.URL)
	assert.Equal(t, 2024, p.PublicationYear)
	assert.Equal(t, []string{"Ada", "Bob"}, p.Authors)
	assert.Equal(t, []string{"ETH", "EPFL"}, p.Institutions)

	assert.Equal(t, []string{"graph learning"}, gotQuery["search"])
	assert.Equal(t, []string{"25"}, gotQuery["per-page"])
	assert.Equal(t, []string{"has_abstract:true"}, gotQuery["filter"])
	assert.Equal(t, "mailto:me@lab.org", gotUA)

	csvPath := filepath.Join(cfg.Collector.CSVDir, "papers_graph_learning_20250314_092653.csv")
	assert.FileExists(t, csvPath)
	assert.Contains(t, out.String(), "Found 1 papers.")
	assert.Contains(t, out.String(), "Papers saved to: "+csvPath)
}

func TestFetchPapersDefaultLimit(t *testing.T) {
	var perPage string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		perPage = r.URL.Query().Get("per-page")
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer ts.Close()

	cfg := testConfig(t)
	cfg.Collector.APIURL = ts.URL
	c, _ := newTestCollector(t, cfg, newFlakyStore(0))

	papers := c.FetchPapers(context.Background(), "x", 0)
	assert.Empty(t, papers)
	assert.Equal(t, "200", perPage)
	// No CSV is written for an empty result.
	_, err := os.Stat(cfg.Collector.CSVDir)
	assert.True(t, os.IsNotExist(err))
}

func TestFetchPapersFailuresYieldEmptyList(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantMsg string
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			wantMsg: "HTTP 500",
		},
		{
			name:    "malformed json",
			handler: func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, `{"results": [`) },
			wantMsg: "parsing OpenAlex response",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			cfg := testConfig(t)
			cfg.Collector.APIURL = ts.URL
			c, out := newTestCollector(t, cfg, newFlakyStore(0))

			papers := c.FetchPapers(context.Background(), "x", 10)
			assert.NotNil(t, papers)
			assert.Empty(t, papers)
			assert.Contains(t, out.String(), tt.wantMsg)
		})
	}
}

func TestFetchPapersUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Collector.APIURL = "http://127.0.0.1:1/works"
	c, out := newTestCollector(t, cfg, newFlakyStore(0))

	assert.Empty(t, c.FetchPapers(context.Background(), "x", 10))
	assert.Contains(t, out.String(), "error: fetching papers")
}

// --- CSV ---

func TestCSVRoundTrip(t *testing.T) {
	papers := []types.Paper{
		{
			Title:           `Quotes "and", commas`,
			Abstract:        "Line one\nline two",
			URL:             "https://openalex.org/W9",
			PublicationYear: 2021,
			Authors:         []string{"X", "Y"},
			Institutions:    []string{"Uni A"},
		},
		{Title: "No year", Abstract: "a"},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, papers))

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "title,abstract,url,publication_year,authors,institutions", lines[0])
	assert.Contains(t, buf.String(), ",2021,X; Y,Uni A")

	got, err := DecodeCSV(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"X", "Y"}, got[0].Authors)
	assert.Equal(t, papers[0].Title, got[0].Title)
	assert.Equal(t, papers[0].Abstract, got[0].Abstract)
	assert.Equal(t, 2021, got[0].PublicationYear)
	assert.Zero(t, got[1].PublicationYear)
	assert.Nil(t, got[1].Authors)
}

func TestWriteAndReadCSV(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	path, err := WriteCSV(dir, "large language models", samplePapers(2), ts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "papers_large_language_models_20250102_030405.csv"), path)

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, samplePapers(2)[1].Title, got[1].Title)
}

func TestDecodeCSVMissingColumn(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("title,abstract\nx,y\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "url"`)
}

// --- PaperDocument ---

func TestPaperDocument(t *testing.T) {
	p := types.Paper{
		Title:           "T",
		Abstract:        strings.Repeat("a", 1005),
		URL:             "u",
		PublicationYear: 2022,
		Authors:         []string{"X", "Y"},
		Institutions:    []string{"I"},
	}
	doc := PaperDocument(p, 1000)
	assert.True(t, strings.HasPrefix(doc.Content, "Title: T\nAbstract: aaa"))
	assert.True(t, strings.HasSuffix(doc.Content, strings.Repeat("a", 10)+"...(truncated)"))
	assert.Equal(t, len("Title: T\nAbstract: ")+1000+len("...(truncated)"), len(doc.Content))
	assert.Equal(t, "X, Y", doc.Metadata["authors"])
	assert.Equal(t, 2022, doc.Metadata["year"])

	short := PaperDocument(types.Paper{Title: "T", Abstract: "short"}, 1000)
	assert.Equal(t, "Title: T\nAbstract: short", short.Content)
}

// --- CreateVectorDB ---

func TestCreateVectorDBRetrySucceedsOnThirdAttempt(t *testing.T) {
	store := newFlakyStore(2)
	c, out := newTestCollector(t, testConfig(t), store)

	summary, err := c.CreateVectorDB(context.Background(), samplePapers(1))
	require.NoError(t, err)
	assert.Empty(t, summary.Skipped)
	assert.Equal(t, 1, summary.Indexed)
	assert.Equal(t, 3, store.attempts["Paper 1"])
	assert.Len(t, store.added, 1)
	assert.Equal(t, 2, strings.Count(out.String(), "warning: adding batch 1"))
}

func TestCreateVectorDBSkipsExhaustedBatch(t *testing.T) {
	store := newFlakyStore(3)
	store.failFor = map[string]bool{"Paper 2": true}
	c, out := newTestCollector(t, testConfig(t), store)

	summary, err := c.CreateVectorDB(context.Background(), samplePapers(3))
	require.NoError(t, err)
	assert.Equal(t, []int{2}, summary.Skipped)
	assert.Equal(t, 3, summary.Batches)
	assert.Equal(t, 2, summary.Indexed)
	assert.Equal(t, 3, store.attempts["Paper 2"])
	require.Len(t, store.added, 2)
	assert.Equal(t, "Paper 3", store.added[1].MetaString("title", ""))
	assert.Contains(t, out.String(), "batch 2 failed after 3 attempts, skipping")
}

func TestCreateVectorDBBatchSize(t *testing.T) {
	cfg := testConfig(t)
	cfg.VectorDB.BatchSize = 2
	store := newFlakyStore(0)
	c, out := newTestCollector(t, cfg, store)

	summary, err := c.CreateVectorDB(context.Background(), samplePapers(5))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Batches)
	assert.Equal(t, 5, summary.Indexed)
	assert.Contains(t, out.String(), "Processing batch 3/3 (1 docs)...")
}

func TestCreateVectorDBNoPapers(t *testing.T) {
	c, _ := newTestCollector(t, testConfig(t), newFlakyStore(0))
	_, err := c.CreateVectorDB(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestCreateVectorDBOpenFailure(t *testing.T) {
	var out bytes.Buffer
	c := New(testConfig(t), func() (Store, error) { return nil, errors.New("disk full") }, &out, nil)
	_, err := c.CreateVectorDB(context.Background(), samplePapers(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestCreateVectorDBCancelled(t *testing.T) {
	cfg := testConfig(t)
	cfg.VectorDB.RetryDelay = time.Hour
	c, _ := newTestCollector(t, cfg, newFlakyStore(5))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.CreateVectorDB(ctx, samplePapers(1))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// --- QueryDB ---

func TestQueryDBOpensLazily(t *testing.T) {
	store := newFlakyStore(0)
	store.hits = []vectorstore.Hit{
		{Document: types.Document{Content: "a"}},
		{Document: types.Document{Content: "b"}},
	}
	opened := 0
	c := New(testConfig(t), func() (Store, error) { opened++; return store, nil }, nil, nil)
	assert.Nil(t, c.Store())

	docs, err := c.QueryDB(context.Background(), "graphs", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a", docs[0].Content)

	_, err = c.QueryDB(context.Background(), "more", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, opened)
	assert.Equal(t, []string{"graphs", "more"}, store.queries)
}
