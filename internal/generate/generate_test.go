// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/topic-brainstorm/internal/llm"
	"github.com/pdiddy/topic-brainstorm/internal/vectorstore"
	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

// --- fakes ---

type fakeModel struct {
	reply string
	err   error
	reqs  []llm.Request
}

func (m *fakeModel) Complete(_ context.Context, req llm.Request) (string, error) {
	m.reqs = append(m.reqs, req)
	return m.reply, m.err
}

type fakeRetriever struct {
	hits    []vectorstore.Hit
	err     error
	failFor map[string]bool
	queries []string
	ks      []int
}

func (r *fakeRetriever) SimilaritySearch(_ context.Context, query string, k int) ([]vectorstore.Hit, error) {
	r.queries = append(r.queries, query)
	r.ks = append(r.ks, k)
	if r.err != nil || r.failFor[query] {
		return nil, errors.New("collection unavailable")
	}
	if k < len(r.hits) {
		return r.hits[:k], nil
	}
	return r.hits, nil
}

func hit(title string, year any, content string) vectorstore.Hit {
	meta := map[string]any{"title": title, "authors": "Ada, Bob", "url": "https://openalex.org/" + title}
	if year != nil {
		meta["year"] = year
	}
	return vectorstore.Hit{Document: types.Document{Content: content, Metadata: meta}}
}

const twoTopics = "<think>\nCRITIC: existing work is slow.\nSOLUTION: do it fast.\n</think>\n```json\n" + `{
  "topics": [
    {"title": "Sparse Graph Attention", "background": "b1", "necessity": "n1", "table_of_contents": ["1. Intro", "2. Method"], "expected_effects": "e1"},
    {"title": "Neural Solvers", "background": "b2", "necessity": "n2", "table_of_contents": ["1. Intro"], "expected_effects": "e2"}
  ]
}` + "\n```"

func testGenerator(model llm.Completer) (*Generator, *bytes.Buffer) {
	var out bytes.Buffer
	return New(model, types.DefaultConfig(), &out, nil), &out
}

func TestGenerateTopics(t *testing.T) {
	model := &fakeModel{reply: twoTopics}
	db := &fakeRetriever{hits: []vectorstore.Hit{
		hit("Old", 2019, "Title: Old\nAbstract: old"),
		hit("New", 2024, "Title: New\nAbstract: new"),
	}}
	g, _ := testGenerator(model)

	topics := g.GenerateTopics(context.Background(), db, "graph learning", 2)
	require.Len(t, topics, 2)
	assert.Equal(t, "Sparse Graph Attention", topics[0].Title)
	assert.Equal(t, []string{"1. Intro", "2. Method"}, topics[0].TableOfContents)

	// One context query plus one k=1 lookup per topic.
	assert.Equal(t, []string{"graph learning", "Sparse Graph Attention", "Neural Solvers"}, db.queries)
	assert.Equal(t, []int{10, 1, 1}, db.ks)
	require.Len(t, topics[1].RelatedPapers, 1)
	assert.Equal(t, types.RelatedPaper{Title: "Old", Authors: "Ada, Bob", Year: 2019, URL: "https://openalex.org/Old"}, topics[1].RelatedPapers[0])

	require.Len(t, model.reqs, 1)
	req := model.reqs[0]
	assert.Equal(t, "deepseek-v3.1:671b-cloud", req.Model)
	assert.Equal(t, "5m", req.KeepAlive)
	assert.InDelta(t, 0.3, req.Temperature, 1e-9)
	prompt := req.Messages[0].Content
	assert.Contains(t, prompt, `propose 2 groundbreaking research agendas related to "graph learning"`)
	assert.Contains(t, prompt, "- [2024] New\n- [2019] Old")
	assert.Contains(t, prompt, "Title: Old\nAbstract: old\n\nTitle: New\nAbstract: new")
	assert.Contains(t, prompt, "Applying AI to Patent Claim Analysis")
}

func TestGenerateTopicsMalformedJSON(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"truncated", `{"topics": [{"title": "x"`},
		{"no json", "I am unable to help with that."},
		{"schema violation", `{"topics": [{"title": "only a title"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeRetriever{}
			g, out := testGenerator(&fakeModel{reply: tt.reply})
			topics := g.GenerateTopics(context.Background(), db, "k", 3)
			assert.NotNil(t, topics)
			assert.Empty(t, topics)
			assert.Contains(t, out.String(), "error: parsing topics")
			// No related-paper lookups after a failed decode.
			assert.Len(t, db.queries, 1)
		})
	}
}

func TestGenerateTopicsModelError(t *testing.T) {
	g, out := testGenerator(&fakeModel{err: errors.New("connection refused")})
	assert.Empty(t, g.GenerateTopics(context.Background(), &fakeRetriever{}, "k", 3))
	assert.Contains(t, out.String(), "connection refused")
}

func TestGenerateTopicsRetrievalFallback(t *testing.T) {
	model := &fakeModel{reply: twoTopics}
	g, out := testGenerator(model)
	db := &fakeRetriever{err: errors.New("boom")}

	topics := g.GenerateTopics(context.Background(), db, "k", 2)
	require.Len(t, topics, 2)
	prompt := model.reqs[0].Messages[0].Content
	assert.Contains(t, prompt, "No specific context provided.")
	assert.Contains(t, prompt, "No latest papers found.")
	assert.Contains(t, out.String(), "warning: context retrieval failed")
	for _, tp := range topics {
		assert.NotNil(t, tp.RelatedPapers)
		assert.Empty(t, tp.RelatedPapers)
	}
}

func TestGenerateTopicsPerTopicLookupFailure(t *testing.T) {
	db := &fakeRetriever{
		hits:    []vectorstore.Hit{hit("P", 2020, "c")},
		failFor: map[string]bool{"Neural Solvers": true},
	}
	g, out := testGenerator(&fakeModel{reply: twoTopics})

	topics := g.GenerateTopics(context.Background(), db, "k", 2)
	require.Len(t, topics, 2)
	assert.Len(t, topics[0].RelatedPapers, 1)
	assert.Empty(t, topics[1].RelatedPapers)
	assert.Contains(t, out.String(), `failed to map papers for topic "Neural Solvers"`)
}

func TestLatestDigest(t *testing.T) {
	docs := []types.Document{
		{Metadata: map[string]any{"title": "A", "year": 2020}},
		{Metadata: map[string]any{"title": "NoYear"}},
		{Metadata: map[string]any{"title": "B", "year": float64(2023)}},
		{Metadata: map[string]any{"title": "C", "year": 2020}},
		{Metadata: map[string]any{"year": 2021}},
		{Metadata: map[string]any{"title": "D", "year": 2018}},
	}
	got := LatestDigest(docs, 5)
	want := strings.Join([]string{
		"- [2023] B",
		"- [2021] Unknown Title",
		"- [2020] A",
		"- [2020] C",
		"- [2018] D",
	}, "\n")
	assert.Equal(t, want, got)

	assert.Equal(t, "- [N/A] NoYear", LatestDigest(docs[1:2], 5))
	assert.Empty(t, LatestDigest(nil, 5))
}

func TestRenderPrompt(t *testing.T) {
	p, err := renderPrompt(promptData{NumTopics: 3, Keyword: "LLM", LatestPapers: "- [2024] X", Context: "ctx"})
	require.NoError(t, err)
	assert.Contains(t, p, "Senior Principal Investigator")
	assert.Contains(t, p, "CRITIC (Identify Limitations)")
	assert.Contains(t, p, "SOLUTION (Propose Alternatives)")
	assert.True(t, strings.HasSuffix(p, "YOUR PROPOSAL:\n"))
}
