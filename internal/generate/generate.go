// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate proposes research topics from retrieved paper context
// with a single model call, then attaches a related paper to each topic.
package generate

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/topic-brainstorm/internal/llm"
	"github.com/pdiddy/topic-brainstorm/internal/logger"
	"github.com/pdiddy/topic-brainstorm/internal/structured"
	"github.com/pdiddy/topic-brainstorm/internal/vectorstore"
	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

const (
	noContext      = "No specific context provided."
	noLatestPapers = "No latest papers found."
	rawPreviewLen  = 500
)

// Retriever returns the documents nearest to a query.
type Retriever interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]vectorstore.Hit, error)
}

// Generator turns a keyword and a retriever into research topics.
type Generator struct {
	model        llm.Completer
	name         string
	temperature  float64
	keepAlive    string
	searchK      int
	latestPapers int
	out          io.Writer
	log          *logger.Logger
}

// New builds a Generator using the generator model settings from cfg.
func New(model llm.Completer, cfg types.Config, out io.Writer, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &Generator{
		model:        model,
		name:         cfg.Models.Generator,
		temperature:  cfg.Models.GeneratorTemperature,
		keepAlive:    cfg.Models.GeneratorKeepAlive,
		searchK:      cfg.VectorDB.SearchK,
		latestPapers: cfg.Generation.LatestPapers,
		out:          out,
		log:          log.With("component", "generator", "model", cfg.Models.Generator),
	}
}

// GenerateTopics retrieves context for keyword, asks the model for
// numTopics topics and decodes them. A model, parse or validation failure
// yields an empty list. Each decoded topic then gets its nearest paper as
// a related paper; a lookup failure leaves that topic's list empty.
func (g *Generator) GenerateTopics(ctx context.Context, db Retriever, keyword string, numTopics int) []types.ResearchTopic {
	fmt.Fprintf(g.out, "Generating topics for keyword: %s...\n", keyword)

	ragContext, latest := g.retrieve(ctx, db, keyword)
	prompt, err := renderPrompt(promptData{
		NumTopics:    numTopics,
		Keyword:      keyword,
		LatestPapers: latest,
		Context:      ragContext,
	})
	if err != nil {
		g.log.Error("rendering prompt", "error", err)
		return []types.ResearchTopic{}
	}

	fmt.Fprintln(g.out, "Asking the model to generate ideas (this may take a moment)...")
	raw, err := g.model.Complete(ctx, llm.Request{
		Model:       g.name,
		Messages:    llm.UserPrompt(prompt),
		Temperature: g.temperature,
		KeepAlive:   g.keepAlive,
	})
	if err != nil {
		fmt.Fprintf(g.out, "error: generating topics: %v\n", err)
		g.log.Error("generation call failed", "error", err)
		return []types.ResearchTopic{}
	}

	var list types.TopicList
	if err := structured.Parse(raw, &list); err != nil {
		fmt.Fprintf(g.out, "error: parsing topics: %v\n", err)
		g.log.Error("decoding topics failed", "error", err, "raw", preview(raw))
		return []types.ResearchTopic{}
	}
	fmt.Fprintf(g.out, "Generated %d topics successfully.\n", len(list.Topics))

	fmt.Fprintln(g.out, "Mapping related papers...")
	for i := range list.Topics {
		list.Topics[i].RelatedPapers = g.relatedPapers(ctx, db, list.Topics[i].Title)
	}
	return list.Topics
}

// retrieve builds the context block and the state-of-the-art digest. When
// retrieval fails both fall back to fixed placeholder strings.
func (g *Generator) retrieve(ctx context.Context, db Retriever, keyword string) (string, string) {
	if db == nil {
		return noContext, noLatestPapers
	}
	hits, err := db.SimilaritySearch(ctx, keyword, g.searchK)
	if err != nil {
		fmt.Fprintf(g.out, "warning: context retrieval failed (%v), proceeding without latest titles\n", err)
		g.log.Warn("context retrieval failed", "error", err)
		return noContext, noLatestPapers
	}

	docs := make([]types.Document, len(hits))
	contents := make([]string, len(hits))
	for i, h := range hits {
		docs[i] = h.Document
		contents[i] = h.Content
	}
	return strings.Join(contents, "\n\n"), LatestDigest(docs, g.latestPapers)
}

// LatestDigest lists the n most recent documents as "- [year] title" lines,
// newest first. A missing year sorts as zero and prints as N/A; ties keep
// retrieval order.
func LatestDigest(docs []types.Document, n int) string {
	sorted := make([]types.Document, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MetaInt("year") > sorted[j].MetaInt("year")
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}

	lines := make([]string, len(sorted))
	for i, d := range sorted {
		year := "N/A"
		if y := d.MetaInt("year"); y != 0 {
			year = fmt.Sprint(y)
		}
		lines[i] = fmt.Sprintf("- [%s] %s", year, d.MetaString("title", "Unknown Title"))
	}
	return strings.Join(lines, "\n")
}

func (g *Generator) relatedPapers(ctx context.Context, db Retriever, title string) []types.RelatedPaper {
	if db == nil {
		return []types.RelatedPaper{}
	}
	hits, err := db.SimilaritySearch(ctx, title, 1)
	if err != nil {
		fmt.Fprintf(g.out, "warning: failed to map papers for topic %q: %v\n", title, err)
		g.log.Warn("related paper lookup failed", "topic", title, "error", err)
		return []types.RelatedPaper{}
	}
	related := make([]types.RelatedPaper, 0, len(hits))
	for _, h := range hits {
		related = append(related, types.RelatedPaper{
			Title:   h.MetaString("title", "Unknown Title"),
			Authors: h.MetaString("authors", "Unknown Authors"),
			Year:    h.MetaInt("year"),
			URL:     h.MetaString("url", ""),
		})
	}
	return related
}

func preview(s string) string {
	if len(s) <= rawPreviewLen {
		return s
	}
	return s[:rawPreviewLen]
}
