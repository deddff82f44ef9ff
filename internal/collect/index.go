// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

const truncationMarker = "...(truncated)"

// IndexSummary reports the outcome of CreateVectorDB.
type IndexSummary struct {
	Documents int
	Batches   int
	Indexed   int

	// Skipped lists the 1-based numbers of batches that exhausted their
	// attempts.
	Skipped []int
}

// PaperDocument builds the vector-store document for p. The abstract is
// cut at limit runes with a truncation marker appended.
func PaperDocument(p types.Paper, limit int) types.Document {
	abstract := p.Abstract
	if r := []rune(abstract); limit > 0 && len(r) > limit {
		abstract = string(r[:limit]) + truncationMarker
	}
	return types.Document{
		Content: fmt.Sprintf("Title: %s\nAbstract: %s", p.Title, abstract),
		Metadata: map[string]any{
			"title":        p.Title,
			"url":          p.URL,
			"year":         p.PublicationYear,
			"authors":      strings.Join(p.Authors, ", "),
			"institutions": strings.Join(p.Institutions, ", "),
		},
	}
}

// CreateVectorDB opens the store and inserts one document per paper in
// batches of BatchSize. Each batch gets up to MaxAttempts tries with
// RetryDelay between them; a batch that keeps failing is skipped and the
// run continues. Only a failure to open the store is returned as an error.
func (c *Collector) CreateVectorDB(ctx context.Context, papers []types.Paper) (IndexSummary, error) {
	if len(papers) == 0 {
		fmt.Fprintln(c.out, "No papers to index.")
		return IndexSummary{}, ErrNoDocuments
	}

	fmt.Fprintln(c.out, "Creating Vector DB...")
	docs := make([]types.Document, len(papers))
	for i, p := range papers {
		docs[i] = PaperDocument(p, c.vcfg.AbstractLimit)
	}

	store, err := c.ensureStore()
	if err != nil {
		return IndexSummary{}, fmt.Errorf("opening vector store: %w", err)
	}

	batchSize := c.vcfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	maxAttempts := c.vcfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	summary := IndexSummary{
		Documents: len(docs),
		Batches:   (len(docs) + batchSize - 1) / batchSize,
	}
	fmt.Fprintf(c.out, "Initializing Vector DB with %d documents...\n", len(docs))

	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		batch := docs[start:end]
		num := start/batchSize + 1
		fmt.Fprintf(c.out, "Processing batch %d/%d (%d docs)...\n", num, summary.Batches, len(batch))

		if err := c.addBatch(ctx, store, batch, num, maxAttempts); err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			fmt.Fprintf(c.out, "error: batch %d failed after %d attempts, skipping\n", num, maxAttempts)
			c.log.Error("skipping batch", "batch", num, "attempts", maxAttempts, "error", err)
			summary.Skipped = append(summary.Skipped, num)
			continue
		}
		summary.Indexed += len(batch)
	}

	fmt.Fprintf(c.out, "Vector DB creation completed (%d batches, %d skipped).\n", summary.Batches, len(summary.Skipped))
	return summary, nil
}

func (c *Collector) addBatch(ctx context.Context, store Store, batch []types.Document, num, maxAttempts int) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		_, err := store.AddDocuments(ctx, batch)
		if err == nil {
			return nil
		}
		lastErr = err
		fmt.Fprintf(c.out, "warning: adding batch %d (attempt %d/%d): %v\n", num, attempt, maxAttempts, err)
		c.log.Warn("batch insert failed", "batch", num, "attempt", attempt, "error", err)

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.vcfg.RetryDelay):
			}
		}
	}
	return lastErr
}
