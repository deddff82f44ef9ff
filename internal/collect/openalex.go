// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

// FetchPapers queries OpenAlex for works matching keyword that carry an
// abstract, then writes the surviving papers to a CSV snapshot. Any failure
// is reported and yields an empty list.
func (c *Collector) FetchPapers(ctx context.Context, keyword string, limit int) []types.Paper {
	if limit <= 0 {
		limit = c.cfg.PaperLimit
	}
	fmt.Fprintf(c.out, "Fetching papers for keyword: %s...\n", keyword)

	papers, err := c.fetch(ctx, keyword, limit)
	if err != nil {
		fmt.Fprintf(c.out, "error: fetching papers: %v\n", err)
		c.log.Error("fetching papers failed", "keyword", keyword, "error", err)
		return []types.Paper{}
	}
	fmt.Fprintf(c.out, "Found %d papers.\n", len(papers))

	if len(papers) > 0 {
		path, err := WriteCSV(c.cfg.CSVDir, keyword, papers, c.now())
		if err != nil {
			fmt.Fprintf(c.out, "warning: saving CSV: %v\n", err)
			c.log.Warn("saving CSV failed", "error", err)
		} else {
			fmt.Fprintf(c.out, "Papers saved to: %s\n", path)
		}
	}
	return papers
}

func (c *Collector) fetch(ctx context.Context, keyword string, limit int) ([]types.Paper, error) {
	params := url.Values{
		"search":   {keyword},
		"per-page": {strconv.Itoa(limit)},
		"filter":   {"has_abstract:true"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.cfg.Email != "" {
		req.Header.Set("User-Agent", "mailto:"+c.cfg.Email)
	}

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	papers := make([]types.Paper, 0, len(oar.Results))
	for _, work := range oar.Results {
		p := c.toPaper(work)
		if p.Title == "" || p.Abstract == "" {
			continue
		}
		papers = append(papers, p)
	}
	c.log.Debug("OpenAlex results", "returned", len(oar.Results), "kept", len(papers))
	return papers, nil
}

// toPaper maps a work to a Paper. Authors and institutions come from the
// first AuthorsLimit authorships; institutions are deduplicated in
// first-seen order and then capped at InstitutionsLimit.
func (c *Collector) toPaper(work openAlexWork) types.Paper {
	authorships := work.Authorships
	if lim := c.cfg.AuthorsLimit; lim > 0 && len(authorships) > lim {
		authorships = authorships[:lim]
	}

	var authors, institutions []string
	seen := make(map[string]bool)
	for _, a := range authorships {
		if a.Author.DisplayName != "" {
			authors = append(authors, a.Author.DisplayName)
		}
		for _, inst := range a.Institutions {
			if inst.DisplayName == "" || seen[inst.DisplayName] {
				continue
			}
			seen[inst.DisplayName] = true
			institutions = append(institutions, inst.DisplayName)
		}
	}
	if lim := c.cfg.InstitutionsLimit; lim > 0 && len(institutions) > lim {
		institutions = institutions[:lim]
	}

	return types.Paper{
		Title:           strings.TrimSpace(work.Title),
		Abstract:        reconstructAbstract(work.AbstractInvertedIndex),
		URL:             work.ID,
		PublicationYear: work.PublicationYear,
		Authors:         authors,
		Institutions:    institutions,
	}
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text by ordering every (position, word) pair by position.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].pos != pairs[j].pos {
			return pairs[i].pos < pairs[j].pos
		}
		return pairs[i].word < pairs[j].word
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	PublicationYear       int                  `json:"publication_year"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
}

type openAlexAuthorship struct {
	Author       openAlexAuthor        `json:"author"`
	Institutions []openAlexInstitution `json:"institutions"`
}

type openAlexAuthor struct {
	DisplayName string `json:"display_name"`
}

type openAlexInstitution struct {
	DisplayName string `json:"display_name"`
}
