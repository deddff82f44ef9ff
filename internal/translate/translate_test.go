// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/topic-brainstorm/internal/llm"
	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

type fakeModel struct {
	reply func(prompt string) (string, error)
	reqs  []llm.Request
}

func (m *fakeModel) Complete(_ context.Context, req llm.Request) (string, error) {
	m.reqs = append(m.reqs, req)
	return m.reply(req.Messages[0].Content)
}

func evaluated(title string, total int) types.EvaluatedTopic {
	return types.EvaluatedTopic{
		Topic: types.ResearchTopic{
			Title:           title,
			Background:      "background",
			Necessity:       "necessity",
			TableOfContents: []string{"1. Intro", "2. Method"},
			ExpectedEffects: "effects",
			RelatedPapers:   []types.RelatedPaper{{Title: "Paper", Authors: "Ada", Year: 2023, URL: "https://openalex.org/W1"}},
		},
		Evaluation: types.EvaluationResult{OriginalityScore: 4, FeasibilityScore: 3, ImpactScore: 5, TotalScore: total, Reasoning: "solid"},
	}
}

const koreanReply = `{"title":"그래프 학습","background":"배경","necessity":"필요성","table_of_contents":["1. 서론","2. 방법"],"expected_effects":"기대 효과","reasoning":"탄탄함"}`

func TestTranslateTopics(t *testing.T) {
	m := &fakeModel{reply: func(string) (string, error) { return koreanReply, nil }}
	var out bytes.Buffer
	cfg := types.DefaultConfig()
	tr := New(m, cfg, &out, nil)

	orig := evaluated("Graph learning", 12)
	got := tr.TranslateTopics(context.Background(), []types.EvaluatedTopic{orig}, "Korean")
	require.Len(t, got, 1)

	assert.Equal(t, "그래프 학습", got[0].Topic.Title)
	assert.Equal(t, []string{"1. 서론", "2. 방법"}, got[0].Topic.TableOfContents)
	assert.Equal(t, "탄탄함", got[0].Evaluation.Reasoning)
	// Scores and related papers are carried over untouched.
	assert.Equal(t, 12, got[0].Evaluation.TotalScore)
	assert.Equal(t, 4, got[0].Evaluation.OriginalityScore)
	assert.Equal(t, orig.Topic.RelatedPapers, got[0].Topic.RelatedPapers)
	// The input is not modified.
	assert.Equal(t, "Graph learning", orig.Topic.Title)

	require.Len(t, m.reqs, 1)
	assert.Equal(t, "gpt-oss:20b", m.reqs[0].Model)
	assert.Equal(t, "json", m.reqs[0].Format)
	prompt := m.reqs[0].Messages[0].Content
	assert.Contains(t, prompt, "into Korean.")
	assert.Contains(t, prompt, `Original Table of Contents: ["1. Intro","2. Method"]`)
	assert.Contains(t, prompt, "Original Evaluation Reasoning: solid")
}

func TestTranslateTopicsUsesTranslatorModel(t *testing.T) {
	m := &fakeModel{reply: func(string) (string, error) { return koreanReply, nil }}
	cfg := types.DefaultConfig()
	cfg.Models.Translator = "qwen3:14b"
	New(m, cfg, nil, nil).TranslateTopics(context.Background(), []types.EvaluatedTopic{evaluated("x", 5)}, "Korean")
	assert.Equal(t, "qwen3:14b", m.reqs[0].Model)
}

func TestTranslateTopicsFallbackPerTopic(t *testing.T) {
	m := &fakeModel{reply: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "Original Title: Broken\n"):
			return `{"title": "half`, nil
		case strings.Contains(prompt, "Original Title: Offline\n"):
			return "", errors.New("model not found")
		default:
			return koreanReply, nil
		}
	}}
	var out bytes.Buffer
	tr := New(m, types.DefaultConfig(), &out, nil)

	input := []types.EvaluatedTopic{evaluated("Broken", 13), evaluated("Fine", 11), evaluated("Offline", 9)}
	got := tr.TranslateTopics(context.Background(), input, "Korean")
	require.Len(t, got, 3)
	assert.Equal(t, input[0], got[0])
	assert.Equal(t, "그래프 학습", got[1].Topic.Title)
	assert.Equal(t, input[2], got[2])
	assert.Equal(t, 2, strings.Count(out.String(), "warning: translating topic"))
}

func TestTranslateTopicsMissingReasoningFallsBack(t *testing.T) {
	m := &fakeModel{reply: func(string) (string, error) {
		return `{"title":"그래프 학습","background":"배경","necessity":"필요성","table_of_contents":["1. 서론"],"expected_effects":"기대 효과"}`, nil
	}}
	var out bytes.Buffer
	orig := evaluated("Graph learning", 12)
	got := New(m, types.DefaultConfig(), &out, nil).TranslateTopics(context.Background(), []types.EvaluatedTopic{orig}, "Korean")

	require.Len(t, got, 1)
	assert.Equal(t, orig, got[0])
	assert.Equal(t, "solid", got[0].Evaluation.Reasoning)
	assert.Contains(t, out.String(), "warning: translating topic")
}
