// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package translate renders evaluated topics into another language while
// keeping scores and related papers as they are.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/template"

	"github.com/pdiddy/topic-brainstorm/internal/llm"
	"github.com/pdiddy/topic-brainstorm/internal/logger"
	"github.com/pdiddy/topic-brainstorm/internal/structured"
	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

// translatedContent holds the translated text fields of one topic.
type translatedContent struct {
	Title           string   `json:"title" validate:"required"`
	Background      string   `json:"background" validate:"required"`
	Necessity       string   `json:"necessity" validate:"required"`
	TableOfContents []string `json:"table_of_contents" validate:"required"`
	ExpectedEffects string   `json:"expected_effects" validate:"required"`
	Reasoning       string   `json:"reasoning" validate:"required"`
}

var translationPromptTmpl = template.Must(template.New("translation").Parse(`You are a professional academic translator. Translate the following research topic details into {{.Language}}.
Ensure the tone is academic and professional.

Original Title: {{.Topic.Title}}
Original Background: {{.Topic.Background}}
Original Necessity: {{.Topic.Necessity}}
Original Table of Contents: {{.TOC}}
Original Expected Effects: {{.Topic.ExpectedEffects}}
Original Evaluation Reasoning: {{.Reasoning}}

Respond with a single JSON object and nothing else, using exactly these fields:
{"title": "...", "background": "...", "necessity": "...", "table_of_contents": ["..."], "expected_effects": "...", "reasoning": "..."}
The table_of_contents array must keep the same number of entries as the original.
`))

type promptData struct {
	Language  string
	Topic     types.ResearchTopic
	TOC       string
	Reasoning string
}

// Translator translates topics with one model call each.
type Translator struct {
	model       llm.Completer
	name        string
	temperature float64
	out         io.Writer
	log         *logger.Logger
}

// New builds a Translator. The model is cfg.Models.TranslatorModel().
func New(model llm.Completer, cfg types.Config, out io.Writer, log *logger.Logger) *Translator {
	if log == nil {
		log = logger.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	name := cfg.Models.TranslatorModel()
	return &Translator{
		model:       model,
		name:        name,
		temperature: cfg.Models.TranslatorTemperature,
		out:         out,
		log:         log.With("component", "translator", "model", name),
	}
}

// TranslateTopics returns a translated copy of topics in the same order.
// Scores and related papers are copied from the original. A topic that
// fails to translate is returned untranslated.
func (t *Translator) TranslateTopics(ctx context.Context, topics []types.EvaluatedTopic, language string) []types.EvaluatedTopic {
	fmt.Fprintf(t.out, "Translating topics to %s...\n", language)
	translated := make([]types.EvaluatedTopic, 0, len(topics))
	for _, item := range topics {
		fmt.Fprintf(t.out, "Translating: %s\n", item.Topic.Title)
		tc, err := t.translate(ctx, item, language)
		if err != nil {
			fmt.Fprintf(t.out, "warning: translating topic %q: %v\n", item.Topic.Title, err)
			t.log.Warn("translation failed, keeping original", "topic", item.Topic.Title, "error", err)
			translated = append(translated, item)
			continue
		}
		translated = append(translated, merge(item, tc))
	}
	fmt.Fprintln(t.out, "Translation complete.")
	return translated
}

func (t *Translator) translate(ctx context.Context, item types.EvaluatedTopic, language string) (translatedContent, error) {
	toc, err := json.Marshal(item.Topic.TableOfContents)
	if err != nil {
		return translatedContent{}, fmt.Errorf("encoding table of contents: %w", err)
	}
	var buf bytes.Buffer
	err = translationPromptTmpl.Execute(&buf, promptData{
		Language:  language,
		Topic:     item.Topic,
		TOC:       string(toc),
		Reasoning: item.Evaluation.Reasoning,
	})
	if err != nil {
		return translatedContent{}, fmt.Errorf("rendering prompt: %w", err)
	}

	raw, err := t.model.Complete(ctx, llm.Request{
		Model:       t.name,
		Messages:    llm.UserPrompt(buf.String()),
		Temperature: t.temperature,
		Format:      "json",
	})
	if err != nil {
		return translatedContent{}, err
	}
	var tc translatedContent
	if err := structured.Parse(raw, &tc); err != nil {
		return translatedContent{}, err
	}
	return tc, nil
}

func merge(orig types.EvaluatedTopic, tc translatedContent) types.EvaluatedTopic {
	out := orig
	out.Topic = types.ResearchTopic{
		Title:           tc.Title,
		Background:      tc.Background,
		Necessity:       tc.Necessity,
		TableOfContents: tc.TableOfContents,
		ExpectedEffects: tc.ExpectedEffects,
		RelatedPapers:   orig.Topic.RelatedPapers,
	}
	out.Evaluation.Reasoning = tc.Reasoning
	return out
}
