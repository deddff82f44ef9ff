// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate scores research topics on originality, feasibility and
// impact, and ranks them by total score.
package evaluate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"text/template"

	"github.com/pdiddy/topic-brainstorm/internal/llm"
	"github.com/pdiddy/topic-brainstorm/internal/logger"
	"github.com/pdiddy/topic-brainstorm/internal/structured"
	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

// FailedEvaluation is substituted when a topic cannot be scored.
var FailedEvaluation = types.EvaluationResult{
	OriginalityScore: 1,
	FeasibilityScore: 1,
	ImpactScore:      1,
	TotalScore:       3,
	Reasoning:        "Evaluation failed.",
}

var evaluationPromptTmpl = template.Must(template.New("evaluation").Parse(`You are a senior research committee member. Evaluate the following research topic based on three criteria:
1. Originality (1-5): How novel is the idea?
2. Feasibility (1-5): Is it realistic to implement?
3. Impact (1-5): What is the potential contribution?

Topic Title: {{.Title}}
Background: {{.Background}}
Necessity: {{.Necessity}}
Expected Effects: {{.ExpectedEffects}}

Provide a score for each and a brief reasoning.

Respond with a single JSON object and nothing else, using exactly these fields:
{"originality_score": <int 1-5>, "feasibility_score": <int 1-5>, "impact_score": <int 1-5>, "total_score": <sum of the three scores>, "reasoning": "<brief reasoning>"}
`))

// Evaluator scores topics with one model call each.
type Evaluator struct {
	model       llm.Completer
	name        string
	temperature float64
	out         io.Writer
	log         *logger.Logger
}

// New builds an Evaluator using the evaluator model settings from cfg.
func New(model llm.Completer, cfg types.Config, out io.Writer, log *logger.Logger) *Evaluator {
	if log == nil {
		log = logger.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &Evaluator{
		model:       model,
		name:        cfg.Models.Evaluator,
		temperature: cfg.Models.EvaluatorTemperature,
		out:         out,
		log:         log.With("component", "evaluator", "model", cfg.Models.Evaluator),
	}
}

// EvaluateTopics scores every topic and returns them sorted by total score,
// highest first. Topics with equal totals keep their input order. A topic
// whose evaluation fails gets FailedEvaluation and is kept.
func (e *Evaluator) EvaluateTopics(ctx context.Context, topics []types.ResearchTopic) []types.EvaluatedTopic {
	fmt.Fprintln(e.out, "Evaluating topics...")
	evaluated := make([]types.EvaluatedTopic, 0, len(topics))
	for _, topic := range topics {
		fmt.Fprintf(e.out, "Evaluating: %s\n", topic.Title)
		result, err := e.evaluate(ctx, topic)
		if err != nil {
			fmt.Fprintf(e.out, "warning: evaluating topic %q: %v\n", topic.Title, err)
			e.log.Warn("evaluation failed, using fallback", "topic", topic.Title, "error", err)
			result = FailedEvaluation
		}
		evaluated = append(evaluated, types.EvaluatedTopic{Topic: topic, Evaluation: result})
	}
	Rank(evaluated)
	fmt.Fprintln(e.out, "Evaluation complete.")
	return evaluated
}

func (e *Evaluator) evaluate(ctx context.Context, topic types.ResearchTopic) (types.EvaluationResult, error) {
	var buf bytes.Buffer
	if err := evaluationPromptTmpl.Execute(&buf, topic); err != nil {
		return types.EvaluationResult{}, fmt.Errorf("rendering prompt: %w", err)
	}
	raw, err := e.model.Complete(ctx, llm.Request{
		Model:       e.name,
		Messages:    llm.UserPrompt(buf.String()),
		Temperature: e.temperature,
		Format:      "json",
	})
	if err != nil {
		return types.EvaluationResult{}, err
	}
	var result types.EvaluationResult
	if err := structured.Parse(raw, &result); err != nil {
		return types.EvaluationResult{}, err
	}
	return ApplyTotalPolicy(result), nil
}

// ApplyTotalPolicy fills in TotalScore from the three criteria when the
// model reported zero. A nonzero total is returned unchanged even when it
// disagrees with the criteria.
func ApplyTotalPolicy(r types.EvaluationResult) types.EvaluationResult {
	if r.TotalScore == 0 {
		r.TotalScore = r.Sum()
	}
	return r
}

// Rank sorts in place by total score, descending, preserving the relative
// order of equal totals.
func Rank(topics []types.EvaluatedTopic) {
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Evaluation.TotalScore > topics[j].Evaluation.TotalScore
	})
}
