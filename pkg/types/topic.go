// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RelatedPaper summarizes a stored paper matched to a topic by similarity.
type RelatedPaper struct {
	Title string `json:"title" yaml:"title"`

	// Authors is the comma-joined author list as stored in vector metadata.
	Authors string `json:"authors" yaml:"authors"`

	// Year is zero when unknown.
	Year int    `json:"year" yaml:"year"`
	URL  string `json:"url" yaml:"url"`
}

// ResearchTopic is a proposed research agenda parsed from model output.
type ResearchTopic struct {
	Title           string         `json:"title" yaml:"title" validate:"required"`
	Background      string         `json:"background" yaml:"background" validate:"required"`
	Necessity       string         `json:"necessity" yaml:"necessity" validate:"required"`
	TableOfContents []string       `json:"table_of_contents" yaml:"table_of_contents" validate:"required"`
	ExpectedEffects string         `json:"expected_effects" yaml:"expected_effects" validate:"required"`
	RelatedPapers   []RelatedPaper `json:"related_papers" yaml:"related_papers"`
}

// TopicList is the JSON envelope the generator model must return.
type TopicList struct {
	Topics []ResearchTopic `json:"topics" yaml:"topics" validate:"required,dive"`
}

// EvaluationResult scores a topic on three 1-5 criteria.
//
// TotalScore is taken from the model as reported. It is recomputed from the
// three criteria only when the model reports zero, so a nonzero total that
// disagrees with its components is kept.
type EvaluationResult struct {
	OriginalityScore int    `json:"originality_score" yaml:"originality_score" validate:"min=1,max=5"`
	FeasibilityScore int    `json:"feasibility_score" yaml:"feasibility_score" validate:"min=1,max=5"`
	ImpactScore      int    `json:"impact_score" yaml:"impact_score" validate:"min=1,max=5"`
	TotalScore       int    `json:"total_score" yaml:"total_score" validate:"min=0"`
	Reasoning        string `json:"reasoning" yaml:"reasoning"`
}

// Sum returns the sum of the three criterion scores.
func (e EvaluationResult) Sum() int {
	return e.OriginalityScore + e.FeasibilityScore + e.ImpactScore
}

// EvaluatedTopic pairs a topic with its evaluation; it is the unit that is
// ranked, translated and rendered.
type EvaluatedTopic struct {
	Topic      ResearchTopic    `json:"topic" yaml:"topic"`
	Evaluation EvaluationResult `json:"evaluation" yaml:"evaluation"`
}
