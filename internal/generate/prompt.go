// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"text/template"
)

// exampleTopicJSON is the one-shot example shown to the model.
const exampleTopicJSON = `{
  "topics": [
    {
      "title": "Applying AI to Patent Claim Analysis",
      "background": "Current patent analysis relies heavily on manual expert review...",
      "necessity": "Manual review is time-consuming and prone to human error...",
      "table_of_contents": [
        "1. Introduction to Patent Claims",
        "2. NLP Techniques for Legal Text",
        "3. System Architecture",
        "4. Evaluation Metrics"
      ],
      "expected_effects": "Reduce analysis time by 50% and increase accuracy..."
    }
  ]
}`

// ideationPromptTmpl asks for NumTopics research agendas. The model reasons
// inside a <think> block (critique, then alternatives) before emitting the
// JSON object.
var ideationPromptTmpl = template.Must(template.New("ideation").Parse(`You are a Senior Principal Investigator (PI) at a top-tier research institute.
Your goal is to propose {{.NumTopics}} groundbreaking research agendas related to "{{.Keyword}}" that could be published in top-tier journals (e.g., Nature, Science, AAAI, NeurIPS).

--- 1. STATE OF THE ART (SOTA) ANALYSIS ---
The following titles represent the most recent developments (latest papers).
Analyze them to understand the current research frontier:
{{.LatestPapers}}

--- 2. KNOWLEDGE BASE (RAG Context) ---
Use these specific details to ground your proposals in reality and technical feasibility:
{{.Context}}

--- 3. IDEATION FRAMEWORK (Chain of Thought) ---
To generate the topics, you MUST first engage in a deep reasoning process using the <think> tag.
Inside the <think> block, follow this "Critic -> Solution" logic:

<think>
1. CRITIC (Identify Limitations):
   - Critically analyze the provided "Latest Papers" and "Context".
   - Explicitly state what is MISSING, FLAWED, or OUTDATED in the current research.
   - Why are existing approaches insufficient? (e.g., "Current methods rely on X which is computationally expensive," or "They fail to address Y scenario").

2. SOLUTION (Propose Alternatives):
   - For each limitation identified, propose a specific, novel alternative.
   - How can we overcome the identified flaws? (e.g., "Instead of X, we can use Z to reduce complexity," or "Integrate A and B to solve Y").
   - Verify if this solution is truly "disruptive" and not just an incremental improvement.
</think>

--- 4. STRICT CONSTRAINTS ---
- Avoid "incremental" improvements (e.g., "Using X for Y"). Focus on "disruptive" ideas.
- Ensure "Necessity" clearly argues why current methods fail (based on your <think> analysis).
- Ensure "Expected Effects" includes quantitative or specific qualitative breakthroughs (e.g., "Reducing complexity from O(N^2) to O(N)").

--- 5. OUTPUT FORMAT ---
Provide ONLY the JSON object. Do NOT include markdown formatting, explanations, or schema definitions.
The <think> block should come BEFORE the JSON output, followed by the JSON object.

Follow the structure of the EXAMPLE below exactly.

EXAMPLE JSON OUTPUT:
{{.ExampleJSON}}

YOUR PROPOSAL:
`))

type promptData struct {
	NumTopics    int
	Keyword      string
	LatestPapers string
	Context      string
	ExampleJSON  string
}

func renderPrompt(d promptData) (string, error) {
	if d.ExampleJSON == "" {
		d.ExampleJSON = exampleTopicJSON
	}
	var buf bytes.Buffer
	if err := ideationPromptTmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
