// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package structured turns free-form model output into typed values in two
// stages. ExtractJSON is tolerant: it drops reasoning blocks, Markdown code
// fences and any free text around the JSON object. Decode is strict: the
// remainder must be valid JSON and satisfy the target's validate tags.
package structured

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// reasoningBlock matches <think>...</think> sections, across lines.
var reasoningBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrNoJSON is returned when no JSON object remains after splitting.
var ErrNoJSON = errors.New("no JSON object in model output")

// StripReasoning removes every <think>...</think> block. A closing tag left
// without its opening tag discards everything up to and including it. An
// unterminated opening tag is removed on its own; the reasoning after it is
// left for ExtractJSON to skip.
func StripReasoning(raw string) string {
	out := reasoningBlock.ReplaceAllString(raw, "")
	if i := strings.LastIndex(out, "</think>"); i >= 0 {
		out = out[i+len("</think>"):]
	}
	if i := strings.Index(out, "<think>"); i >= 0 {
		out = out[:i] + out[i+len("<think>"):]
	}
	return strings.TrimSpace(out)
}

// StripFences removes Markdown code-fence markers (```json and ```).
func StripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ExtractJSON is the tolerant first stage. After removing reasoning blocks
// and fences it returns the first span starting at a '{' that decodes as one
// JSON value, so braces in leading prose are skipped. When no span decodes
// it returns the text from the first '{' to the last '}' and leaves the
// syntax error to Decode.
func ExtractJSON(raw string) (string, error) {
	s := StripFences(StripReasoning(raw))
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "", ErrNoJSON
	}
	for i := start; i >= 0 && i <= end; {
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var v json.RawMessage
		if err := dec.Decode(&v); err == nil {
			return s[i : i+int(dec.InputOffset())], nil
		}
		next := strings.IndexByte(s[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return s[start : end+1], nil
}

// Decode is the strict second stage: it unmarshals text into out and runs
// struct validation.
func Decode(text string, out any) error {
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	if err := Validate(out); err != nil {
		return fmt.Errorf("validating %T: %w", out, err)
	}
	return nil
}

// Validate checks v against its validate struct tags and returns one
// readable error listing every failed field.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// Parse runs both stages.
func Parse(raw string, out any) error {
	text, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	return Decode(text, out)
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", e.Namespace()))
		case "min", "max":
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s (got %v)", e.Namespace(), e.Tag(), e.Param(), e.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", e.Namespace(), e.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
