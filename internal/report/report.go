// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders ranked, evaluated topics as a self-contained HTML
// document and as a YAML snapshot.
package report

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

// maxListedAuthors is the number of related-paper authors shown before
// "et al.".
const maxListedAuthors = 3

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"inc":     func(i int) int { return i + 1 },
	"authors": shortAuthors,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Research Topic Brainstorming Report</title>
<style>
body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 1200px; margin: 0 auto; padding: 20px; background-color: #f4f4f9; }
h1 { text-align: center; color: #2c3e50; margin-bottom: 40px; }
.topic-card { background: #fff; border-radius: 8px; box-shadow: 0 2px 5px rgba(0,0,0,0.1); margin-bottom: 30px; padding: 25px; border-left: 5px solid #3498db; }
.topic-header { display: flex; justify-content: space-between; align-items: center; border-bottom: 1px solid #eee; padding-bottom: 15px; margin-bottom: 15px; }
.topic-title { font-size: 1.5em; color: #2c3e50; margin: 0; }
.topic-score { background: #3498db; color: #fff; padding: 5px 15px; border-radius: 20px; font-weight: bold; }
.section-title { font-weight: bold; color: #7f8c8d; margin-top: 15px; text-transform: uppercase; font-size: 0.9em; }
.content { margin-top: 5px; }
.toc-list { padding-left: 20px; }
.evaluation-box { background-color: #f8f9fa; border: 1px solid #e9ecef; border-radius: 5px; padding: 15px; margin-top: 20px; }
.score-grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 10px; margin-bottom: 10px; }
.score-item { text-align: center; background: #fff; padding: 10px; border-radius: 4px; border: 1px solid #dee2e6; }
.score-value { font-size: 1.2em; font-weight: bold; color: #2c3e50; }
.score-label { font-size: 0.8em; color: #6c757d; }
.paper-item { margin-bottom: 15px; padding: 10px; background-color: #f8f9fa; border-radius: 5px; border-left: 3px solid #3498db; }
.paper-title { font-weight: bold; color: #2c3e50; margin-bottom: 5px; }
.paper-title a { color: #3498db; text-decoration: none; }
.paper-title a:hover { text-decoration: underline; }
.paper-meta { font-size: 0.9em; color: #6c757d; margin-top: 3px; }
.paper-meta-label { font-weight: bold; color: #7f8c8d; }
</style>
</head>
<body>
<h1>Research Topic Brainstorming Report</h1>
{{- range $i, $item := .}}
{{- with $item}}
<div class="topic-card">
  <div class="topic-header">
    <h2 class="topic-title">#{{inc $i}} {{.Topic.Title}}</h2>
    <div class="topic-score">Score: {{.Evaluation.TotalScore}}/15</div>
  </div>

  <div class="section-title">Background</div>
  <div class="content">{{.Topic.Background}}</div>

  <div class="section-title">Necessity</div>
  <div class="content">{{.Topic.Necessity}}</div>

  <div class="section-title">Table of Contents</div>
  <ul class="toc-list">
  {{- range .Topic.TableOfContents}}
    <li>{{.}}</li>
  {{- end}}
  </ul>

  <div class="section-title">Expected Effects</div>
  <div class="content">{{.Topic.ExpectedEffects}}</div>

  <div class="section-title">Related Papers</div>
  <div>
  {{- range .Topic.RelatedPapers}}
    <div class="paper-item">
      <div class="paper-title">
        {{- if .URL}}<a href="{{.URL}}" target="_blank">{{.Title}}</a>{{else}}{{.Title}}{{end -}}
      </div>
      {{- with authors .Authors}}
      <div class="paper-meta"><span class="paper-meta-label">Authors:</span> {{.}}</div>
      {{- end}}
      {{- if .Year}}
      <div class="paper-meta"><span class="paper-meta-label">Year:</span> {{.Year}}</div>
      {{- end}}
    </div>
  {{- end}}
  </div>

  <div class="evaluation-box">
    <div class="section-title" style="margin-top: 0;">Evaluation</div>
    <div class="score-grid">
      <div class="score-item">
        <div class="score-value">{{.Evaluation.OriginalityScore}}</div>
        <div class="score-label">Originality</div>
      </div>
      <div class="score-item">
        <div class="score-value">{{.Evaluation.FeasibilityScore}}</div>
        <div class="score-label">Feasibility</div>
      </div>
      <div class="score-item">
        <div class="score-value">{{.Evaluation.ImpactScore}}</div>
        <div class="score-label">Impact</div>
      </div>
    </div>
    <p><strong>Reasoning:</strong> {{.Evaluation.Reasoning}}</p>
  </div>
</div>
{{- end}}
{{- end}}
</body>
</html>
`))

// shortAuthors lists at most maxListedAuthors names from a comma-joined
// author string, appending "et al." when more exist.
func shortAuthors(joined string) string {
	if strings.TrimSpace(joined) == "" {
		return ""
	}
	names := strings.Split(joined, ", ")
	if len(names) <= maxListedAuthors {
		return joined
	}
	return strings.Join(names[:maxListedAuthors], ", ") + " et al."
}

// Render writes the HTML report for topics, in the given order.
func Render(w io.Writer, topics []types.EvaluatedTopic) error {
	if err := reportTmpl.Execute(w, topics); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

// WriteFile renders topics to path, creating parent directories.
func WriteFile(path string, topics []types.EvaluatedTopic) error {
	return writeFile(path, func(w io.Writer) error { return Render(w, topics) })
}

// Snapshot is the YAML form of one report.
type Snapshot struct {
	Keyword  string                 `yaml:"keyword"`
	Language string                 `yaml:"language,omitempty"`
	Topics   []types.EvaluatedTopic `yaml:"topics"`
}

// WriteSnapshot writes s as YAML to path, creating parent directories.
func WriteSnapshot(path string, s Snapshot) error {
	return writeFile(path, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&s); err != nil {
			return fmt.Errorf("encoding snapshot: %w", err)
		}
		return enc.Close()
	})
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

func writeFile(path string, render func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// FileName returns the report base name for keyword: report_<kw> for the
// source language, report_<kw>_<suffix> for a translation.
func FileName(keyword, language, ext string) string {
	name := "report_" + types.SanitizeKeyword(keyword)
	if language != "" {
		name += "_" + types.LanguageSuffix(language)
	}
	return name + ext
}
