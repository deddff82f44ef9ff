// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a brainstorming session end to end: collect and
// index papers, generate topics, evaluate and rank them, write the report
// and optionally a translated report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/pdiddy/topic-brainstorm/internal/collect"
	"github.com/pdiddy/topic-brainstorm/internal/evaluate"
	"github.com/pdiddy/topic-brainstorm/internal/generate"
	"github.com/pdiddy/topic-brainstorm/internal/llm"
	"github.com/pdiddy/topic-brainstorm/internal/logger"
	"github.com/pdiddy/topic-brainstorm/internal/report"
	"github.com/pdiddy/topic-brainstorm/internal/translate"
	"github.com/pdiddy/topic-brainstorm/internal/vectorstore"
	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

// Fatal preconditions. Everything else degrades to fallback values.
var (
	ErrNoPapers = errors.New("no papers found")
	ErrVectorDB = errors.New("failed to create vector DB")
	ErrNoTopics = errors.New("failed to generate topics")
)

// unloadTimeout bounds each best-effort unload request.
var unloadTimeout = 30 * time.Second

// Options selects what one run does.
type Options struct {
	Keyword string
	// Limit is the number of papers requested. Zero uses the configured default.
	Limit int
	// Topics is the number of topics requested. Zero uses the configured default.
	Topics int
	// Language is the translation target. Empty skips translation.
	Language string
	// FromCSV indexes a previously saved paper snapshot instead of querying OpenAlex.
	FromCSV string
}

// Result describes what a run produced.
type Result struct {
	Papers         int                    `json:"papers"`
	Index          collect.IndexSummary   `json:"index"`
	Topics         []types.EvaluatedTopic `json:"topics"`
	Translated     []types.EvaluatedTopic `json:"translated,omitempty"`
	ReportPath     string                 `json:"report_path,omitempty"`
	SnapshotPath   string                 `json:"snapshot_path,omitempty"`
	TranslatedPath string                 `json:"translated_path,omitempty"`
}

// Components are the stages the driver sequences.
type Components struct {
	Collector  *collect.Collector
	Generator  *generate.Generator
	Evaluator  *evaluate.Evaluator
	Translator *translate.Translator
	Unloader   llm.Unloader
}

// Driver runs sessions with a fixed configuration.
type Driver struct {
	cfg types.Config
	c   Components
	out io.Writer
	log *logger.Logger
}

// New builds a Driver from already constructed components.
func New(cfg types.Config, c Components, out io.Writer, log *logger.Logger) *Driver {
	if log == nil {
		log = logger.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &Driver{cfg: cfg, c: c, out: out, log: log.With("component", "pipeline")}
}

// NewWithClient wires every stage to one Ollama client and the persisted
// vector store under cfg.VectorDB.PersistDir.
func NewWithClient(cfg types.Config, client *llm.Client, out io.Writer, log *logger.Logger) *Driver {
	embedder := client.Embedder(cfg.Models.Embedding)
	openStore := func() (collect.Store, error) {
		return vectorstore.Open(cfg.VectorDB, embedder)
	}
	return New(cfg, Components{
		Collector:  collect.New(cfg, openStore, out, log),
		Generator:  generate.New(client, cfg, out, log),
		Evaluator:  evaluate.New(client, cfg, out, log),
		Translator: translate.New(client, cfg, out, log),
		Unloader:   client,
	}, out, log)
}

// Run executes one session. It returns ErrNoPapers, ErrVectorDB or
// ErrNoTopics when a fatal precondition fails; evaluation, translation and
// report-writing failures are reported and do not fail the run.
func (d *Driver) Run(ctx context.Context, opts Options) (*Result, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = d.cfg.Collector.PaperLimit
	}
	numTopics := opts.Topics
	if numTopics <= 0 {
		numTopics = d.cfg.Generation.TopicCount
	}
	d.log.Info("starting session", "keyword", opts.Keyword, "limit", limit, "topics", numTopics, "language", opts.Language)
	fmt.Fprintf(d.out, "Starting brainstorming session for: %q\n", opts.Keyword)
	defer d.c.Collector.Close()

	res := &Result{}

	fmt.Fprintln(d.out, "\n--- Step 1: Collecting Papers & Creating Vector DB ---")
	papers, err := d.papers(ctx, opts, limit)
	if err != nil {
		return res, err
	}
	res.Papers = len(papers)
	if len(papers) == 0 {
		return res, ErrNoPapers
	}

	res.Index, err = d.c.Collector.CreateVectorDB(ctx, papers)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrVectorDB, err)
	}
	d.unload(ctx, d.cfg.Models.Embedding)

	// The generator may already be resident from here on.
	defer d.cleanup(ctx)

	fmt.Fprintln(d.out, "\n--- Step 2: Generating Research Topics ---")
	var db generate.Retriever
	if s := d.c.Collector.Store(); s != nil {
		db = s
	}
	topics := d.c.Generator.GenerateTopics(ctx, db, opts.Keyword, numTopics)
	if len(topics) == 0 {
		return res, ErrNoTopics
	}
	if d.cfg.Models.Generator != d.cfg.Models.Evaluator {
		d.unload(ctx, d.cfg.Models.Generator)
	}

	fmt.Fprintln(d.out, "\n--- Step 3: Evaluating Topics ---")
	res.Topics = d.c.Evaluator.EvaluateTopics(ctx, topics)

	fmt.Fprintln(d.out, "\n--- Step 4: Generating Report (English) ---")
	res.ReportPath, res.SnapshotPath = d.writeReport(opts.Keyword, "", res.Topics)

	if opts.Language != "" && d.c.Translator != nil {
		fmt.Fprintf(d.out, "\n--- Step 5: Translating and Generating Report (%s) ---\n", opts.Language)
		res.Translated = d.c.Translator.TranslateTopics(ctx, res.Topics, opts.Language)
		res.TranslatedPath, _ = d.writeReport(opts.Keyword, opts.Language, res.Translated)
	}

	fmt.Fprintln(d.out, "\nSuccess! All tasks completed.")
	return res, nil
}

func (d *Driver) papers(ctx context.Context, opts Options, limit int) ([]types.Paper, error) {
	if opts.FromCSV == "" {
		return d.c.Collector.FetchPapers(ctx, opts.Keyword, limit), nil
	}
	papers, err := collect.ReadCSV(opts.FromCSV)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPapers, err)
	}
	fmt.Fprintf(d.out, "Loaded %d papers from %s\n", len(papers), opts.FromCSV)
	return papers, nil
}

// writeReport writes the HTML report and its YAML snapshot. Failures are
// reported and yield empty paths.
func (d *Driver) writeReport(keyword, language string, topics []types.EvaluatedTopic) (string, string) {
	dir := d.cfg.Report.OutputDir
	htmlPath := filepath.Join(dir, report.FileName(keyword, language, ".html"))
	if err := report.WriteFile(htmlPath, topics); err != nil {
		fmt.Fprintf(d.out, "warning: writing report: %v\n", err)
		d.log.Warn("writing report failed", "path", htmlPath, "error", err)
		return "", ""
	}
	fmt.Fprintf(d.out, "Report saved to: %s\n", htmlPath)

	yamlPath := filepath.Join(dir, report.FileName(keyword, language, ".yaml"))
	snap := report.Snapshot{Keyword: keyword, Language: language, Topics: topics}
	if err := report.WriteSnapshot(yamlPath, snap); err != nil {
		fmt.Fprintf(d.out, "warning: writing snapshot: %v\n", err)
		d.log.Warn("writing snapshot failed", "path", yamlPath, "error", err)
		return htmlPath, ""
	}
	return htmlPath, yamlPath
}

// cleanup unloads the generator, the evaluator and a distinct translator.
func (d *Driver) cleanup(ctx context.Context) {
	fmt.Fprintln(d.out, "\n--- Final Cleanup: Unloading Models ---")
	m := d.cfg.Models
	d.unload(ctx, m.Generator)
	if m.Evaluator != m.Generator {
		d.unload(ctx, m.Evaluator)
	}
	if t := m.TranslatorModel(); t != m.Generator && t != m.Evaluator {
		d.unload(ctx, t)
	}
}

// unload asks the host to evict model. Failure is logged only and never
// changes control flow. It runs even after ctx is cancelled.
func (d *Driver) unload(ctx context.Context, model string) {
	if d.c.Unloader == nil || model == "" {
		return
	}
	uctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unloadTimeout)
	defer cancel()

	fmt.Fprintf(d.out, "Requesting unload for model: %s...\n", model)
	if err := d.c.Unloader.Unload(uctx, model); err != nil {
		fmt.Fprintf(d.out, "warning: failed to unload model %s: %v\n", model, err)
		d.log.Warn("unload failed", "model", model, "error", err)
		return
	}
	d.log.Debug("model unloaded", "model", model)
}
