// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chat answers free-form questions from the persisted paper store,
// streaming the model's answer as it is produced.
package chat

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/pdiddy/topic-brainstorm/internal/llm"
	"github.com/pdiddy/topic-brainstorm/internal/logger"
	"github.com/pdiddy/topic-brainstorm/internal/vectorstore"
	"github.com/pdiddy/topic-brainstorm/pkg/types"
)

// ErrNoVectorDB is returned when the persisted store has not been built.
var ErrNoVectorDB = errors.New("vector DB not found; run a brainstorming session first")

var ragPromptTmpl = template.Must(template.New("rag").Parse(`Answer the question based only on the following context:

{{.Context}}

Question: {{.Question}}

Answer:`))

var exitWords = map[string]bool{"exit": true, "quit": true, "q": true}

// IsExit reports whether line asks to leave the chat loop.
func IsExit(line string) bool {
	return exitWords[strings.ToLower(strings.TrimSpace(line))]
}

// Retriever returns the documents nearest to a query.
type Retriever interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]vectorstore.Hit, error)
}

// Session answers single-turn questions against one store.
type Session struct {
	db          Retriever
	model       llm.Streamer
	name        string
	temperature float64
	k           int
	log         *logger.Logger
}

// NewSession builds a Session using the generator model settings from cfg.
func NewSession(db Retriever, model llm.Streamer, cfg types.Config, log *logger.Logger) *Session {
	if log == nil {
		log = logger.NewNop()
	}
	return &Session{
		db:          db,
		model:       model,
		name:        cfg.Models.Generator,
		temperature: cfg.Models.GeneratorTemperature,
		k:           cfg.VectorDB.SearchK,
		log:         log.With("component", "chat", "model", cfg.Models.Generator),
	}
}

// Open opens the persisted store for a chat session. It returns
// ErrNoVectorDB when the store has not been built yet. The returned close
// function releases the store.
func Open(cfg types.Config, client *llm.Client, log *logger.Logger) (*Session, func() error, error) {
	store, err := vectorstore.OpenExisting(cfg.VectorDB, client.Embedder(cfg.Models.Embedding))
	if err != nil {
		if errors.Is(err, vectorstore.ErrNotBuilt) {
			return nil, nil, fmt.Errorf("%w (looked in %s)", ErrNoVectorDB, cfg.VectorDB.PersistDir)
		}
		return nil, nil, err
	}
	return NewSession(store, client, cfg, log), store.Close, nil
}

// Prompt builds the retrieval-augmented prompt for question.
func (s *Session) Prompt(ctx context.Context, question string) (string, error) {
	hits, err := s.db.SimilaritySearch(ctx, question, s.k)
	if err != nil {
		return "", fmt.Errorf("retrieving context: %w", err)
	}
	contents := make([]string, len(hits))
	for i, h := range hits {
		contents[i] = h.Content
	}
	var buf bytes.Buffer
	err = ragPromptTmpl.Execute(&buf, struct{ Context, Question string }{
		Context:  strings.Join(contents, "\n\n"),
		Question: question,
	})
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}

// Ask answers question, passing each token to onToken as it arrives, and
// returns the full answer.
func (s *Session) Ask(ctx context.Context, question string, onToken func(string) error) (string, error) {
	prompt, err := s.Prompt(ctx, question)
	if err != nil {
		return "", err
	}
	return s.model.Stream(ctx, llm.Request{
		Model:       s.name,
		Messages:    llm.UserPrompt(prompt),
		Temperature: s.temperature,
	}, onToken)
}

// Run reads questions line by line from in and streams answers to out.
// Empty lines are skipped. It returns nil on an exit word, end of input or
// cancellation of ctx. A failed question is reported and the loop goes on.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "RAG chatbot is ready! (Type 'exit', 'quit', or 'q' to stop)")
	fmt.Fprintln(out, strings.Repeat("-", 50))

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		fmt.Fprint(out, "\nUser: ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(out, "\nGoodbye!")
			select {
			case err := <-readErr:
				return err
			default:
				return nil
			}
		}

		question := strings.TrimSpace(line)
		if IsExit(question) {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
		if question == "" {
			continue
		}

		fmt.Fprint(out, "Bot: ")
		_, err := s.Ask(ctx, question, func(tok string) error {
			_, werr := io.WriteString(out, tok)
			return werr
		})
		fmt.Fprintln(out)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(out, "Goodbye!")
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", err)
			s.log.Warn("question failed", "error", err)
		}
	}
}
