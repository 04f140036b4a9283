// Package chat orchestrates one question answering turn: detect the query
// language, retrieve context, generate an answer grounded in it, and keep
// the session history.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nahidhasan/banglarag/internal/evaluate"
	"github.com/nahidhasan/banglarag/internal/language"
	"github.com/nahidhasan/banglarag/internal/llm"
	"github.com/nahidhasan/banglarag/internal/memory"
	"github.com/nahidhasan/banglarag/internal/retrieval"
)

// Generator produces chat completions.
type Generator interface {
	ChatCompletion(ctx context.Context, messages []llm.Message, maxTokens int, temperature float64) (string, error)
}

// Source identifies one retrieved chunk backing an answer.
type Source struct {
	Document   string  `json:"file_name"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	Language   string  `json:"language"`
}

// Answer is the outcome of one chat turn.
type Answer struct {
	SessionID  string            `json:"session_id"`
	Query      string            `json:"query"`
	Text       string            `json:"answer"`
	Language   language.Language `json:"language_detected"`
	Sources    []Source          `json:"sources"`
	Evaluation *evaluate.Record  `json:"evaluation,omitempty"`
}

// Config holds generation settings.
type Config struct {
	HistoryTurns    int
	MaxAnswerTokens int
	Temperature     float64
}

func DefaultConfig() Config {
	return Config{
		HistoryTurns:    5,
		MaxAnswerTokens: 1024,
		Temperature:     0.2,
	}
}

// Service runs the retrieval-augmented chat flow.
type Service struct {
	generator Generator
	retriever *retrieval.Retriever
	mem       *memory.Store
	evaluator *evaluate.Evaluator
	cfg       Config
	log       *slog.Logger
}

func New(generator Generator, retriever *retrieval.Retriever, mem *memory.Store, evaluator *evaluate.Evaluator, cfg Config, log *slog.Logger) *Service {
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = 5
	}
	if cfg.MaxAnswerTokens <= 0 {
		cfg.MaxAnswerTokens = 1024
	}
	return &Service{
		generator: generator,
		retriever: retriever,
		mem:       mem,
		evaluator: evaluator,
		cfg:       cfg,
		log:       log,
	}
}

// Ask answers a query within a session.
func (s *Service) Ask(ctx context.Context, sessionID, query string) (*Answer, error) {
	return s.ask(ctx, sessionID, query, "", false)
}

// AskEvaluated answers a query and scores the answer for groundedness and
// retrieval relevance. The expected answer is carried into the record for
// comparison downstream. Evaluation never fails the chat turn.
func (s *Service) AskEvaluated(ctx context.Context, sessionID, query, expectedAnswer string) (*Answer, error) {
	return s.ask(ctx, sessionID, query, expectedAnswer, true)
}

func (s *Service) ask(ctx context.Context, sessionID, query, expectedAnswer string, evaluated bool) (*Answer, error) {
	lang := language.Detect(query)
	s.mem.SetLanguage(sessionID, string(lang))
	log := s.log.With("session_id", sessionID, "language", lang)

	history := historyWindow(s.mem.Context(sessionID), s.cfg.HistoryTurns)

	result, err := s.retriever.Retrieve(ctx, query, lang, retrieval.Filter{})
	switch {
	case errors.Is(err, retrieval.ErrInsufficientContext):
		// No usable context: the model is still asked, but the prompt
		// forces the canonical refusal instead of a guess.
		log.Info("no relevant context for query")
		result = nil
	case err != nil:
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	contextText := ContextText(result)
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt(lang, contextText)})
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Text})
	}
	messages = append(messages, llm.Message{Role: "user", Content: query})

	answer := &Answer{
		SessionID: sessionID,
		Query:     query,
		Language:  lang,
		Sources:   sources(result),
	}

	text, err := s.generator.ChatCompletion(ctx, messages, s.cfg.MaxAnswerTokens, s.cfg.Temperature)
	if err != nil {
		// The turn is not recorded: a failed exchange must not poison
		// later history.
		log.Error("generation failed", "error", err)
		answer.Text = Apology(lang)
		return answer, nil
	}
	answer.Text = text

	s.mem.Append(sessionID, memory.Turn{Role: "user", Text: query})
	s.mem.Append(sessionID, memory.Turn{Role: "assistant", Text: text})

	if evaluated && s.evaluator != nil {
		record, evalErr := s.evaluator.Evaluate(ctx, query, text, contextText, result)
		if evalErr != nil {
			log.Warn("evaluation failed", "error", evalErr)
		} else {
			record.ExpectedAnswer = expectedAnswer
			answer.Evaluation = record
		}
	}

	return answer, nil
}

func sources(result *retrieval.Result) []Source {
	if result == nil {
		return []Source{}
	}
	out := make([]Source, len(result.Chunks))
	for i, c := range result.Chunks {
		out[i] = Source{
			Document:   c.Document,
			ChunkIndex: c.ChunkIndex,
			Score:      c.Composite,
			Language:   string(c.Language),
		}
	}
	return out
}
