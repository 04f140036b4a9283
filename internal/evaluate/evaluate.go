// Package evaluate scores generated answers: groundedness via an external
// judgment call whose response is parsed defensively, and relevance as a
// weighted blend of the retrieval result's own component signals.
package evaluate

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/nahidhasan/banglarag/internal/llm"
	"github.com/nahidhasan/banglarag/internal/retrieval"
)

// Judge is the generation-service surface used for the groundedness
// judgment. *llm.Client satisfies it.
type Judge interface {
	ChatCompletion(ctx context.Context, messages []llm.Message, maxTokens int, temperature float64) (string, error)
}

// Config holds the evaluation weights and thresholds.
type Config struct {
	// Relevance blend weights (must sum to 1).
	TFIDFWeight  float64
	RatioWeight  float64
	VectorWeight float64

	// RelevanceThreshold is the composite score a chunk must exceed to
	// count toward the relevance ratio.
	RelevanceThreshold float64

	// GroundednessSupported is the score at or above which an answer is
	// flagged as supported by its context.
	GroundednessSupported float64

	// Overall blend weights (must sum to 1).
	GroundednessWeight float64
	RelevanceWeight    float64
}

// DefaultConfig returns the documented constants: 30/40/30 relevance
// blend, 0.6 relevance threshold, 0.7 groundedness support bar, and an
// even groundedness/relevance split for the overall score.
func DefaultConfig() Config {
	return Config{
		TFIDFWeight:           0.30,
		RatioWeight:           0.40,
		VectorWeight:          0.30,
		RelevanceThreshold:    0.6,
		GroundednessSupported: 0.7,
		GroundednessWeight:    0.5,
		RelevanceWeight:       0.5,
	}
}

// Groundedness reports how well the answer is supported by the context.
type Groundedness struct {
	Score     float64 `json:"score"`
	Analysis  string  `json:"analysis"`
	Supported bool    `json:"supported"`
}

// Relevance reports how well the retrieved context fits the query.
type Relevance struct {
	Score        float64   `json:"score"`
	RelevantDocs int       `json:"relevant_docs"`
	TotalDocs    int       `json:"total_docs"`
	Individual   []float64 `json:"individual_scores,omitempty"`
	Analysis     string    `json:"analysis"`
}

// Record is the full evaluation outcome for one answer. ExpectedAnswer
// is the caller-supplied reference answer, carried alongside the scores.
type Record struct {
	OverallScore   float64      `json:"overall_score"`
	Quality        string       `json:"quality"`
	ExpectedAnswer string       `json:"expected_answer,omitempty"`
	Groundedness   Groundedness `json:"groundedness"`
	Relevance      Relevance    `json:"relevance"`
}

// Evaluator scores answers against their retrieval context.
type Evaluator struct {
	judge Judge
	cfg   Config
	log   *slog.Logger
}

func New(judge Judge, cfg Config, log *slog.Logger) *Evaluator {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Evaluator{judge: judge, cfg: cfg, log: log}
}

// Evaluate scores the answer. A nil result means retrieval found no
// sufficient context: both scores report 0.0 and the judgment service is
// not called at all.
func (e *Evaluator) Evaluate(ctx context.Context, query, answer, contextText string, result *retrieval.Result) (*Record, error) {
	if result == nil || len(result.Chunks) == 0 {
		overall := 0.0
		return &Record{
			OverallScore: overall,
			Quality:      QualityBand(overall),
			Groundedness: Groundedness{Analysis: "no context retrieved"},
			Relevance:    Relevance{Analysis: "no documents retrieved"},
		}, nil
	}

	groundedness := e.evaluateGroundedness(ctx, answer, contextText)
	relevance := e.evaluateRelevance(result)

	overall := e.cfg.GroundednessWeight*groundedness.Score + e.cfg.RelevanceWeight*relevance.Score
	return &Record{
		OverallScore: overall,
		Quality:      QualityBand(overall),
		Groundedness: groundedness,
		Relevance:    relevance,
	}, nil
}

// judgmentPrompt asks the model, in Bengali, to score answer-vs-context
// support on a 0.0-1.0 scale. Context always precedes answer so the
// prompt is byte-identical for identical inputs.
func judgmentPrompt(answer, contextText string) string {
	var sb strings.Builder
	sb.WriteString("আপনি একটি উত্তর মূল্যায়নকারী। নিচের উত্তরটি প্রদত্ত প্রসঙ্গ দ্বারা সমর্থিত কিনা তা মূল্যায়ন করুন।\n\n")
	sb.WriteString("প্রসঙ্গ:\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\nউত্তর:\n")
	sb.WriteString(answer)
	sb.WriteString("\n\nনির্দেশনা:\n")
	sb.WriteString("1. উত্তরটি প্রসঙ্গে উল্লিখিত তথ্য দ্বারা সমর্থিত কিনা বিশ্লেষণ করুন\n")
	sb.WriteString("2. 0.0 থেকে 1.0 স্কেল এ একটি স্কোর দিন (1.0 = সম্পূর্ণ সমর্থিত, 0.0 = সমর্থিত নয়)\n")
	sb.WriteString("3. সংক্ষিপ্ত বিশ্লেষণ প্রদান করুন\n\n")
	sb.WriteString("উত্তর ফরম্যাট:\nস্কোর: [0.0-1.0]\nবিশ্লেষণ: [সংক্ষিপ্ত ব্যাখ্যা]")
	return sb.String()
}

func (e *Evaluator) evaluateGroundedness(ctx context.Context, answer, contextText string) Groundedness {
	if strings.TrimSpace(contextText) == "" {
		return Groundedness{Analysis: "no context provided"}
	}

	reply, err := e.judge.ChatCompletion(ctx, []llm.Message{
		{Role: "user", Content: judgmentPrompt(answer, contextText)},
	}, 300, 0.1)
	if err != nil {
		// Degrade to worst-case rather than failing the request.
		e.log.Error("groundedness judgment failed", "error", err)
		return Groundedness{Analysis: fmt.Sprintf("judgment unavailable: %s", err)}
	}

	score, analysis := parseJudgment(reply)
	if analysis == "" {
		e.log.Warn("malformed judgment response, defaulting score to 0", "reply_len", len(reply))
	}
	return Groundedness{
		Score:     score,
		Analysis:  analysis,
		Supported: score >= e.cfg.GroundednessSupported,
	}
}

var (
	scoreRe    = regexp.MustCompile(`(?:স্কোর|[Ss]core)\s*[:：]\s*([0-9]*\.?[0-9]+)`)
	analysisRe = regexp.MustCompile(`(?s)(?:বিশ্লেষণ|[Aa]nalysis)\s*[:：]\s*(.+)`)
)

// parseJudgment pulls the numeric score and analysis text out of the
// judgment reply. Anything unparseable yields 0.0; the score is clamped
// into [0, 1]. The reply shape is never trusted.
func parseJudgment(reply string) (float64, string) {
	var score float64
	if m := scoreRe.FindStringSubmatch(reply); len(m) > 1 {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			score = v
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	analysis := ""
	if m := analysisRe.FindStringSubmatch(reply); len(m) > 1 {
		analysis = strings.TrimSpace(m[1])
	}
	return score, analysis
}

// evaluateRelevance blends the retrieval result's own signals: mean TF-IDF
// similarity, the fraction of chunks clearing the relevance threshold, and
// the mean normalized vector score.
func (e *Evaluator) evaluateRelevance(result *retrieval.Result) Relevance {
	total := len(result.Chunks)
	individual := make([]float64, 0, total)
	var tfidfSum, vectorSum float64
	relevant := 0
	for _, c := range result.Chunks {
		individual = append(individual, c.TFIDFScore)
		tfidfSum += c.TFIDFScore
		vectorSum += c.VectorScore
		if c.Composite > e.cfg.RelevanceThreshold {
			relevant++
		}
	}

	meanTFIDF := tfidfSum / float64(total)
	meanVector := vectorSum / float64(total)
	ratio := float64(relevant) / float64(total)

	score := e.cfg.TFIDFWeight*meanTFIDF + e.cfg.RatioWeight*ratio + e.cfg.VectorWeight*meanVector
	if score > 1 {
		score = 1
	}

	return Relevance{
		Score:        score,
		RelevantDocs: relevant,
		TotalDocs:    total,
		Individual:   individual,
		Analysis: fmt.Sprintf("%d/%d chunks above threshold, tf-idf %.3f, vector %.3f",
			relevant, total, meanTFIDF, meanVector),
	}
}

// QualityBand maps an overall score onto its quality label.
func QualityBand(score float64) string {
	switch {
	case score >= 0.8:
		return "excellent"
	case score >= 0.6:
		return "good"
	case score >= 0.4:
		return "fair"
	default:
		return "poor"
	}
}
