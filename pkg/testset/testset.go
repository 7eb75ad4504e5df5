// Package testset generates synthetic evaluation datasets from an indexed
// corpus: it samples stored documents, asks a generator to write questions
// about each one and keeps the parsed questions alongside reference answers.
package testset

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ragline/ragline/pkg/rag"
)

// ErrEmptyCorpus is returned when the sampled store holds no documents.
var ErrEmptyCorpus = errors.New("no documents to sample")

// Sample is one generated question grounded in a stored document.
type Sample struct {
	ID              string    `json:"id"`
	Question        string    `json:"question"`
	ReferenceAnswer string    `json:"reference_answer,omitempty"`
	SourceDocID     string    `json:"source_doc_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// Lister enumerates stored documents. Every ragline document store
// implements it.
type Lister interface {
	List(ctx context.Context, limit int) ([]rag.Document, error)
}

// Config controls sampling and generation.
type Config struct {
	Documents       int   // documents to sample; 0 keeps every listed document
	QuestionsPerDoc int   // questions requested per document
	ScanLimit       int   // most documents listed from the store
	Seed            int64 // shuffle seed; 0 keeps listing order
	Answers         bool  // also generate a reference answer per question
}

// DefaultConfig returns the generation defaults.
func DefaultConfig() Config {
	return Config{
		QuestionsPerDoc: 2,
		ScanLimit:       1024,
		Answers:         true,
	}
}

// Generator samples documents and writes question/answer pairs for them.
type Generator struct {
	source Lister
	llm    rag.Generator
	cfg    Config
	log    *logrus.Logger
}

// NewGenerator returns a Generator over source backed by llm. Non-positive
// config counts fall back to DefaultConfig; a nil logger falls back to a
// fresh one.
func NewGenerator(source Lister, llm rag.Generator, cfg Config, log *logrus.Logger) *Generator {
	def := DefaultConfig()
	if cfg.QuestionsPerDoc <= 0 {
		cfg.QuestionsPerDoc = def.QuestionsPerDoc
	}
	if cfg.ScanLimit <= 0 {
		cfg.ScanLimit = def.ScanLimit
	}
	if log == nil {
		log = logrus.New()
	}

	return &Generator{source: source, llm: llm, cfg: cfg, log: log}
}

// SampleDocuments picks the documents used for generation: list up to
// ScanLimit, shuffle when a seed is set, keep the first Documents.
func (g *Generator) SampleDocuments(ctx context.Context) ([]rag.Document, error) {
	docs, err := g.source.List(ctx, g.cfg.ScanLimit)
	if err != nil {
		return nil, errors.Wrap(err, "unable to list documents")
	}
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}

	if g.cfg.Seed != 0 {
		rng := rand.New(rand.NewSource(g.cfg.Seed))
		rng.Shuffle(len(docs), func(i, j int) { docs[i], docs[j] = docs[j], docs[i] })
	}
	if g.cfg.Documents > 0 && g.cfg.Documents < len(docs) {
		docs = docs[:g.cfg.Documents]
	}

	return docs, nil
}

// Generate samples documents and produces questions for each of them.
func (g *Generator) Generate(ctx context.Context) ([]Sample, error) {
	docs, err := g.SampleDocuments(ctx)
	if err != nil {
		return nil, err
	}

	return g.Questions(ctx, docs)
}

// Questions produces up to QuestionsPerDoc samples per document. Documents
// whose generation yields no parseable question are skipped with a warning.
func (g *Generator) Questions(ctx context.Context, docs []rag.Document) ([]Sample, error) {
	samples := make([]Sample, 0, len(docs)*g.cfg.QuestionsPerDoc)

	for _, doc := range docs {
		raw, err := g.llm.Generate(ctx, questionPrompt(doc.Content, g.cfg.QuestionsPerDoc))
		if err != nil {
			return nil, errors.Wrapf(err, "unable to generate questions for %s", doc.ID)
		}

		questions := ParseNumbered(raw)
		if len(questions) == 0 {
			g.log.WithField("document", doc.ID).Warn("no questions parsed")
			continue
		}
		if len(questions) > g.cfg.QuestionsPerDoc {
			questions = questions[:g.cfg.QuestionsPerDoc]
		}

		for _, question := range questions {
			sample := Sample{
				ID:          uuid.NewString(),
				Question:    question,
				SourceDocID: doc.ID,
				CreatedAt:   time.Now().UTC(),
			}

			if g.cfg.Answers {
				answer, err := g.llm.Generate(ctx, answerPrompt(doc.Content, question))
				if err != nil {
					return nil, errors.Wrapf(err, "unable to generate answer for %s", doc.ID)
				}
				sample.ReferenceAnswer = strings.TrimSpace(answer)
			}

			samples = append(samples, sample)
		}

		g.log.WithFields(logrus.Fields{
			"document":  doc.ID,
			"questions": len(questions),
		}).Debug("questions generated")
	}

	return samples, nil
}

var numberedLine = regexp.MustCompile(`^\s*\d+[.)]\s+(.+)$`)

// ParseNumbered extracts the items of a numbered list, one per line, in the
// "1. text" or "2) text" shapes generators usually return.
func ParseNumbered(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if item := strings.TrimSpace(m[1]); item != "" {
			items = append(items, item)
		}
	}

	return items
}

func questionPrompt(content string, n int) string {
	return fmt.Sprintf(`Write %d short questions that can each be answered using only the passage below.
Return a numbered list with one question per line.

Passage:
%s`, n, content)
}

func answerPrompt(content, question string) string {
	return fmt.Sprintf(`Answer the question using only the passage below. Keep the answer to one or two sentences.

Passage:
%s

Question: %s
Answer:`, content, question)
}
