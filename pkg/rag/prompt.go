package rag

import (
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

const defaultPromptTemplate = `Answer the question using only the context below.

Context:
{{- range $i, $doc := .Documents}}
[{{inc $i}}] {{$doc.Content}}
{{- end}}

Question: {{.Query}}
Answer:`

// PromptBuilder renders a query and its supporting documents into a prompt.
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder parses a prompt template. The template receives .Query and
// .Documents, plus an inc helper for 1-based citation numbers. An empty text
// falls back to the default template.
func NewPromptBuilder(text string) (*PromptBuilder, error) {
	if text == "" {
		text = defaultPromptTemplate
	}

	tmpl, err := template.New("prompt").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse prompt template")
	}

	return &PromptBuilder{tmpl: tmpl}, nil
}

// Build renders the prompt for a query and its supporting documents.
func (b *PromptBuilder) Build(query string, docs []Document) (string, error) {
	var sb strings.Builder

	err := b.tmpl.Execute(&sb, struct {
		Query     string
		Documents []Document
	}{Query: query, Documents: docs})
	if err != nil {
		return "", errors.Wrap(err, "unable to render prompt")
	}

	return sb.String(), nil
}
