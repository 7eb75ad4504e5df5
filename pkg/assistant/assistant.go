// Package assistant routes chat queries to retrieval pipelines. A query
// picks a route by keyword, fans out over the locations it names and merges
// the per-location answers.
package assistant

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ragline/ragline/pkg/pipeline"
	"github.com/ragline/ragline/pkg/pipeline/model"
	"github.com/ragline/ragline/pkg/rag"
)

// PortLocation feeds a location into a route's retrieve stage. When unfed,
// retrieval runs unfiltered.
const PortLocation = "location"

// ErrNoRoute is returned when no route matches and none is the default.
var ErrNoRoute = errors.New("no route matches query")

// Answer is one generated answer with the route and location that produced
// it.
type Answer struct {
	Route    string `json:"route"`
	Location string `json:"location,omitempty"`
	Text     string `json:"text"`
}

type route struct {
	name     string
	keywords []string
	def      bool
	pipe     *pipeline.Pipeline
}

// Assistant answers chat queries over a retriever, one answer per location
// the query names.
type Assistant struct {
	routes    []*route
	locations []string
	log       *logrus.Logger
}

// New assembles one pipeline per configured route over the shared retriever
// and generator. A nil logger falls back to a fresh one.
func New(cfg Config, retriever rag.Retriever, generator rag.Generator, log *logrus.Logger) (*Assistant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.New()
	}

	a := &Assistant{locations: cfg.Locations, log: log}

	for _, rc := range cfg.Routes {
		pipe, err := newRoutePipeline(rc, retriever, generator)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to build route %q", rc.Name)
		}

		keywords := make([]string, len(rc.Keywords))
		for i, kw := range rc.Keywords {
			keywords[i] = strings.ToLower(kw)
		}

		a.routes = append(a.routes, &route{
			name:     rc.Name,
			keywords: keywords,
			def:      rc.Default,
			pipe:     pipe,
		})
	}

	return a, nil
}

// Ask routes the query and runs the route's pipeline once per parsed
// location, once unfiltered when the query names none. Answers come back in
// location order.
func (a *Assistant) Ask(ctx context.Context, query string) ([]Answer, error) {
	rt := a.match(query)
	if rt == nil {
		return nil, errors.Wrapf(ErrNoRoute, "query %q", query)
	}

	locations := ParseLocations(query, a.locations)
	if len(locations) == 0 {
		locations = []string{""}
	}

	a.log.WithFields(logrus.Fields{
		"route":     rt.name,
		"locations": len(locations),
	}).Debug("query routed")

	answers := make([]Answer, 0, len(locations))
	for _, loc := range locations {
		inputs := pipeline.Inputs{
			rag.StageRetrieve: model.Values{rag.PortQuery: query},
			rag.StagePrompt:   model.Values{rag.PortQuery: query},
		}
		if loc != "" {
			inputs[rag.StageRetrieve][PortLocation] = loc
		}

		outputs, err := rt.pipe.Run(ctx, inputs)
		if err != nil {
			if loc == "" {
				return nil, err
			}
			return nil, errors.Wrapf(err, "location %q", loc)
		}

		text, err := rag.Answer(outputs)
		if err != nil {
			return nil, err
		}

		answers = append(answers, Answer{Route: rt.name, Location: loc, Text: text})
	}

	return answers, nil
}

// match returns the first route with a keyword in the query, else the
// default route. Multi-word keywords match as token sequences.
func (a *Assistant) match(query string) *route {
	tokens := rag.Tokenize(query)

	var def *route
	for _, rt := range a.routes {
		if rt.def && def == nil {
			def = rt
		}
		for _, kw := range rt.keywords {
			if indexOfTokens(tokens, rag.Tokenize(kw)) >= 0 {
				return rt
			}
		}
	}

	return def
}

// Merge joins answers into one response, labelling each located one.
func Merge(answers []Answer) string {
	if len(answers) == 1 && answers[0].Location == "" {
		return answers[0].Text
	}

	parts := make([]string, len(answers))
	for i, ans := range answers {
		if ans.Location == "" {
			parts[i] = ans.Text
			continue
		}
		parts[i] = ans.Location + ": " + ans.Text
	}

	return strings.Join(parts, "\n\n")
}

// newRoutePipeline assembles retrieve -> prompt -> generate for one route.
// The retrieve stage takes the optional location port.
func newRoutePipeline(rc RouteConfig, retriever rag.Retriever, generator rag.Generator) (*pipeline.Pipeline, error) {
	builder, err := rag.NewPromptBuilder(rc.Template)
	if err != nil {
		return nil, err
	}

	opts := rag.DefaultSearchOptions()
	if rc.TopK > 0 {
		opts.TopK = rc.TopK
	}
	opts.MinScore = rc.MinScore

	pipe, err := pipeline.New()
	if err != nil {
		return nil, err
	}

	stages := []struct {
		id    string
		stage pipeline.Stage
	}{
		{rag.StageRetrieve, locationRetrieverStage(retriever, opts)},
		{rag.StagePrompt, rag.PromptStage(builder)},
		{rag.StageGenerate, rag.GeneratorStage(generator)},
	}
	for _, s := range stages {
		if err := pipe.AddStage(s.id, s.stage); err != nil {
			return nil, errors.Wrapf(err, "unable to add stage %q", s.id)
		}
	}

	if err := pipe.Connect(rag.StageRetrieve, rag.PortDocuments, rag.StagePrompt, rag.PortDocuments); err != nil {
		return nil, errors.Wrap(err, "unable to bind retrieve to prompt")
	}
	if err := pipe.Connect(rag.StagePrompt, rag.PortPrompt, rag.StageGenerate, rag.PortPrompt); err != nil {
		return nil, errors.Wrap(err, "unable to bind prompt to generate")
	}

	return pipe, nil
}

// locationRetrieverStage retrieves documents for the query, narrowing the
// search to a location when one is fed in.
func locationRetrieverStage(retriever rag.Retriever, opts rag.SearchOptions) pipeline.Stage {
	query := model.In[string](rag.PortQuery)
	location := model.InOptional[string](PortLocation)
	out := model.Out[[]rag.Document](rag.PortDocuments)

	return pipeline.NewStage([]model.Port{query, location}, []model.Port{out}, func(ctx context.Context, vals model.Values) (model.Values, error) {
		q, err := model.Value[string](vals, query)
		if err != nil {
			return nil, err
		}
		loc, err := model.ValueOr(vals, location, "")
		if err != nil {
			return nil, err
		}

		runOpts := opts
		if loc != "" {
			filter := make(map[string]interface{}, len(opts.Filter)+1)
			for k, v := range opts.Filter {
				filter[k] = v
			}
			filter["location"] = loc
			runOpts.Filter = filter
		}

		docs, err := retriever.Retrieve(ctx, q, runOpts)
		if err != nil {
			return nil, errors.Wrap(err, "unable to retrieve documents")
		}

		return model.Values{out.Name: docs}, nil
	})
}
