package rag

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ragline/ragline/pkg/pipeline"
	"github.com/ragline/ragline/pkg/pipeline/model"
)

// Port names shared by the rag stages.
const (
	PortDocuments = "documents"
	PortWritten   = "written"
	PortQuery     = "query"
	PortEmbedding = "embedding"
	PortResults   = "results"
	PortPrompt    = "prompt"
	PortAnswer    = "answer"
)

// SourceStage produces documents from a loader function.
func SourceStage(load func(ctx context.Context) ([]Document, error)) pipeline.Stage {
	out := model.Out[[]Document](PortDocuments)

	return pipeline.NewSource([]model.Port{out}, func(ctx context.Context, _ model.Values) (model.Values, error) {
		docs, err := load(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "unable to load documents")
		}

		return model.Values{out.Name: docs}, nil
	})
}

// PathSourceStage produces documents from a file or directory.
func PathSourceStage(path string, log *logrus.Logger) pipeline.Stage {
	return SourceStage(func(ctx context.Context) ([]Document, error) {
		return LoadPath(path, log)
	})
}

// DocumentsStage produces a fixed set of documents.
func DocumentsStage(docs []Document) pipeline.Stage {
	return SourceStage(func(context.Context) ([]Document, error) {
		return docs, nil
	})
}

// SplitterStage cuts every incoming document with the splitter.
func SplitterStage(splitter Splitter) pipeline.Stage {
	in := model.In[[]Document](PortDocuments)
	out := model.Out[[]Document](PortDocuments)

	return pipeline.NewStage([]model.Port{in}, []model.Port{out}, func(_ context.Context, vals model.Values) (model.Values, error) {
		docs, err := model.Value[[]Document](vals, in)
		if err != nil {
			return nil, err
		}

		children := make([]Document, 0, len(docs))
		for _, doc := range docs {
			children = append(children, splitter.Split(doc)...)
		}

		return model.Values{out.Name: children}, nil
	})
}

// EmbedderStage attaches embeddings to every incoming document.
func EmbedderStage(embedder Embedder) pipeline.Stage {
	in := model.In[[]Document](PortDocuments)
	out := model.Out[[]Document](PortDocuments)

	return pipeline.NewStage([]model.Port{in}, []model.Port{out}, func(ctx context.Context, vals model.Values) (model.Values, error) {
		docs, err := model.Value[[]Document](vals, in)
		if err != nil {
			return nil, err
		}
		if len(docs) == 0 {
			return model.Values{out.Name: docs}, nil
		}

		texts := make([]string, len(docs))
		for i, doc := range docs {
			texts[i] = doc.Content
		}

		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			return nil, errors.Wrap(err, "unable to embed documents")
		}

		embedded := make([]Document, len(docs))
		for i, doc := range docs {
			doc.Embedding = vectors[i]
			embedded[i] = doc
		}

		return model.Values{out.Name: embedded}, nil
	})
}

// WriterStage writes incoming documents to the store and reports the count.
func WriterStage(store DocumentStore) pipeline.Stage {
	in := model.In[[]Document](PortDocuments)
	out := model.Out[int](PortWritten)

	return pipeline.NewStage([]model.Port{in}, []model.Port{out}, func(ctx context.Context, vals model.Values) (model.Values, error) {
		docs, err := model.Value[[]Document](vals, in)
		if err != nil {
			return nil, err
		}

		written, err := store.Write(ctx, docs)
		if err != nil {
			return nil, errors.Wrap(err, "unable to write documents")
		}

		return model.Values{out.Name: written}, nil
	})
}

// QueryEmbedStage embeds a query string into a vector.
func QueryEmbedStage(embedder Embedder) pipeline.Stage {
	in := model.In[string](PortQuery)
	out := model.Out[[]float32](PortEmbedding)

	return pipeline.NewStage([]model.Port{in}, []model.Port{out}, func(ctx context.Context, vals model.Values) (model.Values, error) {
		query, err := model.Value[string](vals, in)
		if err != nil {
			return nil, err
		}

		vector, err := embedder.EmbedQuery(ctx, query)
		if err != nil {
			return nil, errors.Wrap(err, "unable to embed query")
		}

		return model.Values{out.Name: vector}, nil
	})
}

// SearchStage searches the store with a pre-computed query embedding.
func SearchStage(store DocumentStore, opts SearchOptions) pipeline.Stage {
	in := model.In[[]float32](PortEmbedding)
	out := model.Out[[]Document](PortDocuments)

	return pipeline.NewStage([]model.Port{in}, []model.Port{out}, func(ctx context.Context, vals model.Values) (model.Values, error) {
		vector, err := model.Value[[]float32](vals, in)
		if err != nil {
			return nil, err
		}

		docs, err := store.Search(ctx, vector, opts)
		if err != nil {
			return nil, errors.Wrap(err, "unable to search store")
		}

		return model.Values{out.Name: docs}, nil
	})
}

// RetrieverStage retrieves documents for a query string.
func RetrieverStage(retriever Retriever, opts SearchOptions) pipeline.Stage {
	in := model.In[string](PortQuery)
	out := model.Out[[]Document](PortDocuments)

	return pipeline.NewStage([]model.Port{in}, []model.Port{out}, func(ctx context.Context, vals model.Values) (model.Values, error) {
		query, err := model.Value[string](vals, in)
		if err != nil {
			return nil, err
		}

		docs, err := retriever.Retrieve(ctx, query, opts)
		if err != nil {
			return nil, errors.Wrap(err, "unable to retrieve documents")
		}

		return model.Values{out.Name: docs}, nil
	})
}

// RankerStage fuses result lists from several retriever stages. Its results
// port collects one []Document per bound stage, so it is meant for pipelines
// assembled with collecting fan-in.
func RankerStage(topK int) pipeline.Stage {
	in := model.In[[][]Document](PortResults)
	out := model.Out[[]Document](PortDocuments)

	return pipeline.NewStage([]model.Port{in}, []model.Port{out}, func(_ context.Context, vals model.Values) (model.Values, error) {
		lists, err := model.Value[[][]Document](vals, in)
		if err != nil {
			return nil, err
		}

		return model.Values{out.Name: FuseRRF(topK, lists...)}, nil
	})
}

// PromptStage renders the query and retrieved documents into a prompt.
func PromptStage(builder *PromptBuilder) pipeline.Stage {
	query := model.In[string](PortQuery)
	docs := model.In[[]Document](PortDocuments)
	out := model.Out[string](PortPrompt)

	return pipeline.NewStage([]model.Port{query, docs}, []model.Port{out}, func(_ context.Context, vals model.Values) (model.Values, error) {
		q, err := model.Value[string](vals, query)
		if err != nil {
			return nil, err
		}
		d, err := model.Value[[]Document](vals, docs)
		if err != nil {
			return nil, err
		}

		prompt, err := builder.Build(q, d)
		if err != nil {
			return nil, err
		}

		return model.Values{out.Name: prompt}, nil
	})
}

// GeneratorStage produces an answer for the incoming prompt.
func GeneratorStage(generator Generator) pipeline.Stage {
	in := model.In[string](PortPrompt)
	out := model.Out[string](PortAnswer)

	return pipeline.NewStage([]model.Port{in}, []model.Port{out}, func(ctx context.Context, vals model.Values) (model.Values, error) {
		prompt, err := model.Value[string](vals, in)
		if err != nil {
			return nil, err
		}

		answer, err := generator.Generate(ctx, prompt)
		if err != nil {
			return nil, errors.Wrap(err, "unable to generate answer")
		}

		return model.Values{out.Name: answer}, nil
	})
}
