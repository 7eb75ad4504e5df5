// Package qdrant implements a document store on the qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ragline/ragline/pkg/rag"
)

// Store keeps documents as qdrant points. Content and lineage travel in the
// point payload; the embedding is the point vector.
type Store struct {
	cfg        Config
	httpClient *http.Client
	log        *logrus.Logger
}

// New returns a store over the configured collection. A nil logger falls
// back to a fresh one.
func New(cfg Config, log *logrus.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	if log == nil {
		log = logrus.New()
	}

	return &Store{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}, nil
}

// HealthCheck verifies the server answers on its root endpoint.
func (s *Store) HealthCheck(ctx context.Context) error {
	if _, err := s.doRequest(ctx, http.MethodGet, "/", nil); err != nil {
		return errors.Wrap(err, "qdrant unhealthy")
	}

	return nil
}

// EnsureCollection creates the configured collection when it does not exist.
func (s *Store) EnsureCollection(ctx context.Context) error {
	if _, err := s.doRequest(ctx, http.MethodGet, "/collections/"+s.cfg.Collection, nil); err == nil {
		return nil
	}

	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     s.cfg.VectorSize,
			"distance": string(s.cfg.Distance),
		},
	}

	if _, err := s.doRequest(ctx, http.MethodPut, "/collections/"+s.cfg.Collection, body); err != nil {
		return errors.Wrapf(err, "unable to create collection %q", s.cfg.Collection)
	}

	s.log.WithField("collection", s.cfg.Collection).Info("collection created")

	return nil
}

func (s *Store) Write(ctx context.Context, docs []rag.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	points := make([]point, len(docs))
	for i, doc := range docs {
		points[i] = point{
			ID:      doc.ID,
			Vector:  doc.Embedding,
			Payload: payloadFromDocument(doc),
		}
	}

	body := map[string]interface{}{"points": points}

	path := "/collections/" + s.cfg.Collection + "/points?wait=true"
	if _, err := s.doRequest(ctx, http.MethodPut, path, body); err != nil {
		return 0, errors.Wrap(err, "unable to upsert points")
	}

	s.log.WithFields(logrus.Fields{
		"collection": s.cfg.Collection,
		"count":      len(points),
	}).Debug("points upserted")

	return len(points), nil
}

func (s *Store) Search(ctx context.Context, vector []float32, opts rag.SearchOptions) ([]rag.Document, error) {
	limit := opts.TopK
	if limit <= 0 {
		limit = rag.DefaultSearchOptions().TopK
	}

	body := map[string]interface{}{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}
	if opts.MinScore > 0 {
		body["score_threshold"] = opts.MinScore
	}
	if len(opts.Filter) > 0 {
		body["filter"] = metadataFilter(opts.Filter)
	}

	respBody, err := s.doRequest(ctx, http.MethodPost, "/collections/"+s.cfg.Collection+"/points/search", body)
	if err != nil {
		return nil, errors.Wrap(err, "unable to search points")
	}

	var response struct {
		Result []scoredPoint `json:"result"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, errors.Wrap(err, "unable to parse search response")
	}

	docs := make([]rag.Document, len(response.Result))
	for i, p := range response.Result {
		docs[i] = documentFromPoint(p.ID, float64(p.Score), p.Vector, p.Payload)
	}

	return docs, nil
}

// SearchKeyword scrolls up to KeywordScanLimit points and scores them by term
// overlap on the client.
func (s *Store) SearchKeyword(ctx context.Context, query string, opts rag.SearchOptions) ([]rag.Document, error) {
	scanned, err := s.scroll(ctx, s.cfg.KeywordScanLimit, opts.Filter)
	if err != nil {
		return nil, err
	}

	tokens := rag.Tokenize(query)

	matches := make([]rag.Document, 0, len(scanned))
	for _, doc := range scanned {
		doc.Score = rag.KeywordScore(doc.Content, tokens)
		if doc.Score < opts.MinScore {
			continue
		}
		matches = append(matches, doc)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if opts.TopK > 0 && opts.TopK < len(matches) {
		matches = matches[:opts.TopK]
	}

	return matches, nil
}

// List scrolls documents from the collection in point order, up to limit
// (KeywordScanLimit when limit is not positive).
func (s *Store) List(ctx context.Context, limit int) ([]rag.Document, error) {
	if limit <= 0 {
		limit = s.cfg.KeywordScanLimit
	}

	return s.scroll(ctx, limit, nil)
}

func (s *Store) scroll(ctx context.Context, limit int, filter map[string]interface{}) ([]rag.Document, error) {
	body := map[string]interface{}{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}
	if len(filter) > 0 {
		body["filter"] = metadataFilter(filter)
	}

	respBody, err := s.doRequest(ctx, http.MethodPost, "/collections/"+s.cfg.Collection+"/points/scroll", body)
	if err != nil {
		return nil, errors.Wrap(err, "unable to scroll points")
	}

	var response struct {
		Result struct {
			Points []scoredPoint `json:"points"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, errors.Wrap(err, "unable to parse scroll response")
	}

	docs := make([]rag.Document, len(response.Result.Points))
	for i, p := range response.Result.Points {
		docs[i] = documentFromPoint(p.ID, 0, p.Vector, p.Payload)
	}

	return docs, nil
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	body := map[string]interface{}{"points": ids}

	path := "/collections/" + s.cfg.Collection + "/points/delete?wait=true"
	if _, err := s.doRequest(ctx, http.MethodPost, path, body); err != nil {
		return errors.Wrap(err, "unable to delete points")
	}

	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	body := map[string]interface{}{"exact": true}

	respBody, err := s.doRequest(ctx, http.MethodPost, "/collections/"+s.cfg.Collection+"/points/count", body)
	if err != nil {
		return 0, errors.Wrap(err, "unable to count points")
	}

	var response struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return 0, errors.Wrap(err, "unable to parse count response")
	}

	return response.Result.Count, nil
}

func (s *Store) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "unable to marshal request body")
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("api-key", s.cfg.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request %s %s failed", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errors.Errorf("%s %s returned status %d: %s", method, path, resp.StatusCode, respBody)
	}

	return respBody, nil
}

type point struct {
	ID      string                 `json:"id"`
	Vector  []float32              `json:"vector"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

type scoredPoint struct {
	ID      string                 `json:"id"`
	Score   float32                `json:"score"`
	Vector  []float32              `json:"vector,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

func payloadFromDocument(doc rag.Document) map[string]interface{} {
	payload := map[string]interface{}{"content": doc.Content}

	if doc.Source != "" {
		payload["source"] = doc.Source
	}
	if doc.ParentID != "" {
		payload["parent_id"] = doc.ParentID
	}
	if doc.Index != 0 {
		payload["index"] = doc.Index
	}
	if len(doc.Metadata) > 0 {
		payload["metadata"] = doc.Metadata
	}
	if !doc.CreatedAt.IsZero() {
		payload["created_at"] = doc.CreatedAt.Format(time.RFC3339Nano)
	}

	return payload
}

func documentFromPoint(id string, score float64, vector []float32, payload map[string]interface{}) rag.Document {
	doc := rag.Document{ID: id, Score: score, Embedding: vector}

	if v, ok := payload["content"].(string); ok {
		doc.Content = v
	}
	if v, ok := payload["source"].(string); ok {
		doc.Source = v
	}
	if v, ok := payload["parent_id"].(string); ok {
		doc.ParentID = v
	}
	if v, ok := payload["index"].(float64); ok {
		doc.Index = int(v)
	}
	if v, ok := payload["metadata"].(map[string]interface{}); ok {
		doc.Metadata = v
	}
	if v, ok := payload["created_at"].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			doc.CreatedAt = ts
		}
	}

	return doc
}

// metadataFilter maps document metadata constraints onto a qdrant must
// filter. Keys are sorted so request bodies stay deterministic.
func metadataFilter(filter map[string]interface{}) map[string]interface{} {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	must := make([]map[string]interface{}, 0, len(keys))
	for _, k := range keys {
		must = append(must, map[string]interface{}{
			"key":   "metadata." + k,
			"match": map[string]interface{}{"value": filter[k]},
		})
	}

	return map[string]interface{}{"must": must}
}

var _ rag.DocumentStore = (*Store)(nil)
