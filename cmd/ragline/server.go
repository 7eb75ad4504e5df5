package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ragline/ragline/internal/config"
	"github.com/ragline/ragline/pkg/assistant"
	"github.com/ragline/ragline/pkg/rag"
)

// server carries the components shared by the HTTP handlers. Pipelines are
// assembled per request; the components they wrap are safe to share.
type server struct {
	cfg       *config.Config
	store     rag.DocumentStore
	embedder  rag.Embedder
	retriever rag.Retriever
	builder   *rag.PromptBuilder
	generator rag.Generator
	assistant *assistant.Assistant
	log       *logrus.Logger
}

func (s *server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)
	r.POST("/index", s.handleIndex)
	r.POST("/query", s.handleQuery)
	if s.assistant != nil {
		r.POST("/assistant", s.handleAssistant)
	}

	return r
}

func (s *server) handleHealth(c *gin.Context) {
	count, err := s.store.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "documents": count})
}

type indexRequest struct {
	Content string `json:"content" binding:"required"`
	Source  string `json:"source"`
}

func (s *server) handleIndex(c *gin.Context) {
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc := rag.NewDocument(req.Content, req.Source)

	pipe, err := rag.NewIndexPipeline(
		rag.DocumentsStage([]rag.Document{doc}),
		rag.SentenceSplitter{},
		s.embedder,
		s.store,
	)
	if err != nil {
		s.log.WithError(err).Error("unable to build index pipeline")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	outputs, err := pipe.Run(c.Request.Context(), nil)
	if err != nil {
		s.log.WithError(err).Error("indexing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	written, err := rag.Written(outputs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"written": written, "document_id": doc.ID})
}

type queryRequest struct {
	Query string `json:"query" binding:"required"`
}

func (s *server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pipe, err := rag.NewQueryPipeline(s.retriever, searchOptions(s.cfg), s.builder, s.generator)
	if err != nil {
		s.log.WithError(err).Error("unable to build query pipeline")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	outputs, err := pipe.Run(c.Request.Context(), rag.QueryInputs(req.Query))
	if err != nil {
		s.log.WithError(err).Error("query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	answer, err := rag.Answer(outputs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	docs, err := rag.Retrieved(outputs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer, "documents": docs})
}

type askRequest struct {
	Query string `json:"query" binding:"required"`
}

func (s *server) handleAssistant(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answers, err := s.assistant.Ask(c.Request.Context(), req.Query)
	if err != nil {
		if errors.Is(err, assistant.ErrNoRoute) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		s.log.WithError(err).Error("assistant failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"answers": answers, "merged": assistant.Merge(answers)})
}
