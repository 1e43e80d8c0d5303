// Package api exposes the runner and the job store over HTTP.
package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/database"
	"go-lancers-scout/internal/filter"
	"go-lancers-scout/internal/models"
	"go-lancers-scout/internal/priority"
	"go-lancers-scout/internal/runner"
	"go-lancers-scout/internal/taxonomy"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const defaultRankedTop = 20

type Server struct {
	runner   *runner.Runner
	store    database.Store
	analyzer *priority.Analyzer
}

func NewServer(r *runner.Runner, store database.Store, analyzer *priority.Analyzer) *Server {
	return &Server{runner: r, store: store, analyzer: analyzer}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Lancers Scout API is running!",
			"status":  "healthy",
		})
	})

	api := r.Group("/api")
	{
		scraper := api.Group("/scraper")
		scraper.GET("/status", s.status)
		scraper.POST("/start", s.start)
		scraper.POST("/cancel", s.cancel)
		scraper.GET("/history", s.history)
		scraper.GET("/stats", s.stats)
		scraper.POST("/cleanup", s.cleanup)

		api.GET("/jobs", s.listJobs)
		api.DELETE("/jobs", s.deleteJobs)
		api.GET("/jobs/ranked", s.rankedJobs)
		api.GET("/jobs/:id", s.getJob)

		api.GET("/categories", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"categories": taxonomy.Flat()})
		})
		api.GET("/job-types", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"job_types": []models.JobType{
				models.JobTypeProject, models.JobTypeTask, models.JobTypeCompetition,
			}})
		})
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("http request")
	}
}

// writeError maps application errors to HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, runner.ErrAlreadyRunning):
		status = http.StatusConflict
	default:
		switch apperr.CodeOf(err) {
		case apperr.CodeInvalidArgument:
			status = http.StatusBadRequest
		case apperr.CodeNetwork, apperr.CodeScraping, apperr.CodeAPI:
			status = http.StatusBadGateway
		case apperr.CodeAuth:
			status = http.StatusUnauthorized
		}
	}
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("❌ Request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.runner.Progress())
}

func (s *Server) start(c *gin.Context) {
	var req runner.Request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if unknown := taxonomy.Unknown(req.Categories); len(unknown) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown categories: " + strings.Join(unknown, ", ")})
		return
	}
	if err := s.runner.Start(c.Request.Context(), req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "scrape started", "progress": s.runner.Progress()})
}

func (s *Server) cancel(c *gin.Context) {
	if !s.runner.Cancel() {
		c.JSON(http.StatusConflict, gin.H{"error": "no scrape is running"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cancel requested"})
}

func (s *Server) history(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"history": s.runner.History()})
}

func (s *Server) stats(c *gin.Context) {
	stats, err := s.store.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) cleanup(c *gin.Context) {
	n, err := s.store.CleanupExpired(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func bindCriteria(c *gin.Context) (filter.Criteria, bool) {
	var criteria filter.Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return criteria, false
	}
	if criteria.Category != "" && !criteria.Category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category: " + string(criteria.Category)})
		return criteria, false
	}
	return criteria, true
}

func (s *Server) listJobs(c *gin.Context) {
	criteria, ok := bindCriteria(c)
	if !ok {
		return
	}
	jobs, err := s.store.Query(c.Request.Context(), criteria)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

func (s *Server) rankedJobs(c *gin.Context) {
	criteria, ok := bindCriteria(c)
	if !ok {
		return
	}
	top := defaultRankedTop
	if v := c.Query("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top must be a positive integer"})
			return
		}
		top = n
	}

	jobs, err := s.store.Query(c.Request.Context(), criteria)
	if err != nil {
		writeError(c, err)
		return
	}
	ranked := s.analyzer.Rank(jobs)
	if len(ranked) > top {
		ranked = ranked[:top]
	}
	c.JSON(http.StatusOK, gin.H{"jobs": ranked, "count": len(ranked)})
}

func (s *Server) getJob(c *gin.Context) {
	job, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// deleteJobs refuses an unfiltered delete unless all=true is given.
func (s *Server) deleteJobs(c *gin.Context) {
	criteria, ok := bindCriteria(c)
	if !ok {
		return
	}
	unfiltered := criteria.Category == "" && criteria.Status == "" && criteria.Source == "" && len(criteria.JobTypes) == 0
	if unfiltered && c.Query("all") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refusing to delete every job without all=true"})
		return
	}
	n, err := s.store.Delete(c.Request.Context(), criteria)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
