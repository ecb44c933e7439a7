// Package api exposes the backtest service over HTTP.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backtest-service/services/backtest"
	"backtest-service/services/engine"
	"backtest-service/services/scheduler"
	"backtest-service/services/strategies"
)

// Server wires the HTTP routes to the scheduler. Handlers stay thin: bind,
// call, encode.
type Server struct {
	sched  *scheduler.Scheduler
	eng    *engine.Engine
	logger *zap.Logger
}

func NewServer(sched *scheduler.Scheduler, eng *engine.Engine, logger *zap.Logger) *Server {
	return &Server{sched: sched, eng: eng, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	v1 := r.Group("/api/v1")
	{
		v1.POST("/backtest", s.submitBacktest)
		v1.GET("/backtest/:id", s.getBacktest)
		v1.DELETE("/backtest/:id", s.cancelBacktest)
		v1.GET("/strategies", s.listStrategies)
		v1.GET("/health", s.health)
	}

	return r
}

func (s *Server) submitBacktest(c *gin.Context) {
	var req backtest.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Validate strategy up front so bad requests fail at submit, not in a
	// worker.
	if _, err := strategies.Validate(req.Strategy.Name, req.Strategy.Parameters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := s.sched.Submit(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": id,
		"status": scheduler.StatusPending,
	})
}

func (s *Server) getBacktest(c *gin.Context) {
	job, err := s.sched.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, scheduler.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// The stored request is an internal detail.
	job.Request = nil
	c.JSON(http.StatusOK, job)
}

func (s *Server) cancelBacktest(c *gin.Context) {
	err := s.sched.Cancel(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": scheduler.StatusCancelled})
	case errors.Is(err, scheduler.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
	case errors.Is(err, scheduler.ErrNotCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": "job is not pending"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) listStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": strategies.Catalog()})
}

func (s *Server) health(c *gin.Context) {
	queued, active := s.sched.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"device_available": s.eng.DeviceAvailable(),
		"queued_jobs":      queued,
		"active_jobs":      active,
	})
}

// requestLogger logs each request with latency and status.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
