// Package server exposes the research assistant over HTTP.
package server

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"research-assistant/internal/assistant"
	"research-assistant/internal/profile"
	"research-assistant/internal/sources"
	"research-assistant/internal/store"
)

// trendingTopics is the static suggestion list shown on the landing view.
var trendingTopics = []string{
	"Machine Learning", "Quantum Computing",
	"Climate Science", "Genomics",
	"Renewable Energy", "Artificial Intelligence",
}

// Server wires the HTTP handlers to the application services.
type Server struct {
	aggregator *sources.Aggregator
	analyzer   *assistant.Analyzer
	bot        *assistant.ChatBot
	profiles   *profile.Manager
	store      *store.Store
	sessions   *sessionStore
	logger     *logrus.Logger
	timeout    time.Duration
}

// Options collects the server dependencies.
type Options struct {
	Aggregator *sources.Aggregator
	Analyzer   *assistant.Analyzer
	ChatBot    *assistant.ChatBot
	Profiles   *profile.Manager
	Store      *store.Store
	Logger     *logrus.Logger
	// RequestTimeout bounds search, analysis, and chat handlers.
	RequestTimeout time.Duration
	// TokenTTL is the session token lifetime.
	TokenTTL time.Duration
}

// New validates the options and builds a Server.
func New(opts Options) (*Server, error) {
	if opts.Aggregator == nil {
		return nil, errors.New("aggregator is required")
	}
	if opts.Analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if opts.ChatBot == nil {
		return nil, errors.New("chat bot is required")
	}
	if opts.Profiles == nil {
		return nil, errors.New("profile manager is required")
	}
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}

	return &Server{
		aggregator: opts.Aggregator,
		analyzer:   opts.Analyzer,
		bot:        opts.ChatBot,
		profiles:   opts.Profiles,
		store:      opts.Store,
		sessions:   newSessionStore(opts.TokenTTL),
		logger:     opts.Logger,
		timeout:    opts.RequestTimeout,
	}, nil
}

// Routes builds the gin engine with all endpoints registered.
func (s *Server) Routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(s.resolveUser())
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", s.handleRegister)
			auth.POST("/login", s.handleLogin)
			auth.POST("/logout", s.requireUser(), s.handleLogout)
		}

		papers := api.Group("/papers")
		{
			papers.GET("/search", s.handleSearch)
			papers.POST("/analyze", s.handleAnalyze)
			papers.GET("/analysis/:ref/html", s.handleAnalysisHTML)
			papers.POST("/save", s.requireUser(), s.handleSavePaper)
			papers.GET("/saved", s.requireUser(), s.handleSavedPapers)
			papers.DELETE("/saved/:id", s.requireUser(), s.handleRemoveSavedPaper)
		}

		api.POST("/chat", s.handleChat)
		api.GET("/trending", s.handleTrending)

		api.GET("/profile", s.requireUser(), s.handleProfile)
		api.PUT("/profile", s.requireUser(), s.handleUpdateProfile)
		api.GET("/history", s.requireUser(), s.handleHistory)
	}

	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Info("request")
	}
}

func (s *Server) handleTrending(c *gin.Context) {
	c.JSON(200, gin.H{"topics": trendingTopics})
}
