package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"research-assistant/internal/domain"
	"research-assistant/internal/sources"
	"research-assistant/internal/store"
)

func (s *Server) handleSearch(c *gin.Context) {
	q := sources.Query{
		Text:   c.Query("query"),
		Source: c.Query("source"),
		SortBy: c.Query("sort"),
	}
	if q.Text == "" {
		q.Text = c.Query("q")
	}
	if v := c.Query("year_from"); v != "" {
		q.YearFrom, _ = strconv.Atoi(v)
	}
	if v := c.Query("year_to"); v != "" {
		q.YearTo, _ = strconv.Atoi(v)
	}
	if v := c.Query("limit"); v != "" {
		q.MaxResults, _ = strconv.Atoi(v)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	papers, err := s.aggregator.Search(ctx, q)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if userID := currentUser(c); userID != 0 {
		s.profiles.RecordActivity(userID, domain.ActivitySearch,
			"Search: "+q.Text,
			fmt.Sprintf("Found %d papers about %s", len(papers), q.Text))
	}

	c.JSON(http.StatusOK, gin.H{"papers": papers, "count": len(papers)})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var paper domain.Paper
	if err := c.ShouldBindJSON(&paper); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	analysis, err := s.analyzer.Analyze(ctx, paper)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Analyze already persisted the paper; look the row up for the ref.
	ref, err := s.store.AddPaper(paper)
	if err != nil {
		s.logger.WithError(err).Error("resolve paper ref")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	if userID := currentUser(c); userID != 0 {
		s.profiles.RecordActivity(userID, domain.ActivityAnalysis,
			"Analyzed: "+paper.Title,
			"Generated analysis of research paper")
	}

	c.JSON(http.StatusOK, gin.H{"paper_ref": ref, "analysis": analysis})
}

func (s *Server) handleAnalysisHTML(c *gin.Context) {
	ref, err := strconv.ParseInt(c.Param("ref"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paper ref"})
		return
	}

	analysis, err := s.store.AnalysisByPaper(ref)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
			return
		}
		s.logger.WithError(err).Error("load analysis")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load analysis failed"})
		return
	}

	paper, err := s.store.PaperByRowID(ref)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.WithError(err).Error("load paper")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load analysis failed"})
		return
	}

	html, err := mdToHTML(analysisMarkdown(paper, analysis))
	if err != nil {
		s.logger.WithError(err).Error("render analysis")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render failed"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (s *Server) handleSavePaper(c *gin.Context) {
	var paper domain.Paper
	if err := c.ShouldBindJSON(&paper); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if paper.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paper title is required"})
		return
	}

	userID := currentUser(c)
	if err := s.profiles.SavePaper(userID, paper); err != nil {
		s.logger.WithError(err).Error("save paper")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

func (s *Server) handleSavedPapers(c *gin.Context) {
	papers, err := s.profiles.SavedPapers(currentUser(c))
	if err != nil {
		s.logger.WithError(err).Error("list saved papers")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"papers": papers, "count": len(papers)})
}

func (s *Server) handleRemoveSavedPaper(c *gin.Context) {
	paperID := c.Param("id")
	if err := s.profiles.RemovePaper(currentUser(c), paperID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "paper not in collection"})
			return
		}
		s.logger.WithError(err).Error("remove saved paper")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "remove failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
