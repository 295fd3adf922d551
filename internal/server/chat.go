package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"research-assistant/internal/domain"
	"research-assistant/internal/store"
)

type chatReq struct {
	Message string         `json:"message" binding:"required"`
	Papers  []domain.Paper `json:"papers"`
	// PaperRef pulls the stored analysis of a previously analyzed paper
	// into the conversation context.
	PaperRef int64                `json:"paper_ref"`
	History  []domain.ChatMessage `json:"history"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chatCtx := domain.ChatContext{Papers: req.Papers}
	if req.PaperRef != 0 {
		analysis, err := s.store.AnalysisByPaper(req.PaperRef)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			s.logger.WithError(err).Error("load analysis for chat")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "chat failed"})
			return
		}
		chatCtx.Analysis = analysis
		if len(chatCtx.Papers) == 0 {
			if paper, err := s.store.PaperByRowID(req.PaperRef); err == nil {
				chatCtx.Papers = []domain.Paper{*paper}
			}
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	reply, err := s.bot.Respond(ctx, req.Message, chatCtx, req.History)
	if err != nil {
		s.logger.WithError(err).Error("chat reply")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chat failed"})
		return
	}

	html, err := mdToHTML(reply)
	if err != nil {
		s.logger.WithError(err).Error("render chat reply")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chat failed"})
		return
	}

	if userID := currentUser(c); userID != 0 {
		subject := "research"
		if len(chatCtx.Papers) > 0 {
			subject = chatCtx.Papers[0].Title
		}
		s.profiles.RecordActivity(userID, domain.ActivityChat,
			"Chat: "+truncate(req.Message, 50),
			"Question about "+subject)
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply, "html": html})
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
