package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"research-assistant/internal/profile"
)

func (s *Server) handleProfile(c *gin.Context) {
	user, err := s.profiles.Profile(currentUser(c))
	if err != nil {
		s.logger.WithError(err).Error("load profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load profile failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type updateProfileReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Email == "" && req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	err := s.profiles.UpdateProfile(currentUser(c), profile.ProfileUpdates{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, profile.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
			return
		}
		s.logger.WithError(err).Error("update profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (s *Server) handleHistory(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	history, err := s.profiles.History(currentUser(c), limit)
	if err != nil {
		s.logger.WithError(err).Error("load history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load history failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history, "count": len(history)})
}
