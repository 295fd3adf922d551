package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"research-assistant/internal/profile"
)

const userIDKey = "userID"

// resolveUser reads the bearer token, when present, and attaches the user id
// to the request context. Anonymous requests pass through.
func (s *Server) resolveUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			if userID, valid := s.sessions.resolve(token); valid {
				c.Set(userIDKey, userID)
			}
		}
		c.Next()
	}
}

// requireUser aborts with 401 unless resolveUser found a valid session.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(userIDKey); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Next()
	}
}

// currentUser returns the authenticated user id, or 0 for anonymous.
func currentUser(c *gin.Context) int64 {
	if v, ok := c.Get(userIDKey); ok {
		return v.(int64)
	}
	return 0
}

type registerReq struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.profiles.Register(req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, profile.ErrUserExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "username or email already exists"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token := s.sessions.issue(user.ID)
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.profiles.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, profile.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		s.logger.WithError(err).Error("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	token := s.sessions.issue(user.ID)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (s *Server) handleLogout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		s.sessions.revoke(token)
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}
