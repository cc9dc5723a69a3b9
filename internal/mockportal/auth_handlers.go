package mockportal

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bizhub/portal-client/internal/config"
	"github.com/bizhub/portal-client/internal/models"
	"github.com/bizhub/portal-client/internal/sessions"
	"github.com/bizhub/portal-client/internal/tokens"
	"github.com/bizhub/portal-client/pkg/logger"
)

// LoginRequest is the password-grant login payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	dir         *Directory
	sessionsSvc *sessions.Service
}

func NewAuthHandler(cfg *config.Config, d *Directory, s *sessions.Service) *AuthHandler {
	return &AuthHandler{cfg: cfg, dir: d, sessionsSvc: s}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
	a.POST("/signup", h.Signup)
}

// Registerprotected mounts the routes that need a verified bearer token.
func (h *AuthHandler) RegisterProtected(rg *gin.RouterGroup) {
	rg.GET("/auth/me", h.Me)
}

func (h *AuthHandler) issuePair(c *gin.Context, u *models.User) (models.TokenPair, bool) {
	access, err := tokens.GenerateAccessToken(h.cfg.Mock.JWTSecret, u, h.cfg.Mock.AccessTokenTTL)
	if err != nil {
		logger.Errorf("mockportal: token mint failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return models.TokenPair{}, false
	}
	refresh, err := h.sessionsSvc.Issue(c.Request.Context(), u.ID, h.cfg.Mock.RefreshTokenTTL)
	if err != nil {
		logger.Errorf("mockportal: failed to create refresh session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return models.TokenPair{}, false
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, true
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u := h.dir.Authenticate(req.Username, req.Password)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}
	pair, ok := h.issuePair(c, u)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Refresh rotates the refresh token: the presented grant is deleted
// and a fresh pair issued. Unknown or expired grants get 401.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, fresh, err := h.sessionsSvc.Rotate(c.Request.Context(), req.RefreshToken, h.cfg.Mock.RefreshTokenTTL)
	if err != nil {
		logger.Errorf("mockportal: refresh rotation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	u := h.dir.UserByID(sess.UserID)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown session holder"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg.Mock.JWTSecret, u, h.cfg.Mock.AccessTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, models.TokenPair{AccessToken: access, RefreshToken: fresh})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		if err := h.sessionsSvc.Delete(c.Request.Context(), req.RefreshToken); err != nil {
			logger.Warnf("mockportal: logout session delete failed: %v", err)
		}
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.Signup
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u := models.User{Username: req.Username, Email: req.Email, Name: req.Name}
	created, err := h.dir.CreateUser(u, req.Password)
	if err != nil {
		if IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Me returns the profile of the verified bearer.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := c.Get("claims")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing claims"})
		return
	}
	cm, _ := claims.(map[string]interface{})
	sub, _ := cm["sub"].(string)
	u := h.dir.UserByID(sub)
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}
