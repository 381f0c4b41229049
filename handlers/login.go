package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/facilitydesk/facilitydesk/internal/tokens"
	"github.com/facilitydesk/facilitydesk/internal/workers"
	"github.com/facilitydesk/facilitydesk/pkg/logger"
	"github.com/facilitydesk/facilitydesk/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler authenticates workers against every institution's roster.
type LoginHandler struct {
	workers   *workers.Service
	jwtSecret string
	tokenTTL  time.Duration
}

// NewLoginHandler issues an accessToken with each successful login when
// jwtSecret is set.
func NewLoginHandler(w *workers.Service, jwtSecret string, ttl time.Duration) *LoginHandler {
	return &LoginHandler{workers: w, jwtSecret: jwtSecret, tokenTTL: ttl}
}

// Register mounts POST /login behind the given middlewares (rate limiting).
func (h *LoginHandler) Register(r gin.IRoutes, mw ...gin.HandlerFunc) {
	r.POST("/login", append(mw, h.Login)...)
}

func (h *LoginHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	id, err := h.workers.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, workers.ErrInvalidCredentials) {
			metrics.LoginAttempts.WithLabelValues("error").Inc()
			respondError(c, err)
			return
		}
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		logger.Infow("login rejected", "username", req.Username, "ip", c.ClientIP())
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	resp := gin.H{
		"success":       true,
		"name":          id.Name,
		"role":          id.Role,
		"institutionId": id.InstitutionID,
	}
	if h.jwtSecret != "" {
		token, err := tokens.GenerateAccessToken(h.jwtSecret, id, h.tokenTTL)
		if err != nil {
			respondError(c, err)
			return
		}
		resp["accessToken"] = token
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, resp)
}
