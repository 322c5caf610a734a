package auth

import (
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server-go/internal/features/user"
	"github.com/studyhub/studyhub-server-go/pkg/config"
	"github.com/studyhub/studyhub-server-go/pkg/email"
	"github.com/studyhub/studyhub-server-go/pkg/response"
)

// Handler processes authentication HTTP requests.
type Handler struct {
	db          *gorm.DB
	logger      *slog.Logger
	cfg         *config.Config
	emailClient *email.Client
}

// NewHandler constructs an auth handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, cfg *config.Config, emailClient *email.Client) *Handler {
	return &Handler{
		db:          db,
		logger:      logger,
		cfg:         cfg,
		emailClient: emailClient,
	}
}

// Register creates a new user account.
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid registration payload", err)
		return
	}

	newUser, err := Register(h.db, RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, err, "registration failed")
		return
	}

	// Send welcome email asynchronously
	if h.emailClient != nil {
		go func() {
			if err := h.emailClient.SendWelcome(newUser.Email, newUser.Username); err != nil {
				h.logger.Error("failed to send welcome email",
					slog.String("email", newUser.Email),
					slog.String("error", err.Error()))
			}
		}()
	}

	response.Created(c, newUser, "Registration successful")
}

// Login authenticates a user and returns JWT tokens.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid login payload", err)
		return
	}

	authResp, err := Login(h.db, LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, h.tokenConfig())
	if err != nil {
		h.respondError(c, err, "login failed")
		return
	}

	response.Success(c, http.StatusOK, authResp, "Login successful", nil)
}

// Refresh rotates an access/refresh token pair.
func (h *Handler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid refresh payload", err)
		return
	}

	pair, err := RefreshTokens(h.db, req.RefreshToken, h.tokenConfig())
	if err != nil {
		h.respondError(c, err, "token refresh failed")
		return
	}

	response.Success(c, http.StatusOK, pair, "", nil)
}

func (h *Handler) tokenConfig() TokenConfig {
	return TokenConfig{
		JWTSecret:          h.cfg.JWTSecret,
		JWTRefreshSecret:   h.cfg.JWTRefreshSecret,
		AccessTokenExpiry:  30 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrMissingFields):
		status = http.StatusBadRequest
		message = "Missing required fields."
	case errors.Is(err, ErrInvalidEmail):
		status = http.StatusBadRequest
		message = "Invalid email format."
	case errors.Is(err, user.ErrWeakPassword):
		status = http.StatusBadRequest
		message = "Password must be at least 6 characters long."
	case errors.Is(err, user.ErrEmailTaken):
		status = http.StatusConflict
		message = "Email already registered."
	case errors.Is(err, ErrInvalidCredentials):
		status = http.StatusUnauthorized
		message = "Invalid email or password."
	case errors.Is(err, ErrInactiveAccount):
		status = http.StatusUnauthorized
		message = "Account is deactivated."
	case errors.Is(err, ErrInvalidToken):
		status = http.StatusUnauthorized
		message = "Invalid or expired token."
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
