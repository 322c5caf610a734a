package user

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server-go/pkg/request"
	"github.com/studyhub/studyhub-server-go/pkg/response"
)

// Handler processes profile HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a user handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{
		db:     db,
		logger: logger,
	}
}

// Profile returns the authenticated user's profile with payment history.
func (h *Handler) Profile(c *gin.Context) {
	usr, ok := currentUser(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required.", nil)
		return
	}

	full, err := GetWithPayments(h.db, usr.ID)
	if err != nil {
		h.respondError(c, err, "failed to load profile")
		return
	}

	response.Success(c, http.StatusOK, full, "", nil)
}

// UpdateProfile edits the authenticated user's own profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	usr, ok := currentUser(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required.", nil)
		return
	}

	body := map[string]interface{}{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid profile payload", err)
		return
	}

	input := ProfileUpdateInput{}

	if value, ok := body["username"]; ok {
		str, err := request.ReadString(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "username must be a string", err)
			return
		}
		input.Username = &str
	}

	if value, ok := body["phone"]; ok {
		input.PhoneProvided = true
		if value != nil {
			str, err := request.ReadString(value)
			if err != nil {
				response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "phone must be a string", err)
				return
			}
			input.Phone = &str
		}
	}

	if value, ok := body["city"]; ok {
		input.CityProvided = true
		if value != nil {
			str, err := request.ReadString(value)
			if err != nil {
				response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "city must be a string", err)
				return
			}
			input.City = &str
		}
	}

	if value, ok := body["avatar"]; ok {
		input.AvatarProvided = true
		if value != nil {
			str, err := request.ReadString(value)
			if err != nil {
				response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "avatar must be a string", err)
				return
			}
			input.Avatar = &str
		}
	}

	if value, ok := body["password"]; ok {
		str, err := request.ReadString(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "password must be a string", err)
			return
		}
		input.Password = &str
	}

	updated, err := UpdateProfile(h.db, usr.ID, input)
	if err != nil {
		h.respondError(c, err, "failed to update profile")
		return
	}

	response.Success(c, http.StatusOK, updated, "Profile updated.", nil)
}

// currentUser pulls the authenticated user the auth middleware stored.
// Duplicated from pkg/middleware to keep this package free of that
// import cycle (the middleware loads this package's User).
func currentUser(c *gin.Context) (*User, bool) {
	userVal, exists := c.Get("user")
	if !exists {
		return nil, false
	}

	if usr, ok := userVal.(*User); ok && usr != nil {
		return usr, true
	}

	if usr, ok := userVal.(User); ok {
		return &usr, true
	}

	return nil, false
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrUserNotFound):
		status = http.StatusNotFound
		message = "User not found."
	case errors.Is(err, ErrMissingFields):
		status = http.StatusBadRequest
		message = "Missing required fields."
	case errors.Is(err, ErrWeakPassword):
		status = http.StatusBadRequest
		message = "Password must be at least 6 characters long."
	case errors.Is(err, ErrEmailTaken):
		status = http.StatusConflict
		message = "Email already registered."
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
