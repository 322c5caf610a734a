package coursesub

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server-go/internal/access"
	"github.com/studyhub/studyhub-server-go/internal/features/course"
	"github.com/studyhub/studyhub-server-go/pkg/response"
)

// Handler processes subscription toggle requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a subscription handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{
		db:     db,
		logger: logger,
	}
}

// Toggle subscribes the actor to a course, or unsubscribes when a
// subscription already exists.
func (h *Handler) Toggle(c *gin.Context) {
	actor, ok := access.FromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required.", nil)
		return
	}

	var req struct {
		CourseID *uuid.UUID `json:"course_id"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid subscription payload", err)
		return
	}

	if req.CourseID == nil || *req.CourseID == uuid.Nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "course_id is required", nil)
		return
	}

	added, err := Toggle(h.db, actor.ID, *req.CourseID)
	if err != nil {
		if errors.Is(err, course.ErrCourseNotFound) {
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "Course not found.", err)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to toggle subscription", err)
		return
	}

	message := "Subscription removed"
	if added {
		message = "Subscription added"
	}

	response.Success(c, http.StatusOK, gin.H{"subscribed": added}, message, nil)
}
