package lesson

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server-go/internal/access"
	"github.com/studyhub/studyhub-server-go/internal/features/course"
	"github.com/studyhub/studyhub-server-go/pkg/pagination"
	"github.com/studyhub/studyhub-server-go/pkg/request"
	"github.com/studyhub/studyhub-server-go/pkg/response"
)

// Handler processes lesson HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a lesson handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{
		db:     db,
		logger: logger,
	}
}

// List returns paginated lessons scoped to the actor, with an optional
// course filter.
func (h *Handler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	params := pagination.Extract(c)

	filters := ListFilters{}
	if !access.SeesEverything(actor) {
		ownerID := actor.ID
		filters.OwnerID = &ownerID
	}

	if raw := c.Query("course_id"); raw != "" {
		courseID, err := uuid.Parse(raw)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course_id filter", err)
			return
		}
		filters.CourseID = &courseID
	}

	lessons, total, err := List(h.db, filters, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list lessons", err)
		return
	}

	response.Success(c, http.StatusOK, lessons, "", pagination.MetadataFrom(total, params))
}

// Create inserts a new lesson owned by the actor.
func (h *Handler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if h.denied(c, access.CanCreate(actor)) {
		return
	}

	var req struct {
		Title        string    `json:"title" binding:"required"`
		Description  string    `json:"description"`
		PreviewImage *string   `json:"previewImage"`
		VideoURL     string    `json:"videoUrl" binding:"required"`
		CourseID     uuid.UUID `json:"courseId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson payload", err)
		return
	}

	lsn, err := Create(h.db, CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		PreviewImage: req.PreviewImage,
		VideoURL:     req.VideoURL,
		CourseID:     req.CourseID,
		OwnerID:      actor.ID,
	})
	if err != nil {
		h.respondError(c, err, "failed to create lesson")
		return
	}

	response.Created(c, lsn, "")
}

// GetByID fetches a single lesson.
func (h *Handler) GetByID(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("lessonId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson id", err)
		return
	}

	lsn, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load lesson")
		return
	}

	if h.denied(c, access.CanView(actor, lsn.OwnerID)) {
		return
	}

	response.Success(c, http.StatusOK, lsn, "", nil)
}

// Update modifies an existing lesson.
func (h *Handler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("lessonId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson id", err)
		return
	}

	lsn, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load lesson")
		return
	}

	if h.denied(c, access.CanUpdate(actor, lsn.OwnerID)) {
		return
	}

	body := map[string]interface{}{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson payload", err)
		return
	}

	input := UpdateInput{}

	if value, ok := body["title"]; ok {
		str, err := request.ReadString(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "title must be a string", err)
			return
		}
		input.Title = &str
	}

	if value, ok := body["description"]; ok {
		str, err := request.ReadString(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "description must be a string", err)
			return
		}
		input.Description = &str
	}

	if value, ok := body["previewImage"]; ok {
		input.PreviewProvided = true
		if value != nil {
			str, err := request.ReadString(value)
			if err != nil {
				response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "previewImage must be a string", err)
				return
			}
			input.PreviewImage = &str
		}
	}

	if value, ok := body["videoUrl"]; ok {
		str, err := request.ReadString(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "videoUrl must be a string", err)
			return
		}
		input.VideoURL = &str
	}

	if value, ok := body["courseId"]; ok {
		str, err := request.ReadString(value)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "courseId must be a string", err)
			return
		}
		courseID, err := uuid.Parse(str)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid courseId", err)
			return
		}
		input.CourseID = &courseID
	}

	updated, err := Update(h.db, id, input)
	if err != nil {
		h.respondError(c, err, "failed to update lesson")
		return
	}

	response.Success(c, http.StatusOK, updated, "", nil)
}

// Delete removes a lesson. Only the owner may delete.
func (h *Handler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("lessonId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson id", err)
		return
	}

	lsn, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load lesson")
		return
	}

	if h.denied(c, access.CanDelete(actor, lsn.OwnerID)) {
		return
	}

	if err := Delete(h.db, id); err != nil {
		h.respondError(c, err, "failed to delete lesson")
		return
	}

	response.NoContent(c, "Lesson deleted.")
}

func (h *Handler) actor(c *gin.Context) (access.Actor, bool) {
	actor, ok := access.FromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required.", nil)
		return access.Anonymous(), false
	}
	return actor, true
}

func (h *Handler) denied(c *gin.Context, decision access.Decision) bool {
	switch decision {
	case access.Allow:
		return false
	case access.DenyUnauthenticated:
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required.", nil)
	case access.DenyForbidden:
		response.ErrorWithLog(h.logger, c, http.StatusForbidden, "Access denied.", nil)
	default:
		response.ErrorWithLog(h.logger, c, http.StatusNotFound, "Lesson not found.", nil)
	}
	return true
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrLessonNotFound):
		status = http.StatusNotFound
		message = "Lesson not found."
	case errors.Is(err, ErrTitleRequired):
		status = http.StatusBadRequest
		message = "Lesson title is required."
	case errors.Is(err, ErrInvalidVideoURL):
		status = http.StatusBadRequest
		message = "Video URL must point to youtube.com."
	case errors.Is(err, course.ErrCourseNotFound):
		status = http.StatusNotFound
		message = "Course not found."
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
