package course

import (
	"context"
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server-go/internal/access"
	"github.com/studyhub/studyhub-server-go/pkg/pagination"
	"github.com/studyhub/studyhub-server-go/pkg/request"
	"github.com/studyhub/studyhub-server-go/pkg/response"
)

// Notifier dispatches subscriber notifications after a course changes.
type Notifier interface {
	CourseUpdated(ctx context.Context, courseID uuid.UUID)
}

// Handler processes course HTTP requests.
type Handler struct {
	db       *gorm.DB
	logger   *slog.Logger
	notifier Notifier
}

// NewHandler constructs a course handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, notifier Notifier) *Handler {
	return &Handler{
		db:       db,
		logger:   logger,
		notifier: notifier,
	}
}

type lessonSummary struct {
	ID       uuid.UUID `json:"id"`
	CourseID uuid.UUID `json:"courseId"`
	Title    string    `json:"title"`
	VideoURL string    `json:"videoUrl"`
}

func (lessonSummary) TableName() string {
	return "lessons"
}

type courseDetail struct {
	Course
	Lessons      []lessonSummary `json:"lessons"`
	LessonsCount int             `json:"lessonsCount"`
	IsSubscribed bool            `json:"isSubscribed"`
}

// List returns paginated courses scoped to the actor: staff see all,
// members see only what they own.
func (h *Handler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	params := pagination.Extract(c)

	filters := ListFilters{Keyword: c.Query("filterKeyword")}
	if !access.SeesEverything(actor) {
		ownerID := actor.ID
		filters.OwnerID = &ownerID
	}

	courses, total, err := List(h.db, filters, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list courses", err)
		return
	}

	response.Success(c, http.StatusOK, courses, "", pagination.MetadataFrom(total, params))
}

// Create inserts a new course owned by the actor.
func (h *Handler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if h.denied(c, access.CanCreate(actor)) {
		return
	}

	var req struct {
		Title        string  `json:"title" binding:"required"`
		Description  string  `json:"description"`
		PreviewImage *string `json:"previewImage"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course payload", err)
		return
	}

	crs, err := Create(h.db, CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		PreviewImage: req.PreviewImage,
		OwnerID:      actor.ID,
	})
	if err != nil {
		h.respondError(c, err, "failed to create course")
		return
	}

	response.Created(c, crs, "")
}

// GetByID fetches a single course with its lessons and subscription state.
func (h *Handler) GetByID(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	crs, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load course")
		return
	}

	if h.denied(c, access.CanView(actor, crs.OwnerID)) {
		return
	}

	lessons := make([]lessonSummary, 0)
	if err := h.db.Model(&lessonSummary{}).
		Select("id", "course_id", "title", "video_url").
		Where("course_id = ?", id).
		Order("created_at ASC").
		Find(&lessons).Error; err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load lessons", err)
		return
	}

	var subscribed int64
	if err := h.db.Table("course_subscriptions").
		Where("user_id = ? AND course_id = ?", actor.ID, id).
		Count(&subscribed).Error; err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load subscription state", err)
		return
	}

	response.Success(c, http.StatusOK, courseDetail{
		Course:       crs,
		Lessons:      lessons,
		LessonsCount: len(lessons),
		IsSubscribed: subscribed > 0,
	}, "", nil)
}

// Update modifies a course and kicks off subscriber notification.
func (h *Handler) Update(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	crs, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load course")
		return
	}

	if h.denied(c, access.CanUpdate(actor, crs.OwnerID)) {
		return
	}

	body := map[string]interface{}{}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course payload", err)
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

	updated, err := Update(h.db, id, input)
	if err != nil {
		h.respondError(c, err, "failed to update course")
		return
	}

	// Fire-and-forget: the response never waits on mail delivery.
	if h.notifier != nil {
		go h.notifier.CourseUpdated(context.Background(), updated.ID)
	}

	response.Success(c, http.StatusOK, updated, "", nil)
}

// Delete removes a course. Only the owner may delete.
func (h *Handler) Delete(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	crs, err := Get(h.db, id)
	if err != nil {
		h.respondError(c, err, "failed to load course")
		return
	}

	if h.denied(c, access.CanDelete(actor, crs.OwnerID)) {
		return
	}

	if err := Delete(h.db, id); err != nil {
		h.respondError(c, err, "failed to delete course")
		return
	}

	response.NoContent(c, "Course deleted.")
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
		response.ErrorWithLog(h.logger, c, http.StatusNotFound, "Course not found.", nil)
	}
	return true
}

func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	message := fallback

	switch {
	case errors.Is(err, ErrCourseNotFound):
		status = http.StatusNotFound
		message = "Course not found."
	case errors.Is(err, ErrTitleRequired):
		status = http.StatusBadRequest
		message = "Course title is required."
	}

	response.ErrorWithLog(h.logger, c, status, message, err)
}
