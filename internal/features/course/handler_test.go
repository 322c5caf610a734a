package course

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server-go/pkg/types"
)

// Table mirrors for the cross-feature queries the handler runs.
type lessonRow struct {
	types.BaseModel
	Title    string    `gorm:"type:varchar(200)"`
	VideoURL string    `gorm:"type:varchar(400);column:video_url"`
	CourseID uuid.UUID `gorm:"type:uuid;column:course_id"`
}

func (lessonRow) TableName() string { return "lessons" }

type subscriptionRow struct {
	types.BaseModel
	UserID   uuid.UUID `gorm:"type:uuid;column:user_id"`
	CourseID uuid.UUID `gorm:"type:uuid;column:course_id"`
}

func (subscriptionRow) TableName() string { return "course_subscriptions" }

type recordingNotifier struct {
	updated chan uuid.UUID
}

func (n *recordingNotifier) CourseUpdated(_ context.Context, courseID uuid.UUID) {
	n.updated <- courseID
}

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := setupDB(t)
	require.NoError(t, db.AutoMigrate(&lessonRow{}, &subscriptionRow{}))
	return db
}

func setupRouter(t *testing.T, db *gorm.DB, actorID uuid.UUID, role types.UserRole, notifier Notifier) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	authStub := func(c *gin.Context) {
		if actorID != uuid.Nil {
			c.Set("userId", actorID)
			c.Set("userRole", role)
		}
		c.Next()
	}

	handler := NewHandler(db, slog.New(slog.NewTextHandler(io.Discard, nil)), notifier)
	RegisterRoutes(router.Group("/api"), handler, authStub)
	return router
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetByIDVisibility(t *testing.T) {
	db := setupHandlerDB(t)
	ownerID := uuid.New()

	crs, err := Create(db, CreateInput{Title: "Hidden gem", Description: "d", OwnerID: ownerID})
	require.NoError(t, err)

	require.NoError(t, db.Create(&lessonRow{
		Title:    "Intro",
		VideoURL: "https://youtube.com/watch?v=abc",
		CourseID: crs.ID,
	}).Error)

	path := "/api/courses/" + crs.ID.String()

	// owner sees the course with lesson details
	rec := doRequest(setupRouter(t, db, ownerID, types.RoleMember, nil), http.MethodGet, path, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			LessonsCount int  `json:"lessonsCount"`
			IsSubscribed bool `json:"isSubscribed"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.LessonsCount)
	assert.False(t, envelope.Data.IsSubscribed)

	// other members get a not-found, not a forbidden
	rec = doRequest(setupRouter(t, db, uuid.New(), types.RoleMember, nil), http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// moderators see everything
	rec = doRequest(setupRouter(t, db, uuid.New(), types.RoleModerator, nil), http.MethodGet, path, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// unauthenticated requests are rejected outright
	rec = doRequest(setupRouter(t, db, uuid.Nil, types.RoleMember, nil), http.MethodGet, path, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListScoping(t *testing.T) {
	db := setupHandlerDB(t)
	alice := uuid.New()

	_, err := Create(db, CreateInput{Title: "Alice's", Description: "d", OwnerID: alice})
	require.NoError(t, err)
	_, err = Create(db, CreateInput{Title: "Bob's", Description: "d", OwnerID: uuid.New()})
	require.NoError(t, err)

	var envelope struct {
		Data []Course `json:"data"`
	}

	rec := doRequest(setupRouter(t, db, alice, types.RoleMember, nil), http.MethodGet, "/api/courses", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 1)

	rec = doRequest(setupRouter(t, db, uuid.New(), types.RoleModerator, nil), http.MethodGet, "/api/courses", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 2)
}

func TestUpdateNotifiesSubscribers(t *testing.T) {
	db := setupHandlerDB(t)
	ownerID := uuid.New()

	crs, err := Create(db, CreateInput{Title: "Original", Description: "d", OwnerID: ownerID})
	require.NoError(t, err)

	notifier := &recordingNotifier{updated: make(chan uuid.UUID, 1)}
	router := setupRouter(t, db, ownerID, types.RoleMember, notifier)

	rec := doRequest(router, http.MethodPut, "/api/courses/"+crs.ID.String(), `{"title": "Renamed"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case id := <-notifier.updated:
		assert.Equal(t, crs.ID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not invoked")
	}

	reloaded, err := Get(db, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", reloaded.Title)
}

func TestDeletePermissions(t *testing.T) {
	db := setupHandlerDB(t)
	ownerID := uuid.New()

	crs, err := Create(db, CreateInput{Title: "Doomed", Description: "d", OwnerID: ownerID})
	require.NoError(t, err)

	path := "/api/courses/" + crs.ID.String()

	// staff may read and edit but not delete
	rec := doRequest(setupRouter(t, db, uuid.New(), types.RoleModerator, nil), http.MethodDelete, path, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// other members never learn the course exists
	rec = doRequest(setupRouter(t, db, uuid.New(), types.RoleMember, nil), http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(setupRouter(t, db, ownerID, types.RoleMember, nil), http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err = Get(db, crs.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}
