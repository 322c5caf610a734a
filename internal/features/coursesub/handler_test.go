package coursesub

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server-go/internal/features/course"
	"github.com/studyhub/studyhub-server-go/internal/features/user"
	"github.com/studyhub/studyhub-server-go/pkg/types"
)

func setupRouter(t *testing.T, db *gorm.DB, actorID uuid.UUID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	authStub := func(c *gin.Context) {
		c.Set("userId", actorID)
		c.Set("userRole", types.RoleMember)
		c.Next()
	}

	handler := NewHandler(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	RegisterRoutes(router.Group("/api"), handler, authStub)
	return router
}

func postToggle(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestToggleEndpoint(t *testing.T) {
	db := setupDB(t)

	usr, err := user.Create(db, user.CreateInput{
		Email:    "member@example.com",
		Username: "member",
		Password: "secret1",
	})
	require.NoError(t, err)

	crs, err := course.Create(db, course.CreateInput{Title: "Followed", Description: "d", OwnerID: uuid.New()})
	require.NoError(t, err)

	router := setupRouter(t, db, usr.ID)
	body := fmt.Sprintf(`{"course_id": %q}`, crs.ID)

	rec := postToggle(router, body)
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    struct {
			Subscribed bool `json:"subscribed"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "Subscription added", envelope.Message)
	assert.True(t, envelope.Data.Subscribed)

	rec = postToggle(router, body)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Subscription removed", envelope.Message)
	assert.False(t, envelope.Data.Subscribed)
}

func TestToggleEndpointValidation(t *testing.T) {
	db := setupDB(t)

	usr, err := user.Create(db, user.CreateInput{
		Email:    "member@example.com",
		Username: "member",
		Password: "secret1",
	})
	require.NoError(t, err)

	router := setupRouter(t, db, usr.ID)

	rec := postToggle(router, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postToggle(router, fmt.Sprintf(`{"course_id": %q}`, uuid.New()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
