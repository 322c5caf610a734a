package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/studyhub/studyhub-server-go/internal/features/course"
	"github.com/studyhub/studyhub-server-go/internal/features/coursesub"
	"github.com/studyhub/studyhub-server-go/internal/features/payment"
	"github.com/studyhub/studyhub-server-go/internal/features/user"
)

type fakeMailer struct {
	sent    []string
	failFor map[string]bool
}

func (m *fakeMailer) SendCourseUpdate(to, courseTitle string) error {
	if m.failFor[to] {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, to)
	return nil
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&user.User{},
		&course.Course{},
		&payment.Payment{},
		&coursesub.CourseSubscription{},
	))
	return db
}

func newDispatcher(db *gorm.DB, mailer Mailer) *Dispatcher {
	return NewDispatcher(db, mailer, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func subscribe(t *testing.T, db *gorm.DB, email string, courseID uuid.UUID) {
	t.Helper()

	usr, err := user.Create(db, user.CreateInput{
		Email:    email,
		Username: strings.Split(email, "@")[0],
		Password: "secret1",
	})
	require.NoError(t, err)

	added, err := coursesub.Toggle(db, usr.ID, courseID)
	require.NoError(t, err)
	require.True(t, added)
}

func TestDispatchSendsToSubscribers(t *testing.T) {
	db := setupDB(t)

	crs, err := course.Create(db, course.CreateInput{Title: "Go Basics", Description: "d", OwnerID: uuid.New()})
	require.NoError(t, err)

	subscribe(t, db, "one@example.com", crs.ID)
	subscribe(t, db, "two@example.com", crs.ID)

	mailer := &fakeMailer{}
	result := newDispatcher(db, mailer).Dispatch(context.Background(), crs.ID)

	assert.Equal(t, OutcomeSent, result.Outcome)
	assert.Equal(t, 2, result.Sent)
	assert.ElementsMatch(t, []string{"one@example.com", "two@example.com"}, mailer.sent)
}

func TestDispatchCourseMissing(t *testing.T) {
	db := setupDB(t)

	mailer := &fakeMailer{}
	result := newDispatcher(db, mailer).Dispatch(context.Background(), uuid.New())

	assert.Equal(t, OutcomeCourseMissing, result.Outcome)
	assert.Empty(t, mailer.sent)
}

func TestDispatchCourseLookupError(t *testing.T) {
	db := setupDB(t)

	crs, err := course.Create(db, course.CreateInput{Title: "Gone", Description: "d", OwnerID: uuid.New()})
	require.NoError(t, err)

	// a broken store is a failure, not a missing course
	require.NoError(t, db.Migrator().DropTable(&course.Course{}))

	mailer := &fakeMailer{}
	result := newDispatcher(db, mailer).Dispatch(context.Background(), crs.ID)

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Empty(t, mailer.sent)
}

func TestDispatchNoRecipients(t *testing.T) {
	db := setupDB(t)

	crs, err := course.Create(db, course.CreateInput{Title: "Lonely", Description: "d", OwnerID: uuid.New()})
	require.NoError(t, err)

	mailer := &fakeMailer{}
	result := newDispatcher(db, mailer).Dispatch(context.Background(), crs.ID)

	assert.Equal(t, OutcomeNoRecipients, result.Outcome)
	assert.Empty(t, mailer.sent)
}

func TestDispatchPartialFailure(t *testing.T) {
	db := setupDB(t)

	crs, err := course.Create(db, course.CreateInput{Title: "Flaky", Description: "d", OwnerID: uuid.New()})
	require.NoError(t, err)

	subscribe(t, db, "ok@example.com", crs.ID)
	subscribe(t, db, "down@example.com", crs.ID)

	mailer := &fakeMailer{failFor: map[string]bool{"down@example.com": true}}
	result := newDispatcher(db, mailer).Dispatch(context.Background(), crs.ID)

	// delivery continues past individual failures
	assert.Equal(t, OutcomeSent, result.Outcome)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, []string{"ok@example.com"}, mailer.sent)
}

func TestDispatchAllFailed(t *testing.T) {
	db := setupDB(t)

	crs, err := course.Create(db, course.CreateInput{Title: "Offline", Description: "d", OwnerID: uuid.New()})
	require.NoError(t, err)

	subscribe(t, db, "down@example.com", crs.ID)

	mailer := &fakeMailer{failFor: map[string]bool{"down@example.com": true}}
	result := newDispatcher(db, mailer).Dispatch(context.Background(), crs.ID)

	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, 0, result.Sent)
}
