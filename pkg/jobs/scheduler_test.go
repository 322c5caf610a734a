package jobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/studyhub/studyhub-server-go/internal/features/course"
	"github.com/studyhub/studyhub-server-go/internal/features/payment"
	"github.com/studyhub/studyhub-server-go/internal/features/user"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&user.User{}, &course.Course{}, &payment.Payment{}))
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createUserWithLastLogin(t *testing.T, db *gorm.DB, email string, lastLogin *time.Time) user.User {
	t.Helper()

	usr, err := user.Create(db, user.CreateInput{
		Email:    email,
		Username: strings.Split(email, "@")[0],
		Password: "secret1",
	})
	require.NoError(t, err)

	if lastLogin != nil {
		require.NoError(t, db.Model(&user.User{}).
			Where("id = ?", usr.ID).
			Update("last_login", *lastLogin).Error)
	}
	return usr
}

func TestDeactivateStaleUsersJob(t *testing.T) {
	db := setupDB(t)
	threshold := 30 * 24 * time.Hour

	stale := time.Now().Add(-45 * 24 * time.Hour)
	recent := time.Now().Add(-1 * 24 * time.Hour)

	staleUser := createUserWithLastLogin(t, db, "stale@example.com", &stale)
	activeUser := createUserWithLastLogin(t, db, "active@example.com", &recent)
	neverLoggedIn := createUserWithLastLogin(t, db, "fresh@example.com", nil)

	job := NewDeactivateStaleUsersJob(db, threshold, discardLogger())
	require.NoError(t, job.Execute(context.Background()))

	reloaded, err := user.Get(db, staleUser.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)

	reloaded, err = user.Get(db, activeUser.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsActive)

	// accounts that never logged in are not touched
	reloaded, err = user.Get(db, neverLoggedIn.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsActive)
}

func TestDeactivateStaleUsersJobIdempotent(t *testing.T) {
	db := setupDB(t)
	threshold := 30 * 24 * time.Hour

	stale := time.Now().Add(-45 * 24 * time.Hour)
	staleUser := createUserWithLastLogin(t, db, "stale@example.com", &stale)

	job := NewDeactivateStaleUsersJob(db, threshold, discardLogger())
	require.NoError(t, job.Execute(context.Background()))
	require.NoError(t, job.Execute(context.Background()))

	reloaded, err := user.Get(db, staleUser.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)
}

func TestSchedulerRunOnce(t *testing.T) {
	db := setupDB(t)

	scheduler := NewScheduler(discardLogger())
	scheduler.AddJob(NewDeactivateStaleUsersJob(db, time.Hour, discardLogger()), time.Hour)

	require.NoError(t, scheduler.RunOnce("deactivate_stale_users"))
	assert.Error(t, scheduler.RunOnce("no_such_job"))
}
