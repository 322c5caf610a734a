package coursesub

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/studyhub/studyhub-server-go/internal/features/course"
	"github.com/studyhub/studyhub-server-go/internal/features/lesson"
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
	require.NoError(t, db.AutoMigrate(&user.User{}, &course.Course{}, &payment.Payment{}, &CourseSubscription{}))
	return db
}

func seed(t *testing.T, db *gorm.DB) (user.User, course.Course) {
	t.Helper()

	usr, err := user.Create(db, user.CreateInput{
		Email:    "subscriber@example.com",
		Username: "subscriber",
		Password: "secret1",
	})
	require.NoError(t, err)

	crs, err := course.Create(db, course.CreateInput{
		Title:       "Followed course",
		Description: "d",
		OwnerID:     uuid.New(),
	})
	require.NoError(t, err)

	return usr, crs
}

func TestToggle(t *testing.T) {
	db := setupDB(t)
	usr, crs := seed(t, db)

	added, err := Toggle(db, usr.ID, crs.ID)
	require.NoError(t, err)
	assert.True(t, added)

	subscribed, err := IsSubscribed(db, usr.ID, crs.ID)
	require.NoError(t, err)
	assert.True(t, subscribed)

	// second toggle removes
	added, err = Toggle(db, usr.ID, crs.ID)
	require.NoError(t, err)
	assert.False(t, added)

	subscribed, err = IsSubscribed(db, usr.ID, crs.ID)
	require.NoError(t, err)
	assert.False(t, subscribed)

	// third toggle adds again
	added, err = Toggle(db, usr.ID, crs.ID)
	require.NoError(t, err)
	assert.True(t, added)
}

func TestToggleUnknownCourse(t *testing.T) {
	db := setupDB(t)
	usr, _ := seed(t, db)

	_, err := Toggle(db, usr.ID, uuid.New())
	assert.ErrorIs(t, err, course.ErrCourseNotFound)
}

func TestToggleKeepsSingleRow(t *testing.T) {
	db := setupDB(t)
	usr, crs := seed(t, db)

	for i := 0; i < 5; i++ {
		_, err := Toggle(db, usr.ID, crs.ID)
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, db.Model(&CourseSubscription{}).
		Where("user_id = ? AND course_id = ?", usr.ID, crs.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

// setupFKDB opens a database that enforces foreign keys, which sqlite
// leaves off by default, so cascade behavior can be observed.
func setupFKDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&user.User{},
		&course.Course{},
		&payment.Payment{},
		&lesson.Lesson{},
		&CourseSubscription{},
	))
	return db
}

func TestToggleRecoversFromConcurrentAdd(t *testing.T) {
	db := setupDB(t)
	usr, crs := seed(t, db)

	// Slip a rival row in just before the toggle's own insert, the way
	// a concurrent toggle that wins the add would.
	injected := false
	err := db.Callback().Create().Before("gorm:create").Register("rival_toggle", func(tx *gorm.DB) {
		if injected || tx.Statement.Table != "course_subscriptions" {
			return
		}
		injected = true
		rival := CourseSubscription{UserID: usr.ID, CourseID: crs.ID}
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(&rival).Error; err != nil {
			_ = tx.AddError(err)
		}
	})
	require.NoError(t, err)

	added, err := Toggle(db, usr.ID, crs.ID)
	require.NoError(t, err)
	require.True(t, injected)

	// the losing toggle reports removed, and the pair nets out to no row
	assert.False(t, added)

	var count int64
	require.NoError(t, db.Model(&CourseSubscription{}).
		Where("user_id = ? AND course_id = ?", usr.ID, crs.ID).
		Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCourseDeleteCascades(t *testing.T) {
	db := setupFKDB(t)

	owner, err := user.Create(db, user.CreateInput{
		Email:    "owner@example.com",
		Username: "owner",
		Password: "secret1",
	})
	require.NoError(t, err)

	crs, err := course.Create(db, course.CreateInput{
		Title:       "Doomed course",
		Description: "d",
		OwnerID:     owner.ID,
	})
	require.NoError(t, err)

	lsn, err := lesson.Create(db, lesson.CreateInput{
		Title:    "Intro",
		VideoURL: "https://youtube.com/watch?v=abc123",
		CourseID: crs.ID,
		OwnerID:  owner.ID,
	})
	require.NoError(t, err)

	added, err := Toggle(db, owner.ID, crs.ID)
	require.NoError(t, err)
	require.True(t, added)

	require.NoError(t, course.Delete(db, crs.ID))

	_, err = lesson.Get(db, lsn.ID)
	assert.ErrorIs(t, err, lesson.ErrLessonNotFound)

	subscribed, err := IsSubscribed(db, owner.ID, crs.ID)
	require.NoError(t, err)
	assert.False(t, subscribed)
}

func TestTogglePairsAreIndependent(t *testing.T) {
	db := setupDB(t)
	usr, crs := seed(t, db)

	other, err := course.Create(db, course.CreateInput{
		Title:       "Other course",
		Description: "d",
		OwnerID:     uuid.New(),
	})
	require.NoError(t, err)

	_, err = Toggle(db, usr.ID, crs.ID)
	require.NoError(t, err)
	_, err = Toggle(db, usr.ID, other.ID)
	require.NoError(t, err)

	// removing one subscription leaves the other intact
	_, err = Toggle(db, usr.ID, crs.ID)
	require.NoError(t, err)

	subscribed, err := IsSubscribed(db, usr.ID, other.ID)
	require.NoError(t, err)
	assert.True(t, subscribed)
}
