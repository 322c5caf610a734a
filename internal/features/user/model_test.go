package user

import (
	"fmt"
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
	"github.com/studyhub/studyhub-server-go/pkg/types"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &course.Course{}, &payment.Payment{}))
	return db
}

func TestCreate(t *testing.T) {
	db := setupDB(t)

	usr, err := Create(db, CreateInput{
		Email:    "  Alice@Example.COM ",
		Username: "alice",
		Password: "secret1",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", usr.Email)
	assert.Equal(t, "alice", usr.Username)
	assert.Equal(t, types.RoleMember, usr.Role)
	assert.True(t, usr.IsActive)
	assert.Nil(t, usr.LastLogin)

	// password is stored hashed
	assert.NotEqual(t, "secret1", usr.Password)
	assert.True(t, usr.ComparePassword("secret1"))
	assert.False(t, usr.ComparePassword("wrong"))
}

func TestCreateWeakPassword(t *testing.T) {
	db := setupDB(t)

	_, err := Create(db, CreateInput{
		Email:    "bob@example.com",
		Username: "bob",
		Password: "short",
	})
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestCreateDuplicateEmail(t *testing.T) {
	db := setupDB(t)

	_, err := Create(db, CreateInput{Email: "dup@example.com", Username: "first", Password: "secret1"})
	require.NoError(t, err)

	_, err = Create(db, CreateInput{Email: "dup@example.com", Username: "second", Password: "secret2"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateWithRole(t *testing.T) {
	db := setupDB(t)

	usr, err := Create(db, CreateInput{
		Email:    "mod@example.com",
		Username: "mod",
		Password: "secret1",
		Role:     types.RoleModerator,
	})
	require.NoError(t, err)
	assert.Equal(t, types.RoleModerator, usr.Role)
}

func TestGetByEmail(t *testing.T) {
	db := setupDB(t)

	created, err := Create(db, CreateInput{Email: "carol@example.com", Username: "carol", Password: "secret1"})
	require.NoError(t, err)

	found, err := GetByEmail(db, "  CAROL@example.COM ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = GetByEmail(db, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	db := setupDB(t)

	phone := "+70000000000"
	usr, err := Create(db, CreateInput{
		Email:    "dave@example.com",
		Username: "dave",
		Password: "secret1",
		Phone:    &phone,
	})
	require.NoError(t, err)

	newName := "david"
	city := "Moscow"
	updated, err := UpdateProfile(db, usr.ID, ProfileUpdateInput{
		Username:     &newName,
		City:         &city,
		CityProvided: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "david", updated.Username)
	require.NotNil(t, updated.City)
	assert.Equal(t, "Moscow", *updated.City)
	// phone untouched when not provided
	require.NotNil(t, updated.Phone)
	assert.Equal(t, phone, *updated.Phone)

	// explicit nil with the Provided flag clears the field
	cleared, err := UpdateProfile(db, usr.ID, ProfileUpdateInput{
		Phone:         nil,
		PhoneProvided: true,
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.Phone)
}

func TestUpdateProfilePassword(t *testing.T) {
	db := setupDB(t)

	usr, err := Create(db, CreateInput{Email: "eve@example.com", Username: "eve", Password: "secret1"})
	require.NoError(t, err)

	newPassword := "changed1"
	_, err = UpdateProfile(db, usr.ID, ProfileUpdateInput{Password: &newPassword})
	require.NoError(t, err)

	reloaded, err := Get(db, usr.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.ComparePassword("changed1"))
	assert.False(t, reloaded.ComparePassword("secret1"))
}

func TestTouchLastLogin(t *testing.T) {
	db := setupDB(t)

	usr, err := Create(db, CreateInput{Email: "frank@example.com", Username: "frank", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, TouchLastLogin(db, usr.ID))

	reloaded, err := Get(db, usr.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLogin)
	assert.WithinDuration(t, time.Now(), *reloaded.LastLogin, time.Minute)
}

func TestGetWithPayments(t *testing.T) {
	db := setupDB(t)

	usr, err := Create(db, CreateInput{Email: "grace@example.com", Username: "grace", Password: "secret1"})
	require.NoError(t, err)

	older := time.Now().Add(-48 * time.Hour)
	newer := time.Now().Add(-1 * time.Hour)
	for _, date := range []time.Time{older, newer} {
		d := date
		_, err := payment.Create(db, payment.CreateInput{
			UserID: &usr.ID,
			Amount: types.NewMoney(100),
			Date:   &d,
		})
		require.NoError(t, err)
	}

	loaded, err := GetWithPayments(db, usr.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Payments, 2)
	// newest first
	assert.True(t, loaded.Payments[0].Date.After(loaded.Payments[1].Date))
}
