package auth

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
	"github.com/studyhub/studyhub-server-go/internal/features/user"
	"github.com/studyhub/studyhub-server-go/internal/utils/jwt"
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

func testTokenConfig() TokenConfig {
	return TokenConfig{
		JWTSecret:          "access-secret",
		JWTRefreshSecret:   "refresh-secret",
		AccessTokenExpiry:  30 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
}

func TestRegister(t *testing.T) {
	db := setupDB(t)

	usr, err := Register(db, RegisterInput{
		Email:    "new@example.com",
		Username: "newbie",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", usr.Email)
	assert.True(t, usr.IsActive)
}

func TestRegisterValidation(t *testing.T) {
	db := setupDB(t)

	_, err := Register(db, RegisterInput{Email: "", Username: "x", Password: "secret1"})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = Register(db, RegisterInput{Email: "not-an-email", Username: "x", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = Register(db, RegisterInput{Email: "ok@example.com", Username: "x", Password: "short"})
	assert.ErrorIs(t, err, user.ErrWeakPassword)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := setupDB(t)

	_, err := Register(db, RegisterInput{Email: "taken@example.com", Username: "a", Password: "secret1"})
	require.NoError(t, err)

	_, err = Register(db, RegisterInput{Email: "taken@example.com", Username: "b", Password: "secret2"})
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	db := setupDB(t)
	cfg := testTokenConfig()

	registered, err := Register(db, RegisterInput{Email: "login@example.com", Username: "login", Password: "secret1"})
	require.NoError(t, err)

	resp, err := Login(db, LoginInput{Email: "login@example.com", Password: "secret1"}, cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := jwt.VerifyToken(resp.AccessToken, cfg.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, claims.UserID)

	// login timestamp recorded
	reloaded, err := user.Get(db, registered.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLogin)
	assert.WithinDuration(t, time.Now(), *reloaded.LastLogin, time.Minute)
}

func TestLoginBadCredentials(t *testing.T) {
	db := setupDB(t)
	cfg := testTokenConfig()

	_, err := Register(db, RegisterInput{Email: "login@example.com", Username: "login", Password: "secret1"})
	require.NoError(t, err)

	_, err = Login(db, LoginInput{Email: "login@example.com", Password: "wrong"}, cfg)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// unknown email yields the same error as a bad password
	_, err = Login(db, LoginInput{Email: "nobody@example.com", Password: "secret1"}, cfg)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	db := setupDB(t)
	cfg := testTokenConfig()

	registered, err := Register(db, RegisterInput{Email: "gone@example.com", Username: "gone", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, db.Model(&user.User{}).
		Where("id = ?", registered.ID).
		Update("is_active", false).Error)

	_, err = Login(db, LoginInput{Email: "gone@example.com", Password: "secret1"}, cfg)
	assert.ErrorIs(t, err, ErrInactiveAccount)
}

func TestRefreshTokens(t *testing.T) {
	db := setupDB(t)
	cfg := testTokenConfig()

	_, err := Register(db, RegisterInput{Email: "ref@example.com", Username: "ref", Password: "secret1"})
	require.NoError(t, err)

	resp, err := Login(db, LoginInput{Email: "ref@example.com", Password: "secret1"}, cfg)
	require.NoError(t, err)

	// token timestamps have second precision; make sure the rotated
	// token differs from the original
	time.Sleep(1100 * time.Millisecond)

	pair, err := RefreshTokens(db, resp.RefreshToken, cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	// the old refresh token is rotated out
	_, err = RefreshTokens(db, resp.RefreshToken, cfg)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// the new one keeps working
	_, err = RefreshTokens(db, pair.RefreshToken, cfg)
	require.NoError(t, err)
}

func TestRefreshTokensGarbage(t *testing.T) {
	db := setupDB(t)

	_, err := RefreshTokens(db, "not-a-token", testTokenConfig())
	assert.ErrorIs(t, err, ErrInvalidToken)
}
