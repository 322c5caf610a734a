package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server-go/internal/features/course"
	"github.com/studyhub/studyhub-server-go/internal/features/payment"
	"github.com/studyhub/studyhub-server-go/pkg/types"
)

// User represents a platform account. Email is the login identifier.
type User struct {
	types.BaseModel

	Email        string         `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Username     string         `gorm:"type:varchar(150);not null" json:"username"`
	Password     string         `gorm:"type:varchar(255);not null" json:"-"`
	Phone        *string        `gorm:"type:varchar(35)" json:"phone,omitempty"`
	City         *string        `gorm:"type:varchar(100)" json:"city,omitempty"`
	Avatar       *string        `gorm:"type:text" json:"avatar,omitempty"`
	Role         types.UserRole `gorm:"type:varchar(20);not null;default:'member';index" json:"role"`
	IsActive     bool           `gorm:"type:boolean;not null;default:true;column:is_active;index" json:"isActive"`
	LastLogin    *time.Time     `gorm:"column:last_login;index" json:"lastLogin,omitempty"`
	RefreshToken *string        `gorm:"type:text;column:refresh_token" json:"-"`

	// Relations
	Payments []payment.Payment `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"payments,omitempty"`
	Courses  []course.Course   `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the default table name.
func (User) TableName() string { return "users" }

// CreateInput carries data for creating a new user.
type CreateInput struct {
	Email    string
	Username string
	Password string
	Phone    *string
	City     *string
	Avatar   *string
	Role     types.UserRole
}

// ProfileUpdateInput captures the fields a user may edit on their own profile.
type ProfileUpdateInput struct {
	Username       *string
	Phone          *string
	PhoneProvided  bool
	City           *string
	CityProvided   bool
	Avatar         *string
	AvatarProvided bool
	Password       *string
}

// Get retrieves a user by ID.
func Get(db *gorm.DB, id uuid.UUID) (User, error) {
	var usr User
	if err := db.First(&usr, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return usr, ErrUserNotFound
		}
		return usr, err
	}
	return usr, nil
}

// GetByEmail retrieves a user by email, case-insensitively.
func GetByEmail(db *gorm.DB, email string) (User, error) {
	var usr User
	normalized := strings.ToLower(strings.TrimSpace(email))
	if err := db.First(&usr, "LOWER(email) = ?", normalized).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return usr, ErrUserNotFound
		}
		return usr, err
	}
	return usr, nil
}

// GetWithPayments retrieves a user with their payment history preloaded.
func GetWithPayments(db *gorm.DB, id uuid.UUID) (User, error) {
	var usr User
	err := db.Preload("Payments", func(db *gorm.DB) *gorm.DB {
		return db.Order("date DESC")
	}).First(&usr, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return usr, ErrUserNotFound
		}
		return usr, err
	}
	return usr, nil
}

// Create inserts a new user with a hashed password.
func Create(db *gorm.DB, input CreateInput) (User, error) {
	if len(input.Password) < 6 {
		return User{}, ErrWeakPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), 10)
	if err != nil {
		return User{}, err
	}

	role := input.Role
	if role == "" {
		role = types.RoleMember
	}

	usr := User{
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Username: strings.TrimSpace(input.Username),
		Password: string(hashedPassword),
		Phone:    trimStringPtr(input.Phone),
		City:     trimStringPtr(input.City),
		Avatar:   trimStringPtr(input.Avatar),
		Role:     role,
		IsActive: true,
	}

	if err := db.Create(&usr).Error; err != nil {
		if isUniqueViolation(err) {
			return usr, ErrEmailTaken
		}
		return usr, err
	}

	return usr, nil
}

// UpdateProfile modifies a user's own editable fields.
func UpdateProfile(db *gorm.DB, id uuid.UUID, input ProfileUpdateInput) (User, error) {
	usr, err := Get(db, id)
	if err != nil {
		return usr, err
	}

	updates := map[string]interface{}{}

	if input.Username != nil {
		trimmed := strings.TrimSpace(*input.Username)
		if trimmed == "" {
			return usr, ErrMissingFields
		}
		updates["username"] = trimmed
	}

	if input.PhoneProvided {
		updates["phone"] = trimStringPtr(input.Phone)
	}

	if input.CityProvided {
		updates["city"] = trimStringPtr(input.City)
	}

	if input.AvatarProvided {
		updates["avatar"] = trimStringPtr(input.Avatar)
	}

	if input.Password != nil {
		if len(*input.Password) < 6 {
			return usr, ErrWeakPassword
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), 10)
		if err != nil {
			return usr, err
		}
		updates["password"] = string(hashedPassword)
	}

	if len(updates) > 0 {
		if err := db.Model(&User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return usr, err
		}
	}

	return Get(db, id)
}

// TouchLastLogin records a successful login.
func TouchLastLogin(db *gorm.DB, id uuid.UUID) error {
	return db.Model(&User{}).Where("id = ?", id).Update("last_login", time.Now()).Error
}

// SetRefreshToken stores (or clears, when nil) the active refresh token.
func SetRefreshToken(db *gorm.DB, id uuid.UUID, token *string) error {
	return db.Model(&User{}).Where("id = ?", id).Update("refresh_token", token).Error
}

// ComparePassword checks the plaintext password against the stored hash.
func (u *User) ComparePassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

func trimStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
