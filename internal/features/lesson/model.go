package lesson

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server-go/internal/features/course"
	"github.com/studyhub/studyhub-server-go/internal/features/user"
	"github.com/studyhub/studyhub-server-go/pkg/pagination"
	"github.com/studyhub/studyhub-server-go/pkg/types"
	"github.com/studyhub/studyhub-server-go/pkg/validation"
)

// Lesson is a single unit of course material with a hosted video link.
type Lesson struct {
	types.BaseModel

	Title        string     `gorm:"type:varchar(200);not null" json:"title"`
	Description  string     `gorm:"type:text;not null" json:"description"`
	PreviewImage *string    `gorm:"type:text;column:preview_image" json:"previewImage,omitempty"`
	VideoURL     string     `gorm:"type:varchar(400);not null;column:video_url" json:"videoUrl"`
	CourseID     uuid.UUID  `gorm:"type:uuid;not null;column:course_id;index" json:"courseId"`
	OwnerID      *uuid.UUID `gorm:"type:uuid;column:owner_id;index" json:"ownerId,omitempty"`

	// Relations
	Course *course.Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE" json:"-"`
	Owner  *user.User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the default table name.
func (Lesson) TableName() string { return "lessons" }

// ListFilters defines lesson query filters.
type ListFilters struct {
	OwnerID  *uuid.UUID
	CourseID *uuid.UUID
}

// CreateInput carries data for creating a new lesson.
type CreateInput struct {
	Title        string
	Description  string
	PreviewImage *string
	VideoURL     string
	CourseID     uuid.UUID
	OwnerID      uuid.UUID
}

// UpdateInput captures mutable lesson fields.
type UpdateInput struct {
	Title           *string
	Description     *string
	PreviewImage    *string
	PreviewProvided bool
	VideoURL        *string
	CourseID        *uuid.UUID
}

// List retrieves paginated lessons, scoped to an owner when set.
func List(db *gorm.DB, filters ListFilters, params pagination.Params) ([]Lesson, int64, error) {
	query := db.Model(&Lesson{})

	if filters.OwnerID != nil {
		query = query.Where("owner_id = ?", *filters.OwnerID)
	}

	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var lessons []Lesson
	err := query.
		Order("created_at ASC").
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&lessons).Error

	return lessons, total, err
}

// Get retrieves a lesson by ID.
func Get(db *gorm.DB, id uuid.UUID) (Lesson, error) {
	var lsn Lesson
	if err := db.First(&lsn, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return lsn, ErrLessonNotFound
		}
		return lsn, err
	}
	return lsn, nil
}

// Create inserts a new lesson after validating the video link and the
// target course.
func Create(db *gorm.DB, input CreateInput) (Lesson, error) {
	if strings.TrimSpace(input.Title) == "" {
		return Lesson{}, ErrTitleRequired
	}

	if err := validation.ValidateVideoURL(input.VideoURL); err != nil {
		return Lesson{}, ErrInvalidVideoURL
	}

	if _, err := course.Get(db, input.CourseID); err != nil {
		return Lesson{}, err
	}

	ownerID := input.OwnerID
	lsn := Lesson{
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		PreviewImage: input.PreviewImage,
		VideoURL:     strings.TrimSpace(input.VideoURL),
		CourseID:     input.CourseID,
		OwnerID:      &ownerID,
	}

	if err := db.Create(&lsn).Error; err != nil {
		return Lesson{}, err
	}

	return lsn, nil
}

// Update modifies an existing lesson.
func Update(db *gorm.DB, id uuid.UUID, input UpdateInput) (Lesson, error) {
	lsn, err := Get(db, id)
	if err != nil {
		return lsn, err
	}

	if input.Title != nil {
		trimmed := strings.TrimSpace(*input.Title)
		if trimmed == "" {
			return lsn, ErrTitleRequired
		}
		lsn.Title = trimmed
	}

	if input.Description != nil {
		lsn.Description = *input.Description
	}

	if input.PreviewProvided {
		lsn.PreviewImage = input.PreviewImage
	}

	if input.VideoURL != nil {
		if err := validation.ValidateVideoURL(*input.VideoURL); err != nil {
			return lsn, ErrInvalidVideoURL
		}
		lsn.VideoURL = strings.TrimSpace(*input.VideoURL)
	}

	if input.CourseID != nil {
		if _, err := course.Get(db, *input.CourseID); err != nil {
			return lsn, err
		}
		lsn.CourseID = *input.CourseID
	}

	if err := db.Save(&lsn).Error; err != nil {
		return lsn, err
	}

	return lsn, nil
}

// Delete removes a lesson.
func Delete(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&Lesson{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLessonNotFound
	}
	return nil
}
