package course

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyhub/studyhub-server-go/pkg/pagination"
	"github.com/studyhub/studyhub-server-go/pkg/types"
)

// Course groups lessons under an owning author. The owner link is
// nullable so admin tooling can reassign or orphan content.
type Course struct {
	types.BaseModel

	Title        string     `gorm:"type:varchar(200);not null" json:"title"`
	Description  string     `gorm:"type:text;not null" json:"description"`
	PreviewImage *string    `gorm:"type:text;column:preview_image" json:"previewImage,omitempty"`
	OwnerID      *uuid.UUID `gorm:"type:uuid;column:owner_id;index" json:"ownerId,omitempty"`
}

// TableName overrides the default table name.
func (Course) TableName() string { return "courses" }

// ListFilters defines course query filters.
type ListFilters struct {
	OwnerID *uuid.UUID
	Keyword string
}

// CreateInput carries data for creating a new course.
type CreateInput struct {
	Title        string
	Description  string
	PreviewImage *string
	OwnerID      uuid.UUID
}

// UpdateInput captures mutable course fields.
type UpdateInput struct {
	Title           *string
	Description     *string
	PreviewImage    *string
	PreviewProvided bool
}

// List retrieves paginated courses, scoped to an owner when set.
func List(db *gorm.DB, filters ListFilters, params pagination.Params) ([]Course, int64, error) {
	query := db.Model(&Course{})

	if filters.OwnerID != nil {
		query = query.Where("owner_id = ?", *filters.OwnerID)
	}

	if filters.Keyword != "" {
		keyword := "%" + strings.ToLower(filters.Keyword) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", keyword, keyword)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []Course
	err := query.
		Order("created_at DESC").
		Offset(params.Skip).
		Limit(params.Limit).
		Find(&courses).Error

	return courses, total, err
}

// Get retrieves a course by ID.
func Get(db *gorm.DB, id uuid.UUID) (Course, error) {
	var crs Course
	if err := db.First(&crs, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return crs, ErrCourseNotFound
		}
		return crs, err
	}
	return crs, nil
}

// Create inserts a new course owned by the creating user.
func Create(db *gorm.DB, input CreateInput) (Course, error) {
	if strings.TrimSpace(input.Title) == "" {
		return Course{}, ErrTitleRequired
	}

	ownerID := input.OwnerID
	crs := Course{
		Title:        strings.TrimSpace(input.Title),
		Description:  input.Description,
		PreviewImage: input.PreviewImage,
		OwnerID:      &ownerID,
	}

	if err := db.Create(&crs).Error; err != nil {
		return Course{}, err
	}

	return crs, nil
}

// Update modifies an existing course.
func Update(db *gorm.DB, id uuid.UUID, input UpdateInput) (Course, error) {
	crs, err := Get(db, id)
	if err != nil {
		return crs, err
	}

	if input.Title != nil {
		trimmed := strings.TrimSpace(*input.Title)
		if trimmed == "" {
			return crs, ErrTitleRequired
		}
		crs.Title = trimmed
	}

	if input.Description != nil {
		crs.Description = *input.Description
	}

	if input.PreviewProvided {
		crs.PreviewImage = input.PreviewImage
	}

	if err := db.Save(&crs).Error; err != nil {
		return crs, err
	}

	return crs, nil
}

// Delete removes a course. Lessons and subscriptions cascade at the
// database level.
func Delete(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&Course{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}
